package speech

import (
	"context"
	"io"
)

// Transcriber converts recorded user audio into text.
type Transcriber interface {
	// Transcribe reads a complete audio clip and returns the spoken text.
	// The language hint is a BCP-47 code ("de", "fr") and may be empty.
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error)
}

// Synthesizer turns coach text into playable audio.
type Synthesizer interface {
	// Synthesize returns encoded audio for the given text. The caller
	// owns the returned reader and must close it.
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}
