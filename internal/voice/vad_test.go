package voice

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// pcmFrame builds a 16-bit LE frame where every sample has the given value.
func pcmFrame(sample int16, samples int) []byte {
	frame := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(frame[i*2:], uint16(sample))
	}
	return frame
}

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.Equal(t, 0.0, RMS([]byte{0x01}), "less than one sample")
	assert.Equal(t, 0.0, RMS(pcmFrame(0, 160)))

	// A constant signal's RMS equals its normalized amplitude.
	assert.InDelta(t, 0.5, RMS(pcmFrame(16384, 160)), 0.001)
	assert.InDelta(t, 1.0, RMS(pcmFrame(-32768, 160)), 0.001)
}

func TestDetectorSpeechStartRequiresSustainedLoudness(t *testing.T) {
	cfg := VADConfig{Threshold: 0.02, MinSpeech: 200 * time.Millisecond, SilenceTimeout: 1200 * time.Millisecond}
	d := NewDetector(cfg)

	now := time.Now()
	loud := pcmFrame(8000, 160) // well above threshold
	quiet := pcmFrame(100, 160) // below threshold

	// 100ms of loudness is not yet speech.
	assert.Equal(t, VADNone, d.Feed(loud, now))
	assert.Equal(t, VADNone, d.Feed(loud, now.Add(100*time.Millisecond)))
	assert.False(t, d.Speaking())

	// Crossing MinSpeech flips to speaking exactly once.
	assert.Equal(t, VADSpeechStart, d.Feed(loud, now.Add(200*time.Millisecond)))
	assert.True(t, d.Speaking())
	assert.Equal(t, VADNone, d.Feed(loud, now.Add(300*time.Millisecond)))

	// Short pauses inside the utterance do not end it.
	assert.Equal(t, VADNone, d.Feed(quiet, now.Add(400*time.Millisecond)))
	assert.True(t, d.Speaking())

	// Sustained silence finalizes the utterance.
	assert.Equal(t, VADSpeechEnd, d.Feed(quiet, now.Add(1500*time.Millisecond)))
	assert.False(t, d.Speaking())
}

func TestDetectorQuietFrameResetsShortCandidate(t *testing.T) {
	d := NewDetector(VADConfig{Threshold: 0.02, MinSpeech: 200 * time.Millisecond, SilenceTimeout: 1200 * time.Millisecond})

	now := time.Now()
	loud := pcmFrame(8000, 160)
	quiet := pcmFrame(100, 160)

	// A blip shorter than MinSpeech is discarded by the next quiet frame.
	assert.Equal(t, VADNone, d.Feed(loud, now))
	assert.Equal(t, VADNone, d.Feed(quiet, now.Add(50*time.Millisecond)))

	// The candidate clock restarts: 150ms after the reset is still too short.
	assert.Equal(t, VADNone, d.Feed(loud, now.Add(100*time.Millisecond)))
	assert.Equal(t, VADNone, d.Feed(loud, now.Add(250*time.Millisecond)))
	assert.Equal(t, VADSpeechStart, d.Feed(loud, now.Add(300*time.Millisecond)))
}

func TestDetectorReset(t *testing.T) {
	d := NewDetector(DefaultVADConfig())

	now := time.Now()
	loud := pcmFrame(8000, 160)
	d.Feed(loud, now)
	d.Feed(loud, now.Add(250*time.Millisecond))
	assert.True(t, d.Speaking())

	d.Reset()
	assert.False(t, d.Speaking())
	assert.Equal(t, VADNone, d.Feed(loud, now.Add(300*time.Millisecond)), "reset clears the candidate clock")
}

func TestNewDetectorDefaultsOnZeroConfig(t *testing.T) {
	d := NewDetector(VADConfig{})

	// With defaults applied, a quiet frame stays quiet instead of
	// everything passing a zero threshold.
	assert.Equal(t, VADNone, d.Feed(pcmFrame(100, 160), time.Now()))
	assert.False(t, d.Speaking())
}
