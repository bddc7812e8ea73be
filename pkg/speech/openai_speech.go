package speech

import (
	"context"
	"fmt"
	"io"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAISpeech implements Transcriber and Synthesizer against the
// OpenAI audio endpoints (Whisper for STT, tts-1 for TTS).
type OpenAISpeech struct {
	client   *goopenai.Client
	sttModel string
	ttsModel goopenai.SpeechModel
	voice    goopenai.SpeechVoice
}

func NewOpenAISpeech(apiKey, baseURL, voice string) *OpenAISpeech {
	config := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	v := goopenai.SpeechVoice(voice)
	if voice == "" {
		v = goopenai.VoiceAlloy
	}
	return &OpenAISpeech{
		client:   goopenai.NewClientWithConfig(config),
		sttModel: goopenai.Whisper1,
		ttsModel: goopenai.TTSModel1,
		voice:    v,
	}
}

func (s *OpenAISpeech) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error) {
	resp, err := s.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    s.sttModel,
		Reader:   audio,
		FilePath: filename,
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return resp.Text, nil
}

func (s *OpenAISpeech) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	resp, err := s.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          s.ttsModel,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	return resp, nil
}
