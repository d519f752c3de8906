package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAISpeech talks to the OpenAI audio API for both directions: Whisper
// transcription and speech synthesis.
type OpenAISpeech struct {
	client   *openai.Client
	sttModel string
	ttsModel string
	ttsVoice string
}

func NewOpenAISpeech(apiKey, sttModel, ttsModel, ttsVoice string) *OpenAISpeech {
	return NewOpenAISpeechWithConfig(openai.DefaultConfig(apiKey), sttModel, ttsModel, ttsVoice)
}

func NewOpenAISpeechWithConfig(config openai.ClientConfig, sttModel, ttsModel, ttsVoice string) *OpenAISpeech {
	if sttModel == "" {
		sttModel = openai.Whisper1
	}
	if ttsModel == "" {
		ttsModel = string(openai.TTSModel1)
	}
	if ttsVoice == "" {
		ttsVoice = string(openai.VoiceAlloy)
	}
	return &OpenAISpeech{
		client:   openai.NewClientWithConfig(config),
		sttModel: sttModel,
		ttsModel: ttsModel,
		ttsVoice: ttsVoice,
	}
}

func (s *OpenAISpeech) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.sttModel,
		FilePath: fileNameFor(contentType),
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

func (s *OpenAISpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.ttsModel),
		Input:          text,
		Voice:          openai.SpeechVoice(s.ttsVoice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer func() { _ = resp.Close() }()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("openai speech: read audio: %w", err)
	}
	if len(audio) < wavHeaderSize {
		return nil, ErrInvalidAudio
	}
	return audio, nil
}

// fileNameFor picks the upload filename Whisper uses to sniff the container
// format. Browsers mostly send webm; the reference frontend sends wav.
func fileNameFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "webm"):
		return "audio.webm"
	case strings.Contains(contentType, "ogg"):
		return "audio.ogg"
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return "audio.mp3"
	case strings.Contains(contentType, "mp4"):
		return "audio.mp4"
	default:
		return "audio.wav"
	}
}
