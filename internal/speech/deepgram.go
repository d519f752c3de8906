package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	prerecorded "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

// DeepgramSTT transcribes uploaded audio buffers through the Deepgram
// prerecorded REST API. Transcription only; synthesis stays with OpenAI.
type DeepgramSTT struct {
	client *prerecorded.Client
	model  string
}

func NewDeepgramSTT(apiKey, model string) *DeepgramSTT {
	if model == "" {
		model = "nova-2"
	}
	rest := listen.NewREST(apiKey, &interfaces.ClientOptions{})
	return &DeepgramSTT{client: prerecorded.New(rest), model: model}
}

func (d *DeepgramSTT) Transcribe(ctx context.Context, audio []byte, _ string) (string, error) {
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.model,
		Punctuate:   true,
		SmartFormat: true,
	}

	res, err := d.client.FromStream(ctx, bytes.NewReader(audio), options)
	if err != nil {
		return "", fmt.Errorf("deepgram transcription: %w", err)
	}

	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", ErrEmptyTranscript
	}

	text := strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
