package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
)

// Whisper transcribes audio with the OpenAI Whisper API. It also works with
// any OpenAI-compatible provider by setting a base URL.
type Whisper struct {
	client   *openai.Client
	model    openai.AudioModel
	language string
}

// WhisperOption customizes the Whisper client.
type WhisperOption func(*whisperConfig)

type whisperConfig struct {
	model    openai.AudioModel
	language string
	baseURL  string
}

// WithModel overrides the default whisper-1 model.
func WithModel(m string) WhisperOption {
	return func(c *whisperConfig) { c.model = openai.AudioModel(m) }
}

// WithLanguage sets the expected spoken language (ISO 639-1).
func WithLanguage(lang string) WhisperOption {
	return func(c *whisperConfig) { c.language = lang }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(u string) WhisperOption {
	return func(c *whisperConfig) { c.baseURL = u }
}

// NewWhisper constructs a Whisper transcriber.
func NewWhisper(apiKey string, opts ...WhisperOption) *Whisper {
	cfg := whisperConfig{model: openai.AudioModelWhisper1, language: "en"}
	for _, o := range opts {
		o(&cfg)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &Whisper{client: &client, model: cfg.model, language: cfg.language}
}

var _ Transcriber = (*Whisper)(nil)

// Transcribe uploads the audio as a WAV file and returns the transcript.
func (w *Whisper) Transcribe(ctx context.Context, audio model.Audio) (string, error) {
	if len(audio.Samples) == 0 {
		return "", fmt.Errorf("%w: empty audio", errs.ErrTranscriptionFailed)
	}

	params := openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(encodeWAV(audio)), "audio.wav", "audio/wav"),
		Model:    w.model,
		Language: openai.String(w.language),
	}
	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", errs.ErrTranscriptionFailed, err)
	}
	return strings.TrimSpace(resp.Text), nil
}
