package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"video2srt/internal/captions"
	"video2srt/internal/config"
	"video2srt/internal/services"
	"video2srt/internal/services/openai"
	"video2srt/internal/services/whisperx"
)

// Transcriber converts one chunk audio file into chunk-local segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]captions.RawSegment, error)
	Name() string
	Model() string
}

// NewTranscriber builds the backend selected by cfg.Transcriber.Backend.
func NewTranscriber(cfg *config.Config, logger *slog.Logger) (Transcriber, error) {
	switch cfg.Transcriber.Backend {
	case config.BackendWhisperX:
		return whisperx.NewService(whisperx.Config{
			Model:       cfg.WhisperX.Model,
			CUDAEnabled: cfg.WhisperX.CUDAEnabled,
			VADMethod:   cfg.WhisperX.VADMethod,
			HFToken:     cfg.WhisperX.HFToken,
			BatchSize:   cfg.WhisperX.BatchSize,
			Language:    cfg.Transcriber.Language,
		}, logger), nil
	case config.BackendOpenAI:
		return openai.New(openai.Config{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.OpenAI.Model,
			Language: cfg.Transcriber.Language,
			Prompt:   cfg.OpenAI.Prompt,
			Timeout:  time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		}, openai.WithLogger(logger)), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcriber", "select backend",
			fmt.Sprintf("unknown backend %q", cfg.Transcriber.Backend), nil)
	}
}
