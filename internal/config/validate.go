package config

import (
	"errors"
	"fmt"
	"net/url"

	"video2srt/internal/captions"
)

// Validate ensures the configuration contains usable values.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateChunking(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateTranscriber(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateWatch()
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateChunking() error {
	if c.Chunking.ChunkMinutes < 0 {
		return errors.New("chunking.chunk_minutes must be positive")
	}
	if c.ChunkDurationMs() <= 0 {
		return errors.New("chunking.max_chunk_ms must be positive")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	if c.Captions.MaxLineLength <= 0 {
		return errors.New("captions.max_line_length must be positive")
	}
	if _, err := captions.ParsePolicy(c.Captions.WrapPolicy); err != nil {
		return fmt.Errorf("captions.wrap_policy: %w", err)
	}
	return nil
}

func (c *Config) validateTranscriber() error {
	switch c.Transcriber.Backend {
	case BackendWhisperX:
		return c.validateWhisperX()
	case BackendOpenAI:
		return c.validateOpenAI()
	default:
		return fmt.Errorf("transcriber.backend must be %q or %q, got %q", BackendWhisperX, BackendOpenAI, c.Transcriber.Backend)
	}
}

func (c *Config) validateWhisperX() error {
	switch c.WhisperX.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("whisperx.vad_method must be silero or pyannote, got %q", c.WhisperX.VADMethod)
	}
	if c.WhisperX.VADMethod == "pyannote" && c.WhisperX.HFToken == "" {
		return errors.New("whisperx.hf_token is required when whisperx.vad_method is pyannote")
	}
	if c.WhisperX.BatchSize <= 0 {
		return errors.New("whisperx.batch_size must be positive")
	}
	return nil
}

func (c *Config) validateOpenAI() error {
	parsed, err := url.Parse(c.OpenAI.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("openai.base_url must be an absolute URL, got %q", c.OpenAI.BaseURL)
	}
	if c.OpenAI.APIKey == "" && c.OpenAI.BaseURL == defaultOpenAIBaseURL {
		return errors.New("openai.api_key is required when transcriber.backend is openai (or set OPENAI_API_KEY)")
	}
	return ensurePositiveMap(map[string]int{
		"openai.timeout_seconds": c.OpenAI.TimeoutSeconds,
	})
}

func (c *Config) validateOutput() error {
	return ensurePositiveMap(map[string]int{
		"output.docx_font_size": c.Output.DocxFontSize,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.SettleMs < 0 {
		return errors.New("watch.settle_ms must not be negative")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
