package config

import (
	"fmt"
	"os"
	"strings"

	"video2srt/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCaptions()
	if err := c.normalizeTranscriber(); err != nil {
		return err
	}
	c.normalizeWhisperX()
	c.normalizeOpenAI()
	c.normalizeOutput()
	c.normalizeLogging()
	c.normalizeWatch()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir()
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeCaptions() {
	c.Captions.WrapPolicy = strings.ToLower(strings.TrimSpace(c.Captions.WrapPolicy))
	if c.Captions.WrapPolicy == "" {
		c.Captions.WrapPolicy = defaultWrapPolicy
	}
	if c.Captions.MaxLineLength == 0 {
		c.Captions.MaxLineLength = defaultMaxLineLength
	}
	if len(c.Captions.StripChars) > 0 {
		filtered := c.Captions.StripChars[:0]
		for _, value := range c.Captions.StripChars {
			if value != "" {
				filtered = append(filtered, value)
			}
		}
		c.Captions.StripChars = filtered
	}
}

func (c *Config) normalizeTranscriber() error {
	c.Transcriber.Backend = strings.ToLower(strings.TrimSpace(c.Transcriber.Backend))
	if c.Transcriber.Backend == "" {
		c.Transcriber.Backend = strings.ToLower(strings.TrimSpace(os.Getenv("VIDEO2SRT_BACKEND")))
	}
	if c.Transcriber.Backend == "" {
		c.Transcriber.Backend = defaultBackend
	}

	lang := strings.TrimSpace(c.Transcriber.Language)
	if lang == "" {
		lang = strings.TrimSpace(os.Getenv("VIDEO2SRT_LANGUAGE"))
	}
	if lang == "" {
		c.Transcriber.Language = ""
		return nil
	}
	normalized, err := language.Normalize(lang)
	if err != nil {
		return fmt.Errorf("transcriber.language: %w", err)
	}
	c.Transcriber.Language = normalized
	return nil
}

func (c *Config) normalizeWhisperX() {
	c.WhisperX.Model = strings.TrimSpace(c.WhisperX.Model)
	if c.WhisperX.Model == "" {
		c.WhisperX.Model = defaultWhisperXModel
	}
	c.WhisperX.VADMethod = strings.ToLower(strings.TrimSpace(c.WhisperX.VADMethod))
	if c.WhisperX.VADMethod == "" {
		c.WhisperX.VADMethod = defaultWhisperXVADMethod
	}
	c.WhisperX.HFToken = strings.TrimSpace(c.WhisperX.HFToken)
	if c.WhisperX.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		}
	}
	if c.WhisperX.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		}
	}
	if c.WhisperX.BatchSize == 0 {
		c.WhisperX.BatchSize = defaultWhisperXBatchSize
	}
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
	if c.OpenAI.BaseURL == "" {
		if value, ok := os.LookupEnv("OPENAI_BASE_URL"); ok {
			c.OpenAI.BaseURL = strings.TrimSpace(value)
		}
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	c.OpenAI.BaseURL = strings.TrimRight(c.OpenAI.BaseURL, "/")
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
	c.OpenAI.Prompt = strings.TrimSpace(c.OpenAI.Prompt)
	if c.OpenAI.TimeoutSeconds == 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeout
	}
}

func (c *Config) normalizeOutput() {
	c.Output.DocxFont = strings.TrimSpace(c.Output.DocxFont)
	if c.Output.DocxFont == "" {
		c.Output.DocxFont = defaultDocxFont
	}
	if c.Output.DocxFontSize == 0 {
		c.Output.DocxFontSize = defaultDocxFontSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(os.Getenv("VIDEO2SRT_LOG_LEVEL")))
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeWatch() {
	if c.Watch.SettleMs == 0 {
		c.Watch.SettleMs = defaultWatchSettleMs
	}
	if len(c.Watch.Extensions) == 0 {
		c.Watch.Extensions = append([]string(nil), defaultWatchExtensions...)
		return
	}
	seen := make(map[string]struct{}, len(c.Watch.Extensions))
	result := make([]string, 0, len(c.Watch.Extensions))
	for _, ext := range c.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		result = append(result, ext)
	}
	c.Watch.Extensions = result
}
