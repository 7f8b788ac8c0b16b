package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"video2srt/internal/config"
	"video2srt/internal/language"
	"video2srt/internal/logging"
)

// overrides holds flag values that take precedence over the config file.
type overrides struct {
	backend      string
	model        string
	language     string
	chunkMinutes int
	wrapPolicy   string
	logLevel     string
}

type commandContext struct {
	configFlag *string
	flags      *overrides

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, flags *overrides) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		flags:      flags,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := c.applyOverrides(cfg); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) applyOverrides(cfg *config.Config) error {
	if c.flags == nil {
		return nil
	}
	f := c.flags
	if v := strings.ToLower(strings.TrimSpace(f.backend)); v != "" {
		cfg.Transcriber.Backend = v
	}
	if v := strings.TrimSpace(f.model); v != "" {
		switch cfg.Transcriber.Backend {
		case config.BackendOpenAI:
			cfg.OpenAI.Model = v
		default:
			cfg.WhisperX.Model = v
		}
	}
	if v := strings.TrimSpace(f.language); v != "" {
		normalized, err := language.Normalize(v)
		if err != nil {
			return fmt.Errorf("--language: %w", err)
		}
		cfg.Transcriber.Language = normalized
	}
	if f.chunkMinutes != 0 {
		cfg.Chunking.ChunkMinutes = f.chunkMinutes
	}
	if v := strings.TrimSpace(f.wrapPolicy); v != "" {
		cfg.Captions.WrapPolicy = strings.ToLower(v)
	}
	if v := strings.TrimSpace(f.logLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	return cfg.Validate()
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// newLogger builds the run logger with console output on the command's
// stderr and a JSON copy in the log file.
func (c *commandContext) newLogger(cmd *cobra.Command, cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Console:  cmd.ErrOrStderr(),
		FilePath: cfg.LogFilePath(),
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
