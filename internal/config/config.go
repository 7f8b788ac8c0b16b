package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains scratch, log, and history locations.
type Paths struct {
	WorkDir       string `toml:"work_dir" yaml:"work_dir"`
	LogDir        string `toml:"log_dir" yaml:"log_dir"`
	HistoryDB     string `toml:"history_db" yaml:"history_db"`
	KeepWorkFiles bool   `toml:"keep_work_files" yaml:"keep_work_files"`
}

// Chunking controls how the audio timeline is split before transcription.
type Chunking struct {
	MaxChunkMs int64 `toml:"max_chunk_ms" yaml:"max_chunk_ms"`
	// ChunkMinutes, when positive, overrides MaxChunkMs.
	ChunkMinutes int `toml:"chunk_minutes" yaml:"chunk_minutes"`
}

// Captions controls caption text formatting.
type Captions struct {
	MaxLineLength int      `toml:"max_line_length" yaml:"max_line_length"`
	WrapPolicy    string   `toml:"wrap_policy" yaml:"wrap_policy"`
	StripChars    []string `toml:"strip_chars" yaml:"strip_chars"`
}

// Transcriber selects the speech-to-text backend.
type Transcriber struct {
	Backend  string `toml:"backend" yaml:"backend"`
	Language string `toml:"language" yaml:"language"`
}

// WhisperX contains settings for the uvx-launched WhisperX backend.
type WhisperX struct {
	Model       string `toml:"model" yaml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled" yaml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method" yaml:"vad_method"`
	HFToken     string `toml:"hf_token" yaml:"hf_token"`
	BatchSize   int    `toml:"batch_size" yaml:"batch_size"`
}

// OpenAI contains settings for an OpenAI-compatible transcription endpoint.
type OpenAI struct {
	APIKey         string `toml:"api_key" yaml:"api_key"`
	BaseURL        string `toml:"base_url" yaml:"base_url"`
	Model          string `toml:"model" yaml:"model"`
	Prompt         string `toml:"prompt" yaml:"prompt"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// Output contains settings for optional side outputs.
type Output struct {
	DocxFont     string `toml:"docx_font" yaml:"docx_font"`
	DocxFontSize int    `toml:"docx_font_size" yaml:"docx_font_size"`
	DocxTimings  bool   `toml:"docx_timings" yaml:"docx_timings"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" yaml:"format"`
	Level  string `toml:"level" yaml:"level"`
}

// Watch contains settings for the directory watch command.
type Watch struct {
	SettleMs   int      `toml:"settle_ms" yaml:"settle_ms"`
	Extensions []string `toml:"extensions" yaml:"extensions"`
}

// Config encapsulates all configuration values for video2srt.
//
// Configuration sections by subsystem:
//   - Paths: scratch, log, and history locations
//   - Chunking: maximum chunk duration
//   - Captions: line width, wrap policy, strip-set
//   - Transcriber: backend selection and language hint
//   - WhisperX / OpenAI: backend-specific settings
//   - Output: DOCX transcript styling
//   - Logging: log format and level
//   - Watch: directory watch behaviour
type Config struct {
	Paths       Paths       `toml:"paths" yaml:"paths"`
	Chunking    Chunking    `toml:"chunking" yaml:"chunking"`
	Captions    Captions    `toml:"captions" yaml:"captions"`
	Transcriber Transcriber `toml:"transcriber" yaml:"transcriber"`
	WhisperX    WhisperX    `toml:"whisperx" yaml:"whisperx"`
	OpenAI      OpenAI      `toml:"openai" yaml:"openai"`
	Output      Output      `toml:"output" yaml:"output"`
	Logging     Logging     `toml:"logging" yaml:"logging"`
	Watch       Watch       `toml:"watch" yaml:"watch"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file is not an error; defaults are used.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := decode(file, resolvedPath, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(r io.Reader, path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(r)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		decoder := toml.NewDecoder(r)
		decoder.DisallowUnknownFields()
		return decoder.Decode(cfg)
	}
}

// loadDotEnv reads .env files from the working directory and the config
// directory. Variables already present in the environment win.
func loadDotEnv(configPath string) error {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load %s: %w", abs, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	for _, name := range []string{"video2srt.toml", "video2srt.yaml", "video2srt.yml"} {
		projectPath, err := filepath.Abs(name)
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
			return projectPath, true, nil
		}
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.LogDir}
	if c.Paths.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ChunkDurationMs returns the effective maximum chunk duration.
func (c *Config) ChunkDurationMs() int64 {
	if c.Chunking.ChunkMinutes > 0 {
		return int64(c.Chunking.ChunkMinutes) * 60_000
	}
	return c.Chunking.MaxChunkMs
}

// LogFilePath returns the path of the persistent log file.
func (c *Config) LogFilePath() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "video2srt.log")
}

// LockPath returns the path of the work directory lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.WorkDir, ".video2srt.lock")
}

// FFmpegBinary returns the ffmpeg executable name used for audio extraction.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultWorkDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "video2srt", "work")
	}
	return "~/.cache/video2srt/work"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
