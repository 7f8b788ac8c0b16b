package config

const (
	defaultConfigPath          = "~/.config/video2srt/config.toml"
	defaultLogDir              = "~/.local/share/video2srt/logs"
	defaultHistoryDB           = "~/.local/share/video2srt/history.db"
	defaultMaxChunkMs          = 10 * 60 * 1000
	defaultMaxLineLength       = 40
	defaultWrapPolicy          = "fixed"
	defaultBackend             = BackendWhisperX
	defaultWhisperXModel       = "large-v3"
	defaultWhisperXVADMethod   = "silero"
	defaultWhisperXBatchSize   = 4
	defaultOpenAIBaseURL       = "https://api.openai.com/v1"
	defaultOpenAIModel         = "whisper-1"
	defaultOpenAITimeout       = 600
	defaultDocxFont            = "Times New Roman"
	defaultDocxFontSize        = 13
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultWatchSettleMs       = 1000
	defaultKeepWorkFiles       = true
	defaultDocxTimingsDisabled = false
)

// Backend names accepted by transcriber.backend.
const (
	BackendWhisperX = "whisperx"
	BackendOpenAI   = "openai"
)

var defaultWatchExtensions = []string{".mp4", ".mkv", ".mov", ".avi", ".webm", ".m4v", ".mp3", ".wav", ".m4a", ".flac"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:       defaultWorkDir(),
			LogDir:        defaultLogDir,
			HistoryDB:     defaultHistoryDB,
			KeepWorkFiles: defaultKeepWorkFiles,
		},
		Chunking: Chunking{
			MaxChunkMs: defaultMaxChunkMs,
		},
		Captions: Captions{
			MaxLineLength: defaultMaxLineLength,
			WrapPolicy:    defaultWrapPolicy,
		},
		WhisperX: WhisperX{
			Model:     defaultWhisperXModel,
			VADMethod: defaultWhisperXVADMethod,
			BatchSize: defaultWhisperXBatchSize,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			Model:          defaultOpenAIModel,
			TimeoutSeconds: defaultOpenAITimeout,
		},
		Output: Output{
			DocxFont:     defaultDocxFont,
			DocxFontSize: defaultDocxFontSize,
			DocxTimings:  defaultDocxTimingsDisabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
		},
		Watch: Watch{
			SettleMs:   defaultWatchSettleMs,
			Extensions: append([]string(nil), defaultWatchExtensions...),
		},
	}
}
