package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"video2srt/internal/chunk"
	"video2srt/internal/language"
	"video2srt/internal/logging"
	"video2srt/internal/media/ffprobe"
	"video2srt/internal/services"
)

const (
	// DemuxedFileName is the file written under the run directory for containers.
	DemuxedFileName = "audio.wav"
	// ChunkDirName holds per-chunk audio files.
	ChunkDirName = "chunks"

	sampleRate = "16000"
	stageName  = "extract"
)

var audioExtensions = map[string]struct{}{
	".wav": {}, ".mp3": {}, ".m4a": {}, ".aac": {}, ".flac": {}, ".ogg": {},
	".oga": {}, ".opus": {}, ".wma": {}, ".aiff": {}, ".aif": {},
}

var containerExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".mov": {}, ".avi": {}, ".webm": {}, ".m4v": {}, ".flv": {},
	".ts": {}, ".mts": {}, ".m2ts": {}, ".mpg": {}, ".mpeg": {}, ".wmv": {}, ".3gp": {},
}

// Kind classifies an input path by extension.
type Kind int

const (
	KindUnsupported Kind = iota
	KindAudio
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindContainer:
		return "container"
	default:
		return "unsupported"
	}
}

// Classify returns the input kind for path based on its extension.
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := audioExtensions[ext]; ok {
		return KindAudio
	}
	if _, ok := containerExtensions[ext]; ok {
		return KindContainer
	}
	return KindUnsupported
}

// Supported reports whether Classify recognizes path.
func Supported(path string) bool {
	return Classify(path) != KindUnsupported
}

// Stream is the single linear audio stream that chunks are cut from.
type Stream struct {
	Path       string
	DurationMs int64
	Demuxed    bool
	// TrackIndex is the container stream index that was demuxed, or -1 when
	// the input was used as-is.
	TrackIndex int
}

// Source extracts and slices audio with ffmpeg.
type Source struct {
	ffmpeg   string
	ffprobe  string
	language string
	run      ffprobe.Runner
	logger   *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithRunner overrides the command runner (primarily for tests).
func WithRunner(run ffprobe.Runner) Option {
	return func(s *Source) {
		if run != nil {
			s.run = run
		}
	}
}

// WithLanguage sets the preferred track language for containers.
func WithLanguage(lang string) Option {
	return func(s *Source) { s.language = strings.TrimSpace(lang) }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSource constructs a Source using the given binaries.
func NewSource(ffmpegBinary, ffprobeBinary string, opts ...Option) *Source {
	s := &Source{
		ffmpeg:  firstNonEmpty(ffmpegBinary, "ffmpeg"),
		ffprobe: firstNonEmpty(ffprobeBinary, "ffprobe"),
		run:     ffprobe.ExecRunner,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "audio")
	return s
}

// Extract produces the linear audio stream for inputPath. Audio files are used
// in place; containers are demuxed to workDir/audio.wav.
func (s *Source) Extract(ctx context.Context, inputPath, workDir string) (Stream, error) {
	logger := logging.WithContext(ctx, s.logger)
	kind := Classify(inputPath)
	if kind == KindUnsupported {
		return Stream{}, services.Wrap(services.ErrUnsupportedFormat, stageName, "classify",
			fmt.Sprintf("unrecognized extension %q", filepath.Ext(inputPath)), nil)
	}

	probe, err := ffprobe.InspectWith(ctx, s.run, s.ffprobe, inputPath)
	if err != nil {
		return Stream{}, services.Wrap(services.ErrExternalTool, stageName, "ffprobe", inputPath, err)
	}

	if kind == KindAudio {
		stream := Stream{Path: inputPath, DurationMs: probe.DurationMs(), TrackIndex: -1}
		logger.Info("using audio input as-is", "path", inputPath, "duration_ms", stream.DurationMs)
		return stream, nil
	}

	streamCount := probe.AudioStreamCount()
	track, ok := SelectTrack(probe.Streams, s.language)
	if streamCount == 0 || !ok {
		return Stream{}, services.Wrap(services.ErrUnsupportedFormat, stageName, "select track", "container has no audio stream", nil)
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Stream{}, services.Wrap(services.ErrConfiguration, stageName, "work dir", workDir, err)
	}
	dest := filepath.Join(workDir, DemuxedFileName)
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-map", fmt.Sprintf("0:%d", track.Index),
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", sampleRate,
		"-c:a", "pcm_s16le",
		dest,
	}
	if _, err := s.run(ctx, s.ffmpeg, args...); err != nil {
		return Stream{}, services.Wrap(services.ErrExternalTool, stageName, "ffmpeg demux", inputPath, err)
	}

	duration := probe.DurationMs()
	if demuxed, err := ffprobe.InspectWith(ctx, s.run, s.ffprobe, dest); err == nil && demuxed.DurationMs() > 0 {
		duration = demuxed.DurationMs()
	}

	logger.Info("demuxed audio track",
		"track_index", track.Index,
		"audio_streams", streamCount,
		"language", language.ExtractFromTags(track.Tags),
		"channels", track.Channels,
		"duration_ms", duration,
	)
	return Stream{Path: dest, DurationMs: duration, Demuxed: true, TrackIndex: track.Index}, nil
}

// Cut writes the audio for c to workDir/chunks/chunk_NNNN.wav and returns its path.
func (s *Source) Cut(ctx context.Context, stream Stream, c chunk.Chunk, workDir string) (string, error) {
	if c.DurationMs <= 0 {
		return "", services.Wrap(services.ErrValidation, "cut", c.Name(), "chunk has no duration", nil)
	}
	dir := filepath.Join(workDir, ChunkDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "cut", "chunk dir", dir, err)
	}
	dest := filepath.Join(dir, c.Name()+".wav")
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", msToSeconds(c.StartMs),
		"-t", msToSeconds(c.DurationMs),
		"-i", stream.Path,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", sampleRate,
		"-c:a", "pcm_s16le",
		dest,
	}
	if _, err := s.run(ctx, s.ffmpeg, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "cut", "ffmpeg "+c.Name(), stream.Path, err)
	}
	return dest, nil
}

// msToSeconds renders milliseconds as a fixed three-decimal seconds string.
func msToSeconds(ms int64) string {
	return decimal.New(ms, -3).StringFixed(3)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
