package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video2srt/internal/captions"
	"video2srt/internal/chunk"
	"video2srt/internal/config"
	"video2srt/internal/fileutil"
	"video2srt/internal/history"
	"video2srt/internal/logging"
	"video2srt/internal/media/audio"
	"video2srt/internal/services"
	"video2srt/internal/subtitles"
)

// AudioSource produces the linear audio stream and its chunk files.
type AudioSource interface {
	Extract(ctx context.Context, inputPath, workDir string) (audio.Stream, error)
	Cut(ctx context.Context, stream audio.Stream, c chunk.Chunk, workDir string) (string, error)
}

// Request describes one conversion.
type Request struct {
	InputPath  string
	OutputPath string
	// MaxLineLength overrides captions.max_line_length when positive.
	MaxLineLength int
	// DocxPath, when set, also writes a transcript document.
	DocxPath string
}

// Result summarizes a successful conversion.
type Result struct {
	RunID      string
	OutputPath string
	DocxPath   string
	Captions   []captions.Caption
	ChunkCount int
	// Skipped counts transcribed segments dropped for having no text.
	Skipped    int
	DurationMs int64
	Warnings   []string
	Elapsed    time.Duration
}

// Progress reports loop position to an optional observer.
type Progress struct {
	Stage string
	Chunk int
	Total int
}

// Pipeline runs conversions one chunk at a time.
type Pipeline struct {
	cfg         *config.Config
	source      AudioSource
	transcriber Transcriber
	history     *history.Store
	logger      *slog.Logger
	progress    func(Progress)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSource overrides the audio source.
func WithSource(source AudioSource) Option {
	return func(p *Pipeline) { p.source = source }
}

// WithTranscriber overrides the configured backend.
func WithTranscriber(t Transcriber) Option {
	return func(p *Pipeline) { p.transcriber = t }
}

// WithHistory records runs in store.
func WithHistory(store *history.Store) Option {
	return func(p *Pipeline) { p.history = store }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProgress registers a callback invoked after each stage step.
func WithProgress(fn func(Progress)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// New constructs a pipeline from cfg. Missing collaborators are built from
// configuration.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config required", nil)
	}
	p := &Pipeline{cfg: cfg, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.source == nil {
		p.source = audio.NewSource(cfg.FFmpegBinary(), cfg.FFprobeBinary(),
			audio.WithLanguage(cfg.Transcriber.Language),
			audio.WithLogger(p.logger),
		)
	}
	if p.transcriber == nil {
		t, err := NewTranscriber(cfg, p.logger)
		if err != nil {
			return nil, err
		}
		p.transcriber = t
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	return p, nil
}

// Transcriber returns the active backend.
func (p *Pipeline) Transcriber() Transcriber {
	return p.transcriber
}

func (p *Pipeline) wrapper(override int) (*captions.Wrapper, error) {
	policy, err := captions.ParsePolicy(p.cfg.Captions.WrapPolicy)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "captions", "wrap policy", p.cfg.Captions.WrapPolicy, err)
	}
	width := p.cfg.Captions.MaxLineLength
	if override > 0 {
		width = override
	}
	w, err := captions.NewWrapper(captions.WrapOptions{
		MaxLineLength: width,
		Policy:        policy,
		StripChars:    p.cfg.Captions.StripChars,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "captions", "wrapper", "", err)
	}
	return w, nil
}

// Run converts req.InputPath to an SRT file at req.OutputPath. Any failure
// aborts the run; the output file is only written after every chunk has been
// transcribed and assembled.
func (p *Pipeline) Run(ctx context.Context, req Request) (result Result, err error) {
	started := time.Now()
	if strings.TrimSpace(req.InputPath) == "" || strings.TrimSpace(req.OutputPath) == "" {
		return Result{}, services.Wrap(services.ErrUsage, "pipeline", "request", "input and output paths are required", nil)
	}
	info, statErr := os.Stat(req.InputPath)
	if statErr != nil {
		return Result{}, services.Wrap(services.ErrNotFound, "pipeline", "input", req.InputPath, statErr)
	}
	if info.IsDir() {
		return Result{}, services.Wrap(services.ErrUsage, "pipeline", "input", req.InputPath+" is a directory", nil)
	}
	wrapper, err := p.wrapper(req.MaxLineLength)
	if err != nil {
		return Result{}, err
	}

	runID := history.NewRunID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	lock, err := acquireWorkLock(p.cfg.LockPath())
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if releaseErr := lock.release(); releaseErr != nil {
			logger.Warn("failed to release work lock", logging.Error(releaseErr))
		}
	}()

	inputHash, hashErr := fileutil.HashFile(req.InputPath)
	if hashErr != nil {
		logger.Warn("input fingerprint unavailable", logging.Error(hashErr))
	}

	run := &history.Run{
		ID:         runID,
		InputPath:  req.InputPath,
		InputHash:  inputHash,
		OutputPath: req.OutputPath,
		Backend:    p.transcriber.Name(),
		Model:      p.transcriber.Model(),
		StartedAt:  started.UTC(),
	}
	if p.history != nil {
		if beginErr := p.history.Begin(ctx, run); beginErr != nil {
			logger.Warn("history record unavailable", logging.Error(beginErr))
		} else {
			defer func() {
				outcome := history.Outcome{
					ChunkCount:   result.ChunkCount,
					CaptionCount: len(result.Captions),
					DurationMs:   result.DurationMs,
					Err:          err,
					ErrorKind:    services.Kind(err),
				}
				// Record the outcome even when ctx was cancelled.
				if finishErr := p.history.Finish(context.WithoutCancel(ctx), runID, outcome); finishErr != nil {
					logger.Warn("failed to record run outcome", logging.Error(finishErr))
				}
			}()
		}
	}

	logger.Info("conversion started",
		"input", req.InputPath,
		"output", req.OutputPath,
		"backend", p.transcriber.Name(),
		"model", p.transcriber.Model(),
		"max_line_length", wrapper.MaxLineLength(),
		"wrap_policy", string(wrapper.Policy()),
	)

	runDir := filepath.Join(p.cfg.Paths.WorkDir, runID)
	result, err = p.convert(ctx, req, wrapper, runDir)
	result.RunID = runID
	result.Elapsed = time.Since(started)
	if err != nil {
		logger.Error("conversion failed", logging.Error(err), "error_kind", services.Kind(err))
		return result, err
	}

	if !p.cfg.Paths.KeepWorkFiles {
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			logger.Warn("failed to remove work files", "dir", runDir, logging.Error(rmErr))
		}
	}

	logger.Info("conversion finished",
		"captions", len(result.Captions),
		"chunks", result.ChunkCount,
		"duration_ms", result.DurationMs,
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	return result, nil
}

func (p *Pipeline) convert(ctx context.Context, req Request, wrapper *captions.Wrapper, runDir string) (Result, error) {
	var result Result

	extractCtx := services.WithStage(ctx, "extract")
	stream, err := p.source.Extract(extractCtx, req.InputPath, runDir)
	if err != nil {
		return result, err
	}
	result.DurationMs = stream.DurationMs
	p.report(Progress{Stage: "extract"})

	chunks, err := chunk.Split(stream.DurationMs, p.cfg.ChunkDurationMs())
	if err != nil {
		return result, err
	}
	result.ChunkCount = len(chunks)
	logging.WithContext(extractCtx, p.logger).Info("audio split into chunks",
		"chunks", len(chunks),
		"chunk_ms", p.cfg.ChunkDurationMs(),
		"covered", chunk.Total(chunks),
		"demuxed", stream.Demuxed,
	)

	assembler := captions.NewAssembler(wrapper)
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return result, services.Wrap(services.ErrTranscription, "transcribe", "cancelled", c.Name(), err)
		}
		chunkCtx := services.WithChunkIndex(services.WithStage(ctx, "transcribe"), c.Index)
		chunkLogger := logging.WithContext(chunkCtx, p.logger)

		chunkPath, err := p.source.Cut(chunkCtx, stream, c, runDir)
		if err != nil {
			return result, err
		}
		segments, err := p.transcriber.Transcribe(chunkCtx, chunkPath)
		if err != nil {
			if !errors.Is(err, services.ErrTranscription) {
				err = services.Wrap(services.ErrTranscription, "transcribe", p.transcriber.Name(), c.Name(), err)
			}
			return result, err
		}
		if err := assembler.Add(c, segments); err != nil {
			return result, err
		}
		chunkLogger.Info("chunk transcribed",
			"segments", len(segments),
			"captions", assembler.Len(),
			"start", c.Start(),
			"offset", assembler.Offset(),
		)
		p.report(Progress{Stage: "transcribe", Chunk: c.Index + 1, Total: len(chunks)})
	}

	caps := assembler.Captions()
	result.Captions = caps
	result.Skipped = assembler.Skipped()
	if result.Skipped > 0 {
		logging.WithContext(ctx, p.logger).Info("segments without text skipped",
			"skipped", result.Skipped,
			"chunks", assembler.ChunkCount(),
		)
	}
	result.Warnings = subtitles.Validate(caps, time.Duration(stream.DurationMs)*time.Millisecond)
	writeCtx := services.WithStage(ctx, "write")
	for _, warning := range result.Warnings {
		logging.WithContext(writeCtx, p.logger).Warn("caption timeline issue", "issue", warning)
	}

	if err := subtitles.WriteSRT(req.OutputPath, caps); err != nil {
		return result, fmt.Errorf("write srt %s: %w", req.OutputPath, err)
	}
	if err := verifyWrittenSRT(req.OutputPath, len(caps)); err != nil {
		return result, err
	}
	result.OutputPath = req.OutputPath

	if req.DocxPath != "" {
		opts := subtitles.TranscriptOptions{
			Title:       strings.TrimSuffix(filepath.Base(req.InputPath), filepath.Ext(req.InputPath)),
			FontName:    p.cfg.Output.DocxFont,
			FontSize:    uint64(p.cfg.Output.DocxFontSize),
			ShowTimings: p.cfg.Output.DocxTimings,
		}
		if err := subtitles.WriteTranscriptDocx(req.DocxPath, caps, opts); err != nil {
			return result, fmt.Errorf("write transcript %s: %w", req.DocxPath, err)
		}
		result.DocxPath = req.DocxPath
	}
	p.report(Progress{Stage: "write", Chunk: len(chunks), Total: len(chunks)})
	return result, nil
}

// verifyWrittenSRT reads the output back and checks it parses to the
// expected number of captions.
func verifyWrittenSRT(path string, want int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "write", "verify srt", path, err)
	}
	parsed, err := subtitles.ParseSRT(string(data))
	if err != nil {
		return services.Wrap(services.ErrValidation, "write", "verify srt", path, err)
	}
	if len(parsed) != want {
		return services.Wrap(services.ErrValidation, "write", "verify srt",
			fmt.Sprintf("%s holds %d captions, expected %d", path, len(parsed), want), nil)
	}
	return nil
}

func (p *Pipeline) report(progress Progress) {
	if p.progress != nil {
		p.progress(progress)
	}
}
