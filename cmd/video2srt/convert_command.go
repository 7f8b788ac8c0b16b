package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"video2srt/internal/config"
	"video2srt/internal/history"
	"video2srt/internal/logging"
	"video2srt/internal/pipeline"
)

type convertRequest struct {
	input         string
	output        string
	maxLineLength int
	docx          string
}

func runConvert(cmd *cobra.Command, ctx *commandContext, req convertRequest) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	input, err := config.ExpandPath(req.input)
	if err != nil {
		return err
	}
	output, err := config.ExpandPath(req.output)
	if err != nil {
		return err
	}
	docx := ""
	if req.docx != "" {
		if docx, err = config.ExpandPath(req.docx); err != nil {
			return err
		}
	}

	logger, err := ctx.newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	p, closeFn, err := buildPipeline(cmd, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := p.Run(cmd.Context(), pipeline.Request{
		InputPath:     input,
		OutputPath:    output,
		MaxLineLength: req.maxLineLength,
		DocxPath:      docx,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d captions from %d chunks to %s\n", len(result.Captions), result.ChunkCount, result.OutputPath)
	if result.DocxPath != "" {
		fmt.Fprintf(out, "Transcript: %s\n", result.DocxPath)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintf(out, "%d timeline warnings logged\n", len(result.Warnings))
	}
	return nil
}

// buildPipeline wires the configured backend, history store, and progress
// output. The returned func closes the history store.
func buildPipeline(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, opts ...pipeline.Option) (*pipeline.Pipeline, func(), error) {
	closeFn := func() {}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
	} else {
		closeFn = func() { _ = store.Close() }
		opts = append(opts, pipeline.WithHistory(store))
	}
	opts = append(opts, pipeline.WithLogger(logger))
	if reporter := newProgressReporter(cmd.ErrOrStderr()); reporter != nil {
		opts = append(opts, pipeline.WithProgress(reporter.report))
	}
	p, err := pipeline.New(cfg, opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return p, closeFn, nil
}
