package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"video2srt/internal/config"
	"video2srt/internal/pipeline"
	"video2srt/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Convert media files as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			outDir := ""
			if outputDir != "" {
				if outDir, err = config.ExpandPath(outputDir); err != nil {
					return err
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create output directory %q: %w", outDir, err)
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

			out := cmd.OutOrStdout()
			handler := func(runCtx context.Context, path string) error {
				target := watch.OutputPath(outDir, path)
				result, err := p.Run(runCtx, pipeline.Request{InputPath: path, OutputPath: target})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d captions to %s\n", len(result.Captions), result.OutputPath)
				return nil
			}

			w, err := watch.New(dir, handler,
				watch.WithSettle(time.Duration(cfg.Watch.SettleMs)*time.Millisecond),
				watch.WithExtensions(cfg.Watch.Extensions),
				watch.WithLogger(logger.Logger),
			)
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", dir)
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for generated subtitles (default: next to each input)")
	return cmd
}
