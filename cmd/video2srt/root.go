package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"video2srt/internal/services"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var docxPath string
	flags := &overrides{}

	ctx := newCommandContext(&configFlag, flags)

	rootCmd := &cobra.Command{
		Use:   "video2srt <input-media> <output-srt> [max-line-length]",
		Short: "Transcribe a video or audio file into SRT subtitles",
		Long: "video2srt extracts the audio track, transcribes it in fixed-length chunks,\n" +
			"and writes a globally timed, line-wrapped SRT file.\n\n" +
			"Subcommand names win over file names: an input called check, history,\n" +
			"watch or config must be given as a path, for example ./history.",
		Example:       "  video2srt lecture.mp4 lecture.srt 42\n  video2srt --backend openai interview.m4a interview.srt",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 || len(args) > 3 {
				fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
				return services.Wrap(services.ErrUsage, "", "", fmt.Sprintf("expected 2 or 3 arguments, got %d", len(args)), nil)
			}
			if len(args) == 3 {
				if _, err := parseLineLength(args[2]); err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
					return err
				}
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := convertRequest{input: args[0], output: args[1], docx: docxPath}
			if len(args) == 3 {
				req.maxLineLength, _ = parseLineLength(args[2])
			}
			return runConvert(cmd, ctx, req)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	pf.StringVar(&flags.backend, "backend", "", "Transcription backend (whisperx or openai)")
	pf.StringVar(&flags.model, "model", "", "Speech model for the selected backend")
	pf.StringVar(&flags.language, "language", "", "Spoken language hint (e.g. en, pt-BR)")
	pf.IntVar(&flags.chunkMinutes, "chunk-minutes", 0, "Chunk duration in minutes")
	pf.StringVar(&flags.wrapPolicy, "wrap-policy", "", "Line wrap policy (fixed or legacy_min_remainder)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&docxPath, "docx", "", "Also write a plain transcript document to this path")

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func parseLineLength(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0, services.Wrap(services.ErrUsage, "", "", fmt.Sprintf("max-line-length must be a positive integer, got %q", value), nil)
	}
	return n, nil
}
