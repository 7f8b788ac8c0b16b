package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"video2srt/internal/fileutil"
	"video2srt/internal/history"
	"video2srt/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var inputPath string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			var runs []history.Run
			if inputPath != "" {
				hash, hashErr := fileutil.HashFile(inputPath)
				if hashErr != nil {
					return services.Wrap(services.ErrNotFound, "history", "hash input", inputPath, hashErr)
				}
				runs, err = store.FindByHash(cmd.Context(), hash)
				if limit > 0 && len(runs) > limit {
					runs = runs[:limit]
				}
			} else {
				runs, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				if inputPath != "" {
					fmt.Fprintf(out, "No conversions recorded for %s\n", inputPath)
					return nil
				}
				fmt.Fprintln(out, "No conversions recorded")
				return nil
			}
			repeats, err := store.CountByHash(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Input", "Backend", "Status", "Captions", "Chunks", "Elapsed", "Runs"},
				historyRows(runs, repeats),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().StringVar(&inputPath, "input", "", "Only show runs whose input content matches this file")
	return cmd
}

func historyRows(runs []history.Run, repeats map[string]int) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := string(run.Status)
		if run.Status == history.StatusFailed && run.ErrorKind != "" {
			status += " (" + run.ErrorKind + ")"
		}
		elapsed := "-"
		if !run.FinishedAt.IsZero() {
			elapsed = run.Elapsed().Round(time.Second).String()
		}
		count := "1"
		if run.InputHash != "" {
			if n, ok := repeats[run.InputHash]; ok {
				count = strconv.Itoa(n)
			}
		}
		backend := run.Backend
		if run.Model != "" {
			backend += "/" + run.Model
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(run.InputPath),
			backend,
			status,
			strconv.Itoa(run.CaptionCount),
			strconv.Itoa(run.ChunkCount),
			elapsed,
			count,
		})
	}
	return rows
}
