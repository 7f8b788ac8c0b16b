package preflight

import (
	"context"
	"fmt"
	"os"

	"video2srt/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The work directory is created first so a fresh install passes.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for _, status := range CheckSystemDeps(cfg) {
		detail := status.Path
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{Name: status.Name, Passed: status.Satisfied(), Detail: detail})
	}

	if err := os.MkdirAll(cfg.Paths.WorkDir, 0o755); err != nil {
		results = append(results, Result{Name: "Work directory", Detail: fmt.Sprintf("%s (error: %v)", cfg.Paths.WorkDir, err)})
	} else {
		results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
		results = append(results, CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinFreeBytes))
	}

	if cfg.Transcriber.Backend == config.BackendOpenAI {
		results = append(results, CheckOpenAI(ctx, cfg.OpenAI))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
