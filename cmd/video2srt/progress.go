package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"video2srt/internal/pipeline"
)

type progressReporter struct {
	out io.Writer
}

// newProgressReporter returns nil unless out is a terminal.
func newProgressReporter(out io.Writer) *progressReporter {
	f, ok := out.(*os.File)
	if !ok {
		return nil
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return nil
	}
	return &progressReporter{out: out}
}

func (r *progressReporter) report(p pipeline.Progress) {
	switch p.Stage {
	case "extract":
		fmt.Fprintln(r.out, "audio extracted")
	case "transcribe":
		fmt.Fprintf(r.out, "chunk %d/%d transcribed\n", p.Chunk, p.Total)
	case "write":
		fmt.Fprintln(r.out, "subtitles written")
	}
}
