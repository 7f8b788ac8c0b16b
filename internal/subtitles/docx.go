package subtitles

import (
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"video2srt/internal/captions"
)

// TranscriptOptions controls the DOCX transcript layout.
type TranscriptOptions struct {
	Title       string
	FontName    string
	FontSize    uint64
	ShowTimings bool
}

const (
	defaultFontName = "Times New Roman"
	defaultFontSize = 13
)

// WriteTranscriptDocx writes the caption text as a plain reading transcript.
// Wrapped lines of one caption are joined back into a single paragraph.
func WriteTranscriptDocx(path string, caps []captions.Caption, opts TranscriptOptions) error {
	fontName := strings.TrimSpace(opts.FontName)
	if fontName == "" {
		fontName = defaultFontName
	}
	fontSize := opts.FontSize
	if fontSize == 0 {
		fontSize = defaultFontSize
	}

	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create docx: %w", err)
	}

	if title := strings.TrimSpace(opts.Title); title != "" {
		addRun(doc.AddParagraph(""), title, fontName, fontSize+3, true)
		doc.AddParagraph("")
	}

	for _, c := range caps {
		text := TranscriptText(c)
		if text == "" {
			continue
		}
		p := doc.AddParagraph("")
		if opts.ShowTimings {
			addRun(p, "["+FormatTimestamp(c.Start)+"] ", fontName, fontSize, true)
		}
		addRun(p, text, fontName, fontSize, false)
	}

	if err := doc.SaveTo(path); err != nil {
		return fmt.Errorf("save docx %s: %w", path, err)
	}
	return nil
}

// TranscriptText undoes line wrapping for reading. Wrapping is positional, so
// lines are concatenated without separators.
func TranscriptText(c captions.Caption) string {
	return strings.TrimSpace(strings.ReplaceAll(c.Text, "\n", ""))
}

func addRun(p *docx.Paragraph, text, font string, size uint64, bold bool) {
	run := p.AddText(text).Font(font).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
