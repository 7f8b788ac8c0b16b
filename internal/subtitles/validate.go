package subtitles

import (
	"fmt"
	"strings"
	"time"

	"video2srt/internal/captions"
)

// durationSlack tolerates captions that run slightly past the probed media
// duration because of stream padding.
const durationSlack = 2 * time.Second

// Validate checks a caption sequence before it is written. It returns a list
// of issue codes; an empty slice means the sequence is well formed.
// mediaDuration may be zero when unknown.
func Validate(caps []captions.Caption, mediaDuration time.Duration) []string {
	var issues []string
	for i, c := range caps {
		if c.Index != i+1 {
			issues = append(issues, fmt.Sprintf("index_gap: position %d has index %d", i+1, c.Index))
		}
		if c.Duration() < 0 {
			issues = append(issues, fmt.Sprintf("end_before_start: caption %d", c.Index))
		}
		if strings.TrimSpace(c.Text) == "" {
			issues = append(issues, fmt.Sprintf("empty_text: caption %d", c.Index))
		}
		if i > 0 && c.Start < caps[i-1].Start {
			issues = append(issues, fmt.Sprintf("start_not_monotonic: caption %d", c.Index))
		}
	}
	if mediaDuration > 0 && len(caps) > 0 {
		if last := caps[len(caps)-1].End; last > mediaDuration+durationSlack {
			issues = append(issues, fmt.Sprintf("past_media_end: last=%s media=%s", FormatTimestamp(last), FormatTimestamp(mediaDuration)))
		}
	}
	return issues
}
