package subtitles

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"video2srt/internal/captions"
	"video2srt/internal/fileutil"
)

const arrow = " --> "

// FormatTimestamp renders d as HH:MM:SS,mmm. Negative values clamp to zero and
// hours grow past two digits when needed.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// ParseTimestamp parses HH:MM:SS,mmm. A period is accepted in place of the
// comma.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}

// FormatSRT composes caps into SRT text. Indices and order are written exactly
// as given.
func FormatSRT(caps []captions.Caption) string {
	var b strings.Builder
	for i, c := range caps {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(c.Index))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(c.Start))
		b.WriteString(arrow)
		b.WriteString(FormatTimestamp(c.End))
		b.WriteByte('\n')
		b.WriteString(c.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteSRT atomically writes caps to path.
func WriteSRT(path string, caps []captions.Caption) error {
	if err := fileutil.WriteFileAtomic(path, []byte(FormatSRT(caps)), 0o644); err != nil {
		return fmt.Errorf("write srt %s: %w", path, err)
	}
	return nil
}

// ParseSRT reads SRT text back into captions. Blocks are separated by blank
// lines; the text of a block is every line after its timing line.
func ParseSRT(content string) ([]captions.Caption, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")

	var (
		out   []captions.Caption
		block []string
		line  int
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		c, err := parseBlock(block)
		if err != nil {
			return fmt.Errorf("block ending at line %d: %w", line, err)
		}
		out = append(out, c)
		block = block[:0]
		return nil
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		block = append(block, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan srt: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseBlock(lines []string) (captions.Caption, error) {
	if len(lines) < 2 {
		return captions.Caption{}, fmt.Errorf("expected index and timing lines")
	}
	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return captions.Caption{}, fmt.Errorf("invalid index %q", lines[0])
	}
	parts := strings.Split(lines[1], "-->")
	if len(parts) != 2 {
		return captions.Caption{}, fmt.Errorf("invalid timing line %q", lines[1])
	}
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return captions.Caption{}, err
	}
	end, err := ParseTimestamp(parts[1])
	if err != nil {
		return captions.Caption{}, err
	}
	return captions.Caption{
		Index: index,
		Start: start,
		End:   end,
		Text:  strings.Join(lines[2:], "\n"),
	}, nil
}
