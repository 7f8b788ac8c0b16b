package audio

import (
	"strings"

	"video2srt/internal/language"
	"video2srt/internal/media/ffprobe"
)

// candidate captures the derived metadata used for audio ranking.
type candidate struct {
	stream         ffprobe.Stream
	order          int
	language       string
	channels       int
	defaultFlagged bool
	commentary     bool
}

// SelectTrack picks the audio stream to transcribe. Candidates matching the
// language hint win, then the default disposition, then channel count, then
// container order. Commentary tracks are ranked last. ok is false when the
// container has no audio.
func SelectTrack(streams []ffprobe.Stream, languageHint string) (ffprobe.Stream, bool) {
	candidates := buildCandidates(streams)
	if len(candidates) == 0 {
		return ffprobe.Stream{}, false
	}
	best := candidates[0]
	for _, cand := range candidates[1:] {
		if better(cand, best, languageHint) {
			best = cand
		}
	}
	return best.stream, true
}

// better reports whether a outranks b.
func better(a, b candidate, hint string) bool {
	if hint != "" {
		am, bm := language.Matches(a.language, hint), language.Matches(b.language, hint)
		if am != bm {
			return am
		}
	}
	if a.commentary != b.commentary {
		return !a.commentary
	}
	if a.defaultFlagged != b.defaultFlagged {
		return a.defaultFlagged
	}
	if a.channels != b.channels {
		return a.channels > b.channels
	}
	return a.order < b.order
}

func buildCandidates(streams []ffprobe.Stream) []candidate {
	result := make([]candidate, 0, len(streams))
	order := 0
	for _, stream := range streams {
		if !stream.IsAudio() {
			continue
		}
		title := normalizeTitle(stream.Tags)
		result = append(result, candidate{
			stream:         stream,
			order:          order,
			language:       language.ExtractFromTags(stream.Tags),
			channels:       channelCount(stream),
			defaultFlagged: stream.IsDefault(),
			commentary:     strings.Contains(title, "commentary") || (stream.Disposition != nil && stream.Disposition["comment"] == 1),
		})
		order++
	}
	return result
}

func normalizeTitle(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	for _, key := range []string{"title", "TITLE", "handler_name", "HANDLER_NAME"} {
		if value, ok := tags[key]; ok {
			return strings.ToLower(strings.TrimSpace(value))
		}
	}
	return ""
}

func channelCount(stream ffprobe.Stream) int {
	if stream.Channels > 0 {
		return stream.Channels
	}
	layout := strings.ToLower(strings.TrimSpace(stream.ChannelLayout))
	switch {
	case strings.HasPrefix(layout, "7.1"):
		return 8
	case strings.HasPrefix(layout, "5.1"):
		return 6
	case strings.HasPrefix(layout, "stereo"), strings.HasPrefix(layout, "2.0"):
		return 2
	case strings.HasPrefix(layout, "mono"), strings.HasPrefix(layout, "1.0"):
		return 1
	}
	return 0
}
