package captions

import (
	"fmt"
	"strings"
)

// Policy selects how a long caption line is cut.
type Policy string

const (
	// PolicyFixed cuts every MaxLineLength runes regardless of the remainder.
	PolicyFixed Policy = "fixed"
	// PolicyLegacyMinRemainder only cuts while at least three runes would
	// remain past the cut, so short tails stay on the previous line.
	PolicyLegacyMinRemainder Policy = "legacy_min_remainder"
)

const (
	DefaultMaxLineLength = 40
	legacyMinRemainder   = 3
)

// ParsePolicy accepts a policy name from configuration or flags.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyFixed:
		return PolicyFixed, nil
	case PolicyLegacyMinRemainder:
		return PolicyLegacyMinRemainder, nil
	default:
		return "", fmt.Errorf("unknown wrap policy %q (want %q or %q)", value, PolicyFixed, PolicyLegacyMinRemainder)
	}
}

// WrapOptions configures a Wrapper.
type WrapOptions struct {
	MaxLineLength int
	Policy        Policy
	// StripChars lists strings removed from every line before wrapping,
	// e.g. "。" for transcripts that end each sentence with an ideographic
	// full stop.
	StripChars []string
}

// Wrapper reformats caption text into display lines.
type Wrapper struct {
	maxLen   int
	policy   Policy
	stripper *strings.Replacer
}

// NewWrapper validates opts and builds a Wrapper.
func NewWrapper(opts WrapOptions) (*Wrapper, error) {
	if opts.MaxLineLength <= 0 {
		return nil, fmt.Errorf("max line length must be positive, got %d", opts.MaxLineLength)
	}
	policy, err := ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}
	w := &Wrapper{maxLen: opts.MaxLineLength, policy: policy}
	pairs := make([]string, 0, len(opts.StripChars)*2)
	for _, s := range opts.StripChars {
		if s == "" {
			continue
		}
		pairs = append(pairs, s, "")
	}
	if len(pairs) > 0 {
		w.stripper = strings.NewReplacer(pairs...)
	}
	return w, nil
}

// DefaultWrapper returns a fixed-width wrapper at DefaultMaxLineLength with
// no strip-set.
func DefaultWrapper() *Wrapper {
	return &Wrapper{maxLen: DefaultMaxLineLength, policy: PolicyFixed}
}

// MaxLineLength returns the configured line width in runes.
func (w *Wrapper) MaxLineLength() int {
	return w.maxLen
}

// Policy returns the active cut policy.
func (w *Wrapper) Policy() Policy {
	return w.policy
}

// WrapLine splits a single line (no embedded newlines) into display lines.
// Joining the result with no separator yields line unchanged.
func (w *Wrapper) WrapLine(line string) []string {
	runes := []rune(line)
	if len(runes) <= w.maxLen {
		return []string{line}
	}
	out := make([]string, 0, len(runes)/w.maxLen+1)
	for w.shouldCut(len(runes)) {
		out = append(out, string(runes[:w.maxLen]))
		runes = runes[w.maxLen:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func (w *Wrapper) shouldCut(remaining int) bool {
	if w.policy == PolicyLegacyMinRemainder {
		return remaining-w.maxLen >= legacyMinRemainder
	}
	return remaining > w.maxLen
}

// Clean applies the strip-set to a single line and trims surrounding
// whitespace.
func (w *Wrapper) Clean(line string) string {
	if w.stripper != nil {
		line = w.stripper.Replace(line)
	}
	return strings.TrimSpace(line)
}

// Format cleans and wraps multi-line caption text. Each source line is wrapped
// independently and the results are rejoined with newlines in order. Lines
// that are empty after cleaning are dropped because a blank line terminates
// an SRT block.
func (w *Wrapper) Format(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		cleaned := w.Clean(line)
		if cleaned == "" {
			continue
		}
		out = append(out, w.WrapLine(cleaned)...)
	}
	return strings.Join(out, "\n")
}
