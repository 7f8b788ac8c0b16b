package captions

import (
	"strings"
	"testing"
)

func mustWrapper(t *testing.T, opts WrapOptions) *Wrapper {
	t.Helper()
	w, err := NewWrapper(opts)
	if err != nil {
		t.Fatalf("NewWrapper returned error: %v", err)
	}
	return w
}

func TestWrapLineShortInputUnchanged(t *testing.T) {
	w := mustWrapper(t, WrapOptions{MaxLineLength: 15})
	got := w.WrapLine("hello")
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("expected single unchanged line, got %q", got)
	}
}

func TestWrapLineBoundary(t *testing.T) {
	w := mustWrapper(t, WrapOptions{MaxLineLength: 10})

	exact := strings.Repeat("a", 10)
	if got := w.WrapLine(exact); len(got) != 1 || got[0] != exact {
		t.Fatalf("line of length L should not split, got %q", got)
	}

	over := strings.Repeat("b", 11)
	got := w.WrapLine(over)
	if len(got) != 2 {
		t.Fatalf("line of length L+1 should split in two, got %q", got)
	}
	if len([]rune(got[0])) != 10 || len([]rune(got[1])) != 1 {
		t.Fatalf("unexpected piece lengths: %q", got)
	}
}

func TestWrapLineFixedEighteenWithFifteen(t *testing.T) {
	w := mustWrapper(t, WrapOptions{MaxLineLength: 15})
	line := "abcdefghijklmnopqr"
	got := w.WrapLine(line)
	if len(got) != 2 || got[0] != "abcdefghijklmno" || got[1] != "pqr" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapLineRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"x",
		"the quick brown fox jumps over the lazy dog",
		strings.Repeat("0123456789", 13) + "tail",
		"字幕のテキストは位置で分割されます。長い行も失われません。",
	}
	for _, policy := range []Policy{PolicyFixed, PolicyLegacyMinRemainder} {
		for _, max := range []int{1, 2, 3, 7, 15, 40} {
			w := mustWrapper(t, WrapOptions{MaxLineLength: max, Policy: policy})
			for _, in := range inputs {
				got := strings.Join(w.WrapLine(in), "")
				if got != in {
					t.Fatalf("policy=%s L=%d: round trip mismatch for %q: %q", policy, max, in, got)
				}
			}
		}
	}
}

func TestWrapLineFixedRespectsWidth(t *testing.T) {
	w := mustWrapper(t, WrapOptions{MaxLineLength: 4})
	lines := w.WrapLine("abcdefghij")
	want := []string{"abcd", "efgh", "ij"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q want %q", lines, want)
	}
}

func TestWrapLineCountsRunes(t *testing.T) {
	w := mustWrapper(t, WrapOptions{MaxLineLength: 3})
	lines := w.WrapLine("日本語字幕")
	if len(lines) != 2 || lines[0] != "日本語" || lines[1] != "字幕" {
		t.Fatalf("expected rune-based split, got %q", lines)
	}
}

func TestWrapLineLegacyKeepsShortTail(t *testing.T) {
	w := mustWrapper(t, WrapOptions{MaxLineLength: 15, Policy: PolicyLegacyMinRemainder})

	// 17 runes: only 2 past the limit, so no cut.
	seventeen := "abcdefghijklmnopq"
	if got := w.WrapLine(seventeen); len(got) != 1 {
		t.Fatalf("expected no split with remainder 2, got %q", got)
	}

	eighteen := "abcdefghijklmnopqr"
	got := w.WrapLine(eighteen)
	if len(got) != 2 || got[0] != "abcdefghijklmno" || got[1] != "pqr" {
		t.Fatalf("expected split with remainder 3, got %q", got)
	}

	// Long lines are cut repeatedly while the tail stays at least 3 runes.
	fifty := strings.Repeat("x", 50)
	got = w.WrapLine(fifty)
	if len(got) != 4 || len(got[0]) != 15 || len(got[1]) != 15 || len(got[2]) != 15 || len(got[3]) != 5 {
		t.Fatalf("expected 15/15/15/5 split, got %q", got)
	}
}

func TestFormatWrapsEachLineIndependently(t *testing.T) {
	w := mustWrapper(t, WrapOptions{MaxLineLength: 5})
	got := w.Format("abcdefg\nhi\r\n123456")
	want := "abcde\nfg\nhi\n12345\n6"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestFormatAppliesStripSetAndTrims(t *testing.T) {
	w := mustWrapper(t, WrapOptions{MaxLineLength: 40, StripChars: []string{"。", ""}})
	got := w.Format(" こんにちは。世界。 \n\n")
	if got != "こんにちは世界" {
		t.Fatalf("unexpected format result %q", got)
	}
}

func TestNewWrapperRejectsBadOptions(t *testing.T) {
	if _, err := NewWrapper(WrapOptions{MaxLineLength: 0}); err == nil {
		t.Fatal("expected error for zero max line length")
	}
	if _, err := NewWrapper(WrapOptions{MaxLineLength: 10, Policy: "greedy"}); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestParsePolicyDefaultsToFixed(t *testing.T) {
	p, err := ParsePolicy("")
	if err != nil || p != PolicyFixed {
		t.Fatalf("expected fixed default, got %q %v", p, err)
	}
	p, err = ParsePolicy(" Legacy_Min_Remainder ")
	if err != nil || p != PolicyLegacyMinRemainder {
		t.Fatalf("expected legacy policy, got %q %v", p, err)
	}
}
