package language

import (
	"fmt"
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// aliases covers tag values that BCP-47 parsing does not accept: ISO 639-2
// bibliographic codes and English word forms found in container metadata.
var aliases = map[string]string{
	"fre":        "fr",
	"ger":        "de",
	"chi":        "zh",
	"dut":        "nl",
	"cze":        "cs",
	"gre":        "el",
	"per":        "fa",
	"rum":        "ro",
	"slo":        "sk",
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
}

func parse(code string) (xlang.Tag, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == "und" {
		return xlang.Und, false
	}
	if mapped, ok := aliases[code]; ok {
		code = mapped
	}
	tag, err := xlang.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return xlang.Und, false
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return xlang.Und, false
	}
	return xlang.Make(base.String()), true
}

// Normalize converts a language hint to its base ISO 639-1 code where one
// exists ("eng", "en-US", and "English" all become "en"). An empty hint
// normalizes to "" without error.
func Normalize(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", nil
	}
	tag, ok := parse(code)
	if !ok {
		return "", fmt.Errorf("unrecognized language %q", code)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// ToISO2 converts any recognized language code or word to its base code.
// Returns empty string for unrecognized input.
func ToISO2(code string) string {
	normalized, err := Normalize(code)
	if err != nil {
		return ""
	}
	return normalized
}

// ToISO3 converts any recognized language code to ISO 639-2 (3-letter).
// Returns "und" for unrecognized input.
func ToISO3(code string) string {
	tag, ok := parse(code)
	if !ok {
		return "und"
	}
	base, _ := tag.Base()
	return base.ISO3()
}

// DisplayName returns an English language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	tag, ok := parse(code)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// Matches reports whether two language values share a base language.
func Matches(a, b string) bool {
	left, ok := parse(a)
	if !ok {
		return false
	}
	right, ok := parse(b)
	if !ok {
		return false
	}
	lb, _ := left.Base()
	rb, _ := right.Base()
	return lb == rb
}

// ExtractFromTags extracts the language from stream metadata tags.
// Checks common tag keys: language, LANGUAGE, Language, language_ietf, lang, LANG.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}
	for _, key := range keys {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}
