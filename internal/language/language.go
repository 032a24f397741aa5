package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// bibliographic maps ISO 639-2/B codes to their terminology form.
var bibliographic = map[string]string{
	"alb": "sqi",
	"arm": "hye",
	"baq": "eus",
	"bur": "mya",
	"chi": "zho",
	"cze": "ces",
	"dut": "nld",
	"fre": "fra",
	"geo": "kat",
	"ger": "deu",
	"gre": "ell",
	"ice": "isl",
	"mac": "mkd",
	"may": "msa",
	"per": "fas",
	"rum": "ron",
	"slo": "slk",
	"wel": "cym",
}

// named lists the languages whose English names are accepted as codes.
var named = []string{
	"ar", "ca", "cs", "da", "de", "el", "en", "es", "fi", "fr", "he", "hi",
	"hu", "it", "ja", "ko", "nl", "no", "pl", "pt", "ro", "ru", "sv", "tr",
	"uk", "zh",
}

var (
	namer = display.English.Languages()
	words = buildWords()
)

func buildWords() map[string]xlanguage.Base {
	out := make(map[string]xlanguage.Base, len(named))
	for _, code := range named {
		base := xlanguage.MustParseBase(code)
		out[strings.ToLower(namer.Name(base))] = base
	}
	return out
}

func lookup(code string) (xlanguage.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return xlanguage.Base{}, false
	}
	if alias, ok := bibliographic[code]; ok {
		code = alias
	}
	if base, ok := words[code]; ok {
		return base, true
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return xlanguage.Base{}, false
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return xlanguage.Base{}, false
	}
	return base, true
}

// ISO3 returns the ISO 639-2/T code for any recognized form, or an empty
// string when the input is not a known language.
func ISO3(code string) string {
	base, ok := lookup(code)
	if !ok {
		return ""
	}
	return base.ISO3()
}

// Normalize returns the ISO 639-2/T code for recognized input and the
// trimmed, lower-cased input otherwise.
func Normalize(code string) string {
	if iso := ISO3(code); iso != "" {
		return iso
	}
	return strings.ToLower(strings.TrimSpace(code))
}

// DisplayName returns the English name of a language. Unknown codes are
// upper-cased and empty input yields "Unknown".
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if base, ok := lookup(code); ok {
		if name := namer.Name(base); name != "" {
			return name
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeList normalizes and deduplicates languages, keeping first
// occurrence order.
func NormalizeList(languages []string) []string {
	out := make([]string, 0, len(languages))
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		code := Normalize(lang)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
