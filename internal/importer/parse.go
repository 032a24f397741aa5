package importer

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"shelver/internal/matching"
	"shelver/internal/textutil"
)

var (
	isbnPattern    = regexp.MustCompile(`(?:^|[^\dA-Za-z])((?:97[89][- ]?)?(?:\d[- ]?){9}[\dXx])(?:$|[^\dA-Za-z])`)
	asinPattern    = regexp.MustCompile(`\b(B0[0-9A-Z]{8})\b`)
	yearPattern    = regexp.MustCompile(`[\(\[]((?:1[5-9]|20)\d{2})[\)\]]`)
	partPattern    = regexp.MustCompile(`(?i)\b(?:part|pt|cd|disc|disk)\s*\d+(?:\s*of\s*\d+)?\b`)
	bracketPattern = regexp.MustCompile(`[\(\[\{][^\)\]\}]*[\)\]\}]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// ParseFilename extracts observed metadata from a file path. Names follow
// "Author - Title (Year) [ISBN]"; when the file name carries no author the
// parent directory name is tried.
func ParseFilename(path string) matching.Observed {
	base := filepath.Base(path)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	observed := matching.Observed{Path: path, Extension: ext}
	observed.ISBN = findISBN(stem)
	if m := asinPattern.FindStringSubmatch(stem); m != nil {
		observed.ASIN = m[1]
	}
	if m := yearPattern.FindStringSubmatch(stem); m != nil {
		observed.Year, _ = strconv.Atoi(m[1])
	}

	named := asinPattern.ReplaceAllString(stem, " ")
	for _, m := range isbnPattern.FindAllStringSubmatch(named, -1) {
		named = strings.Replace(named, m[1], " ", 1)
	}
	author, title := splitAuthorTitle(named)
	if author == "" {
		parent := filepath.Base(filepath.Dir(path))
		if parent != "." && parent != string(filepath.Separator) {
			parentAuthor, parentTitle := splitAuthorTitle(parent)
			author = parentAuthor
			if title == "" || isGenericTitle(title) {
				title = parentTitle
			}
		}
	}
	if author != "" {
		observed.Authors = []string{tidyCase(author)}
	}
	if title != "" {
		observed.Titles = []string{tidyCase(title)}
	}
	return observed
}

func splitAuthorTitle(name string) (string, string) {
	cleaned := partPattern.ReplaceAllString(name, " ")
	cleaned = bracketPattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.ReplaceAll(cleaned, "_", " ")
	cleaned = strings.TrimSpace(spacePattern.ReplaceAllString(cleaned, " "))
	cleaned = strings.Trim(cleaned, " -.")

	parts := strings.Split(cleaned, " - ")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return "", cleaned
	}
	return parts[0], strings.Join(parts[1:], " - ")
}

// tidyCase title-cases names written entirely in lower or upper case and
// leaves mixed-case names alone.
func tidyCase(name string) string {
	if name != strings.ToLower(name) && name != strings.ToUpper(name) {
		return name
	}
	return textutil.TitleCase(name)
}

func isGenericTitle(title string) bool {
	cleaned := textutil.Clean(title)
	if cleaned == "" {
		return true
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func findISBN(stem string) string {
	for _, m := range isbnPattern.FindAllStringSubmatch(stem, -1) {
		isbn := matching.NormalizeISBN(m[1])
		switch len(isbn) {
		case 13:
			return isbn
		case 10:
			if converted := isbn10To13(isbn); converted != "" {
				return converted
			}
		}
	}
	return ""
}

// isbn10To13 converts a valid ISBN-10 into its 978-prefixed ISBN-13 form.
func isbn10To13(isbn string) string {
	sum := 0
	for i, r := range isbn {
		var v int
		switch {
		case r >= '0' && r <= '9':
			v = int(r - '0')
		case r == 'X' && i == 9:
			v = 10
		default:
			return ""
		}
		sum += v * (10 - i)
	}
	if sum%11 != 0 {
		return ""
	}
	digits := "978" + isbn[:9]
	total := 0
	for i, r := range digits {
		v := int(r - '0')
		if i%2 == 1 {
			v *= 3
		}
		total += v
	}
	check := (10 - total%10) % 10
	return digits + strconv.Itoa(check)
}
