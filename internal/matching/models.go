package matching

import "strings"

// Candidate is one catalogued edition joined with its book and author.
type Candidate struct {
	EditionID      int64
	BookID         int64
	AuthorID       int64
	AuthorName     string
	AuthorAliases  []string
	BookTitle      string
	EditionTitle   string
	ForeignBookID  string
	ISBN13         string
	ASIN           string
	Year           int
	Format         string
	MediaCount     int
	Language       string
	Publisher      string
	Disambiguation string
}

// DisplayTitle prefers the edition title over the book title.
func (c Candidate) DisplayTitle() string {
	if strings.TrimSpace(c.EditionTitle) != "" {
		return c.EditionTitle
	}
	return c.BookTitle
}

// Observed is the metadata recovered from a downloaded file.
type Observed struct {
	Path           string
	Authors        []string
	Titles         []string
	ISBN           string
	ASIN           string
	ForeignBookID  string
	Year           int
	MediaCount     int
	Extension      string
	Publisher      string
	Disambiguation string
}

var formatExtensions = map[string][]string{
	"ebook":     {"epub", "mobi", "azw", "azw3", "pdf", "cbz", "cbr", "txt", "fb2", "djvu"},
	"audiobook": {"mp3", "m4a", "m4b", "flac", "ogg", "opus", "aac", "wma"},
}

// FormatExtensions lists the lower-case file extensions, without the leading
// dot, that satisfy an edition format. Unknown formats return nil.
func FormatExtensions(format string) []string {
	return formatExtensions[strings.ToLower(strings.TrimSpace(format))]
}

// SupportedExtensions returns every extension known to any edition format.
func SupportedExtensions() []string {
	var out []string
	for _, format := range []string{"ebook", "audiobook"} {
		out = append(out, formatExtensions[format]...)
	}
	return out
}

// NormalizeISBN strips separators and upper-cases a trailing X check digit.
func NormalizeISBN(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	return b.String()
}
