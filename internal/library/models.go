package library

import (
	"slices"
	"strings"
	"time"
)

// EventType classifies a history record.
type EventType string

const (
	EventGrabbed          EventType = "grabbed"
	EventBookFileImported EventType = "book_file_imported"
	EventDownloadImported EventType = "download_imported"
	EventImportIncomplete EventType = "book_import_incomplete"
	EventDownloadFailed   EventType = "download_failed"
)

var allEventTypes = []EventType{
	EventGrabbed,
	EventBookFileImported,
	EventDownloadImported,
	EventImportIncomplete,
	EventDownloadFailed,
}

// ParseEventType converts a string into a known EventType.
func ParseEventType(value string) (EventType, bool) {
	normalized := EventType(strings.ToLower(strings.TrimSpace(value)))
	if slices.Contains(allEventTypes, normalized) {
		return normalized, true
	}
	return "", false
}

// HistoryRecord is one row of the download history log.
type HistoryRecord struct {
	ID          int64
	DownloadID  string
	AuthorID    int64
	BookID      int64
	EventType   EventType
	SourceTitle string
	Date        time.Time
	Data        map[string]string
}

// Author is a catalogued author.
type Author struct {
	ID        int64
	Name      string
	Aliases   []string
	ForeignID string
}

// Book is a catalogued work.
type Book struct {
	ID             int64
	AuthorID       int64
	Title          string
	ForeignID      string
	Year           int
	Disambiguation string
}

// Edition is one published release of a book.
type Edition struct {
	ID         int64
	BookID     int64
	Title      string
	ISBN13     string
	ASIN       string
	Format     string
	Language   string
	Publisher  string
	MediaCount int
	Year       int
}
