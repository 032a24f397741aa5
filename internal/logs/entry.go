package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"shelver/internal/logging"
)

// Entry is one decoded JSON log line.
type Entry struct {
	Time       time.Time
	Level      slog.Level
	Message    string
	Component  string
	DownloadID string
	Attrs      map[string]any
}

// Parse decodes a line written by the daemon's JSON file handler.
func Parse(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("decode log line: %w", err)
	}

	entry := Entry{Attrs: make(map[string]any, len(raw))}
	for key, value := range raw {
		text, _ := value.(string)
		switch key {
		case "ts", slog.TimeKey:
			entry.Time, _ = time.Parse(time.RFC3339, text)
		case slog.LevelKey:
			_ = entry.Level.UnmarshalText([]byte(text))
		case slog.MessageKey:
			entry.Message = text
		case logging.FieldComponent:
			entry.Component = text
		case logging.FieldDownloadID:
			entry.DownloadID = text
		case slog.SourceKey:
		default:
			entry.Attrs[key] = value
		}
	}
	return entry, nil
}

// Filter selects entries. Empty string fields match everything and the
// zero MinLevel is info.
type Filter struct {
	DownloadID string
	Component  string
	MinLevel   slog.Level
}

// Match reports whether entry passes the filter.
func (f Filter) Match(entry Entry) bool {
	if entry.Level < f.MinLevel {
		return false
	}
	if f.DownloadID != "" && entry.DownloadID != f.DownloadID {
		return false
	}
	if f.Component != "" && !strings.EqualFold(entry.Component, f.Component) {
		return false
	}
	return true
}

// String renders entry on a single line with attributes sorted by key.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
	b.WriteByte(' ')
	b.WriteString(fmt.Sprintf("%-5s", e.Level.String()))
	if e.Component != "" {
		b.WriteString(" [" + e.Component + "]")
	}
	if e.DownloadID != "" {
		b.WriteString(" " + e.DownloadID)
	}
	b.WriteString(" " + e.Message)
	for _, key := range slices.Sorted(maps.Keys(e.Attrs)) {
		fmt.Fprintf(&b, " %s=%v", key, e.Attrs[key])
	}
	return b.String()
}
