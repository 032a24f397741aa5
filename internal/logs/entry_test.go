package logs

import (
	"log/slog"
	"strings"
	"testing"
)

const sampleLine = `{"ts":"2026-03-01T10:00:00Z","level":"warn","msg":"import incomplete","component":"tracker","download_id":"dl-1","source":"import.go:10","event_type":"import_incomplete","imported":1}`

func TestParse(t *testing.T) {
	entry, err := Parse(sampleLine)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if entry.Level != slog.LevelWarn || entry.Message != "import incomplete" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Component != "tracker" || entry.DownloadID != "dl-1" {
		t.Fatalf("unexpected context fields: %+v", entry)
	}
	if entry.Time.IsZero() {
		t.Fatal("expected timestamp")
	}
	if _, ok := entry.Attrs["source"]; ok {
		t.Fatal("source should be dropped")
	}
	if entry.Attrs["event_type"] != "import_incomplete" {
		t.Fatalf("attrs = %v", entry.Attrs)
	}

	rendered := entry.String()
	if !strings.Contains(rendered, "[tracker] dl-1 import incomplete") || !strings.Contains(rendered, "event_type=import_incomplete imported=1") {
		t.Fatalf("String() = %q", rendered)
	}

	if _, err := Parse("not json"); err == nil {
		t.Fatal("expected error for plain text")
	}
}

func TestFilterMatch(t *testing.T) {
	entry, err := Parse(sampleLine)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zero filter", Filter{}, true},
		{"download match", Filter{DownloadID: "dl-1"}, true},
		{"download mismatch", Filter{DownloadID: "dl-2"}, false},
		{"component case-insensitive", Filter{Component: "Tracker"}, true},
		{"level too low", Filter{MinLevel: slog.LevelError}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(entry); got != tt.want {
				t.Fatalf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}
