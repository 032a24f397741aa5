package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"shelver/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternal, "import", "scan", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"import", "scan", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      string
		retryable bool
	}{
		{"validation", services.Wrap(services.ErrValidation, "import", "parse", "bad name", nil), "validation", false},
		{"configuration", services.Wrap(services.ErrConfiguration, "", "", "", nil), "configuration", false},
		{"not found", fmt.Errorf("lookup: %w", services.ErrNotFound), "not_found", true},
		{"timeout", services.Wrap(services.ErrTimeout, "client", "poll", "", context.DeadlineExceeded), "timeout", true},
		{"unmarked", errors.New("io"), "transient", true},
		{"nil marker", services.Wrap(nil, "import", "copy", "", nil), "transient", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
			if got := services.Retryable(tt.err); got != tt.retryable {
				t.Fatalf("Retryable() = %v, want %v", got, tt.retryable)
			}
		})
	}

	if services.Classify(nil) != "" {
		t.Fatal("expected empty classification for nil")
	}
}
