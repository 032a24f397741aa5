package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shelver/internal/download"
)

// Kind enumerates the events raised by the download tracker.
type Kind string

const (
	KindDownloadCompleted Kind = "download_completed"
	KindImportIncomplete  Kind = "import_incomplete"
)

// Event carries a snapshot of the tracked download at the time it was raised.
type Event struct {
	ID         string
	Kind       Kind
	Download   download.TrackedDownload
	OccurredAt time.Time
}

// NewEvent snapshots td into a new event.
func NewEvent(kind Kind, td *download.TrackedDownload) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Download:   td.Clone(),
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher receives tracker events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

// Noop returns a publisher that discards every event.
func Noop() Publisher {
	return noopPublisher{}
}
