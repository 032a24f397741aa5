package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"shelver/internal/logging"
)

type multiPublisher struct {
	publishers []Publisher
}

// Multi fans events out to every non-nil publisher. All publishers are
// called even when one fails; their errors are joined.
func Multi(publishers ...Publisher) Publisher {
	filtered := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	return &multiPublisher{publishers: filtered}
}

func (m *multiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for i, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("publisher %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

type logPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher writes each event to logger.
func NewLogPublisher(logger *slog.Logger) Publisher {
	return &logPublisher{logger: logging.NewComponentLogger(logger, "events")}
}

func (l *logPublisher) Publish(ctx context.Context, event Event) error {
	td := event.Download
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, string(event.Kind)),
		logging.String("event_id", event.ID),
		logging.String(logging.FieldDownloadID, td.DownloadID),
		logging.String("title", td.Item.Title),
		logging.String("state", string(td.State)),
	}
	logger := logging.WithContext(ctx, l.logger)
	switch event.Kind {
	case KindImportIncomplete:
		messages := make([]string, 0, len(td.StatusMessages))
		for _, msg := range td.StatusMessages {
			messages = append(messages, msg.String())
		}
		attrs = append(attrs, logging.String("status_messages", strings.Join(messages, " | ")))
		logging.WarnWithContext(logger, "download import incomplete", string(event.Kind), append(attrs,
			logging.String(logging.FieldErrorHint, "inspect rejected files and retry the import"),
			logging.String(logging.FieldImpact, "books from this download are missing from the library"),
		)...)
	default:
		logger.Info("download imported", logging.Args(attrs...)...)
	}
	return nil
}
