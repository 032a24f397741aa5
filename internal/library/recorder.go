package library

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"shelver/internal/download"
	"shelver/internal/logging"
	"shelver/internal/notifications"
)

// HistoryWriter appends history records.
type HistoryWriter interface {
	Record(ctx context.Context, record *HistoryRecord) error
}

// HistoryRecorder turns tracker events into history rows.
type HistoryRecorder struct {
	history HistoryWriter
	logger  *slog.Logger
}

// NewHistoryRecorder constructs a recorder writing to history.
func NewHistoryRecorder(history HistoryWriter, logger *slog.Logger) *HistoryRecorder {
	return &HistoryRecorder{history: history, logger: logging.NewComponentLogger(logger, "history")}
}

// Publish writes one row per expected book of the event's download.
func (r *HistoryRecorder) Publish(ctx context.Context, event notifications.Event) error {
	var eventType EventType
	switch event.Kind {
	case notifications.KindDownloadCompleted:
		eventType = EventDownloadImported
	case notifications.KindImportIncomplete:
		eventType = EventImportIncomplete
	default:
		return nil
	}

	td := event.Download
	data := map[string]string{
		"event_id": event.ID,
		"client":   td.Item.Client,
	}
	if td.ImportPath != "" {
		data["import_path"] = td.ImportPath
	}
	if len(td.StatusMessages) > 0 {
		messages := make([]string, 0, len(td.StatusMessages))
		for _, msg := range td.StatusMessages {
			messages = append(messages, msg.String())
		}
		data["status_messages"] = strings.Join(messages, "\n")
	}

	var authorID int64
	books := []download.Book{{}}
	if td.RemoteBook != nil {
		if td.RemoteBook.Author != nil {
			authorID = td.RemoteBook.Author.ID
		}
		if len(td.RemoteBook.Books) > 0 {
			books = td.RemoteBook.Books
		}
	}

	var errs []error
	for _, book := range books {
		record := &HistoryRecord{
			DownloadID:  td.DownloadID,
			AuthorID:    authorID,
			BookID:      book.ID,
			EventType:   eventType,
			SourceTitle: td.Item.Title,
			Date:        event.OccurredAt,
			Data:        data,
		}
		if err := r.history.Record(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	r.logger.Debug("history recorded",
		logging.String(logging.FieldDownloadID, td.DownloadID),
		logging.String(logging.FieldEventType, string(eventType)),
		logging.Int("rows", len(books)))
	return nil
}
