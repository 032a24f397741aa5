package tracking

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"shelver/internal/download"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/services"
	"shelver/internal/verify"
)

const stageImport = "import"

func (t *Tracker) importDownload(ctx context.Context, td *download.TrackedDownload) {
	if td.State != download.StateImportPending && td.State != download.StateImportFailed {
		return
	}

	ctx = services.WithStage(services.WithDownloadID(ctx, td.DownloadID), stageImport)
	logger := logging.WithContext(ctx, t.logger)

	td.State = download.StateImporting

	path := td.ImportPath
	if path == "" {
		path = t.mapper.Map(td.Item.Client, td.Item.OutputPath)
	}
	var authorHint *download.Author
	if td.RemoteBook != nil {
		authorHint = td.RemoteBook.Author
	}

	results, err := t.importer.ProcessPath(ctx, path, t.mode, authorHint, td.Item)
	if err != nil {
		td.State = download.StateImportPending
		hint := "check the download output path and library database"
		if services.Retryable(err) {
			td.Warn("Import failed, will retry: %v", err)
		} else {
			td.Warn("Import failed with a %s error, fix it before the next retry: %v", services.Classify(err), err)
			hint = "fix the reported " + services.Classify(err) + " problem; polling keeps retrying the import"
		}
		logging.WarnWithContext(logger, "import collaborator failed", "import_failed_retry",
			append(logging.ErrorAttrs(err),
				logging.String("path", path),
				logging.String(logging.FieldErrorHint, hint),
				logging.String(logging.FieldImpact, "download stays pending and is retried on the next poll"))...)
		return
	}

	if len(results) == 0 {
		td.State = download.StateImportPending
		missing := t.missingBooks(ctx, td, nil)
		if expected := td.ExpectedBookCount(); len(missing) > 0 && len(missing) < expected {
			td.Warn("Imported %d of %d expected books, still missing: %s", expected-len(missing), expected, strings.Join(missing, ", "))
			logger.Info("no new books found, waiting for remaining books",
				logging.String("path", path),
				logging.String("missing_books", strings.Join(missing, ", ")))
			return
		}
		td.Warn("No files found are eligible for import in %s", path)
		logger.Info("no importable files found", logging.String("path", path))
		return
	}

	if t.verifier.Verify(ctx, td, results) {
		td.ClearWarnings()
		td.State = download.StateImported
		logger.Info("download imported",
			logging.String("title", td.Item.Title),
			logging.Int("files", len(results)),
			logging.Int("books", len(download.ImportedBookIDs(results))))
		t.publish(ctx, notifications.KindDownloadCompleted, td)
		return
	}

	td.State = download.StateImportPending

	if messages := rejectionMessages(results); len(messages) > 0 {
		td.State = download.StateImportFailed
		td.WarnMessages(messages...)
		for _, msg := range messages {
			logging.WarnWithContext(logger, "file not imported", "import_file_rejected",
				logging.String("file", msg.Title),
				logging.String("reasons", msg.String()),
				logging.String(logging.FieldErrorHint, "fix or replace the file, then retry the import"),
				logging.String(logging.FieldImpact, "book missing from library"))
		}
		t.publish(ctx, notifications.KindImportIncomplete, td)
		return
	}

	imported := len(download.ImportedBookIDs(results))
	missing := t.missingBooks(ctx, td, results)
	if len(missing) > 0 {
		td.Warn("Imported %d of %d expected books, still missing: %s", imported, td.ExpectedBookCount(), strings.Join(missing, ", "))
	} else {
		td.Warn("Imported %d of %d expected books, waiting for the rest", imported, td.ExpectedBookCount())
	}
	logger.Info("import incomplete, waiting for remaining books",
		logging.Int("imported_books", imported),
		logging.Int("expected_books", td.ExpectedBookCount()),
		logging.String("missing_books", strings.Join(missing, ", ")))
}

// missingBooks names the expected books that neither results nor earlier
// passes imported. A history error yields nil.
func (t *Tracker) missingBooks(ctx context.Context, td *download.TrackedDownload, results []download.ImportResult) []string {
	if td.RemoteBook == nil || len(td.RemoteBook.Books) == 0 || t.history == nil {
		return nil
	}
	records, err := t.history.FindByDownloadID(ctx, td.DownloadID)
	if err != nil {
		return nil
	}
	books := verify.MissingBooks(td, results, records)
	names := make([]string, 0, len(books))
	for _, book := range books {
		if book.Title != "" {
			names = append(names, book.Title)
			continue
		}
		names = append(names, fmt.Sprintf("book %d", book.ID))
	}
	return names
}

// rejectionMessages builds one status message per distinct file that was
// not imported, in first-seen order.
func rejectionMessages(results []download.ImportResult) []download.StatusMessage {
	var (
		messages []download.StatusMessage
		index    = make(map[string]int)
	)
	for _, result := range results {
		if result.Imported() {
			continue
		}
		name := filepath.Base(result.Path)
		if result.Path == "" {
			name = string(result.Kind)
		}
		reasons := result.Errors
		if len(reasons) == 0 {
			reasons = []string{fmt.Sprintf("file was %s", result.Kind)}
		}
		i, ok := index[name]
		if !ok {
			index[name] = len(messages)
			messages = append(messages, download.StatusMessage{Title: name, Messages: slices.Clone(reasons)})
			continue
		}
		for _, reason := range reasons {
			if !slices.Contains(messages[i].Messages, reason) {
				messages[i].Messages = append(messages[i].Messages, reason)
			}
		}
	}
	return messages
}

func (t *Tracker) publish(ctx context.Context, kind notifications.Kind, td *download.TrackedDownload) {
	event := notifications.NewEvent(kind, td)
	if err := t.publisher.Publish(ctx, event); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, t.logger), "event publish failed", "event_publish_failed",
			append(logging.ErrorAttrs(err),
				logging.String("event_kind", string(kind)),
				logging.String("event_id", event.ID),
				logging.String(logging.FieldErrorHint, "check notification settings"),
				logging.String(logging.FieldImpact, "operators may miss this outcome"))...)
	}
}
