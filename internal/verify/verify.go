// Package verify decides whether an import attempt delivered everything a
// tracked download was expected to deliver.
package verify

import (
	"context"
	"log/slog"

	"shelver/internal/download"
	"shelver/internal/library"
	"shelver/internal/logging"
)

// HistoryProvider looks up history for a download, newest record first.
type HistoryProvider interface {
	FindByDownloadID(ctx context.Context, downloadID string) ([]library.HistoryRecord, error)
}

// Verifier confirms import completeness from results and history.
type Verifier struct {
	history HistoryProvider
	logger  *slog.Logger
}

// New constructs a Verifier.
func New(history HistoryProvider, logger *slog.Logger) *Verifier {
	return &Verifier{
		history: history,
		logger:  logging.NewComponentLogger(logger, "verify"),
	}
}

// Verify reports whether td can be considered fully imported. False means
// the download should stay pending, not that it failed.
func (v *Verifier) Verify(ctx context.Context, td *download.TrackedDownload, results []download.ImportResult) bool {
	logger := logging.WithContext(ctx, v.logger)
	imported := download.ImportedBookIDs(results)
	expected := td.ExpectedBookCount()
	if len(imported) >= expected {
		logger.Debug("import verified by results",
			logging.Int("imported_books", len(imported)),
			logging.Int("expected_books", expected))
		return true
	}

	anyImported := false
	for _, result := range results {
		if result.Imported() {
			anyImported = true
			break
		}
	}
	if !anyImported {
		return false
	}

	if v.history == nil {
		return false
	}
	records, err := v.history.FindByDownloadID(ctx, td.DownloadID)
	if err != nil {
		logging.WarnWithContext(logger, "history lookup failed during import verification", "import_verify_history_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database"),
			logging.String(logging.FieldImpact, "download stays pending until the next check"))
		return false
	}
	if AlreadyImported(td, records) {
		logger.Info("import verified by history",
			logging.Int("imported_books", len(imported)),
			logging.Int("expected_books", expected),
			logging.Int("history_records", len(records)))
		return true
	}
	logger.Debug("import not yet complete",
		logging.Int("imported_books", len(imported)),
		logging.Int("expected_books", expected))
	return false
}

// AlreadyImported reports whether every book expected by td has a file
// import recorded for this download in any earlier pass.
func AlreadyImported(td *download.TrackedDownload, records []library.HistoryRecord) bool {
	if len(records) == 0 || td.RemoteBook == nil || len(td.RemoteBook.Books) == 0 {
		return false
	}
	imported := ImportedBooks(records)
	for _, book := range td.RemoteBook.Books {
		if !imported[book.ID] {
			return false
		}
	}
	return true
}

// ImportedBooks returns the ids of books with a book_file_imported record.
// Grab, incomplete and download level events are ignored.
func ImportedBooks(records []library.HistoryRecord) map[int64]bool {
	imported := make(map[int64]bool)
	for _, record := range records {
		if record.EventType == library.EventBookFileImported {
			imported[record.BookID] = true
		}
	}
	return imported
}

// MissingBooks returns the expected books of td that neither results nor
// records show as imported, in grab order.
func MissingBooks(td *download.TrackedDownload, results []download.ImportResult, records []library.HistoryRecord) []download.Book {
	if td.RemoteBook == nil {
		return nil
	}
	imported := ImportedBooks(records)
	for _, id := range download.ImportedBookIDs(results) {
		imported[id] = true
	}
	var missing []download.Book
	for _, book := range td.RemoteBook.Books {
		if !imported[book.ID] {
			missing = append(missing, book)
		}
	}
	return missing
}
