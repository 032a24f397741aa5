package tracking

import (
	"context"

	"shelver/internal/download"
	"shelver/internal/library"
)

// HistoryProvider answers history questions about a download identifier.
type HistoryProvider interface {
	MostRecentForDownloadID(ctx context.Context, downloadID string) (*library.HistoryRecord, error)
	FindByDownloadID(ctx context.Context, downloadID string) ([]library.HistoryRecord, error)
}

// Importer imports the files found under path.
type Importer interface {
	ProcessPath(ctx context.Context, path, mode string, authorHint *download.Author, item download.Item) ([]download.ImportResult, error)
}

// Verifier confirms that an import attempt delivered everything expected.
type Verifier interface {
	Verify(ctx context.Context, td *download.TrackedDownload, results []download.ImportResult) bool
}
