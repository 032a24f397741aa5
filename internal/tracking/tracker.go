package tracking

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"

	"shelver/internal/download"
	"shelver/internal/keylock"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/verify"
)

const defaultImportMode = "auto"

// Tracker owns tracked downloads and advances their state.
type Tracker struct {
	history   HistoryProvider
	importer  Importer
	verifier  Verifier
	publisher notifications.Publisher
	mapper    *download.Mapper
	goos      string
	mode      string
	logger    *slog.Logger

	locks     keylock.Locker
	mu        sync.RWMutex
	downloads map[string]*download.TrackedDownload
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithMapper translates client output paths before validation.
func WithMapper(mapper *download.Mapper) Option {
	return func(t *Tracker) { t.mapper = mapper }
}

// WithGOOS overrides the platform used for local path validation.
func WithGOOS(goos string) Option {
	return func(t *Tracker) {
		if goos != "" {
			t.goos = goos
		}
	}
}

// WithImportMode sets the mode passed to the importer.
func WithImportMode(mode string) Option {
	return func(t *Tracker) {
		if mode = strings.TrimSpace(mode); mode != "" {
			t.mode = mode
		}
	}
}

// WithVerifier replaces the history-backed verifier.
func WithVerifier(v Verifier) Option {
	return func(t *Tracker) {
		if v != nil {
			t.verifier = v
		}
	}
}

// New constructs a Tracker. A nil publisher discards events.
func New(history HistoryProvider, importer Importer, publisher notifications.Publisher, logger *slog.Logger, opts ...Option) *Tracker {
	if publisher == nil {
		publisher = notifications.Noop()
	}
	t := &Tracker{
		history:   history,
		importer:  importer,
		publisher: publisher,
		goos:      runtime.GOOS,
		mode:      defaultImportMode,
		logger:    logging.NewComponentLogger(logger, "tracker"),
		downloads: make(map[string]*download.TrackedDownload),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.verifier == nil {
		t.verifier = verify.New(history, logger)
	}
	return t
}

// Track returns the tracked download for item, creating it in the
// downloading state on first observation. Later observations refresh the
// client item and fill in remote when it was unknown.
func (t *Tracker) Track(item download.Item, remote *download.RemoteBook) *download.TrackedDownload {
	unlock := t.locks.Lock(item.DownloadID)
	defer unlock()

	t.mu.Lock()
	td, ok := t.downloads[item.DownloadID]
	if !ok {
		td = download.NewTrackedDownload(item, remote)
		t.downloads[item.DownloadID] = td
	}
	t.mu.Unlock()

	if ok {
		td.Item = item
		if td.RemoteBook == nil && remote != nil {
			td.RemoteBook = remote
		}
		return td
	}
	t.logger.Info("tracking new download",
		logging.String(logging.FieldDownloadID, item.DownloadID),
		logging.String(logging.FieldClient, item.Client),
		logging.String("title", item.Title),
		logging.Int("expected_books", td.ExpectedBookCount()))
	return td
}

// Get returns a copy of the tracked download with id.
func (t *Tracker) Get(id string) (download.TrackedDownload, bool) {
	t.mu.RLock()
	td, ok := t.downloads[id]
	t.mu.RUnlock()
	if !ok {
		return download.TrackedDownload{}, false
	}
	unlock := t.locks.Lock(id)
	defer unlock()
	return td.Clone(), true
}

// Snapshot returns copies of every tracked download, oldest first.
func (t *Tracker) Snapshot() []download.TrackedDownload {
	t.mu.RLock()
	tracked := make([]*download.TrackedDownload, 0, len(t.downloads))
	for _, td := range t.downloads {
		tracked = append(tracked, td)
	}
	t.mu.RUnlock()

	out := make([]download.TrackedDownload, 0, len(tracked))
	for _, td := range tracked {
		t.locks.With(td.DownloadID, func() {
			out = append(out, td.Clone())
		})
	}
	slices.SortFunc(out, func(a, b download.TrackedDownload) int {
		if c := a.Added.Compare(b.Added); c != 0 {
			return c
		}
		return strings.Compare(a.DownloadID, b.DownloadID)
	})
	return out
}

// Process runs Check and, when the download became or already was eligible,
// Import while holding the download's lock once.
func (t *Tracker) Process(ctx context.Context, td *download.TrackedDownload) {
	unlock := t.locks.Lock(td.DownloadID)
	defer unlock()

	t.check(ctx, td)
	if td.State == download.StateImportPending {
		t.importDownload(ctx, td)
	}
}

// Check moves a completed download to import_pending when it can be imported.
func (t *Tracker) Check(ctx context.Context, td *download.TrackedDownload) {
	unlock := t.locks.Lock(td.DownloadID)
	defer unlock()
	t.check(ctx, td)
}

// Import runs one import attempt for a download in import_pending, or in
// import_failed when an operator retries it.
func (t *Tracker) Import(ctx context.Context, td *download.TrackedDownload) {
	unlock := t.locks.Lock(td.DownloadID)
	defer unlock()
	t.importDownload(ctx, td)
}

// Retry runs Import for the tracked download with id and returns a copy of
// its resulting state. It reports false when the id is unknown.
func (t *Tracker) Retry(ctx context.Context, id string) (download.TrackedDownload, bool) {
	t.mu.RLock()
	td, ok := t.downloads[id]
	t.mu.RUnlock()
	if !ok {
		return download.TrackedDownload{}, false
	}
	unlock := t.locks.Lock(id)
	defer unlock()
	t.importDownload(ctx, td)
	return td.Clone(), true
}
