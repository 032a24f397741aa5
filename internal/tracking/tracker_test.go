package tracking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"shelver/internal/download"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/services"
)

type fakeHistory struct {
	mu      sync.Mutex
	recent  *library.HistoryRecord
	records []library.HistoryRecord
	err     error
}

func (f *fakeHistory) MostRecentForDownloadID(context.Context, string) (*library.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recent, f.err
}

func (f *fakeHistory) FindByDownloadID(context.Context, string) ([]library.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, f.err
}

type fakeImporter struct {
	mu       sync.Mutex
	results  []download.ImportResult
	err      error
	calls    int
	paths    []string
	hints    []*download.Author
	inflight int
	overlap  bool
	delay    time.Duration
}

func (f *fakeImporter) ProcessPath(_ context.Context, path, _ string, hint *download.Author, _ download.Item) ([]download.ImportResult, error) {
	f.mu.Lock()
	f.calls++
	f.inflight++
	if f.inflight > 1 {
		f.overlap = true
	}
	f.paths = append(f.paths, path)
	f.hints = append(f.hints, hint)
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	return f.results, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, event notifications.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) kinds() []notifications.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]notifications.Kind, 0, len(r.events))
	for _, event := range r.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

func completedItem() download.Item {
	return download.Item{
		DownloadID: "dl-1",
		Client:     "blackhole",
		Title:      "Frank Herbert - Dune",
		Category:   "books",
		Status:     download.ItemCompleted,
		OutputPath: "/downloads/Dune",
	}
}

func remoteBooks(ids ...int64) *download.RemoteBook {
	books := make([]download.Book, 0, len(ids))
	for _, id := range ids {
		books = append(books, download.Book{ID: id, AuthorID: 1})
	}
	return &download.RemoteBook{Author: &download.Author{ID: 1, Name: "Frank Herbert"}, Books: books}
}

func importedResult(path string, bookID int64) download.ImportResult {
	return download.ImportResult{Kind: download.ImportImported, Path: path, Book: &download.Book{ID: bookID}}
}

func rejectedResult(path string, bookID int64, reasons ...string) download.ImportResult {
	return download.ImportResult{Kind: download.ImportRejected, Path: path, Book: &download.Book{ID: bookID}, Errors: reasons}
}

func newTestTracker(history *fakeHistory, importer *fakeImporter, pub *recordingPublisher, opts ...Option) *Tracker {
	opts = append([]Option{WithGOOS("linux")}, opts...)
	return New(history, importer, pub, logging.NewNop(), opts...)
}

func TestCheckMovesCompletedDownloadToImportPending(t *testing.T) {
	tracker := newTestTracker(&fakeHistory{}, &fakeImporter{}, &recordingPublisher{})
	td := tracker.Track(completedItem(), remoteBooks(1))

	tracker.Check(context.Background(), td)
	if td.State != download.StateImportPending {
		t.Fatalf("state = %s, want import_pending", td.State)
	}
	if td.ImportPath != "/downloads/Dune" {
		t.Fatalf("import path = %q", td.ImportPath)
	}
	if td.Status != download.StatusOK {
		t.Fatalf("status = %s, want ok", td.Status)
	}

	tracker.Check(context.Background(), td)
	if td.State != download.StateImportPending {
		t.Fatalf("second check changed state to %s", td.State)
	}
}

func TestCheckIgnoresIncompleteOrAdvancedDownloads(t *testing.T) {
	tracker := newTestTracker(&fakeHistory{}, &fakeImporter{}, &recordingPublisher{})

	item := completedItem()
	item.Status = download.ItemDownloading
	td := tracker.Track(item, nil)
	tracker.Check(context.Background(), td)
	if td.State != download.StateDownloading {
		t.Fatalf("incomplete item moved to %s", td.State)
	}

	done := download.NewTrackedDownload(completedItem(), nil)
	done.State = download.StateImported
	tracker.Check(context.Background(), done)
	if done.State != download.StateImported {
		t.Fatalf("imported download moved to %s", done.State)
	}
}

func TestCheckWarnings(t *testing.T) {
	tests := []struct {
		name    string
		history *fakeHistory
		mutate  func(*download.Item)
		want    string
	}{
		{
			name:    "not grabbed and no category",
			history: &fakeHistory{},
			mutate:  func(item *download.Item) { item.Category = "" },
			want:    "wasn't grabbed",
		},
		{
			name:    "not grabbed and blank category",
			history: &fakeHistory{},
			mutate:  func(item *download.Item) { item.Category = "  \t" },
			want:    "wasn't grabbed",
		},
		{
			name:    "empty output path",
			history: &fakeHistory{recent: &library.HistoryRecord{EventType: library.EventGrabbed}},
			mutate:  func(item *download.Item) { item.OutputPath = "" },
			want:    "intermediate path",
		},
		{
			name:    "windows path on linux",
			history: &fakeHistory{},
			mutate:  func(item *download.Item) { item.OutputPath = `C:\Downloads\Dune` },
			want:    "Remote Path Mapping",
		},
		{
			name:    "history failure",
			history: &fakeHistory{err: errors.New("database is locked")},
			mutate:  func(*download.Item) {},
			want:    "database is locked",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTestTracker(tt.history, &fakeImporter{}, &recordingPublisher{})
			item := completedItem()
			tt.mutate(&item)
			td := tracker.Track(item, nil)

			tracker.Check(context.Background(), td)
			if td.State != download.StateDownloading {
				t.Fatalf("state = %s, want downloading", td.State)
			}
			if td.Status != download.StatusWarning {
				t.Fatalf("status = %s, want warning", td.Status)
			}
			if len(td.StatusMessages) != 1 || !strings.Contains(td.StatusMessages[0].String(), tt.want) {
				t.Fatalf("messages = %+v, want one containing %q", td.StatusMessages, tt.want)
			}
		})
	}
}

func TestCheckAppliesRemotePathMapping(t *testing.T) {
	mapper := download.NewMapper([]download.PathMapping{{Client: "blackhole", RemotePath: `C:\Downloads`, LocalPath: "/mnt/downloads"}})
	tracker := newTestTracker(&fakeHistory{}, &fakeImporter{}, &recordingPublisher{}, WithMapper(mapper))
	item := completedItem()
	item.OutputPath = `C:\Downloads\Dune`
	td := tracker.Track(item, nil)

	tracker.Check(context.Background(), td)
	if td.State != download.StateImportPending {
		t.Fatalf("state = %s, want import_pending (%v)", td.State, td.StatusMessages)
	}
	if td.ImportPath != "/mnt/downloads/Dune" {
		t.Fatalf("import path = %q", td.ImportPath)
	}
}

func TestImportOutcomes(t *testing.T) {
	tests := []struct {
		name         string
		expected     []int64
		results      []download.ImportResult
		history      []library.HistoryRecord
		importErr    error
		wantState    download.State
		wantEvents   []notifications.Kind
		wantMessages int
		wantText     string
	}{
		{
			name:       "all imported",
			expected:   []int64{1},
			results:    []download.ImportResult{importedResult("/downloads/Dune/dune.epub", 1)},
			wantState:  download.StateImported,
			wantEvents: []notifications.Kind{notifications.KindDownloadCompleted},
		},
		{
			name:         "no eligible files",
			expected:     []int64{1},
			wantState:    download.StateImportPending,
			wantMessages: 1,
			wantText:     "No files found",
		},
		{
			name:     "one rejected",
			expected: []int64{1},
			results: []download.ImportResult{
				rejectedResult("/downloads/Dune/dune.epub", 1, "Not an upgrade"),
			},
			wantState:    download.StateImportFailed,
			wantEvents:   []notifications.Kind{notifications.KindImportIncomplete},
			wantMessages: 1,
			wantText:     "dune.epub: Not an upgrade",
		},
		{
			name:     "one of two expected imported with no history",
			expected: []int64{1, 2},
			results: []download.ImportResult{
				importedResult("/downloads/Dune/dune.epub", 1),
			},
			wantState:    download.StateImportPending,
			wantMessages: 1,
			wantText:     "Imported 1 of 2 expected books, still missing: book 2",
		},
		{
			name:     "nothing new after a partial pass names the missing book",
			expected: []int64{1, 2},
			history: []library.HistoryRecord{
				{DownloadID: "dl-1", BookID: 1, EventType: library.EventBookFileImported, Date: time.Now()},
				{DownloadID: "dl-1", BookID: 2, EventType: library.EventGrabbed, Date: time.Now().Add(-time.Hour)},
			},
			wantState:    download.StateImportPending,
			wantMessages: 1,
			wantText:     "Imported 1 of 2 expected books, still missing: book 2",
		},
		{
			name:     "mixed outcome with two expected",
			expected: []int64{1, 2},
			results: []download.ImportResult{
				importedResult("/downloads/Dune/a.epub", 1),
				rejectedResult("/downloads/Dune/b.epub", 2, "quality too low"),
			},
			wantState:    download.StateImportFailed,
			wantEvents:   []notifications.Kind{notifications.KindImportIncomplete},
			wantMessages: 1,
			wantText:     "b.epub: quality too low",
		},
		{
			name:     "earlier pass imported the rest",
			expected: []int64{1, 2},
			results: []download.ImportResult{
				importedResult("/downloads/Dune/a.epub", 1),
			},
			history: []library.HistoryRecord{
				{DownloadID: "dl-1", BookID: 1, EventType: library.EventBookFileImported, Date: time.Now()},
				{DownloadID: "dl-1", BookID: 2, EventType: library.EventBookFileImported, Date: time.Now().Add(-time.Hour)},
			},
			wantState:  download.StateImported,
			wantEvents: []notifications.Kind{notifications.KindDownloadCompleted},
		},
		{
			name:         "importer error is soft",
			expected:     []int64{1},
			importErr:    errors.New("permission denied"),
			wantState:    download.StateImportPending,
			wantMessages: 1,
			wantText:     "Import failed, will retry: permission denied",
		},
		{
			name:         "importer configuration error asks for a fix",
			expected:     []int64{1},
			importErr:    services.Wrap(services.ErrConfiguration, "import", "scan", "no extensions configured", nil),
			wantState:    download.StateImportPending,
			wantMessages: 1,
			wantText:     "Import failed with a configuration error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := &fakeHistory{records: tt.history}
			importer := &fakeImporter{results: tt.results, err: tt.importErr}
			pub := &recordingPublisher{}
			tracker := newTestTracker(history, importer, pub)
			td := tracker.Track(completedItem(), remoteBooks(tt.expected...))

			tracker.Process(context.Background(), td)

			if td.State != tt.wantState {
				t.Fatalf("state = %s, want %s (%v)", td.State, tt.wantState, td.StatusMessages)
			}
			kinds := pub.kinds()
			if len(kinds) != len(tt.wantEvents) {
				t.Fatalf("events = %v, want %v", kinds, tt.wantEvents)
			}
			for i := range kinds {
				if kinds[i] != tt.wantEvents[i] {
					t.Fatalf("events = %v, want %v", kinds, tt.wantEvents)
				}
			}
			if len(td.StatusMessages) != tt.wantMessages {
				t.Fatalf("messages = %+v, want %d", td.StatusMessages, tt.wantMessages)
			}
			if tt.wantText != "" && !strings.Contains(td.StatusMessages[0].String(), tt.wantText) {
				t.Fatalf("message %q does not contain %q", td.StatusMessages[0].String(), tt.wantText)
			}
			if tt.wantState == download.StateImported && td.Status != download.StatusOK {
				t.Fatalf("imported download status = %s", td.Status)
			}
		})
	}
}

func TestImportGroupsMessagesPerFile(t *testing.T) {
	importer := &fakeImporter{results: []download.ImportResult{
		rejectedResult("/downloads/Dune/a.epub", 1, "quality too low"),
		rejectedResult("/downloads/Dune/a.epub", 1, "quality too low", "unknown edition"),
		{Kind: download.ImportSkipped, Path: "/downloads/Dune/b.epub"},
	}}
	pub := &recordingPublisher{}
	tracker := newTestTracker(&fakeHistory{}, importer, pub)
	td := tracker.Track(completedItem(), remoteBooks(1, 2))

	tracker.Process(context.Background(), td)

	if td.State != download.StateImportFailed {
		t.Fatalf("state = %s", td.State)
	}
	if len(td.StatusMessages) != 2 {
		t.Fatalf("messages = %+v, want 2", td.StatusMessages)
	}
	first := td.StatusMessages[0]
	if first.Title != "a.epub" || len(first.Messages) != 2 {
		t.Fatalf("first message = %+v", first)
	}
	if td.StatusMessages[1].Title != "b.epub" {
		t.Fatalf("second message = %+v", td.StatusMessages[1])
	}
	if len(pub.kinds()) != 1 {
		t.Fatalf("events = %v, want exactly one", pub.kinds())
	}
	if got := pub.events[0].Download.State; got != download.StateImportFailed {
		t.Fatalf("event snapshot state = %s", got)
	}
}

func TestImportPassesAuthorHintAndPath(t *testing.T) {
	importer := &fakeImporter{results: []download.ImportResult{importedResult("/downloads/Dune/dune.epub", 1)}}
	tracker := newTestTracker(&fakeHistory{}, importer, &recordingPublisher{})
	td := tracker.Track(completedItem(), remoteBooks(1))

	tracker.Process(context.Background(), td)

	if importer.calls != 1 {
		t.Fatalf("importer calls = %d", importer.calls)
	}
	if importer.paths[0] != "/downloads/Dune" {
		t.Fatalf("path = %q", importer.paths[0])
	}
	if importer.hints[0] == nil || importer.hints[0].Name != "Frank Herbert" {
		t.Fatalf("hint = %+v", importer.hints[0])
	}
}

func TestImportRetriesPendingAndSkipsImported(t *testing.T) {
	importer := &fakeImporter{err: errors.New("disk full")}
	tracker := newTestTracker(&fakeHistory{}, importer, &recordingPublisher{})
	td := tracker.Track(completedItem(), remoteBooks(1))

	tracker.Process(context.Background(), td)
	if td.State != download.StateImportPending {
		t.Fatalf("state = %s", td.State)
	}

	importer.err = nil
	importer.results = []download.ImportResult{importedResult("/downloads/Dune/dune.epub", 1)}
	tracker.Process(context.Background(), td)
	if td.State != download.StateImported {
		t.Fatalf("state = %s", td.State)
	}

	tracker.Process(context.Background(), td)
	tracker.Import(context.Background(), td)
	if importer.calls != 2 {
		t.Fatalf("importer calls = %d, want 2", importer.calls)
	}
}

func TestImportFailedCanBeRetriedExplicitly(t *testing.T) {
	importer := &fakeImporter{results: []download.ImportResult{rejectedResult("/downloads/Dune/dune.epub", 1, "corrupt")}}
	tracker := newTestTracker(&fakeHistory{}, importer, &recordingPublisher{})
	td := tracker.Track(completedItem(), remoteBooks(1))

	tracker.Process(context.Background(), td)
	if td.State != download.StateImportFailed {
		t.Fatalf("state = %s", td.State)
	}
	tracker.Process(context.Background(), td)
	if importer.calls != 1 {
		t.Fatalf("process retried a failed import")
	}

	importer.results = []download.ImportResult{importedResult("/downloads/Dune/dune.epub", 1)}
	tracker.Import(context.Background(), td)
	if td.State != download.StateImported {
		t.Fatalf("state = %s", td.State)
	}
}

func TestPublishErrorDoesNotChangeOutcome(t *testing.T) {
	importer := &fakeImporter{results: []download.ImportResult{importedResult("/downloads/Dune/dune.epub", 1)}}
	pub := &recordingPublisher{err: errors.New("ntfy unreachable")}
	tracker := newTestTracker(&fakeHistory{}, importer, pub)
	td := tracker.Track(completedItem(), remoteBooks(1))

	tracker.Process(context.Background(), td)
	if td.State != download.StateImported {
		t.Fatalf("state = %s", td.State)
	}
	if len(pub.kinds()) != 1 {
		t.Fatalf("events = %v", pub.kinds())
	}
}

func TestConcurrentProcessIsSerialised(t *testing.T) {
	importer := &fakeImporter{
		results: []download.ImportResult{importedResult("/downloads/Dune/dune.epub", 1)},
		delay:   10 * time.Millisecond,
	}
	pub := &recordingPublisher{}
	tracker := newTestTracker(&fakeHistory{}, importer, pub)
	td := tracker.Track(completedItem(), remoteBooks(1))

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			tracker.Process(context.Background(), td)
		})
	}
	wg.Wait()

	if importer.overlap {
		t.Fatal("imports overlapped for the same download")
	}
	if importer.calls != 1 {
		t.Fatalf("importer calls = %d, want 1", importer.calls)
	}
	if len(pub.kinds()) != 1 {
		t.Fatalf("events = %v, want one", pub.kinds())
	}
}

func TestTrackRefreshesItemAndSnapshot(t *testing.T) {
	tracker := newTestTracker(&fakeHistory{}, &fakeImporter{}, &recordingPublisher{})
	item := completedItem()
	item.Status = download.ItemDownloading
	first := tracker.Track(item, nil)

	item.Status = download.ItemCompleted
	second := tracker.Track(item, remoteBooks(1, 2))
	if first != second {
		t.Fatal("Track returned a new record for a known id")
	}
	if second.Item.Status != download.ItemCompleted {
		t.Fatalf("item not refreshed: %s", second.Item.Status)
	}
	if second.ExpectedBookCount() != 2 {
		t.Fatalf("expected books = %d", second.ExpectedBookCount())
	}

	other := completedItem()
	other.DownloadID = "dl-2"
	tracker.Track(other, nil)

	snap := tracker.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot = %d entries", len(snap))
	}
	got, ok := tracker.Get("dl-1")
	if !ok || got.DownloadID != "dl-1" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	got.StatusMessages = append(got.StatusMessages, download.StatusMessage{Title: "x"})
	if len(second.StatusMessages) != 0 {
		t.Fatal("Get returned shared state")
	}
	if _, ok := tracker.Get("missing"); ok {
		t.Fatal("Get found a missing id")
	}
}

func TestRetryUnknownDownload(t *testing.T) {
	tracker := newTestTracker(&fakeHistory{}, &fakeImporter{}, &recordingPublisher{})
	if _, ok := tracker.Retry(context.Background(), "missing"); ok {
		t.Fatal("Retry found a missing download")
	}

	importer := &fakeImporter{results: []download.ImportResult{rejectedResult("/downloads/Dune/dune.epub", 1, "corrupt")}}
	tracker = newTestTracker(&fakeHistory{}, importer, &recordingPublisher{})
	td := tracker.Track(completedItem(), remoteBooks(1))
	tracker.Process(context.Background(), td)

	importer.results = []download.ImportResult{importedResult("/downloads/Dune/dune.epub", 1)}
	got, ok := tracker.Retry(context.Background(), "dl-1")
	if !ok || got.State != download.StateImported {
		t.Fatalf("Retry = %+v, %v", got.State, ok)
	}
}
