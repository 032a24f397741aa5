package library_test

import (
	"context"
	"testing"
	"time"

	"shelver/internal/download"
	"shelver/internal/library"
	"shelver/internal/notifications"
	"shelver/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	versions, err := store.SchemaVersions(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersions failed: %v", err)
	}
	if len(versions) == 0 || versions[0] != "001_initial" {
		t.Fatalf("unexpected versions %v", versions)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	again, err := reopened.SchemaVersions(context.Background())
	if err != nil || len(again) != len(versions) {
		t.Fatalf("migrations re-applied: %v %v", again, err)
	}
}

func TestSeedAndCandidates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	summary := testsupport.MustSeed(t, store, testsupport.SampleSeed)
	if summary.Authors != 2 || summary.Books != 3 || summary.Editions != 4 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	// Loading twice upserts instead of duplicating.
	testsupport.MustSeed(t, store, testsupport.SampleSeed)
	authors, books, editions, err := store.CatalogCounts(ctx)
	if err != nil {
		t.Fatalf("CatalogCounts failed: %v", err)
	}
	if authors != 2 || books != 3 || editions != 4 {
		t.Fatalf("counts = %d/%d/%d", authors, books, editions)
	}

	herbert, err := store.FindAuthor(ctx, "frank herbert")
	if err != nil || herbert == nil {
		t.Fatalf("FindAuthor: %v %v", herbert, err)
	}
	candidates, err := store.Candidates(ctx, herbert.ID)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}
	first := candidates[0]
	if first.ISBN13 != "9780441172719" || first.AuthorName != "Frank Herbert" || first.Year != 1965 {
		t.Fatalf("unexpected candidate %+v", first)
	}
	if candidates[1].MediaCount != 2 || candidates[1].Format != "audiobook" {
		t.Fatalf("unexpected audiobook candidate %+v", candidates[1])
	}

	all, err := store.Candidates(ctx, 0)
	if err != nil || len(all) != 4 {
		t.Fatalf("all candidates = %d, %v", len(all), err)
	}

	leGuin, err := store.FindAuthor(ctx, "Ursula Le Guin")
	if err != nil || leGuin == nil || leGuin.Name != "Ursula K. Le Guin" {
		t.Fatalf("alias lookup failed: %+v %v", leGuin, err)
	}
}

func TestBookWithoutEditionIsCandidate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	author, err := store.AddAuthor(ctx, library.Author{Name: "Octavia E. Butler"})
	if err != nil {
		t.Fatalf("AddAuthor failed: %v", err)
	}
	book, err := store.AddBook(ctx, library.Book{AuthorID: author.ID, Title: "Kindred", Year: 1979})
	if err != nil {
		t.Fatalf("AddBook failed: %v", err)
	}
	candidates, err := store.Candidates(ctx, author.ID)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].EditionID != 0 || candidates[0].BookID != book.ID {
		t.Fatalf("unexpected candidates %+v", candidates)
	}

	if _, err := store.AddBook(ctx, library.Book{Title: "Orphan"}); err == nil {
		t.Fatal("expected error for book without author")
	}
	fetched, err := store.BookByID(ctx, book.ID)
	if err != nil || fetched == nil || fetched.Year != 1979 {
		t.Fatalf("BookByID = %+v, %v", fetched, err)
	}
	missing, err := store.AuthorByID(ctx, 999)
	if err != nil || missing != nil {
		t.Fatalf("AuthorByID(missing) = %+v, %v", missing, err)
	}
}

func TestHistoryOrderingAndGrab(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.MustSeed(t, store, testsupport.SampleSeed)
	dune := testsupport.MustFindBook(t, store, "Frank Herbert", "Dune")
	messiah := testsupport.MustFindBook(t, store, "Frank Herbert", "Dune Messiah")

	if err := store.Grab(ctx, "dl-1", "Frank Herbert - Dune Duology", dune.AuthorID, dune.ID, messiah.ID); err != nil {
		t.Fatalf("Grab failed: %v", err)
	}

	base := time.Now().UTC().Add(time.Minute)
	for i, bookID := range []int64{dune.ID, messiah.ID} {
		record := &library.HistoryRecord{
			DownloadID: "dl-1",
			AuthorID:   dune.AuthorID,
			BookID:     bookID,
			EventType:  library.EventBookFileImported,
			Date:       base.Add(time.Duration(i) * time.Second),
			Data:       map[string]string{"path": "/downloads/x.epub"},
		}
		if err := store.Record(ctx, record); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if record.ID == 0 {
			t.Fatal("expected record id")
		}
	}

	recent, err := store.MostRecentForDownloadID(ctx, "dl-1")
	if err != nil || recent == nil {
		t.Fatalf("MostRecentForDownloadID: %v %v", recent, err)
	}
	if recent.BookID != messiah.ID || recent.Data["path"] != "/downloads/x.epub" {
		t.Fatalf("unexpected most recent %+v", recent)
	}

	records, err := store.FindByDownloadID(ctx, "dl-1")
	if err != nil {
		t.Fatalf("FindByDownloadID failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Date.After(records[i-1].Date) {
			t.Fatalf("records not newest first: %v then %v", records[i-1].Date, records[i].Date)
		}
	}

	remote, err := store.GrabbedBooks(ctx, "dl-1")
	if err != nil || remote == nil {
		t.Fatalf("GrabbedBooks: %v %v", remote, err)
	}
	if remote.ExpectedBookCount() != 2 || remote.Author == nil || remote.Author.Name != "Frank Herbert" {
		t.Fatalf("unexpected remote %+v", remote)
	}

	none, err := store.MostRecentForDownloadID(ctx, "unknown")
	if err != nil || none != nil {
		t.Fatalf("unknown download = %+v, %v", none, err)
	}
	grabbed, err := store.GrabbedBooks(ctx, "unknown")
	if err != nil || grabbed != nil {
		t.Fatalf("unknown grab = %+v, %v", grabbed, err)
	}

	byBook, err := store.FindByBookID(ctx, dune.ID)
	if err != nil || len(byBook) != 2 {
		t.Fatalf("FindByBookID = %d, %v", len(byBook), err)
	}
	latest, err := store.Recent(ctx, 1)
	if err != nil || len(latest) != 1 || latest[0].ID != recent.ID {
		t.Fatalf("Recent = %+v, %v", latest, err)
	}
}

func TestGrabRejectsForeignBooks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.MustSeed(t, store, testsupport.SampleSeed)
	dune := testsupport.MustFindBook(t, store, "Frank Herbert", "Dune")
	earthsea := testsupport.MustFindBook(t, store, "Ursula K. Le Guin", "A Wizard of Earthsea")

	if err := store.Grab(context.Background(), "dl-2", "mixed", dune.AuthorID, dune.ID, earthsea.ID); err == nil {
		t.Fatal("expected error for book of another author")
	}
	if err := store.Grab(context.Background(), "dl-2", "empty", dune.AuthorID); err == nil {
		t.Fatal("expected error for empty grab")
	}
}

func TestRecordValidates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Record(ctx, &library.HistoryRecord{EventType: library.EventGrabbed}); err == nil {
		t.Fatal("expected error for missing download id")
	}
	if err := store.Record(ctx, &library.HistoryRecord{DownloadID: "dl", EventType: "bogus"}); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestHistoryRecorderWritesRowPerBook(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	td := download.NewTrackedDownload(download.Item{DownloadID: "dl-9", Client: "blackhole", Title: "Dune"}, &download.RemoteBook{
		Author: &download.Author{ID: 1, Name: "Frank Herbert"},
		Books:  []download.Book{{ID: 1}, {ID: 2}},
	})
	td.WarnMessages(download.StatusMessage{Title: "b.epub", Messages: []string{"quality too low"}})

	recorder := library.NewHistoryRecorder(store, nil)
	if err := recorder.Publish(ctx, notifications.NewEvent(notifications.KindImportIncomplete, td)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	records, err := store.FindByDownloadID(ctx, "dl-9")
	if err != nil {
		t.Fatalf("FindByDownloadID failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, record := range records {
		if record.EventType != library.EventImportIncomplete {
			t.Fatalf("event type = %s", record.EventType)
		}
		if record.Data["status_messages"] != "b.epub: quality too low" {
			t.Fatalf("data = %v", record.Data)
		}
	}

	unknown := download.NewTrackedDownload(download.Item{DownloadID: "dl-10", Title: "Unknown"}, nil)
	if err := recorder.Publish(ctx, notifications.NewEvent(notifications.KindDownloadCompleted, unknown)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	rows, err := store.FindByDownloadID(ctx, "dl-10")
	if err != nil || len(rows) != 1 || rows[0].EventType != library.EventDownloadImported || rows[0].BookID != 0 {
		t.Fatalf("unexpected rows %+v, %v", rows, err)
	}
}
