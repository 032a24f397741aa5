package daemonrun_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shelver/internal/config"
	"shelver/internal/daemonrun"
	"shelver/internal/download"
	"shelver/internal/downloadclient"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/testsupport"
	"shelver/internal/tracking"
	"shelver/internal/workflow"
)

func TestNewMapperUsesConfiguredMappings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.RemotePathMappings = append(cfg.RemotePathMappings, config.RemotePathMapping{Client: "watch", RemotePath: "/remote/books", LocalPath: "/srv/books"})

	mapper := daemonrun.NewMapper(cfg)
	if got := mapper.Map("watch", "/remote/books/Dune"); got != "/srv/books/Dune" {
		t.Fatalf("Map = %q", got)
	}
	if got := mapper.Map("other", "/remote/books/Dune"); got != "/remote/books/Dune" {
		t.Fatalf("Map for other client = %q", got)
	}
}

func TestGrabbedDownloadIsImportedEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t, testsupport.WithBlackhole("watch", ""))
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.MustSeed(t, store, testsupport.SampleSeed)
	dune := testsupport.MustFindBook(t, store, "Frank Herbert", "Dune")
	logger := logging.NewNop()

	clients, err := downloadclient.FromConfig(cfg, logger)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	blackhole := clients[0].(*downloadclient.Blackhole)
	entry := "Frank Herbert - Dune"
	id := blackhole.DownloadID(entry)
	if err := store.Grab(ctx, id, entry, dune.AuthorID, dune.ID); err != nil {
		t.Fatalf("Grab: %v", err)
	}

	dir := filepath.Join(cfg.DownloadClients[0].WatchDir, entry)
	file := filepath.Join(dir, "Frank Herbert - Dune (1965) [9780441172719].epub")
	testsupport.WriteFile(t, file, 4096)
	testsupport.Age(t, file, time.Minute)
	testsupport.Age(t, dir, time.Minute)

	tracker := daemonrun.NewTracker(cfg, store, logger)
	manager := workflow.NewManager(clients, store, tracker, logger)
	if err := manager.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	td, ok := tracker.Get(id)
	if !ok {
		t.Fatal("download not tracked")
	}
	if td.State != download.StateImported {
		t.Fatalf("state = %s, messages = %v", td.State, td.StatusMessages)
	}

	records, err := store.FindByDownloadID(ctx, id)
	if err != nil {
		t.Fatalf("FindByDownloadID: %v", err)
	}
	seen := make(map[library.EventType]int)
	for _, record := range records {
		seen[record.EventType]++
	}
	for _, event := range []library.EventType{library.EventGrabbed, library.EventBookFileImported, library.EventDownloadImported} {
		if seen[event] != 1 {
			t.Fatalf("event %s recorded %d times: %+v", event, seen[event], records)
		}
	}
}

type grabbedDownload struct {
	id      string
	dir     string
	store   *library.Store
	tracker *tracking.Tracker
	manager *workflow.Manager
}

// grabDownload records a grab of titles by Frank Herbert for a blackhole
// entry and wires the daemon components around it.
func grabDownload(t *testing.T, entry string, titles ...string) grabbedDownload {
	t.Helper()
	ctx := context.Background()
	cfg := testsupport.NewConfig(t, testsupport.WithBlackhole("watch", ""))
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.MustSeed(t, store, testsupport.SampleSeed)
	logger := logging.NewNop()

	var (
		authorID int64
		bookIDs  []int64
	)
	for _, title := range titles {
		book := testsupport.MustFindBook(t, store, "Frank Herbert", title)
		authorID = book.AuthorID
		bookIDs = append(bookIDs, book.ID)
	}

	clients, err := downloadclient.FromConfig(cfg, logger)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	id := clients[0].(*downloadclient.Blackhole).DownloadID(entry)
	if err := store.Grab(ctx, id, entry, authorID, bookIDs...); err != nil {
		t.Fatalf("Grab: %v", err)
	}

	tracker := daemonrun.NewTracker(cfg, store, logger)
	return grabbedDownload{
		id:      id,
		dir:     filepath.Join(cfg.DownloadClients[0].WatchDir, entry),
		store:   store,
		tracker: tracker,
		manager: workflow.NewManager(clients, store, tracker, logger),
	}
}

func (g grabbedDownload) deliver(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		file := filepath.Join(g.dir, name)
		testsupport.WriteFile(t, file, 4096)
		testsupport.Age(t, file, time.Minute)
	}
	testsupport.Age(t, g.dir, time.Minute)
}

func (g grabbedDownload) state(t *testing.T) download.TrackedDownload {
	t.Helper()
	td, ok := g.tracker.Get(g.id)
	if !ok {
		t.Fatal("download not tracked")
	}
	return td
}

const (
	duneFile    = "Frank Herbert - Dune (1965) [9780441172719].epub"
	messiahFile = "Frank Herbert - Dune Messiah (1969) [9780593098233].epub"
)

func TestRetryAfterRejectedFileCompletesImport(t *testing.T) {
	ctx := context.Background()
	g := grabDownload(t, "Frank Herbert - Dune Saga", "Dune", "Dune Messiah")
	bad := "Unknown Writer - Random Title.epub"
	g.deliver(t, duneFile, bad)

	if err := g.manager.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if td := g.state(t); td.State != download.StateImportFailed {
		t.Fatalf("state after poll = %s, messages = %v", td.State, td.StatusMessages)
	}

	if err := os.Remove(filepath.Join(g.dir, bad)); err != nil {
		t.Fatalf("remove rejected file: %v", err)
	}
	g.deliver(t, messiahFile)

	td, ok := g.manager.Retry(ctx, g.id)
	if !ok {
		t.Fatal("Retry did not find the download")
	}
	if td.State != download.StateImported {
		t.Fatalf("state after retry = %s, messages = %v", td.State, td.StatusMessages)
	}

	records, err := g.store.FindByDownloadID(ctx, g.id)
	if err != nil {
		t.Fatalf("FindByDownloadID: %v", err)
	}
	counts := make(map[library.EventType]int)
	for _, record := range records {
		counts[record.EventType]++
	}
	if counts[library.EventBookFileImported] != 2 || counts[library.EventDownloadImported] != 1 {
		t.Fatalf("history = %+v", records)
	}
}

func TestPartialDownloadWaitsForMissingBook(t *testing.T) {
	ctx := context.Background()
	g := grabDownload(t, "Frank Herbert - Dune Saga", "Dune", "Dune Messiah")
	g.deliver(t, duneFile)

	for poll := 1; poll <= 2; poll++ {
		if err := g.manager.Poll(ctx); err != nil {
			t.Fatalf("Poll %d: %v", poll, err)
		}
		td := g.state(t)
		if td.State != download.StateImportPending {
			t.Fatalf("poll %d: state = %s, messages = %v", poll, td.State, td.StatusMessages)
		}
		if len(td.StatusMessages) != 1 || !strings.Contains(td.StatusMessages[0].String(), "still missing: Dune Messiah") {
			t.Fatalf("poll %d: messages = %v", poll, td.StatusMessages)
		}
	}

	g.deliver(t, messiahFile)
	if err := g.manager.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if td := g.state(t); td.State != download.StateImported {
		t.Fatalf("state after delivery = %s, messages = %v", td.State, td.StatusMessages)
	}
}
