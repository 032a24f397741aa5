package ipc_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"shelver/internal/daemon"
	"shelver/internal/download"
	"shelver/internal/ipc"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/testsupport"
	"shelver/internal/tracking"
	"shelver/internal/workflow"
)

type rejectingImporter struct{}

func (rejectingImporter) ProcessPath(_ context.Context, path, _ string, _ *download.Author, _ download.Item) ([]download.ImportResult, error) {
	return []download.ImportResult{{
		Kind:   download.ImportRejected,
		Path:   path + "/Dune.epub",
		Errors: []string{"Unable to match to a book"},
	}}, nil
}

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	tracker := tracking.New(store, rejectingImporter{}, notifications.Noop(), logger)
	td := tracker.Track(download.Item{
		DownloadID: "dl-1",
		Client:     "watch",
		Title:      "Frank Herbert - Dune",
		Category:   "books",
		Status:     download.ItemCompleted,
		OutputPath: "/downloads/Dune",
	}, nil)
	tracker.Process(context.Background(), td)

	mgr := workflow.NewManager(nil, store, tracker, logger, workflow.WithPollInterval(time.Hour))
	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Fatal("daemon was never started")
	}
	if status.ByState[string(download.StateImportFailed)] != 1 {
		t.Fatalf("by state = %v", status.ByState)
	}

	downloads, err := client.Downloads("import_failed")
	if err != nil {
		t.Fatalf("Downloads: %v", err)
	}
	if len(downloads) != 1 || downloads[0].DownloadID != "dl-1" || len(downloads[0].StatusMessages) != 1 {
		t.Fatalf("downloads = %+v", downloads)
	}
	if downloads, err := client.Downloads("imported"); err != nil || len(downloads) != 0 {
		t.Fatalf("imported downloads = %+v, %v", downloads, err)
	}
	if _, err := client.Downloads("bogus"); err == nil {
		t.Fatal("expected error for unknown state")
	}

	retried, err := client.Retry("dl-1")
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if retried.State != string(download.StateImportFailed) {
		t.Fatalf("retried state = %s", retried.State)
	}
	if _, err := client.Retry("missing"); err == nil {
		t.Fatal("expected error for unknown download")
	}
}
