package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"shelver/internal/config"
	"shelver/internal/daemon"
	"shelver/internal/downloadclient"
	"shelver/internal/ipc"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/preflight"
	"shelver/internal/workflow"
)

// Run starts the shelver daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg, true)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "shelver.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logPreflight(signalCtx, logger, cfg)

	store, err := library.Open(cfg)
	if err != nil {
		logger.Error("open library store", logging.Error(err))
		return err
	}

	if cfg.Library.SeedFile != "" {
		summary, err := store.LoadSeed(signalCtx, cfg.Library.SeedFile)
		if err != nil {
			logging.WarnWithContext(logger, "catalogue seed failed", "catalogue_seed_failed",
				logging.String("seed_file", cfg.Library.SeedFile),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the seed file syntax"),
				logging.String(logging.FieldImpact, "downloads may not match any catalogue book"),
			)
		} else {
			logger.Info("catalogue seed loaded",
				logging.String(logging.FieldEventType, "catalogue_seed_loaded"),
				logging.Int("authors", summary.Authors),
				logging.Int("books", summary.Books),
				logging.Int("editions", summary.Editions),
			)
		}
	}

	clients, err := downloadclient.FromConfig(cfg, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("configure download clients: %w", err)
	}

	tracker := NewTracker(cfg, store, logger)
	manager := workflow.NewManager(clients, store, tracker, logger,
		workflow.WithPollInterval(cfg.PollInterval()),
		workflow.WithWorkers(cfg.Workflow.Workers),
	)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("shelver daemon shutting down")
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run shelver check for details"),
		)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
