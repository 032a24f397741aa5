package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"shelver/internal/download"
	"shelver/internal/downloadclient"
	"shelver/internal/logging"
	"shelver/internal/services"
	"shelver/internal/tracking"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultWorkers      = 4
)

// RemoteResolver resolves the books a download was grabbed for.
type RemoteResolver interface {
	GrabbedBooks(ctx context.Context, downloadID string) (*download.RemoteBook, error)
}

// Manager polls download clients and advances tracked downloads.
type Manager struct {
	clients      []downloadclient.Client
	resolver     RemoteResolver
	tracker      *tracking.Tracker
	logger       *slog.Logger
	pollInterval time.Duration
	workers      int

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastPoll time.Time
	polls    int
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithPollInterval sets the delay between polls.
func WithPollInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithWorkers bounds how many downloads are processed concurrently.
func WithWorkers(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(clients []downloadclient.Client, resolver RemoteResolver, tracker *tracking.Tracker, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		clients:      clients,
		resolver:     resolver,
		tracker:      tracker,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: defaultPollInterval,
		workers:      defaultWorkers,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Poll runs one observation pass over every client. Client failures are
// logged and returned joined; the other clients are still processed.
func (m *Manager) Poll(ctx context.Context) error {
	var (
		errs   []error
		active []*download.TrackedDownload
	)
	for _, client := range m.clients {
		clientCtx := services.WithClient(ctx, client.Name())
		logger := logging.WithContext(clientCtx, m.logger)

		items, err := client.Items(clientCtx)
		if err != nil {
			errs = append(errs, err)
			logging.WarnWithContext(logger, "download client poll failed", "client_poll_failed",
				append(logging.ErrorAttrs(err),
					logging.String(logging.FieldErrorHint, "check the download client configuration"),
					logging.String(logging.FieldImpact, "downloads from this client are not advanced this poll"))...)
			continue
		}
		for _, item := range items {
			td := m.track(clientCtx, logger, item)
			if td == nil {
				continue
			}
			if current, ok := m.tracker.Get(td.DownloadID); !ok || current.State.IsTerminal() {
				continue
			}
			active = append(active, td)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for _, td := range active {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m.tracker.Process(gctx, td)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	m.mu.Lock()
	m.lastPoll = time.Now().UTC()
	m.polls++
	m.lastErr = err
	m.mu.Unlock()
	return err
}

func (m *Manager) track(ctx context.Context, logger *slog.Logger, item download.Item) *download.TrackedDownload {
	if item.DownloadID == "" {
		return nil
	}
	var remote *download.RemoteBook
	if existing, ok := m.tracker.Get(item.DownloadID); !ok || existing.RemoteBook == nil {
		if m.resolver != nil {
			resolved, err := m.resolver.GrabbedBooks(ctx, item.DownloadID)
			if err != nil {
				logging.WarnWithContext(logger, "grab history lookup failed", "grab_lookup_failed",
					append(logging.ErrorAttrs(err),
						logging.String(logging.FieldDownloadID, item.DownloadID),
						logging.String(logging.FieldErrorHint, "check the history database"),
						logging.String(logging.FieldImpact, "expected books unknown until the next poll"))...)
			}
			remote = resolved
		}
	}
	return m.tracker.Track(item, remote)
}

// Start begins polling in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background polling and waits for the current poll.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	m.logger.Info("workflow started",
		logging.Int("clients", len(m.clients)),
		logging.Duration("poll_interval", m.pollInterval),
		logging.Int("workers", m.workers))

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		if err := m.Poll(ctx); err != nil && errors.Is(err, context.Canceled) {
			return
		}
		select {
		case <-ctx.Done():
			m.logger.Info("workflow stopped")
			return
		case <-ticker.C:
		}
	}
}

// Retry runs another import attempt for a tracked download, typically one
// left in import_failed.
func (m *Manager) Retry(ctx context.Context, downloadID string) (download.TrackedDownload, bool) {
	return m.tracker.Retry(ctx, downloadID)
}
