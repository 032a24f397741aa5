package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"slices"
	"sync"

	"shelver/internal/daemon"
	"shelver/internal/download"
	"shelver/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(serviceName, &service{daemon: d, logger: logger, ctx: ctx}); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve accepts RPC connections until Close is called.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Go(func() {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "CLI status and retry commands may fail"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon"))
				continue
			}
			s.wg.Go(func() {
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
			})
		}
	})
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale socket file left behind"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = os.Getpid()
	resp.LastError = status.Workflow.LastError
	resp.LastPoll = status.Workflow.LastPoll
	resp.Polls = status.Workflow.Polls
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.ByState = make(map[string]int, len(status.Workflow.ByState))
	for state, count := range status.Workflow.ByState {
		resp.ByState[string(state)] = count
	}
	return nil
}

func (s *service) Downloads(req DownloadsRequest, resp *DownloadsResponse) error {
	states := make([]download.State, 0, len(req.States))
	for _, raw := range req.States {
		state, ok := download.ParseState(raw)
		if !ok {
			return fmt.Errorf("unknown state %q", raw)
		}
		states = append(states, state)
	}

	resp.Downloads = make([]Download, 0)
	for _, td := range s.daemon.Status().Workflow.Downloads {
		if len(states) > 0 && !slices.Contains(states, td.State) {
			continue
		}
		resp.Downloads = append(resp.Downloads, FromTracked(td))
	}
	return nil
}

func (s *service) Retry(req RetryRequest, resp *RetryResponse) error {
	s.logger.Info("retry requested", logging.String(logging.FieldDownloadID, req.DownloadID))
	td, err := s.daemon.Retry(s.ctx, req.DownloadID)
	if err != nil {
		return err
	}
	resp.Download = FromTracked(td)
	return nil
}
