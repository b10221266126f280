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
	"sync"

	"github.com/google/uuid"

	"doroending/internal/catalog"
	"doroending/internal/daemon"
	"doroending/internal/logging"
)

// ServiceName is the RPC receiver name clients call methods on.
const ServiceName = "Doro"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. onStop is
// invoked after a Stop call has been answered.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, onStop func(), logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, onStop: onStop, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"))
	}
}

type service struct {
	daemon *daemon.Daemon
	onStop func()
	logger *slog.Logger
	ctx    context.Context
}

// log returns a call-scoped logger carrying the correlation id.
func (s *service) log(req request) *slog.Logger {
	logger := s.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	id := req.CorrelationID
	if id == "" {
		id = uuid.NewString()
	}
	return logger.With(
		logging.String(logging.FieldComponent, "ipc"),
		logging.String(logging.FieldCorrelationID, id))
}

func (s *service) DailyPick(req DailyPickRequest, resp *DailyPickResponse) error {
	if req.UserID == "" {
		return errors.New("daily pick requires a user id")
	}
	result, err := s.daemon.Service().DailyPick(s.ctx, req.UserID)
	if err != nil {
		return err
	}
	resp.Result = result
	if result.Fresh {
		s.log(req.request).Info("daily pick assigned",
			logging.String(logging.FieldEventType, "daily_pick"),
			logging.String(logging.FieldUserID, req.UserID),
			logging.Int64(logging.FieldEntryID, result.Ending.ID))
	}
	return nil
}

func (s *service) Add(req AddRequest, resp *AddResponse) error {
	var image *catalog.ImageSource
	if req.ImageURL != "" || len(req.ImageBytes) > 0 {
		image = &catalog.ImageSource{URL: req.ImageURL, Bytes: req.ImageBytes}
	}
	ending, err := s.daemon.Service().AddEntry(s.ctx, req.Name, req.EnglishName, image)
	if err != nil {
		return err
	}
	resp.Ending = ending
	s.log(req.request).Info("ending added via IPC",
		logging.String(logging.FieldEventType, "entry_add"),
		logging.Int64(logging.FieldEntryID, ending.ID))
	return nil
}

func (s *service) Remove(req RemoveRequest, resp *RemoveResponse) error {
	ending, err := s.daemon.Service().RemoveEntry(s.ctx, req.Target)
	if err != nil {
		return err
	}
	resp.Ending = ending
	s.log(req.request).Info("ending removed via IPC",
		logging.String(logging.FieldEventType, "entry_remove"),
		logging.Int64(logging.FieldEntryID, ending.ID))
	return nil
}

func (s *service) Update(req UpdateRequest, resp *UpdateResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid entry id %d", req.ID)
	}
	ending, err := s.daemon.Service().UpdateEntry(s.ctx, req.ID, req.Fields)
	if err != nil {
		return err
	}
	resp.Ending = ending
	s.log(req.request).Info("ending updated via IPC",
		logging.String(logging.FieldEventType, "entry_update"),
		logging.Int64(logging.FieldEntryID, ending.ID))
	return nil
}

func (s *service) List(req ListRequest, resp *ListResponse) error {
	resp.Endings = s.daemon.Service().ListEntries(s.ctx)
	return nil
}

func (s *service) Search(req SearchRequest, resp *SearchResponse) error {
	resp.Endings = s.daemon.Service().SearchEntries(s.ctx, req.Keyword)
	return nil
}

func (s *service) Show(req ShowRequest, resp *ShowResponse) error {
	ending, err := s.daemon.Service().ShowEntry(s.ctx, req.Target)
	if err != nil {
		return err
	}
	resp.Ending = ending
	return nil
}

func (s *service) Stats(req StatsRequest, resp *StatsResponse) error {
	stats, err := s.daemon.Service().Stats(s.ctx)
	if err != nil {
		return err
	}
	resp.Stats = stats
	return nil
}

func (s *service) Cleanup(req CleanupRequest, resp *CleanupResponse) error {
	removed, err := s.daemon.Service().Cleanup(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log(req.request).Info("image cleanup via IPC",
		logging.String(logging.FieldEventType, "image_cleanup"),
		logging.Int("removed_count", len(removed)))
	return nil
}

func (s *service) Validate(req ValidateRequest, resp *ValidateResponse) error {
	check, err := s.daemon.Service().ValidateImage(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Check = check
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	entries, err := s.daemon.Service().History(s.ctx, req.UserID, req.Day, req.Limit)
	if err != nil {
		return err
	}
	resp.Entries = entries
	return nil
}

func (s *service) Frequency(req FrequencyRequest, resp *FrequencyResponse) error {
	rows, err := s.daemon.Service().EntryFrequency(s.ctx)
	if err != nil {
		return err
	}
	resp.Rows = rows
	return nil
}

func (s *service) Status(req StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.SessionID = status.SessionID
	if !status.StartedAt.IsZero() {
		resp.StartedAt = status.StartedAt.Format("2006-01-02 15:04:05")
	}
	resp.CatalogPath = status.CatalogPath
	resp.LockPath = status.LockFilePath
	resp.SocketPath = status.SocketPath
	resp.EntryCount = status.EntryCount
	resp.AssignedToday = status.AssignedToday
	return nil
}

func (s *service) Stop(req StopRequest, resp *StopResponse) error {
	s.log(req.request).Info("daemon stop requested",
		logging.String(logging.FieldEventType, "daemon_stop"))
	resp.Stopped = true
	if s.onStop != nil {
		go s.onStop()
	}
	return nil
}
