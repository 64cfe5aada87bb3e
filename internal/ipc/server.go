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
	"strings"
	"sync"

	"autosort/internal/daemon"
	"autosort/internal/logging"
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
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
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
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
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

// Close stops the server and removes the socket file. Connected clients are
// served until they hang up.
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
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

const serviceName = "Autosort"

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) fail(op string, err error) error {
	s.logger.Debug("ipc call failed",
		logging.String("operation", op),
		logging.Error(err))
	return encodeError(err)
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "watching " + s.daemon.Config().Paths.WatchDir
	s.logger.Info("watching started via IPC",
		logging.String(logging.FieldEventType, "ipc_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("watching stopped via IPC",
		logging.String(logging.FieldEventType, "ipc_stop"))
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.logger.Info("shutdown requested via IPC",
		logging.String(logging.FieldEventType, "ipc_shutdown"))
	resp.PID = os.Getpid()
	resp.Acknowledged = true
	s.daemon.RequestShutdown()
	return nil
}

func (s *service) Pause(_ PauseRequest, resp *PauseResponse) error {
	s.daemon.Pause()
	resp.Paused = s.daemon.Status().Workflow.Paused
	return nil
}

func (s *service) Resume(_ PauseRequest, resp *PauseResponse) error {
	s.daemon.Resume(s.ctx)
	resp.Paused = s.daemon.Status().Workflow.Paused
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.daemon.Status()
	return nil
}

func (s *service) PendingList(_ PendingListRequest, resp *PendingListResponse) error {
	resp.Files = s.daemon.Pending()
	return nil
}

func (s *service) PendingCancel(req PendingRequest, resp *PendingCancelResponse) error {
	pf, err := s.daemon.CancelPending(strings.TrimSpace(req.ID))
	if err != nil {
		return s.fail("pending cancel", err)
	}
	resp.File = pf
	return nil
}

func (s *service) PendingMove(req PendingRequest, resp *PendingMoveResponse) error {
	outcome, err := s.daemon.MoveNow(s.ctx, strings.TrimSpace(req.ID))
	if err != nil {
		return s.fail("pending move", err)
	}
	resp.Status = string(outcome.Status)
	resp.Source = outcome.Source
	resp.FinalPath = outcome.FinalPath
	resp.SourceLeftover = outcome.SourceLeftover
	if outcome.Err != nil {
		resp.Reason = outcome.Err.Error()
	}
	return nil
}

func (s *service) Rescan(_ RescanRequest, resp *RescanResponse) error {
	staged, err := s.daemon.Rescan(s.ctx)
	if err != nil {
		return s.fail("rescan", err)
	}
	resp.Staged = staged
	return nil
}

func (s *service) HistoryList(req HistoryListRequest, resp *HistoryListResponse) error {
	if req.Limit > 0 {
		resp.Records = s.daemon.RecentHistory(req.Limit)
	} else {
		resp.Records = s.daemon.History()
	}
	return nil
}

func (s *service) HistoryStats(_ HistoryStatsRequest, resp *HistoryStatsResponse) error {
	stats, err := s.daemon.HistoryStats(s.ctx)
	if err != nil {
		return s.fail("history stats", err)
	}
	resp.HistoryStats = stats
	return nil
}

func (s *service) HistoryUndo(req UndoRequest, resp *UndoResponse) error {
	rec, err := s.daemon.Undo(s.ctx, strings.TrimSpace(req.ID))
	if err != nil {
		return s.fail("history undo", err)
	}
	resp.Record = rec
	return nil
}

func (s *service) HistoryClear(_ HistoryClearRequest, resp *HistoryClearResponse) error {
	removed, err := s.daemon.ClearHistory(s.ctx)
	if err != nil {
		return s.fail("history clear", err)
	}
	resp.Removed = removed
	return nil
}

func (s *service) RulesList(_ RulesListRequest, resp *RulesListResponse) error {
	resp.Rules = s.daemon.Rules()
	return nil
}

func (s *service) RuleAdd(req RuleRequest, resp *RuleResponse) error {
	r, err := s.daemon.AddRule(s.ctx, req.Rule)
	if err != nil {
		return s.fail("rule add", err)
	}
	resp.Rule = r
	return nil
}

func (s *service) RuleUpdate(req RuleRequest, resp *RuleResponse) error {
	r, err := s.daemon.UpdateRule(s.ctx, req.Rule)
	if err != nil {
		return s.fail("rule update", err)
	}
	resp.Rule = r
	return nil
}

func (s *service) RuleDelete(req RuleDeleteRequest, resp *RuleDeleteResponse) error {
	if err := s.daemon.DeleteRule(s.ctx, strings.TrimSpace(req.ID)); err != nil {
		return s.fail("rule delete", err)
	}
	resp.Deleted = true
	return nil
}

func (s *service) RulesReorder(req RulesReorderRequest, resp *RulesListResponse) error {
	list, err := s.daemon.ReorderRules(s.ctx, req.IDs)
	if err != nil {
		return s.fail("rules reorder", err)
	}
	resp.Rules = list
	return nil
}

func (s *service) RulesTest(req RulesTestRequest, resp *RulesTestResponse) error {
	resp.DestinationFolder, resp.Matched = s.daemon.TestRule(req.FileName, req.Rules)
	return nil
}

func (s *service) ConfigGet(_ ConfigGetRequest, resp *ConfigResponse) error {
	resp.Config = s.daemon.Config()
	resp.Path = s.daemon.ConfigPath()
	return nil
}

func (s *service) ConfigSave(req ConfigSaveRequest, resp *ConfigResponse) error {
	cfg, err := s.daemon.SaveConfig(s.ctx, req.Config)
	if err != nil {
		return s.fail("config save", err)
	}
	resp.Config = cfg
	resp.Path = s.daemon.ConfigPath()
	return nil
}
