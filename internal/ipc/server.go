package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/palmwm/internal/compositor"
)

// requestTimeout bounds how long one command may wait on the dispatch loop.
const requestTimeout = 5 * time.Second

// Controller is the compositor surface the server exposes.
type Controller interface {
	Status(ctx context.Context) (compositor.Status, error)
	OutputSnapshot(ctx context.Context) ([]compositor.OutputInfo, error)
	StackSnapshot(ctx context.Context) ([]compositor.ViewInfo, error)
	SeatSnapshot(ctx context.Context) ([]compositor.SeatInfo, error)
	Resolve(ctx context.Context, x, y float64) (compositor.Resolution, error)
	Focus(ctx context.Context, seat, view string) error
	CycleFocus(ctx context.Context, seat string) (string, error)
}

// ReloadFunc re-reads configuration and applies it.
type ReloadFunc func(ctx context.Context) error

// Options configures a Server.
type Options struct {
	SocketPath string
	Backend    string
	Reload     ReloadFunc
	Logger     *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	backend      string
	listener     net.Listener
	ctl          Controller
	reload       ReloadFunc
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
	acceptDone   chan struct{}
}

// NewServer creates a new IPC server
func NewServer(ctl Controller, opts Options) (*Server, error) {
	if opts.SocketPath == "" {
		return nil, fmt.Errorf("ipc: empty socket path")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Server{
		socketPath: opts.SocketPath,
		backend:    opts.Backend,
		ctl:        ctl,
		reload:     opts.Reload,
		logger:     logger.With("component", "ipc"),
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a crashed daemon.
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale IPC socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.shutdownMu.Lock()
	s.shuttingDown = false
	s.shutdownMu.Unlock()

	s.logger.Info("IPC server listening", "socket", s.socketPath)
	s.acceptDone = make(chan struct{})
	go s.acceptLoop()
	return nil
}

// Serve runs the server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer close(s.acceptDone)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		s.conns.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer s.conns.Done()
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(2 * requestTimeout))
	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	resp := s.handleCommand(ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "command", req.Command, "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Debug("failed to send response", "command", req.Command, "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)
	switch req.Command {
	case CommandReload:
		return s.handleReload(ctx)
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandGetOutputs:
		return s.handleGetOutputs(ctx)
	case CommandGetStack:
		return s.handleGetStack(ctx)
	case CommandGetSeats:
		return s.handleGetSeats(ctx)
	case CommandResolve:
		return s.handleResolve(ctx, req.Payload)
	case CommandFocus:
		return s.handleFocus(ctx, req.Payload)
	case CommandCycleFocus:
		return s.handleCycleFocus(ctx, req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload(ctx context.Context) *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.reload(ctx); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.logger.Info("config reloaded over IPC")
	return okResponse(nil)
}

func (s *Server) handleGetStatus(ctx context.Context) *Response {
	st, err := s.ctl.Status(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get status: %v", err))
	}
	return okResponse(StatusData{
		Status:        st,
		Backend:       s.backend,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	})
}

func (s *Server) handleGetOutputs(ctx context.Context) *Response {
	outputs, err := s.ctl.OutputSnapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get outputs: %v", err))
	}
	return okResponse(OutputsData{Outputs: outputs})
}

func (s *Server) handleGetStack(ctx context.Context) *Response {
	views, err := s.ctl.StackSnapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get stack: %v", err))
	}
	return okResponse(StackData{Views: views})
}

func (s *Server) handleGetSeats(ctx context.Context) *Response {
	seats, err := s.ctl.SeatSnapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get seats: %v", err))
	}
	return okResponse(SeatsData{Seats: seats})
}

func (s *Server) handleResolve(ctx context.Context, payload json.RawMessage) *Response {
	var req ResolvePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resolve payload: %v", err))
	}
	res, err := s.ctl.Resolve(ctx, req.X, req.Y)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to resolve point: %v", err))
	}
	return okResponse(res)
}

func (s *Server) handleFocus(ctx context.Context, payload json.RawMessage) *Response {
	var req FocusPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid focus payload: %v", err))
	}
	if req.View == "" {
		return NewErrorResponse("view is required")
	}
	if err := s.ctl.Focus(ctx, req.Seat, req.View); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to focus view: %v", err))
	}
	return okResponse(nil)
}

func (s *Server) handleCycleFocus(ctx context.Context, payload json.RawMessage) *Response {
	var req CycleFocusPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid cycle payload: %v", err))
		}
	}
	focus, err := s.ctl.CycleFocus(ctx, req.Seat)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to cycle focus: %v", err))
	}
	return okResponse(CycleFocusData{Focus: focus})
}

func okResponse(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		<-s.acceptDone
		s.listener = nil
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
	s.logger.Info("IPC server stopped")
}
