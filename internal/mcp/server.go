package mcp

import (
	"context"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/palmwm/internal/compositor"
	"github.com/1broseidon/palmwm/internal/ipc"
)

const (
	ServerName    = "palmwm"
	ServerVersion = "0.1.0"
)

// Daemon is the part of the IPC client the tools use.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetStack() ([]compositor.ViewInfo, error)
	GetOutputs() ([]compositor.OutputInfo, error)
	GetSeats() ([]compositor.SeatInfo, error)
	Resolve(x, y float64) (*compositor.Resolution, error)
	Focus(seat, view string) error
	CycleFocus(seat string) (string, error)
}

// Server is the MCP server exposing compositor introspection and focus
// control to agents.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates a new MCP server talking to the daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		daemon: daemon,
		logger: logger.With("component", "mcp"),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server running on stdio")
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Summarise the running compositor: backend, view, output and seat counts, and which seat saw input last.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_views",
		Description: "List mapped views in stacking order, topmost first, with geometry, state flags and the seats focusing each one. Optionally filter by app_id or visibility.",
	}, s.handleListViews)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List outputs in layout order with their logical box, usable area after layer-shell exclusive zones, scale and flags.",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_seats",
		Description: "List seats with capabilities, keyboard focus, MRU view order, cursor state and attached devices.",
	}, s.handleListSeats)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resolve_point",
		Description: "Find the surface under a layout point. Returns the view or layer surface hit and the surface-local coordinates.",
	}, s.handleResolvePoint)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_view",
		Description: "Give keyboard focus to a view on a seat. The view is raised; the request fails if the seat is restricted to another client.",
	}, s.handleFocusView)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cycle_focus",
		Description: "Move a seat's focus to the next view in its most-recently-used order, like Alt-Tab. Returns the newly focused view.",
	}, s.handleCycleFocus)
}
