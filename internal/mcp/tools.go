package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/palmwm/internal/compositor"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, fmt.Errorf("get_status: %w", err)
	}
	return nil, GetStatusOutput{
		Backend:        st.Backend,
		Views:          st.Views,
		Mapped:         st.Mapped,
		Outputs:        st.Outputs,
		Seats:          st.Seats,
		AutoMaximize:   st.AutoMaximize,
		LastActiveSeat: st.LastActiveSeat,
		UptimeSeconds:  st.UptimeSeconds,
	}, nil
}

func (s *Server) handleListViews(_ context.Context, _ *mcpsdk.CallToolRequest, args ListViewsInput) (*mcpsdk.CallToolResult, ListViewsOutput, error) {
	views, err := s.daemon.GetStack()
	if err != nil {
		return nil, ListViewsOutput{}, fmt.Errorf("list_views: %w", err)
	}
	out := filterViews(views, args)
	s.logger.Debug("list_views", "total", len(views), "returned", len(out))
	return nil, ListViewsOutput{Views: out}, nil
}

// filterViews keeps stacking order.
func filterViews(views []compositor.ViewInfo, args ListViewsInput) []compositor.ViewInfo {
	out := make([]compositor.ViewInfo, 0, len(views))
	for _, v := range views {
		if args.AppID != "" && v.AppID != args.AppID {
			continue
		}
		if args.VisibleOnly && !v.Visible {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	outputs, err := s.daemon.GetOutputs()
	if err != nil {
		return nil, ListOutputsOutput{}, fmt.Errorf("list_outputs: %w", err)
	}
	if outputs == nil {
		outputs = []compositor.OutputInfo{}
	}
	return nil, ListOutputsOutput{Outputs: outputs}, nil
}

func (s *Server) handleListSeats(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListSeatsInput) (*mcpsdk.CallToolResult, ListSeatsOutput, error) {
	seats, err := s.daemon.GetSeats()
	if err != nil {
		return nil, ListSeatsOutput{}, fmt.Errorf("list_seats: %w", err)
	}
	if seats == nil {
		seats = []compositor.SeatInfo{}
	}
	return nil, ListSeatsOutput{Seats: seats}, nil
}

func (s *Server) handleResolvePoint(_ context.Context, _ *mcpsdk.CallToolRequest, args ResolvePointInput) (*mcpsdk.CallToolResult, ResolvePointOutput, error) {
	res, err := s.daemon.Resolve(args.X, args.Y)
	if err != nil {
		return nil, ResolvePointOutput{}, fmt.Errorf("resolve_point: %w", err)
	}
	return nil, ResolvePointOutput{
		Found:      res.Found,
		View:       res.View,
		Layer:      res.Layer,
		Surface:    res.Surface,
		LocalX:     res.LocalX,
		LocalY:     res.LocalY,
		Decoration: res.Decoration,
	}, nil
}

func (s *Server) handleFocusView(_ context.Context, _ *mcpsdk.CallToolRequest, args FocusViewInput) (*mcpsdk.CallToolResult, FocusViewOutput, error) {
	if args.View == "" {
		return nil, FocusViewOutput{}, fmt.Errorf("focus_view: view is required")
	}
	if err := s.daemon.Focus(args.Seat, args.View); err != nil {
		return nil, FocusViewOutput{}, fmt.Errorf("focus_view: %w", err)
	}
	s.logger.Info("view focused", "view", args.View, "seat", args.Seat)
	return nil, FocusViewOutput{Seat: args.Seat, View: args.View, Focused: true}, nil
}

func (s *Server) handleCycleFocus(_ context.Context, _ *mcpsdk.CallToolRequest, args CycleFocusInput) (*mcpsdk.CallToolResult, CycleFocusOutput, error) {
	focus, err := s.daemon.CycleFocus(args.Seat)
	if err != nil {
		return nil, CycleFocusOutput{}, fmt.Errorf("cycle_focus: %w", err)
	}
	s.logger.Info("focus cycled", "seat", args.Seat, "focus", focus)
	return nil, CycleFocusOutput{Seat: args.Seat, Focus: focus}, nil
}
