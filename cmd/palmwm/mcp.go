package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/palmwm/internal/config"
	"github.com/1broseidon/palmwm/internal/mcp"
)

func runMCP(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printMCPUsage()
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp subcommand: %s\n\n", args[0])
		printMCPUsage()
		return 2
	}
}

func printMCPUsage() {
	fmt.Fprintln(os.Stderr, "Usage: palmwm mcp serve")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Serve compositor tools over MCP on stdio. The daemon must be running.")
}

func runMCPServe(args []string) int {
	fs := newFlagSet("mcp serve", printMCPUsage)
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	level := slog.LevelInfo
	if cfg, err := config.Load(""); err == nil {
		level = cfg.SlogLevel()
	}
	// stdout carries the protocol.
	logger := newLogger(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := mcp.NewServer(newClient(), logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "mcp server: %v\n", err)
		return 1
	}
	return 0
}
