package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"
	"rsc.io/getopt"

	"github.com/1broseidon/palmwm/internal/config"
	"github.com/1broseidon/palmwm/internal/daemon"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "stack":
		os.Exit(runStack(os.Args[2:]))
	case "outputs":
		os.Exit(runOutputs(os.Args[2:]))
	case "seats":
		os.Exit(runSeats(os.Args[2:]))
	case "resolve":
		os.Exit(runResolve(os.Args[2:]))
	case "focus":
		os.Exit(runFocus(os.Args[2:]))
	case "cycle":
		os.Exit(runCycle(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "top":
		os.Exit(runTop(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: palmwm <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the compositor (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  stack               List mapped views, topmost first")
	fmt.Fprintln(w, "  outputs             List outputs")
	fmt.Fprintln(w, "  seats               List seats and their devices")
	fmt.Fprintln(w, "  resolve X Y         Show what is under a layout point")
	fmt.Fprintln(w, "  focus VIEW          Focus a view")
	fmt.Fprintln(w, "  cycle               Focus the next view in MRU order")
	fmt.Fprintln(w, "  top                 Live monitor of the running daemon")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'palmwm <command> --help' for command-specific options.")
}

// newFlagSet returns a flag set accepting GNU-style long options.
func newFlagSet(name string, usage func()) *getopt.FlagSet {
	fs := getopt.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = usage
	return fs
}

// parseArgs parses args and reports the exit code to use when parsing
// should stop the command.
func parseArgs(fs *getopt.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runDaemon(args []string) int {
	var configPath, backendKind string
	fs := newFlagSet("daemon", func() {
		fmt.Fprintln(os.Stderr, "Usage: palmwm daemon [-c|--config FILE] [-b|--backend headless|x11|evdev]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the compositor in the foreground. SIGHUP reloads the config.")
	})
	fs.StringVar(&configPath, "config", "", "Config file path (default: ~/.config/palmwm/config.yaml)")
	fs.StringVar(&backendKind, "backend", "", "Input source: headless, x11 or evdev (default: backend.kind)")
	fs.Alias("c", "config")
	fs.Alias("b", "backend")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	logger := newLogger(cfg.SlogLevel())

	d, err := daemon.NewWithConfig(cfg, daemon.Options{
		ConfigPath: configPath,
		Backend:    backendKind,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to start daemon", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon exited", "error", err)
		return 1
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  palmwm config validate [-c|--config FILE]")
		fmt.Fprintln(os.Stderr, "  palmwm config print [-c|--config FILE] [--defaults]")
		fmt.Fprintln(os.Stderr, "  palmwm config explain [-c|--config FILE] <yaml.path>")
		return 2
	}

	var path string
	var printDefaults bool
	fs := newFlagSet(args[0], func() {
		fmt.Fprintf(os.Stderr, "Usage: palmwm config %s [-c|--config FILE]\n", args[0])
	})
	fs.StringVar(&path, "config", "", "Config file path (default: ~/.config/palmwm/config.yaml)")
	fs.Alias("c", "config")
	if args[0] == "print" {
		fs.BoolVar(&printDefaults, "defaults", false, "Print built-in defaults (no files)")
	}
	if code, ok := parseArgs(fs, args[1:]); !ok {
		return code
	}

	switch args[0] {
	case "validate":
		res, err := config.LoadWithSources(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, f := range res.Files {
			fmt.Printf("loaded: %s\n", f)
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		cfg := config.DefaultConfig()
		if !printDefaults {
			var err error
			cfg, err = config.Load(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := config.LoadWithSources(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}
