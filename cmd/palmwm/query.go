package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/1broseidon/palmwm/internal/compositor"
	"github.com/1broseidon/palmwm/internal/config"
	"github.com/1broseidon/palmwm/internal/ipc"
	"github.com/1broseidon/palmwm/internal/runtimepath"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// newClient connects to the socket named by the user's config, falling
// back to the runtime default.
func newClient() *ipc.Client {
	override := ""
	if cfg, err := config.Load(""); err == nil {
		override = cfg.IPC.Socket
	}
	path, err := runtimepath.SocketPath(override)
	if err != nil {
		// sendRequest reports the connection error.
		path = ""
	}
	return ipc.NewClient(path)
}

// wantJSON reports whether output should be JSON: when asked, or when
// stdout is not a terminal.
func wantJSON(flagged bool) bool {
	return flagged || !term.IsTerminal(int(os.Stdout.Fd()))
}

func writeJSON(w io.Writer, v interface{}) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

func flagList(pairs ...interface{}) string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if on, _ := pairs[i+1].(bool); on {
			out = append(out, pairs[i].(string))
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func boxString(r compositor.Rect) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

func runStatus(args []string) int {
	var jsonOut bool
	fs := newFlagSet("status", func() {
		fmt.Fprintln(os.Stderr, "Usage: palmwm status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	})
	fs.BoolVar(&jsonOut, "json", false, "Output as JSON")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := newClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(jsonOut) {
		return writeJSON(os.Stdout, status)
	}
	fmt.Printf("daemon_running:   %v\n", status.DaemonRunning)
	fmt.Printf("backend:          %s\n", status.Backend)
	fmt.Printf("views:            %d (%d mapped)\n", status.Views, status.Mapped)
	fmt.Printf("outputs:          %d\n", status.Outputs)
	fmt.Printf("seats:            %d\n", status.Seats)
	fmt.Printf("last_active_seat: %s\n", orDash(status.LastActiveSeat))
	fmt.Printf("auto_maximize:    %v\n", status.AutoMaximize)
	fmt.Printf("uptime_seconds:   %d\n", status.UptimeSeconds)
	return 0
}

func runReload(args []string) int {
	fs := newFlagSet("reload", func() {
		fmt.Fprintln(os.Stderr, "Usage: palmwm reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to re-read its config file.")
	})
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if err := newClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStack(args []string) int {
	var jsonOut bool
	fs := newFlagSet("stack", func() {
		fmt.Fprintln(os.Stderr, "Usage: palmwm stack [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List mapped views, topmost first.")
	})
	fs.BoolVar(&jsonOut, "json", false, "Output as JSON")
	fs.Alias("j", "json")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	views, err := newClient().GetStack()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(jsonOut) {
		return writeJSON(os.Stdout, ipc.StackData{Views: views})
	}
	if len(views) == 0 {
		fmt.Println("No mapped views.")
		return 0
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.ID,
			v.Kind,
			orDash(v.AppID),
			orDash(v.Title),
			boxString(v.Box),
			flagList("visible", v.Visible, "activated", v.Activated, "maximized", v.Maximized, "fullscreen", v.Fullscreen),
			orDash(strings.Join(v.FocusedBy, ",")),
		})
	}
	renderTable(os.Stdout, []string{"ID", "KIND", "APP", "TITLE", "BOX", "STATE", "FOCUS"}, rows)
	return 0
}

func runOutputs(args []string) int {
	var jsonOut bool
	fs := newFlagSet("outputs", func() {
		fmt.Fprintln(os.Stderr, "Usage: palmwm outputs [--json]")
	})
	fs.BoolVar(&jsonOut, "json", false, "Output as JSON")
	fs.Alias("j", "json")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	outputs, err := newClient().GetOutputs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(jsonOut) {
		return writeJSON(os.Stdout, ipc.OutputsData{Outputs: outputs})
	}
	rows := make([][]string, 0, len(outputs))
	for _, o := range outputs {
		rows = append(rows, []string{
			o.Name,
			boxString(o.Box),
			boxString(o.Usable),
			strconv.FormatFloat(o.Scale, 'g', -1, 64),
			flagList("enabled", o.Enabled, "builtin", o.BuiltIn, "shell-reveal", o.ForceShellReveal),
			orDash(o.Fullscreen),
		})
	}
	renderTable(os.Stdout, []string{"NAME", "BOX", "USABLE", "SCALE", "FLAGS", "FULLSCREEN"}, rows)
	return 0
}

func runSeats(args []string) int {
	var jsonOut bool
	fs := newFlagSet("seats", func() {
		fmt.Fprintln(os.Stderr, "Usage: palmwm seats [--json]")
	})
	fs.BoolVar(&jsonOut, "json", false, "Output as JSON")
	fs.Alias("j", "json")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	seats, err := newClient().GetSeats()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(jsonOut) {
		return writeJSON(os.Stdout, ipc.SeatsData{Seats: seats})
	}
	for i, s := range seats {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("Seat: %s (%s)\n", s.Name, s.Capabilities)
		fmt.Printf("  Focus:  %s", orDash(s.Focus))
		if s.FocusedLayer != "" {
			fmt.Printf(" (layer %s)", s.FocusedLayer)
		}
		fmt.Println()
		fmt.Printf("  Cursor: %.1f,%.1f %s %s\n", s.Cursor.X, s.Cursor.Y, s.Cursor.Mode, orDash(s.Cursor.Image))
		fmt.Printf("  MRU:    %s\n", orDash(strings.Join(s.Views, " ")))
		if s.Constraint != "" {
			fmt.Printf("  Pointer constraint: %s\n", s.Constraint)
		}
		if len(s.Devices) == 0 {
			fmt.Println("  Devices: none")
			continue
		}
		rows := make([][]string, 0, len(s.Devices))
		for _, d := range s.Devices {
			rows = append(rows, []string{d.Name, d.Type, orDash(d.Group)})
		}
		renderTable(os.Stdout, []string{"DEVICE", "TYPE", "GROUP"}, rows)
	}
	return 0
}

func runResolve(args []string) int {
	var jsonOut bool
	fs := newFlagSet("resolve", func() {
		fmt.Fprintln(os.Stderr, "Usage: palmwm resolve [--json] X Y")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the surface under a point in layout coordinates.")
	})
	fs.BoolVar(&jsonOut, "json", false, "Output as JSON")
	fs.Alias("j", "json")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	x, errX := strconv.ParseFloat(fs.Arg(0), 64)
	y, errY := strconv.ParseFloat(fs.Arg(1), 64)
	if errX != nil || errY != nil {
		fmt.Fprintln(os.Stderr, "X and Y must be numbers")
		return 2
	}

	res, err := newClient().Resolve(x, y)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(jsonOut) {
		return writeJSON(os.Stdout, res)
	}
	if !res.Found {
		fmt.Printf("%g,%g: nothing\n", x, y)
		return 0
	}
	switch {
	case res.Layer != "":
		fmt.Printf("%g,%g: layer %s surface %d at %g,%g\n", x, y, res.Layer, res.Surface, res.LocalX, res.LocalY)
	case res.Decoration:
		fmt.Printf("%g,%g: view %s decoration at %g,%g\n", x, y, res.View, res.LocalX, res.LocalY)
	default:
		fmt.Printf("%g,%g: view %s surface %d at %g,%g\n", x, y, res.View, res.Surface, res.LocalX, res.LocalY)
	}
	return 0
}

func runFocus(args []string) int {
	var seatName string
	fs := newFlagSet("focus", func() {
		fmt.Fprintln(os.Stderr, "Usage: palmwm focus [-s|--seat NAME] VIEW")
	})
	fs.StringVar(&seatName, "seat", "", "Seat name (default: seat that saw input last)")
	fs.Alias("s", "seat")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	if err := newClient().Focus(seatName, fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runCycle(args []string) int {
	var seatName string
	fs := newFlagSet("cycle", func() {
		fmt.Fprintln(os.Stderr, "Usage: palmwm cycle [-s|--seat NAME]")
	})
	fs.StringVar(&seatName, "seat", "", "Seat name (default: seat that saw input last)")
	fs.Alias("s", "seat")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	focus, err := newClient().CycleFocus(seatName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if focus != "" {
		fmt.Println(focus)
	}
	return 0
}
