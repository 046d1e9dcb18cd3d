package main

import (
	"fmt"
	"os"

	"github.com/1broseidon/palmwm/internal/tui"
)

func runTop(args []string) int {
	interval := tui.DefaultInterval
	fs := newFlagSet("top", func() {
		fmt.Fprintln(os.Stderr, "Usage: palmwm top [-i|--interval DURATION]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Live view of the stack, outputs and seats of the running daemon.")
	})
	fs.DurationVar(&interval, "interval", interval, "Refresh interval")
	fs.Alias("i", "interval")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	if err := tui.Run(newClient(), interval); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
