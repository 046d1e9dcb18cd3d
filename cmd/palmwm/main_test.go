package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/1broseidon/palmwm/internal/compositor"
	"github.com/1broseidon/palmwm/internal/config"
)

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault}, "default"},
		{config.Source{Kind: config.SourceDefault, Name: "builtin"}, "default:builtin"},
		{config.Source{Kind: config.SourceFile}, "file"},
		{config.Source{Kind: config.SourceFile, File: "/etc/palmwm.yaml"}, "file:/etc/palmwm.yaml"},
		{config.Source{Kind: config.SourceFile, File: "a.yaml", Line: 3, Column: 5}, "file:a.yaml:3:5"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Fatalf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestFlagList(t *testing.T) {
	if got := flagList("visible", false, "activated", false); got != "-" {
		t.Fatalf("expected dash for no flags, got %q", got)
	}
	if got := flagList("visible", true, "activated", false, "maximized", true); got != "visible,maximized" {
		t.Fatalf("unexpected flag list %q", got)
	}
}

func TestBoxString(t *testing.T) {
	got := boxString(compositor.Rect{X: 10, Y: -4, Width: 360, Height: 720})
	if got != "360x720+10+-4" {
		t.Fatalf("unexpected box string %q", got)
	}
}

func TestWantJSON(t *testing.T) {
	if !wantJSON(true) {
		t.Fatalf("explicit --json must select JSON")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if code := writeJSON(&buf, map[string]int{"views": 2}); code != 0 {
		t.Fatalf("writeJSON exit code = %d", code)
	}
	var got map[string]int
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["views"] != 2 {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []string{"NAME", "TYPE"}, [][]string{{"headless-keyboard", "keyboard"}})
	out := buf.String()
	for _, want := range []string{"NAME", "TYPE", "headless-keyboard", "keyboard"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}
