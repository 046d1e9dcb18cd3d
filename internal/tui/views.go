package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/1broseidon/palmwm/internal/compositor"
)

var (
	headerCellStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	cellStyle         = lipgloss.NewStyle().Padding(0, 1)
	selectedCellStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	emptyStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
)

func renderRows(headers []string, rows [][]string, selected int) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCellStyle
			case row == selected:
				return selectedCellStyle
			}
			return cellStyle
		})
	return t.Render()
}

func box(r compositor.Rect) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func viewState(v compositor.ViewInfo) string {
	var s []string
	if !v.Visible {
		s = append(s, "hidden")
	}
	if v.Activated {
		s = append(s, "active")
	}
	if v.Maximized {
		s = append(s, "max")
	}
	if v.Fullscreen {
		s = append(s, "full")
	}
	return dash(strings.Join(s, ","))
}

func renderStack(views []compositor.ViewInfo, selected int) string {
	if len(views) == 0 {
		return emptyStyle.Render("No mapped views.")
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.ID,
			v.Kind,
			dash(v.AppID),
			dash(v.Title),
			box(v.Box),
			viewState(v),
			dash(strings.Join(v.FocusedBy, ",")),
		})
	}
	return renderRows([]string{"ID", "KIND", "APP", "TITLE", "BOX", "STATE", "FOCUS"}, rows, selected)
}

func renderOutputs(outputs []compositor.OutputInfo, selected int) string {
	if len(outputs) == 0 {
		return emptyStyle.Render("No outputs.")
	}
	rows := make([][]string, 0, len(outputs))
	for _, o := range outputs {
		layers := 0
		for _, n := range o.Layers {
			layers += n
		}
		rows = append(rows, []string{
			o.Name,
			box(o.Box),
			box(o.Usable),
			strconv.FormatFloat(o.Scale, 'g', -1, 64),
			strconv.Itoa(layers),
			dash(o.Fullscreen),
		})
	}
	return renderRows([]string{"NAME", "BOX", "USABLE", "SCALE", "LAYERS", "FULLSCREEN"}, rows, selected)
}

func renderSeats(seats []compositor.SeatInfo, selected int) string {
	if len(seats) == 0 {
		return emptyStyle.Render("No seats.")
	}
	rows := make([][]string, 0, len(seats))
	for _, s := range seats {
		rows = append(rows, []string{
			s.Name,
			s.Capabilities,
			dash(s.Focus),
			fmt.Sprintf("%.0f,%.0f", s.Cursor.X, s.Cursor.Y),
			s.Cursor.Mode,
			strconv.Itoa(len(s.Devices)),
		})
	}
	return renderRows([]string{"SEAT", "CAPS", "FOCUS", "CURSOR", "MODE", "DEVICES"}, rows, selected)
}
