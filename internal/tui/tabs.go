package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/palmwm/internal/ipc"
)

// Tab identifies a monitor tab.
type Tab int

const (
	TabStack Tab = iota
	TabOutputs
	TabSeats
	tabCount // sentinel for iteration
)

func (t Tab) String() string {
	switch t {
	case TabStack:
		return "Stack"
	case TabOutputs:
		return "Outputs"
	case TabSeats:
		return "Seats"
	default:
		return "?"
	}
}

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			MarginBottom(1)

	tabGap = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		SetString(" ")
)

func renderTabBar(active Tab, width int) string {
	var tabs []string
	for i := Tab(0); i < tabCount; i++ {
		label := i.String()
		if i == active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, intersperse(tabs, tabGap.Render())...)
	return tabBarStyle.Width(width).Render(row)
}

// intersperse inserts sep between each element of items.
func intersperse(items []string, sep string) []string {
	if len(items) <= 1 {
		return items
	}
	result := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i > 0 {
			result = append(result, sep)
		}
		result = append(result, item)
	}
	return result
}

func renderStatusBar(connected bool, status *ipc.StatusData, width int) string {
	var text string
	if connected && status != nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		parts := []string{
			dot + " " + status.Backend,
			fmt.Sprintf("views:%d/%d", status.Mapped, status.Views),
			fmt.Sprintf("outputs:%d", status.Outputs),
			fmt.Sprintf("seats:%d", status.Seats),
		}
		if status.LastActiveSeat != "" {
			parts = append(parts, "active:"+status.LastActiveSeat)
		}
		parts = append(parts, fmt.Sprintf("up:%ds", status.UptimeSeconds))
		text = strings.Join(parts, "  ")
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		text = dot + " daemon not running"
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(text)
}

func renderFooter(note string, err error, width int) string {
	style := lipgloss.NewStyle().Width(width).Padding(0, 1)
	switch {
	case err != nil:
		return style.Foreground(lipgloss.Color("196")).Render(err.Error())
	case note != "":
		return style.Foreground(lipgloss.Color("42")).Render(note)
	}
	return style.Render("")
}
