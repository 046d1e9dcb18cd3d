package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/palmwm/internal/compositor"
	"github.com/1broseidon/palmwm/internal/ipc"
)

// snapshot is one poll of the daemon.
type snapshot struct {
	status  *ipc.StatusData
	views   []compositor.ViewInfo
	outputs []compositor.OutputInfo
	seats   []compositor.SeatInfo
}

type tickMsg time.Time

type snapshotMsg struct {
	snap snapshot
	err  error
}

// actionMsg reports the result of a focus, cycle or reload request.
type actionMsg struct {
	note string
	err  error
}

// model is the root bubbletea model for the monitor.
type model struct {
	client   Client
	interval time.Duration
	keys     keyMap
	help     help.Model

	activeTab Tab
	// cursor indexes the selected row of the active tab.
	cursor [tabCount]int

	snap      snapshot
	connected bool
	lastErr   error
	note      string

	width  int
	height int
}

func newModel(client Client, interval time.Duration) model {
	return model{
		client:    client,
		interval:  interval,
		keys:      defaultKeyMap(),
		help:      help.New(),
		activeTab: TabStack,
	}
}

func (m model) poll() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		var s snapshot
		var err error
		if s.status, err = client.GetStatus(); err != nil {
			return snapshotMsg{err: err}
		}
		if s.views, err = client.GetStack(); err != nil {
			return snapshotMsg{err: err}
		}
		if s.outputs, err = client.GetOutputs(); err != nil {
			return snapshotMsg{err: err}
		}
		if s.seats, err = client.GetSeats(); err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{snap: s}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.poll(), m.tick())
}

// rows returns the number of selectable rows in the active tab.
func (m model) rows() int {
	switch m.activeTab {
	case TabStack:
		return len(m.snap.views)
	case TabOutputs:
		return len(m.snap.outputs)
	case TabSeats:
		return len(m.snap.seats)
	}
	return 0
}

func (m *model) clampCursor() {
	for t := Tab(0); t < tabCount; t++ {
		n := 0
		switch t {
		case TabStack:
			n = len(m.snap.views)
		case TabOutputs:
			n = len(m.snap.outputs)
		case TabSeats:
			n = len(m.snap.seats)
		}
		if m.cursor[t] >= n {
			m.cursor[t] = n - 1
		}
		if m.cursor[t] < 0 {
			m.cursor[t] = 0
		}
	}
}

// selectedSeat is the seat row picked on the seats tab, or "" for the
// daemon's last active seat.
func (m model) selectedSeat() string {
	if len(m.snap.seats) == 0 {
		return ""
	}
	return m.snap.seats[m.cursor[TabSeats]].Name
}

func (m model) focusSelected() tea.Cmd {
	if m.activeTab != TabStack || len(m.snap.views) == 0 {
		return nil
	}
	client, seatName := m.client, m.selectedSeat()
	view := m.snap.views[m.cursor[TabStack]].ID
	return func() tea.Msg {
		if err := client.Focus(seatName, view); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{note: "focused " + view}
	}
}

func (m model) cycleFocus() tea.Cmd {
	client, seatName := m.client, m.selectedSeat()
	return func() tea.Msg {
		focus, err := client.CycleFocus(seatName)
		if err != nil {
			return actionMsg{err: err}
		}
		if focus == "" {
			return actionMsg{note: "nothing to focus"}
		}
		return actionMsg{note: "focused " + focus}
	}
}

func (m model) reload() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if err := client.Reload(); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{note: "config reloaded"}
	}
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.poll(), m.tick())

	case snapshotMsg:
		if msg.err != nil {
			m.connected = false
			m.lastErr = msg.err
			return m, nil
		}
		m.connected = true
		m.lastErr = nil
		m.snap = msg.snap
		m.clampCursor()
		return m, nil

	case actionMsg:
		m.note = msg.note
		m.lastErr = msg.err
		// Show the effect without waiting for the next tick.
		return m, m.poll()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextTab):
			m.activeTab = (m.activeTab + 1) % tabCount
		case key.Matches(msg, m.keys.PrevTab):
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case key.Matches(msg, m.keys.Up):
			if m.cursor[m.activeTab] > 0 {
				m.cursor[m.activeTab]--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor[m.activeTab] < m.rows()-1 {
				m.cursor[m.activeTab]++
			}
		case key.Matches(msg, m.keys.Focus):
			return m, m.focusSelected()
		case key.Matches(msg, m.keys.Cycle):
			return m, m.cycleFocus()
		case key.Matches(msg, m.keys.Reload):
			return m, m.reload()
		case key.Matches(msg, m.keys.Refresh):
			return m, m.poll()
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.connected, m.snap.status, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	footer := renderFooter(m.note, m.lastErr, m.width)
	helpBar := lipgloss.NewStyle().Padding(0, 1).Render(m.help.ShortHelpView(m.keys.ShortHelp()))

	used := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(footer) + lipgloss.Height(helpBar)
	contentHeight := m.height - used
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch m.activeTab {
	case TabStack:
		content = renderStack(m.snap.views, m.cursor[TabStack])
	case TabOutputs:
		content = renderOutputs(m.snap.outputs, m.cursor[TabOutputs])
	case TabSeats:
		content = renderSeats(m.snap.seats, m.cursor[TabSeats])
	}
	content = lipgloss.NewStyle().Width(m.width).Height(contentHeight).MaxHeight(contentHeight).Render(content)

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		footer,
		helpBar,
	)
}
