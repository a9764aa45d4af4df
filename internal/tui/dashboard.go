package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/dctdash/internal/dashboard"
)

// DashboardModel renders the capture device table and drives activations.
// Requests run as independent commands; their messages are merged into the
// shared table in Update, in whatever order they arrive.
type DashboardModel struct {
	ctx     context.Context
	fetcher dashboard.Fetcher
	Table   *dashboard.Table

	// Device table widget, rebuilt from a table snapshot after every merge
	Devices table.Model
	Spinner spinner.Model

	// Current activation
	Loading     bool
	Pending     int
	Requests    int
	LastLoaded  time.Time
	generation  uint64
	activations int

	Width  int
	Height int
}

// NewDashboardModel creates a dashboard reading from f into t
func NewDashboardModel(ctx context.Context, f dashboard.Fetcher, t *dashboard.Table) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	devices := table.New(
		table.WithColumns(deviceColumns(MinTerminalWidth-4)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(PrimaryColor)
	devices.SetStyles(styles)

	return DashboardModel{
		ctx:     ctx,
		fetcher: f,
		Table:   t,
		Devices: devices,
		Spinner: s,
	}
}

// deviceColumns sizes the five columns for a content width
func deviceColumns(width int) []table.Column {
	fixed := []int{8, 10, 18, 14} // status, lock, lineup, pool
	name := width - 2*len(dashboard.Columns)
	for _, w := range fixed {
		name -= w
	}
	if name < 16 {
		name = 16
	}
	widths := append([]int{name}, fixed...)

	cols := make([]table.Column, 0, len(dashboard.Columns))
	for i, c := range dashboard.Columns {
		cols = append(cols, table.Column{Title: c.Title(), Width: widths[i]})
	}
	return cols
}

// Activate starts a new activation: the table is reset and the device list
// requested. Earlier requests are not canceled; their results land on
// detached rows.
func (m DashboardModel) Activate() (DashboardModel, tea.Cmd) {
	m.generation = m.Table.Reset()
	m.activations++
	m.Loading = true
	m.Pending = 1
	m.Requests = 1
	m.syncRows()

	return m, tea.Batch(m.Spinner.Tick, fetchDevicesCmd(m.ctx, m.fetcher, m.generation))
}

// Generation returns the activation the model is tracking
func (m DashboardModel) Generation() uint64 {
	return m.generation
}

// Activations returns how many activations the model has started
func (m DashboardModel) Activations() int {
	return m.activations
}

// RefreshRowDetails issues the two per-row requests for every current row
func (m DashboardModel) RefreshRowDetails() (DashboardModel, tea.Cmd) {
	targets := m.Table.RefreshTargets()
	cmds := make([]tea.Cmd, 0, 2*len(targets))
	for _, target := range targets {
		cmds = append(cmds,
			fetchDetailsCmd(m.ctx, m.fetcher, m.generation, target),
			fetchExternalLockCmd(m.ctx, m.fetcher, m.generation, target),
		)
	}
	m.Pending += len(cmds)
	m.Requests += len(cmds)
	if m.Pending > 0 {
		m.Loading = true
	}
	return m, tea.Batch(cmds...)
}

// Update handles dashboard messages
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case devicesLoadedMsg:
		if msg.generation != m.generation {
			return m, nil
		}
		m.Pending--
		if msg.err != nil {
			m.finish()
			return m, nil
		}
		if !m.Table.Render(msg.generation, msg.names) {
			return m, nil
		}
		m.syncRows()
		var cmd tea.Cmd
		m, cmd = m.RefreshRowDetails()
		if m.Pending == 0 {
			m.finish()
		}
		return m, cmd

	case rowResultMsg:
		m.Table.Apply(msg.result)
		if msg.generation == m.generation && m.Pending > 0 {
			m.Pending--
			if m.Pending == 0 {
				m.finish()
			}
		}
		m.syncRows()
		return m, nil

	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		var cmd tea.Cmd
		m.Devices, cmd = m.Devices.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *DashboardModel) finish() {
	m.Loading = false
	m.LastLoaded = time.Now()
}

// SetSize resizes the device table
func (m *DashboardModel) SetSize(width, height int) {
	m.Width = width
	m.Height = height
	m.Devices.SetColumns(deviceColumns(contentWidth(width)))
	m.Devices.SetWidth(contentWidth(width))
	m.Devices.SetHeight(contentHeight(height) - 1)
}

// syncRows copies the table snapshot into the widget
func (m *DashboardModel) syncRows() {
	snap := m.Table.Snapshot()
	rows := make([]table.Row, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		rows = append(rows, table.Row(r.Cells[:]))
	}
	m.Devices.SetRows(rows)
	if m.Devices.Cursor() >= len(rows) {
		m.Devices.SetCursor(max(len(rows)-1, 0))
	}
}

// Rows returns the widget rows, in visual order
func (m DashboardModel) Rows() []table.Row {
	return m.Devices.Rows()
}

// View renders the dashboard panel body
func (m DashboardModel) View() string {
	var b strings.Builder

	order := m.Table.Order()
	status := fmt.Sprintf("%d devices · sorted by %s", m.Table.Len(), order)
	if m.Loading {
		status = m.Spinner.View() + " " + status + fmt.Sprintf(" · %d requests pending", m.Pending)
	} else if !m.LastLoaded.IsZero() {
		status += " · updated " + m.LastLoaded.Format("15:04:05")
	}
	b.WriteString(StatusBarStyle.Render(status))
	b.WriteString("\n")

	if m.Table.Len() == 0 && !m.Loading {
		b.WriteString(EmptyStyle.Render("No capture devices. Press r to reload."))
		return b.String()
	}

	b.WriteString(m.Devices.View())
	return b.String()
}
