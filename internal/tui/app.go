package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/dctdash/internal/dashboard"
	"github.com/muurk/dctdash/internal/logging"
	"github.com/muurk/dctdash/internal/router"
)

// Options configures the application
type Options struct {
	// Context bounds every request; defaults to context.Background
	Context context.Context

	Fetcher dashboard.Fetcher
	Table   *dashboard.Table

	// Server is shown in the header and about panel
	Server string

	// Fragment selects the initial panel ("#pools", "lineups", or empty for
	// the dashboard)
	Fragment string

	// Refresh re-activates the dashboard periodically; zero disables it
	Refresh time.Duration
}

// AppModel is the top-level model: the router decides which panel is visible
// and the dashboard loads whenever it becomes visible.
type AppModel struct {
	Router    *router.Router
	Dashboard DashboardModel

	// Scrolling body for the grouped and about panels
	Viewport viewport.Model

	server  string
	refresh time.Duration

	keys     keyMap
	Help     help.Model
	ShowHelp bool

	Width  int
	Height int
}

// NewAppModel creates the application and selects the initial panel
func NewAppModel(opts Options) AppModel {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	t := opts.Table
	if t == nil {
		t = dashboard.NewTable()
	}

	r := router.New(nil)
	r.SelectFromFragment(opts.Fragment)

	return AppModel{
		Router:    r,
		Dashboard: NewDashboardModel(ctx, opts.Fetcher, t),
		Viewport:  viewport.New(MinTerminalWidth-4, 10),
		server:    opts.Server,
		refresh:   opts.Refresh,
		keys:      newKeyMap(),
		Help:      help.New(),
	}
}

// Init loads the dashboard if it is the initial panel
func (m AppModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	cmds = append(cmds, refreshTickCmd(m.refresh))
	if m.Router.IsVisible(router.PanelDashboard) {
		// Init cannot return a new model, so the activation is requested by message
		cmds = append(cmds, func() tea.Msg { return activateMsg{} })
	}
	return tea.Batch(cmds...)
}

// activateMsg asks the app to start a dashboard activation
type activateMsg struct{}

// Update handles all messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		m.Dashboard.SetSize(msg.Width, msg.Height)
		m.Viewport.Width = contentWidth(msg.Width)
		m.Viewport.Height = contentHeight(msg.Height)
		m.refreshViewport()
		return m, nil

	case activateMsg:
		return m.activate()

	case refreshTickMsg:
		next := refreshTickCmd(m.refresh)
		if !m.Router.IsVisible(router.PanelDashboard) {
			return m, next
		}
		updated, cmd := m.activate()
		return updated, tea.Batch(cmd, next)

	case devicesLoadedMsg, rowResultMsg:
		// Results land whether or not the dashboard is visible
		var cmd tea.Cmd
		m.Dashboard, cmd = m.Dashboard.Update(msg)
		m.refreshViewport()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.Dashboard, cmd = m.Dashboard.Update(msg)
	return m, cmd
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.ShowHelp = !m.ShowHelp
		m.Help.ShowAll = m.ShowHelp
		return m, nil

	case key.Matches(msg, m.keys.Panel1, m.keys.Panel2, m.keys.Panel3, m.keys.Panel4):
		panels := m.Router.Panels()
		i := int(msg.String()[0] - '1')
		if i < 0 || i >= len(panels) {
			return m, nil
		}
		return m.selectPanel(func() router.State { return m.Router.Select(panels[i].ID) })

	case key.Matches(msg, m.keys.Next):
		return m.selectPanel(m.Router.Next)

	case key.Matches(msg, m.keys.Prev):
		return m.selectPanel(m.Router.Prev)

	case key.Matches(msg, m.keys.Home):
		return m.selectPanel(m.Router.Home)

	case key.Matches(msg, m.keys.Reload):
		return m.activate()

	case key.Matches(msg, m.keys.Sort):
		order := m.Dashboard.Table.Order()
		order.Column = dashboard.Column((int(order.Column) + 1) % dashboard.NumColumns)
		m.Dashboard.Table.SetSort(order)
		m.Dashboard.syncRows()
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Reverse):
		order := m.Dashboard.Table.Order()
		order.Descending = !order.Descending
		m.Dashboard.Table.SetSort(order)
		m.Dashboard.syncRows()
		m.refreshViewport()
		return m, nil
	}

	if m.Router.IsVisible(router.PanelDashboard) {
		var cmd tea.Cmd
		m.Dashboard, cmd = m.Dashboard.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// selectPanel applies a router transition and activates the dashboard when
// it becomes visible
func (m AppModel) selectPanel(transition func() router.State) (tea.Model, tea.Cmd) {
	prev := m.Router.State()
	next := transition()
	logging.LogSelection(prev.Visible, next.Visible)

	m.Viewport.GotoTop()
	m.refreshViewport()

	if next.Visible == router.PanelDashboard && prev.Visible != router.PanelDashboard {
		return m.activate()
	}
	return m, nil
}

func (m AppModel) activate() (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.Dashboard, cmd = m.Dashboard.Activate()
	m.refreshViewport()
	return m, cmd
}

// refreshViewport re-renders the body of the non-table panels
func (m *AppModel) refreshViewport() {
	switch m.Router.State().Visible {
	case router.PanelLineups:
		m.Viewport.SetContent(renderGroups(m.Dashboard.Table, dashboard.ColumnLineup, "Lineup"))
	case router.PanelPools:
		m.Viewport.SetContent(renderGroups(m.Dashboard.Table, dashboard.ColumnPool, "Pool"))
	case router.PanelAbout:
		m.Viewport.SetContent(renderAbout(m.about()))
	default:
		m.Viewport.SetContent("")
	}
}

func (m AppModel) about() aboutInfo {
	refresh := "off"
	if m.refresh > 0 {
		refresh = "every " + m.refresh.String()
	}
	return aboutInfo{
		Server:     m.server,
		Policy:     m.Dashboard.Table.Policy(),
		Order:      m.Dashboard.Table.Order(),
		Refresh:    refresh,
		Generation: m.Dashboard.Generation(),
		Requests:   m.Dashboard.Requests,
	}
}

// View renders the visible panel. An unknown panel renders an empty body.
func (m AppModel) View() string {
	state := m.Router.State()

	var content string
	switch state.Visible {
	case router.PanelDashboard:
		content = m.Dashboard.View()
	case "":
		content = ""
	default:
		content = m.Viewport.View()
	}

	return RenderApplicationContainer(
		BuildHeaderContent(m.server),
		RenderNav(m.Router.Panels(), state.Active),
		content,
		m.Help.View(m.keys),
		m.Width,
		m.Height,
	)
}
