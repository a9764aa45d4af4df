package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/dctdash/internal/dashboard"
	"github.com/muurk/dctdash/internal/restapi"
	"github.com/muurk/dctdash/internal/router"
)

type stubFetcher struct {
	mu       sync.Mutex
	devices  []string
	listErr  error
	details  map[string]restapi.Details
	external map[string]bool
	calls    int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		devices: []string{"dev2", "dev1"},
		details: map[string]restapi.Details{
			"dev1": {Locked: true, ChannelLineup: "L1", EncoderPoolName: "P1"},
			"dev2": {Locked: false, ChannelLineup: "L2", EncoderPoolName: "P1"},
		},
		external: map[string]bool{"dev1": false, "dev2": true},
	}
}

func (f *stubFetcher) CaptureDevices(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.devices...), nil
}

func (f *stubFetcher) DeviceDetails(_ context.Context, name string) (*restapi.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	d, ok := f.details[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return &d, nil
}

func (f *stubFetcher) ExternalLock(_ context.Context, name string) (*restapi.LockState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	v, ok := f.external[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return &restapi.LockState{Locked: v}, nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// drain runs cmd and every command it produces, feeding messages back into
// the model. Timer-driven messages are dropped.
func drain(t *testing.T, m tea.Model, cmd tea.Cmd) AppModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatal("command queue did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, spinner.TickMsg, refreshTickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			var next tea.Cmd
			m, next = m.Update(msg)
			queue = append(queue, next)
		}
	}
	return m.(AppModel)
}

func press(t *testing.T, m AppModel, k string) AppModel {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	updated, cmd := m.Update(msg)
	return drain(t, updated, cmd)
}

func rowNames(m AppModel) []string {
	var out []string
	for _, row := range m.Dashboard.Rows() {
		out = append(out, row[0])
	}
	return out
}

func newTestApp(f dashboard.Fetcher, fragment string, opts ...dashboard.Option) AppModel {
	return NewAppModel(Options{
		Fetcher:  f,
		Table:    dashboard.NewTable(opts...),
		Server:   "http://localhost:9091/opendct",
		Fragment: fragment,
	})
}

func TestInitialDashboardLoads(t *testing.T) {
	f := newStubFetcher()
	m := newTestApp(f, "")
	m = drain(t, m, m.Init())

	if !m.Router.IsVisible(router.PanelDashboard) {
		t.Fatalf("visible = %q, want dashboard", m.Router.State().Visible)
	}
	if got := rowNames(m); strings.Join(got, ",") != "dev1,dev2" {
		t.Errorf("rows = %v, want [dev1 dev2]", got)
	}
	if m.Dashboard.Loading {
		t.Error("dashboard should finish loading")
	}
	if m.Dashboard.Requests != 5 {
		t.Errorf("Requests = %d, want 5", m.Dashboard.Requests)
	}

	rows := m.Dashboard.Rows()
	if rows[0][1] != dashboard.StatusActive || rows[0][3] != "L1" || rows[0][4] != "P1" {
		t.Errorf("dev1 row = %v", rows[0])
	}
	if rows[1][2] != dashboard.LockLocked {
		t.Errorf("dev2 lock = %q, want Locked", rows[1][2])
	}
}

func TestInitialOtherPanelDoesNotLoad(t *testing.T) {
	f := newStubFetcher()
	m := newTestApp(f, "#about")
	m = drain(t, m, m.Init())

	if !m.Router.IsVisible(router.PanelAbout) {
		t.Errorf("visible = %q, want about", m.Router.State().Visible)
	}
	if f.callCount() != 0 {
		t.Errorf("calls = %d, want none", f.callCount())
	}
	if m.Dashboard.Activations() != 0 {
		t.Errorf("activations = %d, want 0", m.Dashboard.Activations())
	}
}

func TestUnknownFragmentShowsNothing(t *testing.T) {
	f := newStubFetcher()
	m := newTestApp(f, "#settings")
	m = drain(t, m, m.Init())

	if m.Router.State() != (router.State{}) {
		t.Errorf("state = %v, want nothing selected", m.Router.State())
	}
	if f.callCount() != 0 {
		t.Errorf("calls = %d, want none", f.callCount())
	}
	if m.View() == "" {
		t.Error("View() should still render the chrome")
	}
}

func TestSelectingDashboardActivatesOnce(t *testing.T) {
	f := newStubFetcher()
	m := newTestApp(f, "pools")
	m = drain(t, m, m.Init())

	m = press(t, m, "1")
	if m.Dashboard.Activations() != 1 {
		t.Fatalf("activations = %d, want 1", m.Dashboard.Activations())
	}
	if len(m.Dashboard.Rows()) != 2 {
		t.Errorf("rows = %d, want 2", len(m.Dashboard.Rows()))
	}

	m = press(t, m, "1")
	if m.Dashboard.Activations() != 1 {
		t.Errorf("selecting the visible dashboard again activated it (%d)", m.Dashboard.Activations())
	}
}

func TestHomeAndTabs(t *testing.T) {
	m := newTestApp(newStubFetcher(), "lineups")
	m = drain(t, m, m.Init())

	m = press(t, m, "tab")
	if !m.Router.IsVisible(router.PanelPools) {
		t.Errorf("after tab visible = %q, want pools", m.Router.State().Visible)
	}
	m = press(t, m, "shift+tab")
	if !m.Router.IsVisible(router.PanelLineups) {
		t.Errorf("after shift+tab visible = %q, want lineups", m.Router.State().Visible)
	}

	m = press(t, m, "h")
	if !m.Router.IsVisible(router.PanelDashboard) {
		t.Errorf("after home visible = %q, want dashboard", m.Router.State().Visible)
	}
	if m.Dashboard.Activations() != 1 {
		t.Errorf("activations = %d, want 1", m.Dashboard.Activations())
	}
}

func TestReloadRebuilds(t *testing.T) {
	f := newStubFetcher()
	m := newTestApp(f, "")
	m = drain(t, m, m.Init())
	first := m.Dashboard.Generation()

	f.mu.Lock()
	f.devices = []string{"dev3"}
	f.mu.Unlock()

	m = press(t, m, "r")
	if m.Dashboard.Generation() == first {
		t.Error("reload should start a new activation")
	}
	if got := rowNames(m); strings.Join(got, ",") != "dev3" {
		t.Errorf("rows = %v, want [dev3]", got)
	}
}

func TestEnumerationFailureLeavesEmptyTable(t *testing.T) {
	f := newStubFetcher()
	f.listErr = errors.New("connection refused")
	m := newTestApp(f, "")
	m = drain(t, m, m.Init())

	if len(m.Dashboard.Rows()) != 0 {
		t.Errorf("rows = %d, want 0", len(m.Dashboard.Rows()))
	}
	if m.Dashboard.Loading {
		t.Error("failed enumeration should end loading")
	}
	if !strings.Contains(m.Dashboard.View(), "No capture devices") {
		t.Error("empty dashboard should say so")
	}
}

func TestSortKeys(t *testing.T) {
	m := newTestApp(newStubFetcher(), "")
	m = drain(t, m, m.Init())

	m = press(t, m, "S")
	if got := rowNames(m); strings.Join(got, ",") != "dev2,dev1" {
		t.Errorf("rows = %v, want descending", got)
	}

	m = press(t, m, "s")
	order := m.Dashboard.Table.Order()
	if order.Column != dashboard.ColumnStatus || !order.Descending {
		t.Errorf("order = %v, want status desc", order)
	}
	// Idle > Active descending
	if got := rowNames(m); strings.Join(got, ",") != "dev2,dev1" {
		t.Errorf("rows = %v, want [dev2 dev1]", got)
	}
}

func TestMessageOrderRace(t *testing.T) {
	tests := []struct {
		name      string
		policy    dashboard.LockPolicy
		lockFirst bool
		want      string
	}{
		{"details first", dashboard.LockFirstArrival, false, dashboard.LockSageTV},
		{"lock first", dashboard.LockFirstArrival, true, dashboard.LockAvailable},
		{"lock first rederive", dashboard.LockRederive, true, dashboard.LockSageTV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStubFetcher()
			f.devices = []string{"dev1"}
			d := NewDashboardModel(context.Background(), f, dashboard.NewTable(dashboard.WithLockPolicy(tt.policy)))

			d, _ = d.Activate()
			d, _ = d.Update(devicesLoadedMsg{generation: d.Generation(), names: []string{"dev1"}})

			target := d.Table.RefreshTargets()[0]
			details := fetchDetailsCmd(context.Background(), f, d.Generation(), target)()
			lock := fetchExternalLockCmd(context.Background(), f, d.Generation(), target)()
			first, second := details, lock
			if tt.lockFirst {
				first, second = lock, details
			}

			d, _ = d.Update(first)
			d, _ = d.Update(second)

			if d.Loading {
				t.Error("loading should end after both responses")
			}
			row := d.Rows()[0]
			if row[1] != dashboard.StatusActive || row[2] != tt.want {
				t.Errorf("row = %v, want status Active and lock %s", row, tt.want)
			}
		})
	}
}

func TestStaleDevicesMessageIgnored(t *testing.T) {
	d := NewDashboardModel(context.Background(), newStubFetcher(), dashboard.NewTable())

	d, _ = d.Activate()
	stale := d.Generation()
	d, _ = d.Activate()

	d, cmd := d.Update(devicesLoadedMsg{generation: stale, names: []string{"old"}})
	if cmd != nil {
		t.Error("stale enumeration should issue no requests")
	}
	if len(d.Rows()) != 0 {
		t.Errorf("rows = %d, want 0", len(d.Rows()))
	}
	if !d.Loading {
		t.Error("current activation should still be loading")
	}
}

func TestResultsLandWhileHidden(t *testing.T) {
	m := newTestApp(newStubFetcher(), "")
	updated, _ := m.Update(activateMsg{})
	m = updated.(AppModel)
	gen := m.Dashboard.Generation()

	m = press(t, m, "4")
	if !m.Router.IsVisible(router.PanelAbout) {
		t.Fatal("about should be visible")
	}

	updated, cmd := m.Update(devicesLoadedMsg{generation: gen, names: []string{"dev1"}})
	m = drain(t, updated, cmd)

	if m.Dashboard.Table.Len() != 1 {
		t.Fatalf("rows = %d, want 1", m.Dashboard.Table.Len())
	}
	row := m.Dashboard.Table.Snapshot().Rows[0]
	if row.State != dashboard.RowComplete {
		t.Errorf("state = %v, want complete while hidden", row.State)
	}
}

func TestGroupedPanels(t *testing.T) {
	m := newTestApp(newStubFetcher(), "")
	m = drain(t, m, m.Init())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(AppModel)

	m = press(t, m, "3")
	view := m.View()
	if !strings.Contains(view, "Pool P1 (2)") {
		t.Errorf("pools view missing group header:\n%s", view)
	}

	m = press(t, m, "2")
	view = m.View()
	if !strings.Contains(view, "Lineup L1 (1)") || !strings.Contains(view, "Lineup L2 (1)") {
		t.Errorf("lineups view missing groups:\n%s", view)
	}

	m = press(t, m, "4")
	if !strings.Contains(m.View(), "first-arrival") {
		t.Error("about view should show the lock policy")
	}
}
