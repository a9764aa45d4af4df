// Package router tracks which content panel is visible and which navigation
// entry is marked active. Panels, navigation entries and URL fragments share
// one identifier.
package router

import (
	"strings"
	"sync"
)

// Panel identifiers
const (
	PanelDashboard = "dashboard"
	PanelLineups   = "lineups"
	PanelPools     = "pools"
	PanelAbout     = "about"
)

// DefaultPanel is selected when no fragment is given and by Home
const DefaultPanel = PanelDashboard

// Panel is a named, mutually exclusive section of the UI
type Panel struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

var defaultPanels = []Panel{
	{ID: PanelDashboard, Title: "Dashboard"},
	{ID: PanelLineups, Title: "Lineups"},
	{ID: PanelPools, Title: "Pools"},
	{ID: PanelAbout, Title: "About"},
}

// DefaultPanels returns the panels every front end shows, in navigation order
func DefaultPanels() []Panel {
	return append([]Panel(nil), defaultPanels...)
}

// State is the current selection. An empty field means no panel is visible
// or no navigation entry is active.
type State struct {
	Visible string `json:"visible"`
	Active  string `json:"active"`
}

// Transition hides every panel, shows the one matching id and marks its
// navigation entry active. An id with no matching panel leaves nothing
// visible and nothing active.
func Transition(_ State, id string, panels []Panel) State {
	for _, p := range panels {
		if p.ID == id {
			return State{Visible: p.ID, Active: p.ID}
		}
	}
	return State{}
}

// ParseFragment extracts a panel id from a URL fragment ("#pools" or "pools").
// An empty fragment yields DefaultPanel.
func ParseFragment(fragment string) string {
	if i := strings.IndexByte(fragment, '#'); i >= 0 {
		fragment = fragment[i+1:]
	}
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return DefaultPanel
	}
	return fragment
}

// Observer is called after the selection changes
type Observer func(prev, next State)

// Router owns one selection value
type Router struct {
	mu        sync.Mutex
	panels    []Panel
	state     State
	observers []Observer
}

// New creates a router over panels with nothing selected. A nil panels uses
// DefaultPanels.
func New(panels []Panel) *Router {
	if panels == nil {
		panels = DefaultPanels()
	}
	return &Router{panels: panels}
}

// OnChange registers an observer. Observers run without the router lock held.
func (r *Router) OnChange(fn Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Select shows the panel id. Observers are only notified when the state
// actually changes, so selecting the visible panel again is a no-op.
func (r *Router) Select(id string) State {
	r.mu.Lock()
	prev := r.state
	next := Transition(prev, id, r.panels)
	r.state = next
	observers := append([]Observer(nil), r.observers...)
	r.mu.Unlock()

	if prev != next {
		for _, fn := range observers {
			fn(prev, next)
		}
	}
	return next
}

// SelectFromFragment selects the panel named by a URL fragment
func (r *Router) SelectFromFragment(fragment string) State {
	return r.Select(ParseFragment(fragment))
}

// Home selects DefaultPanel regardless of the current fragment
func (r *Router) Home() State {
	return r.Select(DefaultPanel)
}

// Next selects the panel after the active one, wrapping around
func (r *Router) Next() State {
	return r.step(1)
}

// Prev selects the panel before the active one, wrapping around
func (r *Router) Prev() State {
	return r.step(-1)
}

func (r *Router) step(delta int) State {
	r.mu.Lock()
	n := len(r.panels)
	if n == 0 {
		r.mu.Unlock()
		return State{}
	}
	i := r.indexLocked(r.state.Active)
	var target string
	if i < 0 {
		target = r.panels[0].ID
	} else {
		target = r.panels[((i+delta)%n+n)%n].ID
	}
	r.mu.Unlock()

	return r.Select(target)
}

func (r *Router) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range r.panels {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// State returns the current selection
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsVisible reports whether id is the visible panel
func (r *Router) IsVisible(id string) bool {
	return id != "" && r.State().Visible == id
}

// Panels returns the router's panels in navigation order
func (r *Router) Panels() []Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Panel(nil), r.panels...)
}

// Lookup returns the panel with the given id
func (r *Router) Lookup(id string) (Panel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.panels[i], true
	}
	return Panel{}, false
}
