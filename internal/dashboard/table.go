package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/muurk/dctdash/internal/restapi"
)

// LockPolicy decides when the lock cell is computed
type LockPolicy int

const (
	// LockFirstArrival computes the lock cell once, when the external-lock
	// response arrives, from the status known at that moment.
	LockFirstArrival LockPolicy = iota
	// LockRederive recomputes the lock cell whenever either response lands.
	LockRederive
)

// String returns the policy key used in config files and flags
func (p LockPolicy) String() string {
	switch p {
	case LockFirstArrival:
		return "first-arrival"
	case LockRederive:
		return "rederive"
	default:
		return fmt.Sprintf("LockPolicy(%d)", int(p))
	}
}

// ParseLockPolicy parses "first-arrival" or "rederive"
func ParseLockPolicy(s string) (LockPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first-arrival":
		return LockFirstArrival, nil
	case "rederive":
		return LockRederive, nil
	default:
		return LockFirstArrival, fmt.Errorf("unknown lock policy %q (want first-arrival or rederive)", s)
	}
}

// SortOrder is the column the table is sorted on
type SortOrder struct {
	Column     Column `json:"column"`
	Descending bool   `json:"descending"`
}

// String returns e.g. "name asc"
func (o SortOrder) String() string {
	dir := "asc"
	if o.Descending {
		dir = "desc"
	}
	return o.Column.String() + " " + dir
}

// DefaultSortOrder sorts ascending by device name
var DefaultSortOrder = SortOrder{Column: ColumnName}

// Snapshot is an immutable copy of the table in visual order
type Snapshot struct {
	Generation uint64        `json:"generation"`
	Sortable   bool          `json:"sortable"`
	Order      SortOrder     `json:"order"`
	Rows       []RowSnapshot `json:"rows"`
}

// Group is a set of rows sharing one cell value
type Group struct {
	Name string        `json:"name"`
	Rows []RowSnapshot `json:"rows"`
}

// Target is one row to enrich, with the device name read from its name cell
type Target struct {
	Row  *Row
	Name string
}

// Option configures a Table
type Option func(*Table)

// WithLockPolicy selects how the lock cell is derived
func WithLockPolicy(p LockPolicy) Option {
	return func(t *Table) { t.policy = p }
}

// WithSortOrder sets the sort applied when rows are rendered
func WithSortOrder(o SortOrder) Option {
	return func(t *Table) { t.order = o }
}

// Table holds the rows of the current activation
type Table struct {
	mu         sync.Mutex
	rows       []*Row
	generation uint64
	sortable   bool
	order      SortOrder
	policy     LockPolicy

	observersMu sync.Mutex
	observers   []func()
}

// NewTable creates an empty table
func NewTable(opts ...Option) *Table {
	t := &Table{order: DefaultSortOrder}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnUpdate registers fn to be called after every change to the current rows.
// fn runs on the goroutine that made the change, without the table lock held.
func (t *Table) OnUpdate(fn func()) {
	t.observersMu.Lock()
	defer t.observersMu.Unlock()
	t.observers = append(t.observers, fn)
}

func (t *Table) notify() {
	t.observersMu.Lock()
	observers := make([]func(), len(t.observers))
	copy(observers, t.observers)
	t.observersMu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// Policy returns the lock policy
func (t *Table) Policy() LockPolicy {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.policy
}

// Reset discards all rows and starts a new activation, returning its
// generation. Responses captured for older rows no longer reach the table.
func (t *Table) Reset() uint64 {
	t.mu.Lock()
	t.generation++
	t.rows = nil
	t.sortable = false
	gen := t.generation
	t.mu.Unlock()

	t.notify()
	return gen
}

// Generation returns the current activation generation
func (t *Table) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// Render appends one row per name in the given order and makes the table
// sortable. It refuses (returns false) when generation is not the current
// activation.
func (t *Table) Render(generation uint64, names []string) bool {
	t.mu.Lock()
	if generation != t.generation {
		t.mu.Unlock()
		return false
	}
	for _, name := range names {
		t.rows = append(t.rows, newRow(name, generation))
	}
	// Installed ascending by name; a configured order is applied on top, so
	// rows it ties keep name order.
	t.sortable = true
	t.sortByLocked(DefaultSortOrder)
	if t.order != DefaultSortOrder {
		t.sortByLocked(t.order)
	}
	t.mu.Unlock()

	t.notify()
	return true
}

// RefreshTargets returns every row with the current text of its name cell,
// in visual order.
func (t *Table) RefreshTargets() []Target {
	t.mu.Lock()
	defer t.mu.Unlock()

	targets := make([]Target, 0, len(t.rows))
	for _, row := range t.rows {
		targets = append(targets, Target{Row: row, Name: row.cells[ColumnName]})
	}
	return targets
}

// Row returns the current row whose key is name, or nil
func (t *Table) Row(name string) *Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, row := range t.rows {
		if row.key == name {
			return row
		}
	}
	return nil
}

// SetCell overwrites a cell's text. Editing the name cell changes what the
// next RefreshTargets call requests.
func (t *Table) SetCell(row *Row, col Column, text string) {
	if row == nil || col < 0 || int(col) >= NumColumns {
		return
	}
	t.mu.Lock()
	row.cells[col] = text
	current := t.isCurrentLocked(row)
	t.mu.Unlock()

	if current {
		t.Update()
	}
}

// ApplyDetails merges a details response into row
func (t *Table) ApplyDetails(row *Row, details restapi.Details) {
	t.mu.Lock()
	locked := details.Locked
	row.locked = &locked
	row.cells[ColumnStatus] += StatusText(details.Locked)
	row.cells[ColumnLineup] += details.ChannelLineup
	row.cells[ColumnPool] += details.EncoderPoolName
	if t.policy == LockRederive && row.externalLocked != nil {
		row.cells[ColumnLock] = DeriveLockText(row.locked, *row.externalLocked)
	}
	current := t.isCurrentLocked(row)
	t.mu.Unlock()

	if current {
		t.Update()
	}
}

// ApplyExternalLock merges an external-lock response into row
func (t *Table) ApplyExternalLock(row *Row, state restapi.LockState) {
	t.mu.Lock()
	external := state.Locked
	row.externalLocked = &external
	text := DeriveLockText(row.locked, external)
	if t.policy == LockRederive {
		row.cells[ColumnLock] = text
	} else {
		row.cells[ColumnLock] += text
	}
	current := t.isCurrentLocked(row)
	t.mu.Unlock()

	if current {
		t.Update()
	}
}

// Apply merges a fetch result. It reports whether anything changed; failed
// results change nothing.
func (t *Table) Apply(result Result) bool {
	if result == nil || result.Failed() {
		return false
	}
	result.applyTo(t)
	return true
}

// Update resorts a sortable table on the current order and notifies observers
func (t *Table) Update() {
	t.mu.Lock()
	if t.sortable {
		t.sortLocked()
	}
	t.mu.Unlock()

	t.notify()
}

// SetSort changes the sort order and resorts
func (t *Table) SetSort(order SortOrder) {
	t.mu.Lock()
	t.order = order
	t.mu.Unlock()

	t.Update()
}

// Order returns the current sort order
func (t *Table) Order() SortOrder {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order
}

// Len returns the number of rows in the current activation
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Snapshot copies the table in visual order
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Generation: t.generation,
		Sortable:   t.sortable,
		Order:      t.order,
		Rows:       make([]RowSnapshot, 0, len(t.rows)),
	}
	for _, row := range t.rows {
		snap.Rows = append(snap.Rows, row.snapshot())
	}
	return snap
}

// Groups collects rows by the text of col, sorted by group name. Rows whose
// cell is still empty are grouped under "".
func (t *Table) Groups(col Column) []Group {
	snap := t.Snapshot()

	index := make(map[string]int)
	var groups []Group
	for _, row := range snap.Rows {
		name := row.Cell(col)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		// Pending group last
		if groups[i].Name == "" || groups[j].Name == "" {
			return groups[j].Name == "" && groups[i].Name != ""
		}
		return lessText(groups[i].Name, groups[j].Name)
	})
	return groups
}

func (t *Table) isCurrentLocked(row *Row) bool {
	return row.generation == t.generation
}

func (t *Table) sortLocked() {
	t.sortByLocked(t.order)
}

func (t *Table) sortByLocked(order SortOrder) {
	col := order.Column
	if col < 0 || int(col) >= NumColumns {
		col = ColumnName
	}
	desc := order.Descending
	sort.SliceStable(t.rows, func(i, j int) bool {
		a, b := t.rows[i].cells[col], t.rows[j].cells[col]
		if desc {
			return lessText(b, a)
		}
		return lessText(a, b)
	})
}

// lessText compares cell text case-insensitively, falling back to byte order
// so the result is total.
func lessText(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
