package dashboard

import (
	"fmt"
	"strings"
)

// Column identifies one of the five table columns, in display order.
type Column int

const (
	ColumnName Column = iota
	ColumnStatus
	ColumnLock
	ColumnLineup
	ColumnPool
)

// NumColumns is the number of cells in a row
const NumColumns = 5

// Columns lists every column in display order
var Columns = [NumColumns]Column{ColumnName, ColumnStatus, ColumnLock, ColumnLineup, ColumnPool}

var columnKeys = [NumColumns]string{"name", "status", "lock", "lineup", "pool"}

var columnTitles = [NumColumns]string{"Capture Device", "Status", "Locked", "Channel Lineup", "Pool"}

// String returns the column key used in config files and flags
func (c Column) String() string {
	if c < 0 || int(c) >= NumColumns {
		return fmt.Sprintf("Column(%d)", int(c))
	}
	return columnKeys[c]
}

// MarshalText encodes the column by key in JSON output
func (c Column) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Title returns the column header
func (c Column) Title() string {
	if c < 0 || int(c) >= NumColumns {
		return ""
	}
	return columnTitles[c]
}

// ParseColumn parses a column key ("name", "status", "lock", "lineup", "pool")
func ParseColumn(s string) (Column, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, k := range columnKeys {
		if k == key {
			return Column(i), nil
		}
	}
	return ColumnName, fmt.Errorf("unknown column %q (want one of %s)", s, strings.Join(columnKeys[:], ", "))
}

// Cell text written by the enrichment handlers
const (
	StatusActive = "Active"
	StatusIdle   = "Idle"

	LockExternal  = "External"
	LockSageTV    = "SageTV"
	LockLocked    = "Locked"
	LockAvailable = "Available"
)

// StatusText maps the details "locked" flag to status text
func StatusText(locked bool) string {
	if locked {
		return StatusActive
	}
	return StatusIdle
}

// DeriveLockText computes the lock cell from the device status and the
// external-lock probe. locked is nil while the details response is still
// outstanding, which is treated the same as Idle.
//
//	status Active: External (held outside OpenDCT) or SageTV
//	otherwise:     Locked or Available
func DeriveLockText(locked *bool, externalLocked bool) string {
	if locked != nil && *locked {
		if externalLocked {
			return LockExternal
		}
		return LockSageTV
	}
	if externalLocked {
		return LockLocked
	}
	return LockAvailable
}

// RowState tracks which of a row's two responses have arrived
type RowState int

const (
	RowEmpty RowState = iota
	RowPending
	RowDetailsArrived
	RowExternalLockArrived
	RowComplete
)

// String returns a human-readable name for the state
func (s RowState) String() string {
	switch s {
	case RowEmpty:
		return "empty"
	case RowPending:
		return "pending"
	case RowDetailsArrived:
		return "details"
	case RowExternalLockArrived:
		return "external-lock"
	case RowComplete:
		return "complete"
	default:
		return fmt.Sprintf("RowState(%d)", int(s))
	}
}

// MarshalText encodes the state by name in JSON output
func (s RowState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Row is one capture device line. All fields are guarded by the owning
// Table's mutex; callers only hold *Row as an opaque handle.
type Row struct {
	key        string
	generation uint64
	cells      [NumColumns]string

	// Explicit record behind the status and lock cells
	locked         *bool
	externalLocked *bool
}

func newRow(name string, generation uint64) *Row {
	r := &Row{key: name, generation: generation}
	r.cells[ColumnName] = name
	return r
}

// Key returns the device name the row was created for. It never changes,
// even if the name cell is edited.
func (r *Row) Key() string {
	return r.key
}

func (r *Row) state() RowState {
	switch {
	case r.cells[ColumnName] == "" && r.locked == nil && r.externalLocked == nil:
		return RowEmpty
	case r.locked != nil && r.externalLocked != nil:
		return RowComplete
	case r.locked != nil:
		return RowDetailsArrived
	case r.externalLocked != nil:
		return RowExternalLockArrived
	default:
		return RowPending
	}
}

func (r *Row) snapshot() RowSnapshot {
	s := RowSnapshot{
		Key:   r.key,
		Cells: r.cells,
		State: r.state(),
	}
	if r.locked != nil {
		v := *r.locked
		s.Locked = &v
	}
	if r.externalLocked != nil {
		v := *r.externalLocked
		s.ExternalLocked = &v
	}
	return s
}

// RowSnapshot is an immutable copy of a row
type RowSnapshot struct {
	Key            string             `json:"key"`
	Cells          [NumColumns]string `json:"cells"`
	State          RowState           `json:"state"`
	Locked         *bool              `json:"locked,omitempty"`
	ExternalLocked *bool              `json:"externalLocked,omitempty"`
}

// Cell returns the text of one column
func (s RowSnapshot) Cell(c Column) string {
	if c < 0 || int(c) >= NumColumns {
		return ""
	}
	return s.Cells[c]
}
