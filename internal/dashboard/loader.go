package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/dctdash/internal/logging"
	"github.com/muurk/dctdash/internal/restapi"
)

// Fetcher is the subset of the REST client the dashboard needs
type Fetcher interface {
	CaptureDevices(ctx context.Context) ([]string, error)
	DeviceDetails(ctx context.Context, name string) (*restapi.Details, error)
	ExternalLock(ctx context.Context, name string) (*restapi.LockState, error)
}

// Result is a completed per-row request, ready to be merged with Table.Apply
type Result interface {
	// Target is the row the request was issued for
	Target() *Row
	// Failed reports whether the request produced nothing to merge
	Failed() bool

	applyTo(t *Table)
}

// DetailsResult carries a details response for one row
type DetailsResult struct {
	Row     *Row
	Name    string
	Details *restapi.Details
	Err     error
}

func (r DetailsResult) Target() *Row { return r.Row }
func (r DetailsResult) Failed() bool { return r.Err != nil || r.Details == nil }
func (r DetailsResult) applyTo(t *Table) {
	t.ApplyDetails(r.Row, *r.Details)
}

// ExternalLockResult carries an external-lock response for one row
type ExternalLockResult struct {
	Row   *Row
	Name  string
	State *restapi.LockState
	Err   error
}

func (r ExternalLockResult) Target() *Row { return r.Row }
func (r ExternalLockResult) Failed() bool { return r.Err != nil || r.State == nil }
func (r ExternalLockResult) applyTo(t *Table) {
	t.ApplyExternalLock(r.Row, *r.State)
}

// FetchDeviceList performs the enumeration request. A failure is logged and
// returned; callers render nothing on error.
func FetchDeviceList(ctx context.Context, f Fetcher) ([]string, error) {
	names, err := f.CaptureDevices(ctx)
	if err != nil {
		logging.Warn("capture device enumeration failed",
			zap.String("reason", restapi.ShortMessage(err)), zap.Error(err))
		return nil, err
	}
	return names, nil
}

// FetchDetails requests the details for target
func FetchDetails(ctx context.Context, f Fetcher, target Target) DetailsResult {
	details, err := f.DeviceDetails(ctx, target.Name)
	switch {
	case err == nil:
	case restapi.IsNotFound(err):
		// Removed from OpenDCT since enumeration, or the name cell was edited
		logging.Info("device not known to server", zap.String("device", target.Name))
	default:
		logging.Debug("device details failed", zap.String("device", target.Name), zap.Error(err))
	}
	return DetailsResult{Row: target.Row, Name: target.Name, Details: details, Err: err}
}

// FetchExternalLock requests the external-lock probe for target
func FetchExternalLock(ctx context.Context, f Fetcher, target Target) ExternalLockResult {
	state, err := f.ExternalLock(ctx, target.Name)
	if err != nil {
		logging.Debug("external lock probe failed", zap.String("device", target.Name), zap.Error(err))
	}
	return ExternalLockResult{Row: target.Row, Name: target.Name, State: state, Err: err}
}

// Activation tracks the requests started by one Loader call. Request
// failures are merged as no-ops, so the group never carries an error.
type Activation struct {
	generation uint64
	group      errgroup.Group
	done       chan struct{}

	mu       sync.Mutex
	requests int
}

func newActivation(generation uint64) *Activation {
	return &Activation{generation: generation, done: make(chan struct{})}
}

// goRequest runs one request in the activation's group
func (a *Activation) goRequest(fn func()) {
	a.mu.Lock()
	a.requests++
	a.mu.Unlock()
	a.group.Go(func() error {
		fn()
		return nil
	})
}

// seal closes done once the group drains. Requests may still be added from
// inside running ones.
func (a *Activation) seal() {
	go func() {
		_ = a.group.Wait()
		close(a.done)
	}()
}

// Generation is the table generation the activation was started for
func (a *Activation) Generation() uint64 { return a.generation }

// Requests returns the number of HTTP requests issued so far
func (a *Activation) Requests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

// Done is closed once every request has completed and been merged
func (a *Activation) Done() <-chan struct{} { return a.done }

// Wait blocks until the activation is done or ctx is canceled
func (a *Activation) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loader runs dashboard activations against a Fetcher
type Loader struct {
	fetcher Fetcher
	table   *Table
}

// NewLoader creates a loader that fills table from f
func NewLoader(f Fetcher, table *Table) *Loader {
	return &Loader{fetcher: f, table: table}
}

// Table returns the table the loader fills
func (l *Loader) Table() *Table { return l.table }

// LoadDeviceList starts a new activation: the table is reset, the device
// list is requested and, once rendered, every row is enriched. It returns
// immediately.
func (l *Loader) LoadDeviceList(ctx context.Context) *Activation {
	gen := l.table.Reset()
	logging.LogActivation(gen, "dashboard")

	act := newActivation(gen)
	act.goRequest(func() {
		names, err := FetchDeviceList(ctx, l.fetcher)
		if err != nil {
			return
		}
		if !l.table.Render(gen, names) {
			logging.Debug("discarding stale device list", zap.Uint64("generation", gen))
			return
		}
		l.refresh(ctx, act)
	})
	act.seal()
	return act
}

// RefreshRowDetails issues the two per-row requests for every current row,
// without re-enumerating.
func (l *Loader) RefreshRowDetails(ctx context.Context) *Activation {
	act := newActivation(l.table.Generation())
	l.refresh(ctx, act)
	act.seal()
	return act
}

func (l *Loader) refresh(ctx context.Context, act *Activation) {
	for _, target := range l.table.RefreshTargets() {
		act.goRequest(func() {
			l.table.Apply(FetchDetails(ctx, l.fetcher, target))
		})
		act.goRequest(func() {
			l.table.Apply(FetchExternalLock(ctx, l.fetcher, target))
		})
	}
}
