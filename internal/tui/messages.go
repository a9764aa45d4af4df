package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/dctdash/internal/dashboard"
)

// devicesLoadedMsg carries the enumeration response for one activation
type devicesLoadedMsg struct {
	generation uint64
	names      []string
	err        error
}

// rowResultMsg carries one per-row response
type rowResultMsg struct {
	generation uint64
	result     dashboard.Result
}

// refreshTickMsg triggers an automatic re-activation
type refreshTickMsg struct {
	at time.Time
}

func fetchDevicesCmd(ctx context.Context, f dashboard.Fetcher, generation uint64) tea.Cmd {
	return func() tea.Msg {
		names, err := dashboard.FetchDeviceList(ctx, f)
		return devicesLoadedMsg{generation: generation, names: names, err: err}
	}
}

func fetchDetailsCmd(ctx context.Context, f dashboard.Fetcher, generation uint64, target dashboard.Target) tea.Cmd {
	return func() tea.Msg {
		return rowResultMsg{generation: generation, result: dashboard.FetchDetails(ctx, f, target)}
	}
}

func fetchExternalLockCmd(ctx context.Context, f dashboard.Fetcher, generation uint64, target dashboard.Target) tea.Cmd {
	return func() tea.Msg {
		return rowResultMsg{generation: generation, result: dashboard.FetchExternalLock(ctx, f, target)}
	}
}

func refreshTickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg{at: t}
	})
}
