package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/dctdash/internal/dashboard"
	"github.com/muurk/dctdash/internal/urls"
	"github.com/muurk/dctdash/internal/version"
)

const pendingGroup = "(pending)"

// renderGroups lists rows grouped by one column
func renderGroups(t *dashboard.Table, col dashboard.Column, noun string) string {
	groups := t.Groups(col)
	if len(groups) == 0 {
		return EmptyStyle.Render("No capture devices loaded. Open the dashboard or press r to reload.")
	}

	var b strings.Builder
	for _, g := range groups {
		name := g.Name
		if name == "" {
			name = pendingGroup
		}
		b.WriteString(GroupHeaderStyle.Render(fmt.Sprintf("%s %s (%d)", noun, name, len(g.Rows))))
		b.WriteString("\n")
		for _, row := range g.Rows {
			line := fmt.Sprintf("  %-40s %-8s %s",
				row.Cell(dashboard.ColumnName),
				row.Cell(dashboard.ColumnStatus),
				RenderLock(row.Cell(dashboard.ColumnLock)),
			)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// aboutInfo is what the about panel shows
type aboutInfo struct {
	Server     string
	Policy     dashboard.LockPolicy
	Order      dashboard.SortOrder
	Refresh    string
	Generation uint64
	Requests   int
}

func renderAbout(info aboutInfo) string {
	field := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), value)
	}

	lines := []string{
		RenderTitle("dctdash " + version.Full()),
		RenderSubtitle("Live capture device status for OpenDCT"),
		"",
		field("Server", info.Server),
		field("Lock policy", info.Policy.String()),
		field("Sort", info.Order.String()),
		field("Auto refresh", info.Refresh),
		field("Activation", fmt.Sprintf("#%d, %d requests", info.Generation, info.Requests)),
	}

	links := strings.Join([]string{
		field("Project", urls.Project),
		field("Wiki", urls.Wiki),
		field("Issues", urls.Issues),
	}, "\n")

	return strings.Join(lines, "\n") + "\n" + InfoBoxStyle.Render(links)
}
