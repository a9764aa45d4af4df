package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/dctdash/internal/dashboard"
	"github.com/muurk/dctdash/internal/router"
	"github.com/muurk/dctdash/internal/urls"
	"github.com/muurk/dctdash/internal/version"
)

// Application branding constants
const (
	AppName = "OPENDCT DASHBOARD"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72 // Minimum supported terminal width
	chromeHeight     = 8  // Outer border, header, nav, status and footer lines
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	TextColor   = lipgloss.Color("#FFFFFF") // White
	SubtleColor = lipgloss.Color("#626262") // Gray
	BorderColor = lipgloss.Color("#7D56F4") // Purple (same as primary)
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	// Navigation entries
	NavItemStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 1)

	ActiveNavItemStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(PrimaryColor).
				Bold(true).
				Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	GroupHeaderStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true).
				MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(16)

	InfoBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2).
			MarginTop(1)

	EmptyStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Padding(1, 2)
)

// lockStyles color the lock column outside the device table
var lockStyles = map[string]lipgloss.Style{
	dashboard.LockAvailable: lipgloss.NewStyle().Foreground(SecondaryColor),
	dashboard.LockSageTV:    lipgloss.NewStyle().Foreground(PrimaryColor),
	dashboard.LockExternal:  lipgloss.NewStyle().Foreground(WarningColor),
	dashboard.LockLocked:    lipgloss.NewStyle().Foreground(ErrorColor),
}

// RenderLock colors lock cell text
func RenderLock(text string) string {
	if style, ok := lockStyles[text]; ok {
		return style.Render(text)
	}
	return text
}

// RenderTitle renders a title with consistent styling
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderSubtitle renders a subtitle with consistent styling
func RenderSubtitle(text string) string {
	return SubtitleStyle.Render(text)
}

// RenderNav renders the navigation entries, marking the active one.
// With no active entry nothing is highlighted.
func RenderNav(panels []router.Panel, active string) string {
	items := make([]string, 0, len(panels))
	for i, p := range panels {
		label := string(rune('1'+i)) + " " + p.Title
		if p.ID == active {
			items = append(items, ActiveNavItemStyle.Render(label))
		} else {
			items = append(items, NavItemStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, items...)
}

// BuildHeaderContent creates header content with app name and project URL
func BuildHeaderContent(server string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(strings.TrimPrefix(server, "http://"))

	if server == "" {
		right = lipgloss.NewStyle().Foreground(SubtleColor).Render(strings.TrimPrefix(urls.Project, "https://"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps a panel with the header, navigation and
// footer, filling the terminal.
func RenderApplicationContainer(header, nav, content, footerText string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= 0 || terminalHeight <= 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footerText)
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4). // Leave room for outer border
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Foreground(SubtleColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	innerContent := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, nav)),
		contentStyle.Render(content),
		footerStyle.Render(footerText),
	)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top)

	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Left,
		lipgloss.Top,
		borderStyle.Render(innerContent),
	)
}

// contentHeight is the space left for a panel body
func contentHeight(terminalHeight int) int {
	h := terminalHeight - chromeHeight
	if h < 3 {
		return 3
	}
	return h
}

// contentWidth is the usable width inside the container
func contentWidth(terminalWidth int) int {
	if terminalWidth < MinTerminalWidth {
		return MinTerminalWidth - 4
	}
	return terminalWidth - 4
}
