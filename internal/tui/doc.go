// Package tui implements the interactive terminal dashboard.
//
// The application is a Bubble Tea program with four panels (dashboard,
// lineups, pools, about) selected through internal/router. Whenever the
// dashboard panel becomes visible, including at startup, a new activation is
// started: the device list is requested, rows are rendered, and two requests
// per row are issued as independent commands. Each response is merged into
// the shared dashboard.Table in Update, in arrival order, and the
// bubbles/table widget is rebuilt from a snapshot.
//
// Switching away from the dashboard does not cancel anything. Results that
// arrive while another panel is shown are still merged, so the lineups and
// pools panels fill in as responses land.
//
// # Usage Example
//
//	app := tui.NewAppModel(tui.Options{
//	    Fetcher:  restapi.NewClient("http://192.168.1.20:9091/opendct"),
//	    Fragment: "#dashboard",
//	})
//	program := tea.NewProgram(app, tea.WithAltScreen())
//	if _, err := program.Run(); err != nil {
//	    log.Fatal(err)
//	}
package tui
