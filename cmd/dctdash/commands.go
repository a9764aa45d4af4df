package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/dctdash/internal/config"
	"github.com/muurk/dctdash/internal/dashboard"
	"github.com/muurk/dctdash/internal/discovery"
	"github.com/muurk/dctdash/internal/logging"
	"github.com/muurk/dctdash/internal/restapi"
	"github.com/muurk/dctdash/internal/tui"
	"github.com/muurk/dctdash/internal/webui"
)

// Global flags; the resolved values live in settings
var (
	configPath   string
	outputFormat string
	saveServers  bool
)

var (
	settings config.Settings
	registry *config.Registry
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default is the user config dir)")
	flags.String("server", "", "OpenDCT server name or URL (e.g. 192.168.1.20 or http://host:9091/opendct)")
	flags.String("panel", "", "Initial panel, as a URL fragment (dashboard, lineups, pools, about)")
	flags.Duration("timeout", restapi.DefaultTimeout, "Per-request timeout (0 disables it)")
	flags.String("sort", "", "Sort column (name, status, lock, lineup, pool)")
	flags.Bool("desc", false, "Sort descending")
	flags.String("lock-policy", "", "Lock column policy (first-arrival, rederive)")
	flags.Duration("refresh", 0, "Reload the dashboard at this interval (0 disables it)")
	flags.String("log-level", "", "Log level (debug, info, warn, error); silent when empty")
	flags.String("log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serversCmd)
}

// setup resolves settings and the server registry for every command
func setup(cmd *cobra.Command, args []string) error {
	var err error
	settings, err = config.LoadSettings(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := logging.Initialize(settings.LogLevel, settings.LogFile); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	registry, err = config.Open(configPath)
	if err != nil {
		return err
	}
	return nil
}

// newClient builds the REST client for the selected server
func newClient() (*restapi.Client, error) {
	baseURL, err := registry.Resolve(settings.Server)
	if err != nil {
		return nil, err
	}
	client := restapi.NewClient(baseURL)
	client.SetTimeout(settings.Timeout)
	logging.Debug("Using OpenDCT server", zap.String("url", baseURL), zap.Duration("timeout", settings.Timeout))
	return client, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// tuiCmd launches the interactive dashboard
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	Long: `Launch the interactive dashboard.

The dashboard loads every capture device of the server when it becomes
visible. Use 1-4 or tab to switch panels, r to reload, s and S to sort.`,
	Example: `  # Dashboard for the default server
  dctdash
  # Or explicitly:
  dctdash tui

  # Start on the pools panel of a specific server
  dctdash --server 192.168.1.20 --panel '#pools'

  # Reload every 30 seconds
  dctdash --refresh 30s`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	model := tui.NewAppModel(tui.Options{
		Context:  ctx,
		Fetcher:  client,
		Table:    dashboard.NewTable(settings.TableOptions()...),
		Server:   client.BaseURL,
		Fragment: settings.Panel,
		Refresh:  settings.Refresh,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}

// showCmd prints the dashboard once
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the dashboard once",
	Long: `Load the dashboard once, wait for every device request to finish and
print the result.

Devices whose requests failed keep empty cells. An unreachable server
prints an empty table.`,
	Example: `  # Table output
  dctdash show --server 192.168.1.20

  # JSON output for scripting
  dctdash show --format json`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format (table, json)")
}

func runShow(cmd *cobra.Command, args []string) error {
	if outputFormat != "table" && outputFormat != "json" {
		return fmt.Errorf("unknown format %q (want table or json)", outputFormat)
	}
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	t := dashboard.NewTable(settings.TableOptions()...)
	act := dashboard.NewLoader(client, t).LoadDeviceList(ctx)
	if err := act.Wait(ctx); err != nil {
		return err
	}

	snap := t.Snapshot()
	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), snap)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderSnapshot(snap, terminalWidth()))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// terminalWidth returns the stdout width, or 0 when stdout is not a terminal
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderSnapshot(snap dashboard.Snapshot, width int) string {
	headers := make([]string, 0, dashboard.NumColumns)
	for _, col := range dashboard.Columns {
		headers = append(headers, col.Title())
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, row := range snap.Rows {
		cells := row.Cells
		cells[dashboard.ColumnLock] = tui.RenderLock(cells[dashboard.ColumnLock])
		t.Row(cells[:]...)
	}
	if width > 0 {
		t.Width(width)
	}
	return t.String()
}

// serveCmd runs the web mirror
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard to browsers",
	Long: `Serve a live web mirror of the dashboard.

Every browser tab gets its own panel selection and table; the dashboard
loads whenever a tab shows it. GET /api/dashboard returns one loaded table
as JSON.`,
	Example: `  # Listen on the default address
  dctdash serve --server 192.168.1.20

  # Listen on another port
  dctdash serve --listen 127.0.0.1:8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", config.DefaultListen, "Listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	srv := webui.NewServer(settings.Listen, client, webui.Options{
		Server:       client.BaseURL,
		TableOptions: settings.TableOptions(),
	})
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start web mirror: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving the %s dashboard on http://%s\n", client.BaseURL, srv.Addr())

	ctx, cancel := signalContext()
	defer cancel()
	<-ctx.Done()

	fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
	return srv.Stop()
}

// scanCmd discovers OpenDCT servers on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for OpenDCT servers on the network",
	Long: `Scan for OpenDCT web servers using mDNS/DNS-SD discovery.

Found servers can be saved to the registry and selected with --server.`,
	Example: `  # Scan for 5 seconds (default)
  dctdash scan

  # Longer scan, saving what is found
  dctdash scan --discover-timeout 15s --save`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Duration("discover-timeout", config.DefaultDiscoverTimeout, "How long to listen for announcements")
	scanCmd.Flags().BoolVar(&saveServers, "save", false, "Save discovered servers to the registry")
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning for OpenDCT servers (timeout: %s)...\n\n", settings.DiscoverTimeout)

	ctx, cancel := signalContext()
	defer cancel()

	servers, err := discovery.ScanForServers(ctx, settings.DiscoverTimeout)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(servers) == 0 {
		fmt.Fprintln(out, "No servers found.")
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Ensure the OpenDCT web interface is enabled")
		fmt.Fprintln(out, "  - Check that this machine is on the same network segment")
		fmt.Fprintln(out, "  - Try increasing --discover-timeout")
		fmt.Fprintln(out, "  - Use --server to give the address directly")
		return nil
	}

	fmt.Fprintf(out, "Found %d server(s):\n\n", len(servers))
	now := time.Now()
	for i, s := range servers {
		fmt.Fprintf(out, "%d. %s\n", i+1, s.Name())
		fmt.Fprintf(out, "   URL:      %s\n", s.BaseURL())
		fmt.Fprintf(out, "   Instance: %s\n", s.Instance)
		fmt.Fprintln(out)

		if saveServers {
			if _, err := registry.AddServer(s.Name(), s.BaseURL(), config.SourceMDNS); err != nil {
				return fmt.Errorf("failed to save %s: %w", s.Name(), err)
			}
			registry.UpdateServerLastSeen(s.Name(), now)
		}
	}

	if saveServers {
		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save registry: %w", err)
		}
		fmt.Fprintf(out, "Saved %d server(s) to %s\n", len(servers), registry.Path())
	}
	fmt.Fprintln(out, "Use 'dctdash --server <name>' to open a server's dashboard")
	return nil
}
