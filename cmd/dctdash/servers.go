package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/dctdash/internal/config"
	"github.com/muurk/dctdash/internal/restapi"
)

// checkTimeout bounds the reachability check when no --timeout is set
const checkTimeout = 5 * time.Second

var (
	makeDefault bool
	skipCheck   bool
)

// serversCmd manages the server registry
var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "Manage known OpenDCT servers",
	Long: `List, add and remove the OpenDCT servers stored in the registry.

Registered names can be passed to --server in place of a URL.`,
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered servers",
	Args:  cobra.NoArgs,
	RunE:  runServersList,
}

var serversAddCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Register a server",
	Example: `  # Register a server by host; port 9091 and /opendct are filled in
  dctdash servers add den 192.168.1.20

  # Register and make it the default
  dctdash servers add den http://192.168.1.20:9091/opendct --default`,
	Args: cobra.ExactArgs(2),
	RunE: runServersAdd,
}

var serversRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a registered server",
	Args:  cobra.ExactArgs(1),
	RunE:  runServersRemove,
}

func init() {
	serversAddCmd.Flags().BoolVar(&makeDefault, "default", false, "Use this server when --server is not given")
	serversAddCmd.Flags().BoolVar(&skipCheck, "no-check", false, "Register without checking that the server answers")

	serversCmd.AddCommand(serversListCmd)
	serversCmd.AddCommand(serversAddCmd)
	serversCmd.AddCommand(serversRemoveCmd)
}

func runServersList(cmd *cobra.Command, args []string) error {
	names := registry.ServerNames()
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No servers registered. Use 'dctdash scan --save' or 'dctdash servers add'.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL\tSOURCE\tLAST SEEN")
	for _, name := range names {
		s := registry.GetServer(name)
		marker := ""
		if registry.Preferences.Server == name {
			marker = " *"
		}
		seen := "-"
		if !s.LastSeen.IsZero() {
			seen = s.LastSeen.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", name, marker, s.URL, s.Source, seen)
	}
	return w.Flush()
}

func runServersAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	server, err := registry.AddServer(name, args[1], config.SourceManual)
	if err != nil {
		return err
	}
	if makeDefault {
		registry.Preferences.Server = name
	}
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s at %s\n", name, server.URL)

	if skipCheck {
		return nil
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = checkTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	// The server stays registered either way; an unreachable one only warns
	client := restapi.NewClient(server.URL)
	if err := client.Ping(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), reachabilityWarning(name, err))
	}
	return nil
}

// reachabilityWarning describes a failed check of a registered server
func reachabilityWarning(name string, err error) string {
	var headline string
	switch {
	case restapi.IsNetworkError(err):
		headline = "Warning: %s is not reachable: %s"
	case restapi.IsHTTPError(err):
		headline = "Warning: %s answered with an error: %s"
	case restapi.IsParseError(err):
		headline = "Warning: %s does not look like an OpenDCT server: %s"
	default:
		headline = "Warning: %s could not be checked: %s"
	}
	return fmt.Sprintf(headline, name, restapi.ShortMessage(err)) + "\n\n" + restapi.Hint(err)
}

func runServersRemove(cmd *cobra.Command, args []string) error {
	if !registry.RemoveServer(args[0]) {
		return fmt.Errorf("no server named %q", args[0])
	}
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}
