package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/muurk/dctdash/internal/dashboard"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("server", "", "")
	flags.String("sort", "name", "")
	flags.Bool("desc", false, "")
	flags.String("lock-policy", "first-arrival", "")
	flags.Duration("refresh", 0, "")
	flags.Duration("timeout", 0, "")
	flags.Bool("verbose", false, "")
	return flags
}

func TestLoadSettingsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := LoadSettings(path, nil)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if cfg != DefaultSettings() {
		t.Errorf("settings = %+v, want defaults %+v", cfg, DefaultSettings())
	}
}

func TestLoadSettingsPrecedence(t *testing.T) {
	path := writeConfig(t, `version: 1
server: from-file
sort: pool
lock-policy: rederive
refresh: 30s
timeout: 5s
servers:
  from-file:
    url: http://10.0.0.1:9091/opendct
`)

	t.Setenv("DCTDASH_SORT", "lineup")
	t.Setenv("DCTDASH_TIMEOUT", "7s")

	flags := testFlags()
	if err := flags.Parse([]string{"--timeout=9s", "--desc"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadSettings(path, flags)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if cfg.Server != "from-file" {
		t.Errorf("Server = %q, want file value", cfg.Server)
	}
	if cfg.Sort != "lineup" {
		t.Errorf("Sort = %q, want env value over file", cfg.Sort)
	}
	if cfg.Timeout != 9*time.Second {
		t.Errorf("Timeout = %v, want flag value over env", cfg.Timeout)
	}
	if cfg.Refresh != 30*time.Second {
		t.Errorf("Refresh = %v, want 30s from file", cfg.Refresh)
	}
	if !cfg.Descending {
		t.Error("Descending should come from the flag")
	}
	// Unchanged flag defaults must not mask the file
	if cfg.LockPolicy != "rederive" {
		t.Errorf("LockPolicy = %q, want file value", cfg.LockPolicy)
	}

	order, _ := cfg.SortOrder()
	if order != (dashboard.SortOrder{Column: dashboard.ColumnLineup, Descending: true}) {
		t.Errorf("SortOrder() = %v", order)
	}
	policy, _ := cfg.Policy()
	if policy != dashboard.LockRederive {
		t.Errorf("Policy() = %v, want rederive", policy)
	}
}

func TestLoadSettingsInvalid(t *testing.T) {
	tests := map[string]string{
		"sort":    "sort: tuner\n",
		"policy":  "lock-policy: latest\n",
		"refresh": "refresh: -5s\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadSettings(writeConfig(t, content), nil); err == nil {
				t.Error("LoadSettings() should fail")
			}
		})
	}
}

func TestLoadSettingsBadFile(t *testing.T) {
	if _, err := LoadSettings(writeConfig(t, "sort: [\n"), nil); err == nil {
		t.Error("LoadSettings() should fail on malformed YAML")
	}
}
