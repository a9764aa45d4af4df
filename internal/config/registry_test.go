package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/dctdash/internal/restapi"
)

func TestGetConfigDir(t *testing.T) {
	t.Setenv(ConfigDirEnvVar, "")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "dctdash") {
		t.Errorf("GetConfigDir() = %v, should contain 'dctdash'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigDirEnvVar, dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if got != dir {
		t.Errorf("GetConfigDir() = %v, want %v", got, dir)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if path != filepath.Join(dir, "config.yaml") {
		t.Errorf("GetConfigPath() = %v", path)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Servers == nil {
		t.Error("NewRegistry().Servers should not be nil")
	}
	if reg.Preferences.Server != "" {
		t.Errorf("default server = %q, want empty", reg.Preferences.Server)
	}
}

func TestRegistryAddServer(t *testing.T) {
	reg := NewRegistry()

	server, err := reg.AddServer("basement", "192.168.1.20", SourceManual)
	if err != nil {
		t.Fatalf("AddServer() error = %v", err)
	}
	if server.URL != "http://192.168.1.20:9091/opendct" {
		t.Errorf("URL = %v, want completed URL", server.URL)
	}

	seen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	reg.UpdateServerLastSeen("basement", seen)

	// Replacing keeps the last seen time
	if _, err := reg.AddServer("basement", "http://10.0.0.5:9091/opendct/", SourceMDNS); err != nil {
		t.Fatalf("AddServer() error = %v", err)
	}
	got := reg.GetServer("basement")
	if got.URL != "http://10.0.0.5:9091/opendct" || got.Source != SourceMDNS {
		t.Errorf("replaced server = %+v", got)
	}
	if !got.LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v, want %v", got.LastSeen, seen)
	}

	for _, bad := range []struct{ name, url string }{
		{"", "host"},
		{"http://x", "host"},
		{"x", ""},
		{"x", "ftp://host/opendct"},
	} {
		if _, err := reg.AddServer(bad.name, bad.url, SourceManual); err == nil {
			t.Errorf("AddServer(%q, %q) should fail", bad.name, bad.url)
		}
	}
}

func TestRegistryRemoveServer(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.AddServer("a", "host-a", SourceManual)
	_, _ = reg.AddServer("b", "host-b", SourceManual)
	reg.Preferences.Server = "a"

	if !reg.RemoveServer("a") {
		t.Error("RemoveServer(a) = false")
	}
	if reg.RemoveServer("a") {
		t.Error("second RemoveServer(a) = true")
	}
	if reg.Preferences.Server != "" {
		t.Errorf("default server = %q, want cleared", reg.Preferences.Server)
	}
	if names := reg.ServerNames(); len(names) != 1 || names[0] != "b" {
		t.Errorf("ServerNames() = %v, want [b]", names)
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.AddServer("basement", "http://192.168.1.20:9091/opendct", SourceManual)

	tests := []struct {
		name  string
		in    string
		def   string
		want  string
		error bool
	}{
		{"default", "", "", restapi.DefaultBaseURL, false},
		{"default preference", "", "basement", "http://192.168.1.20:9091/opendct", false},
		{"by name", "basement", "", "http://192.168.1.20:9091/opendct", false},
		{"url", "https://dct.example.com/opendct/", "", "https://dct.example.com/opendct", false},
		{"host", "tv.local", "", "http://tv.local:9091/opendct", false},
		{"host and port", "tv.local:8080", "", "http://tv.local:8080/opendct", false},
		{"host with path", "tv.local/dct", "", "http://tv.local:9091/dct", false},
		{"bad scheme", "ftp://tv.local", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg.Preferences.Server = tt.def
			got, err := reg.Resolve(tt.in)
			if (err != nil) != tt.error {
				t.Fatalf("Resolve(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	_, _ = reg.AddServer("basement", "192.168.1.20", SourceManual)
	reg.Preferences.Server = "basement"
	reg.Preferences.LockPolicy = "rederive"
	reg.Preferences.Refresh = "30s"

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	if reg.Path() != path {
		t.Errorf("Path() = %v, want %v", reg.Path(), path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain")
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if loaded.GetServer("basement") == nil || loaded.GetServer("basement").URL != "http://192.168.1.20:9091/opendct" {
		t.Errorf("loaded server = %+v", loaded.GetServer("basement"))
	}
	if loaded.Preferences != reg.Preferences {
		t.Errorf("loaded preferences = %+v, want %+v", loaded.Preferences, reg.Preferences)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "lock-policy: rederive") {
		t.Errorf("preferences should be stored at top level:\n%s", data)
	}
}

func TestLoadRegistryFromMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Version != 1 || len(reg.Servers) != 0 {
		t.Errorf("registry = %+v, want empty default", reg)
	}
	if reg.Path() != path {
		t.Errorf("Path() = %v, want %v", reg.Path(), path)
	}
}

func TestLoadRegistryFromInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"version": "version: 2\n",
		"yaml":    "servers: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadRegistryFrom(path); err == nil {
				t.Error("LoadRegistryFrom() should fail")
			}
		})
	}
}
