package config

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/muurk/dctdash/internal/restapi"
)

// Server sources
const (
	SourceManual = "manual"
	SourceMDNS   = "mdns"
)

// DefaultWebPort and DefaultWebPath are used to complete a bare host
const (
	DefaultWebPort = "9091"
	DefaultWebPath = "/opendct"
)

// Registry represents the entire user configuration file.
// Preferences are stored at the top level so the same keys can be read as
// settings.
type Registry struct {
	Version     int                `yaml:"version"`
	Preferences `yaml:",inline"`
	Servers     map[string]*Server `yaml:"servers,omitempty"` // Keyed by server name

	path string
}

// Server is a known OpenDCT web application
type Server struct {
	URL      string    `yaml:"url"`                 // Web application base URL
	Source   string    `yaml:"source,omitempty"`    // manual or mdns
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery time
}

// Preferences are the persisted defaults for command-line settings.
// Durations are stored as strings such as "30s".
type Preferences struct {
	Server          string `yaml:"server,omitempty"`           // Server name or URL used when --server is not given
	Panel           string `yaml:"panel,omitempty"`            // Initial panel
	Sort            string `yaml:"sort,omitempty"`             // Sort column
	Descending      bool   `yaml:"desc,omitempty"`             // Reverse sort
	LockPolicy      string `yaml:"lock-policy,omitempty"`      // first-arrival or rederive
	Refresh         string `yaml:"refresh,omitempty"`          // Auto reload interval
	Timeout         string `yaml:"timeout,omitempty"`          // Request timeout
	Listen          string `yaml:"listen,omitempty"`           // Web mirror address
	DiscoverTimeout string `yaml:"discover-timeout,omitempty"` // mDNS browse duration
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Servers: make(map[string]*Server),
	}
}

// Path returns the file the registry was loaded from, if any
func (r *Registry) Path() string {
	return r.path
}

// GetServer retrieves a server by name.
// Returns nil if the server doesn't exist in the registry.
func (r *Registry) GetServer(name string) *Server {
	return r.Servers[name]
}

// AddServer registers or replaces a server
func (r *Registry) AddServer(name, rawURL, source string) (*Server, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("server name cannot be empty")
	}
	if strings.Contains(name, "://") {
		return nil, fmt.Errorf("server name %q looks like a URL", name)
	}

	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	if r.Servers == nil {
		r.Servers = make(map[string]*Server)
	}
	server := &Server{URL: normalized, Source: source}
	if existing, ok := r.Servers[name]; ok {
		server.LastSeen = existing.LastSeen
	}
	r.Servers[name] = server
	return server, nil
}

// RemoveServer removes a server, reporting whether it existed. A default
// server preference naming it is cleared.
func (r *Registry) RemoveServer(name string) bool {
	if _, ok := r.Servers[name]; !ok {
		return false
	}
	delete(r.Servers, name)
	if r.Preferences.Server == name {
		r.Preferences.Server = ""
	}
	return true
}

// UpdateServerLastSeen records a discovery time for a server
func (r *Registry) UpdateServerLastSeen(name string, seen time.Time) {
	if server, ok := r.Servers[name]; ok {
		server.LastSeen = seen
	}
}

// ServerNames returns all server names, sorted
func (r *Registry) ServerNames() []string {
	names := make([]string, 0, len(r.Servers))
	for name := range r.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve turns a server name, URL or host into a web application base URL.
// An empty value falls back to the default server preference, then to the
// local default.
func (r *Registry) Resolve(nameOrURL string) (string, error) {
	value := strings.TrimSpace(nameOrURL)
	if value == "" {
		value = r.Preferences.Server
	}
	if value == "" {
		return restapi.DefaultBaseURL, nil
	}
	if server, ok := r.Servers[value]; ok {
		return server.URL, nil
	}
	return NormalizeURL(value)
}

// NormalizeURL completes a host, host:port or URL into a base URL.
// A bare host gets the default port and path.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("server URL cannot be empty")
	}

	if !strings.Contains(raw, "://") {
		host := raw
		path := DefaultWebPath
		if i := strings.IndexByte(raw, '/'); i >= 0 {
			host, path = raw[:i], raw[i:]
		}
		if _, _, err := net.SplitHostPort(host); err != nil {
			host = net.JoinHostPort(host, DefaultWebPort)
		}
		raw = "http://" + host + path
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
