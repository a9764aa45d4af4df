package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Server represents a discovered OpenDCT web application on the network
type Server struct {
	// Instance is the advertised service instance name (e.g., "OpenDCT on mediabox")
	Instance string

	// Hostname is the mDNS hostname (e.g., "mediabox.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the web application port (typically 9091)
	Port int

	// Path is the web application root (e.g., "/opendct")
	Path string

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the server was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the server
func (s *Server) String() string {
	return fmt.Sprintf("OpenDCT %s (%s) at %s", s.Instance, s.Hostname, s.BaseURL())
}

// BaseURL returns the web application base URL
func (s *Server) BaseURL() string {
	return "http://" + net.JoinHostPort(s.IP, strconv.Itoa(s.Port)) + s.Path
}

// Name returns a registry-friendly name derived from the hostname
func (s *Server) Name() string {
	name := strings.TrimSuffix(strings.TrimSuffix(s.Hostname, "."), ".local")
	if name == "" {
		name = s.IP
	}
	return strings.ToLower(name)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Server) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
