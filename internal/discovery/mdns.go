package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/dctdash/internal/logging"
)

const (
	// ServiceType is the mDNS service type OpenDCT's web server is found under
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for server discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is OpenDCT's default web port
	DefaultPort = 9091

	// DefaultPath is OpenDCT's default web application root
	DefaultPath = "/opendct"

	marker = "opendct"
)

// Scanner handles mDNS server discovery
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for OpenDCT servers until the timeout or ctx ends.
// Servers are returned in discovery order, one per base URL.
func (s *Scanner) Scan(ctx context.Context) ([]*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	var (
		mu      sync.Mutex
		servers []*Server
		seen    = make(map[string]bool)
	)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			server := parseServiceEntry(entry)
			if server == nil {
				continue
			}
			mu.Lock()
			if !seen[server.BaseURL()] {
				seen[server.BaseURL()] = true
				servers = append(servers, server)
				logging.Debug("Discovered OpenDCT server",
					zap.String("instance", server.Instance),
					zap.String("url", server.BaseURL()),
				)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Server(nil), servers...), nil
}

// parseServiceEntry converts a zeroconf service entry to a Server.
// Returns nil if the entry does not look like OpenDCT.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Server {
	if entry == nil {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	if !isOpenDCT(entry, metadata) {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	path := metadata["path"]
	if path == "" || path == "/" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return &Server{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Path:         strings.TrimRight(path, "/"),
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

func isOpenDCT(entry *zeroconf.ServiceEntry, metadata map[string]string) bool {
	for _, s := range []string{entry.Instance, entry.HostName, metadata["path"], metadata["product"]} {
		if strings.Contains(strings.ToLower(s), marker) {
			return true
		}
	}
	return false
}

// ScanForServers is a convenience function to scan with a custom timeout
func ScanForServers(ctx context.Context, timeout time.Duration) ([]*Server, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}
