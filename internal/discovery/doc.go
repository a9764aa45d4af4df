// Package discovery finds OpenDCT web servers on the local network with
// multicast DNS.
//
// The scanner browses "_http._tcp" services and keeps the ones whose
// instance name, hostname or TXT records mention OpenDCT. A TXT "path" record
// sets the web application root; otherwise "/opendct" on port 9091 is assumed.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Servers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
