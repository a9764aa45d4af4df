// Package urls provides centralized constants for the documentation URLs shown
// in troubleshooting hints and the about panel.
//
// Usage:
//
//	import "github.com/muurk/dctdash/internal/urls"
//
//	fmt.Printf("See: %s\n", urls.WebInterface)
package urls
