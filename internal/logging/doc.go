// Package logging provides structured logging for dctdash.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used by the dashboard front ends and the REST client.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Per-request detail (URLs, durations, decoded payload sizes)
//   - Info: Activations, server lifecycle, discovery results
//   - Warn: Failed requests that leave table cells empty
//   - Error: Fatal issues (startup failures, listener errors)
//
// # Silent By Default
//
// Dashboard failures are never shown to the user. They are only visible
// here, and only when a level has been requested:
//
//	if err := logging.Initialize("debug", "/tmp/dctdash.log"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When neither an explicit level nor DCTDASH_LOG_LEVEL is set the logger is
// a no-op. The interactive dashboard owns stdout, so logs go to stderr or to
// the configured file, never to stdout.
//
// # Structured Logging
//
//	logging.LogRequest("GET", "/rest/capturedevice", 200, 12*time.Millisecond, nil)
//	logging.LogActivation(7, "dashboard")
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
