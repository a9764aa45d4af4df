// Package dashboard builds the capture device table shown on the dashboard
// panel.
//
// A dashboard activation runs in two phases:
//
//  1. One enumeration request lists device names. One row per name is
//     appended in response order with only the name cell set, and the table
//     becomes sortable (ascending by name unless configured otherwise).
//  2. For every row, read from the table's name cells at that moment, two
//     independent requests are issued: device details and the external-lock
//     probe. Each response is merged into its own row when it arrives and the
//     table is resorted.
//
// The two per-row responses may land in either order. With the default
// LockFirstArrival policy the lock cell is computed once, when the lock
// response arrives, from whatever status is known at that moment. A lock
// response that beats the details response therefore yields "Locked" or
// "Available" and keeps it. LockRederive recomputes the lock cell whenever
// either response lands.
//
// Failures are silent: a failed request leaves its cells empty, nothing is
// retried, and the error is only logged.
//
// The Table is safe for concurrent use. Loader drives an activation with
// goroutines; front ends with their own scheduler (Bubble Tea) can use
// FetchDeviceList, FetchDetails, FetchExternalLock and Table.Apply directly.
package dashboard
