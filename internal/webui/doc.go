// Package webui serves a live browser mirror of the dashboard.
//
// Every websocket connection is a session with its own router and table, the
// same way every browser tab would have its own page. The page reports its
// URL fragment on connect; selecting the dashboard starts an activation
// exactly like the terminal front end, and every table change is pushed to
// the browser as a snapshot.
//
// Routes:
//
//	GET /               page
//	GET /api/health     liveness
//	GET /api/panels     panel identifiers
//	GET /api/dashboard  one activation, answered once every request settled
//	GET /ws             live session
package webui
