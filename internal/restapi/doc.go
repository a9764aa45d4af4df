// Package restapi is a client for the OpenDCT capture-device REST API.
//
// Only the three read-only endpoints needed by the dashboard are covered:
//
//	GET /rest/capturedevice                                   -> ["name", ...]
//	GET /rest/capturedevice/{name}/details                    -> Details
//	GET /rest/capturedevice/{name}/method/isExternalLocked    -> LockState
//
// Paths are relative to the web application base URL, for example
// "http://mediaserver:9091/opendct". Device names are path-escaped.
//
// # Error Handling
//
// Every failure is returned as an *APIError classified by ErrorType:
//
//	names, err := client.CaptureDevices(ctx)
//	if restapi.IsNetworkError(err) {
//	    fmt.Println(restapi.ShortMessage(err))
//	}
//
// The client never retries. There is no request timeout unless one is set
// with SetTimeout; cancelling the context aborts a request.
package restapi
