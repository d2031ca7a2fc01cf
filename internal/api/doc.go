// Package api is the client for the spotidown backend.
//
// The backend is a black box reachable over four request/response
// exchanges:
//
//	POST /api/info             {url}  -> track or collection metadata
//	POST /api/download_track   {url}  -> {status: "success", download_url}
//	POST /api/start_zip        {url}  -> {task_id}
//	GET  /api/status_zip/{id}         -> {status, progress, percent, download_url, error}
//
// Locations returned by the backend may be relative; the client resolves
// them against its base URL before returning them.
//
// # Errors
//
// Failures are reported as one of two types so callers can pick a message:
//
//	var svcErr *api.ServiceError   // non-2xx or explicit error payload
//	var netErr *api.TransportError // unreachable, timeout, malformed body
//
//	if errors.As(err, &svcErr) {
//	    fmt.Println(svcErr.Message)
//	}
package api
