// Package http provides the HTTP transport used to talk to the spotidown
// backend and to retrieve the files it produces.
//
// The Client in this package handles:
//   - JSON request/response exchanges
//   - User-Agent and X-Request-ID headers
//   - File downloads with progress tracking
//   - Timeout handling
//
// NewClient applies one deadline to the whole exchange, body included. File
// transfers use NewStreamingClient, which only bounds connecting and
// waiting for headers.
//
// # Basic Usage
//
//	client := http.NewClient(2 * time.Minute)
//
//	// POST a JSON body and inspect the raw response
//	resp, err := client.DoJSON(ctx, "POST", base+"/api/info", map[string]string{"url": link})
//	if err == nil && resp.OK() {
//	    err = resp.Decode(&info)
//	}
//
//	// Save a file into a directory, named after Content-Disposition
//	files := http.NewStreamingClient(2 * time.Minute)
//	path, n, err := files.DownloadToDir(ctx, fileURL, "/music", func(written, total int64) {
//	    fmt.Printf("%d/%d\n", written, total)
//	})
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
