package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	ioutils "github.com/handiism/spotidown/internal/io"
)

// Client wraps HTTP operations with spotidown-specific configuration.
//
// Every request carries the configured User-Agent and a fresh X-Request-ID
// so a single exchange can be found in backend logs.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client with the given overall request timeout.
//
// A timeout of zero means no timeout. The backend may be cold-starting, so
// callers usually pass something generous.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "spotidown",
	}
}

// NewStreamingClient creates a client for file transfers that may take
// longer than any sensible overall timeout.
//
// headerTimeout bounds dialing and the wait for response headers; reading
// the body is bounded only by the request context. Zero means no limit.
func NewStreamingClient(headerTimeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	if headerTimeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   headerTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}
	return &Client{
		httpClient: &http.Client{Transport: transport},
		userAgent:  "spotidown",
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body as JSON into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("empty response body (HTTP %d)", r.StatusCode)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", r.StatusCode, err)
	}
	return nil
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	// It is -1 when the server did not announce a length.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// DoJSON sends body (JSON-encoded, or no body when nil) and reads the
// whole response.
//
// A non-2xx status is not an error here: the backend puts its error
// message in the body, so the caller decides. Errors are returned only when
// the request could not be made or the body could not be read.
func (c *Client) DoJSON(ctx context.Context, method, rawURL string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns an error if the request fails or the status is not 200 OK.
// Use it for small payloads like cover art.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// DownloadToDir streams a file into dir and returns its path and size.
//
// The file name comes from the Content-Disposition header when present,
// otherwise from the last URL path segment. Content is written to a
// temporary file first and renamed into place, so an interrupted download
// never leaves a truncated file under the final name.
//
// onProgress may be nil.
func (c *Client) DownloadToDir(ctx context.Context, rawURL, dir string, onProgress func(written, total int64)) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	if err := ioutils.EnsureDir(dir); err != nil {
		return "", 0, err
	}

	destPath := filepath.Join(dir, FileNameFor(resp.Header.Get("Content-Disposition"), rawURL))

	tmp, err := os.CreateTemp(dir, ".spotidown-*")
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(tmp.Name())

	var writer io.Writer = tmp
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   tmp,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	n, err := io.Copy(writer, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", n, err
	}

	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return "", n, err
	}
	return destPath, n, nil
}

// FileNameFor picks a local file name for a download.
func FileNameFor(contentDisposition, rawURL string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := ioutils.SanitizeFileName(filepath.Base(params["filename"])); name != "" && name != "." {
				return name
			}
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		base := path.Base(u.Path)
		if unescaped, err := url.PathUnescape(base); err == nil {
			base = unescaped
		}
		if base != "/" && base != "." {
			if name := ioutils.SanitizeFileName(base); name != "" {
				return name
			}
		}
	}

	return "download"
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
}
