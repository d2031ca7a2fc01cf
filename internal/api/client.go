package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/handiism/spotidown/internal/api/dto"
	xhttp "github.com/handiism/spotidown/internal/http"
	"github.com/handiism/spotidown/internal/model"
)

const (
	pathInfo          = "/api/info"
	pathDownloadTrack = "/api/download_track"
	pathStartArchive  = "/api/start_zip"
	pathArchiveStatus = "/api/status_zip/"
)

// Client talks to one backend instance.
type Client struct {
	http *xhttp.Client
	base *url.URL
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, httpClient *xhttp.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}
	return &Client{http: httpClient, base: u}, nil
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Resolve turns a backend location into an absolute URL. Absolute
// locations are returned verbatim; relative ones are appended to the base.
func (c *Client) Resolve(location string) string {
	if strings.HasPrefix(location, "//") {
		return c.base.Scheme + ":" + location
	}
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return location
	}
	return c.BaseURL() + "/" + strings.TrimLeft(location, "/")
}

// FetchInfo requests metadata for a track, album or playlist link.
func (c *Client) FetchInfo(ctx context.Context, locator string) (*model.Result, error) {
	var payload dto.JSONResult
	if err := c.exchange(ctx, OpFetchInfo, http.MethodPost, pathInfo, dto.LinkRequest{URL: locator}, &payload); err != nil {
		return nil, err
	}
	result, err := payload.ToResult(locator)
	if err != nil {
		return nil, &TransportError{Op: OpFetchInfo, Err: err}
	}
	return result, nil
}

// DownloadTrack asks the backend to prepare one track and returns the
// absolute location of the produced file.
func (c *Client) DownloadTrack(ctx context.Context, locator string) (string, error) {
	var payload dto.JSONDownload
	if err := c.exchange(ctx, OpDownloadTrack, http.MethodPost, pathDownloadTrack, dto.LinkRequest{URL: locator}, &payload); err != nil {
		return "", err
	}
	if !payload.Succeeded() {
		return "", &ServiceError{Op: OpDownloadTrack, StatusCode: http.StatusOK, Message: payload.Error}
	}
	return c.Resolve(payload.DownloadURL), nil
}

// StartArchive submits a bulk archive job and returns its id.
func (c *Client) StartArchive(ctx context.Context, locator string) (string, error) {
	var payload dto.JSONJobStart
	if err := c.exchange(ctx, OpStartArchive, http.MethodPost, pathStartArchive, dto.LinkRequest{URL: locator}, &payload); err != nil {
		return "", err
	}
	id := payload.ID()
	if id == "" {
		return "", &TransportError{Op: OpStartArchive, Err: fmt.Errorf("response has no task id")}
	}
	return id, nil
}

// ArchiveStatus polls a job once. A completed job's location is resolved
// to an absolute URL.
func (c *Client) ArchiveStatus(ctx context.Context, jobID string) (model.JobUpdate, error) {
	var payload dto.JSONJobStatus
	if err := c.exchange(ctx, OpArchiveStatus, http.MethodGet, pathArchiveStatus+url.PathEscape(jobID), nil, &payload); err != nil {
		return model.JobUpdate{}, err
	}
	update, err := payload.ToUpdate()
	if err != nil {
		return model.JobUpdate{}, &TransportError{Op: OpArchiveStatus, Err: err}
	}
	if update.ResultLocation != "" {
		update.ResultLocation = c.Resolve(update.ResultLocation)
	}
	return update, nil
}

// exchange performs one request and decodes a 2xx body into out. Non-2xx
// responses become a ServiceError carrying the server's message when the
// body has one.
func (c *Client) exchange(ctx context.Context, op, method, path string, in, out any) error {
	resp, err := c.http.DoJSON(ctx, method, c.BaseURL()+path, in)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if !resp.OK() {
		var payload dto.JSONError
		// The body of a failed response is often an HTML error page from a
		// proxy; a decode failure just means there is no server message.
		_ = resp.Decode(&payload)
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Message: payload.Message()}
	}

	if err := resp.Decode(out); err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return nil
}
