package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muurk/dctdash/internal/logging"
	"github.com/muurk/dctdash/internal/version"
)

const (
	// DefaultBaseURL is where the OpenDCT web application listens by default
	DefaultBaseURL = "http://localhost:9091/opendct"

	// DefaultTimeout is zero: requests wait as long as the transport allows
	DefaultTimeout time.Duration = 0

	// maxBodySize bounds decoded responses
	maxBodySize = 4 << 20

	devicesPath = "/rest/capturedevice"
)

// Client represents an HTTP client for the OpenDCT REST API
type Client struct {
	// BaseURL is the web application root (e.g., "http://192.168.1.20:9091/opendct")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// UserAgent is sent with every request
	UserAgent string
}

// NewClient creates a new client for the given base URL.
// A trailing slash on baseURL is ignored.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		UserAgent:  version.UserAgent(),
	}
}

// SetTimeout sets the HTTP request timeout (0 disables it)
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// DevicesPath returns the enumeration endpoint path
func DevicesPath() string {
	return devicesPath
}

// DetailsPath returns the details endpoint path for a device
func DetailsPath(name string) string {
	return devicesPath + "/" + url.PathEscape(name) + "/details"
}

// ExternalLockPath returns the external-lock probe path for a device
func ExternalLockPath(name string) string {
	return devicesPath + "/" + url.PathEscape(name) + "/method/isExternalLocked"
}

// CaptureDevices lists capture device names in the order the server returns them
func (c *Client) CaptureDevices(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.getJSON(ctx, DevicesPath(), &names); err != nil {
		return nil, err
	}
	return names, nil
}

// DeviceDetails fetches live status for one device
func (c *Client) DeviceDetails(ctx context.Context, name string) (*Details, error) {
	var details Details
	if err := c.getJSON(ctx, DetailsPath(name), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// ExternalLock probes whether a device is locked outside OpenDCT
func (c *Client) ExternalLock(ctx context.Context, name string) (*LockState, error) {
	var state LockState
	if err := c.getJSON(ctx, ExternalLockPath(name), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Ping checks that the enumeration endpoint answers
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.CaptureDevices(ctx)
	return err
}

// getJSON performs a single GET and decodes the JSON body into out
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	start := time.Now()
	status, err := c.doGet(ctx, path, out)
	logging.LogRequest(http.MethodGet, path, status, time.Since(start), err)
	return err
}

func (c *Client) doGet(ctx context.Context, path string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return 0, NewNetworkError(path, "failed to create GET request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, NewNetworkError(path, "GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return resp.StatusCode, NewHTTPError(path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, NewNetworkError(path, "failed to read response body", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, NewParseError(path, fmt.Sprintf("failed to parse %d byte response", len(body)), err)
	}

	return resp.StatusCode, nil
}
