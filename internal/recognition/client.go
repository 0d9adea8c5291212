// Package recognition is the client for the remote face-recognition and
// attendance service.
package recognition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client represents a client for the recognition service API
type Client struct {
	URL        string
	parsedURL  *url.URL
	prefix     string
	httpClient *http.Client
	captureDir string
}

// New creates a new recognition service client. prefix is prepended to every
// endpoint path (e.g. "api" when the service sits behind a reverse proxy).
func New(rawURL, prefix string) (*Client, error) {
	return NewWithCapture(rawURL, prefix, "")
}

// NewWithCapture creates a new client with optional response capturing.
// Pass an empty captureDir to disable capturing.
func NewWithCapture(rawURL, prefix, captureDir string) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: recognition API URL is required", ErrValidation)
	}
	parsed, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid recognition API URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid recognition API URL %q: scheme must be http or https", rawURL)
	}

	c := &Client{
		URL:        parsed.String(),
		parsedURL:  parsed,
		prefix:     strings.Trim(prefix, "/"),
		httpClient: http.DefaultClient,
	}
	if captureDir != "" {
		if err := c.SetCaptureDir(captureDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// resolveURL builds a full URL from the base URL, the configured prefix and the
// endpoint. A query string in the endpoint (e.g. "attendance?limit=10") is kept.
func (c *Client) resolveURL(endpoint string) string {
	segments := []string{}
	if c.prefix != "" {
		segments = append(segments, c.prefix)
	}
	pathPart, query, hasQuery := strings.Cut(endpoint, "?")
	segments = append(segments, pathPart)

	result := c.parsedURL.JoinPath(segments...)
	if hasQuery {
		result.RawQuery = query
	}
	return result.String()
}

// readErrorBody reads the response body for error messages.
// Returns empty string if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return strings.TrimSpace(string(body))
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves the API response body to a file if capturing is enabled.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	endpoint, _, _ = strings.Cut(endpoint, "?")
	filename := strings.ReplaceAll(endpoint, "/", "_")
	filename = strings.TrimPrefix(filename, "_")
	timestamp := time.Now().Format("20060102_150405")
	filename = fmt.Sprintf("%s_%s.json", filename, timestamp)

	path := filepath.Join(c.captureDir, filename)

	// Pretty-print JSON if possible
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	// WriteFile error is non-critical for capturing - log and continue
	if err := os.WriteFile(path, body, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to capture response to %s: %v\n", path, err)
	}
}
