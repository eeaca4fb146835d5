// Package feed downloads remote blocklists over HTTP(S).
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 64 << 20
)

// ErrTooLarge is returned when a list exceeds Options.MaxBytes.
var ErrTooLarge = errors.New("feed: list exceeds size limit")

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	// HTTPClient overrides the transport; its Timeout is left as is.
	HTTPClient *http.Client
}

// Client fetches list bodies. It satisfies listsource.Fetcher.
type Client struct {
	http      *http.Client
	maxBytes  int64
	userAgent string
}

// New returns a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{http: hc, maxBytes: opts.MaxBytes, userAgent: opts.UserAgent}
}

// Fetch GETs url and returns the body. Any status outside 2xx is an error.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return "", ErrTooLarge
	}
	return string(body), nil
}
