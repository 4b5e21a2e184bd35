// Package share is a read-only client for public file-share trees: paginated
// directory listing and direct download URL resolution. Write access requires
// an OAuth token the tool does not hold, so uploads and cleanup are hard
// errors by contract.
package share

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wb-content-manager/internal/retry"
)

const (
	DefaultBaseURL = "https://cloud-api.yandex.net/v1/disk/public/resources"

	defaultPageSize   = 100
	defaultPageDelay  = 500 * time.Millisecond
	defaultRootDelay  = time.Second
	defaultRetryDelay = 5 * time.Second
	maxAttempts       = 3
)

// Client lists one or more public share roots. All calls are sequential and
// polite: a short delay between pages, a longer one between roots.
type Client struct {
	httpClient *http.Client
	baseURL    string
	roots      []string
	pageSize   int

	pageDelay time.Duration
	rootDelay time.Duration
	policy    retry.Policy

	logf func(format string, args ...any)
}

// Options tunes the client. Zero values select production defaults; tests
// shrink the delays and point BaseURL at a fake server.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	PageSize   int
	PageDelay  time.Duration
	RootDelay  time.Duration
	RetryDelay time.Duration
	Logf       func(format string, args ...any)

	// Sleep overrides the politeness/retry sleeps in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New builds a client over the given root locators (public share URLs).
func New(roots []string, opts Options) *Client {
	c := &Client{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		roots:      trimRoots(roots),
		pageSize:   opts.PageSize,
		pageDelay:  opts.PageDelay,
		rootDelay:  opts.RootDelay,
		logf:       opts.Logf,
	}
	if c.httpClient == nil {
		dialer := &net.Dialer{Timeout: 5 * time.Second}
		c.httpClient = &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	if c.pageDelay == 0 {
		c.pageDelay = defaultPageDelay
	}
	if c.rootDelay == 0 {
		c.rootDelay = defaultRootDelay
	}
	retryDelay := opts.RetryDelay
	if retryDelay == 0 {
		retryDelay = defaultRetryDelay
	}
	c.policy = retry.Policy{Attempts: maxAttempts, Delay: retryDelay, Sleep: opts.Sleep}
	if c.logf == nil {
		c.logf = func(string, ...any) {}
	}
	return c
}

func (c *Client) Roots() []string { return c.roots }

func (c *Client) listURL(root, path string, offset int) string {
	return c.baseURL + "?public_key=" + url.QueryEscape(root) +
		"&path=" + url.QueryEscape(path) +
		"&fields=_embedded.items,name,type" +
		"&limit=" + strconv.Itoa(c.pageSize) +
		"&offset=" + strconv.Itoa(offset)
}

func (c *Client) downloadURL(root, path string) string {
	return c.baseURL + "/download?public_key=" + url.QueryEscape(root) +
		"&path=" + url.QueryEscape(path)
}

func trimRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		r = strings.TrimSpace(r)
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
