// Package wb talks to the marketplace content API: vendor-code search and
// media uploads against a product card.
package wb

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"wb-content-manager/internal/model"
	"wb-content-manager/internal/retry"
)

const (
	DefaultBaseURL = "https://content-api.wildberries.ru"

	cardsListPath = "/content/v2/get/cards/list"
	mediaSavePath = "/content/v3/media/save"
	mediaFilePath = "/content/v3/media/file"

	searchLimit = 100

	uploadAttempts = 3
	uploadDelay    = 60 * time.Second
)

// Client is the authenticated marketplace API client. One instance serves a
// whole run.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	policy     retry.Policy
	onUploaded func()
	logf       func(format string, args ...any)
}

// Options tune the client; the zero value uses production defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	RetryDelay time.Duration

	// OnUploaded is called exactly once per product whose media upload
	// finally succeeded.
	OnUploaded func()
	Logf       func(format string, args ...any)

	// Sleep overrides the retry sleep in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New builds a client for the given API key. An empty key is rejected before
// any network activity.
func New(apiKey string, opts Options) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: marketplace API key is empty", model.ErrValidation)
	}

	c := &Client{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     apiKey,
		onUploaded: opts.OnUploaded,
		logf:       opts.Logf,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			},
		}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.onUploaded == nil {
		c.onUploaded = func() {}
	}
	if c.logf == nil {
		c.logf = func(string, ...any) {}
	}
	delay := opts.RetryDelay
	if delay == 0 {
		delay = uploadDelay
	}
	c.policy = retry.Policy{Attempts: uploadAttempts, Delay: delay, Sleep: opts.Sleep}
	return c, nil
}

func (c *Client) newRequest(ctx context.Context, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func readBody(r *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
	return string(b)
}
