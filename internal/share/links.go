package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"wb-content-manager/internal/model"
	"wb-content-manager/internal/retry"
)

type downloadLink struct {
	Href string `json:"href"`
}

// errRootSkip marks an HTTP 401 from a root: this root cannot serve the
// path, move to the next one without spending the retry budget.
var errRootSkip = errors.New("root cannot serve path")

// ResolveDownloadURL turns a tree path into a time-bounded direct download
// URL, trying each root in order. The first 2xx wins. A 401 abandons the
// current root immediately; other failures consume the per-root retry budget.
func (c *Client) ResolveDownloadURL(ctx context.Context, treePath string) (string, error) {
	for _, root := range c.roots {
		href, err := c.resolveFromRoot(ctx, root, treePath)
		if err == nil {
			return href, nil
		}
		if errors.Is(err, errRootSkip) {
			c.logf("root %s cannot serve %s (401), trying next root", root, treePath)
			continue
		}
		if errors.Is(err, model.ErrProtocol) || ctx.Err() != nil {
			return "", err
		}
		c.logf("no download link from root %s for %s: %v", root, treePath, err)
	}
	return "", fmt.Errorf("%w: %s", model.ErrResolution, treePath)
}

func (c *Client) resolveFromRoot(ctx context.Context, root, treePath string) (string, error) {
	reqURL := c.downloadURL(root, treePath)

	var href string
	err := c.policy.Do(ctx, func(attempt int) (retry.Outcome, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return retry.Done, err
		}
		req.Header.Set("Accept", "*/*")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.Again, fmt.Errorf("%w: %v", model.ErrTransport, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.Again, fmt.Errorf("%w: read link body: %v", model.ErrTransport, err)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return retry.Done, errRootSkip
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return retry.Again, &model.APIError{Status: resp.StatusCode, Body: string(body)}
		}

		var link downloadLink
		if err := json.Unmarshal(body, &link); err != nil {
			return retry.Done, fmt.Errorf("%w: parse download link for %s: %v", model.ErrProtocol, treePath, err)
		}
		href = link.Href
		return retry.Done, nil
	})
	if err != nil {
		return "", err
	}
	return href, nil
}

// Upload is unsupported: writing to a public share needs an OAuth token the
// tool does not hold. It fails loudly instead of silently doing nothing.
func (c *Client) Upload(localPath, treePath string) error {
	return fmt.Errorf("%w: upload %s to share", model.ErrUnsupported, localPath)
}

// Cleanup is unsupported for the same reason as Upload.
func (c *Client) Cleanup(treePath string) error {
	return fmt.Errorf("%w: cleanup %s on share", model.ErrUnsupported, treePath)
}
