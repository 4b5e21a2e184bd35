package share

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wb-content-manager/internal/media"
	"wb-content-manager/internal/model"
	"wb-content-manager/internal/retry"
)

type resourceList struct {
	Embedded struct {
		Items []resourceItem `json:"items"`
	} `json:"_embedded"`
}

type resourceItem struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Enumerate walks every root locator and returns the media files matched to
// the target codes. The found-codes set is shared across roots and
// subdirectories, and traversal stops as soon as every target code has been
// seen, even with unvisited directories remaining.
//
// A failure listing a root's top-level path aborts enumeration; a failing
// subdirectory is logged and skipped because partial results are still
// useful.
func (c *Client) Enumerate(ctx context.Context, targetCodes []string) ([]model.FileDescriptor, error) {
	if len(c.roots) == 0 {
		return nil, fmt.Errorf("%w: no share roots configured", model.ErrEnumeration)
	}

	found := make(map[string]bool, len(targetCodes))

	var files []model.FileDescriptor
	for i, root := range c.roots {
		if i > 0 {
			if err := c.sleep(ctx, c.rootDelay); err != nil {
				return nil, err
			}
		}
		c.logf("scanning share root %s", root)
		rootFiles, err := c.enumerateRoot(ctx, root, targetCodes, found)
		if err != nil {
			return nil, err
		}
		files = append(files, rootFiles...)
		if allTargetsFound(targetCodes, found) {
			c.logf("all requested vendor codes found, stopping enumeration")
			break
		}
	}
	return files, nil
}

// enumerateRoot descends one root with an explicit FIFO work queue: page
// through the current path, queue its subdirectories, then visit them in
// listing order.
func (c *Client) enumerateRoot(ctx context.Context, root string, codes []string, found map[string]bool) ([]model.FileDescriptor, error) {
	var files []model.FileDescriptor
	queue := []string{"/"}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		pathFiles, subdirs, err := c.listPath(ctx, root, path, codes, found)
		if err != nil {
			if path == "/" {
				return nil, fmt.Errorf("%w: list %s: %v", model.ErrEnumeration, path, err)
			}
			c.logf("skipping subdirectory %s: %v", path, err)
			continue
		}
		files = append(files, pathFiles...)
		queue = append(queue, subdirs...)

		if allTargetsFound(codes, found) {
			return files, nil
		}
	}
	return files, nil
}

// listPath pages through one directory. Transport failures are retried up to
// the attempt budget; any received non-2xx status is a hard error for the
// path.
func (c *Client) listPath(ctx context.Context, root, path string, codes []string, found map[string]bool) ([]model.FileDescriptor, []string, error) {
	var files []model.FileDescriptor
	var subdirs []string

	for offset := 0; ; offset += c.pageSize {
		if offset > 0 {
			if err := c.sleep(ctx, c.pageDelay); err != nil {
				return nil, nil, err
			}
		}

		items, err := c.fetchPage(ctx, root, path, offset)
		if err != nil {
			return nil, nil, err
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			itemPath := joinTreePath(path, item.Name)
			switch {
			case item.Type == "dir":
				subdirs = append(subdirs, itemPath)
			case item.Type == "file" && media.IsMedia(item.Name):
				match, result := media.Classify(item.Name, codes)
				switch result {
				case media.Matched:
					found[match.VendorCode] = true
					files = append(files, model.FileDescriptor{
						Name:        item.Name,
						TreePath:    itemPath,
						VendorCode:  match.VendorCode,
						PhotoNumber: match.PhotoNumber,
					})
					c.logf("matched %s (code %s, photo %d)", item.Name, match.VendorCode, match.PhotoNumber)
				case media.PatternMismatch:
					c.logf("file %s matches code %s but not the filename pattern", item.Name, match.VendorCode)
				default:
					c.logf("file %s does not start with any vendor code", item.Name)
				}
			}
		}

		// Check after every page, not only at path boundaries.
		if allTargetsFound(codes, found) {
			break
		}
	}
	return files, subdirs, nil
}

func (c *Client) fetchPage(ctx context.Context, root, path string, offset int) ([]resourceItem, error) {
	reqURL := c.listURL(root, path, offset)

	var resp *http.Response
	err := c.policy.Do(ctx, func(attempt int) (retry.Outcome, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return retry.Done, err
		}
		req.Header.Set("Accept", "*/*")
		r, err := c.httpClient.Do(req)
		if err != nil {
			c.logf("listing request failed for %s offset=%d (attempt %d/%d): %v", path, offset, attempt, maxAttempts, err)
			return retry.Again, fmt.Errorf("%w: %v", model.ErrTransport, err)
		}
		resp = r
		return retry.Done, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read listing body: %v", model.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var list resourceList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: parse listing for %s offset=%d: %v", model.ErrProtocol, path, offset, err)
	}
	return list.Embedded.Items, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if c.policy.Sleep != nil {
		return c.policy.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func joinTreePath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func allTargetsFound(codes []string, found map[string]bool) bool {
	if len(codes) == 0 {
		return false
	}
	for _, code := range codes {
		if !found[code] {
			return false
		}
	}
	return true
}
