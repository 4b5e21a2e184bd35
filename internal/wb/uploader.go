package wb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"wb-content-manager/internal/model"
	"wb-content-manager/internal/retry"
)

var allowedURLSchemes = []string{"http://", "https://", "file://"}

// UploadURLs attaches the ordered media URLs to a product card in a single
// request. URL order determines photo order on the card. HTTP 429 and
// transport failures are retried with the 60 second delay up to the attempt
// budget; any other non-2xx fails immediately.
func (c *Client) UploadURLs(ctx context.Context, productID int64, urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("%w: no media urls for product %d", model.ErrValidation, productID)
	}
	for _, u := range urls {
		if !validURLScheme(u) {
			return fmt.Errorf("%w: unsupported url scheme in %q", model.ErrValidation, u)
		}
	}

	payload, err := json.Marshal(model.MediaBatch{ProductID: productID, URLs: urls})
	if err != nil {
		return err
	}

	err = c.policy.Do(ctx, func(attempt int) (retry.Outcome, error) {
		req, err := c.newRequest(ctx, mediaSavePath, bytes.NewReader(payload))
		if err != nil {
			return retry.Done, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.sendUpload(req, attempt, fmt.Sprintf("media save for product %d", productID))
	})
	if err != nil {
		return err
	}

	c.logf("uploaded %d media urls to product %d", len(urls), productID)
	c.onUploaded()
	return nil
}

// UploadFile sends one local file as a raw multipart upload into the given
// photo slot. A missing file fails locally without a network call.
func (c *Client) UploadFile(ctx context.Context, productID int64, path string, photoNumber uint) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: local file %s", model.ErrNotFound, path)
		}
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("uploadfile", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	err = c.policy.Do(ctx, func(attempt int) (retry.Outcome, error) {
		req, err := c.newRequest(ctx, mediaFilePath, bytes.NewReader(body.Bytes()))
		if err != nil {
			return retry.Done, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("X-Nm-Id", strconv.FormatInt(productID, 10))
		req.Header.Set("X-Photo-Number", strconv.FormatUint(uint64(photoNumber), 10))
		return c.sendUpload(req, attempt, fmt.Sprintf("media file for product %d slot %d", productID, photoNumber))
	})
	if err != nil {
		return err
	}

	c.logf("uploaded %s to product %d slot %d", filepath.Base(path), productID, photoNumber)
	c.onUploaded()
	return nil
}

// sendUpload performs one upload attempt and classifies the outcome for the
// retry policy.
func (c *Client) sendUpload(req *http.Request, attempt int, what string) (retry.Outcome, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logf("%s attempt %d: %v", what, attempt, err)
		return retry.Again, fmt.Errorf("%w: %s: %v", model.ErrTransport, what, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return retry.Done, nil
	}
	apiErr := &model.APIError{Status: resp.StatusCode, Body: readBody(resp)}
	if apiErr.RateLimited() {
		c.logf("%s attempt %d: rate limited", what, attempt)
		return retry.Again, fmt.Errorf("%w: %s: %v", model.ErrRateLimited, what, apiErr)
	}
	return retry.Done, fmt.Errorf("%s: %w", what, apiErr)
}

func validURLScheme(u string) bool {
	for _, scheme := range allowedURLSchemes {
		if strings.HasPrefix(u, scheme) {
			return true
		}
	}
	return false
}
