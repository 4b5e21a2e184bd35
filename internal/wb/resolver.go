package wb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"wb-content-manager/internal/model"
)

type cardsListRequest struct {
	Settings struct {
		Cursor struct {
			Limit int `json:"limit"`
		} `json:"cursor"`
		Filter struct {
			WithPhoto  int    `json:"withPhoto"`
			TextSearch string `json:"textSearch"`
		} `json:"filter"`
		Sort struct {
			Ascending bool `json:"ascending"`
		} `json:"sort"`
	} `json:"settings"`
}

type cardsListResponse struct {
	Cards []struct {
		NmID int64 `json:"nmID"`
	} `json:"cards"`
}

// ResolveProductID searches the catalog for the vendor code as free text and
// takes the first card of the descending-sorted result as authoritative.
// Vendor codes that are substrings of other codes can therefore resolve to
// the wrong card; callers accept that precision limit.
func (c *Client) ResolveProductID(ctx context.Context, vendorCode string) (int64, error) {
	var body cardsListRequest
	body.Settings.Cursor.Limit = searchLimit
	body.Settings.Filter.WithPhoto = -1
	body.Settings.Filter.TextSearch = vendorCode
	body.Settings.Sort.Ascending = false

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := c.newRequest(ctx, cardsListPath, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: search %q: %v", model.ErrTransport, vendorCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &model.APIError{Status: resp.StatusCode, Body: readBody(resp)}
	}

	var parsed cardsListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("%w: cards list for %q: %v", model.ErrProtocol, vendorCode, err)
	}
	if len(parsed.Cards) == 0 {
		return 0, fmt.Errorf("%w: no product for vendor code %q", model.ErrNotFound, vendorCode)
	}
	id := parsed.Cards[0].NmID
	c.logf("vendor code %s resolved to product %d", vendorCode, id)
	return id, nil
}
