// Package crm wraps the customer-analytics endpoints: the recurrence report
// consumed during date comparisons and the artist-name normalization hook.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client wraps interactions with the CRM service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type recurrenceResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// CustomerRecurrence fetches the repeat-customer overlap report for two dates.
// The payload shape varies with available data, so it is passed through raw.
func (c *Client) CustomerRecurrence(ctx context.Context, barID int64, date1, date2, artist1, artist2 string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("bar_id", strconv.FormatInt(barID, 10))
	query.Set("date1", date1)
	query.Set("date2", date2)
	query.Set("artist1", orNA(artist1))
	query.Set("artist2", orNA(artist2))

	endpoint := fmt.Sprintf("%s/customer-recurrence?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("crm returned status %d", resp.StatusCode)
	}
	var payload recurrenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("crm: decode response: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("crm reported failure for %s vs %s", date1, date2)
	}
	return payload.Data, nil
}

// NormalizeArtistNames asks the CRM to canonicalize event artist names before
// a comparison. Callers treat failures as non-fatal.
func (c *Client) NormalizeArtistNames(ctx context.Context, barID int64) error {
	body, err := json.Marshal(map[string]int64{"bar_id": barID})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/normalize-artists", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("normalize failed with status %d", resp.StatusCode)
	}
	return nil
}

func orNA(name string) string {
	if name == "" {
		return "N/A"
	}
	return name
}
