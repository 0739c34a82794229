// Package getin wraps the GetIn reservation API.
package getin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client wraps interactions with the GetIn reservation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type reservationsResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Stats struct {
			TotalReservations int `json:"totalReservations"`
		} `json:"stats"`
	} `json:"data"`
}

// ReservationCount returns the number of reservations booked for the date.
func (c *Client) ReservationCount(ctx context.Context, date string) (int, error) {
	endpoint := fmt.Sprintf("%s/reservations?date=%s&mode=day", c.baseURL, url.QueryEscape(date))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("getin returned status %d", resp.StatusCode)
	}
	var payload reservationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("getin: decode response: %w", err)
	}
	if !payload.Success {
		return 0, fmt.Errorf("getin reported failure for %s", date)
	}
	return payload.Data.Stats.TotalReservations, nil
}
