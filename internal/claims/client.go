// Package claims reads expense claims from the external HR feed.
package claims

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Claim is a single expense claim as the HR system reports it.
type Claim struct {
	ID           string  `json:"id"`
	EmployeeName string  `json:"employee_name"`
	Department   string  `json:"department"`
	Amount       float64 `json:"amount"`
}

// Client wraps interactions with the claims feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a new client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Ping checks if the feed is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("claims feed returned status %d", resp.StatusCode)
	}
	return nil
}

// Fetch returns the current claims for the given year.
func (c *Client) Fetch(ctx context.Context, year int) ([]Claim, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/claims?year=%d", c.baseURL, year), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("claims feed returned status %d", resp.StatusCode)
	}
	var payload struct {
		Claims []Claim `json:"claims"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode claims payload: %w", err)
	}
	return payload.Claims, nil
}

// FetchOrEmpty degrades a feed failure to an empty claim set. Budget and
// overview reads proceed without claims data rather than failing outright.
// The second return reports whether the feed answered; a healthy feed with
// zero claims still counts as available.
func (c *Client) FetchOrEmpty(ctx context.Context, year int) ([]Claim, bool) {
	if c == nil || c.baseURL == "" {
		return nil, false
	}
	claims, err := c.Fetch(ctx, year)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("claims feed unavailable", slog.Any("error", err))
		}
		return nil, false
	}
	return claims, true
}
