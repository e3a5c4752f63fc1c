// Package inmet fetches station observations from the INMET weather API.
package inmet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/chrissnell/wxsummary/internal/constants"
	"github.com/chrissnell/wxsummary/internal/log"
	"github.com/chrissnell/wxsummary/internal/types"
)

// DefaultEndpoint is the public INMET API base URL.
const DefaultEndpoint = "https://apitempo.inmet.gov.br"

// Config holds the connection settings for a Client.
type Config struct {
	Endpoint   string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
}

// Client talks to the INMET station endpoints. It is safe for concurrent use.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	backoff  BackoffConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewClient creates a Client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		http:     httpClient,
		backoff: BackoffConfig{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: cfg.Backoff,
			MaxInterval:     8 * cfg.Backoff,
		},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "inmet",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: breakerSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnf("circuit breaker %s changed from %s to %s", name, from, to)
			},
		}),
	}
}

// FetchHourly returns the hourly observations of station between start and end
// (inclusive, YYYY-MM-DD). Any failure is logged and yields an empty slice.
func (c *Client) FetchHourly(ctx context.Context, start, end, station string) []types.HourlyObservation {
	var records []hourlyRecord
	if err := c.get(ctx, c.url("", start, end, station), &records); err != nil {
		log.Errorf("error fetching hourly data from %s to %s for %s: %v", start, end, station, err)
		return []types.HourlyObservation{}
	}

	obs := make([]types.HourlyObservation, 0, len(records))
	for _, r := range records {
		obs = append(obs, r.observation(station))
	}
	return obs
}

// FetchDaily returns the daily observations of station between start and end.
// Any failure is logged and yields an empty slice.
func (c *Client) FetchDaily(ctx context.Context, start, end, station string) []types.DailyObservation {
	var records []dailyRecord
	if err := c.get(ctx, c.url("diaria", start, end, station), &records); err != nil {
		log.Errorf("error fetching daily data from %s to %s for %s: %v", start, end, station, err)
		return []types.DailyObservation{}
	}

	if len(records) == 0 {
		log.Warnf("no daily data found for %s from %s to %s", station, start, end)
	}

	obs := make([]types.DailyObservation, 0, len(records))
	for _, r := range records {
		obs = append(obs, r.observation(station))
	}
	return obs
}

func (c *Client) url(feed, start, end, station string) string {
	parts := []string{"token", "estacao"}
	if feed != "" {
		parts = append(parts, feed)
	}
	parts = append(parts, start, end, station, c.token)

	u := c.endpoint
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// get fetches target and decodes a JSON array into out. A 204 or a body that is
// not a JSON array leaves out empty.
func (c *Client) get(ctx context.Context, target string, out any) error {
	resp, err := doRequest(ctx, c.http, c.circuit, c.backoff, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", constants.UserAgent)
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		log.Debugf("INMET response is not an array: %.200s", body)
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unable to decode INMET response: %w", err)
	}
	return nil
}
