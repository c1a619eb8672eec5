// Package sdk provides a Go client for the reportlane server.
//
// Basic usage:
//
//	c := sdk.NewClient("http://127.0.0.1:8081", accessCode)
//	res, err := c.AddReports(ctx, 7697260946, reports)
//	tl, err := c.Timeline(ctx, 7697260946, sdk.TimelineOpts{Player: "slot_4"})
//
// Reads need no access code; pass "" for a read-only client.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reportlane/reportlane/internal/report"
	"github.com/reportlane/reportlane/internal/timeline"
)

type (
	// Report is one stored in-game report.
	Report = report.Report
	// MatchSummary aggregates one match's reports.
	MatchSummary = report.MatchSummary
	// Chart is a laid-out two-lane timeline.
	Chart = timeline.Chart
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// IngestResult is returned after a batch of reports is stored.
type IngestResult struct {
	MatchID      int64 `json:"match_id"`
	Count        int   `json:"count"`
	TeamReports  int   `json:"team_reports"`
	EnemyReports int   `json:"enemy_reports"`
}

// TimelineOpts narrow a timeline request. Zero values use server defaults.
type TimelineOpts struct {
	Player string // slot_N or steamid_N
	Width  float64
}

// TimelineResult is a chart plus how the server's layout cache served it:
// hit, miss or bypass.
type TimelineResult struct {
	Chart *Chart
	Cache string
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reportlane: %s (HTTP %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to a reportlane server.
type Client struct {
	baseURL    string
	accessCode string // "" = read-only
	httpClient *http.Client
}

// NewClient creates a client. accessCode is sent on writes.
func NewClient(baseURL, accessCode string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accessCode: accessCode,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Health checks the server health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if _, err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Matches lists the most recently reported matches. limit <= 0 uses the
// server default.
func (c *Client) Matches(ctx context.Context, limit int) ([]MatchSummary, error) {
	path := "/api/matches"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []MatchSummary
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reports returns one match's reports in time order, optionally only those
// against player.
func (c *Client) Reports(ctx context.Context, matchID int64, player string) ([]Report, error) {
	path := matchPath(matchID, "/reports")
	if player != "" {
		path += "?player=" + url.QueryEscape(player)
	}
	var out []Report
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddReports stores reports under matchID.
func (c *Client) AddReports(ctx context.Context, matchID int64, reports []Report) (*IngestResult, error) {
	body, err := json.Marshal(reports)
	if err != nil {
		return nil, fmt.Errorf("marshaling reports: %w", err)
	}
	var res IngestResult
	if _, err := c.do(ctx, http.MethodPost, matchPath(matchID, "/reports"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteMatch removes every report of a match.
func (c *Client) DeleteMatch(ctx context.Context, matchID int64) error {
	_, err := c.do(ctx, http.MethodDelete, matchPath(matchID, ""), nil, nil)
	return err
}

// Timeline fetches a match's laid-out timeline.
func (c *Client) Timeline(ctx context.Context, matchID int64, opts TimelineOpts) (*TimelineResult, error) {
	q := url.Values{}
	if opts.Player != "" {
		q.Set("player", opts.Player)
	}
	if opts.Width > 0 {
		q.Set("width", strconv.FormatFloat(opts.Width, 'f', -1, 64))
	}
	path := matchPath(matchID, "/timeline")
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var chart Chart
	hdr, err := c.do(ctx, http.MethodGet, path, nil, &chart)
	if err != nil {
		return nil, err
	}
	return &TimelineResult{Chart: &chart, Cache: hdr.Get("X-Layout-Cache")}, nil
}

func matchPath(matchID int64, suffix string) string {
	return "/api/matches/" + strconv.FormatInt(matchID, 10) + suffix
}

// do sends one request and decodes a JSON response into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) (http.Header, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessCode != "" && method != http.MethodGet {
		req.Header.Set("Authorization", "Bearer "+c.accessCode)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return resp.Header, &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, fmt.Errorf("decoding response (HTTP %d): %w", resp.StatusCode, err)
	}
	return resp.Header, nil
}
