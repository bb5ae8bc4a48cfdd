// Package nhle reads club schedules from the public NHL web API.
package nhle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// DefaultBaseURL is the public NHL web API root.
const DefaultBaseURL = "https://api-web.nhle.com"

// Normalizer maps schedule team codes to standard abbreviations.
type Normalizer interface {
	Abbrev(label string) (string, error)
}

// Client fetches per-team monthly schedules. It implements
// domain.ScheduleSource.
type Client struct {
	baseURL    string
	userAgent  string
	teams      Normalizer
	httpClient *http.Client
}

var _ domain.ScheduleSource = (*Client)(nil)

// NewClient creates a schedule client. teams may be nil, in which case only
// three-letter codes are accepted as-is.
func NewClient(baseURL, userAgent string, timeout time.Duration, teams Normalizer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		teams:     teams,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// TeamMonth returns the games team plays in yearMonth (YYYY-MM), keeping
// only games the team takes part in.
func (c *Client) TeamMonth(ctx context.Context, team, yearMonth string) ([]domain.ScheduleGame, error) {
	team = strings.ToUpper(team)
	path := fmt.Sprintf("/v1/club-schedule/%s/month/%s", url.PathEscape(team), url.PathEscape(yearMonth))

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("nhle: get schedule %s %s: %w", team, yearMonth, err)
	}

	var payload schedulePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("nhle: decode schedule %s %s: %w", team, yearMonth, err)
	}

	var out []domain.ScheduleGame
	for _, g := range payload.games() {
		sg, ok := c.toDomain(g)
		if !ok || !sg.Involves(team) {
			continue
		}
		out = append(out, sg)
	}
	return out, nil
}

func (c *Client) toDomain(g apiGame) (domain.ScheduleGame, bool) {
	start, ok := g.start()
	if !ok {
		return domain.ScheduleGame{}, false
	}
	return domain.ScheduleGame{
		ID:         strings.Trim(string(g.ID), `"`),
		StartUTC:   start,
		HomeAbbrev: c.normalize(g.HomeTeam.abbrev()),
		AwayAbbrev: c.normalize(g.AwayTeam.abbrev()),
	}, true
}

func (c *Client) normalize(code string) string {
	if code == "" {
		return ""
	}
	if c.teams != nil {
		if abbr, err := c.teams.Abbrev(code); err == nil {
			return abbr
		}
	}
	if len(code) == 3 {
		return code
	}
	return ""
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
