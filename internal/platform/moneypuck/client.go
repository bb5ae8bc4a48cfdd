// Package moneypuck downloads MoneyPuck's season team summary and reduces it
// to one expected-goals rate row per team.
package moneypuck

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// DefaultBaseURL is the MoneyPuck data root.
const DefaultBaseURL = "https://moneypuck.com/moneypuck/playerData/seasonSummary"

// Normalizer maps MoneyPuck team codes to standard abbreviations.
type Normalizer interface {
	Abbrev(label string) (string, error)
}

// Client fetches team rates. It implements domain.TeamRateSource.
type Client struct {
	baseURL    string
	season     int
	teams      Normalizer
	httpClient *http.Client
}

var _ domain.TeamRateSource = (*Client)(nil)

// NewClient creates a client for the given season start year, e.g. 2024 for
// the 2024-25 season.
func NewClient(baseURL string, season int, timeout time.Duration, teams Normalizer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		season:  season,
		teams:   teams,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchTeamRates downloads and parses the regular-season teams file.
func (c *Client) FetchTeamRates(ctx context.Context) ([]domain.TeamRate, error) {
	u := fmt.Sprintf("%s/%d/regular/teams.csv", c.baseURL, c.season)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("moneypuck: create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moneypuck: get teams: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("moneypuck: read teams: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moneypuck: get teams: unexpected status %d", resp.StatusCode)
	}

	rates, err := ParseTeams(bytes.NewReader(body), c.teams)
	if err != nil {
		return nil, fmt.Errorf("moneypuck: %w", err)
	}
	return rates, nil
}

// ParseTeams reads the teams CSV, keeps the all-situations rows and returns
// one rate per team sorted by abbreviation. When a team appears more than
// once the row with the most games played wins.
func ParseTeams(r io.Reader, teams Normalizer) ([]domain.TeamRate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := col[h]; !dup {
			col[h] = i
		}
	}
	for _, name := range []string{"team", "situation", "games_played", "xGoalsFor", "xGoalsAgainst"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	best := make(map[string]domain.TeamRate)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		field := func(name string) string {
			if i := col[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		if field("situation") != "all" {
			continue
		}

		abbr := normalizeCode(field("team"), teams)
		if abbr == "" {
			continue
		}
		gp, err1 := strconv.ParseFloat(field("games_played"), 64)
		xgf, err2 := strconv.ParseFloat(field("xGoalsFor"), 64)
		xga, err3 := strconv.ParseFloat(field("xGoalsAgainst"), 64)
		if err1 != nil || err2 != nil || err3 != nil || gp <= 0 || xgf <= 0 || xga <= 0 {
			continue
		}

		rate := domain.TeamRate{
			TeamAbbrev:  abbr,
			GamesPlayed: int(gp),
			XGFPerGame:  xgf / gp,
			XGAPerGame:  xga / gp,
		}
		if cur, ok := best[abbr]; !ok || rate.GamesPlayed > cur.GamesPlayed {
			best[abbr] = rate
		}
	}
	if len(best) == 0 {
		return nil, errors.New("no all-situation team rows")
	}

	out := make([]domain.TeamRate, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamAbbrev < out[j].TeamAbbrev })
	return out, nil
}

// normalizeCode turns MoneyPuck codes such as "T.B" or "L.A" into standard
// abbreviations.
func normalizeCode(code string, teams Normalizer) string {
	code = strings.ToUpper(strings.ReplaceAll(code, ".", ""))
	if code == "" {
		return ""
	}
	if teams != nil {
		abbr, err := teams.Abbrev(code)
		if err != nil {
			return ""
		}
		return abbr
	}
	return code
}

// SeasonFor returns the season start year for a date: games from September
// onward belong to the season starting that year.
func SeasonFor(t time.Time) int {
	if t.Month() >= time.September {
		return t.Year()
	}
	return t.Year() - 1
}
