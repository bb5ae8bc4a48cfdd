// Package oddsapi reads NHL moneyline and totals prices from The Odds API v4
// and reduces each event to the best price per side across bookmakers.
package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
	"github.com/dawg2324/moneypuck-mirror/internal/teams"
)

// DefaultBaseURL is the Odds API root.
const DefaultBaseURL = "https://api.the-odds-api.com"

const sportKey = "icehockey_nhl"

// Client fetches current NHL odds. It implements domain.OddsSource.
type Client struct {
	baseURL    string
	apiKey     string
	regions    string
	bookmakers []string
	teams      *teams.Registry
	httpClient *http.Client
}

var _ domain.OddsSource = (*Client)(nil)

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Regions    string   // e.g. "us"
	Bookmakers []string // optional allow-list of bookmaker keys
	Timeout    time.Duration
}

// NewClient creates an odds client resolving team names through reg.
func NewClient(opts Options, reg *teams.Registry) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Regions == "" {
		opts.Regions = "us"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		regions:    opts.Regions,
		bookmakers: opts.Bookmakers,
		teams:      reg,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

// FetchGames returns one MarketGame per event. Events whose team names the
// registry cannot resolve are skipped and described in dropped.
func (c *Client) FetchGames(ctx context.Context) ([]domain.MarketGame, []string, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.regions)
	params.Set("markets", "h2h,totals")
	params.Set("oddsFormat", "american")
	params.Set("dateFormat", "iso")
	if len(c.bookmakers) > 0 {
		params.Set("bookmakers", strings.Join(c.bookmakers, ","))
	}

	body, err := c.doGet(ctx, "/v4/sports/"+sportKey+"/odds?"+params.Encode())
	if err != nil {
		return nil, nil, fmt.Errorf("oddsapi: get odds: %w", err)
	}

	var events []apiEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, nil, fmt.Errorf("oddsapi: decode odds: %w", err)
	}

	games := make([]domain.MarketGame, 0, len(events))
	var dropped []string
	for _, ev := range events {
		g, err := c.toDomain(ev)
		if err != nil {
			dropped = append(dropped, fmt.Sprintf("%s @ %s: %v", ev.AwayTeam, ev.HomeTeam, err))
			continue
		}
		games = append(games, g)
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].CommenceTime.Before(games[j].CommenceTime)
	})
	return games, dropped, nil
}

func (c *Client) toDomain(ev apiEvent) (domain.MarketGame, error) {
	away, err := c.teams.Abbrev(ev.AwayTeam)
	if err != nil {
		return domain.MarketGame{}, err
	}
	home, err := c.teams.Abbrev(ev.HomeTeam)
	if err != nil {
		return domain.MarketGame{}, err
	}
	commence := ev.CommenceTime.UTC()
	return domain.MarketGame{
		GameKey:      teams.GameKey(away, home, commence),
		CommenceTime: commence,
		AwayTeam:     ev.AwayTeam,
		HomeTeam:     ev.HomeTeam,
		AwayAbbrev:   away,
		HomeAbbrev:   home,
		Moneyline:    bestMoneyline(ev),
		Totals:       bestTotals(ev),
	}, nil
}

// quote is one bookmaker's price for one outcome.
type quote struct {
	price int
	book  string
}

// better reports whether q pays more than cur. Higher American prices are
// always more favorable to the bettor.
func (q quote) better(cur quote) bool {
	return cur.book == "" || q.price > cur.price
}

func americanPrice(v float64) (int, bool) {
	p := int(math.Round(v))
	if p == 0 || math.IsNaN(v) {
		return 0, false
	}
	return p, true
}

func bestMoneyline(ev apiEvent) *domain.Moneyline {
	var home, away quote
	for _, bm := range ev.Bookmakers {
		for _, m := range bm.Markets {
			if m.Key != "h2h" {
				continue
			}
			for _, o := range m.Outcomes {
				price, ok := americanPrice(o.Price)
				if !ok {
					continue
				}
				q := quote{price: price, book: bm.Key}
				switch o.Name {
				case ev.HomeTeam:
					if q.better(home) {
						home = q
					}
				case ev.AwayTeam:
					if q.better(away) {
						away = q
					}
				}
			}
		}
	}
	if home.book == "" || away.book == "" {
		return nil
	}
	return &domain.Moneyline{
		HomePrice: home.price,
		HomeBook:  home.book,
		AwayPrice: away.price,
		AwayBook:  away.book,
	}
}

// bestTotals picks the consensus line, the point quoted by the most
// bookmakers with ties going to the lower line, then the best over and under
// among books quoting that line.
func bestTotals(ev apiEvent) *domain.Totals {
	type lineQuotes struct {
		books       map[string]bool
		over, under quote
	}
	lines := make(map[float64]*lineQuotes)

	for _, bm := range ev.Bookmakers {
		for _, m := range bm.Markets {
			if m.Key != "totals" {
				continue
			}
			for _, o := range m.Outcomes {
				if o.Point == nil {
					continue
				}
				price, ok := americanPrice(o.Price)
				if !ok {
					continue
				}
				lq := lines[*o.Point]
				if lq == nil {
					lq = &lineQuotes{books: make(map[string]bool)}
					lines[*o.Point] = lq
				}
				lq.books[bm.Key] = true
				q := quote{price: price, book: bm.Key}
				switch strings.ToLower(o.Name) {
				case "over":
					if q.better(lq.over) {
						lq.over = q
					}
				case "under":
					if q.better(lq.under) {
						lq.under = q
					}
				}
			}
		}
	}

	var (
		consensus float64
		best      *lineQuotes
	)
	for point, lq := range lines {
		if lq.over.book == "" || lq.under.book == "" {
			continue
		}
		if best == nil || len(lq.books) > len(best.books) ||
			(len(lq.books) == len(best.books) && point < consensus) {
			consensus, best = point, lq
		}
	}
	if best == nil {
		return nil
	}
	return &domain.Totals{
		Line:       consensus,
		OverPrice:  best.over.price,
		OverBook:   best.over.book,
		UnderPrice: best.under.price,
		UnderBook:  best.under.book,
	}
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = strings.ReplaceAll(uerr.URL, url.QueryEscape(c.apiKey), "REDACTED")
		}
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
