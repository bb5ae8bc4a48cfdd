// Package dailyfaceoff scrapes projected and confirmed starting goalies from
// the DailyFaceoff starting-goalies page.
package dailyfaceoff

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// DefaultBaseURL is the DailyFaceoff site root.
const DefaultBaseURL = "https://www.dailyfaceoff.com"

// Site is recorded as the source of every scraped starter.
const Site = "dailyfaceoff"

const defaultUserAgent = "Mozilla/5.0 (compatible; nhl_daily_slim/1.0; +https://github.com/dawg2324/moneypuck-mirror)"

// Normalizer maps page team names to abbreviations.
type Normalizer interface {
	Abbrev(label string) (string, error)
}

// Client scrapes starters. It implements domain.StarterFetcher.
type Client struct {
	baseURL    string
	userAgent  string
	teams      Normalizer
	httpClient *http.Client
}

var _ domain.StarterFetcher = (*Client)(nil)

// NewClient creates a scraper.
func NewClient(baseURL, userAgent string, timeout time.Duration, teams Normalizer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
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

// PageURL returns the starting-goalies page for an Eastern date.
func (c *Client) PageURL(dateET string) string {
	return c.baseURL + "/starting-goalies/" + dateET
}

// FetchStarters downloads the page for dateET and returns the parsed starters
// ordered by game key.
func (c *Client) FetchStarters(ctx context.Context, dateET string) ([]domain.Starter, error) {
	pageURL := c.PageURL(dateET)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dailyfaceoff: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dailyfaceoff: get %s: %w", dateET, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dailyfaceoff: get %s: unexpected status %d", dateET, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dailyfaceoff: parse html: %w", err)
	}

	starters := ParseLines(TextLines(doc), dateET, pageURL, c.teams)
	sort.SliceStable(starters, func(i, j int) bool {
		return starters[i].GameKey < starters[j].GameKey
	})
	return starters, nil
}

// TextLines drops script, style and noscript elements and returns every
// non-blank line of the remaining text, in document order.
func TextLines(doc *goquery.Document) []string {
	doc.Find("script, style, noscript").Remove()

	var lines []string
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			if goquery.NodeName(child) != "#text" {
				walk(child)
				return
			}
			for _, l := range strings.Split(child.Text(), "\n") {
				if l = strings.TrimSpace(l); l != "" {
					lines = append(lines, l)
				}
			}
		})
	}
	walk(doc.Selection)
	return lines
}
