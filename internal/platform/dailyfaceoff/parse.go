package dailyfaceoff

import (
	"regexp"
	"strings"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
	"github.com/dawg2324/moneypuck-mirror/internal/teams"
)

var (
	matchupRe = regexp.MustCompile(`^(.+?)\s+at\s+(.+?)$`)
	goalieRe  = regexp.MustCompile(`^[\p{L} .'-]+$`)
)

var statusWords = map[string]bool{
	"confirmed":   true,
	"expected":    true,
	"likely":      true,
	"unconfirmed": true,
	"projected":   true,
}

// ParseLines walks the page text looking for blocks of the form
//
//	Minnesota Wild at New Jersey Devils
//	2025-10-22T23:00:00.000Z
//	Filip Gustavsson
//	Confirmed
//	2025-10-22T15:59:03.447Z
//	... home goalie, status, updated ...
//
// Matchups whose goalies or teams cannot be resolved are skipped.
func ParseLines(lines []string, dateET, sourceURL string, reg Normalizer) []domain.Starter {
	var out []domain.Starter
	n := len(lines)

	for i := 0; i < n; {
		m := matchupRe.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}
		if i+1 >= n {
			break
		}
		gameTime, _ := parseISO(lines[i+1])

		away, j1 := scanGoalie(lines, i+2)
		home, j2 := scanGoalie(lines, j1)
		if away.name == "" || home.name == "" {
			i++
			continue
		}
		awayAbbr, err1 := reg.Abbrev(strings.TrimSpace(m[1]))
		homeAbbr, err2 := reg.Abbrev(strings.TrimSpace(m[2]))
		if err1 != nil || err2 != nil {
			i++
			continue
		}

		out = append(out, domain.Starter{
			GameKey: teams.KeyForDate(awayAbbr, homeAbbr, dateET),
			DateET:  dateET,
			Away:    domain.StarterSide{Team: awayAbbr, Goalie: away.name, Status: NormalizeStatus(away.status)},
			Home:    domain.StarterSide{Team: homeAbbr, Goalie: home.name, Status: NormalizeStatus(home.status)},
			Source: domain.StarterSource{
				Site:           Site,
				URL:            sourceURL,
				LastUpdatedUTC: lastUpdated(away.updated, home.updated, gameTime),
			},
		})
		i = max(i+1, j2)
	}
	return out
}

// NormalizeStatus collapses the page's status labels to confirmed or
// projected.
func NormalizeStatus(raw string) string {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "confirmed") && !strings.Contains(lower, "unconfirmed") {
		return domain.StarterConfirmed
	}
	return domain.StarterProjected
}

type goalieBlock struct {
	name    string
	status  string
	updated time.Time
}

// scanGoalie reads one goalie block starting at j: a name line, an optional
// status line and an optional update timestamp. It returns the index after
// the block. No part of the scan crosses the next matchup header, and the
// status and timestamp scans also stop at the next name line.
func scanGoalie(lines []string, j int) (goalieBlock, int) {
	var b goalieBlock
	n := len(lines)

	for ; j < n; j++ {
		s := strings.TrimSpace(lines[j])
		if matchupRe.MatchString(s) {
			return goalieBlock{}, j
		}
		if isGoalieName(s) {
			b.name = s
			j++
			break
		}
	}
	if b.name == "" {
		return goalieBlock{}, j
	}

	for ; j < n; j++ {
		s := strings.TrimSpace(lines[j])
		if statusWords[strings.ToLower(s)] {
			b.status = s
			j++
			break
		}
		if _, ok := parseISO(s); ok || matchupRe.MatchString(s) || isGoalieName(s) {
			break
		}
	}

	for ; j < n; j++ {
		s := strings.TrimSpace(lines[j])
		if t, ok := parseISO(s); ok {
			b.updated = t
			j++
			break
		}
		if matchupRe.MatchString(s) || isGoalieName(s) {
			break
		}
	}
	return b, j
}

func isGoalieName(s string) bool {
	return goalieRe.MatchString(s) && len(strings.Fields(s)) >= 2
}

// lastUpdated is the later of the two goalie updates, else whichever exists,
// else the game time.
func lastUpdated(away, home, game time.Time) *time.Time {
	var t time.Time
	switch {
	case !away.IsZero() && !home.IsZero():
		t = away
		if home.After(away) {
			t = home
		}
	case !away.IsZero():
		t = away
	case !home.IsZero():
		t = home
	default:
		t = game
	}
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func parseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
