package teams

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// Eastern is the zone that defines the hockey day.
var Eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("teams: load %s: %v", name, err))
	}
	return loc
}

// DateET returns the Eastern calendar date of t as YYYY-MM-DD.
func DateET(t time.Time) string {
	return t.In(Eastern).Format(time.DateOnly)
}

// GameKey builds the join key "{AWAY}_vs_{HOME}_{YYYY-MM-DD}" from two
// abbreviations and the commence instant.
func GameKey(away, home string, commence time.Time) string {
	return KeyForDate(away, home, DateET(commence))
}

// KeyForDate builds the join key for sources that report only the Eastern
// date of the game.
func KeyForDate(away, home, dateET string) string {
	return away + "_vs_" + home + "_" + dateET
}

// KeyFor resolves both labels through the registry before building the key,
// so odds-feed names and schedule-feed codes produce identical keys.
func (r *Registry) KeyFor(awayLabel, homeLabel string, commence time.Time) (string, error) {
	away, err := r.Abbrev(awayLabel)
	if err != nil {
		return "", err
	}
	home, err := r.Abbrev(homeLabel)
	if err != nil {
		return "", err
	}
	return GameKey(away, home, commence), nil
}

// ParseGameKey splits a game key into its away and home abbreviations.
func ParseGameKey(key string) (away, home string, err error) {
	awayPart, rest, ok := strings.Cut(key, "_vs_")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", domain.ErrBadGameKey, key)
	}
	homePart, _, ok := strings.Cut(rest, "_")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", domain.ErrBadGameKey, key)
	}
	away = strings.TrimSpace(awayPart)
	home = strings.TrimSpace(homePart)
	if away == "" || home == "" {
		return "", "", fmt.Errorf("%w: %q", domain.ErrBadGameKey, key)
	}
	return away, home, nil
}
