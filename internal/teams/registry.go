// Package teams is the single lookup service for NHL team names and
// abbreviations, and the only place game keys are built.
package teams

import (
	"strings"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// canonical maps full franchise names to NHL abbreviations.
var canonical = map[string]string{
	"Anaheim Ducks":         "ANA",
	"Arizona Coyotes":       "ARI",
	"Boston Bruins":         "BOS",
	"Buffalo Sabres":        "BUF",
	"Calgary Flames":        "CGY",
	"Carolina Hurricanes":   "CAR",
	"Chicago Blackhawks":    "CHI",
	"Colorado Avalanche":    "COL",
	"Columbus Blue Jackets": "CBJ",
	"Dallas Stars":          "DAL",
	"Detroit Red Wings":     "DET",
	"Edmonton Oilers":       "EDM",
	"Florida Panthers":      "FLA",
	"Los Angeles Kings":     "LAK",
	"Minnesota Wild":        "MIN",
	"Montreal Canadiens":    "MTL",
	"Nashville Predators":   "NSH",
	"New Jersey Devils":     "NJD",
	"New York Islanders":    "NYI",
	"New York Rangers":      "NYR",
	"Ottawa Senators":       "OTT",
	"Philadelphia Flyers":   "PHI",
	"Pittsburgh Penguins":   "PIT",
	"San Jose Sharks":       "SJS",
	"Seattle Kraken":        "SEA",
	"St. Louis Blues":       "STL",
	"Tampa Bay Lightning":   "TBL",
	"Toronto Maple Leafs":   "TOR",
	"Utah Hockey Club":      "UTA",
	"Vancouver Canucks":     "VAN",
	"Vegas Golden Knights":  "VGK",
	"Washington Capitals":   "WSH",
	"Winnipeg Jets":         "WPG",
}

// nameAliases maps label variants seen across sources to a canonical name.
var nameAliases = map[string]string{
	"St Louis Blues":     "St. Louis Blues",
	"LA Kings":           "Los Angeles Kings",
	"New York Isles":     "New York Islanders",
	"Montréal Canadiens": "Montreal Canadiens",
	"Utah":               "Utah Hockey Club",
	"Utah HC":            "Utah Hockey Club",
	"Utah Mammoth":       "Utah Hockey Club",
	"Phoenix Coyotes":    "Arizona Coyotes",
}

// codeAliases maps short or legacy codes some feeds emit to the standard
// three-letter abbreviation.
var codeAliases = map[string]string{
	"ARZ":  "ARI",
	"PHX":  "ARI",
	"UTAH": "UTA",
	"LA":   "LAK",
	"NJ":   "NJD",
	"SJ":   "SJS",
	"TB":   "TBL",
	"WAS":  "WSH",
}

// Registry resolves any team label (full name, alias or abbreviation) to an
// abbreviation. The zero value is not usable; call NewRegistry.
type Registry struct {
	byName map[string]string
	codes  map[string]string
}

// NewRegistry builds a Registry from the built-in tables. extra adds further
// label -> abbreviation mappings, typically from configuration.
func NewRegistry(extra map[string]string) *Registry {
	r := &Registry{
		byName: make(map[string]string, len(canonical)+len(nameAliases)+len(extra)),
		codes:  make(map[string]string, len(canonical)+len(codeAliases)),
	}
	for name, abbr := range canonical {
		r.byName[fold(name)] = abbr
		r.codes[abbr] = abbr
	}
	for alias, name := range nameAliases {
		r.byName[fold(alias)] = canonical[name]
	}
	for code, abbr := range codeAliases {
		r.codes[code] = abbr
	}
	for label, abbr := range extra {
		r.byName[fold(label)] = strings.ToUpper(strings.TrimSpace(abbr))
	}
	return r
}

// Abbrev returns the abbreviation for label. It never returns an empty string
// with a nil error; unknown labels yield *domain.UnknownTeamError.
func (r *Registry) Abbrev(label string) (string, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "", &domain.UnknownTeamError{Label: label}
	}
	if abbr, ok := r.codes[strings.ToUpper(trimmed)]; ok {
		return abbr, nil
	}
	if abbr, ok := r.byName[fold(trimmed)]; ok {
		return abbr, nil
	}
	return "", &domain.UnknownTeamError{Label: label}
}

// Known reports whether abbr is a standard abbreviation in the registry.
func (r *Registry) Known(abbr string) bool {
	got, ok := r.codes[abbr]
	return ok && got == abbr
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
