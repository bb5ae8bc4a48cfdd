package notify

import (
	"fmt"
	"strings"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// SignalsSummary formats the top entries of each signal list for a chat
// message. topN <= 0 means 5.
func SignalsSummary(rep domain.SignalReport, topN int) (title, message string) {
	if topN <= 0 {
		topN = 5
	}
	title = fmt.Sprintf("NHL signals %s: %d ML, %d totals",
		rep.DateET, len(rep.MoneylineSignals), len(rep.TotalsSignals))

	var b strings.Builder
	section := func(name string, sigs []domain.Signal) {
		b.WriteString(name)
		b.WriteString("\n")
		if len(sigs) == 0 {
			b.WriteString("  none\n")
			return
		}
		for i, s := range sigs {
			if i == topN {
				fmt.Fprintf(&b, "  +%d more\n", len(sigs)-topN)
				break
			}
			pick := s.Pick
			if s.Line != nil {
				pick = fmt.Sprintf("%s %g", s.Pick, *s.Line)
			}
			fmt.Fprintf(&b, "  %s %s %+d (%s) edge %+.1fpp\n", s.GameKey, pick, s.Price, s.Book, s.EdgePP)
		}
	}
	section("Moneyline", rep.MoneylineSignals)
	section("Totals", rep.TotalsSignals)
	if n := len(rep.Skipped); n > 0 {
		fmt.Fprintf(&b, "Skipped %d game(s)\n", n)
	}
	return title, strings.TrimRight(b.String(), "\n")
}
