package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// QuotaOdds gates an odds source behind a shared rate limiter so that
// concurrent or repeated runs stay inside the provider's request quota.
type QuotaOdds struct {
	next    domain.OddsSource
	limiter domain.RateLimiter
	key     string
	limit   int
	window  time.Duration
}

var _ domain.OddsSource = (*QuotaOdds)(nil)

// NewQuotaOdds wraps next. Each FetchGames call consumes one slot of limit
// per window under key.
func NewQuotaOdds(next domain.OddsSource, limiter domain.RateLimiter, key string, limit int, window time.Duration) *QuotaOdds {
	return &QuotaOdds{next: next, limiter: limiter, key: key, limit: limit, window: window}
}

func (q *QuotaOdds) FetchGames(ctx context.Context) ([]domain.MarketGame, []string, error) {
	ok, err := q.limiter.Allow(ctx, q.key, q.limit, q.window)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: odds quota: %w", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("pipeline: odds quota %d per %s: %w", q.limit, q.window, domain.ErrRateLimited)
	}
	return q.next.FetchGames(ctx)
}
