package rest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// slowSource blocks until released so concurrent misses overlap.
type slowSource struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *slowSource) TeamMonth(context.Context, string, string) ([]domain.ScheduleGame, error) {
	s.calls.Add(1)
	<-s.release
	return []domain.ScheduleGame{{HomeAbbrev: "BOS", AwayAbbrev: "TOR", StartUTC: time.Unix(0, 0)}}, nil
}

func TestMonthCacheConcurrentMissesShareFetch(t *testing.T) {
	src := &slowSource{release: make(chan struct{})}
	cache := NewMonthCache(src)
	key := MonthKey{Team: "BOS", YearMonth: "2025-01"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			games, err := cache.Get(context.Background(), key)
			if err != nil || len(games) != 1 {
				t.Errorf("Get = %v, %v", games, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
	if cache.Len() != 1 {
		t.Errorf("cache holds %d keys, want 1", cache.Len())
	}
}

func TestMonthCacheRemembersFailure(t *testing.T) {
	src := newFakeSchedule()
	key := MonthKey{Team: "ANA", YearMonth: "2025-03"}
	src.fail[key] = true
	cache := NewMonthCache(src)

	if _, err := cache.Get(context.Background(), key); err == nil {
		t.Fatal("first Get should report the fetch error")
	}
	games, err := cache.Get(context.Background(), key)
	if err != nil || len(games) != 0 {
		t.Errorf("second Get = %v, %v; want empty page", games, err)
	}
	if n := src.callCount("ANA", "2025-03"); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
	st := cache.Stats()
	if st.Fetches != 1 || st.Failures != 1 || st.Hits != 1 {
		t.Errorf("stats = %+v", st)
	}
	if len(st.Failed) != 1 || st.Failed[0] != "ANA/2025-03" {
		t.Errorf("failed keys = %v", st.Failed)
	}
}
