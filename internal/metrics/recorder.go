// Package metrics records the outcome of one run as Prometheus gauges and
// pushes them to a Pushgateway, the usual sink for batch jobs that exit
// before a scrape could reach them.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// Recorder holds the gauges for a single run on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	games       prometheus.Gauge
	signals     *prometheus.GaugeVec
	skipped     prometheus.Gauge
	sourceOK    *prometheus.GaugeVec
	restFetches prometheus.Gauge
	restHits    prometheus.Gauge
	restFails   prometheus.Gauge
	restMissing prometheus.Gauge
	duration    *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with every gauge registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		games: f.NewGauge(prometheus.GaugeOpts{
			Name: "nhlsig_slate_games",
			Help: "Games on the slate for the run date",
		}),
		signals: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nhlsig_signals",
			Help: "Signals above the edge threshold, by market",
		}, []string{"market"}),
		skipped: f.NewGauge(prometheus.GaugeOpts{
			Name: "nhlsig_games_skipped",
			Help: "Games that produced a skip reason",
		}),
		sourceOK: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nhlsig_source_ok",
			Help: "1 if the source delivered data for the slate",
		}, []string{"source"}),
		restFetches: f.NewGauge(prometheus.GaugeOpts{
			Name: "nhlsig_rest_schedule_fetches",
			Help: "Team-month schedule fetches issued",
		}),
		restHits: f.NewGauge(prometheus.GaugeOpts{
			Name: "nhlsig_rest_cache_hits",
			Help: "Team-month lookups served from the run cache",
		}),
		restFails: f.NewGauge(prometheus.GaugeOpts{
			Name: "nhlsig_rest_schedule_failures",
			Help: "Team-month schedule fetches that failed",
		}),
		restMissing: f.NewGauge(prometheus.GaugeOpts{
			Name: "nhlsig_rest_missing_sides",
			Help: "Team sides with no previous game found",
		}),
		duration: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nhlsig_run_duration_seconds",
			Help: "Wall time of the run",
		}, []string{"mode"}),
		lastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nhlsig_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}, []string{"mode"}),
	}
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveSlate records game count, per-source status and rest cache stats.
func (r *Recorder) ObserveSlate(s *domain.Slate) {
	r.games.Set(float64(len(s.OddsCurrent)))
	for name, st := range s.SourceStatus {
		r.sourceOK.WithLabelValues(name).Set(boolFloat(st.OK))
	}
	if st, ok := s.SourceStatus["rest_nhle"]; ok {
		r.restFetches.Set(number(st.Meta["fetches"]))
		r.restHits.Set(number(st.Meta["cache_hits"]))
		r.restFails.Set(number(st.Meta["failures"]))
		r.restMissing.Set(number(st.Meta["missing_sides"]))
	}
}

// ObserveReport records signal and skip counts.
func (r *Recorder) ObserveReport(rep domain.SignalReport) {
	r.signals.WithLabelValues(string(domain.SignalMarketMoneyline)).Set(float64(len(rep.MoneylineSignals)))
	r.signals.WithLabelValues(string(domain.SignalMarketTotals)).Set(float64(len(rep.TotalsSignals)))
	r.skipped.Set(float64(len(rep.Skipped)))
}

// ObserveRun records the run duration and, when err is nil, the success
// timestamp.
func (r *Recorder) ObserveRun(mode string, elapsed time.Duration, finished time.Time, err error) {
	r.duration.WithLabelValues(mode).Set(elapsed.Seconds())
	if err == nil {
		r.lastSuccess.WithLabelValues(mode).Set(float64(finished.Unix()))
	}
}

// Push replaces the metrics of job grouped by date on the Pushgateway at url.
func (r *Recorder) Push(ctx context.Context, url, job, dateET string) error {
	err := push.New(url, job).
		Gatherer(r.reg).
		Grouping("date_et", dateET).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("metrics: push to %s: %w", url, err)
	}
	return nil
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// number reads a status meta value, which is an int on a freshly built slate
// and a float64 on one decoded from JSON.
func number(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
