package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	localblob "github.com/dawg2324/moneypuck-mirror/internal/blob/local"
	"github.com/dawg2324/moneypuck-mirror/internal/domain"
	"github.com/dawg2324/moneypuck-mirror/internal/notify"
	"github.com/dawg2324/moneypuck-mirror/internal/signals"
)

func newTestOrchestrator(t *testing.T, odds *fakeOdds, bus domain.SignalBus, n Notifier) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()
	blob := localblob.New(dir)
	b := newTestBuilder(odds, &fakeRates{rates: slateRates()}, nil, slateSchedule())
	out := Output{
		Bus:      bus,
		Stream:   "nhl:signals",
		Channel:  "nhl:signals:latest",
		Notifier: n,
		Layout:   signals.ReportMeta{MinSignals: 1},
	}
	o := NewOrchestrator(b, signals.NewEngine(signals.DefaultConfig(), quietLogger()), NewArtifactStore(blob, blob, "nhl"), out, quietLogger())
	return o, dir
}

func TestOrchestratorRun(t *testing.T) {
	bus := &fakeBus{}
	n := &fakeNotifier{}
	o, dir := newTestOrchestrator(t, &fakeOdds{games: slateGames()}, bus, n)

	rep, err := o.Run(context.Background(), "run-9", slateDate)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.RunID != "run-9" || rep.DateET != slateDate {
		t.Errorf("report header = %q %q", rep.RunID, rep.DateET)
	}
	if len(rep.MoneylineSignals) == 0 {
		t.Fatalf("expected a moneyline signal for TOR +120")
	}

	for _, f := range []string{SlateFile, ReportFile, ReportJSONFile} {
		if _, err := os.Stat(filepath.Join(dir, "nhl", slateDate, f)); err != nil {
			t.Errorf("artifact %s: %v", f, err)
		}
	}
	md, _ := os.ReadFile(filepath.Join(dir, "nhl", slateDate, ReportFile))
	if !strings.Contains(string(md), "TOR ML 120 (draftkings)") {
		t.Errorf("markdown missing moneyline signal:\n%s", md)
	}

	if len(bus.msgs) != 2 || bus.msgs[0].kind != "stream" || bus.msgs[1].dest != "nhl:signals:latest" {
		t.Fatalf("bus messages = %+v", bus.msgs)
	}
	var published domain.SignalReport
	if err := json.Unmarshal(bus.msgs[1].payload, &published); err != nil || published.RunID != "run-9" {
		t.Errorf("published report = %+v, %v", published, err)
	}

	if len(n.sent) != 1 || n.sent[0].event != notify.EventSignalsReady {
		t.Errorf("notifications = %+v", n.sent)
	}
}

func TestOrchestratorBusFailureIsNotFatal(t *testing.T) {
	bus := &fakeBus{err: errors.New("redis down")}
	o, _ := newTestOrchestrator(t, &fakeOdds{games: slateGames()}, bus, nil)

	if _, err := o.Run(context.Background(), "run-1", slateDate); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestOrchestratorBuildFailureNotifies(t *testing.T) {
	n := &fakeNotifier{}
	o, _ := newTestOrchestrator(t, &fakeOdds{err: errors.New("401 unauthorized")}, nil, n)

	if _, err := o.Run(context.Background(), "run-1", slateDate); err == nil {
		t.Fatal("expected error")
	}
	if len(n.sent) != 1 || n.sent[0].event != notify.EventRunFailed || !strings.Contains(n.sent[0].message, "401") {
		t.Errorf("notifications = %+v", n.sent)
	}
}

func TestOrchestratorSignalsFromStoredSlate(t *testing.T) {
	o, _ := newTestOrchestrator(t, &fakeOdds{games: slateGames()}, nil, nil)
	ctx := context.Background()

	if _, err := o.BuildSlate(ctx, "run-1", slateDate); err != nil {
		t.Fatal(err)
	}
	slate, err := o.LoadSlate(ctx, slateDate)
	if err != nil {
		t.Fatalf("LoadSlate: %v", err)
	}
	rep, err := o.Signals(ctx, "run-2", slate)
	if err != nil {
		t.Fatalf("Signals: %v", err)
	}
	if rep.RunID != "run-2" || len(rep.TotalsSignals)+len(rep.MoneylineSignals) == 0 {
		t.Errorf("report = %+v", rep)
	}
}

func TestOrchestratorRestOnly(t *testing.T) {
	o, dir := newTestOrchestrator(t, &fakeOdds{games: slateGames()}, nil, nil)
	rows, err := o.RestOnly(context.Background(), "run-1", slateDate)
	if err != nil || len(rows) != 1 {
		t.Fatalf("RestOnly = %v, %v", rows, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nhl", slateDate, "nhl_rest.json")); err != nil {
		t.Errorf("rest artifact: %v", err)
	}
}
