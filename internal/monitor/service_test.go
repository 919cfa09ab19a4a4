package monitor

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"netwatch/internal/domain"
	"netwatch/internal/store"
)

type fakeSampler struct{ n int }

func (f *fakeSampler) Sample() domain.StatusSample {
	f.n++
	return domain.StatusSample{TimestampMs: time.Now().UnixMilli(), UptimeSec: int64(f.n)}
}

func newTestService(t *testing.T, targets ...domain.Target) (*Service, *fakeSampler) {
	t.Helper()
	dir := t.TempDir()
	ping := store.New[domain.ProbeResult](zap.NewNop(), dir+"/ping", store.Options{WindowCap: 1000})
	status := store.New[domain.StatusSample](zap.NewNop(), dir+"/status", store.Options{MaxEntriesPerChunk: 700})
	sampler := &fakeSampler{}
	return NewService(zap.NewNop(), targets, ping, status, sampler), sampler
}

func res(up bool, ms int64) domain.ProbeResult {
	return domain.ProbeResult{TimestampMs: time.Now().UnixMilli(), Up: up, ResponseTimeMs: ms}
}

func TestUptimePercentage(t *testing.T) {
	tgt := domain.Target{ID: "a", URL: "https://a"}
	svc, _ := newTestService(t, tgt)

	if got := svc.UptimePercentage("a", 1); got != 0 {
		t.Fatalf("empty window must be 0, got %v", got)
	}

	for i := 0; i < 4; i++ {
		svc.RecordResult("a", res(true, 100))
	}
	if got := svc.UptimePercentage("a", 1); got != 100 {
		t.Fatalf("all-up window must be 100, got %v", got)
	}

	svc2, _ := newTestService(t, tgt)
	for i := 0; i < 3; i++ {
		svc2.RecordResult("a", res(true, 100))
	}
	svc2.RecordResult("a", res(false, 0))
	if got := svc2.UptimePercentage("a", 1); got != 75 {
		t.Fatalf("3 up + 1 down must be 75, got %v", got)
	}
}

func TestAverageResponseTime_SkipsDownResults(t *testing.T) {
	svc, _ := newTestService(t, domain.Target{ID: "a", URL: "https://a"})

	if got := svc.AverageResponseTime("a", 1); got != 0 {
		t.Fatalf("no up results must be 0, got %v", got)
	}

	svc.RecordResult("a", res(true, 100))
	svc.RecordResult("a", res(true, 300))
	svc.RecordResult("a", res(false, 9000)) // down: excluded from the mean
	if got := svc.AverageResponseTime("a", 1); got != 200 {
		t.Fatalf("want mean of up results 200, got %v", got)
	}
}

func TestLatestStatus_ProducesWhenEmpty(t *testing.T) {
	svc, sampler := newTestService(t)

	got := svc.LatestStatus()
	if sampler.n != 1 {
		t.Fatalf("empty series must trigger exactly one synchronous sample, got %d", sampler.n)
	}
	if got.UptimeSec != 1 {
		t.Fatalf("returned sample should be the one just produced: %+v", got)
	}

	// the produced sample was recorded: no second collection
	again := svc.LatestStatus()
	if sampler.n != 1 {
		t.Fatalf("second read must come from the store, sampler ran %d times", sampler.n)
	}
	if again.UptimeSec != got.UptimeSec {
		t.Fatalf("reads disagree: %+v vs %+v", got, again)
	}
}

func TestResultsHistoryRespectsRetentionCap(t *testing.T) {
	dir := t.TempDir()
	ping := store.New[domain.ProbeResult](zap.NewNop(), dir+"/ping", store.Options{WindowCap: 10})
	status := store.New[domain.StatusSample](zap.NewNop(), dir+"/status", store.Options{MaxEntriesPerChunk: 700})
	svc := NewService(zap.NewNop(), []domain.Target{{ID: "a"}}, ping, status, &fakeSampler{})

	for i := 0; i < 13; i++ {
		svc.RecordResult("a", domain.ProbeResult{TimestampMs: int64(i), Up: true})
	}

	got := svc.ResultsHistory("a", 0, 0)
	if len(got) != 10 {
		t.Fatalf("want exactly the cap retained, got %d", len(got))
	}
	if got[0].TimestampMs != 3 || got[9].TimestampMs != 12 {
		t.Fatalf("want the most recent results, got %+v", got)
	}
}

func TestHistoryIncludePing(t *testing.T) {
	svc, _ := newTestService(t, domain.Target{ID: "a"}, domain.Target{ID: "b"})
	svc.RecordResult("a", res(true, 10))
	svc.RecordSample(domain.StatusSample{TimestampMs: time.Now().UnixMilli()})

	h := svc.History(0, 0, false)
	if len(h.Status) != 1 || h.Ping != nil {
		t.Fatalf("without ping: %+v", h)
	}

	h = svc.History(0, 0, true)
	if len(h.Ping) != 2 || len(h.Ping["a"]) != 1 || len(h.Ping["b"]) != 0 {
		t.Fatalf("with ping: %+v", h.Ping)
	}
}

func TestUptimeStats(t *testing.T) {
	svc, _ := newTestService(t,
		domain.Target{ID: "a", DisplayName: "Alpha"},
		domain.Target{ID: "b"},
	)
	svc.RecordResult("a", res(true, 100))
	svc.RecordResult("a", res(false, 0))

	stats := svc.UptimeStats(1)
	if len(stats) != 2 {
		t.Fatalf("want one row per target, got %d", len(stats))
	}
	if stats[0].Name != "Alpha" || stats[0].UptimePercent != 50 || stats[0].Checks != 2 {
		t.Fatalf("alpha row wrong: %+v", stats[0])
	}
	if stats[1].UptimePercent != 0 || stats[1].Checks != 0 {
		t.Fatalf("empty target row wrong: %+v", stats[1])
	}
}
