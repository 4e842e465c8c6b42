package mojito

import (
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/mojito/workflow"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricOutcomeSuccess)

	if got := m.Value(MetricOutcomeSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.Counters)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricSubmitAttempt)
	m.Inc(MetricSubmitAttempt)
	m.Inc(MetricSubmitAttempt)

	if got := m.Value(MetricSubmitAttempt); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricChallengeReset)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricChallengeReset); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		20 * time.Millisecond,
		80 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		900 * time.Millisecond,
		2 * time.Second,
		4 * time.Second,
		30 * time.Second,
	}

	for _, d := range observations {
		m.Observe(MetricSubmitLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricSubmitLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsHistogramDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricSubmitLatency, time.Millisecond)

	if _, ok := m.Snapshot().Histograms[MetricSubmitLatency]; ok {
		t.Fatal("expected no histogram when latency histograms are disabled")
	}
}

func TestMetricsObserveIgnoresCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricSubmitAttempt, time.Millisecond)

	if got := m.Value(MetricSubmitAttempt); got != 0 {
		t.Fatalf("expected counter untouched, got %d", got)
	}
	for _, v := range m.Snapshot().Histograms[MetricSubmitLatency] {
		if v != 0 {
			t.Fatal("expected empty latency histogram")
		}
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricOutcomeSuccess)
	m.Inc(MetricOutcomeConflict)
	m.Inc(MetricOutcomeConflict)
	m.Observe(MetricSubmitLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricOutcomeSuccess] != 1 {
		t.Fatalf("expected MetricOutcomeSuccess=1 got %d", snap.Counters[MetricOutcomeSuccess])
	}
	if snap.Counters[MetricOutcomeConflict] != 2 {
		t.Fatalf("expected MetricOutcomeConflict=2 got %d", snap.Counters[MetricOutcomeConflict])
	}
	if len(snap.Histograms[MetricSubmitLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricSubmitLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricSubmitLatency][0])
	}
}

func TestEngineMetricsFollowSubmissions(t *testing.T) {
	engine, api := newTestEngine(t)
	api.respond(pathSignUp, 400, "")
	st := mustStart(t, engine, workflow.KindSignUp, StartOptions{})

	st = mustSubmit(t, engine, st.ID, signUpInput("bad", "x", "x"), newProvider("tok"))
	st = mustSubmit(t, engine, st.ID, signUpInput("a@b.com", "Abcdef1!", "Abcdef1!"), newProvider("tok"))
	api.respond(pathSignUp, 200, "")
	_ = mustSubmit(t, engine, st.ID, signUpInput("a@b.com", "Abcdef1!", "Abcdef1!"), newProvider("tok"))

	snap := engine.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricWorkflowStarted:      1,
		MetricSubmitAttempt:        3,
		MetricValidationRejected:   1,
		MetricChallengeAcquired:    2,
		MetricChallengeReset:       2,
		MetricOutcomeConflict:      1,
		MetricOutcomeSuccess:       1,
		MetricOutcomeServerFailure: 0,
	}
	for id, v := range want {
		if snap.Counters[id] != v {
			t.Fatalf("metric %d: expected %d, got %d", id, v, snap.Counters[id])
		}
	}

	var observed uint64
	for _, v := range snap.Histograms[MetricSubmitLatency] {
		observed += v
	}
	if observed != 2 {
		t.Fatalf("expected two latency observations, got %d", observed)
	}
}

func TestEngineMetricsDisabled(t *testing.T) {
	engine, _ := newTestEngine(t, withConfig(func(cfg *Config) {
		cfg.Metrics.Enabled = false
		cfg.Metrics.EnableLatencyHistograms = false
	}))
	st := mustStart(t, engine, workflow.KindSignUp, StartOptions{})
	_ = mustSubmit(t, engine, st.ID, signUpInput("a@b.com", "Abcdef1!", "Abcdef1!"), newProvider("tok"))

	if snap := engine.MetricsSnapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected no counters, got %v", snap.Counters)
	}
}
