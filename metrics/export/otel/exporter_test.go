package otel

import (
	"context"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrEthical07/mojito"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot mojito.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() mojito.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := mojito.MetricsSnapshot{
		Counters:   make(map[mojito.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[mojito.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			}
		}
	}
	return out
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: mojito.MetricsSnapshot{
			Counters: map[mojito.MetricID]uint64{
				mojito.MetricOutcomeSuccess: 3,
			},
			Histograms: map[mojito.MetricID][]uint64{
				mojito.MetricSubmitLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(provider.Meter("mojito-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	got := collect(t, reader)
	checks := map[string]int64{
		"mojito_outcome_success_total":                 3,
		"mojito_signout_total":                         0,
		"mojito_submit_latency_seconds_bucket_le_0_05": 1,
		"mojito_submit_latency_seconds_bucket_le_0_5":  4,
		"mojito_submit_latency_seconds_bucket_le_inf":  8,
		"mojito_submit_latency_seconds_count":          8,
		"mojito_audit_dropped_total":                   1,
	}
	for name, want := range checks {
		v, ok := got[name]
		if !ok {
			t.Fatalf("expected %s to be collected, got %v", name, got)
		}
		if v != want {
			t.Fatalf("%s: expected %d, got %d", name, want, v)
		}
	}
}

func TestExporterSilentWhenMetricsDisabled(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{snapshot: mojito.MetricsSnapshot{
		Counters:   map[mojito.MetricID]uint64{},
		Histograms: map[mojito.MetricID][]uint64{},
	}}
	exp, err := NewOTelExporterFromSource(provider.Meter("mojito-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	if got := collect(t, reader); len(got) != 0 {
		t.Fatalf("expected no observations, got %v", got)
	}
}

func TestExporterRejectsNilArguments(t *testing.T) {
	_, provider := newReader()

	if _, err := NewOTelExporterFromSource(provider.Meter("mojito-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewOTelExporter(provider.Meter("mojito-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil engine, got %v", err)
	}
}

func TestCloseNilExporter(t *testing.T) {
	var exp *OTelExporter
	if err := exp.Close(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: mojito.MetricsSnapshot{
			Counters: map[mojito.MetricID]uint64{
				mojito.MetricOutcomeSuccess: 1,
			},
			Histograms: map[mojito.MetricID][]uint64{
				mojito.MetricSubmitLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(provider.Meter("mojito-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[mojito.MetricOutcomeSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
