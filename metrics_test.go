package guauth

import (
	"sync"
	"testing"
)

func TestMetricsCountConcurrently(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				m.Inc(MetricLoginSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricLoginSuccess); got != goroutines*perGoroutine {
		t.Fatalf("MetricLoginSuccess = %d, want %d", got, goroutines*perGoroutine)
	}
	if got := m.Value(MetricLoginFailure); got != 0 {
		t.Fatalf("untouched counter = %d, want 0", got)
	}
}

func TestMetricsDisabledAndNil(t *testing.T) {
	disabled := NewMetrics(MetricsConfig{})
	disabled.Inc(MetricLogout)
	if got := disabled.Value(MetricLogout); got != 0 {
		t.Fatalf("disabled counter recorded: %d", got)
	}
	if disabled.Enabled() {
		t.Fatal("Enabled() = true for disabled metrics")
	}

	var m *Metrics
	m.Inc(MetricLogout)
	if got := m.Value(MetricLogout); got != 0 {
		t.Fatalf("nil counter recorded: %d", got)
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("nil snapshot has %d counters", len(snap.Counters))
	}
}

func TestMetricsSnapshotCoversAllCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricOTPRequestSuccess)
	m.Inc(MetricOTPRequestSuccess)
	m.Inc(MetricFlowReset)

	snap := m.Snapshot()
	if len(snap.Counters) != int(metricIDCount) {
		t.Fatalf("snapshot has %d counters, want %d", len(snap.Counters), metricIDCount)
	}
	if snap.Counters[MetricOTPRequestSuccess] != 2 {
		t.Fatalf("MetricOTPRequestSuccess = %d, want 2", snap.Counters[MetricOTPRequestSuccess])
	}
	if snap.Counters[MetricFlowReset] != 1 {
		t.Fatalf("MetricFlowReset = %d, want 1", snap.Counters[MetricFlowReset])
	}

	// Out-of-range IDs never land anywhere.
	m.Inc(metricIDCount + 5)
	if got := m.Value(metricIDCount + 5); got != 0 {
		t.Fatalf("out-of-range counter readable: %d", got)
	}
}
