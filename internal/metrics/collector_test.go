package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	stats Stats
	calls int
}

func (m *mockStatsProvider) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) set(stats Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = stats
}

func (m *mockStatsProvider) getCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 5*time.Second)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}
	if collector.statsProvider != provider {
		t.Error("statsProvider not set")
	}
	if collector.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", collector.interval)
	}
}

func TestCollectorCollectsOnStart(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{Total: 10, Completed: 3, Failed: 1, InFlight: 2}}
	collector := NewCollector(provider, time.Hour)

	collector.Start()
	collector.Stop()

	checks := map[string]float64{"total": 10, "completed": 3, "failed": 1, "in_flight": 2}
	for state, want := range checks {
		if got := testutil.ToFloat64(BatchItems.WithLabelValues(state)); got != want {
			t.Errorf("BatchItems{%s} = %v, want %v", state, got, want)
		}
	}
	if provider.getCalls() < 2 {
		t.Errorf("GetStats called %d times, want at least 2 (start and stop)", provider.getCalls())
	}
}

func TestCollectorFinalSample(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{Total: 4}}
	collector := NewCollector(provider, time.Hour)

	collector.Start()
	provider.set(Stats{Total: 4, Completed: 4})
	collector.Stop()

	if got := testutil.ToFloat64(BatchItems.WithLabelValues("completed")); got != 4 {
		t.Errorf("BatchItems{completed} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(BatchLastRunTimestamp); got <= 0 {
		t.Errorf("BatchLastRunTimestamp = %v, want it set", got)
	}
}

func TestCollectorTicks(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{Total: 1}}
	collector := NewCollector(provider, 10*time.Millisecond)

	collector.Start()
	deadline := time.Now().Add(2 * time.Second)
	for provider.getCalls() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	collector.Stop()

	if provider.getCalls() < 3 {
		t.Errorf("GetStats called %d times, want the ticker to collect", provider.getCalls())
	}
}

func TestCollectorStopIsIdempotent(t *testing.T) {
	collector := NewCollector(&mockStatsProvider{}, time.Hour)
	collector.Start()
	collector.Stop()
	collector.Stop()
}

func TestCollectorStopWithoutStart(t *testing.T) {
	collector := NewCollector(&mockStatsProvider{}, time.Hour)
	collector.Stop()
}

func TestCollectorNilProvider(t *testing.T) {
	collector := NewCollector(nil, time.Hour)
	collector.Start()
	collector.Stop()
}
