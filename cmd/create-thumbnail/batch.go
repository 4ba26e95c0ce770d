package main

import (
	"sync/atomic"

	"github.com/alexwlchan/create-thumbnail/internal/metrics"
)

// batchProgress counts requests as they move through the worker pool and
// implements metrics.StatsProvider for the progress collector.
type batchProgress struct {
	total     int
	inFlight  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

func newBatchProgress(total int) *batchProgress {
	return &batchProgress{total: total}
}

func (p *batchProgress) start() {
	p.inFlight.Add(1)
	metrics.RequestsInFlight.Inc()
}

func (p *batchProgress) finish(err error) {
	p.inFlight.Add(-1)
	metrics.RequestsInFlight.Dec()
	if err != nil {
		p.failed.Add(1)
		return
	}
	p.completed.Add(1)
}

// abandon drops a started request that was never rendered.
func (p *batchProgress) abandon() {
	p.inFlight.Add(-1)
	metrics.RequestsInFlight.Dec()
}

// GetStats implements metrics.StatsProvider
func (p *batchProgress) GetStats() metrics.Stats {
	return metrics.Stats{
		Total:     p.total,
		Completed: int(p.completed.Load()),
		Failed:    int(p.failed.Load()),
		InFlight:  int(p.inFlight.Load()),
	}
}
