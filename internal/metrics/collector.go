package metrics

import (
	"sync"
	"time"

	"github.com/alexwlchan/create-thumbnail/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the progress of a batch
type Stats struct {
	Total     int
	Completed int
	Failed    int
	InFlight  int
}

// Collector periodically copies batch progress into metrics and the log
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	started       time.Time
	stopChan      chan struct{}
	done          chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	c.started = time.Now()
	go c.collectLoop()
}

// Stop stops the collection loop, records a final sample and the batch
// duration. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
		if c.started.IsZero() {
			return
		}
		<-c.done

		c.collect()
		BatchLastRunDuration.Set(time.Since(c.started).Seconds())
		BatchLastRunTimestamp.SetToCurrentTime()
	})
}

func (c *Collector) collectLoop() {
	defer close(c.done)

	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
			c.logProgress()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	BatchItems.WithLabelValues("total").Set(float64(stats.Total))
	BatchItems.WithLabelValues("completed").Set(float64(stats.Completed))
	BatchItems.WithLabelValues("failed").Set(float64(stats.Failed))
	BatchItems.WithLabelValues("in_flight").Set(float64(stats.InFlight))

	logging.Debug("Metrics collected: total=%d, completed=%d, failed=%d, in_flight=%d",
		stats.Total, stats.Completed, stats.Failed, stats.InFlight)
}

func (c *Collector) logProgress() {
	if c.statsProvider == nil {
		return
	}
	stats := c.statsProvider.GetStats()
	logging.Info("Progress: %d/%d thumbnails done, %d failed", stats.Completed+stats.Failed, stats.Total, stats.Failed)
}
