// Package monitor implements the periodic throughput sampler described in
// spec.md §4.9: read a completed-request counter, compute the delta since
// the last tick, publish it to a shared atomic slot. Observers read the
// atomic directly; they never touch the server's data path.
package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/marmos91/brpc/internal/logger"
	"github.com/marmos91/brpc/pkg/metrics"
)

// Counter is incremented once per completed response. The Server owns the
// canonical instance and passes it to New; handlers never touch it.
type Counter struct {
	completed atomic.Uint64
}

// Inc records one completed response.
func (c *Counter) Inc() {
	c.completed.Add(1)
}

func (c *Counter) load() uint64 {
	return c.completed.Load()
}

// Monitor samples a Counter at a fixed interval and publishes the delta
// (requests completed since the previous tick) as "throughput (rps)" to a
// shared atomic, and optionally to a metrics sink.
type Monitor struct {
	counter  *Counter
	interval time.Duration
	metrics  metrics.RPCMetrics

	throughput atomic.Int64
	prev       uint64
}

// New returns a Monitor sampling counter every interval. m may be nil to
// disable metrics publication; the atomic Throughput() reading is always
// maintained regardless.
func New(counter *Counter, interval time.Duration, m metrics.RPCMetrics) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{counter: counter, interval: interval, metrics: m}
}

// Run ticks until ctx is cancelled. Intended to be started on its own
// goroutine alongside Server.Serve.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	current := m.counter.load()
	delta := current - m.prev
	m.prev = current

	rps := float64(delta) / m.interval.Seconds()
	m.throughput.Store(int64(rps))

	if m.metrics != nil {
		m.metrics.RecordThroughput(rps)
	}

	logger.Debug("throughput sample", "rps", humanize.Comma(int64(rps)), "completed_total", humanize.Comma(int64(current)))
}

// Throughput returns the most recent requests-per-second sample. Safe to
// call from any goroutine without touching the server's data path.
func (m *Monitor) Throughput() int64 {
	return m.throughput.Load()
}
