package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonitor_SamplesDelta(t *testing.T) {
	counter := &Counter{}
	m := New(counter, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	for i := 0; i < 10; i++ {
		counter.Inc()
	}

	time.Sleep(60 * time.Millisecond)

	assert.Positive(t, m.Throughput())
}

func TestMonitor_ZeroWhenIdle(t *testing.T) {
	counter := &Counter{}
	m := New(counter, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	time.Sleep(60 * time.Millisecond)

	assert.Zero(t, m.Throughput())
}

func TestCounter_Inc(t *testing.T) {
	c := &Counter{}
	for i := 0; i < 5; i++ {
		c.Inc()
	}
	assert.EqualValues(t, 5, c.load())
}
