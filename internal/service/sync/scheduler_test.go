package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingRunner struct {
	ran chan string
}

func (r *countingRunner) TryRun(ctx context.Context, streamID string) (Report, bool, error) {
	r.ran <- streamID
	return Report{StreamID: streamID}, true, nil
}

func TestSchedulerTicksAndStops(t *testing.T) {
	runner := &countingRunner{ran: make(chan string, 8)}

	tick := make(chan time.Time)
	s := NewScheduler(runner, "vendor-live", time.Minute, zap.NewNop())
	s.ticker = func(d time.Duration) (<-chan time.Time, func()) {
		return tick, func() {}
	}

	s.Start(context.Background())

	tick <- time.Now()
	tick <- time.Now()

	assert.Equal(t, "vendor-live", <-runner.ran)
	assert.Equal(t, "vendor-live", <-runner.ran)

	s.Stop()

	select {
	case <-runner.ran:
		t.Fatal("runner fired after Stop")
	default:
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	runner := &countingRunner{ran: make(chan string, 1)}

	tick := make(chan time.Time)
	s := NewScheduler(runner, "vendor-live", time.Minute, zap.NewNop())
	s.ticker = func(d time.Duration) (<-chan time.Time, func()) {
		return tick, func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not exit on context cancel")
	}
}
