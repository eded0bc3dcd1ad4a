package sync

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner is what the scheduler drives; satisfied by *Syncer.
type Runner interface {
	TryRun(ctx context.Context, streamID string) (Report, bool, error)
}

// Scheduler owns the periodic tick for one stream. It is an explicit
// object with a start/stop lifecycle; there is no package-level state.
type Scheduler struct {
	runner   Runner
	streamID string
	interval time.Duration
	logger   *zap.Logger

	ticker func(d time.Duration) (<-chan time.Time, func())

	stop chan struct{}
	done chan struct{}
}

func NewScheduler(runner Runner, streamID string, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		streamID: streamID,
		interval: interval,
		logger:   logger,
		ticker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the tick loop. A failed tick is not retried immediately;
// the vendor gets the full interval to recover.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		tick, stopTicker := s.ticker(s.interval)
		defer stopTicker()

		s.logger.Info("sync scheduler started",
			zap.String("stream_id", s.streamID),
			zap.Duration("interval", s.interval),
		)

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-tick:
				if _, ran, err := s.runner.TryRun(ctx, s.streamID); err != nil {
					s.logger.Error("sync tick failed",
						zap.String("stream_id", s.streamID),
						zap.Error(err),
					)
				} else if !ran {
					s.logger.Debug("sync tick skipped", zap.String("stream_id", s.streamID))
				}
			}
		}
	}()
}

// Stop shuts the loop down and waits for an in-flight tick to return.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}
