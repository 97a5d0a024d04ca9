package bookings

import (
	"context"
	"time"

	"bookd/internal/metrics"
	"bookd/pkg/logger"
)

// ExpirySweeper periodically releases seats held by reservations that were never paid
type ExpirySweeper struct {
	service  Service
	interval time.Duration
	logger   *logger.Logger
	done     chan struct{}
	stopped  chan struct{}
}

// NewExpirySweeper creates a sweeper running every interval
func NewExpirySweeper(service Service, interval time.Duration) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpirySweeper{
		service:  service,
		interval: interval,
		logger:   logger.GetDefault().WithComponent("expiry-sweeper"),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start runs the sweep loop in the background until Stop is called or ctx ends
func (s *ExpirySweeper) Start(ctx context.Context) {
	s.logger.Info("starting reservation expiry sweeper", "interval", s.interval.String())
	go s.run(ctx)
}

// Stop ends the loop and waits for an in-flight sweep to finish
func (s *ExpirySweeper) Stop() {
	close(s.done)
	<-s.stopped
	s.logger.Info("reservation expiry sweeper stopped")
}

func (s *ExpirySweeper) run(ctx context.Context) {
	defer close(s.stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep drains every overdue reservation, one batch at a time
func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	total := 0
	for ctx.Err() == nil {
		released, err := s.service.ExpireDue(ctx)
		if err != nil {
			s.logger.WithError(err).ErrorContext(ctx, "expiry sweep failed")
			break
		}
		total += released
		if released == 0 {
			break
		}
	}

	if total > 0 {
		s.logger.InfoContext(ctx, "released expired reservations", "count", total)
	}
	return total
}
