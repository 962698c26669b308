package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Qalifah/voyage-tracker/journey"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// Poll defaults.
const (
	DefaultMaxAttempts = 20
	DefaultInterval    = 5 * time.Second
)

// Poller asks the provider for a shipment's state until the answer is
// final or the attempt budget is spent.
type Poller struct {
	Service     Service
	MaxAttempts int
	Interval    time.Duration

	// Sleep waits between attempts. It defaults to a timer that gives up
	// when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger log.Logger
}

// NewPoller returns a Poller with the default budget.
func NewPoller(s Service, logger log.Logger) *Poller {
	return &Poller{
		Service:     s,
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
		Sleep:       Sleep,
		Logger:      logger,
	}
}

// Poll returns the first final snapshot of the shipment tracked as id. A
// snapshot is final once the status is terminal or the last movement shows
// the voyage is over. A Track-Failed status is reported as
// ErrTrackingFailed and request failures end the loop at once.
func (p *Poller) Poll(ctx context.Context, id string) (voyage.Snapshot, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	logger := p.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		s, err := p.Service.Tracking(ctx, id)
		if err != nil {
			return voyage.Snapshot{}, err
		}

		switch {
		case s.Status == voyage.TrackFailed:
			if s.Exception == "" {
				return s, ErrTrackingFailed
			}
			return s, fmt.Errorf("%w: %s", ErrTrackingFailed, s.Exception)
		case s.Status.Terminal(), journey.IsComplete(s.LastMovement):
			return s, nil
		}

		level.Debug(logger).Log("msg", "tracking not ready", "id", id, "attempt", attempt, "status", s.Status)
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return voyage.Snapshot{}, err
		}
	}

	return voyage.Snapshot{}, fmt.Errorf("%w after %d attempts", ErrPollTimeout, attempts)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
