package tracking

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/voyage"
)

type instrumentingService struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	Service
}

// NewInstrumentingService returns an instance of an instrumenting Service.
func NewInstrumentingService(counter metrics.Counter, latency metrics.Histogram, s Service) Service {
	return &instrumentingService{
		requestCount:   counter,
		requestLatency: latency,
		Service:        s,
	}
}

func (s *instrumentingService) Track(ctx context.Context, id cargo.TrackingID) (voyage.Journey, error) {
	defer func(begin time.Time) {
		s.requestCount.With("method", "track").Add(1)
		s.requestLatency.With("method", "track").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return s.Service.Track(ctx, id)
}

func (s *instrumentingService) Journey(ctx context.Context, id cargo.TrackingID) (voyage.Journey, error) {
	defer func(begin time.Time) {
		s.requestCount.With("method", "journey").Add(1)
		s.requestLatency.With("method", "journey").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return s.Service.Journey(ctx, id)
}
