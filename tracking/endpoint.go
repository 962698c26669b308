package tracking

import (
	"context"
	"encoding/json"

	"golang.org/x/time/rate"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"

	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"github.com/sony/gobreaker"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/middleware"
	"github.com/Qalifah/voyage-tracker/voyage"
)

type trackCargoRequest struct {
	ID cargo.TrackingID
}

type loadJourneyRequest struct {
	ID cargo.TrackingID
}

// journeyResponse encodes as the journey view itself.
type journeyResponse struct {
	Journey *voyage.Journey
	Err     error
}

func (r journeyResponse) error() error { return r.Err }

func (r journeyResponse) MarshalJSON() ([]byte, error) {
	if r.Journey == nil {
		return []byte("null"), nil
	}
	return json.Marshal(NewJourneyView(*r.Journey))
}

func makeTrackCargoEndpoint(ts Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(trackCargoRequest)
		j, err := ts.Track(ctx, req.ID)
		if err != nil {
			return journeyResponse{Err: err}, nil
		}
		return journeyResponse{Journey: &j}, nil
	}
}

func makeLoadJourneyEndpoint(ts Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(loadJourneyRequest)
		j, err := ts.Journey(ctx, req.ID)
		if err != nil {
			return journeyResponse{Err: err}, nil
		}
		return journeyResponse{Journey: &j}, nil
	}
}

// Set collects all of the endpoints that compose a tracking service.
type Set struct {
	TrackCargoEndpoint  endpoint.Endpoint
	LoadJourneyEndpoint endpoint.Endpoint
}

// NewSet returns a Set that wraps the provided server, and wires in all of the
// expected endpoint middlewares via the various parameters.
func NewSet(svc Service, logger log.Logger, duration metrics.Histogram, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer) Set {
	var trackCargoEndpoint endpoint.Endpoint
	{
		trackCargoEndpoint = makeTrackCargoEndpoint(svc)
		trackCargoEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(1), 20))(trackCargoEndpoint)
		trackCargoEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(trackCargoEndpoint)
		trackCargoEndpoint = opentracing.TraceServer(otTracer, "TrackCargo")(trackCargoEndpoint)
		if zipkinTracer != nil {
			trackCargoEndpoint = zipkin.TraceEndpoint(zipkinTracer, "TrackCargo")(trackCargoEndpoint)
		}
		trackCargoEndpoint = middleware.Logging(log.With(logger, "method", "TrackCargo"))(trackCargoEndpoint)
		trackCargoEndpoint = middleware.Instrumenting(duration.With("method", "TrackCargo"))(trackCargoEndpoint)
	}

	var loadJourneyEndpoint endpoint.Endpoint
	{
		loadJourneyEndpoint = makeLoadJourneyEndpoint(svc)
		loadJourneyEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(10), 100))(loadJourneyEndpoint)
		loadJourneyEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(loadJourneyEndpoint)
		loadJourneyEndpoint = opentracing.TraceServer(otTracer, "LoadJourney")(loadJourneyEndpoint)
		if zipkinTracer != nil {
			loadJourneyEndpoint = zipkin.TraceEndpoint(zipkinTracer, "LoadJourney")(loadJourneyEndpoint)
		}
		loadJourneyEndpoint = middleware.Logging(log.With(logger, "method", "LoadJourney"))(loadJourneyEndpoint)
		loadJourneyEndpoint = middleware.Instrumenting(duration.With("method", "LoadJourney"))(loadJourneyEndpoint)
	}

	return Set{
		TrackCargoEndpoint:  trackCargoEndpoint,
		LoadJourneyEndpoint: loadJourneyEndpoint,
	}
}

// Track implements the service interface so Set can be used as a service
func (s Set) Track(ctx context.Context, id cargo.TrackingID) (voyage.Journey, error) {
	resp, err := s.TrackCargoEndpoint(ctx, trackCargoRequest{ID: id})
	if err != nil {
		return voyage.Journey{}, err
	}
	return resp.(journeyResponse).result()
}

// Journey implements the service interface so Set can be used as a service
func (s Set) Journey(ctx context.Context, id cargo.TrackingID) (voyage.Journey, error) {
	resp, err := s.LoadJourneyEndpoint(ctx, loadJourneyRequest{ID: id})
	if err != nil {
		return voyage.Journey{}, err
	}
	return resp.(journeyResponse).result()
}

func (r journeyResponse) result() (voyage.Journey, error) {
	if r.Err != nil {
		return voyage.Journey{}, r.Err
	}
	if r.Journey == nil {
		return voyage.Journey{}, ErrNoJourney
	}
	return *r.Journey, nil
}
