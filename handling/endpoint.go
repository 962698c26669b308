package handling

import (
	"context"
	"time"

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
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/middleware"
	"github.com/Qalifah/voyage-tracker/voyage"
)

type registerEventRequest struct {
	ID             cargo.TrackingID
	Location       location.UNLcode
	Voyage         voyage.Number
	EventType      cargo.HandlingEventType
	Description    string
	CompletionTime time.Time
}

type registerEventResponse struct {
	Err error `json:"error,omitempty"`
}

func (r registerEventResponse) error() error { return r.Err }

func makeRegisterEventEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(registerEventRequest)
		err := s.RegisterHandlingEvent(ctx, req.CompletionTime, req.ID, req.Voyage, req.Location, req.EventType, req.Description)
		return registerEventResponse{Err: err}, nil
	}
}

type handlingHistoryRequest struct {
	ID cargo.TrackingID
}

type handlingHistoryResponse struct {
	Events []Event `json:"events"`
	Err    error   `json:"error,omitempty"`
}

func (r handlingHistoryResponse) error() error { return r.Err }

func makeHandlingHistoryEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(handlingHistoryRequest)
		events, err := s.HandlingHistory(ctx, req.ID)
		if err != nil {
			return handlingHistoryResponse{Err: err}, nil
		}
		return handlingHistoryResponse{Events: assembleEvents(events)}, nil
	}
}

// Event is a read model of a handling event.
type Event struct {
	TrackingID  string    `json:"tracking_id"`
	Type        string    `json:"event_type"`
	Location    string    `json:"location,omitempty"`
	Voyage      string    `json:"voyage,omitempty"`
	Description string    `json:"description,omitempty"`
	Completed   time.Time `json:"completion_time"`
	Registered  time.Time `json:"registration_time"`
}

func assembleEvents(events []cargo.HandlingEvent) []Event {
	result := make([]Event, 0, len(events))
	for _, e := range events {
		result = append(result, Event{
			TrackingID:  string(e.TrackingID),
			Type:        e.Activity.Type.String(),
			Location:    string(e.Activity.Location),
			Voyage:      string(e.Activity.VoyageNumber),
			Description: e.Description,
			Completed:   e.Completed,
			Registered:  e.Registered,
		})
	}
	return result
}

// Set collects all of the endpoints that compose a handling service.
type Set struct {
	RegisterEventEndpoint   endpoint.Endpoint
	HandlingHistoryEndpoint endpoint.Endpoint
}

// NewSet returns a Set that wraps the provided server, and wires in all of the
// expected endpoint middlewares via the various parameters.
func NewSet(svc Service, logger log.Logger, duration metrics.Histogram, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer) Set {
	var registerEventEndpoint endpoint.Endpoint
	{
		registerEventEndpoint = makeRegisterEventEndpoint(svc)
		registerEventEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(10), 100))(registerEventEndpoint)
		registerEventEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(registerEventEndpoint)
		registerEventEndpoint = opentracing.TraceServer(otTracer, "RegisterEvent")(registerEventEndpoint)
		if zipkinTracer != nil {
			registerEventEndpoint = zipkin.TraceEndpoint(zipkinTracer, "RegisterEvent")(registerEventEndpoint)
		}
		registerEventEndpoint = middleware.Logging(log.With(logger, "method", "RegisterEvent"))(registerEventEndpoint)
		registerEventEndpoint = middleware.Instrumenting(duration.With("method", "RegisterEvent"))(registerEventEndpoint)
	}

	var handlingHistoryEndpoint endpoint.Endpoint
	{
		handlingHistoryEndpoint = makeHandlingHistoryEndpoint(svc)
		handlingHistoryEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(10), 100))(handlingHistoryEndpoint)
		handlingHistoryEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(handlingHistoryEndpoint)
		handlingHistoryEndpoint = opentracing.TraceServer(otTracer, "HandlingHistory")(handlingHistoryEndpoint)
		if zipkinTracer != nil {
			handlingHistoryEndpoint = zipkin.TraceEndpoint(zipkinTracer, "HandlingHistory")(handlingHistoryEndpoint)
		}
		handlingHistoryEndpoint = middleware.Logging(log.With(logger, "method", "HandlingHistory"))(handlingHistoryEndpoint)
		handlingHistoryEndpoint = middleware.Instrumenting(duration.With("method", "HandlingHistory"))(handlingHistoryEndpoint)
	}

	return Set{
		RegisterEventEndpoint:   registerEventEndpoint,
		HandlingHistoryEndpoint: handlingHistoryEndpoint,
	}
}

// RegisterHandlingEvent implements the service interface so Set can be used as a service
func (s Set) RegisterHandlingEvent(ctx context.Context, completed time.Time, id cargo.TrackingID, voyageNumber voyage.Number,
	unLocode location.UNLcode, eventType cargo.HandlingEventType, description string) error {
	resp, err := s.RegisterEventEndpoint(ctx, registerEventRequest{
		ID:             id,
		Location:       unLocode,
		Voyage:         voyageNumber,
		EventType:      eventType,
		Description:    description,
		CompletionTime: completed,
	})
	if err != nil {
		return err
	}
	response := resp.(registerEventResponse)
	return response.Err
}

// HandlingHistory implements the service interface so Set can be used as a
// service. Only the fields of the Event read model survive the round trip.
func (s Set) HandlingHistory(ctx context.Context, id cargo.TrackingID) ([]cargo.HandlingEvent, error) {
	resp, err := s.HandlingHistoryEndpoint(ctx, handlingHistoryRequest{ID: id})
	if err != nil {
		return nil, err
	}
	response := resp.(handlingHistoryResponse)
	if response.Err != nil {
		return nil, response.Err
	}
	events := make([]cargo.HandlingEvent, 0, len(response.Events))
	for _, e := range response.Events {
		events = append(events, cargo.HandlingEvent{
			TrackingID: cargo.TrackingID(e.TrackingID),
			Activity: cargo.HandlingActivity{
				Type:         cargo.ParseHandlingEventType(e.Type),
				Location:     location.UNLcode(e.Location),
				VoyageNumber: voyage.Number(e.Voyage),
			},
			Description: e.Description,
			Completed:   e.Completed,
			Registered:  e.Registered,
		})
	}
	return events, nil
}
