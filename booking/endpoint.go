package booking

import (
	"context"

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

type registerCargoRequest struct {
	Reference string
	Carrier   string
	Method    voyage.TrackingMethod
}

type registerCargoResponse struct {
	ID  cargo.TrackingID `json:"tracking_id,omitempty"`
	Err error            `json:"error,omitempty"`
}

func (r registerCargoResponse) error() error { return r.Err }

func makeRegisterCargoEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(registerCargoRequest)
		id, err := s.RegisterCargo(ctx, req.Reference, req.Carrier, req.Method)
		return registerCargoResponse{ID: id, Err: err}, nil
	}
}

type loadCargoRequest struct {
	ID cargo.TrackingID
}

type loadCargoResponse struct {
	Cargo *Cargo `json:"cargo,omitempty"`
	Err   error  `json:"error,omitempty"`
}

func (r loadCargoResponse) error() error { return r.Err }

func makeLoadCargoEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(loadCargoRequest)
		c, err := s.LoadCargo(ctx, req.ID)
		if err != nil {
			return loadCargoResponse{Err: err}, nil
		}
		return loadCargoResponse{Cargo: &c}, nil
	}
}

type listCargosRequest struct{}

type listCargosResponse struct {
	Cargos []Cargo `json:"cargos"`
	Err    error   `json:"error,omitempty"`
}

func (r listCargosResponse) error() error { return r.Err }

func makeListCargosEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(listCargosRequest)
		cargos, err := s.Cargos(ctx)
		return listCargosResponse{Cargos: cargos, Err: err}, nil
	}
}

type listLocationsRequest struct{}

type listLocationsResponse struct {
	Locations []Location `json:"locations"`
	Err       error      `json:"error,omitempty"`
}

func (r listLocationsResponse) error() error { return r.Err }

func makeListLocationsEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(listLocationsRequest)
		return listLocationsResponse{Locations: s.Locations(ctx)}, nil
	}
}

// Set collects all of the endpoints that compose a booking service.
type Set struct {
	RegisterCargoEndpoint endpoint.Endpoint
	LoadCargoEndpoint     endpoint.Endpoint
	ListCargosEndpoint    endpoint.Endpoint
	ListLocationsEndpoint endpoint.Endpoint
}

// NewSet returns a Set that wraps the provided server, and wires in all of the
// expected endpoint middlewares via the various parameters.
func NewSet(svc Service, logger log.Logger, duration metrics.Histogram, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer) Set {
	var registerCargoEndpoint endpoint.Endpoint
	{
		registerCargoEndpoint = makeRegisterCargoEndpoint(svc)
		registerCargoEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(10), 100))(registerCargoEndpoint)
		registerCargoEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(registerCargoEndpoint)
		registerCargoEndpoint = opentracing.TraceServer(otTracer, "RegisterCargo")(registerCargoEndpoint)
		if zipkinTracer != nil {
			registerCargoEndpoint = zipkin.TraceEndpoint(zipkinTracer, "RegisterCargo")(registerCargoEndpoint)
		}
		registerCargoEndpoint = middleware.Logging(log.With(logger, "method", "RegisterCargo"))(registerCargoEndpoint)
		registerCargoEndpoint = middleware.Instrumenting(duration.With("method", "RegisterCargo"))(registerCargoEndpoint)
	}

	var loadCargoEndpoint endpoint.Endpoint
	{
		loadCargoEndpoint = makeLoadCargoEndpoint(svc)
		loadCargoEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(10), 100))(loadCargoEndpoint)
		loadCargoEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(loadCargoEndpoint)
		loadCargoEndpoint = opentracing.TraceServer(otTracer, "LoadCargo")(loadCargoEndpoint)
		if zipkinTracer != nil {
			loadCargoEndpoint = zipkin.TraceEndpoint(zipkinTracer, "LoadCargo")(loadCargoEndpoint)
		}
		loadCargoEndpoint = middleware.Logging(log.With(logger, "method", "LoadCargo"))(loadCargoEndpoint)
		loadCargoEndpoint = middleware.Instrumenting(duration.With("method", "LoadCargo"))(loadCargoEndpoint)
	}

	var listCargosEndpoint endpoint.Endpoint
	{
		listCargosEndpoint = makeListCargosEndpoint(svc)
		listCargosEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(10), 100))(listCargosEndpoint)
		listCargosEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(listCargosEndpoint)
		listCargosEndpoint = opentracing.TraceServer(otTracer, "ListCargos")(listCargosEndpoint)
		if zipkinTracer != nil {
			listCargosEndpoint = zipkin.TraceEndpoint(zipkinTracer, "ListCargos")(listCargosEndpoint)
		}
		listCargosEndpoint = middleware.Logging(log.With(logger, "method", "ListCargos"))(listCargosEndpoint)
		listCargosEndpoint = middleware.Instrumenting(duration.With("method", "ListCargos"))(listCargosEndpoint)
	}

	var listLocationsEndpoint endpoint.Endpoint
	{
		listLocationsEndpoint = makeListLocationsEndpoint(svc)
		listLocationsEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(10), 100))(listLocationsEndpoint)
		listLocationsEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(listLocationsEndpoint)
		listLocationsEndpoint = opentracing.TraceServer(otTracer, "ListLocations")(listLocationsEndpoint)
		if zipkinTracer != nil {
			listLocationsEndpoint = zipkin.TraceEndpoint(zipkinTracer, "ListLocations")(listLocationsEndpoint)
		}
		listLocationsEndpoint = middleware.Logging(log.With(logger, "method", "ListLocations"))(listLocationsEndpoint)
		listLocationsEndpoint = middleware.Instrumenting(duration.With("method", "ListLocations"))(listLocationsEndpoint)
	}

	return Set{
		RegisterCargoEndpoint: registerCargoEndpoint,
		LoadCargoEndpoint:     loadCargoEndpoint,
		ListCargosEndpoint:    listCargosEndpoint,
		ListLocationsEndpoint: listLocationsEndpoint,
	}
}

// RegisterCargo implements the service interface so Set can be used as a service
func (s Set) RegisterCargo(ctx context.Context, reference, carrier string, method voyage.TrackingMethod) (cargo.TrackingID, error) {
	resp, err := s.RegisterCargoEndpoint(ctx, registerCargoRequest{Reference: reference, Carrier: carrier, Method: method})
	if err != nil {
		return "", err
	}
	response := resp.(registerCargoResponse)
	return response.ID, response.Err
}

// LoadCargo implements the service interface so Set can be used as a service
func (s Set) LoadCargo(ctx context.Context, id cargo.TrackingID) (Cargo, error) {
	resp, err := s.LoadCargoEndpoint(ctx, loadCargoRequest{ID: id})
	if err != nil {
		return Cargo{}, err
	}
	response := resp.(loadCargoResponse)
	if response.Err != nil {
		return Cargo{}, response.Err
	}
	return *response.Cargo, nil
}

// Cargos implements the service interface so Set can be used as a service
func (s Set) Cargos(ctx context.Context) ([]Cargo, error) {
	resp, err := s.ListCargosEndpoint(ctx, listCargosRequest{})
	if err != nil {
		return nil, err
	}
	response := resp.(listCargosResponse)
	return response.Cargos, response.Err
}

// Locations implements the service interface so Set can be used as a service
func (s Set) Locations(ctx context.Context) []Location {
	resp, err := s.ListLocationsEndpoint(ctx, listLocationsRequest{})
	if err != nil {
		return []Location{}
	}
	response := resp.(listLocationsResponse)
	return response.Locations
}
