package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"
	"github.com/go-kit/kit/transport"
	grpctransport "github.com/go-kit/kit/transport/grpc"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/pb"
	"github.com/Qalifah/voyage-tracker/pb/bookingpb"
	"github.com/Qalifah/voyage-tracker/voyage"
)

type grpcServer struct {
	register      grpctransport.Handler
	load          grpctransport.Handler
	listCargos    grpctransport.Handler
	listLocations grpctransport.Handler
}

// NewGRPCServer makes a set of endpoints available on a grpc server
func NewGRPCServer(endpoints Set, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) bookingpb.BookingServer {
	options := []grpctransport.ServerOption{
		grpctransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	if zipkinTracer != nil {
		options = append(options, zipkin.GRPCServerTrace(zipkinTracer))
	}

	return &grpcServer{
		register: grpctransport.NewServer(
			endpoints.RegisterCargoEndpoint,
			decodeGRPCRegisterCargoRequest,
			encodeGRPCRegisterCargoResponse,
			append(options, grpctransport.ServerBefore(opentracing.GRPCToContext(otTracer, "Register", logger)))...,
		),
		load: grpctransport.NewServer(
			endpoints.LoadCargoEndpoint,
			decodeGRPCLoadCargoRequest,
			encodeGRPCLoadCargoResponse,
			append(options, grpctransport.ServerBefore(opentracing.GRPCToContext(otTracer, "Load", logger)))...,
		),
		listCargos: grpctransport.NewServer(
			endpoints.ListCargosEndpoint,
			decodeGRPCListCargosRequest,
			encodeGRPCListCargosResponse,
			append(options, grpctransport.ServerBefore(opentracing.GRPCToContext(otTracer, "Cargos", logger)))...,
		),
		listLocations: grpctransport.NewServer(
			endpoints.ListLocationsEndpoint,
			decodeGRPCListLocationsRequest,
			encodeGRPCListLocationsResponse,
			append(options, grpctransport.ServerBefore(opentracing.GRPCToContext(otTracer, "Locations", logger)))...,
		),
	}
}

func (s *grpcServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, rep, err := s.register.ServeGRPC(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.(*structpb.Struct), nil
}

func (s *grpcServer) Load(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, rep, err := s.load.ServeGRPC(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.(*structpb.Struct), nil
}

func (s *grpcServer) Cargos(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, rep, err := s.listCargos.ServeGRPC(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.(*structpb.Struct), nil
}

func (s *grpcServer) Locations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, rep, err := s.listLocations.ServeGRPC(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.(*structpb.Struct), nil
}

// NewGRPCClient returns a booking service backed by a grpc server at the other end of the conn
func NewGRPCClient(conn *grpc.ClientConn, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) Service {
	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))
	var options []grpctransport.ClientOption
	if zipkinTracer != nil {
		options = append(options, zipkin.GRPCClientTrace(zipkinTracer))
	}

	newEndpoint := func(method, name string, enc grpctransport.EncodeRequestFunc, dec grpctransport.DecodeResponseFunc) endpoint.Endpoint {
		var e endpoint.Endpoint
		e = grpctransport.NewClient(
			conn,
			"pb.Booking",
			method,
			enc,
			dec,
			&structpb.Struct{},
			append(options, grpctransport.ClientBefore(opentracing.ContextToGRPC(otTracer, logger)))...,
		).Endpoint()
		e = opentracing.TraceClient(otTracer, name)(e)
		e = limiter(e)
		e = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
		}))(e)
		return e
	}

	return Set{
		RegisterCargoEndpoint: newEndpoint("Register", "Register Cargo", encodeGRPCRegisterCargoRequest, decodeGRPCRegisterCargoResponse),
		LoadCargoEndpoint:     newEndpoint("Load", "Load Cargo", encodeGRPCLoadCargoRequest, decodeGRPCLoadCargoResponse),
		ListCargosEndpoint:    newEndpoint("Cargos", "Cargos", encodeGRPCListCargosRequest, decodeGRPCListCargosResponse),
		ListLocationsEndpoint: newEndpoint("Locations", "Locations", encodeGRPCListLocationsRequest, decodeGRPCListLocationsResponse),
	}
}

type registerCargoMessage struct {
	Reference    string `json:"reference"`
	Carrier      string `json:"carrier"`
	TrackingType string `json:"tracking_type"`
}

type registerCargoReply struct {
	TrackingID string `json:"tracking_id,omitempty"`
	Err        string `json:"error,omitempty"`
}

type loadCargoMessage struct {
	TrackingID string `json:"tracking_id"`
}

type loadCargoReply struct {
	Cargo *Cargo `json:"cargo,omitempty"`
	Err   string `json:"error,omitempty"`
}

type listCargosReply struct {
	Cargos []Cargo `json:"cargos"`
	Err    string  `json:"error,omitempty"`
}

type listLocationsReply struct {
	Locations []Location `json:"locations"`
}

func decodeGRPCRegisterCargoRequest(_ context.Context, grpcReq interface{}) (interface{}, error) {
	var msg registerCargoMessage
	if err := pb.Decode(grpcReq.(*structpb.Struct), &msg); err != nil {
		return nil, err
	}
	method, err := voyage.ParseTrackingMethod(msg.TrackingType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidArgument, msg.TrackingType, err)
	}
	return registerCargoRequest{
		Reference: msg.Reference,
		Carrier:   msg.Carrier,
		Method:    method,
	}, nil
}

func decodeGRPCLoadCargoRequest(_ context.Context, grpcReq interface{}) (interface{}, error) {
	var msg loadCargoMessage
	if err := pb.Decode(grpcReq.(*structpb.Struct), &msg); err != nil {
		return nil, err
	}
	return loadCargoRequest{ID: cargo.TrackingID(msg.TrackingID)}, nil
}

func decodeGRPCListCargosRequest(_ context.Context, grpcReq interface{}) (interface{}, error) {
	_ = grpcReq.(*structpb.Struct)
	return listCargosRequest{}, nil
}

func decodeGRPCListLocationsRequest(_ context.Context, grpcReq interface{}) (interface{}, error) {
	_ = grpcReq.(*structpb.Struct)
	return listLocationsRequest{}, nil
}

func encodeGRPCRegisterCargoResponse(_ context.Context, response interface{}) (interface{}, error) {
	resp := response.(registerCargoResponse)
	return pb.Encode(registerCargoReply{TrackingID: string(resp.ID), Err: err2str(resp.Err)})
}

func encodeGRPCLoadCargoResponse(_ context.Context, response interface{}) (interface{}, error) {
	resp := response.(loadCargoResponse)
	return pb.Encode(loadCargoReply{Cargo: resp.Cargo, Err: err2str(resp.Err)})
}

func encodeGRPCListCargosResponse(_ context.Context, response interface{}) (interface{}, error) {
	resp := response.(listCargosResponse)
	return pb.Encode(listCargosReply{Cargos: resp.Cargos, Err: err2str(resp.Err)})
}

func encodeGRPCListLocationsResponse(_ context.Context, response interface{}) (interface{}, error) {
	resp := response.(listLocationsResponse)
	return pb.Encode(listLocationsReply{Locations: resp.Locations})
}

func encodeGRPCRegisterCargoRequest(_ context.Context, request interface{}) (interface{}, error) {
	req := request.(registerCargoRequest)
	return pb.Encode(registerCargoMessage{
		Reference:    req.Reference,
		Carrier:      req.Carrier,
		TrackingType: req.Method.String(),
	})
}

func encodeGRPCLoadCargoRequest(_ context.Context, request interface{}) (interface{}, error) {
	req := request.(loadCargoRequest)
	return pb.Encode(loadCargoMessage{TrackingID: string(req.ID)})
}

func encodeGRPCListCargosRequest(_ context.Context, request interface{}) (interface{}, error) {
	_ = request.(listCargosRequest)
	return &structpb.Struct{}, nil
}

func encodeGRPCListLocationsRequest(_ context.Context, request interface{}) (interface{}, error) {
	_ = request.(listLocationsRequest)
	return &structpb.Struct{}, nil
}

func decodeGRPCRegisterCargoResponse(_ context.Context, grpcReply interface{}) (interface{}, error) {
	var reply registerCargoReply
	if err := pb.Decode(grpcReply.(*structpb.Struct), &reply); err != nil {
		return nil, err
	}
	return registerCargoResponse{ID: cargo.TrackingID(reply.TrackingID), Err: str2err(reply.Err)}, nil
}

func decodeGRPCLoadCargoResponse(_ context.Context, grpcReply interface{}) (interface{}, error) {
	var reply loadCargoReply
	if err := pb.Decode(grpcReply.(*structpb.Struct), &reply); err != nil {
		return nil, err
	}
	return loadCargoResponse{Cargo: reply.Cargo, Err: str2err(reply.Err)}, nil
}

func decodeGRPCListCargosResponse(_ context.Context, grpcReply interface{}) (interface{}, error) {
	var reply listCargosReply
	if err := pb.Decode(grpcReply.(*structpb.Struct), &reply); err != nil {
		return nil, err
	}
	return listCargosResponse{Cargos: reply.Cargos, Err: str2err(reply.Err)}, nil
}

func decodeGRPCListLocationsResponse(_ context.Context, grpcReply interface{}) (interface{}, error) {
	var reply listLocationsReply
	if err := pb.Decode(grpcReply.(*structpb.Struct), &reply); err != nil {
		return nil, err
	}
	return listLocationsResponse{Locations: reply.Locations}, nil
}

// Errors crossing the wire keep their message only; the sentinels callers
// match on are restored by str2err.
var wireErrors = []error{cargo.ErrUnknown, ErrInvalidArgument}

func err2str(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func str2err(s string) error {
	if s == "" {
		return nil
	}
	for _, e := range wireErrors {
		if s == e.Error() {
			return e
		}
		if strings.HasPrefix(s, e.Error()+":") {
			return fmt.Errorf("%w%s", e, strings.TrimPrefix(s, e.Error()))
		}
	}
	return errors.New(s)
}
