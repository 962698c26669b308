package tracking

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
	"github.com/Qalifah/voyage-tracker/journey"
	"github.com/Qalifah/voyage-tracker/pb"
	"github.com/Qalifah/voyage-tracker/pb/trackingpb"
	"github.com/Qalifah/voyage-tracker/tracker"
)

type grpcServer struct {
	track       grpctransport.Handler
	loadJourney grpctransport.Handler
}

// NewGRPCServer makes a set of endpoints available on a grpc server
func NewGRPCServer(endpoints Set, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) trackingpb.TrackingServer {
	options := []grpctransport.ServerOption{
		grpctransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	if zipkinTracer != nil {
		options = append(options, zipkin.GRPCServerTrace(zipkinTracer))
	}

	return &grpcServer{
		track: grpctransport.NewServer(
			endpoints.TrackCargoEndpoint,
			decodeGRPCTrackingRequest(func(id cargo.TrackingID) interface{} { return trackCargoRequest{ID: id} }),
			encodeGRPCJourneyResponse,
			append(options, grpctransport.ServerBefore(opentracing.GRPCToContext(otTracer, "Track", logger)))...,
		),
		loadJourney: grpctransport.NewServer(
			endpoints.LoadJourneyEndpoint,
			decodeGRPCTrackingRequest(func(id cargo.TrackingID) interface{} { return loadJourneyRequest{ID: id} }),
			encodeGRPCJourneyResponse,
			append(options, grpctransport.ServerBefore(opentracing.GRPCToContext(otTracer, "Journey", logger)))...,
		),
	}
}

func (s *grpcServer) Track(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, rep, err := s.track.ServeGRPC(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.(*structpb.Struct), nil
}

func (s *grpcServer) Journey(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, rep, err := s.loadJourney.ServeGRPC(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.(*structpb.Struct), nil
}

// NewGRPCClient returns a tracking service backed by a grpc server at the other end of the conn
func NewGRPCClient(conn *grpc.ClientConn, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) Service {
	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))
	var options []grpctransport.ClientOption
	if zipkinTracer != nil {
		options = append(options, zipkin.GRPCClientTrace(zipkinTracer))
	}

	var trackCargoEndpoint endpoint.Endpoint
	{
		trackCargoEndpoint = grpctransport.NewClient(
			conn,
			"pb.Tracking",
			"Track",
			encodeGRPCTrackCargoRequest,
			decodeGRPCJourneyResponse,
			&structpb.Struct{},
			append(options, grpctransport.ClientBefore(opentracing.ContextToGRPC(otTracer, logger)))...,
		).Endpoint()
		trackCargoEndpoint = opentracing.TraceClient(otTracer, "Track Cargo")(trackCargoEndpoint)
		trackCargoEndpoint = limiter(trackCargoEndpoint)
		trackCargoEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Track Cargo",
			Timeout: 30 * time.Second,
		}))(trackCargoEndpoint)
	}

	var loadJourneyEndpoint endpoint.Endpoint
	{
		loadJourneyEndpoint = grpctransport.NewClient(
			conn,
			"pb.Tracking",
			"Journey",
			encodeGRPCLoadJourneyRequest,
			decodeGRPCJourneyResponse,
			&structpb.Struct{},
			append(options, grpctransport.ClientBefore(opentracing.ContextToGRPC(otTracer, logger)))...,
		).Endpoint()
		loadJourneyEndpoint = opentracing.TraceClient(otTracer, "Load Journey")(loadJourneyEndpoint)
		loadJourneyEndpoint = limiter(loadJourneyEndpoint)
		loadJourneyEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Load Journey",
			Timeout: 30 * time.Second,
		}))(loadJourneyEndpoint)
	}

	return Set{
		TrackCargoEndpoint:  trackCargoEndpoint,
		LoadJourneyEndpoint: loadJourneyEndpoint,
	}
}

type trackingMessage struct {
	TrackingID string `json:"tracking_id"`
}

type journeyReply struct {
	Journey *JourneyView `json:"journey,omitempty"`
	Err     string       `json:"error,omitempty"`
}

func decodeGRPCTrackingRequest(request func(cargo.TrackingID) interface{}) grpctransport.DecodeRequestFunc {
	return func(_ context.Context, grpcReq interface{}) (interface{}, error) {
		var msg trackingMessage
		if err := pb.Decode(grpcReq.(*structpb.Struct), &msg); err != nil {
			return nil, err
		}
		return request(cargo.TrackingID(msg.TrackingID)), nil
	}
}

func encodeGRPCJourneyResponse(_ context.Context, response interface{}) (interface{}, error) {
	resp := response.(journeyResponse)
	reply := journeyReply{Err: err2str(resp.Err)}
	if resp.Journey != nil {
		v := NewJourneyView(*resp.Journey)
		reply.Journey = &v
	}
	return pb.Encode(reply)
}

func encodeGRPCTrackCargoRequest(_ context.Context, request interface{}) (interface{}, error) {
	req := request.(trackCargoRequest)
	return pb.Encode(trackingMessage{TrackingID: string(req.ID)})
}

func encodeGRPCLoadJourneyRequest(_ context.Context, request interface{}) (interface{}, error) {
	req := request.(loadJourneyRequest)
	return pb.Encode(trackingMessage{TrackingID: string(req.ID)})
}

func decodeGRPCJourneyResponse(_ context.Context, grpcReply interface{}) (interface{}, error) {
	var reply journeyReply
	if err := pb.Decode(grpcReply.(*structpb.Struct), &reply); err != nil {
		return nil, err
	}
	resp := journeyResponse{Err: str2err(reply.Err)}
	if reply.Journey != nil {
		j := reply.Journey.journey()
		resp.Journey = &j
	}
	return resp, nil
}

// Errors crossing the wire keep their message only; the sentinels callers
// match on are restored by str2err.
var wireErrors = []error{
	cargo.ErrUnknown,
	ErrInvalidArgument,
	ErrNoJourney,
	journey.ErrInsufficientTrackingData,
	tracker.ErrPollTimeout,
	tracker.ErrTrackingRequest,
	tracker.ErrTrackingFailed,
}

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
		if strings.HasPrefix(s, e.Error()) {
			return fmt.Errorf("%w%s", e, strings.TrimPrefix(s, e.Error()))
		}
	}
	return errors.New(s)
}
