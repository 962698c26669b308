package handling

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
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/pb"
	"github.com/Qalifah/voyage-tracker/pb/handlingpb"
	"github.com/Qalifah/voyage-tracker/voyage"
)

type grpcServer struct {
	registerEvent   grpctransport.Handler
	handlingHistory grpctransport.Handler
}

// NewGRPCServer makes a set of endpoints available on a grpc server
func NewGRPCServer(endpoints Set, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) handlingpb.HandlingServer {
	options := []grpctransport.ServerOption{
		grpctransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	if zipkinTracer != nil {
		options = append(options, zipkin.GRPCServerTrace(zipkinTracer))
	}

	return &grpcServer{
		registerEvent: grpctransport.NewServer(
			endpoints.RegisterEventEndpoint,
			decodeGRPCRegisterEventRequest,
			encodeGRPCRegisterEventResponse,
			append(options, grpctransport.ServerBefore(opentracing.GRPCToContext(otTracer, "RegisterEvent", logger)))...,
		),
		handlingHistory: grpctransport.NewServer(
			endpoints.HandlingHistoryEndpoint,
			decodeGRPCHandlingHistoryRequest,
			encodeGRPCHandlingHistoryResponse,
			append(options, grpctransport.ServerBefore(opentracing.GRPCToContext(otTracer, "History", logger)))...,
		),
	}
}

func (s *grpcServer) RegisterEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, rep, err := s.registerEvent.ServeGRPC(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.(*structpb.Struct), nil
}

func (s *grpcServer) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, rep, err := s.handlingHistory.ServeGRPC(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.(*structpb.Struct), nil
}

// NewGRPCClient returns a handling service backed by a grpc server at the other end of the conn
func NewGRPCClient(conn *grpc.ClientConn, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) Service {
	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))
	var options []grpctransport.ClientOption
	if zipkinTracer != nil {
		options = append(options, zipkin.GRPCClientTrace(zipkinTracer))
	}

	var registerEventEndpoint endpoint.Endpoint
	{
		registerEventEndpoint = grpctransport.NewClient(
			conn,
			"pb.Handling",
			"RegisterEvent",
			encodeGRPCRegisterEventRequest,
			decodeGRPCRegisterEventResponse,
			&structpb.Struct{},
			append(options, grpctransport.ClientBefore(opentracing.ContextToGRPC(otTracer, logger)))...,
		).Endpoint()
		registerEventEndpoint = opentracing.TraceClient(otTracer, "RegisterHandlingEvent")(registerEventEndpoint)
		registerEventEndpoint = limiter(registerEventEndpoint)
		registerEventEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "RegisterHandlingEvent",
			Timeout: 30 * time.Second,
		}))(registerEventEndpoint)
	}

	var handlingHistoryEndpoint endpoint.Endpoint
	{
		handlingHistoryEndpoint = grpctransport.NewClient(
			conn,
			"pb.Handling",
			"History",
			encodeGRPCHandlingHistoryRequest,
			decodeGRPCHandlingHistoryResponse,
			&structpb.Struct{},
			append(options, grpctransport.ClientBefore(opentracing.ContextToGRPC(otTracer, logger)))...,
		).Endpoint()
		handlingHistoryEndpoint = opentracing.TraceClient(otTracer, "HandlingHistory")(handlingHistoryEndpoint)
		handlingHistoryEndpoint = limiter(handlingHistoryEndpoint)
		handlingHistoryEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "HandlingHistory",
			Timeout: 30 * time.Second,
		}))(handlingHistoryEndpoint)
	}

	return Set{
		RegisterEventEndpoint:   registerEventEndpoint,
		HandlingHistoryEndpoint: handlingHistoryEndpoint,
	}
}

type registerEventMessage struct {
	TrackingID     string    `json:"tracking_id"`
	Location       string    `json:"location,omitempty"`
	VoyageNumber   string    `json:"voyage,omitempty"`
	EventType      string    `json:"event_type,omitempty"`
	Description    string    `json:"description,omitempty"`
	CompletionTime time.Time `json:"completion_time"`
}

type errorReply struct {
	Err string `json:"error,omitempty"`
}

type handlingHistoryMessage struct {
	TrackingID string `json:"tracking_id"`
}

type handlingHistoryReply struct {
	Events []Event `json:"events"`
	Err    string  `json:"error,omitempty"`
}

func decodeGRPCRegisterEventRequest(_ context.Context, grpcReq interface{}) (interface{}, error) {
	var msg registerEventMessage
	if err := pb.Decode(grpcReq.(*structpb.Struct), &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return registerEventRequest{
		ID:             cargo.TrackingID(msg.TrackingID),
		Location:       location.UNLcode(msg.Location),
		Voyage:         voyage.Number(msg.VoyageNumber),
		EventType:      cargo.ParseHandlingEventType(msg.EventType),
		Description:    msg.Description,
		CompletionTime: msg.CompletionTime,
	}, nil
}

func decodeGRPCHandlingHistoryRequest(_ context.Context, grpcReq interface{}) (interface{}, error) {
	var msg handlingHistoryMessage
	if err := pb.Decode(grpcReq.(*structpb.Struct), &msg); err != nil {
		return nil, err
	}
	return handlingHistoryRequest{ID: cargo.TrackingID(msg.TrackingID)}, nil
}

func encodeGRPCRegisterEventResponse(_ context.Context, response interface{}) (interface{}, error) {
	resp := response.(registerEventResponse)
	return pb.Encode(errorReply{Err: err2str(resp.Err)})
}

func encodeGRPCHandlingHistoryResponse(_ context.Context, response interface{}) (interface{}, error) {
	resp := response.(handlingHistoryResponse)
	return pb.Encode(handlingHistoryReply{Events: resp.Events, Err: err2str(resp.Err)})
}

func encodeGRPCRegisterEventRequest(_ context.Context, request interface{}) (interface{}, error) {
	req := request.(registerEventRequest)
	msg := registerEventMessage{
		TrackingID:     string(req.ID),
		Location:       string(req.Location),
		VoyageNumber:   string(req.Voyage),
		Description:    req.Description,
		CompletionTime: req.CompletionTime,
	}
	if req.EventType != cargo.NotHandled {
		msg.EventType = req.EventType.String()
	}
	return pb.Encode(msg)
}

func encodeGRPCHandlingHistoryRequest(_ context.Context, request interface{}) (interface{}, error) {
	req := request.(handlingHistoryRequest)
	return pb.Encode(handlingHistoryMessage{TrackingID: string(req.ID)})
}

func decodeGRPCRegisterEventResponse(_ context.Context, grpcReply interface{}) (interface{}, error) {
	var reply errorReply
	if err := pb.Decode(grpcReply.(*structpb.Struct), &reply); err != nil {
		return nil, err
	}
	return registerEventResponse{Err: str2err(reply.Err)}, nil
}

func decodeGRPCHandlingHistoryResponse(_ context.Context, grpcReply interface{}) (interface{}, error) {
	var reply handlingHistoryReply
	if err := pb.Decode(grpcReply.(*structpb.Struct), &reply); err != nil {
		return nil, err
	}
	return handlingHistoryResponse{Events: reply.Events, Err: str2err(reply.Err)}, nil
}

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
