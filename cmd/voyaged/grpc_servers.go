package main

import (
	"google.golang.org/grpc"

	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/voyage-tracker/booking"
	"github.com/Qalifah/voyage-tracker/handling"
	"github.com/Qalifah/voyage-tracker/pb/bookingpb"
	"github.com/Qalifah/voyage-tracker/pb/handlingpb"
	"github.com/Qalifah/voyage-tracker/pb/trackingpb"
	"github.com/Qalifah/voyage-tracker/tracking"
)

// gRPCServers provides access to the grpc servers in our application
type gRPCServers struct {
	bookingpb.BookingServer
	handlingpb.HandlingServer
	trackingpb.TrackingServer
}

// newgRPCServers creates a new instance of gRPCServers
func newgRPCServers(bookingSet booking.Set, handlingSet handling.Set, trackingSet tracking.Set, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) gRPCServers {
	return gRPCServers{
		booking.NewGRPCServer(bookingSet, otTracer, zipkinTracer, logger),
		handling.NewGRPCServer(handlingSet, otTracer, zipkinTracer, logger),
		tracking.NewGRPCServer(trackingSet, otTracer, zipkinTracer, logger),
	}
}

// register registers every server with s.
func (g gRPCServers) register(s *grpc.Server) {
	bookingpb.RegisterBookingServer(s, g.BookingServer)
	handlingpb.RegisterHandlingServer(s, g.HandlingServer)
	trackingpb.RegisterTrackingServer(s, g.TrackingServer)
}
