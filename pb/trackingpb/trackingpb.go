// Package trackingpb describes the pb.Tracking gRPC service.
package trackingpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// TrackingServer is the server API for the pb.Tracking service.
type TrackingServer interface {
	Track(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Journey(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterTrackingServer registers srv with s.
func RegisterTrackingServer(s *grpc.Server, srv TrackingServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "pb.Tracking",
	HandlerType: (*TrackingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Track", Handler: trackHandler},
		{MethodName: "Journey", Handler: journeyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tracking.proto",
}

func trackHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServer).Track(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/pb.Tracking/Track",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TrackingServer).Track(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func journeyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServer).Journey(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/pb.Tracking/Journey",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TrackingServer).Journey(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
