package tracking

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/discard"
	stdopentracing "github.com/opentracing/opentracing-go"

	"github.com/Qalifah/voyage-tracker/pb/trackingpb"
	"github.com/Qalifah/voyage-tracker/tracker"
	"github.com/Qalifah/voyage-tracker/voyage"
)

func dialTracking(t *testing.T, s Service) Service {
	t.Helper()
	logger := log.NewNopLogger()
	tracer := stdopentracing.NoopTracer{}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	trackingpb.RegisterTrackingServer(srv, NewGRPCServer(NewSet(s, logger, discard.NewHistogram(), tracer, nil), tracer, nil, logger))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithInsecure(),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewGRPCClient(conn, tracer, nil, logger)
}

func TestGRPCTrack(t *testing.T) {
	f := newFixture(
		pollAnswer{snapshot: underway},
		pollAnswer{err: fmt.Errorf("%w after 20 attempts", tracker.ErrPollTimeout)},
	)
	client := dialTracking(t, f.service)
	ctx := context.Background()

	j, err := client.Track(ctx, "ABC123")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := f.service.Journey(ctx, "ABC123")

	for _, kind := range []voyage.LegKind{voyage.Traveled, voyage.Predicted} {
		got, ok := j.Leg(kind)
		if !ok {
			t.Fatalf("%s leg missing", kind)
		}
		exp, _ := want.Leg(kind)
		if len(got.Path) != len(exp.Path) || got.DistanceMeters != exp.DistanceMeters {
			t.Errorf("%s leg = %+v, expected %+v", kind, got, exp)
		}
		if got.Duration.Milliseconds() != exp.Duration.Milliseconds() {
			t.Errorf("%s duration = %v, expected %v", kind, got.Duration, exp.Duration)
		}
	}
	if j.Vessel.Position == nil || *j.Vessel.Position != atSea {
		t.Errorf("vessel = %+v", j.Vessel)
	}

	if _, err := client.Track(ctx, "ABC123"); !errors.Is(err, tracker.ErrPollTimeout) {
		t.Errorf("error = %v, expected ErrPollTimeout", err)
	}
	if _, err := client.Journey(ctx, "ABC123"); err != nil {
		t.Errorf("journey lost after failed track: %v", err)
	}
	if _, err := client.Journey(ctx, "NOPE"); err == nil {
		t.Error("expected an error for an unknown cargo")
	}
}
