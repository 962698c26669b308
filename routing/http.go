package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"
	kithttp "github.com/go-kit/kit/transport/http"

	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// unitMeters converts the length units the planner understands to meters.
var unitMeters = map[string]float64{
	"m":          1,
	"meters":     1,
	"km":         1000,
	"kilometers": 1000,
	"nm":         1852,
	"naut":       1852,
	"mi":         1609.344,
	"miles":      1609.344,
}

type planRouteRequest struct {
	From geo.Coordinate
	To   geo.Coordinate
}

type planRouteResponse struct {
	Path   []geo.Coordinate
	Meters float64
}

type client struct {
	planRoute endpoint.Endpoint
	pace      time.Duration
}

// NewHTTPClient returns a routing service backed by the sea route planner
// at instance. Lengths are requested in units and legs are paced at pace
// per meter; a zero pace means DefaultPace.
func NewHTTPClient(instance, units string, pace time.Duration, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) (Service, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/route"

	if units == "" {
		units = "m"
	}
	if _, ok := unitMeters[units]; !ok {
		return nil, fmt.Errorf("unsupported length units %q", units)
	}
	if pace <= 0 {
		pace = DefaultPace
	}

	options := []kithttp.ClientOption{
		kithttp.ClientBefore(opentracing.ContextToHTTP(otTracer, logger)),
	}
	if zipkinTracer != nil {
		options = append(options, zipkin.HTTPClientTrace(zipkinTracer))
	}

	var planRouteEndpoint endpoint.Endpoint
	{
		planRouteEndpoint = kithttp.NewClient(
			http.MethodGet,
			u,
			makeEncodePlanRouteRequest(units),
			makeDecodePlanRouteResponse(units),
			options...,
		).Endpoint()
		planRouteEndpoint = opentracing.TraceClient(otTracer, "PlanRoute")(planRouteEndpoint)
		planRouteEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))(planRouteEndpoint)
		planRouteEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "PlanRoute",
			Timeout: 30 * time.Second,
			// an unroutable leg is an answer, not a failure
			IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, ErrNoRoute) },
		}))(planRouteEndpoint)
	}

	return &client{planRoute: planRouteEndpoint, pace: pace}, nil
}

func (c *client) PlanRoute(ctx context.Context, from, to geo.Coordinate) (voyage.RouteLeg, error) {
	resp, err := c.planRoute(ctx, planRouteRequest{From: from, To: to})
	if err != nil {
		return voyage.RouteLeg{}, err
	}
	r := resp.(planRouteResponse)
	return voyage.RouteLeg{
		Path:           r.Path,
		DistanceMeters: r.Meters,
		Duration:       EstimateDuration(r.Meters, c.pace),
	}, nil
}

func makeEncodePlanRouteRequest(units string) kithttp.EncodeRequestFunc {
	return func(_ context.Context, r *http.Request, request interface{}) error {
		req := request.(planRouteRequest)
		q := r.URL.Query()
		q.Set("from", lngLat(req.From))
		q.Set("to", lngLat(req.To))
		q.Set("units", units)
		r.URL.RawQuery = q.Encode()
		r.Header.Set("Accept", "application/json")
		return nil
	}
}

func lngLat(c geo.Coordinate) string {
	return strconv.FormatFloat(c.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

type routeFeature struct {
	Geometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Length float64 `json:"length"`
		Units  string  `json:"units"`
	} `json:"properties"`
}

func makeDecodePlanRouteResponse(units string) kithttp.DecodeResponseFunc {
	return func(_ context.Context, resp *http.Response) (interface{}, error) {
		return decodePlanRouteResponse(resp, units)
	}
}

func decodePlanRouteResponse(resp *http.Response, units string) (interface{}, error) {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoRoute
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("route planner: HTTP %d", resp.StatusCode)
	}

	var f routeFeature
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("route planner: %w", err)
	}

	path, err := decodeLine(f.Geometry.Type, f.Geometry.Coordinates)
	if err != nil {
		return nil, err
	}
	if len(path) < 2 {
		return nil, ErrNoRoute
	}

	meters := geo.Length(path)
	if f.Properties.Length > 0 {
		if f.Properties.Units != "" {
			units = f.Properties.Units
		}
		factor, ok := unitMeters[units]
		if !ok {
			return nil, fmt.Errorf("route planner: unsupported length units %q", units)
		}
		meters = f.Properties.Length * factor
	}

	return planRouteResponse{Path: path, Meters: meters}, nil
}

// decodeLine flattens a LineString, or a MultiLineString split at the
// antimeridian, into a single path of [lng, lat] positions.
func decodeLine(kind string, raw json.RawMessage) ([]geo.Coordinate, error) {
	var lines [][][]float64
	switch kind {
	case "LineString":
		var line [][]float64
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("route planner: %w", err)
		}
		lines = [][][]float64{line}
	case "MultiLineString":
		if err := json.Unmarshal(raw, &lines); err != nil {
			return nil, fmt.Errorf("route planner: %w", err)
		}
	default:
		return nil, fmt.Errorf("route planner: unexpected geometry %q", kind)
	}

	var path []geo.Coordinate
	for _, line := range lines {
		for _, pos := range line {
			if len(pos) < 2 {
				return nil, fmt.Errorf("route planner: malformed position %v", pos)
			}
			path = append(path, geo.Coordinate{Lat: pos[1], Lng: pos[0]})
		}
	}
	return path, nil
}
