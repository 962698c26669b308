// Package geocoding resolves port names to coordinates through an external
// geocoding API.
package geocoding

import (
	"context"
	"encoding/json"
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
	"github.com/Qalifah/voyage-tracker/location"
)

type searchRequest struct {
	Query string
}

type searchResponse struct {
	Coordinate geo.Coordinate
}

type client struct {
	search endpoint.Endpoint
}

// NewHTTPClient returns a resolver backed by the geocoding API at instance.
// apiKey is sent as the key query parameter when set.
func NewHTTPClient(instance, apiKey string, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) (location.Resolver, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/search"

	options := []kithttp.ClientOption{
		kithttp.ClientBefore(opentracing.ContextToHTTP(otTracer, logger)),
	}
	if zipkinTracer != nil {
		options = append(options, zipkin.HTTPClientTrace(zipkinTracer))
	}

	var searchEndpoint endpoint.Endpoint
	{
		searchEndpoint = kithttp.NewClient(
			http.MethodGet,
			u,
			makeEncodeSearchRequest(apiKey),
			decodeSearchResponse,
			options...,
		).Endpoint()
		searchEndpoint = opentracing.TraceClient(otTracer, "Geocode")(searchEndpoint)
		searchEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))(searchEndpoint)
		searchEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Geocode",
			Timeout: 30 * time.Second,
			// unknown places are answers, not failures
			IsSuccessful: func(err error) bool { return err == nil || location.IsNotFound(err) },
		}))(searchEndpoint)
	}

	return &client{search: searchEndpoint}, nil
}

func (c *client) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return geo.Coordinate{}, location.ErrUnknown
	}
	resp, err := c.search(ctx, searchRequest{Query: name})
	if err != nil {
		return geo.Coordinate{}, err
	}
	return resp.(searchResponse).Coordinate, nil
}

func makeEncodeSearchRequest(apiKey string) kithttp.EncodeRequestFunc {
	return func(_ context.Context, r *http.Request, request interface{}) error {
		req := request.(searchRequest)
		q := r.URL.Query()
		q.Set("q", req.Query)
		q.Set("format", "json")
		q.Set("limit", "1")
		if apiKey != "" {
			q.Set("key", apiKey)
		}
		r.URL.RawQuery = q.Encode()
		r.Header.Set("Accept", "application/json")
		return nil
	}
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func decodeSearchResponse(_ context.Context, resp *http.Response) (interface{}, error) {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, location.ErrUnknown
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("geocoder: HTTP %d", resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("geocoder: %w", err)
	}
	if len(places) == 0 {
		return nil, location.ErrUnknown
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder: latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder: longitude: %w", err)
	}
	c := geo.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil, fmt.Errorf("geocoder: coordinate %v out of range", c)
	}
	return searchResponse{Coordinate: c}, nil
}
