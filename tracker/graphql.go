package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
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

	"github.com/Qalifah/voyage-tracker/voyage"
)

const createTrackingMutation = `mutation CreateTracking($reference: String!, $carrier: String!, $trackingType: TrackingType!) {
  createTracking(reference: $reference, carrier: $carrier, trackingType: $trackingType) {
    id
  }
}`

const trackingQuery = `query Tracking($id: ID!) {
  tracking(id: $id) {
    id
    reference
    status
    exception
    trackingType
    details {
      __typename
      ... on ContainerTracking {
        pol
        pod
        lastMovementEventDescription
        arrivalEstimate
        currentVessel { ...vessel }
      }
      ... on BLTracking {
        pol
        pod
        containers { ...container }
      }
      ... on BookingTracking {
        pol
        pod
        containers { ...container }
      }
      ... on VesselTracking {
        vessel { ...vessel }
        lastPort
        nextPort
        lastMovementEventDescription
        eta
      }
    }
  }
}

fragment vessel on Vessel {
  name
  voyage
  position { lat lng }
  observedAt
}

fragment container on Container {
  number
  lastMovementEventDescription
  arrivalEstimate
  currentVessel { ...vessel }
}`

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type createTrackingResponse struct {
	ID string
}

type trackingRequest struct {
	ID string
}

type trackingResponse struct {
	Snapshot voyage.Snapshot
}

type client struct {
	createTracking endpoint.Endpoint
	tracking       endpoint.Endpoint
}

// NewHTTPClient returns a tracking service backed by the provider's GraphQL
// API at instance. apiKey is sent in the X-Api-Key header.
func NewHTTPClient(instance, apiKey string, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) (Service, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}

	options := []kithttp.ClientOption{
		kithttp.ClientBefore(
			kithttp.SetRequestHeader("X-Api-Key", apiKey),
			kithttp.SetRequestHeader("Accept", "application/json"),
			opentracing.ContextToHTTP(otTracer, logger),
		),
	}
	if zipkinTracer != nil {
		options = append(options, zipkin.HTTPClientTrace(zipkinTracer))
	}

	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))

	var createTrackingEndpoint endpoint.Endpoint
	{
		createTrackingEndpoint = kithttp.NewClient(
			http.MethodPost,
			u,
			encodeCreateTrackingRequest,
			decodeCreateTrackingResponse,
			options...,
		).Endpoint()
		createTrackingEndpoint = opentracing.TraceClient(otTracer, "CreateTracking")(createTrackingEndpoint)
		createTrackingEndpoint = limiter(createTrackingEndpoint)
		createTrackingEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "CreateTracking",
			Timeout: 30 * time.Second,
		}))(createTrackingEndpoint)
	}

	var trackingEndpoint endpoint.Endpoint
	{
		trackingEndpoint = kithttp.NewClient(
			http.MethodPost,
			u,
			encodeTrackingRequest,
			decodeTrackingResponse,
			options...,
		).Endpoint()
		trackingEndpoint = opentracing.TraceClient(otTracer, "Tracking")(trackingEndpoint)
		trackingEndpoint = limiter(trackingEndpoint)
		trackingEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Tracking",
			Timeout: 30 * time.Second,
		}))(trackingEndpoint)
	}

	return &client{
		createTracking: createTrackingEndpoint,
		tracking:       trackingEndpoint,
	}, nil
}

func (c *client) CreateTracking(ctx context.Context, req Request) (string, error) {
	resp, err := c.createTracking(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.(createTrackingResponse).ID, nil
}

func (c *client) Tracking(ctx context.Context, id string) (voyage.Snapshot, error) {
	resp, err := c.tracking(ctx, trackingRequest{ID: id})
	if err != nil {
		return voyage.Snapshot{}, err
	}
	return resp.(trackingResponse).Snapshot, nil
}

func encodeCreateTrackingRequest(ctx context.Context, r *http.Request, request interface{}) error {
	req := request.(Request)
	return kithttp.EncodeJSONRequest(ctx, r, graphqlRequest{
		Query: createTrackingMutation,
		Variables: map[string]interface{}{
			"reference":    req.Reference,
			"carrier":      req.Carrier,
			"trackingType": req.Method.String(),
		},
	})
}

func encodeTrackingRequest(ctx context.Context, r *http.Request, request interface{}) error {
	req := request.(trackingRequest)
	return kithttp.EncodeJSONRequest(ctx, r, graphqlRequest{
		Query:     trackingQuery,
		Variables: map[string]interface{}{"id": req.ID},
	})
}

func decodeCreateTrackingResponse(_ context.Context, resp *http.Response) (interface{}, error) {
	var data struct {
		CreateTracking *struct {
			ID string `json:"id"`
		} `json:"createTracking"`
	}
	if err := decodeGraphQLResponse(resp, &data); err != nil {
		return nil, err
	}
	if data.CreateTracking == nil || data.CreateTracking.ID == "" {
		return nil, fmt.Errorf("%w: no tracking id returned", ErrTrackingRequest)
	}
	return createTrackingResponse{ID: data.CreateTracking.ID}, nil
}

func decodeTrackingResponse(_ context.Context, resp *http.Response) (interface{}, error) {
	var data struct {
		Tracking *trackingPayload `json:"tracking"`
	}
	if err := decodeGraphQLResponse(resp, &data); err != nil {
		return nil, err
	}
	if data.Tracking == nil {
		return nil, fmt.Errorf("%w: no tracking returned", ErrTrackingRequest)
	}
	s, err := data.Tracking.snapshot()
	if err != nil {
		return nil, err
	}
	return trackingResponse{Snapshot: s}, nil
}

// decodeGraphQLResponse unwraps a GraphQL response envelope into data.
// Transport failures and GraphQL errors are both reported as
// ErrTrackingRequest.
func decodeGraphQLResponse(resp *http.Response, data interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d", ErrTrackingRequest, resp.StatusCode)
	}

	var body graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", ErrTrackingRequest, err)
	}
	if len(body.Errors) > 0 {
		msgs := make([]string, 0, len(body.Errors))
		for _, e := range body.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: %s", ErrTrackingRequest, strings.Join(msgs, "; "))
	}
	if len(body.Data) == 0 || string(body.Data) == "null" {
		return fmt.Errorf("%w: empty response", ErrTrackingRequest)
	}
	if err := json.Unmarshal(body.Data, data); err != nil {
		return fmt.Errorf("%w: %v", ErrTrackingRequest, err)
	}
	return nil
}
