package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sony/gobreaker"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/transport"
	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/journey"
	"github.com/Qalifah/voyage-tracker/tracker"
)

// MakeHandler returns a handler for the tracking service.
func MakeHandler(ts Service, logger kitlog.Logger) http.Handler {
	r := mux.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		kithttp.ServerErrorEncoder(encodeError),
	}

	trackCargoHandler := kithttp.NewServer(
		makeTrackCargoEndpoint(ts),
		decodeTrackCargoRequest,
		encodeResponse,
		opts...,
	)
	loadJourneyHandler := kithttp.NewServer(
		makeLoadJourneyEndpoint(ts),
		decodeLoadJourneyRequest,
		encodeResponse,
		opts...,
	)

	r.Handle("/tracking/v1/cargos/{id}/track", trackCargoHandler).Methods("POST")
	r.Handle("/tracking/v1/cargos/{id}/journey", loadJourneyHandler).Methods("GET")

	return r
}

var errBadRoute = errors.New("bad route")

func decodeTrackCargoRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, errBadRoute
	}
	return trackCargoRequest{ID: cargo.TrackingID(id)}, nil
}

func decodeLoadJourneyRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, errBadRoute
	}
	return loadJourneyRequest{ID: cargo.TrackingID(id)}, nil
}

func encodeResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if e, ok := response.(errorer); ok && e.error() != nil {
		encodeError(ctx, e.error(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

type errorer interface {
	error() error
}

// encode errors from business-logic
func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode(err))
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, cargo.ErrUnknown), errors.Is(err, ErrNoJourney):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, errBadRoute):
		return http.StatusBadRequest
	case errors.Is(err, journey.ErrInsufficientTrackingData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tracker.ErrPollTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, tracker.ErrTrackingRequest), errors.Is(err, tracker.ErrTrackingFailed):
		return http.StatusBadGateway
	case errors.Is(err, ratelimit.ErrLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
