package handling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sony/gobreaker"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/transport"
	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// MakeHandler returns a new handler for the handling service
func MakeHandler(s Service, logger kitlog.Logger) http.Handler {
	r := mux.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		kithttp.ServerErrorEncoder(encodeError),
	}

	registerEventHandler := kithttp.NewServer(
		makeRegisterEventEndpoint(s),
		decodeRegisterEventRequest,
		encodeResponse,
		opts...,
	)
	handlingHistoryHandler := kithttp.NewServer(
		makeHandlingHistoryEndpoint(s),
		decodeHandlingHistoryRequest,
		encodeResponse,
		opts...,
	)

	r.Handle("/handling/v1/events", registerEventHandler).Methods("POST")
	r.Handle("/handling/v1/cargos/{id}/events", handlingHistoryHandler).Methods("GET")

	return r
}

var errBadRoute = errors.New("bad route")

func decodeRegisterEventRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		CompletionTime time.Time `json:"completion_time"`
		TrackingID     string    `json:"tracking_id"`
		VoyageNumber   string    `json:"voyage"`
		Location       string    `json:"location"`
		EventType      string    `json:"event_type"`
		Description    string    `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	code := location.UNLcode(body.Location)
	if body.Location != "" {
		parsed, ok := location.ParseUNLcode(body.Location)
		if !ok {
			return nil, fmt.Errorf("%w: malformed location %q", ErrInvalidArgument, body.Location)
		}
		code = parsed
	}

	return registerEventRequest{
		ID:             cargo.TrackingID(body.TrackingID),
		Location:       code,
		Voyage:         voyage.Number(body.VoyageNumber),
		EventType:      cargo.ParseHandlingEventType(body.EventType),
		Description:    body.Description,
		CompletionTime: body.CompletionTime,
	}, nil
}

func decodeHandlingHistoryRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, errBadRoute
	}
	return handlingHistoryRequest{ID: cargo.TrackingID(id)}, nil
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
	switch {
	case errors.Is(err, cargo.ErrUnknown):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, ErrInvalidArgument):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, ratelimit.ErrLimited):
		w.WriteHeader(http.StatusTooManyRequests)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
