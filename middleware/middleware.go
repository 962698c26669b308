// Package middleware holds the endpoint middlewares shared by the booking,
// handling and tracking services.
package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
)

// Instrumenting returns an endpoint middleware that records the duration of
// each invocation to the passed histogram, labelled by success.
func Instrumenting(duration metrics.Histogram) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				duration.With("success", boolString(err == nil)).Observe(time.Since(begin).Seconds())
			}(time.Now())
			return next(ctx, request)
		}
	}
}

// Logging returns an endpoint middleware that logs the duration of each
// invocation and the resulting error, if any. Business errors carried in
// the response are left to the service logging decorators.
func Logging(logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				logger.Log("transport_error", err, "took", time.Since(begin))
			}(time.Now())
			return next(ctx, request)
		}
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
