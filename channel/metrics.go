package channel

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/code-payments/iap-sandwich/sandwich"
)

const (
	outcomeSuccess         = "success"
	outcomeSDKError        = "sdk_error"
	outcomeUnknownMethod   = "unknown_method"
	outcomeInvalidArgument = "invalid_argument"
	outcomeTimeout         = "timeout"
	outcomeError           = "error"
)

var (
	invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sandwich",
		Subsystem: "channel",
		Name:      "invocations_total",
		Help:      "Total method channel invocations by method and outcome.",
	}, []string{"method", "outcome"})

	invocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sandwich",
		Subsystem: "channel",
		Name:      "invocation_duration_seconds",
		Help:      "Time from invocation until the completion is delivered.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sandwich",
		Subsystem: "channel",
		Name:      "events_total",
		Help:      "Total events pushed to the host by name.",
	}, []string{"name"})
)

func outcomeOf(err error) string {
	var sdkErr *sandwich.Error
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.As(err, &sdkErr):
		return outcomeSDKError
	case errors.Is(err, ErrUnknownMethod):
		return outcomeUnknownMethod
	case errors.Is(err, ErrInvalidArgument):
		return outcomeInvalidArgument
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return outcomeTimeout
	default:
		return outcomeError
	}
}
