package opening

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK             = "ok"
	outcomeOutOfRange     = "out_of_range"
	outcomeUnknownSection = "unknown_section"
	outcomeBadRatio       = "bad_ratio"
	outcomeDivByZero      = "division_by_zero"
	outcomeNotFinite      = "not_finite"
	outcomePrediction     = "prediction_error"
	outcomeStorage        = "storage_error"
)

var (
	calcTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inertia_calculations_total",
		Help: "Calculations by outcome",
	}, []string{"outcome"})

	calcDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inertia_calculation_duration_seconds",
		Help:    "Feature derivation plus model inference time",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
)

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrOutOfRange):
		return outcomeOutOfRange
	case errors.Is(err, ErrUnknownSection):
		return outcomeUnknownSection
	case errors.Is(err, ErrRatioNotAllowed):
		return outcomeBadRatio
	case errors.Is(err, ErrDivisionByZero):
		return outcomeDivByZero
	case errors.Is(err, ErrNotFinite):
		return outcomeNotFinite
	case errors.Is(err, ErrPrediction):
		return outcomePrediction
	default:
		return outcomeStorage
	}
}

func observe(err error) {
	calcTotal.WithLabelValues(outcome(err)).Inc()
}
