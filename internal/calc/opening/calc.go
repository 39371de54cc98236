package opening

import (
	"errors"
	"fmt"
	"math"

	"Inertia/internal/section"
)

const (
	QMin = 1.25
	QMax = 1.75
)

// Buckets are the q values the regression model was trained on.
var Buckets = [...]float64{1.25, 1.35, 1.45, 1.55, 1.65, 1.75}

var (
	ErrUnknownSection  = section.ErrUnknownSection
	ErrRatioNotAllowed = errors.New("ratio R is not an allowed value")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrOutOfRange      = errors.New("q is out of range")
	ErrNotFinite       = errors.New("value is not a finite number")
)

// OutOfRangeError carries the raw q of a rejected input.
type OutOfRangeError struct {
	Q float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("q is out of range: %.2f ≤ q ≤ %.2f, q = %.3f", QMin, QMax, e.Q)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

type Input struct {
	LengthMM          float64 `json:"length_mm"`
	OpeningDiameterMM float64 `json:"opening_diameter_mm"`
	Section           string  `json:"section" validate:"required,max=32"`
	R                 float64 `json:"r" validate:"required"`
}

// Features is the model input. Field order matches the model's columns.
type Features struct {
	X      float64 `json:"x"`
	R      float64 `json:"r"`
	Q      float64 `json:"q"`
	Lambda float64 `json:"lambda"`
}

// Vector returns the features as x, R, q, lambda.
func (f Features) Vector() []float64 {
	return []float64{f.X, f.R, f.Q, f.Lambda}
}

// Derive maps raw input to model features. It never substitutes a value for
// an out-of-range quantity: lookups, ratio checks, divisions and the q gate
// all fail with a typed error instead.
func Derive(cat *section.Catalog, in Input) (Features, error) {
	if !finite(in.LengthMM) {
		return Features{}, fmt.Errorf("%w: length %g", ErrNotFinite, in.LengthMM)
	}
	if !finite(in.OpeningDiameterMM) {
		return Features{}, fmt.Errorf("%w: opening diameter %g", ErrNotFinite, in.OpeningDiameterMM)
	}
	sec, err := cat.Lookup(in.Section)
	if err != nil {
		return Features{}, err
	}
	if !cat.RatioAllowed(in.R) {
		return Features{}, fmt.Errorf("%w: %g", ErrRatioNotAllowed, in.R)
	}

	dg := in.R * sec.H
	if dg == 0 {
		return Features{}, fmt.Errorf("%w: derived depth of %s is zero", ErrDivisionByZero, sec.Name)
	}
	x := in.LengthMM / dg

	if in.OpeningDiameterMM == 0 {
		return Features{}, fmt.Errorf("%w: opening diameter is zero", ErrDivisionByZero)
	}
	q := dg / in.OpeningDiameterMM
	if !InRange(q) {
		return Features{}, &OutOfRangeError{Q: q}
	}

	return Features{
		X:      x,
		R:      in.R,
		Q:      BucketQ(q),
		Lambda: cat.Lambda(in.Section),
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// InRange reports whether q lies in [QMin, QMax].
func InRange(q float64) bool {
	return q >= QMin && q <= QMax
}

// BucketQ rounds q up to the nearest bucket. Values at or below the first
// bucket clamp to it; values above the last are returned unchanged.
func BucketQ(q float64) float64 {
	for _, b := range Buckets {
		if q <= b {
			return b
		}
	}
	return q
}
