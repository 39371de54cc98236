package recommend

import (
	"errors"
	"fmt"

	"Inertia/internal/calc/opening"
	"Inertia/internal/section"
)

type OpeningInput struct {
	Section string  `json:"section" validate:"required,max=32"`
	R       float64 `json:"r" validate:"required"`
}

// OpeningRange is the band of opening diameters that keeps q inside
// [opening.QMin, opening.QMax] for one section and ratio.
type OpeningRange struct {
	Section       string  `json:"section"`
	R             float64 `json:"r"`
	DgMM          float64 `json:"dg_mm"`
	MinDiameterMM float64 `json:"min_diameter_mm"`
	MaxDiameterMM float64 `json:"max_diameter_mm"`
	Notes         string  `json:"notes"`
}

func Opening(cat *section.Catalog, in OpeningInput) (OpeningRange, error) {
	sec, err := cat.Lookup(in.Section)
	if err != nil {
		return OpeningRange{}, err
	}
	if !cat.RatioAllowed(in.R) {
		return OpeningRange{}, fmt.Errorf("%w: %g", opening.ErrRatioNotAllowed, in.R)
	}
	dg := in.R * sec.H
	if dg == 0 {
		return OpeningRange{}, fmt.Errorf("%w: derived depth of %s is zero", opening.ErrDivisionByZero, sec.Name)
	}
	// q = dg/D, so the largest q gives the smallest D.
	return OpeningRange{
		Section:       sec.Name,
		R:             in.R,
		DgMM:          dg,
		MinDiameterMM: dg / opening.QMax,
		MaxDiameterMM: dg / opening.QMin,
		Notes:         "Opening diameters between min and max are accepted by the calculator.",
	}, nil
}

type SectionsInput struct {
	OpeningDiameterMM float64 `json:"opening_diameter_mm" validate:"gt=0"`
	R                 float64 `json:"r" validate:"required"`
}

type Candidate struct {
	Section string  `json:"section"`
	DgMM    float64 `json:"dg_mm"`
	Q       float64 `json:"q"`
	Bucket  float64 `json:"q_bucket"`
	Lambda  float64 `json:"lambda"`
}

// Sections lists every catalog section whose q is in range for the given
// opening and ratio, in catalog order.
func Sections(cat *section.Catalog, in SectionsInput) ([]Candidate, error) {
	if in.OpeningDiameterMM == 0 {
		return nil, fmt.Errorf("%w: opening diameter is zero", opening.ErrDivisionByZero)
	}
	if !cat.RatioAllowed(in.R) {
		return nil, fmt.Errorf("%w: %g", opening.ErrRatioNotAllowed, in.R)
	}
	out := []Candidate{}
	for _, sec := range cat.Sections() {
		dg := in.R * sec.H
		q := dg / in.OpeningDiameterMM
		if !opening.InRange(q) {
			continue
		}
		out = append(out, Candidate{
			Section: sec.Name,
			DgMM:    dg,
			Q:       q,
			Bucket:  opening.BucketQ(q),
			Lambda:  cat.Lambda(sec.Name),
		})
	}
	return out, nil
}

// ErrNoCandidates is returned by the handler when no section fits.
var ErrNoCandidates = errors.New("no section keeps q in range")
