package batch

import (
	"context"
	"errors"
	"fmt"

	"Inertia/internal/calc/opening"
	"Inertia/internal/repo"
)

const MaxItems = 500

type Calculator interface {
	Calculate(ctx context.Context, in opening.Input) (repo.Record, error)
	Preview(ctx context.Context, in opening.Input) (repo.Record, error)
}

type BatchInput struct {
	Items []opening.Input `json:"items" validate:"required,min=1,max=500,dive"`
	// DryRun evaluates every item without appending to the result table.
	DryRun bool `json:"dry_run"`
}

// Outcome is the result of one item. Exactly one of Record, Warning and
// Error is set.
type Outcome struct {
	Index   int          `json:"index"`
	Record  *repo.Record `json:"record,omitempty"`
	Warning string       `json:"warning,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type BatchResult struct {
	Recorded int       `json:"recorded"`
	Warnings int       `json:"warnings"`
	Failed   int       `json:"failed"`
	Outcomes []Outcome `json:"outcomes"`
}

// Run evaluates items in order. A rejected item never stops the batch; the
// context does.
func Run(ctx context.Context, calc Calculator, items []opening.Input, dryRun bool) (BatchResult, error) {
	if len(items) == 0 {
		return BatchResult{}, fmt.Errorf("no items")
	}
	if len(items) > MaxItems {
		return BatchResult{}, fmt.Errorf("too many items: %d > %d", len(items), MaxItems)
	}
	out := BatchResult{Outcomes: make([]Outcome, 0, len(items))}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		var (
			rec repo.Record
			err error
		)
		if dryRun {
			rec, err = calc.Preview(ctx, item)
		} else {
			rec, err = calc.Calculate(ctx, item)
		}
		o := Outcome{Index: i}
		switch {
		case err == nil:
			o.Record = &rec
			out.Recorded++
		case errors.Is(err, opening.ErrOutOfRange):
			o.Warning = "Warning! " + err.Error()
			out.Warnings++
		default:
			o.Error = err.Error()
			out.Failed++
		}
		out.Outcomes = append(out.Outcomes, o)
	}
	return out, nil
}

// RunChunked evaluates any number of items, MaxItems at a time. Outcome
// indexes refer to items, not to the chunk.
func RunChunked(ctx context.Context, calc Calculator, items []opening.Input, dryRun bool) (BatchResult, error) {
	if len(items) == 0 {
		return BatchResult{}, fmt.Errorf("no items")
	}
	out := BatchResult{Outcomes: make([]Outcome, 0, len(items))}
	for start := 0; start < len(items); start += MaxItems {
		res, err := Run(ctx, calc, items[start:min(start+MaxItems, len(items))], dryRun)
		for _, o := range res.Outcomes {
			o.Index += start
			out.Outcomes = append(out.Outcomes, o)
		}
		out.Recorded += res.Recorded
		out.Warnings += res.Warnings
		out.Failed += res.Failed
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
