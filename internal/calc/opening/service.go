package opening

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Inertia/internal/model"
	"Inertia/internal/repo"
	"Inertia/internal/section"

	log "github.com/sirupsen/logrus"
)

var ErrPrediction = errors.New("prediction failed")

// Notifier is told about every committed change to the result log.
type Notifier interface {
	Appended(rec repo.Record)
	Cleared()
}

type Calculator struct {
	Catalog   *section.Catalog
	Predictor model.Predictor
	Repo      repo.Repository
	Notifier  Notifier
}

// Preview derives features and predicts alpha without touching the log.
func (c *Calculator) Preview(ctx context.Context, in Input) (repo.Record, error) {
	start := time.Now()
	rec, err := c.preview(ctx, in)
	calcDuration.Observe(time.Since(start).Seconds())
	return rec, err
}

func (c *Calculator) preview(ctx context.Context, in Input) (repo.Record, error) {
	f, err := Derive(c.Catalog, in)
	if err != nil {
		observe(err)
		return repo.Record{}, err
	}
	alpha, err := c.Predictor.Predict(ctx, f.Vector())
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPrediction, err)
		observe(err)
		return repo.Record{}, err
	}
	return repo.Record{
		Section: in.Section,
		Alpha:   alpha,
		X:       f.X,
		Q:       f.Q,
		R:       f.R,
		Lambda:  f.Lambda,
	}, nil
}

// Calculate runs the full pipeline and appends the result. Nothing is
// appended unless every step succeeds.
func (c *Calculator) Calculate(ctx context.Context, in Input) (repo.Record, error) {
	rec, err := c.Preview(ctx, in)
	if err != nil {
		return repo.Record{}, err
	}
	rec, err = c.Repo.Append(ctx, rec)
	if err != nil {
		observe(err)
		return repo.Record{}, fmt.Errorf("failed to record result: %w", err)
	}
	calcTotal.WithLabelValues(outcomeOK).Inc()
	log.WithFields(log.Fields{
		"section": rec.Section,
		"alpha":   rec.Alpha,
		"x":       rec.X,
		"q":       rec.Q,
		"r":       rec.R,
		"lambda":  rec.Lambda,
	}).Info("calculation recorded")

	if c.Notifier != nil {
		c.Notifier.Appended(rec)
	}
	return rec, nil
}

func (c *Calculator) Results(ctx context.Context) ([]repo.Record, error) {
	return c.Repo.List(ctx)
}

func (c *Calculator) Clear(ctx context.Context) error {
	if err := c.Repo.Clear(ctx); err != nil {
		return err
	}
	log.Info("result table cleared")
	if c.Notifier != nil {
		c.Notifier.Cleared()
	}
	return nil
}
