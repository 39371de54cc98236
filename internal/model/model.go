package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// FeatureNames is the column order every model must be trained with.
var FeatureNames = []string{"x", "R", "q", "lambda"}

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrBadInput         = errors.New("bad model input")
)

// Predictor maps a feature vector in FeatureNames order to alpha.
type Predictor interface {
	Predict(ctx context.Context, features []float64) (float64, error)
}

// PredictorFunc adapts a plain function to Predictor.
type PredictorFunc func(ctx context.Context, features []float64) (float64, error)

func (f PredictorFunc) Predict(ctx context.Context, features []float64) (float64, error) {
	return f(ctx, features)
}

// Node is one split or leaf of a regression tree. Children are indexes into
// the owning tree's node slice.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Ensemble is a gradient-boosted tree regressor exported from the training
// scripts: prediction = Init + LearningRate * sum(tree outputs).
type Ensemble struct {
	Name         string   `json:"name"`
	Features     []string `json:"features"`
	Init         float64  `json:"init"`
	LearningRate float64  `json:"learning_rate"`
	Trees        []Tree   `json:"trees"`
}

// Load reads and validates an ensemble from path.
func Load(path string) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	var e Ensemble
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrModelUnavailable, path, err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, path, err)
	}
	return &e, nil
}

// Validate checks feature order and tree shape so that Predict can walk
// trees without bounds checks failing or looping.
func (e *Ensemble) Validate() error {
	if len(e.Features) != len(FeatureNames) {
		return fmt.Errorf("model has %d features, want %d", len(e.Features), len(FeatureNames))
	}
	for i, name := range FeatureNames {
		if e.Features[i] != name {
			return fmt.Errorf("feature %d is %q, want %q", i, e.Features[i], name)
		}
	}
	if len(e.Trees) == 0 {
		return fmt.Errorf("model has no trees")
	}
	for ti, t := range e.Trees {
		if err := t.validate(len(FeatureNames)); err != nil {
			return fmt.Errorf("tree %d: %w", ti, err)
		}
	}
	return nil
}

func (t Tree) validate(nFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	seen := make([]bool, len(t.Nodes))
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if i < 0 || i >= len(t.Nodes) {
			return fmt.Errorf("node index %d out of range", i)
		}
		if seen[i] {
			return fmt.Errorf("node %d reachable twice", i)
		}
		seen[i] = true
		n := t.Nodes[i]
		if n.Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d", i, n.Feature)
		}
		stack = append(stack, n.Left, n.Right)
	}
	return nil
}

func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (e *Ensemble) Predict(ctx context.Context, features []float64) (float64, error) {
	if len(features) != len(FeatureNames) {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrBadInput, len(features), len(FeatureNames))
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	sum := 0.0
	for _, t := range e.Trees {
		sum += t.eval(features)
	}
	return e.Init + e.LearningRate*sum, nil
}

// Unavailable is a Predictor that always fails with err. The server uses it
// when the model file could not be loaded so it can still serve the section
// catalog and exports.
type Unavailable struct {
	Err error
}

func (u Unavailable) Predict(context.Context, []float64) (float64, error) {
	if u.Err != nil {
		return 0, u.Err
	}
	return 0, ErrModelUnavailable
}
