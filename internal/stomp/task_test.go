package stomp

import (
	"errors"
	"math"
	"testing"
)

// constEval returns a fixed cost per timestep and a fixed validity.
type constEval struct {
	cost  float64
	valid bool
}

func (e constEval) Evaluate(params *Trajectory, start, count, iteration, rollout int) ([]float64, bool, error) {
	costs := make([]float64, count)
	for i := range costs {
		costs[i] = e.cost
	}
	return costs, e.valid, nil
}

type errorEval struct{}

func (errorEval) Evaluate(params *Trajectory, start, count, iteration, rollout int) ([]float64, bool, error) {
	return nil, false, errors.New("backend unavailable")
}

type shortEval struct{}

func (shortEval) Evaluate(params *Trajectory, start, count, iteration, rollout int) ([]float64, bool, error) {
	return make([]float64, count-1), true, nil
}

func TestNewEvaluatorSumErrors(t *testing.T) {
	if _, err := NewEvaluatorSum(); err == nil {
		t.Error("Expected error for empty term list")
	}
	if _, err := NewEvaluatorSum(WeightedEvaluator{Evaluator: nil, Weight: 1}); err == nil {
		t.Error("Expected error for nil evaluator")
	}
	if _, err := NewEvaluatorSum(WeightedEvaluator{Evaluator: constEval{}, Weight: -1}); err == nil {
		t.Error("Expected error for negative weight")
	}
}

func TestEvaluatorSumWeightedCosts(t *testing.T) {
	sum, err := NewEvaluatorSum(
		WeightedEvaluator{Evaluator: constEval{cost: 2, valid: true}, Weight: 1.5},
		WeightedEvaluator{Evaluator: constEval{cost: 4, valid: true}, Weight: 0.5},
	)
	if err != nil {
		t.Fatalf("NewEvaluatorSum failed: %v", err)
	}

	traj := NewTrajectory(1, 5)
	costs, valid, err := sum.Evaluate(traj, 0, 5, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !valid {
		t.Error("Expected combined validity true")
	}
	want := 1.5*2 + 0.5*4
	for ts, c := range costs {
		if math.Abs(c-want) > 1e-12 {
			t.Fatalf("Timestep %d: expected %g, got %g", ts, want, c)
		}
	}
}

func TestEvaluatorSumValidityIsAnd(t *testing.T) {
	sum, err := NewEvaluatorSum(
		WeightedEvaluator{Evaluator: constEval{cost: 1, valid: true}, Weight: 1},
		WeightedEvaluator{Evaluator: constEval{cost: 1, valid: false}, Weight: 1},
	)
	if err != nil {
		t.Fatalf("NewEvaluatorSum failed: %v", err)
	}

	_, valid, err := sum.Evaluate(NewTrajectory(1, 3), 0, 3, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if valid {
		t.Error("Any invalid term must make the sum invalid")
	}
}

func TestEvaluatorSumPropagatesErrors(t *testing.T) {
	sum, err := NewEvaluatorSum(
		WeightedEvaluator{Evaluator: errorEval{}, Weight: 1},
	)
	if err != nil {
		t.Fatalf("NewEvaluatorSum failed: %v", err)
	}
	if _, _, err := sum.Evaluate(NewTrajectory(1, 3), 0, 3, 0, 0); err == nil {
		t.Error("Expected evaluator error to propagate")
	}

	sum, err = NewEvaluatorSum(
		WeightedEvaluator{Evaluator: shortEval{}, Weight: 1},
	)
	if err != nil {
		t.Fatalf("NewEvaluatorSum failed: %v", err)
	}
	if _, _, err := sum.Evaluate(NewTrajectory(1, 3), 0, 3, 0, 0); err == nil {
		t.Error("Expected error for wrong cost vector length")
	}
}
