package cost

import (
	"math"
	"testing"

	"github.com/trajopt/stomp/internal/stomp"
)

func TestNewGoalDeviationDefaults(t *testing.T) {
	g, err := NewGoalDeviation([]float64{1, 2}, nil, nil)
	if err != nil {
		t.Fatalf("NewGoalDeviation failed: %v", err)
	}

	traj := stomp.NewTrajectory(2, 4)
	traj.Set(0, 3, 1.0)
	traj.Set(1, 3, 2.0)

	costs, valid, err := g.Evaluate(traj, 0, 4, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !valid {
		t.Error("Terminal state on target must be valid")
	}
	for ts, c := range costs {
		if c != 0 {
			t.Errorf("Timestep %d: expected zero cost, got %g", ts, c)
		}
	}
}

func TestGoalDeviationOutOfTolerance(t *testing.T) {
	g, err := NewGoalDeviation([]float64{1}, nil, []float64{0.1})
	if err != nil {
		t.Fatalf("NewGoalDeviation failed: %v", err)
	}

	traj := stomp.NewTrajectory(1, 4)
	traj.Set(0, 3, 1.3) // deviation 0.3, tolerance 0.1

	costs, valid, err := g.Evaluate(traj, 0, 4, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if valid {
		t.Error("Deviation beyond tolerance must be invalid")
	}
	if math.Abs(costs[3]-3.0) > 1e-12 {
		t.Errorf("Expected cost ratio 3 at the terminal timestep, got %g", costs[3])
	}
	if costs[0] != 0 || costs[1] != 0 || costs[2] != 0 {
		t.Error("Non-terminal timesteps must carry zero cost")
	}
}

func TestGoalDeviationCapsLargeErrors(t *testing.T) {
	g, err := NewGoalDeviation([]float64{0}, nil, []float64{0.001})
	if err != nil {
		t.Fatalf("NewGoalDeviation failed: %v", err)
	}

	traj := stomp.NewTrajectory(1, 3)
	traj.Set(0, 2, 1000.0)

	costs, valid, err := g.Evaluate(traj, 0, 3, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if valid {
		t.Error("Expected invalid for a huge deviation")
	}
	if costs[2] != maxErrorRatio {
		t.Errorf("Expected capped cost %g, got %g", maxErrorRatio, costs[2])
	}
}

func TestGoalDeviationWindowWithoutTerminal(t *testing.T) {
	g, err := NewGoalDeviation([]float64{0}, nil, nil)
	if err != nil {
		t.Fatalf("NewGoalDeviation failed: %v", err)
	}

	traj := stomp.NewTrajectory(1, 10)
	traj.Set(0, 9, 5.0)

	costs, valid, err := g.Evaluate(traj, 0, 5, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !valid {
		t.Error("A window excluding the terminal state carries no goal verdict")
	}
	for _, c := range costs {
		if c != 0 {
			t.Error("Expected all-zero costs for a window excluding the terminal state")
		}
	}
}

func TestNewGoalDeviationErrors(t *testing.T) {
	if _, err := NewGoalDeviation(nil, nil, nil); err == nil {
		t.Error("Expected error for empty goal")
	}
	if _, err := NewGoalDeviation([]float64{0}, []float64{1, 2}, nil); err == nil {
		t.Error("Expected error for mismatched weights length")
	}
	if _, err := NewGoalDeviation([]float64{0}, nil, []float64{-0.1}); err == nil {
		t.Error("Expected error for non-positive tolerance")
	}
}
