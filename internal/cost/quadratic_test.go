package cost

import (
	"math"
	"testing"

	"github.com/trajopt/stomp/internal/stomp"
)

func TestNewQuadraticRequiresTarget(t *testing.T) {
	if _, err := NewQuadratic(nil); err == nil {
		t.Error("Expected error for empty target")
	}
}

func TestQuadraticCosts(t *testing.T) {
	q, err := NewQuadratic([]float64{1.0, -1.0})
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	traj := stomp.NewTrajectory(2, 3)
	traj.Set(0, 1, 3.0)  // distance 2 from target 1
	traj.Set(1, 1, -1.0) // on target

	costs, valid, err := q.Evaluate(traj, 0, 3, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !valid {
		t.Error("Quadratic cost must always be valid")
	}

	// Timestep 0: (0-1)^2 + (0+1)^2 = 2.
	if math.Abs(costs[0]-2.0) > 1e-12 {
		t.Errorf("Expected cost 2 at timestep 0, got %g", costs[0])
	}
	// Timestep 1: (3-1)^2 + 0 = 4.
	if math.Abs(costs[1]-4.0) > 1e-12 {
		t.Errorf("Expected cost 4 at timestep 1, got %g", costs[1])
	}
}

func TestQuadraticWindow(t *testing.T) {
	q, err := NewQuadratic([]float64{0})
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	traj := stomp.NewTrajectory(1, 5)
	traj.Set(0, 3, 2.0)

	costs, _, err := q.Evaluate(traj, 2, 2, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(costs) != 2 {
		t.Fatalf("Expected 2 costs, got %d", len(costs))
	}
	if costs[0] != 0 || costs[1] != 4 {
		t.Errorf("Expected costs [0 4], got %v", costs)
	}
}

func TestQuadraticDimensionMismatch(t *testing.T) {
	q, err := NewQuadratic([]float64{0, 0})
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}
	if _, _, err := q.Evaluate(stomp.NewTrajectory(1, 3), 0, 3, 0, 0); err == nil {
		t.Error("Expected error for mismatched dimensions")
	}
}
