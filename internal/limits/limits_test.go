package limits

import (
	"testing"

	"github.com/trajopt/stomp/internal/stomp"
)

func TestNewErrors(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("Expected error for empty bounds")
	}
	if _, err := New([]float64{0}, []float64{0, 1}); err == nil {
		t.Error("Expected error for mismatched lengths")
	}
	if _, err := New([]float64{1}, []float64{1}); err == nil {
		t.Error("Expected error for min >= max")
	}
}

func TestClampInterior(t *testing.T) {
	l, err := New([]float64{-1}, []float64{1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	traj := stomp.NewTrajectory(1, 5)
	traj.Set(0, 1, 2.5)
	traj.Set(0, 2, -3.0)
	traj.Set(0, 3, 0.5)

	changed, valid, err := l.Apply(traj, 0)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !changed {
		t.Error("Out-of-bound values must report a change")
	}
	if !valid {
		t.Error("Clamped interior violations are recoverable")
	}
	if traj.At(0, 1) != 1 || traj.At(0, 2) != -1 {
		t.Errorf("Expected clamped values, got %g and %g", traj.At(0, 1), traj.At(0, 2))
	}
	if traj.At(0, 3) != 0.5 {
		t.Error("In-bound values must not be touched")
	}
}

func TestNoChangeWithinBounds(t *testing.T) {
	l, err := New([]float64{-1}, []float64{1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	traj := stomp.NewTrajectory(1, 5)
	changed, valid, err := l.ApplyUpdate(traj)
	if err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}
	if changed {
		t.Error("Trajectory within bounds must be left unchanged")
	}
	if !valid {
		t.Error("Trajectory within bounds must be valid")
	}
}

func TestBoundaryViolationUnrecoverable(t *testing.T) {
	l, err := New([]float64{0}, []float64{1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	traj := stomp.NewTrajectory(1, 4)
	traj.Set(0, 3, 5.0) // fixed goal state out of range

	goal := traj.At(0, 3)
	_, valid, err := l.Apply(traj, 0)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if valid {
		t.Error("An out-of-range boundary state cannot be repaired by clamping")
	}
	if traj.At(0, 3) != goal {
		t.Error("Boundary states must never be clamped")
	}
}

func TestDimensionMismatch(t *testing.T) {
	l, err := New([]float64{0, 0}, []float64{1, 1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, _, err := l.Apply(stomp.NewTrajectory(1, 4), 0); err == nil {
		t.Error("Expected error for mismatched dimensions")
	}
}
