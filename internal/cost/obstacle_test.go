package cost

import (
	"math"
	"testing"

	"github.com/trajopt/stomp/internal/stomp"
)

func TestNewObstacleErrors(t *testing.T) {
	if _, err := NewObstacle([]Zone{{Dim: 0, Min: 2, Max: 1}}); err == nil {
		t.Error("Expected error for inverted zone bounds")
	}
	if _, err := NewObstacle([]Zone{{Dim: -1, Min: 0, Max: 1}}); err == nil {
		t.Error("Expected error for negative dimension")
	}
}

func TestObstaclePenetration(t *testing.T) {
	o, err := NewObstacle([]Zone{{Dim: 0, Min: 1.0, Max: 3.0}})
	if err != nil {
		t.Fatalf("NewObstacle failed: %v", err)
	}

	traj := stomp.NewTrajectory(1, 4)
	traj.Set(0, 0, 0.5) // outside
	traj.Set(0, 1, 1.2) // 0.2 inside from the lower edge
	traj.Set(0, 2, 2.0) // dead center, depth 1.0
	traj.Set(0, 3, 3.0) // on the edge, outside

	costs, valid, err := o.Evaluate(traj, 0, 4, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if valid {
		t.Error("Any penetration must mark the rollout invalid")
	}

	if costs[0] != 0 || costs[3] != 0 {
		t.Errorf("States outside the zone must be free, got %g and %g", costs[0], costs[3])
	}
	if math.Abs(costs[1]-0.2) > 1e-12 {
		t.Errorf("Expected penetration depth 0.2, got %g", costs[1])
	}
	if math.Abs(costs[2]-1.0) > 1e-12 {
		t.Errorf("Expected penetration depth 1.0, got %g", costs[2])
	}
}

func TestObstacleClearPath(t *testing.T) {
	o, err := NewObstacle([]Zone{{Dim: 0, Min: 5, Max: 6}})
	if err != nil {
		t.Fatalf("NewObstacle failed: %v", err)
	}

	traj := stomp.NewTrajectory(1, 3)
	costs, valid, err := o.Evaluate(traj, 0, 3, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !valid {
		t.Error("Trajectory clear of all zones must be valid")
	}
	for _, c := range costs {
		if c != 0 {
			t.Error("Clear trajectory must have zero obstacle cost")
		}
	}
}

func TestObstacleUnknownDimension(t *testing.T) {
	o, err := NewObstacle([]Zone{{Dim: 3, Min: 0, Max: 1}})
	if err != nil {
		t.Fatalf("NewObstacle failed: %v", err)
	}
	if _, _, err := o.Evaluate(stomp.NewTrajectory(1, 3), 0, 3, 0, 0); err == nil {
		t.Error("Expected error for a zone referencing a missing dimension")
	}
}
