package stomp

import "fmt"

// Trajectory is a dense NumDimensions x NumTimesteps parameter matrix.
// The first and last columns hold the fixed start and goal states; the
// optimizer never perturbs or updates them.
type Trajectory struct {
	Dims  int
	Steps int
	Data  []float64 // row-major: Data[d*Steps+t]
}

// NewTrajectory creates a zeroed trajectory of the given shape.
func NewTrajectory(dims, steps int) *Trajectory {
	return &Trajectory{
		Dims:  dims,
		Steps: steps,
		Data:  make([]float64, dims*steps),
	}
}

// Interpolate creates a trajectory that moves linearly from start to goal.
func Interpolate(start, goal []float64, steps int) (*Trajectory, error) {
	if len(start) != len(goal) {
		return nil, fmt.Errorf("start has %d dimensions, goal has %d", len(start), len(goal))
	}
	if steps < 2 {
		return nil, fmt.Errorf("interpolation needs at least 2 timesteps, got %d", steps)
	}
	traj := NewTrajectory(len(start), steps)
	for d := range start {
		row := traj.Row(d)
		for t := 0; t < steps; t++ {
			frac := float64(t) / float64(steps-1)
			row[t] = start[d] + frac*(goal[d]-start[d])
		}
	}
	return traj, nil
}

// At returns the value of dimension d at timestep t.
func (tr *Trajectory) At(d, t int) float64 {
	return tr.Data[d*tr.Steps+t]
}

// Set assigns the value of dimension d at timestep t.
func (tr *Trajectory) Set(d, t int, v float64) {
	tr.Data[d*tr.Steps+t] = v
}

// Row returns the slice backing dimension d. The slice aliases the
// trajectory's storage; writes are visible to the trajectory.
func (tr *Trajectory) Row(d int) []float64 {
	return tr.Data[d*tr.Steps : (d+1)*tr.Steps]
}

// Clone returns a deep copy.
func (tr *Trajectory) Clone() *Trajectory {
	out := NewTrajectory(tr.Dims, tr.Steps)
	copy(out.Data, tr.Data)
	return out
}

// Add accumulates other into tr elementwise. Shapes must match.
func (tr *Trajectory) Add(other *Trajectory) {
	for i := range tr.Data {
		tr.Data[i] += other.Data[i]
	}
}

// Matrix returns the values as a dims x steps slice of rows, copied out of
// the backing storage. Used for serialization.
func (tr *Trajectory) Matrix() [][]float64 {
	out := make([][]float64, tr.Dims)
	for d := 0; d < tr.Dims; d++ {
		out[d] = append([]float64(nil), tr.Row(d)...)
	}
	return out
}

// FromMatrix builds a trajectory from a dims x steps slice of rows.
func FromMatrix(rows [][]float64) (*Trajectory, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("trajectory matrix has no rows")
	}
	steps := len(rows[0])
	traj := NewTrajectory(len(rows), steps)
	for d, row := range rows {
		if len(row) != steps {
			return nil, fmt.Errorf("row %d has %d timesteps, expected %d", d, len(row), steps)
		}
		copy(traj.Row(d), row)
	}
	return traj, nil
}

// checkShape verifies the trajectory matches the configured problem size.
func (tr *Trajectory) checkShape(dims, steps int) error {
	if tr.Dims != dims || tr.Steps != steps {
		return fmt.Errorf("trajectory shape %dx%d does not match configuration %dx%d",
			tr.Dims, tr.Steps, dims, steps)
	}
	return nil
}
