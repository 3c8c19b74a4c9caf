package store

import (
	"fmt"
	"time"
)

// JobConfig holds the configuration of an optimization job (checkpoint
// copy). Zero-valued override fields defer to the problem file.
type JobConfig struct {
	ProblemPath        string `json:"problemPath"`
	MaxIterations      int    `json:"maxIterations,omitempty"`
	Rollouts           int    `json:"rollouts,omitempty"`
	Seed               int64  `json:"seed,omitempty"`
	CheckpointInterval int    `json:"checkpointInterval,omitempty"` // seconds, 0 = disabled
}

// Checkpoint is a saved optimization state that can be resumed later.
//
// Only the best trajectory and its bookkeeping are saved, not the rollout
// pool or noise generator state. Resuming restarts the optimizer with the
// checkpointed best trajectory as the initial trajectory: the best cost
// can never get worse, but the run is not a bit-exact continuation.
type Checkpoint struct {
	// JobID is the unique identifier for this optimization job.
	JobID string `json:"jobId"`

	// BestTrajectory is the dimensions x timesteps matrix of the best
	// trajectory found so far.
	BestTrajectory [][]float64 `json:"bestTrajectory"`

	// BestCost is the total cost achieved by BestTrajectory.
	BestCost float64 `json:"bestCost"`

	// InitialCost is the input trajectory's cost, for improvement tracking.
	InitialCost float64 `json:"initialCost"`

	// Iteration is the iteration count when this checkpoint was created.
	Iteration int `json:"iteration"`

	// Success records whether a valid rollout had been found by then.
	Success bool `json:"success"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`

	// Config holds the job configuration, needed for validation on resume.
	Config JobConfig `json:"config"`
}

// CheckpointInfo is checkpoint metadata without the trajectory payload,
// used for listing without loading full matrices.
type CheckpointInfo struct {
	JobID       string    `json:"jobId"`
	BestCost    float64   `json:"bestCost"`
	Iteration   int       `json:"iteration"`
	Success     bool      `json:"success"`
	Timestamp   time.Time `json:"timestamp"`
	ProblemPath string    `json:"problemPath"`
	Dimensions  int       `json:"dimensions"`
	Timesteps   int       `json:"timesteps"`
}

// NewCheckpoint converts runtime job state to a persistable checkpoint.
func NewCheckpoint(jobID string, best [][]float64, bestCost, initialCost float64, iteration int, success bool, config JobConfig) *Checkpoint {
	return &Checkpoint{
		JobID:          jobID,
		BestTrajectory: best,
		BestCost:       bestCost,
		InitialCost:    initialCost,
		Iteration:      iteration,
		Success:        success,
		Timestamp:      time.Now(),
		Config:         config,
	}
}

// ToInfo converts a full Checkpoint to its metadata.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	info := CheckpointInfo{
		JobID:       c.JobID,
		BestCost:    c.BestCost,
		Iteration:   c.Iteration,
		Success:     c.Success,
		Timestamp:   c.Timestamp,
		ProblemPath: c.Config.ProblemPath,
		Dimensions:  len(c.BestTrajectory),
	}
	if len(c.BestTrajectory) > 0 {
		info.Timesteps = len(c.BestTrajectory[0])
	}
	return info
}

// Validate checks that the checkpoint has usable data.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(c.BestTrajectory) == 0 {
		return &ValidationError{Field: "BestTrajectory", Reason: "cannot be empty"}
	}
	steps := len(c.BestTrajectory[0])
	if steps < 2 {
		return &ValidationError{Field: "BestTrajectory", Reason: "must have at least 2 timesteps"}
	}
	for d, row := range c.BestTrajectory {
		if len(row) != steps {
			return &ValidationError{
				Field:  "BestTrajectory",
				Reason: fmt.Sprintf("row %d has %d timesteps, expected %d", d, len(row), steps),
			}
		}
	}
	if c.Iteration < 0 {
		return &ValidationError{Field: "Iteration", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.ProblemPath == "" {
		return &ValidationError{Field: "Config.ProblemPath", Reason: "cannot be empty"}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks whether this checkpoint can be resumed with the
// given job configuration.
func (c *Checkpoint) IsCompatible(config JobConfig) error {
	if c.Config.ProblemPath != config.ProblemPath {
		return &CompatibilityError{
			Field:    "ProblemPath",
			Expected: c.Config.ProblemPath,
			Actual:   config.ProblemPath,
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
