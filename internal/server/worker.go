package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trajopt/stomp/internal/problem"
	"github.com/trajopt/stomp/internal/stomp"
	"github.com/trajopt/stomp/internal/store"
)

// runJob executes an optimization job in the background, streaming
// progress through the job manager and saving periodic checkpoints.
func runJob(ctx context.Context, jm *JobManager, checkpointStore *store.FSStore, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	}); err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "problem", job.Config.ProblemPath)

	prob, err := problem.Load(job.Config.ProblemPath)
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to load problem: %w", err))
		return err
	}
	applyOverrides(prob, job.Config)

	cfg, initial, task, err := prob.Build()
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to build problem: %w", err))
		return err
	}

	opt, err := stomp.New(cfg, task)
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to create optimizer: %w", err))
		return err
	}

	var trace *store.TraceWriter
	if checkpointStore != nil {
		trace, err = store.NewTraceWriter(checkpointStore.BaseDir(), jobID, false)
		if err != nil {
			slog.Warn("Failed to create trace writer", "job_id", jobID, "error", err)
		} else {
			defer trace.Close()
		}
	}

	// Progress updates land in the job record; the monitor goroutine
	// broadcasts them to SSE clients at a throttled rate.
	opt.OnProgress = func(p stomp.Progress) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.Iterations = p.Iteration + 1
			j.BestCost = p.BestCost
			j.Success = p.ValidFound
			if p.Best != nil {
				j.BestTrajectory = p.Best.Matrix()
			}
		})
		if trace != nil {
			trace.Append(store.TraceEntry{
				Iteration:     p.Iteration,
				BestCost:      p.BestCost,
				CurrentCost:   p.CurrentCost,
				NoiseScale:    p.NoiseScale,
				ValidRollouts: p.ValidRollouts,
				Timestamp:     time.Now(),
			})
		}
	}

	start := time.Now()

	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, start, progressDone)

	checkpointDone := make(chan struct{})
	if checkpointStore != nil && job.Config.CheckpointInterval > 0 {
		go monitorCheckpoints(ctx, jm, checkpointStore, jobID, checkpointDone)
	}

	result, err := opt.Run(ctx, initial)

	close(progressDone)
	close(checkpointDone)
	elapsed := time.Since(start)

	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	endTime := time.Now()
	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestTrajectory = result.Trajectory.Matrix()
		j.BestCost = result.Cost
		j.InitialCost = result.InitialCost
		j.Iterations = result.Iterations
		j.Success = result.Success
		j.EndTime = &endTime
	}); err != nil {
		return err
	}

	if checkpointStore != nil {
		if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
			slog.Warn("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}

	ips := float64(result.Iterations) / elapsed.Seconds()
	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_cost", result.InitialCost,
		"best_cost", result.Cost,
		"success", result.Success,
		"iterations_per_second", ips,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:      jobID,
		State:      StateCompleted,
		Iterations: result.Iterations,
		BestCost:   result.Cost,
		Success:    result.Success,
		IPS:        ips,
		Timestamp:  time.Now(),
	})
	return nil
}

// applyOverrides copies job-level overrides into the loaded problem.
func applyOverrides(prob *problem.Problem, config JobConfig) {
	if config.MaxIterations > 0 {
		prob.MaxIterations = config.MaxIterations
	}
	if config.Rollouts > 0 {
		prob.Rollouts = config.Rollouts
	}
	if config.Seed != 0 {
		seed := config.Seed
		prob.Seed = &seed
	}
}

// monitorProgress periodically broadcasts progress events during
// optimization, throttled to two updates per second.
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, startTime time.Time, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}

			elapsed := time.Since(startTime).Seconds()
			var ips float64
			if elapsed > 0 && job.Iterations > 0 {
				ips = float64(job.Iterations) / elapsed
			}

			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:      jobID,
				State:      job.State,
				Iterations: job.Iterations,
				BestCost:   job.BestCost,
				Success:    job.Success,
				IPS:        ips,
				Timestamp:  time.Now(),
			})
		}
	}
}

// markJobFailed marks a job as failed with an error message.
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled.
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}

// monitorCheckpoints periodically saves checkpoints during optimization.
func monitorCheckpoints(ctx context.Context, jm *JobManager, checkpointStore *store.FSStore, jobID string, done chan struct{}) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}

	interval := time.Duration(job.Config.CheckpointInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
			}
		}
	}
}

// saveCheckpoint persists the job's current best state.
func saveCheckpoint(jm *JobManager, checkpointStore *store.FSStore, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if len(job.BestTrajectory) == 0 {
		slog.Debug("Skipping checkpoint, no best trajectory yet", "job_id", jobID)
		return nil
	}

	checkpoint := store.NewCheckpoint(
		jobID,
		job.BestTrajectory,
		job.BestCost,
		job.InitialCost,
		job.Iterations,
		job.Success,
		job.Config,
	)
	if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Checkpoint saved",
		"job_id", jobID,
		"iteration", job.Iterations,
		"best_cost", job.BestCost,
	)
	return nil
}
