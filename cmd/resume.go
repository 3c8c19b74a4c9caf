package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/trajopt/stomp/internal/problem"
	"github.com/trajopt/stomp/internal/stomp"
	"github.com/trajopt/stomp/internal/store"
)

var (
	resumeDataDir string
	resumeOutPath string
	resumeIters   int
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume optimization from a checkpoint",
	Long: `Loads a saved checkpoint and continues optimizing from its best
trajectory. The problem definition referenced by the checkpoint must still
be available at its original path.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	resumeCmd.Flags().StringVar(&resumeOutPath, "out", "result.json", "Output result path")
	resumeCmd.Flags().IntVar(&resumeIters, "iters", 0, "Max iterations (overrides checkpoint config)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint is not usable: %w", err)
	}

	slog.Info("Loaded checkpoint",
		"job_id", checkpoint.JobID,
		"iteration", checkpoint.Iteration,
		"best_cost", checkpoint.BestCost,
		"problem", checkpoint.Config.ProblemPath,
	)

	prob, err := problem.Load(checkpoint.Config.ProblemPath)
	if err != nil {
		return fmt.Errorf("failed to load problem: %w", err)
	}
	if checkpoint.Config.MaxIterations > 0 {
		prob.MaxIterations = checkpoint.Config.MaxIterations
	}
	if checkpoint.Config.Rollouts > 0 {
		prob.Rollouts = checkpoint.Config.Rollouts
	}
	if checkpoint.Config.Seed != 0 {
		s := checkpoint.Config.Seed
		prob.Seed = &s
	}
	if cmd.Flags().Changed("iters") {
		prob.MaxIterations = resumeIters
	}

	cfg, _, task, err := prob.Build()
	if err != nil {
		return fmt.Errorf("failed to build problem: %w", err)
	}

	initial, err := stomp.FromMatrix(checkpoint.BestTrajectory)
	if err != nil {
		return fmt.Errorf("checkpoint trajectory is malformed: %w", err)
	}
	if initial.Dims != cfg.NumDimensions || initial.Steps != cfg.NumTimesteps {
		return fmt.Errorf("checkpoint trajectory is %dx%d, problem expects %dx%d",
			initial.Dims, initial.Steps, cfg.NumDimensions, cfg.NumTimesteps)
	}

	optimizer, err := stomp.New(cfg, task)
	if err != nil {
		return fmt.Errorf("failed to create optimizer: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := optimizer.Run(ctx, initial)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	elapsed := time.Since(start)

	if err := writeResult(resumeOutPath, prob.Name, result); err != nil {
		return err
	}

	slog.Info("Resume complete",
		"elapsed", elapsed,
		"checkpoint_cost", checkpoint.BestCost,
		"best_cost", result.Cost,
		"success", result.Success,
	)

	fmt.Printf("Wrote %s (cost: %.6f -> %.6f, success: %v, %d iterations)\n",
		resumeOutPath, checkpoint.BestCost, result.Cost, result.Success, result.Iterations)

	return nil
}
