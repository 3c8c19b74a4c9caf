package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/trajopt/stomp/internal/problem"
	"github.com/trajopt/stomp/internal/stomp"
)

var (
	problemPath string
	outPath     string
	iters       int
	rollouts    int
	seed        int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot trajectory optimization",
	Long:  `Loads a problem definition, runs the optimization loop and writes the resulting trajectory as JSON.`,
	RunE:  runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&problemPath, "problem", "", "Problem definition file (required)")
	runCmd.Flags().StringVar(&outPath, "out", "result.json", "Output result path")
	runCmd.Flags().IntVar(&iters, "iters", 0, "Max iterations (overrides problem file)")
	runCmd.Flags().IntVar(&rollouts, "rollouts", 0, "Noisy rollouts per iteration (overrides problem file)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (overrides problem file)")

	runCmd.MarkFlagRequired("problem")
	rootCmd.AddCommand(runCmd)
}

// runResult is the JSON document written by the run and resume commands.
type runResult struct {
	Name        string      `json:"name"`
	Cost        float64     `json:"cost"`
	InitialCost float64     `json:"initialCost"`
	Success     bool        `json:"success"`
	Iterations  int         `json:"iterations"`
	Trajectory  [][]float64 `json:"trajectory"`
}

func runOptimization(cmd *cobra.Command, args []string) error {
	prob, err := problem.Load(problemPath)
	if err != nil {
		return fmt.Errorf("failed to load problem: %w", err)
	}

	if cmd.Flags().Changed("iters") {
		prob.MaxIterations = iters
	}
	if cmd.Flags().Changed("rollouts") {
		prob.Rollouts = rollouts
	}
	if cmd.Flags().Changed("seed") {
		s := seed
		prob.Seed = &s
	}

	cfg, initial, task, err := prob.Build()
	if err != nil {
		return fmt.Errorf("failed to build problem: %w", err)
	}

	slog.Info("Starting optimization",
		"problem", prob.Name,
		"dimensions", cfg.NumDimensions,
		"timesteps", cfg.NumTimesteps,
		"iters", cfg.MaxIterations,
	)

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

	if err := writeResult(outPath, prob.Name, result); err != nil {
		return err
	}

	ips := float64(result.Iterations) / elapsed.Seconds()
	slog.Info("Optimization complete",
		"elapsed", elapsed,
		"initial_cost", result.InitialCost,
		"best_cost", result.Cost,
		"success", result.Success,
		"iterations_per_second", fmt.Sprintf("%.1f", ips),
	)

	fmt.Printf("Wrote %s (cost: %.6f -> %.6f, success: %v, %d iterations)\n",
		outPath, result.InitialCost, result.Cost, result.Success, result.Iterations)

	return nil
}

func writeResult(path, name string, result *stomp.Result) error {
	doc := runResult{
		Name:        name,
		Cost:        result.Cost,
		InitialCost: result.InitialCost,
		Success:     result.Success,
		Iterations:  result.Iterations,
		Trajectory:  result.Trajectory.Matrix(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
