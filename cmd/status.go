package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listJobs(fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

func listJobs(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var jobs []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Printf("Job ID: %s\n", job["id"])
		fmt.Printf("  State: %s\n", job["state"])
		if config, ok := job["config"].(map[string]interface{}); ok {
			fmt.Printf("  Problem: %s\n", config["problemPath"])
		}
		if cost, ok := job["bestCost"].(float64); ok && cost > 0 {
			fmt.Printf("  Cost: %.6f -> %.6f\n", job["initialCost"], cost)
		}
		fmt.Println()
	}

	return nil
}

func getJobStatus(url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Job: %s\n", status["id"])
	fmt.Printf("State: %s\n", status["state"])
	fmt.Println()

	if config, ok := status["config"].(map[string]interface{}); ok {
		fmt.Println("Configuration:")
		fmt.Printf("  Problem: %s\n", config["problemPath"])
		if v, ok := config["maxIterations"]; ok {
			fmt.Printf("  Iterations: %v\n", v)
		}
		if v, ok := config["rollouts"]; ok {
			fmt.Printf("  Rollouts: %v\n", v)
		}
		fmt.Println()
	}

	fmt.Println("Progress:")
	if v, ok := status["iterations"].(float64); ok {
		fmt.Printf("  Iterations: %d\n", int(v))
	}
	if v, ok := status["initialCost"].(float64); ok && v > 0 {
		fmt.Printf("  Initial Cost: %.6f\n", v)
	}
	if v, ok := status["bestCost"].(float64); ok && v > 0 {
		fmt.Printf("  Best Cost: %.6f\n", v)
		if initial, ok := status["initialCost"].(float64); ok && initial > 0 {
			improvement := initial - v
			fmt.Printf("  Improvement: %.6f (%.1f%%)\n", improvement, improvement/initial*100)
		}
	}
	if v, ok := status["success"].(bool); ok {
		fmt.Printf("  Valid: %v\n", v)
	}
	if v, ok := status["elapsed"].(float64); ok {
		elapsed := time.Duration(v * float64(time.Second))
		fmt.Printf("  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	}
	if v, ok := status["ips"].(float64); ok && v > 0 {
		fmt.Printf("  Throughput: %.1f iterations/sec\n", v)
	}
	if v, ok := status["error"].(string); ok && v != "" {
		fmt.Printf("\nError: %s\n", v)
	}

	return nil
}
