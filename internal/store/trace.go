package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TraceEntry is one line of the per-iteration cost trace, serialized as a
// JSON line in trace.jsonl.
type TraceEntry struct {
	// Iteration is the optimization iteration number.
	Iteration int `json:"iteration"`

	// BestCost is the best total cost after this iteration.
	BestCost float64 `json:"bestCost"`

	// CurrentCost is the updated trajectory's total cost this iteration.
	CurrentCost float64 `json:"currentCost"`

	// NoiseScale is the decayed exploration scale used this iteration.
	NoiseScale float64 `json:"noiseScale"`

	// ValidRollouts counts the rollouts accepted for weighting.
	ValidRollouts int `json:"validRollouts"`

	// Timestamp records when this entry was created.
	Timestamp time.Time `json:"timestamp"`
}

// TraceWriter appends trace entries to a JSONL file. It uses buffered I/O
// and is safe for concurrent use.
type TraceWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewTraceWriter creates a trace writer at <baseDir>/jobs/<jobID>/trace.jsonl.
// If appendMode is true, new entries are appended to an existing file.
func NewTraceWriter(baseDir, jobID string, appendMode bool) (*TraceWriter, error) {
	jobDir := filepath.Join(baseDir, "jobs", jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	path := filepath.Join(jobDir, "trace.jsonl")
	var file *os.File
	var err error
	if appendMode {
		file, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	} else {
		file, err = os.Create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	return &TraceWriter{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
	}, nil
}

// Append writes one trace entry as a JSON line.
func (w *TraceWriter) Append(entry TraceEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize trace entry: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write trace newline: %w", err)
	}
	return nil
}

// Flush forces buffered entries to disk.
func (w *TraceWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Flush()
}

// Close flushes and closes the underlying file.
func (w *TraceWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush trace: %w", err)
	}
	return w.file.Close()
}

// Path returns the trace file location.
func (w *TraceWriter) Path() string {
	return w.path
}

// ReadTrace loads all entries from a job's trace file. A missing file
// yields an empty slice, not an error.
func ReadTrace(baseDir, jobID string) ([]TraceEntry, error) {
	path := filepath.Join(baseDir, "jobs", jobID, "trace.jsonl")
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return []TraceEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer file.Close()

	var entries []TraceEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry TraceEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse trace line: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}
	return entries, nil
}
