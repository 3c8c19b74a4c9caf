package main

import (
	"testing"
	"time"

	"github.com/trajopt/stomp/internal/store"
)

func makeInfos(ages ...time.Duration) []store.CheckpointInfo {
	infos := make([]store.CheckpointInfo, len(ages))
	now := time.Now()
	for i, age := range ages {
		infos[i] = store.CheckpointInfo{
			JobID:     string(rune('a' + i)),
			Timestamp: now.Add(-age),
		}
	}
	return infos
}

func TestSelectCheckpointsOlderThan(t *testing.T) {
	infos := makeInfos(1*time.Hour, 48*time.Hour, 100*24*time.Hour)

	toDelete := selectCheckpointsForDeletion(infos, 0, 7)
	if len(toDelete) != 1 {
		t.Fatalf("Expected 1 checkpoint older than 7 days, got %d", len(toDelete))
	}
	if toDelete[0].JobID != "c" {
		t.Errorf("Expected the oldest checkpoint, got %s", toDelete[0].JobID)
	}
}

func TestSelectCheckpointsKeepLast(t *testing.T) {
	infos := makeInfos(1*time.Hour, 2*time.Hour, 3*time.Hour, 4*time.Hour)

	toDelete := selectCheckpointsForDeletion(infos, 2, 0)
	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 checkpoints beyond keep-last 2, got %d", len(toDelete))
	}
	// The two oldest go.
	got := map[string]bool{}
	for _, info := range toDelete {
		got[info.JobID] = true
	}
	if !got["c"] || !got["d"] {
		t.Errorf("Expected the oldest checkpoints c and d, got %v", got)
	}
}

func TestSelectCheckpointsCombinedPolicies(t *testing.T) {
	infos := makeInfos(1*time.Hour, 10*24*time.Hour, 20*24*time.Hour)

	// Age policy already marks the two old ones; keep-last must not
	// duplicate them.
	toDelete := selectCheckpointsForDeletion(infos, 1, 7)
	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 deletions without duplicates, got %d", len(toDelete))
	}
}

func TestSelectCheckpointsNothingMatches(t *testing.T) {
	infos := makeInfos(1*time.Hour, 2*time.Hour)

	if got := selectCheckpointsForDeletion(infos, 5, 0); len(got) != 0 {
		t.Errorf("Keep-last above the count must delete nothing, got %d", len(got))
	}
	if got := selectCheckpointsForDeletion(infos, 0, 30); len(got) != 0 {
		t.Errorf("No checkpoint is old enough, got %d", len(got))
	}
}

func TestTruncateID(t *testing.T) {
	if got := truncateID("short"); got != "short" {
		t.Errorf("Short IDs must pass through, got %q", got)
	}
	long := "0123456789abcdef"
	if got := truncateID(long); got != "0123456789ab..." {
		t.Errorf("Expected truncated ID, got %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
