package server

import (
	"testing"
	"time"
)

func testEvent(jobID string, iteration int) ProgressEvent {
	return ProgressEvent{
		JobID:      jobID,
		State:      StateRunning,
		Iterations: iteration,
		BestCost:   10.0 - float64(iteration),
		Timestamp:  time.Now(),
	}
}

func TestBroadcastToSubscriber(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-1")
	defer eb.Unsubscribe("job-1", ch)

	eb.Broadcast(testEvent("job-1", 5))

	select {
	case event := <-ch:
		if event.Iterations != 5 {
			t.Errorf("Expected iteration 5, got %d", event.Iterations)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestBroadcastIsolatesJobs(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-a")
	defer eb.Unsubscribe("job-a", ch)

	eb.Broadcast(testEvent("job-b", 1))

	select {
	case <-ch:
		t.Fatal("Received an event for a different job")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeReplaysLastEvent(t *testing.T) {
	eb := NewEventBroadcaster()

	eb.Broadcast(testEvent("job-1", 7))

	ch := eb.Subscribe("job-1")
	defer eb.Unsubscribe("job-1", ch)

	select {
	case event := <-ch:
		if event.Iterations != 7 {
			t.Errorf("Expected replayed iteration 7, got %d", event.Iterations)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected the last event to be replayed on subscribe")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-1")
	eb.Unsubscribe("job-1", ch)

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after unsubscribe")
	}
}

func TestCleanupJob(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-1")
	eb.Broadcast(testEvent("job-1", 1))
	eb.CleanupJob("job-1")

	// Drain: the buffered event may still be there, but the channel must
	// be closed.
	closed := false
	for i := 0; i < 3; i++ {
		if _, ok := <-ch; !ok {
			closed = true
			break
		}
	}
	if !closed {
		t.Error("Expected channel to be closed after cleanup")
	}

	// No replay after cleanup.
	ch2 := eb.Subscribe("job-1")
	defer eb.Unsubscribe("job-1", ch2)
	select {
	case <-ch2:
		t.Error("Cached event should have been dropped by cleanup")
	case <-time.After(50 * time.Millisecond):
	}
}
