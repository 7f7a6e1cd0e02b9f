package worker

import (
	"testing"
	"time"
)

func TestSubmitRunsJob(t *testing.T) {
	done := make(chan struct{})
	Submit(Job{Run: func() { close(done) }})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("job was not run")
	}
}

func TestPanickingJobDoesNotStopPool(t *testing.T) {
	Submit(Job{Tags: map[string]string{"subject": "steve"}, Run: func() { panic("boom") }})

	done := make(chan struct{})
	Submit(Job{Run: func() { close(done) }})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("pool stopped running jobs after a panic")
	}
}
