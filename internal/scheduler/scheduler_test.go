package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddAndRemoveJob(t *testing.T) {
	s := New(nil)

	if err := s.AddIntervalJob("refresh", time.Minute, func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("AddIntervalJob() error = %v", err)
	}

	jobs := s.ListJobs()
	if len(jobs) != 1 || jobs[0].Name != "refresh" {
		t.Fatalf("ListJobs() = %+v, want one job named refresh", jobs)
	}

	s.RemoveJob("refresh")
	if jobs := s.ListJobs(); len(jobs) != 0 {
		t.Errorf("ListJobs() after remove = %+v, want empty", jobs)
	}

	// Removing an unknown job is a no-op.
	s.RemoveJob("missing")
}

func TestJobFailureKeepsItScheduled(t *testing.T) {
	s := New(nil)

	var runs atomic.Int32
	err := s.AddIntervalJob("flaky", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	})
	if err != nil {
		t.Fatalf("AddIntervalJob() error = %v", err)
	}

	s.Start()
	defer func() { <-s.Stop().Done() }()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("job ran %d times, want at least 2 despite failures", runs.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
