package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestEveryRunsUntilCancelled(t *testing.T) {
	s := New(zap.NewNop())
	s.Start()
	defer s.Stop()

	var runs atomic.Int32
	if err := s.Every("job", 10*time.Millisecond, func() { runs.Add(1) }); err != nil {
		t.Fatalf("Every returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}

	s.Cancel("job")
	if s.Len() != 0 {
		t.Fatalf("expected no jobs after cancel, got %d", s.Len())
	}

	time.Sleep(30 * time.Millisecond) // let an in-flight run finish
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if runs.Load() != after {
		t.Errorf("job kept running after cancel: %d -> %d", after, runs.Load())
	}
}

func TestEveryReplacesSameTag(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	for i := 0; i < 3; i++ {
		if err := s.Every("same", time.Second, func() {}); err != nil {
			t.Fatalf("Every returned error: %v", err)
		}
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 job, got %d", s.Len())
	}

	if err := s.Every("other", time.Second, func() {}); err != nil {
		t.Fatalf("Every returned error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 jobs, got %d", s.Len())
	}
}

func TestEveryRejectsNonPositiveInterval(t *testing.T) {
	s := New(zap.NewNop())
	if err := s.Every("bad", 0, func() {}); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestCancelUnknownTag(t *testing.T) {
	s := New(zap.NewNop())
	s.Cancel("missing")
	if s.Len() != 0 {
		t.Fatalf("expected empty scheduler, got %d jobs", s.Len())
	}
}
