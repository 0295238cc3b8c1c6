package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/sensor-feed/internal/sensor"
)

type countingReloader struct {
	calls atomic.Int32
}

func (r *countingReloader) Reload(ctx context.Context) *sensor.Dataset {
	r.calls.Add(1)
	return sensor.EmptyDataset()
}

func TestStartWithoutIntervalSchedulesNothing(t *testing.T) {
	r := &countingReloader{}
	s := New(r, 0, time.Second, zerolog.Nop())

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	if n := r.calls.Load(); n != 0 {
		t.Fatalf("expected no reloads, got %d", n)
	}
}

func TestStartReloadsPeriodically(t *testing.T) {
	r := &countingReloader{}
	s := New(r, 20*time.Millisecond, time.Second, zerolog.Nop())

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 2 reloads, got %d", r.calls.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
