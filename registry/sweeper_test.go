package registry

import (
	"context"
	"testing"
	"time"

	"github.com/relatorlabs/beacon/component"
	"github.com/relatorlabs/beacon/logger"
)

func TestSweeper_Sweep_RemovesExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.Put(Record{Name: "stale", LeaseDeadline: now.Add(-time.Second)})
	store.Put(Record{Name: "live", LeaseDeadline: now.Add(time.Minute)})

	sw := NewSweeper(store, time.Second, logger.NewDefault("test"))
	sw.now = func() time.Time { return now }

	removed := sw.Sweep()
	if removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if _, ok := store.Get("stale"); ok {
		t.Error("expected stale record to be removed")
	}
	if _, ok := store.Get("live"); !ok {
		t.Error("expected live record to survive")
	}
}

func TestSweeper_Sweep_EmptyStore(t *testing.T) {
	sw := NewSweeper(NewStore(), time.Second, logger.NewDefault("test"))
	if removed := sw.Sweep(); removed != 0 {
		t.Errorf("expected 0 evictions, got %d", removed)
	}
}

func TestSweeper_Sweep_SkipsRenewedRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.Put(Record{Name: "tts", LeaseDeadline: now.Add(time.Minute)})

	sw := NewSweeper(store, time.Second, logger.NewDefault("test"))
	sw.now = func() time.Time { return now }

	if removed := sw.Sweep(); removed != 0 {
		t.Errorf("expected live record to be kept, evicted %d", removed)
	}
}

func TestSweeper_StartStop(t *testing.T) {
	store := NewStore()
	store.Put(Record{Name: "stale", LeaseDeadline: time.Now().Add(-time.Minute)})

	sw := NewSweeper(store, 10*time.Millisecond, logger.NewDefault("test"))
	ctx := context.Background()

	if err := sw.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if h := sw.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy while running, got %s", h.Status)
	}

	// Give the loop a few ticks to evict.
	deadline := time.Now().Add(time.Second)
	for store.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Len() != 0 {
		t.Error("expected background loop to evict the stale record")
	}

	if err := sw.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if h := sw.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy after stop, got %s", h.Status)
	}
}

func TestSweeper_Start_Idempotent(t *testing.T) {
	sw := NewSweeper(NewStore(), time.Minute, logger.NewDefault("test"))
	ctx := context.Background()

	if err := sw.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := sw.Start(ctx); err != nil {
		t.Errorf("second Start should be a no-op, got %v", err)
	}
	if err := sw.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if err := sw.Stop(ctx); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
}
