package component

import (
	"context"
	"fmt"
	"testing"
)

type fakeComponent struct {
	name    string
	started bool
	stopped bool
	failOn  string
	order   *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(ctx context.Context) error {
	if f.failOn == "start" {
		return fmt.Errorf("start failed")
	}
	f.started = true
	if f.order != nil {
		*f.order = append(*f.order, "start:"+f.name)
	}
	return nil
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	if f.failOn == "stop" {
		return fmt.Errorf("stop failed")
	}
	f.stopped = true
	if f.order != nil {
		*f.order = append(*f.order, "stop:"+f.name)
	}
	return nil
}

func (f *fakeComponent) Health(ctx context.Context) Health {
	return Health{Name: f.name, Status: StatusHealthy}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeComponent{name: "server"}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := r.Register(&fakeComponent{name: "server"}); err == nil {
		t.Error("expected error on duplicate registration")
	}
}

func TestRegistry_StartStopOrder(t *testing.T) {
	var order []string
	r := NewRegistry()
	a := &fakeComponent{name: "a", order: &order}
	b := &fakeComponent{name: "b", order: &order}
	_ = r.Register(a)
	_ = r.Register(b)

	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(order) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(order), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestRegistry_StartAll_FailureStopsStartup(t *testing.T) {
	r := NewRegistry()
	a := &fakeComponent{name: "a"}
	bad := &fakeComponent{name: "bad", failOn: "start"}
	c := &fakeComponent{name: "c"}
	_ = r.Register(a)
	_ = r.Register(bad)
	_ = r.Register(c)

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected StartAll to fail")
	}
	if !a.started {
		t.Error("component before failure should be started")
	}
	if c.started {
		t.Error("component after failure should not be started")
	}
}

func TestRegistry_HealthAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "server"})
	_ = r.Register(&fakeComponent{name: "sweeper"})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 health results, got %d", len(results))
	}
	for _, h := range results {
		if h.Status != StatusHealthy {
			t.Errorf("expected healthy, got %s for %s", h.Status, h.Name)
		}
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	c := &fakeComponent{name: "sweeper"}
	_ = r.Register(c)

	if got := r.Get("sweeper"); got != c {
		t.Error("expected Get to return the registered component")
	}
	if got := r.Get("missing"); got != nil {
		t.Error("expected nil for unknown component")
	}
}
