package component_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/logger"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "start:"+m.name)
	}
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "stop:"+m.name)
	}
	return m.stopErr
}

func (m *mockComponent) Health(context.Context) component.Health { return m.health }

func newRegistry() *component.Registry {
	return component.NewRegistry(logger.Nop())
}

func TestRegisterDuplicate(t *testing.T) {
	r := newRegistry()
	if err := r.Register(&mockComponent{name: "storage"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "storage"}); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "redis"})

	if got := r.Get("redis"); got == nil || got.Name() != "redis" {
		t.Fatalf("expected registered component, got %v", got)
	}
	if r.Get("missing") != nil {
		t.Fatal("expected nil for missing component")
	}
	if len(r.All()) != 1 {
		t.Fatalf("expected 1 component, got %d", len(r.All()))
	}
}

func TestStartStopOrder(t *testing.T) {
	var events []string
	r := newRegistry()
	for _, name := range []string{"storage", "redis", "server"} {
		_ = r.Register(&mockComponent{name: name, events: &events})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := []string{"start:storage", "start:redis", "start:server", "stop:server", "stop:redis", "stop:storage"}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
}

func TestStartFailureStopsStarted(t *testing.T) {
	var events []string
	boom := errors.New("boom")
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "storage", events: &events})
	_ = r.Register(&mockComponent{name: "redis", startErr: boom, events: &events})
	_ = r.Register(&mockComponent{name: "server", events: &events})

	err := r.StartAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	want := []string{"start:storage", "start:redis", "stop:storage"}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
}

func TestStopAllCollectsErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "a", stopErr: errA})
	_ = r.Register(&mockComponent{name: "b", stopErr: errB})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both stop errors, got %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("second StopAll must be a no-op, got %v", err)
	}
}

func TestHealthAllAndOverall(t *testing.T) {
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "a", health: component.Health{Name: "a", Status: component.StatusHealthy}})
	_ = r.Register(&mockComponent{name: "b", health: component.Health{Name: "b", Status: component.StatusDegraded}})

	health := r.HealthAll(context.Background())
	if len(health) != 2 || health[1].Name != "b" {
		t.Fatalf("unexpected health %+v", health)
	}
	if got := component.Overall(health); got != component.StatusDegraded {
		t.Fatalf("expected degraded, got %s", got)
	}

	health = append(health, component.Health{Name: "c", Status: component.StatusUnhealthy})
	if got := component.Overall(health); got != component.StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", got)
	}
	if got := component.Overall(nil); got != component.StatusHealthy {
		t.Fatalf("expected healthy for no components, got %s", got)
	}
}

func TestStartAllSkipsStarted(t *testing.T) {
	var events []string
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "storage", events: &events})
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	_ = r.Register(&mockComponent{name: "server", events: &events})
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("second StartAll failed: %v", err)
	}

	want := []string{"start:storage", "start:server"}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
}
