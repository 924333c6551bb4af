package resolver

import (
	"errors"
	"reflect"
	"testing"
)

func TestOrderKeepsDeclarationOrderWithoutEdges(t *testing.T) {
	order, err := Order([]Spec{{Name: "c"}, {Name: "a"}, {Name: "b"}})
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"c", "a", "b"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestOrderRespectsEdges(t *testing.T) {
	specs := []Spec{
		{Name: "main", After: []Dep{{Name: "grid"}, {Name: "pv"}}},
		{Name: "grid", After: []Dep{{Name: "pv"}}},
		{Name: "pv"},
	}
	order, err := Order(specs)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"pv", "grid", "main"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestOrderDeterministicTieBreak(t *testing.T) {
	specs := []Spec{
		{Name: "b"},
		{Name: "a"},
		{Name: "z", After: []Dep{{Name: "a"}, {Name: "b"}}},
	}
	for i := 0; i < 10; i++ {
		order, err := Order(specs)
		if err != nil {
			t.Fatalf("order: %v", err)
		}
		if !reflect.DeepEqual(order, []string{"b", "a", "z"}) {
			t.Fatalf("order not reproducible: %v", order)
		}
	}
}

func TestOrderOptionalDependencySkipped(t *testing.T) {
	specs := []Spec{
		{Name: "grid", After: []Dep{{Name: "pv", Optional: true}}},
		{Name: "demand"},
	}
	order, err := Order(specs)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"grid", "demand"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestOrderUnresolvedRequiredDependency(t *testing.T) {
	_, err := Order([]Spec{{Name: "grid", After: []Dep{{Name: "pv"}}}})
	if !errors.Is(err, ErrUnresolvedDependency) {
		t.Fatalf("expected ErrUnresolvedDependency, got %v", err)
	}
}

func TestOrderCycle(t *testing.T) {
	specs := []Spec{
		{Name: "a", After: []Dep{{Name: "b"}}},
		{Name: "b", After: []Dep{{Name: "a"}}},
	}
	_, err := Order(specs)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestOrderDuplicateName(t *testing.T) {
	if _, err := Order([]Spec{{Name: "a"}, {Name: "a"}}); err == nil {
		t.Fatalf("expected error for duplicate component name")
	}
}
