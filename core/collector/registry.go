// Package collector implements per-scenario named aggregation points. A
// collector sums contributions from independent components so that balance
// equations can be expressed without components knowing about each other.
package collector

import (
	"errors"
	"fmt"

	"github.com/karimcy/SEMDR/core/lpmodel"
)

// ErrDuplicate indicates a collector name was declared twice.
var ErrDuplicate = errors.New("collector: already declared")

// ErrUnknown indicates a reference to an undeclared collector.
var ErrUnknown = errors.New("collector: not declared")

// Contribution yields one contributor's share at window step t.
type Contribution func(t int) lpmodel.Expr

// DimContribution yields one contributor's share at window step t for one
// member of a secondary dimension.
type DimContribution func(t int, key string) lpmodel.Expr

// Collector is a single named aggregation point. Contributor ids are unique
// within a collector; a later registration under an existing id replaces the
// earlier entry.
type Collector struct {
	Name string
	Doc  string
	Unit string
	// Dim names the secondary dimension of dimensioned collectors, "" for
	// collectors indexed by time only.
	Dim string

	contribs    map[string]Contribution
	dimContribs map[string]DimContribution
}

// Len is the number of registered contributors.
func (c *Collector) Len() int { return len(c.contribs) + len(c.dimContribs) }

// Registry is the per-scenario table of collectors, in declaration order.
type Registry struct {
	order  []string
	byName map[string]*Collector
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Collector)}
}

// Declare creates an empty aggregation point indexed by time.
func (r *Registry) Declare(name, doc, unit string) error {
	return r.declare(name, doc, unit, "")
}

// DeclareDim creates an empty aggregation point indexed by time and a
// secondary dimension.
func (r *Registry) DeclareDim(name, dim, doc, unit string) error {
	return r.declare(name, doc, unit, dim)
}

func (r *Registry) declare(name, doc, unit, dim string) error {
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.byName[name] = &Collector{
		Name:        name,
		Doc:         doc,
		Unit:        unit,
		Dim:         dim,
		contribs:    make(map[string]Contribution),
		dimContribs: make(map[string]DimContribution),
	}
	r.order = append(r.order, name)
	return nil
}

// Has reports whether name is declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the declared collector names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the named collector.
func (r *Registry) Get(name string) (*Collector, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return c, nil
}

// Contribute registers or replaces one contributor's function.
func (r *Registry) Contribute(name, contributorID string, fn Contribution) error {
	c, err := r.Get(name)
	if err != nil {
		return err
	}
	c.contribs[contributorID] = fn
	return nil
}

// ContributeDim registers or replaces one contributor's dimensioned function.
func (r *Registry) ContributeDim(name, contributorID string, fn DimContribution) error {
	c, err := r.Get(name)
	if err != nil {
		return err
	}
	c.dimContribs[contributorID] = fn
	return nil
}

// Sum evaluates and adds every registered contribution at step t.
func (r *Registry) Sum(name string, t int) (lpmodel.Expr, error) {
	c, err := r.Get(name)
	if err != nil {
		return lpmodel.Expr{}, err
	}
	sum := lpmodel.Constant(0)
	for _, fn := range c.contribs {
		sum = sum.Plus(fn(t))
	}
	return sum, nil
}

// SumDim evaluates and adds every registered dimensioned contribution at step
// t for the given dimension member.
func (r *Registry) SumDim(name string, t int, key string) (lpmodel.Expr, error) {
	c, err := r.Get(name)
	if err != nil {
		return lpmodel.Expr{}, err
	}
	sum := lpmodel.Constant(0)
	for _, fn := range c.dimContribs {
		sum = sum.Plus(fn(t, key))
	}
	return sum, nil
}

// Clear empties all contributions of one collector, keeping it declared.
// Stale contributions reference a torn-down model and cannot be reused.
func (r *Registry) Clear(name string) error {
	c, err := r.Get(name)
	if err != nil {
		return err
	}
	c.contribs = make(map[string]Contribution)
	c.dimContribs = make(map[string]DimContribution)
	return nil
}

// ClearAll empties the contributions of every declared collector.
func (r *Registry) ClearAll() {
	for _, name := range r.order {
		_ = r.Clear(name)
	}
}

// DeleteAll removes every collector. Contribution functions are closures and
// are not persistable, so this runs before a scenario is serialized.
func (r *Registry) DeleteAll() {
	r.order = nil
	r.byName = make(map[string]*Collector)
}

// StructuralCopy returns a registry with the same declared collectors and no
// contributions, for use by scenario derivation.
func (r *Registry) StructuralCopy() *Registry {
	out := NewRegistry()
	for _, name := range r.order {
		c := r.byName[name]
		_ = out.declare(c.Name, c.Doc, c.Unit, c.Dim)
	}
	return out
}
