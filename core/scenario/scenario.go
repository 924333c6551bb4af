// Package scenario holds one fully configured, independently solvable
// instance of the optimization model: its dimensions, parameters, decision
// variables, collectors and the assembled model handle.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/karimcy/SEMDR/core/collector"
	"github.com/karimcy/SEMDR/core/logger"
	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/resolver"
	"github.com/karimcy/SEMDR/core/timegrid"
)

// ErrInvalidDerivation indicates components were supplied for a derived
// scenario; component sets are only settable on from-scratch scenarios.
var ErrInvalidDerivation = errors.New("scenario: components can only be set on from-scratch scenarios")

// ErrUnknownEntity indicates an override referenced a name that is neither a
// declared parameter nor a declared variable.
var ErrUnknownEntity = errors.New("scenario: unknown entity")

// State is the lifecycle position of a scenario.
type State int

const (
	StateUnbuilt State = iota
	StateConfigured
	StateModeled
	StateSolved
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "Unbuilt"
	case StateConfigured:
		return "Configured"
	case StateModeled:
		return "Modeled"
	case StateSolved:
		return "Solved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Component is a named plugin contributing dimensions, parameters, variables
// and model constraints. Components are stateless across scenarios except for
// the configuration fields supplied at construction, and never read another
// component's internals directly, only named collectors.
type Component interface {
	Name() string
	// Dependencies lists components this one must be ordered after.
	Dependencies() []resolver.Dep
	DeclareDims(sc *Scenario)
	DeclareParams(sc *Scenario)
	EmitModel(sc *Scenario)
}

// Results is the projection of variable values and objective terms attached
// after a successful solve.
type Results struct {
	Objective float64              `json:"objective"`
	Values    map[string][]float64 `json:"values"`
}

// Get returns the first (scalar) value of an entity, or 0 if absent.
func (r *Results) Get(name string) float64 {
	if r == nil {
		return 0
	}
	if s := r.Values[name]; len(s) > 0 {
		return s[0]
	}
	return 0
}

// Series returns the full value series of an entity.
func (r *Results) Series(name string) []float64 {
	if r == nil {
		return nil
	}
	return r.Values[name]
}

// Scenario is one configuration of the assembled model. Its registries are
// owned exclusively by it; a case study mutates a scenario only through the
// public operations.
type Scenario struct {
	ID      string
	Name    string
	Doc     string
	BasedOn string

	ConsiderInvest bool

	grid  *timegrid.Grid
	state State

	dimOrder   []string
	dims       map[string][]string
	paramOrder []string
	params     map[string]*Param
	varOrder   []string
	vars       map[string]*VarMeta

	Collectors *collector.Registry

	comps []Component
	model *lpmodel.Model
	res   *Results

	// CollectorValues holds the realized sum of every collector after a
	// successful solve, keyed by collector name.
	CollectorValues map[string][]float64
	SolveSeconds    float64

	log logger.Logger
	err error
}

// New creates an unbuilt scenario bound to the case study's time grid.
func New(id, name, doc string, grid *timegrid.Grid, considerInvest bool, log logger.Logger) *Scenario {
	return &Scenario{
		ID:             id,
		Name:           name,
		Doc:            doc,
		ConsiderInvest: considerInvest,
		grid:           grid,
		dims:           make(map[string][]string),
		params:         make(map[string]*Param),
		vars:           make(map[string]*VarMeta),
		Collectors:     collector.NewRegistry(),
		log:            logger.OrNop(log),
	}
}

// State returns the lifecycle position.
func (sc *Scenario) State() State { return sc.state }

// Grid returns the shared, read-only time grid.
func (sc *Scenario) Grid() *timegrid.Grid { return sc.grid }

// Steps is the number of time steps in the active window.
func (sc *Scenario) Steps() int { return sc.grid.Steps() }

// Res returns the attached results, nil unless the scenario is solved.
func (sc *Scenario) Res() *Results { return sc.res }

// Components returns the ordered component list, nil for derived scenarios
// that were stripped for persistence.
func (sc *Scenario) Components() []Component { return sc.comps }

// Model returns the assembled model handle, nil unless modeled.
func (sc *Scenario) Model() *lpmodel.Model { return sc.model }

// fail records the first error raised by a declaration or model helper.
func (sc *Scenario) fail(err error) {
	if sc.err == nil {
		sc.err = err
	}
}

// Err returns the first error recorded by declaration or model helpers.
func (sc *Scenario) Err() error { return sc.err }

// Build resolves the component order and runs the two-phase setup: first
// every component's dimension phase, then the parameter phase, then the model
// phase. Dimensions go first because later components' dimensions may be
// referenced by earlier components' parameter shapes; the model phase runs in
// resolved order so a collector is populated by its producers before a
// consumer sums it.
func (sc *Scenario) Build(comps []Component) error {
	if sc.state != StateUnbuilt {
		return fmt.Errorf("scenario %s: already built (state %s)", sc.ID, sc.state)
	}
	if len(comps) == 0 {
		return fmt.Errorf("scenario %s: no components given", sc.ID)
	}
	specs := make([]resolver.Spec, len(comps))
	byName := make(map[string]Component, len(comps))
	for i, c := range comps {
		specs[i] = resolver.Spec{Name: c.Name(), After: c.Dependencies()}
		byName[c.Name()] = c
	}
	order, err := resolver.Order(specs)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", sc.ID, err)
	}
	sc.comps = make([]Component, len(order))
	for i, name := range order {
		sc.comps[i] = byName[name]
	}

	sc.declareBaseParams()
	for _, c := range sc.comps {
		c.DeclareDims(sc)
		if sc.err != nil {
			return fmt.Errorf("scenario %s: component %s dimensions: %w", sc.ID, c.Name(), sc.takeErr())
		}
	}
	for _, c := range sc.comps {
		c.DeclareParams(sc)
		if sc.err != nil {
			return fmt.Errorf("scenario %s: component %s parameters: %w", sc.ID, c.Name(), sc.takeErr())
		}
	}
	sc.state = StateConfigured
	return sc.BuildModel()
}

// declareBaseParams registers the parameters every component may rely on:
// the step width in hours and the part-year compensation factor.
func (sc *Scenario) declareBaseParams() {
	sc.Param("k__dT_", sc.grid.Freq().StepWidthHours(), "Time step width", "h")
	sc.Param("k__PartYearComp_", sc.grid.PartYearComp(), "Compensation factor for part-year windows", "")
}

// BuildModel assembles a fresh model from the declared entities and runs
// every component's model phase in resolved order. Any previous model and
// results are discarded; collector contributions are cleared first since they
// referenced the torn-down model.
func (sc *Scenario) BuildModel() error {
	if sc.state < StateConfigured {
		return fmt.Errorf("scenario %s: not configured", sc.ID)
	}
	if len(sc.comps) == 0 {
		return fmt.Errorf("scenario %s: no components attached", sc.ID)
	}
	sc.model = lpmodel.New()
	sc.res = nil
	sc.CollectorValues = nil
	for _, name := range sc.varOrder {
		sc.allocCols(sc.vars[name])
	}
	sc.Collectors.ClearAll()
	for _, c := range sc.comps {
		c.EmitModel(sc)
		if sc.err != nil {
			sc.model = nil
			return fmt.Errorf("scenario %s: component %s model: %w", sc.ID, c.Name(), sc.takeErr())
		}
	}
	sc.state = StateModeled
	return nil
}

func (sc *Scenario) takeErr() error {
	err := sc.err
	sc.err = nil
	return err
}

// Solve hands the assembled model to the solver. On an optimal status the
// result projection and realized collector values are attached; on any other
// status the scenario stays modeled and queryable for diagnosis.
func (sc *Scenario) Solve(ctx context.Context, solver lpmodel.Solver, opts lpmodel.Options) (lpmodel.Status, error) {
	if sc.state == StateConfigured {
		if err := sc.BuildModel(); err != nil {
			return lpmodel.StatusError, err
		}
	}
	if sc.state < StateModeled {
		return lpmodel.StatusError, fmt.Errorf("scenario %s: no model to solve", sc.ID)
	}

	start := time.Now()
	result, err := solver.Solve(ctx, sc.model, opts)
	sc.SolveSeconds = time.Since(start).Seconds()
	if err != nil {
		return lpmodel.StatusError, fmt.Errorf("scenario %s: solver: %w", sc.ID, err)
	}
	sc.log.Debugw("scenario solved", map[string]any{
		"scenario": sc.ID,
		"status":   result.Status.String(),
		"seconds":  sc.SolveSeconds,
	})
	if result.Status != lpmodel.StatusOptimal {
		return result.Status, nil
	}

	sc.res = &Results{Objective: result.Objective, Values: make(map[string][]float64, len(sc.vars))}
	for _, name := range sc.varOrder {
		sc.res.Values[name] = sc.projectVar(sc.vars[name], result.Cols)
	}
	sc.CollectorValues = sc.realizeCollectors(result.Cols)
	sc.state = StateSolved
	return result.Status, nil
}

// realizeCollectors evaluates every collector's sum at the solution so the
// aggregates survive after the model and its closures are dropped.
func (sc *Scenario) realizeCollectors(cols []float64) map[string][]float64 {
	out := make(map[string][]float64)
	for _, name := range sc.Collectors.Names() {
		col, err := sc.Collectors.Get(name)
		if err != nil {
			continue
		}
		vals := make([]float64, sc.Steps())
		for t := range vals {
			sum, err := sc.Collectors.Sum(name, t)
			if err == nil {
				vals[t] += sum.Eval(cols)
			}
			if col.Dim != "" {
				for _, key := range sc.dims[col.Dim] {
					dsum, err := sc.Collectors.SumDim(name, t, key)
					if err == nil {
						vals[t] += dsum.Eval(cols)
					}
				}
			}
		}
		out[name] = vals
	}
	return out
}

// Derive produces a new scenario by structural copy: dimensions, parameters,
// variable templates and declared collectors are carried over; solved state
// is not. If the base was already solved its stale collector contributions
// are cleared and the copy starts with no results or variables values, so it
// must be rebuilt and re-solved.
func Derive(base *Scenario, id, name, doc string) *Scenario {
	if base.res != nil {
		base.Collectors.ClearAll()
	}
	out := base.cloneBuildable()
	out.ID = id
	out.Name = name
	out.Doc = doc
	out.BasedOn = base.ID
	return out
}

// cloneBuildable deep-copies the buildable state of a scenario: everything
// needed to rebuild and solve the model, nothing that references a live
// model. The component list is shared since components are stateless across
// scenarios.
func (sc *Scenario) cloneBuildable() *Scenario {
	out := New(sc.ID, sc.Name, sc.Doc, sc.grid, sc.ConsiderInvest, sc.log)
	out.BasedOn = sc.BasedOn
	out.dimOrder = append([]string(nil), sc.dimOrder...)
	for k, v := range sc.dims {
		out.dims[k] = append([]string(nil), v...)
	}
	out.paramOrder = append([]string(nil), sc.paramOrder...)
	for k, p := range sc.params {
		out.params[k] = p.clone()
	}
	out.varOrder = append([]string(nil), sc.varOrder...)
	for k, v := range sc.vars {
		out.vars[k] = v.clone()
	}
	out.Collectors = sc.Collectors.StructuralCopy()
	out.comps = sc.comps
	if sc.state >= StateConfigured {
		out.state = StateConfigured
	}
	return out
}

// StripRuntime drops the component list, the collector table and the model
// handle ahead of serialization. Contribution closures and solver handles are
// not persistable; realized collector values and results are kept.
func (sc *Scenario) StripRuntime() {
	sc.comps = nil
	sc.model = nil
	sc.Collectors.DeleteAll()
	if sc.state == StateModeled {
		sc.state = StateConfigured
	}
}
