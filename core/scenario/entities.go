package scenario

import (
	"fmt"
	"math"

	"github.com/karimcy/SEMDR/core/collector"
	"github.com/karimcy/SEMDR/core/lpmodel"
)

// Param is a named input value: a scalar, a time series over the active
// window, or a dimension-keyed table of time series.
type Param struct {
	Name   string               `json:"name"`
	Doc    string               `json:"doc,omitempty"`
	Unit   string               `json:"unit,omitempty"`
	Value  float64              `json:"value"`
	Series []float64            `json:"series,omitempty"`
	Table  map[string][]float64 `json:"table,omitempty"`
}

func (p *Param) clone() *Param {
	out := *p
	out.Series = append([]float64(nil), p.Series...)
	if p.Table != nil {
		out.Table = make(map[string][]float64, len(p.Table))
		for k, v := range p.Table {
			out.Table[k] = append([]float64(nil), v...)
		}
	}
	return &out
}

// VarMeta is the template of a decision variable: bounds and shape. Model
// columns are allocated from it at every model build, so sweep overrides that
// fix bounds take effect on the next build.
type VarMeta struct {
	Name   string  `json:"name"`
	Doc    string  `json:"doc,omitempty"`
	Unit   string  `json:"unit,omitempty"`
	Lb     float64 `json:"-"`
	Ub     float64 `json:"-"`
	Scalar bool    `json:"scalar,omitempty"`
	// Dim names the secondary dimension, "" for scalar or time-only shapes.
	Dim string `json:"dim,omitempty"`

	cols []int
}

func (v *VarMeta) clone() *VarMeta {
	out := *v
	out.cols = nil
	return &out
}

// allocCols registers model columns for one variable template. Dimensioned
// variables are laid out t-major.
func (sc *Scenario) allocCols(v *VarMeta) {
	switch {
	case v.Scalar:
		v.cols = []int{sc.model.AddCol(v.Name, v.Lb, v.Ub)}
	case v.Dim != "":
		members := sc.dims[v.Dim]
		v.cols = make([]int, sc.Steps()*len(members))
		for i := range v.cols {
			v.cols[i] = sc.model.AddCol(v.Name, v.Lb, v.Ub)
		}
	default:
		v.cols = make([]int, sc.Steps())
		for i := range v.cols {
			v.cols[i] = sc.model.AddCol(v.Name, v.Lb, v.Ub)
		}
	}
}

// Declaration helpers record the first failure on the scenario instead of
// returning errors, so component code stays declarative; Build surfaces the
// recorded error after each phase.

// Dim declares a dimension with its ordered members.
func (sc *Scenario) Dim(name string, members []string, doc string) {
	if _, ok := sc.dims[name]; ok {
		sc.fail(fmt.Errorf("dimension %s declared twice", name))
		return
	}
	sc.dims[name] = append([]string(nil), members...)
	sc.dimOrder = append(sc.dimOrder, name)
}

// DimMembers returns the ordered members of a dimension.
func (sc *Scenario) DimMembers(name string) []string {
	members, ok := sc.dims[name]
	if !ok {
		sc.fail(fmt.Errorf("dimension %s not declared", name))
	}
	return members
}

// HasDim reports whether a dimension was declared by any component.
func (sc *Scenario) HasDim(name string) bool {
	_, ok := sc.dims[name]
	return ok
}

func (sc *Scenario) declareParam(p *Param) {
	if _, ok := sc.params[p.Name]; ok {
		sc.fail(fmt.Errorf("parameter %s declared twice", p.Name))
		return
	}
	sc.params[p.Name] = p
	sc.paramOrder = append(sc.paramOrder, p.Name)
}

// Param declares a scalar parameter.
func (sc *Scenario) Param(name string, value float64, doc, unit string) {
	sc.declareParam(&Param{Name: name, Doc: doc, Unit: unit, Value: value})
}

// ParamSeries declares a time-series parameter over the active window.
func (sc *Scenario) ParamSeries(name string, series []float64, doc, unit string) {
	if len(series) != sc.Steps() {
		sc.fail(fmt.Errorf("parameter %s: series length %d != window steps %d", name, len(series), sc.Steps()))
		return
	}
	sc.declareParam(&Param{Name: name, Doc: doc, Unit: unit, Series: append([]float64(nil), series...)})
}

// ParamTable declares a dimension-keyed table of time series.
func (sc *Scenario) ParamTable(name, dim string, table map[string][]float64, doc, unit string) {
	members, ok := sc.dims[dim]
	if !ok {
		sc.fail(fmt.Errorf("parameter %s: dimension %s not declared", name, dim))
		return
	}
	copied := make(map[string][]float64, len(members))
	for _, key := range members {
		series := table[key]
		if series == nil {
			series = make([]float64, sc.Steps())
		}
		if len(series) != sc.Steps() {
			sc.fail(fmt.Errorf("parameter %s[%s]: series length %d != window steps %d", name, key, len(series), sc.Steps()))
			return
		}
		copied[key] = append([]float64(nil), series...)
	}
	sc.declareParam(&Param{Name: name, Doc: doc, Unit: unit, Table: copied})
}

func (sc *Scenario) declareVar(v *VarMeta) {
	if _, ok := sc.vars[v.Name]; ok {
		sc.fail(fmt.Errorf("variable %s declared twice", v.Name))
		return
	}
	sc.vars[v.Name] = v
	sc.varOrder = append(sc.varOrder, v.Name)
}

// Var declares a non-negative time-indexed variable.
func (sc *Scenario) Var(name, doc, unit string) {
	sc.VarBounded(name, doc, unit, 0, math.Inf(1))
}

// VarBounded declares a time-indexed variable with explicit bounds.
func (sc *Scenario) VarBounded(name, doc, unit string, lb, ub float64) {
	sc.declareVar(&VarMeta{Name: name, Doc: doc, Unit: unit, Lb: lb, Ub: ub})
}

// ScalarVar declares a free scalar variable.
func (sc *Scenario) ScalarVar(name, doc, unit string) {
	sc.ScalarVarBounded(name, doc, unit, math.Inf(-1), math.Inf(1))
}

// ScalarVarBounded declares a scalar variable with explicit bounds.
func (sc *Scenario) ScalarVarBounded(name, doc, unit string, lb, ub float64) {
	sc.declareVar(&VarMeta{Name: name, Doc: doc, Unit: unit, Lb: lb, Ub: ub, Scalar: true})
}

// DimVar declares a non-negative variable indexed by time and a dimension.
func (sc *Scenario) DimVar(name, dim, doc, unit string) {
	if _, ok := sc.dims[dim]; !ok {
		sc.fail(fmt.Errorf("variable %s: dimension %s not declared", name, dim))
		return
	}
	sc.declareVar(&VarMeta{Name: name, Doc: doc, Unit: unit, Lb: 0, Ub: math.Inf(1), Dim: dim})
}

// Collector declares a time-indexed aggregation point.
func (sc *Scenario) Collector(name, doc, unit string) {
	if err := sc.Collectors.Declare(name, doc, unit); err != nil {
		sc.fail(err)
	}
}

// CollectorDim declares a dimensioned aggregation point.
func (sc *Scenario) CollectorDim(name, dim, doc, unit string) {
	if _, ok := sc.dims[dim]; !ok {
		sc.fail(fmt.Errorf("collector %s: dimension %s not declared", name, dim))
		return
	}
	if err := sc.Collectors.DeclareDim(name, dim, doc, unit); err != nil {
		sc.fail(err)
	}
}

// HasParam reports whether name is a declared parameter.
func (sc *Scenario) HasParam(name string) bool {
	_, ok := sc.params[name]
	return ok
}

// HasVar reports whether name is a declared variable.
func (sc *Scenario) HasVar(name string) bool {
	_, ok := sc.vars[name]
	return ok
}

// P returns the scalar value of a parameter.
func (sc *Scenario) P(name string) float64 {
	p, ok := sc.params[name]
	if !ok {
		sc.fail(fmt.Errorf("parameter %s not declared", name))
		return 0
	}
	return p.Value
}

// PAt returns a parameter value at window step t. Scalar parameters return
// their value for every t.
func (sc *Scenario) PAt(name string, t int) float64 {
	p, ok := sc.params[name]
	if !ok {
		sc.fail(fmt.Errorf("parameter %s not declared", name))
		return 0
	}
	if p.Series == nil {
		return p.Value
	}
	return p.Series[t]
}

// PDim returns a table parameter value at step t for one dimension member.
func (sc *Scenario) PDim(name string, t int, key string) float64 {
	p, ok := sc.params[name]
	if !ok || p.Table == nil {
		sc.fail(fmt.Errorf("table parameter %s not declared", name))
		return 0
	}
	series, ok := p.Table[key]
	if !ok {
		sc.fail(fmt.Errorf("table parameter %s: unknown key %s", name, key))
		return 0
	}
	return series[t]
}

// V returns the model expression for a variable at window step t. Scalar
// variables ignore t.
func (sc *Scenario) V(name string, t int) lpmodel.Expr {
	v, ok := sc.vars[name]
	if !ok || v.cols == nil {
		sc.fail(fmt.Errorf("variable %s not declared or not materialized", name))
		return lpmodel.Expr{}
	}
	if v.Scalar {
		return lpmodel.Term(v.cols[0], 1)
	}
	return lpmodel.Term(v.cols[t], 1)
}

// VDim returns the model expression for a dimensioned variable at step t and
// dimension member key.
func (sc *Scenario) VDim(name string, t int, key string) lpmodel.Expr {
	v, ok := sc.vars[name]
	if !ok || v.Dim == "" || v.cols == nil {
		sc.fail(fmt.Errorf("dimensioned variable %s not declared or not materialized", name))
		return lpmodel.Expr{}
	}
	members := sc.dims[v.Dim]
	for k, member := range members {
		if member == key {
			return lpmodel.Term(v.cols[t*len(members)+k], 1)
		}
	}
	sc.fail(fmt.Errorf("variable %s: unknown dimension member %s", name, key))
	return lpmodel.Expr{}
}

// projectVar extracts the solved series of one variable from the column
// values.
func (sc *Scenario) projectVar(v *VarMeta, cols []float64) []float64 {
	out := make([]float64, len(v.cols))
	for i, c := range v.cols {
		out[i] = cols[c]
	}
	return out
}

// AddConstr appends a named constraint to the assembled model.
func (sc *Scenario) AddConstr(name string, e lpmodel.Expr, sense lpmodel.Sense, rhs float64) {
	sc.model.AddConstr(name, e, sense, rhs)
}

// SetObjective sets the minimized objective.
func (sc *Scenario) SetObjective(e lpmodel.Expr) { sc.model.SetObjective(e) }

// Contribute registers a component's contribution to a collector.
func (sc *Scenario) Contribute(collectorName, componentID string, fn collector.Contribution) {
	if err := sc.Collectors.Contribute(collectorName, componentID, fn); err != nil {
		sc.fail(err)
	}
}

// ContributeDim registers a component's dimensioned contribution.
func (sc *Scenario) ContributeDim(collectorName, componentID string, fn collector.DimContribution) {
	if err := sc.Collectors.ContributeDim(collectorName, componentID, fn); err != nil {
		sc.fail(err)
	}
}

// CollectorSum returns the sum expression over all contributions at step t.
func (sc *Scenario) CollectorSum(name string, t int) lpmodel.Expr {
	e, err := sc.Collectors.Sum(name, t)
	if err != nil {
		sc.fail(err)
	}
	return e
}

// CollectorSumDim returns the dimensioned sum expression at step t.
func (sc *Scenario) CollectorSumDim(name string, t int, key string) lpmodel.Expr {
	e, err := sc.Collectors.SumDim(name, t, key)
	if err != nil {
		sc.fail(err)
	}
	return e
}

// UpdateParams applies overrides by entity name: a declared variable has its
// lower and upper bound fixed to the value (turning it into a constant for
// sweep purposes), a declared parameter is overwritten. A modeled scenario is
// demoted to configured so the next solve rebuilds the model.
func (sc *Scenario) UpdateParams(overrides map[string]any) error {
	for name, raw := range overrides {
		switch {
		case sc.HasVar(name):
			v, err := toFloat(raw)
			if err != nil {
				return fmt.Errorf("override %s: %w", name, err)
			}
			meta := sc.vars[name]
			meta.Lb, meta.Ub = v, v
		case sc.HasParam(name):
			p := sc.params[name]
			switch val := raw.(type) {
			case []float64:
				if len(val) != sc.Steps() {
					return fmt.Errorf("override %s: series length %d != window steps %d", name, len(val), sc.Steps())
				}
				p.Series = append([]float64(nil), val...)
			default:
				v, err := toFloat(raw)
				if err != nil {
					return fmt.Errorf("override %s: %w", name, err)
				}
				if p.Series != nil {
					for i := range p.Series {
						p.Series[i] = v
					}
				} else {
					p.Value = v
				}
			}
		default:
			return fmt.Errorf("%w: %s is neither a declared parameter nor a variable", ErrUnknownEntity, name)
		}
	}
	if sc.state >= StateModeled {
		sc.model = nil
		sc.res = nil
		sc.CollectorValues = nil
		sc.state = StateConfigured
	}
	return nil
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("unsupported override value type %T", raw)
}

// Snapshot returns a deep copy of the buildable state for use by parallel
// solve tasks. The copy shares no mutable structures with the original.
func (sc *Scenario) Snapshot() *Scenario { return sc.cloneBuildable() }
