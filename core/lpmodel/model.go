// Package lpmodel holds the opaque optimization model assembled by scenario
// components and the solver boundary it is handed across.
package lpmodel

import "math"

// Sense is the relational sense of a constraint.
type Sense int

const (
	LE Sense = iota // expr <= rhs
	GE              // expr >= rhs
	EQ              // expr == rhs
)

// Expr is a linear expression over model columns.
type Expr struct {
	Const float64
	Coefs map[int]float64
}

// Constant builds an expression with no variable terms.
func Constant(v float64) Expr { return Expr{Const: v} }

// Term builds an expression consisting of coef * column.
func Term(col int, coef float64) Expr {
	return Expr{Coefs: map[int]float64{col: coef}}
}

// Plus returns e + o without mutating either operand.
func (e Expr) Plus(o Expr) Expr {
	out := Expr{Const: e.Const + o.Const, Coefs: make(map[int]float64, len(e.Coefs)+len(o.Coefs))}
	for c, v := range e.Coefs {
		out.Coefs[c] += v
	}
	for c, v := range o.Coefs {
		out.Coefs[c] += v
	}
	return out
}

// Minus returns e - o.
func (e Expr) Minus(o Expr) Expr { return e.Plus(o.Scale(-1)) }

// Scale returns k * e.
func (e Expr) Scale(k float64) Expr {
	out := Expr{Const: e.Const * k, Coefs: make(map[int]float64, len(e.Coefs))}
	for c, v := range e.Coefs {
		out.Coefs[c] = v * k
	}
	return out
}

// Eval evaluates the expression at the given column-value vector.
func (e Expr) Eval(cols []float64) float64 {
	v := e.Const
	for c, coef := range e.Coefs {
		v += coef * cols[c]
	}
	return v
}

// Column is one bounded decision variable of the model.
type Column struct {
	Name string
	Lb   float64
	Ub   float64
}

// Constraint relates a linear expression to a right-hand side.
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Model accumulates columns, constraints and a linear objective. It is handed
// to a Solver as an opaque value and is never shared between scenarios.
type Model struct {
	cols      []Column
	constrs   []Constraint
	objective Expr
}

// New returns an empty model.
func New() *Model { return &Model{} }

// AddCol registers a new column with the given bounds and returns its index.
// Use math.Inf for free bounds.
func (m *Model) AddCol(name string, lb, ub float64) int {
	m.cols = append(m.cols, Column{Name: name, Lb: lb, Ub: ub})
	return len(m.cols) - 1
}

// AddConstr appends a named constraint.
func (m *Model) AddConstr(name string, e Expr, sense Sense, rhs float64) {
	m.constrs = append(m.constrs, Constraint{Name: name, Expr: e, Sense: sense, RHS: rhs})
}

// SetObjective sets the (minimized) objective expression.
func (m *Model) SetObjective(e Expr) { m.objective = e }

// NumCols returns the number of registered columns.
func (m *Model) NumCols() int { return len(m.cols) }

// NumConstrs returns the number of registered constraints.
func (m *Model) NumConstrs() int { return len(m.constrs) }

// Cols returns the registered columns.
func (m *Model) Cols() []Column { return m.cols }

// Constrs returns the registered constraints.
func (m *Model) Constrs() []Constraint { return m.constrs }

// Objective returns the objective expression.
func (m *Model) Objective() Expr { return m.objective }

// Free is an unbounded variable range.
var Free = [2]float64{math.Inf(-1), math.Inf(1)}
