package lpmodel

import (
	"context"
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// SimplexSolver solves assembled models with gonum's simplex implementation.
type SimplexSolver struct{}

// NewSimplexSolver returns the default in-process solver.
func NewSimplexSolver() SimplexSolver { return SimplexSolver{} }

const defaultTol = 1e-7

// simplexSolve points to the function used to run the simplex algorithm. It
// can be overridden in tests to simulate solver failures.
var simplexSolve = runSimplex

type simplexAnswer struct {
	obj  float64
	cols []float64
	err  error
}

// Solve converts the model into standard form and runs the simplex algorithm.
// A context deadline or the TimeLimit option yields StatusTimeLimit; the
// underlying solve keeps running in the background until it finishes.
func (SimplexSolver) Solve(ctx context.Context, m *Model, opts Options) (Result, error) {
	tol := opts.Tol
	if tol <= 0 {
		tol = defaultTol
	}
	done := make(chan simplexAnswer, 1)
	go func() {
		obj, cols, err := simplexSolve(m, tol)
		done <- simplexAnswer{obj: obj, cols: cols, err: err}
	}()

	var timeout <-chan time.Time
	if opts.TimeLimit > 0 {
		timer := time.NewTimer(opts.TimeLimit)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ans := <-done:
		if ans.err != nil {
			return Result{Status: statusFromErr(ans.err)}, nil
		}
		return Result{Status: StatusOptimal, Objective: ans.obj, Cols: ans.cols}, nil
	case <-ctx.Done():
		return Result{Status: StatusTimeLimit}, nil
	case <-timeout:
		return Result{Status: StatusTimeLimit}, nil
	}
}

func statusFromErr(err error) Status {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return StatusInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return StatusUnbounded
	}
	return StatusError
}

// runSimplex lowers the model to the general form min c'x s.t. Gx <= h,
// Ax == b expected by lp.Convert. Column bounds become inequality rows since
// the standard-form conversion treats every variable as free.
func runSimplex(m *Model, tol float64) (float64, []float64, error) {
	n := m.NumCols()

	c := make([]float64, n)
	for col, coef := range m.Objective().Coefs {
		c[col] = coef
	}

	var ineq, eq []genRow

	for _, ct := range m.Constrs() {
		r := genRow{coefs: ct.Expr.Coefs, rhs: ct.RHS - ct.Expr.Const}
		switch ct.Sense {
		case LE:
			ineq = append(ineq, r)
		case GE:
			ineq = append(ineq, r.negate())
		case EQ:
			eq = append(eq, r)
		}
	}
	for i, col := range m.Cols() {
		if !math.IsInf(col.Ub, 1) {
			ineq = append(ineq, genRow{coefs: map[int]float64{i: 1}, rhs: col.Ub})
		}
		if !math.IsInf(col.Lb, -1) {
			ineq = append(ineq, genRow{coefs: map[int]float64{i: -1}, rhs: -col.Lb})
		}
	}

	var g mat.Matrix
	var h []float64
	if len(ineq) > 0 {
		gd := mat.NewDense(len(ineq), n, nil)
		h = make([]float64, len(ineq))
		for i, r := range ineq {
			for col, coef := range r.coefs {
				gd.Set(i, col, coef)
			}
			h[i] = r.rhs
		}
		g = gd
	}
	var a mat.Matrix
	var b []float64
	if len(eq) > 0 {
		ad := mat.NewDense(len(eq), n, nil)
		b = make([]float64, len(eq))
		for i, r := range eq {
			for col, coef := range r.coefs {
				ad.Set(i, col, coef)
			}
			b[i] = r.rhs
		}
		a = ad
	}

	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, tol, nil)
	if err != nil {
		return 0, nil, err
	}

	// Standard form splits each free variable into a positive and a negative
	// part: x_i = sol[i] - sol[n+i].
	cols := make([]float64, n)
	obj := m.Objective().Const
	for i := range cols {
		cols[i] = sol[i] - sol[n+i]
		obj += c[i] * cols[i]
	}
	return obj, cols, nil
}

// genRow is one row of the general form Gx <= h / Ax == b.
type genRow struct {
	coefs map[int]float64
	rhs   float64
}

func (r genRow) negate() genRow {
	neg := make(map[int]float64, len(r.coefs))
	for c, v := range r.coefs {
		neg[c] = -v
	}
	return genRow{coefs: neg, rhs: -r.rhs}
}
