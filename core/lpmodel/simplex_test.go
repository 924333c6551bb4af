package lpmodel

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestSimplexOptimal(t *testing.T) {
	// min 2x + 3y  s.t.  x + y >= 4,  x <= 3,  y <= 5
	m := New()
	x := m.AddCol("x", 0, 3)
	y := m.AddCol("y", 0, 5)
	m.AddConstr("demand", Term(x, 1).Plus(Term(y, 1)), GE, 4)
	m.SetObjective(Term(x, 2).Plus(Term(y, 3)))

	res, err := SimplexSolver{}.Solve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("status = %s", res.Status)
	}
	if math.Abs(res.Objective-9) > 1e-6 {
		t.Fatalf("objective = %v, want 9", res.Objective)
	}
	if math.Abs(res.Cols[x]-3) > 1e-6 || math.Abs(res.Cols[y]-1) > 1e-6 {
		t.Fatalf("solution = %v, want [3 1]", res.Cols)
	}
}

func TestSimplexObjectiveConstant(t *testing.T) {
	m := New()
	x := m.AddCol("x", 1, 10)
	m.SetObjective(Term(x, 1).Plus(Constant(100)))

	res, err := SimplexSolver{}.Solve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("status = %s", res.Status)
	}
	if math.Abs(res.Objective-101) > 1e-6 {
		t.Fatalf("objective = %v, want 101", res.Objective)
	}
}

func TestSimplexEqualityAndFreeVariable(t *testing.T) {
	// min x  s.t.  x - y == 2,  y >= 1, y <= 1  => x == 3
	m := New()
	x := m.AddCol("x", math.Inf(-1), math.Inf(1))
	y := m.AddCol("y", 1, 1)
	m.AddConstr("link", Term(x, 1).Minus(Term(y, 1)), EQ, 2)
	m.SetObjective(Term(x, 1))

	res, err := SimplexSolver{}.Solve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("status = %s", res.Status)
	}
	if math.Abs(res.Cols[x]-3) > 1e-6 {
		t.Fatalf("x = %v, want 3", res.Cols[x])
	}
}

func TestSimplexInfeasible(t *testing.T) {
	m := New()
	x := m.AddCol("x", 0, 1)
	m.AddConstr("impossible", Term(x, 1), GE, 5)
	m.SetObjective(Term(x, 1))

	res, err := SimplexSolver{}.Solve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusInfeasible {
		t.Fatalf("status = %s, want Infeasible", res.Status)
	}
}

func TestSimplexUnbounded(t *testing.T) {
	m := New()
	x := m.AddCol("x", math.Inf(-1), 5)
	m.SetObjective(Term(x, 1))

	res, err := SimplexSolver{}.Solve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusUnbounded {
		t.Fatalf("status = %s, want Unbounded", res.Status)
	}
}

func TestSimplexTimeLimit(t *testing.T) {
	orig := simplexSolve
	simplexSolve = func(m *Model, tol float64) (float64, []float64, error) {
		time.Sleep(200 * time.Millisecond)
		return orig(m, tol)
	}
	defer func() { simplexSolve = orig }()

	m := New()
	x := m.AddCol("x", 0, 1)
	m.SetObjective(Term(x, 1))

	res, err := SimplexSolver{}.Solve(context.Background(), m, Options{TimeLimit: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusTimeLimit {
		t.Fatalf("status = %s, want TimeLimit", res.Status)
	}
}

func TestSimplexContextCancel(t *testing.T) {
	orig := simplexSolve
	simplexSolve = func(m *Model, tol float64) (float64, []float64, error) {
		time.Sleep(200 * time.Millisecond)
		return orig(m, tol)
	}
	defer func() { simplexSolve = orig }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := New()
	m.AddCol("x", 0, 1)
	m.SetObjective(Expr{})

	res, err := SimplexSolver{}.Solve(ctx, m, Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusTimeLimit {
		t.Fatalf("status = %s, want TimeLimit", res.Status)
	}
}
