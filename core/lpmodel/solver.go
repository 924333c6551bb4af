package lpmodel

import (
	"context"
	"time"
)

// Status is the outcome reported by a solver.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusTimeLimit
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusTimeLimit:
		return "TimeLimit"
	}
	return "Error"
}

// Options carries caller-side solver settings. TimeLimit zero means no limit.
type Options struct {
	TimeLimit time.Duration
	Tol       float64
}

// Result is the solver's answer: a status, the objective value and the value
// of every model column. Cols is only populated on StatusOptimal.
type Result struct {
	Status    Status
	Objective float64
	Cols      []float64
}

// Solver solves an assembled model. Implementations must treat the model as
// read-only and must not retain it after Solve returns.
type Solver interface {
	Solve(ctx context.Context, m *Model, opts Options) (Result, error)
}
