package casestudy

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/metrics"
	"github.com/karimcy/SEMDR/core/scenario"
	"github.com/karimcy/SEMDR/internal/eventbus"
)

// OptimizeOptions configures a batch run over all scenarios of the study.
type OptimizeOptions struct {
	Solver     lpmodel.Solver
	SolverOpts lpmodel.Options

	// Parallel solves scenarios concurrently on Workers goroutines. Each
	// task works on an isolated snapshot, so solver calls never share model
	// state.
	Parallel bool
	// Workers caps concurrency, default NumCPU.
	Workers int

	Metrics metrics.Sink
	Bus     *eventbus.Bus
}

type solveOutcome struct {
	id      string
	status  lpmodel.Status
	solved  *scenario.Scenario
	err     error
	seconds float64
}

// Optimize solves every scenario of the study in insertion order. A scenario
// finishing non-optimal is recorded and the run continues; a hard solver or
// build error aborts the batch. The returned error aggregates all failures.
func (cs *CaseStudy) Optimize(ctx context.Context, opts OptimizeOptions) error {
	if !cs.Valid() {
		return ErrNoScenarios
	}
	if opts.Solver == nil {
		return fmt.Errorf("casestudy %s: no solver given", cs.Name)
	}
	sink := metrics.OrNop(opts.Metrics)

	start := time.Now()
	var outcomes []solveOutcome
	var err error
	if opts.Parallel && len(cs.scenOrder) > 1 {
		outcomes, err = cs.optimizeParallel(ctx, opts)
	} else {
		outcomes, err = cs.optimizeSequential(ctx, opts)
	}
	if err != nil {
		return err
	}

	var failed []string
	var totalSeconds float64
	for _, out := range outcomes {
		totalSeconds += out.seconds
		sink.RecordSolve(metrics.SolveEvent{
			Study:     cs.Name,
			Scenario:  out.id,
			Status:    out.status.String(),
			Objective: cs.scens[out.id].Res().Get("C_TOT_"),
			Seconds:   out.seconds,
			Timestamp: time.Now(),
		})
		if out.status != lpmodel.StatusOptimal {
			failed = append(failed, fmt.Sprintf("%s (%s)", out.id, out.status))
		}
	}
	cs.publish(opts.Bus, eventbus.Event{Kind: "study_done", Study: cs.Name, Seconds: time.Since(start).Seconds()})

	if len(failed) > 0 {
		return fmt.Errorf("casestudy %s: %d of %d scenarios did not solve to optimality: %v",
			cs.Name, len(failed), len(outcomes), failed)
	}
	cs.log.Infof("all %d scenarios solved, %.2fs average solve time",
		len(outcomes), totalSeconds/float64(len(outcomes)))
	return nil
}

func (cs *CaseStudy) optimizeSequential(ctx context.Context, opts OptimizeOptions) ([]solveOutcome, error) {
	outcomes := make([]solveOutcome, 0, len(cs.scenOrder))
	for _, id := range cs.scenOrder {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("casestudy %s: %w", cs.Name, err)
		}
		sc := cs.scens[id]
		status, err := sc.Solve(ctx, opts.Solver, opts.SolverOpts)
		if err != nil {
			cs.publish(opts.Bus, eventbus.Event{Kind: "scenario_failed", Study: cs.Name, Scenario: id, Err: err})
			return nil, err
		}
		cs.publish(opts.Bus, eventbus.Event{
			Kind: "scenario_solved", Study: cs.Name, Scenario: id,
			Status: status.String(), Seconds: sc.SolveSeconds,
		})
		outcomes = append(outcomes, solveOutcome{id: id, status: status, seconds: sc.SolveSeconds})
	}
	return outcomes, nil
}

// optimizeParallel runs one task per scenario on a bounded worker pool. Each
// task snapshots the scenario, rebuilds the model inside the task and solves
// it; solved snapshots replace the originals afterwards, matched by id, so
// the study is never observed half-updated.
func (cs *CaseStudy) optimizeParallel(ctx context.Context, opts OptimizeOptions) ([]solveOutcome, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(cs.scenOrder) {
		workers = len(cs.scenOrder)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	results := make(chan solveOutcome, len(cs.scenOrder))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				results <- cs.solveSnapshot(ctx, opts, id)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range cs.scenOrder {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	byID := make(map[string]solveOutcome, len(cs.scenOrder))
	var firstErr error
	for out := range results {
		if out.err != nil {
			if firstErr == nil {
				firstErr = out.err
				cancel()
			}
			cs.publish(opts.Bus, eventbus.Event{Kind: "scenario_failed", Study: cs.Name, Scenario: out.id, Err: out.err})
			continue
		}
		byID[out.id] = out
		cs.publish(opts.Bus, eventbus.Event{
			Kind: "scenario_solved", Study: cs.Name, Scenario: out.id,
			Status: out.status.String(), Seconds: out.seconds,
		})
	}
	if firstErr != nil {
		return nil, firstErr
	}

	outcomes := make([]solveOutcome, 0, len(cs.scenOrder))
	for _, id := range cs.scenOrder {
		out, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("casestudy %s: scenario %s produced no result", cs.Name, id)
		}
		cs.scens[id] = out.solved
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (cs *CaseStudy) solveSnapshot(ctx context.Context, opts OptimizeOptions, id string) solveOutcome {
	if err := ctx.Err(); err != nil {
		return solveOutcome{id: id, err: err}
	}
	snap := cs.scens[id].Snapshot()
	status, err := snap.Solve(ctx, opts.Solver, opts.SolverOpts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			err = ctxErr
		}
		return solveOutcome{id: id, err: err}
	}
	return solveOutcome{id: id, status: status, solved: snap, seconds: snap.SolveSeconds}
}

func (cs *CaseStudy) publish(bus *eventbus.Bus, ev eventbus.Event) {
	if bus != nil {
		bus.Publish(ev)
	}
}
