package casestudy

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/scenario"
)

// Norm factor parameter names used by the weighted pareto objective.
const (
	ParetoAlphaParam   = "k_PTO_alpha_"
	ParetoCostNorm     = "k_PTO_C_"
	ParetoEmissionNorm = "k_PTO_CE_"
)

// ImproveParetoNormFactors calibrates the pareto normalization factors of a
// scenario by solving two disposable copies at the extreme weights alpha=0
// and alpha=1 and scaling each factor to 1e3 over the mean magnitude of its
// objective term across both solutions. The disposable copies are never added
// to the study.
func (cs *CaseStudy) ImproveParetoNormFactors(ctx context.Context, solver lpmodel.Solver, opts lpmodel.Options, baseID string) error {
	base, ok := cs.scens[baseID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBase, baseID)
	}
	for _, p := range []string{ParetoAlphaParam, ParetoCostNorm, ParetoEmissionNorm} {
		if !base.HasParam(p) {
			return fmt.Errorf("casestudy %s: scenario %s has no %s parameter, is the pareto objective active", cs.Name, baseID, p)
		}
	}
	if len(cs.ObjVars) != 2 {
		return fmt.Errorf("casestudy %s: pareto normalization needs exactly two objective terms, have %d", cs.Name, len(cs.ObjVars))
	}

	costs := make([]float64, 0, 2)
	emissions := make([]float64, 0, 2)
	for i, alpha := range []float64{0, 1} {
		probe := scenario.Derive(base, fmt.Sprintf("pto%d", i), "pareto probe", "")
		if err := probe.UpdateParams(map[string]any{ParetoAlphaParam: alpha}); err != nil {
			return err
		}
		status, err := probe.Solve(ctx, solver, opts)
		if err != nil {
			return fmt.Errorf("casestudy %s: pareto probe alpha=%g: %w", cs.Name, alpha, err)
		}
		if status != lpmodel.StatusOptimal {
			return fmt.Errorf("casestudy %s: pareto probe alpha=%g finished %s", cs.Name, alpha, status)
		}
		costs = append(costs, math.Abs(probe.Res().Get(cs.ObjVars[0])))
		emissions = append(emissions, math.Abs(probe.Res().Get(cs.ObjVars[1])))
	}

	meanC := stat.Mean(costs, nil)
	meanCE := stat.Mean(emissions, nil)
	if meanC == 0 || meanCE == 0 {
		return fmt.Errorf("casestudy %s: degenerate objective terms, cost mean %g, emission mean %g", cs.Name, meanC, meanCE)
	}
	// Every scenario in the study shares the calibrated factors, including
	// ones derived before the calibration ran.
	factors := map[string]any{
		ParetoCostNorm:     1e3 / meanC,
		ParetoEmissionNorm: 1e3 / meanCE,
	}
	for _, sc := range cs.Scens() {
		if err := sc.UpdateParams(factors); err != nil {
			return err
		}
	}
	cs.log.Infof("pareto norm factors for %s: %s=%.6g %s=%.6g", baseID, ParetoCostNorm, 1e3/meanC, ParetoEmissionNorm, 1e3/meanCE)
	return nil
}
