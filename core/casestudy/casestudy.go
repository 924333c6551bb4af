// Package casestudy manages a family of scenarios sharing one time grid:
// creation, derivation, parameter sweeps, pareto normalization, batch
// optimization and persistence.
package casestudy

import (
	"errors"
	"fmt"

	"github.com/karimcy/SEMDR/core/logger"
	"github.com/karimcy/SEMDR/core/scenario"
	"github.com/karimcy/SEMDR/core/timegrid"
)

var (
	// ErrDuplicateID indicates a scenario id is already taken in this study.
	ErrDuplicateID = errors.New("casestudy: duplicate scenario id")
	// ErrUnknownBase indicates a derivation referenced a scenario id that
	// does not exist in this study.
	ErrUnknownBase = errors.New("casestudy: unknown base scenario")
	// ErrNoScenarios indicates an operation needs at least one scenario.
	ErrNoScenarios = errors.New("casestudy: no scenarios")
)

// RefScenID is the conventional id of the reference scenario.
const RefScenID = "REF"

// CaseStudy is the top-level handle: a named collection of scenarios over a
// shared year and frequency.
type CaseStudy struct {
	Name string
	Doc  string

	// ConsiderInvest enables investment decision variables in components
	// that support them.
	ConsiderInvest bool

	// ObjVars names the objective terms used for pareto normalization and
	// reporting, total cost first.
	ObjVars []string

	grid      *timegrid.Grid
	scenOrder []string
	scens     map[string]*scenario.Scenario

	// sweep records, per swept scenario id, the overrides that produced it.
	sweep map[string]map[string]float64

	log logger.Logger
}

// New creates an empty case study over a full-year grid.
func New(name, doc string, year int, freq timegrid.Freq, considerInvest bool, log logger.Logger) (*CaseStudy, error) {
	grid, err := timegrid.New(year, freq, log)
	if err != nil {
		return nil, fmt.Errorf("casestudy %s: %w", name, err)
	}
	return &CaseStudy{
		Name:           name,
		Doc:            doc,
		ConsiderInvest: considerInvest,
		ObjVars:        []string{"C_TOT_", "CE_TOT_"},
		grid:           grid,
		scens:          make(map[string]*scenario.Scenario),
		sweep:          make(map[string]map[string]float64),
		log:            logger.OrNop(log),
	}, nil
}

// Grid returns the shared time grid. Narrow the window before adding
// scenarios; scenarios added afterwards would disagree on series lengths.
func (cs *CaseStudy) Grid() *timegrid.Grid { return cs.grid }

// Scen returns a scenario by id, nil if absent.
func (cs *CaseStudy) Scen(id string) *scenario.Scenario { return cs.scens[id] }

// Scens returns all scenarios in insertion order.
func (cs *CaseStudy) Scens() []*scenario.Scenario {
	out := make([]*scenario.Scenario, len(cs.scenOrder))
	for i, id := range cs.scenOrder {
		out[i] = cs.scens[id]
	}
	return out
}

// ScenIDs returns the scenario ids in insertion order.
func (cs *CaseStudy) ScenIDs() []string { return append([]string(nil), cs.scenOrder...) }

// Valid reports whether the study holds any scenarios.
func (cs *CaseStudy) Valid() bool { return len(cs.scenOrder) > 0 }

// AddRefScen adds the reference scenario from a component set.
func (cs *CaseStudy) AddRefScen(comps []scenario.Component) (*scenario.Scenario, error) {
	return cs.AddScen(RefScenID, "Reference scenario", "", "", comps)
}

// AddScen adds a scenario. With basedOn empty the scenario is built from
// scratch out of the component set; with basedOn set it is derived by
// structural copy from an existing scenario and comps must be nil. An empty
// id yields a positional id.
func (cs *CaseStudy) AddScen(id, name, doc, basedOn string, comps []scenario.Component) (*scenario.Scenario, error) {
	if id == "" {
		id = cs.positionalID()
	}
	if _, taken := cs.scens[id]; taken {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	var sc *scenario.Scenario
	if basedOn != "" {
		if comps != nil {
			return nil, fmt.Errorf("scenario %s: %w", id, scenario.ErrInvalidDerivation)
		}
		base, ok := cs.scens[basedOn]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBase, basedOn)
		}
		sc = scenario.Derive(base, id, name, doc)
	} else {
		sc = scenario.New(id, name, doc, cs.grid, cs.ConsiderInvest, cs.log)
		if err := sc.Build(comps); err != nil {
			return nil, err
		}
	}

	cs.scens[id] = sc
	cs.scenOrder = append(cs.scenOrder, id)
	cs.log.Debugf("scenario %s added (%d total)", id, len(cs.scenOrder))
	return sc, nil
}

// RemoveScen drops a scenario from the study.
func (cs *CaseStudy) RemoveScen(id string) {
	if _, ok := cs.scens[id]; !ok {
		return
	}
	delete(cs.scens, id)
	delete(cs.sweep, id)
	for i, s := range cs.scenOrder {
		if s == id {
			cs.scenOrder = append(cs.scenOrder[:i], cs.scenOrder[i+1:]...)
			break
		}
	}
}

// SweepOverrides returns the override table of a swept scenario, nil for
// scenarios not created by AddScens.
func (cs *CaseStudy) SweepOverrides(id string) map[string]float64 { return cs.sweep[id] }

func (cs *CaseStudy) positionalID() string {
	for n := len(cs.scenOrder); ; n++ {
		id := fmt.Sprintf("sc%d", n)
		if _, taken := cs.scens[id]; !taken {
			return id
		}
	}
}
