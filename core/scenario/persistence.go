package scenario

import (
	"encoding/json"
	"math"

	"github.com/karimcy/SEMDR/core/collector"
	"github.com/karimcy/SEMDR/core/logger"
	"github.com/karimcy/SEMDR/core/timegrid"
)

// varMetaJSON carries variable bounds as pointers so infinite bounds encode
// as null instead of the unencodable IEEE infinities.
type varMetaJSON struct {
	Name   string   `json:"name"`
	Doc    string   `json:"doc,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	Lb     *float64 `json:"lb"`
	Ub     *float64 `json:"ub"`
	Scalar bool     `json:"scalar,omitempty"`
	Dim    string   `json:"dim,omitempty"`
}

func boundOut(v float64) *float64 {
	if math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func boundIn(p *float64, sign int) float64 {
	if p == nil {
		return math.Inf(sign)
	}
	return *p
}

func (v *VarMeta) MarshalJSON() ([]byte, error) {
	return json.Marshal(varMetaJSON{
		Name:   v.Name,
		Doc:    v.Doc,
		Unit:   v.Unit,
		Lb:     boundOut(v.Lb),
		Ub:     boundOut(v.Ub),
		Scalar: v.Scalar,
		Dim:    v.Dim,
	})
}

func (v *VarMeta) UnmarshalJSON(data []byte) error {
	var raw varMetaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = VarMeta{
		Name:   raw.Name,
		Doc:    raw.Doc,
		Unit:   raw.Unit,
		Lb:     boundIn(raw.Lb, -1),
		Ub:     boundIn(raw.Ub, 1),
		Scalar: raw.Scalar,
		Dim:    raw.Dim,
	}
	return nil
}

type dimJSON struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// scenarioJSON is the persisted shape of a scenario. Entity slices preserve
// declaration order; the maps are rebuilt on load.
type scenarioJSON struct {
	ID              string               `json:"id"`
	Name            string               `json:"name,omitempty"`
	Doc             string               `json:"doc,omitempty"`
	BasedOn         string               `json:"basedOn,omitempty"`
	ConsiderInvest  bool                 `json:"considerInvest"`
	State           State                `json:"state"`
	Dims            []dimJSON            `json:"dims,omitempty"`
	Params          []*Param             `json:"params,omitempty"`
	Vars            []*VarMeta           `json:"vars,omitempty"`
	Res             *Results             `json:"res,omitempty"`
	CollectorValues map[string][]float64 `json:"collectorValues,omitempty"`
	SolveSeconds    float64              `json:"solveSeconds,omitempty"`
}

func (sc *Scenario) MarshalJSON() ([]byte, error) {
	out := scenarioJSON{
		ID:              sc.ID,
		Name:            sc.Name,
		Doc:             sc.Doc,
		BasedOn:         sc.BasedOn,
		ConsiderInvest:  sc.ConsiderInvest,
		State:           sc.state,
		Res:             sc.res,
		CollectorValues: sc.CollectorValues,
		SolveSeconds:    sc.SolveSeconds,
	}
	for _, name := range sc.dimOrder {
		out.Dims = append(out.Dims, dimJSON{Name: name, Members: sc.dims[name]})
	}
	for _, name := range sc.paramOrder {
		out.Params = append(out.Params, sc.params[name])
	}
	for _, name := range sc.varOrder {
		out.Vars = append(out.Vars, sc.vars[name])
	}
	return json.Marshal(out)
}

func (sc *Scenario) UnmarshalJSON(data []byte) error {
	var raw scenarioJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*sc = Scenario{
		ID:              raw.ID,
		Name:            raw.Name,
		Doc:             raw.Doc,
		BasedOn:         raw.BasedOn,
		ConsiderInvest:  raw.ConsiderInvest,
		state:           raw.State,
		dims:            make(map[string][]string, len(raw.Dims)),
		params:          make(map[string]*Param, len(raw.Params)),
		vars:            make(map[string]*VarMeta, len(raw.Vars)),
		Collectors:      collector.NewRegistry(),
		res:             raw.Res,
		CollectorValues: raw.CollectorValues,
		SolveSeconds:    raw.SolveSeconds,
		log:             logger.Nop{},
	}
	for _, d := range raw.Dims {
		sc.dimOrder = append(sc.dimOrder, d.Name)
		sc.dims[d.Name] = d.Members
	}
	for _, p := range raw.Params {
		sc.paramOrder = append(sc.paramOrder, p.Name)
		sc.params[p.Name] = p
	}
	for _, v := range raw.Vars {
		sc.varOrder = append(sc.varOrder, v.Name)
		sc.vars[v.Name] = v
	}
	return nil
}

// AttachRuntime re-binds the pieces persistence drops: the shared time grid,
// the logger and optionally the component list, making a loaded scenario
// buildable again.
func (sc *Scenario) AttachRuntime(grid *timegrid.Grid, log logger.Logger, comps []Component) {
	sc.grid = grid
	sc.log = logger.OrNop(log)
	if comps != nil {
		sc.comps = comps
	}
}
