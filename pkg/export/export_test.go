package export

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/karimcy/SEMDR/core/casestudy"
	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/resolver"
	"github.com/karimcy/SEMDR/core/scenario"
	"github.com/karimcy/SEMDR/core/timegrid"
)

// tracker covers a fixed demand and books cost and emission totals.
type tracker struct{}

func (tracker) Name() string                 { return "tracker" }
func (tracker) Dependencies() []resolver.Dep { return nil }

func (tracker) DeclareDims(sc *scenario.Scenario) {}

func (tracker) DeclareParams(sc *scenario.Scenario) {
	sc.Param("p_dem_", 2, "Demand level", "kW")
	sc.Var("x_T", "Supply", "kW")
	sc.ScalarVar("C_TOT_", "Total costs", "EUR")
	sc.ScalarVar("CE_TOT_", "Total emissions", "kg")
}

func (tracker) EmitModel(sc *scenario.Scenario) {
	cost := lpmodel.Expr{}
	emis := lpmodel.Expr{}
	for t := 0; t < sc.Steps(); t++ {
		sc.AddConstr("cover", sc.V("x_T", t), lpmodel.GE, sc.P("p_dem_"))
		cost = cost.Plus(sc.V("x_T", t))
		emis = emis.Plus(sc.V("x_T", t).Scale(0.5))
	}
	sc.AddConstr("total_costs", sc.V("C_TOT_", 0).Minus(cost), lpmodel.EQ, 0)
	sc.AddConstr("total_emissions", sc.V("CE_TOT_", 0).Minus(emis), lpmodel.EQ, 0)
	sc.SetObjective(sc.V("C_TOT_", 0))
}

func solvedStudy(t *testing.T) *casestudy.CaseStudy {
	t.Helper()
	cs, err := casestudy.New("toy", "", 2023, timegrid.Freq60, false, nil)
	if err != nil {
		t.Fatalf("new study: %v", err)
	}
	if err := cs.Grid().SetWindowSteps(timegrid.At(0), 2); err != nil {
		t.Fatalf("window: %v", err)
	}
	if _, err := cs.AddRefScen([]scenario.Component{tracker{}}); err != nil {
		t.Fatalf("ref scenario: %v", err)
	}
	axes := []casestudy.SweepVar{{Name: "p_dem_", Short: "d", Values: []float64{2, 4}}}
	if err := cs.AddScens(casestudy.RefScenID, axes, 0, false); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if err := cs.Optimize(context.Background(), casestudy.OptimizeOptions{Solver: lpmodel.SimplexSolver{}}); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	return cs
}

func TestParetoFront(t *testing.T) {
	cs := solvedStudy(t)
	front := ParetoFront(cs)
	if len(front) != 3 {
		t.Fatalf("front size = %d", len(front))
	}
	if front[0].Scenario != casestudy.RefScenID || math.Abs(front[0].Objective-4) > 1e-6 {
		t.Fatalf("REF point = %+v", front[0])
	}
	if math.Abs(front[0].Terms["C_TOT_"]-4) > 1e-6 || math.Abs(front[0].Terms["CE_TOT_"]-2) > 1e-6 {
		t.Fatalf("REF terms = %v", front[0].Terms)
	}
	if front[2].Scenario != "d4" || front[2].Overrides["p_dem_"] != 4 {
		t.Fatalf("swept point = %+v", front[2])
	}
}

func TestParetoFrontSkipsUnsolved(t *testing.T) {
	cs, err := casestudy.New("toy", "", 2023, timegrid.Freq60, false, nil)
	if err != nil {
		t.Fatalf("new study: %v", err)
	}
	if err := cs.Grid().SetWindowSteps(timegrid.At(0), 2); err != nil {
		t.Fatalf("window: %v", err)
	}
	if _, err := cs.AddRefScen([]scenario.Component{tracker{}}); err != nil {
		t.Fatalf("ref scenario: %v", err)
	}
	if front := ParetoFront(cs); front != nil {
		t.Fatalf("front of unsolved study = %v", front)
	}
}

func TestWriteParetoCSV(t *testing.T) {
	cs := solvedStudy(t)
	var buf bytes.Buffer
	if err := WriteParetoCSV(&buf, cs); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("csv lines = %v", lines)
	}
	if lines[0] != "scenario,objective,C_TOT_,CE_TOT_" {
		t.Fatalf("header = %s", lines[0])
	}
	fields := strings.Split(lines[1], ",")
	if len(fields) != 4 || fields[0] != "REF" {
		t.Fatalf("REF row = %s", lines[1])
	}
	obj, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.Abs(obj-4) > 1e-6 {
		t.Fatalf("REF objective field = %s", fields[1])
	}
}

func TestWriteParetoJSON(t *testing.T) {
	cs := solvedStudy(t)
	var buf bytes.Buffer
	if err := WriteParetoJSON(&buf, cs); err != nil {
		t.Fatalf("write: %v", err)
	}
	var points []ParetoPoint
	if err := json.Unmarshal(buf.Bytes(), &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(points) != 3 || points[1].Scenario != "d2" {
		t.Fatalf("points = %+v", points)
	}
}

func TestWriteSweepCSV(t *testing.T) {
	cs := solvedStudy(t)
	var buf bytes.Buffer
	if err := WriteSweepCSV(&buf, cs); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// The reference scenario has no overrides and is not listed.
	if len(lines) != 3 {
		t.Fatalf("csv lines = %v", lines)
	}
	if lines[0] != "scenario,p_dem_" {
		t.Fatalf("header = %s", lines[0])
	}
	if lines[1] != "d2,2" || lines[2] != "d4,4" {
		t.Fatalf("rows = %v", lines[1:])
	}
}
