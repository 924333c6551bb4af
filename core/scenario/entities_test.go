package scenario

import (
	"context"
	"math"
	"testing"

	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/resolver"
)

// zones exercises the dimensioned entities: a zone dimension, a demand table,
// a supply variable per zone and a dimensioned balance collector.
type zones struct{}

func (zones) Name() string                 { return "zones" }
func (zones) Dependencies() []resolver.Dep { return nil }

func (zones) DeclareDims(sc *Scenario) {
	sc.Dim("Z", []string{"hi", "lo"}, "Zones")
}

func (zones) DeclareParams(sc *Scenario) {
	sc.ParamTable("q_dem_TZ", "Z", map[string][]float64{
		"hi": {1, 2},
		"lo": {3, 4},
	}, "Zone demand", "kW")
	sc.DimVar("q_sup_TZ", "Z", "Zone supply", "kW")
	sc.CollectorDim("q_bal_TZ", "Z", "Zone balance", "kW")
}

func (zones) EmitModel(sc *Scenario) {
	sc.ContributeDim("q_bal_TZ", "zones", func(t int, key string) lpmodel.Expr {
		return sc.VDim("q_sup_TZ", t, key)
	})
	total := lpmodel.Expr{}
	for t := 0; t < sc.Steps(); t++ {
		for _, z := range sc.DimMembers("Z") {
			sc.AddConstr("zone_cover",
				sc.CollectorSumDim("q_bal_TZ", t, z),
				lpmodel.GE, sc.PDim("q_dem_TZ", t, z))
			total = total.Plus(sc.VDim("q_sup_TZ", t, z))
		}
	}
	sc.SetObjective(total)
}

func TestDimensionedEntities(t *testing.T) {
	sc := New("REF", "", "", testGrid(t, 2), false, nil)
	if err := sc.Build([]Component{zones{}}); err != nil {
		t.Fatalf("build: %v", err)
	}

	if !sc.HasDim("Z") {
		t.Fatalf("dimension missing")
	}
	if got := sc.DimMembers("Z"); len(got) != 2 || got[0] != "hi" || got[1] != "lo" {
		t.Fatalf("members = %v", got)
	}
	if got := sc.PDim("q_dem_TZ", 1, "lo"); got != 4 {
		t.Fatalf("PDim = %v", got)
	}
	// 2 steps times 2 members.
	if sc.Model().NumCols() != 4 {
		t.Fatalf("cols = %d", sc.Model().NumCols())
	}

	status, err := sc.Solve(context.Background(), lpmodel.SimplexSolver{}, lpmodel.Options{})
	if err != nil || status != lpmodel.StatusOptimal {
		t.Fatalf("solve: %s %v", status, err)
	}
	if math.Abs(sc.Res().Objective-10) > 1e-6 {
		t.Fatalf("objective = %v, want 10", sc.Res().Objective)
	}
	// Supply sits on the demand table, t-major over members.
	want := []float64{1, 3, 2, 4}
	got := sc.Res().Series("q_sup_TZ")
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Fatalf("supply series = %v, want %v", got, want)
		}
	}
	bal := sc.CollectorValues["q_bal_TZ"]
	if len(bal) != 2 || math.Abs(bal[0]-4) > 1e-6 || math.Abs(bal[1]-6) > 1e-6 {
		t.Fatalf("realized balance = %v", bal)
	}
}

// missingDim references a dimension nobody declares.
type missingDim struct{}

func (missingDim) Name() string                 { return "missingDim" }
func (missingDim) Dependencies() []resolver.Dep { return nil }
func (missingDim) DeclareDims(sc *Scenario)     {}
func (missingDim) DeclareParams(sc *Scenario) {
	sc.DimVar("x_TZ", "Z", "Supply", "kW")
}
func (missingDim) EmitModel(sc *Scenario) {}

func TestDeclarationErrorsSurfaceInBuild(t *testing.T) {
	sc := New("REF", "", "", testGrid(t, 2), false, nil)
	if err := sc.Build([]Component{missingDim{}}); err == nil {
		t.Fatalf("expected missing-dimension error")
	}
}

// shortSeries declares a series not matching the window length.
type shortSeries struct{}

func (shortSeries) Name() string                 { return "shortSeries" }
func (shortSeries) Dependencies() []resolver.Dep { return nil }
func (shortSeries) DeclareDims(sc *Scenario)     {}
func (shortSeries) DeclareParams(sc *Scenario) {
	sc.ParamSeries("p_T", []float64{1}, "Too short", "")
}
func (shortSeries) EmitModel(sc *Scenario) {}

func TestSeriesLengthMismatch(t *testing.T) {
	sc := New("REF", "", "", testGrid(t, 2), false, nil)
	if err := sc.Build([]Component{shortSeries{}}); err == nil {
		t.Fatalf("expected series length error")
	}
}

func TestParamTableFillsMissingMembers(t *testing.T) {
	sc := New("REF", "", "", testGrid(t, 2), false, nil)
	sc.Dim("Z", []string{"a", "b"}, "")
	sc.ParamTable("q_TZ", "Z", map[string][]float64{"a": {5, 6}}, "", "")
	if err := sc.Err(); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if got := sc.PDim("q_TZ", 0, "b"); got != 0 {
		t.Fatalf("missing member value = %v, want 0", got)
	}
	if got := sc.PDim("q_TZ", 1, "a"); got != 6 {
		t.Fatalf("PDim = %v", got)
	}
}
