package components

import (
	"context"
	"math"
	"testing"

	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/scenario"
	"github.com/karimcy/SEMDR/core/timegrid"
)

func windowGrid(t *testing.T, steps int) *timegrid.Grid {
	t.Helper()
	g, err := timegrid.New(2023, timegrid.Freq60, nil)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if err := g.SetWindowSteps(timegrid.At(0), steps); err != nil {
		t.Fatalf("window: %v", err)
	}
	return g
}

func TestDefaultSetBuilds(t *testing.T) {
	sc := scenario.New("REF", "", "", windowGrid(t, 24), false, nil)
	if err := sc.Build(DefaultSet()); err != nil {
		t.Fatalf("build: %v", err)
	}
	if sc.State() != scenario.StateModeled {
		t.Fatalf("state = %s", sc.State())
	}

	for _, p := range []string{
		"P_eDem_T", "c_EG_T", "ce_EG_T", "E_BES_CAPx_", "P_PV_CAPx_",
		"dQ_hDem_TH", "dQ_cDem_TN", "k_PTO_alpha_", "k__dT_",
	} {
		if !sc.HasParam(p) {
			t.Fatalf("parameter %s missing", p)
		}
	}
	for _, v := range []string{
		"P_eDem_actual_T", "P_EG_buy_T", "P_EG_peak_", "E_BES_T",
		"P_PV_total_T", "dQ_HVAC_heat_T", "C_TOT_", "CE_TOT_",
	} {
		if !sc.HasVar(v) {
			t.Fatalf("variable %s missing", v)
		}
	}
	if !sc.HasDim("H") || !sc.HasDim("N") {
		t.Fatalf("temperature dimensions missing")
	}
	if members := sc.DimMembers("H"); len(members) != 1 || members[0] != heatLevel {
		t.Fatalf("H members = %v", members)
	}
	// Sizing variables only exist in investment mode.
	if sc.HasVar("E_BES_CAPn_") || sc.HasVar("P_PV_CAPn_") || sc.HasVar("C_TOT_inv_") {
		t.Fatalf("investment variables declared without ConsiderInvest")
	}
	if sc.Model().NumCols() == 0 || sc.Model().NumConstrs() == 0 {
		t.Fatalf("empty model: %d cols, %d constrs", sc.Model().NumCols(), sc.Model().NumConstrs())
	}
}

func TestDefaultSetBuildsWithInvest(t *testing.T) {
	sc := scenario.New("REF", "", "", windowGrid(t, 24), true, nil)
	if err := sc.Build(DefaultSet()); err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, v := range []string{"E_BES_CAPn_", "P_PV_CAPn_", "C_TOT_inv_", "C_TOT_invAnn_", "C_TOT_RMI_"} {
		if !sc.HasVar(v) {
			t.Fatalf("investment variable %s missing", v)
		}
	}
	for _, p := range []string{"z_BES_", "z_PV_", "c_BES_inv_", "c_PV_inv_", "k__r_"} {
		if !sc.HasParam(p) {
			t.Fatalf("investment parameter %s missing", p)
		}
	}
}

// A demand-and-grid system has one optimal strategy: shed the flexible band
// (the penalty is below the energy price) and buy the rest.
func TestDemandGridSolve(t *testing.T) {
	sc := scenario.New("REF", "", "", windowGrid(t, 4), false, nil)
	comps := []scenario.Component{NewElectricDemand(), NewGrid(), NewMain()}
	if err := sc.Build(comps); err != nil {
		t.Fatalf("build: %v", err)
	}
	status, err := sc.Solve(context.Background(), lpmodel.SimplexSolver{}, lpmodel.Options{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if status != lpmodel.StatusOptimal {
		t.Fatalf("status = %s", status)
	}

	buy := sc.Res().Series("P_EG_buy_T")
	actual := sc.Res().Series("P_eDem_actual_T")
	shed := sc.Res().Series("P_eDem_shed_T")
	flex := sc.P("k_eDem_flex_")
	for tt := 0; tt < sc.Steps(); tt++ {
		dem := sc.PAt("P_eDem_T", tt)
		if math.Abs(actual[tt]+shed[tt]-dem) > 1e-6 {
			t.Fatalf("t=%d: actual %v + shed %v != demand %v", tt, actual[tt], shed[tt], dem)
		}
		// Without other sources the purchase covers the whole actual demand.
		if math.Abs(buy[tt]-actual[tt]) > 1e-6 {
			t.Fatalf("t=%d: buy %v != actual %v", tt, buy[tt], actual[tt])
		}
		if math.Abs(shed[tt]-flex*dem) > 1e-6 {
			t.Fatalf("t=%d: shed %v, want full band %v", tt, shed[tt], flex*dem)
		}
	}

	if c := sc.Res().Get("C_TOT_"); c <= 0 {
		t.Fatalf("C_TOT_ = %v", c)
	}
	if ce := sc.Res().Get("CE_TOT_"); ce <= 0 {
		t.Fatalf("CE_TOT_ = %v", ce)
	}
	src := sc.CollectorValues["P_EL_source_T"]
	for tt := range src {
		if math.Abs(src[tt]-buy[tt]) > 1e-6 {
			t.Fatalf("t=%d: source collector %v != buy %v", tt, src[tt], buy[tt])
		}
	}
}

func TestDemandProfileIntegratesToAnnualEnergy(t *testing.T) {
	g, err := timegrid.New(2023, timegrid.Freq60, nil)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	profile := demandProfile(g, 2e6)
	if len(profile) != 8760 {
		t.Fatalf("profile length = %d", len(profile))
	}
	var sum float64
	for _, v := range profile {
		sum += v
	}
	if math.Abs(sum-2e6) > 1 {
		t.Fatalf("annual integral = %v, want 2e6", sum)
	}
}

func TestSolarProfileIsDaylightOnly(t *testing.T) {
	g := windowGrid(t, 48)
	profile := solarProfile(g)
	for tt, v := range profile {
		h := g.At(tt).Hour()
		if (h < 6 || h > 20) && v != 0 {
			t.Fatalf("hour %d: solar %v, want 0", h, v)
		}
		if v < 0 || v > 1 {
			t.Fatalf("hour %d: solar %v out of range", h, v)
		}
	}
}

func TestTouTariffPeakHours(t *testing.T) {
	// 2023-01-02 is a Monday.
	g, err := timegrid.New(2023, timegrid.Freq60, nil)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if err := g.SetWindowSteps(timegrid.At(24), 24); err != nil {
		t.Fatalf("window: %v", err)
	}
	tariff := touTariff(g)
	if tariff[3] != 0.22 {
		t.Fatalf("night price = %v", tariff[3])
	}
	if tariff[12] != 0.32 {
		t.Fatalf("weekday peak price = %v", tariff[12])
	}
}

func TestAnnuityFactor(t *testing.T) {
	if got := annuityFactor(0.04, 15); math.Abs(got-0.0899411) > 1e-6 {
		t.Fatalf("annuityFactor(0.04, 15) = %v", got)
	}
	// Zero interest degenerates to straight-line repayment.
	if got := annuityFactor(0, 10); math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("annuityFactor(0, 10) = %v", got)
	}
}
