package components

import (
	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/resolver"
	"github.com/karimcy/SEMDR/core/scenario"
)

// PV models rooftop photovoltaics: generation follows a per-kW-peak profile
// and is split into self-consumption and grid feed-in. New capacity is
// limited by available roof area when investment is considered.
type PV struct {
	// CapExisting is the installed capacity in kW_peak.
	CapExisting float64
	// AvailArea is the roof area available for new modules, m².
	AvailArea float64
	// AllowNew permits investment in new capacity.
	AllowNew bool
	// Profile overrides the synthetic per-kW-peak generation series.
	Profile []float64
	// WeatherStationID identifies the weather-monitoring IoT device, empty
	// when absent.
	WeatherStationID string
}

// NewPV returns a PV component with no existing capacity and 500 m² of roof.
func NewPV() *PV {
	return &PV{AvailArea: 500, AllowNew: true}
}

func (p *PV) Name() string { return "PV" }

func (p *PV) Dependencies() []resolver.Dep { return nil }

func (p *PV) DeclareDims(sc *scenario.Scenario) {}

func (p *PV) DeclareParams(sc *scenario.Scenario) {
	profile := p.Profile
	if profile == nil {
		profile = solarProfile(sc.Grid())
	}
	sc.Param("P_PV_CAPx_", p.CapExisting, "Existing PV capacity", "kW_peak")
	sc.ParamSeries("P_PV_profile_T", profile, "Generation per kW_peak", "kW_el/kW_peak")
	sc.Param("A_PV_PerPeak_", 6.0, "PV area per kW", "m2/kW_peak")
	sc.Param("A_PV_avail_", p.AvailArea, "Available roof area", "m2")

	sc.Var("P_PV_total_T", "Total PV generation", "kW_el")
	sc.Var("P_PV_self_T", "Self-consumption", "kW_el")
	sc.Var("P_PV_feedin_T", "Grid feed-in", "kW_el")

	if sc.ConsiderInvest {
		sc.Param("z_PV_", boolTo(p.AllowNew), "If new PV is allowed", "")
		sc.Param("c_PV_inv_", 1200, "PV investment cost", "EUR/kW_peak")
		sc.Param("k_PV_RMI_", 0.015, "Annual maintenance factor", "")
		sc.Param("N_PV_", 25, "PV lifetime", "years")
		sc.ScalarVarBounded("P_PV_CAPn_", "New PV capacity", "kW_peak", 0, 1e4)
	}
}

func (p *PV) capExpr(sc *scenario.Scenario) lpmodel.Expr {
	cap := lpmodel.Constant(sc.P("P_PV_CAPx_"))
	if sc.ConsiderInvest {
		cap = cap.Plus(sc.V("P_PV_CAPn_", 0))
	}
	return cap
}

func (p *PV) EmitModel(sc *scenario.Scenario) {
	cap := p.capExpr(sc)
	for t := 0; t < sc.Steps(); t++ {
		gen := cap.Scale(sc.PAt("P_PV_profile_T", t))
		sc.AddConstr("PV_generation_split",
			sc.V("P_PV_self_T", t).Plus(sc.V("P_PV_feedin_T", t)).Minus(gen),
			lpmodel.EQ, 0)
		sc.AddConstr("PV_total_gen",
			sc.V("P_PV_total_T", t).Minus(gen),
			lpmodel.EQ, 0)
	}

	sc.Contribute("P_EL_source_T", "PV", func(t int) lpmodel.Expr {
		return sc.V("P_PV_self_T", t)
	})
	sc.Contribute("P_EG_sell_T", "PV", func(t int) lpmodel.Expr {
		return sc.V("P_PV_feedin_T", t)
	})

	if sc.ConsiderInvest {
		sc.AddConstr("PV_area_limit",
			sc.V("P_PV_CAPn_", 0),
			lpmodel.LE, sc.P("z_PV_")*sc.P("A_PV_avail_")/sc.P("A_PV_PerPeak_"))
		inv := sc.P("c_PV_inv_") * eurToKEur
		ann := inv * annuityFactor(sc.P("k__r_"), sc.P("N_PV_"))
		rmi := inv * sc.P("k_PV_RMI_")
		sc.Contribute("C_TOT_inv_", "PV", oneShot(func() lpmodel.Expr {
			return sc.V("P_PV_CAPn_", 0).Scale(inv)
		}))
		sc.Contribute("C_TOT_invAnn_", "PV", oneShot(func() lpmodel.Expr {
			return sc.V("P_PV_CAPn_", 0).Scale(ann)
		}))
		sc.Contribute("C_TOT_RMI_", "PV", oneShot(func() lpmodel.Expr {
			return sc.V("P_PV_CAPn_", 0).Scale(rmi)
		}))
	}
}
