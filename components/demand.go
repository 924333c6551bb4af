package components

import (
	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/resolver"
	"github.com/karimcy/SEMDR/core/scenario"
)

// ElectricDemand models the site's electricity demand with a load-shedding
// band for demand response. Shedding is penalized as a comfort cost.
type ElectricDemand struct {
	// Profile overrides the synthetic demand series when set; length must
	// match the active window.
	Profile []float64
	// AnnualEnergy scales the synthetic profile, kWh/year.
	AnnualEnergy float64
	// Flexibility is the sheddable fraction of demand per step.
	Flexibility float64
	// ComfortPenalty is the shedding penalty in EUR/MWh.
	ComfortPenalty float64
	// DeviceID identifies the IoT device monitoring this demand, empty when
	// no device is attached.
	DeviceID string
}

// NewElectricDemand returns a demand component with hotel-sized defaults.
func NewElectricDemand() *ElectricDemand {
	return &ElectricDemand{
		AnnualEnergy:   2e6,
		Flexibility:    0.05,
		ComfortPenalty: 100,
	}
}

func (d *ElectricDemand) Name() string { return "eDem" }

func (d *ElectricDemand) Dependencies() []resolver.Dep { return nil }

func (d *ElectricDemand) DeclareDims(sc *scenario.Scenario) {}

func (d *ElectricDemand) DeclareParams(sc *scenario.Scenario) {
	profile := d.Profile
	if profile == nil {
		profile = demandProfile(sc.Grid(), d.AnnualEnergy)
	}
	sc.ParamSeries("P_eDem_T", profile, "Electricity demand", "kW_el")
	sc.Param("k_eDem_flex_", d.Flexibility, "Demand flexibility factor", "")
	sc.Param("c_eDem_penalty_", d.ComfortPenalty, "Load shedding penalty cost", "EUR/MWh")

	sc.VarBounded("P_eDem_shed_T", "Load shedding", "kW_el", 0, 1000)
	sc.Var("P_eDem_actual_T", "Actual demand after shedding", "kW_el")
}

func (d *ElectricDemand) EmitModel(sc *scenario.Scenario) {
	for t := 0; t < sc.Steps(); t++ {
		sc.AddConstr("eDem_actual_demand",
			sc.V("P_eDem_actual_T", t).Plus(sc.V("P_eDem_shed_T", t)),
			lpmodel.EQ, sc.PAt("P_eDem_T", t))
		sc.AddConstr("eDem_load_shed_limit",
			sc.V("P_eDem_shed_T", t),
			lpmodel.LE, sc.P("k_eDem_flex_")*sc.PAt("P_eDem_T", t))
	}

	sc.Contribute("P_EL_sink_T", "eDem", func(t int) lpmodel.Expr {
		return sc.V("P_eDem_actual_T", t)
	})

	// Comfort penalty in k€/a; the penalty is quoted per MWh.
	dT := sc.P("k__dT_")
	pyc := sc.P("k__PartYearComp_")
	penalty := sc.P("c_eDem_penalty_") / 1e3 * dT * pyc * eurToKEur
	sc.Contribute("C_TOT_op_", "eDem_penalty", func(t int) lpmodel.Expr {
		return sc.V("P_eDem_shed_T", t).Scale(penalty)
	})
}
