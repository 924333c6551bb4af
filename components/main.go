package components

import (
	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/resolver"
	"github.com/karimcy/SEMDR/core/scenario"
)

// Main aggregates the system: it declares the shared collectors every other
// component contributes to, the objective variables and the pareto weighting,
// and emits the weighted-sum objective plus the global balance constraints.
// It is ordered after every other component so its model phase sees all
// contributions.
type Main struct{}

func NewMain() *Main { return &Main{} }

func (m *Main) Name() string { return "Main" }

func (m *Main) Dependencies() []resolver.Dep {
	return []resolver.Dep{
		{Name: "eDem", Optional: true},
		{Name: "HVAC", Optional: true},
		{Name: "EG", Optional: true},
		{Name: "BES", Optional: true},
		{Name: "PV", Optional: true},
	}
}

func (m *Main) DeclareDims(sc *scenario.Scenario) {}

func (m *Main) DeclareParams(sc *scenario.Scenario) {
	sc.Collector("P_EL_source_T", "Electricity sources", "kW_el")
	sc.Collector("P_EL_sink_T", "Electricity sinks", "kW_el")
	if sc.HasDim("H") {
		sc.CollectorDim("dQ_heating_source_TH", "H", "Heating sources", "kW_th")
		sc.CollectorDim("dQ_heating_sink_TH", "H", "Heating sinks", "kW_th")
	}
	if sc.HasDim("N") {
		sc.CollectorDim("dQ_cooling_source_TN", "N", "Cooling sources", "kW_th")
		sc.CollectorDim("dQ_cooling_sink_TN", "N", "Cooling sinks", "kW_th")
	}
	sc.Collector("C_TOT_", "Total costs", "k€/a")
	sc.Collector("C_TOT_op_", "Operating costs", "k€/a")
	sc.Collector("CE_TOT_", "Carbon emissions", "kgCO2eq/a")

	sc.ScalarVar("C_TOT_", "Total costs", "k€/a")
	sc.ScalarVar("C_TOT_op_", "Operating costs", "k€/a")
	sc.ScalarVar("CE_TOT_", "Total emissions", "kgCO2eq/a")

	if sc.ConsiderInvest {
		sc.Collector("C_TOT_inv_", "Investment costs", "k€")
		sc.Collector("C_TOT_invAnn_", "Annualized investment costs", "k€/a")
		sc.Collector("C_TOT_RMI_", "Maintenance costs", "k€/a")
		sc.Param("k__r_", 0.04, "Interest rate", "")
		sc.ScalarVar("C_TOT_inv_", "Investment costs", "k€")
		sc.ScalarVar("C_TOT_invAnn_", "Annualized investment costs", "k€/a")
		sc.ScalarVar("C_TOT_RMI_", "Maintenance costs", "k€/a")
	}

	sc.Param("k_PTO_alpha_", 0.1, "Emissions weighting", "")
	sc.Param("k_PTO_C_", 1, "Cost normalization", "")
	sc.Param("k_PTO_CE_", 1/5e3, "Emissions normalization", "")
}

// collectorTotal sums a time-indexed collector over the whole window.
func collectorTotal(sc *scenario.Scenario, name string) lpmodel.Expr {
	total := lpmodel.Expr{}
	for t := 0; t < sc.Steps(); t++ {
		total = total.Plus(sc.CollectorSum(name, t))
	}
	return total
}

func (m *Main) EmitModel(sc *scenario.Scenario) {
	alpha := sc.P("k_PTO_alpha_")
	sc.SetObjective(
		sc.V("C_TOT_", 0).Scale((1 - alpha) * sc.P("k_PTO_C_")).
			Plus(sc.V("CE_TOT_", 0).Scale(alpha * sc.P("k_PTO_CE_"))))

	sc.AddConstr("operating_costs",
		sc.V("C_TOT_op_", 0).Minus(collectorTotal(sc, "C_TOT_op_")),
		lpmodel.EQ, 0)
	sc.Contribute("C_TOT_", "op", oneShot(func() lpmodel.Expr {
		return sc.V("C_TOT_op_", 0)
	}))

	if sc.ConsiderInvest {
		sc.AddConstr("investment_costs",
			sc.V("C_TOT_inv_", 0).Minus(collectorTotal(sc, "C_TOT_inv_")),
			lpmodel.EQ, 0)
		sc.AddConstr("maintenance_costs",
			sc.V("C_TOT_RMI_", 0).Minus(collectorTotal(sc, "C_TOT_RMI_")),
			lpmodel.EQ, 0)
		sc.AddConstr("annualized_investment",
			sc.V("C_TOT_invAnn_", 0).Minus(collectorTotal(sc, "C_TOT_invAnn_")),
			lpmodel.EQ, 0)
		sc.Contribute("C_TOT_op_", "RMI", oneShot(func() lpmodel.Expr {
			return sc.V("C_TOT_RMI_", 0)
		}))
		sc.Contribute("C_TOT_", "inv", oneShot(func() lpmodel.Expr {
			return sc.V("C_TOT_invAnn_", 0)
		}))
	}

	// Totals are built after the contributions above so they are included.
	sc.AddConstr("total_costs",
		sc.V("C_TOT_", 0).Minus(collectorTotal(sc, "C_TOT_")),
		lpmodel.EQ, 0)
	sc.AddConstr("total_emissions",
		sc.V("CE_TOT_", 0).Minus(collectorTotal(sc, "CE_TOT_")),
		lpmodel.EQ, 0)

	for t := 0; t < sc.Steps(); t++ {
		sc.AddConstr("electricity_balance",
			sc.CollectorSum("P_EL_source_T", t).Minus(sc.CollectorSum("P_EL_sink_T", t)),
			lpmodel.EQ, 0)
	}
	if sc.HasDim("H") {
		for t := 0; t < sc.Steps(); t++ {
			for _, h := range sc.DimMembers("H") {
				sc.AddConstr("heating_balance",
					sc.CollectorSumDim("dQ_heating_source_TH", t, h).
						Minus(sc.CollectorSumDim("dQ_heating_sink_TH", t, h)),
					lpmodel.EQ, 0)
			}
		}
	}
	if sc.HasDim("N") {
		for t := 0; t < sc.Steps(); t++ {
			for _, n := range sc.DimMembers("N") {
				sc.AddConstr("cooling_balance",
					sc.CollectorSumDim("dQ_cooling_source_TN", t, n).
						Minus(sc.CollectorSumDim("dQ_cooling_sink_TN", t, n)),
					lpmodel.EQ, 0)
			}
		}
	}
}

// DefaultSet returns the standard SEMDR component set with default sizing.
func DefaultSet() []scenario.Component {
	return []scenario.Component{
		NewElectricDemand(),
		NewHVAC(),
		NewGrid(),
		NewBattery(),
		NewPV(),
		NewMain(),
	}
}
