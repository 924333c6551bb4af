package components

import (
	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/resolver"
	"github.com/karimcy/SEMDR/core/scenario"
)

// Temperature levels (supply/return, °C) for the hotel comfort bands.
const (
	heatLevel = "22/18"
	coolLevel = "7/12"
)

// HVAC models heat-pump heating and cooling with a comfort deadband and a
// thermal-mass storage state for demand response.
type HVAC struct {
	// HeatingCap and CoolingCap limit electric input power, kW.
	HeatingCap float64
	CoolingCap float64
	COPHeating float64
	COPCooling float64
	// ComfortDeadband is the allowed setpoint adjustment, °C.
	ComfortDeadband float64
	// ThermalMassHours is the building's thermal inertia time constant.
	ThermalMassHours float64
	// HeatingDemand and CoolingDemand override the synthetic thermal demand
	// series, kW_th.
	HeatingDemand []float64
	CoolingDemand []float64
	// AnnualHeating and AnnualCooling scale the synthetic series, kWh_th.
	AnnualHeating float64
	AnnualCooling float64
	// TempSensorIDs lists the IoT temperature sensors of the zones.
	TempSensorIDs []string
}

// NewHVAC returns an HVAC component with hotel-sized defaults.
func NewHVAC() *HVAC {
	return &HVAC{
		HeatingCap:       500,
		CoolingCap:       400,
		COPHeating:       3.5,
		COPCooling:       3.0,
		ComfortDeadband:  2.0,
		ThermalMassHours: 4.0,
		AnnualHeating:    3e5,
		AnnualCooling:    2e5,
	}
}

func (h *HVAC) Name() string { return "HVAC" }

func (h *HVAC) Dependencies() []resolver.Dep { return nil }

func (h *HVAC) DeclareDims(sc *scenario.Scenario) {
	sc.Dim("H", []string{heatLevel}, "Heating temperature levels (supply/return) in °C")
	sc.Dim("N", []string{coolLevel}, "Cooling temperature levels (supply/return) in °C")
}

func (h *HVAC) DeclareParams(sc *scenario.Scenario) {
	heating := h.HeatingDemand
	if heating == nil {
		heating = thermalProfile(sc.Grid(), h.AnnualHeating, true)
	}
	cooling := h.CoolingDemand
	if cooling == nil {
		cooling = thermalProfile(sc.Grid(), h.AnnualCooling, false)
	}
	sc.ParamTable("dQ_hDem_TH", "H", map[string][]float64{heatLevel: heating}, "Heating demand", "kW_th")
	sc.ParamTable("dQ_cDem_TN", "N", map[string][]float64{coolLevel: cooling}, "Cooling demand", "kW_th")

	sc.Param("P_HVAC_heat_cap_", h.HeatingCap, "Heating capacity", "kW_el")
	sc.Param("P_HVAC_cool_cap_", h.CoolingCap, "Cooling capacity", "kW_el")
	sc.Param("COP_heat_", h.COPHeating, "Heating COP", "")
	sc.Param("COP_cool_", h.COPCooling, "Cooling COP", "")
	sc.Param("k_comfort_flex_", h.ComfortDeadband, "Comfort flexibility", "°C")
	sc.Param("k_thermal_mass_", h.ThermalMassHours, "Thermal mass time constant", "h")

	sc.Var("P_HVAC_heat_T", "Heating power consumption", "kW_el")
	sc.Var("P_HVAC_cool_T", "Cooling power consumption", "kW_el")
	sc.Var("dQ_HVAC_heat_T", "Heating output", "kW_th")
	sc.Var("dQ_HVAC_cool_T", "Cooling output", "kW_th")
	sc.VarBounded("deltaT_comfort_T", "Temperature setpoint adjustment", "°C",
		-h.ComfortDeadband, h.ComfortDeadband)
	sc.Var("E_thermal_T", "Thermal energy stored in building mass", "kWh_th")
}

func (h *HVAC) EmitModel(sc *scenario.Scenario) {
	dT := sc.P("k__dT_")
	flex := sc.P("k_comfort_flex_")
	keep := 1 - 1/sc.P("k_thermal_mass_")

	for t := 0; t < sc.Steps(); t++ {
		sc.AddConstr("HVAC_heat_balance",
			sc.V("dQ_HVAC_heat_T", t).Minus(sc.V("P_HVAC_heat_T", t).Scale(sc.P("COP_heat_"))),
			lpmodel.EQ, 0)
		sc.AddConstr("HVAC_cool_balance",
			sc.V("dQ_HVAC_cool_T", t).Minus(sc.V("P_HVAC_cool_T", t).Scale(sc.P("COP_cool_"))),
			lpmodel.EQ, 0)
		sc.AddConstr("HVAC_heat_cap",
			sc.V("P_HVAC_heat_T", t), lpmodel.LE, sc.P("P_HVAC_heat_cap_"))
		sc.AddConstr("HVAC_cool_cap",
			sc.V("P_HVAC_cool_T", t), lpmodel.LE, sc.P("P_HVAC_cool_cap_"))

		hDem := sc.PDim("dQ_hDem_TH", t, heatLevel)
		cDem := sc.PDim("dQ_cDem_TN", t, coolLevel)

		prev := lpmodel.Expr{}
		if t > 0 {
			prev = sc.V("E_thermal_T", t-1)
		}
		flow := sc.V("dQ_HVAC_heat_T", t).Minus(sc.V("dQ_HVAC_cool_T", t)).
			Plus(lpmodel.Constant(cDem - hDem))
		sc.AddConstr("thermal_mass_balance",
			sc.V("E_thermal_T", t).Minus(prev.Scale(keep)).Minus(flow.Scale(dT)),
			lpmodel.EQ, 0)

		// Setpoint relaxation shaves up to 10% of the thermal demand at the
		// deadband edge.
		sc.AddConstr("HVAC_heat_flexibility",
			sc.V("dQ_HVAC_heat_T", t).Plus(sc.V("deltaT_comfort_T", t).Scale(0.1*hDem/flex)),
			lpmodel.GE, hDem)
		sc.AddConstr("HVAC_cool_flexibility",
			sc.V("dQ_HVAC_cool_T", t).Minus(sc.V("deltaT_comfort_T", t).Scale(0.1*cDem/flex)),
			lpmodel.GE, cDem)
	}

	sc.Contribute("P_EL_sink_T", "HVAC", func(t int) lpmodel.Expr {
		return sc.V("P_HVAC_heat_T", t).Plus(sc.V("P_HVAC_cool_T", t))
	})
	sc.ContributeDim("dQ_heating_source_TH", "HVAC", func(t int, key string) lpmodel.Expr {
		if key != heatLevel {
			return lpmodel.Expr{}
		}
		return sc.V("dQ_HVAC_heat_T", t)
	})
	sc.ContributeDim("dQ_cooling_source_TN", "HVAC", func(t int, key string) lpmodel.Expr {
		if key != coolLevel {
			return lpmodel.Expr{}
		}
		return sc.V("dQ_HVAC_cool_T", t)
	})
	sc.ContributeDim("dQ_heating_sink_TH", "HVAC_dem", func(t int, key string) lpmodel.Expr {
		if key != heatLevel {
			return lpmodel.Expr{}
		}
		return lpmodel.Constant(sc.PDim("dQ_hDem_TH", t, heatLevel))
	})
	sc.ContributeDim("dQ_cooling_sink_TN", "HVAC_dem", func(t int, key string) lpmodel.Expr {
		if key != coolLevel {
			return lpmodel.Expr{}
		}
		return lpmodel.Constant(sc.PDim("dQ_cDem_TN", t, coolLevel))
	})
}
