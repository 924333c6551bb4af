package components

import (
	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/resolver"
	"github.com/karimcy/SEMDR/core/scenario"
)

// Battery models stationary battery storage tuned for demand response:
// conservative efficiencies, a daily cycle cap for longevity, and optional
// investment sizing when the scenario considers invest.
type Battery struct {
	// CapExisting is the installed capacity in kWh.
	CapExisting float64
	// AllowNew permits investment in new capacity.
	AllowNew bool
	// MaxCyclesPerDay caps equivalent full cycles for battery health.
	MaxCyclesPerDay float64
	// MonitorID identifies the battery-monitoring IoT device, empty when
	// absent.
	MonitorID string
}

// NewBattery returns a battery component with no existing capacity and
// investment allowed.
func NewBattery() *Battery {
	return &Battery{AllowNew: true, MaxCyclesPerDay: 1.5}
}

func (b *Battery) Name() string { return "BES" }

func (b *Battery) Dependencies() []resolver.Dep { return nil }

func (b *Battery) DeclareDims(sc *scenario.Scenario) {}

func (b *Battery) DeclareParams(sc *scenario.Scenario) {
	sc.Param("E_BES_CAPx_", b.CapExisting, "Existing battery capacity", "kWh_el")
	sc.Param("k_BES_ini_", 0.5, "Initial and final SOC fraction", "")
	sc.Param("eta_BES_ch_", 0.95, "Charging efficiency", "")
	sc.Param("eta_BES_dis_", 0.95, "Discharging efficiency", "")
	sc.Param("eta_BES_self_", 0.001, "Self-discharge per hour", "")
	sc.Param("k_BES_inPerCap_", 0.5, "Max charging C-rate", "")
	sc.Param("k_BES_outPerCap_", 0.5, "Max discharging C-rate", "")
	sc.Param("k_BES_maxCycles_", b.MaxCyclesPerDay, "Max daily equivalent cycles", "")

	sc.Var("E_BES_T", "Battery energy stored", "kWh_el")
	sc.Var("P_BES_in_T", "Charging power", "kW_el")
	sc.Var("P_BES_out_T", "Discharging power", "kW_el")

	if sc.ConsiderInvest {
		sc.Param("z_BES_", boolTo(b.AllowNew), "If new capacity is allowed", "")
		sc.Param("c_BES_inv_", 800, "Battery investment cost", "EUR/kWh")
		sc.Param("k_BES_RMI_", 0.02, "Annual maintenance factor", "")
		sc.Param("N_BES_", 15, "Battery lifetime", "years")
		sc.ScalarVarBounded("E_BES_CAPn_", "New capacity", "kWh_el", 0, 2000)
	}
}

// capExpr is existing capacity plus, under invest, the sizing variable.
func (b *Battery) capExpr(sc *scenario.Scenario) lpmodel.Expr {
	cap := lpmodel.Constant(sc.P("E_BES_CAPx_"))
	if sc.ConsiderInvest {
		cap = cap.Plus(sc.V("E_BES_CAPn_", 0))
	}
	return cap
}

func (b *Battery) EmitModel(sc *scenario.Scenario) {
	cap := b.capExpr(sc)
	dT := sc.P("k__dT_")
	ini := sc.P("k_BES_ini_")
	etaCh := sc.P("eta_BES_ch_")
	etaDis := sc.P("eta_BES_dis_")
	etaSelf := sc.P("eta_BES_self_")
	keep := 1 - etaSelf*dT
	steps := sc.Steps()

	throughput := lpmodel.Expr{}
	for t := 0; t < steps; t++ {
		sc.AddConstr("BES_charge_limit",
			sc.V("P_BES_in_T", t).Minus(cap.Scale(sc.P("k_BES_inPerCap_"))),
			lpmodel.LE, 0)
		sc.AddConstr("BES_discharge_limit",
			sc.V("P_BES_out_T", t).Minus(cap.Scale(sc.P("k_BES_outPerCap_"))),
			lpmodel.LE, 0)
		sc.AddConstr("BES_energy_limit",
			sc.V("E_BES_T", t).Minus(cap),
			lpmodel.LE, 0)

		prev := cap.Scale(ini)
		if t > 0 {
			prev = sc.V("E_BES_T", t-1)
		}
		flow := sc.V("P_BES_in_T", t).Scale(etaCh).Minus(sc.V("P_BES_out_T", t).Scale(1 / etaDis))
		sc.AddConstr("BES_energy_balance",
			sc.V("E_BES_T", t).Minus(prev.Scale(keep)).Minus(flow.Scale(dT)),
			lpmodel.EQ, 0)

		throughput = throughput.Plus(sc.V("P_BES_in_T", t).Plus(sc.V("P_BES_out_T", t)))
	}

	sc.AddConstr("BES_final_SOC",
		sc.V("E_BES_T", steps-1).Minus(cap.Scale(ini)),
		lpmodel.EQ, 0)

	// Equivalent-cycle cap over the window: total throughput may not exceed
	// the daily cycle allowance scaled to the window length.
	days := sc.Grid().WindowHours() / 24
	sc.AddConstr("BES_cycle_limit",
		throughput.Scale(dT).Minus(cap.Scale(sc.P("k_BES_maxCycles_")*days*2)),
		lpmodel.LE, 0)

	sc.Contribute("P_EL_source_T", "BES", func(t int) lpmodel.Expr {
		return sc.V("P_BES_out_T", t)
	})
	sc.Contribute("P_EL_sink_T", "BES", func(t int) lpmodel.Expr {
		return sc.V("P_BES_in_T", t)
	})

	if sc.ConsiderInvest {
		sc.AddConstr("BES_max_investment",
			sc.V("E_BES_CAPn_", 0),
			lpmodel.LE, sc.P("z_BES_")*2000)
		inv := sc.P("c_BES_inv_") * eurToKEur
		ann := inv * annuityFactor(sc.P("k__r_"), sc.P("N_BES_"))
		rmi := inv * sc.P("k_BES_RMI_")
		sc.Contribute("C_TOT_inv_", "BES", oneShot(func() lpmodel.Expr {
			return sc.V("E_BES_CAPn_", 0).Scale(inv)
		}))
		sc.Contribute("C_TOT_invAnn_", "BES", oneShot(func() lpmodel.Expr {
			return sc.V("E_BES_CAPn_", 0).Scale(ann)
		}))
		sc.Contribute("C_TOT_RMI_", "BES", oneShot(func() lpmodel.Expr {
			return sc.V("E_BES_CAPn_", 0).Scale(rmi)
		}))
	}
}

// oneShot adapts a window-independent expression to the time-indexed
// collector convention: the full value at the first step, zero elsewhere.
func oneShot(fn func() lpmodel.Expr) func(int) lpmodel.Expr {
	return func(t int) lpmodel.Expr {
		if t != 0 {
			return lpmodel.Expr{}
		}
		return fn()
	}
}
