package components

import (
	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/resolver"
	"github.com/karimcy/SEMDR/core/scenario"
)

// Tariff selects the electricity price series the Grid component prepares.
type Tariff string

const (
	TariffTOU  Tariff = "TOU"
	TariffRTP  Tariff = "RTP"
	TariffFlat Tariff = "FLAT"
)

// Grid models the utility connection: energy purchase and feed-in, a monthly
// peak-demand charge, and grid carbon emissions. It declares the feed-in
// collector other components (PV) contribute to, so it is ordered after PV
// when PV is part of the scenario.
type Grid struct {
	// BuyPeakCost is the peak demand charge in EUR/kW/month.
	BuyPeakCost float64
	Tariff      Tariff
	// MaxSell caps feed-in power, kW.
	MaxSell float64
	// MaxBuy caps purchase power, kW.
	MaxBuy float64
	// FeedInFraction of the tariff is credited for sold energy.
	FeedInFraction float64
	// SmartMeterID identifies the metering IoT device, empty when absent.
	SmartMeterID string
}

// NewGrid returns a grid connection with time-of-use defaults.
func NewGrid() *Grid {
	return &Grid{
		BuyPeakCost:    50,
		Tariff:         TariffTOU,
		MaxSell:        500,
		MaxBuy:         2000,
		FeedInFraction: 0.7,
	}
}

func (g *Grid) Name() string { return "EG" }

func (g *Grid) Dependencies() []resolver.Dep {
	return []resolver.Dep{{Name: "PV", Optional: true}}
}

func (g *Grid) DeclareDims(sc *scenario.Scenario) {}

func (g *Grid) DeclareParams(sc *scenario.Scenario) {
	sc.Collector("P_EG_sell_T", "Electricity sold to grid", "kW_el")

	var tariff []float64
	switch g.Tariff {
	case TariffRTP:
		tariff = rtpTariff(sc.Grid())
	case TariffFlat:
		tariff = flatTariff(sc.Grid())
	default:
		tariff = touTariff(sc.Grid())
	}
	sc.ParamSeries("c_EG_T", tariff, "Electricity tariff", "EUR/kWh_el")
	sc.Param("c_EG_addon_", 0.15, "Add-on price components (fees, levies)", "EUR/kWh_el")
	sc.Param("c_EG_buyPeak_", g.BuyPeakCost, "Peak demand charge", "EUR/kW_el/month")
	sc.ParamSeries("ce_EG_T", carbonIntensity(sc.Grid()), "Grid carbon intensity", "kgCO2eq/kWh_el")

	sc.Var("P_EG_buy_T", "Grid electricity purchase", "kW_el")
	sc.VarBounded("P_EG_sell_T", "Grid electricity sale", "kW_el", 0, g.MaxSell)
	sc.ScalarVarBounded("P_EG_peak_", "Monthly peak demand", "kW_el", 0, g.MaxBuy)
	sc.VarBounded("P_EG_net_T", "Net grid power, positive imports", "kW_el", -g.MaxSell, g.MaxBuy)
}

func (g *Grid) EmitModel(sc *scenario.Scenario) {
	for t := 0; t < sc.Steps(); t++ {
		sc.AddConstr("EG_net_power",
			sc.V("P_EG_net_T", t).Minus(sc.V("P_EG_buy_T", t)).Plus(sc.V("P_EG_sell_T", t)),
			lpmodel.EQ, 0)
		sc.AddConstr("EG_peak_tracking",
			sc.V("P_EG_buy_T", t).Minus(sc.V("P_EG_peak_", t)),
			lpmodel.LE, 0)
		// Feed-in equals the sum of all contributions to the sell collector.
		sc.AddConstr("EG_feedin_collection",
			sc.V("P_EG_sell_T", t).Minus(sc.CollectorSum("P_EG_sell_T", t)),
			lpmodel.EQ, 0)
	}

	sc.Contribute("P_EL_source_T", "EG", func(t int) lpmodel.Expr {
		return sc.V("P_EG_buy_T", t)
	})
	sc.Contribute("P_EL_sink_T", "EG", func(t int) lpmodel.Expr {
		return sc.V("P_EG_sell_T", t)
	})

	dT := sc.P("k__dT_")
	pyc := sc.P("k__PartYearComp_")
	addon := sc.P("c_EG_addon_")
	feedIn := g.FeedInFraction
	sc.Contribute("C_TOT_op_", "EG_energy", func(t int) lpmodel.Expr {
		price := sc.PAt("c_EG_T", t)
		buy := sc.V("P_EG_buy_T", t).Scale(price + addon)
		sell := sc.V("P_EG_sell_T", t).Scale(price * feedIn)
		return buy.Minus(sell).Scale(dT * pyc * eurToKEur)
	})
	peakCharge := sc.P("c_EG_buyPeak_") * 12 * eurToKEur
	sc.Contribute("C_TOT_op_", "EG_demand", func(t int) lpmodel.Expr {
		if t != 0 {
			return lpmodel.Expr{}
		}
		return sc.V("P_EG_peak_", 0).Scale(peakCharge)
	})
	sc.Contribute("CE_TOT_", "EG", func(t int) lpmodel.Expr {
		ce := sc.PAt("ce_EG_T", t)
		return sc.V("P_EG_buy_T", t).Minus(sc.V("P_EG_sell_T", t)).Scale(ce * dT * pyc)
	})
}
