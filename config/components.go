package config

import (
	"fmt"

	"github.com/karimcy/SEMDR/components"
	"github.com/karimcy/SEMDR/core/scenario"
)

// ComponentsConfig sizes the SEMDR building blocks. Each block can be
// disabled individually; the Main aggregator is always included.
type ComponentsConfig struct {
	Demand  DemandConfig  `json:"demand"`
	Grid    GridConfig    `json:"grid"`
	Battery BatteryConfig `json:"battery"`
	PV      PVConfig      `json:"pv"`
	HVAC    HVACConfig    `json:"hvac"`
}

type DemandConfig struct {
	Disabled       bool    `json:"disabled"`
	AnnualEnergy   float64 `json:"annual_energy"`
	Flexibility    float64 `json:"flexibility"`
	ComfortPenalty float64 `json:"comfort_penalty"`
	DeviceID       string  `json:"device_id"`
}

type GridConfig struct {
	Disabled     bool    `json:"disabled"`
	Tariff       string  `json:"tariff"`
	BuyPeakCost  float64 `json:"buy_peak_cost"`
	MaxSell      float64 `json:"max_sell"`
	MaxBuy       float64 `json:"max_buy"`
	SmartMeterID string  `json:"smart_meter_id"`
}

type BatteryConfig struct {
	Disabled        bool    `json:"disabled"`
	CapExisting     float64 `json:"cap_existing"`
	AllowNew        bool    `json:"allow_new"`
	MaxCyclesPerDay float64 `json:"max_cycles_per_day"`
}

type PVConfig struct {
	Disabled    bool    `json:"disabled"`
	CapExisting float64 `json:"cap_existing"`
	AvailArea   float64 `json:"avail_area"`
	AllowNew    bool    `json:"allow_new"`
}

type HVACConfig struct {
	Disabled         bool    `json:"disabled"`
	HeatingCap       float64 `json:"heating_cap"`
	CoolingCap       float64 `json:"cooling_cap"`
	COPHeating       float64 `json:"cop_heating"`
	COPCooling       float64 `json:"cop_cooling"`
	ComfortDeadband  float64 `json:"comfort_deadband"`
	ThermalMassHours float64 `json:"thermal_mass_hours"`
}

func (c *ComponentsConfig) Validate() error {
	if c.Demand.Disabled && c.Grid.Disabled {
		return fmt.Errorf("components: at least demand or grid must be enabled")
	}
	switch components.Tariff(c.Grid.Tariff) {
	case "", components.TariffTOU, components.TariffRTP, components.TariffFlat:
	default:
		return fmt.Errorf("components.grid.tariff: unknown tariff %q", c.Grid.Tariff)
	}
	return nil
}

// Build assembles the configured component set. Zero-valued sizing fields
// keep the component defaults.
func (c *ComponentsConfig) Build() []scenario.Component {
	var set []scenario.Component

	if !c.Demand.Disabled {
		d := components.NewElectricDemand()
		if c.Demand.AnnualEnergy > 0 {
			d.AnnualEnergy = c.Demand.AnnualEnergy
		}
		if c.Demand.Flexibility > 0 {
			d.Flexibility = c.Demand.Flexibility
		}
		if c.Demand.ComfortPenalty > 0 {
			d.ComfortPenalty = c.Demand.ComfortPenalty
		}
		d.DeviceID = c.Demand.DeviceID
		set = append(set, d)
	}
	if !c.HVAC.Disabled {
		h := components.NewHVAC()
		if c.HVAC.HeatingCap > 0 {
			h.HeatingCap = c.HVAC.HeatingCap
		}
		if c.HVAC.CoolingCap > 0 {
			h.CoolingCap = c.HVAC.CoolingCap
		}
		if c.HVAC.COPHeating > 0 {
			h.COPHeating = c.HVAC.COPHeating
		}
		if c.HVAC.COPCooling > 0 {
			h.COPCooling = c.HVAC.COPCooling
		}
		if c.HVAC.ComfortDeadband > 0 {
			h.ComfortDeadband = c.HVAC.ComfortDeadband
		}
		if c.HVAC.ThermalMassHours > 0 {
			h.ThermalMassHours = c.HVAC.ThermalMassHours
		}
		set = append(set, h)
	}
	if !c.Grid.Disabled {
		g := components.NewGrid()
		if c.Grid.Tariff != "" {
			g.Tariff = components.Tariff(c.Grid.Tariff)
		}
		if c.Grid.BuyPeakCost > 0 {
			g.BuyPeakCost = c.Grid.BuyPeakCost
		}
		if c.Grid.MaxSell > 0 {
			g.MaxSell = c.Grid.MaxSell
		}
		if c.Grid.MaxBuy > 0 {
			g.MaxBuy = c.Grid.MaxBuy
		}
		g.SmartMeterID = c.Grid.SmartMeterID
		set = append(set, g)
	}
	if !c.Battery.Disabled {
		b := components.NewBattery()
		b.CapExisting = c.Battery.CapExisting
		b.AllowNew = c.Battery.AllowNew || c.Battery.CapExisting == 0
		if c.Battery.MaxCyclesPerDay > 0 {
			b.MaxCyclesPerDay = c.Battery.MaxCyclesPerDay
		}
		set = append(set, b)
	}
	if !c.PV.Disabled {
		p := components.NewPV()
		p.CapExisting = c.PV.CapExisting
		p.AllowNew = c.PV.AllowNew || c.PV.CapExisting == 0
		if c.PV.AvailArea > 0 {
			p.AvailArea = c.PV.AvailArea
		}
		set = append(set, p)
	}

	set = append(set, components.NewMain())
	return set
}
