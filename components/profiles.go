// Package components provides the SEMDR building blocks as scenario
// components: electric demand, grid connection, battery storage, PV and
// HVAC, aggregated by the Main component.
package components

import (
	"math"
	"time"

	"github.com/karimcy/SEMDR/core/timegrid"
)

// hotelShape is the relative hotel load by hour of day: morning and evening
// peaks, a lower night base.
var hotelShape = [24]float64{
	0.55, 0.50, 0.48, 0.47, 0.48, 0.55,
	0.70, 0.90, 1.00, 0.95, 0.90, 0.92,
	0.95, 0.90, 0.85, 0.85, 0.90, 1.00,
	1.10, 1.15, 1.10, 0.95, 0.75, 0.62,
}

// demandProfile builds a synthetic hotel demand series over the active
// window, scaled so the full-year profile integrates to annualEnergy kWh.
func demandProfile(g *timegrid.Grid, annualEnergy float64) []float64 {
	dT := g.Freq().StepWidthHours()
	var yearSum float64
	for _, ts := range g.FullIndex() {
		yearSum += hotelShape[ts.Hour()] * dT
	}
	scale := annualEnergy / yearSum
	out := make([]float64, g.Steps())
	for t := range out {
		out[t] = hotelShape[g.At(t).Hour()] * scale
	}
	return out
}

// solarProfile builds a per-kW-peak generation series: a daylight bell curve
// damped by a seasonal factor.
func solarProfile(g *timegrid.Grid) []float64 {
	out := make([]float64, g.Steps())
	for t := range out {
		out[t] = solarAt(g.At(t))
	}
	return out
}

func solarAt(ts time.Time) float64 {
	h := float64(ts.Hour()) + float64(ts.Minute())/60
	if h < 6 || h > 20 {
		return 0
	}
	daylight := math.Sin(math.Pi * (h - 6) / 14)
	season := 0.55 - 0.45*math.Cos(2*math.Pi*float64(ts.YearDay())/365)
	return daylight * daylight * season
}

// touTariff builds a time-of-use electricity price series in EUR/kWh:
// weekday daytime peak, off-peak otherwise.
func touTariff(g *timegrid.Grid) []float64 {
	out := make([]float64, g.Steps())
	for t := range out {
		ts := g.At(t)
		wd := ts.Weekday()
		if wd != time.Saturday && wd != time.Sunday && ts.Hour() >= 8 && ts.Hour() < 20 {
			out[t] = 0.32
		} else {
			out[t] = 0.22
		}
	}
	return out
}

// rtpTariff builds a synthetic real-time price series in EUR/kWh with daily
// and weekly swings around a base price.
func rtpTariff(g *timegrid.Grid) []float64 {
	out := make([]float64, g.Steps())
	for t := range out {
		ts := g.At(t)
		h := float64(ts.Hour()) + float64(ts.Minute())/60
		daily := 0.06 * math.Sin(2*math.Pi*(h-9)/24)
		weekly := 0.0
		if ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday {
			weekly = -0.03
		}
		out[t] = 0.26 + daily + weekly
	}
	return out
}

func flatTariff(g *timegrid.Grid) []float64 {
	out := make([]float64, g.Steps())
	for t := range out {
		out[t] = 0.25
	}
	return out
}

// carbonIntensity builds a grid carbon-intensity series in kgCO2eq/kWh,
// lower around midday when solar dominates the mix.
func carbonIntensity(g *timegrid.Grid) []float64 {
	out := make([]float64, g.Steps())
	for t := range out {
		h := float64(g.At(t).Hour())
		out[t] = 0.40 - 0.12*math.Sin(math.Pi*(h-6)/14)*boolTo(h >= 6 && h <= 20)
	}
	return out
}

func boolTo(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// thermalProfile builds a synthetic thermal demand series scaled to
// annualEnergy kWh_th. Heating peaks in winter, cooling in summer; the
// heating flag selects the seasonal orientation.
func thermalProfile(g *timegrid.Grid, annualEnergy float64, heating bool) []float64 {
	dT := g.Freq().StepWidthHours()
	shape := func(ts time.Time) float64 {
		season := 0.5 + 0.5*math.Cos(2*math.Pi*float64(ts.YearDay())/365)
		if !heating {
			season = 1 - season
		}
		day := 0.75 + 0.25*math.Sin(2*math.Pi*float64(ts.Hour())/24)
		return season * day
	}
	var yearSum float64
	for _, ts := range g.FullIndex() {
		yearSum += shape(ts) * dT
	}
	if yearSum == 0 {
		return make([]float64, g.Steps())
	}
	scale := annualEnergy / yearSum
	out := make([]float64, g.Steps())
	for t := range out {
		out[t] = shape(g.At(t)) * scale
	}
	return out
}

// annuityFactor converts an investment into an equivalent annual payment
// over n years at interest rate r.
func annuityFactor(r float64, n float64) float64 {
	if r == 0 {
		return 1 / n
	}
	return r / (1 - math.Pow(1+r, -n))
}

// eurToKEur scales euro amounts into the k€ bookkeeping unit.
const eurToKEur = 1e-3
