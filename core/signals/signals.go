// Package signals projects solved scenarios into demand-response control
// signals for the site's IoT devices.
package signals

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/karimcy/SEMDR/core/scenario"
)

// DemandResponseSignal instructs a device to shed load for one dispatch
// interval.
type DemandResponseSignal struct {
	SignalID  string    `json:"signal_id"`
	DeviceID  string    `json:"device_id"`
	TargetKW  float64   `json:"target_kw"`
	StartTime time.Time `json:"start_time"`
	Duration  float64   `json:"duration_h"`
	Scenario  string    `json:"scenario"`
}

// Topic is the MQTT control topic for the signal's device.
func (s DemandResponseSignal) Topic() string {
	return fmt.Sprintf("devices/%s/control/demand_response", s.DeviceID)
}

// Publisher delivers signals to the device fleet. The production
// implementation lives under infra/mqtt.
type Publisher interface {
	PublishSignal(sig DemandResponseSignal) error
	Close() error
}

// FromScenario extracts one signal per window step with non-negligible load
// shedding in the solved scenario. minKW filters solver noise.
func FromScenario(sc *scenario.Scenario, deviceID string, minKW float64) ([]DemandResponseSignal, error) {
	if sc.State() != scenario.StateSolved {
		return nil, fmt.Errorf("signals: scenario %s is not solved (state %s)", sc.ID, sc.State())
	}
	shed := sc.Res().Series("P_eDem_shed_T")
	if shed == nil {
		return nil, fmt.Errorf("signals: scenario %s has no load-shedding series", sc.ID)
	}
	dT := sc.Grid().Freq().StepWidthHours()
	var out []DemandResponseSignal
	for t, kw := range shed {
		if kw <= minKW {
			continue
		}
		out = append(out, DemandResponseSignal{
			SignalID:  uuid.NewString(),
			DeviceID:  deviceID,
			TargetKW:  kw,
			StartTime: sc.Grid().At(t),
			Duration:  dT,
			Scenario:  sc.ID,
		})
	}
	return out, nil
}
