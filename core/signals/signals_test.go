package signals

import (
	"context"
	"testing"

	"github.com/karimcy/SEMDR/components"
	"github.com/karimcy/SEMDR/core/lpmodel"
	"github.com/karimcy/SEMDR/core/scenario"
	"github.com/karimcy/SEMDR/core/timegrid"
)

func solvedScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	g, err := timegrid.New(2023, timegrid.Freq60, nil)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if err := g.SetWindowSteps(timegrid.At(0), 3); err != nil {
		t.Fatalf("window: %v", err)
	}
	sc := scenario.New("REF", "", "", g, false, nil)
	comps := []scenario.Component{
		components.NewElectricDemand(),
		components.NewGrid(),
		components.NewMain(),
	}
	if err := sc.Build(comps); err != nil {
		t.Fatalf("build: %v", err)
	}
	status, err := sc.Solve(context.Background(), lpmodel.SimplexSolver{}, lpmodel.Options{})
	if err != nil || status != lpmodel.StatusOptimal {
		t.Fatalf("solve: %s %v", status, err)
	}
	return sc
}

func TestFromScenario(t *testing.T) {
	sc := solvedScenario(t)
	sigs, err := FromScenario(sc, "hvac-unit-1", 0.1)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	// Shedding is cheaper than buying, so every step sheds its band.
	if len(sigs) != sc.Steps() {
		t.Fatalf("got %d signals, want %d", len(sigs), sc.Steps())
	}
	seen := make(map[string]bool)
	for i, sig := range sigs {
		if sig.DeviceID != "hvac-unit-1" || sig.Scenario != "REF" {
			t.Fatalf("signal identity = %+v", sig)
		}
		if sig.TargetKW <= 0.1 || sig.Duration != 1 {
			t.Fatalf("signal payload = %+v", sig)
		}
		if sig.SignalID == "" || seen[sig.SignalID] {
			t.Fatalf("signal id not unique: %q", sig.SignalID)
		}
		seen[sig.SignalID] = true
		if want := sc.Grid().At(i); !sig.StartTime.Equal(want) {
			t.Fatalf("start time = %v, want %v", sig.StartTime, want)
		}
	}
}

func TestFromScenarioMinKWFilter(t *testing.T) {
	sc := solvedScenario(t)
	sigs, err := FromScenario(sc, "dev", 1e9)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(sigs) != 0 {
		t.Fatalf("got %d signals above an absurd threshold", len(sigs))
	}
}

func TestFromScenarioRequiresSolved(t *testing.T) {
	g, err := timegrid.New(2023, timegrid.Freq60, nil)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	sc := scenario.New("REF", "", "", g, false, nil)
	if _, err := FromScenario(sc, "dev", 0); err == nil {
		t.Fatalf("expected error for unsolved scenario")
	}
}

func TestTopic(t *testing.T) {
	sig := DemandResponseSignal{DeviceID: "meter-7"}
	if got := sig.Topic(); got != "devices/meter-7/control/demand_response" {
		t.Fatalf("topic = %s", got)
	}
}
