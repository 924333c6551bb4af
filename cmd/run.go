package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/karimcy/SEMDR/config"
	"github.com/karimcy/SEMDR/core/casestudy"
	"github.com/karimcy/SEMDR/core/lpmodel"
	coremetrics "github.com/karimcy/SEMDR/core/metrics"
	"github.com/karimcy/SEMDR/core/signals"
	"github.com/karimcy/SEMDR/core/timegrid"
	"github.com/karimcy/SEMDR/infra/logger"
	inframetrics "github.com/karimcy/SEMDR/infra/metrics"
	inframqtt "github.com/karimcy/SEMDR/infra/mqtt"
	"github.com/karimcy/SEMDR/internal/eventbus"
	"github.com/karimcy/SEMDR/pkg/export"
)

func runStudy(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("main")

	freq, err := timegrid.ParseFreq(cfg.Study.Freq)
	if err != nil {
		return err
	}
	cs, err := casestudy.New(cfg.Study.Name, cfg.Study.Doc, cfg.Study.Year, freq,
		cfg.Study.ConsiderInvest, logger.New("casestudy"))
	if err != nil {
		return err
	}
	if err := cfg.Window.Apply(cs.Grid()); err != nil {
		return err
	}

	if _, err := cs.AddRefScen(cfg.Components.Build()); err != nil {
		return err
	}

	solver := &lpmodel.SimplexSolver{}
	solverOpts := lpmodel.Options{
		TimeLimit: cfg.Solver.TimeLimit(),
		Tol:       cfg.Solver.Tol,
	}

	if cfg.Sweep.NormalizePareto {
		if err := cs.ImproveParetoNormFactors(ctx, solver, solverOpts, casestudy.RefScenID); err != nil {
			return err
		}
	}
	if len(cfg.Sweep.Axes) > 0 || cfg.Sweep.NParetoPoints > 0 {
		axes := make([]casestudy.SweepVar, len(cfg.Sweep.Axes))
		for i, ax := range cfg.Sweep.Axes {
			axes[i] = casestudy.SweepVar{Name: ax.Name, Short: ax.Short, Values: ax.Values}
		}
		if err := cs.AddScens(casestudy.RefScenID, axes, cfg.Sweep.NParetoPoints, cfg.Sweep.RemoveBase); err != nil {
			return err
		}
	}

	sink, err := buildSink(cfg.Metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Errorf("metrics close: %v", err)
		}
	}()

	bus := eventbus.New()
	defer bus.Close()
	go reportProgress(bus.Subscribe(64), log)

	optErr := cs.Optimize(ctx, casestudy.OptimizeOptions{
		Solver:     solver,
		SolverOpts: solverOpts,
		Parallel:   cfg.Solver.Parallel,
		Workers:    cfg.Solver.Workers,
		Metrics:    sink,
		Bus:        bus,
	})
	if optErr != nil {
		log.Errorf("optimize: %v", optErr)
	}

	if err := export.WriteParetoCSV(os.Stdout, cs); err != nil {
		return err
	}
	if cfg.MQTT.Enabled && optErr == nil {
		if err := publishSignals(cfg.MQTT, cs, log); err != nil {
			log.Errorf("publish signals: %v", err)
		}
	}

	path, err := cs.Save(cfg.Results.Dir, cfg.Results.Suffix)
	if err != nil {
		return err
	}
	log.Infof("results written to %s", path)
	return optErr
}

func buildSink(cfg config.MetricsConfig) (coremetrics.Sink, error) {
	var sinks []coremetrics.Sink
	if cfg.PrometheusEnabled {
		sink, err := inframetrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxURL != "" {
		sinks = append(sinks, inframetrics.NewInfluxSinkWithFallback(
			cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.Nop{}, nil
	case 1:
		return sinks[0], nil
	default:
		return coremetrics.Multi(sinks), nil
	}
}

func reportProgress(events <-chan eventbus.Event, log logger.Logger) {
	for ev := range events {
		switch ev.Kind {
		case "scenario_solved":
			log.Infof("scenario %s solved: %s (%.2fs)", ev.Scenario, ev.Status, ev.Seconds)
		case "scenario_failed":
			log.Errorf("scenario %s failed: %v", ev.Scenario, ev.Err)
		case "study_done":
			log.Infof("study %s finished in %.2fs", ev.Study, ev.Seconds)
		}
	}
}

func publishSignals(cfg config.MQTTConfig, cs *casestudy.CaseStudy, log logger.Logger) error {
	pub, err := inframqtt.NewPahoPublisher(cfg.Client)
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Errorf("mqtt close: %v", err)
		}
	}()

	for _, sc := range cs.Scens() {
		sigs, err := signals.FromScenario(sc, cfg.DeviceID, cfg.MinKW)
		if err != nil {
			return err
		}
		for _, sig := range sigs {
			if err := pub.PublishSignal(sig); err != nil {
				return err
			}
		}
		log.Infof("published %d demand-response signals for scenario %s", len(sigs), sc.ID)
	}
	return nil
}
