package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/karimcy/SEMDR/config"
	"github.com/karimcy/SEMDR/core/casestudy"
	"github.com/karimcy/SEMDR/infra/logger"
	"github.com/karimcy/SEMDR/pkg/export"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the pareto front of the latest saved study",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cs, err := casestudy.OpenLatest(cfg.Results.Dir, cfg.Study.Name, logger.New("casestudy"))
		if err != nil {
			return err
		}
		return export.WriteParetoCSV(os.Stdout, cs)
	},
}
