// Package cmd wires the SEMDR command line.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "semdr",
	Short: "SEMDR energy system optimization",
	RunE:  runStudy,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(showCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
