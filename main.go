package main

import (
	"os"

	"github.com/karimcy/SEMDR/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
