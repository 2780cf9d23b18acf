package main

import (
	"fmt"
	"os"
	"strings"

	"rfm-segmentation/internal/cli/commands"
	"rfm-segmentation/internal/cli/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.PrintError(os.Stderr, "%s", commands.Describe(err))
		if strings.Contains(err.Error(), "unknown command") || strings.Contains(err.Error(), "unknown flag") {
			fmt.Fprintln(os.Stderr, "\nRun 'rfm --help' for usage.")
		}
		os.Exit(1)
	}
}
