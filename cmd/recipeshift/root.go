package cmd

import (
	"fmt"
	"os"

	"github.com/recipeshift/recipeshift/diag"
	"github.com/spf13/cobra"
)

// Recipeshift is the root command.
var Recipeshift = &cobra.Command{
	Use:           "recipeshift",
	Short:         "Convert cookbook recipes to playbooks",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// printDiagnostics writes diagnostics to stderr with terminal formatting.
func printDiagnostics(diags diag.Diagnostics) {
	if len(diags) == 0 {
		return
	}
	w := diag.NewWriter(os.Stderr)
	if err := w.WriteDiagnostics(diags); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
