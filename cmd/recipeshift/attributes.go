package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/recipeshift/recipeshift/attr"
	"github.com/recipeshift/recipeshift/cookbook"
	"github.com/spf13/cobra"
)

var attributesCommand = &cobra.Command{
	Use:     "attributes [dir]",
	Aliases: []string{"attrs"},
	Short:   "Print the effective attribute table",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"."}
		}

		cb, err := cookbook.Load(args[0])
		if err != nil {
			fatal(err)
		}

		table, diags := cb.ResolveAttributes()
		printDiagnostics(diags)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, eff := range table.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				attr.JoinPath(eff.KeyPath),
				eff.Value.Source(),
				eff.WinningPrecedence,
			)
		}
		if err := w.Flush(); err != nil {
			fatal(err)
		}

		if diags.HasErrors() {
			os.Exit(1)
		}
	},
}

func init() {
	Recipeshift.AddCommand(attributesCommand)
}
