package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/recipeshift/recipeshift/cookbook"
	"github.com/spf13/cobra"
)

var schemaCommand = &cobra.Command{
	Use:   "schema [dir]",
	Short: "Print custom resource schemas",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"."}
		}

		cb, err := cookbook.Load(args[0])
		if err != nil {
			fatal(err)
		}

		schemas, diags := cb.ParseSchemas()
		printDiagnostics(diags)

		names := make([]string, 0, len(schemas))
		for name := range schemas {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			res := schemas[name]
			fmt.Printf("Resource %s\n", name)
			if len(res.Actions) > 0 {
				fmt.Printf("  Actions: %s", strings.Join(res.Actions, ", "))
				if res.DefaultAction != "" {
					fmt.Printf(" (default %s)", res.DefaultAction)
				}
				fmt.Println()
			}
			for _, p := range res.Properties {
				var notes []string
				if p.TypeConstraint != "" {
					notes = append(notes, p.TypeConstraint)
				}
				if p.IsNameProperty {
					notes = append(notes, "name property")
				}
				if p.Required {
					notes = append(notes, "required")
				}
				if p.Default != nil {
					notes = append(notes, fmt.Sprintf("default %s", p.Default.Source()))
				}
				fmt.Printf("  Property %s", p.Name)
				if len(notes) > 0 {
					fmt.Printf(" (%s)", strings.Join(notes, ", "))
				}
				fmt.Println()
			}
		}

		if diags.HasErrors() {
			fatal(fmt.Errorf("schema parsing failed"))
		}
	},
}

func init() {
	Recipeshift.AddCommand(schemaCommand)
}
