package cmd

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/recipeshift/recipeshift/cookbook"
	"github.com/recipeshift/recipeshift/playbook"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var convertCommand = &cobra.Command{
	Use:   "convert [dir]",
	Short: "Convert a cookbook to a playbook",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"."}
		}

		out, err := cmd.Flags().GetString("output")
		if err != nil {
			log.Fatalf("Get output: %v", err)
		}
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			log.Fatalf("Get verbose: %v", err)
		}

		logger := zap.NewNop()
		if verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				log.Fatalf("Build logger: %v", err)
			}
			logger = l
		}

		cb, err := cookbook.Load(args[0])
		if err != nil {
			fatal(err)
		}

		ctx := signalContext(context.Background())

		conv, err := cb.Convert(ctx, logger)
		if err != nil {
			fatal(err)
		}

		diags := conv.Diags
		var plays []playbook.Play
		for _, r := range conv.Recipes {
			diags = diags.Extend(r.Result.Diags)
			plays = append(plays, playbook.Play{
				Name:     fmt.Sprintf("%s::%s", cb.Name, r.File.Name),
				Tasks:    r.Result.Tasks,
				Handlers: r.Result.Handlers,
			})
		}

		printDiagnostics(diags)

		data, err := playbook.Marshal(plays...)
		if err != nil {
			fatal(err)
		}

		if out == "" {
			if _, err := os.Stdout.Write(data); err != nil {
				fatal(err)
			}
		} else if err := ioutil.WriteFile(out, data, 0644); err != nil {
			fatal(err)
		}

		if diags.HasErrors() {
			os.Exit(1)
		}
	},
}

func init() {
	convertCommand.Flags().StringP("output", "o", "", "Write the playbook to a file instead of stdout")
	convertCommand.Flags().BoolP("verbose", "v", false, "Log conversion progress")

	Recipeshift.AddCommand(convertCommand)
}
