package main

import (
	"fmt"
	"os"

	cmd "github.com/recipeshift/recipeshift/cmd/recipeshift"
)

func main() {
	err := cmd.Recipeshift.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
