package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "moralsim",
		Short: "Adaptive trolley-problem sessions from the terminal",
	}

	rootCmd.AddCommand(
		newPlayCmd(),
		newSimilarCmd(),
		newCatalogCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
