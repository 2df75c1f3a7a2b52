package main

import (
	"fmt"
	"strings"

	"moralsim/domain/scenario"
	"moralsim/internal/generator"

	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	var (
		seed   int64
		sample bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the scenario templates",
		Long: `List every template with the moral dimensions it probes.

Example: moralsim catalog --sample --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			gen := generator.New(generator.NewRand(seed))

			for i, tpl := range scenario.Catalog() {
				probes := make([]string, len(tpl.Probes))
				for j, p := range tpl.Probes {
					probes[j] = string(p)
				}
				fmt.Fprintf(out, "%d. %s (%s)\n   probes: %s\n", i+1, tpl.Title, tpl.ID, strings.Join(probes, ", "))
				if tpl.Challenges != "" {
					fmt.Fprintf(out, "   challenges: %s\n", tpl.Challenges.Label())
				}
				if !sample {
					continue
				}
				sc, err := gen.Generate(cmd.Context(), tpl.ID, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n   %s\n   A) %s: %s\n   B) %s: %s\n", sc.Context,
					sc.OptionA.Action, sc.OptionA.Consequence, sc.OptionB.Action, sc.OptionB.Consequence)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for sample parameters")
	cmd.Flags().BoolVar(&sample, "sample", false, "Render one sample instance of each template")

	return cmd
}
