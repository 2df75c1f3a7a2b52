package main

import (
	"fmt"
	"text/tabwriter"

	"moralsim/adapters/excel"
	"moralsim/domain/choice"
	"moralsim/internal"
	"moralsim/internal/report"
	"moralsim/internal/similarity"

	"github.com/spf13/cobra"
)

func newSimilarCmd() *cobra.Command {
	var (
		dataset string
		top     int
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "similar [answers]",
		Short: "Find historical respondents who answered like a given A/B sequence",
		Long: `Score an answer sequence against a response dataset.

Example: moralsim similar ABBABAA --dataset data/responses.csv --top 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vector, err := choice.ParseVector(args[0])
			if err != nil {
				return err
			}
			if dataset == "" {
				return fmt.Errorf("--dataset is required")
			}

			logger := internal.NewLogger(internal.LogLevelWarn)
			ds, err := excel.NewDataReader(dataset).WithLogger(logger).ReadDataset(cmd.Context())
			if err != nil {
				return err
			}

			engine := similarity.New(similarity.WithSampleLimit(limit), similarity.WithLogger(logger))
			matches, err := engine.SimilarVector(cmd.Context(), vector, ds, top)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintf(out, "No comparable respondents among %d rows.\n", ds.Len())
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tID\tGENDER\tAGE\tMATCHED\tSIMILARITY")
			for i, m := range matches {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\t%.1f%%\n", i+1, m.ID, m.Gender, m.Age, m.Matches, m.Compared, m.Similarity)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			d := report.Distribution(matches)
			fmt.Fprintf(out, "\nmean %.1f%%, median %.1f%%, std dev %.1f over %d matches\n", d.Mean, d.Median, d.StdDev, d.Count)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "CSV or XLSX file of historical responses")
	cmd.Flags().IntVar(&top, "top", similarity.DefaultTopK, "Number of matches to show")
	cmd.Flags().IntVar(&limit, "sample-limit", 0, "Only scan the first N rows (0 = all)")

	return cmd
}
