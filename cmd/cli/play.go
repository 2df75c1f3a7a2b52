package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"moralsim/domain/scenario"
	"moralsim/internal/config"
	"moralsim/internal/container"
	"moralsim/internal/report"
	"moralsim/internal/session"

	"github.com/spf13/cobra"
)

func newPlayCmd() *cobra.Command {
	var (
		total   int
		seed    int64
		dataset string
		delay   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Answer an adaptive series of dilemmas interactively",
		Long: `Play a full session: each scenario is chosen from your previous answers.
Type A or B to answer, r to restart, q to quit.

Example: moralsim play --total 7 --dataset data/responses.csv --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("total") {
				cfg.Engine.TotalScenarios = total
			}
			if cmd.Flags().Changed("seed") {
				cfg.Engine.Seed = seed
			}
			if cmd.Flags().Changed("dataset") {
				cfg.Data.DatasetFile = dataset
			}
			if cmd.Flags().Changed("delay") {
				cfg.Engine.RevealDelay = delay
			}
			if cfg.Log.Level == "info" {
				cfg.Log.Level = "warn"
			}

			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			if err := c.Init(cmd.Context()); err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			if ds, err := c.Dataset.Load(cmd.Context()); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%d historical responses available for comparison.\n\n", ds.Len())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No historical responses available; similarity matching is disabled.")
			}

			s := c.Sessions.Create()
			return runPlay(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Engine.RevealDelay)
		},
	}

	cmd.Flags().IntVar(&total, "total", 7, "Scenarios per session")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for parameter draws (0 = clock)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "CSV or XLSX file of historical responses")
	cmd.Flags().DurationVar(&delay, "delay", session.DefaultRevealDelay, "Pause after each answer")

	return cmd
}

// runPlay drives one session from a line-oriented reader until it completes,
// the reader is exhausted or the user quits
func runPlay(ctx context.Context, s *session.Session, in io.Reader, out io.Writer, delay time.Duration) error {
	current, err := s.Start(ctx)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)

	for current != nil {
		view := s.View()
		printScenario(out, current, view)

		fmt.Fprint(out, "Your choice [A/B]: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(input) {
		case "q", "quit":
			fmt.Fprintln(out, "Session abandoned.")
			return nil
		case "r", "reset":
			s.Reset()
			fmt.Fprintln(out, "\nStarting over.")
			if current, err = s.Start(ctx); err != nil {
				return err
			}
			continue
		}

		label, err := scenario.ParseLabel(input)
		if err != nil {
			fmt.Fprintln(out, "Please answer A or B.")
			continue
		}

		outcome, err := s.Choose(ctx, label)
		if err != nil {
			fmt.Fprintf(out, "Could not record that answer: %v\n", err)
			continue
		}
		opt, _ := current.Option(label)
		fmt.Fprintf(out, "\nYou chose %s: %s\n", label, opt.Consequence)
		if delay > 0 {
			time.Sleep(delay)
		}

		if outcome.Complete {
			fmt.Fprintln(out)
			if outcome.Report != nil {
				fmt.Fprintln(out, report.Markdown(outcome.Report))
			}
			return nil
		}
		current = outcome.Next
	}
	return nil
}

func printScenario(out io.Writer, sc *scenario.Scenario, view session.View) {
	fmt.Fprintf(out, "\n=== Scenario %d of %d (%d%%): %s ===\n", view.Position, view.Total, view.Progress, sc.Title)
	if view.Adaptive {
		fmt.Fprintln(out, "(chosen based on your previous answers)")
	}
	fmt.Fprintf(out, "\n%s\n\n", sc.Context)
	fmt.Fprintf(out, "  A) %s\n     %s\n", sc.OptionA.Action, sc.OptionA.Consequence)
	fmt.Fprintf(out, "  B) %s\n     %s\n\n", sc.OptionB.Action, sc.OptionB.Consequence)
}
