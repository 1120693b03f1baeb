package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/freeeve/allocation-game/internal/service"
)

// app is the history browser: stored episodes from Postgres and live
// training progress from Redis.
type app struct {
	root   *cobra.Command
	stdout io.Writer

	// Opened lazily so each subcommand only needs the store it reads.
	episodes func() (*service.EpisodeService, func(), error)
	training func(runID string) (*service.TrainingService, func(), error)
}

func newApp(stdout io.Writer) *app {
	a := &app{stdout: stdout}
	a.root = &cobra.Command{
		Use:           "episodes",
		Short:         "Browse recorded allocation games and training runs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.root.SetOut(stdout)
	a.root.AddCommand(a.newListCmd(), a.newShowCmd(), a.newProgressCmd())
	return a
}

// Execute runs the CLI with os.Args.
func (a *app) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (a *app) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.root.ExecuteContext(ctx)
}

func (a *app) newListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := a.episodes()
			if err != nil {
				return err
			}
			defer closeFn()

			eps, err := svc.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list episodes: %w", err)
			}
			if len(eps) == 0 {
				fmt.Fprintln(a.stdout, "No episodes recorded.")
				return nil
			}
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSOURCE\tOPPONENT\tROLE\tPERIODS\tCONVERGED\tEFFICIENCY\tFINISHED")
			for _, ep := range eps {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%v\t%.3f\t%s\n",
					ep.ID, ep.Source, ep.Opponent, ep.PlayerType, ep.Periods, ep.Converged,
					ep.AvgEfficiency, ep.FinishedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of episodes to show (max 100)")
	return cmd
}

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <episode-id>",
		Short: "Show one episode period by period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.episodes()
			if err != nil {
				return err
			}
			defer closeFn()

			ep, periods, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Episode %s (%s vs %s, agent %s)\n", ep.ID, ep.Source, ep.Opponent, ep.PlayerType)
			fmt.Fprintf(a.stdout, "greed %.2f  envy %.2f  efficiency %.3f  final kindness %.2f\n\n",
				ep.Greed, ep.Envy, ep.AvgEfficiency, ep.FinalKindness)

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "period\tcontrib H\tcontrib L\tpayoff H\tpayoff L\treward\tkindness\tstable\t")
			for _, p := range periods {
				fmt.Fprintf(w, "%d\t%d\t%d\t%.0f\t%.0f\t%.2f\t%.2f\t%d\t\n",
					p.Number, p.ContributionHigh, p.ContributionLow, p.PayoffHigh, p.PayoffLow,
					p.Reward, p.Kindness, p.Stability)
			}
			return w.Flush()
		},
	}
}

func (a *app) newProgressCmd() *cobra.Command {
	var scores int
	cmd := &cobra.Command{
		Use:   "progress <run-id>",
		Short: "Show the latest progress of a training run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.training(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			p, recent, err := svc.Status(cmd.Context(), scores)
			if err != nil {
				return fmt.Errorf("read progress: %w", err)
			}
			if p == nil {
				fmt.Fprintf(a.stdout, "No progress recorded for run %s.\n", args[0])
				return nil
			}
			fmt.Fprintf(a.stdout, "Run %s: episode %d/%d, score %.4f, average %.4f (updated %s)\n",
				p.RunID, p.Episode, p.Episodes, p.Score, p.AverageScore, p.UpdatedAt.Format("15:04:05"))
			if len(recent) > 0 {
				fmt.Fprintf(a.stdout, "last %d scores: %.3f\n", len(recent), recent)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&scores, "scores", 10, "Number of recent scores to show")
	return cmd
}
