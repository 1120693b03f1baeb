package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/allocation-game/internal/config"
	"github.com/freeeve/allocation-game/internal/logger"
	"github.com/freeeve/allocation-game/internal/repository/postgres"
	"github.com/freeeve/allocation-game/internal/service"
	"github.com/freeeve/allocation-game/internal/session"
	"github.com/freeeve/allocation-game/pkg/allocation"
)

func main() {
	var (
		configPath string
		role       string
		maxPeriods int
		seed       uint64
		save       bool
	)
	flag.StringVar(&configPath, "config", "", "YAML config file (overrides env)")
	flag.StringVar(&role, "role", "", "Agent role: low or high (default from config)")
	flag.IntVar(&maxPeriods, "max-periods", 0, "Maximum game length (0 = from config)")
	flag.Uint64Var(&seed, "seed", 0, "Agent random seed (0 = random)")
	flag.BoolVar(&save, "save", false, "Save finished games to DATABASE_URL")
	flag.Parse()

	logger.Init(zerolog.WarnLevel)

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}
	if role != "" {
		r, err := allocation.ParseRole(role)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid role")
		}
		cfg.Engine.Role = r
	}
	if maxPeriods > 0 {
		cfg.Engine.MaxPeriods = maxPeriods
	}

	var opts []allocation.Option
	if seed != 0 {
		opts = append(opts, allocation.WithSource(allocation.NewSeededSource(seed)))
	}
	engine, err := allocation.New(cfg.Engine, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Engine setup failed")
	}

	var episodes *service.EpisodeService
	if save {
		if cfg.DatabaseURL == "" {
			log.Fatal().Msg("-save requires DATABASE_URL")
		}
		db, err := postgres.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		episodes = service.NewEpisodeService(postgres.NewEpisodeRepo(db))
	}

	g := newGame(context.Background(), engine, episodes, os.Stdout)
	g.run(os.Stdin)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// game is the line-oriented front end: one contribution or command per line.
type game struct {
	ctx      context.Context
	session  *session.Session
	episodes *service.EpisodeService
	out      io.Writer
}

func newGame(ctx context.Context, engine *allocation.Engine, episodes *service.EpisodeService, out io.Writer) *game {
	return &game{
		ctx:      ctx,
		session:  session.New(ctx, engine, "human"),
		episodes: episodes,
		out:      out,
	}
}

// restart resets the agent and starts a new episode so each game is saved
// under its own ID.
func (g *game) restart() {
	g.session.Reset()
}

func (g *game) run(in io.Reader) {
	g.intro()
	sc := bufio.NewScanner(in)
	g.prompt()
	for sc.Scan() {
		if !g.handle(strings.TrimSpace(sc.Text())) {
			return
		}
		g.prompt()
	}
	if err := sc.Err(); err != nil {
		log.Error().Err(err).Msg("Reading input failed")
	}
}

func (g *game) intro() {
	role := g.session.Engine().Role()
	fmt.Fprintf(g.out, "You play the %s-cost role against a learning agent (%s cost).\n", role.Other(), role)
	fmt.Fprintf(g.out, "Contribute 0, 2, 4, 6, 8 or 10 each period. Together %d or more earns both of you %d.\n",
		allocation.BonusThreshold, allocation.Bonus)
	fmt.Fprintln(g.out, "Commands: history, summary, reset, help, quit")
}

func (g *game) prompt() {
	fmt.Fprintf(g.out, "period %d> ", g.session.Engine().Period()+1)
}

// handle processes one input line and reports whether to keep reading.
func (g *game) handle(line string) bool {
	switch strings.ToLower(line) {
	case "":
		return true
	case "q", "quit", "exit":
		return false
	case "help":
		g.intro()
		return true
	case "reset":
		g.restart()
		fmt.Fprintln(g.out, "New game with a fresh agent.")
		return true
	case "summary":
		g.printSummary()
		return true
	case "history":
		g.printHistory()
		return true
	}

	contribution, err := strconv.Atoi(line)
	if err != nil {
		fmt.Fprintf(g.out, "Unknown input %q; type help.\n", line)
		return true
	}
	level, err := allocation.LevelOf(contribution)
	if err != nil {
		fmt.Fprintln(g.out, "Contribution must be one of 0, 2, 4, 6, 8, 10.")
		return true
	}

	out, err := g.session.Play(level)
	if err != nil {
		fmt.Fprintf(g.out, "Error: %v\n", err)
		return true
	}
	fmt.Fprintf(g.out, "You gave %d, the agent gave %d. Your payoff %.0f, agent %.0f.\n",
		out.OtherContribution(), out.OwnContribution(), out.OtherPayoff, out.OwnPayoff)

	if out.Done {
		fmt.Fprintln(g.out, "Game over.")
		g.printSummary()
		g.save()
		g.restart()
		fmt.Fprintln(g.out, "A new game has started.")
	}
	return true
}

func (g *game) printSummary() {
	sum := g.session.Summary()
	w := tabwriter.NewWriter(g.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Periods\t%d\n", sum.Periods)
	fmt.Fprintf(w, "Converged\t%v\n", sum.Converged)
	fmt.Fprintf(w, "Agent greed / envy\t%.2f / %.2f\n", sum.Greed, sum.Envy)
	fmt.Fprintf(w, "Avg contribution high / low\t%.2f / %.2f\n", sum.AvgContributionHigh, sum.AvgContributionLow)
	fmt.Fprintf(w, "Avg agent reward\t%.2f\n", sum.AvgReward)
	fmt.Fprintf(w, "Efficiency\t%.2f\n", sum.AvgEfficiency)
	fmt.Fprintf(w, "Final kindness\t%.2f\n", sum.FinalKindness)
	w.Flush()
}

func (g *game) printHistory() {
	w := tabwriter.NewWriter(g.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "period\tcontrib H\tcontrib L\tpayoff H\tpayoff L\treward\tkindness\t")
	for _, o := range g.session.History().Outcomes() {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.0f\t%.0f\t%.2f\t%.2f\t\n",
			o.Period, o.ContributionHigh, o.ContributionLow, o.PayoffHigh(), o.PayoffLow(), o.Signal, o.Kindness)
	}
	w.Flush()
}

func (g *game) save() {
	if g.episodes == nil {
		return
	}
	ep, err := g.episodes.Save(g.ctx, g.session, "play")
	if err != nil {
		log.Error().Err(err).Msg("Saving game failed")
		return
	}
	fmt.Fprintf(g.out, "Saved as episode %s.\n", ep.ID)
}
