package cmd

import (
	"fmt"
	"os"
	"strconv"

	"oppaware/config"
	"oppaware/game/draft"
	"oppaware/heuristic"
	"oppaware/metrics"
	"oppaware/searcher"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newDecideCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Recommend a move for the player to act in a card draft",
		Long: `Builds a card draft position, searches it with opponent-aware MCTS and
prints the recommended move with the visit share of every root move.`,
		Args: cobra.NoArgs,
		RunE: runDecide,
	}

	f := cmd.Flags()
	f.Int("players", 2, "number of players")
	f.String("cards", "1,2,3,4,5,6,7,8,9,10", "comma separated card values in the pool")
	f.Int("episodes", 0, "search episodes, overrides the config")
	f.Duration("duration", 0, "search time budget, overrides the config")
	f.Uint64("seed", 0, "random seed, overrides the config")
	f.StringToString("aggr", nil, "opponent aggressiveness as player=score pairs")
	f.String("dot", "", "write the search tree in Graphviz dot format to this file")
	f.String("metrics-dir", "", "write a decision record CSV under this directory")
	f.String("prometheus", "", "write search counters in Prometheus text format to this file")
	return cmd
}

func runDecide(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	f := cmd.Flags()
	players, _ := f.GetInt("players")
	cardList, _ := f.GetString("cards")
	cards, err := draft.ParseCards(cardList)
	if err != nil {
		return err
	}
	state, err := draft.NewState(players, cards)
	if err != nil {
		return err
	}

	eval, err := heuristic.NewOpponentAware(cfg.Aggressiveness(), cfg.HeuristicWeights())
	if err != nil {
		return err
	}

	options, err := cfg.SearchOptions()
	if err != nil {
		return err
	}
	var collector metrics.Collector = metrics.NewCollector()
	registry := prometheus.NewRegistry()
	promPath, _ := f.GetString("prometheus")
	if promPath != "" {
		if collector, err = metrics.NewPrometheusCollector(registry); err != nil {
			return err
		}
	}
	options = append(options, searcher.WithMetrics(collector))

	mcts, err := searcher.NewMCTS(draft.Rules{}, eval.Evaluator(), options...)
	if err != nil {
		return err
	}

	action, ok, err := mcts.Search(cmd.Context(), state)
	if err != nil {
		return errors.Wrap(err, "search")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "position: %v\n", state)
	if ok {
		fmt.Fprintf(out, "recommended: %v\n", action)
	} else {
		fmt.Fprintln(out, "recommended: none")
	}
	policy := mcts.Policy()
	for _, stat := range mcts.RootStats() {
		fmt.Fprintf(out, "  %-10v visits=%-6d share=%.3f value=%.4f\n", stat.Action, stat.Visits, policy[stat.Action], stat.Value)
	}

	if path, _ := f.GetString("dot"); path != "" {
		dot, err := mcts.ToDot()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(dot), 0o644); err != nil {
			return errors.Wrap(err, "write dot file")
		}
		log.Info().Msgf("wrote search tree to %s", path)
	}

	if dir, _ := f.GetString("metrics-dir"); dir != "" {
		writer, err := metrics.NewWriter(dir)
		if err != nil {
			return err
		}
		record := metrics.DecisionRecord{
			Player:       state.CurrentPlayer(),
			SearchMetric: mcts.Metric(),
		}
		if ok {
			record.Action = fmt.Sprint(action)
		}
		if err := writer.WriteDecisionRecords([]metrics.DecisionRecord{record}); err != nil {
			return err
		}
		log.Info().Msgf("stored decision record in %s", writer.Dir())
	}

	if promPath != "" {
		if err := prometheus.WriteToTextfile(promPath, registry); err != nil {
			return errors.Wrap(err, "write prometheus textfile")
		}
	}
	return nil
}

// applyFlags overrides the config with explicitly set flags
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("episodes") {
		cfg.Budget.Episodes, _ = f.GetInt("episodes")
	}
	if f.Changed("duration") {
		cfg.Budget.Duration, _ = f.GetDuration("duration")
		if !f.Changed("episodes") {
			cfg.Budget.Episodes = 0
		}
	}
	if f.Changed("seed") {
		cfg.Budget.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("aggr") {
		pairs, _ := f.GetStringToString("aggr")
		if cfg.Opponents == nil {
			cfg.Opponents = map[int]float64{}
		}
		for k, v := range pairs {
			player, err := strconv.Atoi(k)
			if err != nil {
				return errors.Wrapf(err, "aggr player %q", k)
			}
			score, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errors.Wrapf(err, "aggr score for player %d", player)
			}
			cfg.Opponents[player] = score
		}
	}
	return nil
}
