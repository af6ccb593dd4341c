// Package config loads search, heuristic and logging settings from a YAML or
// JSON file and OPPAWARE_* environment variables.
package config

import (
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"oppaware/game"
	"oppaware/heuristic"
	"oppaware/searcher"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEpisodes = 150
	envPrefix       = "OPPAWARE_"
)

type Config struct {
	Search    SearchConfig      `json:"search" yaml:"search"`
	Budget    BudgetConfig      `json:"budget" yaml:"budget"`
	Heuristic heuristic.Weights `json:"heuristic" yaml:"heuristic"`
	// Opponents holds a fixed aggressiveness score per player, used when no
	// live frequency tracker is available
	Opponents map[int]float64 `json:"opponents" yaml:"opponents"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

type SearchConfig struct {
	ExplorationConstant float64 `json:"exploration_constant" yaml:"exploration_constant"`
	Epsilon             float64 `json:"epsilon" yaml:"epsilon"`
	MaxTreeDepth        int     `json:"max_tree_depth" yaml:"max_tree_depth"`
	RolloutLength       int     `json:"rollout_length" yaml:"rollout_length"`
	ActionSpace         string  `json:"action_space" yaml:"action_space"`
}

// BudgetConfig bounds a single decision. The search stops at whichever limit
// is reached first; at least one must be set.
type BudgetConfig struct {
	Episodes int           `json:"episodes" yaml:"episodes"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Seed     uint64        `json:"seed" yaml:"seed"` // 0 seeds from the clock
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"` // Human readable console output
}

func Default() Config {
	params := searcher.DefaultParams()
	return Config{
		Search: SearchConfig{
			ExplorationConstant: params.K,
			Epsilon:             params.Epsilon,
			MaxTreeDepth:        params.MaxTreeDepth,
			RolloutLength:       params.RolloutLength,
			ActionSpace:         params.ActionSpace.String(),
		},
		Budget: BudgetConfig{
			Episodes: DefaultEpisodes,
		},
		Heuristic: heuristic.DefaultWeights(),
		Opponents: map[int]float64{},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load merges configuration with priority env > file > defaults. An empty
// path or a missing file leaves the defaults in place.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		if err := loadFile(path, &config); err != nil {
			return config, errors.Wrapf(err, "load config file %s", path)
		}
	}

	if err := loadEnv(&config); err != nil {
		return config, err
	}

	if err := config.Validate(); err != nil {
		return config, errors.Wrap(err, "invalid config")
	}
	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return errors.Wrapf(jsonErr, "parse config (tried YAML and JSON): YAML error: %v, JSON error", err)
		}
	}
	return nil
}

// loadEnv applies OPPAWARE_* overrides. Malformed values are reported rather
// than ignored.
func loadEnv(config *Config) error {
	floats := map[string]*float64{
		"EXPLORATION_CONSTANT": &config.Search.ExplorationConstant,
		"EPSILON":              &config.Search.Epsilon,
		"MAX_EXPECTED_SCORE":   &config.Heuristic.MaxExpectedScore,
		"PENALTY_WEIGHT":       &config.Heuristic.Lambda,
		"BONUS_WEIGHT":         &config.Heuristic.Beta,
	}
	for name, dst := range floats {
		if v, ok := lookupEnv(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errors.Wrapf(err, "%s%s", envPrefix, name)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"MAX_TREE_DEPTH": &config.Search.MaxTreeDepth,
		"ROLLOUT_LENGTH": &config.Search.RolloutLength,
		"EPISODES":       &config.Budget.Episodes,
	}
	for name, dst := range ints {
		if v, ok := lookupEnv(name); ok {
			i, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "%s%s", envPrefix, name)
			}
			*dst = i
		}
	}

	if v, ok := lookupEnv("DURATION"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "%sDURATION", envPrefix)
		}
		config.Budget.Duration = d
	}
	if v, ok := lookupEnv("SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "%sSEED", envPrefix)
		}
		config.Budget.Seed = seed
	}
	if v, ok := lookupEnv("ACTION_SPACE"); ok {
		config.Search.ActionSpace = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		config.Logging.Level = v
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(envPrefix + name))
	return v, v != ""
}

func (c Config) Validate() error {
	params, err := c.SearchParams()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if err := c.Heuristic.Validate(); err != nil {
		return err
	}
	if c.Budget.Episodes < 0 {
		return errors.Errorf("episodes must be >= 0, got %d", c.Budget.Episodes)
	}
	if c.Budget.Duration < 0 {
		return errors.Errorf("duration must be >= 0, got %v", c.Budget.Duration)
	}
	if c.Budget.Episodes == 0 && c.Budget.Duration == 0 {
		return searcher.ErrNoBudget
	}
	for player, score := range c.Opponents {
		if !(score >= 0) || math.IsInf(score, 0) {
			return errors.Errorf("aggressiveness of player %d must be finite and >= 0, got %v", player, score)
		}
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func (c Config) SearchParams() (searcher.Params, error) {
	space, err := game.ParseActionSpace(c.Search.ActionSpace)
	if err != nil {
		return searcher.Params{}, err
	}
	return searcher.Params{
		K:             c.Search.ExplorationConstant,
		Epsilon:       c.Search.Epsilon,
		MaxTreeDepth:  c.Search.MaxTreeDepth,
		RolloutLength: c.Search.RolloutLength,
		ActionSpace:   space,
	}, nil
}

func (c Config) HeuristicWeights() heuristic.Weights { return c.Heuristic }

// Aggressiveness returns the configured opponent scores
func (c Config) Aggressiveness() heuristic.Static {
	static := make(heuristic.Static, len(c.Opponents))
	for player, score := range c.Opponents {
		static[player] = score
	}
	return static
}

// SearchOptions converts the search and budget sections into engine options.
func (c Config) SearchOptions() ([]searcher.Option, error) {
	params, err := c.SearchParams()
	if err != nil {
		return nil, err
	}
	options := []searcher.Option{
		searcher.WithParams(params),
		searcher.WithEpisodes(c.Budget.Episodes),
		searcher.WithDuration(c.Budget.Duration),
	}
	if c.Budget.Seed != 0 {
		options = append(options, searcher.WithSeed(c.Budget.Seed))
	}
	return options, nil
}

func (c Config) LogLevel() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level))
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "log level %q", c.Logging.Level)
	}
	return level, nil
}
