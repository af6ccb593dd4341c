package heuristic

import (
	"math"

	"oppaware/game"

	"github.com/pkg/errors"
)

var ErrInvalidWeights = errors.New("invalid heuristic weights")

// Aggressiveness estimates how competitively a player has been playing. Scores
// are expected to be non-negative.
type Aggressiveness interface {
	AggressivenessScore(player int) float64
}

type AggressivenessFunc func(player int) float64

func (f AggressivenessFunc) AggressivenessScore(player int) float64 { return f(player) }

// Static holds fixed scores by player, missing players score 0.
type Static map[int]float64

func (s Static) AggressivenessScore(player int) float64 { return s[player] }

type Weights struct {
	// MaxExpectedScore is a ceiling on typical end of game scores, used to
	// normalise self utility
	MaxExpectedScore float64 `json:"max_expected_score" yaml:"max_expected_score"`
	// Lambda weighs the average opponent aggressiveness penalty
	Lambda float64 `json:"penalty_weight" yaml:"penalty_weight"`
	// Beta is the per opponent unpredictability bonus
	Beta float64 `json:"bonus_weight" yaml:"bonus_weight"`
}

// DefaultWeights are calibrated for Sushi Go! round scores, which peak around 80-100.
func DefaultWeights() Weights {
	return Weights{
		MaxExpectedScore: 80,
		Lambda:           0.05,
		Beta:             0.02,
	}
}

func (w Weights) Validate() error {
	if !(w.MaxExpectedScore > 0) || math.IsInf(w.MaxExpectedScore, 0) {
		return errors.Wrapf(ErrInvalidWeights, "max_expected_score must be > 0, got %v", w.MaxExpectedScore)
	}
	if !(w.Lambda >= 0) {
		return errors.Wrapf(ErrInvalidWeights, "penalty_weight must be >= 0, got %v", w.Lambda)
	}
	if !(w.Beta >= 0) {
		return errors.Wrapf(ErrInvalidWeights, "bonus_weight must be >= 0, got %v", w.Beta)
	}
	return nil
}

// OpponentAware evaluates a state for a player by combining normalised self
// utility, a penalty for aggressive opponents and a bonus that grows the more
// passive the opponents are.
type OpponentAware struct {
	model   Aggressiveness
	weights Weights
}

func NewOpponentAware(model Aggressiveness, weights Weights) (*OpponentAware, error) {
	if model == nil {
		return nil, errors.New("aggressiveness model is required")
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &OpponentAware{model: model, weights: weights}, nil
}

func (h *OpponentAware) Weights() Weights { return h.weights }

// Evaluate returns a score in [0, 1], higher is better for player. It has no
// side effects and queries the model once per opponent.
func (h *OpponentAware) Evaluate(state game.State, player int) float64 {
	selfUtility, err := state.Score(player)
	if err != nil || math.IsNaN(selfUtility) || math.IsInf(selfUtility, 0) {
		selfUtility = 0 // Too early to score
	}
	normalized := clamp(selfUtility / h.weights.MaxExpectedScore)

	total, bonus := 0.0, 0.0
	opponents := 0
	for opp := 0; opp < state.PlayerCount(); opp++ {
		if opp == player {
			continue
		}
		aggr := h.aggressiveness(opp)
		total += aggr
		bonus += h.weights.Beta / (1 + aggr)
		opponents++
	}

	avg := 0.0
	if opponents > 0 {
		avg = total / float64(opponents)
	}
	penalty := h.weights.Lambda * avg

	return clamp(normalized - penalty + bonus)
}

// Evaluator adapts h to the searcher's evaluation function type
func (h *OpponentAware) Evaluator() game.Evaluate {
	return h.Evaluate
}

func (h *OpponentAware) aggressiveness(player int) float64 {
	// Negative and NaN scores carry no pressure
	if aggr := h.model.AggressivenessScore(player); aggr > 0 {
		return aggr
	}
	return 0
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
