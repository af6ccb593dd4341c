package searcher

import (
	"math"

	"oppaware/game"

	"github.com/pkg/errors"
)

var (
	ErrNoRoot        = errors.New("search has no root, call Reset first")
	ErrNoBudget      = errors.New("must specify search episodes or duration")
	ErrInvalidParams = errors.New("invalid search parameters")
)

// Hyperparameters for MCTS
type Params struct {
	K             float64          `json:"exploration_constant" yaml:"exploration_constant"`
	Epsilon       float64          `json:"epsilon" yaml:"epsilon"` // Numeric stability and tie-break noise scale
	MaxTreeDepth  int              `json:"max_tree_depth" yaml:"max_tree_depth"`
	RolloutLength int              `json:"rollout_length" yaml:"rollout_length"`
	ActionSpace   game.ActionSpace `json:"-" yaml:"-"`
}

// DefaultParams favour deeper planning over multi-round games
func DefaultParams() Params {
	return Params{
		K:             math.Sqrt2,
		Epsilon:       1e-6,
		MaxTreeDepth:  50,
		RolloutLength: 20,
		ActionSpace:   game.DefaultActionSpace,
	}
}

func (p Params) Validate() error {
	if !(p.K >= 0) || math.IsInf(p.K, 0) {
		return errors.Wrapf(ErrInvalidParams, "exploration constant must be finite and >= 0, got %v", p.K)
	}
	if !(p.Epsilon > 0) || math.IsInf(p.Epsilon, 0) {
		return errors.Wrapf(ErrInvalidParams, "epsilon must be finite and > 0, got %v", p.Epsilon)
	}
	if p.MaxTreeDepth < 0 {
		return errors.Wrapf(ErrInvalidParams, "max tree depth must be >= 0, got %d", p.MaxTreeDepth)
	}
	if p.RolloutLength < 0 {
		return errors.Wrapf(ErrInvalidParams, "rollout length must be >= 0, got %d", p.RolloutLength)
	}
	return nil
}
