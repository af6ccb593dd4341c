package game

import "github.com/pkg/errors"

// The searcher package only depends on the contracts in this file. Any game
// that aims to be playable by an MCTS agent implements State and ForwardModel.

var (
	ErrUnknownActionSpace = errors.New("unknown action space")
	ErrIllegalAction      = errors.New("illegal action")
	// ErrScoreUnavailable is returned by State.Score when a position cannot be scored yet
	ErrScoreUnavailable = errors.New("score unavailable")
)

// ActionSpace selects which subset or encoding of legal actions a forward
// model enumerates.
type ActionSpace int

const (
	DefaultActionSpace ActionSpace = iota
	FlatActionSpace
	DeepActionSpace
)

func (a ActionSpace) String() string {
	switch a {
	case DefaultActionSpace:
		return "default"
	case FlatActionSpace:
		return "flat"
	case DeepActionSpace:
		return "deep"
	}
	return "unknown"
}

// ParseActionSpace is the inverse of ActionSpace.String
func ParseActionSpace(s string) (ActionSpace, error) {
	switch s {
	case "", "default":
		return DefaultActionSpace, nil
	case "flat":
		return FlatActionSpace, nil
	case "deep":
		return DeepActionSpace, nil
	}
	return 0, errors.Wrapf(ErrUnknownActionSpace, "%q", s)
}

// Action identifies a legal move from a state. Dynamic types must be
// comparable since actions are used as map keys.
type Action interface {
	// Copy returns an independent copy, the forward model is allowed to mutate
	// the action it is given
	Copy() Action
}

// State is a mutable game position.
type State interface {
	Copy() State
	IsTerminal() bool
	CurrentPlayer() int
	PlayerCount() int
	// Score may fail for positions that are too early to score
	Score(player int) (float64, error)
}

// ForwardModel implements the game rules.
type ForwardModel interface {
	// LegalActions enumerates the legal actions in a stable order
	LegalActions(state State, space ActionSpace) ([]Action, error)
	// Apply mutates state in place to its successor
	Apply(state State, action Action) error
}

// Evaluate scores a state in [0, 1] from player's perspective.
type Evaluate func(state State, player int) float64
