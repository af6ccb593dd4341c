// Package draft is a small perfect-information card drafting game: players take
// turns taking one card from a shared pool and score its face value. The game
// ends when the pool is empty.
package draft

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"oppaware/game"

	"github.com/pkg/errors"
)

// Take removes one card of the given value from the pool.
type Take struct {
	Value int
}

func (t Take) Copy() game.Action { return t }

func (t Take) String() string { return "take " + strconv.Itoa(t.Value) }

type State struct {
	Pool   []int // Remaining card values, ascending
	Scores []float64
	Player int // Player to move
	Turn   int
}

func NewState(players int, cards []int) (*State, error) {
	if players < 1 {
		return nil, errors.Errorf("need at least one player, got %d", players)
	}
	for _, c := range cards {
		if c < 0 {
			return nil, errors.Errorf("card values must be non-negative, got %d", c)
		}
	}
	pool := append([]int(nil), cards...)
	sort.Ints(pool)
	return &State{
		Pool:   pool,
		Scores: make([]float64, players),
	}, nil
}

// ParseCards parses a comma separated list of card values
func ParseCards(s string) ([]int, error) {
	var cards []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, errors.Wrapf(err, "card %q", field)
		}
		cards = append(cards, v)
	}
	return cards, nil
}

func (s *State) Copy() game.State {
	return &State{
		Pool:   append([]int(nil), s.Pool...),
		Scores: append([]float64(nil), s.Scores...),
		Player: s.Player,
		Turn:   s.Turn,
	}
}

func (s *State) IsTerminal() bool { return len(s.Pool) == 0 }

func (s *State) CurrentPlayer() int { return s.Player }

func (s *State) PlayerCount() int { return len(s.Scores) }

func (s *State) Score(player int) (float64, error) {
	if player < 0 || player >= len(s.Scores) {
		return 0, errors.Wrapf(game.ErrScoreUnavailable, "unknown player %d", player)
	}
	return s.Scores[player], nil
}

func (s *State) String() string {
	return fmt.Sprintf("turn=%d player=%d pool=%v scores=%v", s.Turn, s.Player, s.Pool, s.Scores)
}

// Rules is the draft forward model.
type Rules struct{}

func (Rules) LegalActions(state game.State, space game.ActionSpace) ([]game.Action, error) {
	s, err := asState(state)
	if err != nil {
		return nil, err
	}
	if space != game.DefaultActionSpace && space != game.FlatActionSpace {
		return nil, errors.Wrapf(game.ErrUnknownActionSpace, "draft does not support %s", space)
	}

	// One action per distinct value, in ascending order
	actions := make([]game.Action, 0, len(s.Pool))
	for i, v := range s.Pool {
		if i > 0 && s.Pool[i-1] == v {
			continue
		}
		actions = append(actions, Take{Value: v})
	}
	return actions, nil
}

func (Rules) Apply(state game.State, action game.Action) error {
	s, err := asState(state)
	if err != nil {
		return err
	}
	take, ok := action.(Take)
	if !ok {
		return errors.Wrapf(game.ErrIllegalAction, "unexpected action type %T", action)
	}

	i := sort.SearchInts(s.Pool, take.Value)
	if i == len(s.Pool) || s.Pool[i] != take.Value {
		return errors.Wrapf(game.ErrIllegalAction, "no card %d in pool", take.Value)
	}
	s.Pool = append(s.Pool[:i], s.Pool[i+1:]...)
	s.Scores[s.Player] += float64(take.Value)
	s.Player = (s.Player + 1) % len(s.Scores)
	s.Turn++
	return nil
}

func asState(state game.State) (*State, error) {
	s, ok := state.(*State)
	if !ok {
		return nil, errors.Errorf("unexpected state type %T", state)
	}
	return s, nil
}
