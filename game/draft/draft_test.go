package draft

import (
	"testing"

	"oppaware/game"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestLegalActions(t *testing.T) {
	t.Run("one action per distinct card in ascending order", func(t *testing.T) {
		state, err := NewState(2, []int{5, 1, 3, 3, 1})
		require.NoError(t, err)

		got, err := Rules{}.LegalActions(state, game.DefaultActionSpace)

		require.NoError(t, err)
		want := []game.Action{Take{1}, Take{3}, Take{5}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("legal actions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty pool is terminal with no actions", func(t *testing.T) {
		state, err := NewState(3, nil)
		require.NoError(t, err)

		got, err := Rules{}.LegalActions(state, game.DefaultActionSpace)

		require.NoError(t, err)
		require.Empty(t, got, "Empty pool should have no legal actions")
		require.True(t, state.IsTerminal(), "Empty pool should be terminal")
	})

	t.Run("rejecting unsupported action space", func(t *testing.T) {
		state, err := NewState(2, []int{1})
		require.NoError(t, err)

		_, err = Rules{}.LegalActions(state, game.DeepActionSpace)

		require.ErrorIs(t, err, game.ErrUnknownActionSpace)
	})
}

func TestApply(t *testing.T) {
	t.Run("taking a card scores it and passes the turn", func(t *testing.T) {
		state, err := NewState(2, []int{2, 7, 7})
		require.NoError(t, err)

		err = Rules{}.Apply(state, Take{7})

		require.NoError(t, err)
		require.Equal(t, []int{2, 7}, state.Pool, "One card should leave the pool")
		require.Equal(t, []float64{7, 0}, state.Scores, "Mover should score the card")
		require.Equal(t, 1, state.CurrentPlayer(), "Turn should pass to the next player")
		require.Equal(t, 1, state.Turn)
	})

	t.Run("taking a missing card fails without changing the state", func(t *testing.T) {
		state, err := NewState(2, []int{2})
		require.NoError(t, err)

		err = Rules{}.Apply(state, Take{9})

		require.True(t, errors.Is(err, game.ErrIllegalAction), "Should report an illegal action")
		require.Equal(t, []int{2}, state.Pool)
		require.Equal(t, 0, state.CurrentPlayer())
	})

	t.Run("copies are independent", func(t *testing.T) {
		state, err := NewState(2, []int{1, 2, 3})
		require.NoError(t, err)
		clone := state.Copy()

		require.NoError(t, Rules{}.Apply(clone, Take{3}))

		require.Equal(t, []int{1, 2, 3}, state.Pool, "Original pool should not change")
		require.Equal(t, []float64{0, 0}, state.Scores, "Original scores should not change")
	})
}

func TestScore(t *testing.T) {
	state, err := NewState(2, []int{4})
	require.NoError(t, err)

	_, err = state.Score(2)

	require.ErrorIs(t, err, game.ErrScoreUnavailable)
}

func TestParseCards(t *testing.T) {
	got, err := ParseCards("3, 1,,8")
	require.NoError(t, err)
	require.Equal(t, []int{3, 1, 8}, got)

	_, err = ParseCards("3,x")
	require.Error(t, err)
}
