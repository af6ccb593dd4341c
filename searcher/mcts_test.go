package searcher

import (
	"bytes"
	"context"
	"testing"
	"time"

	"oppaware/game"
	"oppaware/game/draft"
	"oppaware/heuristic"
	"oppaware/metrics"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func byLength(state game.State, player int) float64 {
	return float64(len(state.(*mockState).played)%3) / 3
}

func TestNewMCTS(t *testing.T) {
	t.Run("forward model is required", func(t *testing.T) {
		_, err := NewMCTS(nil, constant(0))
		require.Error(t, err)
	})

	t.Run("evaluation function is required", func(t *testing.T) {
		_, err := NewMCTS(&mockModel{}, nil)
		require.Error(t, err)
	})

	t.Run("invalid parameters are rejected", func(t *testing.T) {
		params := DefaultParams()
		params.Epsilon = 0
		_, err := NewMCTS(&mockModel{}, constant(0), WithParams(params))
		require.ErrorIs(t, err, ErrInvalidParams)
	})

	t.Run("defaults", func(t *testing.T) {
		m, err := NewMCTS(&mockModel{}, constant(0))
		require.NoError(t, err)
		require.Equal(t, DefaultParams(), m.Params())
		require.Equal(t, 0, m.Size())
	})
}

func TestRunOneIteration(t *testing.T) {
	t.Run("requires a root", func(t *testing.T) {
		m, err := NewMCTS(&mockModel{moves: moves(0)}, constant(0))
		require.NoError(t, err)

		require.ErrorIs(t, m.RunOneIteration(), ErrNoRoot)
		_, ok := m.RecommendAction()
		require.False(t, ok)
	})

	t.Run("no iterations means no recommendation", func(t *testing.T) {
		m, err := NewMCTS(&mockModel{moves: moves(0, 1, 2)}, constant(0), WithSeed(1))
		require.NoError(t, err)
		require.NoError(t, m.Reset(&mockState{players: 2}))

		_, ok := m.RecommendAction()

		require.False(t, ok)
	})

	t.Run("single action after one iteration", func(t *testing.T) {
		m, err := NewMCTS(&mockModel{moves: moves(4)}, constant(0.5), WithSeed(1))
		require.NoError(t, err)
		require.NoError(t, m.Reset(&mockState{players: 2}))

		require.NoError(t, m.RunOneIteration())

		action, ok := m.RecommendAction()
		require.True(t, ok)
		require.Equal(t, mockMove{id: 4}, action)
		visits, ok := m.Visits(action)
		require.True(t, ok)
		require.Equal(t, 1, visits)
	})

	t.Run("forward model failure ends the iteration", func(t *testing.T) {
		cause := errors.New("rules engine crashed")
		model := &mockModel{moves: moves(0, 1), legalErr: cause, legalErrAfter: 1}
		m, err := NewMCTS(model, constant(0), WithSeed(1))
		require.NoError(t, err)
		require.NoError(t, m.Reset(&mockState{players: 2}))

		err = m.RunOneIteration()

		require.ErrorIs(t, err, cause)
		require.Equal(t, 1, m.Size(), "No partial child should be linked")
		_, ok := m.RecommendAction()
		require.False(t, ok)
	})

	t.Run("root is a copy of the given state", func(t *testing.T) {
		state := &mockState{players: 2}
		m, err := NewMCTS(&mockModel{moves: moves(0, 1)}, constant(0), WithSeed(1))
		require.NoError(t, err)
		require.NoError(t, m.Reset(state))

		for i := 0; i < 10; i++ {
			require.NoError(t, m.RunOneIteration())
		}

		require.Empty(t, state.played)
	})

	t.Run("failing root is reported", func(t *testing.T) {
		cause := errors.New("no rules")
		m, err := NewMCTS(&mockModel{legalErr: cause}, constant(0))
		require.NoError(t, err)

		require.ErrorIs(t, m.Reset(&mockState{players: 2}), cause)
		require.ErrorIs(t, m.RunOneIteration(), ErrNoRoot)
	})
}

func TestSearch(t *testing.T) {
	t.Run("a budget is required", func(t *testing.T) {
		m, err := NewMCTS(&mockModel{moves: moves(0)}, constant(0))
		require.NoError(t, err)

		_, _, err = m.Search(context.Background(), &mockState{players: 2})

		require.ErrorIs(t, err, ErrNoBudget)
	})

	t.Run("every episode visits the root once", func(t *testing.T) {
		collector := metrics.NewCollector()
		m, err := NewMCTS(&mockModel{moves: moves(0, 1, 2)}, byLength, WithSeed(3), WithEpisodes(50), WithMetrics(collector))
		require.NoError(t, err)

		_, ok, err := m.Search(context.Background(), &mockState{players: 2})

		require.NoError(t, err)
		require.True(t, ok)
		total := 0
		for _, stat := range m.RootStats() {
			total += stat.Visits
		}
		require.Equal(t, 50, total)
		require.Equal(t, 50, m.Metric().Episodes)
		require.Equal(t, m.Size()-1, m.Metric().Expansions)
		require.Equal(t, m.Size(), m.Metric().Nodes)
	})

	t.Run("full playouts are counted", func(t *testing.T) {
		collector := metrics.NewCollector()
		m, err := NewMCTS(&mockModel{moves: moves(0, 1)}, constant(0), WithSeed(3), WithEpisodes(10), WithMetrics(collector))
		require.NoError(t, err)

		_, _, err = m.Search(context.Background(), &mockState{players: 2, limit: 3})

		require.NoError(t, err)
		require.Equal(t, 10, m.Metric().FullPlayouts)
	})

	t.Run("same seed same search", func(t *testing.T) {
		run := func() []ActionStat {
			m, err := NewMCTS(&mockModel{moves: moves(0, 1, 2, 3)}, byLength, WithSeed(42), WithEpisodes(100))
			require.NoError(t, err)
			_, _, err = m.Search(context.Background(), &mockState{players: 3})
			require.NoError(t, err)
			return m.RootStats()
		}

		require.Equal(t, run(), run())
	})

	t.Run("policy sums to one", func(t *testing.T) {
		m, err := NewMCTS(&mockModel{moves: moves(0, 1, 2)}, byLength, WithSeed(5), WithEpisodes(30))
		require.NoError(t, err)
		_, _, err = m.Search(context.Background(), &mockState{players: 2})
		require.NoError(t, err)

		sum := 0.0
		for _, share := range m.Policy() {
			sum += share
		}
		require.InDelta(t, 1.0, sum, 1e-9)
	})

	t.Run("duration budget", func(t *testing.T) {
		m, err := NewMCTS(&mockModel{moves: moves(0, 1)}, constant(0.5), WithSeed(5), WithDuration(5*time.Millisecond))
		require.NoError(t, err)

		_, ok, err := m.Search(context.Background(), &mockState{players: 2})

		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("cancelled context stops the search without error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m, err := NewMCTS(&mockModel{moves: moves(0, 1)}, constant(0), WithEpisodes(100))
		require.NoError(t, err)

		_, ok, err := m.Search(ctx, &mockState{players: 2})

		require.NoError(t, err)
		require.False(t, ok, "No cycle should have run")
		require.Equal(t, 1, m.Size())
	})

	t.Run("forward model failure aborts the search", func(t *testing.T) {
		cause := errors.New("desync")
		model := &mockModel{moves: moves(0, 1), legalErr: cause, legalErrAfter: 2}
		m, err := NewMCTS(model, constant(0), WithSeed(1), WithEpisodes(100))
		require.NoError(t, err)

		action, ok, err := m.Search(context.Background(), &mockState{players: 2})

		require.ErrorIs(t, err, cause)
		require.False(t, ok)
		require.Nil(t, action)
	})

	t.Run("completion is logged", func(t *testing.T) {
		var buf bytes.Buffer
		m, err := NewMCTS(&mockModel{moves: moves(0, 1)}, constant(0), WithSeed(1), WithEpisodes(5), WithLogger(zerolog.New(&buf)))
		require.NoError(t, err)

		_, _, err = m.Search(context.Background(), &mockState{players: 2})

		require.NoError(t, err)
		require.Contains(t, buf.String(), "search complete")
	})

	t.Run("picking the highest card in a draft", func(t *testing.T) {
		state, err := draft.NewState(2, []int{1, 9})
		require.NoError(t, err)
		eval, err := heuristic.NewOpponentAware(heuristic.Static{}, heuristic.DefaultWeights())
		require.NoError(t, err)
		params := DefaultParams()
		params.K = 0.1
		m, err := NewMCTS(draft.Rules{}, eval.Evaluator(), WithParams(params), WithSeed(11), WithEpisodes(200))
		require.NoError(t, err)

		action, ok, err := m.Search(context.Background(), state)

		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, draft.Take{Value: 9}, action)
		require.Equal(t, []int{1, 9}, state.Pool, "Search should not change the given state")
	})
}
