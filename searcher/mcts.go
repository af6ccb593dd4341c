package searcher

import (
	"context"
	"fmt"
	"time"

	"oppaware/game"
	"oppaware/metrics"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type Option func(m *MCTS)

// MCTS searches one decision at a time. Every call to Reset or Search builds
// a fresh tree; nothing is reused across decisions. An MCTS is not safe for
// concurrent use, run independent instances with their own random streams
// instead.
type MCTS struct {
	params   Params
	episodes int
	duration time.Duration
	model    game.ForwardModel
	evaluate game.Evaluate
	rng      *rand.Rand
	metrics  metrics.Collector
	logger   zerolog.Logger
	tree     *tree
	root     nodeID
	metric   metrics.SearchMetric
}

// ActionStat summarises a root action after a search
type ActionStat struct {
	Action   game.Action
	Expanded bool
	Visits   int
	Value    float64 // Mean backed up value
}

func WithParams(params Params) Option {
	return func(m *MCTS) {
		m.params = params
	}
}

// WithSeed makes the search reproducible
func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(m *MCTS) {
		if rng != nil {
			m.rng = rng
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(m *MCTS) {
		if episodes > 0 {
			m.episodes = episodes
		}
	}
}

func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(m *MCTS) {
		if collector != nil {
			m.metrics = collector
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *MCTS) {
		m.logger = logger
	}
}

func NewMCTS(model game.ForwardModel, evaluate game.Evaluate, options ...Option) (*MCTS, error) {
	if model == nil {
		return nil, errors.New("forward model is required")
	}
	if evaluate == nil {
		return nil, errors.New("evaluation function is required")
	}

	m := &MCTS{ // Default values
		params:   DefaultParams(),
		model:    model,
		evaluate: evaluate,
		metrics:  metrics.NewDummyCollector(),
		logger:   log.Logger,
		root:     noNode,
	}
	for _, option := range options {
		option(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	if err := m.params.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MCTS) Params() Params { return m.params }

// Reset discards the previous tree and roots a new one at a copy of state.
func (m *MCTS) Reset(state game.State) error {
	m.tree = nil
	m.root = noNode

	t := newTree(m.params, m.model, m.evaluate, m.rng, m.metrics)
	root, err := t.newNode(noNode, state.Copy())
	if err != nil {
		return errors.Wrap(err, "create root")
	}
	m.tree = t
	m.root = root
	return nil
}

// RunOneIteration runs a single selection, expansion, rollout and backup
// cycle. An error leaves the tree as it was before the failing step and
// should end the search.
func (m *MCTS) RunOneIteration() error {
	if m.tree == nil {
		return ErrNoRoot
	}
	return m.simulate()
}

// RecommendAction returns the most visited root action, or false if no root
// action has been visited yet.
func (m *MCTS) RecommendAction() (game.Action, bool) {
	if m.tree == nil {
		return nil, false
	}
	return m.tree.bestAction(m.root)
}

// Search resets the tree at state and runs cycles until the episode or
// duration budget is spent or ctx is done, whichever comes first. Budgets and
// ctx are only checked between cycles. Cancellation is not an error: the best
// action found so far is returned.
func (m *MCTS) Search(ctx context.Context, state game.State) (game.Action, bool, error) {
	if m.episodes <= 0 && m.duration <= 0 {
		return nil, false, ErrNoBudget
	}
	if err := m.Reset(state); err != nil {
		return nil, false, err
	}

	m.logger.Debug().
		Int("player", state.CurrentPlayer()).
		Int("episodes", m.episodes).
		Dur("duration", m.duration).
		Msg("starting search")

	m.metrics.Start()
	err := m.run(ctx)
	m.metric = m.metrics.Complete()
	m.metric.Nodes = m.Size()
	if err != nil {
		return nil, false, err
	}

	action, ok := m.RecommendAction()
	if !ok {
		m.logger.Warn().Msgf("no action to recommend after %d episodes", m.tree.nodes[m.root].visits)
		return nil, false, nil
	}
	m.logger.Info().
		Int("episodes", m.tree.nodes[m.root].visits).
		Int("nodes", m.Size()).
		Dur("elapsed", m.metric.Duration).
		Str("action", fmt.Sprint(action)).
		Msg("search complete")
	return action, true, nil
}

func (m *MCTS) run(ctx context.Context) error {
	start := time.Now()
	for i := 0; ; i++ {
		if m.episodes > 0 && i >= m.episodes {
			return nil
		}
		if m.duration > 0 && time.Since(start) >= m.duration {
			return nil
		}
		select {
		case <-ctx.Done():
			m.logger.Debug().Err(ctx.Err()).Msgf("search interrupted after %d episodes", i)
			return nil
		default:
		}

		if err := m.simulate(); err != nil {
			return err
		}
	}
}

func (m *MCTS) simulate() error {
	leaf, err := m.tree.selectToExpand(m.root)
	if err != nil {
		return err
	}
	result, terminal, err := m.tree.rollout(leaf)
	if err != nil {
		return err
	}
	if terminal {
		m.metrics.AddFullPlayout()
	}
	m.tree.backup(leaf, result)
	m.metrics.AddEpisode()
	return nil
}

// Metric returns the metrics of the last Search
func (m *MCTS) Metric() metrics.SearchMetric { return m.metric }

// Size returns the number of nodes in the current tree
func (m *MCTS) Size() int {
	if m.tree == nil {
		return 0
	}
	return len(m.tree.nodes)
}

// Visits returns the visit count of the root child reached by action.
func (m *MCTS) Visits(action game.Action) (int, bool) {
	if m.tree == nil {
		return 0, false
	}
	child, ok := m.tree.nodes[m.root].child(action)
	if !ok {
		return 0, false
	}
	if child == noNode {
		return 0, true
	}
	return m.tree.nodes[child].visits, true
}

// RootStats lists every root action in enumeration order
func (m *MCTS) RootStats() []ActionStat {
	if m.tree == nil {
		return nil
	}
	root := &m.tree.nodes[m.root]
	stats := make([]ActionStat, 0, len(root.edges))
	for _, e := range root.edges {
		stat := ActionStat{Action: e.action}
		if e.child != noNode {
			c := &m.tree.nodes[e.child]
			stat.Expanded = true
			stat.Visits = c.visits
			stat.Value = c.meanValue()
		}
		stats = append(stats, stat)
	}
	return stats
}

// Policy returns each visited root action's share of the root children's visits
func (m *MCTS) Policy() map[game.Action]float64 {
	stats := m.RootStats()
	total := 0
	for _, s := range stats {
		total += s.Visits
	}
	policy := make(map[game.Action]float64, len(stats))
	if total == 0 {
		return policy
	}
	for _, s := range stats {
		if s.Visits > 0 {
			policy[s.Action] = float64(s.Visits) / float64(total)
		}
	}
	return policy
}
