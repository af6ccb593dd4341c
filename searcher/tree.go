package searcher

import (
	"math"

	"oppaware/game"
	"oppaware/metrics"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
)

// tree is one search session: a node arena rooted at index 0 and the
// collaborators every cycle needs.
type tree struct {
	params   Params
	model    game.ForwardModel
	evaluate game.Evaluate
	rng      *rand.Rand
	metrics  metrics.Collector
	nodes    []node
}

func newTree(params Params, model game.ForwardModel, evaluate game.Evaluate, rng *rand.Rand, collector metrics.Collector) *tree {
	return &tree{
		params:   params,
		model:    model,
		evaluate: evaluate,
		rng:      rng,
		metrics:  collector,
	}
}

// newNode takes ownership of state and links a node into the arena once the
// legal actions are known, so a failing forward model leaves the tree untouched.
func (t *tree) newNode(parent nodeID, state game.State) (nodeID, error) {
	depth := 0
	if parent != noNode {
		depth = t.nodes[parent].depth + 1
	}
	n := node{
		state:  state,
		parent: parent,
		depth:  depth,
	}

	if !state.IsTerminal() {
		actions, err := t.model.LegalActions(state, t.params.ActionSpace)
		if err != nil {
			return noNode, errors.Wrap(err, "compute legal actions")
		}
		n.edges = make([]edge, 0, len(actions))
		n.index = make(map[game.Action]int, len(actions))
		for _, action := range actions {
			if _, ok := n.index[action]; ok {
				continue
			}
			n.index[action] = len(n.edges)
			n.edges = append(n.edges, edge{action: action, child: noNode})
		}
		n.unexpanded = len(n.edges)
	}

	t.nodes = append(t.nodes, n)
	return nodeID(len(t.nodes) - 1), nil
}

// selectToExpand descends from id with UCB until it can expand a new child,
// or reaches a terminal node or the maximum tree depth.
func (t *tree) selectToExpand(id nodeID) (nodeID, error) {
	for {
		n := &t.nodes[id]
		if n.state.IsTerminal() || n.depth >= t.params.MaxTreeDepth {
			return id, nil
		}
		if n.unexpanded > 0 {
			return t.expand(id)
		}
		next := t.ucb(id)
		if next == noNode { // No legal actions
			return id, nil
		}
		id = next
	}
}

func (t *tree) ucb(id nodeID) nodeID {
	n := &t.nodes[id]
	policy := newUCT(t.params.K, t.params.Epsilon, n.visits)

	best := noNode
	bestScore := -math.MaxFloat64
	for _, e := range n.edges {
		if e.child == noNode {
			continue
		}
		c := &t.nodes[e.child]
		score := noise(policy.evaluate(c.value, c.visits), t.params.Epsilon, t.rng.Float64())
		if score > bestScore {
			bestScore = score
			best = e.child
		}
	}
	return best
}

// expand picks an unexpanded action uniformly at random and adds its child.
// Callers must make sure the node has an unexpanded action.
func (t *tree) expand(id nodeID) (nodeID, error) {
	n := &t.nodes[id]
	if n.unexpanded == 0 {
		panic("node has no unexpanded actions")
	}

	k := t.rng.Intn(n.unexpanded)
	i := -1
	for j, e := range n.edges {
		if e.child != noNode {
			continue
		}
		if k == 0 {
			i = j
			break
		}
		k--
	}
	action := n.edges[i].action

	state := n.state.Copy()
	if err := t.model.Apply(state, action.Copy()); err != nil {
		return noNode, errors.Wrapf(err, "apply %v", action)
	}
	child, err := t.newNode(id, state)
	if err != nil {
		return noNode, err
	}

	// n may point into the old arena
	t.nodes[id].edges[i].child = child
	t.nodes[id].unexpanded--
	t.metrics.AddExpansion()
	return child, nil
}

// rollout plays uniformly random actions on a copy of the node's state and
// evaluates the final state for whoever is to move there. It reports whether
// the final state is terminal.
func (t *tree) rollout(id nodeID) (float64, bool, error) {
	state := t.nodes[id].state.Copy()
	for depth := 0; depth < t.params.RolloutLength && !state.IsTerminal(); depth++ {
		actions, err := t.model.LegalActions(state, t.params.ActionSpace)
		if err != nil {
			return 0, false, errors.Wrap(err, "compute rollout actions")
		}
		if len(actions) == 0 {
			break
		}
		action := actions[t.rng.Intn(len(actions))]
		if err := t.model.Apply(state, action.Copy()); err != nil {
			return 0, false, errors.Wrapf(err, "apply rollout action %v", action)
		}
	}

	return t.evaluate(state, state.CurrentPlayer()), state.IsTerminal(), nil
}

// backup credits result to every node from id up to the root. The same value
// is credited regardless of the player to move at each node.
func (t *tree) backup(id nodeID, result float64) {
	for id != noNode {
		n := &t.nodes[id]
		n.visits++
		n.value += result
		id = n.parent
	}
}

// bestAction returns the action of the most visited child, or false when no
// child has been visited.
func (t *tree) bestAction(id nodeID) (game.Action, bool) {
	n := &t.nodes[id]

	var best game.Action
	found := false
	bestValue := -math.MaxFloat64
	for _, e := range n.edges {
		if e.child == noNode {
			continue
		}
		c := &t.nodes[e.child]
		if c.visits == 0 {
			continue
		}
		value := noise(float64(c.visits), t.params.Epsilon, t.rng.Float64())
		if value > bestValue {
			bestValue = value
			best = e.action
			found = true
		}
	}
	return best, found
}
