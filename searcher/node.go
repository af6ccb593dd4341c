package searcher

import "oppaware/game"

// nodeID indexes the tree's node arena
type nodeID int

const noNode nodeID = -1

type edge struct {
	action game.Action
	child  nodeID // noNode until the action is expanded
}

// node is a position in the search tree. It owns its state and is owned by
// the tree arena; parent is a back reference used only for backup.
type node struct {
	state      game.State
	parent     nodeID
	depth      int
	edges      []edge // Forward model enumeration order, decides exact ties
	index      map[game.Action]int
	unexpanded int
	visits     int
	value      float64
}

func (n *node) isRoot() bool { return n.parent == noNode }

func (n *node) child(action game.Action) (nodeID, bool) {
	i, ok := n.index[action]
	if !ok {
		return noNode, false
	}
	return n.edges[i].child, true
}

func (n *node) meanValue() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.value / float64(n.visits)
}
