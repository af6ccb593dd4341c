package searcher

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

const graphName = "G"

// ToDot renders the current tree in Graphviz dot format. Unexpanded actions
// are left out.
func (m *MCTS) ToDot() (string, error) {
	if m.tree == nil {
		return "", ErrNoRoot
	}

	g := gographviz.NewGraph()
	if err := g.SetName(graphName); err != nil {
		return "", errors.Wrap(err, "name graph")
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.Wrap(err, "direct graph")
	}

	for i := range m.tree.nodes {
		n := &m.tree.nodes[i]
		attrs := map[string]string{
			"shape": "box",
			"label": strconv.Quote(fmt.Sprintf("player %d\nvisits %d\nvalue %.4f", n.state.CurrentPlayer(), n.visits, n.meanValue())),
		}
		if n.isRoot() {
			attrs["peripheries"] = "2"
		}
		if err := g.AddNode(graphName, dotName(nodeID(i)), attrs); err != nil {
			return "", errors.Wrapf(err, "add node %d", i)
		}
	}

	for i := range m.tree.nodes {
		for _, e := range m.tree.nodes[i].edges {
			if e.child == noNode {
				continue
			}
			attrs := map[string]string{"label": strconv.Quote(fmt.Sprint(e.action))}
			if err := g.AddEdge(dotName(nodeID(i)), dotName(e.child), true, attrs); err != nil {
				return "", errors.Wrapf(err, "add edge %d -> %d", i, e.child)
			}
		}
	}
	return g.String(), nil
}

func dotName(id nodeID) string {
	return "n" + strconv.Itoa(int(id))
}
