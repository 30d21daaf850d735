package dag

import (
	"strconv"

	gographviz "github.com/awalterschulze/gographviz"
)

const dotGraphName = "transformgrid"

// DOT renders the graph in Graphviz DOT format. Nodes are identified by ID
// and labelled with their display name; edges point from a dependency to
// the node that needs it.
func (g *Graph) DOT() (string, error) {
	out := gographviz.NewGraph()
	if err := out.SetName(dotGraphName); err != nil {
		return "", err
	}
	if err := out.SetDir(true); err != nil {
		return "", err
	}

	nodes := g.Nodes()
	for _, n := range nodes {
		attrs := map[string]string{
			"label":   strconv.Quote(n.String()),
			"tooltip": strconv.Quote(n.Kind()),
		}
		if err := out.AddNode(dotGraphName, strconv.Quote(n.ID()), attrs); err != nil {
			return "", err
		}
	}
	for _, n := range nodes {
		deps, err := g.Dependencies(n.ID())
		if err != nil {
			return "", err
		}
		for _, dep := range deps {
			if err := out.AddEdge(strconv.Quote(dep.ID()), strconv.Quote(n.ID()), true, nil); err != nil {
				return "", err
			}
		}
	}
	return out.String(), nil
}
