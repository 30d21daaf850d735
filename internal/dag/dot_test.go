package dag

import (
	"strconv"
	"testing"

	gographviz "github.com/awalterschulze/gographviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDOT(t *testing.T) {
	g := New()
	nodes := stubs("a", "b", "c")
	for _, n := range nodes {
		g.AddNode(n)
	}
	require.NoError(t, g.AddEdge(nodes[0].ID(), nodes[1].ID()))
	require.NoError(t, g.AddEdge(nodes[1].ID(), nodes[2].ID()))
	require.NoError(t, g.AddEdge(nodes[0].ID(), nodes[2].ID()))

	dot, err := g.DOT()
	require.NoError(t, err)

	parsed, err := gographviz.Read([]byte(dot))
	require.NoError(t, err)
	assert.True(t, parsed.Directed)
	assert.Len(t, parsed.Nodes.Nodes, 3)
	assert.Len(t, parsed.Edges.Edges, 3)

	a := parsed.Nodes.Lookup[strconv.Quote(nodes[0].ID())]
	require.NotNil(t, a)
	assert.Equal(t, `"a"`, a.Attrs["label"])
	assert.Len(t, parsed.Edges.SrcToDsts[strconv.Quote(nodes[0].ID())], 2)
}

func TestDOT_Empty(t *testing.T) {
	dot, err := New().DOT()
	require.NoError(t, err)
	assert.Contains(t, dot, "digraph transformgrid")
}
