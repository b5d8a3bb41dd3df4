package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareMap = `NODES
1 101 0 0
2 102 10 0
3 103 10 10
4 104 0 10
EDGES
1 1 2 10
2 2 3 10
3 3 4 10
4 4 1 10
5 1 3 14.14
EXITS
103
`

func TestLoadMap(t *testing.T) {
	g := NewGraph()
	stats, err := LoadMap(g, strings.NewReader(squareMap))
	require.NoError(t, err)

	assert.Equal(t, MapStats{Nodes: 4, Edges: 5, Exits: 1}, stats)
	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 5, g.EdgeCount())
	assert.Equal(t, []int{103}, g.Exits())

	e, ok := g.EdgeBetween(1, 3)
	require.True(t, ok)
	assert.Equal(t, 5, e.ID)
	assert.InDelta(t, 14.14, e.Distance, 1e-9)
}

func TestLoadMapSkipsBadLines(t *testing.T) {
	input := `NODES
1 1 0 0
2 1 nope 0
3 2
# comment

4 2 10 0
1 3 5 5
EDGES
1 1 4 10
2 1 99 3
3 4 1
1 4 1 10
4 4 1 -2
EXITS
2
77
x
`
	g := NewGraph()
	stats, err := LoadMap(g, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Nodes)
	assert.Equal(t, 1, stats.Edges)
	assert.Equal(t, 1, stats.Exits)
	assert.Equal(t, 4, stats.Skipped)  // "nope", short node, short edge, "x"
	assert.Equal(t, 5, stats.Rejected) // duplicate node, unknown endpoint, duplicate edge, negative distance, unknown exit area

	n, ok := g.Node(1)
	require.True(t, ok)
	assert.Equal(t, 1, n.AreaID, "duplicate node line must not overwrite")
}

func TestLoadMapMissingHeader(t *testing.T) {
	for _, input := range []string{"", "EDGES\n1 1 2 3\n", "1 101 0 0\n", "NODESX\n1 101 0 0\n"} {
		_, err := LoadMap(NewGraph(), strings.NewReader(input))
		assert.ErrorIs(t, err, ErrMissingHeader, "input %q", input)
	}
}

func TestLoadMapRejectsNonFiniteNumbers(t *testing.T) {
	input := `NODES
1 1 0 0
2 2 10 0
3 3 20 0
4 4 NaN 0
5 5 0 +Inf
EDGES
1 1 2 NaN
2 2 3 10
3 1 3 -Inf
4 1 3 +Inf
5 1 3 Inf
`
	g := NewGraph()
	stats, err := LoadMap(g, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, MapStats{Nodes: 3, Edges: 1, Skipped: 6}, stats)
	_, ok := g.EdgeBetween(1, 2)
	assert.False(t, ok)

	_, err = NewPathFinder(g).FindPath(context.Background(), 1, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMapMarkersMatchWholeLine(t *testing.T) {
	input := `NODES
1 1 0 0
EDGESX
2 2 10 0
EDGES
1 1 2 10
EXITS
2
`
	g := NewGraph()
	stats, err := LoadMap(g, strings.NewReader(input))
	require.NoError(t, err)

	// The unknown marker is a malformed node line, not a section switch
	assert.Equal(t, MapStats{Nodes: 2, Edges: 1, Exits: 1, Skipped: 1}, stats)
}

func TestLoadMapCapacity(t *testing.T) {
	g := NewGraph(WithCapacity(2, 10))
	stats, err := LoadMap(g, strings.NewReader(squareMap))
	require.NoError(t, err)

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount()) // only 1 -> 2 has both endpoints
	assert.Equal(t, 2, stats.Nodes)
	assert.Positive(t, stats.Rejected)
}

func TestLoadMapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facility.txt")
	require.NoError(t, os.WriteFile(path, []byte(squareMap), 0644))

	g := NewGraph()
	_, err := LoadMapFile(g, path)
	require.NoError(t, err)
	assert.Equal(t, 4, g.NodeCount())

	_, err = LoadMapFile(NewGraph(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
