package main

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// edgeRisks is a HazardMapper that assigns fixed risks by edge id and leaves
// every area clean
type edgeRisks map[int]float64

func (m edgeRisks) AreaRisk(int, HazardSnapshot) float64 { return 0 }

func (m edgeRisks) EdgeRisk(edge Edge, _, _ int, _ HazardSnapshot) float64 {
	return m[edge.ID]
}

// squareGraph builds the four-room square with a diagonal shortcut 1 -> 3
func squareGraph(t *testing.T) *Graph {
	t.Helper()

	g := NewGraph()
	require.NoError(t, g.AddNode(1, 101, 0, 0))
	require.NoError(t, g.AddNode(2, 102, 10, 0))
	require.NoError(t, g.AddNode(3, 103, 10, 10))
	require.NoError(t, g.AddNode(4, 104, 0, 10))

	require.NoError(t, g.AddEdge(1, 1, 2, 10))
	require.NoError(t, g.AddEdge(2, 2, 3, 10))
	require.NoError(t, g.AddEdge(3, 3, 4, 10))
	require.NoError(t, g.AddEdge(4, 4, 1, 10))
	require.NoError(t, g.AddEdge(5, 1, 3, 14.14))

	return g
}

func TestFindPathPrefersShortcutUntilItBecomesRisky(t *testing.T) {
	g := squareGraph(t)
	pf := NewPathFinder(g)
	ctx := context.Background()

	route, err := pf.FindPath(ctx, 101, 103)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, route.NodeIDs())
	assert.InDelta(t, 14.14, route.TotalDistance, 1e-9)
	assert.Zero(t, route.TotalRisk)

	NewRiskModel(g, edgeRisks{5: 1.0}).UpdateRisks(HazardSnapshot{})

	rerouted, err := pf.FindPath(ctx, 101, 103)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, rerouted.NodeIDs())
	assert.InDelta(t, 20.0, rerouted.TotalDistance, 1e-9)
	assert.InDelta(t, 20.0, rerouted.Cost, 1e-9)
	assert.NotEqual(t, route.ID, rerouted.ID)
	assert.Equal(t, uint64(1), rerouted.RiskVersion)

	// The first route is untouched by the update
	assert.Equal(t, []int{1, 3}, route.NodeIDs())
}

func TestFindPathEndpointsAreRepresentativeNodes(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(1, 1, 0, 0))
	require.NoError(t, g.AddNode(2, 1, 1, 0)) // second node of area 1
	require.NoError(t, g.AddNode(3, 2, 5, 0))
	require.NoError(t, g.AddNode(4, 2, 6, 0))
	require.NoError(t, g.AddEdge(1, 1, 2, 1))
	require.NoError(t, g.AddEdge(2, 2, 3, 4))
	require.NoError(t, g.AddEdge(3, 3, 4, 1))

	route, err := NewPathFinder(g).FindPath(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, route.NodeIDs())
	assert.Equal(t, 1, route.StartArea)
	assert.Equal(t, 2, route.EndArea)
}

func TestFindPathSameArea(t *testing.T) {
	g := squareGraph(t)

	route, err := NewPathFinder(g).FindPath(context.Background(), 102, 102)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, route.NodeIDs())
	assert.Zero(t, route.TotalDistance)
}

func TestFindPathNotFound(t *testing.T) {
	g := squareGraph(t)
	pf := NewPathFinder(g)
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end int
	}{
		{"unknown start", 999, 103},
		{"unknown end", 101, 999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := pf.FindPath(ctx, tt.start, tt.end)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Nil(t, route)
		})
	}

	t.Run("directed corridor against its direction", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(1, 1, 0, 0))
		require.NoError(t, g.AddNode(2, 2, 1, 0))
		require.NoError(t, g.AddEdge(1, 1, 2, 1))

		_, err := NewPathFinder(g).FindPath(ctx, 1, 2)
		require.NoError(t, err)

		_, err = NewPathFinder(g).FindPath(ctx, 2, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFindPathIterationGuard(t *testing.T) {
	g := squareGraph(t)

	_, err := NewPathFinder(g, WithMaxIterations(1)).FindPath(context.Background(), 101, 103)
	assert.ErrorIs(t, err, ErrSearchAborted)

	_, err = NewPathFinder(g, WithMaxIterations(10)).FindPath(context.Background(), 101, 103)
	assert.NoError(t, err)
}

func TestFindPathCancelledContext(t *testing.T) {
	g := squareGraph(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPathFinder(g).FindPath(ctx, 101, 103)
	assert.ErrorIs(t, err, ErrSearchAborted)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindPathTieBreakFollowsInsertionOrder(t *testing.T) {
	side := math.Hypot(5, 5)

	build := func(t *testing.T, upperFirst bool) *Graph {
		g := NewGraph()
		require.NoError(t, g.AddNode(1, 1, 0, 0))
		if upperFirst {
			require.NoError(t, g.AddNode(2, 2, 5, 5))
			require.NoError(t, g.AddNode(3, 3, 5, -5))
		} else {
			require.NoError(t, g.AddNode(3, 3, 5, -5))
			require.NoError(t, g.AddNode(2, 2, 5, 5))
		}
		require.NoError(t, g.AddNode(4, 4, 10, 0))
		require.NoError(t, g.AddEdge(1, 1, 2, side))
		require.NoError(t, g.AddEdge(2, 1, 3, side))
		require.NoError(t, g.AddEdge(3, 2, 4, side))
		require.NoError(t, g.AddEdge(4, 3, 4, side))
		return g
	}

	route, err := NewPathFinder(build(t, true)).FindPath(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4}, route.NodeIDs())

	route, err = NewPathFinder(build(t, false)).FindPath(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4}, route.NodeIDs())
}

// randomGraph builds a graph of n nodes, one area per node, with directed
// edges no shorter than the straight line between their endpoints
func randomGraph(t *testing.T, rng *rand.Rand, n int) (*Graph, edgeRisks) {
	t.Helper()

	g := NewGraph()
	for i := 1; i <= n; i++ {
		require.NoError(t, g.AddNode(i, i, rng.Float64()*100, rng.Float64()*100))
	}

	risks := edgeRisks{}
	nodes := g.Nodes()
	edgeID := 1
	for _, from := range nodes {
		for _, to := range nodes {
			if from.ID == to.ID || rng.Float64() > 0.35 {
				continue
			}
			d := nodeDistance(from, to) * (1 + rng.Float64()*0.5)
			require.NoError(t, g.AddEdge(edgeID, from.ID, to.ID, d))
			if rng.Float64() < 0.5 {
				risks[edgeID] = rng.Float64()
			}
			edgeID++
		}
	}
	return g, risks
}

// cheapestSimplePath enumerates every simple path and returns the minimum
// traversal cost, or +Inf when the goal is unreachable
func cheapestSimplePath(g *Graph, risks edgeRisks, start, goal int) float64 {
	best := math.Inf(1)
	visited := map[int]bool{start: true}

	var walk func(at int, cost float64)
	walk = func(at int, cost float64) {
		if at == goal {
			best = math.Min(best, cost)
			return
		}
		for _, e := range g.Edges() {
			if e.From != at || visited[e.To] {
				continue
			}
			visited[e.To] = true
			walk(e.To, cost+TraversalCost(e.Distance, risks[e.ID]))
			visited[e.To] = false
		}
	}
	walk(start, 0)
	return best
}

func TestFindPathMatchesExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()

	for round := 0; round < 40; round++ {
		n := 2 + rng.Intn(9)
		g, risks := randomGraph(t, rng, n)
		NewRiskModel(g, risks).UpdateRisks(HazardSnapshot{})
		pf := NewPathFinder(g)

		for start := 1; start <= n; start++ {
			for goal := 1; goal <= n; goal++ {
				want := cheapestSimplePath(g, risks, start, goal)
				route, err := pf.FindPath(ctx, start, goal)

				if math.IsInf(want, 1) {
					assert.ErrorIs(t, err, ErrNotFound, "round %d: %d -> %d", round, start, goal)
					continue
				}
				require.NoError(t, err, "round %d: %d -> %d", round, start, goal)
				assert.InDelta(t, want, route.Cost, 1e-6, "round %d: %d -> %d", round, start, goal)

				// Totals are the sums over the directed edges between
				// consecutive waypoints
				var distance, risk float64
				ids := route.NodeIDs()
				for i := 0; i+1 < len(ids); i++ {
					e, ok := g.EdgeBetween(ids[i], ids[i+1])
					require.True(t, ok)
					distance += e.Distance
					risk += e.Risk
				}
				assert.InDelta(t, distance, route.TotalDistance, 1e-9)
				assert.InDelta(t, risk, route.TotalRisk, 1e-9)
			}
		}
	}
}

func TestFindPathTotalsFollowFirstParallelEdge(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(1, 1, 0, 0))
	require.NoError(t, g.AddNode(2, 2, 10, 0))
	require.NoError(t, g.AddEdge(1, 1, 2, 100))
	require.NoError(t, g.AddEdge(2, 1, 2, 10))

	route, err := NewPathFinder(g).FindPath(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, route.NodeIDs())

	e, ok := g.EdgeBetween(1, 2)
	require.True(t, ok)
	assert.Equal(t, e.Distance, route.TotalDistance)
	assert.Equal(t, 100.0, route.Cost)
}

func TestFindNearestExit(t *testing.T) {
	ctx := context.Background()

	t.Run("no exits", func(t *testing.T) {
		g := squareGraph(t)
		_, err := NewPathFinder(g).FindNearestExit(ctx, 101)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("first flagged exit", func(t *testing.T) {
		g := squareGraph(t)
		require.NoError(t, g.MarkExit(104))
		require.NoError(t, g.MarkExit(102))

		exit, err := NewPathFinder(g).FindNearestExit(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, 104, exit)
	})

	t.Run("lowest cost exit", func(t *testing.T) {
		g := squareGraph(t)
		require.NoError(t, g.MarkExit(104)) // 1 -> 2 -> 3 -> 4 or 1 -> 3 -> 4
		require.NoError(t, g.MarkExit(102)) // 1 -> 2

		exit, err := NewPathFinder(g, WithExitPolicy(ExitPolicyLowestCost)).FindNearestExit(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, 102, exit)
	})

	t.Run("lowest cost skips unreachable exits", func(t *testing.T) {
		g := squareGraph(t)
		require.NoError(t, g.AddNode(5, 105, 20, 20))
		require.NoError(t, g.MarkExit(105))
		require.NoError(t, g.MarkExit(104))

		exit, err := NewPathFinder(g, WithExitPolicy(ExitPolicyLowestCost)).FindNearestExit(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, 104, exit)
	})
}

func TestParseExitPolicy(t *testing.T) {
	p, err := ParseExitPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ExitPolicyFirst, p)

	p, err = ParseExitPolicy("lowest_cost")
	require.NoError(t, err)
	assert.Equal(t, ExitPolicyLowestCost, p)

	_, err = ParseExitPolicy("closest")
	assert.Error(t, err)
}
