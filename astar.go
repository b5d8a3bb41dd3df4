package main

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
)

// searchNode represents a waypoint in the A* open set
type searchNode struct {
	idx      int     // Index of the waypoint in the graph
	G        float64 // Cost from start to this node
	H        float64 // Heuristic cost from this node to end
	F        float64 // Total cost (G + H)
	Parent   *searchNode
	viaEdge  int // Index of the edge used to reach this node, -1 for start
	heapSlot int // Index in the heap
}

// PriorityQueue implements heap.Interface for the A* open set. Equal F
// values are ordered by graph insertion index, so the lowest-index node wins
// a tie, the same order a linear scan over the node list would produce.
type PriorityQueue []*searchNode

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].F == pq[j].F {
		return pq[i].idx < pq[j].idx
	}
	return pq[i].F < pq[j].F
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].heapSlot = i
	pq[j].heapSlot = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	node := x.(*searchNode)
	node.heapSlot = n
	*pq = append(*pq, node)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.heapSlot = -1
	*pq = old[0 : n-1]
	return node
}

// ExitPolicy selects which exit FindNearestExit returns
type ExitPolicy int

const (
	// ExitPolicyFirst returns the first flagged exit in insertion order,
	// without looking at distance
	ExitPolicyFirst ExitPolicy = iota
	// ExitPolicyLowestCost returns the exit with the cheapest route
	ExitPolicyLowestCost
)

// ParseExitPolicy maps a config value to an ExitPolicy
func ParseExitPolicy(s string) (ExitPolicy, error) {
	switch s {
	case "", "first":
		return ExitPolicyFirst, nil
	case "lowest_cost":
		return ExitPolicyLowestCost, nil
	default:
		return ExitPolicyFirst, fmt.Errorf("unknown exit policy %q", s)
	}
}

// PathFinder runs risk-weighted A* searches over a graph
type PathFinder struct {
	graph         *Graph
	maxIterations int
	exitPolicy    ExitPolicy
}

// PathFinderOption configures a PathFinder
type PathFinderOption func(*PathFinder)

// WithMaxIterations bounds the number of node expansions per search. Zero
// means unbounded.
func WithMaxIterations(n int) PathFinderOption {
	return func(pf *PathFinder) { pf.maxIterations = n }
}

// WithExitPolicy selects the FindNearestExit policy
func WithExitPolicy(p ExitPolicy) PathFinderOption {
	return func(pf *PathFinder) { pf.exitPolicy = p }
}

// NewPathFinder creates a PathFinder over the graph
func NewPathFinder(graph *Graph, opts ...PathFinderOption) *PathFinder {
	pf := &PathFinder{graph: graph}
	for _, opt := range opts {
		opt(pf)
	}
	return pf
}

// FindPath computes the lowest-cost route from the representative node of
// startArea to the representative node of endArea
func (pf *PathFinder) FindPath(ctx context.Context, startArea, endArea int) (*Route, error) {
	route, err := pf.plan(ctx, startArea, endArea)
	if err != nil {
		return nil, err
	}

	log.Printf("🧭 Route from area %d to area %d: %d nodes, distance %.2f, risk %.2f\n",
		startArea, endArea, route.Len(), route.TotalDistance, route.TotalRisk)
	return route, nil
}

// plan is FindPath without logging
func (pf *PathFinder) plan(ctx context.Context, startArea, endArea int) (*Route, error) {
	started := time.Now()
	defer func() { pathSearchDuration.Observe(time.Since(started).Seconds()) }()

	g := pf.graph
	startIdx, ok := g.RepresentativeNode(startArea)
	if !ok {
		pathSearchesTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: start area %d not in map", ErrNotFound, startArea)
	}
	endIdx, ok := g.RepresentativeNode(endArea)
	if !ok {
		pathSearchesTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: end area %d not in map", ErrNotFound, endArea)
	}

	// One snapshot for the whole search
	snap := g.snapshot()

	goal, err := pf.search(ctx, snap, startIdx, endIdx)
	if err != nil {
		if errors.Is(err, ErrSearchAborted) {
			pathSearchesTotal.WithLabelValues("aborted").Inc()
		} else {
			pathSearchesTotal.WithLabelValues("not_found").Inc()
		}
		return nil, fmt.Errorf("area %d -> area %d: %w", startArea, endArea, err)
	}

	pathSearchesTotal.WithLabelValues("found").Inc()
	route := pf.buildRoute(snap, goal)
	route.StartArea = startArea
	route.EndArea = endArea
	return route, nil
}

// search runs A* from startIdx to endIdx and returns the goal search node
func (pf *PathFinder) search(ctx context.Context, snap *riskSnapshot, startIdx, endIdx int) (*searchNode, error) {
	g := pf.graph
	endNode := g.nodes[endIdx]

	openSet := &PriorityQueue{}
	heap.Init(openSet)

	h := nodeDistance(g.nodes[startIdx], endNode)
	startNode := &searchNode{
		idx:     startIdx,
		G:       0,
		H:       h,
		F:       h,
		viaEdge: -1,
	}
	heap.Push(openSet, startNode)

	closedSet := make([]bool, len(g.nodes))
	openSetMap := make(map[int]*searchNode)
	openSetMap[startIdx] = startNode

	nodesExplored := 0
	defer func() { pathSearchIterations.Observe(float64(nodesExplored)) }()

	for openSet.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSearchAborted, err)
		}
		if pf.maxIterations > 0 && nodesExplored >= pf.maxIterations {
			return nil, fmt.Errorf("%w: exceeded %d iterations", ErrSearchAborted, pf.maxIterations)
		}

		current := heap.Pop(openSet).(*searchNode)
		delete(openSetMap, current.idx)
		nodesExplored++

		// Check if we reached the goal
		if current.idx == endIdx {
			return current, nil
		}

		closedSet[current.idx] = true

		// Relax outgoing edges only, corridors are directed
		for _, ei := range g.outgoing[current.idx] {
			if g.shadowed(ei) {
				continue
			}
			edge := g.edges[ei]
			neighborIdx := g.nodeByID[edge.To]

			if closedSet[neighborIdx] {
				continue
			}

			tentativeG := current.G + TraversalCost(edge.Distance, snap.edgeRisk(ei))

			neighbor, exists := openSetMap[neighborIdx]
			if !exists {
				neighbor = &searchNode{
					idx:     neighborIdx,
					G:       tentativeG,
					H:       nodeDistance(g.nodes[neighborIdx], endNode),
					Parent:  current,
					viaEdge: ei,
				}
				neighbor.F = neighbor.G + neighbor.H
				heap.Push(openSet, neighbor)
				openSetMap[neighborIdx] = neighbor
			} else if tentativeG < neighbor.G {
				// Found a better path to this neighbor
				neighbor.G = tentativeG
				neighbor.F = neighbor.G + neighbor.H
				neighbor.Parent = current
				neighbor.viaEdge = ei
				heap.Fix(openSet, neighbor.heapSlot)
			}
		}
	}

	// Open set exhausted
	return nil, ErrNotFound
}

// buildRoute follows parent links back to the start and accumulates the
// totals from the directed edges actually traversed. The search only walks
// the first edge of each directed pair, so these are the same edges
// EdgeBetween reports.
func (pf *PathFinder) buildRoute(snap *riskSnapshot, goal *searchNode) *Route {
	g := pf.graph

	var chain []*searchNode
	for node := goal; node != nil; node = node.Parent {
		chain = append(chain, node)
	}

	route := &Route{
		ID:          uuid.New(),
		Nodes:       make([]Node, 0, len(chain)),
		RiskVersion: snap.version,
		CreatedAt:   time.Now(),
	}
	for i := len(chain) - 1; i >= 0; i-- {
		sn := chain[i]
		route.Nodes = append(route.Nodes, g.nodes[sn.idx])
		if sn.viaEdge >= 0 {
			edge := g.edges[sn.viaEdge]
			risk := snap.edgeRisk(sn.viaEdge)
			route.TotalDistance += edge.Distance
			route.TotalRisk += risk
			route.Cost += TraversalCost(edge.Distance, risk)
		}
	}

	return route
}

// FindNearestExit picks the exit area to evacuate towards. With the default
// ExitPolicyFirst this is simply the first flagged exit, regardless of
// where the occupant stands.
func (pf *PathFinder) FindNearestExit(ctx context.Context, currentArea int) (int, error) {
	exits := pf.graph.Exits()
	if len(exits) == 0 {
		return 0, fmt.Errorf("%w: no exit areas flagged", ErrNotFound)
	}

	if pf.exitPolicy == ExitPolicyFirst {
		return exits[0], nil
	}

	best := -1
	bestCost := math.Inf(1)
	for _, exit := range exits {
		route, err := pf.plan(ctx, currentArea, exit)
		if err != nil {
			if errors.Is(err, ErrSearchAborted) {
				return 0, err
			}
			continue
		}
		if route.Cost < bestCost {
			best = exit
			bestCost = route.Cost
		}
	}
	if best == -1 {
		return 0, fmt.Errorf("%w: no exit reachable from area %d", ErrNotFound, currentArea)
	}
	return best, nil
}
