package main

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"
)

// Default capacity bounds of a facility graph
const (
	DefaultMaxNodes = 100
	DefaultMaxEdges = 200
)

// Node is a waypoint of the facility graph. Nodes sharing an AreaID belong
// to the same physical zone and hazard level.
type Node struct {
	ID     int     `json:"id"`
	AreaID int     `json:"areaId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Point returns the node coordinates as a planar point
func (n Node) Point() orb.Point {
	return orb.Point{n.X, n.Y}
}

// Edge is a directed corridor. Traversal is only permitted From -> To.
type Edge struct {
	ID       int     `json:"id"`
	From     int     `json:"from"`
	To       int     `json:"to"`
	Distance float64 `json:"distance"`
	Risk     float64 `json:"risk"` // Risk factor in [0,1], written by the RiskModel only
}

// riskSnapshot holds one complete set of risk values. A snapshot is never
// modified after it has been published.
type riskSnapshot struct {
	version   uint64
	edges     []float64       // indexed like Graph.edges
	areas     map[int]float64 // area id -> area risk
	updatedAt time.Time
}

func (s *riskSnapshot) edgeRisk(idx int) float64 {
	if s == nil || idx >= len(s.edges) {
		return 0
	}
	return s.edges[idx]
}

func (s *riskSnapshot) areaRisk(areaID int) float64 {
	if s == nil {
		return 0
	}
	return s.areas[areaID]
}

// Graph owns the static facility topology. Nodes and edges are inserted once
// while the map is loaded; afterwards only risk values change, and those are
// swapped in as a whole snapshot.
type Graph struct {
	maxNodes int
	maxEdges int

	nodes     []Node
	edges     []Edge
	nodeByID  map[int]int   // node id -> index in nodes
	edgeByID  map[int]int   // edge id -> index in edges
	outgoing  [][]int       // node index -> indices of edges leaving it
	firstEdge map[[2]int]int // (from, to) node ids -> first edge index between them
	areaFirst map[int]int   // area id -> index of first inserted node
	areas     []int         // area ids in insertion order
	exits     []int         // exit area ids in insertion order
	exitSet   map[int]bool

	risk atomic.Pointer[riskSnapshot]
}

// GraphOption configures a Graph before any insertion
type GraphOption func(*Graph)

// WithCapacity overrides the default node and edge capacity
func WithCapacity(maxNodes, maxEdges int) GraphOption {
	return func(g *Graph) {
		g.maxNodes = maxNodes
		g.maxEdges = maxEdges
	}
}

// NewGraph creates an empty graph with fixed capacity
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		maxNodes: DefaultMaxNodes,
		maxEdges: DefaultMaxEdges,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.nodes = make([]Node, 0, g.maxNodes)
	g.edges = make([]Edge, 0, g.maxEdges)
	g.nodeByID = make(map[int]int, g.maxNodes)
	g.edgeByID = make(map[int]int, g.maxEdges)
	g.outgoing = make([][]int, 0, g.maxNodes)
	g.firstEdge = make(map[[2]int]int, g.maxEdges)
	g.areaFirst = make(map[int]int)
	g.exitSet = make(map[int]bool)
	g.risk.Store(&riskSnapshot{areas: map[int]float64{}})

	return g
}

// AddNode inserts a waypoint. Duplicate ids and insertions beyond capacity
// are rejected without side effects.
func (g *Graph) AddNode(id, areaID int, x, y float64) error {
	if _, exists := g.nodeByID[id]; exists {
		return fmt.Errorf("%w: node %d", ErrDuplicateID, id)
	}
	if len(g.nodes) >= g.maxNodes {
		return fmt.Errorf("%w: max %d nodes", ErrCapacityExceeded, g.maxNodes)
	}
	if !isFinite(x) || !isFinite(y) {
		return fmt.Errorf("%w: node %d at (%v, %v)", ErrInvalidPosition, id, x, y)
	}

	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{ID: id, AreaID: areaID, X: x, Y: y})
	g.outgoing = append(g.outgoing, nil)
	g.nodeByID[id] = idx
	if _, seen := g.areaFirst[areaID]; !seen {
		g.areaFirst[areaID] = idx
		g.areas = append(g.areas, areaID)
	}

	return nil
}

// AddEdge inserts a directed edge from -> to with risk 0. Both endpoints must
// already exist.
func (g *Graph) AddEdge(id, from, to int, distance float64) error {
	if _, exists := g.edgeByID[id]; exists {
		return fmt.Errorf("%w: edge %d", ErrDuplicateID, id)
	}
	if len(g.edges) >= g.maxEdges {
		return fmt.Errorf("%w: max %d edges", ErrCapacityExceeded, g.maxEdges)
	}
	fromIdx, okFrom := g.nodeByID[from]
	_, okTo := g.nodeByID[to]
	if !okFrom || !okTo {
		return fmt.Errorf("%w: edge %d (%d -> %d)", ErrUnknownEndpoint, id, from, to)
	}
	if !isFinite(distance) {
		return fmt.Errorf("%w: edge %d has distance %v", ErrInvalidDistance, id, distance)
	}
	if distance < 0 {
		return fmt.Errorf("%w: edge %d has distance %.2f", ErrNegativeDistance, id, distance)
	}

	idx := len(g.edges)
	g.edges = append(g.edges, Edge{ID: id, From: from, To: to, Distance: distance})
	g.edgeByID[id] = idx
	g.outgoing[fromIdx] = append(g.outgoing[fromIdx], idx)
	if _, dup := g.firstEdge[[2]int{from, to}]; !dup {
		g.firstEdge[[2]int{from, to}] = idx
	}

	return nil
}

// MarkExit flags an area as a safe exit. Marking twice is a no-op.
func (g *Graph) MarkExit(areaID int) error {
	if _, ok := g.areaFirst[areaID]; !ok {
		return fmt.Errorf("%w: exit area %d", ErrUnknownArea, areaID)
	}
	if g.exitSet[areaID] {
		return nil
	}
	g.exitSet[areaID] = true
	g.exits = append(g.exits, areaID)
	return nil
}

// NodeCount returns the number of inserted nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of inserted edges
func (g *Graph) EdgeCount() int { return len(g.edges) }

// NodeIndex resolves a node id to its insertion index, or -1
func (g *Graph) NodeIndex(id int) int {
	if idx, ok := g.nodeByID[id]; ok {
		return idx
	}
	return -1
}

// Node returns a copy of the node with the given id
func (g *Graph) Node(id int) (Node, bool) {
	idx, ok := g.nodeByID[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// Nodes returns a copy of all nodes in insertion order
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Edges returns a copy of all edges in insertion order, carrying the risk of
// the currently published snapshot.
func (g *Graph) Edges() []Edge {
	snap := g.risk.Load()
	edges := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		e.Risk = snap.edgeRisk(i)
		edges[i] = e
	}
	return edges
}

// RepresentativeNode returns the index of the first inserted node of an
// area. This is an insertion-order tie-break, not a geometric nearest.
func (g *Graph) RepresentativeNode(areaID int) (int, bool) {
	idx, ok := g.areaFirst[areaID]
	return idx, ok
}

// HasArea reports whether at least one node belongs to the area
func (g *Graph) HasArea(areaID int) bool {
	_, ok := g.areaFirst[areaID]
	return ok
}

// Areas returns the known area ids in insertion order
func (g *Graph) Areas() []int {
	areas := make([]int, len(g.areas))
	copy(areas, g.areas)
	return areas
}

// Exits returns the exit area ids in the order they were flagged
func (g *Graph) Exits() []int {
	exits := make([]int, len(g.exits))
	copy(exits, g.exits)
	return exits
}

// IsExit reports whether the area is flagged as an exit
func (g *Graph) IsExit(areaID int) bool {
	return g.exitSet[areaID]
}

// EdgeBetween returns the first edge, in insertion order, going from -> to
func (g *Graph) EdgeBetween(from, to int) (Edge, bool) {
	ei, ok := g.firstEdge[[2]int{from, to}]
	if !ok {
		return Edge{}, false
	}
	e := g.edges[ei]
	e.Risk = g.risk.Load().edgeRisk(ei)
	return e, true
}

// shadowed reports whether an earlier edge already connects the same
// directed pair. Only the first such edge is ever traversed.
func (g *Graph) shadowed(ei int) bool {
	e := g.edges[ei]
	return g.firstEdge[[2]int{e.From, e.To}] != ei
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AreaRisk returns the risk assigned to an area by the last risk update
func (g *Graph) AreaRisk(areaID int) float64 {
	return g.risk.Load().areaRisk(areaID)
}

// RiskVersion returns the version of the published risk snapshot. It starts
// at 0 and increases by one per update.
func (g *Graph) RiskVersion() uint64 {
	return g.risk.Load().version
}

// snapshot returns the currently published risk values. Callers must read a
// single snapshot for the whole duration of a search.
func (g *Graph) snapshot() *riskSnapshot {
	return g.risk.Load()
}

// publishRisks atomically replaces the risk snapshot
func (g *Graph) publishRisks(edges []float64, areas map[int]float64) *riskSnapshot {
	prev := g.risk.Load()
	next := &riskSnapshot{
		version:   prev.version + 1,
		edges:     edges,
		areas:     areas,
		updatedAt: time.Now(),
	}
	g.risk.Store(next)
	return next
}
