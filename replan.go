package main

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// DefaultHazardThreshold is the area risk above which a route is abandoned
const DefaultHazardThreshold = 0.8

// MonitorState is the replan state machine state
type MonitorState int

const (
	// StateStable means the current route is unaffected by hazard
	StateStable MonitorState = iota
	// StateReplanning means a replan is in flight, or the last one found no
	// safe route and the next tick will retry
	StateReplanning
)

func (s MonitorState) String() string {
	if s == StateReplanning {
		return "replanning"
	}
	return "stable"
}

// ReplanMonitor checks the active route against the latest risk state and
// asks the PathFinder for a new one when the route crosses a hazardous area
type ReplanMonitor struct {
	graph     *Graph
	finder    *PathFinder
	threshold float64

	mu    sync.Mutex
	state MonitorState
}

// NewReplanMonitor creates a monitor. A non-positive threshold selects
// DefaultHazardThreshold.
func NewReplanMonitor(graph *Graph, finder *PathFinder, threshold float64) *ReplanMonitor {
	if threshold <= 0 {
		threshold = DefaultHazardThreshold
	}
	return &ReplanMonitor{
		graph:     graph,
		finder:    finder,
		threshold: threshold,
		state:     StateStable,
	}
}

// State returns the current state
func (m *ReplanMonitor) State() MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Threshold returns the configured hazard threshold
func (m *ReplanMonitor) Threshold() float64 {
	return m.threshold
}

// hazardousArea returns the first area on the route whose risk exceeds the
// threshold
func (m *ReplanMonitor) hazardousArea(route *Route) (int, bool) {
	for _, node := range route.Nodes {
		if m.graph.AreaRisk(node.AreaID) > m.threshold {
			return node.AreaID, true
		}
	}
	return 0, false
}

// Evaluate returns the route the occupant should follow. When no area along
// the route exceeds the threshold the very same *Route is returned, so
// callers can detect "no change" by pointer comparison. Otherwise the route
// is discarded and a new one is planned from currentArea towards the exit.
// A nil route is always planned.
//
// On ErrNotFound the monitor stays in StateReplanning and the caller should
// show "no safe route" until a later tick succeeds.
func (m *ReplanMonitor) Evaluate(ctx context.Context, route *Route, currentArea int) (*Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if route != nil {
		area, hazardous := m.hazardousArea(route)
		if !hazardous {
			m.state = StateStable
			return route, nil
		}
		log.Printf("⚠️  Area %d on active route exceeds hazard threshold %.2f (risk %.2f), replanning\n",
			area, m.threshold, m.graph.AreaRisk(area))
	}

	m.state = StateReplanning

	exit, err := m.finder.FindNearestExit(ctx, currentArea)
	if err != nil {
		replansTotal.WithLabelValues("no_route").Inc()
		return nil, fmt.Errorf("replan from area %d: %w", currentArea, err)
	}

	next, err := m.finder.FindPath(ctx, currentArea, exit)
	if err != nil {
		replansTotal.WithLabelValues("no_route").Inc()
		return nil, fmt.Errorf("replan from area %d: %w", currentArea, err)
	}

	replansTotal.WithLabelValues("replanned").Inc()
	m.state = StateStable
	return next, nil
}
