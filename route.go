package main

import (
	"time"

	"github.com/google/uuid"
)

// Route is an ordered, immutable sequence of waypoints produced by the
// PathFinder. A replan always yields a new Route; existing routes are never
// edited.
type Route struct {
	ID            uuid.UUID `json:"id"`
	StartArea     int       `json:"startArea"`
	EndArea       int       `json:"endArea"`
	Nodes         []Node    `json:"nodes"`
	TotalDistance float64   `json:"totalDistance"`
	TotalRisk     float64   `json:"totalRisk"` // Sum of traversed edge risks
	Cost          float64   `json:"cost"`      // Sum of traversal costs
	RiskVersion   uint64    `json:"riskVersion"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Len returns the number of waypoints
func (r *Route) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Nodes)
}

// NodeIDs returns the waypoint ids in travel order
func (r *Route) NodeIDs() []int {
	if r == nil {
		return nil
	}
	ids := make([]int, len(r.Nodes))
	for i, n := range r.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Areas returns the area of every waypoint in travel order
func (r *Route) Areas() []int {
	if r == nil {
		return nil
	}
	areas := make([]int, len(r.Nodes))
	for i, n := range r.Nodes {
		areas[i] = n.AreaID
	}
	return areas
}

// SameNodes reports whether two routes visit the same waypoints in order
func (r *Route) SameNodes(other *Route) bool {
	if r.Len() != other.Len() {
		return false
	}
	if r.Len() == 0 {
		return true
	}
	for i := range r.Nodes {
		if r.Nodes[i].ID != other.Nodes[i].ID {
			return false
		}
	}
	return true
}
