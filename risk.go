package main

import "math"

// HazardMapper turns a hazard snapshot into area and edge risk factors.
// Returned values are clamped to [0,1] by the RiskModel.
type HazardMapper interface {
	AreaRisk(areaID int, snapshot HazardSnapshot) float64
	EdgeRisk(edge Edge, fromArea, toArea int, snapshot HazardSnapshot) float64
}

// UniformHazard assigns the facility-wide hazard scalar to every area and
// every edge
type UniformHazard struct{}

// AreaRisk implements HazardMapper
func (UniformHazard) AreaRisk(_ int, snapshot HazardSnapshot) float64 {
	return snapshot.Hazard()
}

// EdgeRisk implements HazardMapper
func (UniformHazard) EdgeRisk(_ Edge, _, _ int, snapshot HazardSnapshot) float64 {
	return snapshot.Hazard()
}

// AreaHazard uses per-area readings when the snapshot carries them and falls
// back to the facility-wide scalar otherwise. An edge takes the higher risk
// of the two areas it connects.
type AreaHazard struct{}

// AreaRisk implements HazardMapper
func (AreaHazard) AreaRisk(areaID int, snapshot HazardSnapshot) float64 {
	if reading, ok := snapshot.AreaReadings[areaID]; ok {
		return reading.Hazard()
	}
	return snapshot.Hazard()
}

// EdgeRisk implements HazardMapper
func (m AreaHazard) EdgeRisk(_ Edge, fromArea, toArea int, snapshot HazardSnapshot) float64 {
	return math.Max(m.AreaRisk(fromArea, snapshot), m.AreaRisk(toArea, snapshot))
}

// RiskModel is the only writer of graph risk values
type RiskModel struct {
	graph  *Graph
	mapper HazardMapper
}

// NewRiskModel creates a risk model for the graph. A nil mapper selects
// UniformHazard.
func NewRiskModel(graph *Graph, mapper HazardMapper) *RiskModel {
	if mapper == nil {
		mapper = UniformHazard{}
	}
	return &RiskModel{graph: graph, mapper: mapper}
}

// UpdateRisks recomputes every area and edge risk from the snapshot and
// publishes them as one atomic swap. It returns the new risk version.
func (rm *RiskModel) UpdateRisks(snapshot HazardSnapshot) uint64 {
	g := rm.graph

	areas := make(map[int]float64, len(g.areas))
	for _, areaID := range g.areas {
		areas[areaID] = clampRisk(rm.mapper.AreaRisk(areaID, snapshot))
	}

	edges := make([]float64, len(g.edges))
	for i, e := range g.edges {
		fromArea := g.nodes[g.nodeByID[e.From]].AreaID
		toArea := g.nodes[g.nodeByID[e.To]].AreaID
		edges[i] = clampRisk(rm.mapper.EdgeRisk(e, fromArea, toArea, snapshot))
	}

	published := g.publishRisks(edges, areas)
	riskUpdatesTotal.Inc()
	facilityHazard.Set(snapshot.Hazard())

	return published.version
}

// TraversalCost is the A* cost of walking an edge. The factor 10 makes
// hazardous corridors strongly discouraged compared to longer clean ones.
func TraversalCost(distance, risk float64) float64 {
	return distance * (1 + 10*risk)
}
