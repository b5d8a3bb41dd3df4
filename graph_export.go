package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GraphDocument is the JSON form of a facility graph
type GraphDocument struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Exits []int  `json:"exits"`
}

// Document captures the graph topology together with the current risks
func (g *Graph) Document() GraphDocument {
	return GraphDocument{
		Nodes: g.Nodes(),
		Edges: g.Edges(),
		Exits: g.Exits(),
	}
}

// SaveGraph serializes the graph to a JSON file
func SaveGraph(g *Graph, filename string) error {
	log.Printf("💾 Saving facility graph to %s...\n", filename)

	data, err := json.MarshalIndent(g.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	log.Printf("   ✅ Graph saved (%d bytes)\n", len(data))
	return nil
}

// LoadGraphDocument rebuilds a graph from a JSON document. Risks in the
// document are ignored; they belong to the RiskModel.
func LoadGraphDocument(doc GraphDocument, opts ...GraphOption) (*Graph, error) {
	g := NewGraph(opts...)
	for _, n := range doc.Nodes {
		if err := g.AddNode(n.ID, n.AreaID, n.X, n.Y); err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		if err := g.AddEdge(e.ID, e.From, e.To, e.Distance); err != nil {
			return nil, fmt.Errorf("edge %d: %w", e.ID, err)
		}
	}
	for _, area := range doc.Exits {
		if err := g.MarkExit(area); err != nil {
			return nil, fmt.Errorf("exit %d: %w", area, err)
		}
	}
	return g, nil
}

// LoadGraph reads a facility graph from disk. Files ending in .json are
// graph documents written by SaveGraph; anything else is parsed as the
// NODES/EDGES map description.
func LoadGraph(filename string, opts ...GraphOption) (*Graph, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".json") {
		g := NewGraph(opts...)
		if _, err := LoadMapFile(g, filename); err != nil {
			return nil, err
		}
		return g, nil
	}

	log.Printf("📂 Loading facility graph from %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc GraphDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	g, err := LoadGraphDocument(doc, opts...)
	if err != nil {
		return nil, err
	}

	log.Printf("   ✅ Graph loaded: %d nodes, %d edges\n", g.NodeCount(), g.EdgeCount())
	return g, nil
}

// GraphLines returns the corridors as line segments for visualization. A
// corridor present in both directions is returned once.
func GraphLines(g *Graph) [][]orb.Point {
	type pair struct{ a, b int }

	lines := make([][]orb.Point, 0, g.EdgeCount())
	seen := make(map[pair]bool)

	for _, e := range g.edges {
		key := pair{e.From, e.To}
		if e.To < e.From {
			key = pair{e.To, e.From}
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		from := g.nodes[g.nodeByID[e.From]]
		to := g.nodes[g.nodeByID[e.To]]
		lines = append(lines, []orb.Point{from.Point(), to.Point()})
	}

	return lines
}

// GraphGeoJSON renders waypoints as Point features and corridors as
// LineString features carrying their current risk
func GraphGeoJSON(g *Graph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, n := range g.Nodes() {
		f := geojson.NewFeature(n.Point())
		f.Properties["kind"] = "node"
		f.Properties["id"] = n.ID
		f.Properties["areaId"] = n.AreaID
		f.Properties["exit"] = g.IsExit(n.AreaID)
		f.Properties["areaRisk"] = g.AreaRisk(n.AreaID)
		fc.Append(f)
	}

	for _, e := range g.Edges() {
		from := g.nodes[g.nodeByID[e.From]]
		to := g.nodes[g.nodeByID[e.To]]
		f := geojson.NewFeature(orb.LineString{from.Point(), to.Point()})
		f.Properties["kind"] = "edge"
		f.Properties["id"] = e.ID
		f.Properties["from"] = e.From
		f.Properties["to"] = e.To
		f.Properties["distance"] = e.Distance
		f.Properties["risk"] = e.Risk
		fc.Append(f)
	}

	return fc
}

// RouteGeoJSON renders a route as a single LineString feature. An empty
// route yields an empty collection.
func RouteGeoJSON(route *Route) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if route.Len() == 0 {
		return fc
	}

	line := make(orb.LineString, 0, route.Len())
	for _, n := range route.Nodes {
		line = append(line, n.Point())
	}

	f := geojson.NewFeature(line)
	f.ID = route.ID.String()
	f.Properties["startArea"] = route.StartArea
	f.Properties["endArea"] = route.EndArea
	f.Properties["nodes"] = route.NodeIDs()
	f.Properties["totalDistance"] = route.TotalDistance
	f.Properties["totalRisk"] = route.TotalRisk
	f.Properties["direction"] = DirectionOf(route).String()
	fc.Append(f)

	return fc
}
