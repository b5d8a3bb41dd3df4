package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// HazardZone is a region declared unsafe by operators, for example a room
// with a reported fire. Everything inside it is treated as maximum risk.
type HazardZone struct {
	Name    string
	Polygon orb.Polygon
}

// LoadHazardZones loads hazard zones from a GeoJSON file, or from every
// *.geojson file when path is a directory. Unreadable files are logged and
// skipped.
func LoadHazardZones(path string) ([]HazardZone, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat hazard zones: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.geojson"))
		if err != nil {
			return nil, err
		}
	}

	log.Printf("Loading hazard zones from %d GeoJSON files...\n", len(files))

	var zones []HazardZone
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Printf("⚠️  Failed to read %s: %v\n", file, err)
			continue
		}

		loaded, err := ParseHazardZones(data)
		if err != nil {
			log.Printf("⚠️  Failed to parse %s: %v\n", file, err)
			continue
		}
		zones = append(zones, loaded...)

		log.Printf("   ✅ Loaded %d zones from %s\n", len(loaded), filepath.Base(file))
	}

	log.Printf("Total hazard zones loaded: %d\n", len(zones))
	return zones, nil
}

// ParseHazardZones extracts Polygon and MultiPolygon features from a GeoJSON
// feature collection. The feature's "name" property names the zone.
func ParseHazardZones(data []byte) ([]HazardZone, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal feature collection: %w", err)
	}

	var zones []HazardZone
	for i, feature := range fc.Features {
		name := feature.Properties.MustString("name", fmt.Sprintf("zone-%d", i))

		switch geom := feature.Geometry.(type) {
		case orb.Polygon:
			zones = append(zones, HazardZone{Name: name, Polygon: geom})
		case orb.MultiPolygon:
			for _, polygon := range geom {
				zones = append(zones, HazardZone{Name: name, Polygon: polygon})
			}
		}
	}

	return zones, nil
}

// ZoneHazard raises the risk of every area and corridor that touches a
// hazard zone to 1. Anything outside the zones gets the Inner mapper's risk.
type ZoneHazard struct {
	Inner HazardMapper
	index *ZoneIndex

	nodePoints map[int]orb.Point   // node id -> position
	areaPoints map[int][]orb.Point // area id -> positions of its nodes
}

// NewZoneHazard builds a zone-aware mapper over the graph's node positions.
// A nil inner mapper selects UniformHazard.
func NewZoneHazard(graph *Graph, index *ZoneIndex, inner HazardMapper) *ZoneHazard {
	if inner == nil {
		inner = UniformHazard{}
	}

	zh := &ZoneHazard{
		Inner:      inner,
		index:      index,
		nodePoints: make(map[int]orb.Point, graph.NodeCount()),
		areaPoints: make(map[int][]orb.Point),
	}
	for _, node := range graph.Nodes() {
		zh.nodePoints[node.ID] = node.Point()
		zh.areaPoints[node.AreaID] = append(zh.areaPoints[node.AreaID], node.Point())
	}
	return zh
}

// AreaRisk implements HazardMapper
func (zh *ZoneHazard) AreaRisk(areaID int, snapshot HazardSnapshot) float64 {
	for _, p := range zh.areaPoints[areaID] {
		if zh.pointInZone(p) {
			return 1
		}
	}
	return zh.Inner.AreaRisk(areaID, snapshot)
}

// EdgeRisk implements HazardMapper
func (zh *ZoneHazard) EdgeRisk(edge Edge, fromArea, toArea int, snapshot HazardSnapshot) float64 {
	from, okFrom := zh.nodePoints[edge.From]
	to, okTo := zh.nodePoints[edge.To]
	if okFrom && okTo && zh.segmentInZone(Segment{P1: from, P2: to}) {
		return 1
	}
	return zh.Inner.EdgeRisk(edge, fromArea, toArea, snapshot)
}

func (zh *ZoneHazard) pointInZone(p orb.Point) bool {
	for _, zone := range zh.index.QueryRegion(orb.Bound{Min: p, Max: p}) {
		if PointInPolygon(p, zone.Polygon) {
			return true
		}
	}
	return false
}

func (zh *ZoneHazard) segmentInZone(seg Segment) bool {
	bound := orb.LineString{seg.P1, seg.P2}.Bound()
	for _, zone := range zh.index.QueryRegion(bound) {
		if SegmentTouchesPolygon(seg, zone.Polygon) {
			return true
		}
	}
	return false
}
