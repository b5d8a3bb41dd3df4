package main

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// pointTolerance is the half-size of the box a node occupies in the R-tree
const pointTolerance = 1e-6

// zoneEntry wraps a hazard zone for R-tree storage
type zoneEntry struct {
	zone HazardZone
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (z *zoneEntry) Bounds() rtreego.Rect {
	return z.bbox
}

// ZoneIndex manages hazard zone spatial queries
type ZoneIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewZoneIndex creates a new spatial index. Zones with a degenerate bounding
// box (no area) are skipped.
func NewZoneIndex(zones []HazardZone) *ZoneIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	size := 0
	for _, zone := range zones {
		bbox, err := calculateBoundingBox(zone.Polygon)
		if err != nil {
			continue
		}
		tree.Insert(&zoneEntry{zone: zone, bbox: bbox})
		size++
	}

	return &ZoneIndex{tree: tree, size: size}
}

// Len returns the number of indexed zones
func (zi *ZoneIndex) Len() int {
	if zi == nil {
		return 0
	}
	return zi.size
}

// QueryRegion returns zones whose bounding box intersects the given bound
func (zi *ZoneIndex) QueryRegion(bound orb.Bound) []HazardZone {
	if zi == nil || zi.size == 0 {
		return nil
	}

	bbox := boundToRect(bound)
	results := zi.tree.SearchIntersect(bbox)
	zones := make([]HazardZone, 0, len(results))

	for _, item := range results {
		entry := item.(*zoneEntry)
		zones = append(zones, entry.zone)
	}

	return zones
}

// calculateBoundingBox computes the axis-aligned bounding box for a polygon
func calculateBoundingBox(polygon orb.Polygon) (rtreego.Rect, error) {
	bound := polygon.Bound()
	return rtreego.NewRect(
		rtreego.Point{bound.Min[0], bound.Min[1]},
		[]float64{bound.Max[0] - bound.Min[0], bound.Max[1] - bound.Min[1]},
	)
}

// boundToRect converts a bound to a search rectangle. Points and lines are
// widened by pointTolerance so that the rectangle is never degenerate.
func boundToRect(bound orb.Bound) rtreego.Rect {
	minX, minY := bound.Min[0]-pointTolerance, bound.Min[1]-pointTolerance
	maxX, maxY := bound.Max[0]+pointTolerance, bound.Max[1]+pointTolerance

	rect, err := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)
	if err != nil {
		return rtreego.Point{bound.Min[0], bound.Min[1]}.ToRect(pointTolerance)
	}
	return rect
}

// nodeEntry wraps a waypoint for R-tree storage
type nodeEntry struct {
	node Node
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (n *nodeEntry) Bounds() rtreego.Rect {
	return n.bbox
}

// NodeLocator resolves planar positions to the closest waypoint
type NodeLocator struct {
	tree *rtreego.Rtree
	size int
}

// NewNodeLocator indexes the given nodes
func NewNodeLocator(nodes []Node) *NodeLocator {
	tree := rtreego.NewTree(2, 4, 16)
	for _, node := range nodes {
		tree.Insert(&nodeEntry{
			node: node,
			bbox: rtreego.Point{node.X, node.Y}.ToRect(pointTolerance),
		})
	}
	return &NodeLocator{tree: tree, size: len(nodes)}
}

// Nearest returns the waypoint closest to (x, y)
func (nl *NodeLocator) Nearest(x, y float64) (Node, bool) {
	if nl == nil || nl.size == 0 {
		return Node{}, false
	}
	item := nl.tree.NearestNeighbor(rtreego.Point{x, y})
	if item == nil {
		return Node{}, false
	}
	return item.(*nodeEntry).node, true
}
