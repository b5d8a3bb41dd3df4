package main

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// nodeDistance calculates the Euclidean distance between two waypoints
func nodeDistance(a, b Node) float64 {
	return planar.Distance(a.Point(), b.Point())
}

// Segment is a straight corridor piece or polygon side
type Segment struct {
	P1, P2 orb.Point
}

// SegmentsIntersect reports whether a and b share at least one point.
// Touching endpoints and collinear overlap both count.
func SegmentsIntersect(a, b Segment) bool {
	o1 := orientation(a.P1, a.P2, b.P1)
	o2 := orientation(a.P1, a.P2, b.P2)
	o3 := orientation(b.P1, b.P2, a.P1)
	o4 := orientation(b.P1, b.P2, a.P2)

	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}

	switch {
	case o1 == 0 && withinBox(a, b.P1),
		o2 == 0 && withinBox(a, b.P2),
		o3 == 0 && withinBox(b, a.P1),
		o4 == 0 && withinBox(b, a.P2):
		return true
	}
	return false
}

// orientation is the z component of (b-a) x (c-a). Zero means collinear.
func orientation(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func withinBox(s Segment, p orb.Point) bool {
	return p[0] >= math.Min(s.P1[0], s.P2[0]) && p[0] <= math.Max(s.P1[0], s.P2[0]) &&
		p[1] >= math.Min(s.P1[1], s.P2[1]) && p[1] <= math.Max(s.P1[1], s.P2[1])
}

func segmentCrossesRing(seg Segment, ring orb.Ring) bool {
	for i := range ring {
		side := Segment{P1: ring[i], P2: ring[(i+1)%len(ring)]}
		if SegmentsIntersect(seg, side) {
			return true
		}
	}
	return false
}

// SegmentTouchesPolygon reports whether any part of the segment lies inside
// or on the boundary of the polygon's outer ring
func SegmentTouchesPolygon(seg Segment, polygon orb.Polygon) bool {
	if len(polygon) == 0 || len(polygon[0]) < 3 {
		return false
	}
	outer := polygon[0]
	if segmentCrossesRing(seg, outer) {
		return true
	}
	// covers a segment lying entirely inside
	return planar.RingContains(outer, seg.P1)
}

// PointInPolygon checks if a point is inside the polygon's outer ring
func PointInPolygon(point orb.Point, polygon orb.Polygon) bool {
	if len(polygon) == 0 || len(polygon[0]) < 3 {
		return false
	}
	return planar.RingContains(polygon[0], point)
}
