package main

import (
	"log"

	"github.com/paulmach/orb"
)

// MergeHazardZones drops zones that lie entirely inside another zone. Such
// zones cannot change any risk value and only cost extra R-tree hits.
func MergeHazardZones(zones []HazardZone) []HazardZone {
	if len(zones) <= 1 {
		return zones
	}

	filtered := removeContainedZones(zones)

	if removed := len(zones) - len(filtered); removed > 0 {
		log.Printf("   Hazard zones after removing contained: %d (removed %d)\n", len(filtered), removed)
	}
	return filtered
}

// removeContainedZones keeps the first of two identical zones and drops the
// inner one of a nested pair
func removeContainedZones(zones []HazardZone) []HazardZone {
	contained := make([]bool, len(zones))

	for i := range zones {
		if contained[i] {
			continue
		}
		for j := range zones {
			if i == j || contained[j] {
				continue
			}

			if isZoneContainedIn(zones[i], zones[j]) && !(j > i && isZoneContainedIn(zones[j], zones[i])) {
				contained[i] = true
				break
			}
			if isZoneContainedIn(zones[j], zones[i]) {
				contained[j] = true
			}
		}
	}

	result := make([]HazardZone, 0, len(zones))
	for i, zone := range zones {
		if !contained[i] {
			result = append(result, zone)
		}
	}
	return result
}

// isZoneContainedIn reports whether a's outer ring lies inside b's outer
// ring. A ring that touches or crosses b's boundary anywhere other than a
// vertex-on-boundary does not count as contained unless the rings are equal.
func isZoneContainedIn(a, b HazardZone) bool {
	if len(a.Polygon) == 0 || len(b.Polygon) == 0 {
		return false
	}
	outerA, outerB := a.Polygon[0], b.Polygon[0]
	if len(outerA) < 3 || len(outerB) < 3 {
		return false
	}

	// Quick bounding box check first
	if !isBoundContained(outerA.Bound(), outerB.Bound()) {
		return false
	}

	for _, vertex := range outerA {
		if !PointInPolygon(vertex, b.Polygon) {
			return false
		}
	}

	if outerA.Equal(outerB) {
		return true
	}

	// Every vertex inside is not enough for a concave b
	n := len(outerA)
	for i := 0; i < n; i++ {
		seg := Segment{P1: outerA[i], P2: outerA[(i+1)%n]}
		if seg.P1.Equal(seg.P2) {
			continue
		}
		if segmentCrossesRing(seg, outerB) {
			return false
		}
	}

	return true
}

// isBoundContained checks if bound a is contained in bound b
func isBoundContained(a, b orb.Bound) bool {
	return a.Min[0] >= b.Min[0] && a.Max[0] <= b.Max[0] &&
		a.Min[1] >= b.Min[1] && a.Max[1] <= b.Max[1]
}
