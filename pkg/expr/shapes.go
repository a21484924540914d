// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package expr

import (
	"math"
	"strconv"
	"strings"
)

// shape is a minimal WKT-subset geometry: either a single point or a
// closed ring of points (POLYGON's outer ring only; holes are not
// modeled). No repository in the retrieval pack depends on a WKT/GeoJSON
// geometry library, so shape predicates are implemented directly against
// this minimal representation rather than left unimplemented; see
// DESIGN.md's standard-library justification.
type shape struct {
	points []point
	isPoly bool
}

type point struct{ x, y float64 }

func parseWKT(s string) (shape, bool) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(upper, "POINT"):
		pts := parseCoordList(s)
		if len(pts) != 1 {
			return shape{}, false
		}
		return shape{points: pts}, true
	case strings.HasPrefix(upper, "POLYGON"):
		pts := parseCoordList(s)
		if len(pts) < 3 {
			return shape{}, false
		}
		return shape{points: pts, isPoly: true}, true
	default:
		return shape{}, false
	}
}

func parseCoordList(s string) []point {
	start := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if start < 0 || end <= start {
		return nil
	}
	body := s[start+1 : end]
	body = strings.Trim(body, "()")
	parts := strings.Split(body, ",")
	out := make([]point, 0, len(parts))
	for _, p := range parts {
		fields := strings.Fields(strings.TrimSpace(p))
		if len(fields) < 2 {
			continue
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		if errX != nil || errY != nil {
			continue
		}
		out = append(out, point{x: x, y: y})
	}
	return out
}

func (s shape) bbox() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range s.points {
		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}
	}
	return
}

// pointInPolygon uses the standard ray-casting algorithm.
func pointInPolygon(p point, poly []point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.y > p.y) != (pj.y > p.y) &&
			p.x < (pj.x-pi.x)*(p.y-pi.y)/(pj.y-pi.y)+pi.x {
			inside = !inside
		}
	}
	return inside
}

func bboxesOverlap(a, b shape) bool {
	aMinX, aMinY, aMaxX, aMaxY := a.bbox()
	bMinX, bMinY, bMaxX, bMaxY := b.bbox()
	return aMinX <= bMaxX && bMinX <= aMaxX && aMinY <= bMaxY && bMinY <= aMaxY
}

func shapeIntersects(wktA, wktB string) bool {
	a, okA := parseWKT(wktA)
	b, okB := parseWKT(wktB)
	if !okA || !okB {
		return false
	}
	if !a.isPoly && !b.isPoly {
		return a.points[0] == b.points[0]
	}
	if a.isPoly && !b.isPoly {
		return pointInPolygon(b.points[0], a.points) || bboxesOverlap(a, b)
	}
	if b.isPoly && !a.isPoly {
		return pointInPolygon(a.points[0], b.points) || bboxesOverlap(a, b)
	}
	return bboxesOverlap(a, b)
}

func shapeContains(wktA, wktB string) bool {
	a, okA := parseWKT(wktA)
	b, okB := parseWKT(wktB)
	if !okA || !okB {
		return false
	}
	if !a.isPoly {
		return !b.isPoly && a.points[0] == b.points[0]
	}
	if !b.isPoly {
		return pointInPolygon(b.points[0], a.points)
	}
	for _, p := range b.points {
		if !pointInPolygon(p, a.points) {
			return false
		}
	}
	return true
}

func shapeEquals(wktA, wktB string) bool {
	a, okA := parseWKT(wktA)
	b, okB := parseWKT(wktB)
	if !okA || !okB || a.isPoly != b.isPoly || len(a.points) != len(b.points) {
		return false
	}
	for i := range a.points {
		if a.points[i] != b.points[i] {
			return false
		}
	}
	return true
}
