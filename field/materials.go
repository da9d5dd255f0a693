package field

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultAttenuation is the per-material penetration penalty in dB for one
// crossing. Values follow common indoor survey references.
func DefaultAttenuation() map[string]float64 {
	return map[string]float64{
		"drywall":  3.0,
		"glass":    2.0,
		"wood":     4.0,
		"metal":    10.0,
		"concrete": 12.0,
	}
}

// MaterialRegion is a polygonal area of the building tagged with a material.
type MaterialRegion struct {
	Material string
	Polygon  orb.Polygon
}

// MaterialMap holds the static building geometry: the footprint polygon, the
// material regions inside it, and the attenuation table. It is loaded once
// and never mutated during a run, so concurrent reads are safe.
type MaterialMap struct {
	Footprint   orb.Polygon
	Regions     []MaterialRegion
	Attenuation map[string]float64

	// stepSize controls the sampling interval for segment traversal, in
	// meters. Walls thinner than this may be missed.
	stepSize float64
}

// ringFromPairs builds a closed orb.Ring from coordinate pairs.
func ringFromPairs(pairs [][2]float64) orb.Ring {
	ring := make(orb.Ring, 0, len(pairs)+1)
	for _, p := range pairs {
		ring = append(ring, orb.Point{p[0], p[1]})
	}
	// Close the ring if not already closed.
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// rectRing builds a closed rectangular ring with the origin at (0,0).
func rectRing(width, height float64) orb.Ring {
	return orb.Ring{
		{0, 0}, {width, 0}, {width, height}, {0, height}, {0, 0},
	}
}

// NewMaterialMap builds a MaterialMap from configuration. The footprint
// comes from the explicit polygon when present, otherwise from the
// width/height rectangle. Region materials must appear in the attenuation
// table (the default table is merged in for missing entries).
func NewMaterialMap(building BuildingConfig, regions []MaterialRegionConfig, attenuation map[string]float64) (*MaterialMap, error) {
	var footprint orb.Ring
	switch {
	case len(building.Footprint) >= 3:
		footprint = ringFromPairs(building.Footprint)
	case building.Width > 0 && building.Height > 0:
		footprint = rectRing(building.Width, building.Height)
	default:
		return nil, fmt.Errorf("building footprint requires either a polygon or positive width/height")
	}

	atten := DefaultAttenuation()
	for name, db := range attenuation {
		atten[name] = db
	}

	mm := &MaterialMap{
		Footprint:   orb.Polygon{footprint},
		Attenuation: atten,
		stepSize:    0.1,
	}

	for i, rc := range regions {
		if rc.Material == "" {
			return nil, fmt.Errorf("material region %d: material name is required", i)
		}
		if _, ok := atten[rc.Material]; !ok {
			return nil, fmt.Errorf("material region %d: unknown material %q (no attenuation entry)", i, rc.Material)
		}
		if len(rc.Polygon) < 3 {
			return nil, fmt.Errorf("material region %d (%s): polygon needs at least 3 points", i, rc.Material)
		}
		mm.Regions = append(mm.Regions, MaterialRegion{
			Material: rc.Material,
			Polygon:  orb.Polygon{ringFromPairs(rc.Polygon)},
		})
	}

	return mm, nil
}

// Bounds returns the axis-aligned bounding box of the footprint.
func (m *MaterialMap) Bounds() (minX, minY, maxX, maxY float64) {
	b := m.Footprint.Bound()
	return b.Min[0], b.Min[1], b.Max[0], b.Max[1]
}

// Contains reports whether the point lies inside the building footprint.
func (m *MaterialMap) Contains(x, y float64) bool {
	return planar.PolygonContains(m.Footprint, orb.Point{x, y})
}

// MaterialAt returns the material at the given point, or "" for open space.
// Regions are checked in declaration order; the first match wins.
func (m *MaterialMap) MaterialAt(x, y float64) string {
	pt := orb.Point{x, y}
	for _, r := range m.Regions {
		if planar.PolygonContains(r.Polygon, pt) {
			return r.Material
		}
	}
	return ""
}

// MaterialsAlong walks the straight segment from (x1,y1) to (x2,y2) and
// returns one entry per contiguous material run crossed. Passing through a
// single wall yields one entry regardless of its thickness; re-entering the
// same material later yields another.
func (m *MaterialMap) MaterialsAlong(x1, y1, x2, y2 float64) []string {
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}

	steps := int(math.Ceil(length / m.stepSize))
	if steps < 1 {
		steps = 1
	}

	var crossed []string
	prev := ""
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		mat := m.MaterialAt(x1+t*dx, y1+t*dy)
		if mat != "" && mat != prev {
			crossed = append(crossed, mat)
		}
		prev = mat
	}
	return crossed
}

// AttenuationAlong sums the dB penalties of all material runs crossed by the
// segment.
func (m *MaterialMap) AttenuationAlong(x1, y1, x2, y2 float64) float64 {
	var total float64
	for _, mat := range m.MaterialsAlong(x1, y1, x2, y2) {
		total += m.Attenuation[mat]
	}
	return total
}
