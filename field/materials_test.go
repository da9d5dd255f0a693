package field

import (
	"reflect"
	"testing"
)

func TestMaterialMapBoundsAndContains(t *testing.T) {
	mm := testMaterialMap(t)

	minX, minY, maxX, maxY := mm.Bounds()
	if minX != 0 || minY != 0 || maxX != 20 || maxY != 10 {
		t.Errorf("Bounds = (%.1f,%.1f,%.1f,%.1f), want (0,0,20,10)", minX, minY, maxX, maxY)
	}

	if !mm.Contains(10, 5) {
		t.Error("center point should be inside the footprint")
	}
	if mm.Contains(25, 5) {
		t.Error("point beyond the east wall should be outside")
	}
	if mm.Contains(10, -1) {
		t.Error("point below the south wall should be outside")
	}
}

func TestMaterialMapPolygonFootprint(t *testing.T) {
	// L-shaped floor: the top-right quadrant is cut out.
	building := BuildingConfig{
		Footprint: [][2]float64{
			{0, 0}, {20, 0}, {20, 5}, {10, 5}, {10, 10}, {0, 10},
		},
	}
	mm, err := NewMaterialMap(building, nil, nil)
	if err != nil {
		t.Fatalf("NewMaterialMap: %v", err)
	}

	if !mm.Contains(5, 8) {
		t.Error("top-left wing should be inside")
	}
	if !mm.Contains(15, 2) {
		t.Error("bottom-right wing should be inside")
	}
	if mm.Contains(15, 8) {
		t.Error("cut-out notch should be outside")
	}
}

func TestNewMaterialMapRejectsBadInput(t *testing.T) {
	if _, err := NewMaterialMap(BuildingConfig{}, nil, nil); err == nil {
		t.Error("expected error for empty building config")
	}

	unknown := []MaterialRegionConfig{
		{Material: "adamantium", Polygon: [][2]float64{{0, 0}, {1, 0}, {1, 1}}},
	}
	if _, err := NewMaterialMap(testBuilding(), unknown, nil); err == nil {
		t.Error("expected error for material without attenuation entry")
	}

	degenerate := []MaterialRegionConfig{
		{Material: "drywall", Polygon: [][2]float64{{0, 0}, {1, 0}}},
	}
	if _, err := NewMaterialMap(testBuilding(), degenerate, nil); err == nil {
		t.Error("expected error for two-point polygon")
	}
}

func TestMaterialAtFirstMatchWins(t *testing.T) {
	regions := []MaterialRegionConfig{
		{Material: "metal", Polygon: [][2]float64{{4, 4}, {6, 4}, {6, 6}, {4, 6}}},
		{Material: "wood", Polygon: [][2]float64{{3, 3}, {7, 3}, {7, 7}, {3, 7}}},
	}
	mm, err := NewMaterialMap(testBuilding(), regions, nil)
	if err != nil {
		t.Fatalf("NewMaterialMap: %v", err)
	}

	if got := mm.MaterialAt(5, 5); got != "metal" {
		t.Errorf("MaterialAt(5,5) = %q, want metal (declared first)", got)
	}
	if got := mm.MaterialAt(3.5, 5); got != "wood" {
		t.Errorf("MaterialAt(3.5,5) = %q, want wood", got)
	}
	if got := mm.MaterialAt(1, 1); got != "" {
		t.Errorf("MaterialAt(1,1) = %q, want open space", got)
	}
}

func TestMaterialsAlongContiguousRuns(t *testing.T) {
	regions := []MaterialRegionConfig{
		{Material: "concrete", Polygon: [][2]float64{{5, 0}, {5.3, 0}, {5.3, 10}, {5, 10}}},
		{Material: "drywall", Polygon: [][2]float64{{12, 0}, {12.15, 0}, {12.15, 10}, {12, 10}}},
	}
	mm, err := NewMaterialMap(testBuilding(), regions, nil)
	if err != nil {
		t.Fatalf("NewMaterialMap: %v", err)
	}

	// One wall, one entry, regardless of thickness.
	got := mm.MaterialsAlong(2, 5, 8, 5)
	if !reflect.DeepEqual(got, []string{"concrete"}) {
		t.Errorf("single wall crossing = %v, want [concrete]", got)
	}

	// Two separated walls, two entries in traversal order.
	got = mm.MaterialsAlong(2, 5, 18, 5)
	if !reflect.DeepEqual(got, []string{"concrete", "drywall"}) {
		t.Errorf("double crossing = %v, want [concrete drywall]", got)
	}

	// Open-space segment crosses nothing.
	if got := mm.MaterialsAlong(6, 5, 11, 5); got != nil {
		t.Errorf("open segment = %v, want nil", got)
	}

	// Zero-length segment crosses nothing.
	if got := mm.MaterialsAlong(5.1, 5, 5.1, 5); got != nil {
		t.Errorf("zero-length segment = %v, want nil", got)
	}
}

func TestAttenuationAlong(t *testing.T) {
	regions := []MaterialRegionConfig{
		{Material: "concrete", Polygon: [][2]float64{{5, 0}, {5.3, 0}, {5.3, 10}, {5, 10}}},
		{Material: "glass", Polygon: [][2]float64{{12, 0}, {12.2, 0}, {12.2, 10}, {12, 10}}},
	}
	mm, err := NewMaterialMap(testBuilding(), regions, nil)
	if err != nil {
		t.Fatalf("NewMaterialMap: %v", err)
	}

	if got := mm.AttenuationAlong(2, 5, 18, 5); got != 14.0 {
		t.Errorf("AttenuationAlong = %.2f dB, want 14.00 (concrete 12 + glass 2)", got)
	}
}

func TestOfficeLayoutRegionsResolve(t *testing.T) {
	regions := OfficeLayout(20, 10, 4)
	mm, err := NewMaterialMap(testBuilding(), regions, nil)
	if err != nil {
		t.Fatalf("NewMaterialMap with office layout: %v", err)
	}

	// The outer shell is concrete.
	if got := mm.MaterialAt(10, 0.1); got != "concrete" {
		t.Errorf("south wall material = %q, want concrete", got)
	}
	// The corridor partition has a wooden door at the center gap.
	if got := mm.MaterialAt(10, 5.05); got != "wood" {
		t.Errorf("corridor door material = %q, want wood", got)
	}
	// Open space in a room.
	if got := mm.MaterialAt(2.5, 7.5); got != "" {
		t.Errorf("room interior material = %q, want open space", got)
	}
}
