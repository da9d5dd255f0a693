package field

import (
	"testing"
	"time"
)

// Shared fixtures: a 20x10m rectangular floor with two access points, and
// synthetic surveys generated from the propagation model.

func testBuilding() BuildingConfig {
	return BuildingConfig{Width: 20, Height: 10}
}

func testAPs() []AccessPoint {
	return []AccessPoint{
		{ID: "ap-north", X: 5, Y: 8, Channel: 6, Security: "wpa2"},
		{ID: "ap-south", X: 15, Y: 2, Channel: 11, Security: "wpa2"},
	}
}

func testMaterialMap(t *testing.T) *MaterialMap {
	t.Helper()
	mm, err := NewMaterialMap(testBuilding(), nil, nil)
	if err != nil {
		t.Fatalf("NewMaterialMap: %v", err)
	}
	return mm
}

func testSurvey(t *testing.T, seed int64) []Sample {
	t.Helper()
	mm := testMaterialMap(t)
	model := NewPropagationModel(PropagationConfig{}, nil)
	return GenerateSurvey(testAPs(), mm, model, SurveyOptions{Spacing: 1.5, Seed: seed})
}

// testMatrix fits a fresh pipeline on a synthetic survey and returns both.
func testMatrix(t *testing.T, seed int64) (*FeaturePipeline, *FeatureMatrix) {
	t.Helper()
	pipeline := NewFeaturePipeline(testAPs())
	matrix, err := pipeline.Fit(testSurvey(t, seed))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return pipeline, matrix
}

func testTime() time.Time {
	return time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
}

func testSample(apID string, rssi, x, y float64) Sample {
	return Sample{
		APID:      apID,
		RSSI:      rssi,
		X:         x,
		Y:         y,
		Timestamp: testTime(),
		Channel:   6,
		Security:  "wpa2",
	}
}
