package field

import (
	"reflect"
	"testing"
)

func TestGenerateSurveyDeterministic(t *testing.T) {
	a := testSurvey(t, 42)
	b := testSurvey(t, 42)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed must generate the same survey")
	}

	c := testSurvey(t, 43)
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds should generate different noise")
	}
}

func TestGenerateSurveyStaysInsideFootprint(t *testing.T) {
	mm := testMaterialMap(t)
	samples := testSurvey(t, 1)

	if len(samples) == 0 {
		t.Fatal("empty survey")
	}
	for i, s := range samples {
		if !mm.Contains(s.X, s.Y) {
			t.Errorf("sample %d at (%.2f,%.2f) is outside the footprint", i, s.X, s.Y)
		}
		if s.RSSI < MinRSSI || s.RSSI > MaxRSSI {
			t.Errorf("sample %d RSSI %.2f out of physical range", i, s.RSSI)
		}
	}
}

func TestGenerateSurveyOrderAndMetadata(t *testing.T) {
	samples := testSurvey(t, 2)
	aps := testAPs()

	// Row-major grid walk, APs in declaration order at each point.
	if samples[0].APID != aps[0].ID || samples[1].APID != aps[1].ID {
		t.Errorf("AP order = %s, %s; want %s, %s", samples[0].APID, samples[1].APID, aps[0].ID, aps[1].ID)
	}
	if samples[0].X != samples[1].X || samples[0].Y != samples[1].Y {
		t.Error("both APs should be measured at the same grid point")
	}
	if samples[0].Channel != aps[0].Channel || samples[0].Security != aps[0].Security {
		t.Error("sample must carry the AP's channel and security")
	}
	if samples[0].Timestamp.IsZero() {
		t.Error("samples need a timestamp for the feature schema")
	}
}

func TestAugmentSamplesTopsUp(t *testing.T) {
	mm := testMaterialMap(t)
	model := NewPropagationModel(PropagationConfig{}, nil)
	base := testSurvey(t, 3)

	target := len(base) + 40
	out := AugmentSamples(base, target, testAPs(), mm, model, SurveyOptions{Seed: 3})
	if len(out) != target {
		t.Fatalf("augmented to %d samples, want %d", len(out), target)
	}

	// The measured prefix is untouched.
	if !reflect.DeepEqual(out[:len(base)], base) {
		t.Error("augmentation must not modify the measured samples")
	}
	for i, s := range out[len(base):] {
		if !mm.Contains(s.X, s.Y) {
			t.Errorf("synthetic sample %d outside the footprint", i)
		}
	}
}

func TestAugmentSamplesNoopWhenEnough(t *testing.T) {
	mm := testMaterialMap(t)
	model := NewPropagationModel(PropagationConfig{}, nil)
	base := testSurvey(t, 4)

	out := AugmentSamples(base, len(base)-10, testAPs(), mm, model, SurveyOptions{Seed: 4})
	if len(out) != len(base) {
		t.Errorf("got %d samples, want unchanged %d", len(out), len(base))
	}
}
