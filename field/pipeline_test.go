package field

import (
	"reflect"
	"testing"
)

func pipelineConfig() *Config {
	cfg := &Config{
		Building:     testBuilding(),
		AccessPoints: testAPs(),
		Training:     TrainingConfig{Seed: 42},
		Coverage:     CoverageConfig{Grid: GridSpec{Resolution: 1}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestRunPipelineEndToEnd(t *testing.T) {
	cfg := pipelineConfig()
	samples := testSurvey(t, 42)

	result, err := RunPipeline(cfg, samples)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}

	if len(result.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(result.Results))
	}
	if result.Best == "" {
		t.Fatal("no best model selected")
	}
	if result.Best != result.Results[0].Model {
		t.Errorf("best %q is not the top-ranked result %q", result.Best, result.Results[0].Model)
	}
	if result.Field == nil {
		t.Fatal("no coverage field built")
	}
	if result.Report.Kept != len(samples) {
		t.Errorf("kept %d of %d clean samples", result.Report.Kept, len(samples))
	}

	if result.Info == nil || result.Info.ID == "" {
		t.Fatal("run info not stamped")
	}
	if result.Info.Best != result.Best {
		t.Error("run info best out of sync")
	}
	if result.Info.Coverage == nil || result.Info.Coverage.InsideCells == 0 {
		t.Error("run info missing coverage stats")
	}
}

func TestRunPipelineDeterministic(t *testing.T) {
	cfg := pipelineConfig()
	samples := testSurvey(t, 7)

	a, err := RunPipeline(cfg, samples)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := RunPipeline(cfg, samples)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(a.Results, b.Results) {
		t.Error("same config and samples must reproduce the same evaluation results")
	}
	if a.Best != b.Best {
		t.Errorf("best model differs: %q vs %q", a.Best, b.Best)
	}
	if !reflect.DeepEqual(a.Field.Best, b.Field.Best) {
		t.Error("coverage field differs between identical runs")
	}
}

func TestRunPipelineCountsExclusions(t *testing.T) {
	cfg := pipelineConfig()
	samples := testSurvey(t, 9)
	samples = append(samples,
		testSample("ap-north", -50, 50, 50), // outside footprint
		testSample("ap-north", -150, 5, 5),  // impossible RSSI
	)

	result, err := RunPipeline(cfg, samples)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if result.Report.OutOfBounds != 1 {
		t.Errorf("out-of-bounds count = %d, want 1", result.Report.OutOfBounds)
	}
	if result.Report.RSSIOutOfSpec != 1 {
		t.Errorf("RSSI exclusion count = %d, want 1", result.Report.RSSIOutOfSpec)
	}
	if result.Report.Kept != len(samples)-2 {
		t.Errorf("kept = %d, want %d", result.Report.Kept, len(samples)-2)
	}
}

func TestRunPipelineNoValidSamples(t *testing.T) {
	cfg := pipelineConfig()
	samples := []Sample{testSample("ap-north", -150, 5, 5)}

	if _, err := RunPipeline(cfg, samples); err == nil {
		t.Error("expected error when every sample is excluded")
	}
}

func TestRunPipelineAllPredictorsSkipped(t *testing.T) {
	cfg := pipelineConfig()
	cfg.Training.MinSamples = 100000
	samples := testSurvey(t, 11)

	result, err := RunPipeline(cfg, samples)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if result.Best != "" {
		t.Errorf("best = %q, want none", result.Best)
	}
	if result.Field != nil {
		t.Error("no field should be built without a trained model")
	}
	for _, r := range result.Results {
		if !r.Skipped || r.Fault == "" {
			t.Errorf("result %s should be skipped with a reason", r.Model)
		}
	}
}
