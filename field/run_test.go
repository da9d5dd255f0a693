package field

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewRunDirNaming(t *testing.T) {
	base := t.TempDir()
	at := time.Date(2024, 3, 15, 14, 30, 5, 0, time.UTC)

	dir, err := NewRunDir(base, at)
	if err != nil {
		t.Fatalf("NewRunDir: %v", err)
	}
	want := filepath.Join(base, "run_20240315_143005")
	if dir != want {
		t.Errorf("run dir = %s, want %s", dir, want)
	}
}

func TestRunInfoRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{Building: testBuilding(), AccessPoints: testAPs()}
	info := NewRunInfo(cfg)
	if info.ID == "" {
		t.Fatal("run info needs an identifier")
	}
	info.Best = "knn"
	info.Results = []EvaluationResult{{Model: "knn", RMSE: 3.2, R2: 0.91}}
	info.Report = ValidationReport{Total: 100, Kept: 98, OutOfBounds: 2}
	stats := CoverageStats{InsideCells: 200, UsableCells: 150, UsableShare: 0.75}
	info.Coverage = &stats

	if err := SaveRunInfo(dir, info); err != nil {
		t.Fatalf("SaveRunInfo: %v", err)
	}

	got, err := LoadRunInfo(dir)
	if err != nil {
		t.Fatalf("LoadRunInfo: %v", err)
	}
	if got.ID != info.ID || got.Best != "knn" {
		t.Errorf("round trip lost identity: %+v", got)
	}
	if len(got.Results) != 1 || got.Results[0].RMSE != 3.2 {
		t.Errorf("round trip lost results: %+v", got.Results)
	}
	if got.Report.OutOfBounds != 2 {
		t.Errorf("round trip lost validation report: %+v", got.Report)
	}
	if got.Coverage == nil || got.Coverage.UsableShare != 0.75 {
		t.Errorf("round trip lost coverage stats: %+v", got.Coverage)
	}
}

func TestLoadRunInfoMissing(t *testing.T) {
	if _, err := LoadRunInfo(t.TempDir()); err == nil {
		t.Error("expected error for missing run_info.json")
	}
}

func TestNewRunInfoDistinctIDs(t *testing.T) {
	cfg := &Config{}
	a := NewRunInfo(cfg)
	b := NewRunInfo(cfg)
	if a.ID == b.ID {
		t.Error("run identifiers must be unique")
	}
}
