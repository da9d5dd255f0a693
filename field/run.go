package field

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// RunInfo is the metadata persisted alongside a pipeline run's artifacts:
// the dataset validation counts, ranked evaluation results, and the config
// snapshot that produced them.
type RunInfo struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Config    *Config            `json:"config"`
	Report    ValidationReport   `json:"validation"`
	Results   []EvaluationResult `json:"results"`
	Best      string             `json:"best,omitempty"`
	Coverage  *CoverageStats     `json:"coverage,omitempty"`
}

// NewRunInfo stamps a fresh run identifier.
func NewRunInfo(cfg *Config) *RunInfo {
	return &RunInfo{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Config:    cfg,
	}
}

// NewRunDir creates a timestamped run directory under base, e.g.
// runs/run_20240101_120000, and returns its path.
func NewRunDir(base string, at time.Time) (string, error) {
	dir := filepath.Join(base, "run_"+at.Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	return dir, nil
}

// SaveRunInfo writes run_info.json into the run directory.
func SaveRunInfo(dir string, info *RunInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run info: %w", err)
	}
	path := filepath.Join(dir, "run_info.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing run info: %w", err)
	}
	return nil
}

// LoadRunInfo reads run_info.json from a run directory.
func LoadRunInfo(dir string) (*RunInfo, error) {
	data, err := os.ReadFile(filepath.Join(dir, "run_info.json"))
	if err != nil {
		return nil, fmt.Errorf("reading run info: %w", err)
	}
	var info RunInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing run info: %w", err)
	}
	return &info, nil
}
