package field

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the unified configuration from a YAML file and fills
// zero-valued tunables with defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.ApplyDefaults()
	return &config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if len(c.Building.Footprint) < 3 && (c.Building.Width <= 0 || c.Building.Height <= 0) {
		return fmt.Errorf("building requires a footprint polygon or positive width/height")
	}
	if len(c.AccessPoints) == 0 {
		return fmt.Errorf("at least one access point must be defined")
	}
	seen := make(map[string]bool, len(c.AccessPoints))
	for i, ap := range c.AccessPoints {
		if ap.ID == "" {
			return fmt.Errorf("accessPoints[%d].id is required", i)
		}
		if seen[ap.ID] {
			return fmt.Errorf("accessPoints[%d]: duplicate id %q", i, ap.ID)
		}
		seen[ap.ID] = true
	}
	for i, m := range c.Materials {
		if m.Material == "" {
			return fmt.Errorf("materials[%d].material is required", i)
		}
		if len(m.Polygon) < 3 {
			return fmt.Errorf("materials[%d] (%s): polygon needs at least 3 points", i, m.Material)
		}
	}
	if c.Training.TestFraction < 0 || c.Training.TestFraction >= 1 {
		return fmt.Errorf("training.testFraction must be in [0, 1)")
	}
	return nil
}

// ApplyDefaults fills zero-valued tunables. Called once after loading; the
// config is treated as immutable afterwards.
func (c *Config) ApplyDefaults() {
	if c.Propagation.Exponent == 0 {
		c.Propagation.Exponent = DefaultExponent
	}
	if c.Propagation.ReferencePower == 0 {
		c.Propagation.ReferencePower = DefaultReferencePower
	}
	if c.Propagation.ReferenceDistance <= 0 {
		c.Propagation.ReferenceDistance = DefaultReferenceDistance
	}
	if c.Propagation.NoiseStd == 0 {
		c.Propagation.NoiseStd = DefaultNoiseStd
	}
	if c.Training.MinSamples <= 0 {
		c.Training.MinSamples = DefaultMinSamples
	}
	if c.Training.Folds <= 0 {
		c.Training.Folds = DefaultFolds
	}
	if c.Training.TestFraction == 0 {
		c.Training.TestFraction = DefaultTestFraction
	}
	if c.Coverage.Grid.Resolution <= 0 {
		c.Coverage.Grid.Resolution = DefaultGridResolution
	}
	if c.Coverage.UsableRSSI == 0 {
		c.Coverage.UsableRSSI = DefaultUsableRSSI
	}
}
