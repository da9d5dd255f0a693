package field

import "time"

// Sample is a single RSSI measurement taken at a known position inside the
// building. Coordinates are building-local meters with the origin at the
// bottom-left corner of the footprint.
type Sample struct {
	APID      string    `json:"apId" yaml:"apId"`
	RSSI      float64   `json:"rssi" yaml:"rssi"`
	X         float64   `json:"x" yaml:"x"`
	Y         float64   `json:"y" yaml:"y"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Channel   int       `json:"channel" yaml:"channel"`
	Security  string    `json:"security" yaml:"security"`
}

// AccessPoint describes a deployed access point.
type AccessPoint struct {
	ID       string  `yaml:"id" json:"id"`
	X        float64 `yaml:"x" json:"x"`
	Y        float64 `yaml:"y" json:"y"`
	Channel  int     `yaml:"channel" json:"channel"`
	Security string  `yaml:"security,omitempty" json:"security,omitempty"`
}

// EvaluationResult holds held-out and cross-validated error metrics for one
// trained predictor. Skipped results carry the reason in Fault and have
// zero-valued metrics.
type EvaluationResult struct {
	Model     string  `json:"model"`
	RMSE      float64 `json:"rmse"`
	R2        float64 `json:"r2"`
	CVRMSE    float64 `json:"cvRmseMean"`
	CVRMSEStd float64 `json:"cvRmseStd"`
	Skipped   bool    `json:"skipped,omitempty"`
	Fault     string  `json:"fault,omitempty"`
}

// GridSpec defines the sampling grid for coverage fields.
// Resolution is cells per meter; coarser grids trade fidelity for speed.
type GridSpec struct {
	Resolution float64 `yaml:"resolution" json:"resolution"`
}

// CellSize returns the edge length of one grid cell in meters.
func (g GridSpec) CellSize() float64 {
	if g.Resolution <= 0 {
		return 1.0
	}
	return 1.0 / g.Resolution
}

// CoverageField is a dense grid of predicted signal strength over the
// building footprint. Best holds the strongest per-cell RSSI across all
// access points; Overlap counts the APs whose predicted signal exceeds the
// usability threshold. Cells outside the footprint are masked and carry no
// numeric estimate. A field is always regenerated whole, never patched.
type CoverageField struct {
	OriginX  float64 `json:"originX"`
	OriginY  float64 `json:"originY"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	CellSize float64 `json:"cellSize"`
	Cols     int     `json:"cols"`
	Rows     int     `json:"rows"`

	// Row-major [row][col]; row 0 is the bottom edge of the footprint.
	Best    [][]float64            `json:"best"`
	Overlap [][]int                `json:"overlap"`
	Mask    [][]bool               `json:"mask"` // true = inside footprint
	PerAP   map[string][][]float64 `json:"perAp,omitempty"`
}

// CellCenter returns the world coordinate of the center of cell (row, col).
func (f *CoverageField) CellCenter(row, col int) (x, y float64) {
	return f.OriginX + (float64(col)+0.5)*f.CellSize, f.OriginY + (float64(row)+0.5)*f.CellSize
}

// PropagationConfig parameterizes the log-distance path-loss model.
type PropagationConfig struct {
	Exponent          float64 `yaml:"exponent,omitempty" json:"exponent,omitempty"`                   // path-loss exponent (default 3.0, indoor office)
	ReferencePower    float64 `yaml:"referencePower,omitempty" json:"referencePower,omitempty"`       // dBm at the reference distance (default -30)
	ReferenceDistance float64 `yaml:"referenceDistance,omitempty" json:"referenceDistance,omitempty"` // meters (default 1.0)
	NoiseStd          float64 `yaml:"noiseStd,omitempty" json:"noiseStd,omitempty"`                   // synthetic survey noise, dB (default 2.0)
}

// TrainingConfig parameterizes model fitting and comparison.
type TrainingConfig struct {
	MinSamples   int     `yaml:"minSamples,omitempty" json:"minSamples,omitempty"`     // below this Train fails (default 10)
	Folds        int     `yaml:"folds,omitempty" json:"folds,omitempty"`               // cross-validation folds (default 5)
	TestFraction float64 `yaml:"testFraction,omitempty" json:"testFraction,omitempty"` // held-out share (default 0.25)
	Seed         int64   `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// CoverageConfig parameterizes field aggregation.
type CoverageConfig struct {
	Grid       GridSpec `yaml:"grid" json:"grid"`
	UsableRSSI float64  `yaml:"usableRssi,omitempty" json:"usableRssi,omitempty"` // dBm threshold for the overlap count (default -70)
}

// MQTTConfig holds MQTT connection settings for the optional service mode.
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// MaterialRegionConfig defines one material region as a closed polygon with
// a named material. The attenuation table maps the name to a dB penalty.
type MaterialRegionConfig struct {
	Material string       `yaml:"material" json:"material"`
	Polygon  [][2]float64 `yaml:"polygon" json:"polygon"`
}

// BuildingConfig defines the building footprint. Either Footprint (a closed
// polygon) or Width/Height (an axis-aligned rectangle at the origin) must be
// set; an explicit footprint wins.
type BuildingConfig struct {
	Width     float64      `yaml:"width,omitempty" json:"width,omitempty"`
	Height    float64      `yaml:"height,omitempty" json:"height,omitempty"`
	Footprint [][2]float64 `yaml:"footprint,omitempty" json:"footprint,omitempty"`
}

// Config is the full configuration file. It is read once at startup and
// treated as immutable afterwards.
type Config struct {
	Building     BuildingConfig         `yaml:"building" json:"building"`
	AccessPoints []AccessPoint          `yaml:"accessPoints" json:"accessPoints"`
	Materials    []MaterialRegionConfig `yaml:"materials,omitempty" json:"materials,omitempty"`
	Attenuation  map[string]float64     `yaml:"attenuation,omitempty" json:"attenuation,omitempty"`
	Propagation  PropagationConfig      `yaml:"propagation,omitempty" json:"propagation,omitempty"`
	Training     TrainingConfig         `yaml:"training,omitempty" json:"training,omitempty"`
	Coverage     CoverageConfig         `yaml:"coverage,omitempty" json:"coverage,omitempty"`
	MQTT         MQTTConfig             `yaml:"mqtt,omitempty" json:"mqtt,omitempty"`
}

// GetAccessPoint returns the access point with the given ID, or nil.
func (c *Config) GetAccessPoint(id string) *AccessPoint {
	for i := range c.AccessPoints {
		if c.AccessPoints[i].ID == id {
			return &c.AccessPoints[i]
		}
	}
	return nil
}

// Default configuration values. Zero values in the config file are replaced
// by these during validation.
const (
	DefaultExponent          = 3.0
	DefaultReferencePower    = -30.0
	DefaultReferenceDistance = 1.0
	DefaultNoiseStd          = 2.0
	DefaultMinSamples        = 10
	DefaultFolds             = 5
	DefaultTestFraction      = 0.25
	DefaultUsableRSSI        = -70.0
	DefaultGridResolution    = 2.0 // cells per meter
)

// RSSI bounds in dBm. Predicted fields are clamped to this range and raw
// samples outside it are excluded (and counted) during validation.
const (
	MinRSSI = -100.0
	MaxRSSI = 0.0
)
