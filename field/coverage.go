package field

import (
	"fmt"
	"math"
	"time"
)

// FieldBuilder evaluates trained predictors over a dense spatial grid and
// aggregates the per-AP estimates into a coverage field. The builder holds
// only read-only collaborators, so one instance can build fields for many
// predictor sets.
type FieldBuilder struct {
	Pipeline  *FeaturePipeline
	Materials *MaterialMap
	Grid      GridSpec

	// UsableRSSI is the dBm threshold a per-AP estimate must exceed to
	// count toward the overlap metric.
	UsableRSSI float64

	// ProbeTime is the timestamp stamped on grid probe samples, since the
	// feature schema includes time-of-day columns.
	ProbeTime time.Time
}

// NewFieldBuilder wires a builder from configuration.
func NewFieldBuilder(pipeline *FeaturePipeline, materials *MaterialMap, cfg CoverageConfig) *FieldBuilder {
	usable := cfg.UsableRSSI
	if usable == 0 {
		usable = DefaultUsableRSSI
	}
	grid := cfg.Grid
	if grid.Resolution <= 0 {
		grid.Resolution = DefaultGridResolution
	}
	return &FieldBuilder{
		Pipeline:   pipeline,
		Materials:  materials,
		Grid:       grid,
		UsableRSSI: usable,
		ProbeTime:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Build evaluates one predictor per access point (keyed by AP ID) over the
// grid. Per-cell estimates are clamped to the physical RSSI range; the
// combined field keeps the maximum across APs ("best available", what an
// opportunistically associating client would see) and the count of APs above
// the usability threshold. Cells outside the footprint stay masked with no
// numeric value.
func (b *FieldBuilder) Build(predictors map[string]Predictor, aps []AccessPoint) (*CoverageField, error) {
	if !b.Pipeline.Fitted() {
		return nil, fmt.Errorf("feature pipeline not fitted")
	}
	if len(aps) == 0 {
		return nil, fmt.Errorf("no access points")
	}
	for _, ap := range aps {
		if predictors[ap.ID] == nil {
			return nil, fmt.Errorf("no predictor for access point %q", ap.ID)
		}
	}

	minX, minY, maxX, maxY := b.Materials.Bounds()
	cell := b.Grid.CellSize()
	cols := int(math.Ceil((maxX - minX) / cell))
	rows := int(math.Ceil((maxY - minY) / cell))
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("degenerate footprint bounds")
	}

	f := &CoverageField{
		OriginX:  minX,
		OriginY:  minY,
		Width:    maxX - minX,
		Height:   maxY - minY,
		CellSize: cell,
		Cols:     cols,
		Rows:     rows,
		Best:     allocFloatGrid(rows, cols, math.NaN()),
		Overlap:  allocIntGrid(rows, cols),
		Mask:     allocBoolGrid(rows, cols),
		PerAP:    make(map[string][][]float64, len(aps)),
	}

	// Mask pass: a cell belongs to the field when its center is inside
	// the footprint polygon. Outside cells are never interpolated.
	type cellRef struct{ row, col int }
	var inside []cellRef
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x, y := f.CellCenter(row, col)
			if b.Materials.Contains(x, y) {
				f.Mask[row][col] = true
				inside = append(inside, cellRef{row, col})
			}
		}
	}

	for _, ap := range aps {
		// One probe per inside cell, batched through a single transform
		// so the frozen scaling parameters are applied uniformly.
		probes := make([]Sample, len(inside))
		for i, c := range inside {
			x, y := f.CellCenter(c.row, c.col)
			probes[i] = Sample{
				APID:      ap.ID,
				X:         x,
				Y:         y,
				Timestamp: b.ProbeTime,
				Channel:   ap.Channel,
				Security:  ap.Security,
			}
		}

		matrix, err := b.Pipeline.Transform(probes)
		if err != nil {
			return nil, fmt.Errorf("encoding probes for %s: %w", ap.ID, err)
		}
		estimates, err := predictors[ap.ID].PredictBatch(matrix.Rows)
		if err != nil {
			return nil, fmt.Errorf("predicting field for %s: %w", ap.ID, err)
		}

		apGrid := allocFloatGrid(rows, cols, math.NaN())
		for i, c := range inside {
			rssi := ClampRSSI(estimates[i])
			apGrid[c.row][c.col] = rssi

			if best := f.Best[c.row][c.col]; math.IsNaN(best) || rssi > best {
				f.Best[c.row][c.col] = rssi
			}
			if rssi > b.UsableRSSI {
				f.Overlap[c.row][c.col]++
			}
		}
		f.PerAP[ap.ID] = apGrid
	}

	return f, nil
}

// BuildWith evaluates a single predictor for every access point. This is the
// common case after comparison: the best-ranked model serves all APs.
func (b *FieldBuilder) BuildWith(p Predictor, aps []AccessPoint) (*CoverageField, error) {
	predictors := make(map[string]Predictor, len(aps))
	for _, ap := range aps {
		predictors[ap.ID] = p
	}
	return b.Build(predictors, aps)
}

// Stats summarizes a coverage field for reporting: share of inside cells
// above the usability threshold and the mean best RSSI.
type CoverageStats struct {
	InsideCells  int     `json:"insideCells"`
	UsableCells  int     `json:"usableCells"`
	UsableShare  float64 `json:"usableShare"`
	MeanBestRSSI float64 `json:"meanBestRssi"`
}

// Stats computes summary statistics over the unmasked cells.
func (f *CoverageField) Stats(usableRSSI float64) CoverageStats {
	var s CoverageStats
	var sum float64
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			if !f.Mask[row][col] {
				continue
			}
			s.InsideCells++
			v := f.Best[row][col]
			sum += v
			if v > usableRSSI {
				s.UsableCells++
			}
		}
	}
	if s.InsideCells > 0 {
		s.UsableShare = float64(s.UsableCells) / float64(s.InsideCells)
		s.MeanBestRSSI = sum / float64(s.InsideCells)
	}
	return s
}

func allocFloatGrid(rows, cols int, fill float64) [][]float64 {
	g := make([][]float64, rows)
	for r := range g {
		g[r] = make([]float64, cols)
		for c := range g[r] {
			g[r][c] = fill
		}
	}
	return g
}

func allocIntGrid(rows, cols int) [][]int {
	g := make([][]int, rows)
	for r := range g {
		g[r] = make([]int, cols)
	}
	return g
}

func allocBoolGrid(rows, cols int) [][]bool {
	g := make([][]bool, rows)
	for r := range g {
		g[r] = make([]bool, cols)
	}
	return g
}
