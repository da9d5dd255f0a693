package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lShapedMap builds an L-shaped footprint with the top-right quadrant cut
// out, so the mask has a meaningful outside region within the bounds.
func lShapedMap(t *testing.T) *MaterialMap {
	t.Helper()
	building := BuildingConfig{
		Footprint: [][2]float64{
			{0, 0}, {20, 0}, {20, 5}, {10, 5}, {10, 10}, {0, 10},
		},
	}
	mm, err := NewMaterialMap(building, nil, nil)
	if err != nil {
		t.Fatalf("NewMaterialMap: %v", err)
	}
	return mm
}

func trainedBuilder(t *testing.T, mm *MaterialMap) (*FieldBuilder, Predictor) {
	t.Helper()
	model := NewPropagationModel(PropagationConfig{}, nil)
	samples := GenerateSurvey(testAPs(), mm, model, SurveyOptions{Spacing: 1.5, Seed: 21})

	pipeline := NewFeaturePipeline(testAPs())
	matrix, err := pipeline.Fit(samples)
	require.NoError(t, err)

	knn := NewKNNRegressor(5)
	require.NoError(t, knn.Train(matrix.Rows, matrix.Targets))

	builder := NewFieldBuilder(pipeline, mm, CoverageConfig{
		Grid:       GridSpec{Resolution: 1},
		UsableRSSI: DefaultUsableRSSI,
	})
	return builder, knn
}

func TestBuildMasksOutsideFootprint(t *testing.T) {
	mm := lShapedMap(t)
	builder, knn := trainedBuilder(t, mm)

	f, err := builder.BuildWith(knn, testAPs())
	require.NoError(t, err)

	assert.Equal(t, 20, f.Cols)
	assert.Equal(t, 10, f.Rows)
	assert.Equal(t, 1.0, f.CellSize)

	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			x, y := f.CellCenter(row, col)
			inside := mm.Contains(x, y)
			assert.Equal(t, inside, f.Mask[row][col], "mask at (%d,%d)", row, col)
			if inside {
				assert.False(t, math.IsNaN(f.Best[row][col]), "inside cell (%d,%d) has no estimate", row, col)
			} else {
				// Outside cells are never interpolated.
				assert.True(t, math.IsNaN(f.Best[row][col]), "outside cell (%d,%d) got a value", row, col)
				assert.Zero(t, f.Overlap[row][col])
			}
		}
	}
}

func TestBuildBestIsMaxAcrossAPs(t *testing.T) {
	mm := testMaterialMap(t)
	builder, knn := trainedBuilder(t, mm)

	f, err := builder.BuildWith(knn, testAPs())
	require.NoError(t, err)
	require.Len(t, f.PerAP, 2)

	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			if !f.Mask[row][col] {
				continue
			}
			max := math.Inf(-1)
			above := 0
			for _, grid := range f.PerAP {
				v := grid[row][col]
				require.False(t, math.IsNaN(v))
				assert.GreaterOrEqual(t, v, MinRSSI)
				assert.LessOrEqual(t, v, MaxRSSI)
				if v > max {
					max = v
				}
				if v > builder.UsableRSSI {
					above++
				}
			}
			assert.Equal(t, max, f.Best[row][col], "best at (%d,%d)", row, col)
			assert.Equal(t, above, f.Overlap[row][col], "overlap at (%d,%d)", row, col)
		}
	}
}

func TestBuildRequiresFittedPipeline(t *testing.T) {
	mm := testMaterialMap(t)
	builder := NewFieldBuilder(NewFeaturePipeline(testAPs()), mm, CoverageConfig{})

	_, err := builder.BuildWith(NewKNNRegressor(5), testAPs())
	assert.Error(t, err)
}

func TestBuildRequiresPredictorPerAP(t *testing.T) {
	mm := testMaterialMap(t)
	builder, knn := trainedBuilder(t, mm)

	partial := map[string]Predictor{"ap-north": knn}
	_, err := builder.Build(partial, testAPs())
	assert.Error(t, err, "missing predictor for ap-south must fail")
}

func TestCoverageStats(t *testing.T) {
	f := &CoverageField{
		Cols: 2, Rows: 2,
		Best:    [][]float64{{-60, -80}, {-65, math.NaN()}},
		Overlap: [][]int{{2, 0}, {1, 0}},
		Mask:    [][]bool{{true, true}, {true, false}},
	}

	s := f.Stats(-70)
	assert.Equal(t, 3, s.InsideCells)
	assert.Equal(t, 2, s.UsableCells)
	assert.InDelta(t, 2.0/3.0, s.UsableShare, 1e-9)
	assert.InDelta(t, (-60-80-65)/3.0, s.MeanBestRSSI, 1e-9)
}

func TestCoverageStatsEmptyField(t *testing.T) {
	f := &CoverageField{
		Cols: 1, Rows: 1,
		Best: [][]float64{{math.NaN()}},
		Mask: [][]bool{{false}},
	}
	s := f.Stats(-70)
	assert.Zero(t, s.InsideCells)
	assert.Zero(t, s.UsableShare)
	assert.Zero(t, s.MeanBestRSSI)
}

func TestGridSpecCellSize(t *testing.T) {
	assert.Equal(t, 0.5, GridSpec{Resolution: 2}.CellSize())
	assert.Equal(t, 1.0, GridSpec{}.CellSize())
	assert.Equal(t, 1.0, GridSpec{Resolution: -1}.CellSize())
}
