package field

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKNNInterpolatesBetweenNeighbors(t *testing.T) {
	knn := NewKNNRegressor(2)
	knn.MinSamples = 2

	x := [][]float64{{0}, {1}}
	y := []float64{-70, -40}
	require.NoError(t, knn.Train(x, y))

	// Equidistant from both neighbors: equal weights, plain average.
	got, err := knn.Predict([]float64{0.5})
	require.NoError(t, err)
	assert.InDelta(t, -55, got, 1e-6)

	// Anywhere else the estimate stays strictly between the neighbors.
	got, err = knn.Predict([]float64{0.2})
	require.NoError(t, err)
	assert.Greater(t, got, -70.0)
	assert.Less(t, got, -40.0)

	// An exact match dominates through the inverse-distance weight.
	got, err = knn.Predict([]float64{0})
	require.NoError(t, err)
	assert.InDelta(t, -70, got, 1e-3)
}

func TestKNNInsufficientData(t *testing.T) {
	knn := NewKNNRegressor(5)

	err := knn.Train([][]float64{{0}, {1}, {2}}, []float64{-40, -50, -60})
	require.Error(t, err)

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, "knn", ide.Model)
	assert.Equal(t, 3, ide.Samples)
	assert.Equal(t, DefaultMinSamples, ide.Min)
}

func TestKNNRejectsConstantTargets(t *testing.T) {
	knn := NewKNNRegressor(3)
	knn.MinSamples = 2

	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{-50, -50, -50, -50}
	err := knn.Train(x, y)

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 1, ide.Distinct)
}

func TestKNNSchemaMismatch(t *testing.T) {
	knn := NewKNNRegressor(2)
	knn.MinSamples = 2
	require.NoError(t, knn.Train([][]float64{{0, 0}, {1, 1}}, []float64{-70, -40}))

	_, err := knn.Predict([]float64{0, 0, 0})
	var sme *SchemaMismatchError
	require.True(t, errors.As(err, &sme))
	assert.Equal(t, 3, sme.Got)
	assert.Equal(t, 2, sme.Want)
}

func TestKNNPredictBeforeTrain(t *testing.T) {
	knn := NewKNNRegressor(5)
	_, err := knn.Predict([]float64{0})

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
}

func TestKNNCloneIsUntrained(t *testing.T) {
	knn := NewKNNRegressor(3)
	knn.MinSamples = 2
	require.NoError(t, knn.Train([][]float64{{0}, {1}}, []float64{-70, -40}))

	clone := knn.Clone().(*KNNRegressor)
	assert.Equal(t, knn.K, clone.K)
	assert.Equal(t, knn.MinSamples, clone.MinSamples)

	_, err := clone.Predict([]float64{0.5})
	require.Error(t, err, "clone must not carry training data")
}

func TestKNNOnSurveyData(t *testing.T) {
	_, matrix := testMatrix(t, 7)

	knn := NewKNNRegressor(5)
	require.NoError(t, knn.Train(matrix.Rows, matrix.Targets))

	predicted, err := knn.PredictBatch(matrix.Rows)
	require.NoError(t, err)
	require.Len(t, predicted, len(matrix.Targets))

	for _, v := range predicted {
		assert.GreaterOrEqual(t, v, MinRSSI)
		assert.LessOrEqual(t, v, MaxRSSI)
	}
}
