package field

import (
	"math"
	"sort"
)

// KNNRegressor predicts by distance-weighted averaging over the K nearest
// training rows in feature space. Weights are inverse distances, so an exact
// feature match dominates the estimate.
type KNNRegressor struct {
	K          int
	MinSamples int

	x     [][]float64
	y     []float64
	width int
}

// NewKNNRegressor creates an untrained KNN regressor. k defaults to 5.
func NewKNNRegressor(k int) *KNNRegressor {
	if k <= 0 {
		k = 5
	}
	return &KNNRegressor{K: k, MinSamples: DefaultMinSamples}
}

func (r *KNNRegressor) Name() string { return "knn" }

func (r *KNNRegressor) Clone() Predictor {
	return &KNNRegressor{K: r.K, MinSamples: r.MinSamples}
}

// Train stores the training rows. KNN is instance-based: fitting is a copy,
// all work happens at prediction time.
func (r *KNNRegressor) Train(x [][]float64, y []float64) error {
	if err := checkTrainable(r.Name(), x, y, r.MinSamples); err != nil {
		return err
	}
	r.x = make([][]float64, len(x))
	for i, row := range x {
		r.x[i] = append([]float64(nil), row...)
	}
	r.y = append([]float64(nil), y...)
	r.width = len(x[0])
	return nil
}

func (r *KNNRegressor) Predict(v []float64) (float64, error) {
	if r.width == 0 {
		return 0, &InsufficientDataError{Model: r.Name(), Min: r.MinSamples}
	}
	if len(v) != r.width {
		return 0, &SchemaMismatchError{Model: r.Name(), Got: len(v), Want: r.width}
	}

	type neighbor struct {
		dist   float64
		target float64
	}
	neighbors := make([]neighbor, len(r.x))
	for i, row := range r.x {
		neighbors[i] = neighbor{dist: euclidean(v, row), target: r.y[i]}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].dist < neighbors[j].dist })

	k := r.K
	if k > len(neighbors) {
		k = len(neighbors)
	}

	// Inverse-distance weighting. The epsilon keeps an exact match finite
	// while still letting it dominate.
	const eps = 1e-9
	var num, den float64
	for _, nb := range neighbors[:k] {
		w := 1.0 / (nb.dist + eps)
		num += w * nb.target
		den += w
	}
	return num / den, nil
}

func (r *KNNRegressor) PredictBatch(x [][]float64) ([]float64, error) {
	return predictAll(r, x)
}

func euclidean(a, b []float64) float64 {
	var ss float64
	for i := range a {
		d := a[i] - b[i]
		ss += d * d
	}
	return math.Sqrt(ss)
}
