package field

import (
	"math"
	"sort"
)

// KernelRegressor is a Nadaraya-Watson estimator with a Gaussian kernel and
// ridge-style regularization toward the training mean. When every kernel
// weight vanishes (a probe far from all training rows, or a degenerate
// bandwidth) the regularizer takes over and the estimate falls back to the
// training mean instead of failing.
type KernelRegressor struct {
	// Bandwidth is the Gaussian kernel width in feature-space units.
	// Zero means derive it from the median pairwise training distance.
	Bandwidth float64

	// Ridge is the regularization mass pulled toward the training mean.
	Ridge float64

	MinSamples int

	x         [][]float64
	y         []float64
	width     int
	bandwidth float64 // effective value after training
	meanY     float64
}

// NewKernelRegressor creates an untrained kernel regressor. A zero bandwidth
// enables the median heuristic; ridge defaults to 1e-3.
func NewKernelRegressor(bandwidth, ridge float64) *KernelRegressor {
	if ridge <= 0 {
		ridge = 1e-3
	}
	return &KernelRegressor{Bandwidth: bandwidth, Ridge: ridge, MinSamples: DefaultMinSamples}
}

func (r *KernelRegressor) Name() string { return "kernel" }

func (r *KernelRegressor) Clone() Predictor {
	return &KernelRegressor{Bandwidth: r.Bandwidth, Ridge: r.Ridge, MinSamples: r.MinSamples}
}

func (r *KernelRegressor) Train(x [][]float64, y []float64) error {
	if err := checkTrainable(r.Name(), x, y, r.MinSamples); err != nil {
		return err
	}
	r.x = make([][]float64, len(x))
	for i, row := range x {
		r.x[i] = append([]float64(nil), row...)
	}
	r.y = append([]float64(nil), y...)
	r.width = len(x[0])

	var sum float64
	for _, v := range y {
		sum += v
	}
	r.meanY = sum / float64(len(y))

	r.bandwidth = r.Bandwidth
	if r.bandwidth <= 0 {
		r.bandwidth = medianPairwiseDistance(r.x)
	}
	// A collapsed training set (all rows identical) gives a zero median.
	// Fall back to a unit bandwidth rather than dividing by zero.
	if r.bandwidth <= 0 {
		r.bandwidth = 1.0
	}
	return nil
}

func (r *KernelRegressor) Predict(v []float64) (float64, error) {
	if r.width == 0 {
		return 0, &InsufficientDataError{Model: r.Name(), Min: r.MinSamples}
	}
	if len(v) != r.width {
		return 0, &SchemaMismatchError{Model: r.Name(), Got: len(v), Want: r.width}
	}

	denomScale := 2 * r.bandwidth * r.bandwidth
	num := r.Ridge * r.meanY
	den := r.Ridge
	for i, row := range r.x {
		d := euclidean(v, row)
		w := math.Exp(-d * d / denomScale)
		num += w * r.y[i]
		den += w
	}
	return num / den, nil
}

func (r *KernelRegressor) PredictBatch(x [][]float64) ([]float64, error) {
	return predictAll(r, x)
}

// medianPairwiseDistance estimates a kernel bandwidth from the data. For
// large training sets only a deterministic stride of row pairs is sampled.
func medianPairwiseDistance(x [][]float64) float64 {
	n := len(x)
	if n < 2 {
		return 0
	}

	stride := 1
	// Cap the pair count at roughly 200*200/2.
	for (n/stride)*(n/stride) > 40000 {
		stride++
	}

	var dists []float64
	for i := 0; i < n; i += stride {
		for j := i + stride; j < n; j += stride {
			dists = append(dists, euclidean(x[i], x[j]))
		}
	}
	if len(dists) == 0 {
		return 0
	}

	sort.Float64s(dists)
	return dists[len(dists)/2]
}
