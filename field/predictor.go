package field

import (
	"fmt"
	"math"
	"math/rand"
)

// Predictor is the capability set shared by all regression variants. A
// trained predictor is bound to the feature schema it was fitted on and is
// never refitted in place; Clone returns a fresh untrained instance with the
// same hyperparameters for retraining.
type Predictor interface {
	Name() string
	Clone() Predictor

	// Train fits the predictor in-sample. It returns
	// *InsufficientDataError when there are too few samples or fewer
	// than two distinct target values.
	Train(x [][]float64, y []float64) error

	// Predict estimates the target for one feature vector. It returns
	// *SchemaMismatchError when the vector width does not match the
	// fitted schema.
	Predict(v []float64) (float64, error)

	// PredictBatch estimates targets for a batch of rows.
	PredictBatch(x [][]float64) ([]float64, error)
}

// checkTrainable enforces the shared training preconditions.
func checkTrainable(name string, x [][]float64, y []float64, minSamples int) error {
	if len(x) != len(y) {
		return fmt.Errorf("%s: %d feature rows but %d targets", name, len(x), len(y))
	}
	distinct := make(map[float64]bool, len(y))
	for _, v := range y {
		distinct[v] = true
	}
	if len(x) < minSamples || len(distinct) < 2 {
		return &InsufficientDataError{
			Model:    name,
			Samples:  len(x),
			Distinct: len(distinct),
			Min:      minSamples,
		}
	}
	return nil
}

// predictAll is the shared PredictBatch implementation.
func predictAll(p Predictor, x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := p.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// RMSE computes the root mean squared error of predictions against targets.
func RMSE(predicted, actual []float64) float64 {
	if len(predicted) == 0 {
		return 0
	}
	var ss float64
	for i := range predicted {
		d := predicted[i] - actual[i]
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(predicted)))
}

// RSquared computes the coefficient of determination. A model worse than
// predicting the mean yields a negative value; it is deliberately not
// clamped.
func RSquared(predicted, actual []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var mean float64
	for _, v := range actual {
		mean += v
	}
	mean /= float64(len(actual))

	var ssRes, ssTot float64
	for i := range actual {
		r := actual[i] - predicted[i]
		ssRes += r * r
		t := actual[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		// Degenerate test set with constant targets: perfect fit when the
		// residuals are zero too, otherwise 0. R2 has no meaning here and
		// the score must stay finite so run artifacts remain encodable.
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// Evaluate trains nothing: it scores an already trained predictor on a
// held-out set and returns RMSE and R-squared.
func Evaluate(p Predictor, x [][]float64, y []float64) (rmse, r2 float64, err error) {
	predicted, err := p.PredictBatch(x)
	if err != nil {
		return 0, 0, err
	}
	return RMSE(predicted, y), RSquared(predicted, y), nil
}

// kFoldIndices splits n row indices into k folds after a seeded shuffle.
// When n is not divisible by k, earlier folds absorb the remainder.
func kFoldIndices(n, k int, seed int64) [][]int {
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)

	folds := make([][]int, k)
	base := n / k
	extra := n % k
	pos := 0
	for f := 0; f < k; f++ {
		size := base
		if f < extra {
			size++
		}
		folds[f] = perm[pos : pos+size]
		pos += size
	}
	return folds
}

// CrossValidate runs seeded k-fold cross-validation: k independent fits on
// fresh clones, each scored on its held-out fold. It returns the mean and
// standard deviation of the per-fold RMSE.
func CrossValidate(p Predictor, x [][]float64, y []float64, k int, seed int64) (mean, std float64, err error) {
	if k <= 0 {
		k = DefaultFolds
	}
	folds := kFoldIndices(len(x), k, seed)

	rmses := make([]float64, 0, len(folds))
	for f, holdout := range folds {
		inFold := make(map[int]bool, len(holdout))
		for _, i := range holdout {
			inFold[i] = true
		}

		var trainX, testX [][]float64
		var trainY, testY []float64
		for i := range x {
			if inFold[i] {
				testX = append(testX, x[i])
				testY = append(testY, y[i])
			} else {
				trainX = append(trainX, x[i])
				trainY = append(trainY, y[i])
			}
		}

		clone := p.Clone()
		if err := clone.Train(trainX, trainY); err != nil {
			return 0, 0, fmt.Errorf("fold %d: %w", f, err)
		}
		predicted, err := clone.PredictBatch(testX)
		if err != nil {
			return 0, 0, fmt.Errorf("fold %d: %w", f, err)
		}
		rmses = append(rmses, RMSE(predicted, testY))
	}

	for _, v := range rmses {
		mean += v
	}
	mean /= float64(len(rmses))
	var ss float64
	for _, v := range rmses {
		d := v - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(len(rmses)))
	return mean, std, nil
}

// trainTestSplit shuffles row indices with the seed and splits them into a
// training and a held-out set. Every predictor in a comparison gets the
// identical split.
func trainTestSplit(n int, testFraction float64, seed int64) (trainIdx, testIdx []int) {
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = DefaultTestFraction
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Round(float64(n) * testFraction))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

// selectRows gathers the given rows of x and y.
func selectRows(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	outX := make([][]float64, len(idx))
	outY := make([]float64, len(idx))
	for i, j := range idx {
		outX[i] = x[j]
		outY[i] = y[j]
	}
	return outX, outY
}
