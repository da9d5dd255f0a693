package field

import (
	"math"
	"math/rand"
	"sort"
)

// ForestRegressor is a bagged ensemble of regression trees with per-node
// feature subsampling. Each tree is grown on a bootstrap resample of the
// training rows; predictions average the per-tree estimates. All randomness
// flows from Seed, so the same seed and data always grow the same forest.
type ForestRegressor struct {
	Trees           int
	MaxDepth        int
	MinLeaf         int
	FeatureFraction float64
	Seed            int64
	MinSamples      int

	trees []*treeNode
	width int
}

// NewForestRegressor creates an untrained forest. Zero values get defaults:
// 25 trees, depth 8, leaf size 2, sqrt-like feature fraction of 0.6.
func NewForestRegressor(trees int, seed int64) *ForestRegressor {
	if trees <= 0 {
		trees = 25
	}
	return &ForestRegressor{
		Trees:           trees,
		MaxDepth:        8,
		MinLeaf:         2,
		FeatureFraction: 0.6,
		Seed:            seed,
		MinSamples:      DefaultMinSamples,
	}
}

func (r *ForestRegressor) Name() string { return "forest" }

func (r *ForestRegressor) Clone() Predictor {
	return &ForestRegressor{
		Trees:           r.Trees,
		MaxDepth:        r.MaxDepth,
		MinLeaf:         r.MinLeaf,
		FeatureFraction: r.FeatureFraction,
		Seed:            r.Seed,
		MinSamples:      r.MinSamples,
	}
}

func (r *ForestRegressor) Train(x [][]float64, y []float64) error {
	if err := checkTrainable(r.Name(), x, y, r.MinSamples); err != nil {
		return err
	}
	r.width = len(x[0])
	r.trees = make([]*treeNode, r.Trees)

	rng := rand.New(rand.NewSource(r.Seed))
	n := len(x)
	for t := 0; t < r.Trees; t++ {
		// Bootstrap resample with replacement.
		bx := make([][]float64, n)
		by := make([]float64, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			bx[i] = x[j]
			by[i] = y[j]
		}
		r.trees[t] = r.growTree(bx, by, 0, rng)
	}
	return nil
}

func (r *ForestRegressor) Predict(v []float64) (float64, error) {
	if r.width == 0 {
		return 0, &InsufficientDataError{Model: r.Name(), Min: r.MinSamples}
	}
	if len(v) != r.width {
		return 0, &SchemaMismatchError{Model: r.Name(), Got: len(v), Want: r.width}
	}
	var sum float64
	for _, t := range r.trees {
		sum += t.predict(v)
	}
	return sum / float64(len(r.trees)), nil
}

func (r *ForestRegressor) PredictBatch(x [][]float64) ([]float64, error) {
	return predictAll(r, x)
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(v []float64) float64 {
	for !n.leaf {
		if v[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func (r *ForestRegressor) growTree(x [][]float64, y []float64, depth int, rng *rand.Rand) *treeNode {
	if depth >= r.MaxDepth || len(y) < 2*r.MinLeaf || constantTargets(y) {
		return &treeNode{leaf: true, value: meanOf(y)}
	}

	feature, threshold, ok := r.bestSplit(x, y, rng)
	if !ok {
		return &treeNode{leaf: true, value: meanOf(y)}
	}

	var lx, rx [][]float64
	var ly, ry []float64
	for i, row := range x {
		if row[feature] <= threshold {
			lx = append(lx, row)
			ly = append(ly, y[i])
		} else {
			rx = append(rx, row)
			ry = append(ry, y[i])
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      r.growTree(lx, ly, depth+1, rng),
		right:     r.growTree(rx, ry, depth+1, rng),
	}
}

// bestSplit searches a random feature subset for the (feature, threshold)
// pair minimizing the weighted sum of squared errors. Candidate thresholds
// are quantiles of the feature values, capped at 10 per feature.
func (r *ForestRegressor) bestSplit(x [][]float64, y []float64, rng *rand.Rand) (feature int, threshold float64, ok bool) {
	width := len(x[0])
	nFeatures := int(math.Ceil(r.FeatureFraction * float64(width)))
	if nFeatures < 1 {
		nFeatures = 1
	}
	if nFeatures > width {
		nFeatures = width
	}
	candidates := rng.Perm(width)[:nFeatures]
	sort.Ints(candidates)

	bestSSE := math.Inf(1)
	for _, f := range candidates {
		values := make([]float64, len(x))
		for i, row := range x {
			values[i] = row[f]
		}
		sort.Float64s(values)

		for _, th := range splitThresholds(values, 10) {
			sse, valid := r.splitSSE(x, y, f, th)
			if valid && sse < bestSSE {
				bestSSE = sse
				feature = f
				threshold = th
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// splitThresholds returns up to maxCandidates midpoints between adjacent
// distinct values of a sorted slice.
func splitThresholds(sorted []float64, maxCandidates int) []float64 {
	var mids []float64
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			mids = append(mids, (sorted[i]+sorted[i-1])/2)
		}
	}
	if len(mids) <= maxCandidates {
		return mids
	}
	step := float64(len(mids)) / float64(maxCandidates)
	out := make([]float64, 0, maxCandidates)
	for i := 0; i < maxCandidates; i++ {
		out = append(out, mids[int(float64(i)*step)])
	}
	return out
}

func (r *ForestRegressor) splitSSE(x [][]float64, y []float64, feature int, threshold float64) (float64, bool) {
	var lSum, rSum float64
	var lN, rN int
	for i, row := range x {
		if row[feature] <= threshold {
			lSum += y[i]
			lN++
		} else {
			rSum += y[i]
			rN++
		}
	}
	if lN < r.MinLeaf || rN < r.MinLeaf {
		return 0, false
	}

	lMean := lSum / float64(lN)
	rMean := rSum / float64(rN)
	var sse float64
	for i, row := range x {
		if row[feature] <= threshold {
			d := y[i] - lMean
			sse += d * d
		} else {
			d := y[i] - rMean
			sse += d * d
		}
	}
	return sse, true
}

func meanOf(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	return sum / float64(len(y))
}

func constantTargets(y []float64) bool {
	for i := 1; i < len(y); i++ {
		if y[i] != y[0] {
			return false
		}
	}
	return true
}
