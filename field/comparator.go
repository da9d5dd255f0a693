package field

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
)

// DefaultPredictors returns the three stock regression variants configured
// from the training config. The forest derives its internal seed from the
// shared one so a run is reproducible end to end.
func DefaultPredictors(cfg TrainingConfig) []Predictor {
	min := cfg.MinSamples
	if min <= 0 {
		min = DefaultMinSamples
	}
	knn := NewKNNRegressor(5)
	knn.MinSamples = min
	kernel := NewKernelRegressor(0, 0)
	kernel.MinSamples = min
	forest := NewForestRegressor(0, cfg.Seed)
	forest.MinSamples = min
	return []Predictor{knn, kernel, forest}
}

// ComparisonOutcome pairs the evaluation results with the trained predictors
// that produced them, keyed by model name.
type ComparisonOutcome struct {
	Results []EvaluationResult
	Trained map[string]Predictor
}

// Best returns the top-ranked non-skipped result, or false when every
// predictor was skipped.
func (o *ComparisonOutcome) Best() (EvaluationResult, bool) {
	for _, r := range o.Results {
		if !r.Skipped {
			return r, true
		}
	}
	return EvaluationResult{}, false
}

// Compare runs the identical seeded train/test protocol over all predictors
// and ranks them by held-out error: RMSE ascending, R-squared descending on
// ties, with skipped predictors last (by name). Training runs concurrently,
// one goroutine per predictor with no shared mutable state; results are
// joined by model name so the ordering is independent of completion order.
//
// A predictor failing with InsufficientDataError is flagged and skipped
// without aborting the comparison. Any other failure aborts.
func Compare(predictors []Predictor, x [][]float64, y []float64, cfg TrainingConfig) (*ComparisonOutcome, error) {
	if len(predictors) == 0 {
		return nil, fmt.Errorf("no predictors to compare")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%d feature rows but %d targets", len(x), len(y))
	}
	if len(x) < 2 {
		return nil, fmt.Errorf("need at least 2 samples to split, have %d", len(x))
	}

	folds := cfg.Folds
	if folds <= 0 {
		folds = DefaultFolds
	}

	trainIdx, testIdx := trainTestSplit(len(x), cfg.TestFraction, cfg.Seed)
	trainX, trainY := selectRows(x, y, trainIdx)
	testX, testY := selectRows(x, y, testIdx)

	type slot struct {
		result  EvaluationResult
		trained Predictor
		err     error
	}
	slots := make([]slot, len(predictors))

	var wg sync.WaitGroup
	for i, p := range predictors {
		wg.Add(1)
		go func(i int, p Predictor) {
			defer wg.Done()

			trained := p.Clone()
			if err := trained.Train(trainX, trainY); err != nil {
				var ide *InsufficientDataError
				if errors.As(err, &ide) {
					slots[i] = slot{result: EvaluationResult{
						Model:   p.Name(),
						Skipped: true,
						Fault:   err.Error(),
					}}
					return
				}
				slots[i] = slot{err: fmt.Errorf("training %s: %w", p.Name(), err)}
				return
			}

			rmse, r2, err := Evaluate(trained, testX, testY)
			if err != nil {
				slots[i] = slot{err: fmt.Errorf("evaluating %s: %w", p.Name(), err)}
				return
			}

			cvMean, cvStd, err := CrossValidate(p, x, y, folds, cfg.Seed)
			if err != nil {
				// CV folds train on fewer rows than the hold-out split, so a
				// predictor can starve here even after Train succeeded.
				var ide *InsufficientDataError
				if errors.As(err, &ide) {
					slots[i] = slot{result: EvaluationResult{
						Model:   p.Name(),
						Skipped: true,
						Fault:   err.Error(),
					}}
					return
				}
				slots[i] = slot{err: fmt.Errorf("cross-validating %s: %w", p.Name(), err)}
				return
			}

			slots[i] = slot{
				result: EvaluationResult{
					Model:     p.Name(),
					RMSE:      rmse,
					R2:        r2,
					CVRMSE:    cvMean,
					CVRMSEStd: cvStd,
				},
				trained: trained,
			}
		}(i, p)
	}
	wg.Wait()

	outcome := &ComparisonOutcome{Trained: make(map[string]Predictor)}
	for _, s := range slots {
		if s.err != nil {
			return nil, s.err
		}
		if s.result.Skipped {
			log.Printf("Comparator: skipping %s: %s", s.result.Model, s.result.Fault)
		} else {
			outcome.Trained[s.result.Model] = s.trained
		}
		outcome.Results = append(outcome.Results, s.result)
	}

	sort.SliceStable(outcome.Results, func(i, j int) bool {
		a, b := outcome.Results[i], outcome.Results[j]
		if a.Skipped != b.Skipped {
			return !a.Skipped
		}
		if a.Skipped {
			return a.Model < b.Model
		}
		if a.RMSE != b.RMSE {
			return a.RMSE < b.RMSE
		}
		if a.R2 != b.R2 {
			return a.R2 > b.R2
		}
		return a.Model < b.Model
	})

	return outcome, nil
}
