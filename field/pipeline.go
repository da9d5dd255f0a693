package field

import (
	"fmt"
	"log"
)

// PipelineResult is everything one full offline run produces: the exclusion
// counts, the ranked model comparison, the winning model name, and the dense
// coverage field built with it.
type PipelineResult struct {
	Info     *RunInfo
	Report   ValidationReport
	Results  []EvaluationResult
	Best     string
	Field    *CoverageField
	Pipeline *FeaturePipeline
	Trained  map[string]Predictor
}

// RunPipeline executes one batch run: validate samples, fit features on the
// training data, compare all predictors under the identical seeded split,
// and build the coverage field with the best-ranked model. Everything
// downstream of the config seed is deterministic, so rerunning with the same
// inputs reproduces the same EvaluationResults and field.
func RunPipeline(cfg *Config, samples []Sample) (*PipelineResult, error) {
	mm, err := NewMaterialMap(cfg.Building, cfg.Materials, cfg.Attenuation)
	if err != nil {
		return nil, fmt.Errorf("building material map: %w", err)
	}

	kept, report := ValidateSamples(samples, mm)
	if report.Total != report.Kept {
		log.Printf("Pipeline: excluded %d/%d samples (%d out of bounds, %d RSSI out of spec)",
			report.Total-report.Kept, report.Total, report.OutOfBounds, report.RSSIOutOfSpec)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("no valid samples after validation (%d excluded)", report.Total)
	}

	pipeline := NewFeaturePipeline(cfg.AccessPoints)
	matrix, err := pipeline.Fit(kept)
	if err != nil {
		return nil, fmt.Errorf("feature engineering: %w", err)
	}

	outcome, err := Compare(DefaultPredictors(cfg.Training), matrix.Rows, matrix.Targets, cfg.Training)
	if err != nil {
		return nil, fmt.Errorf("comparing predictors: %w", err)
	}

	result := &PipelineResult{
		Info:     NewRunInfo(cfg),
		Report:   report,
		Results:  outcome.Results,
		Pipeline: pipeline,
		Trained:  outcome.Trained,
	}
	result.Info.Report = report
	result.Info.Results = outcome.Results

	best, ok := outcome.Best()
	if !ok {
		// Every predictor was skipped; the run still reports why.
		log.Printf("Pipeline: no predictor could be trained on %d samples", len(kept))
		return result, nil
	}
	result.Best = best.Model
	result.Info.Best = best.Model
	log.Printf("Pipeline: best model %s (RMSE %.2f, R2 %.3f, CV %.2f +/- %.2f)",
		best.Model, best.RMSE, best.R2, best.CVRMSE, best.CVRMSEStd)

	// The winner is retrained on the full dataset before field building so
	// the coverage estimates use every measurement.
	full := outcome.Trained[best.Model].Clone()
	if err := full.Train(matrix.Rows, matrix.Targets); err != nil {
		return nil, fmt.Errorf("retraining %s on full dataset: %w", best.Model, err)
	}

	builder := NewFieldBuilder(pipeline, mm, cfg.Coverage)
	fieldGrid, err := builder.BuildWith(full, cfg.AccessPoints)
	if err != nil {
		return nil, fmt.Errorf("building coverage field: %w", err)
	}
	result.Field = fieldGrid

	stats := fieldGrid.Stats(builder.UsableRSSI)
	result.Info.Coverage = &stats
	log.Printf("Pipeline: coverage %.0f%% usable (%d/%d cells), mean best RSSI %.1f dBm",
		stats.UsableShare*100, stats.UsableCells, stats.InsideCells, stats.MeanBestRSSI)

	return result, nil
}
