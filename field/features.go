package field

import (
	"fmt"
	"math"
	"sort"
)

// rollingWindow is the number of most recent per-AP readings used for the
// rolling signal variance feature.
const rollingWindow = 5

// FeatureMatrix is the numeric encoding of a batch of samples, one row per
// sample, plus the RSSI targets. Rows are scaled with the pipeline's frozen
// parameters and immutable once produced.
type FeatureMatrix struct {
	Names   []string
	Rows    [][]float64
	Targets []float64
}

// FeaturePipeline turns raw samples into feature rows. Fit derives the
// categorical vocabulary and scaling parameters from the training split and
// freezes them; every later Transform reuses the frozen parameters, never
// refits. A fitted pipeline is read-only and safe for concurrent use.
type FeaturePipeline struct {
	aps           []AccessPoint
	apIndex       map[string]int
	securityVocab []string

	names  []string
	means  []float64
	stds   []float64
	fitted bool
}

// NewFeaturePipeline creates an unfitted pipeline for the given set of known
// access points. The AP set fixes part of the schema (one distance column
// per AP), so it must match between fitting and prediction.
func NewFeaturePipeline(aps []AccessPoint) *FeaturePipeline {
	idx := make(map[string]int, len(aps))
	for i, ap := range aps {
		idx[ap.ID] = i
	}
	return &FeaturePipeline{aps: aps, apIndex: idx}
}

// Fitted reports whether scaling parameters have been frozen.
func (p *FeaturePipeline) Fitted() bool { return p.fitted }

// Width returns the number of feature columns, or 0 before fitting.
func (p *FeaturePipeline) Width() int { return len(p.names) }

// Names returns the feature column names in schema order.
func (p *FeaturePipeline) Names() []string { return p.names }

// validate checks the mandatory fields of every sample before encoding.
func (p *FeaturePipeline) validate(samples []Sample) error {
	for i, s := range samples {
		if s.APID == "" {
			return &SchemaError{Index: i, Field: "apId", Reason: "missing"}
		}
		if _, ok := p.apIndex[s.APID]; !ok {
			return &SchemaError{Index: i, Field: "apId", Reason: fmt.Sprintf("unknown access point %q", s.APID)}
		}
		if s.Timestamp.IsZero() {
			return &SchemaError{Index: i, Field: "timestamp", Reason: "missing"}
		}
		if math.IsNaN(s.RSSI) || math.IsInf(s.RSSI, 0) {
			return &SchemaError{Index: i, Field: "rssi", Reason: "not a finite number"}
		}
	}
	return nil
}

// Fit derives the security vocabulary and per-column scaling parameters
// from the samples, freezes them, and returns the scaled feature matrix.
func (p *FeaturePipeline) Fit(samples []Sample) (*FeatureMatrix, error) {
	if len(samples) == 0 {
		return nil, &SchemaError{Index: 0, Field: "samples", Reason: "empty batch"}
	}
	if err := p.validate(samples); err != nil {
		return nil, err
	}

	// Frozen vocabulary: sorted distinct security strings seen in training.
	seen := make(map[string]bool)
	for _, s := range samples {
		if s.Security != "" {
			seen[s.Security] = true
		}
	}
	p.securityVocab = p.securityVocab[:0]
	for sec := range seen {
		p.securityVocab = append(p.securityVocab, sec)
	}
	sort.Strings(p.securityVocab)

	p.names = p.columnNames()

	raw := p.rawRows(samples)

	// Per-column mean/std over the training split only.
	cols := len(p.names)
	p.means = make([]float64, cols)
	p.stds = make([]float64, cols)
	n := float64(len(raw))
	for c := 0; c < cols; c++ {
		var sum float64
		for _, row := range raw {
			sum += row[c]
		}
		mean := sum / n
		var ss float64
		for _, row := range raw {
			d := row[c] - mean
			ss += d * d
		}
		std := math.Sqrt(ss / n)
		// Zero-variance column: keep the centering, skip the division
		// instead of failing.
		if std < 1e-12 {
			std = 1.0
		}
		p.means[c] = mean
		p.stds[c] = std
	}
	p.fitted = true

	return p.scale(raw, samples), nil
}

// Transform encodes samples with the frozen parameters. Applying it to the
// training samples reproduces the matrix returned by Fit exactly.
func (p *FeaturePipeline) Transform(samples []Sample) (*FeatureMatrix, error) {
	if !p.fitted {
		return nil, fmt.Errorf("pipeline not fitted: call Fit on the training split first")
	}
	if err := p.validate(samples); err != nil {
		return nil, err
	}
	return p.scale(p.rawRows(samples), samples), nil
}

func (p *FeaturePipeline) columnNames() []string {
	names := []string{"x", "y", "apIndex", "channel", "hourSin", "hourCos", "rssiVar"}
	for _, ap := range p.aps {
		names = append(names, "distTo_"+ap.ID)
	}
	for _, sec := range p.securityVocab {
		names = append(names, "security_"+sec)
	}
	return names
}

// rawRows builds the unscaled feature rows. The rolling variance pre-pass
// walks the batch in input order, per AP, so out-of-order timestamps are
// tolerated: the window is positional, not temporal.
func (p *FeaturePipeline) rawRows(samples []Sample) [][]float64 {
	variance := rollingVariances(samples)

	rows := make([][]float64, len(samples))
	for i, s := range samples {
		row := make([]float64, 0, len(p.names))

		hour := float64(s.Timestamp.Hour()) + float64(s.Timestamp.Minute())/60.0
		angle := 2 * math.Pi * hour / 24.0

		row = append(row,
			s.X,
			s.Y,
			float64(p.apIndex[s.APID]),
			float64(s.Channel),
			math.Sin(angle),
			math.Cos(angle),
			variance[i],
		)
		for _, ap := range p.aps {
			row = append(row, math.Hypot(s.X-ap.X, s.Y-ap.Y))
		}
		for _, sec := range p.securityVocab {
			if s.Security == sec {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}
		rows[i] = row
	}
	return rows
}

// rollingVariances computes, for each sample, the variance of the last
// rollingWindow RSSI readings (including the current one) from the same AP.
func rollingVariances(samples []Sample) []float64 {
	history := make(map[string][]float64)
	out := make([]float64, len(samples))

	for i, s := range samples {
		h := append(history[s.APID], s.RSSI)
		if len(h) > rollingWindow {
			h = h[len(h)-rollingWindow:]
		}
		history[s.APID] = h

		var sum float64
		for _, v := range h {
			sum += v
		}
		mean := sum / float64(len(h))
		var ss float64
		for _, v := range h {
			d := v - mean
			ss += d * d
		}
		out[i] = ss / float64(len(h))
	}
	return out
}

// scale applies the frozen standardization and pairs rows with targets.
func (p *FeaturePipeline) scale(raw [][]float64, samples []Sample) *FeatureMatrix {
	rows := make([][]float64, len(raw))
	targets := make([]float64, len(raw))
	for i, r := range raw {
		scaled := make([]float64, len(r))
		for c, v := range r {
			scaled[c] = (v - p.means[c]) / p.stds[c]
		}
		rows[i] = scaled
		targets[i] = samples[i].RSSI
	}
	return &FeatureMatrix{
		Names:   append([]string(nil), p.names...),
		Rows:    rows,
		Targets: targets,
	}
}
