package field

import (
	"math/rand"
	"time"
)

// SurveyOptions controls synthetic survey generation.
type SurveyOptions struct {
	Spacing  float64   // distance between sample points in meters (default 2.0)
	NoiseStd float64   // Gaussian RSSI noise in dB (default DefaultNoiseStd)
	Seed     int64     // noise seed
	At       time.Time // timestamp stamped on every sample
}

func (o *SurveyOptions) defaults() {
	if o.Spacing <= 0 {
		o.Spacing = 2.0
	}
	if o.NoiseStd < 0 {
		o.NoiseStd = 0
	} else if o.NoiseStd == 0 {
		o.NoiseStd = DefaultNoiseStd
	}
	if o.At.IsZero() {
		o.At = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
}

// GenerateSurvey walks a regular grid over the building footprint and emits
// one noisy measurement per AP per point, using the propagation model for
// the expected value. It stands in for a real site survey when no measured
// data is available, and doubles as a test fixture generator. Output order
// is deterministic: row-major over the grid, APs in declaration order.
func GenerateSurvey(aps []AccessPoint, mm *MaterialMap, model *PropagationModel, opt SurveyOptions) []Sample {
	opt.defaults()
	rng := rand.New(rand.NewSource(opt.Seed))

	minX, minY, maxX, maxY := mm.Bounds()
	var samples []Sample

	for y := minY + opt.Spacing/2; y < maxY; y += opt.Spacing {
		for x := minX + opt.Spacing/2; x < maxX; x += opt.Spacing {
			if !mm.Contains(x, y) {
				continue
			}
			for _, ap := range aps {
				rssi := model.ExpectedRSSIAt(ap, x, y, mm)
				rssi = ClampRSSI(rssi + rng.NormFloat64()*opt.NoiseStd)
				samples = append(samples, Sample{
					APID:      ap.ID,
					RSSI:      rssi,
					X:         x,
					Y:         y,
					Timestamp: opt.At,
					Channel:   ap.Channel,
					Security:  ap.Security,
				})
			}
		}
	}
	return samples
}

// AugmentSamples tops up a sparse measured dataset with synthetic samples at
// uniformly random positions inside the footprint until it reaches target
// size. The propagation model is invoked explicitly here and nowhere inside
// the predictors. The input slice is not modified.
func AugmentSamples(samples []Sample, target int, aps []AccessPoint, mm *MaterialMap, model *PropagationModel, opt SurveyOptions) []Sample {
	opt.defaults()
	if len(samples) >= target || len(aps) == 0 {
		return samples
	}

	rng := rand.New(rand.NewSource(opt.Seed))
	minX, minY, maxX, maxY := mm.Bounds()

	out := append([]Sample(nil), samples...)
	for len(out) < target {
		x := minX + rng.Float64()*(maxX-minX)
		y := minY + rng.Float64()*(maxY-minY)
		if !mm.Contains(x, y) {
			continue
		}
		ap := aps[rng.Intn(len(aps))]
		rssi := model.ExpectedRSSIAt(ap, x, y, mm)
		rssi = ClampRSSI(rssi + rng.NormFloat64()*opt.NoiseStd)
		out = append(out, Sample{
			APID:      ap.ID,
			RSSI:      rssi,
			X:         x,
			Y:         y,
			Timestamp: opt.At,
			Channel:   ap.Channel,
			Security:  ap.Security,
		})
	}
	return out
}
