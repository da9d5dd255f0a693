package field

import "math"

// PropagationModel implements the log-distance path-loss law
//
//	P(d) = P0 - 10*n*log10(d/d0) - sum(attenuation of materials crossed)
//
// where n is the path-loss exponent, P0 the reference power at the reference
// distance d0. It is a pure function of distance and crossed materials: the
// regression layer never calls it implicitly, only the explicit augmentation
// and survey-generation steps do.
type PropagationModel struct {
	Exponent          float64
	ReferencePower    float64
	ReferenceDistance float64
	Attenuation       map[string]float64
}

// NewPropagationModel builds a model from config, filling zero values with
// defaults and merging the default attenuation table.
func NewPropagationModel(cfg PropagationConfig, attenuation map[string]float64) *PropagationModel {
	m := &PropagationModel{
		Exponent:          cfg.Exponent,
		ReferencePower:    cfg.ReferencePower,
		ReferenceDistance: cfg.ReferenceDistance,
		Attenuation:       DefaultAttenuation(),
	}
	if m.Exponent == 0 {
		m.Exponent = DefaultExponent
	}
	if m.ReferencePower == 0 {
		m.ReferencePower = DefaultReferencePower
	}
	if m.ReferenceDistance <= 0 {
		m.ReferenceDistance = DefaultReferenceDistance
	}
	for name, db := range attenuation {
		m.Attenuation[name] = db
	}
	return m
}

// ExpectedRSSI returns the modeled signal strength in dBm at the given
// distance with the given materials crossed. Distances below the reference
// distance are clamped to it so the log term never produces positive gain.
// The result is clamped to the physical [MinRSSI, MaxRSSI] range.
func (m *PropagationModel) ExpectedRSSI(distance float64, materials []string) float64 {
	d := distance
	if d < m.ReferenceDistance {
		d = m.ReferenceDistance
	}

	rssi := m.ReferencePower - 10*m.Exponent*math.Log10(d/m.ReferenceDistance)
	for _, mat := range materials {
		rssi -= m.Attenuation[mat]
	}

	return ClampRSSI(rssi)
}

// ExpectedRSSIAt computes the modeled signal strength at (x,y) from the
// given access point, using the material map for wall traversal.
func (m *PropagationModel) ExpectedRSSIAt(ap AccessPoint, x, y float64, mm *MaterialMap) float64 {
	dist := math.Hypot(x-ap.X, y-ap.Y)
	var crossed []string
	if mm != nil {
		crossed = mm.MaterialsAlong(ap.X, ap.Y, x, y)
	}
	return m.ExpectedRSSI(dist, crossed)
}

// ClampRSSI clamps a signal strength value to the physical dBm range.
func ClampRSSI(rssi float64) float64 {
	if rssi < MinRSSI {
		return MinRSSI
	}
	if rssi > MaxRSSI {
		return MaxRSSI
	}
	return rssi
}
