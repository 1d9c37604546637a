// Package score maps analyzer penalties onto severity bands.
package score

import "github.com/sprite-ai/greenlens/internal/model"

// Threshold is the inclusive upper penalty bound of a band.
type Threshold struct {
	Band model.Band
	Max  float64
}

// Thresholds lists the bounded bands in ascending order. Anything above the
// last bound is BandE.
var Thresholds = []Threshold{
	{model.BandA, 5},
	{model.BandB, 10},
	{model.BandC, 15},
	{model.BandD, 20},
}

// Classify returns the band for a penalty. A nil penalty is BandUnknown.
// Negative penalties are not clamped and land in BandA.
func Classify(penalty *float64) model.Band {
	if penalty == nil {
		return model.BandUnknown
	}
	for _, t := range Thresholds {
		if *penalty <= t.Max {
			return t.Band
		}
	}
	return model.BandE
}

// Of classifies a record by its penalty.
func Of(r model.Record) model.Band {
	return Classify(r.Penalty)
}
