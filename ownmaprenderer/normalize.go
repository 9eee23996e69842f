package ownmaprenderer

import (
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
)

// Normalize maps value linearly from [min,max] onto [0,1].
// Without clip the result is not clamped, so values outside the range give results outside [0,1]. NaN stays NaN.
func Normalize(value, min, max float64, clip bool) float64 {
	if math.IsNaN(value) {
		return math.NaN()
	}

	t := (value - min) / (max - min)
	if clip {
		t = math.Max(0, math.Min(1, t))
	}

	return t
}

type Normalizer struct {
	valueRange ownmap.ValueRange
	clip       bool
}

func NewNormalizer(valueRange ownmap.ValueRange, clip bool) (Normalizer, errorsx.Error) {
	err := valueRange.Validate()
	if err != nil {
		return Normalizer{}, err
	}

	return Normalizer{valueRange, clip}, nil
}

func (n Normalizer) Normalize(value float64) float64 {
	return Normalize(value, n.valueRange.Min, n.valueRange.Max, n.clip)
}
