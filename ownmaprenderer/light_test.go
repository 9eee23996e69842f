package ownmaprenderer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLightVector(t *testing.T) {
	const delta = 1e-9
	sqrtHalf := math.Sqrt(0.5)

	tests := []struct {
		name                 string
		azimuthDeg, altitude float64
		expected             Vec3
	}{
		{"north, horizon", 0, 0, Vec3{0, 1, 0}},
		{"east, horizon", 90, 0, Vec3{1, 0, 0}},
		{"south, horizon", 180, 0, Vec3{0, -1, 0}},
		{"overhead", 123, 90, Vec3{0, 0, 1}},
		{"north west, 45 degrees", 315, 45, Vec3{-0.5, 0.5, sqrtHalf}},
		{"out of range angles wrap", 315 + 360, 45 - 360, Vec3{-0.5, 0.5, sqrtHalf}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := LightVector(tt.azimuthDeg, tt.altitude)
			assert.InDelta(t, tt.expected.X, v.X, delta)
			assert.InDelta(t, tt.expected.Y, v.Y, delta)
			assert.InDelta(t, tt.expected.Z, v.Z, delta)
			assert.InDelta(t, 1, v.Length(), delta)
		})
	}
}

func TestVec3_Normalize(t *testing.T) {
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
	assert.InDelta(t, 1, Vec3{3, 4, 12}.Normalize().Length(), 1e-12)
	assert.Equal(t, Vec3{0.6, 0.8, 0}, Vec3{3, 4, 0}.Normalize())
}
