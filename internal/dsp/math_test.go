package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDBToLinearRoundTrip(t *testing.T) {
	assert.InDelta(t, 1.0, DBToLinear(0), 1e-6)
	assert.InDelta(t, 0.1, DBToLinear(-20), 1e-6)
	linear := DBToLinear(-6)
	assert.InDelta(t, -6.0, LinearToDB(linear), 1e-3)
}

func TestLinearToDBFloor(t *testing.T) {
	assert.Equal(t, float32(MinusInfinityDB), LinearToDB(0))
	assert.Equal(t, float32(MinusInfinityDB), LinearToDB(1e-12))
}

func TestHardClipAntiderivativeMatchesDerivative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		threshold := float32(rapid.Float64Range(0.1, 4).Draw(t, "threshold"))
		x := float32(rapid.Float64Range(-8, 8).Draw(t, "x"))
		const h = 1e-3
		numerical := (HardClipAntiderivative(x+h, threshold) - HardClipAntiderivative(x-h, threshold)) / (2 * h)
		assert.InDelta(t, float64(HardClip(x, threshold)), float64(numerical), 0.05)
	})
}

func TestSoftClipAntiderivativeMatchesDerivative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := float32(rapid.Float64Range(-4, 4).Draw(t, "x"))
		const h = 1e-3
		numerical := (SoftClipAntiderivative(x+h) - SoftClipAntiderivative(x-h)) / (2 * h)
		assert.InDelta(t, float64(SoftClip(x)), float64(numerical), 0.01)
	})
}

func TestFoldbackStaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		threshold := float32(rapid.Float64Range(0.1, 2).Draw(t, "threshold"))
		x := float32(rapid.Float64Range(-20, 20).Draw(t, "x"))
		y := Foldback(x, threshold)
		assert.True(t, y >= -threshold-1e-3 && y <= threshold+1e-3)
		assert.False(t, math.IsNaN(float64(y)))
	})
}

func TestFlushDenormal(t *testing.T) {
	assert.Equal(t, float32(0), FlushDenormal(1e-30))
	assert.Equal(t, float32(0), FlushDenormal(-1e-30))
	assert.Equal(t, float32(0.5), FlushDenormal(0.5))
}

func TestClampF32(t *testing.T) {
	assert.Equal(t, float32(1), ClampF32(5, 0, 1))
	assert.Equal(t, float32(0), ClampF32(-5, 0, 1))
	assert.Equal(t, float32(0.5), ClampF32(0.5, 0, 1))
}
