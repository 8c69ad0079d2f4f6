package catalogue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonido-audio/sonido/internal/effect"
)

func freshDistortion() effect.Effect { return NewDistortion(48000) }

func TestDistortionFiniteOutput(t *testing.T) {
	assertFiniteOutput(t, freshDistortion(), 2048)
}

func TestDistortionResettable(t *testing.T) {
	assertResettable(t, freshDistortion)
}

func TestDistortionBlockMatchesSample(t *testing.T) {
	assertBlockMatchesSample(t, freshDistortion)
}

func TestDistortionSampleRateChange(t *testing.T) {
	assertSampleRateChangePreservesParams(t, freshDistortion())
}

// TestDistortionPeakCeiling exercises quality rule R1: a 0 dBFS 1 kHz
// sine at default parameters peaks at or below +12 dBFS.
func TestDistortionPeakCeiling(t *testing.T) {
	d := NewDistortion(48000)
	const n = 48000
	var peak float32
	for i := 0; i < n; i++ {
		x := float32(math.Sin(2 * math.Pi * 1000 * float64(i) / 48000))
		y := d.Process(x)
		if a := float32(math.Abs(float64(y))); a > peak {
			peak = a
		}
	}
	require.Greater(t, peak, float32(0))
	assert.LessOrEqual(t, peak, float32(4)) // +12 dBFS ceiling
}

// TestDistortionMixZeroIsPassthrough exercises quality rule R4: after
// smoothing settles, mix=0 reproduces the input unaltered.
func TestDistortionMixZeroIsPassthrough(t *testing.T) {
	d := NewDistortion(48000)
	d.SetParam(1, 0) // Mix = 0%
	for i := 0; i < 4000; i++ {
		d.Process(0.1) // let the mix smoother settle
	}
	for i := 0; i < 100; i++ {
		x := float32(math.Sin(float64(i) * 0.1))
		y := d.Process(x)
		assert.InDelta(t, x, y, 5e-4)
	}
}

func TestDistortionDefaultsAreWellFormed(t *testing.T) {
	d := NewDistortion(48000)
	for i := 0; i < d.ParamCount(); i++ {
		info := d.ParamInfo(i)
		require.NoError(t, info.Validate())
	}
}
