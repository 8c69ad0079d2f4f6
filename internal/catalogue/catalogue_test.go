package catalogue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonido-audio/sonido/internal/effect"
)

// assertFiniteOutput drives e with a band-limited test signal and
// requires every output sample to be finite (universal law 1).
func assertFiniteOutput(t *testing.T, e effect.Effect, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		x := float32(math.Sin(float64(i)*0.1)) * 1.5
		y := e.Process(x)
		require.False(t, math.IsNaN(float64(y)) || math.IsInf(float64(y), 0), "sample %d: non-finite output %v", i, y)
	}
}

// assertResettable checks universal law 2: process, reset, process again
// gives the same result as a fresh effect, for a fixed sample count.
func assertResettable(t *testing.T, fresh func() effect.Effect) {
	t.Helper()
	e := fresh()
	const warmup = 64
	for i := 0; i < warmup; i++ {
		e.Process(float32(i%5) / 5)
	}
	e.Reset()
	got := e.Process(0.3)

	ref := fresh()
	want := ref.Process(0.3)
	assert.InDelta(t, want, got, 1e-5)
}

// assertBlockMatchesSample checks universal law 4: ProcessBlock equals
// looping Process sample by sample.
func assertBlockMatchesSample(t *testing.T, fresh func() effect.Effect) {
	t.Helper()
	in := make([]float32, 256)
	for i := range in {
		in[i] = float32(math.Sin(float64(i) * 0.05))
	}

	blockEffect := fresh()
	out := make([]float32, len(in))
	blockEffect.ProcessBlock(in, out)

	sampleEffect := fresh()
	want := make([]float32, len(in))
	for i, x := range in {
		want[i] = sampleEffect.Process(x)
	}

	for i := range out {
		assert.InDelta(t, want[i], out[i], 1e-5, "sample %d", i)
	}
}

// assertSampleRateChangePreservesParams checks universal law 3: changing
// sample rate leaves param_count/get_param unchanged and keeps
// processing bounded.
func assertSampleRateChangePreservesParams(t *testing.T, e effect.Effect) {
	t.Helper()
	before := make([]float64, e.ParamCount())
	for i := range before {
		before[i] = e.GetParam(i)
	}
	e.SetSampleRate(96000)
	for i := range before {
		assert.Equal(t, before[i], e.GetParam(i))
	}
	for i := 0; i < 64; i++ {
		y := e.Process(0.5)
		require.False(t, math.IsNaN(float64(y)) || math.IsInf(float64(y), 0))
	}
}
