package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonido-audio/sonido/internal/dsp"
	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
)

// gainEffect scales by a fixed amount; a minimal stand-in for a real
// catalogue effect in graph-law tests.
type gainEffect struct {
	effect.Mono
	params *effect.ParamSet
}

func newGainEffect(gain float64) *gainEffect {
	e := &gainEffect{params: effect.NewParamSet(param.Descriptor{
		Name: "Gain", ID: 1, Unit: param.UnitRatio, Min: 0, Max: 4, Default: gain,
	})}
	e.Self = e
	return e
}

func (e *gainEffect) Process(x float32) float32     { return x * float32(e.params.Get(0)) }
func (e *gainEffect) SetSampleRate(float32)          {}
func (e *gainEffect) Reset()                         {}
func (e *gainEffect) ParamCount() int                { return e.params.Count() }
func (e *gainEffect) ParamInfo(i int) param.Descriptor { return e.params.Info(i) }
func (e *gainEffect) GetParam(i int) float64         { return e.params.Get(i) }
func (e *gainEffect) SetParam(i int, v float64)      { e.params.Set(i, v) }

// delayEffect introduces a fixed integer-sample latency, used to
// exercise the graph's merge-point compensation law. Each stereo channel
// has its own delay line.
type delayEffect struct {
	effect.Mono
	n      int
	delay  *dsp.Delay
	delayR *dsp.Delay
}

func newDelayEffect(n int) *delayEffect {
	e := &delayEffect{n: n}
	if n > 0 {
		e.delay = dsp.NewDelay(n + 1)
		e.delayR = dsp.NewDelay(n + 1)
	}
	e.Self = e
	return e
}

// ProcessStereo delays each channel through its own line, so left and
// right are not interleaved through one ring buffer.
func (e *delayEffect) ProcessStereo(l, r float32) (float32, float32) {
	if e.n == 0 {
		return l, r
	}
	return e.delay.ReadWrite(l, float32(e.n)), e.delayR.ReadWrite(r, float32(e.n))
}

// Process delays by exactly n samples. n==0 is a pure passthrough: the
// ring buffer's Read/Write ordering (read happens before write on the
// same call) can only reproduce delays of 1..capacity-1 samples, so a
// true zero-delay tap is handled without the delay line.
func (e *delayEffect) Process(x float32) float32 {
	if e.n == 0 {
		return x
	}
	return e.delay.ReadWrite(x, float32(e.n))
}
func (e *delayEffect) SetSampleRate(float32)            {}
func (e *delayEffect) Reset() {
	if e.delay != nil {
		e.delay.Clear()
		e.delayR.Clear()
	}
}
func (e *delayEffect) LatencySamples() int              { return e.n }
func (e *delayEffect) ParamCount() int                  { return 0 }
func (e *delayEffect) ParamInfo(i int) param.Descriptor { return param.Descriptor{} }
func (e *delayEffect) GetParam(i int) float64           { return 0 }
func (e *delayEffect) SetParam(i int, v float64)        {}

func TestLinearMatchesDirectChain(t *testing.T) {
	const n = 32
	inL := make([]float32, n)
	inR := make([]float32, n)
	for i := range inL {
		inL[i] = float32(i%7) / 7
		inR[i] = float32((i+3)%5) / 5
	}

	g, err := Linear([]effect.Effect{newGainEffect(0.5), newGainEffect(2.0), newGainEffect(0.25)}, 48000, n)
	require.NoError(t, err)

	outL := make([]float32, n)
	outR := make([]float32, n)
	require.NoError(t, g.ProcessBlock(inL, inR, outL, outR))

	wantL := make([]float32, n)
	wantR := make([]float32, n)
	copy(wantL, inL)
	copy(wantR, inR)
	for _, gain := range []float32{0.5, 2.0, 0.25} {
		for i := range wantL {
			wantL[i] *= gain
			wantR[i] *= gain
		}
	}

	for i := range outL {
		assert.InDelta(t, wantL[i], outL[i], 1e-6)
		assert.InDelta(t, wantR[i], outR[i], 1e-6)
	}
}

func TestLinearChainUsesTwoSlots(t *testing.T) {
	effects := make([]effect.Effect, 20)
	for i := range effects {
		effects[i] = newGainEffect(1)
	}
	g, err := Linear(effects, 48000, 64)
	require.NoError(t, err)
	assert.Equal(t, 2, g.PoolSize())
}

func buildDiamond(t *testing.T, latencyB, latencyC int, blockSize int) (*Graph, effect.Effect, effect.Effect) {
	t.Helper()
	g := New(48000, blockSize)
	in := g.AddInput()
	split := g.AddSplit()
	b := newDelayEffect(latencyB)
	c := newDelayEffect(latencyC)
	nb := g.AddEffect(b)
	nc := g.AddEffect(c)
	merge := g.AddMerge()
	out := g.AddOutput()

	require.NoError(t, g.Connect(in, split))
	require.NoError(t, g.Connect(split, nb))
	require.NoError(t, g.Connect(split, nc))
	require.NoError(t, g.Connect(nb, merge))
	require.NoError(t, g.Connect(nc, merge))
	require.NoError(t, g.Connect(merge, out))
	require.NoError(t, g.Compile())
	return g, b, c
}

func TestDiamondPoolSizeIsThreeOrFour(t *testing.T) {
	g, _, _ := buildDiamond(t, 0, 5, 32)
	assert.GreaterOrEqual(t, g.PoolSize(), 3)
	assert.LessOrEqual(t, g.PoolSize(), 4)
}

func TestDiamondLatencyCompensationAlignsImpulsePeaks(t *testing.T) {
	const n = 64
	g, _, _ := buildDiamond(t, 0, 5, n)

	inL := make([]float32, n)
	inR := make([]float32, n)
	inL[0], inR[0] = 1, 1
	outL := make([]float32, n)
	outR := make([]float32, n)
	require.NoError(t, g.ProcessBlock(inL, inR, outL, outR))

	peakIdx := -1
	var peakVal float32
	for i, v := range outL {
		if v > peakVal {
			peakVal, peakIdx = v, i
		}
	}
	assert.Equal(t, 5, peakIdx)
	assert.InDelta(t, float32(2), peakVal, 1e-5)
}

func TestProcessBlockAllocatesNothing(t *testing.T) {
	g, err := Linear([]effect.Effect{newGainEffect(0.5), newGainEffect(1.5)}, 48000, 128)
	require.NoError(t, err)

	inL := make([]float32, 128)
	inR := make([]float32, 128)
	outL := make([]float32, 128)
	outR := make([]float32, 128)

	allocs := testing.AllocsPerRun(50, func() {
		_ = g.ProcessBlock(inL, inR, outL, outR)
	})
	assert.Equal(t, float64(0), allocs)
}

func TestCompileDetectsCycle(t *testing.T) {
	g := New(48000, 16)
	in := g.AddInput()
	out := g.AddOutput()
	require.NoError(t, g.Connect(in, out))

	// A self-contained 2-cycle: each node keeps valid in/out degree (1
	// and 1) but neither ever reaches indegree 0, so Kahn's algorithm
	// can't resolve them even though the in->out path is fine on its
	// own.
	a := g.AddEffect(newGainEffect(1))
	b := g.AddEffect(newGainEffect(1))
	require.NoError(t, g.Connect(a, b))
	require.NoError(t, g.Connect(b, a))

	err := g.Compile()
	require.Error(t, err)
	var topoErr *TopologyError
	require.ErrorAs(t, err, &topoErr)
	assert.Equal(t, CycleDetected, topoErr.Kind)
}

func TestCompileRejectsOrphanOutput(t *testing.T) {
	g := New(48000, 16)
	g.AddInput()
	g.AddOutput()
	// No edges at all: output unreachable and in-degree 0, both invalid.
	err := g.Compile()
	require.Error(t, err)
}

func TestProcessBeforeCompileReturnsError(t *testing.T) {
	g := New(48000, 16)
	buf := make([]float32, 16)
	err := g.ProcessBlock(buf, buf, buf, buf)
	require.Error(t, err)
}

func TestResetClearsEffectState(t *testing.T) {
	g, _, c := buildDiamond(t, 0, 3, 16)
	inL := make([]float32, 16)
	inR := make([]float32, 16)
	inL[0] = 1
	outL := make([]float32, 16)
	outR := make([]float32, 16)
	require.NoError(t, g.ProcessBlock(inL, inR, outL, outR))
	g.Reset()
	assert.Equal(t, float32(0), c.(*delayEffect).delay.Read(1))
}
