package effect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/sonido-audio/sonido/internal/param"
)

// gainEffect is a minimal test double: multiplies by a single "Gain"
// parameter, embedding Mono for every default block/stereo method.
type gainEffect struct {
	Mono
	params *ParamSet
}

func newGainEffect() *gainEffect {
	e := &gainEffect{params: NewParamSet(param.Descriptor{
		Name: "Gain", ID: 1, Unit: param.UnitRatio,
		Min: 0, Max: 4, Default: 1,
	})}
	e.Self = e
	return e
}

func (e *gainEffect) Process(x float32) float32 {
	return x * float32(e.params.Get(0))
}
func (e *gainEffect) SetSampleRate(float32)                  {}
func (e *gainEffect) Reset()                                 {}
func (e *gainEffect) ParamCount() int                        { return e.params.Count() }
func (e *gainEffect) ParamInfo(i int) param.Descriptor        { return e.params.Info(i) }
func (e *gainEffect) GetParam(i int) float64                  { return e.params.Get(i) }
func (e *gainEffect) SetParam(i int, v float64)               { e.params.Set(i, v) }

func TestMonoProcessStereoCallsProcessPerChannel(t *testing.T) {
	e := newGainEffect()
	e.SetParam(0, 2)
	l, r := e.ProcessStereo(1, 3)
	assert.Equal(t, float32(2), l)
	assert.Equal(t, float32(6), r)
}

func TestMonoBlockMatchesPerSampleProcess(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := newGainEffect()
		e.SetParam(0, rapid.Float64Range(0, 4).Draw(t, "gain"))
		n := rapid.IntRange(0, 64).Draw(t, "n")
		in := make([]float32, n)
		for i := range in {
			in[i] = float32(rapid.Float64Range(-1, 1).Draw(t, "x"))
		}

		viaBlock := make([]float32, n)
		e.ProcessBlock(in, viaBlock)

		e2 := newGainEffect()
		e2.SetParam(0, e.GetParam(0))
		viaSample := make([]float32, n)
		for i, x := range in {
			viaSample[i] = e2.Process(x)
		}

		for i := range viaBlock {
			assert.True(t, math.Abs(float64(viaBlock[i]-viaSample[i])) < 1e-6)
		}
	})
}

func TestMonoInPlaceMatchesOutOfPlace(t *testing.T) {
	e := newGainEffect()
	e.SetParam(0, 0.5)
	buf := []float32{1, 2, 3, 4}
	e.ProcessBlockInPlace(buf)
	assert.Equal(t, []float32{0.5, 1, 1.5, 2}, buf)
}

func TestMonoStereoBlockDefaults(t *testing.T) {
	e := newGainEffect()
	e.SetParam(0, 2)
	bufL := []float32{1, 2}
	bufR := []float32{3, 4}
	e.ProcessBlockStereoInPlace(bufL, bufR)
	assert.Equal(t, []float32{2, 4}, bufL)
	assert.Equal(t, []float32{6, 8}, bufR)
}

func TestParamSetClampsOutOfRange(t *testing.T) {
	p := NewParamSet(param.Descriptor{Name: "X", Min: 0, Max: 1, Default: 0.5})
	assert.Equal(t, 1.0, p.Set(0, 5))
	assert.Equal(t, 0.0, p.Set(0, -5))
}

func TestParamSetIndexOf(t *testing.T) {
	p := NewParamSet(
		param.Descriptor{Name: "A", ID: 10},
		param.Descriptor{Name: "B", ID: 11},
	)
	assert.Equal(t, 1, p.IndexOf(11))
	assert.Equal(t, -1, p.IndexOf(99))
}

func TestLatencySamplesDefaultsToZero(t *testing.T) {
	e := newGainEffect()
	assert.Equal(t, 0, e.LatencySamples())
}

func TestGenericBlockHelpersRoundTrip(t *testing.T) {
	e := newGainEffect()
	e.SetParam(0, 3)
	buf := []float32{1, 2, 3}
	scratch := make([]float32, 3)
	ProcessBlockGeneric(e, buf, scratch)
	assert.Equal(t, []float32{3, 6, 9}, buf)
}
