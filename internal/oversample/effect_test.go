package oversample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
)

// recordingEffect is a tiny inner stand-in that records the sample rate
// it was last configured with and reports a fixed latency, so the
// wrapper's rate-scaling and latency-composition can be checked without
// a full catalogue effect.
type recordingEffect struct {
	effect.Mono
	sampleRate float32
	resetCount int
	latency    int
	params     *effect.ParamSet
}

func newRecordingEffect(latency int) *recordingEffect {
	e := &recordingEffect{
		latency: latency,
		params: effect.NewParamSet(param.Descriptor{
			Name: "Drive", ID: 1, Min: 0, Max: 10, Default: 2,
		}),
	}
	e.Self = e
	return e
}

func (e *recordingEffect) Process(x float32) float32 { return x }
func (e *recordingEffect) SetSampleRate(sr float32)   { e.sampleRate = sr }
func (e *recordingEffect) Reset()                     { e.resetCount++ }
func (e *recordingEffect) LatencySamples() int        { return e.latency }

func (e *recordingEffect) ParamCount() int                  { return e.params.Count() }
func (e *recordingEffect) ParamInfo(i int) param.Descriptor { return e.params.Info(i) }
func (e *recordingEffect) GetParam(i int) float64           { return e.params.Get(i) }
func (e *recordingEffect) SetParam(i int, v float64)        { e.params.Set(i, v) }

func TestOversampledEffectScalesInnerSampleRate(t *testing.T) {
	var left, right *recordingEffect
	calls := 0
	e := NewOversampledEffect(4, 31, func() effect.Effect {
		calls++
		r := newRecordingEffect(0)
		if calls == 1 {
			left = r
		} else {
			right = r
		}
		return r
	})
	e.SetSampleRate(48000)
	assert.Equal(t, float32(192000), left.sampleRate)
	assert.Equal(t, float32(192000), right.sampleRate)
}

func TestOversampledEffectChannelsAreIndependent(t *testing.T) {
	e := NewOversampledEffect(2, 31, func() effect.Effect { return newRecordingEffect(0) })
	e.SetSampleRate(48000)
	outL, outR := e.ProcessStereo(1, -1)
	assert.NotEqual(t, float32(0), outL)
	// Identical, independent lanes fed opposite inputs give opposite outputs.
	assert.Equal(t, -outL, outR)
}

func TestOversampledEffectLatencyCombinesInnerAndFilter(t *testing.T) {
	e := NewOversampledEffect(4, 63, func() effect.Effect { return newRecordingEffect(10) })
	baseline := NewOversampler(4, 63).LatencySamples()
	assert.Equal(t, baseline+10, e.LatencySamples())
}

func TestOversampledEffectResetClearsBothLanes(t *testing.T) {
	var left, right *recordingEffect
	calls := 0
	e := NewOversampledEffect(2, 31, func() effect.Effect {
		calls++
		r := newRecordingEffect(0)
		if calls == 1 {
			left = r
		} else {
			right = r
		}
		return r
	})
	e.Reset()
	require.Equal(t, 1, left.resetCount)
	require.Equal(t, 1, right.resetCount)
}

func TestOversampledEffectSetParamMirrorsBothLanes(t *testing.T) {
	var left, right *recordingEffect
	calls := 0
	e := NewOversampledEffect(2, 31, func() effect.Effect {
		calls++
		r := newRecordingEffect(0)
		if calls == 1 {
			left = r
		} else {
			right = r
		}
		return r
	})
	e.SetParam(0, 7)
	assert.Equal(t, 7.0, left.GetParam(0))
	assert.Equal(t, 7.0, right.GetParam(0))
}
