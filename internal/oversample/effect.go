package oversample

import (
	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
)

// channelState is one independent upsample/process/downsample lane: its
// own filter history and its own inner effect instance, so a stereo
// OversampledEffect never lets the right channel's signal leak into the
// left channel's nonlinearity state.
type channelState struct {
	os    *Oversampler
	inner effect.Effect
}

// OversampledEffect wraps any effect.Effect in an integer-factor
// oversampling sandwich: upsample by factor, run inner at factor times
// the outer sample rate, downsample back down. It is itself an
// effect.Effect, so it drops into a graph node exactly like the effect
// it wraps, just with added latency and CPU cost in exchange for
// suppressed aliasing on a nonlinear inner stage.
type OversampledEffect struct {
	factor     int
	tapCount   int
	newInner   func() effect.Effect
	left       channelState
	right      channelState
	sampleRate float32
	upScratch  [8]float32
}

// NewOversampledEffect builds a wrapper for oversampling factor (2, 4,
// or 8) and FIR tap count tapCount. newInner constructs a fresh inner
// effect instance; it is called twice, once per stereo channel, so the
// two lanes never share mutable DSP state.
func NewOversampledEffect(factor, tapCount int, newInner func() effect.Effect) *OversampledEffect {
	e := &OversampledEffect{
		factor:   factor,
		tapCount: tapCount,
		newInner: newInner,
	}
	e.left = newChannelState(factor, tapCount, newInner)
	e.right = newChannelState(factor, tapCount, newInner)
	return e
}

func newChannelState(factor, tapCount int, newInner func() effect.Effect) channelState {
	return channelState{os: NewOversampler(factor, tapCount), inner: newInner()}
}

// Factor reports the oversampling ratio.
func (e *OversampledEffect) Factor() int { return e.factor }

func (c *channelState) processOne(x float32, scratch []float32) float32 {
	c.os.UpsampleOne(x, scratch)
	for i, s := range scratch {
		scratch[i] = c.inner.Process(s)
	}
	return c.os.DownsampleOne(scratch)
}

// Process runs the left lane; used when the wrapper sits in a mono
// context (a graph node processing one channel at a time).
func (e *OversampledEffect) Process(x float32) float32 {
	return e.left.processOne(x, e.upScratch[:e.factor])
}

// ProcessStereo runs both lanes independently so stereo information
// crossing the nonlinearity stays separated per channel.
func (e *OversampledEffect) ProcessStereo(l, r float32) (float32, float32) {
	var scratchR [8]float32
	outL := e.left.processOne(l, e.upScratch[:e.factor])
	outR := e.right.processOne(r, scratchR[:e.factor])
	return outL, outR
}

// ProcessBlock loops Process over input into output.
func (e *OversampledEffect) ProcessBlock(input, output []float32) {
	for i, x := range input {
		output[i] = e.Process(x)
	}
}

// ProcessBlockInPlace loops Process in place.
func (e *OversampledEffect) ProcessBlockInPlace(buf []float32) {
	for i, x := range buf {
		buf[i] = e.Process(x)
	}
}

// ProcessBlockStereo loops ProcessStereo over the input pair.
func (e *OversampledEffect) ProcessBlockStereo(inL, inR, outL, outR []float32) {
	for i := range inL {
		l, r := e.ProcessStereo(inL[i], inR[i])
		outL[i], outR[i] = l, r
	}
}

// ProcessBlockStereoInPlace loops ProcessStereo in place.
func (e *OversampledEffect) ProcessBlockStereoInPlace(bufL, bufR []float32) {
	for i := range bufL {
		l, r := e.ProcessStereo(bufL[i], bufR[i])
		bufL[i], bufR[i] = l, r
	}
}

// SetSampleRate sets the inner effect's sample rate to factor times sr,
// since the inner stage runs at the oversampled rate.
func (e *OversampledEffect) SetSampleRate(sr float32) {
	e.sampleRate = sr
	inner := sr * float32(e.factor)
	e.left.inner.SetSampleRate(inner)
	e.right.inner.SetSampleRate(inner)
}

// Reset clears both lanes' filter history and inner effect state.
func (e *OversampledEffect) Reset() {
	e.left.os.Reset()
	e.right.os.Reset()
	e.left.inner.Reset()
	e.right.inner.Reset()
}

// LatencySamples reports the combined upsample/downsample filter group
// delay plus the inner effect's own latency, all expressed in samples
// at the outer (non-oversampled) rate.
func (e *OversampledEffect) LatencySamples() int {
	return e.left.os.LatencySamples() + e.left.inner.LatencySamples()
}

// ParamCount, ParamInfo, GetParam and SetParam proxy to the left lane;
// SetParam additionally mirrors the value into the right lane so both
// channels' inner effects always share identical parameters.
func (e *OversampledEffect) ParamCount() int { return e.left.inner.ParamCount() }

func (e *OversampledEffect) ParamInfo(i int) param.Descriptor { return e.left.inner.ParamInfo(i) }

func (e *OversampledEffect) GetParam(i int) float64 { return e.left.inner.GetParam(i) }

func (e *OversampledEffect) SetParam(i int, value float64) {
	e.left.inner.SetParam(i, value)
	e.right.inner.SetParam(i, value)
}
