package catalogue

import (
	"github.com/sonido-audio/sonido/internal/dsp"
	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
)

// Reverb parameter IDs, reserved within this effect's own 1..15 range.
const (
	ReverbParamPreDelay param.ID = iota + 1
	ReverbParamDecay
	ReverbParamMix
	ReverbParamOutput
)

// reverbNativeRate is the sample rate the comb/allpass delay lengths
// below were tuned at (the teacher's SoundChip runs its DSP at this
// fixed rate); every other sample rate scales the same lengths
// proportionally.
const reverbNativeRate = 44100

// combDelaySamples and combBaseDecay are the teacher's applyReverb
// topology verbatim: four parallel combs at prime-length delays with
// individually scaled decay.
var combDelaySamples = [4]int{1687, 1601, 2053, 2251}
var combBaseDecay = [4]float32{0.97, 0.95, 0.93, 0.91}

// allpassDelaySamples and allpassCoef are the teacher's two series
// allpass diffusion stages.
var allpassDelaySamples = [2]int{389, 307}

const allpassCoef = 0.5
const reverbPreDelayMs = 8

// ReverbDescriptors returns Reverb's parameter descriptors without
// constructing an effect instance.
func ReverbDescriptors() []param.Descriptor {
	return []param.Descriptor{
		{Name: "PreDelay", ID: ReverbParamPreDelay, Unit: param.UnitMilliseconds, Min: 0, Max: 50, Default: reverbPreDelayMs, Flags: param.FlagAutomatable},
		{Name: "Decay", ID: ReverbParamDecay, Unit: param.UnitNone, Min: 0, Max: 1, Default: 0.5, Flags: param.FlagAutomatable},
		{Name: "Mix", ID: ReverbParamMix, Unit: param.UnitPercent, Min: 0, Max: 100, Default: 30, Flags: param.FlagAutomatable},
		{Name: "Output", ID: ReverbParamOutput, Unit: param.UnitDecibels, Min: -24, Max: 12, Default: 0, Flags: param.FlagAutomatable},
	}
}

// Reverb is a classic Schroeder reverberator: pre-delay into four
// parallel damped combs, summed into two series allpasses, dry/wet
// mixed. Grounded verbatim in the teacher's audio_chip.go applyReverb
// (prime comb delays, per-comb decay scaling, two allpass diffusers),
// generalised from the teacher's fixed 44.1kHz hardware rate to an
// arbitrary sample rate and from a fixed per-comb decay byte to a
// continuous [0,1] Decay parameter.
type Reverb struct {
	effect.Mono
	params *effect.ParamSet

	sampleRate float32
	preDelayMs float32
	decay      float32

	preDelay *dsp.Delay
	combs    [4]*dsp.Comb
	allpass  [2]*dsp.Allpass

	mix    *dsp.Smoother
	output *dsp.Smoother
}

// NewReverb builds a reverb configured for sampleRate.
func NewReverb(sampleRate float32) *Reverb {
	r := &Reverb{
		params:     effect.NewParamSet(ReverbDescriptors()...),
		preDelayMs: reverbPreDelayMs,
		decay:      0.5,
	}
	r.Self = r
	r.mix = dsp.NewSmoother(dsp.SmoothExponential, 30, distortionSmoothMs, sampleRate)
	r.output = dsp.NewSmoother(dsp.SmoothExponential, 0, distortionSmoothMs, sampleRate)
	r.sampleRate = sampleRate
	r.rebuild()
	return r
}

// scaledSamples converts a delay length tuned at reverbNativeRate to the
// equivalent length at the reverb's current sample rate.
func (r *Reverb) scaledSamples(native int) int {
	n := int(float32(native) * r.sampleRate / reverbNativeRate)
	if n < 1 {
		n = 1
	}
	return n
}

// rebuild (re)allocates every delay line for the current sample rate and
// reapplies the decay-derived comb feedback. Only called from
// NewReverb/SetSampleRate (a control-thread operation, never per
// process_block), so the allocation here does not violate the audio
// thread's zero-allocation requirement.
func (r *Reverb) rebuild() {
	preDelaySamples := int(r.preDelayMs*r.sampleRate/1000) + 1
	r.preDelay = dsp.NewDelay(preDelaySamples)

	for i := range r.combs {
		c := dsp.NewComb(r.scaledSamples(combDelaySamples[i]))
		c.SetDamping(8000, r.sampleRate)
		c.SetFeedback(combBaseDecay[i] * (0.5 + 0.5*r.decay))
		r.combs[i] = c
	}
	for i := range r.allpass {
		r.allpass[i] = dsp.NewAllpass(r.scaledSamples(allpassDelaySamples[i]), allpassCoef)
	}
}

// Process runs one sample through pre-delay, the comb bank, the series
// allpasses, and the dry/wet/output stage.
func (r *Reverb) Process(x float32) float32 {
	delayed := r.preDelay.ReadWrite(x, float32(r.preDelay.Capacity()-1))

	var wet float32
	for _, c := range r.combs {
		wet += c.Process(delayed)
	}
	wet /= float32(len(r.combs))

	for _, a := range r.allpass {
		wet = a.Process(wet)
	}

	mix := r.mix.Advance() / 100
	out := x*(1-mix) + wet*mix
	return out * dsp.DBToLinear(r.output.Advance())
}

// SetSampleRate recomputes every rate-dependent delay line. Reallocates
// the comb/allpass/pre-delay buffers (see rebuild).
func (r *Reverb) SetSampleRate(sr float32) {
	r.sampleRate = sr
	r.mix.SetSampleRate(sr)
	r.output.SetSampleRate(sr)
	r.rebuild()
}

// Reset clears every delay line and filter without reallocating.
func (r *Reverb) Reset() {
	r.preDelay.Clear()
	for _, c := range r.combs {
		c.Reset()
	}
	for _, a := range r.allpass {
		a.Reset()
	}
	r.mix.SnapToTarget()
	r.output.SnapToTarget()
}

func (r *Reverb) ParamCount() int                  { return r.params.Count() }
func (r *Reverb) ParamInfo(i int) param.Descriptor { return r.params.Info(i) }
func (r *Reverb) GetParam(i int) float64           { return r.params.Get(i) }

func (r *Reverb) SetParam(i int, value float64) {
	v := r.params.Set(i, value)
	switch i {
	case 0:
		r.preDelayMs = float32(v)
		r.rebuild()
	case 1:
		r.decay = float32(v)
		for j, c := range r.combs {
			c.SetFeedback(combBaseDecay[j] * (0.5 + 0.5*r.decay))
		}
	case 2:
		r.mix.SetTarget(float32(v))
	case 3:
		r.output.SetTarget(float32(v))
	}
}
