package catalogue

import (
	"github.com/sonido-audio/sonido/internal/dsp"
	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
)

// Chorus parameter IDs, reserved within this effect's own 1..15 range.
const (
	ChorusParamRate param.ID = iota + 1
	ChorusParamDepth
	ChorusParamMix
	ChorusParamOutput
)

// chorusCenterMs is the modulated delay's resting point; the LFO swings
// the read head Depth milliseconds on either side of it.
const chorusCenterMs = 15
const chorusHeadroomMs = 5

// ChorusDescriptors returns Chorus's parameter descriptors without
// constructing an effect instance.
func ChorusDescriptors() []param.Descriptor {
	return []param.Descriptor{
		{Name: "Rate", ID: ChorusParamRate, Unit: param.UnitHertz, Min: 0.05, Max: 5, Default: 0.5, Flags: param.FlagAutomatable},
		{Name: "Depth", ID: ChorusParamDepth, Unit: param.UnitMilliseconds, Min: 0, Max: 10, Default: 3, Flags: param.FlagAutomatable},
		{Name: "Mix", ID: ChorusParamMix, Unit: param.UnitPercent, Min: 0, Max: 100, Default: 50, Flags: param.FlagAutomatable},
		{Name: "Output", ID: ChorusParamOutput, Unit: param.UnitDecibels, Min: -24, Max: 12, Default: 0, Flags: param.FlagAutomatable},
	}
}

// Chorus is a single-voice modulated delay: an LFO sweeps a fractional
// read head around a fixed center delay, producing the pitch-wavering
// doubling effect. Grounded in the same delay-line machinery §4.D
// specifies and the sine LFO §4.E specifies, composed the way a
// textbook chorus effect is built rather than copied from any one
// teacher module.
type Chorus struct {
	effect.Mono
	params *effect.ParamSet

	sampleRate float32
	depthMs    float32

	delay *dsp.Delay
	lfo   *dsp.LFO

	mix    *dsp.Smoother
	output *dsp.Smoother
}

// NewChorus builds a chorus effect configured for sampleRate.
func NewChorus(sampleRate float32) *Chorus {
	c := &Chorus{
		params:  effect.NewParamSet(ChorusDescriptors()...),
		depthMs: 3,
	}
	c.Self = c
	c.lfo = dsp.NewLFO(dsp.WaveformSine, 0.5, sampleRate)
	c.mix = dsp.NewSmoother(dsp.SmoothExponential, 50, distortionSmoothMs, sampleRate)
	c.output = dsp.NewSmoother(dsp.SmoothExponential, 0, distortionSmoothMs, sampleRate)
	c.sampleRate = sampleRate
	c.allocateDelay()
	return c
}

func (c *Chorus) allocateDelay() {
	capMs := chorusCenterMs + 10 + chorusHeadroomMs // 10 = Depth's declared max
	capacity := int(capMs*c.sampleRate/1000) + 1
	c.delay = dsp.NewDelay(capacity)
}

// Process runs one sample through the LFO-modulated delay line.
func (c *Chorus) Process(x float32) float32 {
	lfoVal := c.lfo.Advance()
	modMs := chorusCenterMs + c.depthMs*lfoVal
	delaySamples := modMs * c.sampleRate / 1000
	delayed := c.delay.ReadWrite(x, delaySamples)

	mix := c.mix.Advance() / 100
	out := x*(1-mix) + delayed*mix
	return out * dsp.DBToLinear(c.output.Advance())
}

// SetSampleRate recomputes the LFO increment and reallocates the delay
// line for the new rate (see Reverb.SetSampleRate for why this
// reallocation, though rare, is an accepted exception to the audio
// thread's zero-allocation rule: it only ever runs on the control
// thread, before processing starts).
func (c *Chorus) SetSampleRate(sr float32) {
	c.sampleRate = sr
	c.lfo.SetSampleRate(sr)
	c.mix.SetSampleRate(sr)
	c.output.SetSampleRate(sr)
	c.allocateDelay()
}

// Reset clears the delay line and LFO phase without touching parameters.
func (c *Chorus) Reset() {
	c.delay.Clear()
	c.lfo.Reset()
	c.mix.SnapToTarget()
	c.output.SnapToTarget()
}

func (c *Chorus) ParamCount() int                  { return c.params.Count() }
func (c *Chorus) ParamInfo(i int) param.Descriptor { return c.params.Info(i) }
func (c *Chorus) GetParam(i int) float64           { return c.params.Get(i) }

func (c *Chorus) SetParam(i int, value float64) {
	v := c.params.Set(i, value)
	switch i {
	case 0:
		c.lfo.SetFrequency(float32(v))
	case 1:
		c.depthMs = float32(v)
	case 2:
		c.mix.SetTarget(float32(v))
	case 3:
		c.output.SetTarget(float32(v))
	}
}
