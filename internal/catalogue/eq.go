package catalogue

import (
	"github.com/sonido-audio/sonido/internal/dsp"
	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
)

// ParametricEQ parameter IDs, reserved within this effect's own 1..15
// range.
const (
	EQParamLowFreq param.ID = iota + 1
	EQParamLowGain
	EQParamMidFreq
	EQParamMidGain
	EQParamMidQ
	EQParamHighFreq
	EQParamHighGain
	EQParamOutput
)

// ParametricEQDescriptors returns ParametricEQ's parameter descriptors
// without constructing an effect instance.
func ParametricEQDescriptors() []param.Descriptor {
	return []param.Descriptor{
		{Name: "Low Freq", ID: EQParamLowFreq, Unit: param.UnitHertz, Scale: param.ScaleLogarithmic, Min: 20, Max: 500, Default: 100, Flags: param.FlagAutomatable},
		{Name: "Low Gain", ID: EQParamLowGain, Unit: param.UnitDecibels, Min: -15, Max: 15, Default: 0, Flags: param.FlagAutomatable},
		{Name: "Mid Freq", ID: EQParamMidFreq, Unit: param.UnitHertz, Scale: param.ScaleLogarithmic, Min: 200, Max: 8000, Default: 1000, Flags: param.FlagAutomatable},
		{Name: "Mid Gain", ID: EQParamMidGain, Unit: param.UnitDecibels, Min: -15, Max: 15, Default: 0, Flags: param.FlagAutomatable},
		{Name: "Mid Q", ID: EQParamMidQ, Unit: param.UnitRatio, Min: 0.1, Max: 10, Default: 1, Flags: param.FlagAutomatable},
		{Name: "High Freq", ID: EQParamHighFreq, Unit: param.UnitHertz, Scale: param.ScaleLogarithmic, Min: 1000, Max: 18000, Default: 8000, Flags: param.FlagAutomatable},
		{Name: "High Gain", ID: EQParamHighGain, Unit: param.UnitDecibels, Min: -15, Max: 15, Default: 0, Flags: param.FlagAutomatable},
		{Name: "Output", ID: EQParamOutput, Unit: param.UnitDecibels, Min: -24, Max: 12, Default: 0, Flags: param.FlagAutomatable},
	}
}

// ParametricEQ is a three-band equaliser: a low shelf, a peaking mid
// band, and a high shelf, each an RBJ cookbook biquad (§4.C), run in
// series and trimmed by an output stage.
type ParametricEQ struct {
	effect.Mono
	params *effect.ParamSet

	sampleRate float32

	lowFreq, lowGain             float32
	midFreq, midGain, midQ       float32
	highFreq, highGain           float32

	low  dsp.Biquad
	mid  dsp.Biquad
	high dsp.Biquad

	output *dsp.Smoother
}

// NewParametricEQ builds a three-band EQ configured for sampleRate.
func NewParametricEQ(sampleRate float32) *ParametricEQ {
	e := &ParametricEQ{
		params:  effect.NewParamSet(ParametricEQDescriptors()...),
		lowFreq: 100, midFreq: 1000, midQ: 1, highFreq: 8000,
	}
	e.Self = e
	e.output = dsp.NewSmoother(dsp.SmoothExponential, 0, distortionSmoothMs, sampleRate)
	e.sampleRate = sampleRate
	e.recompute()
	return e
}

func (e *ParametricEQ) recompute() {
	e.low.LowShelf(e.lowFreq, 0.707, e.lowGain, e.sampleRate)
	e.mid.Peaking(e.midFreq, e.midQ, e.midGain, e.sampleRate)
	e.high.HighShelf(e.highFreq, 0.707, e.highGain, e.sampleRate)
}

// Process runs one sample through the low shelf, mid peak, and high
// shelf stages in series.
func (e *ParametricEQ) Process(x float32) float32 {
	y := e.low.Process(x)
	y = e.mid.Process(y)
	y = e.high.Process(y)
	return y * dsp.DBToLinear(e.output.Advance())
}

// SetSampleRate recomputes every band's biquad coefficients.
func (e *ParametricEQ) SetSampleRate(sr float32) {
	e.sampleRate = sr
	e.output.SetSampleRate(sr)
	e.recompute()
}

// Reset clears each band's filter memory without reconfiguring.
func (e *ParametricEQ) Reset() {
	e.low.Reset()
	e.mid.Reset()
	e.high.Reset()
	e.output.SnapToTarget()
}

func (e *ParametricEQ) ParamCount() int                  { return e.params.Count() }
func (e *ParametricEQ) ParamInfo(i int) param.Descriptor { return e.params.Info(i) }
func (e *ParametricEQ) GetParam(i int) float64           { return e.params.Get(i) }

func (e *ParametricEQ) SetParam(i int, value float64) {
	v := e.params.Set(i, value)
	switch i {
	case 0:
		e.lowFreq = float32(v)
	case 1:
		e.lowGain = float32(v)
	case 2:
		e.midFreq = float32(v)
	case 3:
		e.midGain = float32(v)
	case 4:
		e.midQ = float32(v)
	case 5:
		e.highFreq = float32(v)
	case 6:
		e.highGain = float32(v)
	case 7:
		e.output.SetTarget(float32(v))
		return
	}
	e.recompute()
}
