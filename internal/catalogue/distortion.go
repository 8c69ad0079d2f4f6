package catalogue

import (
	"github.com/sonido-audio/sonido/internal/dsp"
	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/oversample"
	"github.com/sonido-audio/sonido/internal/param"
)

// Distortion parameter IDs, reserved within this effect's own 1..15
// range (id 0 stays Unassigned).
const (
	DistortionParamDrive param.ID = iota + 1
	DistortionParamMix
	DistortionParamOutput
)

const distortionSmoothMs = 10

// DistortionDescriptors returns Distortion's parameter descriptors
// without constructing an effect instance, so the registry can expose
// them to a host for UI layout before any audio object exists.
func DistortionDescriptors() []param.Descriptor {
	return []param.Descriptor{
		{Name: "Drive", ID: DistortionParamDrive, Unit: param.UnitDecibels, Min: 0, Max: 36, Default: 12, Flags: param.FlagAutomatable},
		{Name: "Mix", ID: DistortionParamMix, Unit: param.UnitPercent, Min: 0, Max: 100, Default: 100, Flags: param.FlagAutomatable},
		{Name: "Output", ID: DistortionParamOutput, Unit: param.UnitDecibels, Min: -24, Max: 12, Default: 0, Flags: param.FlagAutomatable},
	}
}

// Distortion is a soft-saturation waveshaper: drive into tanh, anti-
// aliased with first-order ADAA, DC-blocked, dry/wet mixed, and trimmed
// by an output gain stage. Grounded in spec.md's stated ADAA scheme
// (§4.H) applied to dsp.SoftClip, and in the teacher's practice of
// following every nonlinear stage with a DC blocker.
type Distortion struct {
	effect.Mono
	params *effect.ParamSet

	sampleRate float32
	drive      *dsp.Smoother
	mix        *dsp.Smoother
	output     *dsp.Smoother

	adaa      *oversample.ADAA1
	dcBlocker *dsp.DCBlocker
}

// NewDistortion builds a distortion effect configured for sampleRate.
func NewDistortion(sampleRate float32) *Distortion {
	d := &Distortion{
		params:    effect.NewParamSet(DistortionDescriptors()...),
		adaa:      oversample.NewADAA1(dsp.SoftClip, dsp.SoftClipAntiderivative),
		dcBlocker: dsp.NewDCBlocker(sampleRate),
	}
	d.Self = d
	d.drive = dsp.NewSmoother(dsp.SmoothExponential, 12, distortionSmoothMs, sampleRate)
	d.mix = dsp.NewSmoother(dsp.SmoothExponential, 100, distortionSmoothMs, sampleRate)
	d.output = dsp.NewSmoother(dsp.SmoothExponential, 0, distortionSmoothMs, sampleRate)
	d.sampleRate = sampleRate
	return d
}

// Process runs one sample through the drive/shape/mix/output chain.
func (d *Distortion) Process(x float32) float32 {
	driveLin := dsp.DBToLinear(d.drive.Advance())
	shaped := d.adaa.Process(x * driveLin)
	shaped = d.dcBlocker.Process(shaped)

	mix := d.mix.Advance() / 100
	wet := x*(1-mix) + shaped*mix

	outLin := dsp.DBToLinear(d.output.Advance())
	return wet * outLin
}

// SetSampleRate recomputes every rate-dependent coefficient.
func (d *Distortion) SetSampleRate(sr float32) {
	d.sampleRate = sr
	d.drive.SetSampleRate(sr)
	d.mix.SetSampleRate(sr)
	d.output.SetSampleRate(sr)
	d.dcBlocker.SetCutoff(dsp.DefaultDCBlockerHz, sr)
}

// Reset clears DSP state without touching parameters.
func (d *Distortion) Reset() {
	d.adaa.Reset()
	d.dcBlocker.Reset()
	d.drive.SnapToTarget()
	d.mix.SnapToTarget()
	d.output.SnapToTarget()
}

func (d *Distortion) ParamCount() int                  { return d.params.Count() }
func (d *Distortion) ParamInfo(i int) param.Descriptor { return d.params.Info(i) }
func (d *Distortion) GetParam(i int) float64           { return d.params.Get(i) }

// SetParam clamps and stores the plain value, then retargets the
// matching smoother so the audible change is zipper-free.
func (d *Distortion) SetParam(i int, value float64) {
	v := d.params.Set(i, value)
	switch i {
	case 0:
		d.drive.SetTarget(float32(v))
	case 1:
		d.mix.SetTarget(float32(v))
	case 2:
		d.output.SetTarget(float32(v))
	}
}
