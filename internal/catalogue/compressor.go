package catalogue

import (
	"github.com/sonido-audio/sonido/internal/dsp"
	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
)

// Compressor parameter IDs, reserved within this effect's own 1..15
// range.
const (
	CompressorParamThreshold param.ID = iota + 1
	CompressorParamRatio
	CompressorParamAttack
	CompressorParamRelease
	CompressorParamOutput
)

// CompressorDescriptors returns Compressor's parameter descriptors
// without constructing an effect instance.
func CompressorDescriptors() []param.Descriptor {
	return []param.Descriptor{
		{Name: "Threshold", ID: CompressorParamThreshold, Unit: param.UnitDecibels, Min: -60, Max: 0, Default: -18, Flags: param.FlagAutomatable},
		{Name: "Ratio", ID: CompressorParamRatio, Unit: param.UnitRatio, Min: 1, Max: 20, Default: 4, Flags: param.FlagAutomatable},
		{Name: "Attack", ID: CompressorParamAttack, Unit: param.UnitMilliseconds, Min: 0.1, Max: 200, Default: 10, Flags: param.FlagAutomatable},
		{Name: "Release", ID: CompressorParamRelease, Unit: param.UnitMilliseconds, Min: 10, Max: 1000, Default: 100, Flags: param.FlagAutomatable},
		{Name: "Output", ID: CompressorParamOutput, Unit: param.UnitDecibels, Min: -12, Max: 24, Default: 0, Flags: param.FlagAutomatable},
	}
}

// Compressor is a feed-forward peak compressor: an envelope follower
// tracks input level, a static gain computer applies the ratio above
// threshold, and the resulting gain reduction is applied directly (the
// envelope follower's own attack/release already supplies the smoothing
// a separate gain-smoother would otherwise add).
type Compressor struct {
	effect.Mono
	params *effect.ParamSet

	sampleRate float32
	threshold  float32
	ratio      float32
	envelope   *dsp.EnvelopeFollower
	output     *dsp.Smoother

	lastReductionDB float32
}

// NewCompressor builds a compressor configured for sampleRate.
func NewCompressor(sampleRate float32) *Compressor {
	c := &Compressor{
		params:    effect.NewParamSet(CompressorDescriptors()...),
		threshold: -18,
		ratio:     4,
	}
	c.Self = c
	c.envelope = dsp.NewEnvelopeFollower(10, 100, sampleRate)
	c.envelope.SetMode(dsp.DetectPeak)
	c.output = dsp.NewSmoother(dsp.SmoothExponential, 0, distortionSmoothMs, sampleRate)
	c.sampleRate = sampleRate
	return c
}

// Process runs one sample through the envelope detector and gain
// computer, applying the resulting reduction plus makeup gain.
func (c *Compressor) Process(x float32) float32 {
	level := c.envelope.Process(x)
	levelDB := dsp.LinearToDB(level)

	var reductionDB float32
	if levelDB > c.threshold {
		over := levelDB - c.threshold
		reductionDB = -(over * (1 - 1/c.ratio))
	}
	c.lastReductionDB = reductionDB

	gainLin := dsp.DBToLinear(reductionDB)
	outLin := dsp.DBToLinear(c.output.Advance())
	return x * gainLin * outLin
}

// GainReductionDB reports the gain reduction applied to the most recent
// sample, in dB (always <= 0). A value of 0 means no compression is
// occurring; -6 means the signal is being reduced by 6dB.
func (c *Compressor) GainReductionDB() float64 { return float64(c.lastReductionDB) }

// SetSampleRate recomputes every rate-dependent coefficient.
func (c *Compressor) SetSampleRate(sr float32) {
	c.sampleRate = sr
	c.envelope.SetSampleRate(sr)
	c.output.SetSampleRate(sr)
}

// Reset clears DSP state without touching parameters.
func (c *Compressor) Reset() {
	c.envelope.Reset()
	c.output.SnapToTarget()
	c.lastReductionDB = 0
}

func (c *Compressor) ParamCount() int                  { return c.params.Count() }
func (c *Compressor) ParamInfo(i int) param.Descriptor { return c.params.Info(i) }
func (c *Compressor) GetParam(i int) float64           { return c.params.Get(i) }

func (c *Compressor) SetParam(i int, value float64) {
	v := c.params.Set(i, value)
	switch i {
	case 0:
		c.threshold = float32(v)
	case 1:
		c.ratio = float32(v)
	case 2:
		c.envelope.SetAttack(float32(v))
	case 3:
		c.envelope.SetRelease(float32(v))
	case 4:
		c.output.SetTarget(float32(v))
	}
}
