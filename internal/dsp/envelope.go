package dsp

import "math"

// DetectionMode selects how EnvelopeFollower rectifies its input before
// smoothing.
type DetectionMode int

const (
	// DetectPeak rectifies the input (absolute value) before smoothing.
	DetectPeak DetectionMode = iota
	// DetectRMS smooths x^2 and takes the square root on output.
	DetectRMS
)

// EnvelopeFollower is an attack/release one-pole amplitude tracker.
// Changing detection mode resets internal state since peak and RMS
// track different underlying quantities.
type EnvelopeFollower struct {
	mode       DetectionMode
	sampleRate float32
	attackMs   float32
	releaseMs  float32
	attackCoef float32
	releaseCoef float32
	level      float32 // tracked quantity: |x| for peak, x^2 for RMS
}

// NewEnvelopeFollower creates a follower with the given attack/release
// times (ms) at sampleRate.
func NewEnvelopeFollower(attackMs, releaseMs, sampleRate float32) *EnvelopeFollower {
	e := &EnvelopeFollower{sampleRate: sampleRate, attackMs: attackMs, releaseMs: releaseMs}
	e.recompute()
	return e
}

func (e *EnvelopeFollower) recompute() {
	if e.sampleRate <= 0 {
		return
	}
	e.attackCoef = coefFromMs(e.attackMs, e.sampleRate)
	e.releaseCoef = coefFromMs(e.releaseMs, e.sampleRate)
}

func coefFromMs(ms, sampleRate float32) float32 {
	if ms <= 0 {
		return 1
	}
	samples := ms * sampleRate / 1000
	return float32(1 - math.Exp(-1/float64(samples)))
}

// SetAttack sets the attack time in ms.
func (e *EnvelopeFollower) SetAttack(ms float32) {
	e.attackMs = ms
	e.recompute()
}

// SetRelease sets the release time in ms.
func (e *EnvelopeFollower) SetRelease(ms float32) {
	e.releaseMs = ms
	e.recompute()
}

// SetSampleRate recomputes attack/release coefficients for a new rate.
func (e *EnvelopeFollower) SetSampleRate(sampleRate float32) {
	e.sampleRate = sampleRate
	e.recompute()
}

// SetMode switches detection mode, resetting internal state since peak
// and RMS track different underlying quantities.
func (e *EnvelopeFollower) SetMode(mode DetectionMode) {
	if mode != e.mode {
		e.mode = mode
		e.level = 0
	}
}

// Process runs one sample through the follower and returns the current
// envelope level.
func (e *EnvelopeFollower) Process(input float32) float32 {
	var rectified float32
	switch e.mode {
	case DetectPeak:
		rectified = float32(math.Abs(float64(input)))
	case DetectRMS:
		rectified = input * input
	}

	coef := e.releaseCoef
	if rectified > e.level {
		coef = e.attackCoef
	}
	e.level += coef * (rectified - e.level)
	e.level = FlushDenormal(e.level)

	return e.Value()
}

// Value reports the envelope level without advancing state.
func (e *EnvelopeFollower) Value() float32 {
	if e.mode == DetectRMS {
		return float32(math.Sqrt(float64(e.level)))
	}
	return e.level
}

// Reset clears tracked level.
func (e *EnvelopeFollower) Reset() { e.level = 0 }

// ADSRStage names the finite states of an ADSR envelope.
type ADSRStage int

const (
	ADSRIdle ADSRStage = iota
	ADSRAttack
	ADSRDecay
	ADSRSustain
	ADSRRelease
)

// ADSR is a finite-state attack/decay/sustain/release envelope generator
// driven by GateOn/GateOff. Attack/decay/release times are converted
// from ms to per-sample coefficients at the current sample rate.
type ADSR struct {
	stage      ADSRStage
	level      float32
	sampleRate float32

	attackMs, decayMs, releaseMs float32
	sustainLevel                 float32

	attackStep, decayCoef, releaseCoef float32
}

// NewADSR creates an ADSR envelope at sampleRate with the given times
// (ms) and sustain level.
func NewADSR(attackMs, decayMs, sustainLevel, releaseMs, sampleRate float32) *ADSR {
	a := &ADSR{
		sampleRate:   sampleRate,
		attackMs:     attackMs,
		decayMs:      decayMs,
		sustainLevel: sustainLevel,
		releaseMs:    releaseMs,
	}
	a.recompute()
	return a
}

func (a *ADSR) recompute() {
	if a.sampleRate <= 0 {
		return
	}
	attackSamples := a.attackMs * a.sampleRate / 1000
	if attackSamples < 1 {
		attackSamples = 1
	}
	a.attackStep = 1 / attackSamples
	a.decayCoef = coefFromMs(a.decayMs, a.sampleRate)
	a.releaseCoef = coefFromMs(a.releaseMs, a.sampleRate)
}

// SetAttack sets the attack time in ms.
func (a *ADSR) SetAttack(ms float32) { a.attackMs = ms; a.recompute() }

// SetDecay sets the decay time in ms.
func (a *ADSR) SetDecay(ms float32) { a.decayMs = ms; a.recompute() }

// SetSustain sets the sustain level in [0,1].
func (a *ADSR) SetSustain(level float32) { a.sustainLevel = ClampF32(level, 0, 1) }

// SetRelease sets the release time in ms.
func (a *ADSR) SetRelease(ms float32) { a.releaseMs = ms; a.recompute() }

// SetSampleRate recomputes per-sample coefficients for a new rate.
func (a *ADSR) SetSampleRate(sampleRate float32) {
	a.sampleRate = sampleRate
	a.recompute()
}

// GateOn starts (or restarts) the attack stage.
func (a *ADSR) GateOn() {
	a.stage = ADSRAttack
}

// GateOff moves a sounding envelope into its release stage. No-op if
// the envelope is already idle.
func (a *ADSR) GateOff() {
	if a.stage != ADSRIdle {
		a.stage = ADSRRelease
	}
}

// Stage reports the current ADSR stage.
func (a *ADSR) Stage() ADSRStage { return a.stage }

// Advance produces the next envelope sample.
func (a *ADSR) Advance() float32 {
	switch a.stage {
	case ADSRIdle:
		a.level = 0
	case ADSRAttack:
		a.level += a.attackStep
		if a.level >= 1 {
			a.level = 1
			a.stage = ADSRDecay
		}
	case ADSRDecay:
		prev := a.level
		a.level += a.decayCoef * (a.sustainLevel - a.level)
		// A float32 step too small to move level also counts as arrived.
		if a.level == prev || math.Abs(float64(a.level-a.sustainLevel)) < settledEpsilon {
			a.level = a.sustainLevel
			a.stage = ADSRSustain
		}
	case ADSRSustain:
		a.level = a.sustainLevel
	case ADSRRelease:
		a.level += a.releaseCoef * (0 - a.level)
		if a.level < settledEpsilon {
			a.level = 0
			a.stage = ADSRIdle
		}
	}
	a.level = FlushDenormal(a.level)
	return a.level
}

// Value returns the current envelope level without advancing.
func (a *ADSR) Value() float32 { return a.level }

// Reset returns the envelope to idle/silent without changing parameters.
func (a *ADSR) Reset() {
	a.stage = ADSRIdle
	a.level = 0
}

// IsActive reports whether the envelope is producing sound (not idle).
func (a *ADSR) IsActive() bool { return a.stage != ADSRIdle }
