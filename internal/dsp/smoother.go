package dsp

import "math"

// SmoothKind selects the ramp shape a Smoother uses when chasing a target.
type SmoothKind int

const (
	// SmoothExponential chases the target with y += c*(target-y): natural
	// decay, asymptotic, never quite arrives (see IsSettled).
	SmoothExponential SmoothKind = iota
	// SmoothLinear ramps at a constant rate over N samples then snaps.
	SmoothLinear
)

const settledEpsilon = 1e-6

// Smoother is a zipper-free parameter: a target value, a current value,
// and the coefficient/step needed to chase one toward the other one
// sample at a time. Advance must be called once per sample by real
// processing code, not once per control event.
type Smoother struct {
	kind SmoothKind

	current float32
	target  float32

	sampleRate float32
	timeMs     float32

	coef float32 // exponential coefficient
	step float32 // linear per-sample delta
	left int     // linear: samples remaining in the current ramp
}

// NewSmoother creates a smoother initialised to value with the given
// smoothing time (ms) at sampleRate.
func NewSmoother(kind SmoothKind, value, timeMs, sampleRate float32) *Smoother {
	s := &Smoother{kind: kind, current: value, target: value}
	s.SetSampleRate(sampleRate)
	s.SetTimeMs(timeMs)
	return s
}

// SetSampleRate recomputes the smoothing coefficient for a new rate
// without touching current/target values.
func (s *Smoother) SetSampleRate(sampleRate float32) {
	s.sampleRate = sampleRate
	s.recompute()
}

// SetTimeMs changes the smoothing time in milliseconds.
func (s *Smoother) SetTimeMs(timeMs float32) {
	s.timeMs = timeMs
	s.recompute()
}

func (s *Smoother) recompute() {
	if s.sampleRate <= 0 {
		return
	}
	samples := s.timeMs * s.sampleRate / 1000
	switch s.kind {
	case SmoothExponential:
		if samples <= 0 {
			s.coef = 1
			return
		}
		s.coef = float32(1 - math.Exp(-1/float64(samples)))
	case SmoothLinear:
		n := int(samples)
		if n < 1 {
			n = 1
		}
		remaining := s.target - s.current
		if s.left > 0 {
			s.step = remaining / float32(s.left)
		} else {
			s.step = 0
		}
		_ = n
	}
}

// SetTarget schedules value as the new destination; current glides toward
// it over subsequent Advance calls — it never jumps.
func (s *Smoother) SetTarget(value float32) {
	s.target = value
	if s.kind == SmoothLinear {
		samples := s.timeMs * s.sampleRate / 1000
		n := int(samples)
		if n < 1 {
			n = 1
		}
		s.left = n
		s.step = (s.target - s.current) / float32(n)
	}
}

// SetImmediate sets both current and target to value with no ramp.
func (s *Smoother) SetImmediate(value float32) {
	s.current = value
	s.target = value
	s.left = 0
	s.step = 0
}

// SnapToTarget forces current to target immediately.
func (s *Smoother) SnapToTarget() {
	s.current = s.target
	s.left = 0
	s.step = 0
}

// Advance yields the next smoothed sample.
func (s *Smoother) Advance() float32 {
	switch s.kind {
	case SmoothExponential:
		prev := s.current
		s.current += s.coef * (s.target - s.current)
		// A float32 step too small to move current also counts as settled.
		if s.current == prev || s.IsSettled() {
			s.current = s.target
		}
	case SmoothLinear:
		if s.left > 0 {
			s.current += s.step
			s.left--
			if s.left == 0 {
				s.current = s.target
			}
		}
	}
	return s.current
}

// Current returns the current value without advancing.
func (s *Smoother) Current() float32 { return s.current }

// Target returns the scheduled destination value.
func (s *Smoother) Target() float32 { return s.target }

// IsSettled reports whether current is within a tight epsilon of target.
func (s *Smoother) IsSettled() bool {
	diff := s.current - s.target
	if diff < 0 {
		diff = -diff
	}
	return diff < settledEpsilon
}
