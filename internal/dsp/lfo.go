package dsp

import "math"

// Waveform selects an LFO's shape.
type Waveform int

const (
	WaveformSine Waveform = iota
	WaveformTriangle
	WaveformSaw
	WaveformSquare
	WaveformSampleAndHold
)

// NoteDivision names a musical subdivision for tempo sync.
type NoteDivision int

const (
	NoteWhole NoteDivision = iota
	NoteHalf
	NoteQuarter
	NoteEighth
	NoteSixteenth
	NoteThirtySecond
	NoteHalfDotted
	NoteQuarterDotted
	NoteEighthDotted
	NoteSixteenthDotted
	NoteHalfTriplet
	NoteQuarterTriplet
	NoteEighthTriplet
	NoteSixteenthTriplet
)

// noteBeats is the number of quarter-note beats each division spans at
// its plain (non-dotted, non-triplet) length.
var noteBeats = map[NoteDivision]float64{
	NoteWhole:            4,
	NoteHalf:             2,
	NoteQuarter:          1,
	NoteEighth:           0.5,
	NoteSixteenth:        0.25,
	NoteThirtySecond:     0.125,
	NoteHalfDotted:       2 * 1.5,
	NoteQuarterDotted:    1 * 1.5,
	NoteEighthDotted:     0.5 * 1.5,
	NoteSixteenthDotted:  0.25 * 1.5,
	NoteHalfTriplet:      2 * 2.0 / 3.0,
	NoteQuarterTriplet:   1 * 2.0 / 3.0,
	NoteEighthTriplet:    0.5 * 2.0 / 3.0,
	NoteSixteenthTriplet: 0.25 * 2.0 / 3.0,
}

// LFO is a low-frequency oscillator driven by a phase accumulator in
// [0,1). It is bipolar for every waveform, sample-and-hold included:
// its held values are drawn uniformly from [-1,1].
type LFO struct {
	phase      float32
	increment  float32
	sampleRate float32
	freq       float32
	waveform   Waveform
	shRandState uint32
	shValue    float32
	lastValue  float32
}

// NewLFO creates an LFO at freqHz for sampleRate with the given waveform.
func NewLFO(waveform Waveform, freqHz, sampleRate float32) *LFO {
	l := &LFO{waveform: waveform, shRandState: 0x1234567}
	l.SetSampleRate(sampleRate)
	l.SetFrequency(freqHz)
	return l
}

// SetSampleRate recomputes the phase increment for a new sample rate.
func (l *LFO) SetSampleRate(sampleRate float32) {
	l.sampleRate = sampleRate
	l.recomputeIncrement()
}

// SetFrequency sets the LFO rate in Hz.
func (l *LFO) SetFrequency(freqHz float32) {
	l.freq = freqHz
	l.recomputeIncrement()
}

func (l *LFO) recomputeIncrement() {
	if l.sampleRate > 0 {
		l.increment = l.freq / l.sampleRate
	}
}

// SetWaveform changes the oscillator shape without resetting phase.
func (l *LFO) SetWaveform(w Waveform) { l.waveform = w }

// SetPhase sets the phase directly in [0,1), used for multi-voice phase
// offsets.
func (l *LFO) SetPhase(phase float32) {
	for phase < 0 {
		phase += 1
	}
	for phase >= 1 {
		phase -= 1
	}
	l.phase = phase
}

func shapeAt(waveform Waveform, phase float32, randState *uint32, heldValue *float32, wrapped bool) float32 {
	switch waveform {
	case WaveformSine:
		return float32(math.Sin(float64(phase) * 2 * math.Pi))
	case WaveformTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	case WaveformSaw:
		return 2*phase - 1
	case WaveformSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveformSampleAndHold:
		if wrapped {
			*randState = (*randState*1664525 + 1013904223)
			*heldValue = float32(*randState)/float32(math.MaxUint32)*2 - 1
		}
		return *heldValue
	default:
		return 0
	}
}

// Advance produces the next LFO sample and advances the phase
// accumulator.
func (l *LFO) Advance() float32 {
	wrapped := false
	l.phase += l.increment
	if l.phase >= 1 {
		l.phase -= float32(int(l.phase))
		wrapped = true
	} else if l.phase < 0 {
		l.phase += float32(int(-l.phase) + 1)
	}
	l.lastValue = shapeAt(l.waveform, l.phase, &l.shRandState, &l.shValue, wrapped)
	return l.lastValue
}

// ValueAtPhase peeks the waveform's value at an arbitrary phase without
// touching internal state — used by a GUI to draw the LFO shape.
func (l *LFO) ValueAtPhase(phase float32) float32 {
	for phase < 0 {
		phase += 1
	}
	for phase >= 1 {
		phase -= 1
	}
	randState := l.shRandState
	held := l.shValue
	return shapeAt(l.waveform, phase, &randState, &held, false)
}

// Reset zeroes the phase accumulator (and sample-and-hold state).
func (l *LFO) Reset() {
	l.phase = 0
	l.lastValue = 0
	l.shValue = 0
}

// Value returns the last produced sample without advancing.
func (l *LFO) Value() float32 { return l.lastValue }

// IsBipolar is always true: all five LFO waveforms are native [-1,1].
func (l *LFO) IsBipolar() bool { return true }

// SyncToTempo sets the LFO's frequency from a BPM and musical note
// division, e.g. sync_to_tempo(120, Quarter) => 2.0 Hz.
func (l *LFO) SyncToTempo(bpm float32, division NoteDivision) {
	beats := noteBeats[division]
	secondsPerBeat := 60.0 / float64(bpm)
	period := beats * secondsPerBeat
	l.SetFrequency(float32(1.0 / period))
}
