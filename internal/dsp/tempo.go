package dsp

// TransportState names the clock's playback state.
type TransportState int

const (
	TransportStopped TransportState = iota
	TransportPlaying
)

// TempoClock is a sample-accurate musical clock: BPM, transport state,
// and beat/bar phase, used by tempo-synced modulation sources and
// effects (e.g. a tempo-synced delay).
type TempoClock struct {
	sampleRate      float32
	bpm             float32
	beatsPerBar     int
	state           TransportState
	positionSamples int64
	toleranceSamples int64
}

// NewTempoClock creates a clock at the given BPM and sample rate with a
// default 4/4 time signature and a 10ms on-beat detection tolerance.
func NewTempoClock(bpm, sampleRate float32) *TempoClock {
	c := &TempoClock{bpm: bpm, sampleRate: sampleRate, beatsPerBar: 4}
	c.toleranceSamples = int64(0.010 * float64(sampleRate))
	return c
}

// SetBPM changes tempo without affecting transport position.
func (c *TempoClock) SetBPM(bpm float32) { c.bpm = bpm }

// SetBeatsPerBar changes the time signature's numerator.
func (c *TempoClock) SetBeatsPerBar(n int) { c.beatsPerBar = n }

// SetSampleRate recomputes the on-beat tolerance window for a new rate.
func (c *TempoClock) SetSampleRate(sampleRate float32) {
	c.sampleRate = sampleRate
	c.toleranceSamples = int64(0.010 * float64(sampleRate))
}

// Play starts (or resumes) the transport.
func (c *TempoClock) Play() { c.state = TransportPlaying }

// Stop halts the transport without resetting position.
func (c *TempoClock) Stop() { c.state = TransportStopped }

// State reports the current transport state.
func (c *TempoClock) State() TransportState { return c.state }

// samplesPerBeat returns the number of samples in one quarter-note beat.
func (c *TempoClock) samplesPerBeat() float64 {
	return 60.0 / float64(c.bpm) * float64(c.sampleRate)
}

// AdvanceBlock moves the transport forward by n samples when playing;
// a no-op when stopped.
func (c *TempoClock) AdvanceBlock(n int) {
	if c.state == TransportPlaying {
		c.positionSamples += int64(n)
	}
}

// PositionSamples returns the sample-accurate transport position.
func (c *TempoClock) PositionSamples() int64 { return c.positionSamples }

// PhaseInBeat returns [0,1) position within the current quarter-note
// beat.
func (c *TempoClock) PhaseInBeat() float64 {
	spb := c.samplesPerBeat()
	if spb <= 0 {
		return 0
	}
	beatPos := float64(c.positionSamples) / spb
	frac := beatPos - float64(int64(beatPos))
	return frac
}

// PhaseInBar returns [0,1) position within the current bar.
func (c *TempoClock) PhaseInBar() float64 {
	spb := c.samplesPerBeat()
	if spb <= 0 {
		return 0
	}
	barSamples := spb * float64(c.beatsPerBar)
	barPos := float64(c.positionSamples) / barSamples
	frac := barPos - float64(int64(barPos))
	return frac
}

// OnBeat reports whether the transport is currently within
// toleranceSamples of a quarter-note beat boundary.
func (c *TempoClock) OnBeat() bool {
	spb := c.samplesPerBeat()
	if spb <= 0 {
		return false
	}
	beatIndex := float64(c.positionSamples) / spb
	nearest := int64(beatIndex + 0.5)
	nearestSample := int64(float64(nearest) * spb)
	diff := c.positionSamples - nearestSample
	if diff < 0 {
		diff = -diff
	}
	return diff <= c.toleranceSamples
}

// Reset returns the transport to sample 0 without changing BPM/state.
func (c *TempoClock) Reset() { c.positionSamples = 0 }
