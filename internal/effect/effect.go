// Package effect defines the polymorphic contract every DSP effect
// satisfies and the default sample/block helpers built on top of it.
// Effects are held as interface values inside heterogeneous containers
// (the processing graph, the registry); the one indirect call per block
// this costs is negligible next to the per-sample DSP work it wraps.
package effect

import "github.com/sonido-audio/sonido/internal/param"

// Effect is the object-safe interface every processor satisfies: no
// generic parameters on its methods, so it is usable as a trait object
// inside a graph node or a registry entry.
type Effect interface {
	// Process transforms one mono sample.
	Process(sample float32) float32
	// ProcessStereo transforms one stereo sample pair.
	ProcessStereo(l, r float32) (float32, float32)

	// ProcessBlock transforms input into output, out-of-place. Both
	// slices must have equal length.
	ProcessBlock(input, output []float32)
	// ProcessBlockInPlace transforms buf in place.
	ProcessBlockInPlace(buf []float32)
	// ProcessBlockStereo transforms inputs into outputs, out-of-place.
	ProcessBlockStereo(inL, inR, outL, outR []float32)
	// ProcessBlockStereoInPlace transforms bufL/bufR in place.
	ProcessBlockStereoInPlace(bufL, bufR []float32)

	// SetSampleRate recomputes every rate-dependent coefficient. May
	// invalidate filter state but must never allocate.
	SetSampleRate(sampleRate float32)
	// Reset clears DSP state (delay lines, filter memory, envelopes)
	// without changing parameters.
	Reset()
	// LatencySamples reports the effect's processing delay in samples,
	// used by the graph for latency compensation. Default 0.
	LatencySamples() int

	// ParamCount reports how many parameters this effect exposes.
	ParamCount() int
	// ParamInfo returns the immutable descriptor for parameter i.
	ParamInfo(i int) param.Descriptor
	// GetParam returns the current plain value of parameter i.
	GetParam(i int) float64
	// SetParam clamps value to the descriptor's range and applies it.
	SetParam(i int, value float64)
}

// Mono is embedded by effects that only define Process; it supplies
// every other Effect method in terms of Process and SetParam/GetParam,
// matching the contract's "default implementation may call process
// twice" language for stereo and the copy-then-out-of-place default for
// in-place block processing.
//
// A concrete effect embeds Mono, implements Process/SetSampleRate/Reset/
// ParamCount/ParamInfo/GetParam/SetParam itself, and inherits the rest.
type Mono struct {
	// Self must be set by the embedding effect's constructor to the
	// effect itself, so Mono's default methods can call back into the
	// overridden Process. Go has no virtual dispatch through an
	// embedded struct, so this explicit back-pointer is the idiomatic
	// substitute.
	Self Effect
}

// ProcessStereo defaults to calling Process independently on each
// channel; effects with linked stereo behaviour (stereo compression,
// ping-pong modulation) override this method entirely instead of
// embedding Mono.
func (m *Mono) ProcessStereo(l, r float32) (float32, float32) {
	return m.Self.Process(l), m.Self.Process(r)
}

// ProcessBlock loops Process over input into output.
func (m *Mono) ProcessBlock(input, output []float32) {
	for i, x := range input {
		output[i] = m.Self.Process(x)
	}
}

// ProcessBlockInPlace copies into scratch conceptually by processing
// sample-by-sample directly over buf, which is safe because Process
// only ever needs the current sample.
func (m *Mono) ProcessBlockInPlace(buf []float32) {
	for i, x := range buf {
		buf[i] = m.Self.Process(x)
	}
}

// ProcessBlockStereo loops ProcessStereo over the input pair.
func (m *Mono) ProcessBlockStereo(inL, inR, outL, outR []float32) {
	for i := range inL {
		l, r := m.Self.ProcessStereo(inL[i], inR[i])
		outL[i], outR[i] = l, r
	}
}

// ProcessBlockStereoInPlace loops ProcessStereo in place.
func (m *Mono) ProcessBlockStereoInPlace(bufL, bufR []float32) {
	for i := range bufL {
		l, r := m.Self.ProcessStereo(bufL[i], bufR[i])
		bufL[i], bufR[i] = l, r
	}
}

// LatencySamples defaults to 0; effects that introduce delay (an
// oversampler wrapper, a look-ahead limiter) override it.
func (m *Mono) LatencySamples() int { return 0 }

// ProcessBlockGeneric is a free-function fallback for effects that want
// the "copy into scratch then out-of-place" in-place default verbatim
// (spec.md's literal wording) rather than Mono's direct in-place loop —
// useful for an effect whose Process is not safe to call with aliased
// input/output. Nothing in the catalogue or the graph calls it; the
// graph drives every effect node through the effect's own
// ProcessBlockStereo/ProcessBlockStereoInPlace methods.
func ProcessBlockGeneric(e Effect, buf []float32, scratch []float32) {
	copy(scratch, buf)
	e.ProcessBlock(scratch, buf)
}

// ProcessBlockStereoGeneric is ProcessBlockGeneric's stereo counterpart.
func ProcessBlockStereoGeneric(e Effect, bufL, bufR, scratchL, scratchR []float32) {
	copy(scratchL, bufL)
	copy(scratchR, bufR)
	e.ProcessBlockStereo(scratchL, scratchR, bufL, bufR)
}
