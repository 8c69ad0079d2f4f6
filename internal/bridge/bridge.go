// Package bridge implements the lock-free GUI<->audio parameter
// transport: a GUI thread writes parameter values and bypass flags at
// interaction rate, an audio thread reads them every block without a
// mutex, and a plug-in host observes every GUI-originated change as a
// begin/value/end gesture sequence it can fold into one undo entry.
package bridge

import (
	"math"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
)

// GestureKind names the audio-thread-observable events a pending
// begin/end transition produces.
type GestureKind int

const (
	GestureBegin GestureKind = iota
	GestureValue
	GestureEnd
)

// GestureEvent is emitted to a plug-in host so it can group a run of
// GUI edits into a single undo entry.
type GestureEvent struct {
	ParamID param.ID
	Kind    GestureKind
	Value   float64 // only meaningful when Kind == GestureValue
}

const (
	gestureBeginPending byte = 1 << iota
	gestureEndPending
)

// paramSlot is the lock-free storage for one parameter: an atomic
// 32-bit integer holding the bit pattern of the current float value,
// and an atomic 32-bit word whose low bits mark pending begin/end
// gestures. Values are
// published with a release store and observed with an acquire load, so
// a write visible before BeginSet's flag is guaranteed visible once the
// flag is observed.
type paramSlot struct {
	descriptor     param.Descriptor
	bits           atomic.Uint32
	gesturePending atomic.Uint32
}

func newParamSlot(d param.Descriptor) *paramSlot {
	s := &paramSlot{descriptor: d}
	s.bits.Store(math.Float32bits(float32(d.Default)))
	return s
}

func (s *paramSlot) load() float64 {
	return float64(math.Float32frombits(s.bits.Load()))
}

func (s *paramSlot) store(v float64) float64 {
	d := s.descriptor
	if v < d.Min {
		v = d.Min
	}
	if v > d.Max {
		v = d.Max
	}
	s.bits.Store(math.Float32bits(float32(v)))
	return v
}

// Slot is one bridged effect instance: a stable id, its immutable
// parameter descriptors, one atomic value per parameter, and an atomic
// bypass flag. InstanceID distinguishes this slot from any other
// instance of the same effect type across reorders and removals, the
// way a graph's NodeID stays stable for the node's lifetime — a GUI
// widget can key off it instead of the slot's current chain position.
type Slot struct {
	EffectID   string
	InstanceID uuid.UUID
	params     []*paramSlot
	bypassed   atomic.Bool
}

// NewSlot builds a bridge slot for an effect instance, initialised to
// each descriptor's default value and tagged with a fresh instance id.
func NewSlot(effectID string, descriptors []param.Descriptor) *Slot {
	params := make([]*paramSlot, len(descriptors))
	for i, d := range descriptors {
		params[i] = newParamSlot(d)
	}
	return &Slot{EffectID: effectID, InstanceID: uuid.New(), params: params}
}

// ParamCount reports how many parameters this slot bridges.
func (s *Slot) ParamCount() int { return len(s.params) }

// Descriptor returns parameter i's immutable descriptor.
func (s *Slot) Descriptor(i int) param.Descriptor { return s.params[i].descriptor }

// Get returns parameter i's current value. Safe from either thread.
func (s *Slot) Get(i int) float64 { return s.params[i].load() }

// Set clamps value to parameter i's descriptor range and publishes it.
// Called from the GUI thread (or a host automation callback); the
// audio thread observes the new value on its next block.
func (s *Slot) Set(i int, value float64) float64 { return s.params[i].store(value) }

// BeginSet marks the start of a GUI-originated edit gesture for
// parameter i.
func (s *Slot) BeginSet(i int) { s.setGestureFlag(i, gestureBeginPending) }

// EndSet marks the end of a GUI-originated edit gesture for
// parameter i.
func (s *Slot) EndSet(i int) { s.setGestureFlag(i, gestureEndPending) }

func (s *Slot) setGestureFlag(i int, flag byte) {
	p := s.params[i]
	for {
		old := p.gesturePending.Load()
		next := old | uint32(flag)
		if p.gesturePending.CompareAndSwap(old, next) {
			return
		}
	}
}

// takeGestures atomically swaps out the pending gesture byte for
// parameter i, returning whatever was pending since the last call.
func (s *Slot) takeGestures(i int) byte {
	return byte(s.params[i].gesturePending.Swap(0))
}

// SetBypassed stores the bypass flag.
func (s *Slot) SetBypassed(b bool) { s.bypassed.Store(b) }

// Bypassed reports the current bypass flag.
func (s *Slot) Bypassed() bool { return s.bypassed.Load() }

// ApplyTo pushes every bridged parameter value into target, the audio
// thread's per-block read path step 1. Allocates nothing; a no-op past
// min(target.ParamCount(), s.ParamCount()).
func (s *Slot) ApplyTo(target effect.Effect) {
	n := target.ParamCount()
	if n > len(s.params) {
		n = len(s.params)
	}
	for i := 0; i < n; i++ {
		target.SetParam(i, s.params[i].load())
	}
}

// PullGestureEvents drains pending gesture flags and reports any value
// change since the last call, appending to dst in the fixed order
// begin, value, end (spec's gesture-ordering law) and returning the
// extended slice. lastValues must have one entry per parameter and is
// updated in place; both are reused across calls by the caller to stay
// allocation-free on the audio thread.
func (s *Slot) PullGestureEvents(dst []GestureEvent, lastValues []float64) []GestureEvent {
	for i, p := range s.params {
		pending := s.takeGestures(i)
		if pending&gestureBeginPending != 0 {
			dst = append(dst, GestureEvent{ParamID: p.descriptor.ID, Kind: GestureBegin})
		}
		v := p.load()
		if lastValues[i] != v {
			lastValues[i] = v
			dst = append(dst, GestureEvent{ParamID: p.descriptor.ID, Kind: GestureValue, Value: v})
		}
		if pending&gestureEndPending != 0 {
			dst = append(dst, GestureEvent{ParamID: p.descriptor.ID, Kind: GestureEnd})
		}
	}
	return dst
}

// ParameterBridge is the trait the GUI widget layer drives; the
// standalone app and the plug-in host adapter implement it identically
// from the GUI's point of view. Only the plug-in's audio side does
// anything further (emitting gesture/automation events).
type ParameterBridge interface {
	Set(slot, param int, value float64) float64
	Get(slot, param int) float64
	BeginSet(slot, param int)
	EndSet(slot, param int)
	SetBypassed(slot int, bypassed bool)
	Bypassed(slot int) bool
}

// StandaloneBridge is the flat-atomic-array bridge used by the
// standalone app: an ordered list of slots, written by the GUI thread
// and read every block by the audio thread.
type StandaloneBridge struct {
	slots []*Slot
}

// NewStandaloneBridge wraps an ordered list of slots.
func NewStandaloneBridge(slots []*Slot) *StandaloneBridge {
	return &StandaloneBridge{slots: slots}
}

func (b *StandaloneBridge) Set(slot, p int, value float64) float64 { return b.slots[slot].Set(p, value) }
func (b *StandaloneBridge) Get(slot, p int) float64                { return b.slots[slot].Get(p) }
func (b *StandaloneBridge) BeginSet(slot, p int)                   { b.slots[slot].BeginSet(p) }
func (b *StandaloneBridge) EndSet(slot, p int)                     { b.slots[slot].EndSet(p) }
func (b *StandaloneBridge) SetBypassed(slot int, bypassed bool)    { b.slots[slot].SetBypassed(bypassed) }
func (b *StandaloneBridge) Bypassed(slot int) bool                 { return b.slots[slot].Bypassed() }

// Slots exposes the underlying slot list for the audio thread's
// ApplyTo/bypass read path; the GUI never needs direct slot access.
func (b *StandaloneBridge) Slots() []*Slot { return b.slots }

// PluginBridge wraps a StandaloneBridge with the audio-side event
// emission a plug-in host requires: per block, for each parameter, a
// pending begin, then any value change (also catching host-automation-
// driven GUI updates), then a pending end.
type PluginBridge struct {
	*StandaloneBridge
	lastValues [][]float64 // per slot, per parameter
	events     []GestureEvent
}

// NewPluginBridge wraps an ordered list of slots with gesture tracking.
func NewPluginBridge(slots []*Slot) *PluginBridge {
	lastValues := make([][]float64, len(slots))
	for i, s := range slots {
		lv := make([]float64, s.ParamCount())
		for p := range lv {
			lv[p] = s.Get(p)
		}
		lastValues[i] = lv
	}
	return &PluginBridge{StandaloneBridge: NewStandaloneBridge(slots), lastValues: lastValues}
}

// DrainEvents is called once per block by the audio thread; it reuses
// its internal slice so repeated calls allocate nothing once warmed up.
func (b *PluginBridge) DrainEvents() []GestureEvent {
	b.events = b.events[:0]
	for i, s := range b.slots {
		b.events = s.PullGestureEvents(b.events, b.lastValues[i])
	}
	return b.events
}
