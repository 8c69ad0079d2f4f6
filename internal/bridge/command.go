package bridge

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
)

// CommandKind names a structural mutation queued by the GUI/host thread
// and applied by the audio thread between blocks.
type CommandKind int

const (
	CommandAdd CommandKind = iota
	CommandRemove
	CommandReorder
)

// Command is one structural mutation for a multi-effect chain: add a
// new bridged slot, remove the slot at a chain index, or replace the
// processing order wholesale.
type Command struct {
	Kind   CommandKind
	Slot   *Slot          // CommandAdd
	Effect effect.Effect  // CommandAdd
	Index  int            // CommandRemove: chain index to drop
	Order  []int          // CommandReorder: new processing order (chain indices)
}

var emptyCommands = &[]Command{}

// CommandQueue is a single-producer-single-consumer queue of structural
// commands, published lock-free via an atomic pointer swap: the GUI
// thread enqueues (copy-on-write, may allocate), the audio thread
// drains once per block with a single atomic swap and no allocation.
type CommandQueue struct {
	pending atomic.Pointer[[]Command]
}

// NewCommandQueue creates an empty queue.
func NewCommandQueue() *CommandQueue {
	q := &CommandQueue{}
	q.pending.Store(emptyCommands)
	return q
}

// Enqueue appends c to the pending list. Called from the GUI/host
// thread; may allocate.
func (q *CommandQueue) Enqueue(c Command) {
	for {
		old := q.pending.Load()
		next := make([]Command, len(*old)+1)
		copy(next, *old)
		next[len(*old)] = c
		if q.pending.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Drain atomically takes every command enqueued since the last drain.
// Called once per block by the audio thread; allocates nothing.
func (q *CommandQueue) Drain() []Command {
	old := q.pending.Swap(emptyCommands)
	return *old
}

// ChainSlot pairs a bridged parameter Slot with the live effect
// instance it drives: the unit a multi-effect plug-in's command queue
// adds, removes, and reorders.
type ChainSlot struct {
	Slot   *Slot
	Effect effect.Effect
}

// MultiBridge is the multi-effect plug-in's parameter bridge: bridged
// slots keyed by a stable chain index, an ordered processing-order list
// over those indices, and a command queue of structural mutations the
// audio thread applies wholesale between blocks so the topology is
// frozen within any one block.
type MultiBridge struct {
	chain      []ChainSlot
	order      []int
	queue      *CommandQueue
	lastValues [][]float64
	events     []GestureEvent
}

// NewMultiBridge creates an empty multi-effect bridge.
func NewMultiBridge() *MultiBridge {
	return &MultiBridge{queue: NewCommandQueue()}
}

// Enqueue forwards a structural command to the command queue; called
// from the GUI/host thread.
func (b *MultiBridge) Enqueue(c Command) { b.queue.Enqueue(c) }

// ApplyCommands drains and applies every command enqueued since the
// last call. Called once per block, before processing, by the audio
// thread. Unlike the steady per-block DSP path this may allocate: a
// structural change (add/remove/reorder a slot) is a rare control-plane
// event, not part of the per-sample hot path the "never allocate"
// constraint targets.
func (b *MultiBridge) ApplyCommands() {
	for _, c := range b.queue.Drain() {
		switch c.Kind {
		case CommandAdd:
			idx := len(b.chain)
			b.chain = append(b.chain, ChainSlot{Slot: c.Slot, Effect: c.Effect})
			b.lastValues = append(b.lastValues, initialValues(c.Slot))
			b.order = append(b.order, idx)
		case CommandRemove:
			b.removeFromOrder(c.Index)
		case CommandReorder:
			b.order = append([]int(nil), c.Order...)
		}
	}
}

func initialValues(s *Slot) []float64 {
	vals := make([]float64, s.ParamCount())
	for i := range vals {
		vals[i] = s.Get(i)
	}
	return vals
}

func (b *MultiBridge) removeFromOrder(chainIndex int) {
	next := b.order[:0]
	for _, idx := range b.order {
		if idx != chainIndex {
			next = append(next, idx)
		}
	}
	b.order = next
}

// Order reports the current processing order (chain indices).
func (b *MultiBridge) Order() []int { return b.order }

// Len reports the number of slots in processing order.
func (b *MultiBridge) Len() int { return len(b.order) }

// EffectID reports the bridged effect id at the given processing-order
// slot.
func (b *MultiBridge) EffectID(slot int) string { return b.resolve(slot).EffectID }

// InstanceID reports the bridged slot's stable per-instance id at the
// given processing-order slot, unaffected by reorders.
func (b *MultiBridge) InstanceID(slot int) uuid.UUID { return b.resolve(slot).InstanceID }

// ParamCount reports how many parameters the effect at the given
// processing-order slot bridges.
func (b *MultiBridge) ParamCount(slot int) int { return b.resolve(slot).ParamCount() }

// Descriptor returns parameter p's descriptor at the given
// processing-order slot.
func (b *MultiBridge) Descriptor(slot, p int) param.Descriptor { return b.resolve(slot).Descriptor(p) }

// Clear empties the chain immediately, bypassing the command queue.
// Unlike ApplyCommands, this is meant for the host main thread to call
// before audio processing begins (e.g. while loading plug-in state),
// not for the audio thread between blocks.
func (b *MultiBridge) Clear() {
	b.chain = nil
	b.order = nil
	b.lastValues = nil
	b.events = nil
}

func (b *MultiBridge) resolve(slot int) *Slot { return b.chain[b.order[slot]].Slot }

func (b *MultiBridge) Set(slot, p int, value float64) float64 { return b.resolve(slot).Set(p, value) }
func (b *MultiBridge) Get(slot, p int) float64                { return b.resolve(slot).Get(p) }
func (b *MultiBridge) BeginSet(slot, p int)                   { b.resolve(slot).BeginSet(p) }
func (b *MultiBridge) EndSet(slot, p int)                     { b.resolve(slot).EndSet(p) }
func (b *MultiBridge) SetBypassed(slot int, bypassed bool)    { b.resolve(slot).SetBypassed(bypassed) }
func (b *MultiBridge) Bypassed(slot int) bool                 { return b.resolve(slot).Bypassed() }

// ProcessBlock runs inL/inR through the chain in processing order,
// pushing bridged parameter values into each effect first (the read
// path's step 1) and skipping an effect entirely when its bypass flag
// is set (step 2). outL/outR may alias inL/inR.
func (b *MultiBridge) ProcessBlock(inL, inR, outL, outR []float32) {
	copy(outL, inL)
	copy(outR, inR)
	for _, idx := range b.order {
		cs := b.chain[idx]
		cs.Slot.ApplyTo(cs.Effect)
		if cs.Slot.Bypassed() {
			continue
		}
		cs.Effect.ProcessBlockStereoInPlace(outL, outR)
	}
}

// DrainEvents is called once per block by the audio thread; it reuses
// its internal slice so repeated calls allocate nothing once warmed up.
func (b *MultiBridge) DrainEvents() []GestureEvent {
	b.events = b.events[:0]
	for i, cs := range b.chain {
		b.events = cs.Slot.PullGestureEvents(b.events, b.lastValues[i])
	}
	return b.events
}
