// Package registry maps stable string effect ids to factories, the
// single place a preset, CLI chain string, or plug-in host turns an id
// into a live effect instance. There is no process-wide singleton: a
// Registry is a fresh value built by New(), matching §9's "no global
// state" design note.
package registry

import (
	"fmt"
	"sort"

	"github.com/sonido-audio/sonido/internal/catalogue"
	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
)

// UnknownEffectError is returned when a lookup or construction names an
// id the registry doesn't carry.
type UnknownEffectError struct {
	ID string
}

func (e *UnknownEffectError) Error() string {
	return fmt.Sprintf("registry: unknown effect id %q", e.ID)
}

// entry pairs a factory with the descriptor function the registry can
// call without ever constructing an effect, so a host can lay out a UI
// before an audio object exists.
type entry struct {
	id          string
	new         func(sampleRate float32) effect.Effect
	descriptors func() []param.Descriptor
}

// Registry enumerates the effect catalogue and constructs instances by
// id. The zero value is not usable; build one with New.
type Registry struct {
	entries map[string]entry
}

// New builds a registry pre-populated with every effect in the
// catalogue package. Ids are the short, stable identifiers used in
// presets, CLI chain strings, and plug-in metadata.
func New() *Registry {
	r := &Registry{entries: make(map[string]entry)}
	r.register("distortion", func(sr float32) effect.Effect { return catalogue.NewDistortion(sr) }, catalogue.DistortionDescriptors)
	r.register("compressor", func(sr float32) effect.Effect { return catalogue.NewCompressor(sr) }, catalogue.CompressorDescriptors)
	r.register("reverb", func(sr float32) effect.Effect { return catalogue.NewReverb(sr) }, catalogue.ReverbDescriptors)
	r.register("chorus", func(sr float32) effect.Effect { return catalogue.NewChorus(sr) }, catalogue.ChorusDescriptors)
	r.register("eq", func(sr float32) effect.Effect { return catalogue.NewParametricEQ(sr) }, catalogue.ParametricEQDescriptors)
	return r
}

func (r *Registry) register(id string, new func(sampleRate float32) effect.Effect, descriptors func() []param.Descriptor) {
	r.entries[id] = entry{id: id, new: new, descriptors: descriptors}
}

// New constructs an effect by id, bound to sampleRate. Returns
// *UnknownEffectError if id isn't registered.
func (r *Registry) New(id string, sampleRate float32) (effect.Effect, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, &UnknownEffectError{ID: id}
	}
	return e.new(sampleRate), nil
}

// Descriptors returns id's parameter descriptors without constructing an
// effect instance. Returns *UnknownEffectError if id isn't registered.
func (r *Registry) Descriptors(id string) ([]param.Descriptor, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, &UnknownEffectError{ID: id}
	}
	return e.descriptors(), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// IDs returns every registered id in sorted order, for stable listing
// in a CLI help screen or plug-in metadata dump.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
