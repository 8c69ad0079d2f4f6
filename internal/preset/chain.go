// Package preset implements the wire formats external collaborators use
// to describe an effect chain: the compact CLI/automation chain string,
// the on-disk YAML preset file, and the plug-in host's JSON state blob.
// None of this runs on the audio thread; every entry point here returns
// a typed error instead of panicking on malformed input.
package preset

import (
	"sort"
	"strings"

	"github.com/sonido-audio/sonido/internal/param"
	"github.com/sonido-audio/sonido/internal/registry"
)

// Slot is one parsed chain entry: an effect id, its bypass flag, and
// any parameter overrides keyed by parameter index (already resolved
// from the wire format's by-name keys against the registry).
type Slot struct {
	ID       string
	Bypassed bool
	Params   map[int]float64
}

// ParseChain parses a chain string of the form
// "eff1:p=v,q=w|!eff2|eff3:x=y" — pipes separate slots, ":k=v,..."
// gives parameters by descriptor name, and a leading "!" marks a slot
// bypassed. Parameter values accept the descriptor's formatted forms
// (-6dB, 100ms, 1.5kHz, 50%) as well as plain floats. Unknown effect
// ids or parameter names, and malformed "k=v" pairs, report
// *FormatError.
func ParseChain(reg *registry.Registry, s string) ([]Slot, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, "|")
	slots := make([]Slot, 0, len(parts))
	for _, part := range parts {
		slot, err := parseSlot(reg, part)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func parseSlot(reg *registry.Registry, part string) (Slot, error) {
	bypassed := false
	if strings.HasPrefix(part, "!") {
		bypassed = true
		part = part[1:]
	}
	if part == "" {
		return Slot{}, formatErr("chain: empty effect id")
	}

	idAndParams := strings.SplitN(part, ":", 2)
	id := idAndParams[0]
	descs, err := reg.Descriptors(id)
	if err != nil {
		return Slot{}, formatErr("chain: %v", err)
	}

	slot := Slot{ID: id, Bypassed: bypassed, Params: map[int]float64{}}
	if len(idAndParams) == 1 {
		return slot, nil
	}

	for _, pair := range strings.Split(idAndParams[1], ",") {
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return Slot{}, formatErr("chain: malformed parameter assignment %q", pair)
		}
		idx, d, ok := findByName(descs, kv[0])
		if !ok {
			return Slot{}, formatErr("chain: effect %q has no parameter named %q", id, kv[0])
		}
		plain, err := d.Parse(kv[1])
		if err != nil {
			return Slot{}, formatErr("chain: effect %q parameter %q: %v", id, kv[0], err)
		}
		slot.Params[idx] = plain
	}
	return slot, nil
}

func findByName(descs []param.Descriptor, name string) (int, param.Descriptor, bool) {
	for i, d := range descs {
		if strings.EqualFold(d.Name, name) || (d.ShortName != "" && strings.EqualFold(d.ShortName, name)) {
			return i, d, true
		}
	}
	return 0, param.Descriptor{}, false
}

// FormatChain renders slots back into the chain-string form ParseChain
// accepts, each parameter value formatted through its descriptor's unit
// rules.
func FormatChain(reg *registry.Registry, slots []Slot) (string, error) {
	parts := make([]string, len(slots))
	for i, slot := range slots {
		part, err := formatSlot(reg, slot)
		if err != nil {
			return "", err
		}
		parts[i] = part
	}
	return strings.Join(parts, "|"), nil
}

func formatSlot(reg *registry.Registry, slot Slot) (string, error) {
	descs, err := reg.Descriptors(slot.ID)
	if err != nil {
		return "", formatErr("chain: %v", err)
	}

	var b strings.Builder
	if slot.Bypassed {
		b.WriteByte('!')
	}
	b.WriteString(slot.ID)

	if len(slot.Params) > 0 {
		indices := make([]int, 0, len(slot.Params))
		for idx := range slot.Params {
			indices = append(indices, idx)
		}
		sort.Ints(indices)

		b.WriteByte(':')
		for i, idx := range indices {
			if idx < 0 || idx >= len(descs) {
				return "", formatErr("chain: effect %q has no parameter at index %d", slot.ID, idx)
			}
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(descs[idx].Name)
			b.WriteByte('=')
			b.WriteString(descs[idx].Format(slot.Params[idx]))
		}
	}
	return b.String(), nil
}
