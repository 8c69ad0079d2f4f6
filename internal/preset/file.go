package preset

import (
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/sonido-audio/sonido/internal/registry"
)

// FileSlot is one row of a serialised preset file: an effect type id,
// its bypass flag, and parameter overrides keyed by descriptor name
// (the on-disk counterpart of a chain string's ":k=v,..." clause).
type FileSlot struct {
	Type     string             `yaml:"type"`
	Bypassed bool               `yaml:"bypassed"`
	Params   map[string]float64 `yaml:"params,omitempty"`
}

// File is the on-disk preset format: the same ordered slot list a chain
// string describes, serialised as a YAML table.
type File []FileSlot

// Marshal serialises f as YAML.
func (f File) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(f)
	if err != nil {
		return nil, formatErr("preset: marshal: %v", err)
	}
	return out, nil
}

// ParseFile decodes a YAML preset file.
func ParseFile(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, formatErr("preset: parse: %v", err)
	}
	return f, nil
}

// Resolve turns a parsed preset file into chain slots with parameter
// values resolved against the registry's descriptors, clamped
// implicitly by whatever later calls Set/SetParam with them. Unknown
// effect types or parameter names report *FormatError.
func (f File) Resolve(reg *registry.Registry) ([]Slot, error) {
	slots := make([]Slot, len(f))
	for i, row := range f {
		descs, err := reg.Descriptors(row.Type)
		if err != nil {
			return nil, formatErr("preset: slot %d: %v", i, err)
		}
		params := make(map[int]float64, len(row.Params))
		for name, v := range row.Params {
			idx, _, ok := findByName(descs, name)
			if !ok {
				return nil, formatErr("preset: slot %d: effect %q has no parameter named %q", i, row.Type, name)
			}
			params[idx] = v
		}
		slots[i] = Slot{ID: row.Type, Bypassed: row.Bypassed, Params: params}
	}
	return slots, nil
}

// FileFromSlots renders chain slots into the on-disk preset form,
// parameter values keyed by descriptor name for readability.
func FileFromSlots(reg *registry.Registry, slots []Slot) (File, error) {
	f := make(File, len(slots))
	for i, slot := range slots {
		descs, err := reg.Descriptors(slot.ID)
		if err != nil {
			return nil, formatErr("preset: slot %d: %v", i, err)
		}
		params := make(map[string]float64, len(slot.Params))
		indices := make([]int, 0, len(slot.Params))
		for idx := range slot.Params {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			if idx < 0 || idx >= len(descs) {
				return nil, formatErr("preset: slot %d: effect %q has no parameter at index %d", i, slot.ID, idx)
			}
			params[descs[idx].Name] = slot.Params[idx]
		}
		f[i] = FileSlot{Type: slot.ID, Bypassed: slot.Bypassed, Params: params}
	}
	return f, nil
}
