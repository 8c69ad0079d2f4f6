package effect

import "github.com/sonido-audio/sonido/internal/param"

// ParamSet is a small helper embedded by concrete effects to satisfy the
// ParamCount/ParamInfo/GetParam/SetParam quarter of the Effect contract
// without hand-writing a switch per effect. Each entry pairs an
// immutable descriptor with the current plain value; SetParam clamps to
// the descriptor's range (R2: "values are clamped to range, never
// silently rejected").
type ParamSet struct {
	descriptors []param.Descriptor
	values      []float64
}

// NewParamSet builds a ParamSet initialised to each descriptor's default
// value.
func NewParamSet(descriptors ...param.Descriptor) *ParamSet {
	values := make([]float64, len(descriptors))
	for i, d := range descriptors {
		values[i] = d.Default
	}
	return &ParamSet{descriptors: descriptors, values: values}
}

// Count reports the number of parameters.
func (p *ParamSet) Count() int { return len(p.descriptors) }

// Info returns the descriptor for parameter i.
func (p *ParamSet) Info(i int) param.Descriptor { return p.descriptors[i] }

// Get returns the current plain value of parameter i.
func (p *ParamSet) Get(i int) float64 { return p.values[i] }

// Set clamps value into the descriptor's range and stores it, returning
// the clamped value actually applied.
func (p *ParamSet) Set(i int, value float64) float64 {
	d := p.descriptors[i]
	if value < d.Min {
		value = d.Min
	}
	if value > d.Max {
		value = d.Max
	}
	p.values[i] = value
	return value
}

// IndexOf finds the parameter index for a stable ID, or -1 if absent.
func (p *ParamSet) IndexOf(id param.ID) int {
	for i, d := range p.descriptors {
		if d.ID == id {
			return i
		}
	}
	return -1
}
