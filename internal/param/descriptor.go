// Package param implements the parameter-descriptor layer: the narrow,
// fully-declarative metadata format that plays the role of reflection
// for effect parameters (six units, three scale curves, five flag bits).
package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit tags the physical quantity a parameter's plain value represents.
type Unit int

const (
	UnitNone Unit = iota
	UnitDecibels
	UnitHertz
	UnitMilliseconds
	UnitPercent
	UnitRatio
)

// Scale names the curve normalize/denormalize applies between a
// parameter's plain range and its [0,1] normalized form.
type Scale int

const (
	ScaleLinear Scale = iota
	ScaleLogarithmic
	ScalePower
)

// Flags is a bitset of independent per-parameter flags.
type Flags uint8

const (
	FlagAutomatable Flags = 1 << iota
	FlagStepped
	FlagHidden
	FlagReadOnly
	FlagModulatable
)

// ID is a stable, host-visible integer identifying a parameter. Zero is
// reserved for "unassigned". IDs are never renumbered or reused for a
// different parameter across versions.
type ID uint32

// Unassigned is the reserved "no parameter" ID.
const Unassigned ID = 0

// IDsPerEffect is the contiguous range of stable IDs each effect
// reserves, leaving headroom to add parameters across versions without
// colliding with the next effect's range.
const IDsPerEffect = 16

// Descriptor is an immutable record describing one knob.
type Descriptor struct {
	Name      string
	ShortName string
	Group     string
	ID        ID
	Unit      Unit
	Scale     Scale
	PowerExp  float64 // only meaningful when Scale == ScalePower
	Min       float64
	Max       float64
	Default   float64
	StepHint  float64
	Flags     Flags
}

// HasFlag reports whether f is set on d.
func (d Descriptor) HasFlag(f Flags) bool { return d.Flags&f != 0 }

// Normalize maps a plain value in [Min,Max] to [0,1] under the declared
// scale curve. The mapping is strictly monotonic in plain for every
// supported scale.
func (d Descriptor) Normalize(plain float64) float64 {
	if d.Max == d.Min {
		return 0
	}
	t := (plain - d.Min) / (d.Max - d.Min)
	switch d.Scale {
	case ScaleLinear:
		return clamp01(t)
	case ScaleLogarithmic:
		return clamp01(logNormalize(plain, d.Min, d.Max))
	case ScalePower:
		exp := d.PowerExp
		if exp == 0 {
			exp = 1
		}
		return clamp01(math.Pow(t, 1/exp))
	default:
		return clamp01(t)
	}
}

// Denormalize maps a normalized [0,1] value back to the plain [Min,Max]
// range. denormalize(normalize(x)) ≈ x within single-precision tolerance
// for x in [Min,Max].
func (d Descriptor) Denormalize(normalized float64) float64 {
	normalized = clamp01(normalized)
	switch d.Scale {
	case ScaleLinear:
		return d.Min + normalized*(d.Max-d.Min)
	case ScaleLogarithmic:
		return logDenormalize(normalized, d.Min, d.Max)
	case ScalePower:
		exp := d.PowerExp
		if exp == 0 {
			exp = 1
		}
		t := math.Pow(normalized, exp)
		return d.Min + t*(d.Max-d.Min)
	default:
		return d.Min + normalized*(d.Max-d.Min)
	}
}

// logFloor keeps logarithmic scales well-defined when Min is zero or
// negative (e.g. a frequency descriptor that allows 0 Hz "off").
const logFloor = 1e-6

func logNormalize(plain, min, max float64) float64 {
	lo := math.Max(min, logFloor)
	hi := math.Max(max, lo*1.0001)
	p := math.Max(plain, lo)
	return (math.Log(p) - math.Log(lo)) / (math.Log(hi) - math.Log(lo))
}

func logDenormalize(normalized, min, max float64) float64 {
	lo := math.Max(min, logFloor)
	hi := math.Max(max, lo*1.0001)
	logLo, logHi := math.Log(lo), math.Log(hi)
	v := math.Exp(logLo + normalized*(logHi-logLo))
	if min <= 0 && normalized <= 0 {
		return min
	}
	return v
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Format renders plain according to the descriptor's unit, matching the
// conventions fixed hosts and presets round-trip against.
func (d Descriptor) Format(plain float64) string {
	switch d.Unit {
	case UnitDecibels:
		return fmt.Sprintf("%.1f dB", plain)
	case UnitHertz:
		if plain < 1000 {
			return fmt.Sprintf("%g Hz", roundTo(plain, 0))
		}
		return fmt.Sprintf("%.1f kHz", plain/1000)
	case UnitMilliseconds:
		if plain < 1000 {
			return fmt.Sprintf("%.1f ms", plain)
		}
		return fmt.Sprintf("%.2f s", plain/1000)
	case UnitPercent:
		return fmt.Sprintf("%g%%", roundTo(plain, 0))
	case UnitRatio:
		return fmt.Sprintf("%.1f:1", plain)
	default:
		return fmt.Sprintf("%.2f", plain)
	}
}

func roundTo(v float64, decimals int) float64 {
	mult := math.Pow(10, float64(decimals))
	return math.Round(v*mult) / mult
}

// Parse accepts either Format's own output or a bare numeric string and
// returns the plain value.
func (d Descriptor) Parse(text string) (float64, error) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	switch d.Unit {
	case UnitDecibels:
		lower = strings.TrimSuffix(lower, "db")
	case UnitHertz:
		if strings.HasSuffix(lower, "khz") {
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(lower, "khz")), 64)
			if err != nil {
				return 0, fmt.Errorf("parse %q as kHz: %w", text, err)
			}
			return v * 1000, nil
		}
		lower = strings.TrimSuffix(lower, "hz")
	case UnitMilliseconds:
		if strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ms") {
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(lower, "s")), 64)
			if err != nil {
				return 0, fmt.Errorf("parse %q as seconds: %w", text, err)
			}
			return v * 1000, nil
		}
		lower = strings.TrimSuffix(lower, "ms")
	case UnitPercent:
		lower = strings.TrimSuffix(lower, "%")
	case UnitRatio:
		if idx := strings.Index(lower, ":"); idx >= 0 {
			lower = lower[:idx]
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(lower), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q for unit %v: %w", text, d.Unit, err)
	}
	return v, nil
}

// Validate reports whether the descriptor satisfies the contract every
// parameter must (R7): non-empty name, Min < Max, Min <= Default <= Max.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("parameter id %d: empty name", d.ID)
	}
	if !(d.Min < d.Max) {
		return fmt.Errorf("parameter %q: min %v must be < max %v", d.Name, d.Min, d.Max)
	}
	if d.Default < d.Min || d.Default > d.Max {
		return fmt.Errorf("parameter %q: default %v out of range [%v,%v]", d.Name, d.Default, d.Min, d.Max)
	}
	return nil
}
