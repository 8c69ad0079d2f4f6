package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalizeDenormalizeRoundTripLinear(t *testing.T) {
	d := Descriptor{Name: "Gain", ID: 1, Unit: UnitDecibels, Scale: ScaleLinear, Min: -24, Max: 24, Default: 0}
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Float64Range(-24, 24).Draw(t, "x")
		n := d.Normalize(x)
		back := d.Denormalize(n)
		assert.InDelta(t, x, back, 1e-4)
	})
}

func TestNormalizeDenormalizeRoundTripLog(t *testing.T) {
	d := Descriptor{Name: "Freq", ID: 1, Unit: UnitHertz, Scale: ScaleLogarithmic, Min: 20, Max: 20000, Default: 1000}
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Float64Range(20, 20000).Draw(t, "x")
		n := d.Normalize(x)
		back := d.Denormalize(n)
		assert.InDelta(t, x, back, x*0.01+1e-3)
	})
}

func TestNormalizeIsMonotonic(t *testing.T) {
	d := Descriptor{Name: "Freq", ID: 1, Unit: UnitHertz, Scale: ScaleLogarithmic, Min: 20, Max: 20000, Default: 1000}
	prev := -1.0
	for x := 20.0; x < 20000; x += 137 {
		n := d.Normalize(x)
		assert.Greater(t, n, prev)
		prev = n
	}
}

func TestFormatDecibels(t *testing.T) {
	d := Descriptor{Name: "Gain", Unit: UnitDecibels, Min: -24, Max: 24}
	assert.Equal(t, "-3.5 dB", d.Format(-3.5))
}

func TestFormatHertz(t *testing.T) {
	d := Descriptor{Name: "Freq", Unit: UnitHertz, Min: 20, Max: 20000}
	assert.Equal(t, "440 Hz", d.Format(440))
	assert.Equal(t, "1.2 kHz", d.Format(1200))
}

func TestFormatMilliseconds(t *testing.T) {
	d := Descriptor{Name: "Time", Unit: UnitMilliseconds, Min: 0, Max: 2000}
	assert.Equal(t, "100.0 ms", d.Format(100))
	assert.Equal(t, "1.50 s", d.Format(1500))
}

func TestFormatPercent(t *testing.T) {
	d := Descriptor{Name: "Mix", Unit: UnitPercent, Min: 0, Max: 100}
	assert.Equal(t, "50%", d.Format(50))
}

func TestFormatRatio(t *testing.T) {
	d := Descriptor{Name: "Ratio", Unit: UnitRatio, Min: 1, Max: 20}
	assert.Equal(t, "4.0:1", d.Format(4))
}

func TestParseAcceptsFormattedOutput(t *testing.T) {
	cases := []struct {
		d    Descriptor
		text string
		want float64
	}{
		{Descriptor{Unit: UnitDecibels}, "-6 dB", -6},
		{Descriptor{Unit: UnitHertz}, "1.2 kHz", 1200},
		{Descriptor{Unit: UnitHertz}, "440 Hz", 440},
		{Descriptor{Unit: UnitMilliseconds}, "100 ms", 100},
		{Descriptor{Unit: UnitMilliseconds}, "1.5 s", 1500},
		{Descriptor{Unit: UnitPercent}, "50%", 50},
		{Descriptor{Unit: UnitRatio}, "4.0:1", 4},
	}
	for _, c := range cases {
		got, err := c.d.Parse(c.text)
		assert.NoError(t, err)
		assert.InDelta(t, c.want, got, 1e-6)
	}
}

func TestParsePlainFloat(t *testing.T) {
	d := Descriptor{Unit: UnitNone}
	v, err := d.Parse("0.75")
	assert.NoError(t, err)
	assert.InDelta(t, 0.75, v, 1e-9)
}

func TestValidateRejectsBadDescriptor(t *testing.T) {
	d := Descriptor{Name: "", Min: 0, Max: 1, Default: 0.5}
	assert.Error(t, d.Validate())

	d2 := Descriptor{Name: "X", Min: 1, Max: 1, Default: 1}
	assert.Error(t, d2.Validate())

	d3 := Descriptor{Name: "X", Min: 0, Max: 1, Default: 2}
	assert.Error(t, d3.Validate())

	d4 := Descriptor{Name: "X", Min: 0, Max: 1, Default: 0.5}
	assert.NoError(t, d4.Validate())
}

func TestFlags(t *testing.T) {
	d := Descriptor{Flags: FlagAutomatable | FlagModulatable}
	assert.True(t, d.HasFlag(FlagAutomatable))
	assert.True(t, d.HasFlag(FlagModulatable))
	assert.False(t, d.HasFlag(FlagHidden))
}
