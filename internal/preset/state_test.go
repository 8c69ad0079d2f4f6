package preset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonido-audio/sonido/internal/bridge"
	"github.com/sonido-audio/sonido/internal/registry"
)

func TestSingleEffectStateRoundTrips(t *testing.T) {
	reg := registry.New()
	e, err := reg.New("distortion", 48000)
	require.NoError(t, err)
	e.SetParam(0, 20) // Drive
	e.SetParam(1, 75) // Mix

	data, err := SaveEffectState(e)
	require.NoError(t, err)

	fresh, err := reg.New("distortion", 48000)
	require.NoError(t, err)
	require.NoError(t, LoadEffectState(fresh, data))

	assert.InDelta(t, 20, fresh.GetParam(0), 1e-6)
	assert.InDelta(t, 75, fresh.GetParam(1), 1e-6)
}

func TestLoadEffectStateIgnoresUnknownID(t *testing.T) {
	reg := registry.New()
	e, err := reg.New("distortion", 48000)
	require.NoError(t, err)
	require.NoError(t, LoadEffectState(e, []byte(`{"9999": 1.0}`)))
}

func TestLoadEffectStateMalformedJSON(t *testing.T) {
	reg := registry.New()
	e, err := reg.New("distortion", 48000)
	require.NoError(t, err)
	err = LoadEffectState(e, []byte("not json"))
	require.Error(t, err)
}

func buildMultiBridge(t *testing.T, reg *registry.Registry, ids []string, sr float32) *bridge.MultiBridge {
	t.Helper()
	mb := bridge.NewMultiBridge()
	for _, id := range ids {
		descs, err := reg.Descriptors(id)
		require.NoError(t, err)
		e, err := reg.New(id, sr)
		require.NoError(t, err)
		mb.Enqueue(bridge.Command{Kind: bridge.CommandAdd, Slot: bridge.NewSlot(id, descs), Effect: e})
	}
	mb.ApplyCommands()
	return mb
}

func TestMultiEffectStateRoundTrips(t *testing.T) {
	reg := registry.New()
	mb := buildMultiBridge(t, reg, []string{"distortion", "reverb"}, 48000)
	mb.Set(0, 0, 18)
	mb.SetBypassed(1, true)

	data, err := SaveMultiEffectState(mb)
	require.NoError(t, err)

	fresh := bridge.NewMultiBridge()
	require.NoError(t, LoadMultiEffectState(reg, fresh, 48000, data))

	require.Equal(t, 2, fresh.Len())
	assert.Equal(t, "distortion", fresh.EffectID(0))
	assert.InDelta(t, 18, fresh.Get(0, 0), 1e-6)
	assert.Equal(t, "reverb", fresh.EffectID(1))
	assert.True(t, fresh.Bypassed(1))
}

func TestLoadMultiEffectStateClearsExistingChain(t *testing.T) {
	reg := registry.New()
	mb := buildMultiBridge(t, reg, []string{"chorus", "eq", "compressor"}, 48000)
	require.Equal(t, 3, mb.Len())

	data, err := SaveMultiEffectState(buildMultiBridge(t, reg, []string{"distortion"}, 48000))
	require.NoError(t, err)
	require.NoError(t, LoadMultiEffectState(reg, mb, 48000, data))

	assert.Equal(t, 1, mb.Len())
	assert.Equal(t, "distortion", mb.EffectID(0))
}

func TestLoadMultiEffectStateUnknownEffectID(t *testing.T) {
	reg := registry.New()
	mb := bridge.NewMultiBridge()
	err := LoadMultiEffectState(reg, mb, 48000, []byte(`{"version":1,"chain":[{"id":"nonexistent","bypassed":false,"params":{}}]}`))
	require.Error(t, err)
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}
