package preset

import (
	"encoding/json"
	"strconv"

	"github.com/sonido-audio/sonido/internal/bridge"
	"github.com/sonido-audio/sonido/internal/effect"
	"github.com/sonido-audio/sonido/internal/param"
	"github.com/sonido-audio/sonido/internal/registry"
)

// CurrentStateVersion is written into every multi-effect state blob
// this package produces.
const CurrentStateVersion = 1

// SaveEffectState serialises e's current parameter values keyed by
// stable ParamId, the single-effect plug-in state format: a flat JSON
// object mapping ParamId (as string) to plain float value.
func SaveEffectState(e effect.Effect) ([]byte, error) {
	m := make(map[string]float64, e.ParamCount())
	for i := 0; i < e.ParamCount(); i++ {
		id := e.ParamInfo(i).ID
		m[strconv.FormatUint(uint64(id), 10)] = e.GetParam(i)
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, formatErr("state: marshal: %v", err)
	}
	return out, nil
}

// LoadEffectState restores e's parameters from a blob produced by
// SaveEffectState. A ParamId absent from e's current descriptors is
// ignored: a saved state naming a parameter a newer effect version
// dropped must not fail the whole load.
func LoadEffectState(e effect.Effect, data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return formatErr("state: parse: %v", err)
	}
	for idStr, v := range m {
		raw, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			return formatErr("state: malformed param id %q", idStr)
		}
		id := param.ID(raw)
		for i := 0; i < e.ParamCount(); i++ {
			if e.ParamInfo(i).ID == id {
				e.SetParam(i, v)
				break
			}
		}
	}
	return nil
}

// MultiState is the multi-effect plug-in's state blob: a version tag
// plus the chain's slots in processing order.
type MultiState struct {
	Version int              `json:"version"`
	Chain   []MultiStateSlot `json:"chain"`
}

// MultiStateSlot is one chain entry within a MultiState: an effect id,
// its bypass flag, and parameter overrides keyed by parameter index
// (as a string, to satisfy JSON's object-key-is-string rule).
type MultiStateSlot struct {
	ID       string             `json:"id"`
	Bypassed bool               `json:"bypassed"`
	Params   map[string]float64 `json:"params"`
}

// SaveMultiEffectState serialises mb's full chain, in processing order.
func SaveMultiEffectState(mb *bridge.MultiBridge) ([]byte, error) {
	chain := make([]MultiStateSlot, mb.Len())
	for slot := 0; slot < mb.Len(); slot++ {
		n := mb.ParamCount(slot)
		params := make(map[string]float64, n)
		for p := 0; p < n; p++ {
			params[strconv.Itoa(p)] = mb.Get(slot, p)
		}
		chain[slot] = MultiStateSlot{ID: mb.EffectID(slot), Bypassed: mb.Bypassed(slot), Params: params}
	}
	out, err := json.Marshal(MultiState{Version: CurrentStateVersion, Chain: chain})
	if err != nil {
		return nil, formatErr("state: marshal: %v", err)
	}
	return out, nil
}

// LoadMultiEffectState restores mb from a blob produced by
// SaveMultiEffectState: it clears the current chain, issues an Add
// command per saved slot to rebuild it, applies those commands
// immediately (this runs on the host main thread before audio
// processing begins, never on the audio thread), then restores each
// slot's parameter values and bypass flag.
func LoadMultiEffectState(reg *registry.Registry, mb *bridge.MultiBridge, sampleRate float32, data []byte) error {
	var state MultiState
	if err := json.Unmarshal(data, &state); err != nil {
		return formatErr("state: parse: %v", err)
	}

	mb.Clear()
	for i, row := range state.Chain {
		descs, err := reg.Descriptors(row.ID)
		if err != nil {
			return formatErr("state: chain slot %d: %v", i, err)
		}
		e, err := reg.New(row.ID, sampleRate)
		if err != nil {
			return formatErr("state: chain slot %d: %v", i, err)
		}
		mb.Enqueue(bridge.Command{Kind: bridge.CommandAdd, Slot: bridge.NewSlot(row.ID, descs), Effect: e})
	}
	mb.ApplyCommands()

	for i, row := range state.Chain {
		for idxStr, v := range row.Params {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return formatErr("state: chain slot %d: malformed parameter index %q", i, idxStr)
			}
			if idx < 0 || idx >= mb.ParamCount(i) {
				return formatErr("state: chain slot %d: parameter index %d out of range", i, idx)
			}
			mb.Set(i, idx, v)
		}
		mb.SetBypassed(i, row.Bypassed)
	}
	return nil
}
