package dsp

// ModulationSource is the common trait every modulation producer
// implements: a plain per-sample method call, never an iterator or a
// coroutine — the audio thread is a flat loop with nothing to await.
type ModulationSource interface {
	// Advance produces the next value and advances internal state.
	Advance() float32
	// IsBipolar reports whether Advance's native range is [-1,1]
	// (true) or [0,1] (false).
	IsBipolar() bool
	// Reset returns the source to its initial state.
	Reset()
	// Value returns the last produced value without advancing.
	Value() float32
}

// AdvanceUnipolar normalises source's native polarity to [0,1].
func AdvanceUnipolar(source ModulationSource) float32 {
	v := source.Advance()
	if source.IsBipolar() {
		return v*0.5 + 0.5
	}
	return v
}

// AdvanceBipolar normalises source's native polarity to [-1,1].
func AdvanceBipolar(source ModulationSource) float32 {
	v := source.Advance()
	if source.IsBipolar() {
		return v
	}
	return v*2 - 1
}

// MaxModulationRoutes bounds the fixed-capacity routing matrix a synth
// voice owns; effects only ever consume the resulting route shape.
const MaxModulationRoutes = 32

// ModulationRoute is one entry in a voice's modulation matrix: source id
// to destination id at a signed amount, with a flag for whether the
// route should be read as bipolar or rectified to unipolar first.
type ModulationRoute struct {
	SourceID      int
	DestinationID int
	Amount        float32 // [-1, 1]
	Bipolar       bool
}

// ModulationMatrix is the fixed-capacity table a synth voice owns; the
// core only defines its shape, since routing/evaluation belongs to the
// voice layer outside this engine's scope.
type ModulationMatrix struct {
	routes [MaxModulationRoutes]ModulationRoute
	count  int
}

// Add appends a route, clamping its amount to [-1,1]. Returns false if
// the matrix is already at MaxModulationRoutes capacity.
func (m *ModulationMatrix) Add(route ModulationRoute) bool {
	if m.count >= MaxModulationRoutes {
		return false
	}
	route.Amount = ClampF32(route.Amount, -1, 1)
	m.routes[m.count] = route
	m.count++
	return true
}

// Routes returns the currently populated routes.
func (m *ModulationMatrix) Routes() []ModulationRoute {
	return m.routes[:m.count]
}

// Clear empties the matrix.
func (m *ModulationMatrix) Clear() {
	m.count = 0
}
