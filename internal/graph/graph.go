// Package graph implements the directed processing graph: incremental
// construction of input/output/effect/split/merge nodes, a compile step
// that validates topology, produces a deterministic topological
// schedule, allocates a minimal buffer-slot pool via liveness analysis,
// and inserts per-edge latency-compensation delays at merge points, and
// a Process step that walks the compiled schedule without allocating.
package graph

import (
	"sort"

	"github.com/sonido-audio/sonido/internal/dsp"
	"github.com/sonido-audio/sonido/internal/effect"
)

// NodeKind names what a node does within the graph.
type NodeKind int

const (
	NodeInput NodeKind = iota
	NodeOutput
	NodeEffect
	NodeSplit
	NodeMerge
)

// NodeID is an opaque handle returned by the Add* methods. It stays
// stable for the life of the graph and is never reused.
type NodeID int

type node struct {
	id     NodeID
	kind   NodeKind
	effect effect.Effect
}

type edge struct {
	id       int
	from, to NodeID
}

// stereoBuffer is one pooled slot: equal-length left/right vectors
// sized to the graph's declared block size.
type stereoBuffer struct {
	L, R []float32
}

// schedule is the compiled form produced by Compile: a topological
// order, the buffer-slot map, and per-edge compensation delays. Owned
// exclusively by the audio thread once built.
type schedule struct {
	order    []NodeID
	inEdges  map[NodeID][]*edge
	outEdges map[NodeID][]*edge

	slot     map[int]int // edge id -> pool slot index
	poolSize int
	pool     []stereoBuffer

	compensation map[int]int // edge id -> compensation delay in samples
	compDelayL   map[int]*dsp.Delay
	compDelayR   map[int]*dsp.Delay

	inputNode  NodeID
	outputNode NodeID
}

// Graph is a directed processing graph of effect nodes composed with
// split (fan-out) and merge (fan-in) nodes. Compile must be called
// before ProcessBlock and re-called after any structural change;
// without a current compiled schedule ProcessBlock returns a
// RecompileRequired TopologyError, and otherwise it only runs a
// schedule that already passed validation.
type Graph struct {
	sampleRate float32
	blockSize  int

	nodes  map[NodeID]*node
	order  []NodeID // insertion order
	edges  []*edge
	nextID NodeID

	compiled        *schedule
	compiledLatency int
}

// New creates an empty graph for the given sample rate and block size.
// Every ProcessBlock call must pass buffers of exactly blockSize length.
func New(sampleRate float32, blockSize int) *Graph {
	return &Graph{sampleRate: sampleRate, blockSize: blockSize, nodes: make(map[NodeID]*node)}
}

func (g *Graph) addNode(kind NodeKind, e effect.Effect) NodeID {
	id := g.nextID
	g.nextID++
	g.nodes[id] = &node{id: id, kind: kind, effect: e}
	g.order = append(g.order, id)
	g.compiled = nil
	return id
}

// AddInput adds the graph's single input node and returns its id.
func (g *Graph) AddInput() NodeID { return g.addNode(NodeInput, nil) }

// AddOutput adds the graph's single output node and returns its id.
func (g *Graph) AddOutput() NodeID { return g.addNode(NodeOutput, nil) }

// AddSplit adds a fan-out node (one input, many outputs, pure
// passthrough with reference semantics) and returns its id.
func (g *Graph) AddSplit() NodeID { return g.addNode(NodeSplit, nil) }

// AddMerge adds a fan-in node (many inputs summed into one output) and
// returns its id.
func (g *Graph) AddMerge() NodeID { return g.addNode(NodeMerge, nil) }

// AddEffect wraps e in a node and returns its id. e's sample rate is not
// touched here; callers are expected to have already called
// e.SetSampleRate(graph's rate).
func (g *Graph) AddEffect(e effect.Effect) NodeID { return g.addNode(NodeEffect, e) }

// Connect installs a directed edge from src to dst. Requires a
// subsequent Compile before Process runs against the new topology.
func (g *Graph) Connect(src, dst NodeID) error {
	if _, ok := g.nodes[src]; !ok {
		return topoErr(UnknownNodeID, "graph: unknown source node %d", src)
	}
	if _, ok := g.nodes[dst]; !ok {
		return topoErr(UnknownNodeID, "graph: unknown destination node %d", dst)
	}
	g.edges = append(g.edges, &edge{id: len(g.edges), from: src, to: dst})
	g.compiled = nil
	return nil
}

// Linear builds a straight chain input -> effects[0] -> ... ->
// effects[n-1] -> output and compiles it.
func Linear(effects []effect.Effect, sampleRate float32, blockSize int) (*Graph, error) {
	g := New(sampleRate, blockSize)
	in := g.AddInput()
	prev := in
	for _, e := range effects {
		id := g.AddEffect(e)
		if err := g.Connect(prev, id); err != nil {
			return nil, err
		}
		prev = id
	}
	out := g.AddOutput()
	if err := g.Connect(prev, out); err != nil {
		return nil, err
	}
	if err := g.Compile(); err != nil {
		return nil, err
	}
	return g, nil
}

// Compile validates the topology, computes a deterministic topological
// schedule, accumulates per-node latency with merge-point compensation,
// and allocates the minimal buffer-slot pool via liveness analysis. It
// must be called before Process and after every structural change.
func (g *Graph) Compile() error {
	inEdges := make(map[NodeID][]*edge, len(g.nodes))
	outEdges := make(map[NodeID][]*edge, len(g.nodes))
	for _, e := range g.edges {
		inEdges[e.to] = append(inEdges[e.to], e)
		outEdges[e.from] = append(outEdges[e.from], e)
	}

	var inputNode, outputNode NodeID
	inputCount, outputCount := 0, 0
	for id, n := range g.nodes {
		indeg, outdeg := len(inEdges[id]), len(outEdges[id])
		switch n.kind {
		case NodeInput:
			inputCount++
			inputNode = id
			if indeg != 0 {
				return topoErr(Cardinality, "graph: input node %d must have in-degree 0, has %d", id, indeg)
			}
		case NodeOutput:
			outputCount++
			outputNode = id
			if indeg != 1 {
				return topoErr(Cardinality, "graph: output node %d must have in-degree 1, has %d", id, indeg)
			}
			if outdeg != 0 {
				return topoErr(Cardinality, "graph: output node %d must have out-degree 0, has %d", id, outdeg)
			}
		case NodeEffect:
			if indeg != 1 {
				return topoErr(Cardinality, "graph: effect node %d must have in-degree 1, has %d", id, indeg)
			}
			if outdeg != 1 {
				return topoErr(Cardinality, "graph: effect node %d must have out-degree 1, has %d", id, outdeg)
			}
		case NodeSplit:
			if indeg != 1 {
				return topoErr(Cardinality, "graph: split node %d must have in-degree 1, has %d", id, indeg)
			}
			if outdeg < 1 {
				return topoErr(Cardinality, "graph: split node %d must have out-degree >= 1, has %d", id, outdeg)
			}
		case NodeMerge:
			if indeg < 1 {
				return topoErr(Cardinality, "graph: merge node %d must have in-degree >= 1, has %d", id, indeg)
			}
			if outdeg != 1 {
				return topoErr(Cardinality, "graph: merge node %d must have out-degree 1, has %d", id, outdeg)
			}
		}
	}
	if inputCount != 1 {
		return topoErr(Cardinality, "graph: exactly one input node required, found %d", inputCount)
	}
	if outputCount != 1 {
		return topoErr(Orphan, "graph: exactly one reachable output node required, found %d", outputCount)
	}

	order, err := g.topologicalSort(inEdges)
	if err != nil {
		return err
	}
	if !reachable(inputNode, outputNode, outEdges) {
		return topoErr(Orphan, "graph: output node %d is not reachable from input node %d", outputNode, inputNode)
	}

	step := make(map[NodeID]int, len(order))
	for i, id := range order {
		step[id] = i
	}

	latency := make(map[NodeID]int, len(order))
	compensation := make(map[int]int)
	for _, id := range order {
		n := g.nodes[id]
		switch n.kind {
		case NodeInput:
			latency[id] = 0
		case NodeEffect:
			in := inEdges[id][0]
			latency[id] = latency[in.from] + n.effect.LatencySamples()
		case NodeSplit:
			in := inEdges[id][0]
			latency[id] = latency[in.from]
		case NodeMerge:
			maxIn := 0
			for _, e := range inEdges[id] {
				if latency[e.from] > maxIn {
					maxIn = latency[e.from]
				}
			}
			for _, e := range inEdges[id] {
				compensation[e.id] = maxIn - latency[e.from]
			}
			latency[id] = maxIn
		case NodeOutput:
			in := inEdges[id][0]
			latency[id] = latency[in.from]
		}
	}

	slot, poolSize := allocateSlots(g.edges, step)

	pool := make([]stereoBuffer, poolSize)
	for i := range pool {
		pool[i] = stereoBuffer{L: make([]float32, g.blockSize), R: make([]float32, g.blockSize)}
	}

	compDelayL := make(map[int]*dsp.Delay)
	compDelayR := make(map[int]*dsp.Delay)
	for edgeID, comp := range compensation {
		if comp <= 0 {
			continue
		}
		compDelayL[edgeID] = dsp.NewDelay(comp + 1)
		compDelayR[edgeID] = dsp.NewDelay(comp + 1)
	}

	g.compiled = &schedule{
		order:        order,
		inEdges:      inEdges,
		outEdges:     outEdges,
		slot:         slot,
		poolSize:     poolSize,
		pool:         pool,
		compensation: compensation,
		compDelayL:   compDelayL,
		compDelayR:   compDelayR,
		inputNode:    inputNode,
		outputNode:   outputNode,
	}
	g.compiledLatency = latency[outputNode]
	return nil
}

// topologicalSort runs Kahn's algorithm, breaking ties by ascending
// node id so recompiles of the same topology always produce the same
// schedule.
func (g *Graph) topologicalSort(inEdges map[NodeID][]*edge) ([]NodeID, error) {
	indeg := make(map[NodeID]int, len(g.nodes))
	for id := range g.nodes {
		indeg[id] = len(inEdges[id])
	}

	var available []NodeID
	for id, d := range indeg {
		if d == 0 {
			available = append(available, id)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i] < available[j] })

	outEdges := make(map[NodeID][]*edge)
	for _, e := range g.edges {
		outEdges[e.from] = append(outEdges[e.from], e)
	}
	for _, edges := range outEdges {
		sort.Slice(edges, func(i, j int) bool { return edges[i].to < edges[j].to })
	}

	order := make([]NodeID, 0, len(g.nodes))
	for len(available) > 0 {
		id := available[0]
		available = available[1:]
		order = append(order, id)
		var freed []NodeID
		for _, e := range outEdges[id] {
			indeg[e.to]--
			if indeg[e.to] == 0 {
				freed = append(freed, e.to)
			}
		}
		sort.Slice(freed, func(i, j int) bool { return freed[i] < freed[j] })
		available = mergeSorted(available, freed)
	}

	if len(order) != len(g.nodes) {
		return nil, topoErr(CycleDetected, "graph: cycle detected among %d unresolved nodes", len(g.nodes)-len(order))
	}
	return order, nil
}

// mergeSorted merges two already-sorted NodeID slices.
func mergeSorted(a, b []NodeID) []NodeID {
	if len(b) == 0 {
		return a
	}
	out := make([]NodeID, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func reachable(from, to NodeID, outEdges map[NodeID][]*edge) bool {
	visited := map[NodeID]bool{from: true}
	stack := []NodeID{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		for _, e := range outEdges[n] {
			if !visited[e.to] {
				visited[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	return false
}

// allocateSlots is the register-allocation-style liveness pass: each
// edge is a value whose live range is [step(from), step(to)]; values
// with overlapping ranges get distinct slots, values whose range has
// ended free their slot for reuse. Sorting by start with a strict "<"
// release rule reproduces the ping-pong behaviour of a linear chain (2
// slots) and the 3-4 slot pools of a diamond, per the core's liveness
// design.
func allocateSlots(edges []*edge, step map[NodeID]int) (map[int]int, int) {
	type value struct {
		edge       *edge
		start, end int
	}
	values := make([]value, len(edges))
	for i, e := range edges {
		values[i] = value{edge: e, start: step[e.from], end: step[e.to]}
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].start != values[j].start {
			return values[i].start < values[j].start
		}
		return values[i].edge.id < values[j].edge.id
	})

	type active struct {
		end  int
		slot int
	}
	var activeList []active
	var freeSlots []int
	nextSlot := 0
	slot := make(map[int]int, len(edges))

	for _, v := range values {
		kept := activeList[:0]
		for _, a := range activeList {
			if a.end < v.start {
				freeSlots = append(freeSlots, a.slot)
			} else {
				kept = append(kept, a)
			}
		}
		activeList = kept

		var s int
		if n := len(freeSlots); n > 0 {
			sort.Ints(freeSlots)
			s = freeSlots[0]
			freeSlots = freeSlots[1:]
		} else {
			s = nextSlot
			nextSlot++
		}
		slot[v.edge.id] = s
		activeList = append(activeList, active{end: v.end, slot: s})
	}
	return slot, nextSlot
}

// ProcessBlock runs one block through the compiled schedule. inL/inR
// and outL/outR must each have length equal to the graph's declared
// block size. The pool is allocated once by Compile; this call performs
// no allocation.
func (g *Graph) ProcessBlock(inL, inR, outL, outR []float32) error {
	s := g.compiled
	if s == nil {
		return topoErr(RecompileRequired, "graph: Compile must be called before ProcessBlock")
	}

	for i := range s.pool {
		zero(s.pool[i].L)
		zero(s.pool[i].R)
	}

	for _, e := range s.outEdges[s.inputNode] {
		slot := s.slot[e.id]
		copy(s.pool[slot].L, inL)
		copy(s.pool[slot].R, inR)
	}

	for _, id := range s.order {
		n := g.nodes[id]
		switch n.kind {
		case NodeInput:
			// handled above
		case NodeEffect:
			inE := s.inEdges[id][0]
			outE := s.outEdges[id][0]
			inSlot, outSlot := s.slot[inE.id], s.slot[outE.id]
			if inSlot == outSlot {
				n.effect.ProcessBlockStereoInPlace(s.pool[inSlot].L, s.pool[inSlot].R)
			} else {
				n.effect.ProcessBlockStereo(s.pool[inSlot].L, s.pool[inSlot].R, s.pool[outSlot].L, s.pool[outSlot].R)
			}
		case NodeSplit:
			inE := s.inEdges[id][0]
			inSlot := s.slot[inE.id]
			for _, outE := range s.outEdges[id] {
				outSlot := s.slot[outE.id]
				if outSlot == inSlot {
					continue
				}
				copy(s.pool[outSlot].L, s.pool[inSlot].L)
				copy(s.pool[outSlot].R, s.pool[inSlot].R)
			}
		case NodeMerge:
			outE := s.outEdges[id][0]
			outSlot := s.slot[outE.id]
			shared := false
			for _, inE := range s.inEdges[id] {
				shared = shared || s.slot[inE.id] == outSlot
			}
			if !shared {
				// The slot may still hold an earlier edge's block; sum from zero.
				zero(s.pool[outSlot].L)
				zero(s.pool[outSlot].R)
			}
			for _, inE := range s.inEdges[id] {
				inSlot := s.slot[inE.id]
				if comp := s.compensation[inE.id]; comp > 0 {
					applyCompDelay(s.compDelayL[inE.id], s.compDelayR[inE.id], s.pool[inSlot], comp)
				}
				if inSlot == outSlot {
					continue
				}
				addInto(s.pool[outSlot].L, s.pool[inSlot].L)
				addInto(s.pool[outSlot].R, s.pool[inSlot].R)
			}
		case NodeOutput:
			inE := s.inEdges[id][0]
			inSlot := s.slot[inE.id]
			copy(outL, s.pool[inSlot].L)
			copy(outR, s.pool[inSlot].R)
		}
	}
	return nil
}

func applyCompDelay(dl, dr *dsp.Delay, buf stereoBuffer, comp int) {
	c := float32(comp)
	for i := range buf.L {
		buf.L[i] = dl.ReadWrite(buf.L[i], c)
		buf.R[i] = dr.ReadWrite(buf.R[i], c)
	}
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

func addInto(dst, src []float32) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Reset clears every effect node's DSP state and every compensation
// delay line without touching parameters or topology.
func (g *Graph) Reset() {
	for _, id := range g.order {
		if n := g.nodes[id]; n.kind == NodeEffect {
			n.effect.Reset()
		}
	}
	s := g.compiled
	if s == nil {
		return
	}
	for _, dl := range s.compDelayL {
		dl.Clear()
	}
	for _, dr := range s.compDelayR {
		dr.Clear()
	}
	for i := range s.pool {
		zero(s.pool[i].L)
		zero(s.pool[i].R)
	}
}

// PoolSize reports the number of buffer slots the last Compile
// allocated; used by tests asserting the liveness analysis converges to
// the expected minimal pool for a given topology.
func (g *Graph) PoolSize() int {
	if g.compiled == nil {
		return 0
	}
	return g.compiled.poolSize
}

// LatencySamples reports the compiled graph's end-to-end latency: the
// output node's accumulated path latency.
func (g *Graph) LatencySamples() int {
	if g.compiled == nil {
		return 0
	}
	return g.compiledLatency
}
