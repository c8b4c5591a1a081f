// Package optimizer implements the cubecl IR optimizer: CFG construction
// from a scoped ir.Scope, dominator/dominance-frontier analysis,
// liveness-driven pruned-SSA transformation, a fixed-point pass driver, and
// integer range analysis, per spec.md components C1-C10.
package optimizer

// NodeIndex is a stable block identifier: it survives node removal (spec
// §9, "Stable ids must survive block deletion"). A Graph never compacts its
// backing arena within a single Optimizer lifetime.
type NodeIndex int

// NoNode is the sentinel "absent" node index, used for optional edges
// (e.g. a ControlFlow field that isn't relevant to its Kind).
const NoNode NodeIndex = -1

// Graph is a directed graph of *BasicBlock addressed by stable integer
// NodeIndex, with edges kept in side tables rather than inline pointers —
// the arena-plus-side-tables shape spec §9 calls for ("Store blocks in an
// arena/flat store ... edges are (src, dst) pairs in side tables").
type Graph struct {
	blocks []*BasicBlock // nil at index i means node i was removed
	succs  map[NodeIndex][]NodeIndex
	preds  map[NodeIndex][]NodeIndex
}

func newGraph() *Graph {
	return &Graph{succs: map[NodeIndex][]NodeIndex{}, preds: map[NodeIndex][]NodeIndex{}}
}

// AddNode inserts b into the graph and returns its stable id.
func (g *Graph) AddNode(b *BasicBlock) NodeIndex {
	id := NodeIndex(len(g.blocks))
	b.id = id
	g.blocks = append(g.blocks, b)
	return id
}

// Block returns the block at id, or nil if id was removed.
func (g *Graph) Block(id NodeIndex) *BasicBlock {
	if int(id) < 0 || int(id) >= len(g.blocks) {
		return nil
	}
	return g.blocks[id]
}

// AddEdge adds a control-flow edge from -> to.
func (g *Graph) AddEdge(from, to NodeIndex) {
	g.succs[from] = append(g.succs[from], to)
	g.preds[to] = append(g.preds[to], from)
}

// RemoveEdge removes one instance of the from -> to edge, if present.
func (g *Graph) RemoveEdge(from, to NodeIndex) {
	g.succs[from] = removeOne(g.succs[from], to)
	g.preds[to] = removeOne(g.preds[to], from)
}

func removeOne(s []NodeIndex, v NodeIndex) []NodeIndex {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// RemoveNode detaches id from the graph (dropping all incident edges) and
// clears its slot. The NodeIndex itself is never reused.
func (g *Graph) RemoveNode(id NodeIndex) {
	for _, s := range append([]NodeIndex(nil), g.succs[id]...) {
		g.RemoveEdge(id, s)
	}
	for _, p := range append([]NodeIndex(nil), g.preds[id]...) {
		g.RemoveEdge(p, id)
	}
	delete(g.succs, id)
	delete(g.preds, id)
	if int(id) < len(g.blocks) {
		g.blocks[id] = nil
	}
}

// Successors returns the (stable-order) successor ids of id.
func (g *Graph) Successors(id NodeIndex) []NodeIndex {
	return append([]NodeIndex(nil), g.succs[id]...)
}

// Predecessors returns the (stable-order) predecessor ids of id.
func (g *Graph) Predecessors(id NodeIndex) []NodeIndex {
	return append([]NodeIndex(nil), g.preds[id]...)
}

// NodeIDs returns the ids of all live (non-removed) nodes, in ascending
// order. Ascending order makes dominator/liveness fixed points iterate in a
// stable, reproducible sequence (spec §8 property 6: idempotent reruns).
func (g *Graph) NodeIDs() []NodeIndex {
	ids := make([]NodeIndex, 0, len(g.blocks))
	for i, b := range g.blocks {
		if b != nil {
			ids = append(ids, NodeIndex(i))
		}
	}
	return ids
}
