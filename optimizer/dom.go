package optimizer

// domTree holds the immediate-dominator relation for one Program.Graph
// snapshot. Recomputed fresh whenever the SSA transform runs, since dead-
// block elimination and other passes can change the graph between runs
// (spec §4.5 step 7 re-runs the SSA transform after CopyPropagateArray).
//
// Grounded on _examples/fkuehnel-golang-cfg/go-code/dom.go's postorder and
// intersect helpers, the same Cooper-Harvey-Kennedy building blocks
// cmd/compile/internal/ssa uses; that file's own fixed-point dominators()
// driver was not present in the retrieved slice, so computeDominators below
// supplies it in the same idiom (postorder numbering + iterative meet).
type domTree struct {
	idom     map[NodeIndex]NodeIndex
	postnum  map[NodeIndex]int
	order    []NodeIndex // postorder from root (root is always last); see postorder below
	children map[NodeIndex][]NodeIndex
}

// postorder computes a depth-first postorder traversal from root,
// following _examples/fkuehnel-golang-cfg/go-code/dom.go's postorderWithNumbering:
// unreachable blocks do not appear.
func postorder(g *Graph, root NodeIndex) []NodeIndex {
	seen := map[NodeIndex]bool{}
	order := make([]NodeIndex, 0, len(g.blocks))

	type frame struct {
		b     NodeIndex
		index int
	}
	stack := []frame{{b: root}}
	seen[root] = true
	for len(stack) > 0 {
		top := len(stack) - 1
		fr := &stack[top]
		succs := g.Successors(fr.b)
		if fr.index < len(succs) {
			next := succs[fr.index]
			fr.index++
			if !seen[next] {
				seen[next] = true
				stack = append(stack, frame{b: next})
			}
			continue
		}
		stack = stack[:top]
		order = append(order, fr.b)
	}
	return order
}

// intersect finds the closest common dominator of b and c, per
// _examples/fkuehnel-golang-cfg/go-code/dom.go's intersect: walk the two
// candidates up the (partially built) dominator tree, using postorder
// numbers to decide which side to advance, until they meet.
func intersect(b, c NodeIndex, postnum map[NodeIndex]int, idom map[NodeIndex]NodeIndex) NodeIndex {
	for b != c {
		for postnum[b] < postnum[c] {
			b = idom[b]
		}
		for postnum[c] < postnum[b] {
			c = idom[c]
		}
	}
	return b
}

// computeDominators runs the standard CHK fixed point: process blocks in
// reverse postorder, repeatedly intersecting the idom of already-processed
// predecessors, until no idom changes.
func computeDominators(g *Graph, root NodeIndex) *domTree {
	po := postorder(g, root)
	postnum := make(map[NodeIndex]int, len(po))
	for i, b := range po {
		postnum[b] = i
	}

	idom := map[NodeIndex]NodeIndex{root: root}

	// Reverse postorder (root first) for the fixed-point sweep.
	rpo := make([]NodeIndex, len(po))
	for i, b := range po {
		rpo[len(po)-1-i] = b
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == root {
				continue
			}
			var newIdom NodeIndex = NoNode
			for _, p := range g.Predecessors(b) {
				if _, ok := postnum[p]; !ok {
					continue // predecessor not reachable from root
				}
				if _, done := idom[p]; !done {
					continue
				}
				if newIdom == NoNode {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, postnum, idom)
			}
			if cur, ok := idom[b]; newIdom != NoNode && (!ok || cur != newIdom) {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	children := map[NodeIndex][]NodeIndex{}
	for b, d := range idom {
		if b == root {
			continue
		}
		children[d] = append(children[d], b)
	}

	return &domTree{idom: idom, postnum: postnum, order: po, children: children}
}

// strictlyDominates reports whether a strictly dominates b (a != b and a
// appears on every path from root to b).
func (d *domTree) strictlyDominates(a, b NodeIndex) bool {
	if a == b {
		return false
	}
	cur, ok := d.idom[b]
	for ok {
		if cur == a {
			return true
		}
		if cur == d.idom[cur] {
			break
		}
		next, ok2 := d.idom[cur]
		if !ok2 {
			break
		}
		cur = next
	}
	return false
}

// fillDomFrontiers computes each reachable block's dominance frontier
// (spec §4.2): for every block B with >=2 predecessors, walk each
// predecessor P up the dominator tree until idom(B) is reached, adding B to
// every block visited along the way.
func (opt *Optimizer) fillDomFrontiers(d *domTree) {
	for _, id := range opt.NodeIDs() {
		opt.Block(id).DomFrontiers = map[NodeIndex]bool{}
	}
	for _, b := range d.order {
		preds := opt.program.Graph.Predecessors(b)
		if len(preds) < 2 {
			continue
		}
		idomB, ok := d.idom[b]
		if !ok {
			continue
		}
		for _, p := range preds {
			if _, reachable := d.idom[p]; !reachable {
				continue
			}
			runner := p
			for runner != idomB {
				opt.Block(runner).DomFrontiers[b] = true
				next, ok := d.idom[runner]
				if !ok || next == runner {
					break
				}
				runner = next
			}
		}
	}
}
