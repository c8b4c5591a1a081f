package optimizer

// EliminateDeadBlocks removes any block unreachable from root, dropping
// edges into it and the corresponding phi entries in surviving blocks
// (spec §4.6). Never touches root or ret (spec §8 invariant 8).
type EliminateDeadBlocks struct{}

func (EliminateDeadBlocks) Name() string { return "EliminateDeadBlocks" }

func (EliminateDeadBlocks) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	reachable := map[NodeIndex]bool{}
	var walk func(NodeIndex)
	walk = func(n NodeIndex) {
		if n == NoNode || reachable[n] {
			return
		}
		reachable[n] = true
		for _, s := range opt.program.Graph.Successors(n) {
			walk(s)
		}
	}
	walk(opt.program.Root)

	for _, id := range opt.NodeIDs() {
		if reachable[id] || id == opt.program.Root || id == opt.program.Ret {
			continue
		}
		for _, s := range opt.program.Graph.Successors(id) {
			removePhiEntry(opt, s, id)
		}
		opt.program.Graph.RemoveNode(id)
		counter.Inc()
	}
}
