package optimizer

// loopHeaders finds every block that belongs to a loop in the reachable
// subgraph rooted at opt.program.Root, using strongly-connected component
// detection rather than a raw "edge to a dominator" check, so a
// multi-block loop body is classified as one component even before its
// header is known. Grounded on the Kosaraju-Sharir two-pass partition in
// _examples/fkuehnel-golang-cfg/go-code/scc.go (postorder DFS, then a BFS
// over reversed edges seeded in reverse-postorder); adapted from *Block/Func
// to this package's Graph/NodeIndex and trimmed to the predicate range
// analysis needs — a set of header ids — rather than the teacher's full
// topologically-ordered partition, since nothing here needs the DAG order.
//
// Every block belonging to a multi-block component is a loop-header
// candidate (the component as a whole is the loop; a structured CFG may
// place the phis a back edge feeds anywhere in it), plus a single-block
// component with a self-edge (a one-block loop body). IntegerRangeAnalysis
// widens a phi's range only once it is re-derived inside such a component,
// matching spec §9's "promote to top after k updates" guidance to values
// that can actually be re-widened on each iteration.
func (opt *Optimizer) loopHeaders() map[NodeIndex]bool {
	po := postorder(opt.program.Graph, opt.program.Root)
	reachable := make(map[NodeIndex]bool, len(po))
	for _, b := range po {
		reachable[b] = true
	}

	headers := map[NodeIndex]bool{}
	seen := map[NodeIndex]bool{}
	for i := len(po) - 1; i >= 0; i-- {
		leader := po[i]
		if seen[leader] {
			continue
		}
		queue := []NodeIndex{leader}
		seen[leader] = true
		scc := make([]NodeIndex, 0, 4)
		for len(queue) > 0 {
			b := queue[0]
			queue = queue[1:]
			scc = append(scc, b)
			for _, pred := range opt.program.Graph.Predecessors(b) {
				if reachable[pred] && !seen[pred] {
					seen[pred] = true
					queue = append(queue, pred)
				}
			}
		}

		if len(scc) > 1 {
			for _, b := range scc {
				headers[b] = true
			}
			continue
		}
		for _, s := range opt.program.Graph.Successors(leader) {
			if s == leader {
				headers[leader] = true
				break
			}
		}
	}
	return headers
}
