package optimizer

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/leizaf/cubecl/ir"
)

// livenessBuilder computes per-block live-in sets for non-atomic Local
// variables (spec §4.3, C6), using bitsets over a dense per-run variable
// index — the same GEN/KILL-then-iterate shape
// _examples/godoctor-godoctor/extras/cfg/df.go and
// _examples/godoctor-godoctor/analysis/dataflow/live.go use for identical
// Dragon-Book dataflow, with github.com/bits-and-blooms/bitset in place of
// godoctor's (now-unmaintained) github.com/willf/bitset.
type livenessBuilder struct {
	opt   *Optimizer
	index map[ir.LocalID]uint
	vars  []ir.LocalID
	def   map[NodeIndex]*bitset.BitSet
	use   map[NodeIndex]*bitset.BitSet
}

// analyzeLiveness recomputes every reachable block's LiveIn set.
func (opt *Optimizer) analyzeLiveness() {
	lb := &livenessBuilder{
		opt:   opt,
		index: map[ir.LocalID]uint{},
		def:   map[NodeIndex]*bitset.BitSet{},
		use:   map[NodeIndex]*bitset.BitSet{},
	}
	lb.buildDefUse()
	lb.run()
}

func (lb *livenessBuilder) indexOf(id ir.LocalID) uint {
	if i, ok := lb.index[id]; ok {
		return i
	}
	i := uint(len(lb.vars))
	lb.index[id] = i
	lb.vars = append(lb.vars, id)
	return i
}

// trackable reports whether v is a non-atomic Local, the only kind spec
// §4.3 tracks ("Only non-atomic Local variables are tracked").
func trackable(v ir.Variable) (ir.LocalID, bool) {
	if v.Kind != ir.Local {
		return ir.LocalID{}, false
	}
	return v.Key(), true
}

// controlFlowReads returns the variables a block's terminator reads, so
// they count as uses for liveness purposes even though they aren't part of
// the block's Ops list.
func controlFlowReads(cf ControlFlow) []ir.Variable {
	switch cf.Kind {
	case CFIfElse, CFBreak:
		return []ir.Variable{cf.Cond}
	case CFSwitch:
		return []ir.Variable{cf.Value}
	default:
		return nil
	}
}

// buildDefUse builds per-block DEF and USE bitsets: "use[B] = variables
// read in B before any write in B. def[B] = variables written in B" (spec
// §4.3).
func (lb *livenessBuilder) buildDefUse() {
	ids := lb.opt.NodeIDs()
	for _, id := range ids {
		lb.def[id] = bitset.New(0)
		lb.use[id] = bitset.New(0)
	}

	for _, id := range ids {
		b := lb.opt.Block(id)
		defined := map[ir.LocalID]bool{}

		for _, op := range b.Ops {
			for _, r := range op.Reads() {
				if lid, ok := trackable(r); ok && !defined[lid] {
					lb.use[id].Set(lb.indexOf(lid))
				}
			}
			if w, ok := op.Out(); ok {
				if lid, ok2 := trackable(w); ok2 {
					defined[lid] = true
					lb.def[id].Set(lb.indexOf(lid))
				}
			}
		}
		for _, r := range controlFlowReads(b.ControlFlow) {
			if lid, ok := trackable(r); ok && !defined[lid] {
				lb.use[id].Set(lb.indexOf(lid))
			}
		}
	}
}

// run solves the backward fixed point of spec §4.3:
//
//	live_out[B] = union live_in[S] over successors S
//	live_in[B]  = use[B] U (live_out[B] \ def[B])
func (lb *livenessBuilder) run() {
	ids := lb.opt.NodeIDs()
	liveIn := make(map[NodeIndex]*bitset.BitSet, len(ids))
	liveOut := make(map[NodeIndex]*bitset.BitSet, len(ids))
	for _, id := range ids {
		liveIn[id] = bitset.New(0)
		liveOut[id] = bitset.New(0)
	}

	for changed := true; changed; {
		changed = false
		for _, id := range ids {
			out := bitset.New(0)
			for _, s := range lb.opt.Successors(id) {
				out = out.Union(liveIn[s])
			}
			liveOut[id] = out

			old := liveIn[id]
			in := lb.use[id].Union(out.Difference(lb.def[id]))
			if !old.Equal(in) {
				changed = true
			}
			liveIn[id] = in
		}
	}

	for _, id := range ids {
		b := lb.opt.Block(id)
		b.LiveIn = make(map[ir.LocalID]bool)
		set := liveIn[id]
		for i, ok := uint(0), true; ok; i++ {
			var idx uint
			idx, ok = set.NextSet(i)
			if ok {
				b.LiveIn[lb.vars[idx]] = true
				i = idx
			}
		}
	}
}
