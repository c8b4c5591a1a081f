package optimizer

import (
	"github.com/leizaf/cubecl/ir"
	"github.com/leizaf/cubecl/internal/ordered"
)

// exemptIndexAssignLocals marks every Local used as the mutated-array
// operand of an IndexAssign as exempt from SSA conversion (spec §4.4): an
// in-place element write can't be represented as a single new version of
// the whole array without losing the aliasing the rest of the array still
// needs, so these Locals are left untouched by ssaTransform.
func (opt *Optimizer) exemptIndexAssignLocals() {
	opt.exempt = map[ir.LocalID]bool{}
	for _, id := range opt.NodeIDs() {
		for _, op := range opt.Block(id).Ops {
			if op.Category != ir.CategoryOperator || op.Operator.Kind != ir.OpIndexAssign {
				continue
			}
			if op.Operator.Out.IsLocal() {
				opt.exempt[op.Operator.Out.Key()] = true
			}
		}
	}
}

// ssaTransform is C7: pruned phi placement driven by dominance frontiers and
// liveness, then dominator-tree-preorder renaming with per-variable version
// stacks (spec §4.4). Safe to call more than once (spec §4.5 re-invokes it
// after CopyPropagateArray): stale phis from a previous run are discarded
// first, and defs on already-Versioned variables are left alone since
// SSAEligible only matches Kind == Local.
func (opt *Optimizer) ssaTransform() {
	d := computeDominators(opt.program.Graph, opt.program.Root)
	opt.fillDomFrontiers(d)

	for _, id := range opt.NodeIDs() {
		opt.Block(id).Phis = nil
	}

	vars := opt.collectSSAVars()
	for _, v := range vars {
		opt.placePhis(v, d)
	}
	opt.renameVariables(d, vars)

	opt.program.Variables = map[ir.LocalID]ir.Item{}
}

// collectSSAVars finds every Local (non-atomic, non-exempt) written
// anywhere in the graph, recording its declared Item for later use by phi
// placement and renaming. Returned in ascending (Depth, ID) order so phi
// placement and renaming are deterministic regardless of map iteration.
func (opt *Optimizer) collectSSAVars() []ir.LocalID {
	item := map[ir.LocalID]ir.Item{}
	for _, id := range opt.NodeIDs() {
		for _, op := range opt.Block(id).Ops {
			out, ok := op.Out()
			if !ok || !out.SSAEligible() {
				continue
			}
			key := out.Key()
			if opt.exempt[key] {
				continue
			}
			item[key] = out.Item
		}
	}
	opt.ssaItem = item

	return ordered.Keys(item, func(a, b ir.LocalID) bool {
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.ID < b.ID
	})
}

// placePhis runs the standard Cytron-et-al worklist for one variable,
// pruned per spec §4.4 ("only where the variable is live-in"): a
// candidate join block is skipped unless it's already in that block's
// LiveIn set, so no dead phi is ever materialized.
func (opt *Optimizer) placePhis(v ir.LocalID, d *domTree) {
	var worklist []NodeIndex
	for _, id := range opt.NodeIDs() {
		if opt.Block(id).Writes[v] {
			worklist = append(worklist, id)
		}
	}

	hasPhi := map[NodeIndex]bool{}
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for df := range opt.Block(b).DomFrontiers {
			if hasPhi[df] || !opt.Block(df).LiveIn[v] {
				continue
			}
			hasPhi[df] = true

			out := ir.NewLocal(v.ID, v.Depth, opt.ssaItem[v])
			opt.Block(df).Phis = append(opt.Block(df).Phis, PhiInstruction{
				Out:     out,
				Entries: map[NodeIndex]Variable{},
				varID:   v,
			})
			worklist = append(worklist, df)
		}
	}
}

// renameState carries the per-variable version stacks used while walking
// the dominator tree in preorder (spec §4.4 "Renaming").
type renameState struct {
	opt         *Optimizer
	d           *domTree
	stacks      map[ir.LocalID][]Variable
	nextVersion map[ir.LocalID]uint16
}

func (opt *Optimizer) renameVariables(d *domTree, vars []ir.LocalID) {
	rs := &renameState{
		opt:         opt,
		d:           d,
		stacks:      make(map[ir.LocalID][]Variable, len(vars)),
		nextVersion: make(map[ir.LocalID]uint16, len(vars)),
	}
	for _, v := range vars {
		rs.stacks[v] = nil
	}
	if opt.program.Root != NoNode {
		rs.renameBlock(opt.program.Root)
	}
}

func (rs *renameState) push(v ir.LocalID, item ir.Item) Variable {
	ver := rs.nextVersion[v]
	rs.nextVersion[v] = ver + 1
	nv := ir.NewVersioned(v.ID, v.Depth, item, ver)
	rs.stacks[v] = append(rs.stacks[v], nv)
	return nv
}

func (rs *renameState) top(v ir.LocalID) (Variable, bool) {
	st := rs.stacks[v]
	if len(st) == 0 {
		return Variable{}, false
	}
	return st[len(st)-1], true
}

// renameRead rewrites a single read operand to its current version, if it's
// one of the variables this transform tracks; anything else (consts,
// globals, exempt locals, already-versioned values from a prior run) passes
// through untouched.
func (rs *renameState) renameRead(v ir.Variable) ir.Variable {
	if !v.SSAEligible() {
		return v
	}
	key := v.Key()
	if _, tracked := rs.stacks[key]; !tracked {
		return v
	}
	if top, ok := rs.top(key); ok {
		return top
	}
	return v
}

func (rs *renameState) renameOperationReads(op *ir.Operation) {
	switch op.Category {
	case ir.CategoryOperator:
		for i, a := range op.Operator.Args {
			op.Operator.Args[i] = rs.renameRead(a)
		}
	case ir.CategoryMetadata:
		for i, a := range op.Metadata.Args {
			op.Metadata.Args[i] = rs.renameRead(a)
		}
	case ir.CategorySynchronization:
		for i, a := range op.Sync.Args {
			op.Sync.Args[i] = rs.renameRead(a)
		}
	case ir.CategorySubcube:
		for i, a := range op.Subcube.Args {
			op.Subcube.Args[i] = rs.renameRead(a)
		}
	case ir.CategoryCoopMma:
		for i, a := range op.CoopMma.Args {
			op.CoopMma.Args[i] = rs.renameRead(a)
		}
	}
}

func (rs *renameState) setOut(op *ir.Operation, v ir.Variable) {
	switch op.Category {
	case ir.CategoryOperator:
		op.Operator.Out = v
	case ir.CategoryMetadata:
		op.Metadata.Out = &v
	case ir.CategorySynchronization:
		op.Sync.Out = &v
	case ir.CategorySubcube:
		op.Subcube.Out = &v
	case ir.CategoryCoopMma:
		op.CoopMma.Out = &v
	}
}

// renameBlock visits one dominator-tree node: renames its phis and ops,
// propagates current versions into successor phis, recurses into dominator
// children, then pops whatever it pushed so siblings see the versions their
// own dominators established (spec §4.4).
func (rs *renameState) renameBlock(id NodeIndex) {
	b := rs.opt.Block(id)
	var pushed []ir.LocalID

	for i := range b.Phis {
		v := b.Phis[i].varID
		nv := rs.push(v, rs.opt.ssaItem[v])
		b.Phis[i].Out = nv
		pushed = append(pushed, v)
	}

	for i := range b.Ops {
		op := &b.Ops[i]
		rs.renameOperationReads(op)
		if out, ok := op.Out(); ok && out.SSAEligible() {
			key := out.Key()
			if _, tracked := rs.stacks[key]; tracked {
				nv := rs.push(key, rs.opt.ssaItem[key])
				rs.setOut(op, nv)
				pushed = append(pushed, key)
			}
		}
	}

	switch b.ControlFlow.Kind {
	case CFIfElse, CFBreak:
		b.ControlFlow.Cond = rs.renameRead(b.ControlFlow.Cond)
	case CFSwitch:
		b.ControlFlow.Value = rs.renameRead(b.ControlFlow.Value)
	}

	for _, s := range rs.opt.program.Graph.Successors(id) {
		sb := rs.opt.Block(s)
		for i := range sb.Phis {
			v := sb.Phis[i].varID
			if top, ok := rs.top(v); ok {
				sb.Phis[i].Entries[id] = top
			}
		}
	}

	children := append([]NodeIndex(nil), rs.d.children[id]...)
	ordered.Sort(children)
	for _, c := range children {
		rs.renameBlock(c)
	}

	for _, v := range pushed {
		st := rs.stacks[v]
		rs.stacks[v] = st[:len(st)-1]
	}
}
