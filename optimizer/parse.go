package optimizer

import "github.com/leizaf/cubecl/ir"

// parseGraph is the entry point of C4: it creates the root and ret blocks,
// recursively lowers scope into the graph, and links whatever block parsing
// finished on to ret (spec §4.1: "exactly one root node and one ret node").
func (opt *Optimizer) parseGraph(scope *ir.Scope) {
	entry := opt.program.Graph.AddNode(newBlock())
	opt.program.Root = entry
	opt.currentBlock = entry

	ret := opt.program.Graph.AddNode(newBlock())
	opt.program.Ret = ret
	opt.program.Block(ret).ControlFlow = ControlFlow{Kind: CFReturn}

	opt.parseScope(scope)

	if opt.currentBlock != NoNode {
		opt.setFallthrough(opt.currentBlock, ret)
	}
}

// setFallthrough terminates block `from` with an unconditional edge to
// `to` (spec §4.1: "blocks with no explicit terminator get None and an
// edge to the syntactic successor").
func (opt *Optimizer) setFallthrough(from, to NodeIndex) {
	opt.program.Block(from).ControlFlow = ControlFlow{Kind: CFNone, Next: to}
	opt.program.Graph.AddEdge(from, to)
}

// connectToMerge links the current block (if parsing didn't already
// terminate it, e.g. via a nested Return) to merge.
func (opt *Optimizer) connectToMerge(merge NodeIndex) {
	if opt.currentBlock == NoNode {
		return
	}
	opt.setFallthrough(opt.currentBlock, merge)
}

// appendOp pushes op onto the current block, updating its write-set for
// any Local it writes (spec §4.1: "write operands update the current
// block's writes set").
func (opt *Optimizer) appendOp(op ir.Operation) {
	b := opt.currentBlockMut()
	if out, ok := op.Out(); ok && out.IsLocal() {
		b.Writes[out.Key()] = true
	}
	b.Ops = append(b.Ops, op)
}

// parseScope recursively lowers one scope's declared variables and
// operations into the graph (spec §4.1 "Contract").
func (opt *Optimizer) parseScope(scope *ir.Scope) {
	processed := scope.Process()

	for _, v := range processed.Variables {
		opt.program.Variables[v.Key()] = v.Item
	}

	for _, op := range processed.Operations {
		if opt.currentBlock == NoNode {
			// Control flow already left the block (e.g. after a Return or
			// Break); remaining operations in this scope are unreachable.
			break
		}
		switch op.Category {
		case ir.CategoryBranch:
			opt.parseControlFlow(op.Branch)
		case ir.CategoryProcedure:
			opt.compileProcedure(op.Procedure, scope)
		case ir.CategoryOperator:
			if op.Operator.Kind == ir.OpSlice {
				opt.parseSliceOp(op.Operator)
			} else {
				opt.appendOp(op)
			}
		default:
			opt.appendOp(op)
		}
	}
}

// compileProcedure expands proc into plain operations on scope and parses
// the (now-extended) scope again; Scope.Process's draining semantics mean
// only the newly appended material is visited (spec §4.1 "Procedure").
func (opt *Optimizer) compileProcedure(proc ir.Procedure, scope *ir.Scope) {
	proc.Expand(scope)
	opt.parseScope(scope)
}

// parseSliceOp records a Slice operator's descriptor in Program.Slices
// before appending it as a normal operation (spec §4.1 "Slice operator").
func (opt *Optimizer) parseSliceOp(op ir.Operator) {
	if len(op.Args) != 3 {
		ir.Fatalf("", "Slice operator must have 3 args (list, start, end)")
	}
	opt.program.Slices[op.Out.Key()] = &Slice{Start: op.Args[1], End: op.Args[2]}
	opt.appendOp(ir.Op(op))
}

// parseControlFlow lowers one scope-tree Branch into CFG blocks/edges,
// following the translation rules of spec §4.1.
func (opt *Optimizer) parseControlFlow(br ir.Branch) {
	switch br.Kind {
	case ir.BranchIf:
		opt.parseIf(br.Cond, br.Scope, nil)
	case ir.BranchIfElse:
		opt.parseIf(br.Cond, br.Scope, br.ElseScope)
	case ir.BranchLoop:
		opt.parseLoop(br.Scope)
	case ir.BranchRangeLoop:
		opt.parseRangeLoop(br)
	case ir.BranchReturn:
		opt.parseReturn()
	case ir.BranchSwitch:
		opt.parseSwitch(br)
	case ir.BranchBreak:
		opt.parseBreak()
	default:
		ir.Fatalf("", "unsupported branch kind")
	}
}

// parseIf: "split into {cond-block -> then, cond-block -> merge}" (or a
// third edge to an else block), per spec §4.1 If/IfElse rules.
func (opt *Optimizer) parseIf(cond ir.Variable, thenScope, elseScope *ir.Scope) {
	condBlock := opt.currentBlock
	thenBlock := opt.program.Graph.AddNode(newBlock())
	mergeBlock := opt.program.Graph.AddNode(newBlock())

	elseBlock := mergeBlock
	if elseScope != nil {
		elseBlock = opt.program.Graph.AddNode(newBlock())
	}

	opt.program.Graph.AddEdge(condBlock, thenBlock)
	opt.program.Graph.AddEdge(condBlock, elseBlock)
	opt.program.Block(condBlock).ControlFlow = ControlFlow{
		Kind: CFIfElse, Cond: cond, Then: thenBlock, Else: elseBlock, Merge: mergeBlock,
	}

	opt.currentBlock = thenBlock
	opt.parseScope(thenScope)
	opt.connectToMerge(mergeBlock)

	if elseScope != nil {
		opt.currentBlock = elseBlock
		opt.parseScope(elseScope)
		opt.connectToMerge(mergeBlock)
	}

	opt.currentBlock = mergeBlock
}

// parseLoop: "create body, continue_target, merge; terminator on the
// pre-loop block is Loop{...}; push merge onto the break stack; parse
// body; pop" (spec §4.1).
func (opt *Optimizer) parseLoop(body *ir.Scope) {
	preLoop := opt.currentBlock
	bodyBlock := opt.program.Graph.AddNode(newBlock())
	continueBlock := opt.program.Graph.AddNode(newBlock())
	mergeBlock := opt.program.Graph.AddNode(newBlock())

	opt.program.Graph.AddEdge(preLoop, bodyBlock)
	opt.program.Block(preLoop).ControlFlow = ControlFlow{
		Kind: CFLoop, Body: bodyBlock, ContinueTarget: continueBlock, Merge: mergeBlock,
	}

	opt.loopBreak = append(opt.loopBreak, mergeBlock)
	opt.currentBlock = bodyBlock
	opt.parseScope(body)
	if opt.currentBlock != NoNode {
		opt.setFallthrough(opt.currentBlock, continueBlock)
	}
	opt.loopBreak = opt.loopBreak[:len(opt.loopBreak)-1]

	opt.program.Block(continueBlock).ControlFlow = ControlFlow{Kind: CFNone, Next: bodyBlock}
	opt.program.Graph.AddEdge(continueBlock, bodyBlock)

	opt.currentBlock = mergeBlock
}

// parseRangeLoop desugars `for induction in start..end [by step]` into a
// Loop whose body begins with a Break test and whose continue_target
// increments the induction variable (spec §4.1 "RangeLoop").
func (opt *Optimizer) parseRangeLoop(br ir.Branch) {
	preLoop := opt.currentBlock
	induction := br.Induction

	opt.appendOp(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: induction, Args: []ir.Variable{br.Start}}))

	bodyScope := br.Scope
	testBlock := opt.program.Graph.AddNode(newBlock())
	loopBody := opt.program.Graph.AddNode(newBlock())
	continueBlock := opt.program.Graph.AddNode(newBlock())
	mergeBlock := opt.program.Graph.AddNode(newBlock())

	opt.program.Graph.AddEdge(preLoop, testBlock)
	opt.program.Block(preLoop).ControlFlow = ControlFlow{
		Kind: CFLoop, Body: testBlock, ContinueTarget: continueBlock, Merge: mergeBlock,
	}

	opt.currentBlock = testBlock
	cmpKind := ir.OpLt
	if br.Inclusive {
		cmpKind = ir.OpLe
	}
	cond := bodyScope.Declare(ir.Scalar(ir.ElemBool))
	opt.appendOp(ir.Op(ir.Operator{Kind: cmpKind, Out: cond, Args: []ir.Variable{induction, br.End}}))
	opt.program.Graph.AddEdge(testBlock, loopBody)
	opt.program.Graph.AddEdge(testBlock, mergeBlock)
	opt.program.Block(testBlock).ControlFlow = ControlFlow{
		Kind: CFBreak, Cond: cond, Body: loopBody, OrBreak: mergeBlock,
	}

	opt.loopBreak = append(opt.loopBreak, mergeBlock)
	opt.currentBlock = loopBody
	opt.parseScope(bodyScope)
	if opt.currentBlock != NoNode {
		opt.setFallthrough(opt.currentBlock, continueBlock)
	}
	opt.loopBreak = opt.loopBreak[:len(opt.loopBreak)-1]

	opt.currentBlock = continueBlock
	step := br.Step
	if step.IsConst() && step.Const.Int == 0 && step.Const.Float == 0 {
		step = ir.ConstInt(ir.ElemI32, 1)
	}
	opt.appendOp(ir.Op(ir.Operator{Kind: ir.OpAdd, Out: induction, Args: []ir.Variable{induction, step}}))
	opt.program.Block(continueBlock).ControlFlow = ControlFlow{Kind: CFNone, Next: testBlock}
	opt.program.Graph.AddEdge(continueBlock, testBlock)

	opt.currentBlock = mergeBlock
}

// parseReturn: "edge to ret; current cleared" (spec §4.1).
func (opt *Optimizer) parseReturn() {
	opt.program.Graph.AddEdge(opt.currentBlock, opt.program.Ret)
	opt.program.Block(opt.currentBlock).ControlFlow = ControlFlow{Kind: CFReturn}
	opt.currentBlock = NoNode
}

// parseBreak jumps unconditionally to the nearest enclosing loop's merge
// block (an early `break;`, distinct from the RangeLoop-desugared Break
// terminator, which tests a condition rather than executing unconditionally).
func (opt *Optimizer) parseBreak() {
	if len(opt.loopBreak) == 0 {
		ir.Fatalf("", "break outside of loop")
	}
	target := opt.loopBreak[len(opt.loopBreak)-1]
	opt.setFallthrough(opt.currentBlock, target)
	opt.currentBlock = NoNode
}

// parseSwitch: N-way symmetric generalization of parseIf (spec §3
// ControlFlow "Switch" variant).
func (opt *Optimizer) parseSwitch(br ir.Branch) {
	condBlock := opt.currentBlock
	mergeBlock := opt.program.Graph.AddNode(newBlock())

	cases := make([]SwitchTarget, 0, len(br.Cases))
	for _, c := range br.Cases {
		caseBlock := opt.program.Graph.AddNode(newBlock())
		opt.program.Graph.AddEdge(condBlock, caseBlock)
		cases = append(cases, SwitchTarget{Value: c.Value, Block: caseBlock})

		opt.currentBlock = caseBlock
		opt.parseScope(c.Scope)
		opt.connectToMerge(mergeBlock)
	}

	defaultBlock := mergeBlock
	if br.Default != nil {
		defaultBlock = opt.program.Graph.AddNode(newBlock())
		opt.currentBlock = defaultBlock
		opt.parseScope(br.Default)
		opt.connectToMerge(mergeBlock)
	}
	opt.program.Graph.AddEdge(condBlock, defaultBlock)

	opt.program.Block(condBlock).ControlFlow = ControlFlow{
		Kind: CFSwitch, Value: br.Value, Cases: cases, Default: defaultBlock, Merge: mergeBlock,
	}
	opt.currentBlock = mergeBlock
}
