package ir

// ProcedureKind enumerates the procedure expansions the parser (C4) must
// support, grounded directly on cubecl-opt/src/lib.rs's compile_procedure
// match arms.
type ProcedureKind int

const (
	ProcReadGlobalWithLayout ProcedureKind = iota
	ProcReadGlobal
	ProcWriteGlobal
	ProcConditionalAssign
	ProcCheckedIndex
	ProcCheckedIndexAssign
	ProcIndexOffsetGlobalWithLayout
	ProcEarlyReturn
)

func (k ProcedureKind) String() string {
	switch k {
	case ProcReadGlobalWithLayout:
		return "ReadGlobalWithLayout"
	case ProcReadGlobal:
		return "ReadGlobal"
	case ProcWriteGlobal:
		return "WriteGlobal"
	case ProcConditionalAssign:
		return "ConditionalAssign"
	case ProcCheckedIndex:
		return "CheckedIndex"
	case ProcCheckedIndexAssign:
		return "CheckedIndexAssign"
	case ProcIndexOffsetGlobalWithLayout:
		return "IndexOffsetGlobalWithLayout"
	case ProcEarlyReturn:
		return "EarlyReturn"
	default:
		return "Unknown"
	}
}

// Procedure is a higher-level operation that expands into one or more
// lower-level Operations when the parser visits it (spec §4.1:
// "Procedure ... invoke that procedure's abstract expansion"). Field
// meaning depends on Kind; see Expand.
type Procedure struct {
	Kind ProcedureKind

	Out    Variable
	Input  Variable
	Index  Variable
	Value  Variable // WriteGlobal / CheckedIndexAssign
	Cond   Variable // ConditionalAssign / EarlyReturn
	A, B   Variable // ConditionalAssign true/false operands
	Layout Variable // *WithLayout variants: array describing element strides
}

// Expand lowers p into plain operations appended to scope, the way
// cubecl-opt's compile_procedure calls proc.expand(&mut scope) before
// recursively parsing the result. Unsupported kinds are a spec §7
// "Unsupported procedure variant" fatal error.
func (p Procedure) Expand(scope *Scope) {
	switch p.Kind {
	case ProcReadGlobal:
		scope.Add(Op(Operator{Kind: OpIndex, Out: p.Out, Args: []Variable{p.Input, p.Index}}))
	case ProcReadGlobalWithLayout:
		offset := scope.Declare(Scalar(ElemU32))
		scope.Add(Op(Operator{Kind: OpMul, Out: offset, Args: []Variable{p.Index, p.Layout}}))
		scope.Add(Op(Operator{Kind: OpIndex, Out: p.Out, Args: []Variable{p.Input, offset}}))
	case ProcWriteGlobal:
		scope.Add(Op(Operator{Kind: OpIndexAssign, Out: p.Out, Args: []Variable{p.Index, p.Value}}))
	case ProcConditionalAssign:
		scope.Add(Op(Operator{Kind: OpSelect, Out: p.Out, Args: []Variable{p.Cond, p.A, p.B}}))
	case ProcCheckedIndex:
		scope.Add(Op(Operator{Kind: OpIndex, Out: p.Out, Args: []Variable{p.Input, p.Index}, Checked: true}))
	case ProcCheckedIndexAssign:
		scope.Add(Op(Operator{Kind: OpIndexAssign, Out: p.Out, Args: []Variable{p.Index, p.Value}, Checked: true}))
	case ProcIndexOffsetGlobalWithLayout:
		scope.Add(Op(Operator{Kind: OpMul, Out: p.Out, Args: []Variable{p.Index, p.Layout}}))
	case ProcEarlyReturn:
		ret := scope.Child()
		ret.Add(BranchOp(Branch{Kind: BranchReturn}))
		scope.Add(BranchOp(Branch{Kind: BranchIf, Cond: p.Cond, Scope: ret}))
	default:
		Fatalf(p.Kind.String(), "unsupported procedure variant")
	}
}
