package lower

import (
	"fmt"

	"github.com/ambralang/ambra/ast"
	"github.com/ambralang/ambra/errors"
	"github.com/ambralang/ambra/ir"
	"github.com/ambralang/ambra/resolver"
	"github.com/ambralang/ambra/typecheck"
	"github.com/ambralang/ambra/types"
)

// Program lowers a resolved, typechecked AST into a stack IR program with
// a single main function. Diagnostics from this pass indicate internal
// inconsistencies (a resolved symbol with no live local slot), not user
// errors; callers should treat a non-empty slice as a bug upstream.
func Program(prog *ast.Program, res *resolver.Resolution, typed *typecheck.Result) (*ir.Program, []errors.Diagnostic) {
	l := &lowerer{
		res:   res,
		typed: typed,
		out:   &ir.Program{},
	}
	l.pushScope()
	for _, s := range prog.Statements {
		l.stmt(s)
	}
	l.popScope()
	return l.out, l.diags
}

type lowerer struct {
	res   *resolver.Resolution
	typed *typecheck.Result
	out   *ir.Program

	// scopes map resolved symbols to local slots; pushed and popped in
	// step with lowering's own traversal of blocks and branch bodies
	scopes []map[*resolver.Symbol]ir.LocalID
	diags  []errors.Diagnostic
}

func (l *lowerer) fn() *ir.Function { return &l.out.Main }

func (l *lowerer) pushScope() {
	l.scopes = append(l.scopes, map[*resolver.Symbol]ir.LocalID{})
}

func (l *lowerer) popScope() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

func (l *lowerer) declare(sym *resolver.Symbol, id ir.LocalID) {
	l.scopes[len(l.scopes)-1][sym] = id
}

func (l *lowerer) lookup(sym *resolver.Symbol) (ir.LocalID, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if id, ok := l.scopes[i][sym]; ok {
			return id, true
		}
	}
	return 0, false
}

func (l *lowerer) internalErrorf(loc types.Position, format string, args ...interface{}) {
	l.diags = append(l.diags, errors.Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Loc:     loc,
	})
}

func (l *lowerer) typeOf(e ast.Expr) ir.Type {
	return l.typed.Types[e.ID()]
}

func (l *lowerer) stmt(s ast.Stmt) {
	switch st := s.(type) {
	case ast.Summon:
		declType := l.typeOf(st.Init)
		local := l.fn().NewLocal(declType, st.Name, st.NameLoc)
		if sym := l.res.DeclAt(st.NameLoc); sym != nil {
			l.declare(sym, local)
		}
		l.expr(st.Init, declType)
		l.fn().Emit(ir.StoreLocal, local)
	case ast.Say:
		l.expr(st.X, ir.String32)
		l.fn().Emit(ir.PrintString, nil)
	case *ast.Block:
		l.block(st)
	case ast.IfChain:
		l.ifChain(st)
	case ast.While:
		l.while(st)
	}
}

func (l *lowerer) block(b *ast.Block) {
	l.pushScope()
	defer l.popScope()
	for _, s := range b.Stmts {
		l.stmt(s)
	}
}

func (l *lowerer) ifChain(st ast.IfChain) {
	end := l.fn().NewLabel("end")
	for _, br := range st.Branches {
		l.expr(br.Cond, ir.Bool32)
		next := l.fn().NewLabel("next")
		l.fn().Emit(ir.JumpIfFalse, next)
		l.block(br.Body)
		l.fn().Emit(ir.Jump, end)
		l.fn().Bind(next)
	}
	if st.Else != nil {
		l.block(st.Else)
	}
	l.fn().Bind(end)
}

func (l *lowerer) while(st ast.While) {
	top := l.fn().NewLabel("top")
	end := l.fn().NewLabel("end")
	l.fn().Bind(top)
	l.expr(st.Cond, ir.Bool32)
	l.fn().Emit(ir.JumpIfFalse, end)
	l.block(st.Body)
	l.fn().Emit(ir.Jump, top)
	l.fn().Bind(end)
}

// expr lowers an expression under an expected type inherited from the
// surrounding statement, inserting ToString when an I32 or Bool32 value
// flows into a String32 position.
func (l *lowerer) expr(e ast.Expr, expected ir.Type) {
	switch x := e.(type) {
	case ast.IntLit:
		id := l.out.NewIntConst(x.Value)
		l.fn().Emit(ir.PushConst, id)
		l.coerce(ir.I32, expected)
	case ast.BoolLit:
		id := l.out.NewBoolConst(x.Value)
		l.fn().Emit(ir.PushConst, id)
		l.coerce(ir.Bool32, expected)
	case ast.Ident:
		l.identifier(x, expected)
	case ast.Grouping:
		l.expr(x.Inner, expected)
	case ast.Unary:
		switch x.Op {
		case ast.UnaryNot:
			l.expr(x.Operand, ir.Bool32)
			l.fn().Emit(ir.NotBool, nil)
			l.coerce(ir.Bool32, expected)
		default:
			l.expr(x.Operand, ir.I32)
			l.fn().Emit(ir.NegI32, nil)
			l.coerce(ir.I32, expected)
		}
	case ast.Binary:
		l.binary(x, expected)
	case ast.InterpString:
		l.interp(x)
	}
}

func (l *lowerer) identifier(x ast.Ident, expected ir.Type) {
	sym, ok := l.res.Table[x.ID()]
	if !ok {
		l.internalErrorf(x.Pos(), "identifier '%s' was never resolved", x.Name)
		return
	}
	local, ok := l.lookup(sym)
	if !ok {
		l.internalErrorf(x.Pos(), "no local slot for '%s' in any active scope", x.Name)
		return
	}
	l.fn().Emit(ir.LoadLocal, local)
	l.coerce(l.typeOf(x), expected)
}

func (l *lowerer) binary(x ast.Binary, expected ir.Type) {
	switch x.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		l.expr(x.Left, ir.I32)
		l.expr(x.Right, ir.I32)
		ops := map[ast.BinOp]ir.Opcode{
			ast.OpAdd: ir.AddI32,
			ast.OpSub: ir.SubI32,
			ast.OpMul: ir.MulI32,
			ast.OpDiv: ir.DivI32,
		}
		l.fn().Emit(ops[x.Op], nil)
		l.coerce(ir.I32, expected)
	case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		l.expr(x.Left, ir.I32)
		l.expr(x.Right, ir.I32)
		ops := map[ast.BinOp]ir.Opcode{
			ast.OpLt:   ir.CmpLtI32,
			ast.OpLtEq: ir.CmpLtEqI32,
			ast.OpGt:   ir.CmpGtI32,
			ast.OpGtEq: ir.CmpGtEqI32,
		}
		l.fn().Emit(ops[x.Op], nil)
		l.coerce(ir.Bool32, expected)
	default:
		// equality dispatches on the operands' shared type
		operand := l.typeOf(x.Left)
		l.expr(x.Left, operand)
		l.expr(x.Right, operand)
		eq := map[ir.Type]ir.Opcode{
			ir.I32:      ir.CmpEqI32,
			ir.Bool32:   ir.CmpEqBool32,
			ir.String32: ir.CmpEqString32,
		}
		neq := map[ir.Type]ir.Opcode{
			ir.I32:      ir.CmpNEqI32,
			ir.Bool32:   ir.CmpNEqBool32,
			ir.String32: ir.CmpNEqString32,
		}
		table := eq
		if x.Op == ast.OpNeq {
			table = neq
		}
		op, ok := table[operand]
		if !ok {
			l.internalErrorf(x.Pos(), "equality on unsupported operand type %s", operand)
			return
		}
		l.fn().Emit(op, nil)
		l.coerce(ir.Bool32, expected)
	}
}

// interp pushes each part as a String32 value, concatenating as it goes:
// two items then ConcatString, then one more ConcatString per further
// item. The result is always String32, so no coercion follows.
func (l *lowerer) interp(x ast.InterpString) {
	for i, part := range x.Parts {
		switch pt := part.(type) {
		case ast.TextPart:
			id := l.out.NewStringConst(pt.Text)
			l.fn().Emit(ir.PushConst, id)
		case ast.ExprPart:
			l.expr(pt.X, ir.String32)
		}
		if i > 0 {
			l.fn().Emit(ir.ConcatString, nil)
		}
	}
}

// coerce bridges an expression's natural type to the expected one. The
// only legal conversion is into String32; the type checker has already
// rejected everything else.
func (l *lowerer) coerce(actual ir.Type, expected ir.Type) {
	if expected == ir.String32 && actual != ir.String32 {
		l.fn().Emit(ir.ToString, nil)
	}
}
