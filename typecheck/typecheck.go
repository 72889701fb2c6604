package typecheck

import (
	"fmt"

	"github.com/ambralang/ambra/ast"
	"github.com/ambralang/ambra/errors"
	"github.com/ambralang/ambra/ir"
	"github.com/ambralang/ambra/resolver"
	"github.com/ambralang/ambra/types"
)

// Result maps every expression in the program to its IR type. The lowerer
// depends on the map being total over the expressions it visits, so even
// ill-typed expressions receive an entry (Void32) alongside a diagnostic.
type Result struct {
	Types       map[ast.NodeID]ir.Type
	Diagnostics []errors.Diagnostic
}

func (r *Result) HadError() bool { return len(r.Diagnostics) > 0 }

func Check(prog *ast.Program, res *resolver.Resolution) *Result {
	c := &checker{
		res:      res,
		symTypes: map[*resolver.Symbol]ir.Type{},
		out:      &Result{Types: map[ast.NodeID]ir.Type{}},
	}
	for _, s := range prog.Statements {
		c.stmt(s)
	}
	return c.out
}

type checker struct {
	res      *resolver.Resolution
	symTypes map[*resolver.Symbol]ir.Type
	out      *Result
}

func (c *checker) errorf(loc types.Position, format string, args ...interface{}) {
	c.out.Diagnostics = append(c.out.Diagnostics, errors.Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Loc:     loc,
	})
}

func (c *checker) stmt(s ast.Stmt) {
	switch st := s.(type) {
	case ast.Summon:
		t := c.expr(st.Init)
		if sym := c.res.DeclAt(st.NameLoc); sym != nil {
			c.symTypes[sym] = t
		}
	case ast.Say:
		t := c.expr(st.X)
		if t == ir.Void32 {
			c.errorf(st.X.Pos(), "cannot print a void expression")
		}
	case *ast.Block:
		for _, inner := range st.Stmts {
			c.stmt(inner)
		}
	case ast.IfChain:
		for _, br := range st.Branches {
			c.condition(br.Cond)
			c.stmt(br.Body)
		}
		if st.Else != nil {
			c.stmt(st.Else)
		}
	case ast.While:
		c.condition(st.Cond)
		c.stmt(st.Body)
	}
}

func (c *checker) condition(e ast.Expr) {
	t := c.expr(e)
	if t != ir.Bool32 && t != ir.Void32 {
		c.errorf(e.Pos(), "condition must be a boolean, got %s", t)
	}
}

func (c *checker) expr(e ast.Expr) ir.Type {
	t := c.typeOf(e)
	c.out.Types[e.ID()] = t
	return t
}

func (c *checker) typeOf(e ast.Expr) ir.Type {
	switch x := e.(type) {
	case ast.IntLit:
		return ir.I32
	case ast.BoolLit:
		return ir.Bool32
	case ast.Ident:
		sym, ok := c.res.Table[x.ID()]
		if !ok {
			// resolution already failed and reported here
			return ir.Void32
		}
		return c.symTypes[sym]
	case ast.Grouping:
		return c.expr(x.Inner)
	case ast.Unary:
		t := c.expr(x.Operand)
		switch x.Op {
		case ast.UnaryNot:
			if t != ir.Bool32 && t != ir.Void32 {
				c.errorf(x.Operand.Pos(), "operand of 'not' must be a boolean, got %s", t)
			}
			return ir.Bool32
		default:
			if t != ir.I32 && t != ir.Void32 {
				c.errorf(x.Operand.Pos(), "operand of '-' must be an integer, got %s", t)
			}
			return ir.I32
		}
	case ast.Binary:
		lt := c.expr(x.Left)
		rt := c.expr(x.Right)
		switch x.Op {
		case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
			c.wantI32(x.Left, lt, x.Op)
			c.wantI32(x.Right, rt, x.Op)
			return ir.I32
		case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
			c.wantI32(x.Left, lt, x.Op)
			c.wantI32(x.Right, rt, x.Op)
			return ir.Bool32
		default: // == and !=
			if lt != ir.Void32 && rt != ir.Void32 && lt != rt {
				c.errorf(x.Pos(), "cannot compare %s with %s", lt, rt)
			}
			return ir.Bool32
		}
	case ast.InterpString:
		for _, part := range x.Parts {
			if ep, ok := part.(ast.ExprPart); ok {
				t := c.expr(ep.X)
				if t == ir.Void32 {
					c.errorf(ep.X.Pos(), "cannot interpolate a void expression")
				}
			}
		}
		return ir.String32
	}
	return ir.Void32
}

func (c *checker) wantI32(e ast.Expr, t ir.Type, op ast.BinOp) {
	if t != ir.I32 && t != ir.Void32 {
		c.errorf(e.Pos(), "operand of '%s' must be an integer, got %s", op, t)
	}
}
