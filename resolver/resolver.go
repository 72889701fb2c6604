package resolver

import (
	"fmt"

	"github.com/ambralang/ambra/ast"
	"github.com/ambralang/ambra/errors"
	"github.com/ambralang/ambra/types"
)

type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
)

type Symbol struct {
	Name    string
	Kind    SymbolKind
	DeclLoc types.Position
}

// Scope is one node of the lexical environment tree. Children are owned;
// the parent link is a plain back-pointer used for lookups.
type Scope struct {
	Parent   *Scope
	Symbols  map[string]*Symbol
	Children []*Scope
}

func NewScope(parent *Scope) *Scope {
	s := &Scope{Parent: parent, Symbols: map[string]*Symbol{}}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Declare adds a symbol to this scope. It fails when the name already
// exists here; shadowing an outer scope is the caller's business and is
// always allowed.
func (s *Scope) Declare(sym *Symbol) bool {
	if _, ok := s.Symbols[sym.Name]; ok {
		return false
	}
	s.Symbols[sym.Name] = sym
	return true
}

// Lookup walks from this scope outward; the nearest declaration wins.
func (s *Scope) Lookup(name string) *Symbol {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// Resolution is the resolver's output: the scope tree, the binding of
// every identifier expression to its declaration, and any diagnostics.
type Resolution struct {
	Root        *Scope
	Table       map[ast.NodeID]*Symbol
	Diagnostics []errors.Diagnostic

	decls map[types.Position]*Symbol
}

func (r *Resolution) HadError() bool { return len(r.Diagnostics) > 0 }

// DeclAt returns the symbol whose declaration sits at the given name
// token position, or nil. Downstream passes use it to match a summon
// statement back to its Symbol without replaying the scope traversal.
func (r *Resolution) DeclAt(loc types.Position) *Symbol {
	return r.decls[loc]
}

// Resolve builds the scope tree for a program and binds identifier uses
// to declarations. Errors are non-fatal; every statement is visited so all
// violations surface in one pass.
func Resolve(prog *ast.Program) *Resolution {
	r := &resolver{out: &Resolution{
		Root:  NewScope(nil),
		Table: map[ast.NodeID]*Symbol{},
		decls: map[types.Position]*Symbol{},
	}}
	r.current = r.out.Root
	for _, s := range prog.Statements {
		r.stmt(s)
	}
	return r.out
}

type resolver struct {
	out     *Resolution
	current *Scope
}

func (r *resolver) push() {
	r.current = NewScope(r.current)
}

func (r *resolver) pop() {
	r.current = r.current.Parent
}

func (r *resolver) errorf(loc types.Position, format string, args ...interface{}) {
	r.out.Diagnostics = append(r.out.Diagnostics, errors.Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Loc:     loc,
	})
}

func (r *resolver) stmt(s ast.Stmt) {
	switch st := s.(type) {
	case ast.Summon:
		// the initializer resolves before the name is declared, so
		// `summon x = x;` binds to an outer x or fails
		r.expr(st.Init)
		sym := &Symbol{Name: st.Name, Kind: SymbolVariable, DeclLoc: st.NameLoc}
		if !r.current.Declare(sym) {
			prev := r.current.Symbols[st.Name]
			r.errorf(st.NameLoc, "redeclaration of '%s' (first declared at %s)", st.Name, prev.DeclLoc)
			return
		}
		r.out.decls[st.NameLoc] = sym
	case ast.Say:
		r.expr(st.X)
	case *ast.Block:
		r.block(st)
	case ast.IfChain:
		// conditions live in the enclosing scope; only bodies open one
		for _, br := range st.Branches {
			r.expr(br.Cond)
			r.block(br.Body)
		}
		if st.Else != nil {
			r.block(st.Else)
		}
	case ast.While:
		r.expr(st.Cond)
		r.block(st.Body)
	}
}

func (r *resolver) block(b *ast.Block) {
	r.push()
	defer r.pop()
	for _, s := range b.Stmts {
		r.stmt(s)
	}
}

func (r *resolver) expr(e ast.Expr) {
	switch x := e.(type) {
	case ast.IntLit, ast.BoolLit:
	case ast.Ident:
		sym := r.current.Lookup(x.Name)
		if sym == nil {
			r.errorf(x.Pos(), "undeclared identifier '%s'", x.Name)
			return
		}
		r.out.Table[x.ID()] = sym
	case ast.Grouping:
		r.expr(x.Inner)
	case ast.Unary:
		r.expr(x.Operand)
	case ast.Binary:
		r.expr(x.Left)
		r.expr(x.Right)
	case ast.InterpString:
		for _, part := range x.Parts {
			if ep, ok := part.(ast.ExprPart); ok {
				r.expr(ep.X)
			}
		}
	}
}
