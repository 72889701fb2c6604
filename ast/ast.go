package ast

import (
	"github.com/ambralang/ambra/types"
)

// NodeID is a stable identity handed out by the parser, one per
// expression. The resolver and type checker key their tables on it.
type NodeID uint32

// ExprNode carries the fields every expression variant shares. Variants
// embed it.
type ExprNode struct {
	Loc types.Position
	NID NodeID
}

func (n ExprNode) Pos() types.Position { return n.Loc }
func (n ExprNode) ID() NodeID          { return n.NID }

type Expr interface {
	isExpr()
	Pos() types.Position
	ID() NodeID
}

type IntLit struct {
	ExprNode
	Value int32
}

func (IntLit) isExpr() {}

type BoolLit struct {
	ExprNode
	Value bool
}

func (BoolLit) isExpr() {}

type Ident struct {
	ExprNode
	Name string
}

func (Ident) isExpr() {}

type Grouping struct {
	ExprNode
	Inner Expr
}

func (Grouping) isExpr() {}

type UnaryOp int

const (
	UnaryNot UnaryOp = iota
	UnaryNeg
)

func (op UnaryOp) String() string {
	if op == UnaryNot {
		return "not"
	}
	return "-"
}

type Unary struct {
	ExprNode
	Op      UnaryOp
	Operand Expr
}

func (Unary) isExpr() {}

type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNeq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
)

func (op BinOp) String() string {
	data := map[BinOp]string{
		OpAdd:  "+",
		OpSub:  "-",
		OpMul:  "*",
		OpDiv:  "/",
		OpEq:   "==",
		OpNeq:  "!=",
		OpLt:   "<",
		OpLtEq: "<=",
		OpGt:   ">",
		OpGtEq: ">=",
	}
	return data[op]
}

type Binary struct {
	ExprNode
	Left  Expr
	Op    BinOp
	Right Expr
}

func (Binary) isExpr() {}

// StringPart is one piece of an interpolated string: either literal text
// or an embedded expression. A plain string literal is an InterpString
// with a single TextPart.
type StringPart interface {
	isStringPart()
}

type TextPart struct {
	Text string
	Loc  types.Position
}

func (TextPart) isStringPart() {}

type ExprPart struct {
	X Expr
}

func (ExprPart) isStringPart() {}

type InterpString struct {
	ExprNode
	Parts []StringPart
}

func (InterpString) isExpr() {}

type Stmt interface {
	isStmt()
	Pos() types.Position
}

type Summon struct {
	Loc     types.Position
	Name    string
	NameLoc types.Position
	Init    Expr
}

func (Summon) isStmt()               {}
func (s Summon) Pos() types.Position { return s.Loc }

type Say struct {
	Loc types.Position
	X   Expr
}

func (Say) isStmt()               {}
func (s Say) Pos() types.Position { return s.Loc }

type Block struct {
	Loc   types.Position
	Stmts []Stmt
}

func (*Block) isStmt()               {}
func (s *Block) Pos() types.Position { return s.Loc }

type IfBranch struct {
	Cond Expr
	Body *Block
}

type IfChain struct {
	Loc      types.Position
	Branches []IfBranch
	Else     *Block
}

func (IfChain) isStmt()               {}
func (s IfChain) Pos() types.Position { return s.Loc }

type While struct {
	Loc  types.Position
	Cond Expr
	Body *Block
}

func (While) isStmt()               {}
func (s While) Pos() types.Position { return s.Loc }

type Program struct {
	Statements []Stmt
	HadError   bool
	Start      types.Position
	End        types.Position
}
