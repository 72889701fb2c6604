package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ambralang/ambra/types"
)

type Type uint8

const (
	Void32 Type = iota
	I32
	Bool32
	String32
)

func (t Type) String() string {
	switch t {
	case I32:
		return "i32"
	case Bool32:
		return "bool32"
	case String32:
		return "string32"
	default:
		return "void32"
	}
}

// Index wrappers. Each names a distinct id space; they never mix.
type (
	ConstID uint32
	LocalID uint32
	LabelID uint32
)

// Operand is what an instruction may carry: nothing, or an id from
// exactly one of the three spaces.
type Operand interface {
	isOperand()
	operandString() string
}

func (ConstID) isOperand() {}
func (LocalID) isOperand() {}
func (LabelID) isOperand() {}

func (id ConstID) operandString() string { return fmt.Sprintf("c%d", uint32(id)) }
func (id LocalID) operandString() string { return fmt.Sprintf("$%d", uint32(id)) }
func (id LabelID) operandString() string { return fmt.Sprintf("@%d", uint32(id)) }

type Opcode uint8

const (
	Nop Opcode = iota

	PushConst
	Pop
	LoadLocal
	StoreLocal

	AddI32
	SubI32
	MulI32
	DivI32
	NegI32
	NotBool

	CmpEqI32
	CmpNEqI32
	CmpLtI32
	CmpLtEqI32
	CmpGtI32
	CmpGtEqI32
	CmpEqBool32
	CmpNEqBool32
	CmpEqString32
	CmpNEqString32

	ToString
	ConcatString
	PrintString

	Jump
	JumpIfFalse
	JLabel
)

func (op Opcode) String() string {
	data := map[Opcode]string{
		Nop:            "nop",
		PushConst:      "push_const",
		Pop:            "pop",
		LoadLocal:      "load_local",
		StoreLocal:     "store_local",
		AddI32:         "add_i32",
		SubI32:         "sub_i32",
		MulI32:         "mul_i32",
		DivI32:         "div_i32",
		NegI32:         "neg_i32",
		NotBool:        "not_bool",
		CmpEqI32:       "cmp_eq_i32",
		CmpNEqI32:      "cmp_neq_i32",
		CmpLtI32:       "cmp_lt_i32",
		CmpLtEqI32:     "cmp_lteq_i32",
		CmpGtI32:       "cmp_gt_i32",
		CmpGtEqI32:     "cmp_gteq_i32",
		CmpEqBool32:    "cmp_eq_bool32",
		CmpNEqBool32:   "cmp_neq_bool32",
		CmpEqString32:  "cmp_eq_string32",
		CmpNEqString32: "cmp_neq_string32",
		ToString:       "to_string",
		ConcatString:   "concat_string",
		PrintString:    "print_string",
		Jump:           "jump",
		JumpIfFalse:    "jump_if_false",
		JLabel:         "label",
	}
	return data[op]
}

type Instr struct {
	Op  Opcode
	Arg Operand // nil for operand-less opcodes
}

func (i Instr) String() string {
	if i.Arg == nil {
		return i.Op.String()
	}
	return i.Op.String() + " " + i.Arg.operandString()
}

// Constant is one pool entry. Exactly one of the value fields is
// meaningful, selected by Type.
type Constant struct {
	ID   ConstID
	Type Type
	I32  int32
	Bool bool
	Str  string
}

func (c Constant) valueString() string {
	switch c.Type {
	case I32:
		return strconv.FormatInt(int64(c.I32), 10)
	case Bool32:
		return strconv.FormatBool(c.Bool)
	case String32:
		return strconv.Quote(c.Str)
	default:
		return "<void>"
	}
}

type LocalInfo struct {
	ID        LocalID
	Type      Type
	DebugName string
	DeclLoc   types.Position
}

// Label is allocated before its position is known and bound when a JLabel
// for it is emitted. Index is -1 until then.
type Label struct {
	ID        LabelID
	DebugName string
	Index     int
}

type Function struct {
	Instrs      []Instr
	Locals      []LocalInfo
	Labels      []Label
	NextLocalID LocalID
	NextLabelID LabelID
}

// NewLocal allocates a fresh local slot.
func (f *Function) NewLocal(t Type, name string, decl types.Position) LocalID {
	id := f.NextLocalID
	f.NextLocalID++
	f.Locals = append(f.Locals, LocalInfo{ID: id, Type: t, DebugName: name, DeclLoc: decl})
	return id
}

// NewLabel reserves a label id without binding it to a position.
func (f *Function) NewLabel(name string) LabelID {
	id := f.NextLabelID
	f.NextLabelID++
	f.Labels = append(f.Labels, Label{ID: id, DebugName: name, Index: -1})
	return id
}

// Emit appends an instruction and returns its index.
func (f *Function) Emit(op Opcode, arg Operand) int {
	f.Instrs = append(f.Instrs, Instr{Op: op, Arg: arg})
	return len(f.Instrs) - 1
}

// Bind emits the JLabel for a reserved label, fixing its position at the
// current instruction index.
func (f *Function) Bind(id LabelID) {
	idx := f.Emit(JLabel, id)
	f.Labels[id].Index = idx
}

type Program struct {
	Constants   []Constant
	Main        Function
	NextConstID ConstID
}

func (p *Program) NewIntConst(v int32) ConstID {
	return p.addConst(Constant{Type: I32, I32: v})
}

func (p *Program) NewBoolConst(v bool) ConstID {
	return p.addConst(Constant{Type: Bool32, Bool: v})
}

func (p *Program) NewStringConst(v string) ConstID {
	return p.addConst(Constant{Type: String32, Str: v})
}

func (p *Program) addConst(c Constant) ConstID {
	c.ID = p.NextConstID
	p.NextConstID++
	p.Constants = append(p.Constants, c)
	return c.ID
}

// Format renders the program as text in its stable order: constants in
// allocation order, then the main function's locals, then instructions in
// emission order. This is the system's only wire-level contract.
func (p *Program) Format() string {
	var sb strings.Builder
	sb.WriteString("ambra-ir v0\n")
	for _, c := range p.Constants {
		fmt.Fprintf(&sb, "const c%d %s %s\n", uint32(c.ID), c.Type, c.valueString())
	}
	sb.WriteString("fn main\n")
	for _, l := range p.Main.Locals {
		fmt.Fprintf(&sb, "  local $%d %s ; %s\n", uint32(l.ID), l.Type, l.DebugName)
	}
	for idx, ins := range p.Main.Instrs {
		fmt.Fprintf(&sb, "  %4d  %s\n", idx, ins)
	}
	return sb.String()
}
