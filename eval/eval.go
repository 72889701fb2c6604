package eval

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ambralang/ambra/ir"
)

// Value is one slot of the operand stack or local frame.
type Value struct {
	T   ir.Type
	I   int32
	B   bool
	Str string
}

func (v Value) text() string {
	switch v.T {
	case ir.I32:
		return strconv.FormatInt(int64(v.I), 10)
	case ir.Bool32:
		if v.B {
			return "affirmative"
		}
		return "negative"
	case ir.String32:
		return v.Str
	default:
		return "<void>"
	}
}

// Run executes a lowered program's main function, writing say output to
// out. The program is expected to have passed ir.Validate; type confusion
// here is reported as an error rather than checked up front.
func Run(p *ir.Program, out io.Writer) error {
	m := &machine{p: p, out: out, locals: make([]Value, len(p.Main.Locals))}
	return m.run()
}

type machine struct {
	p      *ir.Program
	out    io.Writer
	stack  []Value
	locals []Value
}

func (m *machine) push(v Value) { m.stack = append(m.stack, v) }

func (m *machine) pop() (Value, error) {
	if len(m.stack) == 0 {
		return Value{}, errors.New("operand stack underflow")
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *machine) pop2() (Value, Value, error) {
	b, err := m.pop()
	if err != nil {
		return Value{}, Value{}, err
	}
	a, err := m.pop()
	if err != nil {
		return Value{}, Value{}, err
	}
	return a, b, nil
}

func (m *machine) run() error {
	f := &m.p.Main

	// labels were bound during emission; jumps land on the JLabel itself,
	// which executes as a no-op
	targets := make(map[ir.LabelID]int, len(f.Labels))
	for _, lbl := range f.Labels {
		if lbl.Index < 0 {
			return errors.Errorf("label @%d (%s) was never bound", uint32(lbl.ID), lbl.DebugName)
		}
		targets[lbl.ID] = lbl.Index
	}

	pc := 0
	for pc < len(f.Instrs) {
		ins := f.Instrs[pc]
		jumped, err := m.step(ins, targets, &pc)
		if err != nil {
			return errors.Wrapf(err, "at instr %d (%s)", pc, ins)
		}
		if !jumped {
			pc++
		}
	}
	return nil
}

func (m *machine) step(ins ir.Instr, targets map[ir.LabelID]int, pc *int) (bool, error) {
	switch ins.Op {
	case ir.Nop, ir.JLabel:
	case ir.PushConst:
		c := m.p.Constants[ins.Arg.(ir.ConstID)]
		m.push(Value{T: c.Type, I: c.I32, B: c.Bool, Str: c.Str})
	case ir.Pop:
		if _, err := m.pop(); err != nil {
			return false, err
		}
	case ir.LoadLocal:
		m.push(m.locals[ins.Arg.(ir.LocalID)])
	case ir.StoreLocal:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		m.locals[ins.Arg.(ir.LocalID)] = v
	case ir.AddI32, ir.SubI32, ir.MulI32, ir.DivI32:
		a, b, err := m.pop2()
		if err != nil {
			return false, err
		}
		var r int32
		switch ins.Op {
		case ir.AddI32:
			r = a.I + b.I
		case ir.SubI32:
			r = a.I - b.I
		case ir.MulI32:
			r = a.I * b.I
		default:
			if b.I == 0 {
				return false, errors.New("division by zero")
			}
			r = a.I / b.I
		}
		m.push(Value{T: ir.I32, I: r})
	case ir.NegI32:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		m.push(Value{T: ir.I32, I: -v.I})
	case ir.NotBool:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		m.push(Value{T: ir.Bool32, B: !v.B})
	case ir.CmpEqI32, ir.CmpNEqI32, ir.CmpLtI32, ir.CmpLtEqI32, ir.CmpGtI32, ir.CmpGtEqI32:
		a, b, err := m.pop2()
		if err != nil {
			return false, err
		}
		var r bool
		switch ins.Op {
		case ir.CmpEqI32:
			r = a.I == b.I
		case ir.CmpNEqI32:
			r = a.I != b.I
		case ir.CmpLtI32:
			r = a.I < b.I
		case ir.CmpLtEqI32:
			r = a.I <= b.I
		case ir.CmpGtI32:
			r = a.I > b.I
		default:
			r = a.I >= b.I
		}
		m.push(Value{T: ir.Bool32, B: r})
	case ir.CmpEqBool32, ir.CmpNEqBool32:
		a, b, err := m.pop2()
		if err != nil {
			return false, err
		}
		r := a.B == b.B
		if ins.Op == ir.CmpNEqBool32 {
			r = !r
		}
		m.push(Value{T: ir.Bool32, B: r})
	case ir.CmpEqString32, ir.CmpNEqString32:
		a, b, err := m.pop2()
		if err != nil {
			return false, err
		}
		r := a.Str == b.Str
		if ins.Op == ir.CmpNEqString32 {
			r = !r
		}
		m.push(Value{T: ir.Bool32, B: r})
	case ir.ToString:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		m.push(Value{T: ir.String32, Str: v.text()})
	case ir.ConcatString:
		a, b, err := m.pop2()
		if err != nil {
			return false, err
		}
		m.push(Value{T: ir.String32, Str: a.Str + b.Str})
	case ir.PrintString:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		fmt.Fprintln(m.out, v.Str)
	case ir.Jump:
		*pc = targets[ins.Arg.(ir.LabelID)]
		return true, nil
	case ir.JumpIfFalse:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		if !v.B {
			*pc = targets[ins.Arg.(ir.LabelID)]
			return true, nil
		}
	default:
		return false, errors.Errorf("unknown opcode %d", ins.Op)
	}
	return false, nil
}
