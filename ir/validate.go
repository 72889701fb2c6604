package ir

import (
	"fmt"
)

// Fault is a validator finding. Unlike front-end diagnostics it points at
// an instruction index, not a source location.
type Fault struct {
	Index   int
	Message string
}

func (f Fault) String() string {
	return fmt.Sprintf("instr %d: %s", f.Index, f.Message)
}

// Validate checks the well-formedness a backend may assume: operand ids
// in range and in the right space, exactly one JLabel per allocated
// label, and balanced, correctly typed stack traffic. Statement-level
// lowering leaves the stack empty at every control transfer, so the
// simulation requires an empty stack at labels and jumps.
func Validate(p *Program) []Fault {
	v := &validator{p: p}
	v.checkLabels()
	v.simulate()
	return v.faults
}

type validator struct {
	p      *Program
	faults []Fault
}

func (v *validator) failf(idx int, format string, args ...interface{}) {
	v.faults = append(v.faults, Fault{Index: idx, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) checkLabels() {
	f := &v.p.Main
	bound := make(map[LabelID]int)
	for idx, ins := range f.Instrs {
		if ins.Op != JLabel {
			continue
		}
		id, ok := ins.Arg.(LabelID)
		if !ok {
			v.failf(idx, "label instruction without a label operand")
			continue
		}
		if prev, dup := bound[id]; dup {
			v.failf(idx, "label %s bound twice (first at instr %d)", id.operandString(), prev)
			continue
		}
		bound[id] = idx
	}
	for _, lbl := range f.Labels {
		at, ok := bound[lbl.ID]
		if !ok {
			v.failf(len(f.Instrs), "label %s (%s) allocated but never bound", lbl.ID.operandString(), lbl.DebugName)
			continue
		}
		if lbl.Index != at {
			v.failf(at, "label %s records index %d but is bound here", lbl.ID.operandString(), lbl.Index)
		}
	}
	for idx, ins := range f.Instrs {
		if ins.Op != Jump && ins.Op != JumpIfFalse {
			continue
		}
		id, ok := ins.Arg.(LabelID)
		if !ok {
			v.failf(idx, "%s without a label operand", ins.Op)
			continue
		}
		if _, ok := bound[id]; !ok {
			v.failf(idx, "%s targets unbound label %s", ins.Op, id.operandString())
		}
	}
}

// effects of an operand-less opcode on the abstract stack
var stackEffects = map[Opcode]struct {
	pops   []Type
	pushes []Type
}{
	AddI32:         {[]Type{I32, I32}, []Type{I32}},
	SubI32:         {[]Type{I32, I32}, []Type{I32}},
	MulI32:         {[]Type{I32, I32}, []Type{I32}},
	DivI32:         {[]Type{I32, I32}, []Type{I32}},
	NegI32:         {[]Type{I32}, []Type{I32}},
	NotBool:        {[]Type{Bool32}, []Type{Bool32}},
	CmpEqI32:       {[]Type{I32, I32}, []Type{Bool32}},
	CmpNEqI32:      {[]Type{I32, I32}, []Type{Bool32}},
	CmpLtI32:       {[]Type{I32, I32}, []Type{Bool32}},
	CmpLtEqI32:     {[]Type{I32, I32}, []Type{Bool32}},
	CmpGtI32:       {[]Type{I32, I32}, []Type{Bool32}},
	CmpGtEqI32:     {[]Type{I32, I32}, []Type{Bool32}},
	CmpEqBool32:    {[]Type{Bool32, Bool32}, []Type{Bool32}},
	CmpNEqBool32:   {[]Type{Bool32, Bool32}, []Type{Bool32}},
	CmpEqString32:  {[]Type{String32, String32}, []Type{Bool32}},
	CmpNEqString32: {[]Type{String32, String32}, []Type{Bool32}},
	ConcatString:   {[]Type{String32, String32}, []Type{String32}},
	PrintString:    {[]Type{String32}, nil},
}

func (v *validator) simulate() {
	f := &v.p.Main
	var stack []Type

	pop := func(idx int, want Type) {
		if len(stack) == 0 {
			v.failf(idx, "%s on an empty stack", f.Instrs[idx].Op)
			return
		}
		got := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if want != Void32 && got != want {
			v.failf(idx, "%s expects %s on the stack, found %s", f.Instrs[idx].Op, want, got)
		}
	}
	wantEmpty := func(idx int) {
		if len(stack) != 0 {
			v.failf(idx, "stack holds %d values at a control transfer", len(stack))
			stack = stack[:0]
		}
	}

	for idx, ins := range f.Instrs {
		switch ins.Op {
		case Nop:
		case PushConst:
			id, ok := ins.Arg.(ConstID)
			if !ok {
				v.failf(idx, "push_const without a constant operand")
				continue
			}
			if int(id) >= len(v.p.Constants) {
				v.failf(idx, "constant %s out of range (pool size %d)", id.operandString(), len(v.p.Constants))
				continue
			}
			stack = append(stack, v.p.Constants[id].Type)
		case Pop:
			pop(idx, Void32)
		case LoadLocal, StoreLocal:
			id, ok := ins.Arg.(LocalID)
			if !ok {
				v.failf(idx, "%s without a local operand", ins.Op)
				continue
			}
			if int(id) >= len(f.Locals) {
				v.failf(idx, "local %s out of range (table size %d)", id.operandString(), len(f.Locals))
				continue
			}
			if ins.Op == LoadLocal {
				stack = append(stack, f.Locals[id].Type)
			} else {
				pop(idx, f.Locals[id].Type)
			}
		case ToString:
			pop(idx, Void32)
			stack = append(stack, String32)
		case Jump:
			wantEmpty(idx)
		case JumpIfFalse:
			pop(idx, Bool32)
			wantEmpty(idx)
		case JLabel:
			wantEmpty(idx)
		default:
			eff, ok := stackEffects[ins.Op]
			if !ok {
				v.failf(idx, "unknown opcode %d", ins.Op)
				continue
			}
			for i := len(eff.pops) - 1; i >= 0; i-- {
				pop(idx, eff.pops[i])
			}
			stack = append(stack, eff.pushes...)
		}
	}
	if len(stack) != 0 {
		v.failf(len(f.Instrs), "stack holds %d values at end of function", len(stack))
	}
}
