package ir

import (
	"strings"
	"testing"

	"github.com/ambralang/ambra/types"
)

func wantFaults(t *testing.T, p *Program, want ...string) {
	t.Helper()
	faults := Validate(p)
	if len(faults) != len(want) {
		t.Fatalf("got %d faults %v, want %d", len(faults), faults, len(want))
	}
	for i, frag := range want {
		if !strings.Contains(faults[i].String(), frag) {
			t.Errorf("fault %d = %q, want it to mention %q", i, faults[i], frag)
		}
	}
}

func TestValidateCleanProgram(t *testing.T) {
	p := &Program{}
	c := p.NewIntConst(10)
	local := p.Main.NewLocal(I32, "x", types.Position{Line: 1, Column: 8})
	p.Main.Emit(PushConst, c)
	p.Main.Emit(StoreLocal, local)
	p.Main.Emit(LoadLocal, local)
	p.Main.Emit(ToString, nil)
	p.Main.Emit(PrintString, nil)
	wantFaults(t, p)
}

func TestValidateUnboundLabel(t *testing.T) {
	p := &Program{}
	end := p.Main.NewLabel("end")
	c := p.NewBoolConst(true)
	p.Main.Emit(PushConst, c)
	p.Main.Emit(JumpIfFalse, end)
	wantFaults(t, p, "allocated but never bound", "targets unbound label @0")
}

func TestValidateDuplicateLabelBinding(t *testing.T) {
	p := &Program{}
	lbl := p.Main.NewLabel("top")
	p.Main.Bind(lbl)
	p.Main.Emit(JLabel, lbl)
	wantFaults(t, p, "bound twice")
}

func TestValidateStaleLabelIndex(t *testing.T) {
	p := &Program{}
	lbl := p.Main.NewLabel("top")
	p.Main.Bind(lbl)
	p.Main.Labels[lbl].Index = 7
	wantFaults(t, p, "records index 7")
}

func TestValidateConstantOutOfRange(t *testing.T) {
	p := &Program{}
	p.Main.Emit(PushConst, ConstID(3))
	wantFaults(t, p, "constant c3 out of range")
}

func TestValidateLocalOutOfRange(t *testing.T) {
	p := &Program{}
	p.Main.Emit(LoadLocal, LocalID(0))
	p.Main.Emit(PrintString, nil)
	wantFaults(t, p, "local $0 out of range", "print_string on an empty stack")
}

func TestValidateTypeMismatch(t *testing.T) {
	p := &Program{}
	c := p.NewIntConst(1)
	p.Main.Emit(PushConst, c)
	p.Main.Emit(PrintString, nil)
	wantFaults(t, p, "print_string expects string32 on the stack, found i32")
}

func TestValidateStoreTypeMismatch(t *testing.T) {
	p := &Program{}
	c := p.NewBoolConst(true)
	local := p.Main.NewLocal(I32, "x", types.Position{})
	p.Main.Emit(PushConst, c)
	p.Main.Emit(StoreLocal, local)
	wantFaults(t, p, "store_local expects i32 on the stack, found bool32")
}

func TestValidateArithmeticUnderflow(t *testing.T) {
	p := &Program{}
	c := p.NewIntConst(1)
	p.Main.Emit(PushConst, c)
	p.Main.Emit(AddI32, nil)
	p.Main.Emit(Pop, nil)
	wantFaults(t, p, "add_i32 on an empty stack")
}

func TestValidateResidueAtControlTransfer(t *testing.T) {
	p := &Program{}
	lbl := p.Main.NewLabel("end")
	c := p.NewIntConst(1)
	p.Main.Emit(PushConst, c)
	p.Main.Emit(Jump, lbl)
	p.Main.Bind(lbl)
	wantFaults(t, p, "stack holds 1 values at a control transfer")
}

func TestValidateResidueAtEnd(t *testing.T) {
	p := &Program{}
	c := p.NewIntConst(1)
	p.Main.Emit(PushConst, c)
	wantFaults(t, p, "stack holds 1 values at end of function")
}

func TestValidateOperandSpaceConfusion(t *testing.T) {
	p := &Program{}
	p.NewIntConst(1)
	p.Main.Emit(PushConst, LocalID(0))
	p.Main.Emit(Pop, nil)
	wantFaults(t, p, "push_const without a constant operand", "pop on an empty stack")
}
