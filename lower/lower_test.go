package lower

import (
	"reflect"
	"testing"

	"github.com/ambralang/ambra/ir"
	"github.com/ambralang/ambra/lexer"
	"github.com/ambralang/ambra/parser"
	"github.com/ambralang/ambra/resolver"
	"github.com/ambralang/ambra/typecheck"
)

func lowerSource(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, diags := parser.Parse(lexer.Lex(src))
	if len(diags) != 0 {
		t.Fatalf("source %q: parse diagnostics: %v", src, diags)
	}
	res := resolver.Resolve(prog)
	if res.HadError() {
		t.Fatalf("source %q: resolve diagnostics: %v", src, res.Diagnostics)
	}
	typed := typecheck.Check(prog, res)
	if typed.HadError() {
		t.Fatalf("source %q: type diagnostics: %v", src, typed.Diagnostics)
	}
	out, internal := Program(prog, res, typed)
	if len(internal) != 0 {
		t.Fatalf("source %q: internal diagnostics: %v", src, internal)
	}
	if faults := ir.Validate(out); len(faults) != 0 {
		t.Fatalf("source %q: validator faults: %v", src, faults)
	}
	return out
}

func instrStrings(p *ir.Program) []string {
	out := make([]string, 0, len(p.Main.Instrs))
	for _, ins := range p.Main.Instrs {
		out = append(out, ins.String())
	}
	return out
}

func wantInstrs(t *testing.T, src string, want []string) *ir.Program {
	t.Helper()
	p := lowerSource(t, src)
	got := instrStrings(p)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("\nsource:\n%s\nwant:\n%v\ngot:\n%v", src, want, got)
	}
	return p
}

func TestLowerDeclareAndPrint(t *testing.T) {
	p := wantInstrs(t, "summon x = 10;\nsay x;", []string{
		"push_const c0",
		"store_local $0",
		"load_local $0",
		"to_string",
		"print_string",
	})
	if len(p.Main.Locals) != 1 {
		t.Fatalf("got %d locals", len(p.Main.Locals))
	}
	loc := p.Main.Locals[0]
	if loc.Type != ir.I32 || loc.DebugName != "x" || loc.DeclLoc.Line != 1 {
		t.Errorf("local info = %+v", loc)
	}
	if len(p.Constants) != 1 || p.Constants[0].Type != ir.I32 || p.Constants[0].I32 != 10 {
		t.Errorf("constants = %+v", p.Constants)
	}
}

func TestLowerArithmetic(t *testing.T) {
	wantInstrs(t, "say 1 + 2 * 3;", []string{
		"push_const c0",
		"push_const c1",
		"push_const c2",
		"mul_i32",
		"add_i32",
		"to_string",
		"print_string",
	})
	wantInstrs(t, "summon x = 1 + 2 * 3;", []string{
		"push_const c0",
		"push_const c1",
		"push_const c2",
		"mul_i32",
		"add_i32",
		"store_local $0",
	})
}

func TestLowerUnary(t *testing.T) {
	wantInstrs(t, "summon b = not affirmative;\nsummon n = -3;", []string{
		"push_const c0",
		"not_bool",
		"store_local $0",
		"push_const c1",
		"neg_i32",
		"store_local $1",
	})
}

func TestLowerComparisonAndEquality(t *testing.T) {
	cases := []struct {
		src string
		op  string
	}{
		{"say 1 < 2;", "cmp_lt_i32"},
		{"say 1 <= 2;", "cmp_lteq_i32"},
		{"say 1 > 2;", "cmp_gt_i32"},
		{"say 1 >= 2;", "cmp_gteq_i32"},
		{"say 1 == 2;", "cmp_eq_i32"},
		{"say 1 != 2;", "cmp_neq_i32"},
		{"say affirmative == negative;", "cmp_eq_bool32"},
		{"say affirmative != negative;", "cmp_neq_bool32"},
	}
	for _, tc := range cases {
		wantInstrs(t, tc.src, []string{
			"push_const c0",
			"push_const c1",
			tc.op,
			"to_string",
			"print_string",
		})
	}
}

func TestLowerStringEquality(t *testing.T) {
	// each literal lowers as an interpolation of one text part
	wantInstrs(t, `say "a" == "b";`, []string{
		"push_const c0",
		"push_const c1",
		"cmp_eq_string32",
		"to_string",
		"print_string",
	})
}

func TestLowerIfChain(t *testing.T) {
	wantInstrs(t, `
summon x = 10;
should (x > 5) { say 1; }
otherwise { say 2; }
`, []string{
		"push_const c0",
		"store_local $0",
		"load_local $0",
		"push_const c1",
		"cmp_gt_i32",
		"jump_if_false @1",
		"push_const c2",
		"to_string",
		"print_string",
		"jump @0",
		"label @1",
		"push_const c3",
		"to_string",
		"print_string",
		"label @0",
	})
}

func TestLowerIfChainMultipleBranches(t *testing.T) {
	p := wantInstrs(t, `
summon x = 1;
should (x == 1) { say 1; }
otherwise should (x == 2) { say 2; }
`, []string{
		"push_const c0",
		"store_local $0",
		"load_local $0",
		"push_const c1",
		"cmp_eq_i32",
		"jump_if_false @1",
		"push_const c2",
		"to_string",
		"print_string",
		"jump @0",
		"label @1",
		"load_local $0",
		"push_const c3",
		"cmp_eq_i32",
		"jump_if_false @2",
		"push_const c4",
		"to_string",
		"print_string",
		"jump @0",
		"label @2",
		"label @0",
	})
	// all three labels bound, each exactly once
	for _, lbl := range p.Main.Labels {
		if lbl.Index < 0 {
			t.Errorf("label @%d unbound", lbl.ID)
		}
	}
}

func TestLowerWhile(t *testing.T) {
	wantInstrs(t, "summon n = 0;\naslongas (n > 0) { say n; }", []string{
		"push_const c0",
		"store_local $0",
		"label @0",
		"load_local $0",
		"push_const c1",
		"cmp_gt_i32",
		"jump_if_false @1",
		"load_local $0",
		"to_string",
		"print_string",
		"jump @0",
		"label @1",
	})
}

func TestLowerInterpolation(t *testing.T) {
	// five parts, so five pushes interleaved with four concatenations
	p := wantInstrs(t, "summon x = 1;\nsummon y = 2;\nsay \"x={x}, y={y}\";", []string{
		"push_const c0",
		"store_local $0",
		"push_const c1",
		"store_local $1",
		"push_const c2",
		"load_local $0",
		"to_string",
		"concat_string",
		"push_const c3",
		"concat_string",
		"load_local $1",
		"to_string",
		"concat_string",
		"push_const c4",
		"concat_string",
		"print_string",
	})
	texts := map[ir.ConstID]string{2: "x=", 3: ", y=", 4: ""}
	for id, want := range texts {
		c := p.Constants[id]
		if c.Type != ir.String32 || c.Str != want {
			t.Errorf("constant c%d = %+v, want string %q", id, c, want)
		}
	}
}

func TestLowerShadowedLocalsGetDistinctSlots(t *testing.T) {
	wantInstrs(t, "summon x = 1;\n{\nsummon x = 2;\nsay x;\n}\nsay x;", []string{
		"push_const c0",
		"store_local $0",
		"push_const c1",
		"store_local $1",
		"load_local $1",
		"to_string",
		"print_string",
		"load_local $0",
		"to_string",
		"print_string",
	})
}

func TestLowerConstantsNotDeduplicated(t *testing.T) {
	p := lowerSource(t, "say 1 + 1;")
	if len(p.Constants) != 2 {
		t.Fatalf("got %d constants: %+v", len(p.Constants), p.Constants)
	}
	if p.Constants[0].I32 != 1 || p.Constants[1].I32 != 1 {
		t.Errorf("constants = %+v", p.Constants)
	}
}

func TestLowerStringSayHasNoToString(t *testing.T) {
	wantInstrs(t, `say "plain";`, []string{
		"push_const c0",
		"print_string",
	})
}

func TestLowerFormat(t *testing.T) {
	p := lowerSource(t, "summon x = 10;\nsay x;")
	want := "ambra-ir v0\n" +
		"const c0 i32 10\n" +
		"fn main\n" +
		"  local $0 i32 ; x\n" +
		"     0  push_const c0\n" +
		"     1  store_local $0\n" +
		"     2  load_local $0\n" +
		"     3  to_string\n" +
		"     4  print_string\n"
	if got := p.Format(); got != want {
		t.Fatalf("Format:\n%q\nwant:\n%q", got, want)
	}
}
