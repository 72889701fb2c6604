package typecheck

import (
	"testing"

	"github.com/ambralang/ambra/ast"
	"github.com/ambralang/ambra/ir"
	"github.com/ambralang/ambra/lexer"
	"github.com/ambralang/ambra/parser"
	"github.com/ambralang/ambra/resolver"
)

func check(t *testing.T, src string) (*ast.Program, *Result) {
	t.Helper()
	prog, diags := parser.Parse(lexer.Lex(src))
	if len(diags) != 0 {
		t.Fatalf("source %q: parse diagnostics: %v", src, diags)
	}
	res := resolver.Resolve(prog)
	if res.HadError() {
		t.Fatalf("source %q: resolve diagnostics: %v", src, res.Diagnostics)
	}
	return prog, Check(prog, res)
}

func checkClean(t *testing.T, src string) (*ast.Program, *Result) {
	t.Helper()
	prog, r := check(t, src)
	if r.HadError() {
		t.Fatalf("source %q: type diagnostics: %v", src, r.Diagnostics)
	}
	return prog, r
}

func messages(r *Result) []string {
	out := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		out = append(out, d.Message)
	}
	return out
}

func TestCheckLiteralAndVariableTypes(t *testing.T) {
	prog, r := checkClean(t, `summon n = 10; summon b = affirmative; summon s = "hi"; say n; say b; say s;`)
	wants := []ir.Type{ir.I32, ir.Bool32, ir.String32}
	for i, want := range wants {
		use := prog.Statements[3+i].(ast.Say).X
		if got := r.Types[use.ID()]; got != want {
			t.Errorf("say #%d: type %s, want %s", i, got, want)
		}
	}
}

func TestCheckOperatorTypes(t *testing.T) {
	cases := []struct {
		src  string
		want ir.Type
	}{
		{"say 1 + 2;", ir.I32},
		{"say 6 / 2 * 3 - 1;", ir.I32},
		{"say -5;", ir.I32},
		{"say 1 < 2;", ir.Bool32},
		{"say 1 >= 2;", ir.Bool32},
		{"say not affirmative;", ir.Bool32},
		{"say 1 == 2;", ir.Bool32},
		{"say affirmative != negative;", ir.Bool32},
		{`say "a" == "b";`, ir.Bool32},
		{"say (1 + 2);", ir.I32},
		{`say "n is {1 + 2}";`, ir.String32},
	}
	for _, tc := range cases {
		prog, r := checkClean(t, tc.src)
		x := prog.Statements[0].(ast.Say).X
		if got := r.Types[x.ID()]; got != tc.want {
			t.Errorf("%s: type %s, want %s", tc.src, got, tc.want)
		}
	}
}

func TestCheckEveryExpressionGetsAnEntry(t *testing.T) {
	prog, r := checkClean(t, "say (1 + 2) * 3;")
	var count int
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		count++
		if _, ok := r.Types[e.ID()]; !ok {
			t.Errorf("no type entry for %#v", e)
		}
		switch x := e.(type) {
		case ast.Binary:
			walk(x.Left)
			walk(x.Right)
		case ast.Grouping:
			walk(x.Inner)
		}
	}
	walk(prog.Statements[0].(ast.Say).X)
	if count != 5 {
		t.Fatalf("walked %d expressions, want 5", count)
	}
}

func TestCheckErrors(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"say 1 + affirmative;", "operand of '+' must be an integer, got bool32"},
		{`say "a" - "b";`, "operand of '-' must be an integer, got string32"},
		{"say affirmative < negative;", "operand of '<' must be an integer, got bool32"},
		{"say not 3;", "operand of 'not' must be a boolean, got i32"},
		{"say -affirmative;", "operand of '-' must be an integer, got bool32"},
		{`say 1 == "one";`, "cannot compare i32 with string32"},
		{`say affirmative == 1;`, "cannot compare bool32 with i32"},
		{"should (3) { say 1; }", "condition must be a boolean, got i32"},
		{`aslongas ("go") { say 1; }`, "condition must be a boolean, got string32"},
	}
	for _, tc := range cases {
		_, r := check(t, tc.src)
		msgs := messages(r)
		if len(msgs) != 1 || msgs[0] != tc.want {
			t.Errorf("%s: diagnostics %v, want [%q]", tc.src, msgs, tc.want)
		}
	}
}

func TestCheckMixedEqualityLocation(t *testing.T) {
	_, r := check(t, `say 1 == "one";`)
	if len(r.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics: %v", len(r.Diagnostics), r.Diagnostics)
	}
	// reported at the left operand, where the expression starts
	if r.Diagnostics[0].Loc.Column != 5 {
		t.Errorf("diagnostic at %v, want column 5", r.Diagnostics[0].Loc)
	}
}

func TestCheckVariableTypeFlowsThroughUses(t *testing.T) {
	_, r := check(t, "summon flag = affirmative;\nsay flag + 1;")
	want := "operand of '+' must be an integer, got bool32"
	msgs := messages(r)
	if len(msgs) != 1 || msgs[0] != want {
		t.Fatalf("diagnostics %v, want [%q]", msgs, want)
	}
}

func TestCheckUnresolvedIdentIsVoidAndQuiet(t *testing.T) {
	// resolution already reported the undeclared name; the checker must
	// not pile a second diagnostic onto the same identifier
	prog, _ := parser.Parse(lexer.Lex("say ghost + 1;"))
	res := resolver.Resolve(prog)
	if !res.HadError() {
		t.Fatal("expected a resolve diagnostic")
	}
	r := Check(prog, res)
	if r.HadError() {
		t.Fatalf("checker added diagnostics: %v", r.Diagnostics)
	}
	use := prog.Statements[0].(ast.Say).X.(ast.Binary).Left
	if got := r.Types[use.ID()]; got != ir.Void32 {
		t.Errorf("unresolved identifier typed %s, want void32", got)
	}
}

func TestCheckVoidRejectedWhereValueNeeded(t *testing.T) {
	prog, _ := parser.Parse(lexer.Lex(`say "{ghost}";`))
	res := resolver.Resolve(prog)
	r := Check(prog, res)
	want := "cannot interpolate a void expression"
	msgs := messages(r)
	if len(msgs) != 1 || msgs[0] != want {
		t.Fatalf("diagnostics %v, want [%q]", msgs, want)
	}
}

func TestCheckAllErrorsSurfaceInOnePass(t *testing.T) {
	_, r := check(t, "say 1 + affirmative;\nsay not 2;\nshould (5) { say 1; }")
	if len(r.Diagnostics) != 3 {
		t.Fatalf("got %d diagnostics: %v", len(r.Diagnostics), r.Diagnostics)
	}
}
