package errors

import (
	"fmt"
	"sort"

	"github.com/ambralang/ambra/types"
)

// Diagnostic is the unit every pass reports problems in: a message tied to
// the source position where the problem was detected.
type Diagnostic struct {
	Message string
	Loc     types.Position
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: error: %s", d.Loc, d.Message)
}

// Sort orders diagnostics by position so output is stable regardless of
// the order passes discovered them in.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Loc, diags[j].Loc
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

type ExpectedKindGotKind struct {
	Expected types.TokenKind
	Got      types.TokenKind
	Location types.Position
}

func (e ExpectedKindGotKind) Error() string {
	return fmt.Sprintf("got a %s, expected a %s. %s", e.Got, e.Expected, e.Location)
}

func (e ExpectedKindGotKind) Diagnostic() Diagnostic {
	return Diagnostic{
		Message: fmt.Sprintf("expected %s, got %s", e.Expected, e.Got),
		Loc:     e.Location,
	}
}

type ExpectedOneOfKindGotKind struct {
	Expected []types.TokenKind
	Got      types.TokenKind
	Location types.Position
}

func (e ExpectedOneOfKindGotKind) Error() string {
	return fmt.Sprintf("got a %s, expected one of %v. %s", e.Got, e.Expected, e.Location)
}

func (e ExpectedOneOfKindGotKind) Diagnostic() Diagnostic {
	return Diagnostic{
		Message: fmt.Sprintf("expected one of %v, got %s", e.Expected, e.Got),
		Loc:     e.Location,
	}
}

// LexFailed is raised by the parser when the token stream it was handed
// ends in an ERROR token; the lexer's message travels with it.
type LexFailed struct {
	Message  string
	Location types.Position
}

func (e LexFailed) Error() string {
	return fmt.Sprintf("%s. %s", e.Message, e.Location)
}

func (e LexFailed) Diagnostic() Diagnostic {
	return Diagnostic{Message: e.Message, Loc: e.Location}
}
