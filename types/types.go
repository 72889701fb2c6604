package types

import (
	"fmt"
)

type Position struct {
	Line     int
	Column   int
	Filename string
}

func (p Position) String() string {
	if p.Filename == "" {
		p.Filename = "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

type TokenKind int

const (
	EOF TokenKind = iota
	ERROR
	SKIP

	INT
	STRING
	BOOL
	IDENT

	SUMMON
	SHOULD
	OTHERWISE
	ASLONGAS
	SAY
	NOT

	PLUS
	MINUS
	STAR
	SLASH
	EQUALS
	EQEQ
	BANGEQ
	LESS
	LESSEQ
	GREATER
	GREATEREQ

	SEMICOLON
	COMMA
	LPAREN
	RPAREN
	LBRACE
	RBRACE

	INTERP_START
	INTERP_END
)

func (t TokenKind) String() string {
	data := map[TokenKind]string{
		EOF:          "EOF",
		ERROR:        "ERROR",
		SKIP:         "SKIP",
		INT:          "INT",
		STRING:       "STRING",
		BOOL:         "BOOL",
		IDENT:        "IDENT",
		SUMMON:       "SUMMON",
		SHOULD:       "SHOULD",
		OTHERWISE:    "OTHERWISE",
		ASLONGAS:     "ASLONGAS",
		SAY:          "SAY",
		NOT:          "NOT",
		PLUS:         "PLUS",
		MINUS:        "MINUS",
		STAR:         "STAR",
		SLASH:        "SLASH",
		EQUALS:       "EQUALS",
		EQEQ:         "EQEQ",
		BANGEQ:       "BANGEQ",
		LESS:         "LESS",
		LESSEQ:       "LESSEQ",
		GREATER:      "GREATER",
		GREATEREQ:    "GREATEREQ",
		SEMICOLON:    "SEMICOLON",
		COMMA:        "COMMA",
		LPAREN:       "LPAREN",
		RPAREN:       "RPAREN",
		LBRACE:       "LBRACE",
		RBRACE:       "RBRACE",
		INTERP_START: "INTERP_START",
		INTERP_END:   "INTERP_END",
	}
	return data[t]
}

// Literal is the optional payload a token carries: the parsed value of an
// INT, BOOL, or STRING token, or the message of an ERROR token.
type Literal interface {
	isLiteral()
}

type IntLit int32

func (v IntLit) isLiteral() {}

type BoolLit bool

func (v BoolLit) isLiteral() {}

type StringLit string

func (v StringLit) isLiteral() {}

type Token struct {
	Kind    TokenKind
	Lexeme  string
	Literal Literal
	Pos     Position
}

func (t Token) Is(k TokenKind) bool { return t.Kind == k }

func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s(%q=%v)", t.Kind, t.Lexeme, t.Literal)
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Lexeme)
}
