package lexer

import (
	"strconv"

	"github.com/ambralang/ambra/types"
)

// mode is the lexical state. STRING and INTERP_EXPR exist because string
// interpolation makes string literals token *sequences* rather than single
// tokens: text chunks interleaved with the tokens of embedded expressions.
type mode int

const (
	modeNormal mode = iota
	modeString
	modeInterp
)

var keywords = map[string]types.TokenKind{
	"summon":    types.SUMMON,
	"should":    types.SHOULD,
	"otherwise": types.OTHERWISE,
	"aslongas":  types.ASLONGAS,
	"say":       types.SAY,
	"not":       types.NOT,
}

// Lex scans source into a token sequence ending in exactly one EOF token,
// or ending in a single ERROR token with no EOF after it. Whitespace and
// comments are scanned as SKIP tokens internally and filtered out here.
func Lex(source string) []types.Token {
	raw := scan(source, "")
	out := make([]types.Token, 0, len(raw))
	for _, t := range raw {
		if t.Kind == types.SKIP {
			continue
		}
		out = append(out, t)
	}
	return out
}

// LexFile is Lex with a filename attached to every position.
func LexFile(source string, filename string) []types.Token {
	raw := scan(source, filename)
	out := make([]types.Token, 0, len(raw))
	for _, t := range raw {
		if t.Kind == types.SKIP {
			continue
		}
		out = append(out, t)
	}
	return out
}

func scan(source string, filename string) []types.Token {
	l := &lexer{
		src: source,
		loc: types.Position{Line: 1, Column: 1, Filename: filename},
	}
	for !l.done {
		switch l.mode {
		case modeString:
			l.lexStringChunk()
		default:
			l.lexNormal()
		}
	}
	return l.tokens
}

type lexer struct {
	src    string
	pos    int
	loc    types.Position // position of the next unconsumed character
	mode   mode
	triple bool // current string literal is triple-quoted
	tokens []types.Token
	done   bool
}

func (l *lexer) atEOF() bool { return l.pos >= len(l.src) }

func (l *lexer) peek() byte { return l.src[l.pos] }

func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) next() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.loc.Line++
		l.loc.Column = 1
	} else {
		l.loc.Column++
	}
	return ch
}

func (l *lexer) emit(k types.TokenKind, lexeme string, lit types.Literal, at types.Position) {
	l.tokens = append(l.tokens, types.Token{Kind: k, Lexeme: lexeme, Literal: lit, Pos: at})
}

// fail emits an ERROR token and halts the scan; any tokens after the first
// ERROR would be garbage, so none are produced.
func (l *lexer) fail(msg string, at types.Position) {
	l.emit(types.ERROR, "", types.StringLit(msg), at)
	l.done = true
}

func (l *lexer) finish() {
	l.emit(types.EOF, "", nil, l.loc)
	l.done = true
}

func (l *lexer) lexNormal() {
	at := l.loc
	if l.atEOF() {
		if l.mode != modeNormal {
			l.fail("unterminated string", at)
			return
		}
		l.finish()
		return
	}

	ch := l.peek()

	switch {
	case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
		for !l.atEOF() {
			c := l.peek()
			if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
				break
			}
			l.next()
		}
		l.emit(types.SKIP, "", nil, at)
		return
	case ch == '<' && l.peekAt(1) == '/':
		l.lexComment(at)
		return
	case isDigit(ch):
		l.lexNumber(at)
		return
	case firstChar(ch):
		l.lexIdent(at)
		return
	case ch == '"':
		if l.mode == modeInterp {
			l.fail("string literal inside interpolation", at)
			return
		}
		l.next()
		l.triple = false
		if l.peek0() == '"' && l.peekAt(1) == '"' {
			l.next()
			l.next()
			l.triple = true
		}
		l.mode = modeString
		return
	}

	l.next()

	two := map[string]types.TokenKind{
		"==": types.EQEQ,
		"!=": types.BANGEQ,
		"<=": types.LESSEQ,
		">=": types.GREATEREQ,
	}
	if !l.atEOF() {
		pair := string(ch) + string(l.peek())
		if kind, ok := two[pair]; ok {
			l.next()
			l.emit(kind, pair, nil, at)
			return
		}
	}

	one := map[byte]types.TokenKind{
		'+': types.PLUS,
		'-': types.MINUS,
		'*': types.STAR,
		'/': types.SLASH,
		'=': types.EQUALS,
		'<': types.LESS,
		'>': types.GREATER,
		';': types.SEMICOLON,
		',': types.COMMA,
		'(': types.LPAREN,
		')': types.RPAREN,
	}
	if kind, ok := one[ch]; ok {
		l.emit(kind, string(ch), nil, at)
		return
	}

	switch ch {
	case '{':
		if l.mode == modeInterp {
			l.fail("'{' not allowed inside interpolation", at)
			return
		}
		l.emit(types.LBRACE, "{", nil, at)
	case '}':
		if l.mode == modeInterp {
			l.emit(types.INTERP_END, "}", nil, at)
			l.mode = modeString
			return
		}
		l.emit(types.RBRACE, "}", nil, at)
	case '!':
		l.fail("unexpected character '!' (use the word 'not')", at)
	default:
		l.fail("unexpected character "+strconv.QuoteRune(rune(ch)), at)
	}
}

func (l *lexer) peek0() byte {
	if l.atEOF() {
		return 0
	}
	return l.peek()
}

func (l *lexer) lexComment(at types.Position) {
	l.next() // <
	l.next() // /
	if l.peek0() == '\n' {
		// multi-line form: </ on its own, closed by />
		for {
			if l.atEOF() {
				l.fail("unterminated comment", at)
				return
			}
			if l.peek() == '/' && l.peekAt(1) == '>' {
				l.next()
				l.next()
				l.emit(types.SKIP, "", nil, at)
				return
			}
			l.next()
		}
	}
	for !l.atEOF() && l.peek() != '\n' {
		l.next()
	}
	l.emit(types.SKIP, "", nil, at)
}

func (l *lexer) lexNumber(at types.Position) {
	start := l.pos
	for !l.atEOF() && isDigit(l.peek()) {
		l.next()
	}
	lexeme := l.src[start:l.pos]
	parsed, err := strconv.ParseInt(lexeme, 10, 32)
	if err != nil {
		l.fail("integer literal out of range: "+lexeme, at)
		return
	}
	l.emit(types.INT, lexeme, types.IntLit(int32(parsed)), at)
}

func (l *lexer) lexIdent(at types.Position) {
	start := l.pos
	l.next()
	for !l.atEOF() && otherChar(l.peek()) {
		l.next()
	}
	lexeme := l.src[start:l.pos]

	switch lexeme {
	case "affirmative":
		l.emit(types.BOOL, lexeme, types.BoolLit(true), at)
		return
	case "negative":
		l.emit(types.BOOL, lexeme, types.BoolLit(false), at)
		return
	}
	if kind, ok := keywords[lexeme]; ok {
		l.emit(kind, lexeme, nil, at)
		return
	}
	l.emit(types.IDENT, lexeme, nil, at)
}

// lexStringChunk scans text until the string closes, an interpolation
// opens, or the literal turns out to be unterminated.
func (l *lexer) lexStringChunk() {
	at := l.loc
	var text []byte

	for {
		if l.atEOF() {
			l.fail("unterminated string", at)
			return
		}
		ch := l.peek()

		if ch == '"' {
			if !l.triple {
				l.next()
				l.closeChunk(text, at)
				return
			}
			if l.peekAt(1) == '"' && l.peekAt(2) == '"' {
				l.next()
				l.next()
				l.next()
				l.closeChunk(text, at)
				return
			}
			l.next()
			text = append(text, ch)
			continue
		}

		if ch == '\n' && !l.triple {
			l.fail("unterminated string", at)
			return
		}

		if ch == '{' {
			interpAt := l.loc
			l.next()
			l.emit(types.STRING, string(text), types.StringLit(text), at)
			l.emit(types.INTERP_START, "{", nil, interpAt)
			l.mode = modeInterp
			return
		}

		if ch == '\\' {
			escAt := l.loc
			l.next()
			if l.atEOF() {
				l.fail("unterminated string", escAt)
				return
			}
			esc := l.next()
			switch esc {
			case '\\', '"', '{', '}':
				text = append(text, esc)
			case 'n':
				text = append(text, '\n')
			case 't':
				text = append(text, '\t')
			case 'r':
				text = append(text, '\r')
			default:
				// unknown escapes pass through verbatim
				text = append(text, '\\', esc)
			}
			continue
		}

		l.next()
		text = append(text, ch)
	}
}

// closeChunk emits the final text chunk of a string literal, empty or
// not. The chunk after the last interpolation group must always appear so
// the parser can tell a continuation chunk from the start of a separate
// string literal.
func (l *lexer) closeChunk(text []byte, at types.Position) {
	l.emit(types.STRING, string(text), types.StringLit(text), at)
	l.mode = modeNormal
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func firstChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func otherChar(ch byte) bool { return firstChar(ch) || isDigit(ch) }
