package cpd

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	kindIdentifier tokenKind = iota
	kindKeyword
	kindLiteral
	kindPunct
)

// Token is one lexical token with its 1-based source span.
type Token struct {
	Image   string
	Kind    tokenKind
	Line    int
	Col     int
	EndLine int
	EndCol  int
}

// LexicalError is returned for input the tokenizer cannot split.
type LexicalError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("lexical error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

var keywords = map[string]struct{}{}

func init() {
	for _, k := range []string{
		"abstract", "assert", "boolean", "break", "byte", "case", "catch", "char", "class", "const",
		"continue", "default", "do", "double", "else", "enum", "extends", "final", "finally", "float",
		"for", "goto", "if", "implements", "import", "instanceof", "int", "interface", "long", "native",
		"new", "package", "private", "protected", "public", "return", "short", "static", "strictfp",
		"super", "switch", "synchronized", "this", "throw", "throws", "transient", "try", "void",
		"volatile", "while", "var", "record", "yield", "fun", "val", "let", "function", "func",
		"null", "true", "false",
	} {
		keywords[k] = struct{}{}
	}
}

// TokenizeOptions control token normalization.
type TokenizeOptions struct {
	IgnoreLiterals    bool
	IgnoreIdentifiers bool
	IgnoreAnnotations bool
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func (l *lexer) peek(offset int) rune {
	p := l.pos
	for i := 0; i < offset && p < len(l.src); i++ {
		_, w := utf8.DecodeRuneInString(l.src[p:])
		p += w
	}
	if p >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[p:])
	return r
}

func (l *lexer) next() rune {
	r, w := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) done() bool { return l.pos >= len(l.src) }

// Tokenize splits C-family source text into tokens, dropping whitespace and comments.
func Tokenize(src string, opts TokenizeOptions) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	var out []Token
	skipNextIdentifier := false

	for !l.done() {
		r := l.peek(0)
		switch {
		case unicode.IsSpace(r):
			l.next()
			continue
		case r == '/' && l.peek(1) == '/':
			for !l.done() && l.peek(0) != '\n' {
				l.next()
			}
			continue
		case r == '/' && l.peek(1) == '*':
			line, col := l.line, l.col
			l.next()
			l.next()
			closed := false
			for !l.done() {
				if l.peek(0) == '*' && l.peek(1) == '/' {
					l.next()
					l.next()
					closed = true
					break
				}
				l.next()
			}
			if !closed {
				return out, &LexicalError{Line: line, Col: col, Msg: "unterminated comment"}
			}
			continue
		}

		start, line, col := l.pos, l.line, l.col
		kind := kindPunct
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
			for !l.done() {
				c := l.peek(0)
				if c != '_' && c != '$' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
					break
				}
				l.next()
			}
			kind = kindIdentifier
			if _, ok := keywords[l.src[start:l.pos]]; ok {
				kind = kindKeyword
			}
		case unicode.IsDigit(r):
			for !l.done() {
				c := l.peek(0)
				if c != '.' && c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
					break
				}
				l.next()
			}
			kind = kindLiteral
		case r == '"' || r == '\'' || r == '`':
			quote := l.next()
			closed := false
			for !l.done() {
				c := l.next()
				if c == '\\' && !l.done() {
					l.next()
					continue
				}
				if c == quote {
					closed = true
					break
				}
				if c == '\n' && quote != '`' {
					break
				}
			}
			if !closed {
				return out, &LexicalError{Line: line, Col: col, Msg: "unterminated literal"}
			}
			kind = kindLiteral
		default:
			l.next()
		}

		image := l.src[start:l.pos]
		if opts.IgnoreAnnotations {
			if kind == kindPunct && image == "@" {
				skipNextIdentifier = true
				continue
			}
			if skipNextIdentifier {
				skipNextIdentifier = false
				if kind == kindIdentifier {
					continue
				}
			}
		}
		if opts.IgnoreLiterals && kind == kindLiteral {
			image = "LITERAL"
		}
		if opts.IgnoreIdentifiers && kind == kindIdentifier {
			image = "ID"
		}
		out = append(out, Token{Image: image, Kind: kind, Line: line, Col: col, EndLine: l.line, EndCol: l.col - 1})
	}
	return out, nil
}
