package mathexpr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const eof = -1

// TokenType identifies a lexical token.
type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF
	TokenNumber
	TokenString
	TokenName
	TokenOperator
	TokenParenOpen
	TokenParenClose
	TokenComma
)

func (tt TokenType) String() string {
	switch tt {
	case TokenError:
		return "error"
	case TokenEOF:
		return "end of expression"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenName:
		return "name"
	case TokenOperator:
		return "operator"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenComma:
		return ","
	}
	return "unknown"
}

// Token is a lexical token. String tokens carry the unescaped text.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

// lexer splits expression text into tokens, one Next call at a time.
type lexer struct {
	input   string
	start   int
	current int
	width   int
	err     *Error
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

// next returns the next token. After the end of input it keeps returning TokenEOF.
func (l *lexer) next() Token {
	l.acceptAll(unicode.IsSpace)
	l.ignore()

	ch := l.nextRune()
	switch {
	case ch == eof:
		return Token{Type: TokenEOF, Position: l.current}
	case ch == '(':
		return l.newToken(TokenParenOpen)
	case ch == ')':
		return l.newToken(TokenParenClose)
	case ch == ',':
		return l.newToken(TokenComma)
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	case isDigit(ch) || (ch == '.' && isDigit(l.peek())):
		l.backup()
		return l.scanNumber()
	case isNameStart(ch):
		l.backup()
		return l.scanName()
	}

	switch ch {
	case '+', '-', '*', '/', '%':
		return l.newToken(TokenOperator)
	case '<', '>':
		l.acceptRune('=')
		return l.newToken(TokenOperator)
	case '=', '!':
		if l.acceptRune('=') {
			return l.newToken(TokenOperator)
		}
	}

	return l.error(ErrSyntaxError, "Unexpected character \""+string(ch)+"\"")
}

func (l *lexer) scanString(quote rune) Token {
	var b strings.Builder
	for {
		ch := l.nextRune()
		switch ch {
		case quote:
			t := l.newToken(TokenString)
			t.Value = b.String()
			return t
		case '\\':
			esc := l.nextRune()
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case eof:
				return l.error(ErrStringNotClosed, "Unterminated string literal")
			default:
				b.WriteRune(esc)
			}
		case eof:
			return l.error(ErrStringNotClosed, "Unterminated string literal")
		default:
			b.WriteRune(ch)
		}
	}
}

// scanNumber reads [0-9]*(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (l *lexer) scanNumber() Token {
	l.acceptAll(isDigit)
	if l.acceptRune('.') {
		l.acceptAll(isDigit)
	}
	if l.accept(func(r rune) bool { return r == 'e' || r == 'E' }) {
		l.accept(func(r rune) bool { return r == '+' || r == '-' })
		if !l.acceptAll(isDigit) {
			return l.error(ErrSyntaxError, "Invalid number exponent")
		}
	}
	return l.newToken(TokenNumber)
}

func (l *lexer) scanName() Token {
	l.acceptAll(isNamePart)
	return l.newToken(TokenName)
}

func (l *lexer) error(code ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = NewError(code, message, t.Position)
	return t
}

func (l *lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *lexer) nextRune() rune {
	if l.current >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *lexer) peek() rune {
	if l.current >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.current:])
	return r
}

func (l *lexer) backup() {
	l.current -= l.width
	l.width = 0
}

func (l *lexer) ignore() {
	l.start = l.current
}

func (l *lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool { return c == r })
}

func (l *lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isNamePart(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r)
}
