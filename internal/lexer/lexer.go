package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/skhderrors"
)

// Lexer turns skhdrc source text into a stream of Tokens.
type Lexer struct {
	path   string
	src    string
	pos    int // byte offset of the next unread rune
	line   int
	column int
}

// New returns a Lexer over src, reporting positions against path (used only
// to build error messages).
func New(path, src string) *Lexer {
	return &Lexer{path: path, src: src, pos: 0, line: 1, column: 1}
}

func (l *Lexer) errorf(format string, args ...any) error {
	return skhderrors.NewParseError(skhderrors.ErrInvalidUTF8, l.path, l.line, l.column, "", fmt.Sprintf(format, args...))
}

// peek returns the next rune without consuming it, or 0, 0 at EOF.
func (l *Lexer) peek() (rune, int) {
	if l.pos >= len(l.src) {
		return 0, 0
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	return r, size
}

func (l *Lexer) advance() rune {
	r, size := l.peek()
	l.pos += size
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.src)
}

// skipWhitespaceAndComments skips ASCII whitespace and '#'-to-end-of-line
// comments, including across continued lines.
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEOF() {
		r, _ := l.peek()
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
		case r == '#':
			for !l.atEOF() {
				r, _ := l.peek()
				if r == '\n' {
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next Token, or an EOF-kind Token when the input is
// exhausted. An error is returned for invalid UTF-8, for a ';' or '.' not
// followed by an identifier, and for an unterminated string.
func (l *Lexer) Next() (Token, error) {
	if !utf8.ValidString(l.src[l.pos:]) {
		return Token{}, l.errorf("invalid utf8")
	}

	l.skipWhitespaceAndComments()

	line, col := l.line, l.column
	if l.atEOF() {
		return Token{Kind: EOF, Line: line, Column: col}, nil
	}

	r, _ := l.peek()
	switch {
	case r == ':':
		return l.lexColon(line, col)
	case r == ';':
		l.advance()
		return l.lexActivate(line, col)
	case r == '.':
		l.advance()
		return l.lexOption(line, col)
	case r == '"':
		return l.lexString(line, col)
	case r == '<':
		l.advance()
		return Token{Kind: Insert, Text: "<", Line: line, Column: col}, nil
	case r == '-':
		l.advance()
		if nr, _ := l.peek(); nr == '>' {
			l.advance()
			return Token{Kind: Arrow, Text: "->", Line: line, Column: col}, nil
		}
		return Token{Kind: Dash, Text: "-", Line: line, Column: col}, nil
	case r == '+':
		l.advance()
		return Token{Kind: Plus, Text: "+", Line: line, Column: col}, nil
	case r == ',':
		l.advance()
		return Token{Kind: Comma, Text: ",", Line: line, Column: col}, nil
	case r == '@':
		l.advance()
		return Token{Kind: Capture, Text: "@", Line: line, Column: col}, nil
	case r == '~':
		l.advance()
		return Token{Kind: Unbound, Text: "~", Line: line, Column: col}, nil
	case r == '*':
		l.advance()
		return Token{Kind: Wildcard, Text: "*", Line: line, Column: col}, nil
	case r == '[':
		l.advance()
		return Token{Kind: BeginList, Text: "[", Line: line, Column: col}, nil
	case r == ']':
		l.advance()
		return Token{Kind: EndList, Text: "]", Line: line, Column: col}, nil
	case r == '=':
		l.advance()
		return Token{Kind: Equals, Text: "=", Line: line, Column: col}, nil
	case r == '|':
		l.advance()
		return Token{Kind: Forward, Text: "|", Line: line, Column: col}, nil
	case r >= '0' && r <= '9':
		return l.lexIdentifierLike(line, col)
	case isIdentStart(r):
		return l.lexIdentifierLike(line, col)
	default:
		l.advance()
		return Token{Kind: Unknown, Text: string(r), Line: line, Column: col}, nil
	}
}

func (l *Lexer) lexColon(line, col int) (Token, error) {
	l.advance() // consume ':'
	if nr, _ := l.peek(); nr == ':' {
		l.advance()
		return Token{Kind: Decl, Text: "::", Line: line, Column: col}, nil
	}
	// Skip leading spaces/tabs before the command body (not newlines).
	for {
		r, _ := l.peek()
		if r == ' ' || r == '\t' {
			l.advance()
			continue
		}
		break
	}
	var b strings.Builder
	for !l.atEOF() {
		r, _ := l.peek()
		if r == '\\' {
			// Look ahead: backslash immediately followed by a newline (or
			// CRLF) continues to the next physical line; any other backslash
			// is preserved verbatim.
			save := l.pos
			saveLine, saveCol := l.line, l.column
			l.advance()
			nr, _ := l.peek()
			if nr == '\n' {
				l.advance()
				b.WriteByte('\n')
				continue
			}
			if nr == '\r' {
				l.advance()
				if nr2, _ := l.peek(); nr2 == '\n' {
					l.advance()
				}
				b.WriteByte('\n')
				continue
			}
			l.pos, l.line, l.column = save, saveLine, saveCol
			b.WriteRune(r)
			l.advance()
			continue
		}
		if r == '\n' {
			break
		}
		b.WriteRune(r)
		l.advance()
	}
	return Token{Kind: Command, Text: b.String(), Line: line, Column: col}, nil
}

func (l *Lexer) lexActivate(line, col int) (Token, error) {
	for {
		r, _ := l.peek()
		if r == ' ' || r == '\t' {
			l.advance()
			continue
		}
		break
	}
	ident := l.readIdentifierRunes()
	if ident == "" {
		return Token{}, skhderrors.NewParseError(skhderrors.ErrUnexpectedToken, l.path, line, col, ";", "expected identifier after ';'")
	}
	return Token{Kind: Activate, Text: ident, Line: line, Column: col}, nil
}

func (l *Lexer) lexOption(line, col int) (Token, error) {
	ident := l.readIdentifierRunes()
	if ident == "" {
		return Token{}, skhderrors.NewParseError(skhderrors.ErrUnexpectedToken, l.path, line, col, ".", "expected identifier after '.'")
	}
	return Token{Kind: Option, Text: ident, Line: line, Column: col}, nil
}

func (l *Lexer) lexString(line, col int) (Token, error) {
	l.advance() // consume opening quote
	var b strings.Builder
	for {
		if l.atEOF() {
			return Token{}, skhderrors.NewParseError(skhderrors.ErrUnexpectedToken, l.path, line, col, "\"", "unterminated string")
		}
		r, _ := l.peek()
		if r == '"' {
			l.advance()
			break
		}
		b.WriteRune(r)
		l.advance()
	}
	return Token{Kind: String, Text: b.String(), Line: line, Column: col}, nil
}

// lexIdentifierLike reads a run of identifier characters and classifies it
// as a Modifier, Literal, KeyHex, Key (single char), or plain Identifier.
func (l *Lexer) lexIdentifierLike(line, col int) (Token, error) {
	ident := l.readIdentifierRunes()

	if strings.HasPrefix(ident, "0x") || strings.HasPrefix(ident, "0X") {
		return Token{Kind: KeyHex, Text: ident, Line: line, Column: col}, nil
	}
	lower := strings.ToLower(ident)
	if _, ok := keycodes.ModifierNames[lower]; ok {
		return Token{Kind: Modifier, Text: lower, Line: line, Column: col}, nil
	}
	if _, ok := keycodes.LiteralKeys[lower]; ok {
		return Token{Kind: Literal, Text: lower, Line: line, Column: col}, nil
	}
	if utf8.RuneCountInString(ident) == 1 {
		return Token{Kind: Key, Text: ident, Line: line, Column: col}, nil
	}
	return Token{Kind: Identifier, Text: ident, Line: line, Column: col}, nil
}

// readIdentifierRunes consumes and returns a maximal run of identifier
// characters (ASCII letters, digits, underscore, and any non-ASCII rune).
// Dashes and dots end the run.
func (l *Lexer) readIdentifierRunes() string {
	var b strings.Builder
	for !l.atEOF() {
		r, _ := l.peek()
		if isIdentPart(r) {
			b.WriteRune(r)
			l.advance()
			continue
		}
		break
	}
	return b.String()
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > utf8.RuneSelf
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}
