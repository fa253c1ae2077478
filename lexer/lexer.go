package lexer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const maxStringLength = 1024

// Lexer is the lexical analyzer.
type Lexer struct {
	reader *bufio.Reader
	line   int
	column int
	char   rune
}

// NewLexer creates a new lexer from an io.Reader
func NewLexer(reader io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(reader),
		line:   1,
		column: 0,
		char:   ' ',
	}
}

// Tokenize scans the whole input, EOF token included.
func Tokenize(reader io.Reader) []Token {
	l := NewLexer(reader)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks
		}
	}
}

func (l *Lexer) readChar() {
	var err error
	l.char, _, err = l.reader.ReadRune()
	if err != nil {
		l.char = 0 // EOF
	}

	l.column++
	if l.char == '\n' {
		l.line++
		l.column = 0
	}
}

func (l *Lexer) peekChar() rune {
	char, _, err := l.reader.ReadRune()
	if err != nil {
		return 0
	}
	_ = l.reader.UnreadRune()
	return char
}

func (l *Lexer) skipWhiteSpace() {
	for unicode.IsSpace(l.char) {
		l.readChar()
	}
}

func (l *Lexer) readWhile(pred func(rune) bool) string {
	var sb strings.Builder
	for pred(l.char) {
		sb.WriteRune(l.char)
		l.readChar()
	}
	return sb.String()
}

func isIdentifierStart(char rune) bool {
	return unicode.IsLetter(char) || char == '_'
}

func isIdentifierPart(char rune) bool {
	return isIdentifierStart(char) || unicode.IsDigit(char)
}

func (l *Lexer) readString() (string, error) {
	var sb strings.Builder
	startLine, startCol := l.line, l.column

	l.readChar() // opening quote
	for l.char != '"' {
		switch l.char {
		case 0:
			return "", fmt.Errorf("EOF in string constant at line %d, column %d", startLine, startCol)
		case '\n':
			return "", fmt.Errorf("unterminated string constant at line %d, column %d", startLine, startCol)
		case '\\':
			l.readChar()
			switch l.char {
			case 'b':
				sb.WriteRune('\b')
			case 't':
				sb.WriteRune('\t')
			case 'n':
				sb.WriteRune('\n')
			case 'f':
				sb.WriteRune('\f')
			case '0':
				return "", fmt.Errorf("string constant contains escaped null character at line %d, column %d", l.line, l.column)
			default:
				sb.WriteRune(l.char)
			}
		default:
			sb.WriteRune(l.char)
		}
		l.readChar()
	}
	l.readChar() // closing quote

	str := sb.String()
	if len(str) > maxStringLength {
		return "", fmt.Errorf("string constant too long (max %d chars) at line %d, column %d", maxStringLength, startLine, startCol)
	}
	return str, nil
}

// skipComment consumes a `--` line comment or a nested `(* *)` comment.
// It reports false for a block comment left open at EOF.
func (l *Lexer) skipComment() bool {
	if l.char == '-' {
		for l.char != '\n' && l.char != 0 {
			l.readChar()
		}
		return true
	}

	l.readChar() // (
	l.readChar() // *
	for nesting := 1; nesting > 0; {
		switch {
		case l.char == 0:
			return false
		case l.char == '(' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			nesting++
		case l.char == '*' && l.peekChar() == ')':
			l.readChar()
			l.readChar()
			nesting--
		default:
			l.readChar()
		}
	}
	return true
}

// single maps one-character tokens that never need lookahead.
var single = map[rune]TokenType{
	')': RPAREN,
	'{': LBRACE,
	'}': RBRACE,
	';': SEMI,
	':': COLON,
	',': COMMA,
	'+': PLUS,
	'*': TIMES,
	'/': DIVIDE,
	'~': NEG,
	'.': DOT,
	'@': AT,
}

func (l *Lexer) NextToken() Token {
	l.skipWhiteSpace()

	tok := Token{Line: l.line, Column: l.column}

	if tt, ok := single[l.char]; ok && !(l.char == '*' && l.peekChar() == ')') {
		tok.Type = tt
		tok.Literal = string(l.char)
		l.readChar()
		return tok
	}

	switch {
	case l.char == 0:
		tok.Type = EOF
	case (l.char == '(' && l.peekChar() == '*') || (l.char == '-' && l.peekChar() == '-'):
		if !l.skipComment() {
			tok.Type = ERROR
			tok.Literal = "EOF in comment"
			return tok
		}
		return l.NextToken()
	case l.char == '*' && l.peekChar() == ')':
		l.readChar()
		l.readChar()
		tok.Type = ERROR
		tok.Literal = "unmatched *)"
	case l.char == '(':
		tok.Type = LPAREN
		tok.Literal = "("
		l.readChar()
	case l.char == '-':
		tok.Type = MINUS
		tok.Literal = "-"
		l.readChar()
	case l.char == '=':
		if l.peekChar() == '>' {
			l.readChar()
			tok.Type = DARROW
			tok.Literal = "=>"
		} else {
			tok.Type = EQ
			tok.Literal = "="
		}
		l.readChar()
	case l.char == '<':
		switch l.peekChar() {
		case '-':
			l.readChar()
			tok.Type = ASSIGN
			tok.Literal = "<-"
		case '=':
			l.readChar()
			tok.Type = LE
			tok.Literal = "<="
		default:
			tok.Type = LT
			tok.Literal = "<"
		}
		l.readChar()
	case l.char == '"':
		str, err := l.readString()
		if err != nil {
			tok.Type = ERROR
			tok.Literal = err.Error()
		} else {
			tok.Type = STR_CONST
			tok.Literal = str
		}
	case unicode.IsDigit(l.char):
		num := l.readWhile(unicode.IsDigit)
		if n, err := strconv.ParseInt(num, 10, 64); err != nil || n > math.MaxInt32 {
			tok.Type = ERROR
			tok.Literal = "number out of range: " + num
		} else {
			tok.Type = INT_CONST
			tok.Literal = num
		}
	case isIdentifierStart(l.char):
		identifier := l.readWhile(isIdentifierPart)
		tok.Literal = identifier
		lower := strings.ToLower(identifier)
		if tt, ok := keywords[lower]; ok {
			tok.Type = tt
			break
		}
		// true and false must start with a lower case letter
		if (lower == "true" || lower == "false") && unicode.IsLower(rune(identifier[0])) {
			tok.Type = BOOL_CONST
			tok.Literal = lower
			break
		}
		if unicode.IsUpper(rune(identifier[0])) {
			tok.Type = TYPEID
		} else {
			tok.Type = OBJECTID
		}
	default:
		tok.Type = ERROR
		tok.Literal = fmt.Sprintf("unexpected character: %c", l.char)
		l.readChar()
	}

	return tok
}
