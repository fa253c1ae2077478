package lexer

import "fmt"

type TokenType int

// The list of token types
const (
	EOF TokenType = iota
	ERROR

	// Keywords
	CLASS
	INHERITS
	ISVOID
	IF
	ELSE
	FI
	THEN
	LET
	IN
	WHILE
	CASE
	ESAC
	LOOP
	POOL
	NEW
	OF
	NOT

	// Constants
	STR_CONST
	BOOL_CONST
	INT_CONST

	// Identifiers
	TYPEID
	OBJECTID

	// Operators
	ASSIGN // <-
	DARROW // =>
	LT     // <
	LE     // <=
	EQ     // =
	PLUS   // +
	MINUS  // -
	TIMES  // *
	DIVIDE // /
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }
	SEMI   // ;
	COLON  // :
	COMMA  // ,
	DOT    // .
	AT     // @
	NEG    // ~
)

var tokenNames = [...]string{
	"EOF", "ERROR",
	"CLASS", "INHERITS", "ISVOID", "IF", "ELSE", "FI", "THEN",
	"LET", "IN", "WHILE", "CASE", "ESAC", "LOOP", "POOL",
	"NEW", "OF", "NOT",
	"STR_CONST", "BOOL_CONST", "INT_CONST",
	"TYPEID", "OBJECTID",
	"ASSIGN", "DARROW", "LT", "LE", "EQ", "PLUS", "MINUS",
	"TIMES", "DIVIDE", "LPAREN", "RPAREN", "LBRACE", "RBRACE",
	"SEMI", "COLON", "COMMA", "DOT", "AT", "NEG",
}

func (tt TokenType) String() string {
	if int(tt) < 0 || int(tt) >= len(tokenNames) {
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
	return tokenNames[tt]
}

// keywords are matched case-insensitively.
var keywords = map[string]TokenType{
	"class":    CLASS,
	"inherits": INHERITS,
	"isvoid":   ISVOID,
	"if":       IF,
	"fi":       FI,
	"else":     ELSE,
	"then":     THEN,
	"case":     CASE,
	"esac":     ESAC,
	"while":    WHILE,
	"loop":     LOOP,
	"pool":     POOL,
	"of":       OF,
	"let":      LET,
	"in":       IN,
	"new":      NEW,
	"not":      NOT,
}

// Token represents a lexical token with its type, value, and position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%d %s %q", t.Line, t.Column, t.Type, t.Literal)
}
