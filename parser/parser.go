package parser

import (
	"fmt"
	"strconv"

	"coolc/ast"
	"coolc/lexer"
)

const (
	_ int = iota
	LOWEST
	ASSIGN  // <- (lowest precedence)
	NOT     // not
	COMPARE // <=, <, =
	SUM     // +, -
	PRODUCT // *, /
	ISVOID  // isvoid
	NEG     // ~
	AT      // @
	DOT     // . (highest precedence)
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN: ASSIGN,
	lexer.EQ:     COMPARE,
	lexer.LE:     COMPARE,
	lexer.LT:     COMPARE,
	lexer.PLUS:   SUM,
	lexer.MINUS:  SUM,
	lexer.TIMES:  PRODUCT,
	lexer.DIVIDE: PRODUCT,
	lexer.AT:     AT,
	lexer.DOT:    DOT,
}

var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.PLUS:   ast.OpPlus,
	lexer.MINUS:  ast.OpMinus,
	lexer.TIMES:  ast.OpTimes,
	lexer.DIVIDE: ast.OpDivide,
}

var compareOps = map[lexer.TokenType]ast.CompareOp{
	lexer.LT: ast.OpLess,
	lexer.LE: ast.OpLessEqual,
	lexer.EQ: ast.OpEqual,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l              *lexer.Lexer
	curToken       lexer.Token
	peekToken      lexer.Token
	errors         []string
	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:              l,
		errors:         []string{},
		prefixParseFns: make(map[lexer.TokenType]prefixParseFn),
		infixParseFns:  make(map[lexer.TokenType]infixParseFn),
	}

	p.nextToken()
	p.nextToken()

	p.registerPrefix(lexer.INT_CONST, p.parseIntegerExpression)
	p.registerPrefix(lexer.STR_CONST, p.parseStringExpression)
	p.registerPrefix(lexer.BOOL_CONST, p.parseBoolExpression)
	p.registerPrefix(lexer.OBJECTID, p.parseObjectIdentifier)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(lexer.IF, p.parseIfExpression)
	p.registerPrefix(lexer.WHILE, p.parseWhileExpression)
	p.registerPrefix(lexer.LET, p.parseLetExpression)
	p.registerPrefix(lexer.CASE, p.parseCaseExpression)
	p.registerPrefix(lexer.NEW, p.parseNewExpression)
	p.registerPrefix(lexer.ISVOID, p.parseUnary(ast.OpIsVoid, ISVOID))
	p.registerPrefix(lexer.NOT, p.parseUnary(ast.OpNot, NOT))
	p.registerPrefix(lexer.NEG, p.parseUnary(ast.OpComplement, NEG))
	p.registerPrefix(lexer.LBRACE, p.parseBlockExpression)

	for tt := range binaryOps {
		p.registerInfix(tt, p.parseBinaryExpression)
	}
	for tt := range compareOps {
		p.registerInfix(tt, p.parseComparisonExpression)
	}
	p.registerInfix(lexer.ASSIGN, p.parseAssignment)
	p.registerInfix(lexer.DOT, p.parseDispatch)
	p.registerInfix(lexer.AT, p.parseDispatch)

	return p
}

func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	if p.peekToken.Type == lexer.ERROR {
		p.errors = append(p.errors, fmt.Sprintf("lexical error at line %d col %d: %s",
			p.peekToken.Line, p.peekToken.Column, p.peekToken.Literal))
	}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectAndPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t lexer.TokenType) {
	p.errors = append(p.errors, fmt.Sprintf("Expected next token to be %v, got %v line %d col %d",
		t, p.peekToken.Type, p.peekToken.Line, p.peekToken.Column))
}

func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{Classes: []*ast.Class{}}

	for !p.curTokenIs(lexer.EOF) {
		class := p.ParseClass()
		if class == nil {
			break
		}
		prog.Classes = append(prog.Classes, class)

		// After each class, expect a semicolon
		if !p.expectAndPeek(lexer.SEMI) {
			break
		}
		p.nextToken()
	}

	return prog
}

// | class TYPE [inherits TYPE] { [[feature;]]* }
func (p *Parser) ParseClass() *ast.Class {
	if !p.curTokenIs(lexer.CLASS) {
		p.errors = append(p.errors, fmt.Sprintf("Expected class, got %s line %d col %d",
			p.curToken.Type, p.curToken.Line, p.curToken.Column))
		return nil
	}

	c := &ast.Class{Token: p.curToken}

	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	c.Name = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(lexer.INHERITS) {
		p.nextToken()
		if !p.expectAndPeek(lexer.TYPEID) {
			return nil
		}
		c.Parent = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}
	} else {
		c.Parent = &ast.TypeIdentifier{
			Token: lexer.Token{Type: lexer.TYPEID, Literal: "Object", Line: c.Token.Line, Column: c.Token.Column},
			Value: "Object",
		}
	}

	if !p.expectAndPeek(lexer.LBRACE) {
		return nil
	}

	c.Features = []ast.Feature{}
	p.nextToken()

	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		feature := p.parseFeature()
		if feature == nil {
			return nil
		}
		c.Features = append(c.Features, feature)

		// Each feature must end with a semicolon
		if !p.expectAndPeek(lexer.SEMI) {
			return nil
		}
		p.nextToken()
	}

	if !p.curTokenIs(lexer.RBRACE) {
		p.errors = append(p.errors, fmt.Sprintf("Expected closing brace for class %s", c.Name.Value))
		return nil
	}

	return c
}

func (p *Parser) parseFeature() ast.Feature {
	if p.peekTokenIs(lexer.LPAREN) {
		if m := p.parseMethod(); m != nil {
			return m
		}
		return nil
	}
	if a := p.parseAttribute(); a != nil {
		return a
	}
	return nil
}

// | ID( [formal [[, formal]]*] ) : TYPE { expr }
func (p *Parser) parseMethod() *ast.Method {
	m := &ast.Method{Token: p.curToken}

	if !p.curTokenIs(lexer.OBJECTID) {
		p.errors = append(p.errors, fmt.Sprintf("Expected method name to be OBJECTID, got %s line %d col %d",
			p.curToken.Type, p.curToken.Line, p.curToken.Column))
		return nil
	}
	m.Name = &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	p.nextToken() // (
	m.Parameters = []*ast.Formal{}

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
	} else {
		for {
			p.nextToken()
			formal := p.parseFormal()
			if formal == nil {
				return nil
			}
			m.Parameters = append(m.Parameters, formal)

			if p.peekTokenIs(lexer.RPAREN) {
				p.nextToken()
				break
			}
			if !p.expectAndPeek(lexer.COMMA) {
				return nil
			}
		}
	}

	if !p.expectAndPeek(lexer.COLON) {
		return nil
	}
	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	m.ReturnType = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.LBRACE) {
		return nil
	}
	p.nextToken()

	m.Body = p.parseExpression(LOWEST)
	if m.Body == nil {
		return nil
	}

	if !p.expectAndPeek(lexer.RBRACE) {
		return nil
	}
	return m
}

func (p *Parser) parseFormal() *ast.Formal {
	f := &ast.Formal{Token: p.curToken}

	if !p.curTokenIs(lexer.OBJECTID) {
		p.errors = append(p.errors, fmt.Sprintf("Expected parameter name, got %s line %d col %d",
			p.curToken.Type, p.curToken.Line, p.curToken.Column))
		return nil
	}
	f.Name = &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.COLON) {
		return nil
	}
	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	f.Type = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	return f
}

// | ID : TYPE [ <- expr ]
func (p *Parser) parseAttribute() *ast.Attribute {
	a := &ast.Attribute{Token: p.curToken}

	if !p.curTokenIs(lexer.OBJECTID) {
		p.errors = append(p.errors, fmt.Sprintf("Expected attribute name to be OBJECTID, got %s line %d col %d",
			p.curToken.Type, p.curToken.Line, p.curToken.Column))
		return nil
	}
	a.Name = &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.COLON) {
		return nil
	}
	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	a.Type = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken()
		p.nextToken()
		a.Init = p.parseExpression(LOWEST)
		if a.Init == nil {
			return nil
		}
	}

	return a
}

// parseExpression implements Pratt parsing to handle operator precedence
// while building the expression AST
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}

	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

// | ( expr )
func (p *Parser) parseGroupedExpression() ast.Expression {
	ue := &ast.UnaryExpression{Token: p.curToken, Operator: ast.OpParen}
	p.nextToken()

	ue.Expression = p.parseExpression(LOWEST)
	if ue.Expression == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.RPAREN) {
		return nil
	}
	return ue
}

// parseUnary builds the prefix parser for isvoid, not and ~.
func (p *Parser) parseUnary(op ast.UnaryOp, precedence int) prefixParseFn {
	return func() ast.Expression {
		ue := &ast.UnaryExpression{Token: p.curToken, Operator: op}
		p.nextToken()

		ue.Expression = p.parseExpression(precedence)
		if ue.Expression == nil {
			return nil
		}
		return ue
	}
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	exp := &ast.BinaryExpression{
		Token:    p.curToken,
		Operator: binaryOps[p.curToken.Type],
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	exp.Right = p.parseExpression(precedence)
	if exp.Right == nil {
		return nil
	}
	return exp
}

func (p *Parser) parseComparisonExpression(left ast.Expression) ast.Expression {
	exp := &ast.ComparisonExpression{
		Token:    p.curToken,
		Operator: compareOps[p.curToken.Type],
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	exp.Right = p.parseExpression(precedence)
	if exp.Right == nil {
		return nil
	}
	return exp
}

// | { [[expr;]]+ }
func (p *Parser) parseBlockExpression() ast.Expression {
	be := &ast.BlockExpression{Token: p.curToken, Expressions: []ast.Expression{}}
	p.nextToken()

	for !p.curTokenIs(lexer.RBRACE) {
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		be.Expressions = append(be.Expressions, expr)

		if !p.expectAndPeek(lexer.SEMI) {
			return nil
		}
		p.nextToken()
	}

	if len(be.Expressions) == 0 {
		p.errors = append(p.errors, fmt.Sprintf("empty block at line %d col %d", be.Token.Line, be.Token.Column))
		return nil
	}
	return be
}

// | if expr then expr else expr fi
func (p *Parser) parseIfExpression() ast.Expression {
	ife := &ast.IfExpression{Token: p.curToken}
	p.nextToken()

	if ife.Condition = p.parseExpression(LOWEST); ife.Condition == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.THEN) {
		return nil
	}
	p.nextToken()
	if ife.Consequence = p.parseExpression(LOWEST); ife.Consequence == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.ELSE) {
		return nil
	}
	p.nextToken()
	if ife.Alternative = p.parseExpression(LOWEST); ife.Alternative == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.FI) {
		return nil
	}
	return ife
}

// | while expr loop expr pool
func (p *Parser) parseWhileExpression() ast.Expression {
	we := &ast.WhileExpression{Token: p.curToken}
	p.nextToken()

	if we.Condition = p.parseExpression(LOWEST); we.Condition == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.LOOP) {
		return nil
	}
	p.nextToken()
	if we.Body = p.parseExpression(LOWEST); we.Body == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.POOL) {
		return nil
	}
	return we
}

// | let ID : TYPE [ <- expr ] [[, ID : TYPE [ <- expr ]]]* in expr
func (p *Parser) parseLetExpression() ast.Expression {
	le := &ast.LetExpression{Token: p.curToken, Bindings: []*ast.Binding{}}

	for {
		if !p.expectAndPeek(lexer.OBJECTID) {
			return nil
		}
		binding := &ast.Binding{
			Name: &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal},
		}
		if !p.expectAndPeek(lexer.COLON) {
			return nil
		}
		if !p.expectAndPeek(lexer.TYPEID) {
			return nil
		}
		binding.Type = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			if binding.Init = p.parseExpression(LOWEST); binding.Init == nil {
				return nil
			}
		}
		le.Bindings = append(le.Bindings, binding)

		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectAndPeek(lexer.IN) {
		return nil
	}
	p.nextToken()
	if le.Body = p.parseExpression(LOWEST); le.Body == nil {
		return nil
	}
	return le
}

// | case expr of [[ID : TYPE => expr; ]]+ esac
func (p *Parser) parseCaseExpression() ast.Expression {
	ce := &ast.CaseExpression{Token: p.curToken, Cases: []*ast.Case{}}
	p.nextToken()

	if ce.Expression = p.parseExpression(LOWEST); ce.Expression == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.OF) {
		return nil
	}
	p.nextToken()

	for !p.curTokenIs(lexer.ESAC) && !p.curTokenIs(lexer.EOF) {
		branch := p.parseCase()
		if branch == nil {
			return nil
		}
		ce.Cases = append(ce.Cases, branch)

		if !p.expectAndPeek(lexer.SEMI) {
			return nil
		}
		p.nextToken()
	}

	if !p.curTokenIs(lexer.ESAC) || len(ce.Cases) == 0 {
		p.errors = append(p.errors, fmt.Sprintf("malformed case expression at line %d col %d",
			ce.Token.Line, ce.Token.Column))
		return nil
	}
	return ce
}

func (p *Parser) parseCase() *ast.Case {
	c := &ast.Case{Token: p.curToken}

	if !p.curTokenIs(lexer.OBJECTID) {
		p.errors = append(p.errors, fmt.Sprintf("Expected identifier in case branch, got %s line %d col %d",
			p.curToken.Type, p.curToken.Line, p.curToken.Column))
		return nil
	}
	c.Name = &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.COLON) {
		return nil
	}
	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	c.Type = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.DARROW) {
		return nil
	}
	p.nextToken()
	if c.Expression = p.parseExpression(LOWEST); c.Expression == nil {
		return nil
	}
	return c
}

// | new TYPE
func (p *Parser) parseNewExpression() ast.Expression {
	ne := &ast.NewExpression{Token: p.curToken}
	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	ne.Class = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}
	return ne
}

// | true | false
func (p *Parser) parseBoolExpression() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curToken.Literal == "true"}
}

// | INT
func (p *Parser) parseIntegerExpression() ast.Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 32)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("could not parse integer: %v", p.curToken.Literal))
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: int32(value)}
}

// | STRING
func (p *Parser) parseStringExpression() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

// | ID | ID( [expr [[, expr]]*] )
func (p *Parser) parseObjectIdentifier() ast.Expression {
	oi := &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.peekTokenIs(lexer.LPAREN) {
		return oi
	}

	d := &ast.Dispatch{Token: p.curToken, Method: oi}
	p.nextToken() // (
	args, ok := p.parseExpressionList(lexer.RPAREN)
	if !ok {
		return nil
	}
	d.Arguments = args
	return d
}

// | expr[@TYPE].ID( [expr [[, expr]]*] )
func (p *Parser) parseDispatch(object ast.Expression) ast.Expression {
	d := &ast.Dispatch{Token: p.curToken, Object: object}

	if p.curTokenIs(lexer.AT) {
		if !p.expectAndPeek(lexer.TYPEID) {
			return nil
		}
		d.StaticType = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}
		if !p.expectAndPeek(lexer.DOT) {
			return nil
		}
	}

	if !p.expectAndPeek(lexer.OBJECTID) {
		return nil
	}
	d.Method = &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.LPAREN) {
		return nil
	}
	args, ok := p.parseExpressionList(lexer.RPAREN)
	if !ok {
		return nil
	}
	d.Arguments = args
	return d
}

func (p *Parser) parseExpressionList(end lexer.TokenType) ([]ast.Expression, bool) {
	exps := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return exps, true
	}

	for {
		p.nextToken()
		exp := p.parseExpression(LOWEST)
		if exp == nil {
			return nil, false
		}
		exps = append(exps, exp)

		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectAndPeek(end) {
		return nil, false
	}
	return exps, true
}

// | ID <- expr
func (p *Parser) parseAssignment(left ast.Expression) ast.Expression {
	identifier, ok := left.(*ast.ObjectIdentifier)
	if !ok {
		p.errors = append(p.errors, fmt.Sprintf("Left side of assignment must be an identifier line %d col %d",
			p.curToken.Line, p.curToken.Column))
		return nil
	}

	a := &ast.Assignment{Token: p.curToken, Name: identifier}
	p.nextToken()

	// Assignment is right associative.
	if a.Expression = p.parseExpression(LOWEST); a.Expression == nil {
		return nil
	}
	return a
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) noPrefixParseFnError(tok lexer.Token) {
	p.errors = append(p.errors, fmt.Sprintf("no prefix parse function for %s found at line %d, col %d",
		tok.Type, tok.Line, tok.Column))
}
