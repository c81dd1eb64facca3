// Package parser implements the recursive-descent, Pratt-precedence parser
// for PieScript. It turns a token stream (as produced by internal/lexer)
// into an *ast.Document: an ordered list of top-level definitions plus the
// list of filenames the document depends on via `include`.
//
// Like the lexer one layer down, the parser never stops at the first
// problem: it accumulates diagnostics into a diag.List and attempts
// panic-mode recovery at statement and definition boundaries, so a single
// malformed construct doesn't hide every other error in the file.
//
// Expression parsing follows the classic two-table Pratt scheme: a prefix
// parse function keyed by the current token's kind builds the left operand,
// then an infix loop consults a precedence table to decide whether the next
// token binds tighter than the caller asked for. Example, parsing
// `1 + 2 * 3`:
//
//	parseExpression(LOWEST)
//	  prefix(Integer 1) -> IntegerLiteral{1}
//	  peek '+' has ADDITIVE > LOWEST -> infix(left=1)
//	    parseExpression(ADDITIVE)
//	      prefix(Integer 2) -> IntegerLiteral{2}
//	      peek '*' has MULTIPLICATIVE > ADDITIVE -> infix(left=2)
//	        parseExpression(MULTIPLICATIVE) -> IntegerLiteral{3}
//	        => Infix{2 * 3}
//	      peek EOF, stop -> returns Infix{2 * 3}
//	    => Infix{1 + (2 * 3)}
package parser

import (
	"fmt"

	"github.com/piescript-lang/piescript/internal/ast"
	"github.com/piescript-lang/piescript/internal/diag"
	"github.com/piescript-lang/piescript/internal/token"
)

// Operator precedence, low to high. Assignment sits below every other
// binary operator and is right-associative; postfix (call, `.name`,
// `[index]`) binds tightest of all.
const (
	LOWEST int = iota
	ASSIGN
	OR
	AND
	EQUALITY
	COMPARISON
	ADDITIVE
	MULTIPLICATIVE
	PREFIX
	POSTFIX
)

var precedences = map[token.Kind]int{
	token.KindAssign:        ASSIGN,
	token.KindPlusAssign:    ASSIGN,
	token.KindMinusAssign:   ASSIGN,
	token.KindStarAssign:    ASSIGN,
	token.KindSlashAssign:   ASSIGN,
	token.KindPercentAssign: ASSIGN,
	token.KindOr:            OR,
	token.KindAnd:           AND,
	token.KindEqual:         EQUALITY,
	token.KindNotEqual:      EQUALITY,
	token.KindLess:          COMPARISON,
	token.KindLessEqual:     COMPARISON,
	token.KindGreater:       COMPARISON,
	token.KindGreaterEqual:  COMPARISON,
	token.KindPlus:          ADDITIVE,
	token.KindMinus:         ADDITIVE,
	token.KindStar:          MULTIPLICATIVE,
	token.KindSlash:         MULTIPLICATIVE,
	token.KindPercent:       MULTIPLICATIVE,
	token.KindLParen:        POSTFIX,
	token.KindDot:           POSTFIX,
	token.KindLBracket:      POSTFIX,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser holds the token stream and a two-token lookahead window (curTok,
// peekTok), following the same cursor style as the rest of the front end.
type Parser struct {
	tokens []token.Token
	pos    int

	curTok  token.Token
	peekTok token.Token

	filename string
	errors   diag.List

	prefixParseFns map[token.Kind]prefixParseFn
	infixParseFns  map[token.Kind]infixParseFn
}

// New returns a Parser positioned at the first token of tokens, which must
// be terminated by an Eof token (as lexer.Tokenize produces).
func New(tokens []token.Token, filename string) *Parser {
	if len(tokens) == 0 {
		tokens = []token.Token{{Kind: token.KindEOF}}
	}

	p := &Parser{tokens: tokens, filename: filename}
	p.nextToken()
	p.nextToken()

	p.prefixParseFns = map[token.Kind]prefixParseFn{
		token.KindInteger:    p.parseIntegerLiteral,
		token.KindFloat:      p.parseFloatLiteral,
		token.KindString:     p.parseStringLiteral,
		token.KindTrue:       p.parseTrueLiteral,
		token.KindFalse:      p.parseFalseLiteral,
		token.KindNull:       p.parseNullLiteral,
		token.KindIdentifier: p.parseIdentifier,
		token.KindThis:       p.parseThis,
		token.KindMinus:      p.parsePrefixExpression,
		token.KindNot:        p.parsePrefixExpression,
		token.KindLParen:     p.parseGroupedExpression,
		token.KindLBracket:   p.parseArrayLiteral,
		token.KindIf:         p.parseIfExpression,
	}

	p.infixParseFns = map[token.Kind]infixParseFn{
		token.KindPlus:          p.parseInfixExpression,
		token.KindMinus:         p.parseInfixExpression,
		token.KindStar:          p.parseInfixExpression,
		token.KindSlash:         p.parseInfixExpression,
		token.KindPercent:       p.parseInfixExpression,
		token.KindEqual:         p.parseInfixExpression,
		token.KindNotEqual:      p.parseInfixExpression,
		token.KindLess:          p.parseInfixExpression,
		token.KindLessEqual:     p.parseInfixExpression,
		token.KindGreater:       p.parseInfixExpression,
		token.KindGreaterEqual:  p.parseInfixExpression,
		token.KindAnd:           p.parseInfixExpression,
		token.KindOr:            p.parseInfixExpression,
		token.KindAssign:        p.parseAssignExpression,
		token.KindPlusAssign:    p.parseAssignExpression,
		token.KindMinusAssign:   p.parseAssignExpression,
		token.KindStarAssign:    p.parseAssignExpression,
		token.KindSlashAssign:   p.parseAssignExpression,
		token.KindPercentAssign: p.parseAssignExpression,
		token.KindLParen:        p.parseCallExpression,
		token.KindDot:           p.parseInstanceGetExpression,
		token.KindLBracket:      p.parseIndexGetExpression,
	}

	return p
}

// Parse lexes nothing itself — tokens is assumed already produced by the
// lexer — and returns the parsed Document along with every diagnostic
// raised while parsing it.
func Parse(tokens []token.Token, filename string) (*ast.Document, diag.List) {
	p := New(tokens, filename)
	return p.parseDocument()
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	if p.pos < len(p.tokens) {
		p.peekTok = p.tokens[p.pos]
		p.pos++
	} else {
		p.peekTok = token.Token{Kind: token.KindEOF}
	}
}

func (p *Parser) addError(tok token.Token, format string, args ...any) {
	p.errors.Add(tok, format, args...)
}

func (p *Parser) curTokIsAny(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.curTok.Kind == k {
			return true
		}
	}
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekTok.Kind]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curTok.Kind]; ok {
		return prec
	}
	return LOWEST
}

// expectPeek advances past peekTok if it has the expected kind, otherwise
// records a diagnostic and leaves the cursor where it was.
func (p *Parser) expectPeek(kind token.Kind, what string) bool {
	if p.peekTok.Kind == kind {
		p.nextToken()
		return true
	}
	p.addError(p.peekTok, "expected %s but found %s", what, p.peekTok)
	return false
}

func base(tok token.Token) ast.Base { return ast.NewBase(tok) }

// ---- top level ----

func (p *Parser) parseDocument() (*ast.Document, diag.List) {
	doc := &ast.Document{Filename: p.filename}

	for p.curTok.Kind != token.KindEOF {
		def := p.parseDefinition()
		if def != nil {
			doc.Definitions = append(doc.Definitions, def)
			if inc, ok := def.(*ast.IncludeDef); ok {
				doc.Dependencies = append(doc.Dependencies, inc.Filename)
			}
		}
		p.nextToken()
	}

	return doc, p.errors
}

func (p *Parser) parseDefinition() ast.Definition {
	switch p.curTok.Kind {
	case token.KindInclude:
		return p.parseIncludeDefinition()
	case token.KindPublic:
		return p.parsePublicDefinition()
	case token.KindModel:
		return p.parseModelDefinition(false)
	case token.KindFunction:
		return p.parseFunctionDefinition(false)
	case token.KindImplement:
		return p.parseImplementDefinition()
	case token.KindApply:
		return p.parseApplyDefinition()
	case token.KindLocal:
		return p.parseLocalDefinition()
	default:
		p.addError(p.curTok, "unexpected token %s at top level", p.curTok)
		p.synchronizeDefinition()
		return nil
	}
}

func (p *Parser) parsePublicDefinition() ast.Definition {
	tok := p.curTok
	p.nextToken() // consume 'public'

	switch p.curTok.Kind {
	case token.KindModel:
		return p.parseModelDefinition(true)
	case token.KindFunction:
		return p.parseFunctionDefinition(true)
	default:
		p.addError(tok, "'public' must be followed by 'model' or 'function'")
		p.synchronizeDefinition()
		return nil
	}
}

// synchronizeDefinition skips tokens until one that can start a top-level
// definition, so one malformed definition doesn't cascade into the next.
func (p *Parser) synchronizeDefinition() {
	for p.curTok.Kind != token.KindEOF {
		switch p.curTok.Kind {
		case token.KindInclude, token.KindModel, token.KindFunction, token.KindImplement, token.KindApply, token.KindLocal, token.KindPublic:
			return
		}
		p.nextToken()
	}
}

// parseNameValueList parses the comma-separated `name [= value], ...` tail
// shared by module-scope `local` definitions and block-scope `local`
// statements. The caller leaves curTok on the first identifier.
func (p *Parser) parseNameValueList() ([]string, []ast.Expression) {
	var names []string
	var values []ast.Expression

	for {
		if p.curTok.Kind != token.KindIdentifier {
			p.addError(p.curTok, "expected identifier in local declaration, found %s", p.curTok)
			break
		}
		names = append(names, p.curTok.Text)

		if p.peekTok.Kind == token.KindAssign {
			p.nextToken() // at '='
			p.nextToken() // at value's first token
			values = append(values, p.parseExpression(LOWEST))
		} else {
			values = append(values, nil)
		}

		if p.peekTok.Kind != token.KindComma {
			break
		}
		p.nextToken() // at ','
		p.nextToken() // at next identifier
	}

	return names, values
}

func (p *Parser) parseLocalDefinition() ast.Definition {
	tok := p.curTok // 'local'
	p.nextToken()
	names, values := p.parseNameValueList()
	return &ast.LocalDef{Base: base(tok), Names: names, Values: values}
}

func (p *Parser) parseModelDefinition(public bool) ast.Definition {
	tok := p.curTok // 'model'
	if !p.expectPeek(token.KindIdentifier, "model name") {
		p.synchronizeDefinition()
		return nil
	}
	name := p.curTok.Text
	p.nextToken() // move to first property name or 'end'

	var properties []string
	for p.curTok.Kind != token.KindEnd && p.curTok.Kind != token.KindEOF {
		if p.curTok.Kind != token.KindIdentifier {
			p.addError(p.curTok, "expected property name, found %s", p.curTok)
			break
		}
		properties = append(properties, p.curTok.Text)

		if p.peekTok.Kind == token.KindComma {
			p.nextToken()
			p.nextToken()
			continue
		}
		p.nextToken()
		break
	}

	if p.curTok.Kind != token.KindEnd {
		p.addError(tok, "expected 'end' to close model definition")
		p.synchronizeDefinition()
	}

	return &ast.ModelDef{Base: base(tok), Name: name, Public: public, Properties: properties}
}

// parseFunctionDefinition parses `function name(params) body end`. Called
// both for top-level functions and, with the result re-used as a plain
// *ast.FunctionDef, for methods inside an `implement` block.
func (p *Parser) parseFunctionDefinition(public bool) *ast.FunctionDef {
	tok := p.curTok // 'function'
	if !p.expectPeek(token.KindIdentifier, "function name") {
		p.synchronizeDefinition()
		return nil
	}
	name := p.curTok.Text

	if !p.expectPeek(token.KindLParen, "'(' after function name") {
		p.synchronizeDefinition()
		return nil
	}
	p.nextToken() // move into parameter list or ')'

	var params []string
	for p.curTok.Kind != token.KindRParen && p.curTok.Kind != token.KindEOF {
		switch p.curTok.Kind {
		case token.KindThis:
			params = append(params, "this")
		case token.KindIdentifier:
			params = append(params, p.curTok.Text)
		default:
			p.addError(p.curTok, "expected parameter name, found %s", p.curTok)
		}

		if p.peekTok.Kind == token.KindComma {
			p.nextToken()
			p.nextToken()
			continue
		}
		p.nextToken()
		break
	}

	if p.curTok.Kind != token.KindRParen {
		p.addError(tok, "expected ')' to close parameter list")
		p.synchronizeDefinition()
		return nil
	}
	p.nextToken() // move past ')' to first body token

	body := p.parseBlock(token.KindEnd)
	if p.curTok.Kind != token.KindEnd {
		p.addError(tok, "expected 'end' to close function body")
	}

	return &ast.FunctionDef{Base: base(tok), Name: name, Public: public, Parameters: params, Body: body}
}

func (p *Parser) parseImplementDefinition() ast.Definition {
	tok := p.curTok // 'implement'
	if !p.expectPeek(token.KindIdentifier, "model name") {
		p.synchronizeDefinition()
		return nil
	}
	modelName := p.curTok.Text
	p.nextToken() // move to first 'function' or outer 'end'

	var functions []*ast.FunctionDef
	for p.curTok.Kind == token.KindFunction {
		if fn := p.parseFunctionDefinition(false); fn != nil {
			functions = append(functions, fn)
		}
		p.nextToken() // past inner 'end', to next 'function' or outer 'end'
	}

	if p.curTok.Kind != token.KindEnd {
		p.addError(tok, "expected 'end' to close implement block")
		p.synchronizeDefinition()
	}

	return &ast.ImplementDef{Base: base(tok), ModelName: modelName, Functions: functions}
}

func (p *Parser) parseApplyDefinition() ast.Definition {
	tok := p.curTok // 'apply'
	if !p.expectPeek(token.KindIdentifier, "source model name") {
		p.synchronizeDefinition()
		return nil
	}
	source := p.curTok.Text

	if !p.expectPeek(token.KindTo, "'to'") {
		p.synchronizeDefinition()
		return nil
	}
	if !p.expectPeek(token.KindIdentifier, "target model name") {
		p.synchronizeDefinition()
		return nil
	}
	target := p.curTok.Text

	return &ast.ApplyDef{Base: base(tok), Source: source, Target: target}
}

func (p *Parser) parseIncludeDefinition() ast.Definition {
	tok := p.curTok // 'include'
	if !p.expectPeek(token.KindString, "module filename string") {
		p.synchronizeDefinition()
		return nil
	}
	filename := p.curTok.Text

	var aliases, publicNames []string

	if p.peekTok.Kind == token.KindAs {
		p.nextToken() // at 'as'
		p.nextToken() // at first alias
		for {
			if p.curTok.Kind != token.KindIdentifier {
				p.addError(p.curTok, "expected alias name, found %s", p.curTok)
				break
			}
			aliases = append(aliases, p.curTok.Text)
			if p.peekTok.Kind != token.KindComma {
				break
			}
			p.nextToken()
			p.nextToken()
		}
	}

	if p.peekTok.Kind == token.KindFrom {
		p.nextToken() // at 'from'
		p.nextToken() // at first public name
		for {
			if p.curTok.Kind != token.KindIdentifier {
				p.addError(p.curTok, "expected public name, found %s", p.curTok)
				break
			}
			publicNames = append(publicNames, p.curTok.Text)
			if p.peekTok.Kind != token.KindComma {
				break
			}
			p.nextToken()
			p.nextToken()
		}
	}

	if len(publicNames) > 0 && len(aliases) != len(publicNames) {
		p.addError(tok, "include binds %d alias(es) but names %d public name(s)", len(aliases), len(publicNames))
	}

	includeAliases := make([]ast.IncludeAlias, 0, len(aliases))
	for i, alias := range aliases {
		publicName := alias
		if i < len(publicNames) {
			publicName = publicNames[i]
		}
		includeAliases = append(includeAliases, ast.IncludeAlias{Alias: alias, PublicName: publicName})
	}

	return &ast.IncludeDef{Base: base(tok), Filename: filename, Aliases: includeAliases}
}

// ---- statements ----

// parseBlock parses statements until curTok is one of terminators (left
// unconsumed) or Eof.
func (p *Parser) parseBlock(terminators ...token.Kind) []ast.Statement {
	var stmts []ast.Statement
	for !p.curTokIsAny(terminators...) && p.curTok.Kind != token.KindEOF {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.nextToken()
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curTok.Kind {
	case token.KindReturn:
		return p.parseReturnStatement()
	case token.KindBreak:
		return &ast.BreakStatement{Base: base(p.curTok)}
	case token.KindRescue:
		return &ast.RescueStatement{Base: base(p.curTok)}
	case token.KindLocal:
		return p.parseLocalStatement()
	case token.KindFor:
		return p.parseForStatement()
	default:
		tok := p.curTok
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			p.synchronizeStatement()
			return nil
		}
		return &ast.ExpressionStatement{Base: base(tok), Expression: expr}
	}
}

// synchronizeStatement skips to the next token that can plausibly begin a
// new statement or close the current block, after a statement-level parse
// error.
func (p *Parser) synchronizeStatement() {
	for p.curTok.Kind != token.KindEOF {
		switch p.curTok.Kind {
		case token.KindEnd, token.KindElse, token.KindElseIf,
			token.KindReturn, token.KindBreak, token.KindRescue, token.KindLocal, token.KindFor, token.KindIf:
			return
		}
		p.nextToken()
	}
}

// peekStartsExpression reports whether peekTok could begin an expression,
// used to tell a bare `return` apart from `return <expr>`.
func (p *Parser) peekStartsExpression() bool {
	switch p.peekTok.Kind {
	case token.KindInteger, token.KindFloat, token.KindString, token.KindTrue, token.KindFalse, token.KindNull,
		token.KindIdentifier, token.KindThis, token.KindMinus, token.KindNot, token.KindLParen, token.KindLBracket, token.KindIf:
		return true
	default:
		return false
	}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	tok := p.curTok // 'return'
	if !p.peekStartsExpression() {
		return &ast.ReturnStatement{Base: base(tok)}
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	return &ast.ReturnStatement{Base: base(tok), Value: value}
}

func (p *Parser) parseLocalStatement() ast.Statement {
	tok := p.curTok // 'local'
	p.nextToken()
	names, values := p.parseNameValueList()
	return &ast.LocalStatement{Base: base(tok), Names: names, Values: values}
}

func (p *Parser) parseForStatement() ast.Statement {
	tok := p.curTok // 'for'
	if !p.expectPeek(token.KindIdentifier, "loop variable name") {
		p.synchronizeStatement()
		return nil
	}
	variable := p.curTok.Text

	if !p.expectPeek(token.KindIn, "'in'") {
		p.synchronizeStatement()
		return nil
	}
	p.nextToken() // move to enumerable's first token
	enumerable := p.parseExpression(LOWEST)
	p.nextToken() // move past enumerable to first body token

	body := p.parseBlock(token.KindEnd)
	if p.curTok.Kind != token.KindEnd {
		p.addError(tok, "expected 'end' to close for loop")
	}

	return &ast.ForStatement{Base: base(tok), Variable: variable, Enumerable: enumerable, Body: body}
}

// ---- expressions ----

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix, ok := p.prefixParseFns[p.curTok.Kind]
	if !ok {
		p.addError(p.curTok, "unexpected token %s in expression", p.curTok)
		return nil
	}
	left := prefix()

	for p.peekTok.Kind != token.KindEOF && precedence < p.peekPrecedence() {
		infix, ok := p.infixParseFns[p.peekTok.Kind]
		if !ok {
			return left
		}
		p.nextToken()
		left = infix(left)
	}

	return left
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	return &ast.IntegerLiteral{Base: base(p.curTok), Value: p.curTok.Integer}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	return &ast.FloatLiteral{Base: base(p.curTok), Value: p.curTok.Float}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Base: base(p.curTok), Value: p.curTok.Text}
}

func (p *Parser) parseTrueLiteral() ast.Expression {
	return &ast.BooleanLiteral{Base: base(p.curTok), Value: true}
}

func (p *Parser) parseFalseLiteral() ast.Expression {
	return &ast.BooleanLiteral{Base: base(p.curTok), Value: false}
}

func (p *Parser) parseNullLiteral() ast.Expression {
	return &ast.NullLiteral{Base: base(p.curTok)}
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Base: base(p.curTok), Name: p.curTok.Text}
}

func (p *Parser) parseThis() ast.Expression {
	return &ast.This{Base: base(p.curTok)}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken() // consume '('
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(token.KindRParen, "')'") {
		return exp
	}
	return exp
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	tok := p.curTok // '['
	elements := p.parseExpressionList(token.KindRBracket)
	return &ast.ArrayLiteral{Base: base(tok), Elements: elements}
}

// parseExpressionList parses a comma-separated list of expressions up to
// and including the end token, leaving curTok on end.
func (p *Parser) parseExpressionList(end token.Kind) []ast.Expression {
	var list []ast.Expression

	if p.peekTok.Kind == end {
		p.nextToken()
		return list
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))

	for p.peekTok.Kind == token.KindComma {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}

	p.expectPeek(end, describeKind(end))
	return list
}

// describeKind renders a token.Kind for "expected ..." diagnostics at the
// handful of call sites that don't already know a friendlier description.
func describeKind(k token.Kind) string {
	switch k {
	case token.KindRParen:
		return "')'"
	case token.KindRBracket:
		return "']'"
	default:
		return fmt.Sprintf("token kind %d", k)
	}
}

// prefixOperatorText returns the canonical operator text the compiler
// switches on for a unary prefix token (`not` carries no lexer text since
// it's a keyword, not a symbol).
func prefixOperatorText(tok token.Token) string {
	if tok.Kind == token.KindNot {
		return "not"
	}
	return "-"
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	tok := p.curTok
	operator := prefixOperatorText(tok)
	p.nextToken()
	right := p.parseExpression(PREFIX)
	return &ast.Prefix{Base: base(tok), Operator: operator, Right: right}
}

// infixOperatorText returns the canonical operator text the compiler's
// operator tables key on. Symbol tokens already carry the right text from
// the lexer; `and`/`or` keyword tokens share a Kind with `&&`/`||` but
// carry no Text (keywords aren't given one), so they're normalized here to
// the `&&`/`||` spelling the compiler expects.
func infixOperatorText(tok token.Token) string {
	switch tok.Kind {
	case token.KindAnd:
		return "&&"
	case token.KindOr:
		return "||"
	default:
		return tok.Text
	}
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	tok := p.curTok
	operator := infixOperatorText(tok)
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return &ast.Infix{Base: base(tok), Left: left, Operator: operator, Right: right}
}

// parseAssignExpression parses `=`/`+=`/.../`%=` as right-associative:
// the right-hand side is parsed at ASSIGN-1 (i.e. LOWEST), so a further
// assignment operator at the same precedence still triggers another round
// of the infix loop instead of stopping, giving `a = b = c` the shape
// `a = (b = c)`.
func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	tok := p.curTok
	operator := tok.Text
	p.nextToken()
	right := p.parseExpression(ASSIGN - 1)
	return &ast.Infix{Base: base(tok), Left: left, Operator: operator, Right: right}
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	tok := p.curTok // '('
	args := p.parseExpressionList(token.KindRParen)
	return &ast.Call{Base: base(tok), Callee: callee, Arguments: args}
}

func (p *Parser) parseIndexGetExpression(receiver ast.Expression) ast.Expression {
	tok := p.curTok // '['
	p.nextToken()
	index := p.parseExpression(LOWEST)
	p.expectPeek(token.KindRBracket, "']'")
	return &ast.IndexGet{Base: base(tok), Receiver: receiver, Index: index}
}

func (p *Parser) parseInstanceGetExpression(receiver ast.Expression) ast.Expression {
	tok := p.curTok // '.'
	if !p.expectPeek(token.KindIdentifier, "property or method name") {
		return receiver
	}
	return &ast.InstanceGet{Base: base(tok), Receiver: receiver, Name: p.curTok.Text}
}

// parseIfExpression parses an `if`/`elseif`/`else` chain as a single
// expression. Only one `end` closes the whole chain — an `elseif` never
// introduces its own — so the recursive descent into each `elseif` (via
// parseIfClause) must not consume it; only this outermost call does.
func (p *Parser) parseIfExpression() ast.Expression {
	tok := p.curTok
	ifNode := p.parseIfClause(tok)
	if p.curTok.Kind != token.KindEnd {
		p.addError(tok, "expected 'end' to close if expression")
	}
	return ifNode
}

func (p *Parser) parseIfClause(tok token.Token) *ast.If {
	p.nextToken() // move to condition's first token
	condition := p.parseExpression(LOWEST)
	p.nextToken() // move past condition to first then-body token

	thenBody := p.parseBlock(token.KindEnd, token.KindElse, token.KindElseIf)

	var elseBody []ast.Statement
	switch p.curTok.Kind {
	case token.KindElseIf:
		elseifTok := p.curTok
		nested := p.parseIfClause(elseifTok)
		elseBody = []ast.Statement{&ast.ExpressionStatement{Base: base(elseifTok), Expression: nested}}
	case token.KindElse:
		p.nextToken() // move to first else-body token
		elseBody = p.parseBlock(token.KindEnd)
	}

	return &ast.If{Base: base(tok), Condition: condition, Then: thenBody, Else: elseBody}
}
