// Package parser implements minilang's recursive-descent, precedence-
// climbing parser. It is LL(2): the only two-token lookahead is in
// IDENT-led statement dispatch, which peeks past the identifier for '='
// (Assign) or '[' — the latter starting a speculative parse, rewound
// when it is not an IndexAssign after all — following the save/restore cursor discipline the
// teacher uses throughout language/internal/cc/parser/parser.go.
package parser

import (
	"fmt"

	"github.com/minilang-dev/minilang/lang/ast"
	"github.com/minilang-dev/minilang/lang/lexer"
	"github.com/minilang-dev/minilang/lang/token"
)

// Error is a parse error, carrying the offending token.
type Error struct {
	Tok     token.Token
	Message string
}

func (e *Error) Error() string { return e.Message }

// Parser walks a flat token slice with an index cursor, the same shape as
// the teacher's tokensStream.
type Parser struct {
	toks []token.Token
	pos  int
}

// New builds a Parser over an already-scanned token sequence.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse scans and parses source text into a program (an ordered list of
// top-level statements), surfacing the first lexical or parse error.
func Parse(source string) (ast.Block, error) {
	toks, err := lexer.Scan(source)
	if err != nil {
		return nil, err
	}
	return New(toks).ParseProgram()
}

func (p *Parser) peek() token.Token { return p.toks[p.pos] }

func (p *Parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool { return p.peek().Kind == kind }

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	if !p.check(kind) {
		return token.Token{}, p.errf("Expected %s, got %s", kind, p.peek().Kind)
	}
	return p.advance(), nil
}

func (p *Parser) errf(format string, args ...any) error {
	return &Error{Tok: p.peek(), Message: fmt.Sprintf(format, args...)}
}

// mark/reset implement the save-cursor/restore-cursor rewind primitive
// used by the speculative IndexAssign parse.
func (p *Parser) mark() int      { return p.pos }
func (p *Parser) reset(mark int) { p.pos = mark }

// ParseProgram parses a complete token stream into a top-level block.
func (p *Parser) ParseProgram() (ast.Block, error) {
	var stmts ast.Block
	for !p.check(token.EOF) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.peek().Kind {
	case token.LET:
		return p.parseLet()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.FN:
		return p.parseFn()
	case token.RETURN:
		return p.parseReturn()
	case token.IDENT:
		return p.parseIdentLedStmt()
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.ExprStmt{Expr: expr}, nil
	}
}

func (p *Parser) parseLet() (ast.Stmt, error) {
	p.advance() // 'let'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EQ); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.Let{Name: name.Text, Init: init}, nil
}

// parseIdentLedStmt resolves the IDENT-led ambiguity between Assign,
// IndexAssign, and a plain expression statement by peeking the token
// after the identifier, and — for '[' — speculatively parsing the index
// expression and rewinding if it doesn't turn out to be an assignment.
func (p *Parser) parseIdentLedStmt() (ast.Stmt, error) {
	name := p.peek().Text

	switch p.peekAt(1).Kind {
	case token.EQ:
		p.advance() // ident
		p.advance() // '='
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.Assign{Name: name, Expr: expr}, nil

	case token.LBRACKET:
		mark := p.mark()
		p.advance() // ident
		p.advance() // '['
		index, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.check(token.RBRACKET) && p.peekAt(1).Kind == token.EQ {
			p.advance() // ']'
			p.advance() // '='
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return ast.IndexAssign{Name: name, Index: index, Value: value}, nil
		}
		// Not an index-assign after all: rewind and parse as an
		// ordinary expression statement.
		p.reset(mark)
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.ExprStmt{Expr: expr}, nil

	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.ExprStmt{Expr: expr}, nil
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	p.advance() // 'if'
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBlock ast.Block
	if p.check(token.ELSE) {
		p.advance()
		elseBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return ast.If{Cond: cond, Then: then, Else: elseBlock}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	p.advance() // 'while'
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	p.advance() // 'for'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	start, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DOTDOT); err != nil {
		return nil, err
	}
	end, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.For{Var: name.Text, Start: start, End: end, Body: body}, nil
}

func (p *Parser) parseFn() (ast.Stmt, error) {
	p.advance() // 'fn'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []string
	if !p.check(token.RPAREN) {
		param, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, param.Text)
		for p.check(token.COMMA) {
			p.advance()
			param, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			params = append(params, param.Text)
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.Fn{Name: name.Text, Params: params, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	p.advance() // 'return'
	if p.match(token.RBRACE, token.EOF) {
		return ast.Return{}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.Return{Value: expr}, nil
}

func (p *Parser) parseBlock() (ast.Block, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var stmts ast.Block
	for !p.check(token.RBRACE) {
		if p.check(token.EOF) {
			return nil, p.errf("Expected %s, got %s", token.RBRACE, token.EOF)
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.advance() // '}'
	return stmts, nil
}

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseLogic() }

func (p *Parser) parseLogic() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.match(token.AND, token.OR) {
		op := ast.And
		if p.peek().Kind == token.OR {
			op = ast.Or
		}
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for p.match(token.EQEQ, token.BANGEQ) {
		op := ast.Eq
		if p.peek().Kind == token.BANGEQ {
			op = ast.Neq
		}
		p.advance()
		right, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseCompare() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.match(token.LT, token.LTEQ, token.GT, token.GTEQ) {
		var op ast.BinOp
		switch p.peek().Kind {
		case token.LT:
			op = ast.Lt
		case token.LTEQ:
			op = ast.LtEq
		case token.GT:
			op = ast.Gt
		case token.GTEQ:
			op = ast.GtEq
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.match(token.PLUS, token.MINUS) {
		op := ast.Add
		if p.peek().Kind == token.MINUS {
			op = ast.Sub
		}
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseFactor() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(token.STAR, token.SLASH, token.PERCENT) {
		var op ast.BinOp
		switch p.peek().Kind {
		case token.STAR:
			op = ast.Mul
		case token.SLASH:
			op = ast.Div
		case token.PERCENT:
			op = ast.Mod
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.peek().Kind {
	case token.MINUS:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.Neg, Operand: operand}, nil
	case token.NOT:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.Not, Operand: operand}, nil
	default:
		return p.parseCall()
	}
}

func (p *Parser) parseCall() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case token.LPAREN:
			p.advance()
			args, err := p.parseExprList(token.RPAREN)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			expr = ast.Call{Callee: expr, Args: args}
		case token.LBRACKET:
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			expr = ast.Index{Target: expr, Index: index}
		default:
			return expr, nil
		}
	}
}

// parseExprList parses zero or more comma-separated expressions up to
// (but not consuming) the closing token. Trailing commas are not
// permitted.
func (p *Parser) parseExprList(closing token.Kind) ([]ast.Expr, error) {
	var exprs []ast.Expr
	if p.check(closing) {
		return exprs, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	exprs = append(exprs, expr)
	for p.check(token.COMMA) {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		return ast.Number{Value: tok.Num}, nil
	case token.STRING:
		p.advance()
		return ast.String{Value: tok.Text}, nil
	case token.TRUE:
		p.advance()
		return ast.Bool{Value: true}, nil
	case token.FALSE:
		p.advance()
		return ast.Bool{Value: false}, nil
	case token.IDENT:
		p.advance()
		return ast.Ident{Name: tok.Text}, nil
	case token.LBRACKET:
		p.advance()
		elems, err := p.parseExprList(token.RBRACKET)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		return ast.Array{Elements: elems}, nil
	case token.LPAREN:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.errf("Unexpected token %s", tok.Kind)
	}
}
