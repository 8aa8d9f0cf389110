package mathexpr

import (
	"strconv"
	"strings"
)

// Parse parses expression text into a node tree.
// Explicit parentheses are kept as ParenthesisNode. A minus sign directly in
// front of a number literal is folded into a negative constant.
func Parse(text string) (Node, error) {
	p := &parser{lex: newLexer(text)}
	p.advance()

	if p.tok.Type == TokenEOF {
		return nil, NewError(ErrUnexpectedEnd, "Unexpected end of expression", p.tok.Position)
	}

	node, err := p.parseExpression(precOr)
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenEOF {
		return nil, p.unexpected()
	}
	return node, nil
}

type parser struct {
	lex *lexer
	tok Token
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) lexError() error {
	if p.tok.Type == TokenError && p.lex.err != nil {
		return p.lex.err
	}
	return nil
}

// binaryOperator reports the operator the current token stands for, if any.
func (p *parser) binaryOperator() *operatorInfo {
	switch p.tok.Type {
	case TokenOperator, TokenName:
		return binaryOperatorsOp[p.tok.Value]
	}
	return nil
}

func (p *parser) parseExpression(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		if err := p.lexError(); err != nil {
			return nil, err
		}
		info := p.binaryOperator()
		if info == nil || info.precedence < minPrec {
			return left, nil
		}
		p.advance()

		right, err := p.parseExpression(info.precedence + 1)
		if err != nil {
			return nil, err
		}
		left = NewOperator(info.op, info.fn, []Node{left, right})
	}
}

func (p *parser) parseUnary() (Node, error) {
	if p.tok.Type == TokenOperator || p.tok.Type == TokenName {
		if info, ok := unaryOperatorsOp[p.tok.Value]; ok {
			p.advance()

			if info.fn == "unaryMinus" && p.tok.Type == TokenNumber {
				n, err := p.parseNumber()
				if err != nil {
					return nil, err
				}
				return NewConstant(-n), nil
			}

			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return NewOperator(info.op, info.fn, []Node{operand}), nil
		}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	if err := p.lexError(); err != nil {
		return nil, err
	}

	switch p.tok.Type {
	case TokenNumber:
		n, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		return NewConstant(n), nil

	case TokenString:
		value := p.tok.Value
		p.advance()
		return NewConstant(value), nil

	case TokenName:
		return p.parseName()

	case TokenParenOpen:
		p.advance()
		content, err := p.parseExpression(precOr)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return NewParenthesis(content), nil

	case TokenEOF:
		return nil, NewError(ErrUnexpectedEnd, "Unexpected end of expression", p.tok.Position)
	}

	return nil, p.unexpected()
}

func (p *parser) parseNumber() (float64, error) {
	n, err := strconv.ParseFloat(p.tok.Value, 64)
	if err != nil {
		return 0, NewError(ErrSyntaxError, "Invalid number \""+p.tok.Value+"\"", p.tok.Position).WithCause(err)
	}
	p.advance()
	return n, nil
}

func (p *parser) parseName() (Node, error) {
	name := p.tok.Value
	pos := p.tok.Position

	switch name {
	case "true":
		p.advance()
		return NewConstant(true), nil
	case "false":
		p.advance()
		return NewConstant(false), nil
	}
	if _, isOp := binaryOperatorsOp[name]; isOp {
		return nil, NewError(ErrSyntaxError, "Unexpected operator \""+name+"\"", pos)
	}

	p.advance()
	if p.tok.Type != TokenParenOpen {
		return NewSymbol(name), nil
	}

	p.advance()
	var args []Node
	if p.tok.Type != TokenParenClose {
		for {
			arg, err := p.parseExpression(precOr)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.tok.Type != TokenComma {
				break
			}
			p.advance()
		}
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return NewFunction(name, args), nil
}

func (p *parser) expect(tt TokenType) error {
	if err := p.lexError(); err != nil {
		return err
	}
	if p.tok.Type != tt {
		if p.tok.Type == TokenEOF {
			return NewError(ErrUnexpectedEnd, "Expected \""+tt.String()+"\" but reached end of expression", p.tok.Position)
		}
		return NewError(ErrExpectedToken, "Expected \""+tt.String()+"\", got \""+p.tok.Value+"\"", p.tok.Position)
	}
	p.advance()
	return nil
}

func (p *parser) unexpected() error {
	if err := p.lexError(); err != nil {
		return err
	}
	value := strings.TrimSpace(p.tok.Value)
	return NewError(ErrSyntaxError, "Unexpected token \""+value+"\"", p.tok.Position)
}
