package providers

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/runger/burrow/internal/result"
)

// looksLikeMath reports whether the input plausibly is an arithmetic
// expression. A bare number is not: typing "42" should search apps.
func looksLikeMath(input string) bool {
	if strings.ContainsAny(input, "+-*/^%") {
		return true
	}
	return strings.HasPrefix(input, "(")
}

// Calculate evaluates an arithmetic expression and returns it as an
// inline result. The second return is false when the input is not a
// valid expression, including division by zero, so the caller can fall
// through to app search.
func Calculate(input string) (result.SearchResult, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || !looksLikeMath(trimmed) {
		return result.SearchResult{}, false
	}

	p := &exprParser{input: trimmed}
	value, err := p.parse()
	if err != nil {
		return result.SearchResult{}, false
	}

	rendered := formatNumber(value)
	return result.SearchResult{
		ID:          "math-result",
		Name:        "= " + rendered,
		Description: fmt.Sprintf("%s = %s", trimmed, rendered),
		Category:    result.CategoryMath,
	}, true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// exprParser is a recursive-descent evaluator for the closed grammar
// of numeric literals, + - * / ^ %, and parentheses. No identifiers,
// no function calls.
type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) parse() (float64, error) {
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected character at position %d", p.pos)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("expression has no finite value")
	}
	return v, nil
}

func (p *exprParser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.term()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) term() (float64, error) {
	v, err := p.power()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.power()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.power()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= rhs
		case '%':
			p.pos++
			rhs, err := p.power()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			v = math.Mod(v, rhs)
		default:
			return v, nil
		}
	}
}

// power handles ^ with right associativity: 2^3^2 is 2^(3^2).
func (p *exprParser) power() (float64, error) {
	base, err := p.unary()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.peek() != '^' {
		return base, nil
	}
	p.pos++
	exp, err := p.power()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

func (p *exprParser) unary() (float64, error) {
	p.skipSpace()
	if p.peek() == '-' {
		p.pos++
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	return p.primary()
}

func (p *exprParser) primary() (float64, error) {
	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}
	return p.number()
}

func (p *exprParser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected number at position %d", start)
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}
