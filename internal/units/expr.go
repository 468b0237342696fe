package units

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrSyntax is returned for malformed expressions.
	ErrSyntax = errors.New("syntax error")
	// ErrIncompatible is returned when dimensions do not line up.
	ErrIncompatible = errors.New("incompatible units")
	// ErrUnknownUnit is returned for unit names missing from the table.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrUnknownName is returned when an identifier resolves to nothing.
	ErrUnknownName = errors.New("unknown name")
)

// Resolver returns the quantity of a referenced parameter.
// ok is false when no parameter has that name.
type Resolver func(name string) (q Quantity, ok bool, err error)

var constants = map[string]float64{
	"PI": math.Pi,
	"pi": math.Pi,
}

var functions = map[string]int{
	"sqrt":  1,
	"abs":   1,
	"floor": 1,
	"ceil":  1,
	"round": 1,
	"sin":   1,
	"cos":   1,
	"tan":   1,
	"min":   2,
	"max":   2,
}

// Evaluate parses expr and computes its quantity.
// Bare numbers added to dimensioned terms are read in the context unit.
func Evaluate(expr, context string, resolve Resolver) (Quantity, error) {
	ctx, ok := Lookup(context)
	if !ok {
		return Quantity{}, fmt.Errorf("%w: %q", ErrUnknownUnit, context)
	}
	toks, err := lex(expr)
	if err != nil {
		return Quantity{}, err
	}
	if len(toks) == 1 {
		return Quantity{}, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	p := &parser{toks: toks, ctx: ctx, resolve: resolve}
	q, err := p.expr()
	if err != nil {
		return Quantity{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Quantity{}, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)
	}
	return q, nil
}

// Convert evaluates expr and expresses the result in unit.
func Convert(expr, unit string, resolve Resolver) (float64, error) {
	q, err := Evaluate(expr, unit, resolve)
	if err != nil {
		return 0, err
	}
	u, _ := Lookup(unit)
	return q.In(u)
}

// Valid reports whether expr evaluates to something compatible with unit.
func Valid(expr, unit string, resolve Resolver) bool {
	_, err := Convert(expr, unit, resolve)
	return err == nil
}

// References lists the parameter names an expression depends on, in order of first use.
// Unit suffixes, constants and function names are not references.
func References(expr string) ([]string, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	var refs []string
	seen := make(map[string]bool)
	for i, t := range toks {
		if !isReference(toks, i) || seen[t.text] {
			continue
		}
		seen[t.text] = true
		refs = append(refs, t.text)
	}
	return refs, nil
}

// Rename rewrites every reference to oldName in expr as newName.
// Text outside the rewritten identifiers is preserved byte for byte.
func Rename(expr, oldName, newName string) (string, error) {
	toks, err := lex(expr)
	if err != nil {
		return expr, err
	}
	var b strings.Builder
	last := 0
	for i, t := range toks {
		if t.text != oldName || !isReference(toks, i) {
			continue
		}
		b.WriteString(expr[last:t.pos])
		b.WriteString(newName)
		last = t.pos + len(t.text)
	}
	b.WriteString(expr[last:])
	return b.String(), nil
}

func isReference(toks []token, i int) bool {
	t := toks[i]
	if t.kind != tokIdent {
		return false
	}
	if i > 0 && toks[i-1].kind == tokNumber {
		return false // Unit suffix
	}
	if _, ok := functions[t.text]; ok && toks[i+1].kind == tokLParen {
		return false
	}
	if _, ok := constants[t.text]; ok {
		return false
	}
	return true
}

type parser struct {
	toks    []token
	i       int
	ctx     Unit
	resolve Resolver
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expr() (Quantity, error) {
	left, err := p.term()
	if err != nil {
		return Quantity{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return Quantity{}, err
		}
		if t.text == "-" {
			right.Value = -right.Value
		}
		left, err = p.add(left, right)
		if err != nil {
			return Quantity{}, err
		}
	}
}

// add combines two terms, reading bare numbers in the context unit when the other side has a dimension.
func (p *parser) add(a, b Quantity) (Quantity, error) {
	switch {
	case a.Bare && b.Bare:
		return Quantity{Value: a.Value + b.Value, Bare: true}, nil
	case a.Bare:
		a, b = b, a
		fallthrough
	case b.Bare:
		if a.Dim == Dimensionless {
			return Quantity{Value: a.Value + b.Value, Dim: a.Dim}, nil
		}
		if a.Dim != p.ctx.Dim {
			return Quantity{}, fmt.Errorf("%w: cannot add a plain number to %s", ErrIncompatible, a.Dim)
		}
		return Quantity{Value: a.Value + b.Value*p.ctx.Factor, Dim: a.Dim}, nil
	default:
		if a.Dim != b.Dim {
			return Quantity{}, fmt.Errorf("%w: %s and %s", ErrIncompatible, a.Dim, b.Dim)
		}
		return Quantity{Value: a.Value + b.Value, Dim: a.Dim}, nil
	}
}

func (p *parser) term() (Quantity, error) {
	left, err := p.unary()
	if err != nil {
		return Quantity{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return Quantity{}, err
		}
		if t.text == "*" {
			dim, err := left.Dim.mul(right.Dim)
			if err != nil {
				return Quantity{}, fmt.Errorf("%w: %w", ErrIncompatible, err)
			}
			left = Quantity{Value: left.Value * right.Value, Dim: dim, Bare: left.Bare && right.Bare}
			continue
		}
		if right.Value == 0 {
			return Quantity{}, fmt.Errorf("%w: division by zero", ErrSyntax)
		}
		dim, err := left.Dim.div(right.Dim)
		if err != nil {
			return Quantity{}, fmt.Errorf("%w: %w", ErrIncompatible, err)
		}
		left = Quantity{Value: left.Value / right.Value, Dim: dim, Bare: left.Bare && right.Bare}
	}
}

func (p *parser) unary() (Quantity, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		q, err := p.unary()
		if err != nil {
			return Quantity{}, err
		}
		if t.text == "-" {
			q.Value = -q.Value
		}
		return q, nil
	}
	return p.power()
}

func (p *parser) power() (Quantity, error) {
	base, err := p.primary()
	if err != nil {
		return Quantity{}, err
	}
	t := p.peek()
	if t.kind != tokOp || t.text != "^" {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return Quantity{}, err
	}
	if exp.Dim != Dimensionless {
		return Quantity{}, fmt.Errorf("%w: exponent must be a plain number", ErrIncompatible)
	}
	if base.Dim == Dimensionless {
		return Quantity{Value: math.Pow(base.Value, exp.Value), Bare: base.Bare}, nil
	}
	n := exp.Value
	if n != math.Trunc(n) || math.Abs(n) > 8 {
		return Quantity{}, fmt.Errorf("%w: dimensioned values need a small integer exponent", ErrIncompatible)
	}
	dim, err := base.Dim.pow(int(n))
	if err != nil {
		return Quantity{}, fmt.Errorf("%w: %w", ErrIncompatible, err)
	}
	return Quantity{Value: math.Pow(base.Value, n), Dim: dim}, nil
}

func (p *parser) primary() (Quantity, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		if u := p.peek(); u.kind == tokIdent {
			unit, ok := Lookup(u.text)
			if !ok {
				return Quantity{}, fmt.Errorf("%w: %q", ErrUnknownUnit, u.text)
			}
			p.next()
			return Quantity{Value: t.num * unit.Factor, Dim: unit.Dim}, nil
		}
		return Quantity{Value: t.num, Bare: true}, nil

	case tokLParen:
		q, err := p.expr()
		if err != nil {
			return Quantity{}, err
		}
		if p.next().kind != tokRParen {
			return Quantity{}, fmt.Errorf("%w: missing ')'", ErrSyntax)
		}
		return q, nil

	case tokIdent:
		if arity, ok := functions[t.text]; ok && p.peek().kind == tokLParen {
			return p.call(t.text, arity)
		}
		if v, ok := constants[t.text]; ok {
			return Quantity{Value: v, Bare: true}, nil
		}
		if p.resolve != nil {
			q, ok, err := p.resolve(t.text)
			if err != nil {
				return Quantity{}, err
			}
			if ok {
				return q, nil
			}
		}
		if unit, ok := Lookup(t.text); ok {
			return Quantity{Value: unit.Factor, Dim: unit.Dim}, nil
		}
		return Quantity{}, fmt.Errorf("%w: %q", ErrUnknownName, t.text)

	case tokEOF:
		return Quantity{}, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	default:
		return Quantity{}, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)
	}
}

func (p *parser) call(name string, arity int) (Quantity, error) {
	p.next() // (
	args := make([]Quantity, 0, arity)
	for {
		q, err := p.expr()
		if err != nil {
			return Quantity{}, err
		}
		args = append(args, q)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if p.next().kind != tokRParen {
		return Quantity{}, fmt.Errorf("%w: missing ')' after %s arguments", ErrSyntax, name)
	}
	if len(args) != arity {
		return Quantity{}, fmt.Errorf("%w: %s takes %d argument(s)", ErrSyntax, name, arity)
	}

	a := args[0]
	switch name {
	case "sqrt":
		for _, e := range a.Dim {
			if e%2 != 0 {
				return Quantity{}, fmt.Errorf("%w: sqrt of %s", ErrIncompatible, a.Dim)
			}
		}
		if a.Value < 0 {
			return Quantity{}, fmt.Errorf("%w: sqrt of a negative value", ErrSyntax)
		}
		var d Dimension
		for i, e := range a.Dim {
			d[i] = e / 2
		}
		return Quantity{Value: math.Sqrt(a.Value), Dim: d, Bare: a.Bare}, nil
	case "abs":
		a.Value = math.Abs(a.Value)
		return a, nil
	case "floor":
		a.Value = math.Floor(a.Value)
		return a, nil
	case "ceil":
		a.Value = math.Ceil(a.Value)
		return a, nil
	case "round":
		a.Value = math.Round(a.Value)
		return a, nil
	case "sin", "cos", "tan":
		if !a.Bare && a.Dim != angle && a.Dim != Dimensionless {
			return Quantity{}, fmt.Errorf("%w: %s expects an angle", ErrIncompatible, name)
		}
		var v float64
		switch name {
		case "sin":
			v = math.Sin(a.Value)
		case "cos":
			v = math.Cos(a.Value)
		default:
			v = math.Tan(a.Value)
		}
		return Quantity{Value: v, Bare: true}, nil
	default: // min, max
		b := args[1]
		if _, err := p.add(a, b); err != nil {
			return Quantity{}, err
		}
		// Bring bare operands into the context unit before comparing.
		if a.Bare && !b.Bare && b.Dim != Dimensionless {
			a = Quantity{Value: a.Value * p.ctx.Factor, Dim: b.Dim}
		}
		if b.Bare && !a.Bare && a.Dim != Dimensionless {
			b = Quantity{Value: b.Value * p.ctx.Factor, Dim: a.Dim}
		}
		if (name == "min") == (a.Value <= b.Value) {
			return a, nil
		}
		return b, nil
	}
}
