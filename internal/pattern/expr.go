package pattern

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Custom patterns are compiled from arithmetic expressions over the
// variables phase and intensity into a small fixed AST. Only arithmetic,
// comparisons and a whitelist of math functions are representable, so a
// stored expression can never execute arbitrary code.

// Expr is a compiled pattern expression.
type Expr struct {
	src  string
	root node
}

// CompileExpr parses an expression into an evaluatable form.
func CompileExpr(src string) (*Expr, error) {
	p := &exprParser{toks: lex(src)}
	root, err := p.parseComparison()
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	if !p.eof() {
		return nil, fmt.Errorf("compile %q: unexpected %q", src, p.peek().text)
	}
	return &Expr{src: src, root: root}, nil
}

// Eval evaluates the expression. The result is clamped to [0,1] so a custom
// pattern always satisfies the pattern contract.
func (e *Expr) Eval(phase, intensity float64) float64 {
	v := e.root.eval(phase, intensity)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Func adapts the expression to the pattern function signature.
func (e *Expr) Func() Func {
	return e.Eval
}

// String returns the source text.
func (e *Expr) String() string {
	return e.src
}

type node interface {
	eval(phase, intensity float64) float64
}

type numNode float64

func (n numNode) eval(_, _ float64) float64 { return float64(n) }

type varNode int

const (
	varPhase varNode = iota
	varIntensity
	varPi
)

func (n varNode) eval(phase, intensity float64) float64 {
	switch n {
	case varPhase:
		return phase
	case varIntensity:
		return intensity
	default:
		return math.Pi
	}
}

type binNode struct {
	op   string
	l, r node
}

func (n *binNode) eval(phase, intensity float64) float64 {
	l := n.l.eval(phase, intensity)
	r := n.r.eval(phase, intensity)
	switch n.op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		if r == 0 {
			return 0
		}
		return l / r
	case "%":
		if r == 0 {
			return 0
		}
		return math.Mod(l, r)
	case "<":
		return boolVal(l < r)
	case ">":
		return boolVal(l > r)
	case "<=":
		return boolVal(l <= r)
	case ">=":
		return boolVal(l >= r)
	case "==":
		return boolVal(l == r)
	case "!=":
		return boolVal(l != r)
	}
	return 0
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

type negNode struct{ n node }

func (n *negNode) eval(phase, intensity float64) float64 {
	return -n.n.eval(phase, intensity)
}

type callNode struct {
	name string
	args []node
}

func (n *callNode) eval(phase, intensity float64) float64 {
	args := make([]float64, len(n.args))
	for i, a := range n.args {
		args[i] = a.eval(phase, intensity)
	}
	switch n.name {
	case "sin":
		return math.Sin(args[0])
	case "cos":
		return math.Cos(args[0])
	case "tan":
		return math.Tan(args[0])
	case "abs":
		return math.Abs(args[0])
	case "sqrt":
		if args[0] < 0 {
			return 0
		}
		return math.Sqrt(args[0])
	case "floor":
		return math.Floor(args[0])
	case "ceil":
		return math.Ceil(args[0])
	case "round":
		return math.Round(args[0])
	case "min":
		return math.Min(args[0], args[1])
	case "max":
		return math.Max(args[0], args[1])
	case "pow":
		return math.Pow(args[0], args[1])
	case "clamp":
		return math.Min(math.Max(args[0], args[1]), args[2])
	}
	return 0
}

// arity maps allowed function names to their argument counts.
var arity = map[string]int{
	"sin": 1, "cos": 1, "tan": 1, "abs": 1, "sqrt": 1,
	"floor": 1, "ceil": 1, "round": 1,
	"min": 2, "max": 2, "pow": 2,
	"clamp": 3,
}

type token struct {
	kind string // "num", "ident", "op", "eof"
	text string
}

func lex(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || c == '.':
			j := i
			for j < len(src) && (unicode.IsDigit(rune(src[j])) || src[j] == '.') {
				j++
			}
			toks = append(toks, token{"num", src[i:j]})
			i = j
		case unicode.IsLetter(c):
			j := i
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j]))) {
				j++
			}
			toks = append(toks, token{"ident", strings.ToLower(src[i:j])})
			i = j
		case strings.ContainsRune("<>=!", c) && i+1 < len(src) && src[i+1] == '=':
			toks = append(toks, token{"op", src[i : i+2]})
			i += 2
		case strings.ContainsRune("+-*/%()<>,", c):
			toks = append(toks, token{"op", string(c)})
			i++
		default:
			toks = append(toks, token{"op", string(c)}) // rejected by parser
			i++
		}
	}
	return append(toks, token{kind: "eof"})
}

type exprParser struct {
	toks []token
	pos  int
}

func (p *exprParser) peek() token { return p.toks[p.pos] }
func (p *exprParser) next() token { t := p.toks[p.pos]; p.pos++; return t }
func (p *exprParser) eof() bool { return p.peek().kind == "eof" }
func (p *exprParser) accept(op string) bool {
	if p.peek().kind == "op" && p.peek().text == op {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) parseComparison() (node, error) {
	l, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for _, op := range []string{"<=", ">=", "==", "!=", "<", ">"} {
		if p.accept(op) {
			r, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &binNode{op: op, l: l, r: r}, nil
		}
	}
	return l, nil
}

func (p *exprParser) parseAdditive() (node, error) {
	l, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.accept("+"):
			op = "+"
		case p.accept("-"):
			op = "-"
		default:
			return l, nil
		}
		r, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		l = &binNode{op: op, l: l, r: r}
	}
}

func (p *exprParser) parseTerm() (node, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.accept("*"):
			op = "*"
		case p.accept("/"):
			op = "/"
		case p.accept("%"):
			op = "%"
		default:
			return l, nil
		}
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &binNode{op: op, l: l, r: r}
	}
}

func (p *exprParser) parseUnary() (node, error) {
	if p.accept("-") {
		n, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &negNode{n: n}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (node, error) {
	t := p.peek()
	switch t.kind {
	case "num":
		p.next()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", t.text)
		}
		return numNode(v), nil

	case "ident":
		p.next()
		if p.accept("(") {
			n, ok := arity[t.text]
			if !ok {
				return nil, fmt.Errorf("unknown function %q", t.text)
			}
			var args []node
			if !p.accept(")") {
				for {
					a, err := p.parseComparison()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.accept(")") {
						break
					}
					if !p.accept(",") {
						return nil, fmt.Errorf("expected ',' or ')' in %s()", t.text)
					}
				}
			}
			if len(args) != n {
				return nil, fmt.Errorf("%s() takes %d args, got %d", t.text, n, len(args))
			}
			return &callNode{name: t.text, args: args}, nil
		}
		switch t.text {
		case "phase":
			return varPhase, nil
		case "intensity":
			return varIntensity, nil
		case "pi":
			return varPi, nil
		}
		return nil, fmt.Errorf("unknown variable %q", t.text)

	case "op":
		if p.accept("(") {
			n, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			if !p.accept(")") {
				return nil, fmt.Errorf("missing ')'")
			}
			return n, nil
		}
	}
	return nil, fmt.Errorf("unexpected %q", t.text)
}

// CustomMode compiles the named expressions into a mode. Entries that fail
// to compile are skipped with a warning; compilation never aborts the load.
func CustomMode(exprs map[string]string, multiplier float64, warn func(name string, err error)) *Mode {
	m := &Mode{
		Name:       "custom",
		Enabled:    true,
		Multiplier: multiplier,
		Patterns:   make(map[string]Func),
	}
	for name, src := range exprs {
		e, err := CompileExpr(src)
		if err != nil {
			if warn != nil {
				warn(name, err)
			}
			continue
		}
		m.Patterns[name] = e.Func()
	}
	return m
}
