package ast

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// maxMacroDepth bounds nested macro expansion while evaluating constants.
const maxMacroDepth = 32

// evaluator folds integer constant expressions: array dimensions, bit-field
// widths, enumerator values and preprocessor conditions.
type evaluator struct {
	src []byte
	// lookup resolves an identifier to a value; ok is false when the
	// identifier is unknown.
	lookup func(name string, depth int) (int64, bool)
	// preprocessor mode: defined() is honored and unknown identifiers are 0
	pp      bool
	defined func(name string) bool
	depth   int
}

func (e *evaluator) eval(n *sitter.Node) (int64, bool) {
	if n == nil {
		return 0, false
	}
	switch n.Type() {
	case "number_literal":
		return parseIntLiteral(n.Content(e.src))

	case "char_literal":
		return parseCharLiteral(n.Content(e.src))

	case "true":
		return 1, true
	case "false":
		return 0, true

	case "identifier":
		name := n.Content(e.src)
		if e.lookup != nil {
			if v, ok := e.lookup(name, e.depth+1); ok {
				return v, true
			}
		}
		if e.pp {
			return 0, true
		}
		return 0, false

	case "preproc_defined":
		if !e.pp {
			return 0, false
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "identifier" {
				return boolInt(e.defined != nil && e.defined(c.Content(e.src))), true
			}
		}
		return 0, false

	case "parenthesized_expression":
		if n.NamedChildCount() == 0 {
			return 0, false
		}
		return e.eval(n.NamedChild(int(n.NamedChildCount()) - 1))

	case "cast_expression":
		return e.eval(n.ChildByFieldName("value"))

	case "unary_expression":
		v, ok := e.eval(n.ChildByFieldName("argument"))
		if !ok {
			return 0, false
		}
		switch operator(n) {
		case "-":
			return -v, true
		case "+":
			return v, true
		case "~":
			return ^v, true
		case "!":
			return boolInt(v == 0), true
		}
		return 0, false

	case "binary_expression":
		return e.binary(n)

	case "conditional_expression":
		c, ok := e.eval(n.ChildByFieldName("condition"))
		if !ok {
			return 0, false
		}
		if c != 0 {
			return e.eval(n.ChildByFieldName("consequence"))
		}
		return e.eval(n.ChildByFieldName("alternative"))

	case "call_expression":
		// function-like macros are not expanded
		if e.pp {
			return 0, true
		}
		return 0, false
	}
	return 0, false
}

func (e *evaluator) binary(n *sitter.Node) (int64, bool) {
	op := operator(n)

	l, ok := e.eval(n.ChildByFieldName("left"))
	if !ok {
		return 0, false
	}
	// short-circuit forms never look at an unevaluable right side
	switch op {
	case "&&":
		if l == 0 {
			return 0, true
		}
	case "||":
		if l != 0 {
			return 1, true
		}
	}

	r, ok := e.eval(n.ChildByFieldName("right"))
	if !ok {
		return 0, false
	}

	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case "%":
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case "<<":
		if r < 0 || r > 63 {
			return 0, false
		}
		return l << uint(r), true
	case ">>":
		if r < 0 || r > 63 {
			return 0, false
		}
		return l >> uint(r), true
	case "&":
		return l & r, true
	case "|":
		return l | r, true
	case "^":
		return l ^ r, true
	case "&&", "||":
		return boolInt(r != 0), true
	case "==":
		return boolInt(l == r), true
	case "!=":
		return boolInt(l != r), true
	case "<":
		return boolInt(l < r), true
	case ">":
		return boolInt(l > r), true
	case "<=":
		return boolInt(l <= r), true
	case ">=":
		return boolInt(l >= r), true
	}
	return 0, false
}

func operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// parseIntLiteral parses a C integer literal with an optional u/l suffix.
// Floating literals are rejected.
func parseIntLiteral(text string) (int64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(text), "'", "")
	s = strings.TrimRight(s, "uUlL")
	if s == "" {
		return 0, false
	}

	base := 10
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		base, s = 16, s[2:]
	case strings.HasPrefix(lower, "0b"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}

	u, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, false
	}
	return int64(u), true
}

// parseCharLiteral returns the value of a character constant such as 'A' or '\n'.
func parseCharLiteral(text string) (int64, bool) {
	s := strings.TrimSpace(text)
	// drop an encoding prefix (L, u, U, u8)
	if i := strings.IndexByte(s, '\''); i > 0 {
		s = s[i:]
	}
	if len(s) < 3 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return 0, false
	}
	body := s[1 : len(s)-1]

	if body[0] != '\\' {
		r := []rune(body)
		return int64(r[0]), true
	}
	if len(body) < 2 {
		return 0, false
	}
	switch esc := body[1]; esc {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case 'a':
		return '\a', true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'v':
		return '\v', true
	case '\\', '\'', '"', '?':
		return int64(esc), true
	case 'x':
		v, err := strconv.ParseUint(body[2:], 16, 64)
		return int64(v), err == nil
	default:
		if esc >= '0' && esc <= '7' {
			v, err := strconv.ParseUint(body[1:], 8, 64)
			return int64(v), err == nil
		}
	}
	return 0, false
}
