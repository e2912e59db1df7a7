package resolver

import (
	"math"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// eval computes the value of an expression node against the bindings
// seen so far. Unsupported forms, unknown names, and runtime errors
// like division by zero all come back as Unresolvable.
func eval(node *sitter.Node, source []byte, env map[string]any) any {
	switch node.Type() {
	case "integer":
		return evalInteger(node.Content(source))

	case "float":
		return evalFloat(node.Content(source))

	case "string":
		return evalString(node.Content(source))

	case "concatenated_string":
		var parts strings.Builder
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			part, ok := eval(child, source, env).(string)
			if !ok {
				return Unresolvable
			}
			parts.WriteString(part)
		}
		return parts.String()

	case "true":
		return true

	case "false":
		return false

	case "none":
		return nil

	case "identifier":
		if v, ok := env[node.Content(source)]; ok {
			return v
		}
		return Unresolvable

	case "unary_operator":
		return evalUnary(node, source, env)

	case "binary_operator":
		return evalBinary(node, source, env)

	case "parenthesized_expression":
		if inner := node.NamedChild(0); inner != nil {
			return eval(inner, source, env)
		}
		return Unresolvable

	case "list", "tuple":
		var items []any
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			item := eval(child, source, env)
			if item == Unresolvable {
				return Unresolvable
			}
			items = append(items, item)
		}
		if items == nil {
			items = []any{}
		}
		return items

	case "dictionary":
		entries := make(map[string]any)
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			if child.Type() != "pair" {
				return Unresolvable
			}
			keyNode := child.ChildByFieldName("key")
			valueNode := child.ChildByFieldName("value")
			if keyNode == nil || valueNode == nil {
				return Unresolvable
			}
			key, ok := eval(keyNode, source, env).(string)
			if !ok {
				return Unresolvable
			}
			value := eval(valueNode, source, env)
			if value == Unresolvable {
				return Unresolvable
			}
			entries[key] = value
		}
		return entries

	case "assignment":
		// a = b = expr evaluates through the nested assignment
		if right := node.ChildByFieldName("right"); right != nil {
			return eval(right, source, env)
		}
		return Unresolvable

	default:
		return Unresolvable
	}
}

func evalInteger(text string) any {
	text = strings.ReplaceAll(text, "_", "")
	n, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return Unresolvable
	}
	return n
}

func evalFloat(text string) any {
	text = strings.ReplaceAll(text, "_", "")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Unresolvable
	}
	return f
}

// evalString decodes a string literal. Byte strings and f-strings are
// dynamic from the checker's point of view and stay unresolved.
func evalString(text string) any {
	i := 0
	for i < len(text) && text[i] != '\'' && text[i] != '"' {
		i++
	}
	if i >= len(text) {
		return Unresolvable
	}
	prefix := strings.ToLower(text[:i])
	if strings.ContainsAny(prefix, "bf") {
		return Unresolvable
	}
	raw := strings.Contains(prefix, "r")

	quote := text[i]
	triple := string(quote) + string(quote) + string(quote)
	var body string
	switch {
	case strings.HasPrefix(text[i:], triple):
		if len(text) < i+6 || !strings.HasSuffix(text, triple) {
			return Unresolvable
		}
		body = text[i+3 : len(text)-3]
	default:
		if len(text) < i+2 || text[len(text)-1] != quote {
			return Unresolvable
		}
		body = text[i+1 : len(text)-1]
	}

	if raw {
		return body
	}
	return decodeEscapes(body)
}

// decodeEscapes expands backslash escapes the way Python does, leaving
// unrecognized escapes in place
func decodeEscapes(body string) string {
	var out strings.Builder
	out.Grow(len(body))

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			out.WriteByte(c)
			continue
		}

		i++
		switch e := body[i]; e {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case 'a':
			out.WriteByte('\a')
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case 'v':
			out.WriteByte('\v')
		case '\\', '\'', '"':
			out.WriteByte(e)
		case '\n':
			// escaped newline joins lines
		case 'x':
			if r, width, ok := hexEscape(body[i+1:], 2); ok {
				out.WriteRune(r)
				i += width
			} else {
				out.WriteString(`\x`)
			}
		case 'u':
			if r, width, ok := hexEscape(body[i+1:], 4); ok {
				out.WriteRune(r)
				i += width
			} else {
				out.WriteString(`\u`)
			}
		case 'U':
			if r, width, ok := hexEscape(body[i+1:], 8); ok {
				out.WriteRune(r)
				i += width
			} else {
				out.WriteString(`\U`)
			}
		case '0', '1', '2', '3', '4', '5', '6', '7':
			value := 0
			width := 0
			for width < 3 && i+width < len(body) && body[i+width] >= '0' && body[i+width] <= '7' {
				value = value*8 + int(body[i+width]-'0')
				width++
			}
			out.WriteRune(rune(value))
			i += width - 1
		default:
			out.WriteByte('\\')
			out.WriteByte(e)
		}
	}

	return out.String()
}

func hexEscape(s string, digits int) (rune, int, bool) {
	if len(s) < digits {
		return 0, 0, false
	}
	value, err := strconv.ParseUint(s[:digits], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return rune(value), digits, true
}

func evalUnary(node *sitter.Node, source []byte, env map[string]any) any {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		arg = node.NamedChild(0)
	}
	if arg == nil {
		return Unresolvable
	}

	value := eval(arg, source, env)
	switch operatorOf(node) {
	case "-":
		switch v := value.(type) {
		case int64:
			return -v
		case float64:
			return -v
		}
	case "+":
		switch value.(type) {
		case int64, float64:
			return value
		}
	}
	return Unresolvable
}

func evalBinary(node *sitter.Node, source []byte, env map[string]any) any {
	leftNode := node.ChildByFieldName("left")
	rightNode := node.ChildByFieldName("right")
	if leftNode == nil || rightNode == nil {
		return Unresolvable
	}

	left := eval(leftNode, source, env)
	right := eval(rightNode, source, env)
	if left == Unresolvable || right == Unresolvable {
		return Unresolvable
	}
	op := operatorOf(node)

	// Sequence forms: concatenation and repetition.
	if op == "+" {
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs
			}
			return Unresolvable
		}
		if ll, ok := left.([]any); ok {
			rl, ok := right.([]any)
			if !ok {
				return Unresolvable
			}
			joined := make([]any, 0, len(ll)+len(rl))
			joined = append(joined, ll...)
			return append(joined, rl...)
		}
	}
	if op == "*" {
		if s, n, ok := repetition(left, right); ok {
			return strings.Repeat(s, n)
		}
		if items, n, ok := listRepetition(left, right); ok {
			repeated := make([]any, 0, len(items)*n)
			for i := 0; i < n; i++ {
				repeated = append(repeated, items...)
			}
			return repeated
		}
	}

	return numericOp(op, left, right)
}

// operatorOf finds the operator token of a unary or binary expression
func operatorOf(node *sitter.Node) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); !child.IsNamed() {
			return child.Type()
		}
	}
	return ""
}

func repetition(left, right any) (string, int, bool) {
	if s, ok := left.(string); ok {
		if n, ok := right.(int64); ok && n >= 0 {
			return s, int(n), true
		}
	}
	if s, ok := right.(string); ok {
		if n, ok := left.(int64); ok && n >= 0 {
			return s, int(n), true
		}
	}
	return "", 0, false
}

func listRepetition(left, right any) ([]any, int, bool) {
	if items, ok := left.([]any); ok {
		if n, ok := right.(int64); ok && n >= 0 {
			return items, int(n), true
		}
	}
	if items, ok := right.([]any); ok {
		if n, ok := left.(int64); ok && n >= 0 {
			return items, int(n), true
		}
	}
	return nil, 0, false
}

// numericOp applies an arithmetic operator with Python semantics:
// true division always yields a float, floor division rounds toward
// negative infinity, and the sign of a modulo result follows the
// divisor.
func numericOp(op string, left, right any) any {
	if li, lok := left.(int64); lok {
		if ri, rok := right.(int64); rok {
			return intOp(op, li, ri)
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return Unresolvable
	}

	switch op {
	case "+":
		return lf + rf
	case "-":
		return lf - rf
	case "*":
		return lf * rf
	case "/":
		if rf == 0 {
			return Unresolvable
		}
		return lf / rf
	case "//":
		if rf == 0 {
			return Unresolvable
		}
		return math.Floor(lf / rf)
	case "%":
		if rf == 0 {
			return Unresolvable
		}
		m := math.Mod(lf, rf)
		if m != 0 && (m < 0) != (rf < 0) {
			m += rf
		}
		return m
	case "**":
		return math.Pow(lf, rf)
	}
	return Unresolvable
}

func intOp(op string, a, b int64) any {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		if b == 0 {
			return Unresolvable
		}
		return float64(a) / float64(b)
	case "//":
		if b == 0 {
			return Unresolvable
		}
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		return q
	case "%":
		if b == 0 {
			return Unresolvable
		}
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return m
	case "**":
		if b < 0 {
			return math.Pow(float64(a), float64(b))
		}
		return intPow(a, b)
	}
	return Unresolvable
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
