package pyast

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// Value renders n as the text print() would show for it: string literals
// are decoded, numbers are shown in canonical form, lists and dicts are
// rendered element by element. Anything that is not a literal is rendered
// as a normalized expression.
func (f *File) Value(n *sitter.Node) string {
	return f.value(n, false)
}

func (f *File) value(n *sitter.Node, nested bool) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "string", "concatenated_string":
		s, ok := f.StringValue(n)
		if !ok {
			return f.Expr(n)
		}
		if nested {
			return Repr(s)
		}
		return s
	case "integer":
		if v, ok := IntValue(f.Text(n)); ok {
			return v
		}
	case "float":
		if v, ok := FloatValue(f.Text(n)); ok {
			return v
		}
	case "true":
		return "True"
	case "false":
		return "False"
	case "none":
		return "None"
	case "unary_operator":
		op := f.Text(n.ChildByFieldName("operator"))
		arg := n.ChildByFieldName("argument")
		if arg != nil && (op == "-" || op == "+") && (arg.Type() == "integer" || arg.Type() == "float") {
			v := f.value(arg, true)
			if op == "-" {
				return "-" + v
			}
			return v
		}
	case "list":
		return "[" + strings.Join(f.values(n), ", ") + "]"
	case "tuple":
		parts := f.values(n)
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case "set":
		return "{" + strings.Join(f.values(n), ", ") + "}"
	case "parenthesized_expression":
		if kids := NamedChildren(n); len(kids) == 1 {
			return f.value(kids[0], nested)
		}
	case "dictionary":
		kids := NamedChildren(n)
		parts := make([]string, len(kids))
		for i, k := range kids {
			if k.Type() != "pair" {
				parts[i] = f.Expr(k)
				continue
			}
			parts[i] = f.value(k.ChildByFieldName("key"), true) + ": " + f.value(k.ChildByFieldName("value"), true)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return f.Expr(n)
}

// values renders the elements of a list, tuple or set as repr() shows them.
func (f *File) values(n *sitter.Node) []string {
	kids := NamedChildren(n)
	parts := make([]string, len(kids))
	for i, k := range kids {
		parts[i] = f.value(k, true)
	}
	return parts
}

// StringValue decodes a string or concatenated_string literal. ok is false
// for f-strings and bytes literals, which are not plain text constants.
func (f *File) StringValue(n *sitter.Node) (string, bool) {
	if n.Type() == "concatenated_string" {
		var b strings.Builder
		for _, part := range NamedChildren(n) {
			s, ok := f.StringValue(part)
			if !ok {
				return "", false
			}
			b.WriteString(s)
		}
		return b.String(), true
	}
	return DecodeString(f.Text(n))
}

// DecodeString decodes the source text of a single Python string literal.
func DecodeString(lit string) (string, bool) {
	i := 0
	for i < len(lit) && lit[i] != '\'' && lit[i] != '"' {
		i++
	}
	prefix := strings.ToLower(lit[:i])
	if strings.ContainsAny(prefix, "fb") {
		return "", false
	}
	body := lit[i:]
	var inner string
	switch {
	case len(body) >= 6 && (strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, `'''`)):
		inner = body[3 : len(body)-3]
	case len(body) >= 2:
		inner = body[1 : len(body)-1]
	default:
		return "", false
	}
	if strings.Contains(prefix, "r") {
		return inner, true
	}
	return unescape(inner), true
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+1+width <= len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += width
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(v))
			i = j - 1
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}

// Repr quotes s the way Python's repr() does for str.
func Repr(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == utf8.RuneError || !unicode.IsPrint(r):
			switch {
			case r < 0x100:
				b.WriteString(`\x` + pad(strconv.FormatInt(int64(r), 16), 2))
			case r < 0x10000:
				b.WriteString(`\u` + pad(strconv.FormatInt(int64(r), 16), 4))
			default:
				b.WriteString(`\U` + pad(strconv.FormatInt(int64(r), 16), 8))
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

// IntValue renders an integer literal in decimal, as str() does.
func IntValue(lit string) (string, bool) {
	if strings.HasSuffix(lit, "j") || strings.HasSuffix(lit, "J") {
		return "", false
	}
	v, ok := new(big.Int).SetString(strings.ToLower(lit), 0)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// FloatValue renders a float literal the way Python's repr() does.
func FloatValue(lit string) (string, bool) {
	if strings.HasSuffix(lit, "j") || strings.HasSuffix(lit, "J") {
		return "", false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 64)
	if err != nil {
		return "", false
	}
	return FormatFloat(v), true
}

// FormatFloat formats v with Python's shortest round-trip repr rules.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(v, 'e', -1, 64)
}
