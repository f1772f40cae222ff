package pyast

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// isQualifier reports whether n is the bare instance-scope identifier.
func (f *File) isQualifier(n *sitter.Node) bool {
	return n != nil && n.Type() == "identifier" && f.Text(n) == f.qualifier
}

type span struct{ start, end uint32 }

// qualifierSpans collects the "self." prefixes inside n as byte ranges.
func (f *File) qualifierSpans(n *sitter.Node) []span {
	var spans []span
	Walk(n, func(c *sitter.Node) bool {
		if c.Type() != "attribute" {
			return true
		}
		obj := c.ChildByFieldName("object")
		attr := c.ChildByFieldName("attribute")
		if attr != nil && f.isQualifier(obj) {
			spans = append(spans, span{obj.StartByte(), attr.StartByte()})
		}
		return true
	})
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

// StripQualifier returns the source text of n with every qualifier prefix
// removed. Only attribute accesses on the bare qualifier identifier are
// touched, so names that merely end in the qualifier survive.
func (f *File) StripQualifier(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	spans := f.qualifierSpans(n)
	if len(spans) == 0 {
		return f.Text(n)
	}
	var b strings.Builder
	pos := n.StartByte()
	for _, s := range spans {
		if s.start < pos {
			continue
		}
		b.Write(f.Src[pos:s.start])
		pos = s.end
	}
	b.Write(f.Src[pos:n.EndByte()])
	return b.String()
}

// Statement renders a statement as free-standing code: qualifier stripped
// and continuation lines dedented to column zero. Lines that start inside a
// string literal are part of its value and stay as written.
func (f *File) Statement(n *sitter.Node) string {
	return dedent(f.StripQualifier(n), int(n.StartPoint().Column), f.stringLines(n))
}

// Verbatim is Statement without qualifier stripping.
func (f *File) Verbatim(n *sitter.Node) string {
	return dedent(f.Text(n), int(n.StartPoint().Column), f.stringLines(n))
}

// IndentedStatement renders n with Statement and prefixes every line that
// is not inside a string literal.
func (f *File) IndentedStatement(n *sitter.Node, prefix string) string {
	skip := f.stringLines(n)
	lines := strings.Split(f.Statement(n), "\n")
	for i, line := range lines {
		if !skip[i] && strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// stringLines returns the indexes, relative to n's first line, of the lines
// that begin inside a multi-line string literal of n.
func (f *File) stringLines(n *sitter.Node) map[int]bool {
	var skip map[int]bool
	first := int(n.StartPoint().Row)
	Walk(n, func(c *sitter.Node) bool {
		if c.Type() != "string" {
			return true
		}
		start, end := int(c.StartPoint().Row), int(c.EndPoint().Row)
		for row := start + 1; row <= end; row++ {
			if skip == nil {
				skip = make(map[int]bool)
			}
			skip[row-first] = true
		}
		return false
	})
	return skip
}

// Dedent removes up to col leading blanks from every line after the first.
func Dedent(text string, col int) string {
	return dedent(text, col, nil)
}

func dedent(text string, col int, skip map[int]bool) string {
	if col <= 0 || !strings.Contains(text, "\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if skip[i] {
			continue
		}
		line := lines[i]
		cut := 0
		for cut < col && cut < len(line) && (line[cut] == ' ' || line[cut] == '\t') {
			cut++
		}
		lines[i] = line[cut:]
	}
	return strings.Join(lines, "\n")
}

// Indent prefixes every non-empty line of text with prefix.
func Indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// Expr renders an expression with normalized spacing and the qualifier
// stripped. Shapes it does not know fall back to the stripped source text.
func (f *File) Expr(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "attribute":
		obj := n.ChildByFieldName("object")
		attr := n.ChildByFieldName("attribute")
		if f.isQualifier(obj) {
			return f.Text(attr)
		}
		return f.Expr(obj) + "." + f.Text(attr)
	case "call":
		args := n.ChildByFieldName("arguments")
		callee := f.Expr(n.ChildByFieldName("function"))
		if args == nil || args.Type() != "argument_list" {
			return callee + f.StripQualifier(args)
		}
		return callee + "(" + f.exprList(NamedChildren(args)) + ")"
	case "keyword_argument":
		return f.Text(n.ChildByFieldName("name")) + "=" + f.Expr(n.ChildByFieldName("value"))
	case "list":
		return "[" + f.exprList(NamedChildren(n)) + "]"
	case "set":
		return "{" + f.exprList(NamedChildren(n)) + "}"
	case "tuple", "expression_list":
		kids := NamedChildren(n)
		if len(kids) == 1 {
			return "(" + f.Expr(kids[0]) + ",)"
		}
		return "(" + f.exprList(kids) + ")"
	case "dictionary":
		return "{" + f.exprList(NamedChildren(n)) + "}"
	case "pair":
		return f.Expr(n.ChildByFieldName("key")) + ": " + f.Expr(n.ChildByFieldName("value"))
	case "list_splat":
		return "*" + f.Expr(firstNamed(n))
	case "dictionary_splat":
		return "**" + f.Expr(firstNamed(n))
	case "parenthesized_expression":
		return "(" + f.Expr(firstNamed(n)) + ")"
	case "unary_operator":
		return f.Text(n.ChildByFieldName("operator")) + f.Expr(n.ChildByFieldName("argument"))
	case "not_operator":
		return "not " + f.Expr(n.ChildByFieldName("argument"))
	case "binary_operator", "boolean_operator":
		return f.Expr(n.ChildByFieldName("left")) + " " +
			f.Text(n.ChildByFieldName("operator")) + " " +
			f.Expr(n.ChildByFieldName("right"))
	case "comparison_operator":
		var parts []string
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			c := n.Child(i)
			if c == nil || c.Type() == "comment" {
				continue
			}
			if c.IsNamed() {
				parts = append(parts, f.Expr(c))
			} else {
				parts = append(parts, strings.Join(strings.Fields(f.Text(c)), " "))
			}
		}
		return strings.Join(parts, " ")
	case "subscript":
		kids := NamedChildren(n)
		if len(kids) < 2 {
			break
		}
		return f.Expr(kids[0]) + "[" + f.exprList(kids[1:]) + "]"
	case "conditional_expression":
		kids := NamedChildren(n)
		if len(kids) != 3 {
			break
		}
		return f.Expr(kids[0]) + " if " + f.Expr(kids[1]) + " else " + f.Expr(kids[2])
	case "await":
		return "await " + f.Expr(firstNamed(n))
	}
	return f.StripQualifier(n)
}

func (f *File) exprList(nodes []*sitter.Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = f.Expr(n)
	}
	return strings.Join(parts, ", ")
}

func firstNamed(n *sitter.Node) *sitter.Node {
	kids := NamedChildren(n)
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}
