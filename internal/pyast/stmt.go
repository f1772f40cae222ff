package pyast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// StmtKind tags the statement variants the pipeline distinguishes.
type StmtKind int

const (
	StmtOther StmtKind = iota
	StmtExpr
	StmtCall
	StmtAssign
	StmtWith
	StmtFor
	StmtWhile
	StmtIf
	StmtTry
	StmtFunction
	StmtClass
)

var stmtKindNames = [...]string{
	StmtOther:    "other",
	StmtExpr:     "expr",
	StmtCall:     "call",
	StmtAssign:   "assign",
	StmtWith:     "with",
	StmtFor:      "for",
	StmtWhile:    "while",
	StmtIf:       "if",
	StmtTry:      "try",
	StmtFunction: "function",
	StmtClass:    "class",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "unknown"
}

// Stmt is one statement of a block. Expr is set for StmtExpr, StmtCall and
// StmtAssign and holds the single expression inside the statement.
type Stmt struct {
	Kind StmtKind
	Node *sitter.Node
	Expr *sitter.Node
}

// Classify tags a statement node.
func Classify(n *sitter.Node) Stmt {
	s := Stmt{Kind: StmtOther, Node: n}
	switch n.Type() {
	case "expression_statement":
		kids := NamedChildren(n)
		if len(kids) != 1 {
			s.Kind = StmtExpr
			return s
		}
		s.Expr = kids[0]
		switch kids[0].Type() {
		case "call":
			s.Kind = StmtCall
		case "assignment", "augmented_assignment":
			s.Kind = StmtAssign
		default:
			s.Kind = StmtExpr
		}
	case "with_statement":
		s.Kind = StmtWith
	case "for_statement":
		s.Kind = StmtFor
	case "while_statement":
		s.Kind = StmtWhile
	case "if_statement":
		s.Kind = StmtIf
	case "try_statement":
		s.Kind = StmtTry
	case "function_definition":
		s.Kind = StmtFunction
	case "class_definition":
		s.Kind = StmtClass
	case "decorated_definition":
		if def := n.ChildByFieldName("definition"); def != nil {
			inner := Classify(def)
			inner.Node = n
			return inner
		}
	}
	return s
}

// Statements classifies the statements of a block or module, skipping
// comments.
func Statements(block *sitter.Node) []Stmt {
	if block == nil {
		return nil
	}
	kids := NamedChildren(block)
	out := make([]Stmt, 0, len(kids))
	for _, k := range kids {
		out = append(out, Classify(k))
	}
	return out
}

// NamedChildren returns n's named children without comment nodes.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Definition unwraps a decorated_definition to the function or class it
// decorates. Other nodes are returned unchanged.
func Definition(n *sitter.Node) *sitter.Node {
	if n != nil && n.Type() == "decorated_definition" {
		if def := n.ChildByFieldName("definition"); def != nil {
			return def
		}
	}
	return n
}

// IsDocstring reports whether s is a bare string literal statement.
func IsDocstring(s Stmt) bool {
	if s.Kind != StmtExpr || s.Expr == nil {
		return false
	}
	switch s.Expr.Type() {
	case "string", "concatenated_string":
		return true
	}
	return false
}

// Body returns the body block of a function or class definition.
func Body(def *sitter.Node) *sitter.Node {
	return Definition(def).ChildByFieldName("body")
}

// Name returns the declared name of a function or class definition.
func (f *File) Name(def *sitter.Node) string {
	return f.Text(Definition(def).ChildByFieldName("name"))
}

// Walk visits n and its descendants breadth first, stopping descent into a
// node when visit returns false.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	queue := []*sitter.Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !visit(cur) {
			continue
		}
		count := int(cur.ChildCount())
		for i := 0; i < count; i++ {
			if c := cur.Child(i); c != nil {
				queue = append(queue, c)
			}
		}
	}
}

// FindFunction returns the first function definition under n in breadth
// first order whose name matches, or the first one at all when name is "".
func (f *File) FindFunction(n *sitter.Node, name string) *sitter.Node {
	var found *sitter.Node
	Walk(n, func(c *sitter.Node) bool {
		if found != nil {
			return false
		}
		if c.Type() == "function_definition" && (name == "" || f.Name(c) == name) {
			found = c
			return false
		}
		return true
	})
	return found
}

// CallTarget returns the identifier a call node invokes: the callee name for
// a direct call and the attribute name for an attribute call. ok is false
// for any other callee shape.
func (f *File) CallTarget(call *sitter.Node) (name string, viaAttribute bool, ok bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return "", false, false
	}
	switch fn.Type() {
	case "identifier":
		return f.Text(fn), false, true
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		if attr == nil {
			return "", false, false
		}
		return f.Text(attr), true, true
	}
	return "", false, false
}

// PositionalArgs returns the positional arguments of a call, skipping
// keyword arguments and ** splats.
func PositionalArgs(call *sitter.Node) []*sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.Type() != "argument_list" {
		return nil
	}
	var out []*sitter.Node
	for _, a := range NamedChildren(args) {
		switch a.Type() {
		case "keyword_argument", "dictionary_splat":
			continue
		}
		out = append(out, a)
	}
	return out
}
