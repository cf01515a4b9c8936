package treesitter

import (
	"context"
	"fmt"
	"strings"

	"github.com/panbanda/unsafecount/pkg/ast"
	"github.com/panbanda/unsafecount/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Provider lowers tree-sitter Rust parse trees into ast.File values.
type Provider struct {
	parser *parser.Parser
}

// New creates a new tree-sitter based provider.
func New() *Provider {
	return &Provider{
		parser: parser.New(),
	}
}

// Parse parses Rust source. A source with syntax errors returns an
// *ast.ParseError describing the first error in document order.
func (p *Provider) Parse(ctx context.Context, source []byte, path string) (*ast.File, error) {
	result, err := p.parser.Parse(ctx, source, path)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	root := result.Tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source)
	}

	l := lowerer{source: source}
	return &ast.File{
		Path:  path,
		Items: l.children(root),
	}, nil
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}

// Node types that never count as statements even though they are named
// children of a block.
var nonStatements = map[string]bool{
	"line_comment":         true,
	"block_comment":        true,
	"attribute_item":       true,
	"inner_attribute_item": true,
	"label":                true,
}

var itemContainers = map[string]ast.ContainerKind{
	"impl_item":        ast.ContainerImpl,
	"trait_item":       ast.ContainerTrait,
	"mod_item":         ast.ContainerModule,
	"foreign_mod_item": ast.ContainerForeign,
}

type lowerer struct {
	source []byte
}

// children lowers the named children of n in order.
func (l *lowerer) children(n *sitter.Node) []ast.Node {
	var out []ast.Node
	for i := range int(n.NamedChildCount()) {
		out = append(out, l.lower(n.NamedChild(i), n)...)
	}
	return out
}

// lower converts n to zero or more ast nodes. Node types without a
// counterpart are transparent and yield whatever their subtree lowers to.
func (l *lowerer) lower(n, parent *sitter.Node) []ast.Node {
	nodeType := n.Type()
	switch nodeType {
	case "function_item":
		return []ast.Node{l.function(n)}
	case "unsafe_block":
		return []ast.Node{&ast.UnsafeBlock{
			Span: spanOf(n),
			Body: l.unsafeBody(n),
		}}
	case "block":
		return []ast.Node{&ast.Container{
			Kind: blockKind(parent),
			Span: spanOf(n),
			Body: l.statements(n),
		}}
	}

	if kind, ok := itemContainers[nodeType]; ok {
		return []ast.Node{&ast.Container{
			Kind: kind,
			Span: spanOf(n),
			Body: l.children(n),
		}}
	}

	return l.children(n)
}

func (l *lowerer) function(n *sitter.Node) *ast.Function {
	fn := &ast.Function{
		Name:   parser.GetNodeText(n.ChildByFieldName("name"), l.source),
		Unsafe: hasUnsafeModifier(n),
		Span:   spanOf(n),
	}

	body := n.ChildByFieldName("body")
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		if body != nil && sameNode(child, body) {
			fn.Body = append(fn.Body, l.statements(child)...)
			continue
		}
		fn.Body = append(fn.Body, l.lower(child, n)...)
	}
	return fn
}

func (l *lowerer) unsafeBody(n *sitter.Node) []ast.Node {
	var out []ast.Node
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		if child.Type() == "block" {
			out = append(out, l.statements(child)...)
			continue
		}
		out = append(out, l.lower(child, n)...)
	}
	return out
}

// statements lowers each named child of a block into a Statement.
func (l *lowerer) statements(block *sitter.Node) []ast.Node {
	var out []ast.Node
	for i := range int(block.NamedChildCount()) {
		child := block.NamedChild(i)
		if nonStatements[child.Type()] {
			continue
		}
		out = append(out, &ast.Statement{
			Kind:   statementKind(child),
			Span:   spanOf(child),
			Nested: l.lower(child, block),
		})
	}
	return out
}

func statementKind(n *sitter.Node) ast.StatementKind {
	nodeType := n.Type()
	if nodeType == "expression_statement" && n.NamedChildCount() > 0 {
		if n.NamedChild(0).Type() == "macro_invocation" {
			return ast.StmtMacro
		}
	}
	switch nodeType {
	case "let_declaration":
		return ast.StmtLet
	case "macro_invocation":
		return ast.StmtMacro
	case "empty_statement":
		return ast.StmtEmpty
	case "use_declaration", "extern_crate_declaration", "macro_definition", "associated_type":
		return ast.StmtItem
	}
	if strings.HasSuffix(nodeType, "_item") {
		return ast.StmtItem
	}
	return ast.StmtExpr
}

// blockKind names a block after the construct that owns it.
func blockKind(parent *sitter.Node) ast.ContainerKind {
	if parent == nil {
		return ast.ContainerBlock
	}
	switch parent.Type() {
	case "loop_expression", "while_expression", "while_let_expression", "for_expression":
		return ast.ContainerLoop
	case "if_expression", "if_let_expression", "else_clause":
		return ast.ContainerConditional
	case "match_arm":
		return ast.ContainerMatchArm
	case "closure_expression":
		return ast.ContainerClosure
	case "async_block":
		return ast.ContainerAsync
	case "const_block":
		return ast.ContainerConst
	default:
		return ast.ContainerBlock
	}
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func hasUnsafeModifier(fn *sitter.Node) bool {
	for i := range int(fn.NamedChildCount()) {
		mods := fn.NamedChild(i)
		if mods.Type() != "function_modifiers" {
			continue
		}
		for j := range int(mods.ChildCount()) {
			if mods.Child(j).Type() == "unsafe" {
				return true
			}
		}
	}
	return false
}

func spanOf(n *sitter.Node) ast.Span {
	start, end := n.StartPoint(), n.EndPoint()
	return ast.Span{
		Start: ast.Position{Line: int(start.Row) + 1, Column: int(start.Column)},
		End:   ast.Position{Line: int(end.Row) + 1, Column: int(end.Column)},
	}
}

// syntaxError describes the first MISSING node or innermost ERROR node
// under root.
func syntaxError(root *sitter.Node, source []byte) *ast.ParseError {
	n := firstError(root, source)
	if n == nil {
		return &ast.ParseError{Message: "syntax error"}
	}

	if n.IsMissing() {
		what := n.Type()
		if !n.IsNamed() {
			what = "`" + what + "`"
		}
		return &ast.ParseError{
			Message: "expected " + what,
			Span:    spanOf(n),
		}
	}

	tok := firstLine(parser.GetNodeText(firstLeaf(n), source))
	msg := "unexpected end of input"
	if tok != "" {
		msg = fmt.Sprintf("unexpected `%s`", tok)
	}
	return &ast.ParseError{
		Message: msg,
		Span:    spanOf(n),
	}
}

// firstError returns the first MISSING node in document order, or the
// first ERROR node that has no ERROR descendants.
func firstError(root *sitter.Node, source []byte) *sitter.Node {
	var found *sitter.Node
	done := false
	parser.WalkTyped(root, source, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if done {
			return false
		}
		if found != nil && !within(n, found) {
			done = true
			return false
		}
		if n.IsMissing() {
			found, done = n, true
			return false
		}
		if !n.HasError() {
			return false
		}
		if nodeType == "ERROR" {
			found = n
		}
		return true
	})
	return found
}

func within(n, outer *sitter.Node) bool {
	return n.StartByte() >= outer.StartByte() && n.EndByte() <= outer.EndByte()
}

func firstLeaf(n *sitter.Node) *sitter.Node {
	for n.ChildCount() > 0 {
		n = n.Child(0)
	}
	return n
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
