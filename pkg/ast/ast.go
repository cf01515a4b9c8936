package ast

import (
	"fmt"
)

// Position is a location in source code. Line is 1-based, Column is a
// 0-based byte offset into the line.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Span is a half-open source range.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Empty reports whether the span covers no source text.
func (s Span) Empty() bool {
	return s.Start == s.End
}

// ParseError is returned by a provider when the source does not parse.
type ParseError struct {
	Message string
	Span    Span
}

func (e *ParseError) Error() string {
	return e.Message
}

// Node is a syntax tree node. The set of implementations is closed:
// *Function, *UnsafeBlock, *Statement and *Container.
type Node interface {
	NodeSpan() Span
	node()
}

// File is the root of a parsed source file. Items are the top-level
// declarations, which are not statements themselves.
type File struct {
	Path  string
	Items []Node
}

// Function is a function or method declaration. Body holds the statements
// of the function block.
type Function struct {
	Name   string
	Unsafe bool
	Span   Span
	Body   []Node
}

// UnsafeBlock is an `unsafe { ... }` block expression.
type UnsafeBlock struct {
	Span Span
	Body []Node
}

// StatementKind classifies statements.
type StatementKind uint8

const (
	StmtExpr StatementKind = iota
	StmtLet
	StmtItem
	StmtMacro
	StmtEmpty
)

func (k StatementKind) String() string {
	switch k {
	case StmtExpr:
		return "expr"
	case StmtLet:
		return "let"
	case StmtItem:
		return "item"
	case StmtMacro:
		return "macro"
	case StmtEmpty:
		return "empty"
	default:
		return fmt.Sprintf("StatementKind(%d)", uint8(k))
	}
}

// Statement is one entry of a block body. Nested holds the functions,
// unsafe blocks and containers that appear anywhere inside it.
type Statement struct {
	Kind   StatementKind
	Span   Span
	Nested []Node
}

// ContainerKind classifies containers.
type ContainerKind uint8

const (
	ContainerBlock ContainerKind = iota
	ContainerLoop
	ContainerConditional
	ContainerMatchArm
	ContainerClosure
	ContainerAsync
	ContainerConst
	ContainerImpl
	ContainerTrait
	ContainerModule
	ContainerForeign
)

var containerNames = [...]string{
	ContainerBlock:       "block",
	ContainerLoop:        "loop",
	ContainerConditional: "conditional",
	ContainerMatchArm:    "match arm",
	ContainerClosure:     "closure",
	ContainerAsync:       "async",
	ContainerConst:       "const",
	ContainerImpl:        "impl",
	ContainerTrait:       "trait",
	ContainerModule:      "module",
	ContainerForeign:     "foreign",
}

func (k ContainerKind) String() string {
	if int(k) < len(containerNames) {
		return containerNames[k]
	}
	return fmt.Sprintf("ContainerKind(%d)", uint8(k))
}

// Container is any construct that holds statements or items without
// changing their safety context.
type Container struct {
	Kind ContainerKind
	Span Span
	Body []Node
}

func (n *Function) NodeSpan() Span    { return n.Span }
func (n *UnsafeBlock) NodeSpan() Span { return n.Span }
func (n *Statement) NodeSpan() Span   { return n.Span }
func (n *Container) NodeSpan() Span   { return n.Span }

func (*Function) node()    {}
func (*UnsafeBlock) node() {}
func (*Statement) node()   {}
func (*Container) node()   {}

// Inspect traverses nodes depth-first in document order, calling fn for
// each node. If fn returns false, the children of that node are skipped.
func Inspect(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		Inspect(Children(n), fn)
	}
}

// Children returns the direct children of n.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Function:
		return n.Body
	case *UnsafeBlock:
		return n.Body
	case *Statement:
		return n.Nested
	case *Container:
		return n.Body
	default:
		panic(fmt.Sprintf("ast: unexpected node %T", n))
	}
}
