package unsafety

import (
	"fmt"

	"github.com/panbanda/unsafecount/pkg/ast"
)

// Walk classifies every statement in file as safe or unsafe and records
// each unsafe region it passes through.
//
// A statement is unsafe when at least one unsafe block or unsafe function
// encloses it. The statement that opens a region (for example
// `let x = unsafe { ... };`) is attributed to the depth outside that region.
//
// Unsafe functions qualify wherever they are declared, including methods
// in impl and trait blocks. An `unsafe impl` does not qualify its methods.
func Walk(file *ast.File) WalkResult {
	w := &walker{}
	w.visitAll(file.Items)
	if w.depth != 0 {
		panic(fmt.Sprintf("unsafety: depth %d after walk", w.depth))
	}
	return WalkResult{Counts: w.counts, Regions: w.regions}
}

// Count returns only the statement counts for file.
func Count(file *ast.File) Counts {
	return Walk(file).Counts
}

// WalkResult is the outcome of walking one file.
type WalkResult struct {
	Counts  Counts
	Regions []Region
}

type walker struct {
	counts  Counts
	depth   int
	regions []Region
}

// enter opens an unsafe region and returns the function that closes it.
// Callers defer the returned function so depth is restored on every path.
func (w *walker) enter(kind RegionKind, name string, span ast.Span) func() {
	w.depth++
	idx := len(w.regions)
	w.regions = append(w.regions, Region{
		Kind:      kind,
		Name:      name,
		StartLine: span.Start.Line,
		EndLine:   span.End.Line,
		Depth:     w.depth,
	})
	before := w.counts.Total

	return func() {
		w.regions[idx].Statements = w.counts.Total - before
		w.depth--
	}
}

func (w *walker) visitAll(nodes []ast.Node) {
	for _, n := range nodes {
		w.visit(n)
	}
}

func (w *walker) visit(n ast.Node) {
	switch n := n.(type) {
	case *ast.Statement:
		w.counts.Total++
		if w.depth > 0 {
			w.counts.Unsafe++
		}
		w.visitAll(n.Nested)

	case *ast.UnsafeBlock:
		defer w.enter(RegionBlock, "", n.Span)()
		w.visitAll(n.Body)

	case *ast.Function:
		if n.Unsafe {
			defer w.enter(RegionFunction, n.Name, n.Span)()
		}
		w.visitAll(n.Body)

	case *ast.Container:
		w.visitAll(n.Body)

	default:
		panic(fmt.Sprintf("unsafety: unexpected node %T", n))
	}
}
