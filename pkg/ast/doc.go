// Package ast defines the syntax tree consumed by the unsafe analyzer.
//
// The tree is deliberately small. It only models what the analyzer needs to
// classify statements: functions (with their unsafe qualifier), unsafe
// blocks, statements, and the containers that hold statements (blocks,
// loops, conditionals, match arms, closures, impls and so on). A provider
// lowers a concrete parse tree into these nodes; see the treesitter
// subpackage for the Rust implementation.
//
// Usage:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	file, err := provider.Parse(src, "main.rs")
//	var perr *ast.ParseError
//	if errors.As(err, &perr) {
//	    fmt.Println(perr.Span.Start.Line, perr.Message)
//	}
package ast
