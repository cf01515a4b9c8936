// Package diag renders parse failures as compiler-style diagnostics with a
// source excerpt and a caret underline.
package diag

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/panbanda/unsafecount/pkg/ast"
)

// DefaultFileName is shown when the failing path has no final component.
const DefaultFileName = "main.rs"

const header = ": unable to parse file"

// ParseFailure bundles a parse error with the file it came from.
type ParseFailure struct {
	Err    *ast.ParseError
	Path   string
	Source []byte
}

func (f *ParseFailure) Error() string {
	return f.Path + ": " + f.Err.Message
}

func (f *ParseFailure) Unwrap() error {
	return f.Err
}

// Fallback is the one-line form used when no excerpt can be shown.
func Fallback(message string) string {
	return "Unable to parse file: " + message
}

// Render formats f as a multi-line diagnostic. It falls back to the
// one-line form when the span is empty or its line is not in the source.
// The excerpt always covers a single line; spans that continue past the
// start line are underlined to the end of it. Span columns are byte
// offsets; the location line reports them as character offsets.
func Render(f *ParseFailure, style Style) string {
	msg := f.Err.Message
	start, end := f.Err.Span.Start, f.Err.Span.End

	if start == end {
		return Fallback(msg)
	}

	line, ok := sourceLine(f.Source, start.Line)
	if !ok {
		return Fallback(msg)
	}

	if end.Line != start.Line {
		end = ast.Position{Line: start.Line, Column: len(line)}
	}

	startCol := min(max(start.Column, 0), len(line))
	endCol := min(max(end.Column, startCol), len(line))

	label := strconv.Itoa(start.Line)
	indent := strings.Repeat(" ", len(label))
	pipe := style.Gutter("|")

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s%s\n", style.Severity("error"), style.Header(header))
	fmt.Fprintf(&b, "%s%s %s:%d:%d\n", indent, style.Gutter("-->"), displayName(f.Path), start.Line, utf8.RuneCountInString(line[:startCol]))
	fmt.Fprintf(&b, "%s %s\n", indent, pipe)
	fmt.Fprintf(&b, "%s %s %s\n", style.Gutter(label), pipe, strings.TrimRightFunc(line, unicode.IsSpace))
	fmt.Fprintf(&b, "%s %s %s%s %s\n",
		indent,
		pipe,
		padding(line[:startCol]),
		style.Underline(strings.Repeat("^", underlineWidth(line[startCol:endCol]))),
		style.Message(msg),
	)
	return b.String()
}

// Fprint writes the rendered diagnostic followed by a newline.
func Fprint(w io.Writer, f *ParseFailure, style Style) error {
	_, err := fmt.Fprintln(w, Render(f, style))
	return err
}

func displayName(path string) string {
	if path == "" {
		return DefaultFileName
	}
	base := filepath.Base(path)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return DefaultFileName
	}
	return base
}

// sourceLine returns the 1-based line n of src without its terminator.
func sourceLine(src []byte, n int) (string, bool) {
	if n < 1 {
		return "", false
	}
	lines := strings.Split(string(src), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if n > len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[n-1], "\r"), true
}

// padding returns blank space as wide as prefix on a terminal. Tabs are
// kept so the caret lines up with the excerpt above it.
func padding(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func underlineWidth(seg string) int {
	w := 0
	for _, r := range seg {
		if r == '\t' {
			w++
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return max(w, 1)
}
