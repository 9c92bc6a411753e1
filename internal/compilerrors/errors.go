// Package compilerrors formats compiler errors with source context,
// line/column information, and a caret pointing at the offending span.
package compilerrors

import (
	"fmt"
	"strings"
)

// Span is a half-open byte-offset interval [Start, End) into the source text.
type Span struct {
	Start int
	End   int
}

// Kind classifies where in the pipeline a CompilerError originated.
type Kind int

const (
	// KindLex marks an error raised while scanning characters into tokens.
	KindLex Kind = iota
	// KindParse marks an error raised while building the AST.
	KindParse
	// KindEmit marks a semantic error discovered during code generation.
	KindEmit
	// KindInternal marks a failure in the compiler itself (e.g. serialization).
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lex error"
	case KindParse:
		return "parse error"
	case KindEmit:
		return "emit error"
	case KindInternal:
		return "internal error"
	default:
		return "error"
	}
}

// CompilerError represents a single compilation failure with a source span.
// Compilation is not recovered locally: the first CompilerError aborts the pipeline.
type CompilerError struct {
	Kind    Kind
	Message string
	Source  string
	File    string
	Span    Span
}

// New creates a CompilerError. Source and File may be empty; Format degrades
// gracefully (no caret, no header) when they are.
func New(kind Kind, message string, span Span, source, file string) *CompilerError {
	return &CompilerError{Kind: kind, Message: message, Span: span, Source: source, File: file}
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	return e.Format(false)
}

// line returns the 1-indexed line and column for a byte offset into Source.
func (e *CompilerError) line(offset int) (line, column int) {
	line = 1
	lineStart := 0
	for i := 0; i < offset && i < len(e.Source); i++ {
		if e.Source[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, offset - lineStart + 1
}

func (e *CompilerError) sourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// Format renders the error with a source snippet and caret. If color is true,
// ANSI escapes highlight the message and caret for terminal output.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	line, column := e.line(e.Span.Start)

	if e.File != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d\n", e.Kind, e.File, line, column)
	} else {
		fmt.Fprintf(&sb, "%s at %d:%d\n", e.Kind, line, column)
	}

	if src := e.sourceLine(line); src != "" {
		lineNumStr := fmt.Sprintf("%4d | ", line)
		sb.WriteString(lineNumStr)
		sb.WriteString(src)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

// FormatErrors formats multiple compiler errors, numbered, for CLI display.
// The compiler pipeline itself only ever surfaces one error at a time; this
// helper exists for callers (tests, tooling) that aggregate several runs.
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "compilation failed with %d error(s):\n\n", len(errs))
	for i, err := range errs {
		fmt.Fprintf(&sb, "[%d/%d] ", i+1, len(errs))
		sb.WriteString(err.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
