// Package diag renders and accumulates compiler diagnostics.
//
// A diagnostic renders as file:line:column, the offending source line, and
// a caret, optionally followed by a secondary note at a related location
// ("previous declaration here").
package diag

import (
	"fmt"
	"strings"

	"github.com/angara-lang/angarac/internal/token"
)

// Code classifies a diagnostic by the kind of rule it violated.
type Code string

const (
	CodeLexSyntax          Code = "syntax"
	CodeUndefinedName      Code = "undefined-name"
	CodeRedeclaration      Code = "redeclaration"
	CodeTypeMismatch       Code = "type-mismatch"
	CodeNonCallable        Code = "non-callable"
	CodeArity              Code = "arity"
	CodeArgumentMismatch   Code = "argument-mismatch"
	CodeMissingProperty    Code = "missing-property"
	CodeVisibility         Code = "visibility"
	CodeConstAssign        Code = "const-assignment"
	CodeNonExhaustiveMatch Code = "non-exhaustive-match"
	CodeNonTruthy          Code = "non-truthy-condition"
	CodeReturnShape        Code = "return-shape"
	CodeIncompatibleArms   Code = "incompatible-arms"
	CodeContractMember     Code = "contract-member"
	CodeTraitMethod        Code = "trait-method"
	CodeModuleNotFound     Code = "module-not-found"
	CodeCircularImport     Code = "circular-import"
	CodeUnknownExport      Code = "unknown-export"
	CodeExportScope        Code = "export-scope"
	CodeMain               Code = "invalid-main"
	CodeBackend            Code = "backend"
	CodeLink               Code = "link"
)

// Severity distinguishes a fatal diagnostic from advisory output.
type Severity int

const (
	SeverityError Severity = iota
	SeverityNote
)

// Diagnostic is one reported problem, optionally paired with a secondary
// note.
type Diagnostic struct {
	Code    Code
	Message string
	Pos     token.Token
	File    string
	Note    *Diagnostic // severity SeverityNote; nil if none
}

func New(code Code, pos token.Token, file, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos, File: file}
}

// WithNote attaches a secondary location+message, e.g. "previous
// declaration here".
func (d *Diagnostic) WithNote(pos token.Token, file, format string, args ...any) *Diagnostic {
	d.Note = &Diagnostic{Code: d.Code, Message: fmt.Sprintf(format, args...), Pos: pos, File: file, Note: nil}
	return d
}

func (d *Diagnostic) Error() string { return d.Format(false, "") }

// Format renders file:line:column, the source line, a caret, and the
// message, followed by the note (if any) in the same shape. color toggles
// ANSI styling of the caret.
func (d *Diagnostic) Format(color bool, source string) string {
	var sb strings.Builder
	d.formatOne(&sb, color, source)
	if d.Note != nil {
		sb.WriteString("\n")
		d.Note.formatOne(&sb, color, source)
	}
	return sb.String()
}

func (d *Diagnostic) formatOne(sb *strings.Builder, color bool, source string) {
	if d.File != "" {
		fmt.Fprintf(sb, "%s:%d:%d: ", d.File, d.Pos.Line, d.Pos.Column)
	} else {
		fmt.Fprintf(sb, "%d:%d: ", d.Pos.Line, d.Pos.Column)
	}
	sb.WriteString(d.Message)

	line := sourceLine(source, d.Pos.Line)
	if line == "" {
		return
	}
	lineNumStr := fmt.Sprintf("\n%4d | ", d.Pos.Line)
	sb.WriteString(lineNumStr)
	sb.WriteString(line)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", len(lineNumStr)-1+d.Pos.Column-1))
	if color {
		sb.WriteString("\033[1;31m")
	}
	sb.WriteString("^")
	if color {
		sb.WriteString("\033[0m")
	}
}

func sourceLine(source string, line int) string {
	if source == "" || line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Bag accumulates diagnostics for one compilation stage and tracks the
// had-error flag the driver consults between stages.
type Bag struct {
	items    []*Diagnostic
	hadError bool
}

func (b *Bag) Add(d *Diagnostic) {
	b.items = append(b.items, d)
	b.hadError = true
}

func (b *Bag) HadError() bool       { return b.hadError }
func (b *Bag) Items() []*Diagnostic { return b.items }

// FormatAll renders every accumulated diagnostic, separated by blank lines.
func (b *Bag) FormatAll(color bool, source string) string {
	parts := make([]string, 0, len(b.items))
	for _, d := range b.items {
		parts = append(parts, d.Format(color, source))
	}
	return strings.Join(parts, "\n\n")
}
