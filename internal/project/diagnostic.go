package project

import (
	"fmt"

	"github.com/jward/feather/internal/syntax"
)

// Severity of a Diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic kinds.
const (
	DiagnosticDeclaration = "declaration"
	DiagnosticAnnotation  = "annotation"
	DiagnosticSpec        = "spec"
	DiagnosticParser      = "parser"
)

// Diagnostic reports recoverable malformed input. The affected symbol or
// type was skipped or fell back to Unknown.
type Diagnostic struct {
	Kind     string
	Severity Severity
	Message  string
	Range    syntax.Range
}

func (d Diagnostic) String() string {
	if d.Range.File() == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.Range.File(), d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message)
}

// Warningf builds a warning diagnostic.
func Warningf(kind string, rng syntax.Range, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Range: rng}
}
