package syntax

import "fmt"

// Position is a point in a source file. Line and Column are 1-based;
// Offset is the 0-based byte offset.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Before reports whether p comes strictly before o in the same file.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Range is a span of source text.
type Range struct {
	Start Position
	End   Position
}

// File returns the path of the file the range belongs to.
func (r Range) File() string {
	return r.Start.File
}

// Contains reports whether (line, col) falls inside the range, inclusive.
func (r Range) Contains(line, col int) bool {
	at := Position{Line: line, Column: col}
	return !at.Before(r.Start) && !r.End.Before(at)
}

func (r Range) String() string {
	return fmt.Sprintf("%s:%d:%d-%d:%d", r.Start.File, r.Start.Line, r.Start.Column, r.End.Line, r.End.Column)
}
