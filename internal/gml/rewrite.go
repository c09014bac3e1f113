package gml

import (
	"bytes"
	"sort"

	"github.com/jward/feather/internal/syntax"
)

// macro is a #macro directive removed from the source before parsing.
type macro struct {
	name       string
	nameStart  int
	value      string
	valueStart int
	end        int
}

// ctorMark records a constructor suffix removed from a function. It is
// keyed by the offset of the parameter list's closing paren.
type ctorMark struct {
	parent      string
	parentStart int
}

// source is GML text rewritten into TypeScript of the same byte length.
// Every rewritten byte is replaced in place and newlines are preserved, so
// offsets, lines and columns in the rewritten text are those of the
// original.
type source struct {
	text       []byte
	macros     []macro
	ctors      map[int]ctorMark
	globalvars map[int]bool
	lines      []int
}

// rewrite blanks #macro, #region and #endregion lines, turns globalvar into
// var, and removes the ": Parent(...) constructor" suffix of constructor
// functions, recording each change.
func rewrite(src []byte) *source {
	s := &source{
		text:       bytes.Clone(src),
		ctors:      make(map[int]ctorMark),
		globalvars: make(map[int]bool),
		lines:      lineStarts(src),
	}
	code := codeMask(src)

	for _, start := range s.lines {
		end := start
		for end < len(src) && src[end] != '\n' {
			end++
		}
		i := start
		for i < end && (src[i] == ' ' || src[i] == '\t') {
			i++
		}
		if i >= end || src[i] != '#' || !code[i] {
			continue
		}
		word := readIdent(src, i+1)
		switch word {
		case "macro":
			if m, ok := parseMacro(src, i+1+len(word), end); ok {
				s.macros = append(s.macros, m)
			}
			blank(s.text, start, end)
		case "region", "endregion":
			blank(s.text, start, end)
		}
	}

	for i := 0; i < len(src); i++ {
		if !code[i] || (i > 0 && isIdentByte(src[i-1])) {
			continue
		}
		switch {
		case hasWord(src, i, "globalvar"):
			copy(s.text[i:], "var      ")
			s.globalvars[i] = true
			i += len("globalvar") - 1
		case hasWord(src, i, "constructor"):
			s.constructor(src, i)
			i += len("constructor") - 1
		}
	}
	return s
}

func parseMacro(src []byte, i, end int) (macro, bool) {
	for i < end && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	name := readIdent(src, i)
	if name == "" {
		return macro{}, false
	}
	m := macro{name: name, nameStart: i, end: end}
	// #macro CONFIG:NAME value
	if next := i + len(name); next < end && src[next] == ':' {
		if configured := readIdent(src, next+1); configured != "" {
			m.name, m.nameStart = configured, next+1
		}
	}
	v := m.nameStart + len(m.name)
	for v < end && (src[v] == ' ' || src[v] == '\t') {
		v++
	}
	m.valueStart = v
	m.value = string(bytes.TrimRight(src[v:end], " \t\r\\"))
	return m, true
}

// constructor blanks the suffix between a function's parameter list and
// its body for the constructor keyword at i.
func (s *source) constructor(src []byte, i int) {
	closeParams := skipSpaceBack(src, i-1)
	if closeParams < 0 || src[closeParams] != ')' {
		return
	}
	mark := ctorMark{parentStart: -1}
	if open := matchOpenBack(src, closeParams); open > 0 {
		identEnd := skipSpaceBack(src, open-1) + 1
		identStart := identEnd
		for identStart > 0 && isIdentByte(src[identStart-1]) {
			identStart--
		}
		if identStart < identEnd {
			if colon := skipSpaceBack(src, identStart-1); colon >= 0 && src[colon] == ':' {
				if params := skipSpaceBack(src, colon-1); params >= 0 && src[params] == ')' {
					mark.parent = string(src[identStart:identEnd])
					mark.parentStart = identStart
					closeParams = params
				}
			}
		}
	}
	blank(s.text, closeParams+1, i+len("constructor"))
	s.ctors[closeParams] = mark
}

// position converts a byte offset into a Position in file.
func (s *source) position(file string, offset int) syntax.Position {
	line := sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return syntax.Position{File: file, Line: line + 1, Column: offset - s.lines[line] + 1, Offset: offset}
}

func (s *source) span(file string, start, end int) syntax.Range {
	return syntax.Range{Start: s.position(file, start), End: s.position(file, end)}
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// codeMask marks the bytes of src that are outside comments and strings.
func codeMask(src []byte) []bool {
	mask := make([]bool, len(src))
	for i := 0; i < len(src); {
		switch {
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '*':
			end := bytes.Index(src[i+2:], []byte("*/"))
			if end < 0 {
				i = len(src)
			} else {
				i += end + 4
			}
		case src[i] == '"' || src[i] == '\'':
			quote := src[i]
			i++
			for i < len(src) && src[i] != quote && src[i] != '\n' {
				if src[i] == '\\' {
					i++
				}
				i++
			}
			i++
		default:
			mask[i] = true
			i++
		}
	}
	return mask
}

func blank(b []byte, start, end int) {
	for i := start; i < end && i < len(b); i++ {
		if b[i] != '\n' && b[i] != '\r' {
			b[i] = ' '
		}
	}
}

// matchOpenBack returns the offset of the paren opening the one at close.
func matchOpenBack(src []byte, close int) int {
	depth := 0
	for i := close; i >= 0; i-- {
		switch src[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func skipSpaceBack(src []byte, i int) int {
	for i >= 0 && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
		i--
	}
	return i
}

func hasWord(src []byte, i int, word string) bool {
	if !bytes.HasPrefix(src[i:], []byte(word)) {
		return false
	}
	end := i + len(word)
	return end >= len(src) || !isIdentByte(src[end])
}

func readIdent(src []byte, i int) string {
	start := i
	for i < len(src) && isIdentByte(src[i]) {
		i++
	}
	return string(src[start:i])
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
