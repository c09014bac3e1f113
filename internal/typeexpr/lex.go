package typeexpr

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken = iota
	identifierToken
	angleOpenToken
	angleCloseToken
	squareOpenToken
	squareCloseToken
	pipeToken
	commaToken
)

var whitespaceMatcher = parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace())
var identifierMatcher = parsly.NewToken(identifierToken, "Identifier", &identifierMatch{})
var angleOpenMatcher = parsly.NewToken(angleOpenToken, "<", matcher.NewByte('<'))
var angleCloseMatcher = parsly.NewToken(angleCloseToken, ">", matcher.NewByte('>'))
var squareOpenMatcher = parsly.NewToken(squareOpenToken, "[", matcher.NewByte('['))
var squareCloseMatcher = parsly.NewToken(squareCloseToken, "]", matcher.NewByte(']'))
var pipeMatcher = parsly.NewToken(pipeToken, "|", matcher.NewByte('|'))
var commaMatcher = parsly.NewToken(commaToken, ",", matcher.NewByte(','))

// identifierMatch accepts dotted names such as Struct.Player or Id.DsMap.
// Shape validation beyond that is left to the type algebra.
type identifierMatch struct{}

func (i *identifierMatch) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize {
		return 0
	}
	if !isIdentifierStart(cursor.Input[cursor.Pos]) {
		return 0
	}
	pos := cursor.Pos + 1
	for pos < cursor.InputSize && isIdentifierPart(cursor.Input[pos]) {
		pos++
	}
	return pos - cursor.Pos
}

func isIdentifierStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentifierPart(b byte) bool {
	return isIdentifierStart(b) || (b >= '0' && b <= '9') || b == '.'
}
