// Package gml parses GameMaker Language source into syntax trees.
//
// GML is close enough to TypeScript that the tree-sitter TypeScript grammar
// handles most of it. The few GML-only constructs the extractor cares about
// (#macro, globalvar, constructor suffixes) are rewritten to same-length
// TypeScript before parsing and restored while converting the tree.
package gml

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/jward/feather/internal/syntax"
)

// Extension is the file extension of GML sources.
const Extension = ".gml"

var (
	grammar     *sitter.Language
	grammarOnce sync.Once
)

// Language returns the tree-sitter grammar used for GML.
func Language() *sitter.Language {
	grammarOnce.Do(func() {
		grammar = ts.GetLanguage()
	})
	return grammar
}

// IsSource reports whether path names a GML source file.
func IsSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// Tree is a raw tree-sitter parse of GML source. Source holds the
// rewritten text the tree was parsed from; node offsets index into it.
type Tree struct {
	*sitter.Tree
	Source []byte
}

// ParseTree parses src with tree-sitter and returns the raw tree.
func ParseTree(ctx context.Context, src []byte) (*Tree, error) {
	tree, _, err := parse(ctx, src)
	return tree, err
}

func parse(ctx context.Context, src []byte) (*Tree, *source, error) {
	rewritten := rewrite(src)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language())

	tree, err := parser.ParseCtx(ctx, nil, rewritten.text)
	if err != nil {
		return nil, nil, fmt.Errorf("gml: tree-sitter parse failed: %w", err)
	}
	return &Tree{Tree: tree, Source: rewritten.text}, rewritten, nil
}

// Parser implements syntax.Parser for GML.
type Parser struct{}

// NewParser returns a GML parser. A Parser holds no state and may be
// shared between goroutines.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses src and converts it into a syntax tree.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*syntax.Node, error) {
	tree, rewritten, err := parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("gml: %s: %w", path, err)
	}
	defer tree.Close()
	c := &converter{path: path, src: rewritten}
	return c.program(tree.RootNode()), nil
}

var _ syntax.Parser = (*Parser)(nil)
