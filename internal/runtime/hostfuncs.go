package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"unsafe"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/feather/internal/gml"
)

// treeSources remembers the rewritten GML behind every tree a script parsed,
// keyed by root node pointer, so node_text and query can slice a node's text.
// smacker/go-tree-sitter has no Node.Tree(), so lookups walk Parent() to the
// root. Compiled query patterns are cached for the life of the runtime.
type treeSources struct {
	mu       sync.RWMutex
	sources  map[uintptr][]byte
	patterns map[string]*sitter.Query
}

func newTreeSources() *treeSources {
	return &treeSources{
		sources:  make(map[uintptr][]byte),
		patterns: make(map[string]*sitter.Query),
	}
}

func rootKey(node *sitter.Node) uintptr {
	for node.Parent() != nil {
		node = node.Parent()
	}
	return uintptr(unsafe.Pointer(node))
}

func (s *treeSources) track(tree *gml.Tree) {
	s.mu.Lock()
	s.sources[rootKey(tree.RootNode())] = tree.Source
	s.mu.Unlock()
}

func (s *treeSources) source(node *sitter.Node) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[rootKey(node)]
	return src, ok
}

// pattern compiles a query against the GML grammar once per distinct text.
func (s *treeSources) pattern(text string) (*sitter.Query, error) {
	s.mu.RLock()
	q, ok := s.patterns[text]
	s.mu.RUnlock()
	if ok {
		return q, nil
	}
	q, err := sitter.NewQuery([]byte(text), gml.Language())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.patterns[text]; ok {
		q.Close()
		return prev, nil
	}
	s.patterns[text] = q
	return q, nil
}

func (s *treeSources) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for text, q := range s.patterns {
		q.Close()
		delete(s.patterns, text)
	}
}

// stringArg unwraps a Risor string argument.
func stringArg(fn, what string, arg object.Object) (string, *object.Error) {
	s, ok := arg.(*object.String)
	if !ok {
		return "", object.Errorf("%s: %s must be a string, got %s", fn, what, arg.Type())
	}
	return s.Value(), nil
}

// nodeArg unwraps a proxied tree-sitter node argument.
func nodeArg(fn string, arg object.Object) (*sitter.Node, *object.Error) {
	proxy, ok := arg.(*object.Proxy)
	if !ok {
		return nil, object.Errorf("%s: expected a node, got %s", fn, arg.Type())
	}
	node, ok := proxy.Interface().(*sitter.Node)
	if !ok || node == nil {
		return nil, object.Errorf("%s: expected a node, got %T", fn, proxy.Interface())
	}
	return node, nil
}

// proxy wraps v for Risor, mapping failures to a script error.
func proxy(fn string, v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		return object.Errorf("%s: %v", fn, err)
	}
	return p
}

// makeParseFn builds parse(path) and parse_src(source). Both run the GML
// front end, so the returned tree is over the rewritten source.
func makeParseFn(name string, trees *treeSources, fromPath bool) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		what := "source"
		if fromPath {
			what = "path"
		}
		text, errObj := stringArg(name, what, args[0])
		if errObj != nil {
			return errObj
		}
		src := []byte(text)
		if fromPath {
			data, err := os.ReadFile(text)
			if err != nil {
				return object.Errorf("%s: reading %s: %v", name, text, err)
			}
			src = data
		}
		tree, err := gml.ParseTree(ctx, src)
		if err != nil {
			return object.Errorf("%s: %v", name, err)
		}
		trees.track(tree)
		return proxy(name, tree.Tree)
	})
}

// makeNodeTextFn builds node_text(node). Risor's proxies cannot pass the
// []byte that Node.Content wants, so the source comes from trees.
func makeNodeTextFn(trees *treeSources) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		node, errObj := nodeArg("node_text", args[0])
		if errObj != nil {
			return errObj
		}
		src, ok := trees.source(node)
		if !ok {
			return object.Errorf("node_text: node does not belong to a parsed tree")
		}
		return object.NewString(node.Content(src))
	})
}

// makeNodeChildFn builds node_child(node, field). A missing child is Risor
// nil, never a proxied nil pointer.
func makeNodeChildFn() *object.Builtin {
	return object.NewBuiltin("node_child", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("node_child", 2, len(args))
		}
		node, errObj := nodeArg("node_child", args[0])
		if errObj != nil {
			return errObj
		}
		field, errObj := stringArg("node_child", "field", args[1])
		if errObj != nil {
			return errObj
		}
		child := node.ChildByFieldName(field)
		if child == nil {
			return object.Nil
		}
		return proxy("node_child", child)
	})
}

// makeQueryFn builds query(pattern, node). Each match is a map from capture
// name to node, after #eq? and #match? predicates are applied.
func makeQueryFn(trees *treeSources) *object.Builtin {
	return object.NewBuiltin("query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("query", 2, len(args))
		}
		text, errObj := stringArg("query", "pattern", args[0])
		if errObj != nil {
			return errObj
		}
		node, errObj := nodeArg("query", args[1])
		if errObj != nil {
			return errObj
		}
		src, ok := trees.source(node)
		if !ok {
			return object.Errorf("query: node does not belong to a parsed tree")
		}
		q, err := trees.pattern(text)
		if err != nil {
			return object.Errorf("query: invalid pattern: %v", err)
		}

		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.Exec(q, node)

		matches := []object.Object{}
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, src)
			if len(match.Captures) == 0 {
				continue
			}
			captures := make(map[string]object.Object, len(match.Captures))
			for _, c := range match.Captures {
				name := q.CaptureNameForId(c.Index)
				captures[name] = proxy(fmt.Sprintf("query capture %q", name), c.Node)
			}
			matches = append(matches, object.NewMap(captures))
		}
		return object.NewList(matches)
	})
}

// logObject is the script-facing log object: log.Info, log.Warn, log.Error.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string)  { l.logger.Info(msg) }
func (l *logObject) Warn(msg string)  { l.logger.Warn(msg) }
func (l *logObject) Error(msg string) { l.logger.Error(msg) }
