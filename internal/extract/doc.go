package extract

import (
	"strings"

	"github.com/jward/feather/internal/project"
	"github.com/jward/feather/internal/syntax"
)

type docParam struct {
	typ         string
	optional    bool
	description string
}

// docComment is the subset of a JSDoc block the extractor understands.
type docComment struct {
	description string
	params      map[string]docParam
	returns     string
}

// parseDoc reads @param, @returns and @description tags from a comment
// block written with ///, // or /** */ markers. Untagged lines are
// description text.
func parseDoc(text string) docComment {
	doc := docComment{params: make(map[string]docParam)}
	var desc []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, marker := range []string{"/**", "*/", "///", "//", "/*", "*"} {
			line = strings.TrimPrefix(line, marker)
			line = strings.TrimSuffix(line, "*/")
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "@") {
			desc = append(desc, line)
			continue
		}

		tag, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		switch tag {
		case "@param", "@arg", "@argument":
			typ, rest := cutBraces(rest)
			name, description, _ := strings.Cut(rest, " ")
			p := docParam{typ: typ, description: strings.TrimSpace(description)}
			if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
				name = strings.Trim(name, "[]")
				name, _, _ = strings.Cut(name, "=")
				p.optional = true
			}
			if name != "" {
				doc.params[name] = p
			}
		case "@returns", "@return":
			doc.returns, _ = cutBraces(rest)
		case "@description", "@desc":
			desc = append(desc, rest)
		}
	}
	doc.description = strings.Join(desc, " ")
	return doc
}

// cutBraces splits "{Type} rest" into "Type" and "rest".
func cutBraces(s string) (string, string) {
	if !strings.HasPrefix(s, "{") {
		return "", s
	}
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return "", s
	}
	return strings.TrimSpace(s[1:end]), strings.TrimSpace(s[end+1:])
}

// describeFunction re-stamps the parameters, return type, description and
// constructor parent of a declared function.
func (w *walker) describeFunction(sym *project.Symbol, n *syntax.Node) {
	t := sym.Type
	var doc docComment
	var docRange syntax.Range
	if docs := n.Field(syntax.FieldDocs); docs != nil {
		doc = parseDoc(docs.Text)
		docRange = docs.Range
	}
	sym.Description = doc.description

	t.Params = t.Params[:0]
	if params := n.Field(syntax.FieldParameters); params != nil {
		for _, p := range params.ChildrenOf(syntax.KindParameter) {
			id := p.Identifier()
			if id == nil {
				continue
			}
			param := project.Param{
				Name:     id.Text,
				Type:     project.NewType(project.KindUnknown),
				Optional: p.Field(syntax.FieldValue) != nil,
			}
			if d, ok := doc.params[id.Text]; ok {
				param.Optional = param.Optional || d.optional
				param.Type = w.annotation(d.typ, docRange)
				param.Description = d.description
			}
			t.Params = append(t.Params, param)
		}
	}

	t.Returns = nil
	if doc.returns != "" {
		t.Returns = w.annotation(doc.returns, docRange)
	}

	if t.Kind == project.KindConstructor {
		w.inherit(t.Constructs, n.Field(syntax.FieldParent))
	}
}

func (w *walker) annotation(text string, rng syntax.Range) *project.Type {
	if text == "" {
		return project.NewType(project.KindUnknown)
	}
	t, dropped, err := w.reg.ResolveType(text)
	if err != nil {
		w.warn(project.DiagnosticAnnotation, rng, "unrecognized type %q: %v", text, err)
		return project.NewType(project.KindUnknown)
	}
	for _, d := range dropped {
		w.warn(project.DiagnosticAnnotation, rng, "type %q: %s", text, d)
	}
	return t
}

// inherit points a constructed struct at its parent constructor's struct.
// An unregistered parent gets a placeholder struct that the parent's own
// constructor adopts when it is declared.
func (w *walker) inherit(structType *project.Type, parent *syntax.Node) {
	if structType == nil {
		return
	}
	base := w.reg.Type(string(project.KindStruct))
	if parent == nil || parent.Kind != syntax.KindIdentifier || parent.Text == "" {
		structType.Parent = base
		return
	}
	name := "Struct." + parent.Text
	parentType := w.reg.Type(name)
	if parentType == nil {
		parentType = w.reg.CreateStructType().Named(parent.Text)
		if _, err := w.reg.EnsureType(name, parentType); err != nil {
			w.err = err
			return
		}
	}
	if parentType.Kind != project.KindStruct || parentType == structType || parentType.DerivesFrom(structType) {
		w.warn(project.DiagnosticDeclaration, parent.Range, "%s cannot inherit from %s", structType, parent.Text)
		structType.Parent = base
		return
	}
	structType.Parent = parentType
}
