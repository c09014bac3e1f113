package extract

import (
	"github.com/jward/feather/internal/project"
	"github.com/jward/feather/internal/syntax"
)

// infer widens target's type with the type of a literal assigned to it.
// Evidence already recorded for the same source site is not merged again.
func (w *walker) infer(target *project.Symbol, value *syntax.Node) {
	t := w.literalType(value)
	if t == nil || t.Kind == project.KindUnknown {
		return
	}
	if hasEvidence(target.Type, value.Range) {
		return
	}
	target.AddType(t)
}

func hasEvidence(t *project.Type, rng syntax.Range) bool {
	if t == nil {
		return false
	}
	if t.Def != nil && *t.Def == rng {
		return true
	}
	for _, m := range t.Types {
		if m.Def != nil && *m.Def == rng {
			return true
		}
	}
	return false
}

func (w *walker) create(kind project.Kind, at syntax.Range) *project.Type {
	t, err := w.reg.CreateType(kind)
	if err != nil {
		w.err = err
		return nil
	}
	return t.DefinedAt(at)
}

// literalType returns the type of a literal expression, or nil when n is
// not a literal.
func (w *walker) literalType(n *syntax.Node) *project.Type {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case syntax.KindNumber:
		return w.create(project.KindReal, n.Range)
	case syntax.KindString:
		return w.create(project.KindString, n.Range)
	case syntax.KindBool:
		return w.create(project.KindBool, n.Range)
	case syntax.KindUndefined:
		return w.create(project.KindUndefined, n.Range)

	case syntax.KindArrayLiteral:
		arr := w.create(project.KindArray, n.Range)
		if arr == nil {
			return nil
		}
		for _, el := range n.Children {
			item := w.literalType(el)
			if item == nil || item.Kind == project.KindUnknown {
				continue
			}
			if err := arr.AddItemType(item); err != nil {
				w.err = err
				return nil
			}
		}
		return arr

	case syntax.KindStructLiteral:
		st := w.reg.CreateStructType().DefinedAt(n.Range)
		for _, p := range n.ChildrenOf(syntax.KindProperty) {
			id := p.Identifier()
			if id == nil {
				continue
			}
			value := w.literalType(p.Field(syntax.FieldValue))
			if value == nil {
				value = project.NewType(project.KindUnknown)
			}
			member, err := st.AddMemberType(id.Text, value)
			if err != nil {
				w.err = err
				return nil
			}
			member.DefinedAt(id.Range)
		}
		return st

	case syntax.KindFunction:
		fn := w.create(project.KindFunction, n.Range)
		if fn == nil {
			return nil
		}
		if params := n.Field(syntax.FieldParameters); params != nil {
			for _, p := range params.ChildrenOf(syntax.KindParameter) {
				if id := p.Identifier(); id != nil {
					fn.Params = append(fn.Params, project.Param{
						Name:     id.Text,
						Type:     project.NewType(project.KindUnknown),
						Optional: p.Field(syntax.FieldValue) != nil,
					})
				}
			}
		}
		return fn
	}
	return nil
}
