package project

import (
	"errors"
	"slices"
	"strings"

	"github.com/jward/feather/internal/syntax"
)

// LoadSpec seeds the registry from a built-in catalog. Malformed entries
// are skipped and reported; loading never stops early.
func (r *Registry) LoadSpec(spec *Spec) []Diagnostic {
	r.spec = spec
	l := &specLoader{reg: r}
	l.structures(spec.Structures)
	l.enumerations(spec.Enumerations)
	l.constants(spec.Constants)
	l.functions(spec.Functions)
	l.variables(spec.Variables)

	r.logger.Info("loaded built-in spec",
		"runtime", spec.Runtime,
		"functions", len(spec.Functions),
		"variables", len(spec.Variables),
		"constants", len(spec.Constants),
		"structures", len(spec.Structures),
		"skipped", len(l.diags),
	)
	return l.diags
}

type specLoader struct {
	reg   *Registry
	diags []Diagnostic
}

func (l *specLoader) warn(format string, args ...any) {
	d := Warningf(DiagnosticSpec, syntax.Range{}, format, args...)
	l.reg.logger.Warn(d.Message)
	l.diags = append(l.diags, d)
}

// typeOf resolves a spec type string, falling back to Unknown.
func (l *specLoader) typeOf(text, owner string) *Type {
	if strings.TrimSpace(text) == "" {
		return NewType(KindUnknown)
	}
	t, dropped, err := l.reg.ResolveType(text)
	if err != nil {
		l.warn("%s: unrecognized type %q: %v", owner, text, err)
		return NewType(KindUnknown)
	}
	for _, d := range dropped {
		l.warn("%s: type %q: %s", owner, text, d)
	}
	return t
}

func (l *specLoader) native(sym *Symbol, exposeAsSelfMember bool) {
	sym.Native = true
	if err := l.reg.AddGlobal(sym, exposeAsSelfMember); err != nil {
		l.warn("skipping duplicate built-in %q", sym.Name)
	}
}

func (l *specLoader) structures(structs []SpecStructure) {
	type pending struct {
		t    *Type
		spec SpecStructure
	}
	var registered []pending
	for _, st := range structs {
		if st.Name == "" {
			l.warn("skipping unnamed struct")
			continue
		}
		name := "Struct." + st.Name
		if l.reg.Type(name) != nil {
			l.warn("skipping duplicate struct %s", name)
			continue
		}
		structType := l.reg.CreateStructType().Named(st.Name)
		structType.Global = true
		if _, err := l.reg.EnsureType(name, structType); err != nil {
			l.warn("%v", err)
			continue
		}
		registered = append(registered, pending{t: structType, spec: st})
	}

	// Fields are typed once every struct is registered so they can refer
	// to each other.
	for _, p := range registered {
		for _, f := range p.spec.Fields {
			member, err := p.t.AddMemberType(f.Name, l.typeOf(f.Type, p.t.String()+"."+f.Name))
			if err != nil {
				l.warn("%v", err)
				continue
			}
			member.Native = true
			member.Description = strings.TrimSpace(f.Description)
			member.SetWritable(f.Set)
		}
	}
}

func (l *specLoader) enumerations(enums []SpecEnumeration) {
	for _, e := range enums {
		if e.Name == "" {
			l.warn("skipping unnamed enum")
			continue
		}
		enumType, _ := l.reg.CreateType(KindEnum)
		enumType.Named(e.Name).Global = true
		for i, m := range e.Members {
			memberType, _ := l.reg.CreateType(KindEnumMember)
			member, _ := enumType.AddMemberType(m.Name, memberType.Named(m.Name))
			member.Index = i
			member.Native = true
			member.Description = strings.TrimSpace(m.Description)
			member.SetWritable(false)
		}
		sym := NewSymbol(e.Name).AddType(enumType).SetWritable(false).SetGlobal(true)
		l.native(sym, false)
	}
}

// constants groups constants by class. A class whose constants all share
// one type becomes a Constant.<Class> aggregate; classes with mixed types
// are skipped. Classless constants are registered one by one.
func (l *specLoader) constants(constants []SpecConstant) {
	var classes []string
	byClass := make(map[string][]SpecConstant)
	for _, c := range constants {
		if _, seen := byClass[c.Class]; !seen {
			classes = append(classes, c.Class)
		}
		byClass[c.Class] = append(byClass[c.Class], c)
	}

	for _, class := range classes {
		members := byClass[class]
		if class == "" {
			for _, c := range members {
				t := l.typeOf(c.Type, c.Name)
				if t.Kind == KindUnknown {
					l.warn("skipping constant %s of unknown type %q", c.Name, c.Type)
					continue
				}
				l.constant(c, t)
			}
			continue
		}

		typeNames := make([]string, 0, 1)
		for _, c := range members {
			if !slices.Contains(typeNames, c.Type) {
				typeNames = append(typeNames, c.Type)
			}
		}
		if len(typeNames) > 1 {
			l.warn("skipping class %s with multiple types: %s", class, strings.Join(typeNames, ", "))
			continue
		}

		aggregate, err := l.classType(class, typeNames[0])
		if err != nil {
			l.warn("skipping class %s: %v", class, err)
			continue
		}
		for _, c := range members {
			l.constant(c, aggregate.Derive().Named(c.Name))
		}
	}
}

var errUnknownClassType = errors.New("unknown underlying type")

func (l *specLoader) classType(class, typeName string) (*Type, error) {
	name := "Constant." + class
	var base *Type
	if strings.EqualFold(typeName, name) {
		// GameMaker names numeric constant classes after themselves.
		base, _ = l.reg.CreateType(KindReal)
	} else {
		base = l.typeOf(typeName, name)
	}
	if base.Kind == KindUnknown || base.Kind == KindUnion {
		return nil, errUnknownClassType
	}
	base.Named(name)
	return l.reg.EnsureType(name, base)
}

func (l *specLoader) constant(c SpecConstant, t *Type) {
	sym := NewSymbol(c.Name).AddType(t).SetWritable(false)
	sym.Description = strings.TrimSpace(c.Description)
	l.native(sym, false)
}

func (l *specLoader) functions(funcs []SpecFunction) {
	for _, fn := range funcs {
		if fn.Name == "" {
			l.warn("skipping unnamed function")
			continue
		}
		fnType, _ := l.reg.CreateType(KindFunction)
		fnType.Named(fn.Name)
		for _, p := range fn.Parameters {
			fnType.Params = append(fnType.Params, Param{
				Name:        p.Name,
				Type:        l.typeOf(p.Type, fn.Name+"("+p.Name+")"),
				Optional:    p.Optional,
				Description: strings.TrimSpace(p.Description),
			})
		}
		fnType.Returns = l.typeOf(fn.ReturnType, fn.Name)
		sym := NewSymbol(fn.Name).AddType(fnType).SetWritable(false)
		sym.Description = strings.TrimSpace(fn.Description)
		l.native(sym, false)
	}
}

func (l *specLoader) variables(vars []SpecVariable) {
	for _, v := range vars {
		if v.Name == "" {
			l.warn("skipping unnamed variable")
			continue
		}
		sym := NewSymbol(v.Name).AddType(l.typeOf(v.Type, v.Name)).SetWritable(v.Set)
		sym.Description = strings.TrimSpace(v.Description)
		if v.Instance {
			sym.Native = true
			l.reg.instance.putMember(sym)
			continue
		}
		l.native(sym, false)
	}
}
