package jsonapi

// LinkName names a link. Only self and related are accepted.
type LinkName string

const (
	LinkSelf    LinkName = "self"
	LinkRelated LinkName = "related"
)

// ResourceTarget is the link target of the resource itself, as opposed to
// one of its associations.
const ResourceTarget = ""

// Href is a link value: either fixed or computed from the resource that
// owns the link.
type Href struct {
	value string
	fn    func(Entity) string
}

// Static returns an Href with a fixed value.
func Static(value string) Href {
	return Href{value: value}
}

// Computed returns an Href evaluated against the owning resource.
func Computed(fn func(Entity) string) Href {
	return Href{fn: fn}
}

// Resolve evaluates the Href for e.
func (h Href) Resolve(e Entity) string {
	if h.fn != nil {
		return h.fn(e)
	}
	return h.value
}

func (h Href) isZero() bool {
	return h.fn == nil && h.value == ""
}

// target -> link name -> href
type linkTable map[string]map[LinkName]Href

func (t linkTable) clone() linkTable {
	out := make(linkTable, len(t))
	for target, links := range t {
		m := make(map[LinkName]Href, len(links))
		for name, href := range links {
			m[name] = href
		}
		out[target] = m
	}
	return out
}

// LinkRegistryBuilder collects link declarations at startup.
// It is not safe for concurrent use; call Build once registration is done.
type LinkRegistryBuilder struct {
	tables map[string]linkTable
}

// NewLinkRegistryBuilder returns an empty builder.
func NewLinkRegistryBuilder() *LinkRegistryBuilder {
	return &LinkRegistryBuilder{tables: make(map[string]linkTable)}
}

// TypeLinks declares the links of one resource type.
type TypeLinks struct {
	table linkTable
}

// Define returns the declarations of typeName, creating them on first use.
func (b *LinkRegistryBuilder) Define(typeName string) *TypeLinks {
	t, ok := b.tables[typeName]
	if !ok {
		t = make(linkTable)
		b.tables[typeName] = t
	}
	return &TypeLinks{table: t}
}

// Extend starts child from a copy of parent's declarations. Links declared
// on child afterwards override the copied ones; later changes to parent are
// not seen by child.
func (b *LinkRegistryBuilder) Extend(child, parent string) *TypeLinks {
	t := b.tables[parent].clone()
	b.tables[child] = t
	return &TypeLinks{table: t}
}

// Link declares a link on the resource itself.
func (t *TypeLinks) Link(name LinkName, href Href) *TypeLinks {
	return t.LinkFor(ResourceTarget, name, href)
}

// LinkFor declares a link on the relationship named association.
// Names other than self and related, and empty hrefs, are ignored.
func (t *TypeLinks) LinkFor(association string, name LinkName, href Href) *TypeLinks {
	if name != LinkSelf && name != LinkRelated {
		return t
	}
	if href.isZero() {
		return t
	}
	links, ok := t.table[association]
	if !ok {
		links = make(map[LinkName]Href)
		t.table[association] = links
	}
	links[name] = href
	return t
}

// Build freezes the declarations. The builder may keep being used; the
// returned registry does not change.
func (b *LinkRegistryBuilder) Build() *LinkRegistry {
	r := &LinkRegistry{tables: make(map[string]linkTable, len(b.tables))}
	for typeName, t := range b.tables {
		r.tables[typeName] = t.clone()
	}
	return r
}

// LinkRegistry holds the link declarations of every resource type.
// A nil registry resolves nothing.
type LinkRegistry struct {
	tables map[string]linkTable
}

// Resolve evaluates the links of typeName for target against e. Links that
// evaluate to an empty string are left out; nil is returned when nothing
// remains.
func (r *LinkRegistry) Resolve(typeName, target string, e Entity) map[string]string {
	if r == nil {
		return nil
	}
	links := r.tables[typeName][target]
	if len(links) == 0 {
		return nil
	}
	out := make(map[string]string, len(links))
	for name, href := range links {
		if v := href.Resolve(e); v != "" {
			out[string(name)] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Defines reports whether any link was declared for typeName.
func (r *LinkRegistry) Defines(typeName string) bool {
	if r == nil {
		return false
	}
	return len(r.tables[typeName]) > 0
}
