package jsonapi

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"
)

// Entity is the capability an object needs to be serialized.
//
// Identifier may return any value; it is always rendered as a string.
// EachAssociation must yield associations in a stable order and must not
// mutate the entity.
type Entity interface {
	Identifier() any
	TypeName() string
	Attributes(opts AttributeOptions) map[string]any
	EachAssociation(yield func(Association))
}

// Collection is a homogeneous group of entities serialized as an array.
type Collection interface {
	Entities() []Entity
}

// AttributeOptions is passed to Entity.Attributes. Fields is the allowlist
// resolved for the entity's type, nil when unrestricted. Entities may use it
// to skip expensive attributes; the serializer filters the result anyway.
type AttributeOptions struct {
	Fields         []string
	RequiredFields []string
}

// Association is one named edge of an entity.
type Association struct {
	Name    string
	Targets []Entity
	ToMany  bool
}

// HasOne declares a to-one association. A nil target means the association
// is empty.
func HasOne(name string, target Entity) Association {
	a := Association{Name: name}
	if !isNil(target) {
		a.Targets = []Entity{target}
	}
	return a
}

// HasMany declares a to-many association. Nil members are skipped.
func HasMany(name string, targets ...Entity) Association {
	a := Association{Name: name, ToMany: true, Targets: make([]Entity, 0, len(targets))}
	for _, t := range targets {
		if !isNil(t) {
			a.Targets = append(a.Targets, t)
		}
	}
	return a
}

// Target returns the target of a to-one association, or nil.
func (a Association) Target() Entity {
	if len(a.Targets) == 0 {
		return nil
	}
	return a.Targets[0]
}

// Empty reports whether the association points at nothing.
func (a Association) Empty() bool {
	return len(a.Targets) == 0
}

// TypeNameFor derives a resource type name from a Go kind name:
// "BlogPost" becomes "blog-posts".
func TypeNameFor(kind string) string {
	return strings.ToLower(inflect.Pluralize(inflect.Dasherize(inflect.Underscore(kind))))
}

var requiredFields = []string{"id", "type"}

func identify(e Entity) (ResourceIdentifier, error) {
	if isNil(e) {
		return ResourceIdentifier{}, ErrNilEntity
	}
	typ := e.TypeName()
	id := e.Identifier()
	if typ == "" || id == nil {
		return ResourceIdentifier{}, fmt.Errorf("%w: %T", ErrMissingIdentity, e)
	}
	rid := ResourceIdentifier{Type: typ, ID: formatID(id)}
	if rid.ID == "" {
		return ResourceIdentifier{}, fmt.Errorf("%w: %T has an empty identifier", ErrMissingIdentity, e)
	}
	return rid, nil
}

func formatID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func isNil(e Entity) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func findAssociation(e Entity, name string) (Association, bool) {
	var (
		found Association
		ok    bool
	)
	e.EachAssociation(func(a Association) {
		if !ok && a.Name == name {
			found, ok = a, true
		}
	})
	return found, ok
}
