package jsonapi

import (
	"slices"
	"strings"

	"github.com/go-openapi/inflect"
)

// Fieldset maps a resource type name to the attribute names a client asked
// for. Types without an entry are not restricted.
type Fieldset map[string][]string

// Allowed returns the allowlist for a type and whether the type is restricted.
// Entries are looked up by type name first and then by its singular form,
// so both "comments" and "comment" restrict the "comments" type.
func (f Fieldset) Allowed(typeName string) ([]string, bool) {
	if len(f) == 0 {
		return nil, false
	}
	if fields, ok := f[typeName]; ok {
		return fields, true
	}
	if fields, ok := f[inflect.Singularize(typeName)]; ok {
		return fields, true
	}
	return nil, false
}

// Filter returns a copy of attrs restricted to the allowlist of typeName.
// The id and type keys are always dropped; they live outside attributes.
// Unknown field names in the allowlist have no effect.
func (f Fieldset) Filter(typeName string, attrs map[string]any) map[string]any {
	allowed, restricted := f.Allowed(typeName)
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if k == "id" || k == "type" {
			continue
		}
		if restricted && !slices.Contains(allowed, k) {
			continue
		}
		out[k] = v
	}
	return out
}

// ParseFields splits a comma-joined fields parameter value. Blank entries are
// dropped, so "name,,status" and "name, status" both yield two names. An empty
// value yields an empty, non-nil list: the type is restricted to no attributes.
func ParseFields(s string) []string {
	fields := []string{}
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
