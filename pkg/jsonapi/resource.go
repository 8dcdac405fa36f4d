package jsonapi

import "fmt"

// ResourceObject is the JSON:API representation of one entity.
type ResourceObject struct {
	ID            string                   `json:"id"`
	Type          string                   `json:"type"`
	Attributes    map[string]any           `json:"attributes,omitempty"`
	Relationships map[string]*Relationship `json:"relationships,omitempty"`
	Links         map[string]string        `json:"links,omitempty"`
}

// Identifier returns the {type, id} pair of the resource.
func (r *ResourceObject) Identifier() ResourceIdentifier {
	return ResourceIdentifier{Type: r.Type, ID: r.ID}
}

// Relationship is one entry of a resource's relationships member.
type Relationship struct {
	Data  Linkage           `json:"data"`
	Links map[string]string `json:"links,omitempty"`
}

func buildResource(e Entity, opts *Options) (*ResourceObject, error) {
	rid, err := identify(e)
	if err != nil {
		return nil, err
	}

	fields, _ := opts.Fields.Allowed(rid.Type)
	attrs := opts.Fields.Filter(rid.Type, e.Attributes(AttributeOptions{
		Fields:         fields,
		RequiredFields: requiredFields,
	}))

	ro := &ResourceObject{ID: rid.ID, Type: rid.Type}
	if len(attrs) > 0 {
		ro.Attributes = attrs
	}
	ro.Links = opts.Links.Resolve(rid.Type, ResourceTarget, e)
	return ro, nil
}

// buildResources keeps the order of es.
func buildResources(es []Entity, opts *Options) ([]*ResourceObject, error) {
	out := make([]*ResourceObject, 0, len(es))
	for i, e := range es {
		ro, err := buildResource(e, opts)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		out = append(out, ro)
	}
	return out, nil
}
