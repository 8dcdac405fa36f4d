package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Options controls one serialization call.
type Options struct {
	// Include lists the association paths to expand into included.
	Include IncludeSpec

	// Fields restricts attributes per resource type.
	Fields Fieldset

	// ExcludeBlankLinkage drops relationships whose data is null or [].
	ExcludeBlankLinkage bool

	// PreventDuplicates removes included resources already present in
	// the data array of a collection document.
	PreventDuplicates bool

	// Links supplies resource and relationship links. May be nil.
	Links *LinkRegistry
}

// Document is a top-level JSON:API document.
type Document struct {
	// Data holds the primary resources. A non-collection document holds at
	// most one; none encodes as null.
	Data         []*ResourceObject
	IsCollection bool
	Included     []*ResourceObject

	// Links and Meta are never set by the serializer; transports use them
	// for pagination and totals.
	Links map[string]string
	Meta  map[string]any
}

type documentJSON struct {
	Data     json.RawMessage   `json:"data"`
	Included []*ResourceObject `json:"included,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
	Meta     map[string]any    `json:"meta,omitempty"`
}

// Primary returns the primary resource of a single-resource document.
func (d *Document) Primary() *ResourceObject {
	if d.IsCollection || len(d.Data) == 0 {
		return nil
	}
	return d.Data[0]
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	var data any
	switch {
	case d.IsCollection && d.Data == nil:
		data = []*ResourceObject{}
	case d.IsCollection:
		data = d.Data
	default:
		data = d.Primary()
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(documentJSON{
		Data:     raw,
		Included: d.Included,
		Links:    d.Links,
		Meta:     d.Meta,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw documentJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = Document{Included: raw.Included, Links: raw.Links, Meta: raw.Meta}

	data := bytes.TrimSpace(raw.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
	case data[0] == '[':
		d.IsCollection = true
		d.Data = []*ResourceObject{}
		return json.Unmarshal(data, &d.Data)
	default:
		var ro ResourceObject
		if err := json.Unmarshal(data, &ro); err != nil {
			return err
		}
		d.Data = []*ResourceObject{&ro}
	}
	return nil
}

// Serialize builds the document for root, which must be an Entity, a
// []Entity or a Collection.
func Serialize(root any, opts Options) (*Document, error) {
	switch r := root.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrInvalidRoot)
	case Entity:
		if isNil(r) {
			return nil, ErrNilEntity
		}
		return serializeOne(r, &opts)
	case []Entity:
		return serializeMany(r, &opts)
	case Collection:
		return serializeMany(r.Entities(), &opts)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidRoot, root)
	}
}

func serializeOne(e Entity, opts *Options) (*Document, error) {
	ro, err := buildResource(e, opts)
	if err != nil {
		return nil, err
	}
	if err := attachRelationships(ro, e, opts); err != nil {
		return nil, err
	}

	doc := &Document{Data: []*ResourceObject{ro}}
	if !opts.Include.IsEmpty() {
		included, err := collectIncluded(e, opts)
		if err != nil {
			return nil, err
		}
		doc.Included = included
	}
	return doc, nil
}

func serializeMany(es []Entity, opts *Options) (*Document, error) {
	doc := &Document{Data: make([]*ResourceObject, 0, len(es)), IsCollection: true}
	included := newIncludedSet()

	for i, e := range es {
		if isNil(e) {
			return nil, fmt.Errorf("member %d: %w", i, ErrNilEntity)
		}
		member, err := serializeOne(e, opts)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		doc.Data = append(doc.Data, member.Data...)
		included.merge(member.Included)
	}
	doc.Included = included.list()

	if opts.PreventDuplicates {
		removeDuplicates(doc)
	}
	return doc, nil
}

// removeDuplicates drops included resources whose (type, id) is in data.
func removeDuplicates(doc *Document) {
	if !doc.IsCollection || len(doc.Included) == 0 {
		return
	}
	primary := make(map[ResourceIdentifier]struct{}, len(doc.Data))
	for _, ro := range doc.Data {
		primary[ro.Identifier()] = struct{}{}
	}
	kept := doc.Included[:0:0]
	for _, ro := range doc.Included {
		if _, dup := primary[ro.Identifier()]; !dup {
			kept = append(kept, ro)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	doc.Included = kept
}

// SerializeRelationship returns the relationship object of one association
// of e, as served by a relationship endpoint. The blank-linkage policy does
// not apply: an explicitly requested relationship is always returned.
func SerializeRelationship(e Entity, name string, opts Options) (*Relationship, error) {
	rid, err := identify(e)
	if err != nil {
		return nil, err
	}
	a, ok := findAssociation(e, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q", ErrUnknownAssociation, rid.Type, name)
	}
	return buildRelationship(rid.Type, e, a, &opts)
}

// SerializeRelated returns the document of the resources an association of
// e points at: an array for to-many, an object or null for to-one.
func SerializeRelated(e Entity, name string, opts Options) (*Document, error) {
	rid, err := identify(e)
	if err != nil {
		return nil, err
	}
	a, ok := findAssociation(e, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q", ErrUnknownAssociation, rid.Type, name)
	}
	if a.ToMany {
		return serializeMany(a.Targets, &opts)
	}
	if target := a.Target(); target != nil {
		return serializeOne(target, &opts)
	}
	return &Document{}, nil
}
