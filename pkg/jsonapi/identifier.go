package jsonapi

import (
	"bytes"
	"encoding/json"
)

// ResourceIdentifier is the minimal {type, id} reference to a resource.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Linkage is the data member of a relationship: a single identifier or
// null for to-one associations, an array for to-many associations.
type Linkage struct {
	toMany bool
	one    *ResourceIdentifier
	many   []ResourceIdentifier
}

// ToOne returns to-one linkage. A nil identifier encodes as null.
func ToOne(id *ResourceIdentifier) Linkage {
	return Linkage{one: id}
}

// ToMany returns to-many linkage. No identifiers encode as [].
func ToMany(ids ...ResourceIdentifier) Linkage {
	if ids == nil {
		ids = []ResourceIdentifier{}
	}
	return Linkage{toMany: true, many: ids}
}

// IsToMany reports whether the linkage is an array.
func (l Linkage) IsToMany() bool { return l.toMany }

// One returns the to-one identifier, nil for empty or to-many linkage.
func (l Linkage) One() *ResourceIdentifier { return l.one }

// Many returns the to-many identifiers.
func (l Linkage) Many() []ResourceIdentifier { return l.many }

// IsBlank reports whether the linkage is null or an empty array.
func (l Linkage) IsBlank() bool {
	if l.toMany {
		return len(l.many) == 0
	}
	return l.one == nil
}

// MarshalJSON implements json.Marshaler.
func (l Linkage) MarshalJSON() ([]byte, error) {
	if l.toMany {
		if len(l.many) == 0 {
			return []byte("[]"), nil
		}
		return json.Marshal(l.many)
	}
	if l.one == nil {
		return []byte("null"), nil
	}
	return json.Marshal(l.one)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Linkage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = ToOne(nil)
	case len(data) > 0 && data[0] == '[':
		var ids []ResourceIdentifier
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		*l = ToMany(ids...)
	default:
		var id ResourceIdentifier
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*l = ToOne(&id)
	}
	return nil
}
