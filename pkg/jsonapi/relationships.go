package jsonapi

import "fmt"

// attachRelationships adds one relationship per association of e to ro.
// Blank linkage is dropped per association when ExcludeBlankLinkage is set.
func attachRelationships(ro *ResourceObject, e Entity, opts *Options) error {
	var err error
	e.EachAssociation(func(a Association) {
		if err != nil {
			return
		}
		var rel *Relationship
		rel, err = buildRelationship(ro.Type, e, a, opts)
		if err != nil {
			err = fmt.Errorf("%s %s: relationship %q: %w", ro.Type, ro.ID, a.Name, err)
			return
		}
		if opts.ExcludeBlankLinkage && rel.Data.IsBlank() {
			return
		}
		if ro.Relationships == nil {
			ro.Relationships = make(map[string]*Relationship)
		}
		ro.Relationships[a.Name] = rel
	})
	return err
}

// buildRelationship derives the linkage of a from its targets' own type
// names, not from the association name.
func buildRelationship(ownerType string, owner Entity, a Association, opts *Options) (*Relationship, error) {
	rel := &Relationship{Links: opts.Links.Resolve(ownerType, a.Name, owner)}

	if a.ToMany {
		ids := make([]ResourceIdentifier, 0, len(a.Targets))
		for _, t := range a.Targets {
			rid, err := identify(t)
			if err != nil {
				return nil, err
			}
			ids = append(ids, rid)
		}
		rel.Data = ToMany(ids...)
		return rel, nil
	}

	target := a.Target()
	if target == nil {
		rel.Data = ToOne(nil)
		return rel, nil
	}
	rid, err := identify(target)
	if err != nil {
		return nil, err
	}
	rel.Data = ToOne(&rid)
	return rel, nil
}
