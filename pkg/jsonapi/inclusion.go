package jsonapi

import "reflect"

// includedSet accumulates the included section of one document. A set is
// owned by a single walk and never shared between calls.
type includedSet struct {
	items []*ResourceObject
	index map[ResourceIdentifier][]*ResourceObject
}

func newIncludedSet() *includedSet {
	return &includedSet{index: make(map[ResourceIdentifier][]*ResourceObject)}
}

// add appends ro unless a structurally equal object is already present.
func (s *includedSet) add(ro *ResourceObject) bool {
	key := ro.Identifier()
	for _, existing := range s.index[key] {
		if reflect.DeepEqual(existing, ro) {
			return false
		}
	}
	s.items = append(s.items, ro)
	s.index[key] = append(s.index[key], ro)
	return true
}

func (s *includedSet) merge(ros []*ResourceObject) {
	for _, ro := range ros {
		s.add(ro)
	}
}

func (s *includedSet) list() []*ResourceObject {
	if len(s.items) == 0 {
		return nil
	}
	return s.items
}

type walker struct {
	opts *Options
	set  *includedSet
}

// collectIncluded walks the associations of root along the include paths.
// Depth is bounded by the include paths, so cyclic graphs terminate.
func collectIncluded(root Entity, opts *Options) ([]*ResourceObject, error) {
	if opts.Include.IsEmpty() {
		return nil, nil
	}
	w := &walker{opts: opts, set: newIncludedSet()}
	if err := w.walk(root, ""); err != nil {
		return nil, err
	}
	return w.set.list(), nil
}

func (w *walker) walk(e Entity, parent string) error {
	var err error
	e.EachAssociation(func(a Association) {
		if err == nil {
			err = w.visit(a, joinPath(parent, a.Name))
		}
	})
	return err
}

func (w *walker) visit(a Association, path string) error {
	if a.Empty() {
		return nil
	}

	if w.opts.Include.Includes(path) {
		ros, err := buildResources(a.Targets, w.opts)
		if err != nil {
			return err
		}
		for i, ro := range ros {
			if err := attachRelationships(ro, a.Targets[i], w.opts); err != nil {
				return err
			}
			w.set.add(ro)
		}
	}

	if !w.opts.Include.Traverses(path) {
		return nil
	}
	for _, t := range a.Targets {
		if err := w.walk(t, path); err != nil {
			return err
		}
	}
	return nil
}
