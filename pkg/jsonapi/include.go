package jsonapi

import "strings"

// IncludeSpec is an ordered list of dot-delimited include paths such as
// "comments.author".
type IncludeSpec []string

// ParseInclude splits a comma-joined include parameter. Entries are taken
// literally; empty entries are dropped.
func ParseInclude(s string) IncludeSpec {
	if s == "" {
		return nil
	}
	var spec IncludeSpec
	for _, p := range strings.Split(s, ",") {
		if p != "" {
			spec = append(spec, p)
		}
	}
	return spec
}

// IsEmpty reports whether nothing was requested.
func (s IncludeSpec) IsEmpty() bool { return len(s) == 0 }

// Includes reports whether resources at path belong in the included section.
func (s IncludeSpec) Includes(path string) bool {
	for _, p := range s {
		if p == path {
			return true
		}
	}
	return false
}

// Traverses reports whether some entry asks for something below path.
func (s IncludeSpec) Traverses(path string) bool {
	prefix := path + "."
	for _, p := range s {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// WithIntermediates returns a copy of s that also names every intermediate
// path, so "comments.author" includes the comments as well as their
// authors. Order is kept and duplicates are dropped.
func (s IncludeSpec) WithIntermediates() IncludeSpec {
	if s.IsEmpty() {
		return s
	}
	seen := make(map[string]struct{}, len(s))
	out := make(IncludeSpec, 0, len(s))
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range s {
		for i := range len(p) {
			if p[i] == '.' && i > 0 {
				add(p[:i])
			}
		}
		add(p)
	}
	return out
}

// String returns the comma-joined form.
func (s IncludeSpec) String() string {
	return strings.Join(s, ",")
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
