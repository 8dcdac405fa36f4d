// Package graph exposes a snapshot of hosts, containers and stacks as
// JSON:API entities.
//
// A Graph is built once per request from whatever the store returned and is
// read-only afterwards. References to ids that are not part of the snapshot
// resolve to absent targets rather than errors.
package graph

import (
	"evalgo.org/graphapi/models"
	"evalgo.org/graphapi/pkg/jsonapi"
)

// Resource type names.
var (
	TypeHosts      = jsonapi.TypeNameFor("Host")
	TypeContainers = jsonapi.TypeNameFor("Container")
	TypeStacks     = jsonapi.TypeNameFor("Stack")
)

// Association names per resource type, in the order they are yielded.
var associations = map[string][]string{
	TypeHosts:      {"containers"},
	TypeContainers: {"host", "stack", "dependencies"},
	TypeStacks:     {"services"},
}

// Graph indexes one snapshot of the infrastructure.
type Graph struct {
	hosts      []*models.Host
	containers []*models.Container
	stacks     []*models.Stack

	hostByID      map[string]*models.Host
	containerByID map[string]*models.Container
	stackByID     map[string]*models.Stack

	// host id -> containers hosted on it, in snapshot order
	hosted map[string][]*models.Container
	// container id -> first stack listing it
	stackOf map[string]*models.Stack
}

// New indexes the given models. Nil members are ignored.
func New(hosts []*models.Host, containers []*models.Container, stacks []*models.Stack) *Graph {
	g := &Graph{
		hostByID:      make(map[string]*models.Host, len(hosts)),
		containerByID: make(map[string]*models.Container, len(containers)),
		stackByID:     make(map[string]*models.Stack, len(stacks)),
		hosted:        make(map[string][]*models.Container),
		stackOf:       make(map[string]*models.Stack),
	}
	for _, h := range hosts {
		if h == nil {
			continue
		}
		g.hosts = append(g.hosts, h)
		g.hostByID[h.ID] = h
	}
	for _, c := range containers {
		if c == nil {
			continue
		}
		g.containers = append(g.containers, c)
		g.containerByID[c.ID] = c
		g.hosted[c.HostedOn] = append(g.hosted[c.HostedOn], c)
	}
	for _, s := range stacks {
		if s == nil {
			continue
		}
		g.stacks = append(g.stacks, s)
		g.stackByID[s.ID] = s
		for _, id := range s.Containers {
			if _, taken := g.stackOf[id]; !taken {
				g.stackOf[id] = s
			}
		}
	}
	return g
}

// Types returns the resource type names the graph serves.
func Types() []string {
	return []string{TypeHosts, TypeContainers, TypeStacks}
}

// Known reports whether typeName is served.
func Known(typeName string) bool {
	_, ok := associations[typeName]
	return ok
}

// Associations returns the association names of typeName.
func Associations(typeName string) []string {
	return associations[typeName]
}

// Lookup returns the entity of the given type and id.
func (g *Graph) Lookup(typeName, id string) (jsonapi.Entity, bool) {
	switch typeName {
	case TypeHosts:
		if h, ok := g.hostByID[id]; ok {
			return g.host(h), true
		}
	case TypeContainers:
		if c, ok := g.containerByID[id]; ok {
			return g.container(c), true
		}
	case TypeStacks:
		if s, ok := g.stackByID[id]; ok {
			return g.stack(s), true
		}
	}
	return nil, false
}

// All returns every entity of typeName in snapshot order. The second result
// is false for unknown types.
func (g *Graph) All(typeName string) ([]jsonapi.Entity, bool) {
	var out []jsonapi.Entity
	switch typeName {
	case TypeHosts:
		out = make([]jsonapi.Entity, 0, len(g.hosts))
		for _, h := range g.hosts {
			out = append(out, g.host(h))
		}
	case TypeContainers:
		out = make([]jsonapi.Entity, 0, len(g.containers))
		for _, c := range g.containers {
			out = append(out, g.container(c))
		}
	case TypeStacks:
		out = make([]jsonapi.Entity, 0, len(g.stacks))
		for _, s := range g.stacks {
			out = append(out, g.stack(s))
		}
	default:
		return nil, false
	}
	return out, true
}

// Entity wraps a model value in its adapter.
func (g *Graph) Entity(v any) (jsonapi.Entity, bool) {
	switch m := v.(type) {
	case *models.Host:
		if m != nil {
			return g.host(m), true
		}
	case *models.Container:
		if m != nil {
			return g.container(m), true
		}
	case *models.Stack:
		if m != nil {
			return g.stack(m), true
		}
	}
	return nil, false
}

func (g *Graph) host(h *models.Host) *hostResource { return &hostResource{g: g, h: h} }

func (g *Graph) container(c *models.Container) *containerResource {
	return &containerResource{g: g, c: c}
}

func (g *Graph) stack(s *models.Stack) *stackResource { return &stackResource{g: g, s: s} }

// containersByID resolves ids in order, skipping unknown ones.
func (g *Graph) containersByID(ids []string) []jsonapi.Entity {
	out := make([]jsonapi.Entity, 0, len(ids))
	for _, id := range ids {
		if c, ok := g.containerByID[id]; ok {
			out = append(out, g.container(c))
		}
	}
	return out
}
