package graph

import (
	"time"

	"evalgo.org/graphapi/models"
	"evalgo.org/graphapi/pkg/jsonapi"
)

type hostResource struct {
	g *Graph
	h *models.Host
}

func (r *hostResource) Identifier() any  { return r.h.ID }
func (r *hostResource) TypeName() string { return TypeHosts }

func (r *hostResource) Attributes(jsonapi.AttributeOptions) map[string]any {
	return map[string]any{
		"name":      r.h.Name,
		"ipAddress": r.h.IPAddress,
		"cpu":       r.h.CPU,
		"memory":    r.h.Memory,
		"status":    r.h.Status,
		"location":  r.h.Datacenter,
	}
}

func (r *hostResource) EachAssociation(yield func(jsonapi.Association)) {
	hosted := r.g.hosted[r.h.ID]
	targets := make([]jsonapi.Entity, 0, len(hosted))
	for _, c := range hosted {
		targets = append(targets, r.g.container(c))
	}
	yield(jsonapi.HasMany("containers", targets...))
}

type containerResource struct {
	g *Graph
	c *models.Container
}

func (r *containerResource) Identifier() any  { return r.c.ID }
func (r *containerResource) TypeName() string { return TypeContainers }

func (r *containerResource) Attributes(jsonapi.AttributeOptions) map[string]any {
	attrs := map[string]any{
		"name":   r.c.Name,
		"image":  r.c.Image,
		"status": r.c.Status,
	}
	if len(r.c.Ports) > 0 {
		attrs["ports"] = r.c.Ports
	}
	if len(r.c.Env) > 0 {
		attrs["environment"] = r.c.Env
	}
	if r.c.Created != "" {
		attrs["dateCreated"] = r.c.Created
	}
	return attrs
}

func (r *containerResource) EachAssociation(yield func(jsonapi.Association)) {
	var host, stack jsonapi.Entity
	if h, ok := r.g.hostByID[r.c.HostedOn]; ok {
		host = r.g.host(h)
	}
	if s, ok := r.g.stackOf[r.c.ID]; ok {
		stack = r.g.stack(s)
	}
	yield(jsonapi.HasOne("host", host))
	yield(jsonapi.HasOne("stack", stack))
	yield(jsonapi.HasMany("dependencies", r.g.containersByID(r.c.DependsOn)...))
}

type stackResource struct {
	g *Graph
	s *models.Stack
}

func (r *stackResource) Identifier() any  { return r.s.ID }
func (r *stackResource) TypeName() string { return TypeStacks }

func (r *stackResource) Attributes(jsonapi.AttributeOptions) map[string]any {
	attrs := map[string]any{
		"name":   r.s.Name,
		"status": r.s.Status,
	}
	if r.s.Description != "" {
		attrs["description"] = r.s.Description
	}
	if r.s.Datacenter != "" {
		attrs["location"] = r.s.Datacenter
	}
	if len(r.s.Labels) > 0 {
		attrs["labels"] = r.s.Labels
	}
	if !r.s.CreatedAt.IsZero() {
		attrs["dateCreated"] = r.s.CreatedAt.Format(time.RFC3339)
	}
	if !r.s.UpdatedAt.IsZero() {
		attrs["dateModified"] = r.s.UpdatedAt.Format(time.RFC3339)
	}
	return attrs
}

func (r *stackResource) EachAssociation(yield func(jsonapi.Association)) {
	yield(jsonapi.HasMany("services", r.g.containersByID(r.s.Containers)...))
}
