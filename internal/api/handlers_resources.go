package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/labstack/echo/v4"

	"evalgo.org/graphapi/internal/graph"
	"evalgo.org/graphapi/internal/logging"
	"evalgo.org/graphapi/internal/storage"
	"evalgo.org/graphapi/internal/validation"
	"evalgo.org/graphapi/models"
	"evalgo.org/graphapi/pkg/jsonapi"
)

// maxBodySize caps request bodies of writes.
const maxBodySize = 1 << 20

// resourceKind binds a served type to its model and store operations.
type resourceKind struct {
	decode func(v *validation.Validator, body []byte) (model any, id string, result *validation.ValidationResult)
	exists func(s storage.Store, id string) error
	save   func(s storage.Store, model any) error
	delete func(s storage.Store, id string) error
}

var kinds = map[string]resourceKind{
	graph.TypeHosts: {
		decode: decodeAs(func(h *models.Host) string { return h.ID }),
		exists: getter(storage.Store.GetHost),
		save:   func(s storage.Store, m any) error { return s.SaveHost(m.(*models.Host)) },
		delete: storage.Store.DeleteHost,
	},
	graph.TypeContainers: {
		decode: decodeAs(func(c *models.Container) string { return c.ID }),
		exists: getter(storage.Store.GetContainer),
		save:   func(s storage.Store, m any) error { return s.SaveContainer(m.(*models.Container)) },
		delete: storage.Store.DeleteContainer,
	},
	graph.TypeStacks: {
		decode: decodeAs(func(st *models.Stack) string { return st.ID }),
		exists: getter(storage.Store.GetStack),
		save:   func(s storage.Store, m any) error { return s.SaveStack(m.(*models.Stack)) },
		delete: storage.Store.DeleteStack,
	},
}

func decodeAs[T any](id func(*T) string) func(*validation.Validator, []byte) (any, string, *validation.ValidationResult) {
	return func(v *validation.Validator, body []byte) (any, string, *validation.ValidationResult) {
		out := new(T)
		result := v.Decode(body, out)
		return out, id(out), result
	}
}

func getter[T any](get func(storage.Store, string) (*T, error)) func(storage.Store, string) error {
	return func(s storage.Store, id string) error {
		_, err := get(s, id)
		return err
	}
}

// listResources handles GET /api/v1/:type
func (s *Server) listResources(c echo.Context) error {
	typ := c.Param("type")
	opts, err := s.documentOptions(c)
	if err != nil {
		return err
	}

	g, err := s.loadGraph()
	if err != nil {
		return err
	}
	all, _ := g.All(typ)

	limit, offset := parsePagination(c)
	doc, err := jsonapi.Serialize(paginate(all, limit, offset), opts)
	if err != nil {
		return InternalError("Failed to serialize document", err.Error())
	}
	doc.Links = pageLinks(s.typeURL(typ), c.QueryParams(), limit, offset, len(all))
	doc.Meta = map[string]any{"total": len(all), "limit": limit, "offset": offset}

	return s.document(c, http.StatusOK, doc)
}

// getResource handles GET /api/v1/:type/:id
func (s *Server) getResource(c echo.Context) error {
	opts, err := s.documentOptions(c)
	if err != nil {
		return err
	}
	e, err := s.lookup(c)
	if err != nil {
		return err
	}

	doc, err := jsonapi.Serialize(e, opts)
	if err != nil {
		return InternalError("Failed to serialize document", err.Error())
	}
	return s.document(c, http.StatusOK, doc)
}

// getRelationship handles GET /api/v1/:type/:id/relationships/:name
func (s *Server) getRelationship(c echo.Context) error {
	opts, err := s.documentOptions(c)
	if err != nil {
		return err
	}
	e, err := s.lookup(c)
	if err != nil {
		return err
	}

	rel, err := jsonapi.SerializeRelationship(e, c.Param("name"), opts)
	if err != nil {
		return associationError(c, err)
	}
	return s.document(c, http.StatusOK, rel)
}

// getRelated handles GET /api/v1/:type/:id/:name
func (s *Server) getRelated(c echo.Context) error {
	opts, err := s.documentOptions(c)
	if err != nil {
		return err
	}
	e, err := s.lookup(c)
	if err != nil {
		return err
	}

	doc, err := jsonapi.SerializeRelated(e, c.Param("name"), opts)
	if err != nil {
		return associationError(c, err)
	}
	if doc.IsCollection {
		doc.Meta = map[string]any{"total": len(doc.Data)}
	}
	return s.document(c, http.StatusOK, doc)
}

// createResource handles POST /api/v1/:type. The body is a JSON-LD document
// of the type's model; a missing @id is generated.
func (s *Server) createResource(c echo.Context) error {
	ctx := c.Request().Context()
	typ := c.Param("type")
	kind := kinds[typ]

	opts, err := s.documentOptions(c)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodySize))
	if err != nil {
		return BadRequestError("Failed to read request body", err.Error())
	}
	if !json.Valid(body) {
		return BadRequestError("Malformed request body", "the body is not valid JSON")
	}
	body = withGeneratedID(body, inflect.Singularize(typ))

	model, id, result := kind.decode(s.validator, body)
	if !result.Valid {
		return ValidationError("Validation failed", fieldErrors(result))
	}

	if err := kind.exists(s.store, id); err == nil {
		return ConflictError("Resource already exists", fmt.Sprintf("%s %q already exists", typ, id))
	} else if !errors.Is(err, storage.ErrNotFound) {
		return InternalError("Failed to check resource", err.Error())
	}

	if err := kind.save(s.store, model); err != nil {
		return InternalError("Failed to save resource", err.Error())
	}
	logging.FromContext(ctx).Info("resource created", "type", typ, "id", id)

	g, err := s.loadGraph()
	if err != nil {
		return err
	}
	e, ok := g.Lookup(typ, id)
	if !ok {
		return InternalError("Failed to load resource", fmt.Sprintf("%s %q missing after save", typ, id))
	}
	doc, err := jsonapi.Serialize(e, opts)
	if err != nil {
		return InternalError("Failed to serialize document", err.Error())
	}

	if self := doc.Primary().Links["self"]; self != "" {
		c.Response().Header().Set(echo.HeaderLocation, self)
	}
	s.BroadcastGraphEvent(ctx, GraphEvent{
		Type:         EventResourceCreated,
		ResourceType: typ,
		ID:           id,
		Document:     doc,
	})

	return s.document(c, http.StatusCreated, doc)
}

// deleteResource handles DELETE /api/v1/:type/:id
func (s *Server) deleteResource(c echo.Context) error {
	ctx := c.Request().Context()
	typ, id := c.Param("type"), c.Param("id")

	if err := kinds[typ].delete(s.store, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NotFoundError(typ, id)
		}
		return InternalError("Failed to delete resource", err.Error())
	}
	logging.FromContext(ctx).Info("resource deleted", "type", typ, "id", id)

	s.BroadcastGraphEvent(ctx, GraphEvent{
		Type:         EventResourceDeleted,
		ResourceType: typ,
		ID:           id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) documentOptions(c echo.Context) (jsonapi.Options, error) {
	return documentOptions(c, defaultsFrom(s.config.JSONAPI, s.links))
}

// loadGraph reads the whole store. Relationships cross every type, so even a
// single resource needs the full snapshot.
func (s *Server) loadGraph() (*graph.Graph, error) {
	snap, err := storage.Load(s.store)
	if err != nil {
		return nil, InternalError("Failed to load graph", err.Error())
	}
	return graph.New(snap.Hosts, snap.Containers, snap.Stacks), nil
}

func (s *Server) lookup(c echo.Context) (jsonapi.Entity, error) {
	g, err := s.loadGraph()
	if err != nil {
		return nil, err
	}
	typ, id := c.Param("type"), c.Param("id")
	e, ok := g.Lookup(typ, id)
	if !ok {
		return nil, NotFoundError(typ, id)
	}
	return e, nil
}

func (s *Server) typeURL(typ string) string {
	return strings.TrimRight(s.config.JSONAPI.BaseURL, "/") + "/" + typ
}

// document writes v as a JSON:API response body.
func (s *Server) document(c echo.Context, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return InternalError("Failed to encode document", err.Error())
	}
	return c.Blob(status, MIMEJSONAPI, body)
}

func associationError(c echo.Context, err error) error {
	if errors.Is(err, jsonapi.ErrUnknownAssociation) {
		return NewAPIError(http.StatusNotFound, "Relationship not found",
			fmt.Sprintf("%s has no relationship %q", c.Param("type"), c.Param("name")))
	}
	return InternalError("Failed to serialize document", err.Error())
}

// withGeneratedID sets @id on a JSON object body that lacks one. Anything
// else is returned unchanged for the validator to report.
func withGeneratedID(body []byte, prefix string) []byte {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return body
	}
	if id, has := doc["@id"]; has && id != "" {
		return body
	}
	doc["@id"] = models.GenerateID(prefix)
	out, err := json.Marshal(doc)
	if err != nil {
		return body
	}
	return out
}

// fieldErrors folds validation errors into one message per field.
func fieldErrors(result *validation.ValidationResult) map[string]string {
	out := make(map[string]string, len(result.Errors))
	for _, e := range result.Errors {
		if prev, ok := out[e.Field]; ok {
			out[e.Field] = prev + "; " + e.Message
			continue
		}
		out[e.Field] = e.Message
	}
	return out
}
