package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/patrickmn/go-cache"

	"evalgo.org/graphapi/internal/config"
	"evalgo.org/graphapi/models"
)

// MemoryStore keeps documents in process. Values are copied on the way in
// and out, so callers never share a model with the store. Slices and maps
// inside a model are shared.
type MemoryStore struct {
	docs   *cache.Cache
	logger *slog.Logger
}

// NewMemory returns an empty in-process store. Documents never expire.
func NewMemory(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		docs:   cache.New(cache.NoExpiration, 0),
		logger: logger.With("driver", config.DriverMemory),
	}
}

const (
	prefixHost      = "hosts/"
	prefixContainer = "containers/"
	prefixStack     = "stacks/"
)

// Ping always succeeds.
func (m *MemoryStore) Ping() error { return nil }

// Close drops every document.
func (m *MemoryStore) Close() error {
	m.docs.Flush()
	return nil
}

func (m *MemoryStore) ListHosts() ([]*models.Host, error) {
	out := list[models.Host](m.docs, prefixHost)
	sortByID(out, func(h *models.Host) string { return h.ID })
	return out, nil
}

func (m *MemoryStore) GetHost(id string) (*models.Host, error) {
	return get[models.Host](m.docs, prefixHost, id)
}

func (m *MemoryStore) SaveHost(host *models.Host) error {
	if err := validID(host.ID); err != nil {
		return err
	}
	setHostDefaults(host)
	m.docs.Set(prefixHost+host.ID, *host, cache.NoExpiration)
	m.logger.Debug("saved host", "id", host.ID)
	return nil
}

func (m *MemoryStore) DeleteHost(id string) error {
	return m.delete(prefixHost, id)
}

func (m *MemoryStore) ListContainers() ([]*models.Container, error) {
	out := list[models.Container](m.docs, prefixContainer)
	sortByID(out, func(c *models.Container) string { return c.ID })
	return out, nil
}

func (m *MemoryStore) GetContainer(id string) (*models.Container, error) {
	return get[models.Container](m.docs, prefixContainer, id)
}

func (m *MemoryStore) SaveContainer(container *models.Container) error {
	if err := validID(container.ID); err != nil {
		return err
	}
	setContainerDefaults(container)
	m.docs.Set(prefixContainer+container.ID, *container, cache.NoExpiration)
	m.logger.Debug("saved container", "id", container.ID)
	return nil
}

func (m *MemoryStore) DeleteContainer(id string) error {
	return m.delete(prefixContainer, id)
}

func (m *MemoryStore) ListStacks() ([]*models.Stack, error) {
	out := list[models.Stack](m.docs, prefixStack)
	sortByID(out, func(s *models.Stack) string { return s.ID })
	return out, nil
}

func (m *MemoryStore) GetStack(id string) (*models.Stack, error) {
	return get[models.Stack](m.docs, prefixStack, id)
}

func (m *MemoryStore) SaveStack(stack *models.Stack) error {
	if err := validID(stack.ID); err != nil {
		return err
	}
	setStackDefaults(stack)
	m.docs.Set(prefixStack+stack.ID, *stack, cache.NoExpiration)
	m.logger.Debug("saved stack", "id", stack.ID)
	return nil
}

func (m *MemoryStore) DeleteStack(id string) error {
	return m.delete(prefixStack, id)
}

func (m *MemoryStore) delete(prefix, id string) error {
	if _, ok := m.docs.Get(prefix + id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.docs.Delete(prefix + id)
	m.logger.Debug("deleted document", "id", id)
	return nil
}

func get[T any](c *cache.Cache, prefix, id string) (*T, error) {
	v, ok := c.Get(prefix + id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	doc := v.(T)
	return &doc, nil
}

func list[T any](c *cache.Cache, prefix string) []*T {
	items := c.Items()
	out := make([]*T, 0, len(items))
	for k, item := range items {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		doc := item.Object.(T)
		out = append(out, &doc)
	}
	return out
}
