// Package storage persists hosts, containers and stacks.
//
// Two drivers implement Store: a CouchDB driver built on eve.evalgo.org/db
// and an in-process driver built on go-cache. Open picks one from the
// configuration.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"evalgo.org/graphapi/internal/config"
	"evalgo.org/graphapi/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store is implemented by every storage driver. Lists are ordered by id.
type Store interface {
	ListHosts() ([]*models.Host, error)
	GetHost(id string) (*models.Host, error)
	SaveHost(host *models.Host) error
	DeleteHost(id string) error

	ListContainers() ([]*models.Container, error)
	GetContainer(id string) (*models.Container, error)
	SaveContainer(container *models.Container) error
	DeleteContainer(id string) error

	ListStacks() ([]*models.Stack, error)
	GetStack(id string) (*models.Stack, error)
	SaveStack(stack *models.Stack) error
	DeleteStack(id string) error

	// Ping checks that the backend is reachable.
	Ping() error
	Close() error
}

// Snapshot is every document of a store, read in one pass.
type Snapshot struct {
	Hosts      []*models.Host      `json:"hosts" yaml:"hosts"`
	Containers []*models.Container `json:"containers" yaml:"containers"`
	Stacks     []*models.Stack     `json:"stacks" yaml:"stacks"`
}

// Load reads a snapshot from s.
func Load(s Store) (*Snapshot, error) {
	hosts, err := s.ListHosts()
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	containers, err := s.ListContainers()
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	stacks, err := s.ListStacks()
	if err != nil {
		return nil, fmt.Errorf("failed to list stacks: %w", err)
	}
	return &Snapshot{Hosts: hosts, Containers: containers, Stacks: stacks}, nil
}

// Open returns the driver selected by cfg.Storage.Driver, seeded from
// cfg.Storage.SeedFile when one is set.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		s = NewMemory(logger)
	case config.DriverCouchDB:
		s, err = NewCouch(cfg.Storage.CouchDB, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Storage.SeedFile == "" {
		return s, nil
	}
	snap, err := ReadFixture(cfg.Storage.SeedFile)
	if err == nil {
		err = Seed(s, snap)
	}
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to seed from %s: %w", cfg.Storage.SeedFile, err)
	}
	logger.Info("seeded store", "file", cfg.Storage.SeedFile,
		"hosts", len(snap.Hosts), "containers", len(snap.Containers), "stacks", len(snap.Stacks))
	return s, nil
}

const schemaOrg = "https://schema.org"

// JSON-LD types written by the drivers.
const (
	typeHost      = "ComputerSystem"
	typeContainer = "SoftwareApplication"
	typeStack     = "ItemList"
)

func setHostDefaults(h *models.Host) {
	if h.Context == "" {
		h.Context = schemaOrg
	}
	if h.Type == "" {
		h.Type = typeHost
	}
}

func setContainerDefaults(c *models.Container) {
	if c.Context == "" {
		c.Context = schemaOrg
	}
	if c.Type == "" {
		c.Type = typeContainer
	}
}

func setStackDefaults(s *models.Stack) {
	if s.Context == "" {
		s.Context = schemaOrg
	}
	if s.Type == "" {
		s.Type = typeStack
	}
}

func validID(id string) error {
	if id == "" {
		return errors.New("storage: empty id")
	}
	return nil
}

func sortByID[T any](items []*T, id func(*T) string) {
	slices.SortFunc(items, func(a, b *T) int {
		return strings.Compare(id(a), id(b))
	})
}
