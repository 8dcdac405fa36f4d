package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"eve.evalgo.org/db"

	"evalgo.org/graphapi/internal/config"
	"evalgo.org/graphapi/models"
)

// CouchStore is the CouchDB driver. It wraps the CouchDB service from eve
// and stores every model as a JSON-LD document keyed by its @id.
type CouchStore struct {
	service *db.CouchDBService
	logger  *slog.Logger
}

// NewCouch connects to CouchDB, creating the database if needed, and makes
// sure the query indexes exist.
func NewCouch(cfg config.CouchDBConfig, logger *slog.Logger) (*CouchStore, error) {
	service, err := db.NewCouchDBServiceFromConfig(db.CouchDBConfig{
		URL:             cfg.URL,
		Database:        cfg.Database,
		Username:        cfg.Username,
		Password:        cfg.Password,
		CreateIfMissing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create CouchDB service: %w", err)
	}

	s := &CouchStore{service: service, logger: logger.With("driver", config.DriverCouchDB)}
	s.initializeSchema()
	return s, nil
}

// initializeSchema creates the indexes used by the list queries. Failures
// are logged; an index may already exist.
func (s *CouchStore) initializeSchema() {
	indexes := []db.Index{
		{Name: "type-id", Fields: []string{"@type", "@id"}, Type: "json"},
		{Name: "containers-host", Fields: []string{"@type", "hostedOn"}, Type: "json"},
	}
	for _, index := range indexes {
		if err := s.service.CreateIndex(index); err != nil {
			s.logger.Warn("failed to create index", "index", index.Name, "error", err)
		}
	}
}

// Ping checks the database is reachable.
func (s *CouchStore) Ping() error {
	info, err := s.service.GetDatabaseInfo()
	if err != nil {
		return err
	}
	s.logger.Debug("database info", "db", info.DBName, "docs", info.DocCount)
	return nil
}

// Close closes the storage connection.
func (s *CouchStore) Close() error {
	return s.service.Close()
}

// ListHosts returns every host document.
func (s *CouchStore) ListHosts() ([]*models.Host, error) {
	hosts, err := db.FindTyped[models.Host](s.service, byTypes(typeHost, "ComputerServer", "Server", "Host"))
	if err != nil {
		return nil, err
	}
	return latest(hosts, func(h *models.Host) string { return h.ID }), nil
}

// GetHost retrieves a host by ID.
func (s *CouchStore) GetHost(id string) (*models.Host, error) {
	var host models.Host
	if err := s.get(id, &host); err != nil {
		return nil, err
	}
	return &host, nil
}

// SaveHost creates or replaces a host.
func (s *CouchStore) SaveHost(host *models.Host) error {
	if err := validID(host.ID); err != nil {
		return err
	}
	setHostDefaults(host)
	return s.save(host, &host.Rev, func() (string, error) {
		existing, err := s.GetHost(host.ID)
		if err != nil {
			return "", err
		}
		return existing.Rev, nil
	})
}

// DeleteHost deletes a host by ID.
func (s *CouchStore) DeleteHost(id string) error {
	host, err := s.GetHost(id)
	if err != nil {
		return err
	}
	return s.delete(id, host.Rev)
}

// ListContainers returns every container document.
func (s *CouchStore) ListContainers() ([]*models.Container, error) {
	containers, err := db.FindTyped[models.Container](s.service, byTypes(typeContainer, "Container"))
	if err != nil {
		return nil, err
	}
	return latest(containers, func(c *models.Container) string { return c.ID }), nil
}

// GetContainer retrieves a container by ID.
func (s *CouchStore) GetContainer(id string) (*models.Container, error) {
	var container models.Container
	if err := s.get(id, &container); err != nil {
		return nil, err
	}
	return &container, nil
}

// SaveContainer creates or replaces a container.
func (s *CouchStore) SaveContainer(container *models.Container) error {
	if err := validID(container.ID); err != nil {
		return err
	}
	setContainerDefaults(container)
	return s.save(container, &container.Rev, func() (string, error) {
		existing, err := s.GetContainer(container.ID)
		if err != nil {
			return "", err
		}
		return existing.Rev, nil
	})
}

// DeleteContainer deletes a container by ID.
func (s *CouchStore) DeleteContainer(id string) error {
	container, err := s.GetContainer(id)
	if err != nil {
		return err
	}
	return s.delete(id, container.Rev)
}

// ListStacks returns every stack document.
func (s *CouchStore) ListStacks() ([]*models.Stack, error) {
	stacks, err := db.FindTyped[models.Stack](s.service, byTypes(typeStack, "Stack"))
	if err != nil {
		return nil, err
	}
	return latest(stacks, func(st *models.Stack) string { return st.ID }), nil
}

// GetStack retrieves a stack by ID.
func (s *CouchStore) GetStack(id string) (*models.Stack, error) {
	var stack models.Stack
	if err := s.get(id, &stack); err != nil {
		return nil, err
	}
	return &stack, nil
}

// SaveStack creates or replaces a stack.
func (s *CouchStore) SaveStack(stack *models.Stack) error {
	if err := validID(stack.ID); err != nil {
		return err
	}
	setStackDefaults(stack)
	return s.save(stack, &stack.Rev, func() (string, error) {
		existing, err := s.GetStack(stack.ID)
		if err != nil {
			return "", err
		}
		return existing.Rev, nil
	})
}

// DeleteStack deletes a stack by ID.
func (s *CouchStore) DeleteStack(id string) error {
	stack, err := s.GetStack(id)
	if err != nil {
		return err
	}
	return s.delete(id, stack.Rev)
}

func (s *CouchStore) get(id string, out any) error {
	if err := s.service.GetGenericDocument(id, out); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// save writes doc. On a conflict it fetches the current revision and
// retries once, so saves behave as upserts.
func (s *CouchStore) save(doc any, rev *string, currentRev func() (string, error)) error {
	resp, err := s.service.SaveGenericDocument(doc)
	if err != nil && isConflict(err) {
		s.logger.Debug("save conflict, retrying with current revision")
		current, getErr := currentRev()
		if getErr != nil {
			return err
		}
		*rev = current
		resp, err = s.service.SaveGenericDocument(doc)
	}
	if err != nil {
		return err
	}
	*rev = resp.Rev
	return nil
}

func (s *CouchStore) delete(id, rev string) error {
	if err := s.service.DeleteDocument(id, rev); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	s.logger.Debug("deleted document", "id", id)
	return nil
}

// byTypes selects documents whose @type is one of types.
func byTypes(types ...string) db.MangoQuery {
	return db.MangoQuery{
		Selector: map[string]interface{}{
			"@type": map[string]interface{}{"$in": types},
		},
	}
}

// latest deduplicates documents by id, last one wins, and orders them by id.
// CouchDB may hold several documents for one id after a replication conflict.
func latest[T any](docs []T, id func(*T) string) []*T {
	byID := make(map[string]*T, len(docs))
	for i := range docs {
		byID[id(&docs[i])] = &docs[i]
	}
	out := make([]*T, 0, len(byID))
	for _, d := range byID {
		out = append(out, d)
	}
	sortByID(out, id)
	return out
}

func isNotFound(err error) bool {
	var couchErr *db.CouchDBError
	return errors.As(err, &couchErr) && couchErr.IsNotFound()
}

func isConflict(err error) bool {
	var couchErr *db.CouchDBError
	return errors.As(err, &couchErr) && couchErr.IsConflict()
}
