package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/graphapi/internal/api"
	"evalgo.org/graphapi/internal/auth"
	"evalgo.org/graphapi/internal/config"
	"evalgo.org/graphapi/internal/logging"
	"evalgo.org/graphapi/internal/storage"
	"evalgo.org/graphapi/models"
)

func newTestAPI(t *testing.T, configure func(*config.Config)) (*httptest.Server, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	cfg.Security.RateLimit = 0
	if configure != nil {
		configure(cfg)
	}

	store := storage.NewMemory(logging.Discard())
	require.NoError(t, store.SaveHost(&models.Host{ID: "host-01", Name: "web-server-01", IPAddress: "10.0.0.1"}))
	require.NoError(t, store.SaveContainer(&models.Container{ID: "web-1", Name: "web", Image: "nginx", HostedOn: "host-01"}))

	server := api.New(cfg, store, logging.Discard())
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		_ = server.Shutdown(context.Background())
	})
	return ts, cfg
}

func TestNew(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	c, err := New("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1", c.baseURL)
}

func TestQuery_Values(t *testing.T) {
	yes := true
	q := &Query{
		Include:           "host,stack",
		Fields:            map[string][]string{"hosts": {"name", "status"}, "containers": {}},
		PreventDuplicates: &yes,
		Limit:             10,
	}
	assert.Equal(t,
		"fields%5Bcontainers%5D=&fields%5Bhosts%5D=name%2Cstatus&include=host%2Cstack&limit=10&prevent_duplicates=true",
		q.values().Encode())

	var nilQuery *Query
	assert.Empty(t, nilQuery.values())
}

func TestClient_Reads(t *testing.T) {
	ts, _ := newTestAPI(t, nil)
	c, err := New(ts.URL)
	require.NoError(t, err)
	ctx := context.Background()

	list, err := c.List(ctx, "hosts", nil)
	require.NoError(t, err)
	assert.True(t, list.IsCollection)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "host-01", list.Data[0].ID)

	doc, err := c.Get(ctx, "containers", "web-1", &Query{Include: "host", Fields: map[string][]string{"hosts": {"name"}}})
	require.NoError(t, err)
	require.NotNil(t, doc.Primary())
	assert.Equal(t, "nginx", doc.Primary().Attributes["image"])
	require.Len(t, doc.Included, 1)
	assert.Equal(t, map[string]any{"name": "web-server-01"}, doc.Included[0].Attributes)

	rel, err := c.Relationship(ctx, "containers", "web-1", "stack")
	require.NoError(t, err)
	assert.True(t, rel.Data.IsBlank())

	related, err := c.Related(ctx, "hosts", "host-01", "containers", nil)
	require.NoError(t, err)
	require.Len(t, related.Data, 1)
	assert.Equal(t, "web-1", related.Data[0].ID)
}

func TestClient_Writes(t *testing.T) {
	ts, _ := newTestAPI(t, nil)
	c, err := New(ts.URL)
	require.NoError(t, err)
	ctx := context.Background()

	doc, err := c.Create(ctx, "stacks", &models.Stack{
		Context:    "https://schema.org",
		Type:       "ItemList",
		ID:         "shop",
		Name:       "shop",
		Containers: []string{"web-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "shop", doc.Primary().ID)

	err = c.Delete(ctx, "stacks", "shop")
	require.NoError(t, err)

	err = c.Delete(ctx, "stacks", "shop")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.NotEmpty(t, apiErr.Errors)
	assert.Equal(t, "404", apiErr.Errors[0].Status)
}

func TestClient_ValidationError(t *testing.T) {
	ts, _ := newTestAPI(t, nil)
	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.Create(context.Background(), "hosts", map[string]any{
		"@context":  "https://schema.org",
		"@type":     "ComputerSystem",
		"ipAddress": "not-an-ip",
	})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Len(t, apiErr.Errors, 2)
	assert.Contains(t, apiErr.Error(), "(and 1 more)")
}

func TestClient_Auth(t *testing.T) {
	ts, cfg := newTestAPI(t, func(c *config.Config) { c.Security.AuthEnabled = true })

	anon, err := New(ts.URL)
	require.NoError(t, err)
	_, err = anon.List(context.Background(), "hosts", nil)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	token, err := auth.NewJWTService(cfg.Security).GenerateToken("reader", models.RoleViewer)
	require.NoError(t, err)
	c, err := New(ts.URL, WithToken(token))
	require.NoError(t, err)
	_, err = c.List(context.Background(), "hosts", nil)
	assert.NoError(t, err)
}
