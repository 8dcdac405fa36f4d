package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/graphapi/internal/auth"
	"evalgo.org/graphapi/internal/config"
	"evalgo.org/graphapi/internal/logging"
	"evalgo.org/graphapi/internal/storage"
	"evalgo.org/graphapi/models"
	"evalgo.org/graphapi/pkg/jsonapi"
)

func newTestServer(t *testing.T, configure func(*config.Config)) (*Server, *storage.MemoryStore) {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	cfg.Security.RateLimit = 0
	if configure != nil {
		configure(cfg)
	}

	store := storage.NewMemory(logging.Discard())
	seed(t, store)

	s := New(cfg, store, logging.Discard())
	t.Cleanup(s.cancel)
	return s, store
}

func seed(t *testing.T, store storage.Store) {
	t.Helper()
	for _, h := range []*models.Host{
		{ID: "host-01", Name: "web-server-01", IPAddress: "192.168.1.10", CPU: 8, Memory: 16384, Status: "active", Datacenter: "us-west-2"},
		{ID: "host-02", Name: "db-server-01", IPAddress: "192.168.1.11", CPU: 16, Memory: 65536, Status: "active", Datacenter: "us-west-2"},
	} {
		require.NoError(t, store.SaveHost(h))
	}
	for _, c := range []*models.Container{
		{ID: "web-1", Name: "web", Image: "nginx:latest", Status: "running", HostedOn: "host-01", DependsOn: []string{"db-1"}},
		{ID: "db-1", Name: "db", Image: "postgres:16", Status: "running", HostedOn: "host-02"},
		{ID: "orphan", Name: "orphan", Image: "busybox", Status: "exited", HostedOn: "host-99"},
	} {
		require.NoError(t, store.SaveContainer(c))
	}
	require.NoError(t, store.SaveStack(&models.Stack{ID: "shop", Name: "shop", Status: "running", Containers: []string{"web-1", "db-1"}}))
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, MIMEJSONAPI)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeDocument(t *testing.T, rec *httptest.ResponseRecorder) jsonapi.Document {
	t.Helper()
	assert.Equal(t, MIMEJSONAPI, rec.Header().Get(echo.HeaderContentType))
	var doc jsonapi.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	return doc
}

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) []ErrorObject {
	t.Helper()
	var doc ErrorDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	require.NotEmpty(t, doc.Errors)
	return doc.Errors
}

func ids(ros []*jsonapi.ResourceObject) []string {
	out := make([]string, 0, len(ros))
	for _, ro := range ros {
		out = append(out, ro.Type+"/"+ro.ID)
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, config.DriverMemory, body["storage"])
}

func TestListResources(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/v1/hosts", "")

	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeDocument(t, rec)
	assert.True(t, doc.IsCollection)
	assert.Equal(t, []string{"hosts/host-01", "hosts/host-02"}, ids(doc.Data))
	assert.Equal(t, float64(2), doc.Meta["total"])
	assert.Equal(t, "/api/v1/hosts/host-01", doc.Data[0].Links["self"])
	assert.Equal(t, map[string]any{
		"name": "web-server-01", "ipAddress": "192.168.1.10", "cpu": float64(8),
		"memory": float64(16384), "status": "active", "location": "us-west-2",
	}, doc.Data[0].Attributes)
	assert.NotContains(t, doc.Links, "next")
	assert.NotContains(t, doc.Links, "prev")
}

func TestListResources_Pagination(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		name     string
		query    string
		wantIDs  []string
		wantNext string
		wantPrev string
	}{
		{
			name:     "first page",
			query:    "limit=2",
			wantIDs:  []string{"containers/db-1", "containers/orphan"},
			wantNext: "/api/v1/containers?limit=2&offset=2",
		},
		{
			name:     "last page",
			query:    "limit=2&offset=2",
			wantIDs:  []string{"containers/web-1"},
			wantPrev: "/api/v1/containers?limit=2&offset=0",
		},
		{
			name:     "offset beyond data",
			query:    "offset=10",
			wantIDs:  []string{},
			wantPrev: "/api/v1/containers?limit=100&offset=0",
		},
		{
			name:     "other parameters are kept",
			query:    "limit=1&include=host",
			wantIDs:  []string{"containers/db-1"},
			wantNext: "/api/v1/containers?include=host&limit=1&offset=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/v1/containers?"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)

			doc := decodeDocument(t, rec)
			assert.Equal(t, tt.wantIDs, ids(doc.Data))
			assert.Equal(t, float64(3), doc.Meta["total"])
			assert.Equal(t, tt.wantNext, doc.Links["next"])
			assert.Equal(t, tt.wantPrev, doc.Links["prev"])
		})
	}
}

func TestGetResource(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/v1/containers/web-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeDocument(t, rec)
	ro := doc.Primary()
	require.NotNil(t, ro)
	assert.Equal(t, "containers", ro.Type)
	assert.Equal(t, "web-1", ro.ID)
	assert.Equal(t, &jsonapi.ResourceIdentifier{Type: "hosts", ID: "host-01"}, ro.Relationships["host"].Data.One())
	assert.Equal(t, &jsonapi.ResourceIdentifier{Type: "stacks", ID: "shop"}, ro.Relationships["stack"].Data.One())
	assert.Equal(t, []jsonapi.ResourceIdentifier{{Type: "containers", ID: "db-1"}}, ro.Relationships["dependencies"].Data.Many())
	assert.Equal(t, "/api/v1/containers/web-1/relationships/host", ro.Relationships["host"].Links["self"])
	assert.Equal(t, "/api/v1/containers/web-1/host", ro.Relationships["host"].Links["related"])
	assert.Empty(t, doc.Included)
}

func TestGetResource_Include(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		name         string
		target       string
		wantIncluded []string
	}{
		{
			name:         "to-one",
			target:       "/api/v1/containers/web-1?include=host",
			wantIncluded: []string{"hosts/host-01"},
		},
		{
			name:         "nested path includes intermediates",
			target:       "/api/v1/stacks/shop?include=services.host",
			wantIncluded: []string{"containers/web-1", "containers/db-1", "hosts/host-01", "hosts/host-02"},
		},
		{
			name:         "unknown path is ignored",
			target:       "/api/v1/stacks/shop?include=owners",
			wantIncluded: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)

			doc := decodeDocument(t, rec)
			assert.ElementsMatch(t, tt.wantIncluded, ids(doc.Included))
		})
	}
}

func TestGetResource_Fields(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/v1/containers/web-1?include=host&fields[hosts]=name&fields[containers]=image,status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeDocument(t, rec)
	assert.Equal(t, map[string]any{"image": "nginx:latest", "status": "running"}, doc.Primary().Attributes)
	require.Len(t, doc.Included, 1)
	assert.Equal(t, map[string]any{"name": "web-server-01"}, doc.Included[0].Attributes)
	assert.Len(t, doc.Primary().Relationships, 3, "fields only restrict attributes")
}

func TestGetResource_BlankLinkage(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*config.Config)
		query     string
		wantHost  bool
	}{
		{name: "kept by default", wantHost: true},
		{name: "dropped on request", query: "?exclude_blank_linkage=true", wantHost: false},
		{
			name:      "dropped by configuration",
			configure: func(c *config.Config) { c.JSONAPI.ExcludeBlankLinkage = true },
			wantHost:  false,
		},
		{
			name:      "request overrides configuration",
			configure: func(c *config.Config) { c.JSONAPI.ExcludeBlankLinkage = true },
			query:     "?exclude_blank_linkage=false",
			wantHost:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.configure)

			rec := do(t, s, http.MethodGet, "/api/v1/containers/orphan"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)

			rels := decodeDocument(t, rec).Primary().Relationships
			rel, ok := rels["host"]
			assert.Equal(t, tt.wantHost, ok)
			if ok {
				assert.True(t, rel.Data.IsBlank())
			}
		})
	}
}

func TestListResources_PreventDuplicates(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/v1/containers?include=dependencies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"containers/db-1"}, ids(decodeDocument(t, rec).Included))

	rec = do(t, s, http.MethodGet, "/api/v1/containers?include=dependencies&prevent_duplicates=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeDocument(t, rec).Included)
}

func TestQueryParameterErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		target    string
		parameter string
	}{
		{"/api/v1/hosts?exclude_blank_linkage=maybe", "exclude_blank_linkage"},
		{"/api/v1/hosts/host-01?prevent_duplicates=2", "prevent_duplicates"},
		{"/api/v1/hosts?fields=name", "fields"},
		{"/api/v1/hosts?fields[]=name", "fields[]"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)

			errs := decodeErrors(t, rec)
			require.NotNil(t, errs[0].Source)
			assert.Equal(t, tt.parameter, errs[0].Source.Parameter)
		})
	}
}

func TestNotFound(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
		title  string
	}{
		{"unknown type", "/api/v1/users", "Unknown resource type"},
		{"unknown id", "/api/v1/hosts/host-99", "hosts not found"},
		{"unknown relationship", "/api/v1/hosts/host-01/relationships/owner", "Relationship not found"},
		{"unknown related", "/api/v1/hosts/host-01/owner", "Relationship not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, MIMEJSONAPI, rec.Header().Get(echo.HeaderContentType))
			errs := decodeErrors(t, rec)
			assert.Equal(t, "404", errs[0].Status)
			assert.Equal(t, tt.title, errs[0].Title)
		})
	}
}

func TestGetRelationship(t *testing.T) {
	s, _ := newTestServer(t, nil)

	t.Run("to-one", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/v1/containers/web-1/relationships/host", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"data": {"type": "hosts", "id": "host-01"},
			"links": {
				"self": "/api/v1/containers/web-1/relationships/host",
				"related": "/api/v1/containers/web-1/host"
			}
		}`, rec.Body.String())
	})

	t.Run("blank linkage is always returned", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/v1/containers/orphan/relationships/dependencies?exclude_blank_linkage=true", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.JSONEq(t, `[]`, string(body["data"]))
	})
}

func TestGetRelated(t *testing.T) {
	s, _ := newTestServer(t, nil)

	t.Run("to-many", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/v1/hosts/host-01/containers", "")
		require.Equal(t, http.StatusOK, rec.Code)

		doc := decodeDocument(t, rec)
		assert.True(t, doc.IsCollection)
		assert.Equal(t, []string{"containers/web-1"}, ids(doc.Data))
		assert.Equal(t, float64(1), doc.Meta["total"])
	})

	t.Run("to-one", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/v1/containers/db-1/host?include=containers", "")
		require.Equal(t, http.StatusOK, rec.Code)

		doc := decodeDocument(t, rec)
		require.NotNil(t, doc.Primary())
		assert.Equal(t, "host-02", doc.Primary().ID)
		assert.Equal(t, []string{"containers/db-1"}, ids(doc.Included))
	})

	t.Run("absent to-one is null", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/v1/containers/orphan/host", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data": null}`, rec.Body.String())
	})
}

const newHost = `{
	"@context": "https://schema.org",
	"@type": "ComputerSystem",
	"@id": "host-03",
	"name": "cache-01",
	"ipAddress": "10.0.0.3",
	"cpu": 4,
	"memory": 8192,
	"status": "active",
	"location": "eu-central-1"
}`

func TestCreateResource(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/hosts", newHost)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/v1/hosts/host-03", rec.Header().Get(echo.HeaderLocation))
	doc := decodeDocument(t, rec)
	assert.Equal(t, "host-03", doc.Primary().ID)
	assert.Equal(t, "cache-01", doc.Primary().Attributes["name"])

	stored, err := store.GetHost("host-03")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.3", stored.IPAddress)
}

func TestCreateResource_ContainerLinksToHost(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := `{
		"@context": "https://schema.org",
		"@type": "SoftwareApplication",
		"@id": "cache-1",
		"name": "cache",
		"executableName": "redis:7",
		"status": "running",
		"hostedOn": "host-02",
		"ports": [{"hostPort": 6379, "containerPort": 6379, "protocol": "tcp"}]
	}`
	rec := do(t, s, http.MethodPost, "/api/v1/containers?include=host", body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decodeDocument(t, rec)
	assert.Equal(t, []string{"hosts/host-02"}, ids(doc.Included))

	rec = do(t, s, http.MethodGet, "/api/v1/hosts/host-02/relationships/containers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"cache-1"`)
}

func TestCreateResource_GeneratesID(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := `{"@context": "https://schema.org", "@type": "ItemList", "name": "analytics"}`
	rec := do(t, s, http.MethodPost, "/api/v1/stacks", body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeDocument(t, rec).Primary().ID
	assert.True(t, strings.HasPrefix(id, "stack:"), id)
}

func TestCreateResource_Errors(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		contentType  string
		wantStatus   int
		wantPointers []string
	}{
		{
			name: "field validation",
			body: `{"@context": "https://schema.org", "@type": "ComputerSystem", "@id": "bad",
				"name": "", "ipAddress": "not-an-ip", "cpu": -1}`,
			wantStatus:   http.StatusUnprocessableEntity,
			wantPointers: []string{"/cpu", "/ipAddress", "/name"},
		},
		{
			name:         "missing JSON-LD context",
			body:         `{"@type": "ComputerSystem", "@id": "h", "name": "h", "ipAddress": "10.0.0.1"}`,
			wantStatus:   http.StatusUnprocessableEntity,
			wantPointers: []string{"/@context"},
		},
		{
			name:       "malformed JSON",
			body:       `{"@id": `,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "existing id",
			body:       strings.Replace(newHost, "host-03", "host-01", 1),
			wantStatus: http.StatusConflict,
		},
		{
			name:        "unsupported content type",
			body:        newHost,
			contentType: "text/plain",
			wantStatus:  http.StatusUnsupportedMediaType,
		},
		{
			name:        "JSON:API media type with parameters",
			body:        newHost,
			contentType: MIMEJSONAPI + "; charset=utf-8",
			wantStatus:  http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, nil)

			var headers []string
			if tt.contentType != "" {
				headers = []string{echo.HeaderContentType, tt.contentType}
			}
			rec := do(t, s, http.MethodPost, "/api/v1/hosts", tt.body, headers...)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			errs := decodeErrors(t, rec)
			if tt.wantPointers == nil {
				return
			}
			var pointers []string
			for _, e := range errs {
				require.NotNil(t, e.Source)
				pointers = append(pointers, e.Source.Pointer)
			}
			assert.Equal(t, tt.wantPointers, pointers)
		})
	}
}

func TestAcceptHeader(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		accept     string
		wantStatus int
	}{
		{MIMEJSONAPI, http.StatusOK},
		{"application/json", http.StatusOK},
		{"text/html, */*;q=0.8", http.StatusOK},
		{MIMEJSONAPI + "; q=0.9", http.StatusOK},
		{MIMEJSONAPI + "; ext=bulk", http.StatusNotAcceptable},
		{"text/html", http.StatusNotAcceptable},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/v1/hosts", "", echo.HeaderAccept, tt.accept)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestDeleteResource(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(t, s, http.MethodDelete, "/api/v1/containers/web-1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := store.GetContainer("web-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rec = do(t, s, http.MethodGet, "/api/v1/stacks/shop/relationships/services", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "web-1")

	rec = do(t, s, http.MethodDelete, "/api/v1/containers/web-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthentication(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) {
		c.Security.AuthEnabled = true
		c.Security.JWTSecret = "test-secret"
	})
	jwt := auth.NewJWTService(s.config.Security)
	token := func(role models.Role) string {
		tok, err := jwt.GenerateToken("alice", role)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		authHeader string
		wantStatus int
	}{
		{"read without token", http.MethodGet, "/api/v1/hosts", "", "", http.StatusUnauthorized},
		{"read as viewer", http.MethodGet, "/api/v1/hosts", "", token(models.RoleViewer), http.StatusOK},
		{"write as viewer", http.MethodPost, "/api/v1/hosts", newHost, token(models.RoleViewer), http.StatusForbidden},
		{"write as user", http.MethodPost, "/api/v1/hosts", newHost, token(models.RoleUser), http.StatusCreated},
		{"delete as admin", http.MethodDelete, "/api/v1/hosts/host-02", "", token(models.RoleAdmin), http.StatusNoContent},
		{"health is public", http.MethodGet, "/health", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.authHeader != "" {
				headers = []string{echo.HeaderAuthorization, tt.authHeader}
			}
			rec := do(t, s, tt.method, tt.target, tt.body, headers...)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestWebSocketEvents(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/v1/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.wsHub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := do(t, s, http.MethodPost, "/api/v1/hosts", newHost)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/v1/hosts/host-03", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	read := func() GraphEvent {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev GraphEvent
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	created := read()
	assert.Equal(t, EventResourceCreated, created.Type)
	assert.Equal(t, "hosts", created.ResourceType)
	assert.Equal(t, "host-03", created.ID)
	require.NotNil(t, created.Document)
	assert.Equal(t, "cache-01", created.Document.Primary().Attributes["name"])

	deleted := read()
	assert.Equal(t, EventResourceDeleted, deleted.Type)
	assert.Equal(t, "host-03", deleted.ID)
	assert.Nil(t, deleted.Document)
}
