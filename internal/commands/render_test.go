package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/graphapi/internal/storage"
	"evalgo.org/graphapi/pkg/jsonapi"
)

type renderedResource struct {
	Type          string                     `json:"type"`
	ID            string                     `json:"id"`
	Attributes    map[string]any             `json:"attributes"`
	Relationships map[string]json.RawMessage `json:"relationships"`
	Links         map[string]string          `json:"links"`
}

type renderedDocument struct {
	Data     json.RawMessage    `json:"data"`
	Included []renderedResource `json:"included"`
}

func testSnapshot(t *testing.T) *storage.Snapshot {
	t.Helper()
	snap, err := storage.ReadFixture("testdata/fixture.yaml")
	require.NoError(t, err)
	return snap
}

func renderDoc(t *testing.T, o renderOptions) renderedDocument {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, render(&buf, testSnapshot(t), o))

	var doc renderedDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	return doc
}

func includedIDs(doc renderedDocument) []string {
	ids := make([]string, 0, len(doc.Included))
	for _, r := range doc.Included {
		ids = append(ids, r.Type+"/"+r.ID)
	}
	return ids
}

func TestRender_Collection(t *testing.T) {
	doc := renderDoc(t, renderOptions{Type: "hosts", BaseURL: "/api/v1"})

	var data []renderedResource
	require.NoError(t, json.Unmarshal(doc.Data, &data))
	require.Len(t, data, 2)
	assert.Equal(t, "host-01", data[0].ID)
	assert.Equal(t, "hosts", data[0].Type)
	assert.Equal(t, "web-server-01", data[0].Attributes["name"])
	assert.Equal(t, "/api/v1/hosts/host-01", data[0].Links["self"])
	assert.Empty(t, doc.Included)
}

func TestRender_SingleWithInclude(t *testing.T) {
	doc := renderDoc(t, renderOptions{Type: "containers", ID: "web-1", Include: "host,stack.services"})

	var data renderedResource
	require.NoError(t, json.Unmarshal(doc.Data, &data))
	assert.Equal(t, "web-1", data.ID)
	assert.Equal(t, "nginx:1.27", data.Attributes["image"])
	assert.JSONEq(t, `{"data":{"type":"hosts","id":"host-01"},"links":{"self":"/containers/web-1/relationships/host","related":"/containers/web-1/host"}}`,
		string(data.Relationships["host"]))

	ids := includedIDs(doc)
	assert.Contains(t, ids, "hosts/host-01")
	assert.Contains(t, ids, "stacks/shop", "intermediate path is included")
	assert.Contains(t, ids, "containers/db-1")
}

func TestRender_Fields(t *testing.T) {
	doc := renderDoc(t, renderOptions{Type: "hosts", ID: "host-01", Fields: []string{"hosts=name", "hosts=status"}})

	var data renderedResource
	require.NoError(t, json.Unmarshal(doc.Data, &data))
	assert.Equal(t, map[string]any{"name": "web-server-01", "status": "active"}, data.Attributes)
	assert.Contains(t, data.Relationships, "containers", "fieldsets leave relationships alone")
}

func TestRender_ExcludeBlankLinkage(t *testing.T) {
	doc := renderDoc(t, renderOptions{Type: "containers", ID: "db-1", ExcludeBlankLinkage: true})

	var data renderedResource
	require.NoError(t, json.Unmarshal(doc.Data, &data))
	assert.Contains(t, data.Relationships, "host")
	assert.Contains(t, data.Relationships, "stack")
	assert.NotContains(t, data.Relationships, "dependencies")
}

func TestRender_Relationship(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, testSnapshot(t), renderOptions{
		Type: "stacks", ID: "shop", Relationship: "services", BaseURL: "/api/v1", Compact: true,
	}))

	assert.JSONEq(t, `{
		"data": [{"type":"containers","id":"web-1"},{"type":"containers","id":"db-1"}],
		"links": {
			"self": "/api/v1/stacks/shop/relationships/services",
			"related": "/api/v1/stacks/shop/services"
		}
	}`, buf.String())
}

func TestRender_Related(t *testing.T) {
	doc := renderDoc(t, renderOptions{Type: "hosts", ID: "host-02", Related: "containers"})

	var data []renderedResource
	require.NoError(t, json.Unmarshal(doc.Data, &data))
	require.Len(t, data, 1)
	assert.Equal(t, "db-1", data[0].ID)
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts renderOptions
	}{
		{"unknown type", renderOptions{Type: "volumes"}},
		{"unknown id", renderOptions{Type: "hosts", ID: "host-99"}},
		{"relationship without id", renderOptions{Type: "hosts", Relationship: "containers"}},
		{"relationship and related", renderOptions{Type: "hosts", ID: "host-01", Relationship: "containers", Related: "containers"}},
		{"unknown relationship", renderOptions{Type: "hosts", ID: "host-01", Relationship: "volumes"}},
		{"bad fields flag", renderOptions{Type: "hosts", Fields: []string{"name"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Error(t, render(&buf, testSnapshot(t), tt.opts))
		})
	}
}

func TestParseFieldFlags(t *testing.T) {
	fields, err := parseFieldFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, fields)

	fields, err = parseFieldFlags([]string{"hosts=name, status", "containers=", "hosts=cpu"})
	require.NoError(t, err)
	assert.Equal(t, jsonapi.Fieldset{
		"hosts":      {"name", "status", "cpu"},
		"containers": {},
	}, fields)

	_, err = parseFieldFlags([]string{"=name"})
	assert.Error(t, err)
}
