// Package graphapi serves an infrastructure graph as JSON:API documents.
//
// # Overview
//
// Hosts, containers and stacks are stored as JSON-LD/Schema.org documents.
// graphapi resolves the references between them into JSON:API relationships
// and serves compound documents with sparse fieldsets, links and
// de-duplicated included resources.
//
// The module consists of:
//   - pkg/jsonapi: a serializer for any type implementing jsonapi.Entity
//   - internal/graph: hosts, containers and stacks exposed as entities
//   - internal/storage: CouchDB (EVE) and in-memory stores
//   - internal/api: the Echo HTTP server and WebSocket event stream
//   - internal/commands: the cobra command line
//
// # Architecture
//
//	┌─────────────────┐      ┌─────────────────┐
//	│  API Server     │      │  render (CLI)   │
//	│  (Echo REST)    │      │  fixture files  │
//	└────────┬────────┘      └────────┬────────┘
//	         │                        │
//	┌────────▼────────────────────────▼────────┐
//	│  graph  ──►  pkg/jsonapi serializer       │
//	└────────┬─────────────────────────────────┘
//	         │
//	┌────────▼────────┐
//	│  Storage Layer  │
//	│ (EVE/CouchDB or │
//	│   go-cache)     │
//	└─────────────────┘
//
// # Usage
//
// Start the API server with a fixture loaded into the in-memory store:
//
//	GA_STORAGE_DRIVER=memory graphapi server --seed fixtures/dev.yaml
//
// Render a document without a server:
//
//	graphapi render fixtures/dev.yaml --type containers --id web-1 --include host,stack.services
//
// # Configuration
//
// Configuration can be provided via:
//   - YAML file (./config.yaml, ./configs/config.yaml, ~/.graphapi/config.yaml)
//   - Environment variables (GA_ prefix)
//
// Example configuration:
//
//	server:
//	  port: 8080
//	storage:
//	  driver: couchdb
//	  couchdb:
//	    url: http://localhost:5984
//	    database: graphapi
//	jsonapi:
//	  base_url: https://api.example.com/api/v1
//	  exclude_blank_linkage: false
//	  prevent_duplicates: true
//
// # API Endpoints
//
// Resources ({type} is hosts, containers or stacks):
//   - GET    /api/v1/{type}                            - List (limit/offset paginated)
//   - POST   /api/v1/{type}                            - Create from a JSON-LD document
//   - GET    /api/v1/{type}/{id}                       - Get one resource
//   - DELETE /api/v1/{type}/{id}                       - Delete
//   - GET    /api/v1/{type}/{id}/relationships/{name}  - Relationship linkage
//   - GET    /api/v1/{type}/{id}/{name}                - Related resources
//
// Every GET accepts include, fields[type], exclude_blank_linkage and
// prevent_duplicates query parameters.
//
// Other:
//   - POST /api/v1/validate/{type}  - Validate without storing
//   - GET  /api/v1/stats            - Graph statistics
//   - GET  /api/v1/ws               - Real-time graph events
//   - GET  /api/v1/ws/stats         - WebSocket statistics
//   - GET  /health                  - Health check
//
// # Relationships
//
//	hosts       containers  (to-many)
//	containers  host        (to-one)
//	containers  stack       (to-one)
//	containers  dependencies (to-many)
//	stacks      services    (to-many, containers)
//
// # Development
//
// Run tests:
//
//	go test ./...
//
// Run integration tests (requires CouchDB):
//
//	go test -v -tags=integration ./internal/storage/...
//
// Build the binary:
//
//	go build -o graphapi ./cmd/graphapi
package graphapi
