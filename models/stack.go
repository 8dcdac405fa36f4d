package models

import "time"

// Stack represents a multi-container application.
// It follows the Schema.org ItemList type.
//
// JSON-LD Context: https://schema.org
// Type: ItemList
//
// The containers of a stack are served as its "services" relationship.
//
// Example JSON representation:
//
//	{
//	  "@context": "https://schema.org",
//	  "@type": "ItemList",
//	  "@id": "my-app-stack",
//	  "name": "my-app",
//	  "description": "My application stack",
//	  "status": "running",
//	  "containers": ["web-1", "db-1"],
//	  "dateCreated": "2025-10-29T10:00:00Z"
//	}
type Stack struct {
	// Context is the JSON-LD @context URL
	Context string `json:"@context" jsonld:"@context" yaml:"context,omitempty"`

	// Type is the JSON-LD @type (ItemList for stacks)
	Type string `json:"@type" jsonld:"@type" yaml:"type,omitempty" validate:"omitempty,oneof=ItemList Stack"`

	// ID is the unique stack identifier (maps to CouchDB _id)
	ID string `json:"@id" jsonld:"@id" couchdb:"_id" yaml:"id" validate:"required"`

	// Rev is the CouchDB document revision
	Rev string `json:"_rev,omitempty" couchdb:"_rev" yaml:"-"`

	// Name is the stack name (required, indexed)
	Name string `json:"name" jsonld:"name" couchdb:"required,index" yaml:"name" validate:"required"`

	// Description is the human-readable stack description
	Description string `json:"description,omitempty" jsonld:"description" yaml:"description,omitempty"`

	// Status is the stack operational status
	// Values: pending, deploying, running, stopping, stopped, error
	Status string `json:"status" jsonld:"status" couchdb:"index" yaml:"status" validate:"omitempty,oneof=pending deploying running stopping stopped error"`

	// Datacenter is the primary datacenter for this stack (optional)
	Datacenter string `json:"location,omitempty" jsonld:"location" couchdb:"index" yaml:"location,omitempty"`

	// Containers is a list of container references in this stack
	Containers []string `json:"containers,omitempty" jsonld:"itemListElement" yaml:"containers,omitempty"`

	// Labels are custom key-value labels
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// CreatedAt is the stack creation timestamp
	CreatedAt time.Time `json:"dateCreated" jsonld:"dateCreated" couchdb:"index" yaml:"dateCreated,omitempty"`

	// UpdatedAt is the last update timestamp
	UpdatedAt time.Time `json:"dateModified" jsonld:"dateModified" yaml:"dateModified,omitempty"`
}
