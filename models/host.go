package models

// Host represents a physical or virtual machine that runs containers.
// It follows the Schema.org ComputerSystem type with infrastructure-specific fields.
//
// JSON-LD Context: https://schema.org
// Type: ComputerSystem
//
// Hosts are the roots of the infrastructure graph. Each host can run
// multiple containers, linked back via Container.HostedOn, and is served
// as the "hosts" resource type.
//
// Example JSON representation:
//
//	{
//	  "@context": "https://schema.org",
//	  "@type": "ComputerSystem",
//	  "@id": "host-01",
//	  "name": "web-server-01",
//	  "ipAddress": "192.168.1.10",
//	  "cpu": 8,
//	  "memory": 16777216,
//	  "status": "active",
//	  "location": "us-west-2"
//	}
type Host struct {
	// Context is the JSON-LD @context URL (typically https://schema.org)
	Context string `json:"@context" jsonld:"@context" yaml:"context,omitempty"`

	// Type is the JSON-LD @type (ComputerSystem for hosts)
	Type string `json:"@type" jsonld:"@type" yaml:"type,omitempty" validate:"omitempty,oneof=ComputerSystem Server Host"`

	// ID is the unique host identifier (maps to CouchDB _id)
	ID string `json:"@id" jsonld:"@id" couchdb:"_id" yaml:"id" validate:"required"`

	// Rev is the CouchDB document revision for optimistic locking
	Rev string `json:"_rev,omitempty" couchdb:"_rev" yaml:"-"`

	// Name is the human-readable host name (required, indexed)
	Name string `json:"name" jsonld:"name" couchdb:"required,index" yaml:"name" validate:"required"`

	// IPAddress is the host's IP address (required, indexed)
	IPAddress string `json:"ipAddress" jsonld:"ipAddress" couchdb:"required,index" yaml:"ipAddress" validate:"required,ip"`

	// CPU is the number of CPU cores available
	CPU int `json:"cpu" jsonld:"processorCount" yaml:"cpu" validate:"gte=0"`

	// Memory is the total memory in bytes
	Memory int64 `json:"memory" jsonld:"memorySize" yaml:"memory" validate:"gte=0"`

	// Status is the host operational status
	Status string `json:"status" jsonld:"status" couchdb:"index" yaml:"status" validate:"omitempty,oneof=active inactive maintenance unreachable"`

	// Datacenter is the physical or logical location of the host
	Datacenter string `json:"location" jsonld:"location" couchdb:"index" yaml:"location"`
}
