package models

// Container is a workload scheduled on a host (Schema.org SoftwareApplication).
// HostedOn and DependsOn hold the ids of the host and of the containers it
// needs; both are resolved into relationships when served.
type Container struct {
	Context   string            `json:"@context" jsonld:"@context" yaml:"context,omitempty"`
	Type      string            `json:"@type" jsonld:"@type" yaml:"type,omitempty" validate:"omitempty,oneof=SoftwareApplication Container"`
	ID        string            `json:"@id" jsonld:"@id" couchdb:"_id" yaml:"id" validate:"required"`
	Rev       string            `json:"_rev,omitempty" couchdb:"_rev" yaml:"-"`
	Name      string            `json:"name" jsonld:"name" couchdb:"required,index" yaml:"name" validate:"required"`
	Image     string            `json:"executableName" jsonld:"executableName" couchdb:"required" yaml:"image" validate:"required"`
	Status    string            `json:"status" jsonld:"status" couchdb:"index" yaml:"status" validate:"omitempty,oneof=running stopped paused restarting exited created"`
	HostedOn  string            `json:"hostedOn" jsonld:"hostedOn" couchdb:"relation,index" yaml:"hostedOn" validate:"required"`
	DependsOn []string          `json:"dependsOn,omitempty" jsonld:"softwareRequirements" couchdb:"relation" yaml:"dependsOn,omitempty"`
	Ports     []Port            `json:"ports,omitempty" jsonld:"ports" yaml:"ports,omitempty" validate:"dive"`
	Env       map[string]string `json:"environment,omitempty" jsonld:"environment" yaml:"environment,omitempty"`
	Created   string            `json:"dateCreated,omitempty" jsonld:"dateCreated" yaml:"dateCreated,omitempty"`
}

type Port struct {
	HostPort      int    `json:"hostPort" jsonld:"hostPort" yaml:"hostPort" validate:"gte=0,lte=65535"`
	ContainerPort int    `json:"containerPort" jsonld:"containerPort" yaml:"containerPort" validate:"gte=0,lte=65535"`
	Protocol      string `json:"protocol" jsonld:"protocol" yaml:"protocol" validate:"omitempty,oneof=tcp udp sctp TCP UDP SCTP"`
}
