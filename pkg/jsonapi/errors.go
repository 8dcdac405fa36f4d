package jsonapi

import "errors"

var (
	// ErrNilEntity is returned when a nil entity is handed to the serializer.
	ErrNilEntity = errors.New("jsonapi: nil entity")

	// ErrMissingIdentity is returned for entities without a type name or identifier.
	ErrMissingIdentity = errors.New("jsonapi: entity has no type name or identifier")

	// ErrInvalidRoot is returned when the document root is neither an
	// Entity, a []Entity nor a Collection.
	ErrInvalidRoot = errors.New("jsonapi: unsupported document root")

	// ErrUnknownAssociation is returned when a named association does not exist.
	ErrUnknownAssociation = errors.New("jsonapi: unknown association")
)
