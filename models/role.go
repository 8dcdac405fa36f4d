// Roles are shared with eve.evalgo.org/auth so tokens issued by other
// evalgo services are understood here.
package models

import (
	"eve.evalgo.org/auth"
)

// Role is a string alias for role names.
type Role = string

// Re-export role constants
const (
	// RoleAdmin may read and write everything
	RoleAdmin = auth.RoleAdmin
	// RoleUser may read and write resources
	RoleUser = auth.RoleUser
	// RoleViewer may only read
	RoleViewer = auth.RoleViewer
)
