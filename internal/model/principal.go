package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleHandler  UserRole = "complaints_handler"
	UserRoleManager  UserRole = "complaints_manager"
	UserRoleReviewer UserRole = "reviewer"
	UserRoleReadOnly UserRole = "read_only"
)

// Principal is the acting user supplied by the identity collaborator for
// every call. The service never authenticates; it only applies role guards.
type Principal struct {
	UserID   uuid.UUID
	FullName string
	Role     UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsHandler() bool {
	return p.Role == UserRoleHandler
}

func (p Principal) IsManager() bool {
	return p.Role == UserRoleManager
}

func (p Principal) IsReviewer() bool {
	return p.Role == UserRoleReviewer
}

// CanWrite reports whether the principal may invoke mutating transitions.
func (p Principal) CanWrite() bool {
	switch p.Role {
	case UserRoleAdmin, UserRoleHandler, UserRoleManager, UserRoleReviewer:
		return true
	}
	return false
}

// CanAssignOthers reports whether the principal may assign a handler other
// than themselves.
func (p Principal) CanAssignOthers() bool {
	switch p.Role {
	case UserRoleAdmin, UserRoleReviewer, UserRoleManager:
		return true
	}
	return false
}
