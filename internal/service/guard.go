package service

import "task_manager/internal/models"

// Decision is the outcome of an access check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize allows admins and the resource owner; everyone else is denied.
func Authorize(caller models.Identity, ownerID string) Decision {
	switch caller.Role {
	case models.RoleAdmin:
		return Allow
	case models.RoleUser:
		if caller.UserID != "" && caller.UserID == ownerID {
			return Allow
		}
		return Deny
	default:
		return Deny
	}
}

func requireAccess(caller models.Identity, ownerID string) error {
	if Authorize(caller, ownerID) == Deny {
		return forbidden()
	}
	return nil
}

// listFilter scopes listings: admins see every task, users only their own.
func listFilter(caller models.Identity) models.TaskFilter {
	switch caller.Role {
	case models.RoleAdmin:
		return models.TaskFilter{}
	default:
		return models.TaskFilter{OwnerID: caller.UserID}
	}
}

func requireAdmin(caller models.Identity) error {
	if caller.Role != models.RoleAdmin {
		return forbidden()
	}
	return nil
}
