package finance

import "github.com/google/uuid"

// Role is the caller's application role
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleFinance        Role = "finance"
	RoleTeamMember     Role = "team_member"
)

// IsValid checks if the role is a valid Role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleFinance, RoleTeamMember:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// CanApproveRequests reports whether the role may approve or reject
// document requests and see every request
func (r Role) CanApproveRequests() bool {
	return r == RoleAdmin || r == RoleProjectManager
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     Role
}

// IsApprover reports whether the actor holds an approver role
func (a Actor) IsApprover() bool {
	return a.Role.CanApproveRequests()
}
