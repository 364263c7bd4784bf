package types

import "github.com/google/uuid"

// Role mirrors the roles issued by the upstream auth layer. Authentication
// itself is out of scope for this service; requests arrive with a verified
// identity attached by the gateway.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

func (r Role) IsAdmin() bool {
	return r == RoleOwner || r == RoleAdmin
}

type User struct {
	ID    uuid.UUID
	Email string
	Role  Role
}
