// Package auth describes who is calling. Issuing and verifying credentials happens
// outside this service; see httpx.Authenticator for how requests are mapped to an Actor.
package auth

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	// RoleSystem is used for gateway callbacks and CLI jobs.
	RoleSystem Role = "system"
)

type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// System is the actor used by internal callers.
var System = Actor{ID: "system", Role: RoleSystem}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin || a.Role == RoleSystem }

// CanAccess reports whether the actor may see or act on something owned by ownerID.
func (a Actor) CanAccess(ownerID string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.ID != "" && a.ID == ownerID
}
