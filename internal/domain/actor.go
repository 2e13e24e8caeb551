package domain

// Application roles. Credentials and token issuance live with the external
// authentication collaborator; the core only branches on role and identity.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// IsAdmin reports whether the actor holds the elevated moderation role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActorTokenVerifier verifies an externally-issued bearer token and returns
// the actor it identifies.
type ActorTokenVerifier interface {
	Verify(token string) (Actor, error)
}
