package session

// Keys under which the identity is persisted. No other package writes them.
const (
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyRole     = "role"
)

// DefaultPrivilegedRoles are the roles allowed to create chatbots.
var DefaultPrivilegedRoles = []string{"creator", "admin"}

// Identity is the minimal user-session triple mirrored client-side.
// An empty UserID means logged out. Username and Role are display data only;
// the server remains the authority on what the user may do.
type Identity struct {
	// UserID is the backend's user identifier.
	UserID string `json:"userId"`

	// Username is the display name used at login.
	Username string `json:"username,omitempty"`

	// Role is the backend role ("user", "creator", "admin"), if the deployment has roles.
	Role string `json:"role,omitempty"`
}

// IsZero reports whether the identity is the logged-out value.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}
