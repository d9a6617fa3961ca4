package domain

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

// User holds the display fields attached to outgoing messages.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      Role   `json:"role"`
}

// Identity is what a verified bearer token says about a connection.
type Identity struct {
	UserID   string
	Role     Role
	Username string
}

// IsSystem reports whether the identity has no persisted user behind it.
// Admin tokens are issued for the back-office and are never participants.
func (i Identity) IsSystem() bool {
	return i.Role == RoleAdmin
}

// CanManage reports whether the identity may provision class conversations.
func (i Identity) CanManage() bool {
	return i.Role == RoleAdmin || i.Role == RoleTeacher
}
