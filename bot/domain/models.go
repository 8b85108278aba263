package domain

// Role controls file visibility and menu layout. Unknown roles are kept verbatim.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// ActivationCode grants an organization/role pair once.
type ActivationCode struct {
	Organization string `json:"org"`
	Role         Role   `json:"role"`
	Used         bool   `json:"used"`
}

// User is a registered bot user keyed by messenger user id.
type User struct {
	UserID       int64  `json:"user_id"`
	DisplayName  string `json:"name"`
	Organization string `json:"org"`
	Role         Role   `json:"role"`
}

// Guide is static help text shown to everyone.
type Guide struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// File is a link scoped to an organization. A nil Role means every role
// inside the organization can see it.
type File struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Organization string `json:"org"`
	Role         *Role  `json:"role"`
}

// VisibleTo reports whether u may see the file.
func (f File) VisibleTo(u User) bool {
	if f.Organization != u.Organization {
		return false
	}
	return f.Role == nil || *f.Role == u.Role
}

// NextIDs holds the identifier counters. Values are never reused.
type NextIDs struct {
	Guide int64 `json:"guide"`
	File  int64 `json:"file"`
}
