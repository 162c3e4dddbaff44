package models

// Group represents a set of members who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski trip").
	Name string

	// CreatedBy is the user who created the group.
	CreatedBy string

	// IsFriendGroup marks the hidden two-person group backing a direct friendship.
	// Friend balances are computed over these groups only.
	IsFriendGroup bool

	// IsDeleted marks a soft-deleted group. Deleted groups are skipped by every view.
	IsDeleted bool

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Membership roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership is a user's seat in a group. Members who leave stay on record as inactive
// so their historical expenses keep resolving.
type Membership struct {
	GroupID  string
	UserID   string
	Role     string
	IsActive bool
	JoinedAt int64
}
