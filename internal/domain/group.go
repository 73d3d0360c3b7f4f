package domain

// GroupRole is a member's standing inside a group.
type GroupRole string

const (
	RoleOwner   GroupRole = "OWNER"
	RoleCoOwner GroupRole = "CO_OWNER"
	RoleMember  GroupRole = "MEMBER"
)

// ParseGroupRole validates an inbound role string.
func ParseGroupRole(s string) (GroupRole, bool) {
	switch GroupRole(s) {
	case RoleOwner, RoleCoOwner, RoleMember:
		return GroupRole(s), true
	}
	return "", false
}

// Group is a named collection of users. Exactly one owner, assigned at
// creation; co-owners and members join via invitation.
type Group struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Owner    UserRef   `json:"owner"`
	CoOwners []UserRef `json:"co_owners"`
	Members  []UserRef `json:"members"`
}

// RoleOf returns the role held by email, if any.
func (g Group) RoleOf(email string) (GroupRole, bool) {
	if g.Owner.Email == email {
		return RoleOwner, true
	}
	for _, u := range g.CoOwners {
		if u.Email == email {
			return RoleCoOwner, true
		}
	}
	for _, u := range g.Members {
		if u.Email == email {
			return RoleMember, true
		}
	}
	return "", false
}

// Contains reports whether email holds any role in the group.
func (g Group) Contains(email string) bool {
	_, ok := g.RoleOf(email)
	return ok
}

// Event is published on the signal channel when membership changes.
type Event struct {
	Type    string `json:"type"`
	GroupID string `json:"group_id"`
	Email   string `json:"email"`
}
