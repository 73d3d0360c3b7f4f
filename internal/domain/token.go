package domain

import (
	"fmt"
	"time"
)

// TokenSubject declares the purpose of an issued token. A token can only be
// consumed by the workflow its subject names.
type TokenSubject string

const (
	SubjectAccess             TokenSubject = "ACCESS"
	SubjectActivate           TokenSubject = "ACTIVATE"
	SubjectRecover            TokenSubject = "RECOVER"
	SubjectUserInvite         TokenSubject = "USER_INVITE"
	SubjectGroupInviteMember  TokenSubject = "GROUP_INVITE_MEMBER"
	SubjectGroupInviteCoOwner TokenSubject = "GROUP_INVITE_CO_OWNER"
)

// IsInvitation reports whether the subject belongs to the invitation family.
func (s TokenSubject) IsInvitation() bool {
	switch s {
	case SubjectUserInvite, SubjectGroupInviteMember, SubjectGroupInviteCoOwner:
		return true
	}
	return false
}

// IsGroupInvitation reports whether the subject invites into a group.
func (s TokenSubject) IsGroupInvitation() bool {
	return s == SubjectGroupInviteMember || s == SubjectGroupInviteCoOwner
}

// InvitedRole maps a group invitation subject to the role it grants.
func (s TokenSubject) InvitedRole() (GroupRole, bool) {
	switch s {
	case SubjectGroupInviteMember:
		return RoleMember, true
	case SubjectGroupInviteCoOwner:
		return RoleCoOwner, true
	}
	return "", false
}

// Claims is the structured payload embedded in a token.
type Claims struct {
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	GroupID      *string `json:"group_id,omitempty"`
	InvitedEmail *string `json:"invited_email,omitempty"`
}

// ValidateFor checks that the claim set carries the fields its subject
// requires. Rejecting at decode time keeps downstream workflows from
// trusting a generic payload.
func (c Claims) ValidateFor(subject TokenSubject) error {
	if c.Email == "" {
		return fmt.Errorf("claims missing email")
	}
	switch subject {
	case SubjectGroupInviteMember, SubjectGroupInviteCoOwner:
		if c.GroupID == nil || *c.GroupID == "" {
			return fmt.Errorf("group invitation claims missing group id")
		}
		if c.InvitedEmail == nil || *c.InvitedEmail == "" {
			return fmt.Errorf("group invitation claims missing invited email")
		}
	case SubjectUserInvite:
		if c.InvitedEmail == nil || *c.InvitedEmail == "" {
			return fmt.Errorf("user invitation claims missing invited email")
		}
	}
	return nil
}

// Token is the persisted record of one issued credential.
type Token struct {
	Token     string
	Subject   TokenSubject
	Claims    Claims
	IssuedAt  time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// Consumed reports whether the token has already been redeemed.
func (t Token) Consumed() bool {
	return t.UsedAt != nil
}
