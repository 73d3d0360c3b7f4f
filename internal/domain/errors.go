package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// Concrete lookups callers branch on.
var (
	ErrUserNotFound  = NotFoundError{Resource: "user"}
	ErrGroupNotFound = NotFoundError{Resource: "group"}
)

// Request-scoped rejections. All of these surface to the caller as a
// structured refusal, never as a crash, and none are retried here.
var (
	ErrMissingCredential  = errors.New("no credential presented")
	ErrInvalidCredential  = errors.New("could not validate credential")
	ErrExpired            = errors.New("token has expired")
	ErrTokenAlreadyUsed   = errors.New("token already used")
	ErrNotAnInvitation    = errors.New("this is not an invitation token")
	ErrInvitationMismatch = errors.New("this user was not invited")
	ErrNotAuthorized      = errors.New("user is not allowed to do this")
	ErrAlreadyInGroup     = errors.New("user already in group")
	ErrNotInGroup         = errors.New("user is not in the group")
	ErrOwnerRoleUnique    = errors.New("owner role is unique")
	ErrCannotKickOwner    = errors.New("owner of the group can't be removed")
	ErrCoOwnerKickCoOwner = errors.New("co-owner is not allowed to kick another co-owner")
	ErrUserAlreadyExists  = errors.New("this user already exists")
	ErrInvalidActivation  = errors.New("invalid activation token")
	ErrInvalidRecovery    = errors.New("invalid recovery token")
	ErrWrongPassword      = errors.New("wrong email or password")
)
