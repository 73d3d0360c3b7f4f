package usecase

import (
	"context"
	"time"

	"github.com/yumetria/tsudoi/internal/domain"
)

// UserRepository defines persistence/lookup for users. Find* return nil
// without error when no record matches, so existence checks are a plain
// branch rather than an error comparison.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user domain.User) error
	Update(ctx context.Context, email string, update domain.UserUpdate) (domain.User, error)
	Delete(ctx context.Context, email string) error

	// Activate flips the activation flag and consumes the token in one
	// transactional scope. Returns ErrTokenAlreadyUsed when the token was
	// consumed by a concurrent redemption.
	Activate(ctx context.Context, email string, tokenString string) (domain.User, error)

	// UpdatePassword stores the new credential and consumes the recovery
	// token in one transactional scope.
	UpdatePassword(ctx context.Context, email string, passwordHash string, tokenString string) (domain.User, error)
}

// GroupRepository defines persistence/lookup for groups.
type GroupRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Group, error)
	ListByUser(ctx context.Context, email string) ([]domain.Group, error)

	// Create persists the group and its owner membership in one
	// transactional scope.
	Create(ctx context.Context, group domain.Group) error

	// Join adds user to the group in the given role and consumes the
	// invitation token. Both happen in one transactional scope; a token
	// already consumed by a concurrent join yields ErrTokenAlreadyUsed
	// and no membership change.
	Join(ctx context.Context, groupID string, user domain.UserRef, role domain.GroupRole, tokenString string) (domain.Group, error)

	Remove(ctx context.Context, groupID string, email string) error
}

// TokenRepository persists issued tokens and their one-time-use status.
type TokenRepository interface {
	Save(ctx context.Context, token domain.Token) error
	Find(ctx context.Context, tokenString string) (*domain.Token, error)

	// Consume marks the token used. The mark is conditional on the token
	// being unused, so concurrent redemption attempts race safely: exactly
	// one wins, the rest get ErrTokenAlreadyUsed.
	Consume(ctx context.Context, tokenString string, at time.Time) error
}

// Mailer sends outbound mail. Calls are made from background goroutines;
// failures are logged by the caller, never surfaced to the request.
type Mailer interface {
	SendActivation(to string, actionLink string) error
	SendRecovery(to string, actionLink string, os string, browser string) error
	SendGroupInvite(to string, groupName string, actionLink string) error
	SendUserInvite(to string, inviterUsername string, actionLink string) error
}

// Signal publishes membership events for realtime consumers.
type Signal interface {
	Publish(ctx context.Context, channel string, event domain.Event) error
}
