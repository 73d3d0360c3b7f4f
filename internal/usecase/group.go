package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/yumetria/tsudoi/internal/config"
	"github.com/yumetria/tsudoi/internal/domain"
)

// GroupUsecase encodes who may invite whom into which role, and drives the
// invite → accept → membership transitions.
type GroupUsecase struct {
	groups   GroupRepository
	tokens   *TokenService
	mailer   Mailer
	signal   Signal
	auth     config.Auth
	frontend config.Frontend
}

func NewGroupUsecase(
	groups GroupRepository,
	tokens *TokenService,
	mailer Mailer,
	signal Signal,
	auth config.Auth,
	frontend config.Frontend,
) *GroupUsecase {
	return &GroupUsecase{
		groups:   groups,
		tokens:   tokens,
		mailer:   mailer,
		signal:   signal,
		auth:     auth,
		frontend: frontend,
	}
}

// Create persists a new group with the caller as its one owner.
func (uc *GroupUsecase) Create(ctx context.Context, identity domain.Identity, name string) (domain.Group, error) {
	group := domain.Group{
		ID:    uuid.NewString(),
		Name:  name,
		Owner: identity.User.Ref(),
	}
	if err := uc.groups.Create(ctx, group); err != nil {
		return domain.Group{}, errors.Wrap(err, "GroupUsecase.Create: create failed")
	}
	return group, nil
}

// Get returns the group, visible to its members only.
func (uc *GroupUsecase) Get(ctx context.Context, identity domain.Identity, groupID string) (domain.Group, error) {
	group, err := uc.groups.FindByID(ctx, groupID)
	if err != nil {
		return domain.Group{}, err
	}
	if group == nil {
		return domain.Group{}, domain.ErrGroupNotFound
	}
	if !group.Contains(identity.User.Email) {
		return domain.Group{}, domain.ErrNotInGroup
	}
	return *group, nil
}

// List returns every group the caller holds a role in.
func (uc *GroupUsecase) List(ctx context.Context, identity domain.Identity) ([]domain.Group, error) {
	return uc.groups.ListByUser(ctx, identity.User.Email)
}

type GroupInviteInput struct {
	GroupID string
	Email   string
	Role    domain.GroupRole
}

// Invite authorizes the caller against the role matrix, issues the
// role-specific invitation token and mails the action link. The HTTP
// response reports the mail as running, not delivered.
//
// Matrix: owners invite members and co-owners; co-owners invite members
// only; members and outsiders invite nobody; the owner role is never
// invitable.
func (uc *GroupUsecase) Invite(ctx context.Context, identity domain.Identity, input GroupInviteInput) error {
	group, err := uc.groups.FindByID(ctx, input.GroupID)
	if err != nil {
		return err
	}
	if group == nil {
		return domain.ErrGroupNotFound
	}

	inviterRole, ok := group.RoleOf(identity.User.Email)
	if !ok || inviterRole == domain.RoleMember {
		return domain.ErrNotAuthorized
	}

	if input.Role == domain.RoleOwner {
		return domain.ErrOwnerRoleUnique
	}

	// The invited address may not be registered yet; membership is keyed
	// by email, so an unregistered invitee can never already be in the
	// group. The invitation resolves once the account exists.
	if group.Contains(input.Email) {
		return domain.ErrAlreadyInGroup
	}

	subject := domain.SubjectGroupInviteMember
	ttl := uc.auth.GroupInviteMemberExpiry()
	if input.Role == domain.RoleCoOwner {
		if inviterRole == domain.RoleCoOwner {
			return domain.ErrNotAuthorized
		}
		subject = domain.SubjectGroupInviteCoOwner
		ttl = uc.auth.GroupInviteCoOwnerExpiry()
	}

	invitedEmail := input.Email
	claims := domain.Claims{
		Email:        identity.User.Email,
		Username:     identity.User.Username,
		GroupID:      &group.ID,
		InvitedEmail: &invitedEmail,
	}

	tokenString, err := uc.tokens.Issue(ctx, claims, subject, ttl)
	if err != nil {
		return err
	}

	link := uc.frontend.ActionLink(uc.frontend.InvitePath, tokenString)
	uc.sendMail("group-invite", func() error {
		return uc.mailer.SendGroupInvite(invitedEmail, group.Name, link)
	})

	return nil
}

// Join accepts a group invitation. The invitation identity and the
// separately authenticated current identity must name the same email; the
// token must be unconsumed. Membership grant and token consumption commit
// as one atomic unit.
func (uc *GroupUsecase) Join(ctx context.Context, current domain.Identity, invitation domain.Identity) (domain.Group, error) {
	if current.User.Email != invitation.User.Email {
		return domain.Group{}, domain.ErrInvitationMismatch
	}

	record, err := uc.tokens.Find(ctx, invitation.Token)
	if err != nil {
		return domain.Group{}, err
	}
	if record == nil {
		return domain.Group{}, domain.NotFoundError{Resource: "token"}
	}
	if record.Consumed() {
		return domain.Group{}, domain.ErrTokenAlreadyUsed
	}

	role, ok := record.Subject.InvitedRole()
	if !ok || record.Claims.GroupID == nil {
		return domain.Group{}, domain.ErrNotAnInvitation
	}

	group, err := uc.groups.Join(ctx, *record.Claims.GroupID, current.User.Ref(), role, record.Token)
	if err != nil {
		return domain.Group{}, err
	}

	uc.publish(ctx, group.ID, domain.EventGroupJoin, current.User.Email)
	return group, nil
}

// Leave removes the caller from whichever role they hold. The owner
// cannot leave; ownership is not transferable here.
func (uc *GroupUsecase) Leave(ctx context.Context, identity domain.Identity, groupID string) error {
	group, err := uc.groups.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return domain.ErrGroupNotFound
	}

	role, ok := group.RoleOf(identity.User.Email)
	if !ok {
		return domain.ErrNotInGroup
	}
	if role == domain.RoleOwner {
		return domain.ErrCannotKickOwner
	}

	if err := uc.groups.Remove(ctx, groupID, identity.User.Email); err != nil {
		return err
	}

	uc.publish(ctx, groupID, domain.EventGroupLeave, identity.User.Email)
	return nil
}

// Kick removes another member. Owners may remove anyone but themselves;
// co-owners may remove plain members only.
func (uc *GroupUsecase) Kick(ctx context.Context, identity domain.Identity, groupID string, targetEmail string) error {
	group, err := uc.groups.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return domain.ErrGroupNotFound
	}

	callerRole, ok := group.RoleOf(identity.User.Email)
	if !ok {
		return domain.ErrNotInGroup
	}
	if callerRole == domain.RoleMember {
		return domain.ErrNotAuthorized
	}

	targetRole, ok := group.RoleOf(targetEmail)
	if !ok {
		return domain.ErrNotInGroup
	}
	if targetRole == domain.RoleOwner {
		return domain.ErrCannotKickOwner
	}
	if targetRole == domain.RoleCoOwner && callerRole == domain.RoleCoOwner {
		return domain.ErrCoOwnerKickCoOwner
	}

	if err := uc.groups.Remove(ctx, groupID, targetEmail); err != nil {
		return err
	}

	uc.publish(ctx, groupID, domain.EventGroupKick, targetEmail)
	return nil
}

// publish is fire-and-forget: a realtime hiccup never fails the request.
func (uc *GroupUsecase) publish(ctx context.Context, groupID string, eventType string, email string) {
	if uc.signal == nil {
		return
	}
	event := domain.Event{Type: eventType, GroupID: groupID, Email: email}
	if err := uc.signal.Publish(ctx, "group:"+groupID, event); err != nil {
		slog.Error(
			"Failed to publish membership event",
			slog.String("error", err.Error()),
			slog.String("module", "signal"),
		)
	}
}

func (uc *GroupUsecase) sendMail(kind string, send func() error) {
	go func() {
		if err := send(); err != nil {
			slog.Error(
				"Failed to send mail",
				slog.String("error", err.Error()),
				slog.String("kind", kind),
				slog.String("module", "mail"),
			)
		}
	}()
}
