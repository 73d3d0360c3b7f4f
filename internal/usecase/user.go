package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/mssola/useragent"
	"github.com/pkg/errors"

	"github.com/yumetria/tsudoi/internal/config"
	"github.com/yumetria/tsudoi/internal/domain"
	"github.com/yumetria/tsudoi/internal/password"
)

// Recovery tokens always live exactly 24 hours, independent of the
// configured expiries.
const recoveryTokenTTL = 24 * time.Hour

// UserUsecase drives account onboarding, activation, recovery and the
// non-group invitation flow.
type UserUsecase struct {
	users    UserRepository
	tokens   *TokenService
	mailer   Mailer
	auth     config.Auth
	frontend config.Frontend
}

func NewUserUsecase(
	users UserRepository,
	tokens *TokenService,
	mailer Mailer,
	auth config.Auth,
	frontend config.Frontend,
) *UserUsecase {
	return &UserUsecase{
		users:    users,
		tokens:   tokens,
		mailer:   mailer,
		auth:     auth,
		frontend: frontend,
	}
}

type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// Register creates a fresh, inactive account and starts the activation
// flow: an ACTIVATE token is issued and mailed as an action link.
func (uc *UserUsecase) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	if err := uc.checkAvailability(ctx, &input.Email, &input.Username); err != nil {
		return domain.User{}, err
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		Email:     input.Email,
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  hash,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return domain.User{}, errors.Wrap(err, "UserUsecase.Register: create failed")
	}

	activation, err := uc.tokens.Issue(ctx,
		domain.Claims{Email: user.Email, Username: user.Username},
		domain.SubjectActivate,
		uc.auth.ActivationExpiry(),
	)
	if err != nil {
		return domain.User{}, err
	}

	link := uc.frontend.ActionLink(uc.frontend.ActivationPath, activation)
	uc.sendMail("activation", func() error {
		return uc.mailer.SendActivation(user.Email, link)
	})

	return user, nil
}

// Login checks the password and issues a fresh authorization token. Both
// unknown email and wrong password collapse into the same rejection.
func (uc *UserUsecase) Login(ctx context.Context, email string, plain string) (domain.User, string, error) {
	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, "", errors.Wrap(err, "UserUsecase.Login: lookup failed")
	}
	if user == nil {
		return domain.User{}, "", domain.ErrWrongPassword
	}

	ok, err := password.Verify(plain, user.Password)
	if err != nil || !ok {
		return domain.User{}, "", domain.ErrWrongPassword
	}

	access, err := uc.tokens.Issue(ctx,
		domain.Claims{Email: user.Email, Username: user.Username},
		domain.SubjectAccess,
		uc.auth.AccessExpiry(),
	)
	if err != nil {
		return domain.User{}, "", err
	}

	return *user, access, nil
}

// Update changes profile fields after re-checking email/username
// uniqueness. Fields equal to the current value are treated as unset.
func (uc *UserUsecase) Update(ctx context.Context, identity domain.Identity, update domain.UserUpdate) (domain.User, error) {
	if update.Email != nil && *update.Email == identity.User.Email {
		update.Email = nil
	}
	if update.Username != nil && *update.Username == identity.User.Username {
		update.Username = nil
	}

	if err := uc.checkAvailability(ctx, update.Email, update.Username); err != nil {
		return domain.User{}, err
	}

	user, err := uc.users.Update(ctx, identity.User.Email, update)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "UserUsecase.Update: update failed")
	}
	return user, nil
}

// Activate redeems the bound ACTIVATE token and flips the activation flag.
// Flag flip and token consumption happen in one transactional scope.
func (uc *UserUsecase) Activate(ctx context.Context, identity domain.Identity) (domain.User, error) {
	record, err := uc.tokens.Find(ctx, identity.Token)
	if err != nil {
		return domain.User{}, err
	}
	if record == nil {
		return domain.User{}, domain.NotFoundError{Resource: "token"}
	}
	if record.Subject != domain.SubjectActivate {
		return domain.User{}, domain.ErrInvalidActivation
	}
	if record.Consumed() {
		return domain.User{}, domain.ErrTokenAlreadyUsed
	}

	return uc.users.Activate(ctx, identity.User.Email, record.Token)
}

// Recover issues a RECOVER token for a matching email+username pair and
// mails the action link, annotated with the requester's OS and browser.
// The annotation is informational only.
func (uc *UserUsecase) Recover(ctx context.Context, email string, username string, userAgent string) error {
	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return errors.Wrap(err, "UserUsecase.Recover: lookup failed")
	}
	if user == nil || user.Username != username {
		return domain.ErrUserNotFound
	}

	recovery, err := uc.tokens.Issue(ctx,
		domain.Claims{Email: user.Email, Username: user.Username},
		domain.SubjectRecover,
		recoveryTokenTTL,
	)
	if err != nil {
		return err
	}

	ua := useragent.New(userAgent)
	osName := ua.OSInfo().Name
	browser, _ := ua.Browser()

	link := uc.frontend.ActionLink(uc.frontend.RecoveryPath, recovery)
	uc.sendMail("recovery", func() error {
		return uc.mailer.SendRecovery(user.Email, link, osName, browser)
	})

	return nil
}

// ChangePassword redeems the bound RECOVER token and stores the new
// credential. Credential update and token consumption happen in one
// transactional scope.
func (uc *UserUsecase) ChangePassword(ctx context.Context, identity domain.Identity, plain string) (domain.User, error) {
	record, err := uc.tokens.Find(ctx, identity.Token)
	if err != nil {
		return domain.User{}, err
	}
	if record == nil {
		return domain.User{}, domain.NotFoundError{Resource: "token"}
	}
	if record.Subject != domain.SubjectRecover {
		return domain.User{}, domain.ErrInvalidRecovery
	}
	if record.Consumed() {
		return domain.User{}, domain.ErrTokenAlreadyUsed
	}

	hash, err := password.Hash(plain)
	if err != nil {
		return domain.User{}, err
	}

	return uc.users.UpdatePassword(ctx, identity.User.Email, hash, record.Token)
}

// Invite issues a USER_INVITE token bound to the inviter plus the invited
// email and mails the action link. The invited address must not belong to
// an existing account.
func (uc *UserUsecase) Invite(ctx context.Context, identity domain.Identity, invitedEmail string) error {
	existing, err := uc.users.FindByEmail(ctx, invitedEmail)
	if err != nil {
		return errors.Wrap(err, "UserUsecase.Invite: lookup failed")
	}
	if existing != nil {
		return domain.ErrUserAlreadyExists
	}

	invite, err := uc.tokens.Issue(ctx,
		domain.Claims{
			Email:        identity.User.Email,
			Username:     identity.User.Username,
			InvitedEmail: &invitedEmail,
		},
		domain.SubjectUserInvite,
		uc.auth.UserInviteExpiry(),
	)
	if err != nil {
		return err
	}

	link := uc.frontend.ActionLink(uc.frontend.InvitePath, invite)
	uc.sendMail("user-invite", func() error {
		return uc.mailer.SendUserInvite(invitedEmail, identity.User.Username, link)
	})

	return nil
}

// AcceptInvitation redeems a USER_INVITE token presented by its invited
// user. The accepting account's email must match the invited-email claim,
// not the inviter.
func (uc *UserUsecase) AcceptInvitation(ctx context.Context, current domain.Identity, invitation domain.Identity) (domain.User, error) {
	record, err := uc.tokens.Find(ctx, invitation.Token)
	if err != nil {
		return domain.User{}, err
	}
	if record == nil {
		return domain.User{}, domain.NotFoundError{Resource: "token"}
	}
	if record.Consumed() {
		return domain.User{}, domain.ErrTokenAlreadyUsed
	}
	if record.Claims.InvitedEmail == nil || current.User.Email != *record.Claims.InvitedEmail {
		return domain.User{}, domain.ErrInvitationMismatch
	}

	if err := uc.tokens.Consume(ctx, record.Token); err != nil {
		return domain.User{}, err
	}

	return current.User, nil
}

// Delete removes the account.
func (uc *UserUsecase) Delete(ctx context.Context, identity domain.Identity) error {
	return uc.users.Delete(ctx, identity.User.Email)
}

func (uc *UserUsecase) checkAvailability(ctx context.Context, email *string, username *string) error {
	if email != nil {
		existing, err := uc.users.FindByEmail(ctx, *email)
		if err != nil {
			return errors.Wrap(err, "availability check failed")
		}
		if existing != nil {
			return domain.ErrUserAlreadyExists
		}
	}
	if username != nil {
		existing, err := uc.users.FindByUsername(ctx, *username)
		if err != nil {
			return errors.Wrap(err, "availability check failed")
		}
		if existing != nil {
			return domain.ErrUserAlreadyExists
		}
	}
	return nil
}

func (uc *UserUsecase) sendMail(kind string, send func() error) {
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
