package service

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/yumetria/tsudoi/internal/domain"
	"github.com/yumetria/tsudoi/internal/token"
	"github.com/yumetria/tsudoi/internal/usecase"
)

var tracer = otel.Tracer("auth")

// AuthService is the credential verifier: it decides whether a presented
// token string is currently valid and resolves it to the identity it
// authorizes.
type AuthService struct {
	codec  *token.Codec
	users  usecase.UserRepository
	prefix string
	cache  *cache.Cache
}

func NewAuthService(codec *token.Codec, users usecase.UserRepository, prefix string) *AuthService {
	return &AuthService{
		codec:  codec,
		users:  users,
		prefix: prefix,
		cache:  cache.New(30*time.Second, time.Minute),
	}
}

// ExtractToken picks the token out of the first populated presentation
// channel (authorization, activation, recovery — in that order). Each
// channel carries "<prefix> <token>"; a mismatched prefix is an invalid
// credential, no channel at all is a missing one.
func (s *AuthService) ExtractToken(authorization, activation, recovery string) (string, error) {
	for _, header := range []string{authorization, activation, recovery} {
		if header == "" {
			continue
		}
		return s.stripPrefix(header)
	}
	return "", domain.ErrMissingCredential
}

// ExtractInvitation picks the token out of the invitation channel.
func (s *AuthService) ExtractInvitation(invitation string) (string, error) {
	if invitation == "" {
		return "", domain.ErrMissingCredential
	}
	return s.stripPrefix(invitation)
}

func (s *AuthService) stripPrefix(header string) (string, error) {
	split := strings.Split(header, " ")
	if len(split) != 2 {
		return "", domain.ErrInvalidCredential
	}
	scheme, tok := split[0], split[1]
	if scheme != s.prefix {
		return "", domain.ErrInvalidCredential
	}
	return tok, nil
}

// Verify checks signature and expiry and returns the decoded claims and
// subject. No store access: validity is self-contained in the token.
func (s *AuthService) Verify(tokenString string) (domain.Claims, domain.TokenSubject, error) {
	return s.codec.Verify(tokenString)
}

// ResolveCurrentUser verifies the token and binds it to the user the claim
// email names.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, tokenString string) (domain.Identity, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.ResolveCurrentUser")
	defer span.End()

	claims, _, err := s.codec.Verify(tokenString)
	if err != nil {
		span.RecordError(err)
		return domain.Identity{}, err
	}

	user, err := s.lookup(ctx, claims.Email)
	if err != nil {
		span.RecordError(err)
		return domain.Identity{}, err
	}

	return domain.Identity{User: *user, Token: tokenString}, nil
}

// ResolveInvitation verifies the token, requires an invitation subject,
// and binds it to the *invited* user rather than the inviter.
func (s *AuthService) ResolveInvitation(ctx context.Context, tokenString string) (domain.Identity, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.ResolveInvitation")
	defer span.End()

	claims, subject, err := s.codec.Verify(tokenString)
	if err != nil {
		span.RecordError(err)
		return domain.Identity{}, err
	}

	if !subject.IsInvitation() {
		span.RecordError(domain.ErrNotAnInvitation)
		return domain.Identity{}, domain.ErrNotAnInvitation
	}

	if claims.InvitedEmail == nil {
		return domain.Identity{}, domain.ErrInvalidCredential
	}

	user, err := s.lookup(ctx, *claims.InvitedEmail)
	if err != nil {
		span.RecordError(err)
		return domain.Identity{}, err
	}

	return domain.Identity{User: *user, Token: tokenString}, nil
}

// Invalidate drops a cached user after a mutating flow so the next
// resolution sees the stored record.
func (s *AuthService) Invalidate(email string) {
	s.cache.Delete(email)
}

func (s *AuthService) lookup(ctx context.Context, email string) (*domain.User, error) {
	if cached, found := s.cache.Get(email); found {
		user := cached.(domain.User)
		return &user, nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "AuthService: user lookup failed")
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	s.cache.Set(email, *user, cache.DefaultExpiration)
	return user, nil
}
