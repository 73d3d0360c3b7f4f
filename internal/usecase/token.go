package usecase

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/yumetria/tsudoi/internal/domain"
	"github.com/yumetria/tsudoi/internal/token"
)

// TokenService mints signed, expiring, single-purpose tokens and durably
// records every one of them before handing it to the caller.
type TokenService struct {
	codec      *token.Codec
	repo       TokenRepository
	defaultTTL time.Duration
}

func NewTokenService(codec *token.Codec, repo TokenRepository, defaultTTL time.Duration) *TokenService {
	return &TokenService{
		codec:      codec,
		repo:       repo,
		defaultTTL: defaultTTL,
	}
}

// Issue signs claims under subject with the given ttl (the configured
// default when ttl is zero) and persists the record. A failed persist is
// fatal to the call: no token string leaves this function unrecorded.
func (s *TokenService) Issue(ctx context.Context, claims domain.Claims, subject domain.TokenSubject, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.defaultTTL
	}

	signed, issuedAt, expiresAt, err := s.codec.Issue(claims, subject, ttl)
	if err != nil {
		return "", errors.Wrap(err, "TokenService.Issue: signing failed")
	}

	record := domain.Token{
		Token:     signed,
		Subject:   subject,
		Claims:    claims,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return "", errors.Wrap(err, "TokenService.Issue: persisting token failed")
	}

	return signed, nil
}

// Find loads the stored record for a presented token string.
func (s *TokenService) Find(ctx context.Context, tokenString string) (*domain.Token, error) {
	return s.repo.Find(ctx, tokenString)
}

// Consume marks the token used, exactly once.
func (s *TokenService) Consume(ctx context.Context, tokenString string) error {
	return s.repo.Consume(ctx, tokenString, time.Now().UTC())
}
