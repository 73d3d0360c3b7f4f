package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yumetria/tsudoi/internal/domain"
	"github.com/yumetria/tsudoi/internal/infrastructure/database/models"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Save(ctx context.Context, token domain.Token) error {
	record := models.Token{
		Token:        token.Token,
		Subject:      string(token.Subject),
		Email:        token.Claims.Email,
		Username:     token.Claims.Username,
		GroupID:      token.Claims.GroupID,
		InvitedEmail: token.Claims.InvitedEmail,
		IssuedAt:     token.IssuedAt,
		ExpiresAt:    token.ExpiresAt,
		UsedAt:       token.UsedAt,
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

func (r *TokenRepository) Find(ctx context.Context, tokenString string) (*domain.Token, error) {
	var record models.Token
	err := r.db.WithContext(ctx).Take(&record, "token = ?", tokenString).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	converted := toDomainToken(record)
	return &converted, nil
}

func (r *TokenRepository) Consume(ctx context.Context, tokenString string, at time.Time) error {
	return consumeToken(r.db.WithContext(ctx), tokenString, at)
}

// consumeToken marks a token used with a conditional update: the guard on
// used_at makes concurrent redemptions race-free, exactly one wins.
func consumeToken(tx *gorm.DB, tokenString string, at time.Time) error {
	result := tx.Model(&models.Token{}).
		Where("token = ? AND used_at IS NULL", tokenString).
		Update("used_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTokenAlreadyUsed
	}
	return nil
}

func toDomainToken(record models.Token) domain.Token {
	return domain.Token{
		Token:   record.Token,
		Subject: domain.TokenSubject(record.Subject),
		Claims: domain.Claims{
			Email:        record.Email,
			Username:     record.Username,
			GroupID:      record.GroupID,
			InvitedEmail: record.InvitedEmail,
		},
		IssuedAt:  record.IssuedAt,
		ExpiresAt: record.ExpiresAt,
		UsedAt:    record.UsedAt,
	}
}
