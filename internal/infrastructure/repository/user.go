package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yumetria/tsudoi/internal/domain"
	"github.com/yumetria/tsudoi/internal/infrastructure/database/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Take(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	converted := toDomainUser(user)
	return &converted, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Take(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	converted := toDomainUser(user)
	return &converted, nil
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	record := models.User{
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Password:  user.Password,
		IsActive:  user.IsActive,
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

func (r *UserRepository) Update(ctx context.Context, email string, update domain.UserUpdate) (domain.User, error) {
	assignments := map[string]any{}
	if update.Email != nil {
		assignments["email"] = *update.Email
	}
	if update.Username != nil {
		assignments["username"] = *update.Username
	}
	if update.FirstName != nil {
		assignments["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		assignments["last_name"] = *update.LastName
	}

	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(assignments) > 0 {
			result := tx.Model(&models.User{}).Where("email = ?", email).Updates(assignments)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domain.ErrUserNotFound
			}
		}
		lookup := email
		if update.Email != nil {
			lookup = *update.Email
		}
		return tx.Take(&user, "email = ?", lookup).Error
	})
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(user), nil
}

func (r *UserRepository) Delete(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		result := tx.Where("email = ?", email).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

// Activate flips the flag and consumes the token as one transaction. The
// token mark is conditional on used_at being null so concurrent attempts
// cannot both succeed.
func (r *UserRepository) Activate(ctx context.Context, email string, tokenString string) (domain.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := consumeToken(tx, tokenString, time.Now().UTC()); err != nil {
			return err
		}
		result := tx.Model(&models.User{}).Where("email = ?", email).Update("is_active", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return tx.Take(&user, "email = ?", email).Error
	})
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(user), nil
}

// UpdatePassword stores the new credential and consumes the recovery token
// as one transaction.
func (r *UserRepository) UpdatePassword(ctx context.Context, email string, passwordHash string, tokenString string) (domain.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := consumeToken(tx, tokenString, time.Now().UTC()); err != nil {
			return err
		}
		result := tx.Model(&models.User{}).Where("email = ?", email).Update("password", passwordHash)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return tx.Take(&user, "email = ?", email).Error
	})
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(user), nil
}

func toDomainUser(user models.User) domain.User {
	return domain.User{
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Password:  user.Password,
		IsActive:  user.IsActive,
	}
}
