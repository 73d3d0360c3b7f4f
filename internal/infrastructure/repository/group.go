package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yumetria/tsudoi/internal/domain"
	"github.com/yumetria/tsudoi/internal/infrastructure/database/models"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Take(&group, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var members []models.GroupMember
	if err := r.db.WithContext(ctx).Where("group_id = ?", id).Find(&members).Error; err != nil {
		return nil, err
	}

	converted := toDomainGroup(group, members)
	return &converted, nil
}

func (r *GroupRepository) ListByUser(ctx context.Context, email string) ([]domain.Group, error) {
	var memberships []models.GroupMember
	err := r.db.WithContext(ctx).Where("email = ?", email).Find(&memberships).Error
	if err != nil {
		return nil, err
	}

	groups := []domain.Group{}
	for _, membership := range memberships {
		group, err := r.FindByID(ctx, membership.GroupID)
		if err != nil {
			return nil, err
		}
		if group != nil {
			groups = append(groups, *group)
		}
	}
	return groups, nil
}

// Create persists the group and its owner row in one transaction; a group
// without an owner can never be observed.
func (r *GroupRepository) Create(ctx context.Context, group domain.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := models.Group{
			ID:   group.ID,
			Name: group.Name,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		owner := models.GroupMember{
			GroupID:  group.ID,
			Email:    group.Owner.Email,
			Username: group.Owner.Username,
			Role:     string(domain.RoleOwner),
		}
		return tx.Create(&owner).Error
	})
}

// Join grants membership and consumes the invitation token in one
// transaction. Either both commit or neither does; the conditional token
// update decides the winner under concurrent redemption, and the
// do-nothing conflict clause keeps the grant idempotent per user.
func (r *GroupRepository) Join(ctx context.Context, groupID string, user domain.UserRef, role domain.GroupRole, tokenString string) (domain.Group, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := consumeToken(tx, tokenString, time.Now().UTC()); err != nil {
			return err
		}

		var group models.Group
		if err := tx.Take(&group, "id = ?", groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrGroupNotFound
			}
			return err
		}

		member := models.GroupMember{
			GroupID:  groupID,
			Email:    user.Email,
			Username: user.Username,
			Role:     string(role),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "email"}},
			DoNothing: true,
		}).Create(&member).Error
	})
	if err != nil {
		return domain.Group{}, err
	}

	group, err := r.FindByID(ctx, groupID)
	if err != nil {
		return domain.Group{}, err
	}
	if group == nil {
		return domain.Group{}, domain.ErrGroupNotFound
	}
	return *group, nil
}

func (r *GroupRepository) Remove(ctx context.Context, groupID string, email string) error {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND email = ?", groupID, email).
		Delete(&models.GroupMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotInGroup
	}
	return nil
}

func toDomainGroup(group models.Group, members []models.GroupMember) domain.Group {
	converted := domain.Group{
		ID:       group.ID,
		Name:     group.Name,
		CoOwners: []domain.UserRef{},
		Members:  []domain.UserRef{},
	}
	for _, member := range members {
		ref := domain.UserRef{Email: member.Email, Username: member.Username}
		switch domain.GroupRole(member.Role) {
		case domain.RoleOwner:
			converted.Owner = ref
		case domain.RoleCoOwner:
			converted.CoOwners = append(converted.CoOwners, ref)
		case domain.RoleMember:
			converted.Members = append(converted.Members, ref)
		}
	}
	return converted
}
