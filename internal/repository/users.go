package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/accounts"
	"storefront/internal/models"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns the postgres-backed account repository.
func NewUserRepository(db *gorm.DB) accounts.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Preload("Permissions").Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, accounts.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindUser(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) FindUserByToken(ctx context.Context, token string) (*models.User, error) {
	return r.first(ctx, "token = ?", token)
}

func (r *userRepository) CreateUser(ctx context.Context, u *models.User) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return accounts.ErrEmailTaken
	}
	return err
}

func (r *userRepository) SaveUser(ctx context.Context, u *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"phone":        u.Phone,
		"avatar":       u.Avatar,
		"country":      u.Country,
		"token":        u.Token,
		"is_active":    u.IsActive,
		"is_staff":     u.IsStaff,
		"is_superuser": u.IsSuperuser,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return accounts.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) GrantPermissions(ctx context.Context, userID uint, codenames ...string) error {
	var perms []models.Permission
	if err := r.db.WithContext(ctx).Where("codename IN ?", codenames).Find(&perms).Error; err != nil {
		return err
	}
	if len(perms) != len(codenames) {
		return fmt.Errorf("grant permissions: %d of %d codenames are unknown", len(codenames)-len(perms), len(codenames))
	}
	u := models.User{Base: models.Base{ID: userID}}
	return r.db.WithContext(ctx).Model(&u).Association("Permissions").Append(perms)
}

func (r *userRepository) DeleteUser(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return accounts.ErrUserNotFound
	}
	return nil
}
