package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jmetso/tasklist/internal/model"
)

// UserRepository handles lookups of user accounts. Accounts are
// provisioned out of band (seeded at startup or by an admin), so there
// is no self-registration path here.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.UserAccount, error) {
	var user model.UserAccount
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.UserAccount, error) {
	var users []model.UserAccount
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts a new account. Usernames are unique; a duplicate
// insert surfaces as a constraint error from the driver.
func (r *UserRepository) Create(ctx context.Context, user *model.UserAccount) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
