package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/jmetso/tasklist/internal/model"
)

// ListRepository resolves the single todo list owned by a user account.
type ListRepository struct {
	db *gorm.DB
	// mu serializes list ID assignment so two concurrent creates cannot
	// pick the same max+1.
	mu sync.Mutex
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

// Lookup returns the ID of the list owned by username, or
// gorm.ErrRecordNotFound when the user has none (or does not exist).
func (r *ListRepository) Lookup(ctx context.Context, username string) (uint, error) {
	db := r.db.WithContext(ctx)

	var user model.UserAccount
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return 0, err
	}

	var list model.TodoList
	if err := db.Where("user_id = ?", user.ID).First(&list).Error; err != nil {
		return 0, err
	}
	return list.ID, nil
}

// ResolveOrCreate returns the user's list, creating it on first use.
func (r *ListRepository) ResolveOrCreate(ctx context.Context, username string) (uint, error) {
	id, err := r.Lookup(ctx, username)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.create(ctx, username)
	default:
		return 0, fmt.Errorf("lookup list: %w", err)
	}
}

func (r *ListRepository) create(ctx context.Context, username string) (uint, error) {
	db := r.db.WithContext(ctx)

	var user model.UserAccount
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID uint
	if err := db.Model(&model.TodoList{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return 0, fmt.Errorf("next list id: %w", err)
	}

	list := model.TodoList{ID: maxID + 1, UserID: user.ID}
	if err := db.Create(&list).Error; err != nil {
		return 0, fmt.Errorf("create list: %w", err)
	}
	return list.ID, nil
}
