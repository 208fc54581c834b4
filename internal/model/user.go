package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Role names understood by the API layer.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
	RoleView  = "VIEW"
)

// RoleList stores the role names of an account as comma-separated text.
type RoleList []string

func (r RoleList) Value() (driver.Value, error) {
	return strings.Join(r, ","), nil
}

func (r *RoleList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case string:
		if v == "" {
			*r = nil
			return nil
		}
		*r = strings.Split(v, ",")
		return nil
	case []byte:
		return r.Scan(string(v))
	default:
		return fmt.Errorf("model: cannot scan %T into RoleList", src)
	}
}

// UserAccount is an authenticated principal. Password holds a bcrypt
// hash, never the cleartext. Email may be empty, in which case the
// notification sweep skips the account.
type UserAccount struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Username  string   `gorm:"uniqueIndex" json:"username"`
	Password  string   `json:"-"`
	Roles     RoleList `gorm:"type:text" json:"roles"`
	Email     string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// HasAnyRole reports whether the account holds at least one of the
// given roles.
func (u *UserAccount) HasAnyRole(roles ...string) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// TodoList ties a user account to its single task list. List IDs are
// assigned by the repository, monotonically after the current maximum.
type TodoList struct {
	ID        uint `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint `gorm:"uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
