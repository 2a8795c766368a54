package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Bio       string `gorm:"type:text" json:"bio"`
	Role      string `gorm:"size:10;default:'user';not null" json:"role"` // user | moderator | admin
	// IsStaff is the platform-level flag, orthogonal to Role but
	// admin-equivalent for every permission check.
	IsStaff bool `gorm:"default:false;not null" json:"-"`
	// ConfirmationCodeHash stores a bcrypt hash of the confirmation code
	// issued at creation. The plaintext code leaves the system only via
	// email and is never persisted.
	ConfirmationCodeHash string    `gorm:"not null" json:"-"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// BeforeCreate sets a UUID primary key when none was assigned.
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (User) TableName() string {
	return "users"
}
