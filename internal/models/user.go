// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// AccountType distinguishes administrative accounts from regular users.
type AccountType string

const (
	AccountTypeUser  AccountType = "user"
	AccountTypeAdmin AccountType = "admin"
)

// User represents a registered account. A user owns at most one Person.
type User struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Email         string      `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password      string      `gorm:"not null" json:"-"`
	AccountType   AccountType `gorm:"type:varchar(10);not null;default:'user'" json:"account_type"`
	EmailVerified bool        `gorm:"not null;default:false" json:"email_verified"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// UserVerification holds the one-time code mailed to a new account.
type UserVerification struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Code      string    `gorm:"column:verification_code;uniqueIndex;size:64;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (UserVerification) TableName() string {
	return "user_verifications"
}
