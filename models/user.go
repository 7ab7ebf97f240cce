// File: /models/user.go
package models

import (
	"time"
)

// Account holds sign-in credentials. It plays the role of the auth platform's user record.
type Account struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string    `json:"-" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the users collection record keyed by user id.
type Profile struct {
	UserID          string    `json:"-" gorm:"primaryKey;size:191"`
	Username        string    `json:"username" gorm:"not null;size:255"`
	Bio             string    `json:"bio" gorm:"type:text;not null"`
	ProfileImageURL string    `json:"profileImageUrl" gorm:"not null;size:1024"`
	UpdatedAt       time.Time `json:"-"`
}

func (Profile) TableName() string {
	return "users"
}

// Session identifies the authenticated caller of an operation.
type Session struct {
	UserID string
	Email  string
}

// Valid reports whether the session carries a user id.
func (s Session) Valid() bool {
	return s.UserID != ""
}
