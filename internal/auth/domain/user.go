package domain

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenUpdateFunc persists a refreshed Google token for a user.
type TokenUpdateFunc func(token *oauth2.Token) error

type User struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	Password     string    `json:"-"` // Never return password in JSON
	Name         string    `json:"name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Provider     string    `json:"provider"` // "email" or "google"
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"-"`
	HistoryID    uint64    `json:"-"` // Last processed Gmail history id
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GoogleConnected reports whether the user has Google credentials on file.
func (u *User) GoogleConnected() bool {
	return u.AccessToken != "" || u.RefreshToken != ""
}

type RefreshToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index"`
	ExpiresAt time.Time `json:"expires_at"`
}

type FCMToken struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index"`
	Token     string    `json:"token" gorm:"uniqueIndex"`
	Device    string    `json:"device,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
