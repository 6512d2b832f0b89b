package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           uint64  `gorm:"primarykey" json:"id"`
	Username     string  `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash *string `gorm:"type:varchar(255)" json:"-"`
	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName     string  `gorm:"type:varchar(255);not null" json:"full_name"`
	Role         Role    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Avatar       string  `gorm:"type:varchar(512)" json:"avatar"`
	Address      string  `gorm:"type:varchar(512)" json:"address"`
	DarkMode     bool    `gorm:"not null;default:false" json:"dark_mode"`
	// GoogleID is set for accounts created or linked via Google OAuth.
	GoogleID  *string    `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`

	// Relations
	WatchlistItems []WatchlistItem `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Portfolios     []Portfolio     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
