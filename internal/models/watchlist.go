package models

import "time"

// WatchlistItem is one symbol a user follows. The (user, symbol) pair is
// unique; symbols are stored upper-cased.
type WatchlistItem struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_watchlist_user_symbol" json:"user_id"`
	Symbol    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_watchlist_user_symbol" json:"symbol"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
