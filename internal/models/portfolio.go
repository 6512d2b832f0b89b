package models

import "time"

type Portfolio struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	UserID      uint64    `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	User      User       `gorm:"foreignKey:UserID" json:"-"`
	Positions []Position `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"positions,omitempty"`
}

// Position is a purchased-share record inside a portfolio.
type Position struct {
	ID            uint64    `gorm:"primarykey" json:"id"`
	PortfolioID   uint64    `gorm:"not null;index" json:"portfolio_id"`
	Symbol        string    `gorm:"type:varchar(10);not null" json:"symbol"`
	Shares        float64   `gorm:"not null" json:"shares"`
	PurchasePrice float64   `gorm:"not null" json:"purchase_price"`
	PurchaseDate  time.Time `gorm:"not null" json:"purchase_date"`
	Notes         string    `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time `json:"created_at"`

	Portfolio Portfolio `gorm:"foreignKey:PortfolioID" json:"-"`
}
