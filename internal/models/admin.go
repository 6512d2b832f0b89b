package models

import "time"

// AppSetting is an admin-managed key/value configuration row.
type AppSetting struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Key       string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedBy uint64    `gorm:"not null" json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RestrictedStock blocks a symbol from being added to any watchlist.
type RestrictedStock struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Symbol    string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"symbol"`
	Reason    string    `gorm:"type:text" json:"reason"`
	AddedBy   uint64    `gorm:"not null" json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// FeaturedStock is a symbol promoted for a bounded display window.
// It counts as currently featured while EndDate is null or in the future.
type FeaturedStock struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	Symbol      string     `gorm:"type:varchar(10);not null;index" json:"symbol"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	StartDate   time.Time  `gorm:"not null" json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CreatedBy   uint64     `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// APILog is an append-only record of one outbound market-data call.
type APILog struct {
	ID             uint64    `gorm:"primarykey" json:"id"`
	UserID         *uint64   `gorm:"index" json:"user_id"`
	Endpoint       string    `gorm:"type:varchar(100);not null;index" json:"endpoint"`
	RequestTime    time.Time `gorm:"not null;index" json:"request_time"`
	ResponseTimeMs int64     `gorm:"not null" json:"response_time_ms"`
	Success        bool      `gorm:"not null" json:"success"`
	ErrorMessage   string    `gorm:"type:text" json:"error_message,omitempty"`
}
