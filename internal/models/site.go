package models

import "time"

// Site: yönetilen konut sitesi. Tüm mali kayıtlar bir siteye bağlıdır.
type Site struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
