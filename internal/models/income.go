package models

import "time"

type IncomeCategory struct {
	ID        uint `gorm:"primaryKey"`
	SiteID    uint `gorm:"index;not null"`
	Site      Site
	Name      string `gorm:"size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Income: aidat dışı gelir (kira, reklam, ortak alan geliri vb.).
// Aidat tahsilatları CamCharge/CamPayment üzerinden izlenir.
type Income struct {
	ID         uint `gorm:"primaryKey"`
	SiteID     uint `gorm:"index;not null"`
	Site       Site
	CategoryID uint `gorm:"index;not null"`
	Category   IncomeCategory
	Date       time.Time `gorm:"index;not null"`

	Amount      float64 `gorm:"not null"`
	Description string  `gorm:"size:255"`

	Status RecordStatus `gorm:"size:30;not null;default:'pending';index"`

	CreatedBy  uint `gorm:"index;not null"`
	ApprovedBy *uint

	CreatedAt time.Time
	UpdatedAt time.Time
}
