package models

import "time"

type ExpenseCategory struct {
	ID        uint `gorm:"primaryKey"`
	SiteID    uint `gorm:"index;not null"`
	Site      Site
	Name      string `gorm:"size:100;not null"`
	IsActive  bool   `gorm:"default:true"` // pasif kategoriler eksik veri raporuna girmez
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expense: site gideri. Onay ve düzeltme döngüsünün tamamından geçen tek kayıt türü.
type Expense struct {
	ID         uint `gorm:"primaryKey"`
	SiteID     uint `gorm:"index;not null"`
	Site       Site
	CategoryID uint `gorm:"index;not null"`
	Category   ExpenseCategory
	Date       time.Time `gorm:"index;not null"`

	Amount            float64 `gorm:"not null"` // KDV hariç tutar
	TaxAmount         float64 `gorm:"default:0"` // KDV
	WithholdingAmount float64 `gorm:"default:0"` // stopaj
	Description       string  `gorm:"size:255"`

	Status           RecordStatus `gorm:"size:30;not null;default:'pending';index"`
	IsCorrection     bool         `gorm:"default:false"` // en az bir düzeltme döngüsü tamamlandı
	CorrectionReason *string      `gorm:"size:255"`

	CreatedBy  uint `gorm:"index;not null"`
	ApprovedBy *uint

	CreatedAt time.Time
	UpdatedAt time.Time
}
