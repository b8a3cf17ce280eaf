package models

import "time"

type PettyCashDirection string

const (
	PettyCashIn  PettyCashDirection = "in"  // kasaya giriş
	PettyCashOut PettyCashDirection = "out" // kasadan çıkış
)

// PettyCashEntry: küçük kasa hareketi.
type PettyCashEntry struct {
	ID     uint `gorm:"primaryKey"`
	SiteID uint `gorm:"index;not null"`
	Site   Site

	Date        time.Time          `gorm:"index;not null"`
	Direction   PettyCashDirection `gorm:"size:10;not null"`
	Amount      float64            `gorm:"not null"`
	Description string             `gorm:"size:255"`

	Status RecordStatus `gorm:"size:30;not null;default:'pending';index"`

	CreatedBy  uint `gorm:"index;not null"`
	ApprovedBy *uint

	CreatedAt time.Time
	UpdatedAt time.Time
}
