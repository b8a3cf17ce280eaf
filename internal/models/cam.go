package models

import "time"

// Unit: sitedeki bağımsız bölüm (daire/dükkan).
type Unit struct {
	ID        uint `gorm:"primaryKey"`
	SiteID    uint `gorm:"index;not null"`
	Site      Site
	Block     string `gorm:"size:20"`
	Number    string `gorm:"size:20;not null"` // daire no
	OwnerName string `gorm:"size:100;not null"`
	Phone     string `gorm:"size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CamCharge: bir bağımsız bölüme belirli bir dönem için tahakkuk eden aidat.
// Aynı (unit, year, month) için ikinci tahakkuk oluşturulmaz.
type CamCharge struct {
	ID     uint `gorm:"primaryKey"`
	SiteID uint `gorm:"index;not null"`
	Site   Site
	UnitID uint `gorm:"index;not null;uniqueIndex:idx_cam_charges_unit_period"`
	Unit   Unit

	Year  int `gorm:"not null;uniqueIndex:idx_cam_charges_unit_period"`
	Month int `gorm:"not null;uniqueIndex:idx_cam_charges_unit_period"` // 1-12

	Amount      float64 `gorm:"not null"`
	Description string  `gorm:"size:255"`

	Status RecordStatus `gorm:"size:30;not null;default:'pending';index"`

	CreatedBy  uint `gorm:"index;not null"`
	ApprovedBy *uint

	CreatedAt time.Time
	UpdatedAt time.Time
}

type CamPaymentMethod string

const (
	CamPaymentCash CamPaymentMethod = "cash" // elden
	CamPaymentBank CamPaymentMethod = "bank" // havale/EFT
)

// CamPayment: tahakkuka karşı yapılan tahsilat. Kısmi ödeme olabilir.
type CamPayment struct {
	ID       uint `gorm:"primaryKey"`
	SiteID   uint `gorm:"index;not null"`
	Site     Site
	ChargeID uint `gorm:"index;not null"`
	Charge   CamCharge

	Date        time.Time        `gorm:"index;not null"`
	Amount      float64          `gorm:"not null"`
	Method      CamPaymentMethod `gorm:"size:10;not null"`
	Description string           `gorm:"size:255"`

	CreatedBy uint `gorm:"index;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
