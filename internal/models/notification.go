package models

import "time"

// Notification: durum geçişlerinden sonra ilgili role düşen uygulama içi bildirim.
// Gönderim best-effort'tur; yazılamazsa sadece loglanır.
type Notification struct {
	ID     uint  `gorm:"primaryKey"`
	SiteID *uint `gorm:"index"`

	// Bildirimin hedef rolü (o sitedeki tüm kullanıcılar görür)
	RecipientRole UserRole `gorm:"size:20;not null;index"`

	EntityType string `gorm:"size:50"`
	EntityID   uint
	Message    string `gorm:"size:255;not null"`

	IsRead bool `gorm:"default:false;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
