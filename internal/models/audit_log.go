package models

import "time"

type AuditAction string

const (
	// Genel CRUD işlemleri
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"

	// Onay akışı geçişleri
	AuditActionSubmitted           AuditAction = "submitted"
	AuditActionApproved            AuditAction = "approved"
	AuditActionRejected            AuditAction = "rejected"
	AuditActionCorrectionRequested AuditAction = "correction_requested"
	AuditActionCorrectionApproved  AuditAction = "correction_approved"
	AuditActionCorrectionRejected  AuditAction = "correction_rejected"
	AuditActionCorrectionCompleted AuditAction = "correction_completed"
)

// AuditLog: her durum geçişi ve yetkili müdahalesi için bir kayıt.
// Kayıtlar eklendikten sonra asla güncellenmez veya silinmez.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Hangi site?
	SiteID *uint `json:"site_id"`

	// Hangi kullanıcı?
	UserID   uint   `json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"` // kullanıcı adı (denormalize)

	// Hangi entity? (ör: "expense", "income", "petty_cash_entry", "cam_charge")
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Action AuditAction `gorm:"size:30;index" json:"action"`

	// Opsiyonel açıklama (küçük bir özet)
	Description string `gorm:"size:255" json:"description"`

	// Düzeltme talebinin türü (ör: "amount", "category", "date")
	CorrectionType string `gorm:"size:50" json:"correction_type"`

	// Önceki ve sonraki hal (JSON)
	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}
