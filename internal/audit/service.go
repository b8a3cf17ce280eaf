package audit

import (
	"encoding/json"
	"fmt"

	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	SiteID         *uint
	UserID         uint
	UserName       string
	EntityType     string
	EntityID       uint
	Action         models.AuditAction
	Description    string
	CorrectionType string
	Before         any
	After          any
}

// WriteLog: tek bir audit kaydı ekler. Kayıtlar eklendikten sonra
// güncellenmez ve silinmez; geri alma diye bir işlem yoktur.
func WriteLog(opts LogOptions) error {
	return WriteLogTx(database.DB, opts)
}

// WriteLogTx: transaction içinden audit yazmak için. Toplu düzeltme
// talebinde sayım ve yazmalar aynı transaction'da kalmalıdır.
func WriteLogTx(tx *gorm.DB, opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		SiteID:         opts.SiteID,
		UserID:         opts.UserID,
		UserName:       opts.UserName,
		EntityType:     opts.EntityType,
		EntityID:       opts.EntityID,
		Action:         opts.Action,
		Description:    opts.Description,
		CorrectionType: opts.CorrectionType,
		BeforeData:     beforeStr,
		AfterData:      afterStr,
	}

	if err := tx.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

// GetTrail: bir kaydın geçiş izini kronolojik sırayla döner.
func GetTrail(entityType string, entityID uint) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := database.DB.
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at asc, id asc").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("audit izi okunamadı: %w", err)
	}
	return logs, nil
}
