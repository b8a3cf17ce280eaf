package audit

import (
	"fmt"

	"siteyonetim-backend/internal/auth"
	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID             uint               `json:"id"`
	CreatedAt      string             `json:"created_at"`
	SiteID         *uint              `json:"site_id"`
	UserID         uint               `json:"user_id"`
	UserName       string             `json:"user_name"`
	EntityType     string             `json:"entity_type"`
	EntityID       uint               `json:"entity_id"`
	Action         models.AuditAction `json:"action"`
	Description    string             `json:"description"`
	CorrectionType string             `json:"correction_type,omitempty"`
	BeforeData     string             `json:"before_data"`
	AfterData      string             `json:"after_data"`
}

func toResponse(log models.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:             log.ID,
		CreatedAt:      log.CreatedAt.Format("2006-01-02 15:04:05"),
		SiteID:         log.SiteID,
		UserID:         log.UserID,
		UserName:       log.UserName,
		EntityType:     log.EntityType,
		EntityID:       log.EntityID,
		Action:         log.Action,
		Description:    log.Description,
		CorrectionType: log.CorrectionType,
		BeforeData:     log.BeforeData,
		AfterData:      log.AfterData,
	}
}

// GET /api/audit-logs?entity_type=expense&entity_id=1&site_id=1&user_id=2
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(auth.CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		// Site ID çöz
		var siteID *uint
		if role != models.RoleAdmin {
			sVal := c.Locals(auth.CtxSiteIDKey)
			sPtr, ok := sVal.(*uint)
			if ok && sPtr != nil {
				siteID = sPtr
			}
		} else {
			// admin için query'den al
			sidStr := c.Query("site_id")
			if sidStr != "" {
				var sid uint
				if _, err := fmt.Sscan(sidStr, &sid); err == nil && sid > 0 {
					siteID = &sid
				}
			}
		}

		entityType := c.Query("entity_type")
		entityIDStr := c.Query("entity_id")
		userIDStr := c.Query("user_id")

		dbq := database.DB.Model(&models.AuditLog{})

		if siteID != nil {
			dbq = dbq.Where("site_id = ?", *siteID)
		}

		if userIDStr != "" {
			var uid uint
			if _, err := fmt.Sscan(userIDStr, &uid); err == nil && uid > 0 {
				dbq = dbq.Where("user_id = ?", uid)
			}
		}

		if entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}

		if entityIDStr != "" {
			var eid uint
			if _, err := fmt.Sscan(entityIDStr, &eid); err == nil && eid > 0 {
				dbq = dbq.Where("entity_id = ?", eid)
			}
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Loglar listelenemedi")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, toResponse(log))
		}

		return c.JSON(resp)
	}
}

// GET /api/audit-logs/trail?entity_type=expense&entity_id=1
// Tek bir kaydın geçiş izi, eskiden yeniye sıralı.
func TrailHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		entityType := c.Query("entity_type")
		entityIDStr := c.Query("entity_id")

		if entityType == "" || entityIDStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "entity_type ve entity_id zorunlu")
		}

		var entityID uint
		if _, err := fmt.Sscan(entityIDStr, &entityID); err != nil || entityID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "entity_id geçersiz")
		}

		logs, err := GetTrail(entityType, entityID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Audit izi okunamadı")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, toResponse(log))
		}

		return c.JSON(resp)
	}
}
