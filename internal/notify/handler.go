package notify

import (
	"fmt"

	"siteyonetim-backend/internal/auth"
	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type NotificationResponse struct {
	ID         uint   `json:"id"`
	SiteID     *uint  `json:"site_id"`
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
	Message    string `json:"message"`
	IsRead     bool   `json:"is_read"`
	CreatedAt  string `json:"created_at"`
}

// GET /api/notifications
// Kullanıcının rolüne ve sitesine düşen bildirimler, okunmamışlar önce.
func ListNotificationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(auth.CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		dbq := database.DB.Model(&models.Notification{}).
			Where("recipient_role = ?", role)

		// Admin tüm siteleri görür, diğer roller kendi sitesini
		if role != models.RoleAdmin {
			sVal := c.Locals(auth.CtxSiteIDKey)
			sPtr, ok := sVal.(*uint)
			if !ok || sPtr == nil {
				return fiber.NewError(fiber.StatusForbidden, "Site bilgisi bulunamadı")
			}
			dbq = dbq.Where("site_id = ?", *sPtr)
		}

		var rows []models.Notification
		if err := dbq.Order("is_read asc, created_at desc").Limit(100).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bildirimler listelenemedi")
		}

		resp := make([]NotificationResponse, 0, len(rows))
		for _, n := range rows {
			resp = append(resp, NotificationResponse{
				ID:         n.ID,
				SiteID:     n.SiteID,
				EntityType: n.EntityType,
				EntityID:   n.EntityID,
				Message:    n.Message,
				IsRead:     n.IsRead,
				CreatedAt:  n.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(resp)
	}
}

// notificationVisible: bildirim hedef role aitse ve (admin hariç)
// kullanıcının sitesine düştüyse görünür.
func notificationVisible(n models.Notification, role models.UserRole, sitePtr *uint) bool {
	if n.RecipientRole != role {
		return false
	}
	if role == models.RoleAdmin {
		return true
	}
	return sitePtr != nil && n.SiteID != nil && *sitePtr == *n.SiteID
}

// POST /api/notifications/:id/read
func MarkReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := c.Params("id")
		var id uint
		if _, err := fmt.Sscan(idStr, &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bildirim ID")
		}

		roleVal := c.Locals(auth.CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		var n models.Notification
		if err := database.DB.First(&n, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bildirim bulunamadı")
		}

		// Sadece kendi rolüne ve sitesine düşen bildirim işaretlenebilir
		sPtr, _ := c.Locals(auth.CtxSiteIDKey).(*uint)
		if !notificationVisible(n, role, sPtr) {
			return fiber.NewError(fiber.StatusNotFound, "Bildirim bulunamadı")
		}

		n.IsRead = true
		if err := database.DB.Save(&n).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bildirim güncellenemedi")
		}

		return c.JSON(fiber.Map{"message": "Bildirim okundu olarak işaretlendi"})
	}
}
