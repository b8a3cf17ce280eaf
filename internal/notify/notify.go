package notify

import (
	"log"

	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"
)

// Send: ilgili role uygulama içi bildirim düşer. Best-effort: yazılamazsa
// loglanır, çağıran tarafa hata dönmez ve tekrar denenmez.
func Send(siteID *uint, role models.UserRole, entityType string, entityID uint, message string) {
	go func() {
		n := models.Notification{
			SiteID:        siteID,
			RecipientRole: role,
			EntityType:    entityType,
			EntityID:      entityID,
			Message:       message,
		}
		if err := database.DB.Create(&n).Error; err != nil {
			log.Printf("Bildirim yazılamadı (%s #%d): %v", entityType, entityID, err)
		}
	}()
}
