package notify

import (
	"testing"

	"siteyonetim-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func uptr(v uint) *uint { return &v }

func TestNotificationVisibleMatchingRoleAndSite(t *testing.T) {
	n := models.Notification{SiteID: uptr(1), RecipientRole: models.RoleSupervisor}
	assert.True(t, notificationVisible(n, models.RoleSupervisor, uptr(1)))
}

func TestNotificationVisibleWrongRole(t *testing.T) {
	n := models.Notification{SiteID: uptr(1), RecipientRole: models.RoleSupervisor}
	assert.False(t, notificationVisible(n, models.RoleOperator, uptr(1)))
}

// Başka sitenin bildirimi okundu işaretlenememeli
func TestNotificationVisibleOtherSite(t *testing.T) {
	n := models.Notification{SiteID: uptr(2), RecipientRole: models.RoleTreasurer}
	assert.False(t, notificationVisible(n, models.RoleTreasurer, uptr(1)))
	assert.False(t, notificationVisible(n, models.RoleTreasurer, nil))
}

func TestNotificationVisibleAdminAnySite(t *testing.T) {
	n := models.Notification{SiteID: uptr(2), RecipientRole: models.RoleAdmin}
	assert.True(t, notificationVisible(n, models.RoleAdmin, nil))
	assert.True(t, notificationVisible(n, models.RoleAdmin, uptr(1)))
}
