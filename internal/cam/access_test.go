package cam

import (
	"testing"

	"siteyonetim-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func uptr(v uint) *uint { return &v }

func TestSiteAccessAdminAnySite(t *testing.T) {
	assert.True(t, siteAccessAllowed(models.RoleAdmin, nil, 2))
	assert.True(t, siteAccessAllowed(models.RoleAdmin, uptr(1), 2))
}

func TestSiteAccessOwnSite(t *testing.T) {
	assert.True(t, siteAccessAllowed(models.RoleOperator, uptr(1), 1))
	assert.True(t, siteAccessAllowed(models.RoleTreasurer, uptr(3), 3))
}

// Başka sitenin tahakkukuna tahsilat girilememeli
func TestSiteAccessDeniedOtherSite(t *testing.T) {
	assert.False(t, siteAccessAllowed(models.RoleOperator, uptr(1), 2))
	assert.False(t, siteAccessAllowed(models.RoleSupervisor, uptr(2), 1))
}

func TestSiteAccessDeniedWithoutSite(t *testing.T) {
	assert.False(t, siteAccessAllowed(models.RoleOperator, nil, 1))
}
