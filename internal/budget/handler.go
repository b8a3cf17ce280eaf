package budget

import (
	"fmt"

	"siteyonetim-backend/internal/audit"
	"siteyonetim-backend/internal/auth"
	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BudgetItemRequest struct {
	CategoryID uint    `json:"category_id"`
	Month      int     `json:"month"` // 0 = yıllık kalem
	Amount     float64 `json:"amount"`
}

type CreatePlanRequest struct {
	Year   int                 `json:"year"`
	Note   string              `json:"note"`
	SiteID *uint               `json:"site_id"`
	Items  []BudgetItemRequest `json:"items"`
}

type BudgetItemResponse struct {
	ID           uint    `json:"id"`
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Month        int     `json:"month"`
	Amount       float64 `json:"amount"`
}

type PlanResponse struct {
	ID     uint                 `json:"id"`
	SiteID uint                 `json:"site_id"`
	Year   int                  `json:"year"`
	Note   string               `json:"note"`
	Total  float64              `json:"total"`
	Items  []BudgetItemResponse `json:"items"`
}

type ComparisonItem struct {
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Planned      float64 `json:"planned"`
	Actual       float64 `json:"actual"`
	Difference   float64 `json:"difference"` // actual - planned
	UsagePercent float64 `json:"usage_percent"`
}

type ComparisonResponse struct {
	SiteID       uint             `json:"site_id"`
	Year         int              `json:"year"`
	Items        []ComparisonItem `json:"items"`
	TotalPlanned float64          `json:"total_planned"`
	TotalActual  float64          `json:"total_actual"`
}

// Yardımcı: Kullanıcı bilgilerini al
func getUserInfo(c *fiber.Ctx) (uint, string, models.UserRole, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", "", fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, "", "", fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	return userID, user.Name, role, nil
}

// Yardımcı: site ID çöz (body)
func resolveSiteIDFromBodyOrRole(c *fiber.Ctx, bodySiteID *uint) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role != models.RoleAdmin {
		sVal := c.Locals(auth.CtxSiteIDKey)
		sPtr, ok := sVal.(*uint)
		if !ok || sPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Site bilgisi bulunamadı")
		}
		return *sPtr, nil
	}

	if bodySiteID == nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "site_id zorunlu")
	}
	return *bodySiteID, nil
}

// Yardımcı: site ID çöz (query)
func resolveSiteIDFromQueryOrRole(c *fiber.Ctx) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role != models.RoleAdmin {
		sVal := c.Locals(auth.CtxSiteIDKey)
		sPtr, ok := sVal.(*uint)
		if !ok || sPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Site bilgisi bulunamadı")
		}
		return *sPtr, nil
	}

	sidStr := c.Query("site_id")
	if sidStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "site_id zorunlu")
	}
	var sid uint
	if _, err := fmt.Sscan(sidStr, &sid); err != nil || sid == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "site_id geçersiz")
	}
	return sid, nil
}

func planToResponse(plan models.BudgetPlan) PlanResponse {
	resp := PlanResponse{
		ID:     plan.ID,
		SiteID: plan.SiteID,
		Year:   plan.Year,
		Note:   plan.Note,
		Items:  make([]BudgetItemResponse, 0, len(plan.Items)),
	}
	for _, it := range plan.Items {
		resp.Items = append(resp.Items, BudgetItemResponse{
			ID:           it.ID,
			CategoryID:   it.CategoryID,
			CategoryName: it.Category.Name,
			Month:        it.Month,
			Amount:       it.Amount,
		})
		resp.Total += it.Amount
	}
	return resp
}

// POST /api/budget-plans  (treasurer/admin)
// Aynı site+yıl için ikinci plan açılamaz.
func CreatePlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePlanRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Year < 2000 {
			return fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir bütçe kalemi gerekli")
		}

		siteID, err := resolveSiteIDFromBodyOrRole(c, body.SiteID)
		if err != nil {
			return err
		}

		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var existing int64
		database.DB.Model(&models.BudgetPlan{}).
			Where("site_id = ? AND year = ?", siteID, body.Year).
			Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%d yılı için bütçe planı zaten var", body.Year))
		}

		for _, it := range body.Items {
			if it.CategoryID == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "category_id zorunlu")
			}
			if it.Month < 0 || it.Month > 12 {
				return fiber.NewError(fiber.StatusBadRequest, "month 0-12 aralığında olmalı")
			}
			if it.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Kalem tutarı pozitif olmalı")
			}
			var cat models.ExpenseCategory
			if err := database.DB.First(&cat, "id = ?", it.CategoryID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Kategori bulunamadı: %d", it.CategoryID))
			}
		}

		plan := models.BudgetPlan{
			SiteID:    siteID,
			Year:      body.Year,
			Note:      body.Note,
			CreatedBy: userID,
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&plan).Error; err != nil {
				return err
			}
			for _, it := range body.Items {
				item := models.BudgetItem{
					BudgetPlanID: plan.ID,
					CategoryID:   it.CategoryID,
					Month:        it.Month,
					Amount:       it.Amount,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				SiteID:      &siteID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "budget_plan",
				EntityID:    plan.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("%d yılı bütçe planı oluşturuldu (%d kalem)", body.Year, len(body.Items)),
			})
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bütçe planı kaydedilemedi: "+txErr.Error())
		}

		if err := database.DB.Preload("Items.Category").First(&plan, "id = ?", plan.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bütçe planı yüklenemedi")
		}

		return c.Status(fiber.StatusCreated).JSON(planToResponse(plan))
	}
}

// GET /api/budget-plans?site_id=
func ListPlansHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var plans []models.BudgetPlan
		if err := database.DB.Preload("Items.Category").
			Where("site_id = ?", siteID).
			Order("year desc").
			Find(&plans).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bütçe planları listelenemedi")
		}

		resp := make([]PlanResponse, 0, len(plans))
		for _, p := range plans {
			resp = append(resp, planToResponse(p))
		}
		return c.JSON(resp)
	}
}

// GET /api/budget-plans/:id
func GetPlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var plan models.BudgetPlan
		if err := database.DB.Preload("Items.Category").First(&plan, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bütçe planı bulunamadı")
		}

		roleVal := c.Locals(auth.CtxUserRoleKey)
		if role, ok := roleVal.(models.UserRole); ok && role != models.RoleAdmin {
			sVal := c.Locals(auth.CtxSiteIDKey)
			sPtr, ok := sVal.(*uint)
			if !ok || sPtr == nil || *sPtr != plan.SiteID {
				return fiber.NewError(fiber.StatusForbidden, "Sadece kendi sitenizdeki kayıtlara erişebilirsiniz")
			}
		}

		return c.JSON(planToResponse(plan))
	}
}

// GET /api/budget-plans/:id/comparison
// Kategori bazında plan/gerçekleşen karşılaştırması. Gerçekleşen tutar
// yalnızca onaylı giderlerden hesaplanır.
func ComparisonHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var plan models.BudgetPlan
		if err := database.DB.Preload("Items.Category").First(&plan, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bütçe planı bulunamadı")
		}

		roleVal := c.Locals(auth.CtxUserRoleKey)
		if role, ok := roleVal.(models.UserRole); ok && role != models.RoleAdmin {
			sVal := c.Locals(auth.CtxSiteIDKey)
			sPtr, ok := sVal.(*uint)
			if !ok || sPtr == nil || *sPtr != plan.SiteID {
				return fiber.NewError(fiber.StatusForbidden, "Sadece kendi sitenizdeki kayıtlara erişebilirsiniz")
			}
		}

		// Kategori bazında planlanan toplamlar
		plannedMap := make(map[uint]float64)
		nameMap := make(map[uint]string)
		for _, it := range plan.Items {
			plannedMap[it.CategoryID] += it.Amount
			nameMap[it.CategoryID] = it.Category.Name
		}

		// Kategori bazında gerçekleşen (onaylı giderler)
		type actualRow struct {
			CategoryID uint    `gorm:"column:category_id"`
			Total      float64 `gorm:"column:total"`
		}
		var actualRows []actualRow
		if err := database.DB.Model(&models.Expense{}).
			Select("category_id, SUM(amount) as total").
			Where("site_id = ? AND status = ? AND EXTRACT(YEAR FROM date) = ?", plan.SiteID, models.StatusApproved, plan.Year).
			Group("category_id").
			Scan(&actualRows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gider toplamları hesaplanamadı")
		}

		actualMap := make(map[uint]float64)
		for _, r := range actualRows {
			actualMap[r.CategoryID] = r.Total
		}

		// Planda olmayan ama harcama görülen kategoriler de raporda yer alır
		for catID := range actualMap {
			if _, ok := plannedMap[catID]; !ok {
				plannedMap[catID] = 0
				var cat models.ExpenseCategory
				if err := database.DB.First(&cat, "id = ?", catID).Error; err == nil {
					nameMap[catID] = cat.Name
				}
			}
		}

		resp := ComparisonResponse{
			SiteID: plan.SiteID,
			Year:   plan.Year,
			Items:  make([]ComparisonItem, 0, len(plannedMap)),
		}

		for catID, planned := range plannedMap {
			actual := actualMap[catID]
			item := ComparisonItem{
				CategoryID:   catID,
				CategoryName: nameMap[catID],
				Planned:      planned,
				Actual:       actual,
				Difference:   actual - planned,
			}
			if planned > 0 {
				item.UsagePercent = actual / planned * 100
			}
			resp.Items = append(resp.Items, item)
			resp.TotalPlanned += planned
			resp.TotalActual += actual
		}

		return c.JSON(resp)
	}
}

// DELETE /api/budget-plans/:id  (admin)
func DeletePlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var plan models.BudgetPlan
		if err := database.DB.First(&plan, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bütçe planı bulunamadı")
		}

		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("budget_plan_id = ?", plan.ID).Delete(&models.BudgetItem{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&plan).Error; err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				SiteID:      &plan.SiteID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "budget_plan",
				EntityID:    plan.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("%d yılı bütçe planı silindi", plan.Year),
			})
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bütçe planı silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
