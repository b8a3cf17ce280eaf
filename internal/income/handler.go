package income

import (
	"fmt"
	"strings"
	"time"

	"siteyonetim-backend/internal/audit"
	"siteyonetim-backend/internal/auth"
	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"
	"siteyonetim-backend/internal/notify"
	"siteyonetim-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

type IncomeCategoryResponse struct {
	ID     uint   `json:"id"`
	SiteID uint   `json:"site_id"`
	Name   string `json:"name"`
}

type CreateIncomeCategoryRequest struct {
	Name   string `json:"name"`
	SiteID *uint  `json:"site_id"`
}

type UpdateIncomeCategoryRequest struct {
	Name *string `json:"name"`
}

type CreateIncomeRequest struct {
	Date        string  `json:"date"` // "2025-12-09"
	CategoryID  uint    `json:"category_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	SiteID      *uint   `json:"site_id"` // admin için opsiyonel
}

type IncomeResponse struct {
	ID          uint                `json:"id"`
	SiteID      uint                `json:"site_id"`
	CategoryID  uint                `json:"category_id"`
	Category    string              `json:"category"`
	Date        string              `json:"date"`
	Amount      float64             `json:"amount"`
	Description string              `json:"description"`
	Status      models.RecordStatus `json:"status"`
	ApprovedBy  *uint               `json:"approved_by"`
}

type MonthlyIncomeSummaryItem struct {
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        float64 `json:"total"`
}

type MonthlyIncomeSummaryResponse struct {
	SiteID     uint                       `json:"site_id"`
	Year       int                        `json:"year"`
	Month      int                        `json:"month"`
	Items      []MonthlyIncomeSummaryItem `json:"items"`
	GrandTotal float64                    `json:"grand_total"`
}

func toIncomeResponse(r models.Income, categoryName string) IncomeResponse {
	return IncomeResponse{
		ID:          r.ID,
		SiteID:      r.SiteID,
		CategoryID:  r.CategoryID,
		Category:    categoryName,
		Date:        r.Date.Format("2006-01-02"),
		Amount:      r.Amount,
		Description: r.Description,
		Status:      r.Status,
		ApprovedBy:  r.ApprovedBy,
	}
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

// -------------------------
// Income Category CRUD
// -------------------------

// GET /api/income-categories
func ListIncomeCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var cats []models.IncomeCategory
		if err := database.DB.Where("site_id = ?", siteID).Order("name asc").Find(&cats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		res := make([]IncomeCategoryResponse, 0, len(cats))
		for _, cat := range cats {
			res = append(res, IncomeCategoryResponse{ID: cat.ID, SiteID: cat.SiteID, Name: cat.Name})
		}
		return c.JSON(res)
	}
}

// POST /api/admin/income-categories (admin)
func CreateIncomeCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateIncomeCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}
		if body.SiteID == nil || *body.SiteID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "site_id zorunlu")
		}

		cat := models.IncomeCategory{SiteID: *body.SiteID, Name: body.Name}
		if err := database.DB.Create(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(IncomeCategoryResponse{ID: cat.ID, SiteID: cat.SiteID, Name: cat.Name})
	}
}

// PUT /api/admin/income-categories/:id
func UpdateIncomeCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cat models.IncomeCategory
		if err := database.DB.First(&cat, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var body UpdateIncomeCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			cat.Name = name
		}

		if err := database.DB.Save(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori güncellenemedi")
		}

		return c.JSON(IncomeCategoryResponse{ID: cat.ID, SiteID: cat.SiteID, Name: cat.Name})
	}
}

// DELETE /api/admin/income-categories/:id
func DeleteIncomeCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		if err := database.DB.Delete(&models.IncomeCategory{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Income kayıtları
// -------------------------

// POST /api/incomes
func CreateIncomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateIncomeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.CategoryID == 0 || body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "category_id ve amount zorunlu, amount > 0 olmalı")
		}

		siteID, err := resolveSiteIDFromBodyOrRole(c, body.SiteID)
		if err != nil {
			return err
		}

		userID, userName, role, err := getUserInfo(c)
		if err != nil {
			return err
		}

		tr, err := workflow.Resolve(workflow.StatusNone, workflow.ActionSubmit, role)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		d, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		var cat models.IncomeCategory
		if err := database.DB.First(&cat, "id = ? AND site_id = ?", body.CategoryID, siteID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
		}

		inc := models.Income{
			SiteID:      siteID,
			CategoryID:  body.CategoryID,
			Date:        d,
			Amount:      body.Amount,
			Description: body.Description,
			Status:      tr.To,
			CreatedBy:   userID,
		}

		if err := database.DB.Create(&inc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gelir kaydedilemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			SiteID:      &inc.SiteID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "income",
			EntityID:    inc.ID,
			Action:      tr.AuditAction,
			Description: fmt.Sprintf("Gelir girildi: %s - %.2f TL", cat.Name, inc.Amount),
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		notify.Send(&inc.SiteID, tr.NotifyRole, "income", inc.ID,
			fmt.Sprintf("Onay bekleyen gelir: %s - %.2f TL", cat.Name, inc.Amount))

		return c.Status(fiber.StatusCreated).JSON(toIncomeResponse(inc, cat.Name))
	}
}

// GET /api/incomes?from=...&to=...&category_id=...&status=...&site_id=...
func ListIncomesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Income{}).
			Preload("Category").
			Where("site_id = ?", siteID)

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from geçersiz")
			}
			dbq = dbq.Where("date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to geçersiz")
			}
			dbq = dbq.Where("date <= ?", to)
		}
		if statusStr := c.Query("status"); statusStr != "" {
			status := models.RecordStatus(statusStr)
			if !status.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "status geçersiz")
			}
			dbq = dbq.Where("status = ?", status)
		}

		var rows []models.Income
		if err := dbq.Order("date asc, id asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gelirler listelenemedi")
		}

		resp := make([]IncomeResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toIncomeResponse(r, r.Category.Name))
		}

		return c.JSON(resp)
	}
}

// transitionIncome: geçiş tablosuna danışıp gelir kaydını günceller.
func transitionIncome(c *fiber.Ctx, action workflow.Action) error {
	idStr := c.Params("id")
	var id uint
	if _, err := fmt.Sscan(idStr, &id); err != nil || id == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz gelir ID")
	}

	var inc models.Income
	if err := database.DB.First(&inc, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Gelir bulunamadı")
	}

	userID, userName, role, err := getUserInfo(c)
	if err != nil {
		return err
	}

	// Site kontrolü: admin dışındaki roller kendi sitesiyle sınırlı
	if role != models.RoleAdmin {
		sVal := c.Locals(auth.CtxSiteIDKey)
		sPtr, ok := sVal.(*uint)
		if !ok || sPtr == nil || *sPtr != inc.SiteID {
			return fiber.NewError(fiber.StatusForbidden, "Sadece kendi sitenizdeki kayıtlara erişebilirsiniz")
		}
	}

	tr, err := workflow.Resolve(inc.Status, action, role)
	if err != nil {
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}

	inc.Status = tr.To
	inc.ApprovedBy = &userID

	if err := database.DB.Save(&inc).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gelir güncellenemedi")
	}

	if logErr := audit.WriteLog(audit.LogOptions{
		SiteID:      &inc.SiteID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  "income",
		EntityID:    inc.ID,
		Action:      tr.AuditAction,
		Description: fmt.Sprintf("Gelir #%d: %s", inc.ID, tr.AuditAction),
	}); logErr != nil {
		fmt.Printf("Audit log yazılamadı: %v\n", logErr)
	}

	notify.Send(&inc.SiteID, tr.NotifyRole, "income", inc.ID,
		fmt.Sprintf("Gelir #%d: %s", inc.ID, tr.AuditAction))

	var cat models.IncomeCategory
	database.DB.First(&cat, "id = ?", inc.CategoryID)

	return c.JSON(toIncomeResponse(inc, cat.Name))
}

// POST /api/incomes/:id/approve
func ApproveIncomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return transitionIncome(c, workflow.ActionApprove)
	}
}

// POST /api/incomes/:id/reject
func RejectIncomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return transitionIncome(c, workflow.ActionReject)
	}
}

// -------------------------
// Aylık gelir özeti (sadece onaylı kayıtlar)
// GET /api/incomes/summary/monthly?year=2025&month=12[&site_id=1]
// -------------------------
func MonthlyIncomeSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		yearStr := c.Query("year")
		monthStr := c.Query("month")
		if yearStr == "" || monthStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu")
		}

		var year, month int
		if _, err := fmt.Sscan(yearStr, &year); err != nil || year < 2000 {
			return fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
		}
		if _, err := fmt.Sscan(monthStr, &month); err != nil || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "month geçersiz")
		}

		loc := time.Now().Location()
		firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		lastDay := firstDay.AddDate(0, 1, -1)

		type row struct {
			CategoryID uint    `gorm:"column:category_id"`
			Total      float64 `gorm:"column:total"`
		}
		var rows []row

		if err := database.DB.
			Model(&models.Income{}).
			Select("category_id, SUM(amount) as total").
			Where("site_id = ? AND status = ? AND date >= ? AND date <= ?", siteID, models.StatusApproved, firstDay, lastDay).
			Group("category_id").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		ids := make([]uint, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.CategoryID)
		}

		var cats []models.IncomeCategory
		if len(ids) > 0 {
			if err := database.DB.Where("id IN ?", ids).Find(&cats).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler yüklenemedi")
			}
		}

		catMap := make(map[uint]string)
		for _, ccat := range cats {
			catMap[ccat.ID] = ccat.Name
		}

		resp := MonthlyIncomeSummaryResponse{
			SiteID: siteID,
			Year:   year,
			Month:  month,
			Items:  make([]MonthlyIncomeSummaryItem, 0, len(rows)),
		}

		for _, r := range rows {
			resp.Items = append(resp.Items, MonthlyIncomeSummaryItem{
				CategoryID:   r.CategoryID,
				CategoryName: catMap[r.CategoryID],
				Total:        r.Total,
			})
			resp.GrandTotal += r.Total
		}

		return c.JSON(resp)
	}
}
