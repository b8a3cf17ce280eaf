package expense

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

type ExpenseCategoryResponse struct {
	ID       uint   `json:"id"`
	SiteID   uint   `json:"site_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type CreateExpenseCategoryRequest struct {
	Name   string `json:"name"`
	SiteID *uint  `json:"site_id"` // admin için zorunlu
}

type UpdateExpenseCategoryRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

type CreateExpenseRequest struct {
	Date              string  `json:"date"` // "2025-12-09"
	CategoryID        uint    `json:"category_id"`
	Amount            float64 `json:"amount"`
	TaxAmount         float64 `json:"tax_amount"`
	WithholdingAmount float64 `json:"withholding_amount"`
	Description       string  `json:"description"`
	SiteID            *uint   `json:"site_id"` // admin için opsiyonel
}

type ExpenseResponse struct {
	ID                uint                `json:"id"`
	SiteID            uint                `json:"site_id"`
	CategoryID        uint                `json:"category_id"`
	Category          string              `json:"category"`
	Date              string              `json:"date"`
	Amount            float64             `json:"amount"`
	TaxAmount         float64             `json:"tax_amount"`
	WithholdingAmount float64             `json:"withholding_amount"`
	Description       string              `json:"description"`
	Status            models.RecordStatus `json:"status"`
	IsCorrection      bool                `json:"is_correction"`
	CorrectionReason  *string             `json:"correction_reason"`
	ApprovedBy        *uint               `json:"approved_by"`
}

type MonthlyExpenseSummaryItem struct {
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        float64 `json:"total"`
}

type MonthlyExpenseSummaryResponse struct {
	SiteID     uint                        `json:"site_id"`
	Year       int                         `json:"year"`
	Month      int                         `json:"month"`
	Items      []MonthlyExpenseSummaryItem `json:"items"`
	GrandTotal float64                     `json:"grand_total"`
}

func toExpenseResponse(e models.Expense, categoryName string) ExpenseResponse {
	return ExpenseResponse{
		ID:                e.ID,
		SiteID:            e.SiteID,
		CategoryID:        e.CategoryID,
		Category:          categoryName,
		Date:              e.Date.Format("2006-01-02"),
		Amount:            e.Amount,
		TaxAmount:         e.TaxAmount,
		WithholdingAmount: e.WithholdingAmount,
		Description:       e.Description,
		Status:            e.Status,
		IsCorrection:      e.IsCorrection,
		CorrectionReason:  e.CorrectionReason,
		ApprovedBy:        e.ApprovedBy,
	}
}

// -------------------------
// Yardımcı: Kullanıcı bilgilerini al
// -------------------------
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

// -------------------------
// Yardımcı: site ID çöz
// -------------------------

// body'den gelen site_id + role
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

	// admin
	if bodySiteID == nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "site_id zorunlu")
	}
	return *bodySiteID, nil
}

// query'den gelen site_id + role
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

	// admin
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

// Kayıt, kullanıcının sitesine mi ait? Admin her siteye erişir.
func checkSiteAccess(c *fiber.Ctx, recordSiteID uint) error {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}
	if role == models.RoleAdmin {
		return nil
	}

	sVal := c.Locals(auth.CtxSiteIDKey)
	sPtr, ok := sVal.(*uint)
	if !ok || sPtr == nil {
		return fiber.NewError(fiber.StatusForbidden, "Site bilgisi bulunamadı")
	}
	if *sPtr != recordSiteID {
		return fiber.NewError(fiber.StatusForbidden, "Sadece kendi sitenizdeki kayıtlara erişebilirsiniz")
	}
	return nil
}

// -------------------------
// Expense Category CRUD
// -------------------------

// GET /api/expense-categories  (auth olan herkes, kendi sitesi)
func ListExpenseCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var cats []models.ExpenseCategory
		if err := database.DB.Where("site_id = ?", siteID).Order("name asc").Find(&cats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		res := make([]ExpenseCategoryResponse, 0, len(cats))
		for _, cat := range cats {
			res = append(res, ExpenseCategoryResponse{
				ID:       cat.ID,
				SiteID:   cat.SiteID,
				Name:     cat.Name,
				IsActive: cat.IsActive,
			})
		}
		return c.JSON(res)
	}
}

// POST /api/admin/expense-categories (admin)
func CreateExpenseCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateExpenseCategoryRequest
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

		var site models.Site
		if err := database.DB.First(&site, "id = ?", *body.SiteID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Site bulunamadı")
		}

		cat := models.ExpenseCategory{SiteID: *body.SiteID, Name: body.Name, IsActive: true}
		if err := database.DB.Create(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(ExpenseCategoryResponse{
			ID:       cat.ID,
			SiteID:   cat.SiteID,
			Name:     cat.Name,
			IsActive: cat.IsActive,
		})
	}
}

// PUT /api/admin/expense-categories/:id
func UpdateExpenseCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cat models.ExpenseCategory
		if err := database.DB.First(&cat, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var body UpdateExpenseCategoryRequest
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
		if body.IsActive != nil {
			cat.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori güncellenemedi")
		}

		return c.JSON(ExpenseCategoryResponse{
			ID:       cat.ID,
			SiteID:   cat.SiteID,
			Name:     cat.Name,
			IsActive: cat.IsActive,
		})
	}
}

// DELETE /api/admin/expense-categories/:id
func DeleteExpenseCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		if err := database.DB.Delete(&models.ExpenseCategory{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Expense oluşturma ve listeleme
// -------------------------

// POST /api/expenses
// Yeni gider 'pending' durumunda açılır, onay denetçiye düşer.
func CreateExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.CategoryID == 0 || body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "category_id ve amount zorunlu, amount > 0 olmalı")
		}
		if body.TaxAmount < 0 || body.WithholdingAmount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "tax_amount ve withholding_amount negatif olamaz")
		}

		siteID, err := resolveSiteIDFromBodyOrRole(c, body.SiteID)
		if err != nil {
			return err
		}

		userID, userName, role, err := getUserInfo(c)
		if err != nil {
			return err
		}

		// Geçiş tablosu: yeni kayıt -> pending
		tr, err := workflow.Resolve(workflow.StatusNone, workflow.ActionSubmit, role)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		d, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		// Kategori var mı, bu siteye mi ait?
		var cat models.ExpenseCategory
		if err := database.DB.First(&cat, "id = ? AND site_id = ?", body.CategoryID, siteID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
		}

		exp := models.Expense{
			SiteID:            siteID,
			CategoryID:        body.CategoryID,
			Date:              d,
			Amount:            body.Amount,
			TaxAmount:         body.TaxAmount,
			WithholdingAmount: body.WithholdingAmount,
			Description:       body.Description,
			Status:            tr.To,
			CreatedBy:         userID,
		}

		if err := database.DB.Create(&exp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gider kaydedilemedi")
		}

		// Audit log yaz
		siteIDForLog := &exp.SiteID
		if logErr := audit.WriteLog(audit.LogOptions{
			SiteID:      siteIDForLog,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "expense",
			EntityID:    exp.ID,
			Action:      tr.AuditAction,
			Description: fmt.Sprintf("Gider girildi: %s - %.2f TL", cat.Name, exp.Amount),
			After:       expenseSnapshot(&exp),
		}); logErr != nil {
			// Log hatası kritik değil, sadece log'la
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		notify.Send(siteIDForLog, tr.NotifyRole, "expense", exp.ID,
			fmt.Sprintf("Onay bekleyen gider: %s - %.2f TL", cat.Name, exp.Amount))

		return c.Status(fiber.StatusCreated).JSON(toExpenseResponse(exp, cat.Name))
	}
}

// GET /api/expenses?from=...&to=...&category_id=...&status=...&site_id=...
func ListExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		fromStr := c.Query("from")
		toStr := c.Query("to")
		catStr := c.Query("category_id")
		statusStr := c.Query("status")

		dbq := database.DB.Model(&models.Expense{}).
			Preload("Category").
			Where("site_id = ?", siteID)

		if fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from geçersiz")
			}
			dbq = dbq.Where("date >= ?", from)
		}

		if toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to geçersiz")
			}
			dbq = dbq.Where("date <= ?", to)
		}

		if catStr != "" {
			var cid uint
			if _, err := fmt.Sscan(catStr, &cid); err != nil || cid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "category_id geçersiz")
			}
			dbq = dbq.Where("category_id = ?", cid)
		}

		if statusStr != "" {
			status := models.RecordStatus(statusStr)
			if !status.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "status geçersiz")
			}
			dbq = dbq.Where("status = ?", status)
		}

		var rows []models.Expense
		if err := dbq.Order("date asc, id asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Giderler listelenemedi")
		}

		resp := make([]ExpenseResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toExpenseResponse(r, r.Category.Name))
		}

		return c.JSON(resp)
	}
}

// -------------------------
// Aylık gider özeti (sadece onaylı kayıtlar)
// GET /api/expenses/summary/monthly?year=2025&month=12[&site_id=1]
// -------------------------
func MonthlyExpenseSummaryHandler() fiber.Handler {
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
			Model(&models.Expense{}).
			Select("category_id, SUM(amount) as total").
			Where("site_id = ? AND status = ? AND date >= ? AND date <= ?", siteID, models.StatusApproved, firstDay, lastDay).
			Group("category_id").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		// kategori isimlerini çek
		ids := make([]uint, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.CategoryID)
		}

		var cats []models.ExpenseCategory
		if len(ids) > 0 {
			if err := database.DB.Where("id IN ?", ids).Find(&cats).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler yüklenemedi")
			}
		}

		catMap := make(map[uint]string)
		for _, ccat := range cats {
			catMap[ccat.ID] = ccat.Name
		}

		resp := MonthlyExpenseSummaryResponse{
			SiteID:     siteID,
			Year:       year,
			Month:      month,
			Items:      make([]MonthlyExpenseSummaryItem, 0, len(rows)),
			GrandTotal: 0,
		}

		for _, r := range rows {
			item := MonthlyExpenseSummaryItem{
				CategoryID:   r.CategoryID,
				CategoryName: catMap[r.CategoryID],
				Total:        r.Total,
			}
			resp.Items = append(resp.Items, item)
			resp.GrandTotal += r.Total
		}

		return c.JSON(resp)
	}
}
