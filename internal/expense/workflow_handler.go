package expense

import (
	"fmt"
	"strings"
	"time"

	"siteyonetim-backend/internal/audit"
	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"
	"siteyonetim-backend/internal/notify"
	"siteyonetim-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RequestCorrectionRequest struct {
	Reason         string `json:"reason"`
	CorrectionType string `json:"correction_type"` // ör: "amount", "category", "date"
}

type CompleteCorrectionRequest struct {
	Date              *string  `json:"date"`
	CategoryID        *uint    `json:"category_id"`
	Amount            *float64 `json:"amount"`
	TaxAmount         *float64 `json:"tax_amount"`
	WithholdingAmount *float64 `json:"withholding_amount"`
	Description       *string  `json:"description"`
}

type BulkCorrectionRequest struct {
	ExpenseIDs     []uint `json:"expense_ids"`
	Reason         string `json:"reason"`
	CorrectionType string `json:"correction_type"`
}

type TreasurerEditRequest struct {
	Date              *string  `json:"date"`
	CategoryID        *uint    `json:"category_id"`
	Amount            *float64 `json:"amount"`
	TaxAmount         *float64 `json:"tax_amount"`
	WithholdingAmount *float64 `json:"withholding_amount"`
	Description       *string  `json:"description"`
}

// expenseSnapshot: audit için alan bazlı kopya (ilişkiler hariç).
func expenseSnapshot(e *models.Expense) map[string]interface{} {
	var reason interface{}
	if e.CorrectionReason != nil {
		reason = *e.CorrectionReason
	}
	return map[string]interface{}{
		"id":                 e.ID,
		"site_id":            e.SiteID,
		"category_id":        e.CategoryID,
		"date":               e.Date.Format("2006-01-02"),
		"amount":             e.Amount,
		"tax_amount":         e.TaxAmount,
		"withholding_amount": e.WithholdingAmount,
		"description":        e.Description,
		"status":             e.Status,
		"is_correction":      e.IsCorrection,
		"correction_reason":  reason,
	}
}

func loadExpense(c *fiber.Ctx) (*models.Expense, error) {
	idStr := c.Params("id")
	var id uint
	if _, err := fmt.Sscan(idStr, &id); err != nil || id == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz gider ID")
	}

	var exp models.Expense
	if err := database.DB.First(&exp, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Gider bulunamadı")
	}

	if err := checkSiteAccess(c, exp.SiteID); err != nil {
		return nil, err
	}

	return &exp, nil
}

// transitionExpense: geçiş tablosuna danışıp kaydı günceller, audit yazar,
// ilgili role bildirim düşer. mutate, kaydet öncesi ek alan değişiklikleri için.
func transitionExpense(c *fiber.Ctx, action workflow.Action, correctionType string, mutate func(*models.Expense)) error {
	exp, err := loadExpense(c)
	if err != nil {
		return err
	}

	userID, userName, role, err := getUserInfo(c)
	if err != nil {
		return err
	}

	tr, err := workflow.Resolve(exp.Status, action, role)
	if err != nil {
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}

	exp.Status = tr.To
	if tr.ClearsReason {
		exp.CorrectionReason = nil
	}
	if tr.MarksCorrection {
		exp.IsCorrection = true
	}
	if mutate != nil {
		mutate(exp)
	}

	if err := database.DB.Save(exp).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gider güncellenemedi")
	}

	siteIDForLog := &exp.SiteID
	if logErr := audit.WriteLog(audit.LogOptions{
		SiteID:         siteIDForLog,
		UserID:         userID,
		UserName:       userName,
		EntityType:     "expense",
		EntityID:       exp.ID,
		Action:         tr.AuditAction,
		Description:    fmt.Sprintf("Gider #%d: %s", exp.ID, tr.AuditAction),
		CorrectionType: correctionType,
	}); logErr != nil {
		fmt.Printf("Audit log yazılamadı: %v\n", logErr)
	}

	notify.Send(siteIDForLog, tr.NotifyRole, "expense", exp.ID,
		fmt.Sprintf("Gider #%d: %s", exp.ID, tr.AuditAction))

	var cat models.ExpenseCategory
	database.DB.First(&cat, "id = ?", exp.CategoryID)

	return c.JSON(toExpenseResponse(*exp, cat.Name))
}

// POST /api/expenses/:id/approve
func ApproveExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		return transitionExpense(c, workflow.ActionApprove, "", func(e *models.Expense) {
			e.ApprovedBy = &userID
		})
	}
}

// POST /api/expenses/:id/reject
func RejectExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, _, err := getUserInfo(c)
		if err != nil {
			return err
		}
		return transitionExpense(c, workflow.ActionReject, "", func(e *models.Expense) {
			e.ApprovedBy = &userID
		})
	}
}

// POST /api/expenses/:id/request-correction
// Sadece approved durumundaki kayıt için düzeltme talebi açılabilir.
func RequestCorrectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RequestCorrectionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Reason = strings.TrimSpace(body.Reason)
		if body.Reason == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Düzeltme nedeni zorunlu")
		}

		return transitionExpense(c, workflow.ActionRequestCorrection, body.CorrectionType, func(e *models.Expense) {
			e.CorrectionReason = &body.Reason
		})
	}
}

// POST /api/expenses/:id/approve-correction
func ApproveCorrectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return transitionExpense(c, workflow.ActionApproveCorrection, "", nil)
	}
}

// POST /api/expenses/:id/reject-correction
// Kayıt approved'a döner, düzeltme nedeni temizlenir.
func RejectCorrectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return transitionExpense(c, workflow.ActionRejectCorrection, "", nil)
	}
}

// PUT /api/expenses/:id/complete-correction
// correction_approved durumundaki kayıt düzenlenir, approved'a döner ve
// is_correction=true işaretlenir. Alan bazlı öncesi/sonrası audit'e yazılır.
func CompleteCorrectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CompleteCorrectionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		exp, err := loadExpense(c)
		if err != nil {
			return err
		}

		userID, userName, role, err := getUserInfo(c)
		if err != nil {
			return err
		}

		tr, err := workflow.Resolve(exp.Status, workflow.ActionCompleteCorrection, role)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		before := expenseSnapshot(exp)

		if body.Date != nil {
			d, err := time.Parse("2006-01-02", *body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			exp.Date = d
		}
		if body.CategoryID != nil {
			var cat models.ExpenseCategory
			if err := database.DB.First(&cat, "id = ? AND site_id = ?", *body.CategoryID, exp.SiteID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
			exp.CategoryID = *body.CategoryID
		}
		if body.Amount != nil {
			if *body.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amount > 0 olmalı")
			}
			exp.Amount = *body.Amount
		}
		if body.TaxAmount != nil {
			exp.TaxAmount = *body.TaxAmount
		}
		if body.WithholdingAmount != nil {
			exp.WithholdingAmount = *body.WithholdingAmount
		}
		if body.Description != nil {
			exp.Description = *body.Description
		}

		exp.Status = tr.To
		exp.IsCorrection = true
		exp.CorrectionReason = nil

		if err := database.DB.Save(exp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gider güncellenemedi")
		}

		siteIDForLog := &exp.SiteID
		if logErr := audit.WriteLog(audit.LogOptions{
			SiteID:      siteIDForLog,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "expense",
			EntityID:    exp.ID,
			Action:      tr.AuditAction,
			Description: fmt.Sprintf("Gider #%d düzeltme ile güncellendi", exp.ID),
			Before:      before,
			After:       expenseSnapshot(exp),
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		notify.Send(siteIDForLog, tr.NotifyRole, "expense", exp.ID,
			fmt.Sprintf("Gider #%d düzeltme tamamlandı", exp.ID))

		var cat models.ExpenseCategory
		database.DB.First(&cat, "id = ?", exp.CategoryID)

		return c.JSON(toExpenseResponse(*exp, cat.Name))
	}
}

// POST /api/expenses/bulk-correction-request
// Günlük kota kontrolü, tüm satır güncellemeleri ve audit kayıtları tek
// transaction'da yürür; birinde hata olursa hiçbiri uygulanmaz.
func BulkCorrectionRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkCorrectionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Reason = strings.TrimSpace(body.Reason)
		if body.Reason == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Düzeltme nedeni zorunlu")
		}
		if len(body.ExpenseIDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir gider seçilmeli")
		}

		userID, userName, role, err := getUserInfo(c)
		if err != nil {
			return err
		}

		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		// Geçiş ve rol kontrolü tek seferde (tüm kayıtlar approved olmalı)
		tr, err := workflow.Resolve(models.StatusApproved, workflow.ActionRequestCorrection, role)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			// Kota: operatör rolü için günlük ortak limit. Sayım site başına
			// advisory lock ile serileştirilir, yazmalar aynı transaction'da kalır.
			if role == models.RoleOperator {
				used, err := workflow.CountTodayCorrectionRequests(tx, siteID)
				if err != nil {
					return fmt.Errorf("kota sayımı yapılamadı: %w", err)
				}
				if !workflow.QuotaAllows(len(body.ExpenseIDs), used) {
					return fmt.Errorf("günlük düzeltme talebi limiti aşıldı: bugün %d talep var, %d kayıt seçildi (limit %d)",
						used, len(body.ExpenseIDs), workflow.DailyCorrectionLimit)
				}
			}

			var expenses []models.Expense
			if err := tx.Where("id IN ? AND site_id = ?", body.ExpenseIDs, siteID).Find(&expenses).Error; err != nil {
				return fmt.Errorf("giderler yüklenemedi: %w", err)
			}
			if len(expenses) != len(body.ExpenseIDs) {
				return fmt.Errorf("seçilen %d kayıttan %d tanesi bulundu", len(body.ExpenseIDs), len(expenses))
			}

			for i := range expenses {
				exp := &expenses[i]
				if exp.Status != models.StatusApproved {
					return fmt.Errorf("gider #%d '%s' durumunda, düzeltme talebi açılamaz", exp.ID, exp.Status)
				}

				exp.Status = tr.To
				exp.CorrectionReason = &body.Reason
				if err := tx.Save(exp).Error; err != nil {
					return fmt.Errorf("gider #%d güncellenemedi: %w", exp.ID, err)
				}

				if err := audit.WriteLogTx(tx, audit.LogOptions{
					SiteID:         &exp.SiteID,
					UserID:         userID,
					UserName:       userName,
					EntityType:     "expense",
					EntityID:       exp.ID,
					Action:         tr.AuditAction,
					Description:    fmt.Sprintf("Toplu düzeltme talebi: %s", body.Reason),
					CorrectionType: body.CorrectionType,
				}); err != nil {
					return err
				}
			}

			return nil
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusBadRequest, txErr.Error())
		}

		notify.Send(&siteID, tr.NotifyRole, "expense", 0,
			fmt.Sprintf("%d gider için toplu düzeltme talebi açıldı", len(body.ExpenseIDs)))

		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("%d gider için düzeltme talebi açıldı", len(body.ExpenseIDs)),
			"count":   len(body.ExpenseIDs),
		})
	}
}

// PUT /api/expenses/:id
// Sayman/admin onaylı kaydı döngüye sokmadan doğrudan düzenler.
// Durum değişmez ama her müdahale audit'e yazılır.
func TreasurerEditHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TreasurerEditRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		exp, err := loadExpense(c)
		if err != nil {
			return err
		}

		if exp.Status != models.StatusApproved {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece onaylı kayıtlar doğrudan düzenlenebilir")
		}

		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		before := expenseSnapshot(exp)

		if body.Date != nil {
			d, err := time.Parse("2006-01-02", *body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			exp.Date = d
		}
		if body.CategoryID != nil {
			var cat models.ExpenseCategory
			if err := database.DB.First(&cat, "id = ? AND site_id = ?", *body.CategoryID, exp.SiteID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
			exp.CategoryID = *body.CategoryID
		}
		if body.Amount != nil {
			if *body.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amount > 0 olmalı")
			}
			exp.Amount = *body.Amount
		}
		if body.TaxAmount != nil {
			exp.TaxAmount = *body.TaxAmount
		}
		if body.WithholdingAmount != nil {
			exp.WithholdingAmount = *body.WithholdingAmount
		}
		if body.Description != nil {
			exp.Description = *body.Description
		}

		if err := database.DB.Save(exp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gider güncellenemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			SiteID:      &exp.SiteID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "expense",
			EntityID:    exp.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Gider #%d sayman tarafından düzenlendi", exp.ID),
			Before:      before,
			After:       expenseSnapshot(exp),
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		var cat models.ExpenseCategory
		database.DB.First(&cat, "id = ?", exp.CategoryID)

		return c.JSON(toExpenseResponse(*exp, cat.Name))
	}
}

// DELETE /api/expenses/:id
// Sadece admin. Durum makinesini atlar, kalıcı silme. Silme de audit'e yazılır.
func DeleteExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		exp, err := loadExpense(c)
		if err != nil {
			return err
		}

		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		before := expenseSnapshot(exp)

		if err := database.DB.Delete(&models.Expense{}, "id = ?", exp.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gider silinemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			SiteID:      &exp.SiteID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "expense",
			EntityID:    exp.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Gider #%d silindi", exp.ID),
			Before:      before,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
