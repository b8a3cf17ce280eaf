package pettycash

import (
	"fmt"
	"time"

	"siteyonetim-backend/internal/audit"
	"siteyonetim-backend/internal/auth"
	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"
	"siteyonetim-backend/internal/notify"
	"siteyonetim-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

type CreatePettyCashRequest struct {
	Date        *string                   `json:"date"` // "2025-12-09" formatında, boşsa bugün
	Direction   models.PettyCashDirection `json:"direction"`
	Amount      float64                   `json:"amount"`
	Description string                    `json:"description"`
	SiteID      *uint                     `json:"site_id"` // admin için opsiyonel
}

type PettyCashResponse struct {
	ID          uint                      `json:"id"`
	SiteID      uint                      `json:"site_id"`
	Date        string                    `json:"date"`
	Direction   models.PettyCashDirection `json:"direction"`
	Amount      float64                   `json:"amount"`
	Description string                    `json:"description"`
	Status      models.RecordStatus       `json:"status"`
	ApprovedBy  *uint                     `json:"approved_by"`
}

type PettyCashBalanceResponse struct {
	SiteID   uint    `json:"site_id"`
	TotalIn  float64 `json:"total_in"`
	TotalOut float64 `json:"total_out"`
	Balance  float64 `json:"balance"`
}

func toPettyCashResponse(e models.PettyCashEntry) PettyCashResponse {
	return PettyCashResponse{
		ID:          e.ID,
		SiteID:      e.SiteID,
		Date:        e.Date.Format("2006-01-02"),
		Direction:   e.Direction,
		Amount:      e.Amount,
		Description: e.Description,
		Status:      e.Status,
		ApprovedBy:  e.ApprovedBy,
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

// POST /api/petty-cash
func CreatePettyCashHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePettyCashRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Direction != models.PettyCashIn && body.Direction != models.PettyCashOut {
			return fiber.NewError(fiber.StatusBadRequest, "direction 'in' veya 'out' olmalı")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount > 0 olmalı")
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

		// Tarih: boşsa bugün
		d := time.Now()
		if body.Date != nil && *body.Date != "" {
			parsed, err := time.Parse("2006-01-02", *body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			d = parsed
		}

		entry := models.PettyCashEntry{
			SiteID:      siteID,
			Date:        d,
			Direction:   body.Direction,
			Amount:      body.Amount,
			Description: body.Description,
			Status:      tr.To,
			CreatedBy:   userID,
		}

		if err := database.DB.Create(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kasa hareketi kaydedilemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			SiteID:      &entry.SiteID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "petty_cash_entry",
			EntityID:    entry.ID,
			Action:      tr.AuditAction,
			Description: fmt.Sprintf("Kasa hareketi girildi (%s): %.2f TL", entry.Direction, entry.Amount),
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		notify.Send(&entry.SiteID, tr.NotifyRole, "petty_cash_entry", entry.ID,
			fmt.Sprintf("Onay bekleyen kasa hareketi: %.2f TL", entry.Amount))

		return c.Status(fiber.StatusCreated).JSON(toPettyCashResponse(entry))
	}
}

// GET /api/petty-cash?from=...&to=...&status=...&site_id=...
func ListPettyCashHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.PettyCashEntry{}).Where("site_id = ?", siteID)

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

		var rows []models.PettyCashEntry
		if err := dbq.Order("date asc, id asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kasa hareketleri listelenemedi")
		}

		resp := make([]PettyCashResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toPettyCashResponse(r))
		}

		return c.JSON(resp)
	}
}

// transitionPettyCash: geçiş tablosuna danışıp kasa hareketini günceller.
func transitionPettyCash(c *fiber.Ctx, action workflow.Action) error {
	idStr := c.Params("id")
	var id uint
	if _, err := fmt.Sscan(idStr, &id); err != nil || id == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kayıt ID")
	}

	var entry models.PettyCashEntry
	if err := database.DB.First(&entry, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Kasa hareketi bulunamadı")
	}

	userID, userName, role, err := getUserInfo(c)
	if err != nil {
		return err
	}

	if role != models.RoleAdmin {
		sVal := c.Locals(auth.CtxSiteIDKey)
		sPtr, ok := sVal.(*uint)
		if !ok || sPtr == nil || *sPtr != entry.SiteID {
			return fiber.NewError(fiber.StatusForbidden, "Sadece kendi sitenizdeki kayıtlara erişebilirsiniz")
		}
	}

	tr, err := workflow.Resolve(entry.Status, action, role)
	if err != nil {
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}

	entry.Status = tr.To
	entry.ApprovedBy = &userID

	if err := database.DB.Save(&entry).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Kasa hareketi güncellenemedi")
	}

	if logErr := audit.WriteLog(audit.LogOptions{
		SiteID:      &entry.SiteID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  "petty_cash_entry",
		EntityID:    entry.ID,
		Action:      tr.AuditAction,
		Description: fmt.Sprintf("Kasa hareketi #%d: %s", entry.ID, tr.AuditAction),
	}); logErr != nil {
		fmt.Printf("Audit log yazılamadı: %v\n", logErr)
	}

	notify.Send(&entry.SiteID, tr.NotifyRole, "petty_cash_entry", entry.ID,
		fmt.Sprintf("Kasa hareketi #%d: %s", entry.ID, tr.AuditAction))

	return c.JSON(toPettyCashResponse(entry))
}

// POST /api/petty-cash/:id/approve
func ApprovePettyCashHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return transitionPettyCash(c, workflow.ActionApprove)
	}
}

// POST /api/petty-cash/:id/reject
func RejectPettyCashHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return transitionPettyCash(c, workflow.ActionReject)
	}
}

// GET /api/petty-cash/balance?site_id=1
// Onaylı hareketler üzerinden kasa bakiyesi.
func PettyCashBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		type row struct {
			Direction string  `gorm:"column:direction"`
			Total     float64 `gorm:"column:total"`
		}
		var rows []row

		if err := database.DB.
			Model(&models.PettyCashEntry{}).
			Select("direction, SUM(amount) as total").
			Where("site_id = ? AND status = ?", siteID, models.StatusApproved).
			Group("direction").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bakiye hesaplanamadı")
		}

		resp := PettyCashBalanceResponse{SiteID: siteID}
		for _, r := range rows {
			switch models.PettyCashDirection(r.Direction) {
			case models.PettyCashIn:
				resp.TotalIn = r.Total
			case models.PettyCashOut:
				resp.TotalOut = r.Total
			}
		}
		resp.Balance = resp.TotalIn - resp.TotalOut

		return c.JSON(resp)
	}
}
