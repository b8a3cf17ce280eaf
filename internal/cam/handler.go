package cam

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
	"gorm.io/gorm"
)

type UnitResponse struct {
	ID        uint   `json:"id"`
	SiteID    uint   `json:"site_id"`
	Block     string `json:"block"`
	Number    string `json:"number"`
	OwnerName string `json:"owner_name"`
	Phone     string `json:"phone"`
}

type CreateUnitRequest struct {
	SiteID    *uint  `json:"site_id"`
	Block     string `json:"block"`
	Number    string `json:"number"`
	OwnerName string `json:"owner_name"`
	Phone     string `json:"phone"`
}

type UpdateUnitRequest struct {
	Block     *string `json:"block"`
	Number    *string `json:"number"`
	OwnerName *string `json:"owner_name"`
	Phone     *string `json:"phone"`
}

type GenerateChargesRequest struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	SiteID      *uint   `json:"site_id"`
}

type CreateChargeRequest struct {
	UnitID      uint    `json:"unit_id"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	SiteID      *uint   `json:"site_id"`
}

type ChargeResponse struct {
	ID          uint                `json:"id"`
	SiteID      uint                `json:"site_id"`
	UnitID      uint                `json:"unit_id"`
	Unit        string              `json:"unit"`
	Year        int                 `json:"year"`
	Month       int                 `json:"month"`
	Amount      float64             `json:"amount"`
	Description string              `json:"description"`
	Status      models.RecordStatus `json:"status"`
}

type CreatePaymentRequest struct {
	ChargeID    uint                    `json:"charge_id"`
	Date        string                  `json:"date"`
	Amount      float64                 `json:"amount"`
	Method      models.CamPaymentMethod `json:"method"`
	Description string                  `json:"description"`
}

type PaymentResponse struct {
	ID          uint                    `json:"id"`
	SiteID      uint                    `json:"site_id"`
	ChargeID    uint                    `json:"charge_id"`
	Date        string                  `json:"date"`
	Amount      float64                 `json:"amount"`
	Method      models.CamPaymentMethod `json:"method"`
	Description string                  `json:"description"`
}

type CollectionStatusItem struct {
	UnitID      uint    `json:"unit_id"`
	Unit        string  `json:"unit"`
	OwnerName   string  `json:"owner_name"`
	Charged     float64 `json:"charged"`
	Paid        float64 `json:"paid"`
	Outstanding float64 `json:"outstanding"`
}

type CollectionStatusResponse struct {
	SiteID           uint                   `json:"site_id"`
	Year             int                    `json:"year"`
	Month            int                    `json:"month"`
	Items            []CollectionStatusItem `json:"items"`
	TotalCharged     float64                `json:"total_charged"`
	TotalPaid        float64                `json:"total_paid"`
	TotalOutstanding float64                `json:"total_outstanding"`
	CollectionRate   float64                `json:"collection_rate"` // 0-100
}

func unitLabel(u models.Unit) string {
	if u.Block != "" {
		return u.Block + "-" + u.Number
	}
	return u.Number
}

// siteAccessAllowed: admin her siteye, diğer roller sadece kendi sitesine erişir.
func siteAccessAllowed(role models.UserRole, sitePtr *uint, recordSiteID uint) bool {
	if role == models.RoleAdmin {
		return true
	}
	return sitePtr != nil && *sitePtr == recordSiteID
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
// Bağımsız bölüm (Unit) CRUD
// -------------------------

// POST /api/units
func CreateUnitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUnitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Number = strings.TrimSpace(body.Number)
		body.OwnerName = strings.TrimSpace(body.OwnerName)
		if body.Number == "" || body.OwnerName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Daire no ve malik adı zorunlu")
		}

		siteID, err := resolveSiteIDFromBodyOrRole(c, body.SiteID)
		if err != nil {
			return err
		}

		unit := models.Unit{
			SiteID:    siteID,
			Block:     strings.TrimSpace(body.Block),
			Number:    body.Number,
			OwnerName: body.OwnerName,
			Phone:     strings.TrimSpace(body.Phone),
		}

		if err := database.DB.Create(&unit).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bağımsız bölüm oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(UnitResponse{
			ID:        unit.ID,
			SiteID:    unit.SiteID,
			Block:     unit.Block,
			Number:    unit.Number,
			OwnerName: unit.OwnerName,
			Phone:     unit.Phone,
		})
	}
}

// GET /api/units
func ListUnitsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var units []models.Unit
		if err := database.DB.Where("site_id = ?", siteID).Order("block asc, number asc").Find(&units).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bağımsız bölümler listelenemedi")
		}

		res := make([]UnitResponse, 0, len(units))
		for _, u := range units {
			res = append(res, UnitResponse{
				ID:        u.ID,
				SiteID:    u.SiteID,
				Block:     u.Block,
				Number:    u.Number,
				OwnerName: u.OwnerName,
				Phone:     u.Phone,
			})
		}
		return c.JSON(res)
	}
}

// PUT /api/units/:id
func UpdateUnitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var unit models.Unit
		if err := database.DB.First(&unit, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bağımsız bölüm bulunamadı")
		}

		var body UpdateUnitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Block != nil {
			unit.Block = strings.TrimSpace(*body.Block)
		}
		if body.Number != nil {
			n := strings.TrimSpace(*body.Number)
			if n == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Daire no boş olamaz")
			}
			unit.Number = n
		}
		if body.OwnerName != nil {
			n := strings.TrimSpace(*body.OwnerName)
			if n == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Malik adı boş olamaz")
			}
			unit.OwnerName = n
		}
		if body.Phone != nil {
			unit.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Save(&unit).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bağımsız bölüm güncellenemedi")
		}

		return c.JSON(UnitResponse{
			ID:        unit.ID,
			SiteID:    unit.SiteID,
			Block:     unit.Block,
			Number:    unit.Number,
			OwnerName: unit.OwnerName,
			Phone:     unit.Phone,
		})
	}
}

// DELETE /api/units/:id (admin)
func DeleteUnitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		if err := database.DB.Delete(&models.Unit{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bağımsız bölüm silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Aidat tahakkuku
// -------------------------

// POST /api/cam-charges/generate  (treasurer/admin)
// Sitedeki tüm bağımsız bölümler için dönem tahakkuku oluşturur.
// Aynı (unit, year, month) için tekrar çalıştırmak mevcut tahakkuku atlar.
func GenerateChargesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body GenerateChargesRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Year < 2000 || body.Month < 1 || body.Month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month geçersiz")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount > 0 olmalı")
		}

		siteID, err := resolveSiteIDFromBodyOrRole(c, body.SiteID)
		if err != nil {
			return err
		}

		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var units []models.Unit
		if err := database.DB.Where("site_id = ?", siteID).Find(&units).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bağımsız bölümler yüklenemedi")
		}
		if len(units) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sitede kayıtlı bağımsız bölüm yok")
		}

		created := 0
		skipped := 0

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			for _, u := range units {
				var count int64
				if err := tx.Model(&models.CamCharge{}).
					Where("unit_id = ? AND year = ? AND month = ?", u.ID, body.Year, body.Month).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					skipped++
					continue
				}

				charge := models.CamCharge{
					SiteID:      siteID,
					UnitID:      u.ID,
					Year:        body.Year,
					Month:       body.Month,
					Amount:      body.Amount,
					Description: body.Description,
					Status:      models.StatusApproved, // sayman tahakkuku doğrudan onaylıdır
					CreatedBy:   userID,
					ApprovedBy:  &userID,
				}
				if err := tx.Create(&charge).Error; err != nil {
					return err
				}

				if err := audit.WriteLogTx(tx, audit.LogOptions{
					SiteID:      &siteID,
					UserID:      userID,
					UserName:    userName,
					EntityType:  "cam_charge",
					EntityID:    charge.ID,
					Action:      models.AuditActionCreate,
					Description: fmt.Sprintf("Aidat tahakkuku: %s %d/%d - %.2f TL", unitLabel(u), body.Month, body.Year, body.Amount),
				}); err != nil {
					return err
				}

				created++
			}
			return nil
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahakkuk oluşturulamadı: "+txErr.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"created": created,
			"skipped": skipped,
			"year":    body.Year,
			"month":   body.Month,
		})
	}
}

// POST /api/cam-charges
// Tekil tahakkuk onay akışından geçer (pending olarak açılır).
func CreateChargeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateChargeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.UnitID == 0 || body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "unit_id ve amount zorunlu, amount > 0 olmalı")
		}
		if body.Year < 2000 || body.Month < 1 || body.Month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month geçersiz")
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

		var unit models.Unit
		if err := database.DB.First(&unit, "id = ? AND site_id = ?", body.UnitID, siteID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bağımsız bölüm bulunamadı")
		}

		var count int64
		database.DB.Model(&models.CamCharge{}).
			Where("unit_id = ? AND year = ? AND month = ?", body.UnitID, body.Year, body.Month).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu dönem için tahakkuk zaten var")
		}

		charge := models.CamCharge{
			SiteID:      siteID,
			UnitID:      body.UnitID,
			Year:        body.Year,
			Month:       body.Month,
			Amount:      body.Amount,
			Description: body.Description,
			Status:      tr.To,
			CreatedBy:   userID,
		}

		if err := database.DB.Create(&charge).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahakkuk kaydedilemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			SiteID:      &charge.SiteID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "cam_charge",
			EntityID:    charge.ID,
			Action:      tr.AuditAction,
			Description: fmt.Sprintf("Aidat tahakkuku girildi: %s %d/%d - %.2f TL", unitLabel(unit), body.Month, body.Year, body.Amount),
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		notify.Send(&charge.SiteID, tr.NotifyRole, "cam_charge", charge.ID,
			fmt.Sprintf("Onay bekleyen aidat tahakkuku: %s - %.2f TL", unitLabel(unit), charge.Amount))

		return c.Status(fiber.StatusCreated).JSON(ChargeResponse{
			ID:          charge.ID,
			SiteID:      charge.SiteID,
			UnitID:      charge.UnitID,
			Unit:        unitLabel(unit),
			Year:        charge.Year,
			Month:       charge.Month,
			Amount:      charge.Amount,
			Description: charge.Description,
			Status:      charge.Status,
		})
	}
}

// GET /api/cam-charges?year=&month=&unit_id=&status=&site_id=
func ListChargesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.CamCharge{}).
			Preload("Unit").
			Where("site_id = ?", siteID)

		if yStr := c.Query("year"); yStr != "" {
			var y int
			if _, err := fmt.Sscan(yStr, &y); err != nil || y < 2000 {
				return fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
			}
			dbq = dbq.Where("year = ?", y)
		}
		if mStr := c.Query("month"); mStr != "" {
			var m int
			if _, err := fmt.Sscan(mStr, &m); err != nil || m < 1 || m > 12 {
				return fiber.NewError(fiber.StatusBadRequest, "month geçersiz")
			}
			dbq = dbq.Where("month = ?", m)
		}
		if uStr := c.Query("unit_id"); uStr != "" {
			var uid uint
			if _, err := fmt.Sscan(uStr, &uid); err != nil || uid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "unit_id geçersiz")
			}
			dbq = dbq.Where("unit_id = ?", uid)
		}
		if statusStr := c.Query("status"); statusStr != "" {
			status := models.RecordStatus(statusStr)
			if !status.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "status geçersiz")
			}
			dbq = dbq.Where("status = ?", status)
		}

		var rows []models.CamCharge
		if err := dbq.Order("year asc, month asc, unit_id asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahakkuklar listelenemedi")
		}

		resp := make([]ChargeResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, ChargeResponse{
				ID:          r.ID,
				SiteID:      r.SiteID,
				UnitID:      r.UnitID,
				Unit:        unitLabel(r.Unit),
				Year:        r.Year,
				Month:       r.Month,
				Amount:      r.Amount,
				Description: r.Description,
				Status:      r.Status,
			})
		}

		return c.JSON(resp)
	}
}

// transitionCharge: geçiş tablosuna danışıp tahakkuku günceller.
func transitionCharge(c *fiber.Ctx, action workflow.Action) error {
	idStr := c.Params("id")
	var id uint
	if _, err := fmt.Sscan(idStr, &id); err != nil || id == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tahakkuk ID")
	}

	var charge models.CamCharge
	if err := database.DB.Preload("Unit").First(&charge, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Tahakkuk bulunamadı")
	}

	userID, userName, role, err := getUserInfo(c)
	if err != nil {
		return err
	}

	sPtr, _ := c.Locals(auth.CtxSiteIDKey).(*uint)
	if !siteAccessAllowed(role, sPtr, charge.SiteID) {
		return fiber.NewError(fiber.StatusForbidden, "Sadece kendi sitenizdeki kayıtlara erişebilirsiniz")
	}

	tr, err := workflow.Resolve(charge.Status, action, role)
	if err != nil {
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}

	charge.Status = tr.To
	charge.ApprovedBy = &userID

	if err := database.DB.Save(&charge).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Tahakkuk güncellenemedi")
	}

	if logErr := audit.WriteLog(audit.LogOptions{
		SiteID:      &charge.SiteID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  "cam_charge",
		EntityID:    charge.ID,
		Action:      tr.AuditAction,
		Description: fmt.Sprintf("Aidat tahakkuku #%d: %s", charge.ID, tr.AuditAction),
	}); logErr != nil {
		fmt.Printf("Audit log yazılamadı: %v\n", logErr)
	}

	notify.Send(&charge.SiteID, tr.NotifyRole, "cam_charge", charge.ID,
		fmt.Sprintf("Aidat tahakkuku #%d: %s", charge.ID, tr.AuditAction))

	return c.JSON(ChargeResponse{
		ID:          charge.ID,
		SiteID:      charge.SiteID,
		UnitID:      charge.UnitID,
		Unit:        unitLabel(charge.Unit),
		Year:        charge.Year,
		Month:       charge.Month,
		Amount:      charge.Amount,
		Description: charge.Description,
		Status:      charge.Status,
	})
}

// POST /api/cam-charges/:id/approve
func ApproveChargeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return transitionCharge(c, workflow.ActionApprove)
	}
}

// POST /api/cam-charges/:id/reject
func RejectChargeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return transitionCharge(c, workflow.ActionReject)
	}
}

// -------------------------
// Aidat tahsilatı
// -------------------------

// POST /api/cam-payments
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.ChargeID == 0 || body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "charge_id ve amount zorunlu, amount > 0 olmalı")
		}
		if body.Method != models.CamPaymentCash && body.Method != models.CamPaymentBank {
			return fiber.NewError(fiber.StatusBadRequest, "method 'cash' veya 'bank' olmalı")
		}

		userID, userName, role, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var charge models.CamCharge
		if err := database.DB.Preload("Unit").First(&charge, "id = ?", body.ChargeID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tahakkuk bulunamadı")
		}

		sPtr, _ := c.Locals(auth.CtxSiteIDKey).(*uint)
		if !siteAccessAllowed(role, sPtr, charge.SiteID) {
			return fiber.NewError(fiber.StatusForbidden, "Sadece kendi sitenizdeki kayıtlara erişebilirsiniz")
		}

		if charge.Status != models.StatusApproved {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece onaylı tahakkuka tahsilat girilebilir")
		}

		// Fazla tahsilatı engelle
		var paid float64
		database.DB.Model(&models.CamPayment{}).
			Where("charge_id = ?", charge.ID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&paid)
		if paid+body.Amount > charge.Amount {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Tahsilat tahakkuku aşıyor: kalan %.2f TL", charge.Amount-paid))
		}

		d, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		payment := models.CamPayment{
			SiteID:      charge.SiteID,
			ChargeID:    charge.ID,
			Date:        d,
			Amount:      body.Amount,
			Method:      body.Method,
			Description: body.Description,
			CreatedBy:   userID,
		}

		if err := database.DB.Create(&payment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahsilat kaydedilemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			SiteID:      &payment.SiteID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  "cam_payment",
			EntityID:    payment.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Aidat tahsilatı: %s - %.2f TL", unitLabel(charge.Unit), payment.Amount),
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(PaymentResponse{
			ID:          payment.ID,
			SiteID:      payment.SiteID,
			ChargeID:    payment.ChargeID,
			Date:        payment.Date.Format("2006-01-02"),
			Amount:      payment.Amount,
			Method:      payment.Method,
			Description: payment.Description,
		})
	}
}

// GET /api/cam-payments?charge_id=&from=&to=&site_id=
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.CamPayment{}).Where("site_id = ?", siteID)

		if cStr := c.Query("charge_id"); cStr != "" {
			var cid uint
			if _, err := fmt.Sscan(cStr, &cid); err != nil || cid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "charge_id geçersiz")
			}
			dbq = dbq.Where("charge_id = ?", cid)
		}
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

		var rows []models.CamPayment
		if err := dbq.Order("date asc, id asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahsilatlar listelenemedi")
		}

		resp := make([]PaymentResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, PaymentResponse{
				ID:          r.ID,
				SiteID:      r.SiteID,
				ChargeID:    r.ChargeID,
				Date:        r.Date.Format("2006-01-02"),
				Amount:      r.Amount,
				Method:      r.Method,
				Description: r.Description,
			})
		}

		return c.JSON(resp)
	}
}

// GET /api/cam-charges/collection-status?year=2025&month=12[&site_id=1]
// Dönem bazında daire daire tahakkuk/tahsilat/bakiye dökümü.
func CollectionStatusHandler() fiber.Handler {
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

		var charges []models.CamCharge
		if err := database.DB.Preload("Unit").
			Where("site_id = ? AND year = ? AND month = ? AND status = ?", siteID, year, month, models.StatusApproved).
			Order("unit_id asc").
			Find(&charges).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahakkuklar yüklenemedi")
		}

		// Tahsilat toplamları
		type paidRow struct {
			ChargeID uint    `gorm:"column:charge_id"`
			Total    float64 `gorm:"column:total"`
		}
		var paidRows []paidRow
		if len(charges) > 0 {
			ids := make([]uint, 0, len(charges))
			for _, ch := range charges {
				ids = append(ids, ch.ID)
			}
			if err := database.DB.Model(&models.CamPayment{}).
				Select("charge_id, SUM(amount) as total").
				Where("charge_id IN ?", ids).
				Group("charge_id").
				Scan(&paidRows).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Tahsilatlar yüklenemedi")
			}
		}

		paidMap := make(map[uint]float64)
		for _, r := range paidRows {
			paidMap[r.ChargeID] = r.Total
		}

		resp := CollectionStatusResponse{
			SiteID: siteID,
			Year:   year,
			Month:  month,
			Items:  make([]CollectionStatusItem, 0, len(charges)),
		}

		for _, ch := range charges {
			paid := paidMap[ch.ID]
			item := CollectionStatusItem{
				UnitID:      ch.UnitID,
				Unit:        unitLabel(ch.Unit),
				OwnerName:   ch.Unit.OwnerName,
				Charged:     ch.Amount,
				Paid:        paid,
				Outstanding: ch.Amount - paid,
			}
			resp.Items = append(resp.Items, item)
			resp.TotalCharged += item.Charged
			resp.TotalPaid += item.Paid
			resp.TotalOutstanding += item.Outstanding
		}

		if resp.TotalCharged > 0 {
			resp.CollectionRate = resp.TotalPaid / resp.TotalCharged * 100
		}

		return c.JSON(resp)
	}
}
