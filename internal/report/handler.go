package report

import (
	"fmt"
	"time"

	"siteyonetim-backend/internal/auth"
	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type MonthlySummaryResponse struct {
	SiteID           uint               `json:"site_id"`
	Year             int                `json:"year"`
	Month            int                `json:"month"`
	TotalExpense     float64            `json:"total_expense"`
	TotalIncome      float64            `json:"total_income"`
	PettyCashIn      float64            `json:"petty_cash_in"`
	PettyCashOut     float64            `json:"petty_cash_out"`
	PettyCashNet     float64            `json:"petty_cash_net"`
	CamCharged       float64            `json:"cam_charged"`
	CamCollected     float64            `json:"cam_collected"`
	Net              float64            `json:"net"`
	ExpenseByCategory map[string]float64 `json:"expense_by_category"`
}

// computeTotals: tüm toplamlar yüklendikten sonra türetilen alanları doldurur.
func (r *MonthlySummaryResponse) computeTotals() {
	r.PettyCashNet = r.PettyCashIn - r.PettyCashOut
	r.Net = r.TotalIncome + r.CamCollected - r.TotalExpense
}

type ReconcileGap struct {
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	Month        int    `json:"month"`
}

type ReconcileResponse struct {
	SiteID    uint `json:"site_id"`
	Year      int  `json:"year"`
	LastMonth int  `json:"last_month"` // taranan son ay

	// Onaylı gideri olmayan aktif kategori × ay kombinasyonları
	MissingExpenses []ReconcileGap `json:"missing_expenses"`

	// Hiç onaylı kaydı olmayan aylar
	MissingIncomeMonths []Period `json:"missing_income_months"`
	MissingChargeMonths []Period `json:"missing_cam_charge_months"`
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

func parseYearMonth(c *fiber.Ctx) (int, int, error) {
	var year, month int
	if _, err := fmt.Sscan(c.Query("year"), &year); err != nil || year < 2000 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
	}
	if _, err := fmt.Sscan(c.Query("month"), &month); err != nil || month < 1 || month > 12 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "month geçersiz")
	}
	return year, month, nil
}

func monthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)
	return start, end
}

// buildMonthlySummary: dönem özeti. Sadece onaylı kayıtlar toplanır.
func buildMonthlySummary(siteID uint, year, month int) (MonthlySummaryResponse, error) {
	start, end := monthRange(year, month)

	resp := MonthlySummaryResponse{
		SiteID:           siteID,
		Year:             year,
		Month:            month,
		ExpenseByCategory: make(map[string]float64),
	}

	if err := database.DB.Model(&models.Expense{}).
		Where("site_id = ? AND status = ? AND date >= ? AND date < ?", siteID, models.StatusApproved, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&resp.TotalExpense).Error; err != nil {
		return resp, err
	}

	type catRow struct {
		Name  string  `gorm:"column:name"`
		Total float64 `gorm:"column:total"`
	}
	var catRows []catRow
	if err := database.DB.Model(&models.Expense{}).
		Select("expense_categories.name as name, SUM(expenses.amount) as total").
		Joins("JOIN expense_categories ON expense_categories.id = expenses.category_id").
		Where("expenses.site_id = ? AND expenses.status = ? AND expenses.date >= ? AND expenses.date < ?",
			siteID, models.StatusApproved, start, end).
		Group("expense_categories.name").
		Scan(&catRows).Error; err != nil {
		return resp, err
	}
	for _, r := range catRows {
		resp.ExpenseByCategory[r.Name] = r.Total
	}

	if err := database.DB.Model(&models.Income{}).
		Where("site_id = ? AND status = ? AND date >= ? AND date < ?", siteID, models.StatusApproved, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&resp.TotalIncome).Error; err != nil {
		return resp, err
	}

	if err := database.DB.Model(&models.PettyCashEntry{}).
		Where("site_id = ? AND status = ? AND direction = ? AND date >= ? AND date < ?",
			siteID, models.StatusApproved, models.PettyCashIn, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&resp.PettyCashIn).Error; err != nil {
		return resp, err
	}
	if err := database.DB.Model(&models.PettyCashEntry{}).
		Where("site_id = ? AND status = ? AND direction = ? AND date >= ? AND date < ?",
			siteID, models.StatusApproved, models.PettyCashOut, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&resp.PettyCashOut).Error; err != nil {
		return resp, err
	}

	if err := database.DB.Model(&models.CamCharge{}).
		Where("site_id = ? AND status = ? AND year = ? AND month = ?", siteID, models.StatusApproved, year, month).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&resp.CamCharged).Error; err != nil {
		return resp, err
	}
	if err := database.DB.Model(&models.CamPayment{}).
		Where("site_id = ? AND date >= ? AND date < ?", siteID, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&resp.CamCollected).Error; err != nil {
		return resp, err
	}

	resp.computeTotals()
	return resp, nil
}

// GET /api/reports/monthly-summary?year=2025&month=12[&site_id=1]
func MonthlySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		year, month, err := parseYearMonth(c)
		if err != nil {
			return err
		}

		resp, err := buildMonthlySummary(siteID, year, month)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		return c.JSON(resp)
	}
}

// GET /api/reports/reconcile?year=2025[&site_id=1]
// Eksik veri taraması: yılın geçmiş ayları içinde onaylı gideri olmayan
// aktif kategori × ay kombinasyonlarını, ayrıca hiç onaylı gelir veya
// aidat tahakkuku olmayan ayları döner.
func ReconcileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var year int
		if _, err := fmt.Sscan(c.Query("year"), &year); err != nil || year < 2000 {
			return fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
		}

		now := time.Now()
		lastMonth := 12
		if year == now.Year() {
			lastMonth = int(now.Month())
		} else if year > now.Year() {
			return fiber.NewError(fiber.StatusBadRequest, "Gelecek yıl taranamaz")
		}

		// Aktif gider kategorileri
		var cats []models.ExpenseCategory
		if err := database.DB.
			Where("site_id = ? AND is_active = ?", siteID, true).
			Order("name asc").
			Find(&cats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler yüklenemedi")
		}

		catIDs := make([]uint, 0, len(cats))
		nameMap := make(map[uint]string, len(cats))
		for _, cat := range cats {
			catIDs = append(catIDs, cat.ID)
			nameMap[cat.ID] = cat.Name
		}

		// Onaylı gideri olan (kategori, ay) kombinasyonları
		type catMonthRow struct {
			CategoryID uint `gorm:"column:category_id"`
			Month      int  `gorm:"column:m"`
		}
		var catRows []catMonthRow
		if err := database.DB.Model(&models.Expense{}).
			Select("category_id, EXTRACT(MONTH FROM date)::int as m").
			Where("site_id = ? AND status = ? AND EXTRACT(YEAR FROM date) = ?", siteID, models.StatusApproved, year).
			Group("category_id, m").
			Scan(&catRows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gider dönemleri yüklenemedi")
		}

		present := make(map[CategoryMonth]bool, len(catRows))
		for _, r := range catRows {
			present[CategoryMonth{CategoryID: r.CategoryID, Month: r.Month}] = true
		}

		gaps := MissingCategoryMonths(ExpectedCategoryMonths(catIDs, lastMonth), present)
		missingExpenses := make([]ReconcileGap, 0, len(gaps))
		for _, g := range gaps {
			missingExpenses = append(missingExpenses, ReconcileGap{
				CategoryID:   g.CategoryID,
				CategoryName: nameMap[g.CategoryID],
				Month:        g.Month,
			})
		}

		expected := PeriodsBetween(Period{Year: year, Month: 1}, Period{Year: year, Month: lastMonth})

		// Onaylı geliri olan aylar
		type monthRow struct {
			Month int `gorm:"column:m"`
		}
		var incomeRows []monthRow
		if err := database.DB.Model(&models.Income{}).
			Select("EXTRACT(MONTH FROM date)::int as m").
			Where("site_id = ? AND status = ? AND EXTRACT(YEAR FROM date) = ?", siteID, models.StatusApproved, year).
			Group("m").
			Scan(&incomeRows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gelir dönemleri yüklenemedi")
		}
		incomePresent := make(map[Period]bool, len(incomeRows))
		for _, r := range incomeRows {
			incomePresent[Period{Year: year, Month: r.Month}] = true
		}

		// Onaylı tahakkuku olan aylar
		var chargeRows []monthRow
		if err := database.DB.Model(&models.CamCharge{}).
			Select("month as m").
			Where("site_id = ? AND status = ? AND year = ?", siteID, models.StatusApproved, year).
			Group("month").
			Scan(&chargeRows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahakkuk dönemleri yüklenemedi")
		}
		chargePresent := make(map[Period]bool, len(chargeRows))
		for _, r := range chargeRows {
			chargePresent[Period{Year: year, Month: r.Month}] = true
		}

		return c.JSON(ReconcileResponse{
			SiteID:              siteID,
			Year:                year,
			LastMonth:           lastMonth,
			MissingExpenses:     missingExpenses,
			MissingIncomeMonths: MissingPeriods(expected, incomePresent),
			MissingChargeMonths: MissingPeriods(expected, chargePresent),
		})
	}
}
