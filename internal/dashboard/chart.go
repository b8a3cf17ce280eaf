package dashboard

import (
	"fmt"
	"time"

	"siteyonetim-backend/internal/auth"
	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type FinanceChartPoint struct {
	Label        string  `json:"label"` // ay başlangıcı
	Income       float64 `json:"income"`
	CamCollected float64 `json:"cam_collected"`
	Expense      float64 `json:"expense"`
	Net          float64 `json:"net"`
}

type FinanceChartTotals struct {
	Income       float64 `json:"income"`
	CamCollected float64 `json:"cam_collected"`
	Expense      float64 `json:"expense"`
	Net          float64 `json:"net"`
}

type FinanceChartResponse struct {
	SiteID      uint                `json:"site_id"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	Points      []FinanceChartPoint `json:"points"`
	GrandTotals FinanceChartTotals  `json:"grand_totals"`
}

// context'ten site id çıkar (site personeli için JWT, admin için query param)
// admin için ?site_id=1 zorunlu
func getSiteIDFromContext(c *fiber.Ctx) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role != models.RoleAdmin {
		siteIDVal := c.Locals(auth.CtxSiteIDKey)
		siteIDPtr, ok := siteIDVal.(*uint)
		if !ok || siteIDPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Site bilgisi bulunamadı")
		}
		return *siteIDPtr, nil
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

// GET /api/dashboard/finance-chart?count=12&site_id=1
// Ay bazında onaylı gelir/gider ve aidat tahsilatı serisi.
func FinanceChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := getSiteIDFromContext(c)
		if err != nil {
			return err
		}

		count := 12
		if countStr := c.Query("count", ""); countStr != "" {
			if _, err := fmt.Sscan(countStr, &count); err != nil || count <= 0 || count > 60 {
				return fiber.NewError(fiber.StatusBadRequest, "count geçersiz")
			}
		}

		now := time.Now()
		loc := now.Location()
		// içinde bulunulan ayın başı
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		start := monthStart.AddDate(0, -(count - 1), 0)
		end := monthStart.AddDate(0, 1, 0)

		type row struct {
			Bucket time.Time `gorm:"column:bucket"`
			Total  float64   `gorm:"column:total"`
		}

		collect := func(sql string) ([]row, error) {
			var rows []row
			err := database.DB.Raw(sql, siteID, start, end).Scan(&rows).Error
			return rows, err
		}

		incomeRows, err := collect(`
			SELECT date_trunc('month', date)::date AS bucket,
				   SUM(amount) AS total
			FROM incomes
			WHERE site_id = ? AND status = 'approved' AND date >= ? AND date < ?
			GROUP BY bucket
			ORDER BY bucket ASC;
		`)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gelir verisi toplanırken hata oluştu")
		}

		expenseRows, err := collect(`
			SELECT date_trunc('month', date)::date AS bucket,
				   SUM(amount) AS total
			FROM expenses
			WHERE site_id = ? AND status = 'approved' AND date >= ? AND date < ?
			GROUP BY bucket
			ORDER BY bucket ASC;
		`)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gider verisi toplanırken hata oluştu")
		}

		paymentRows, err := collect(`
			SELECT date_trunc('month', date)::date AS bucket,
				   SUM(amount) AS total
			FROM cam_payments
			WHERE site_id = ? AND date >= ? AND date < ?
			GROUP BY bucket
			ORDER BY bucket ASC;
		`)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahsilat verisi toplanırken hata oluştu")
		}

		type bucketAgg struct {
			Income       float64
			CamCollected float64
			Expense      float64
		}
		buckets := make(map[time.Time]*bucketAgg)
		get := func(t time.Time) *bucketAgg {
			agg, ok := buckets[t]
			if !ok {
				agg = &bucketAgg{}
				buckets[t] = agg
			}
			return agg
		}
		for _, r := range incomeRows {
			get(r.Bucket).Income += r.Total
		}
		for _, r := range expenseRows {
			get(r.Bucket).Expense += r.Total
		}
		for _, r := range paymentRows {
			get(r.Bucket).CamCollected += r.Total
		}

		// boş aylar da seride yer alır
		points := make([]FinanceChartPoint, 0, count)
		grand := FinanceChartTotals{}

		for m := start; m.Before(end); m = m.AddDate(0, 1, 0) {
			agg := bucketAgg{}
			for bucket, v := range buckets {
				if bucket.Year() == m.Year() && bucket.Month() == m.Month() {
					agg = *v
					break
				}
			}

			net := agg.Income + agg.CamCollected - agg.Expense
			points = append(points, FinanceChartPoint{
				Label:        m.Format("2006-01"),
				Income:       agg.Income,
				CamCollected: agg.CamCollected,
				Expense:      agg.Expense,
				Net:          net,
			})

			grand.Income += agg.Income
			grand.CamCollected += agg.CamCollected
			grand.Expense += agg.Expense
			grand.Net += net
		}

		return c.JSON(FinanceChartResponse{
			SiteID:      siteID,
			From:        start.Format("2006-01-02"),
			To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
			Points:      points,
			GrandTotals: grand,
		})
	}
}
