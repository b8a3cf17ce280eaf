package report

import (
	"fmt"
	"time"

	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

var monthNames = [...]string{"", "Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"}

// GET /api/reports/monthly-summary/export?year=2025&month=12[&site_id=1]
// Dönem raporunu XLSX olarak indirir.
func ExportMonthlySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		year, month, err := parseYearMonth(c)
		if err != nil {
			return err
		}

		summary, err := buildMonthlySummary(siteID, year, month)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		start, end := monthRange(year, month)

		var expenses []models.Expense
		if err := database.DB.Preload("Category").
			Where("site_id = ? AND status = ? AND date >= ? AND date < ?", siteID, models.StatusApproved, start, end).
			Order("date asc, id asc").
			Find(&expenses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Giderler yüklenemedi")
		}

		var incomes []models.Income
		if err := database.DB.Preload("Category").
			Where("site_id = ? AND status = ? AND date >= ? AND date < ?", siteID, models.StatusApproved, start, end).
			Order("date asc, id asc").
			Find(&incomes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gelirler yüklenemedi")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Özet"
		f.SetSheetName("Sheet1", sheet)

		headerStyle, _ := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
		})

		f.SetCellValue(sheet, "A1", fmt.Sprintf("%s %d Dönem Raporu", monthNames[month], year))
		f.SetCellStyle(sheet, "A1", "A1", headerStyle)

		summaryRows := [][]interface{}{
			{"Toplam Gider", summary.TotalExpense},
			{"Toplam Gelir", summary.TotalIncome},
			{"Aidat Tahakkuku", summary.CamCharged},
			{"Aidat Tahsilatı", summary.CamCollected},
			{"Kasa Giriş", summary.PettyCashIn},
			{"Kasa Çıkış", summary.PettyCashOut},
			{"Kasa Net", summary.PettyCashNet},
			{"Net", summary.Net},
		}
		for i, row := range summaryRows {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", i+3), row[0])
			f.SetCellValue(sheet, fmt.Sprintf("B%d", i+3), row[1])
		}

		// Gider detayı
		expSheet := "Giderler"
		f.NewSheet(expSheet)
		expHeaders := []string{"Tarih", "Kategori", "Açıklama", "Tutar", "KDV", "Stopaj"}
		for i, h := range expHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(expSheet, cell, h)
			f.SetCellStyle(expSheet, cell, cell, headerStyle)
		}
		for i, e := range expenses {
			row := i + 2
			f.SetCellValue(expSheet, fmt.Sprintf("A%d", row), e.Date.Format("02.01.2006"))
			f.SetCellValue(expSheet, fmt.Sprintf("B%d", row), e.Category.Name)
			f.SetCellValue(expSheet, fmt.Sprintf("C%d", row), e.Description)
			f.SetCellValue(expSheet, fmt.Sprintf("D%d", row), e.Amount)
			f.SetCellValue(expSheet, fmt.Sprintf("E%d", row), e.TaxAmount)
			f.SetCellValue(expSheet, fmt.Sprintf("F%d", row), e.WithholdingAmount)
		}

		// Gelir detayı
		incSheet := "Gelirler"
		f.NewSheet(incSheet)
		incHeaders := []string{"Tarih", "Kategori", "Açıklama", "Tutar"}
		for i, h := range incHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(incSheet, cell, h)
			f.SetCellStyle(incSheet, cell, cell, headerStyle)
		}
		for i, inc := range incomes {
			row := i + 2
			f.SetCellValue(incSheet, fmt.Sprintf("A%d", row), inc.Date.Format("02.01.2006"))
			f.SetCellValue(incSheet, fmt.Sprintf("B%d", row), inc.Category.Name)
			f.SetCellValue(incSheet, fmt.Sprintf("C%d", row), inc.Description)
			f.SetCellValue(incSheet, fmt.Sprintf("D%d", row), inc.Amount)
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := fmt.Sprintf("donem-raporu-%d-%02d-%s.xlsx", year, month, time.Now().Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(buf.Bytes())
	}
}
