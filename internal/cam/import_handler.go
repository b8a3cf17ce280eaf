package cam

import (
	"fmt"
	"strings"

	"siteyonetim-backend/internal/audit"
	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ImportedChargeRow: Excel'den okunan tek tahakkuk satırı.
// Kolonlar: Blok | Daire No | Tutar | Açıklama (opsiyonel)
type ImportedChargeRow struct {
	Block       string
	Number      string
	Amount      float64
	Description string
}

// parseTurkishFloat: "1.250,50" veya "1250.50" formatındaki tutarları çözer.
func parseTurkishFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "TL")
	s = strings.TrimSuffix(s, "₺")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("boş tutar")
	}

	// Hem nokta hem virgül varsa Türkçe format: nokta binlik, virgül ondalık
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	var v float64
	if _, err := fmt.Sscan(s, &v); err != nil {
		return 0, fmt.Errorf("tutar çözülemedi: %q", s)
	}
	return v, nil
}

// isChargeHeaderRow: İlk satırın başlık satırı olup olmadığını kontrol eder.
func isChargeHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	joined := strings.ToUpper(strings.Join(row, " "))
	return strings.Contains(joined, "BLOK") ||
		strings.Contains(joined, "DAİRE") ||
		strings.Contains(joined, "DAIRE") ||
		strings.Contains(joined, "TUTAR")
}

// parseChargeRows: Ham satırlardan tahakkuk satırlarını çıkarır.
// Geçersiz satırlar sonucu bozmaz, hata listesine eklenir.
func parseChargeRows(rows [][]string) ([]ImportedChargeRow, []string) {
	parsed := make([]ImportedChargeRow, 0, len(rows))
	errors := make([]string, 0)

	startIndex := 0
	if len(rows) > 0 && isChargeHeaderRow(rows[0]) {
		startIndex = 1
	}

	for i := startIndex; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}

		// En az blok(boş olabilir) + daire + tutar beklenir
		if len(row) < 3 {
			errors = append(errors, fmt.Sprintf("satır %d: eksik kolon", i+1))
			continue
		}

		block := strings.TrimSpace(row[0])
		number := strings.TrimSpace(row[1])
		if number == "" {
			if block == "" {
				continue // tamamen boş satır
			}
			errors = append(errors, fmt.Sprintf("satır %d: daire no boş", i+1))
			continue
		}

		amount, err := parseTurkishFloat(row[2])
		if err != nil {
			errors = append(errors, fmt.Sprintf("satır %d: %v", i+1, err))
			continue
		}
		if amount <= 0 {
			errors = append(errors, fmt.Sprintf("satır %d: tutar pozitif olmalı", i+1))
			continue
		}

		item := ImportedChargeRow{
			Block:  block,
			Number: number,
			Amount: amount,
		}
		if len(row) > 3 {
			item.Description = strings.TrimSpace(row[3])
		}
		parsed = append(parsed, item)
	}

	return parsed, errors
}

// POST /api/cam-charges/import?year=2025&month=12[&site_id=1]  (treasurer/admin)
// XLSX dosyasından daire bazlı tahakkuk yükler. Eşleşen daireler için
// onaylı tahakkuk açılır, mevcut dönem tahakkuku olanlar atlanır.
func ImportChargesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := resolveSiteIDFromQueryOrRole(c)
		if err != nil {
			return err
		}

		var year, month int
		if _, err := fmt.Sscan(c.Query("year"), &year); err != nil || year < 2000 {
			return fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
		}
		if _, err := fmt.Sscan(c.Query("month"), &month); err != nil || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "month geçersiz")
		}

		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası okunamadı: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında sheet bulunamadı")
		}

		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet okunamadı: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası boş")
		}

		parsed, parseErrors := parseChargeRows(rows)
		if len(parsed) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Dosyada geçerli tahakkuk satırı yok")
		}

		var units []models.Unit
		if err := database.DB.Where("site_id = ?", siteID).Find(&units).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bağımsız bölümler yüklenemedi")
		}

		unitMap := make(map[string]models.Unit, len(units))
		for _, u := range units {
			key := strings.ToUpper(strings.TrimSpace(u.Block)) + "/" + strings.ToUpper(strings.TrimSpace(u.Number))
			unitMap[key] = u
		}

		created := 0
		skipped := 0
		unmatched := make([]string, 0)

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			for _, row := range parsed {
				key := strings.ToUpper(row.Block) + "/" + strings.ToUpper(row.Number)
				unit, ok := unitMap[key]
				if !ok {
					unmatched = append(unmatched, strings.TrimLeft(key, "/"))
					continue
				}

				var count int64
				if err := tx.Model(&models.CamCharge{}).
					Where("unit_id = ? AND year = ? AND month = ?", unit.ID, year, month).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					skipped++
					continue
				}

				charge := models.CamCharge{
					SiteID:      siteID,
					UnitID:      unit.ID,
					Year:        year,
					Month:       month,
					Amount:      row.Amount,
					Description: row.Description,
					Status:      models.StatusApproved,
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
					Description: fmt.Sprintf("Excel'den aidat tahakkuku: %s %d/%d - %.2f TL", unitLabel(unit), month, year, row.Amount),
				}); err != nil {
					return err
				}

				created++
			}
			return nil
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahakkuklar kaydedilemedi: "+txErr.Error())
		}

		return c.JSON(fiber.Map{
			"success":      true,
			"created":      created,
			"skipped":      skipped,
			"unmatched":    unmatched,
			"parse_errors": parseErrors,
			"message":      fmt.Sprintf("%d tahakkuk oluşturuldu, %d atlandı, %d daire eşleşmedi.", created, skipped, len(unmatched)),
		})
	}
}
