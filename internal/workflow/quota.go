package workflow

import (
	"time"

	"siteyonetim-backend/internal/models"

	"gorm.io/gorm"
)

// DailyCorrectionLimit: bir sitede aynı takvim günü içinde kabul edilen
// düzeltme talebi (correction_requested) sayısının üst sınırı.
// Sınır operatör rolünün tamamı için ortaktır, kullanıcı başına değildir.
const DailyCorrectionLimit = 200

// QuotaAllows: seçilen kayıt sayısı + bugünkü kullanım limiti aşıyor mu?
func QuotaAllows(selectionSize int, usedToday int64) bool {
	if selectionSize <= 0 {
		return false
	}
	return int64(selectionSize)+usedToday <= DailyCorrectionLimit
}

// Advisory lock sınıfı: kota sayımını site bazında serileştirir.
const correctionQuotaLockClass = 4201

// CountTodayCorrectionRequests: bugünkü correction_requested audit kayıtlarını sayar.
// Toplu taleplerde transaction içinden çağrılır; site başına advisory lock
// aldığından eşzamanlı transaction'lar sayımı sırayla yapar ve limit READ
// COMMITTED altında da birlikte aşılamaz. Lock commit/rollback ile bırakılır.
func CountTodayCorrectionRequests(tx *gorm.DB, siteID uint) (int64, error) {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", correctionQuotaLockClass, int32(siteID)).Error; err != nil {
		return 0, err
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int64
	err := tx.Model(&models.AuditLog{}).
		Where("site_id = ? AND action = ? AND created_at >= ?", siteID, models.AuditActionCorrectionRequested, dayStart).
		Count(&count).Error
	return count, err
}
