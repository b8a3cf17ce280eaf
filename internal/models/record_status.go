package models

// RecordStatus: mali kayıtların onay/düzeltme akışındaki durumu.
// Durum geçişleri internal/workflow paketindeki tabloyla yönetilir,
// buradaki değerler dışında durum yazılamaz.
type RecordStatus string

const (
	StatusPending            RecordStatus = "pending"
	StatusApproved           RecordStatus = "approved"
	StatusRejected           RecordStatus = "rejected"
	StatusCorrectionPending  RecordStatus = "correction_pending"
	StatusCorrectionApproved RecordStatus = "correction_approved"
)

// Valid: değerin tanımlı durumlardan biri olup olmadığını kontrol eder.
func (s RecordStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCorrectionPending, StatusCorrectionApproved:
		return true
	}
	return false
}
