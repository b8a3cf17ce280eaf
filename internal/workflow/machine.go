package workflow

import (
	"fmt"

	"siteyonetim-backend/internal/models"
)

// Action: bir finansal kayıt üzerinde talep edilen işlem.
type Action string

const (
	ActionSubmit             Action = "submit"
	ActionApprove            Action = "approve"
	ActionReject             Action = "reject"
	ActionRequestCorrection  Action = "request_correction"
	ActionApproveCorrection  Action = "approve_correction"
	ActionRejectCorrection   Action = "reject_correction"
	ActionCompleteCorrection Action = "complete_correction"
)

// StatusNone: kayıt henüz oluşturulmamışken kullanılan başlangıç durumu (submit için).
const StatusNone models.RecordStatus = ""

type transitionKey struct {
	From   models.RecordStatus
	Action Action
}

// Transition: geçiş tablosundaki tek satır.
type Transition struct {
	To          models.RecordStatus
	AuditAction models.AuditAction
	Roles       []models.UserRole

	// MarksCorrection: geçiş sonrası is_correction=true yapılır
	MarksCorrection bool
	// ClearsReason: correction_reason alanı temizlenir
	ClearsReason bool
	// NotifyRole: geçiş sonrası bildirim düşülecek rol
	NotifyRole models.UserRole
}

// transitions: (mevcut durum, işlem) -> geçiş. Tabloda olmayan kombinasyon reddedilir.
var transitions = map[transitionKey]Transition{
	{StatusNone, ActionSubmit}: {
		To:          models.StatusPending,
		AuditAction: models.AuditActionSubmitted,
		Roles:       []models.UserRole{models.RoleOperator, models.RoleTreasurer, models.RoleAdmin},
		NotifyRole:  models.RoleSupervisor,
	},
	{models.StatusPending, ActionApprove}: {
		To:          models.StatusApproved,
		AuditAction: models.AuditActionApproved,
		Roles:       []models.UserRole{models.RoleSupervisor, models.RoleTreasurer, models.RoleAdmin},
		NotifyRole:  models.RoleOperator,
	},
	{models.StatusPending, ActionReject}: {
		To:          models.StatusRejected,
		AuditAction: models.AuditActionRejected,
		Roles:       []models.UserRole{models.RoleSupervisor, models.RoleTreasurer, models.RoleAdmin},
		NotifyRole:  models.RoleOperator,
	},
	{models.StatusApproved, ActionRequestCorrection}: {
		To:          models.StatusCorrectionPending,
		AuditAction: models.AuditActionCorrectionRequested,
		Roles:       []models.UserRole{models.RoleOperator, models.RoleTreasurer, models.RoleAdmin},
		NotifyRole:  models.RoleSupervisor,
	},
	{models.StatusCorrectionPending, ActionApproveCorrection}: {
		To:          models.StatusCorrectionApproved,
		AuditAction: models.AuditActionCorrectionApproved,
		Roles:       []models.UserRole{models.RoleSupervisor, models.RoleAdmin},
		NotifyRole:  models.RoleOperator,
	},
	{models.StatusCorrectionPending, ActionRejectCorrection}: {
		To:           models.StatusApproved,
		AuditAction:  models.AuditActionCorrectionRejected,
		Roles:        []models.UserRole{models.RoleSupervisor, models.RoleAdmin},
		ClearsReason: true,
		NotifyRole:   models.RoleOperator,
	},
	{models.StatusCorrectionApproved, ActionCompleteCorrection}: {
		To:              models.StatusApproved,
		AuditAction:     models.AuditActionCorrectionCompleted,
		Roles:           []models.UserRole{models.RoleOperator, models.RoleTreasurer, models.RoleAdmin},
		MarksCorrection: true,
		ClearsReason:    true,
		NotifyRole:      models.RoleSupervisor,
	},
}

// Resolve: mevcut durum + işlem + rol için geçişi bulur.
// Tabloda olmayan (durum, işlem) çifti veya listede olmayan rol hata döner.
func Resolve(from models.RecordStatus, action Action, role models.UserRole) (*Transition, error) {
	t, ok := transitions[transitionKey{From: from, Action: action}]
	if !ok {
		if from == StatusNone {
			return nil, fmt.Errorf("'%s' işlemi yeni kayıt üzerinde yapılamaz", action)
		}
		return nil, fmt.Errorf("'%s' durumundaki kayıt üzerinde '%s' işlemi yapılamaz", from, action)
	}

	for _, r := range t.Roles {
		if r == role {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("'%s' rolü '%s' işlemini yapamaz", role, action)
}
