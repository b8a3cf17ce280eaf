package workflow

import (
	"testing"

	"siteyonetim-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrectionRequestOnlyFromApproved(t *testing.T) {
	// approved dışındaki hiçbir durumdan düzeltme talebi açılamaz
	for _, from := range []models.RecordStatus{
		models.StatusPending,
		models.StatusRejected,
		models.StatusCorrectionApproved,
		models.StatusCorrectionPending,
	} {
		_, err := Resolve(from, ActionRequestCorrection, models.RoleOperator)
		assert.Error(t, err, "'%s' durumundan düzeltme talebi açılabilmemeli", from)
	}

	tr, err := Resolve(models.StatusApproved, ActionRequestCorrection, models.RoleOperator)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCorrectionPending, tr.To)
	assert.Equal(t, models.AuditActionCorrectionRequested, tr.AuditAction)
}

func TestCompleteCorrectionMarksRecord(t *testing.T) {
	tr, err := Resolve(models.StatusCorrectionApproved, ActionCompleteCorrection, models.RoleOperator)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, tr.To)
	assert.True(t, tr.MarksCorrection)

	// pending durumundan doğrudan tamamlamaya ulaşılamaz
	_, err = Resolve(models.StatusPending, ActionCompleteCorrection, models.RoleOperator)
	assert.Error(t, err)
}

func TestRejectCorrectionReturnsToApproved(t *testing.T) {
	tr, err := Resolve(models.StatusCorrectionPending, ActionRejectCorrection, models.RoleSupervisor)
	require.NoError(t, err)
	// tam olarak approved'a döner, pending'e değil
	assert.Equal(t, models.StatusApproved, tr.To)
	assert.True(t, tr.ClearsReason)
	assert.False(t, tr.MarksCorrection)
}

func TestRoleGating(t *testing.T) {
	// operatör onay veremez
	_, err := Resolve(models.StatusPending, ActionApprove, models.RoleOperator)
	assert.Error(t, err)

	// denetçi düzeltme talebi açamaz
	_, err = Resolve(models.StatusApproved, ActionRequestCorrection, models.RoleSupervisor)
	assert.Error(t, err)

	// sayman düzeltme talebini onaylayamaz (denetçi veya admin onaylar)
	_, err = Resolve(models.StatusCorrectionPending, ActionApproveCorrection, models.RoleTreasurer)
	assert.Error(t, err)

	// admin her geçişi yapabilir
	for key := range transitions {
		_, err := Resolve(key.From, key.Action, models.RoleAdmin)
		assert.NoError(t, err, "admin '%s'+'%s' geçişini yapabilmeli", key.From, key.Action)
	}
}

func TestUnknownCombinationsRejected(t *testing.T) {
	_, err := Resolve(models.StatusRejected, ActionApprove, models.RoleAdmin)
	assert.Error(t, err)

	_, err = Resolve(models.StatusApproved, ActionApprove, models.RoleAdmin)
	assert.Error(t, err)

	_, err = Resolve(StatusNone, ActionApprove, models.RoleAdmin)
	assert.Error(t, err)
}

// Bir gider kaydının tam düzeltme döngüsünü tablo üzerinden yürütür:
// onay -> düzeltme talebi -> düzeltme onayı -> düzenleme ile tamamlama.
func TestFullCorrectionCycle(t *testing.T) {
	type step struct {
		action Action
		role   models.UserRole
	}

	status := models.StatusPending // kayıt pending olarak oluşturuldu
	isCorrection := false
	reason := "tutar hatalı"
	hasReason := true

	steps := []step{
		{ActionApprove, models.RoleSupervisor},
		{ActionRequestCorrection, models.RoleOperator},
		{ActionApproveCorrection, models.RoleSupervisor},
		{ActionCompleteCorrection, models.RoleOperator},
	}

	var trail []models.AuditAction
	for _, s := range steps {
		tr, err := Resolve(status, s.action, s.role)
		require.NoError(t, err, "adım '%s' başarısız", s.action)

		status = tr.To
		if tr.MarksCorrection {
			isCorrection = true
		}
		if tr.ClearsReason {
			hasReason = false
			reason = ""
		}
		trail = append(trail, tr.AuditAction)
	}

	assert.Equal(t, models.StatusApproved, status)
	assert.True(t, isCorrection)
	assert.False(t, hasReason)
	assert.Empty(t, reason)

	// audit izi: tam olarak 4 kayıt, bu sırayla
	assert.Equal(t, []models.AuditAction{
		models.AuditActionApproved,
		models.AuditActionCorrectionRequested,
		models.AuditActionCorrectionApproved,
		models.AuditActionCorrectionCompleted,
	}, trail)
}

// Denetçi düzeltme talebini reddederse kayıt approved'a döner, neden silinir
// ve yeni bir talep açılmadan düzenleme yapılamaz.
func TestCorrectionRejectionCycle(t *testing.T) {
	status := models.StatusApproved
	hasReason := false

	tr, err := Resolve(status, ActionRequestCorrection, models.RoleOperator)
	require.NoError(t, err)
	status = tr.To
	hasReason = true

	tr, err = Resolve(status, ActionRejectCorrection, models.RoleSupervisor)
	require.NoError(t, err)
	status = tr.To
	if tr.ClearsReason {
		hasReason = false
	}

	assert.Equal(t, models.StatusApproved, status)
	assert.False(t, hasReason)

	// düzenleme ancak yeni bir döngüyle mümkün
	_, err = Resolve(status, ActionCompleteCorrection, models.RoleOperator)
	assert.Error(t, err)
}

func TestSubmitStartsPending(t *testing.T) {
	tr, err := Resolve(StatusNone, ActionSubmit, models.RoleOperator)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, tr.To)
	assert.Equal(t, models.AuditActionSubmitted, tr.AuditAction)
	assert.Equal(t, models.RoleSupervisor, tr.NotifyRole)
}
