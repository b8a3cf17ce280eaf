package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	r := MonthlySummaryResponse{
		TotalIncome:  1000,
		TotalExpense: 600,
		CamCollected: 250,
		PettyCashIn:  120,
		PettyCashOut: 80,
	}
	r.computeTotals()

	assert.Equal(t, 40.0, r.PettyCashNet)
	assert.Equal(t, 650.0, r.Net)
}

func TestComputeTotalsNegativePettyCashNet(t *testing.T) {
	r := MonthlySummaryResponse{PettyCashIn: 50, PettyCashOut: 200}
	r.computeTotals()

	assert.Equal(t, -150.0, r.PettyCashNet)
}
