package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaAllows(t *testing.T) {
	// seçim + bugünkü kullanım <= 200 ise kabul
	assert.True(t, QuotaAllows(150, 50))
	assert.True(t, QuotaAllows(200, 0))
	assert.True(t, QuotaAllows(1, 199))

	// limit aşımı reddedilir
	assert.False(t, QuotaAllows(201, 0))
	assert.False(t, QuotaAllows(1, 200))

	// bugün 50 talep varken 205 kayıt seçilirse (kalan 150 < 205)
	// hiçbir yazma yapılmadan reddedilir
	assert.False(t, QuotaAllows(205, 50))

	// boş seçim kabul edilmez
	assert.False(t, QuotaAllows(0, 0))
	assert.False(t, QuotaAllows(-5, 0))
}

// Not: sayım ile yazmaların atomikliği handler'daki transaction'a aittir;
// bu test sadece karar fonksiyonunu doğrular.
