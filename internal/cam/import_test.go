package cam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTurkishFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1250.50", 1250.50},
		{"1.250,50", 1250.50},
		{"1250,50", 1250.50},
		{"1250", 1250},
		{" 750,00 TL ", 750},
		{"12.345,67", 12345.67},
	}

	for _, tc := range cases {
		got, err := parseTurkishFloat(tc.in)
		require.NoError(t, err, "girdi: %q", tc.in)
		assert.InDelta(t, tc.want, got, 0.001, "girdi: %q", tc.in)
	}
}

func TestParseTurkishFloatInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "TL"} {
		_, err := parseTurkishFloat(in)
		assert.Error(t, err, "girdi: %q", in)
	}
}

func TestParseChargeRowsSkipsHeader(t *testing.T) {
	rows := [][]string{
		{"Blok", "Daire No", "Tutar", "Açıklama"},
		{"A", "1", "1.250,50", "Aralık aidatı"},
		{"A", "2", "1250,50", ""},
	}

	parsed, errs := parseChargeRows(rows)
	require.Len(t, parsed, 2)
	assert.Empty(t, errs)

	assert.Equal(t, "A", parsed[0].Block)
	assert.Equal(t, "1", parsed[0].Number)
	assert.InDelta(t, 1250.50, parsed[0].Amount, 0.001)
	assert.Equal(t, "Aralık aidatı", parsed[0].Description)
}

func TestParseChargeRowsNoHeader(t *testing.T) {
	rows := [][]string{
		{"B", "5", "900"},
	}

	parsed, errs := parseChargeRows(rows)
	require.Len(t, parsed, 1)
	assert.Empty(t, errs)
	assert.Equal(t, "B", parsed[0].Block)
	assert.InDelta(t, 900, parsed[0].Amount, 0.001)
}

func TestParseChargeRowsCollectsErrors(t *testing.T) {
	rows := [][]string{
		{"BLOK", "DAİRE", "TUTAR"},
		{"A", "1", "kötü tutar"},
		{"A", "", "500"},
		{"A", "3", "-100"},
		{"A", "4", "500"},
		{},
		{"", "", ""},
	}

	parsed, errs := parseChargeRows(rows)
	require.Len(t, parsed, 1)
	assert.Equal(t, "4", parsed[0].Number)
	assert.Len(t, errs, 3)
}

func TestParseChargeRowsBlockOptional(t *testing.T) {
	rows := [][]string{
		{"", "12", "650,75"},
	}

	parsed, errs := parseChargeRows(rows)
	require.Len(t, parsed, 1)
	assert.Empty(t, errs)
	assert.Equal(t, "", parsed[0].Block)
	assert.Equal(t, "12", parsed[0].Number)
	assert.InDelta(t, 650.75, parsed[0].Amount, 0.001)
}
