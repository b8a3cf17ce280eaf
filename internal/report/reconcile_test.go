package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodsBetween(t *testing.T) {
	got := PeriodsBetween(Period{2025, 11}, Period{2026, 2})
	require.Len(t, got, 4)
	assert.Equal(t, Period{2025, 11}, got[0])
	assert.Equal(t, Period{2025, 12}, got[1])
	assert.Equal(t, Period{2026, 1}, got[2])
	assert.Equal(t, Period{2026, 2}, got[3])
}

func TestPeriodsBetweenSingle(t *testing.T) {
	got := PeriodsBetween(Period{2025, 6}, Period{2025, 6})
	require.Len(t, got, 1)
	assert.Equal(t, Period{2025, 6}, got[0])
}

func TestPeriodsBetweenReversed(t *testing.T) {
	assert.Empty(t, PeriodsBetween(Period{2026, 1}, Period{2025, 12}))
}

func TestMissingPeriods(t *testing.T) {
	expected := PeriodsBetween(Period{2025, 1}, Period{2025, 4})
	present := map[Period]bool{
		{2025, 1}: true,
		{2025, 3}: true,
	}

	missing := MissingPeriods(expected, present)
	require.Len(t, missing, 2)
	assert.Equal(t, Period{2025, 2}, missing[0])
	assert.Equal(t, Period{2025, 4}, missing[1])
}

func TestMissingPeriodsNoneMissing(t *testing.T) {
	expected := []Period{{2025, 7}}
	present := map[Period]bool{{2025, 7}: true}
	assert.Empty(t, MissingPeriods(expected, present))
}

func TestExpectedCategoryMonths(t *testing.T) {
	got := ExpectedCategoryMonths([]uint{3, 7}, 2)
	require.Len(t, got, 4)
	assert.Equal(t, CategoryMonth{3, 1}, got[0])
	assert.Equal(t, CategoryMonth{3, 2}, got[1])
	assert.Equal(t, CategoryMonth{7, 1}, got[2])
	assert.Equal(t, CategoryMonth{7, 2}, got[3])
}

func TestExpectedCategoryMonthsClampsMonth(t *testing.T) {
	assert.Len(t, ExpectedCategoryMonths([]uint{1}, 15), 12)
	assert.Empty(t, ExpectedCategoryMonths([]uint{1}, 0))
}

func TestMissingCategoryMonths(t *testing.T) {
	expected := ExpectedCategoryMonths([]uint{3, 7}, 3)
	present := map[CategoryMonth]bool{
		{3, 1}: true,
		{3, 2}: true,
		{3, 3}: true,
		{7, 2}: true,
	}

	missing := MissingCategoryMonths(expected, present)
	require.Len(t, missing, 2)
	assert.Equal(t, CategoryMonth{7, 1}, missing[0])
	assert.Equal(t, CategoryMonth{7, 3}, missing[1])
}

func TestMissingCategoryMonthsAllPresent(t *testing.T) {
	expected := ExpectedCategoryMonths([]uint{5}, 2)
	present := map[CategoryMonth]bool{{5, 1}: true, {5, 2}: true}
	assert.Empty(t, MissingCategoryMonths(expected, present))
}
