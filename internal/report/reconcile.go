package report

// Period: yıl/ay çifti.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// CategoryMonth: kategori × ay kombinasyonu. Eksik veri taramasının birimi.
type CategoryMonth struct {
	CategoryID uint `json:"category_id"`
	Month      int  `json:"month"`
}

// PeriodsBetween: iki dönem arasındaki (dahil) tüm dönemleri üretir.
func PeriodsBetween(from, to Period) []Period {
	if from.Year > to.Year || (from.Year == to.Year && from.Month > to.Month) {
		return nil
	}

	periods := make([]Period, 0)
	y, m := from.Year, from.Month
	for {
		periods = append(periods, Period{Year: y, Month: m})
		if y == to.Year && m == to.Month {
			break
		}
		m++
		if m > 12 {
			m = 1
			y++
		}
	}
	return periods
}

// ExpectedCategoryMonths: aktif kategorilerin 1..lastMonth aylarıyla çarpımı.
// Kategori sırası girdi sırasını, ay sırası takvimi izler.
func ExpectedCategoryMonths(categoryIDs []uint, lastMonth int) []CategoryMonth {
	if lastMonth < 1 {
		return nil
	}
	if lastMonth > 12 {
		lastMonth = 12
	}

	expected := make([]CategoryMonth, 0, len(categoryIDs)*lastMonth)
	for _, catID := range categoryIDs {
		for m := 1; m <= lastMonth; m++ {
			expected = append(expected, CategoryMonth{CategoryID: catID, Month: m})
		}
	}
	return expected
}

// MissingCategoryMonths: beklenen kombinasyonlardan, mevcut kümede
// olmayanları döner. Sıralama beklenen listenin sırasını korur.
func MissingCategoryMonths(expected []CategoryMonth, present map[CategoryMonth]bool) []CategoryMonth {
	missing := make([]CategoryMonth, 0)
	for _, cm := range expected {
		if !present[cm] {
			missing = append(missing, cm)
		}
	}
	return missing
}

// MissingPeriods: beklenen dönemlerden, mevcut kümede olmayanları döner.
func MissingPeriods(expected []Period, present map[Period]bool) []Period {
	missing := make([]Period, 0)
	for _, p := range expected {
		if !present[p] {
			missing = append(missing, p)
		}
	}
	return missing
}
