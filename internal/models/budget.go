package models

import "time"

// BudgetPlan: bir site için yıllık işletme projesi (bütçe).
type BudgetPlan struct {
	ID     uint `gorm:"primaryKey"`
	SiteID uint `gorm:"index;not null;uniqueIndex:idx_budget_plans_site_year"`
	Site   Site
	Year   int    `gorm:"not null;uniqueIndex:idx_budget_plans_site_year"`
	Note   string `gorm:"size:255"`

	CreatedBy uint `gorm:"index;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []BudgetItem
}

// BudgetItem: bütçe kalemi, kategori ve ay bazında planlanan tutar.
type BudgetItem struct {
	ID           uint `gorm:"primaryKey"`
	BudgetPlanID uint `gorm:"index;not null"`
	CategoryID   uint `gorm:"index;not null"`
	Category     ExpenseCategory
	Month        int     `gorm:"not null"` // 1-12, 0 = yıllık kalem
	Amount       float64 `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
