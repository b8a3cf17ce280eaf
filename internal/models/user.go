package models

import "time"

type UserRole string

const (
	RoleAdmin      UserRole = "admin"      // yönetim şirketi yöneticisi (tam yetki)
	RoleTreasurer  UserRole = "treasurer"  // sayman
	RoleSupervisor UserRole = "supervisor" // denetçi (onay mercii)
	RoleOperator   UserRole = "operator"   // operatör (kayıt girişi)
)

type User struct {
	ID           uint `gorm:"primaryKey"`
	SiteID       *uint
	Site         *Site
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
