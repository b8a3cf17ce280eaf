package database

import (
	"log"

	"siteyonetim-backend/internal/config"
	"siteyonetim-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	// Expense workflow migration: status kolonu sonradan eklendi (AutoMigrate'ten ÖNCE)
	// Eski kayıtlar onay akışından geçmediği için approved sayılır
	if DB.Migrator().HasTable(&models.Expense{}) {
		if !DB.Migrator().HasColumn(&models.Expense{}, "status") {
			log.Println("Expense.status kolonu ekleniyor...")
			if err := DB.Exec("ALTER TABLE expenses ADD COLUMN status VARCHAR(30) NOT NULL DEFAULT 'approved'").Error; err != nil {
				log.Printf("status kolonu eklenirken hata (zaten var olabilir): %v", err)
			} else {
				log.Println("Mevcut gider kayıtları 'approved' statüsüyle işaretlendi")
			}
		}
	}

	err = DB.AutoMigrate(
		&models.Site{},
		&models.User{},
		&models.ExpenseCategory{},
		&models.Expense{},
		&models.IncomeCategory{},
		&models.Income{},
		&models.PettyCashEntry{},
		&models.Unit{},
		&models.CamCharge{},
		&models.CamPayment{},
		&models.BudgetPlan{},
		&models.BudgetItem{},
		&models.AuditLog{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
