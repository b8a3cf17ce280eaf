package main

import (
	"log"
	"strings"

	"siteyonetim-backend/internal/admin"
	"siteyonetim-backend/internal/audit"
	"siteyonetim-backend/internal/auth"
	"siteyonetim-backend/internal/budget"
	"siteyonetim-backend/internal/cam"
	"siteyonetim-backend/internal/config"
	"siteyonetim-backend/internal/dashboard"
	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/expense"
	"siteyonetim-backend/internal/income"
	"siteyonetim-backend/internal/models"
	"siteyonetim-backend/internal/notify"
	"siteyonetim-backend/internal/pettycash"
	"siteyonetim-backend/internal/report"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Site yönetimi
	adminRoutes.Post("/sites", admin.CreateSiteHandler())
	adminRoutes.Get("/sites", admin.ListSitesHandler())
	adminRoutes.Get("/sites/:id", admin.GetSiteHandler())
	adminRoutes.Put("/sites/:id", admin.UpdateSiteHandler())
	adminRoutes.Delete("/sites/:id", admin.DeleteSiteHandler())
	adminRoutes.Post("/sites/:id/staff", admin.CreateStaffHandler())
	adminRoutes.Get("/sites/:id/staff", admin.ListStaffHandler())

	// Gider kategorileri (yönetim)
	adminRoutes.Post("/expense-categories", expense.CreateExpenseCategoryHandler())
	adminRoutes.Put("/expense-categories/:id", expense.UpdateExpenseCategoryHandler())
	adminRoutes.Delete("/expense-categories/:id", expense.DeleteExpenseCategoryHandler())

	// Gelir kategorileri (yönetim)
	adminRoutes.Post("/income-categories", income.CreateIncomeCategoryHandler())
	adminRoutes.Put("/income-categories/:id", income.UpdateIncomeCategoryHandler())
	adminRoutes.Delete("/income-categories/:id", income.DeleteIncomeCategoryHandler())

	// Gider kaydı silme (kalıcı)
	adminRoutes.Delete("/expenses/:id", expense.DeleteExpenseHandler())

	// Bütçe planı silme
	adminRoutes.Delete("/budget-plans/:id", budget.DeletePlanHandler())

	// Bağımsız bölüm silme
	adminRoutes.Delete("/units/:id", cam.DeleteUnitHandler())

	// Onay yetkisi gerektiren route'lar (denetçi/sayman/admin)
	approvers := protected.Group("")
	approvers.Use(auth.RequireRole(models.RoleSupervisor, models.RoleTreasurer, models.RoleAdmin))

	approvers.Post("/expenses/:id/approve", expense.ApproveExpenseHandler())
	approvers.Post("/expenses/:id/reject", expense.RejectExpenseHandler())
	approvers.Post("/incomes/:id/approve", income.ApproveIncomeHandler())
	approvers.Post("/incomes/:id/reject", income.RejectIncomeHandler())
	approvers.Post("/petty-cash/:id/approve", pettycash.ApprovePettyCashHandler())
	approvers.Post("/petty-cash/:id/reject", pettycash.RejectPettyCashHandler())
	approvers.Post("/cam-charges/:id/approve", cam.ApproveChargeHandler())
	approvers.Post("/cam-charges/:id/reject", cam.RejectChargeHandler())

	// Düzeltme onayı sadece denetçi/admin
	correctionApprovers := protected.Group("")
	correctionApprovers.Use(auth.RequireRole(models.RoleSupervisor, models.RoleAdmin))
	correctionApprovers.Post("/expenses/:id/approve-correction", expense.ApproveCorrectionHandler())
	correctionApprovers.Post("/expenses/:id/reject-correction", expense.RejectCorrectionHandler())

	// Sayman/admin route'ları
	treasurer := protected.Group("")
	treasurer.Use(auth.RequireRole(models.RoleTreasurer, models.RoleAdmin))

	treasurer.Put("/expenses/:id", expense.TreasurerEditHandler())
	treasurer.Post("/cam-charges/generate", cam.GenerateChargesHandler())
	treasurer.Post("/cam-charges/import", cam.ImportChargesHandler())
	treasurer.Post("/budget-plans", budget.CreatePlanHandler())
	treasurer.Post("/units", cam.CreateUnitHandler())
	treasurer.Put("/units/:id", cam.UpdateUnitHandler())

	// Ortak (auth gerektiren) route'lar

	// Giderler
	protected.Get("/expense-categories", expense.ListExpenseCategoriesHandler())
	protected.Post("/expenses", expense.CreateExpenseHandler())
	protected.Get("/expenses", expense.ListExpensesHandler())
	protected.Get("/expenses/summary/monthly", expense.MonthlyExpenseSummaryHandler())
	protected.Post("/expenses/:id/request-correction", expense.RequestCorrectionHandler())
	protected.Put("/expenses/:id/complete-correction", expense.CompleteCorrectionHandler())
	protected.Post("/expenses/bulk-correction-request", expense.BulkCorrectionRequestHandler())

	// Gelirler
	protected.Get("/income-categories", income.ListIncomeCategoriesHandler())
	protected.Post("/incomes", income.CreateIncomeHandler())
	protected.Get("/incomes", income.ListIncomesHandler())
	protected.Get("/incomes/summary/monthly", income.MonthlyIncomeSummaryHandler())

	// Kasa
	protected.Post("/petty-cash", pettycash.CreatePettyCashHandler())
	protected.Get("/petty-cash", pettycash.ListPettyCashHandler())
	protected.Get("/petty-cash/balance", pettycash.PettyCashBalanceHandler())

	// Aidat
	protected.Get("/units", cam.ListUnitsHandler())
	protected.Post("/cam-charges", cam.CreateChargeHandler())
	protected.Get("/cam-charges", cam.ListChargesHandler())
	protected.Get("/cam-charges/collection-status", cam.CollectionStatusHandler())
	protected.Post("/cam-payments", cam.CreatePaymentHandler())
	protected.Get("/cam-payments", cam.ListPaymentsHandler())

	// Bütçe
	protected.Get("/budget-plans", budget.ListPlansHandler())
	protected.Get("/budget-plans/:id", budget.GetPlanHandler())
	protected.Get("/budget-plans/:id/comparison", budget.ComparisonHandler())

	// Raporlar
	protected.Get("/reports/monthly-summary", report.MonthlySummaryHandler())
	protected.Get("/reports/monthly-summary/export", report.ExportMonthlySummaryHandler())
	protected.Get("/reports/reconcile", report.ReconcileHandler())

	// Dashboard
	protected.Get("/dashboard/finance-chart", dashboard.FinanceChartHandler())

	// Bildirimler
	protected.Get("/notifications", notify.ListNotificationsHandler())
	protected.Post("/notifications/:id/read", notify.MarkReadHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	protected.Get("/audit-logs/trail", audit.TrailHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
