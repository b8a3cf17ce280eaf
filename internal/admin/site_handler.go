package admin

import (
	"strings"

	"siteyonetim-backend/internal/database"
	"siteyonetim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type SiteResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

type CreateSiteRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone"` // Opsiyonel
}

type UpdateSiteRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"` // Opsiyonel
}

type CreateStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // operator | supervisor | treasurer
}

type StaffResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SiteID    *uint  `json:"site_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ----------------------------------------
// SİTE CRUD
// ----------------------------------------

func CreateSiteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSiteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Site adı boş olamaz")
		}

		site := models.Site{
			Name:    body.Name,
			Address: body.Address,
		}
		if body.Phone != nil {
			site.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Create(&site).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Site oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(SiteResponse{
			ID:        site.ID,
			Name:      site.Name,
			Address:   site.Address,
			Phone:     site.Phone,
			CreatedAt: site.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

func ListSitesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {

		var sites []models.Site
		if err := database.DB.Find(&sites).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siteler listelenemedi")
		}

		res := make([]SiteResponse, 0, len(sites))
		for _, s := range sites {
			res = append(res, SiteResponse{
				ID:        s.ID,
				Name:      s.Name,
				Address:   s.Address,
				Phone:     s.Phone,
				CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(res)
	}
}

func GetSiteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var site models.Site
		if err := database.DB.First(&site, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Site bulunamadı")
		}

		return c.JSON(SiteResponse{
			ID:        site.ID,
			Name:      site.Name,
			Address:   site.Address,
			Phone:     site.Phone,
			CreatedAt: site.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

func UpdateSiteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var site models.Site
		if err := database.DB.First(&site, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Site bulunamadı")
		}

		var body UpdateSiteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Site adı boş olamaz")
			}
			site.Name = name
		}

		if body.Address != nil {
			site.Address = *body.Address
		}

		if body.Phone != nil {
			site.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Save(&site).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Site güncellenemedi")
		}

		return c.JSON(SiteResponse{
			ID:        site.ID,
			Name:      site.Name,
			Address:   site.Address,
			Phone:     site.Phone,
			CreatedAt: site.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

func DeleteSiteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {

		id := c.Params("id")

		if err := database.DB.Delete(&models.Site{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Site silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// SİTE PERSONELİ OLUŞTURMA
// POST /api/admin/sites/:id/staff
// ----------------------------------------

func CreateStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {

		siteID := c.Params("id")

		// Site kontrolü
		var site models.Site
		if err := database.DB.First(&site, "id = ?", siteID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Site bulunamadı")
		}

		var body CreateStaffRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)

		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}

		role := models.UserRole(body.Role)
		if role != models.RoleOperator && role != models.RoleSupervisor && role != models.RoleTreasurer {
			return fiber.NewError(fiber.StatusBadRequest, "Rol 'operator', 'supervisor' veya 'treasurer' olmalı")
		}

		// Email kontrolü
		var exist models.User
		if err := database.DB.Where("email = ?", body.Email).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu email zaten kayıtlı")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         role,
			SiteID:       &site.ID,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel oluşturulamadı")
		}

		// NOT: Şifre sadece oluşturma sırasında bir kez döndürülür
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"role":     user.Role,
			"site_id":  user.SiteID,
			"password": body.Password, // Sadece oluşturma sırasında (bir kez)
		})
	}
}

// ----------------------------------------
// SİTE PERSONELİNİ LİSTELE
// GET /api/admin/sites/:id/staff
// ----------------------------------------

func ListStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID := c.Params("id")

		var users []models.User
		if err := database.DB.
			Where("site_id = ?", siteID).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel listelenemedi")
		}

		res := make([]StaffResponse, 0, len(users))
		for _, u := range users {
			res = append(res, StaffResponse{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Role:      string(u.Role),
				SiteID:    u.SiteID,
				CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
				UpdatedAt: u.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(res)
	}
}
