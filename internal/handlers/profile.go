package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hustlefy/hustlefy_be/internal/models"
	"github.com/hustlefy/hustlefy_be/internal/utils"
)

type ProfileHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int
}

func NewProfileHandler(db *gorm.DB, jwtSecret string, expires int) *ProfileHandler {
	return &ProfileHandler{DB: db, JWTSecret: jwtSecret, Expires: expires}
}

func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	return phone
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	uid := c.Locals("userId")

	var u models.User
	if err := h.DB.First(&u, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Profile not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    userPayload(&u),
	})
}

// UpdateProfileReq is the explicit shape the client may change. Role
// and email are deliberately absent: role is fixed at signup and email
// changes would need re-verification.
type UpdateProfileReq struct {
	Name           *string   `json:"name"`
	Phone          *string   `json:"phone"`
	Location       *string   `json:"location"`
	WorkCategories *[]string `json:"workCategories"`
	Bio            *string   `json:"bio"`
}

// Update applies a partial profile edit and rotates the bearer token;
// the client re-persists the token it gets back.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	uid := c.Locals("userId")

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Profile not found",
		})
	}

	errors := FieldErrors{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			errors.Add("name", "Name is required")
		} else {
			u.Name = name
		}
	}
	if req.Phone != nil {
		phone := normalizePhone(*req.Phone)
		if phone != "" && len(phone) < 8 {
			errors.Add("phone", "Invalid phone number")
		} else if phone != u.Phone {
			u.Phone = phone
			u.PhoneVerified = false
		}
	}
	if req.Location != nil {
		u.Location = strings.TrimSpace(*req.Location)
	}
	if req.WorkCategories != nil {
		cats := *req.WorkCategories
		for _, cat := range cats {
			if !models.IsWorkCategory(cat) {
				errors.Add("workCategories", "Invalid categories selected")
				break
			}
		}
		if len(errors["workCategories"]) == 0 {
			u.WorkCategories = datatypes.JSONSlice[string](cats)
		}
	}
	if req.Bio != nil {
		u.Bio = strings.TrimSpace(*req.Bio)
	}

	if len(errors) > 0 {
		return validationFail(c, errors)
	}

	if err := h.DB.Save(&u).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Profile update failed",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated",
		"data":    userPayload(&u),
		"token":   token,
	})
}
