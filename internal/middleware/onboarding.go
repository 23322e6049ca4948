package middleware

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hustlefy/hustlefy_be/internal/models"
	"github.com/hustlefy/hustlefy_be/internal/onboarding"
)

// RequireOnboarded blocks dashboard-scope endpoints until the profile
// is complete. Checked per request, never cached: a profile update can
// flip the answer mid-session.
func RequireOnboarded(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := c.Locals("userId").(string)
		if !ok || uid == "" {
			return fiber.ErrUnauthorized
		}

		var u models.User
		if err := db.First(&u, "id = ?", uid).Error; err != nil {
			return fiber.ErrUnauthorized
		}

		if !onboarding.IsComplete(&u) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Please complete your profile first",
				"code":    "onboarding_incomplete",
			})
		}

		c.Locals("currentUser", &u)
		return c.Next()
	}
}
