package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hustlefy/hustlefy_be/internal/utils"
)

// JWTFromHeader reads the bearer token the shell attaches to every
// authenticated call and stores the parsed claims in locals.
func JWTFromHeader(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return fiber.ErrUnauthorized
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}
