package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"wingetdepot/internal/database"
	"wingetdepot/internal/models"
	"wingetdepot/internal/services"
)

// AuthRequired checks the JWT from Authorization: Bearer or the "token"
// cookie and stores the authenticated user in locals.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("token")
		if token == "" {
			authz := c.Get("Authorization")
			if strings.HasPrefix(authz, "Bearer ") {
				token = strings.TrimPrefix(authz, "Bearer ")
			}
		}
		if token == "" {
			return fiber.ErrUnauthorized
		}
		claims, err := services.ParseToken(token)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		var user models.User
		if err := database.DB.First(&user, claims.UserID).Error; err != nil || !user.IsActive {
			return fiber.ErrUnauthorized
		}
		c.Locals("user", &user)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// PermissionRequired enforces the authorization check for one action,
// e.g. "add:installer". Must run after AuthRequired.
func PermissionRequired(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return fiber.ErrUnauthorized
		}
		if !user.HasPermission(action) {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}
