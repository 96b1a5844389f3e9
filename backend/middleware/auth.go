package middleware

import (
	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "userID"
	localRole   = "role"
)

// AuthMiddleware rejects requests without a valid token and stores the
// subject and role in Locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals(localUserID, claims.Subject)
		c.Locals(localRole, claims.Role)
		return c.Next()
	}
}

// RequireRoles must run after AuthMiddleware.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := CurrentRole(c)
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return utils.Forbidden(c, "Insufficient permissions")
	}
}

func AdminMiddleware() fiber.Handler {
	return RequireRoles(models.RoleAdmin)
}

func StaffMiddleware() fiber.Handler {
	return RequireRoles(models.RoleAdmin, models.RoleInstructor)
}

func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func CurrentRole(c *fiber.Ctx) string {
	role, _ := c.Locals(localRole).(string)
	return role
}

// CanActFor reports whether the caller may read or write data owned by userID.
func CanActFor(c *fiber.Ctx, userID string) bool {
	return userID == CurrentUserID(c) || CurrentRole(c) == models.RoleAdmin
}
