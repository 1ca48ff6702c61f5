package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"vuela/internal/services"
)

// SessionCookie is the cookie the dashboard keeps its JWT in.
const SessionCookie = "vuela_session"

// AuthRequired is a Fiber middleware that checks the dashboard session
// cookie for a valid JWT and redirects to the login page otherwise.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(SessionCookie)
		if tokenString == "" {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			log.Printf("Session token validation failed: %v", err)
			c.ClearCookie(SessionCookie)
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals("admin_id", claims["admin_id"])
		c.Locals("username", claims["username"])

		// Continue to the next handler
		return c.Next()
	}
}
