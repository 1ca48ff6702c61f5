package handlers

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vuela/internal/middleware"
	"vuela/internal/services"
)

// AuthHandler serves the dashboard login page and session lifecycle.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the login routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/login", h.HandleLoginPage)
	router.Post("/login", h.HandleLogin)
	router.Post("/logout", h.HandleLogout)
}

type loginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// HandleLoginPage renders the login form.
func (h *AuthHandler) HandleLoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{
		"Title": "Acceso",
		"Error": c.Query("error"),
	}, "layouts/main")
}

// HandleLogin authenticates the administrator and sets the session cookie.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login form: %v", err)
		return c.Redirect("/login?error=Solicitud inválida", fiber.StatusSeeOther)
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Redirect("/login?error=Usuario y contraseña son obligatorios", fiber.StatusSeeOther)
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		log.Printf("Login failed for %q: %v", req.Username, err)
		return c.Redirect("/login?error=Credenciales inválidas", fiber.StatusSeeOther)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(h.authService.TokenTTL()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleLogout clears the session cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	c.ClearCookie(middleware.SessionCookie)
	return c.Redirect("/login", fiber.StatusSeeOther)
}
