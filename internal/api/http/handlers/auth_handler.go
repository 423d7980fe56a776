package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-voice/internal/api/dto"
	"github.com/spec-kit/campus-voice/internal/domain"
	"github.com/spec-kit/campus-voice/internal/service"
	apperrors "github.com/spec-kit/campus-voice/pkg/util"
)

// AuthHandler manages registration and the role-door login endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, token, exp, err := h.service.Register(c.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SessionResponse{
		Token:     token,
		ExpiresAt: exp,
		UserID:    user.ID,
		Name:      user.Name,
		Role:      req.Role,
		Dashboard: domain.DashboardPath(req.Role),
	}})
}

// Login POST /auth/login/:role. The route parameter is the door: accounts
// with a different role row are rejected.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	door := domain.Role(c.Params("role"))
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.service.LoginWithRole(c.Context(), req.Email, req.Password, door)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{
		Token:     token,
		ExpiresAt: exp,
		UserID:    user.ID,
		Name:      user.Name,
		Role:      door,
		Dashboard: domain.DashboardPath(door),
	}})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.Context(), ""); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"redirect": "/login"}})
}
