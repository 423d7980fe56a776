package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-voice/internal/api/dto"
	"github.com/spec-kit/campus-voice/internal/auth"
	"github.com/spec-kit/campus-voice/internal/domain"
	"github.com/spec-kit/campus-voice/internal/repository"
	"github.com/spec-kit/campus-voice/internal/service"
	apperrors "github.com/spec-kit/campus-voice/pkg/util"
)

// AdminHandler serves the administrator dashboard over the all-rows
// partition and applies lifecycle transitions.
type AdminHandler struct {
	service *service.ConcernService
	roles   repository.RoleRepository
}

// NewAdminHandler constructs handler.
func NewAdminHandler(concernService *service.ConcernService, roles repository.RoleRepository) *AdminHandler {
	return &AdminHandler{service: concernService, roles: roles}
}

// Dashboard GET /api/dashboard/admin: every concern plus the counters.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	if _, err := h.requireAdminRow(c); err != nil {
		return err
	}

	scope := repository.ScopeAll()
	concerns, err := h.service.ListConcerns(c.Context(), scope)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.Context(), scope)
	if err != nil {
		return err
	}

	items := make([]dto.ConcernResponse, 0, len(concerns))
	for i := range concerns {
		items = append(items, concernResponse(&concerns[i], true))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"concerns": items, "stats": stats}})
}

// Update PATCH /api/admin/concerns/:id: apply a status transition with an
// optional comment. A lost comment after a successful transition is
// reported alongside the updated concern, not as a failure.
func (h *AdminHandler) Update(c *fiber.Ctx) error {
	principal, err := h.requireAdminRow(c)
	if err != nil {
		return err
	}

	var req dto.UpdateConcernRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	result, err := h.service.ApplyTransition(c.Context(), service.Actor{
		UserID: principal.UserID,
		Role:   principal.Role,
	}, service.TransitionInput{
		ConcernID: c.Params("id"),
		NewStatus: req.Status,
		Comment:   req.Comment,
	})
	if err != nil {
		return err
	}

	resp := dto.UpdateConcernResponse{Concern: concernResponse(result.Concern, true)}
	if result.CommentErr != nil {
		resp.CommentError = apperrors.ToDomainError(result.CommentErr).Message
	}
	return c.JSON(fiber.Map{"data": resp})
}

// requireAdminRow re-checks the role store with the role=admin equality
// filter, on top of the route guard. Mirrors the admin dashboard's gate in
// the sign-in flow.
func (h *AdminHandler) requireAdminRow(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthenticated("sign in required")
	}
	isAdmin, err := h.roles.HasRole(c.Context(), principal.UserID, domain.RoleAdmin)
	if err != nil {
		return nil, apperrors.NewBackendUnavailable(err)
	}
	if !isAdmin {
		return nil, apperrors.NewWrongRole(domain.DashboardPath(principal.Role))
	}
	return principal, nil
}
