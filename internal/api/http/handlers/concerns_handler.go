package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-voice/internal/api/dto"
	"github.com/spec-kit/campus-voice/internal/auth"
	"github.com/spec-kit/campus-voice/internal/domain"
	"github.com/spec-kit/campus-voice/internal/repository"
	"github.com/spec-kit/campus-voice/internal/service"
	apperrors "github.com/spec-kit/campus-voice/pkg/util"
)

// ConcernsHandler serves the submitter and staff dashboards: a principal's
// own partition plus concern submission.
type ConcernsHandler struct {
	service *service.ConcernService
}

// NewConcernsHandler constructs handler.
func NewConcernsHandler(concernService *service.ConcernService) *ConcernsHandler {
	return &ConcernsHandler{service: concernService}
}

// Create POST /api/concerns.
func (h *ConcernsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("sign in required")
	}
	var req dto.CreateConcernRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	concern, err := h.service.CreateConcern(c.Context(), principal.UserID, service.ConcernCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Urgency:     req.Urgency,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": concernResponse(concern, false)})
}

// Dashboard GET /api/dashboard/submitter and /api/dashboard/staff: the
// principal's own concerns, newest first, plus the status counters.
func (h *ConcernsHandler) Dashboard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("sign in required")
	}
	scope := repository.ScopeOwnedBy(principal.UserID)

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
		items = append(items, concernResponse(&concerns[i], false))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"concerns": items, "stats": stats}})
}

// Comments GET /api/concerns/:id/comments. Owners see their own thread;
// admins see any.
func (h *ConcernsHandler) Comments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("sign in required")
	}

	concern, err := h.service.GetConcern(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if concern.UserID != principal.UserID && principal.Role != domain.RoleAdmin {
		return apperrors.NewWrongRole(domain.DashboardPath(principal.Role))
	}

	comments, err := h.service.ListComments(c.Context(), concern.ID)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, dto.CommentResponse{
			ID:             comment.ID,
			Comment:        comment.Comment,
			IsAdminComment: comment.IsAdminComment,
			CreatedAt:      comment.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// concernResponse maps a concern row. forReviewer hides the owner of
// anonymous submissions; owners always see their own rows unmasked.
func concernResponse(concern *domain.Concern, forReviewer bool) dto.ConcernResponse {
	resp := dto.ConcernResponse{
		ID:          concern.ID,
		OwnerID:     concern.UserID,
		Title:       concern.Title,
		Description: concern.Description,
		Category:    concern.Category,
		Urgency:     concern.Urgency,
		Status:      concern.Status,
		IsAnonymous: concern.IsAnonymous,
		CreatedAt:   concern.CreatedAt,
		ResolvedAt:  concern.ResolvedAt,
	}
	if forReviewer && concern.IsAnonymous {
		resp.OwnerID = ""
	}
	return resp
}
