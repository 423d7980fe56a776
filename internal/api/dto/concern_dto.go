package dto

import (
	"time"

	"github.com/spec-kit/campus-voice/internal/domain"
)

// CreateConcernRequest payload.
type CreateConcernRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    domain.ConcernCategory `json:"category"`
	Urgency     domain.ConcernUrgency  `json:"urgency"`
	IsAnonymous bool                   `json:"is_anonymous"`
}

// UpdateConcernRequest is the admin transition payload.
type UpdateConcernRequest struct {
	Status  domain.ConcernStatus `json:"status"`
	Comment string               `json:"comment"`
}

// ConcernResponse represents one concern row. OwnerID is omitted for
// anonymous submissions rendered to reviewers.
type ConcernResponse struct {
	ID          string                 `json:"id"`
	OwnerID     string                 `json:"owner_id,omitempty"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    domain.ConcernCategory `json:"category"`
	Urgency     domain.ConcernUrgency  `json:"urgency"`
	Status      domain.ConcernStatus   `json:"status"`
	IsAnonymous bool                   `json:"is_anonymous"`
	CreatedAt   time.Time              `json:"created_at"`
	ResolvedAt  *time.Time             `json:"resolved_at,omitempty"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID             string    `json:"id"`
	Comment        string    `json:"comment"`
	IsAdminComment bool      `json:"is_admin_comment"`
	CreatedAt      time.Time `json:"created_at"`
}

// UpdateConcernResponse reports a completed transition, including whether
// the bundled comment made it.
type UpdateConcernResponse struct {
	Concern      ConcernResponse `json:"concern"`
	CommentError string          `json:"comment_error,omitempty"`
}
