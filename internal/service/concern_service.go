package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-voice/internal/domain"
	"github.com/spec-kit/campus-voice/internal/events"
	"github.com/spec-kit/campus-voice/internal/repository"
	apperrors "github.com/spec-kit/campus-voice/pkg/util"
)

// ConcernService coordinates concern submission, partitioned listing, and
// the status lifecycle.
type ConcernService struct {
	concerns   repository.ConcernRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ConcernDependencies bundles repositories for the concern service.
type ConcernDependencies struct {
	ConcernRepo repository.ConcernRepository
	CommentRepo repository.CommentRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// Actor identifies who is performing an operation.
type Actor struct {
	UserID string
	Role   domain.Role
}

// ConcernCreateInput describes the submission payload.
type ConcernCreateInput struct {
	Title       string
	Description string
	Category    domain.ConcernCategory
	Urgency     domain.ConcernUrgency
	IsAnonymous bool
}

// TransitionInput describes a status change request.
type TransitionInput struct {
	ConcernID string
	NewStatus domain.ConcernStatus
	Comment   string
}

// TransitionResult reports a completed transition. CommentErr is non-nil
// when the status write succeeded but the bundled comment did not; the
// transition stands regardless.
type TransitionResult struct {
	Concern    *domain.Concern
	CommentErr error
}

// ConcernStats are the dashboard counters for one partition.
type ConcernStats struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	UnderReview int `json:"under_review"`
	Resolved    int `json:"resolved"`
}

// NewConcernService constructs the service.
func NewConcernService(deps ConcernDependencies) *ConcernService {
	return &ConcernService{
		concerns:   deps.ConcernRepo,
		comments:   deps.CommentRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// CreateConcern validates and persists a new concern for its owner. New
// concerns always start pending with no resolution timestamp.
func (s *ConcernService) CreateConcern(ctx context.Context, ownerID string, input ConcernCreateInput) (*domain.Concern, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" || input.Category == "" {
		return nil, apperrors.NewValidationError("title, description, category required", nil)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	urgency := input.Urgency
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	if !domain.ValidUrgency(urgency) {
		return nil, apperrors.NewValidationError("unknown urgency", map[string]any{"urgency": urgency})
	}

	concern := &domain.Concern{
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Category:    input.Category,
		Urgency:     urgency,
		Status:      domain.ConcernStatusPending,
		IsAnonymous: input.IsAnonymous,
	}
	if err := s.concerns.Create(ctx, concern); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventConcernCreated,
		ConcernID: concern.ID,
		OwnerID:   concern.UserID,
		ActorID:   ownerID,
		Payload: events.ConcernCreatedPayload{
			Title:    concern.Title,
			Category: concern.Category,
			Urgency:  concern.Urgency,
		},
	})
	return concern, nil
}

// ListConcerns returns the partition's concerns, newest first. Read failures
// surface as retryable so callers keep their last-known list.
func (s *ConcernService) ListConcerns(ctx context.Context, scope repository.ConcernScope) ([]domain.Concern, error) {
	concerns, err := s.concerns.List(ctx, scope)
	if err != nil {
		return nil, apperrors.NewBackendUnavailable(err)
	}
	return concerns, nil
}

// GetConcern fetches a single concern.
func (s *ConcernService) GetConcern(ctx context.Context, id string) (*domain.Concern, error) {
	concern, err := s.concerns.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return concern, nil
}

// ListComments returns a concern's comment thread in insertion order.
func (s *ConcernService) ListComments(ctx context.Context, concernID string) ([]domain.ConcernComment, error) {
	comments, err := s.comments.ListByConcern(ctx, concernID)
	if err != nil {
		return nil, apperrors.NewBackendUnavailable(err)
	}
	return comments, nil
}

// Stats counts the partition by lifecycle state.
func (s *ConcernService) Stats(ctx context.Context, scope repository.ConcernScope) (ConcernStats, error) {
	concerns, err := s.ListConcerns(ctx, scope)
	if err != nil {
		return ConcernStats{}, err
	}
	stats := ConcernStats{Total: len(concerns)}
	for _, concern := range concerns {
		switch concern.Status {
		case domain.ConcernStatusPending:
			stats.Pending++
		case domain.ConcernStatusUnderReview:
			stats.UnderReview++
		case domain.ConcernStatusResolved:
			stats.Resolved++
		}
	}
	return stats, nil
}

// ApplyTransition moves a concern to a new lifecycle state, optionally
// bundling a comment from the acting principal.
//
// The status write and the comment write are deliberately asymmetric: a
// failed status write aborts everything, while a failed comment after a
// successful status write leaves the transition applied and reports the
// comment loss in the result. Do not "fix" this into a transaction; the
// comment is best-effort by contract.
//
// Entering resolved from another state stamps resolved_at. Regressing away
// from resolved leaves the old resolved_at in place: the field means "first
// time resolved", and the store adapter's partial update cannot clear it.
//
// There is no version checking. Two admins updating the same concern
// concurrently resolve to last-writer-wins in the backend.
func (s *ConcernService) ApplyTransition(ctx context.Context, actor Actor, input TransitionInput) (*TransitionResult, error) {
	if !domain.ValidStatus(input.NewStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": input.NewStatus})
	}

	concern, err := s.concerns.GetByID(ctx, input.ConcernID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !domain.CanTransition(concern.Status, input.NewStatus) {
		return nil, apperrors.NewValidationError("transition not permitted", map[string]any{
			"from": concern.Status,
			"to":   input.NewStatus,
		})
	}

	oldStatus := concern.Status
	update := repository.StatusUpdate{Status: &input.NewStatus}
	if input.NewStatus == domain.ConcernStatusResolved &&
		(oldStatus != domain.ConcernStatusResolved || concern.ResolvedAt == nil) {
		now := s.now()
		update.ResolvedAt = &now
	}

	if err := s.concerns.ApplyStatusUpdate(ctx, concern.ID, update); err != nil {
		return nil, apperrors.NewTransitionWriteFailed(err)
	}

	// Backend confirmed; only now reflect the change locally.
	concern.Status = input.NewStatus
	if update.ResolvedAt != nil {
		concern.ResolvedAt = update.ResolvedAt
	}

	result := &TransitionResult{Concern: concern}

	comment := strings.TrimSpace(input.Comment)
	if comment != "" {
		record := &domain.ConcernComment{
			ConcernID:      concern.ID,
			UserID:         actor.UserID,
			Comment:        comment,
			IsAdminComment: actor.Role == domain.RoleAdmin,
		}
		if err := s.comments.Create(ctx, record); err != nil {
			s.logger.Warn("comment write failed after status update",
				zap.String("concern_id", concern.ID),
				zap.Error(err),
			)
			result.CommentErr = apperrors.NewCommentWriteFailed(err)
		} else {
			s.publishEvent(ctx, events.Event{
				Type:      events.EventConcernCommentAdded,
				ConcernID: concern.ID,
				OwnerID:   concern.UserID,
				ActorID:   actor.UserID,
				Payload: events.ConcernCommentAddedPayload{
					CommentID:      record.ID,
					IsAdminComment: record.IsAdminComment,
				},
			})
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventConcernStatusChanged,
		ConcernID: concern.ID,
		OwnerID:   concern.UserID,
		ActorID:   actor.UserID,
		Payload: events.ConcernStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: concern.Status,
			Comment:   comment,
		},
	})

	return result, nil
}

func (s *ConcernService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
