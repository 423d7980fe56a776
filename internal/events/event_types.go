package events

import (
	"time"

	"github.com/spec-kit/campus-voice/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventConcernCreated       EventType = "concern_created"
	EventConcernStatusChanged EventType = "concern_status_changed"
	EventConcernCommentAdded  EventType = "concern_comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ConcernID string      `json:"concern_id"`
	OwnerID   string      `json:"owner_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ConcernCreatedPayload payload.
type ConcernCreatedPayload struct {
	Title    string                 `json:"title"`
	Category domain.ConcernCategory `json:"category"`
	Urgency  domain.ConcernUrgency  `json:"urgency"`
}

// ConcernStatusChangedPayload payload.
type ConcernStatusChangedPayload struct {
	OldStatus domain.ConcernStatus `json:"old_status"`
	NewStatus domain.ConcernStatus `json:"new_status"`
	Comment   string               `json:"comment,omitempty"`
}

// ConcernCommentAddedPayload payload.
type ConcernCommentAddedPayload struct {
	CommentID      string `json:"comment_id"`
	IsAdminComment bool   `json:"is_admin_comment"`
}
