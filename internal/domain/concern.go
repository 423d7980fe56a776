package domain

import "time"

// ConcernStatus enumerates the fixed lifecycle states.
type ConcernStatus string

const (
	ConcernStatusPending     ConcernStatus = "pending"
	ConcernStatusUnderReview ConcernStatus = "under_review"
	ConcernStatusResolved    ConcernStatus = "resolved"
)

// ConcernCategory classifies what the concern is about.
type ConcernCategory string

const (
	CategoryAcademic       ConcernCategory = "academic"
	CategoryInfrastructure ConcernCategory = "infrastructure"
	CategoryBehavior       ConcernCategory = "behavior"
	CategoryFinance        ConcernCategory = "finance"
	CategoryOther          ConcernCategory = "other"
)

// ConcernUrgency ranks how pressing the concern is.
type ConcernUrgency string

const (
	UrgencyLow    ConcernUrgency = "low"
	UrgencyMedium ConcernUrgency = "medium"
	UrgencyHigh   ConcernUrgency = "high"
)

// Concern is the aggregate for a submitted issue. ResolvedAt records the
// first time the concern entered resolved; a later status regression leaves
// it in place.
type Concern struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Category    ConcernCategory
	Urgency     ConcernUrgency
	Status      ConcernStatus
	IsAnonymous bool
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

// allowedTransitions is total over all state pairs: every status is reachable
// from every status. Restricting the lifecycle later means removing entries
// here, nothing else.
var allowedTransitions = map[ConcernStatus][]ConcernStatus{
	ConcernStatusPending:     {ConcernStatusPending, ConcernStatusUnderReview, ConcernStatusResolved},
	ConcernStatusUnderReview: {ConcernStatusPending, ConcernStatusUnderReview, ConcernStatusResolved},
	ConcernStatusResolved:    {ConcernStatusPending, ConcernStatusUnderReview, ConcernStatusResolved},
}

// CanTransition reports whether the lifecycle permits moving between the two
// states.
func CanTransition(current, next ConcernStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ValidStatus reports whether the value is a known lifecycle state.
func ValidStatus(status ConcernStatus) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// ValidCategory reports whether the value is a known category.
func ValidCategory(category ConcernCategory) bool {
	switch category {
	case CategoryAcademic, CategoryInfrastructure, CategoryBehavior, CategoryFinance, CategoryOther:
		return true
	default:
		return false
	}
}

// ValidUrgency reports whether the value is a known urgency level.
func ValidUrgency(urgency ConcernUrgency) bool {
	switch urgency {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	default:
		return false
	}
}
