package domain

import "time"

// ConcernComment is an append-only note attached to a concern, usually the
// administrator response bundled with a status change.
type ConcernComment struct {
	ID             string
	ConcernID      string
	UserID         string
	Comment        string
	IsAdminComment bool
	CreatedAt      time.Time
}
