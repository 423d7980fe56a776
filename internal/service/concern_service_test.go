package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-voice/internal/domain"
	"github.com/spec-kit/campus-voice/internal/events"
	"github.com/spec-kit/campus-voice/internal/repository"
	apperrors "github.com/spec-kit/campus-voice/pkg/util"
)

func newTestService(t *testing.T) (*ConcernService, *fakeConcernRepo, *fakeCommentRepo, *captureDispatcher) {
	t.Helper()
	concerns := newFakeConcernRepo()
	comments := &fakeCommentRepo{}
	dispatcher := &captureDispatcher{}
	svc := NewConcernService(ConcernDependencies{
		ConcernRepo: concerns,
		CommentRepo: comments,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	return svc, concerns, comments, dispatcher
}

func TestCreateConcernStartsPending(t *testing.T) {
	svc, _, _, dispatcher := newTestService(t)

	concern, err := svc.CreateConcern(context.Background(), "owner-1", ConcernCreateInput{
		Title:       "Broken AC",
		Description: "The AC in room 204 is broken",
		Category:    domain.CategoryInfrastructure,
		Urgency:     domain.UrgencyHigh,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if concern.Status != domain.ConcernStatusPending {
		t.Fatalf("Status = %q, want pending", concern.Status)
	}
	if concern.ResolvedAt != nil {
		t.Fatal("new concern must have nil ResolvedAt")
	}
	if concern.ID == "" {
		t.Fatal("expected assigned id")
	}
	if len(dispatcher.published) != 1 || dispatcher.published[0].Type != events.EventConcernCreated {
		t.Fatalf("expected one concern_created event, got %+v", dispatcher.published)
	}
}

func TestCreateConcernValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input ConcernCreateInput
	}{
		{name: "empty title", input: ConcernCreateInput{Description: "d", Category: domain.CategoryOther}},
		{name: "empty description", input: ConcernCreateInput{Title: "t", Category: domain.CategoryOther}},
		{name: "missing category", input: ConcernCreateInput{Title: "t", Description: "d"}},
		{name: "unknown category", input: ConcernCreateInput{Title: "t", Description: "d", Category: "sports"}},
		{name: "unknown urgency", input: ConcernCreateInput{Title: "t", Description: "d", Category: domain.CategoryOther, Urgency: "critical"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateConcern(ctx, "owner-1", tc.input); !isCode(err, "VALIDATION_FAILED") {
				t.Fatalf("expected VALIDATION_FAILED, got %v", err)
			}
		})
	}
}

func TestCreateConcernDefaultsUrgency(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	concern, err := svc.CreateConcern(context.Background(), "owner-1", ConcernCreateInput{
		Title:       "t",
		Description: "d",
		Category:    domain.CategoryOther,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if concern.Urgency != domain.UrgencyMedium {
		t.Fatalf("Urgency = %q, want medium", concern.Urgency)
	}
}

func TestListConcernsScopedNewestFirst(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateConcern(ctx, "alice", ConcernCreateInput{
			Title: fmt.Sprintf("alice %d", i), Description: "d", Category: domain.CategoryAcademic,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := svc.CreateConcern(ctx, "bob", ConcernCreateInput{
		Title: "bob 0", Description: "d", Category: domain.CategoryFinance,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	owned, err := svc.ListConcerns(ctx, repository.ScopeOwnedBy("alice"))
	if err != nil {
		t.Fatalf("list owned: %v", err)
	}
	if len(owned) != 3 {
		t.Fatalf("owned list size = %d, want 3", len(owned))
	}
	for _, concern := range owned {
		if concern.UserID != "alice" {
			t.Fatalf("owned list leaked concern of %q", concern.UserID)
		}
	}
	for i := 1; i < len(owned); i++ {
		if owned[i].CreatedAt.After(owned[i-1].CreatedAt) {
			t.Fatal("owned list not ordered newest first")
		}
	}

	all, err := svc.ListConcerns(ctx, repository.ScopeAll())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("all list size = %d, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatal("all list not ordered newest first")
		}
	}
}

func TestListConcernsBackendFailureIsRetryable(t *testing.T) {
	svc, concerns, _, _ := newTestService(t)
	concerns.listErr = errors.New("connection refused")

	if _, err := svc.ListConcerns(context.Background(), repository.ScopeAll()); !isCode(err, "BACKEND_UNAVAILABLE") {
		t.Fatalf("expected BACKEND_UNAVAILABLE, got %v", err)
	}
}

func TestApplyTransitionIntoResolvedStampsTimestamp(t *testing.T) {
	svc, concerns, comments, _ := newTestService(t)
	ctx := context.Background()

	concern := mustCreate(t, svc, "alice")
	stamp := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return stamp }

	result, err := svc.ApplyTransition(ctx, Actor{UserID: "root", Role: domain.RoleAdmin}, TransitionInput{
		ConcernID: concern.ID,
		NewStatus: domain.ConcernStatusResolved,
		Comment:   "Fixed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Concern.Status != domain.ConcernStatusResolved {
		t.Fatalf("Status = %q, want resolved", result.Concern.Status)
	}
	if result.Concern.ResolvedAt == nil || !result.Concern.ResolvedAt.Equal(stamp) {
		t.Fatalf("ResolvedAt = %v, want %v", result.Concern.ResolvedAt, stamp)
	}
	if result.CommentErr != nil {
		t.Fatalf("unexpected comment error: %v", result.CommentErr)
	}

	stored := concerns.store[concern.ID]
	if stored.Status != domain.ConcernStatusResolved || stored.ResolvedAt == nil {
		t.Fatalf("store not updated: %+v", stored)
	}
	if len(comments.store) != 1 {
		t.Fatalf("comment count = %d, want 1", len(comments.store))
	}
	if !comments.store[0].IsAdminComment {
		t.Fatal("admin comment must carry is_admin_comment=true")
	}
	if comments.store[0].Comment != "Fixed" {
		t.Fatalf("comment body = %q", comments.store[0].Comment)
	}
}

func TestApplyTransitionSameStatusKeepsResolvedAt(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	actor := Actor{UserID: "root", Role: domain.RoleAdmin}

	concern := mustCreate(t, svc, "alice")

	first := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	if _, err := svc.ApplyTransition(ctx, actor, TransitionInput{ConcernID: concern.ID, NewStatus: domain.ConcernStatusResolved}); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// Re-applying resolved with a later clock must not move the stamp.
	svc.now = func() time.Time { return first.Add(time.Hour) }
	result, err := svc.ApplyTransition(ctx, actor, TransitionInput{ConcernID: concern.ID, NewStatus: domain.ConcernStatusResolved})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if result.Concern.ResolvedAt == nil || !result.Concern.ResolvedAt.Equal(first) {
		t.Fatalf("ResolvedAt = %v, want original stamp %v", result.Concern.ResolvedAt, first)
	}
}

func TestApplyTransitionRegressionKeepsResolvedAt(t *testing.T) {
	svc, concerns, _, _ := newTestService(t)
	ctx := context.Background()
	actor := Actor{UserID: "root", Role: domain.RoleAdmin}

	concern := mustCreate(t, svc, "alice")
	stamp := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return stamp }
	if _, err := svc.ApplyTransition(ctx, actor, TransitionInput{ConcernID: concern.ID, NewStatus: domain.ConcernStatusResolved}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Regressing away from resolved retains the stale stamp: resolved_at
	// means "first time resolved" and is never cleared.
	result, err := svc.ApplyTransition(ctx, actor, TransitionInput{ConcernID: concern.ID, NewStatus: domain.ConcernStatusUnderReview})
	if err != nil {
		t.Fatalf("regress: %v", err)
	}
	if result.Concern.Status != domain.ConcernStatusUnderReview {
		t.Fatalf("Status = %q, want under_review", result.Concern.Status)
	}
	if result.Concern.ResolvedAt == nil || !result.Concern.ResolvedAt.Equal(stamp) {
		t.Fatalf("ResolvedAt = %v, want retained stamp %v", result.Concern.ResolvedAt, stamp)
	}
	stored := concerns.store[concern.ID]
	if stored.ResolvedAt == nil || !stored.ResolvedAt.Equal(stamp) {
		t.Fatalf("store ResolvedAt = %v, want retained stamp", stored.ResolvedAt)
	}

	// Resolving again from the regressed state re-stamps.
	later := stamp.Add(2 * time.Hour)
	svc.now = func() time.Time { return later }
	result, err = svc.ApplyTransition(ctx, actor, TransitionInput{ConcernID: concern.ID, NewStatus: domain.ConcernStatusResolved})
	if err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
	if result.Concern.ResolvedAt == nil || !result.Concern.ResolvedAt.Equal(later) {
		t.Fatalf("ResolvedAt = %v, want re-stamp %v", result.Concern.ResolvedAt, later)
	}
}

func TestApplyTransitionStatusWriteFailureAborts(t *testing.T) {
	svc, concerns, comments, _ := newTestService(t)
	ctx := context.Background()

	concern := mustCreate(t, svc, "alice")
	concerns.updateErr = errors.New("write refused")

	_, err := svc.ApplyTransition(ctx, Actor{UserID: "root", Role: domain.RoleAdmin}, TransitionInput{
		ConcernID: concern.ID,
		NewStatus: domain.ConcernStatusResolved,
		Comment:   "Fixed",
	})
	if !isCode(err, "TRANSITION_WRITE_FAILED") {
		t.Fatalf("expected TRANSITION_WRITE_FAILED, got %v", err)
	}
	// Failed status write aborts before the comment step.
	if len(comments.store) != 0 {
		t.Fatalf("comment written despite failed transition: %+v", comments.store)
	}
	if stored := concerns.store[concern.ID]; stored.Status != domain.ConcernStatusPending {
		t.Fatalf("store mutated despite failed write: %+v", stored)
	}
}

func TestApplyTransitionCommentIsBestEffort(t *testing.T) {
	svc, concerns, comments, _ := newTestService(t)
	ctx := context.Background()

	concern := mustCreate(t, svc, "alice")
	comments.createErr = errors.New("comment table locked")

	result, err := svc.ApplyTransition(ctx, Actor{UserID: "root", Role: domain.RoleAdmin}, TransitionInput{
		ConcernID: concern.ID,
		NewStatus: domain.ConcernStatusUnderReview,
		Comment:   "looking into it",
	})
	// The transition stands even though the comment was lost.
	if err != nil {
		t.Fatalf("transition must succeed, got %v", err)
	}
	if !isCode(result.CommentErr, "COMMENT_WRITE_FAILED") {
		t.Fatalf("expected COMMENT_WRITE_FAILED in result, got %v", result.CommentErr)
	}
	if stored := concerns.store[concern.ID]; stored.Status != domain.ConcernStatusUnderReview {
		t.Fatalf("store status = %q, want under_review", stored.Status)
	}
}

func TestApplyTransitionWithoutCommentSkipsInsert(t *testing.T) {
	svc, _, comments, _ := newTestService(t)
	ctx := context.Background()

	concern := mustCreate(t, svc, "alice")
	if _, err := svc.ApplyTransition(ctx, Actor{UserID: "root", Role: domain.RoleAdmin}, TransitionInput{
		ConcernID: concern.ID,
		NewStatus: domain.ConcernStatusUnderReview,
		Comment:   "   ",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments.store) != 0 {
		t.Fatalf("blank comment must not be inserted, got %+v", comments.store)
	}
}

func TestApplyTransitionNonAdminComment(t *testing.T) {
	svc, _, comments, _ := newTestService(t)
	ctx := context.Background()

	concern := mustCreate(t, svc, "alice")
	if _, err := svc.ApplyTransition(ctx, Actor{UserID: "carol", Role: domain.RoleStaff}, TransitionInput{
		ConcernID: concern.ID,
		NewStatus: domain.ConcernStatusUnderReview,
		Comment:   "seen",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments.store) != 1 || comments.store[0].IsAdminComment {
		t.Fatalf("staff comment must not be flagged admin: %+v", comments.store)
	}
}

func TestApplyTransitionUnknownStatus(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	concern := mustCreate(t, svc, "alice")

	_, err := svc.ApplyTransition(context.Background(), Actor{UserID: "root", Role: domain.RoleAdmin}, TransitionInput{
		ConcernID: concern.ID,
		NewStatus: "closed",
	})
	if !isCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestApplyTransitionMissingConcern(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.ApplyTransition(context.Background(), Actor{UserID: "root", Role: domain.RoleAdmin}, TransitionInput{
		ConcernID: "missing",
		NewStatus: domain.ConcernStatusResolved,
	})
	if !isCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestApplyTransitionPublishesEvents(t *testing.T) {
	svc, _, _, dispatcher := newTestService(t)
	ctx := context.Background()

	concern := mustCreate(t, svc, "alice")
	dispatcher.published = nil

	if _, err := svc.ApplyTransition(ctx, Actor{UserID: "root", Role: domain.RoleAdmin}, TransitionInput{
		ConcernID: concern.ID,
		NewStatus: domain.ConcernStatusResolved,
		Comment:   "Fixed",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sawStatus, sawComment bool
	for _, event := range dispatcher.published {
		switch event.Type {
		case events.EventConcernStatusChanged:
			sawStatus = true
			if event.OwnerID != "alice" {
				t.Fatalf("status event owner = %q, want alice", event.OwnerID)
			}
		case events.EventConcernCommentAdded:
			sawComment = true
		}
	}
	if !sawStatus || !sawComment {
		t.Fatalf("expected status and comment events, got %+v", dispatcher.published)
	}
}

func TestStats(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	actor := Actor{UserID: "root", Role: domain.RoleAdmin}

	a := mustCreate(t, svc, "alice")
	mustCreate(t, svc, "alice")
	b := mustCreate(t, svc, "bob")

	if _, err := svc.ApplyTransition(ctx, actor, TransitionInput{ConcernID: a.ID, NewStatus: domain.ConcernStatusUnderReview}); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := svc.ApplyTransition(ctx, actor, TransitionInput{ConcernID: b.ID, NewStatus: domain.ConcernStatusResolved}); err != nil {
		t.Fatalf("transition: %v", err)
	}

	stats, err := svc.Stats(ctx, repository.ScopeAll())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := ConcernStats{Total: 3, Pending: 1, UnderReview: 1, Resolved: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

// TestSubmitAndResolveScenario walks the full lifecycle: a staff member
// submits "Broken AC", an admin resolves it with a comment.
func TestSubmitAndResolveScenario(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	concern, err := svc.CreateConcern(ctx, "staff-1", ConcernCreateInput{
		Title:       "Broken AC",
		Description: "AC not working in the east wing",
		Category:    domain.CategoryInfrastructure,
		Urgency:     domain.UrgencyHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if concern.Status != domain.ConcernStatusPending || concern.ResolvedAt != nil {
		t.Fatalf("new concern state: %+v", concern)
	}

	result, err := svc.ApplyTransition(ctx, Actor{UserID: "admin-1", Role: domain.RoleAdmin}, TransitionInput{
		ConcernID: concern.ID,
		NewStatus: domain.ConcernStatusResolved,
		Comment:   "Fixed",
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if result.Concern.Status != domain.ConcernStatusResolved || result.Concern.ResolvedAt == nil {
		t.Fatalf("resolved state: %+v", result.Concern)
	}

	thread, err := svc.ListComments(ctx, concern.ID)
	if err != nil {
		t.Fatalf("comments: %v", err)
	}
	if len(thread) != 1 || !thread[0].IsAdminComment || thread[0].Comment != "Fixed" {
		t.Fatalf("thread = %+v", thread)
	}
}

func mustCreate(t *testing.T, svc *ConcernService, owner string) *domain.Concern {
	t.Helper()
	concern, err := svc.CreateConcern(context.Background(), owner, ConcernCreateInput{
		Title:       "t",
		Description: "d",
		Category:    domain.CategoryOther,
	})
	if err != nil {
		t.Fatalf("create for %s: %v", owner, err)
	}
	return concern
}

func isCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}

type fakeConcernRepo struct {
	store     map[string]*domain.Concern
	seq       int
	createErr error
	updateErr error
	listErr   error
}

func newFakeConcernRepo() *fakeConcernRepo {
	return &fakeConcernRepo{store: make(map[string]*domain.Concern)}
}

func (r *fakeConcernRepo) Create(_ context.Context, concern *domain.Concern) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	concern.ID = fmt.Sprintf("c-%d", r.seq)
	concern.CreatedAt = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.seq) * time.Minute)
	stored := *concern
	r.store[concern.ID] = &stored
	return nil
}

func (r *fakeConcernRepo) GetByID(_ context.Context, id string) (*domain.Concern, error) {
	stored, ok := r.store[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeConcernRepo) List(_ context.Context, scope repository.ConcernScope) ([]domain.Concern, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var result []domain.Concern
	for _, concern := range r.store {
		if scope.OwnerID != nil && concern.UserID != *scope.OwnerID {
			continue
		}
		result = append(result, *concern)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeConcernRepo) ApplyStatusUpdate(_ context.Context, id string, update repository.StatusUpdate) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.store[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if update.Status != nil {
		stored.Status = *update.Status
	}
	if update.ResolvedAt != nil {
		stored.ResolvedAt = update.ResolvedAt
	}
	return nil
}

type fakeCommentRepo struct {
	store     []domain.ConcernComment
	seq       int
	createErr error
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.ConcernComment) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	comment.ID = fmt.Sprintf("cm-%d", r.seq)
	comment.CreatedAt = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.seq) * time.Second)
	r.store = append(r.store, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByConcern(_ context.Context, concernID string) ([]domain.ConcernComment, error) {
	var result []domain.ConcernComment
	for _, comment := range r.store {
		if comment.ConcernID == concernID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type captureDispatcher struct {
	published []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}
