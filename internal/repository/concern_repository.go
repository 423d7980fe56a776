package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-voice/internal/domain"
)

// ConcernScope selects the partition a list covers: every concern, or the
// concerns owned by one principal. The same scopes drive the realtime
// subscriptions.
type ConcernScope struct {
	OwnerID *string
}

// ScopeAll covers every concern row.
func ScopeAll() ConcernScope {
	return ConcernScope{}
}

// ScopeOwnedBy covers concerns owned by a single principal.
func ScopeOwnedBy(ownerID string) ConcernScope {
	return ConcernScope{OwnerID: &ownerID}
}

// StatusUpdate is the typed partial update applied by the lifecycle
// controller. Nil fields are left untouched, so a transition that does not
// enter resolved never clears an existing resolved_at.
type StatusUpdate struct {
	Status     *domain.ConcernStatus
	ResolvedAt *time.Time
}

// ConcernRepository encapsulates concern persistence. It carries no
// authorization logic; the guard and the backend's row-level enforcement
// own that.
type ConcernRepository interface {
	Create(ctx context.Context, concern *domain.Concern) error
	GetByID(ctx context.Context, id string) (*domain.Concern, error)
	List(ctx context.Context, scope ConcernScope) ([]domain.Concern, error)
	ApplyStatusUpdate(ctx context.Context, id string, update StatusUpdate) error
}

type concernRepository struct {
	pool *pgxpool.Pool
}

// NewConcernRepository instantiates repository.
func NewConcernRepository(pool *pgxpool.Pool) ConcernRepository {
	return &concernRepository{pool: pool}
}

func (r *concernRepository) Create(ctx context.Context, concern *domain.Concern) error {
	const query = `
        INSERT INTO concerns (user_id, title, description, category, urgency, status, is_anonymous)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		concern.UserID,
		concern.Title,
		concern.Description,
		concern.Category,
		concern.Urgency,
		concern.Status,
		concern.IsAnonymous,
	).Scan(&concern.ID, &concern.CreatedAt)
}

func (r *concernRepository) GetByID(ctx context.Context, id string) (*domain.Concern, error) {
	const query = `
        SELECT id, user_id, title, description, category, urgency, status, is_anonymous, created_at, resolved_at
        FROM concerns WHERE id=$1`
	var concern domain.Concern
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&concern.ID,
		&concern.UserID,
		&concern.Title,
		&concern.Description,
		&concern.Category,
		&concern.Urgency,
		&concern.Status,
		&concern.IsAnonymous,
		&concern.CreatedAt,
		&concern.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &concern, nil
}

func (r *concernRepository) List(ctx context.Context, scope ConcernScope) ([]domain.Concern, error) {
	const base = `
        SELECT id, user_id, title, description, category, urgency, status, is_anonymous, created_at, resolved_at
        FROM concerns`

	var rows pgx.Rows
	var err error
	if scope.OwnerID != nil {
		rows, err = r.pool.Query(ctx, base+` WHERE user_id=$1 ORDER BY created_at DESC`, *scope.OwnerID)
	} else {
		rows, err = r.pool.Query(ctx, base+` ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConcerns(rows)
}

func (r *concernRepository) ApplyStatusUpdate(ctx context.Context, id string, update StatusUpdate) error {
	const query = `
        UPDATE concerns SET
            status = COALESCE($1, status),
            resolved_at = COALESCE($2, resolved_at)
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, update.Status, update.ResolvedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanConcerns(rows pgx.Rows) ([]domain.Concern, error) {
	var result []domain.Concern
	for rows.Next() {
		var concern domain.Concern
		if err := rows.Scan(
			&concern.ID,
			&concern.UserID,
			&concern.Title,
			&concern.Description,
			&concern.Category,
			&concern.Urgency,
			&concern.Status,
			&concern.IsAnonymous,
			&concern.CreatedAt,
			&concern.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, concern)
	}
	return result, rows.Err()
}
