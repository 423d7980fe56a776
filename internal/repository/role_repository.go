package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-voice/internal/domain"
)

// RoleRepository is the queryable principal-id → role mapping. The backend
// enforces the one-row-per-user invariant with a uniqueness constraint; this
// layer never re-derives it.
type RoleRepository interface {
	Assign(ctx context.Context, userID string, role domain.Role) error
	GetByUserID(ctx context.Context, userID string) (domain.Role, error)
	HasRole(ctx context.Context, userID string, role domain.Role) (bool, error)
}

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository instantiates the repository.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) Assign(ctx context.Context, userID string, role domain.Role) error {
	const query = `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`
	_, err := r.pool.Exec(ctx, query, userID, role)
	return err
}

func (r *roleRepository) GetByUserID(ctx context.Context, userID string) (domain.Role, error) {
	const query = `SELECT role FROM user_roles WHERE user_id=$1`
	var role domain.Role
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&role); err != nil {
		return "", err
	}
	return role, nil
}

// HasRole queries by user id and role together, the shape the admin gate
// uses (user_id equality plus role equality).
func (r *roleRepository) HasRole(ctx context.Context, userID string, role domain.Role) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM user_roles WHERE user_id=$1 AND role=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, role).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
