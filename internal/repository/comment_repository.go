package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-voice/internal/domain"
)

// CommentRepository manages the append-only comment thread of a concern.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.ConcernComment) error
	ListByConcern(ctx context.Context, concernID string) ([]domain.ConcernComment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.ConcernComment) error {
	const query = `
        INSERT INTO concern_comments (concern_id, user_id, comment, is_admin_comment)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.ConcernID,
		comment.UserID,
		comment.Comment,
		comment.IsAdminComment,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByConcern(ctx context.Context, concernID string) ([]domain.ConcernComment, error) {
	const query = `
        SELECT id, concern_id, user_id, comment, is_admin_comment, created_at
        FROM concern_comments WHERE concern_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, concernID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ConcernComment
	for rows.Next() {
		var comment domain.ConcernComment
		if err := rows.Scan(
			&comment.ID,
			&comment.ConcernID,
			&comment.UserID,
			&comment.Comment,
			&comment.IsAdminComment,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
