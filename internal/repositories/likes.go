package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sumitahmed/vidtube/internal/db"
	"github.com/sumitahmed/vidtube/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle flips the like state for (likedBy, kind, targetID) and reports the
// resulting state. The delete-then-insert runs in one retryable transaction
// and the unique constraint backstops concurrent duplicates, so two racing
// toggles can never leave two rows behind.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, likedBy string, kind models.LikeTarget, targetID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var liked bool
	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM likes
            WHERE liked_by = $1 AND target_kind = $2 AND target_id = $3
        `, likedBy, kind, targetID)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
		if tag.RowsAffected() > 0 {
			liked = false
			return nil
		}

		_, err = tx.Exec(ctx, `
            INSERT INTO likes (id, liked_by, target_kind, target_id, created_at)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (liked_by, target_kind, target_id) DO NOTHING
        `, uuid.NewString(), likedBy, kind, targetID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("insert like: %w", err)
		}
		liked = true
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle like: %w", err)
	}

	return liked, nil
}

// CountForTarget returns the number of likes pointing at a target.
func (r *PostgresLikeRepository) CountForTarget(ctx context.Context, kind models.LikeTarget, targetID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM likes WHERE target_kind = $1 AND target_id = $2
    `, kind, targetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}

// ListLikedVideos returns a newest-liked-first page of the user's liked
// videos joined with each video's owner.
func (r *PostgresLikeRepository) ListLikedVideos(ctx context.Context, userID string, page models.PageRequest) ([]models.LikedVideo, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM likes
        WHERE liked_by = $1 AND target_kind = 'video'
    `, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count liked videos: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT l.id, l.created_at, `+videoWithOwnerColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.target_id
        JOIN users u ON u.id = v.owner_id
        WHERE l.liked_by = $1 AND l.target_kind = 'video'
        ORDER BY l.created_at DESC
        LIMIT $2 OFFSET $3
    `, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	var liked []models.LikedVideo
	for rows.Next() {
		var entry models.LikedVideo
		v := &entry.Video
		if err := rows.Scan(
			&entry.ID, &entry.LikedAt,
			&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.VideoKey,
			&v.ThumbnailURL, &v.ThumbnailKey, &v.Duration, &v.Views, &v.IsPublished,
			&v.CreatedAt, &v.UpdatedAt,
			&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.AvatarURL,
		); err != nil {
			return nil, 0, fmt.Errorf("scan liked video: %w", err)
		}
		liked = append(liked, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate liked videos: %w", err)
	}

	return liked, total, nil
}
