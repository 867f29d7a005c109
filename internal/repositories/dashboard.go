package repositories

import (
	"context"
	"fmt"

	"github.com/sumitahmed/vidtube/internal/db"
	"github.com/sumitahmed/vidtube/internal/models"
)

// PostgresDashboardRepository computes per-channel aggregates. Everything is
// computed per request; there is no caching layer.
type PostgresDashboardRepository struct {
	pool db.Pool
}

// NewPostgresDashboardRepository constructs a dashboard repository backed by
// PostgreSQL.
func NewPostgresDashboardRepository(pool db.Pool) *PostgresDashboardRepository {
	return &PostgresDashboardRepository{pool: pool}
}

// Stats aggregates the channel totals for a user's own videos plus their
// subscriber count.
func (r *PostgresDashboardRepository) Stats(ctx context.Context, userID string) (models.ChannelStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM videos v WHERE v.owner_id = $1),
            (SELECT COALESCE(SUM(v.views), 0) FROM videos v WHERE v.owner_id = $1),
            (SELECT COUNT(*) FROM likes l
             JOIN videos v ON v.id = l.target_id
             WHERE l.target_kind = 'video' AND v.owner_id = $1),
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = $1)
    `, userID)

	var stats models.ChannelStats
	if err := row.Scan(&stats.TotalVideos, &stats.TotalViews, &stats.TotalLikes, &stats.TotalSubscribers); err != nil {
		return models.ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}

	return stats, nil
}

// Videos returns a page of the user's own videos, published or not, each
// with like and comment counts.
func (r *PostgresDashboardRepository) Videos(ctx context.Context, userID string, params models.VideoListParams) ([]models.DashboardVideo, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE owner_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count channel videos: %w", err)
	}

	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s,
               (SELECT COUNT(*) FROM likes l
                WHERE l.target_kind = 'video' AND l.target_id = v.id),
               (SELECT COUNT(*) FROM comments c WHERE c.video_id = v.id)
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.owner_id = $1
        %s
        LIMIT $2 OFFSET $3
    `, videoWithOwnerColumns, videoOrderBy(params.SortBy, params.SortType)),
		userID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query channel videos: %w", err)
	}
	defer rows.Close()

	var videos []models.DashboardVideo
	for rows.Next() {
		var d models.DashboardVideo
		v := &d.VideoWithOwner
		if err := rows.Scan(
			&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.VideoKey,
			&v.ThumbnailURL, &v.ThumbnailKey, &v.Duration, &v.Views, &v.IsPublished,
			&v.CreatedAt, &v.UpdatedAt,
			&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.AvatarURL,
			&d.LikesCount, &d.CommentsCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan channel video: %w", err)
		}
		videos = append(videos, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate channel videos: %w", err)
	}

	return videos, total, nil
}
