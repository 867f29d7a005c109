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

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// channel subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository
// backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle subscribes or unsubscribes subscriberID from channelID and reports
// the resulting state. Runs as one retryable transaction with the unique
// constraint as a backstop, so concurrent duplicate toggles collapse to a
// single subscription row at most.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var subscribed bool
	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM subscriptions
            WHERE subscriber_id = $1 AND channel_id = $2
        `, subscriberID, channelID)
		if err != nil {
			return fmt.Errorf("delete subscription: %w", err)
		}
		if tag.RowsAffected() > 0 {
			subscribed = false
			return nil
		}

		_, err = tx.Exec(ctx, `
            INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (subscriber_id, channel_id) DO NOTHING
        `, uuid.NewString(), subscriberID, channelID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("insert subscription: %w", err)
		}
		subscribed = true
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle subscription: %w", err)
	}

	return subscribed, nil
}

// ListSubscribers returns a newest-first page of a channel's subscribers with
// each subscriber's public fields.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string, page models.PageRequest) ([]models.Subscriber, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1
    `, channelID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscribers: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT s.id, s.created_at, u.id, u.username, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
        LIMIT $2 OFFSET $3
    `, channelID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []models.Subscriber
	for rows.Next() {
		var s models.Subscriber
		if err := rows.Scan(
			&s.ID, &s.SubscribedAt,
			&s.Subscriber.ID, &s.Subscriber.Username, &s.Subscriber.FullName, &s.Subscriber.AvatarURL,
		); err != nil {
			return nil, 0, fmt.Errorf("scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate subscribers: %w", err)
	}

	return subscribers, total, nil
}

// ListSubscribedChannels returns a newest-first page of the channels a user
// subscribes to, each with a subscriber count computed at query time.
func (r *PostgresSubscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID string, page models.PageRequest) ([]models.SubscribedChannel, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1
    `, subscriberID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscribed channels: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT s.id, s.created_at,
               u.id, u.username, u.full_name, u.avatar_url, u.cover_image_url,
               (SELECT COUNT(*) FROM subscriptions sc WHERE sc.channel_id = u.id)
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
        LIMIT $2 OFFSET $3
    `, subscriberID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query subscribed channels: %w", err)
	}
	defer rows.Close()

	var channels []models.SubscribedChannel
	for rows.Next() {
		var c models.SubscribedChannel
		if err := rows.Scan(
			&c.ID, &c.SubscribedAt,
			&c.Channel.ID, &c.Channel.Username, &c.Channel.FullName, &c.Channel.AvatarURL,
			&c.CoverImageURL, &c.SubscriberCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan subscribed channel: %w", err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate subscribed channels: %w", err)
	}

	return channels, total, nil
}
