package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sumitahmed/vidtube/internal/auth"
	"github.com/sumitahmed/vidtube/internal/config"
	"github.com/sumitahmed/vidtube/internal/handlers"
	"github.com/sumitahmed/vidtube/internal/middleware"
	"github.com/sumitahmed/vidtube/internal/repositories"
	"github.com/sumitahmed/vidtube/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) (handlers.Dependencies, error) {
	tokens, err := auth.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	media, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	// 10 auth attempts per minute per IP, small burst headroom.
	authLimiter := middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute)

	return handlers.Dependencies{
		Users:         repositories.NewPostgresUserRepository(pool),
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		History:       repositories.NewPostgresWatchHistoryRepository(pool),
		Dashboard:     repositories.NewPostgresDashboardRepository(pool),

		Tokens:      tokens,
		Media:       media,
		DB:          pool,
		AuthLimiter: authLimiter,

		MaxUploadBytes: cfg.MaxUploadBytes,
	}, nil
}
