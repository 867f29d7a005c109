package handlers

import (
	"context"
	"io"

	"github.com/sumitahmed/vidtube/internal/models"
	"github.com/sumitahmed/vidtube/internal/storage"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, username, email string) (models.User, error)
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, url, key string) error
	UpdateCoverImage(ctx context.Context, userID, url, key string) error
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// TokenIssuer mints and verifies the session token pair.
type TokenIssuer interface {
	Issue(userID, username, email string) (models.SessionTokens, error)
	ValidateRefresh(token string) (string, error)
}

// MediaStore persists uploaded media objects.
type MediaStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (storage.Object, error)
	Delete(ctx context.Context, key string) error
}

// VideoStore captures persistence for the video endpoints.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	GetWithOwner(ctx context.Context, id string) (models.VideoWithOwner, error)
	ViewAndGet(ctx context.Context, id string) (models.VideoWithOwner, error)
	List(ctx context.Context, params models.VideoListParams) ([]models.VideoWithOwner, int64, error)
	Update(ctx context.Context, video models.Video) error
	TogglePublish(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// CommentStore captures persistence for the comment endpoints.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	GetWithOwner(ctx context.Context, id string) (models.CommentWithOwner, error)
	ListForVideo(ctx context.Context, videoID string, page models.PageRequest) ([]models.CommentWithOwner, int64, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// LikeStore toggles and lists likes across the three target kinds.
type LikeStore interface {
	Toggle(ctx context.Context, likedBy string, kind models.LikeTarget, targetID string) (bool, error)
	ListLikedVideos(ctx context.Context, userID string, page models.PageRequest) ([]models.LikedVideo, int64, error)
}

// SubscriptionStore toggles and lists channel subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscribers(ctx context.Context, channelID string, page models.PageRequest) ([]models.Subscriber, int64, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string, page models.PageRequest) ([]models.SubscribedChannel, int64, error)
}

// PlaylistStore captures persistence for the playlist endpoints.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	GetWithVideos(ctx context.Context, id string) (models.PlaylistWithVideos, error)
	ListForUser(ctx context.Context, userID string) ([]models.PlaylistWithVideos, error)
	Update(ctx context.Context, id, name, description string) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// TweetStore captures persistence for the tweet endpoints.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListForUser(ctx context.Context, userID string, page models.PageRequest) ([]models.TweetWithOwner, int64, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// WatchHistoryStore records and lists watched videos.
type WatchHistoryStore interface {
	Add(ctx context.Context, userID, videoID string) error
	List(ctx context.Context, userID string, page models.PageRequest) ([]models.WatchHistoryEntry, int64, error)
}

// DashboardStore computes per-channel aggregates.
type DashboardStore interface {
	Stats(ctx context.Context, userID string) (models.ChannelStats, error)
	Videos(ctx context.Context, userID string, params models.VideoListParams) ([]models.DashboardVideo, int64, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
