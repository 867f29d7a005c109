package models

import "time"

// User represents an account within the VidTube platform. The password hash,
// refresh token, and storage keys never leave the service.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	PasswordHash  string    `json:"-"`
	AvatarURL     string    `json:"avatar"`
	AvatarKey     string    `json:"-"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CoverImageKey string    `json:"-"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// OwnerSummary is the public projection of a user embedded in owned resources.
type OwnerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullname"`
	AvatarURL string `json:"avatar"`
}

// Summary returns the public projection of the user.
func (u User) Summary() OwnerSummary {
	return OwnerSummary{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

// Video is a published or draft video owned by a user. Views are monotonic
// and incremented server-side on every fetch by id.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoFile"`
	VideoKey     string    `json:"-"`
	ThumbnailURL string    `json:"thumbnail"`
	ThumbnailKey string    `json:"-"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VideoWithOwner pairs a video with its owner's public fields.
type VideoWithOwner struct {
	Video
	Owner OwnerSummary `json:"owner"`
}

// Comment is attached to a single video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentWithOwner adds the commenter's public fields and a like count
// computed at query time.
type CommentWithOwner struct {
	Comment
	Owner      OwnerSummary `json:"owner"`
	LikesCount int64        `json:"likesCount"`
}

// LikeTarget identifies what kind of resource a like points at. The pairing
// of one kind with one target id makes the "exactly one target" invariant
// structural.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// Like records that a user liked a target. At most one like exists per
// (likedBy, targetKind, targetId), enforced by a unique constraint.
type Like struct {
	ID         string     `json:"id"`
	LikedBy    string     `json:"likedBy"`
	TargetKind LikeTarget `json:"targetKind"`
	TargetID   string     `json:"targetId"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Subscription links a subscriber to a channel (both users).
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Subscriber is one entry in a channel's subscriber listing.
type Subscriber struct {
	ID           string       `json:"id"`
	Subscriber   OwnerSummary `json:"subscriber"`
	SubscribedAt time.Time    `json:"subscribedAt"`
}

// SubscribedChannel is one entry in a user's subscribed-channel listing.
// SubscriberCount is computed at query time.
type SubscribedChannel struct {
	ID              string       `json:"id"`
	Channel         OwnerSummary `json:"channel"`
	CoverImageURL   string       `json:"coverImage,omitempty"`
	SubscriberCount int64        `json:"subscriberCount"`
	SubscribedAt    time.Time    `json:"subscribedAt"`
}

// Playlist is an ordered collection of video references owned by a user.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistWithVideos carries the playlist together with its owner and the
// resolved videos in playlist order.
type PlaylistWithVideos struct {
	Playlist
	Owner  OwnerSummary     `json:"owner"`
	Videos []VideoWithOwner `json:"videos"`
}

// Tweet is a short text post, at most 280 characters.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TweetWithOwner adds the author's public fields and a like count.
type TweetWithOwner struct {
	Tweet
	Owner      OwnerSummary `json:"owner"`
	LikesCount int64        `json:"likesCount"`
}

// WatchHistoryEntry is one video in a user's watch history, newest first.
type WatchHistoryEntry struct {
	Video     VideoWithOwner `json:"video"`
	WatchedAt time.Time      `json:"watchedAt"`
}

// LikedVideo is one entry in a user's liked-video listing.
type LikedVideo struct {
	ID      string         `json:"id"`
	Video   VideoWithOwner `json:"video"`
	LikedAt time.Time      `json:"likedAt"`
}

// ChannelProfile is the aggregated public view of a user's channel.
type ChannelProfile struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	FullName                  string `json:"fullname"`
	AvatarURL                 string `json:"avatar"`
	CoverImageURL             string `json:"coverImage,omitempty"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	VideosCount               int64  `json:"videosCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// ChannelStats aggregates per-channel dashboard numbers, computed per request.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalSubscribers int64 `json:"totalSubscribers"`
}

// DashboardVideo is a channel-owned video with engagement counts.
type DashboardVideo struct {
	VideoWithOwner
	LikesCount    int64 `json:"likesCount"`
	CommentsCount int64 `json:"commentsCount"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Pagination describes the page window returned by listing endpoints.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPagination derives page metadata from a total row count and page window.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       limit,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// PageRequest is the normalized page/limit pair parsed from query parameters.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset converts the page window into a SQL offset.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// VideoListParams captures the filters accepted by the public video listing.
type VideoListParams struct {
	PageRequest
	Query    string
	OwnerID  string
	SortBy   string
	SortType string
}
