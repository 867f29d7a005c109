package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/sumitahmed/vidtube/internal/models"
	"github.com/sumitahmed/vidtube/internal/repositories"
	"github.com/sumitahmed/vidtube/internal/storage"
)

type fakeUserStore struct {
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByLogin(_ context.Context, username, email string) (models.User, error) {
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) UpdateRefreshToken(_ context.Context, userID, refreshToken string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = refreshToken
	s.users[userID] = user
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.users[userID] = user
	return nil
}

func (s *fakeUserStore) UpdateAccount(_ context.Context, userID, fullName, email string) (models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.FullName = fullName
	user.Email = email
	s.users[userID] = user
	return user, nil
}

func (s *fakeUserStore) UpdateAvatar(_ context.Context, userID, url, key string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.AvatarURL, user.AvatarKey = url, key
	s.users[userID] = user
	return nil
}

func (s *fakeUserStore) UpdateCoverImage(_ context.Context, userID, url, key string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.CoverImageURL, user.CoverImageKey = url, key
	s.users[userID] = user
	return nil
}

func (s *fakeUserStore) ChannelProfile(_ context.Context, username, _ string) (models.ChannelProfile, error) {
	for _, user := range s.users {
		if user.Username == username {
			return models.ChannelProfile{
				ID:       user.ID,
				Username: user.Username,
				Email:    user.Email,
				FullName: user.FullName,
			}, nil
		}
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

// fakeMediaStore records saves and deletes. Keys with the failPrefix fail
// their Save call.
type fakeMediaStore struct {
	saved      map[string][]byte
	deleted    []string
	failPrefix string
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{saved: make(map[string][]byte)}
}

func (s *fakeMediaStore) Save(_ context.Context, key string, r io.Reader, _ string) (storage.Object, error) {
	if s.failPrefix != "" && len(key) >= len(s.failPrefix) && key[:len(s.failPrefix)] == s.failPrefix {
		return storage.Object{}, fmt.Errorf("save %s: refused", key)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return storage.Object{}, err
	}
	s.saved[key] = buf.Bytes()
	return storage.Object{URL: "https://media.test/" + key, Key: key}, nil
}

func (s *fakeMediaStore) Delete(_ context.Context, key string) error {
	delete(s.saved, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type fakeVideoStore struct {
	videos map[string]models.Video
	owners map[string]models.OwnerSummary
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{
		videos: make(map[string]models.Video),
		owners: make(map[string]models.OwnerSummary),
	}
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) withOwner(video models.Video) models.VideoWithOwner {
	return models.VideoWithOwner{Video: video, Owner: s.owners[video.OwnerID]}
}

func (s *fakeVideoStore) GetWithOwner(_ context.Context, id string) (models.VideoWithOwner, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.VideoWithOwner{}, repositories.ErrNotFound
	}
	return s.withOwner(video), nil
}

func (s *fakeVideoStore) ViewAndGet(_ context.Context, id string) (models.VideoWithOwner, error) {
	video, ok := s.videos[id]
	if !ok || !video.IsPublished {
		return models.VideoWithOwner{}, repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return s.withOwner(video), nil
}

func (s *fakeVideoStore) List(_ context.Context, params models.VideoListParams) ([]models.VideoWithOwner, int64, error) {
	var published []models.Video
	for _, video := range s.videos {
		if !video.IsPublished {
			continue
		}
		if params.OwnerID != "" && video.OwnerID != params.OwnerID {
			continue
		}
		published = append(published, video)
	}
	sort.Slice(published, func(i, j int) bool {
		return published[i].CreatedAt.After(published[j].CreatedAt)
	})

	total := int64(len(published))
	start := params.Offset()
	if start > len(published) {
		start = len(published)
	}
	end := start + params.Limit
	if end > len(published) {
		end = len(published)
	}

	var out []models.VideoWithOwner
	for _, video := range published[start:end] {
		out = append(out, s.withOwner(video))
	}
	return out, total, nil
}

func (s *fakeVideoStore) Update(_ context.Context, video models.Video) error {
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) TogglePublish(_ context.Context, id string) (bool, error) {
	video, ok := s.videos[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	s.videos[id] = video
	return video.IsPublished, nil
}

func (s *fakeVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

type fakeCommentStore struct {
	comments map[string]models.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]models.Comment)}
}

func (s *fakeCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *fakeCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *fakeCommentStore) GetWithOwner(_ context.Context, id string) (models.CommentWithOwner, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.CommentWithOwner{}, repositories.ErrNotFound
	}
	return models.CommentWithOwner{Comment: comment}, nil
}

func (s *fakeCommentStore) ListForVideo(_ context.Context, videoID string, page models.PageRequest) ([]models.CommentWithOwner, int64, error) {
	var out []models.CommentWithOwner
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			out = append(out, models.CommentWithOwner{Comment: comment})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (s *fakeCommentStore) UpdateContent(_ context.Context, id, content string) error {
	comment, ok := s.comments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return nil
}

func (s *fakeCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type fakeTweetStore struct {
	tweets map[string]models.Tweet
}

func newFakeTweetStore() *fakeTweetStore {
	return &fakeTweetStore{tweets: make(map[string]models.Tweet)}
}

func (s *fakeTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *fakeTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s *fakeTweetStore) ListForUser(_ context.Context, userID string, _ models.PageRequest) ([]models.TweetWithOwner, int64, error) {
	var out []models.TweetWithOwner
	for _, tweet := range s.tweets {
		if tweet.OwnerID == userID {
			out = append(out, models.TweetWithOwner{Tweet: tweet})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (s *fakeTweetStore) UpdateContent(_ context.Context, id, content string) error {
	tweet, ok := s.tweets[id]
	if !ok {
		return repositories.ErrNotFound
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return nil
}

func (s *fakeTweetStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

type fakeLikeStore struct {
	likes map[string]bool
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[string]bool)}
}

func likeKey(likedBy string, kind models.LikeTarget, targetID string) string {
	return fmt.Sprintf("%s|%s|%s", likedBy, kind, targetID)
}

func (s *fakeLikeStore) Toggle(_ context.Context, likedBy string, kind models.LikeTarget, targetID string) (bool, error) {
	key := likeKey(likedBy, kind, targetID)
	if s.likes[key] {
		delete(s.likes, key)
		return false, nil
	}
	s.likes[key] = true
	return true, nil
}

func (s *fakeLikeStore) ListLikedVideos(_ context.Context, _ string, _ models.PageRequest) ([]models.LikedVideo, int64, error) {
	return nil, 0, nil
}

type fakeSubscriptionStore struct {
	subs map[string]bool
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{subs: make(map[string]bool)}
}

func (s *fakeSubscriptionStore) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	key := subscriberID + "|" + channelID
	if s.subs[key] {
		delete(s.subs, key)
		return false, nil
	}
	s.subs[key] = true
	return true, nil
}

func (s *fakeSubscriptionStore) ListSubscribers(_ context.Context, _ string, _ models.PageRequest) ([]models.Subscriber, int64, error) {
	return nil, 0, nil
}

func (s *fakeSubscriptionStore) ListSubscribedChannels(_ context.Context, _ string, _ models.PageRequest) ([]models.SubscribedChannel, int64, error) {
	return nil, 0, nil
}

type fakePlaylistStore struct {
	playlists map[string]models.Playlist
	videos    map[string][]string
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{
		playlists: make(map[string]models.Playlist),
		videos:    make(map[string][]string),
	}
}

func (s *fakePlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *fakePlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *fakePlaylistStore) GetWithVideos(_ context.Context, id string) (models.PlaylistWithVideos, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.PlaylistWithVideos{}, repositories.ErrNotFound
	}
	return models.PlaylistWithVideos{Playlist: playlist}, nil
}

func (s *fakePlaylistStore) ListForUser(_ context.Context, userID string) ([]models.PlaylistWithVideos, error) {
	var out []models.PlaylistWithVideos
	for _, playlist := range s.playlists {
		if playlist.OwnerID == userID {
			out = append(out, models.PlaylistWithVideos{Playlist: playlist})
		}
	}
	return out, nil
}

func (s *fakePlaylistStore) Update(_ context.Context, id, name, description string) error {
	playlist, ok := s.playlists[id]
	if !ok {
		return repositories.ErrNotFound
	}
	playlist.Name, playlist.Description = name, description
	s.playlists[id] = playlist
	return nil
}

func (s *fakePlaylistStore) Delete(_ context.Context, id string) error {
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *fakePlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) error {
	for _, existing := range s.videos[playlistID] {
		if existing == videoID {
			return repositories.ErrConflict
		}
	}
	s.videos[playlistID] = append(s.videos[playlistID], videoID)
	return nil
}

func (s *fakePlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	for i, existing := range s.videos[playlistID] {
		if existing == videoID {
			s.videos[playlistID] = append(s.videos[playlistID][:i], s.videos[playlistID][i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeHistoryStore struct {
	entries map[string][]string
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{entries: make(map[string][]string)}
}

func (s *fakeHistoryStore) Add(_ context.Context, userID, videoID string) error {
	for _, existing := range s.entries[userID] {
		if existing == videoID {
			return nil
		}
	}
	s.entries[userID] = append(s.entries[userID], videoID)
	return nil
}

func (s *fakeHistoryStore) List(_ context.Context, userID string, _ models.PageRequest) ([]models.WatchHistoryEntry, int64, error) {
	out := make([]models.WatchHistoryEntry, len(s.entries[userID]))
	return out, int64(len(out)), nil
}
