package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sumitahmed/vidtube/internal/auth"
	"github.com/sumitahmed/vidtube/internal/logging"
	"github.com/sumitahmed/vidtube/internal/models"
	"github.com/sumitahmed/vidtube/internal/repositories"
)

// UserHandler implements the account, session, channel, and watch-history
// endpoints.
type UserHandler struct {
	Users   UserStore
	History WatchHistoryStore
	Tokens  TokenIssuer
	Media   MediaStore
	Limiter RateLimiter

	MaxUploadBytes int64
	NowFunc        func() time.Time
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type updateAccountRequest struct {
	FullName string `json:"fullname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type sessionResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register. The avatar upload is
// mandatory; the cover image is optional. Uploaded objects are removed again
// if the insert fails.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	fullName := strings.TrimSpace(r.FormValue("fullName"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	password := r.FormValue("password")

	if fullName == "" || email == "" || username == "" || password == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullName, email, username, and password are required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(password) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	avatar, avatarType, ok, err := formFile(r, "avatar")
	if err != nil || !ok {
		respondError(ctx, w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer avatar.Close()

	avatarObj, err := h.Media.Save(ctx, "avatars/"+uuid.NewString(), avatar, avatarType)
	if err != nil {
		logger.Error("upload avatar", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		FullName:  fullName,
		AvatarURL: avatarObj.URL,
		AvatarKey: avatarObj.Key,
		CreatedAt: h.now(),
		UpdatedAt: h.now(),
	}

	cover, coverType, hasCover, err := formFile(r, "coverImage")
	if err != nil {
		h.discardMedia(ctx, avatarObj.Key)
		respondError(ctx, w, http.StatusBadRequest, "invalid coverImage file")
		return
	}
	if hasCover {
		defer cover.Close()
		coverObj, err := h.Media.Save(ctx, "covers/"+uuid.NewString(), cover, coverType)
		if err != nil {
			logger.Error("upload cover image", "error", err)
			h.discardMedia(ctx, avatarObj.Key)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store cover image")
			return
		}
		user.CoverImageURL = coverObj.URL
		user.CoverImageKey = coverObj.Key
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash password", "error", err)
		h.discardMedia(ctx, avatarObj.Key, user.CoverImageKey)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}
	user.PasswordHash = string(hash)

	if err := h.Users.Create(ctx, user); err != nil {
		h.discardMedia(ctx, avatarObj.Key, user.CoverImageKey)
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "username or email already in use")
			return
		}
		logger.Error("create user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	logger.Info("user registered", "userId", user.ID, "username", user.Username)
	respondData(ctx, w, http.StatusCreated, user, "user registered")
}

// Login handles POST /api/v1/users/login. Either username or email
// identifies the account.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" && req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "username or email is required")
		return
	}

	user, err := h.Users.FindByLogin(ctx, req.Username, req.Email)
	if err != nil {
		logger.Warn("login user lookup failed", "username", req.Username, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.issueSession(ctx, user)
	if err != nil {
		logger.Error("issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setAuthCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, sessionResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "logged in")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The incoming token
// must match the one stored on the user row; both tokens rotate on success.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "refresh") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	incoming := ""
	if cookie, err := r.Cookie(auth.RefreshTokenCookie); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err == nil {
			incoming = req.RefreshToken
		}
	}
	if incoming == "" {
		respondError(ctx, w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	userID, err := h.Tokens.ValidateRefresh(incoming)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil || user.RefreshToken != incoming {
		logger.Warn("refresh token mismatch", "userId", userID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	tokens, err := h.issueSession(ctx, user)
	if err != nil {
		logger.Error("rotate session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to refresh session")
		return
	}

	setAuthCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, map[string]string{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	}, "session refreshed")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	if err := h.Users.UpdateRefreshToken(ctx, userID, ""); err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	clearAuthCookies(w)
	respondData(ctx, w, http.StatusOK, nil, "logged out")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "old password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logging.FromContext(ctx).Error("hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to change password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "password changed")
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, user, "current user")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.Users.UpdateAccount(ctx, userID, strings.TrimSpace(req.FullName), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "email already in use")
			return
		}
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, user, "account updated")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "avatar", func(u models.User) string { return u.AvatarKey }, h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "coverImage", func(u models.User) string { return u.CoverImageKey }, h.Users.UpdateCoverImage)
}

func (h UserHandler) updateMedia(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	oldKey func(models.User) string,
	apply func(ctx context.Context, userID, url, key string) error,
) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	userID, _ := auth.UserIDFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	file, contentType, ok, err := formFile(r, field)
	if err != nil || !ok {
		respondError(ctx, w, http.StatusBadRequest, fmt.Sprintf("%s file is required", field))
		return
	}
	defer file.Close()

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	obj, err := h.Media.Save(ctx, field+"s/"+uuid.NewString(), file, contentType)
	if err != nil {
		logger.Error("upload media", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store file")
		return
	}

	if err := apply(ctx, userID, obj.URL, obj.Key); err != nil {
		h.discardMedia(ctx, obj.Key)
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	h.discardMedia(ctx, oldKey(user))

	updated, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}
	respondData(ctx, w, http.StatusOK, updated, field+" updated")
}

// Channel handles GET /api/v1/users/channel/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := strings.TrimSpace(strings.ToLower(chi.URLParam(r, "username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	viewerID, _ := auth.UserIDFromContext(ctx)
	profile, err := h.Users.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "channel profile")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)
	page := parsePage(r)

	entries, total, err := h.History.List(ctx, userID, page)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, newPagedResponse(entries, page, total), "watch history")
}

// AddWatchHistory handles POST /api/v1/users/history/{videoId}. Re-watching
// a video does not duplicate the entry.
func (h UserHandler) AddWatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)
	videoID := chi.URLParam(r, "videoId")

	if err := h.History.Add(ctx, userID, videoID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "added to watch history")
}

func (h UserHandler) issueSession(ctx context.Context, user models.User) (models.SessionTokens, error) {
	tokens, err := h.Tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if err := h.Users.UpdateRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return models.SessionTokens{}, err
	}
	return tokens, nil
}

// discardMedia best-effort deletes uploaded objects after a failed or
// superseding write. Failures are logged, never surfaced.
func (h UserHandler) discardMedia(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := h.Media.Delete(ctx, key); err != nil {
			logging.FromContext(ctx).Warn("delete stored object", "key", key, "error", err)
		}
	}
}

func (h UserHandler) maxUpload() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 256 << 20
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func setAuthCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
