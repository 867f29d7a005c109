package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sumitahmed/vidtube/internal/auth"
	"github.com/sumitahmed/vidtube/internal/models"
)

func testTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 240*time.Hour)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc
}

func seedUser(t *testing.T, store *fakeUserStore, id, username, password string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test User",
		PasswordHash: string(hashed),
	}
	store.users[id] = user
	return user
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, contents := range files {
		part, err := writer.CreateFormFile(name, name+".bin")
		if err != nil {
			t.Fatalf("create file part %s: %v", name, err)
		}
		if _, err := part.Write(contents); err != nil {
			t.Fatalf("write file part %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUserHandlerRegister(t *testing.T) {
	store := newFakeUserStore()
	media := newFakeMediaStore()
	handler := UserHandler{Users: store, Tokens: testTokenService(t), Media: media}

	body, contentType := multipartBody(t,
		map[string]string{
			"fullName": "Alice Example",
			"email":    "alice@example.com",
			"username": "alice",
			"password": "supersafe123",
		},
		map[string][]byte{"avatar": []byte("fake-image")},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope, got %+v", env)
	}

	if len(media.saved) != 1 {
		t.Fatalf("expected one stored object, got %d", len(media.saved))
	}

	var stored models.User
	for _, user := range store.users {
		stored = user
	}
	if stored.Username != "alice" {
		t.Fatalf("expected stored username alice, got %q", stored.Username)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("supersafe123")) != nil {
		t.Fatal("stored password is not hashed")
	}
}

func TestUserHandlerRegisterDuplicateCleansUpMedia(t *testing.T) {
	store := newFakeUserStore()
	media := newFakeMediaStore()
	seedUser(t, store, "user-1", "alice", "password123")
	handler := UserHandler{Users: store, Tokens: testTokenService(t), Media: media}

	body, contentType := multipartBody(t,
		map[string]string{
			"fullName": "Alice Example",
			"email":    "alice@example.com",
			"username": "alice",
			"password": "supersafe123",
		},
		map[string][]byte{"avatar": []byte("fake-image")},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d got %d", http.StatusConflict, rec.Code)
	}
	if len(media.saved) != 0 {
		t.Fatalf("expected uploaded avatar to be deleted, %d objects remain", len(media.saved))
	}
	if len(media.deleted) == 0 {
		t.Fatal("expected a compensating delete")
	}
}

func TestUserHandlerRegisterMissingAvatar(t *testing.T) {
	handler := UserHandler{Users: newFakeUserStore(), Tokens: testTokenService(t), Media: newFakeMediaStore()}

	body, contentType := multipartBody(t,
		map[string]string{
			"fullName": "Alice Example",
			"email":    "alice@example.com",
			"username": "alice",
			"password": "supersafe123",
		},
		nil,
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUserHandlerLogin(t *testing.T) {
	store := newFakeUserStore()
	user := seedUser(t, store, "user-1", "alice", "password123")
	handler := UserHandler{Users: store, Tokens: testTokenService(t)}

	body, err := json.Marshal(loginRequest{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	names := make(map[string]bool)
	for _, cookie := range cookies {
		names[cookie.Name] = true
		if !cookie.HttpOnly {
			t.Fatalf("expected cookie %s to be httpOnly", cookie.Name)
		}
	}
	if !names[auth.AccessTokenCookie] || !names[auth.RefreshTokenCookie] {
		t.Fatalf("expected both auth cookies, got %v", names)
	}

	stored := store.users[user.ID]
	if stored.RefreshToken == "" {
		t.Fatal("expected refresh token to be persisted on the user")
	}
}

func TestUserHandlerLoginWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "user-1", "alice", "password123")
	handler := UserHandler{Users: store, Tokens: testTokenService(t)}

	body, err := json.Marshal(loginRequest{Username: "alice", Password: "wrong-password"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Fatal("expected error envelope")
	}
}

func TestUserHandlerRefreshRotatesTokens(t *testing.T) {
	store := newFakeUserStore()
	user := seedUser(t, store, "user-1", "alice", "password123")
	tokens := testTokenService(t)
	handler := UserHandler{Users: store, Tokens: tokens}

	issued, err := tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	if err := store.UpdateRefreshToken(context.Background(), user.ID, issued.RefreshToken); err != nil {
		t.Fatalf("persist refresh token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: issued.RefreshToken})
	rec := httptest.NewRecorder()

	handler.RefreshToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored := store.users[user.ID]
	if stored.RefreshToken == issued.RefreshToken {
		t.Fatal("expected refresh token to rotate")
	}
}

func TestUserHandlerRefreshRejectsRevokedToken(t *testing.T) {
	store := newFakeUserStore()
	user := seedUser(t, store, "user-1", "alice", "password123")
	tokens := testTokenService(t)
	handler := UserHandler{Users: store, Tokens: tokens}

	// Valid signature, but it is not the token stored on the user row.
	issued, err := tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: issued.RefreshToken})
	rec := httptest.NewRecorder()

	handler.RefreshToken(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestUserHandlerChangePassword(t *testing.T) {
	store := newFakeUserStore()
	user := seedUser(t, store, "user-1", "alice", "password123")
	handler := UserHandler{Users: store, Tokens: testTokenService(t)}

	body, err := json.Marshal(changePasswordRequest{OldPassword: "password123", NewPassword: "even-safer-pass"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewReader(body))
	req = req.WithContext(auth.WithUserID(req.Context(), user.ID))
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored := store.users[user.ID]
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("even-safer-pass")) != nil {
		t.Fatal("expected new password to verify")
	}
}

func TestUserHandlerChangePasswordWrongOld(t *testing.T) {
	store := newFakeUserStore()
	user := seedUser(t, store, "user-1", "alice", "password123")
	handler := UserHandler{Users: store, Tokens: testTokenService(t)}

	body, err := json.Marshal(changePasswordRequest{OldPassword: "not-the-password", NewPassword: "even-safer-pass"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewReader(body))
	req = req.WithContext(auth.WithUserID(req.Context(), user.ID))
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUserHandlerLogoutClearsState(t *testing.T) {
	store := newFakeUserStore()
	user := seedUser(t, store, "user-1", "alice", "password123")
	store.users[user.ID] = models.User{ID: user.ID, Username: user.Username, RefreshToken: "some-token"}
	handler := UserHandler{Users: store, Tokens: testTokenService(t)}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), user.ID))
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if store.users[user.ID].RefreshToken != "" {
		t.Fatal("expected stored refresh token to be cleared")
	}

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge >= 0 {
			t.Fatalf("expected cookie %s to be expired", cookie.Name)
		}
	}
}
