package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dancarlton/rinsed/config"
	"github.com/dancarlton/rinsed/db"
	"github.com/dancarlton/rinsed/internal"
	"github.com/dancarlton/rinsed/internal/model"
	"github.com/dancarlton/rinsed/internal/service"
	"github.com/dancarlton/rinsed/internal/store"
	"github.com/dancarlton/rinsed/pkg/middleware"
	"github.com/dancarlton/rinsed/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cdn = "https://cdn.example.com"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fakeMailer struct {
	mu     sync.Mutex
	verify map[string]*model.VerificationToken
	reset  map[string]string
}

func (m *fakeMailer) SendVerification(t *model.VerificationToken, sendTo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.verify[sendTo] = t
	return nil
}

func (m *fakeMailer) SendPasswordReset(sendTo, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reset[sendTo] = token
	return nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memObjects) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = b
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

func (m *memObjects) URL(key string) string { return cdn + "/" + key }

func (m *memObjects) KeyFromURL(u string) (string, bool) {
	return strings.CutPrefix(u, cdn+"/")
}

type testApp struct {
	router  *gin.Engine
	deps    *internal.Deps
	mailer  *fakeMailer
	objects *memObjects
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	viper.Reset()
	t.Cleanup(viper.Reset)

	config.SetDefaults()
	viper.Set("jwt.secret", "test-secret")
	viper.Set("security.rate_limit", 1000)

	conn, err := db.Open(db.DriverSQLite, ":memory:", "error")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	mailer := &fakeMailer{verify: map[string]*model.VerificationToken{}, reset: map[string]string{}}
	objects := &memObjects{objects: map[string][]byte{}}

	d := &internal.Deps{
		DB:      conn,
		Users:   store.NewUserStore(conn),
		Hasher:  security.NewBcrypt(4),
		Mailer:  mailer,
		Avatars: service.NewAvatarService(objects, 1<<20),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &testApp{router: NewRouter(ctx, d), deps: d, mailer: mailer, objects: objects}
}

func (a *testApp) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: token})
	}

	return a.serve(t, req)
}

func (a *testApp) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var res map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	}

	return w, res
}

func (a *testApp) register(t *testing.T, email, password, username string) string {
	t.Helper()

	w, res := a.do(t, http.MethodPost, "/api/users", gin.H{"email": email, "password": password, "username": username}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return res["user"].(map[string]any)["id"].(string)
}

func (a *testApp) login(t *testing.T, identifier, password string) string {
	t.Helper()

	w, res := a.do(t, http.MethodPost, "/api/users/login", gin.H{"identifier": identifier, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return res["token"].(string)
}

func (a *testApp) verify(t *testing.T, email string) {
	t.Helper()

	tok := a.mailer.verify[email]
	require.NotNil(t, tok)

	w, _ := a.do(t, http.MethodPost, "/api/users/verify?user_id="+tok.UserID+"&token="+tok.Token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHeartbeat(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodHead, "/api/heartbeat", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRegister(t *testing.T) {
	a := newTestApp(t)

	w, res := a.do(t, http.MethodPost, "/api/users", gin.H{"email": "alice@example.com", "password": "secret123", "username": "alice"}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	u := res["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", u["email"])
	assert.Equal(t, "alice", u["username"])
	assert.Equal(t, "user", u["role"])
	assert.Equal(t, false, u["isVerified"])
	assert.Equal(t, true, res["mailSent"])
	assert.NotContains(t, u, "password")
	assert.NotContains(t, u, "passwordResetToken")
	assert.NotEmpty(t, res["requestID"])

	stored, err := a.deps.Users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", *stored.Password)
	assert.True(t, stored.VerifyPassword("secret123"))

	assert.Equal(t, stored.ID, a.mailer.verify["alice@example.com"].UserID)
}

func TestRegisterRejects(t *testing.T) {
	a := newTestApp(t)
	a.register(t, "alice@example.com", "secret123", "alice")

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{"duplicate email", gin.H{"email": "alice@example.com", "password": "secret123"}, http.StatusConflict},
		{"duplicate username", gin.H{"email": "bob@example.com", "password": "secret123", "username": "alice"}, http.StatusConflict},
		{"bad email", gin.H{"email": "nope", "password": "secret123"}, http.StatusBadRequest},
		{"short password", gin.H{"email": "bob@example.com", "password": "short"}, http.StatusBadRequest},
		{"long password", gin.H{"email": "bob@example.com", "password": strings.Repeat("a", 73)}, http.StatusBadRequest},
		{"bad username", gin.H{"email": "bob@example.com", "password": "secret123", "username": "a"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, res := a.do(t, http.MethodPost, "/api/users", tt.body, "")
			assert.Equal(t, tt.code, w.Code, w.Body.String())

			if tt.code == http.StatusConflict {
				assert.NotEmpty(t, res["field"])
			}
		})
	}

	w, res := a.do(t, http.MethodPost, "/api/users", gin.H{"email": "alice@example.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email", res["field"])
}

func TestLogin(t *testing.T) {
	a := newTestApp(t)
	id := a.register(t, "alice@example.com", "secret123", "alice")

	w, res := a.do(t, http.MethodPost, "/api/users/login", gin.H{"email": "alice@example.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, res["userID"])
	assert.Equal(t, false, res["verified"])
	assert.Contains(t, w.Header().Values("Set-Cookie")[0], middleware.AuthCookie+"=")

	a.login(t, "alice", "secret123")

	for _, body := range []gin.H{
		{"identifier": "alice", "password": "wrong"},
		{"identifier": "nobody", "password": "secret123"},
	} {
		w, _ := a.do(t, http.MethodPost, "/api/users/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w, _ = a.do(t, http.MethodPost, "/api/users/login", gin.H{"identifier": "alice"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerificationFlow(t *testing.T) {
	a := newTestApp(t)
	a.register(t, "alice@example.com", "secret123", "alice")
	token := a.login(t, "alice", "secret123")

	// Unverified accounts can read themselves but not edit
	w, res := a.do(t, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, res["user"].(map[string]any)["isVerified"])

	w, _ = a.do(t, http.MethodPatch, "/api/users/me", gin.H{"username": "alice2"}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/users/verify/resend", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = a.do(t, http.MethodPost, "/api/users/verify/resend", nil, token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	a.verify(t, "alice@example.com")

	tok := a.mailer.verify["alice@example.com"]
	w, _ = a.do(t, http.MethodPost, "/api/users/verify?user_id="+tok.UserID+"&token="+tok.Token, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/users/verify?user_id="+tok.UserID+"&token=nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = a.do(t, http.MethodGet, "/api/validate", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdate(t *testing.T) {
	a := newTestApp(t)
	a.register(t, "bob@example.com", "secret123", "bob")
	a.register(t, "alice@example.com", "secret123", "alice")
	a.verify(t, "alice@example.com")
	token := a.login(t, "alice", "secret123")

	w, res := a.do(t, http.MethodPatch, "/api/users/me", gin.H{"username": "alicia"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "alicia", res["user"].(map[string]any)["username"])

	w, res = a.do(t, http.MethodPatch, "/api/users/me", gin.H{"username": "bob"}, token)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "username", res["field"])

	w, _ = a.do(t, http.MethodPatch, "/api/users/me", gin.H{"newPassword": "newsecret1", "currentPassword": "wrong"}, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.do(t, http.MethodPatch, "/api/users/me", gin.H{"newPassword": "newsecret1", "currentPassword": "secret123"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	a.login(t, "alicia", "newsecret1")

	// Changing the email asks for a new verification
	w, res = a.do(t, http.MethodPatch, "/api/users/me", gin.H{"email": "alicia@example.com"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, res["user"].(map[string]any)["isVerified"])
	assert.NotNil(t, a.mailer.verify["alicia@example.com"])
}

func TestEmailChangeRevokesOldLinks(t *testing.T) {
	a := newTestApp(t)
	a.register(t, "alice@example.com", "secret123", "alice")
	old := a.mailer.verify["alice@example.com"]
	require.NotNil(t, old)

	token := a.login(t, "alice", "secret123")
	w, _ := a.do(t, http.MethodPost, "/api/users/verify/resend", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotEqual(t, old.Token, a.mailer.verify["alice@example.com"].Token)
	a.verify(t, "alice@example.com")

	w, _ = a.do(t, http.MethodPatch, "/api/users/me", gin.H{"email": "mallory@example.com"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The first link, still unused, must not verify the new address
	w, _ = a.do(t, http.MethodPost, "/api/users/verify?user_id="+old.UserID+"&token="+old.Token, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	u, err := a.deps.Users.FindByEmail(context.Background(), "mallory@example.com")
	require.NoError(t, err)
	assert.False(t, u.IsVerified)

	a.verify(t, "mallory@example.com")
}

func TestProfile(t *testing.T) {
	a := newTestApp(t)
	id := a.register(t, "alice@example.com", "secret123", "alice")

	w, res := a.do(t, http.MethodGet, "/api/users/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	u := res["user"].(map[string]any)
	assert.Equal(t, id, u["id"])
	assert.Equal(t, "alice", u["username"])
	assert.NotContains(t, u, "email")
	assert.NotContains(t, u, "password")

	w, _ = a.do(t, http.MethodGet, "/api/users/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPasswordReset(t *testing.T) {
	a := newTestApp(t)
	a.register(t, "alice@example.com", "secret123", "alice")

	w, res := a.do(t, http.MethodPost, "/api/users/password/forgot", gin.H{"email": "alice@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	msg := res["message"]

	w, res = a.do(t, http.MethodPost, "/api/users/password/forgot", gin.H{"email": "nobody@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, msg, res["message"])

	token := a.mailer.reset["alice@example.com"]
	require.NotEmpty(t, token)

	w, _ = a.do(t, http.MethodPost, "/api/users/password/reset", gin.H{"token": token, "password": "short"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/users/password/reset", gin.H{"token": token, "password": "brandnew1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	a.login(t, "alice", "brandnew1")

	w, _ = a.do(t, http.MethodPost, "/api/users/password/reset", gin.H{"token": token, "password": "another12"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	u, err := a.deps.Users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, u.PasswordResetToken)
}

func avatarRequest(t *testing.T, token string, content []byte) *http.Request {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	fw, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/users/me/avatar", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: token})

	return req
}

func TestAvatar(t *testing.T) {
	a := newTestApp(t)
	a.register(t, "alice@example.com", "secret123", "alice")
	a.verify(t, "alice@example.com")
	token := a.login(t, "alice", "secret123")

	w, res := a.serve(t, avatarRequest(t, token, pngHeader))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	first := res["avatar"].(string)
	assert.True(t, strings.HasPrefix(first, cdn+"/avatars/"))
	assert.Len(t, a.objects.objects, 1)

	// The previous object is dropped on replace
	w, res = a.serve(t, avatarRequest(t, token, pngHeader))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, first, res["avatar"])
	assert.Len(t, a.objects.objects, 1)

	w, _ = a.serve(t, avatarRequest(t, token, []byte("plain text, not an image")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete(t *testing.T) {
	a := newTestApp(t)
	a.register(t, "alice@example.com", "secret123", "alice")
	a.verify(t, "alice@example.com")
	token := a.login(t, "alice", "secret123")

	w, _ := a.serve(t, avatarRequest(t, token, pngHeader))
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = a.do(t, http.MethodDelete, "/api/users/me", gin.H{"password": "wrong"}, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.do(t, http.MethodDelete, "/api/users/me", gin.H{"password": "secret123"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, a.objects.objects)

	w, _ = a.do(t, http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The email can be registered again
	a.register(t, "alice@example.com", "secret123", "alice")
}
