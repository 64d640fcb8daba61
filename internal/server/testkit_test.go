package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"refugio/internal/config"
	"refugio/internal/database"
	"refugio/internal/mailer"
	"refugio/internal/media"
	"refugio/internal/models"
	"refugio/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// stubSender records outbound mail instead of delivering it.
type stubSender struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (s *stubSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *stubSender) sent() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mailer.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *stubSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
}

type testApp struct {
	app    *fiber.App
	srv    *Server
	sender *stubSender
	store  *media.DiskStore
}

// newTestApp wires a full server against an in-memory database, miniredis and
// a recording mail sender. APP_ENV=test disables the per-route rate limits.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	cfg := &config.Config{
		JWTSecret:          "test-secret-key",
		Env:                "test",
		Port:               "8375",
		AdminEmail:         "admin@refugio.test",
		FrontendURL:        "http://localhost:5173",
		BackendURL:         "http://localhost:8375",
		RateLimitComments:  10,
		RateLimitAdoptions: 5,
		RateLimitLogin:     10,
	}

	db, err := database.ConnectTest()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store, err := media.NewDiskStore(t.TempDir(), cfg.BackendURL)
	require.NoError(t, err)

	sender := &stubSender{}
	notifier := service.NewNotifier(sender, store, service.NotifierOptions{
		FrontendURL: cfg.FrontendURL,
		AdminEmail:  cfg.AdminEmail,
		Synchronous: true,
	})

	srv, err := NewServerWithDeps(cfg, db, rdb, store, notifier)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{BodyLimit: maxUploadBytes})
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	return &testApp{app: app, srv: srv, sender: sender, store: store}
}

func (ta *testApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func jsonReq(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type fileField struct {
	field    string
	filename string
	content  []byte
}

func multipartReq(t *testing.T, method, target string, fields map[string]string, files ...fileField) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// registerUser signs up through the API and returns the created account.
func (ta *testApp) registerUser(t *testing.T, username string) models.User {
	t.Helper()
	req := multipartReq(t, http.MethodPost, "/api/usuarios/", map[string]string{
		"username": username,
		"email":    fmt.Sprintf("%s@example.com", username),
		"password": "Password1",
	})
	resp := ta.do(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "signup %s", username)

	var user models.User
	decodeJSON(t, resp, &user)
	require.NotZero(t, user.ID)
	ta.sender.reset()
	return user
}

// promote flips the staff bit directly in the database. Call before login so
// the issued token carries the flag.
func (ta *testApp) promote(t *testing.T, userID uint) {
	t.Helper()
	require.NoError(t, ta.srv.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_staff", true).Error)
}

// login authenticates and returns the session cookies.
func (ta *testApp) login(t *testing.T, username string) []*http.Cookie {
	t.Helper()
	resp := ta.do(t, jsonReq(t, http.MethodPost, "/api/token", map[string]string{
		"username": username,
		"password": "Password1",
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode, "login %s", username)
	resp.Body.Close()

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

// signupAndLogin registers a fresh account and opens a session.
func (ta *testApp) signupAndLogin(t *testing.T, username string) (models.User, []*http.Cookie) {
	t.Helper()
	user := ta.registerUser(t, username)
	return user, ta.login(t, username)
}

func pdfFile(field string) fileField {
	return fileField{field: field, filename: "solicitud.pdf", content: []byte("%PDF-1.4 test")}
}
