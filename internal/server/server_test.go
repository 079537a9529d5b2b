package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"loan-intake/internal/common/auth"
	"loan-intake/internal/common/config"
	"loan-intake/internal/common/dispatch"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/mail"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/common/session"
	sendnotification "loan-intake/internal/workers/application/send-notification"
	storeloandocument "loan-intake/internal/workers/application/store-loan-document"
	validateapplicationdata "loan-intake/internal/workers/application/validate-application-data"
	adminsession "loan-intake/internal/workers/auth/admin-session"
	sendautoreply "loan-intake/internal/workers/communication/send-auto-reply"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdminPassword = "correct-horse"
	testRemoteAddr    = "192.0.2.10:4321"
	staffRecipient    = "staff@example.com"
)

// ==========================
// Mock Implementations
// ==========================

type mockMailer struct {
	mu      sync.Mutex
	sent    []*mail.Message
	sendErr error
}

func (m *mockMailer) Send(_ context.Context, msg *mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.sendErr
}

func (m *mockMailer) messages() []*mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*mail.Message(nil), m.sent...)
}

func (m *mockMailer) to(addr string) *mail.Message {
	for _, msg := range m.messages() {
		if len(msg.To) == 1 && msg.To[0] == addr {
			return msg
		}
	}
	return nil
}

// ==========================
// Test Helper Functions
// ==========================

type testEnv struct {
	server    *Server
	queue     *dispatch.Queue
	mailer    *mockMailer
	uploadDir string
	staticDir string
}

type envOption func(cfg *config.Config)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	root := t.TempDir()
	staticDir := filepath.Join(root, "web")
	require.NoError(t, os.MkdirAll(staticDir, 0o755))
	for name, body := range map[string]string{
		"index.html": "<h1>Apply for a gold loan</h1>",
		"login.html": "<h1>Admin Login</h1>",
		"admin.html": "<h1>Admin Dashboard</h1>",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(staticDir, name), []byte(body), 0o644))
	}

	cfg := &config.Config{}
	cfg.Server.Port = 3000
	cfg.Server.StaticDir = staticDir
	cfg.Server.LoginRatePerSec = 100
	cfg.Server.LoginBurst = 100
	cfg.Upload.Dir = filepath.Join(root, "uploads")
	cfg.Upload.FieldName = "loanDocument"
	cfg.Upload.MaxBytes = 1 << 20
	cfg.Session.Store = config.SessionStoreCookie
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Session.CookieName = "loan_intake.sid"
	cfg.Session.TTL = time.Hour
	cfg.Dispatch.MaxActive = 4
	cfg.Dispatch.TaskTimeout = 5000
	for _, opt := range opts {
		opt(cfg)
	}

	log := logger.NewNoOpLogger()
	mailer := &mockMailer{}

	documents := storeloandocument.NewHandler(&storeloandocument.Config{
		Dir:       cfg.Upload.Dir,
		FieldName: cfg.Upload.FieldName,
		DirMode:   0o755,
		FileMode:  0o644,
	}, nil, log)

	store, err := session.New(cfg.Session, false, nil)
	require.NoError(t, err)

	queue := dispatch.New(cfg.Dispatch, log, observability.NewNoop())

	deps := Dependencies{
		Validator: validateapplicationdata.NewHandler(nil, log),
		Documents: documents,
		Notifier: sendnotification.NewHandler(&sendnotification.Config{
			From:      mail.Address{Name: "Gold 2 Money Notifier", Email: "notifier@example.com"},
			Recipient: staffRecipient,
		}, mailer, nil, documents, log),
		AutoReplier: sendautoreply.NewHandler(sendautoreply.DefaultConfig("notifier@example.com"), mailer, nil, log),
		Sessions: adminsession.NewHandler(&adminsession.Config{
			CookieName: cfg.Session.CookieName,
			LoginPath:  "/login.html",
		}, store, auth.NewSharedSecretVerifier(testAdminPassword), log),
		Queue: queue,
		HealthChecks: []HealthCheck{
			{Name: "static", Check: func(context.Context) error {
				_, err := os.Stat(staticDir)
				return err
			}},
		},
	}

	return &testEnv{
		server:    NewServer(cfg, deps, log),
		queue:     queue,
		mailer:    mailer,
		uploadDir: cfg.Upload.Dir,
		staticDir: staticDir,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	if req.RemoteAddr == "" || req.RemoteAddr == "192.0.2.1:1234" {
		req.RemoteAddr = testRemoteAddr
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) uploads(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.uploadDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func validFields() map[string]string {
	return map[string]string{
		"name":       "Asha Patil",
		"email":      "asha@example.com",
		"phone":      "9876543210",
		"city":       "Pune",
		"loanType":   "Fresh",
		"loanAmount": "150000",
	}
}

func multipartRequest(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("loanDocument", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/submit-loan-application", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, path string, payload interface{}) *http.Request {
	t.Helper()
	var body []byte
	switch p := payload.(type) {
	case string:
		body = []byte(p)
	default:
		var err error
		body, err = json.Marshal(p)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "loan_intake.sid" {
			found = c
		}
	}
	return found
}

// ==========================
// Submission Tests
// ==========================

func TestSubmit_AcceptedWithDocument(t *testing.T) {
	env := newTestEnv(t)

	fields := validFields()
	fields["loanType"] = "Takeover"
	rec := env.do(multipartRequest(t, fields, "pledge receipt.pdf", []byte("%PDF-1.4 receipt")))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Form submitted successfully!", resp.Message)

	env.queue.Wait()

	staff := env.mailer.to(staffRecipient)
	require.NotNil(t, staff)
	assert.Equal(t, "New Loan Application from Asha Patil", staff.Subject)
	require.Len(t, staff.Attachments, 1)
	assert.Equal(t, "pledge receipt.pdf", staff.Attachments[0].Filename)
	assert.Contains(t, staff.HTMLBody, "loanDocument-")

	applicant := env.mailer.to("asha@example.com")
	require.NotNil(t, applicant)
	assert.Equal(t, "We Have Received Your Loan Application - Gold 2 Money", applicant.Subject)

	assert.Empty(t, env.uploads(t), "document should be deleted after the notification is sent")
}

func TestSubmit_AcceptedWithoutDocument(t *testing.T) {
	env := newTestEnv(t)

	fields := validFields()
	fields["loanType"] = "New"
	rec := env.do(multipartRequest(t, fields, "", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env.queue.Wait()
	assert.Len(t, env.mailer.messages(), 2)
	assert.Empty(t, env.mailer.to(staffRecipient).Attachments)
}

func TestSubmit_JSONBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonRequest(t, "/api/submit-loan-application", map[string]string{
		"name": "A", "email": "a@b.com", "phone": "1234567890", "city": "X", "loanType": "New",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(jsonRequest(t, "/api/submit-loan-application", map[string]string{
		"name": "A", "email": "a@b.com", "phone": "1234567890", "city": "X", "loanType": "Takeover",
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A loan document is required for Takeover loans.", decodeResponse(t, rec).Message)

	env.queue.Wait()
}

func TestSubmit_ValidationFailure(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]string)
		message string
	}{
		{
			name:    "missing name",
			mutate:  func(f map[string]string) { f["name"] = "   " },
			message: "Name is required.",
		},
		{
			name:    "malformed email",
			mutate:  func(f map[string]string) { f["email"] = "not-an-email" },
			message: "Please provide a valid email address.",
		},
		{
			name:    "short phone",
			mutate:  func(f map[string]string) { f["phone"] = "12345" },
			message: "Phone number must be 10 digits.",
		},
		{
			name:    "non numeric phone",
			mutate:  func(f map[string]string) { f["phone"] = "98765abcde" },
			message: "Phone number must contain only digits.",
		},
		{
			name:    "missing city",
			mutate:  func(f map[string]string) { delete(f, "city") },
			message: "City is required.",
		},
		{
			name:    "takeover without document",
			mutate:  func(f map[string]string) { f["loanType"] = "Takeover" },
			message: "A loan document is required for Takeover loans.",
		},
		{
			name: "several violations in rule order",
			mutate: func(f map[string]string) {
				f["name"] = ""
				f["email"] = ""
				f["city"] = ""
			},
			message: "Name is required. Please provide a valid email address. City is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			fields := validFields()
			tt.mutate(fields)

			rec := env.do(multipartRequest(t, fields, "", nil))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)

			env.queue.Wait()
			assert.Empty(t, env.mailer.messages())
		})
	}
}

func TestSubmit_EmptyBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/submit-loan-application", nil)
	rec := env.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t,
		"Name is required. Please provide a valid email address. Phone number must be 10 digits. "+
			"Phone number must contain only digits. City is required.",
		decodeResponse(t, rec).Message)
}

func TestSubmit_RejectedSubmissionDiscardsDocument(t *testing.T) {
	env := newTestEnv(t)

	fields := validFields()
	fields["email"] = "broken"
	rec := env.do(multipartRequest(t, fields, "id.png", []byte("png-bytes")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env.queue.Wait()
	assert.Empty(t, env.uploads(t))
	assert.Empty(t, env.mailer.messages())
}

func TestSubmit_UploadDirUnwritable(t *testing.T) {
	env := newTestEnv(t)
	// A regular file where the directory should be makes MkdirAll fail.
	require.NoError(t, os.WriteFile(env.uploadDir, []byte("not a dir"), 0o644))

	rec := env.do(multipartRequest(t, validFields(), "statement.pdf", []byte("data")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Server error. Please try again.", resp.Message)

	env.queue.Wait()
	assert.Empty(t, env.mailer.messages())
}

func TestSubmit_DeliveryFailureStillAccepted(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.sendErr = errors.New("421 service not available")

	rec := env.do(multipartRequest(t, validFields(), "statement.pdf", []byte("data")))

	require.Equal(t, http.StatusOK, rec.Code)
	env.queue.Wait()
	assert.Len(t, env.mailer.messages(), 2)
	assert.Len(t, env.uploads(t), 1, "document is kept when the notification fails")
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Upload.MaxBytes = 1024 })

	rec := env.do(multipartRequest(t, validFields(), "big.pdf", bytes.Repeat([]byte("x"), 4096)))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
	assert.Empty(t, env.uploads(t))
}

func TestSubmit_ChunkedBodyTooLarge(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Upload.MaxBytes = 1024 })

	req := multipartRequest(t, validFields(), "big.pdf", bytes.Repeat([]byte("x"), 8192))
	req.ContentLength = -1
	rec := env.do(req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Request Entity Too Large", resp.Message)
	assert.Empty(t, env.uploads(t))
	env.queue.Wait()
	assert.Empty(t, env.mailer.messages())
}

func TestSubmit_ChunkedJSONBodyTooLarge(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Upload.MaxBytes = 64 })

	body := `{"name":"` + strings.Repeat("a", 512) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/submit-loan-application", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	rec := env.do(req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request Entity Too Large", decodeResponse(t, rec).Message)
}

// ==========================
// Session Tests
// ==========================

func TestLogin_AndAdminAccess(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonRequest(t, "/api/login", map[string]string{"password": testAdminPassword}))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Login successful.", resp.Message)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/admin.html", nil)
	req.AddCookie(cookie)
	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin Dashboard")
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonRequest(t, "/api/login", map[string]string{"password": "hunter2"}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid password.", resp.Message)
	assert.Nil(t, sessionCookie(rec))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/admin.html", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login.html", rec.Header().Get("Location"))
}

func TestLogin_MalformedBody(t *testing.T) {
	for _, body := range []string{`not json`, `{}`, `{"password": 42}`, `[]`} {
		t.Run(body, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(jsonRequest(t, "/api/login", body))
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Invalid password.", decodeResponse(t, rec).Message)
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.LoginRatePerSec = 0.001
		cfg.Server.LoginBurst = 2
	})

	for i := 0; i < 2; i++ {
		rec := env.do(jsonRequest(t, "/api/login", map[string]string{"password": "guess"}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := env.do(jsonRequest(t, "/api/login", map[string]string{"password": testAdminPassword}))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonRequest(t, "/api/login", map[string]string{"password": testAdminPassword}))
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookie)
	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Logged out successfully.", resp.Message)

	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	// The client drops the cleared cookie.
	rec = env.do(httptest.NewRequest(http.MethodGet, "/admin.html", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestLogout_NeverLoggedIn(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/logout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
}

// ==========================
// Page Tests
// ==========================

func TestPages(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path     string
		status   int
		contains string
		location string
	}{
		{path: "/login.html", status: http.StatusOK, contains: "Admin Login"},
		{path: "/", status: http.StatusOK, contains: "Apply for a gold loan"},
		{path: "/index.html", status: http.StatusOK, contains: "Apply for a gold loan"},
		{path: "/admin.html", status: http.StatusFound, location: "/login.html"},
		{path: "/admin%2Ehtml", status: http.StatusFound, location: "/login.html"},
		{path: "/missing.css", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			}
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/login.html", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

// ==========================
// Health Tests
// ==========================

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestReadiness_FailingCheck(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.RemoveAll(env.staticDir))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failed_check":"static"`)
}
