package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"clean-street/internal/handlers"
	"clean-street/internal/logger"
	"clean-street/internal/services"
	"clean-street/internal/store/storetest"
	"clean-street/internal/upload"
	"clean-street/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeUploader struct{}

func (fakeUploader) Upload(_ context.Context, file *upload.File) (string, error) {
	return "https://cdn.example.com/" + file.Name, nil
}

type testServer struct {
	engine *gin.Engine
	db     *storetest.DB
}

func newTestServer(t *testing.T, pinger handlers.Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handlers.RegisterValidators())

	log := logger.Discard()
	db := storetest.New()
	jwt := auth.NewJWTManager("user-secret", "admin-secret", time.Hour)

	authSvc := services.NewAuthService(db.Users, jwt, fakeUploader{}, log, services.AuthOptions{
		BcryptCost:       bcrypt.MinCost,
		AllowAdminSignup: true,
	})
	complaintSvc := services.NewComplaintService(db.Complaints, db.Users, fakeUploader{}, log)
	adminSvc := services.NewAdminService(db.Users, db.Complaints, db.Logs, complaintSvc, log)

	const maxUpload = 1 << 20
	engine := Setup(Handlers{
		Auth:      handlers.NewAuthHandler(authSvc, maxUpload, log),
		Complaint: handlers.NewComplaintHandler(complaintSvc, maxUpload, log),
		Admin:     handlers.NewAdminHandler(adminSvc, log),
		Health:    handlers.NewHealthHandler(pinger, log),
	}, authSvc, log, Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxUploadSize:  maxUpload,
	})

	return &testServer{engine: engine, db: db}
}

type response struct {
	Code int
	Body map[string]interface{}
}

func (s *testServer) do(t *testing.T, method, path, token, contentType string, body io.Reader) response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return response{Code: w.Code, Body: decoded}
}

func (s *testServer) json(t *testing.T, method, path, token string, payload interface{}) response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, path, token, "application/json", body)
}

func (s *testServer) register(t *testing.T, name, role string) string {
	t.Helper()

	res := s.json(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	token, _ := res.Body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func data(t *testing.T, res response) map[string]interface{} {
	t.Helper()
	d, ok := res.Body["data"].(map[string]interface{})
	require.True(t, ok, res.Body)
	return d
}

func complaintForm() url.Values {
	return url.Values{
		"title":       {"Overflowing bin"},
		"type":        {"garbage"},
		"priority":    {"High"},
		"address":     {"12 Market Street"},
		"description": {"Bin has not been emptied for a week"},
		"latitude":    {"12.9716"},
		"longitude":   {"77.5946"},
	}
}

func TestComplaintLifecycle(t *testing.T) {
	s := newTestServer(t, fakePinger{})

	citizen := s.register(t, "citizen", "user")
	volunteer := s.register(t, "helper", "volunteer")
	admin := s.register(t, "boss", "admin")

	// Citizen files a complaint with a photo.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range complaintForm() {
		require.NoError(t, mw.WriteField(key, values[0]))
	}
	part, err := mw.CreateFormFile("photo", "bin.png")
	require.NoError(t, err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	res := s.do(t, http.MethodPost, "/api/complaints/create", citizen, mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	created := data(t, res)
	id := created["id"].(string)
	assert.Equal(t, "received", created["status"])
	assert.Equal(t, "https://cdn.example.com/bin.png", created["photo"])
	coords := created["location_coords"].(map[string]interface{})["coordinates"].([]interface{})
	assert.InDelta(t, 77.5946, coords[0], 1e-9)
	assert.InDelta(t, 12.9716, coords[1], 1e-9)

	// Volunteers cannot file complaints.
	res = s.do(t, http.MethodPost, "/api/complaints/create", volunteer,
		"application/x-www-form-urlencoded", strings.NewReader(complaintForm().Encode()))
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Role 'volunteer' is not allowed to access this resource", res.Body["message"])

	// Owner can edit while the complaint is still received.
	res = s.json(t, http.MethodPatch, "/api/complaints/"+id, citizen, map[string]string{"title": "Overflowing bins"})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, "Overflowing bins", data(t, res)["title"])

	// Volunteer takes it into review.
	res = s.json(t, http.MethodPatch, "/api/complaints/"+id, volunteer, map[string]string{"status": "in_review"})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, "in_review", data(t, res)["status"])

	// Now the owner is locked out.
	res = s.json(t, http.MethodPatch, "/api/complaints/"+id, citizen, map[string]string{"title": "Too late"})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Complaint can no longer be edited", res.Body["message"])

	// Volunteer status changes are not audited.
	assert.Empty(t, s.db.Logs.Entries())

	// Admin resolves it, which is audited.
	res = s.json(t, http.MethodPatch, "/api/admin/complaints/"+id+"/status", admin, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, "resolved", data(t, res)["status"])

	res = s.json(t, http.MethodGet, "/api/admin/logs", admin, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	logs := res.Body["data"].([]interface{})
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].(map[string]interface{})["action"], "from in_review to resolved")

	// Votes toggle.
	res = s.json(t, http.MethodPost, "/api/complaints/"+id+"/upvote", volunteer, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Len(t, data(t, res)["upvotes"], 1)
	res = s.json(t, http.MethodPost, "/api/complaints/"+id+"/upvote", volunteer, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Empty(t, data(t, res)["upvotes"])

	// Comments and reactions.
	res = s.json(t, http.MethodPost, "/api/complaints/"+id+"/comments", volunteer, map[string]string{"text": "On it"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	commentID := data(t, res)["id"].(string)

	res = s.json(t, http.MethodPost, "/api/complaints/"+id+"/comments/"+commentID+"/like", citizen, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Len(t, data(t, res)["likes"], 1)

	// Stats are scoped to the citizen's own reports.
	res = s.json(t, http.MethodGet, "/api/complaints/stats", citizen, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.EqualValues(t, 1, data(t, res)["total"])
}

func TestRegister_RejectsUnknownRole(t *testing.T) {
	s := newTestServer(t, fakePinger{})

	res := s.json(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "mallory",
		"email":    "mallory@example.com",
		"password": "secret123",
		"role":     "superadmin",
	})

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Invalid role", res.Body["message"])
	assert.Equal(t, false, res.Body["success"])
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t, fakePinger{})
	s.register(t, "citizen", "")

	res := s.json(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "CITIZEN@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	token := res.Body["token"].(string)

	res = s.json(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	me := data(t, res)
	assert.Equal(t, "user", me["role"])
	assert.NotContains(t, me, "password_hash")

	res = s.json(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "citizen@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestProtectedRoutes(t *testing.T) {
	s := newTestServer(t, fakePinger{})
	citizen := s.register(t, "citizen", "user")

	tests := []struct {
		name    string
		method  string
		path    string
		token   string
		code    int
		message string
	}{
		{"no token", http.MethodGet, "/api/complaints/all", "", http.StatusUnauthorized, "No token provided"},
		{"garbage token", http.MethodGet, "/api/complaints/all", "not-a-jwt", http.StatusUnauthorized, "Invalid token"},
		{"admin only", http.MethodGet, "/api/admin/stats", citizen, http.StatusForbidden, "Role 'user' is not allowed to access this resource"},
		{"privileged only", http.MethodGet, "/api/complaints/nearby?lat=1&lng=1", citizen, http.StatusForbidden, "Role 'user' is not allowed to access this resource"},
		{"bad id", http.MethodGet, "/api/complaints/xyz", citizen, http.StatusBadRequest, "Invalid complaint ID"},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound, "Route not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.json(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.code, res.Code)
			assert.Equal(t, tt.message, res.Body["message"])
		})
	}
}

func TestHealth(t *testing.T) {
	res := newTestServer(t, fakePinger{}).json(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "connected", res.Body["database"])

	res = newTestServer(t, fakePinger{err: errors.New("down")}).json(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, fakePinger{})

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUpdateComplaint_ForbiddenBeforeAssigneeValidation(t *testing.T) {
	s := newTestServer(t, fakePinger{})
	owner := s.register(t, "owner", "user")
	other := s.register(t, "other", "user")
	volunteer := s.register(t, "helper", "volunteer")

	res := s.do(t, http.MethodPost, "/api/complaints/create", owner,
		"application/x-www-form-urlencoded", strings.NewReader(complaintForm().Encode()))
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	id := data(t, res)["id"].(string)

	body := map[string]string{"description": "x", "assigned_to": "nothex"}

	res = s.json(t, http.MethodPatch, "/api/complaints/"+id, other, body)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "You can only modify your own complaints", res.Body["message"])

	res = s.json(t, http.MethodPatch, "/api/complaints/"+id, volunteer, map[string]string{"status": "in_review"})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	res = s.json(t, http.MethodPatch, "/api/complaints/"+id, owner, body)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Complaint can no longer be edited", res.Body["message"])

	// Privileged callers still get the assignee validated.
	res = s.json(t, http.MethodPatch, "/api/complaints/"+id, volunteer, map[string]string{"assigned_to": "nothex"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Invalid assignee", res.Body["message"])
}
