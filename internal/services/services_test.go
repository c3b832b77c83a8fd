package services

import (
	"context"
	"testing"
	"time"

	"clean-street/internal/logger"
	"clean-street/internal/models"
	"clean-street/internal/store/storetest"
	"clean-street/internal/upload"
	"clean-street/pkg/auth"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, file *upload.File) (string, error) {
	args := m.Called(ctx, file)
	return args.String(0), args.Error(1)
}

type fixture struct {
	db         *storetest.DB
	jwt        *auth.JWTManager
	uploader   *mockUploader
	auth       *AuthService
	complaints *ComplaintService
	admin      *AdminService
}

func newFixture(t *testing.T, opts ...func(*AuthOptions)) *fixture {
	t.Helper()

	authOpts := AuthOptions{BcryptCost: bcrypt.MinCost, AllowAdminSignup: true}
	for _, o := range opts {
		o(&authOpts)
	}

	log := logger.Discard()
	db := storetest.New()
	jwt := auth.NewJWTManager("user-secret", "admin-secret", time.Hour)
	uploader := new(mockUploader)

	complaints := NewComplaintService(db.Complaints, db.Users, uploader, log)
	return &fixture{
		db:         db,
		jwt:        jwt,
		uploader:   uploader,
		auth:       NewAuthService(db.Users, jwt, uploader, log, authOpts),
		complaints: complaints,
		admin:      NewAdminService(db.Users, db.Complaints, db.Logs, complaints, log),
	}
}

func (f *fixture) newUser(t *testing.T, name string, role models.UserRole) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, f.db.Users.Create(context.Background(), user))
	sanitized := user.Sanitized()
	return &sanitized
}

func (f *fixture) newComplaint(t *testing.T, owner *models.User) *models.Complaint {
	t.Helper()

	c, err := f.complaints.Create(context.Background(), owner, CreateComplaintInput{
		Title:       "Pothole on MG Road",
		Type:        "pothole",
		Priority:    "High",
		Address:     "MG Road",
		Description: "Large pothole near the bus stop",
		Latitude:    "12.9",
		Longitude:   "77.6",
	})
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }
