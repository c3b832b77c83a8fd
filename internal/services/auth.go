package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"clean-street/internal/apperr"
	"clean-street/internal/config"
	"clean-street/internal/models"
	"clean-street/internal/store"
	"clean-street/internal/upload"
	"clean-street/pkg/auth"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const minPasswordLength = 6

var (
	ErrUserExists         = apperr.Validation("User already exists")
	ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")
	ErrInvalidToken       = apperr.Unauthorized("Invalid token")
	ErrUserGone           = apperr.Unauthorized("User not found")
	ErrInvalidRole        = apperr.Validation("Invalid role")
)

type AuthService struct {
	users      store.UserStore
	jwt        *auth.JWTManager
	uploader   upload.Uploader
	log        *logrus.Logger
	bcryptCost int

	// allowAdminSignup lets register create admin accounts directly
	allowAdminSignup bool
}

type AuthOptions struct {
	BcryptCost int
	// AllowAdminSignup lets register accept role=admin. On by default;
	// operators can turn it off and bootstrap admins from the CLI.
	AllowAdminSignup bool
}

func AuthOptionsFromConfig(cfg *config.Config) AuthOptions {
	return AuthOptions{
		BcryptCost:       cfg.BcryptCost,
		AllowAdminSignup: cfg.AllowAdminSignup,
	}
}

func NewAuthService(users store.UserStore, jwt *auth.JWTManager, uploader upload.Uploader, log *logrus.Logger, opts AuthOptions) *AuthService {
	return &AuthService{
		users:            users,
		jwt:              jwt,
		uploader:         uploader,
		log:              log,
		bcryptCost:       opts.BcryptCost,
		allowAdminSignup: opts.AllowAdminSignup,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Location string
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("Name, email and password are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}

	role := models.RoleUser
	if in.Role != "" {
		r, ok := models.RoleFromString(in.Role)
		if !ok {
			return nil, ErrInvalidRole
		}
		role = r
	}
	if role == models.RoleAdmin && !s.allowAdminSignup {
		return nil, apperr.Forbidden("Admin accounts cannot be self-registered")
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now()
	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Location:     strings.TrimSpace(in.Location),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, apperr.Internal(err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID.Hex(),
		"role":    user.Role,
	}).Info("User registered")

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, storeError(err, "User")
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.jwt.GenerateToken(user.ID.Hex(), user.Role.String())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	sanitized := user.Sanitized()
	return &AuthResult{Token: token, User: &sanitized}, nil
}

// Authenticate verifies token and loads the account it names. The stored
// role wins over the role claim so demotions apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserGone
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

type ProfileInput struct {
	Name     *string
	Location *string
	Photo    *upload.File
}

func (s *AuthService) UpdateProfile(ctx context.Context, actor *models.User, in ProfileInput) (*models.User, error) {
	update := store.ProfileUpdate{Location: in.Location}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Name cannot be empty")
		}
		update.Name = &name
	}
	if in.Photo != nil {
		url, err := s.uploader.Upload(ctx, in.Photo)
		if err != nil {
			return nil, uploadError(err)
		}
		update.ProfilePhoto = &url
	}
	if update.Name == nil && update.Location == nil && update.ProfilePhoto == nil {
		return nil, apperr.Validation("No valid fields to update")
	}

	user, err := s.users.UpdateProfile(ctx, actor.ID, update)
	if err != nil {
		return nil, storeError(err, "User")
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, actor *models.User, current, next string) error {
	if len(next) < minPasswordLength {
		return apperr.Validation("Password must be at least 6 characters")
	}

	user, err := s.users.FindWithPassword(ctx, actor.ID)
	if err != nil {
		return storeError(err, "User")
	}
	if err := auth.CheckPassword(user.PasswordHash, current); err != nil {
		return apperr.Validation("Current password is incorrect")
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.users.UpdatePassword(ctx, actor.ID, hash); err != nil {
		return storeError(err, "User")
	}

	s.log.WithField("user_id", actor.ID.Hex()).Info("Password changed")
	return nil
}

// uploadError keeps client facing upload errors and hides provider failures.
func uploadError(err error) error {
	if apperr.IsKind(err, apperr.KindValidation) {
		return err
	}
	return apperr.Internal(err)
}
