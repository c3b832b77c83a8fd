// Package store persists users, complaints and the admin audit log.
package store

import (
	"context"
	"errors"

	"clean-street/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is 1-based pagination.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps out-of-range values to the defaults.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}
	return p
}

func (p Page) Skip() int64 {
	p = p.Normalize()
	return int64((p.Page - 1) * p.Limit)
}

// TotalPages for total matching documents.
func (p Page) TotalPages(total int64) int64 {
	p = p.Normalize()
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}

type UserFilter struct {
	Role   models.UserRole
	Search string // matched against name and email
	Page
}

type ProfileUpdate struct {
	Name         *string
	Location     *string
	ProfilePhoto *string
}

type ComplaintFilter struct {
	OwnerID    *primitive.ObjectID
	AssignedTo *primitive.ObjectID
	Status     models.ComplaintStatus
	Type       string
	Priority   models.Priority
	Page
}

type NearQuery struct {
	Point       models.GeoPoint
	MaxDistance float64 // metres
	Statuses    []models.ComplaintStatus
	Limit       int
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	// FindByID never returns the password hash.
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// FindWithPassword and FindByEmail include the password hash.
	FindWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	UpdateRole(ctx context.Context, id primitive.ObjectID, role models.UserRole) error
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) (map[models.UserRole]int64, error)
}

type ComplaintStore interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.ComplaintPatch) (*models.Complaint, error)
	// UpdateWithLog applies patch and appends entry as one unit of work.
	UpdateWithLog(ctx context.Context, id primitive.ObjectID, patch models.ComplaintPatch, entry *models.AdminLog) (*models.Complaint, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter ComplaintFilter) ([]models.Complaint, int64, error)
	Near(ctx context.Context, query NearQuery) ([]models.Complaint, error)
	Count(ctx context.Context, filter ComplaintFilter) (int64, error)
	CountByStatus(ctx context.Context, filter ComplaintFilter) (map[models.ComplaintStatus]int64, error)
	SetVote(ctx context.Context, id, userID primitive.ObjectID, vote models.Vote) (*models.Complaint, error)
	AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error
	SetCommentReaction(ctx context.Context, id, commentID, userID primitive.ObjectID, vote models.Vote) (*models.Comment, error)
}

type AdminLogStore interface {
	Append(ctx context.Context, entry *models.AdminLog) error
	List(ctx context.Context, page Page) ([]models.AdminLog, int64, error)
}
