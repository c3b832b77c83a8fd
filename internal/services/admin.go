package services

import (
	"context"

	"clean-street/internal/apperr"
	"clean-street/internal/models"
	"clean-street/internal/store"
	"clean-street/internal/workflow"

	"github.com/sirupsen/logrus"
)

type AdminService struct {
	users      store.UserStore
	complaints store.ComplaintStore
	logs       store.AdminLogStore
	complaint  *ComplaintService
	log        *logrus.Logger
}

func NewAdminService(users store.UserStore, complaints store.ComplaintStore, logs store.AdminLogStore, complaint *ComplaintService, log *logrus.Logger) *AdminService {
	return &AdminService{
		users:      users,
		complaints: complaints,
		logs:       logs,
		complaint:  complaint,
		log:        log,
	}
}

type DashboardStats struct {
	TotalUsers         int64                            `json:"total_users"`
	TotalComplaints    int64                            `json:"total_complaints"`
	ComplaintsByStatus map[models.ComplaintStatus]int64 `json:"complaints_by_status"`
	UsersByRole        map[models.UserRole]int64        `json:"users_by_role"`
}

// DashboardStats is computed on every call; there are no cached counters.
func (s *AdminService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	totalComplaints, err := s.complaints.Count(ctx, store.ComplaintFilter{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	byStatus, err := s.complaints.CountByStatus(ctx, store.ComplaintFilter{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &DashboardStats{
		TotalUsers:         totalUsers,
		TotalComplaints:    totalComplaints,
		ComplaintsByStatus: byStatus,
		UsersByRole:        byRole,
	}, nil
}

type UserPage struct {
	Items []models.User
	Total int64
	Page  store.Page
}

func (s *AdminService) ListUsers(ctx context.Context, filter store.UserFilter) (*UserPage, error) {
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	filter.Page = filter.Page.Normalize()

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &UserPage{Items: users, Total: total, Page: filter.Page}, nil
}

func (s *AdminService) ListComplaints(ctx context.Context, filter store.ComplaintFilter) (*ComplaintPage, error) {
	return s.complaint.List(ctx, filter)
}

// SetRole changes a user's role. There is no guard against an admin
// demoting themselves.
func (s *AdminService) SetRole(ctx context.Context, admin *models.User, userID, role string) (*models.User, error) {
	newRole, ok := models.RoleFromString(role)
	if !ok {
		return nil, ErrInvalidRole
	}
	id, err := parseID(userID, "User")
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User")
	}
	oldRole := user.Role

	if err := s.users.UpdateRole(ctx, id, newRole); err != nil {
		return nil, storeError(err, "User")
	}
	user.Role = newRole

	entry := models.NewAdminLog(admin.ID, models.RoleChangeAction(user.Name, oldRole, newRole))
	if err := s.logs.Append(ctx, entry); err != nil {
		// The role change already happened; a missing audit line is logged, not returned.
		s.log.WithError(err).WithField("user_id", id.Hex()).Error("Failed to append admin log")
	}

	s.log.WithFields(logrus.Fields{
		"admin_id": admin.ID.Hex(),
		"user_id":  id.Hex(),
		"from":     oldRole,
		"to":       newRole,
	}).Info("User role updated")

	return user, nil
}

// UpdateComplaintStatus runs the status change through the complaint workflow.
func (s *AdminService) UpdateComplaintStatus(ctx context.Context, admin *models.User, complaintID, status string) (*models.Complaint, error) {
	next := models.ComplaintStatus(status)
	if !next.IsValid() {
		return nil, workflow.ErrInvalidStatus
	}
	return s.complaint.Update(ctx, admin, complaintID, models.ComplaintPatch{Status: &next})
}

type LogPage struct {
	Items []models.AdminLog
	Total int64
	Page  store.Page
}

func (s *AdminService) Logs(ctx context.Context, page store.Page) (*LogPage, error) {
	page = page.Normalize()
	entries, total, err := s.logs.List(ctx, page)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LogPage{Items: entries, Total: total, Page: page}, nil
}
