package services

import (
	"context"
	"testing"

	"clean-street/internal/apperr"
	"clean-street/internal/models"
	"clean-street/internal/store"
	"clean-street/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSetRole_InvalidRoleLeavesUserUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.newUser(t, "admin", models.RoleAdmin)
	user := f.newUser(t, "user", models.RoleUser)

	for _, role := range []string{"superadmin", "", "Admin"} {
		_, err := f.admin.SetRole(ctx, admin, user.ID.Hex(), role)
		assert.Equal(t, ErrInvalidRole, err, "role %q", role)
	}

	stored, err := f.db.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, stored.Role)
	assert.Empty(t, f.db.Logs.Entries())
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.newUser(t, "admin", models.RoleAdmin)
	user := f.newUser(t, "priya", models.RoleUser)

	_, err := f.admin.SetRole(ctx, admin, primitive.NewObjectID().Hex(), "volunteer")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	updated, err := f.admin.SetRole(ctx, admin, user.ID.Hex(), "volunteer")
	require.NoError(t, err)
	assert.Equal(t, models.RoleVolunteer, updated.Role)

	stored, err := f.db.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleVolunteer, stored.Role)

	entries := f.db.Logs.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Updated role of priya from user to volunteer", entries[0].Action)

	// Self demotion is not guarded.
	_, err = f.admin.SetRole(ctx, admin, admin.ID.Hex(), "user")
	assert.NoError(t, err)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.newUser(t, "admin", models.RoleAdmin)
	owner := f.newUser(t, "owner", models.RoleUser)
	f.newUser(t, "vol", models.RoleVolunteer)

	c := f.newComplaint(t, owner)
	f.newComplaint(t, owner)
	_, err := f.admin.UpdateComplaintStatus(ctx, admin, c.ID.Hex(), "rejected")
	require.NoError(t, err)

	stats, err := f.admin.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.TotalComplaints)
	assert.Equal(t, map[models.ComplaintStatus]int64{
		models.StatusReceived: 1,
		models.StatusInReview: 0,
		models.StatusResolved: 0,
		models.StatusRejected: 1,
	}, stats.ComplaintsByStatus)
	assert.Equal(t, map[models.UserRole]int64{
		models.RoleUser:      1,
		models.RoleVolunteer: 1,
		models.RoleAdmin:     1,
	}, stats.UsersByRole)
}

func TestUpdateComplaintStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.newUser(t, "admin", models.RoleAdmin)
	owner := f.newUser(t, "owner", models.RoleUser)
	c := f.newComplaint(t, owner)

	_, err := f.admin.UpdateComplaintStatus(ctx, admin, c.ID.Hex(), "archived")
	assert.Equal(t, workflow.ErrInvalidStatus, err)

	_, err = f.admin.UpdateComplaintStatus(ctx, admin, primitive.NewObjectID().Hex(), "resolved")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	updated, err := f.admin.UpdateComplaintStatus(ctx, admin, c.ID.Hex(), "resolved")
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)

	logs, err := f.admin.Logs(ctx, store.Page{})
	require.NoError(t, err)
	require.Equal(t, int64(1), logs.Total)
	assert.Equal(t, "Updated complaint (Pothole on MG Road) status from received to resolved", logs.Items[0].Action)
}

func TestLogs_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.newUser(t, "admin", models.RoleAdmin)
	owner := f.newUser(t, "owner", models.RoleUser)
	c := f.newComplaint(t, owner)

	for _, status := range []string{"in_review", "resolved", "rejected"} {
		_, err := f.admin.UpdateComplaintStatus(ctx, admin, c.ID.Hex(), status)
		require.NoError(t, err)
	}

	logs, err := f.admin.Logs(ctx, store.Page{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), logs.Total)
	require.Len(t, logs.Items, 2)
	assert.Contains(t, logs.Items[0].Action, "from resolved to rejected")
	assert.Contains(t, logs.Items[1].Action, "from in_review to resolved")
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "anil", models.RoleUser)
	f.newUser(t, "bina", models.RoleVolunteer)
	f.newUser(t, "chetan", models.RoleVolunteer)

	page, err := f.admin.ListUsers(ctx, store.UserFilter{Role: models.RoleVolunteer})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	for _, u := range page.Items {
		assert.Empty(t, u.PasswordHash)
	}

	page, err = f.admin.ListUsers(ctx, store.UserFilter{Search: "BIN"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "bina", page.Items[0].Name)

	_, err = f.admin.ListUsers(ctx, store.UserFilter{Role: "root"})
	assert.Equal(t, ErrInvalidRole, err)
}
