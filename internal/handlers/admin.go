package handlers

import (
	"net/http"

	"clean-street/internal/models"
	"clean-street/internal/services"
	"clean-street/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	admin *services.AdminService
	log   *logrus.Logger
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,user_role"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,complaint_status"`
}

type ListUsersQuery struct {
	Role   string `form:"role" binding:"omitempty,user_role"`
	Search string `form:"search" binding:"max=100"`
}

func NewAdminHandler(admin *services.AdminService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

func (h *AdminHandler) Complaints(c *gin.Context) {
	var q ListComplaintsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	page, err := h.admin.ListComplaints(c.Request.Context(), q.Filter(pageFromQuery(c)))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, page.Items, page.Total, page.Page)
}

func (h *AdminHandler) Users(c *gin.Context) {
	var q ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	page, err := h.admin.ListUsers(c.Request.Context(), store.UserFilter{
		Role:   models.UserRole(q.Role),
		Search: q.Search,
		Page:   pageFromQuery(c),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, page.Items, page.Total, page.Page)
}

func (h *AdminHandler) UpdateRole(c *gin.Context) {
	admin, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	user, err := h.admin.SetRole(c.Request.Context(), admin, c.Param("id"), req.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func (h *AdminHandler) UpdateComplaintStatus(c *gin.Context) {
	admin, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	complaint, err := h.admin.UpdateComplaintStatus(c.Request.Context(), admin, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, complaint)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}

func (h *AdminHandler) Logs(c *gin.Context) {
	page, err := h.admin.Logs(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, page.Items, page.Total, page.Page)
}
