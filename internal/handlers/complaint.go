package handlers

import (
	"net/http"
	"strconv"

	"clean-street/internal/apperr"
	"clean-street/internal/models"
	"clean-street/internal/services"
	"clean-street/internal/store"
	"clean-street/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ComplaintHandler struct {
	complaints    *services.ComplaintService
	maxUploadSize int64
	log           *logrus.Logger
}

// CreateComplaintRequest is bound from multipart or urlencoded forms.
// Presence is checked by the service so every missing field gets the same
// message.
type CreateComplaintRequest struct {
	Title       string `form:"title"`
	Type        string `form:"type"`
	Priority    string `form:"priority"`
	Address     string `form:"address"`
	Landmark    string `form:"landmark"`
	Description string `form:"description"`
	Latitude    string `form:"latitude"`
	Longitude   string `form:"longitude"`
}

type UpdateComplaintRequest struct {
	Title       *string `json:"title"`
	Type        *string `json:"type"`
	Priority    *string `json:"priority"`
	Address     *string `json:"address"`
	Landmark    *string `json:"landmark"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	AssignedTo  *string `json:"assigned_to"`
}

// Patch converts the request into a domain patch. assigned_to is only
// parsed for volunteers and admins; for everyone else the workflow drops
// it, and its ownership and lock checks must get the first say.
func (r UpdateComplaintRequest) Patch(actor *models.User) (models.ComplaintPatch, error) {
	patch := models.ComplaintPatch{
		Title:       r.Title,
		Type:        r.Type,
		Address:     r.Address,
		Landmark:    r.Landmark,
		Description: r.Description,
	}
	if r.Priority != nil {
		p := models.Priority(*r.Priority)
		patch.Priority = &p
	}
	if r.Status != nil {
		s := models.ComplaintStatus(*r.Status)
		patch.Status = &s
	}
	if r.AssignedTo != nil && *r.AssignedTo != "" && actor.Role.IsPrivileged() {
		id, err := primitive.ObjectIDFromHex(*r.AssignedTo)
		if err != nil {
			return patch, workflow.ErrInvalidAssignee
		}
		patch.AssignedTo = &id
	}
	return patch, nil
}

type ListComplaintsQuery struct {
	Status   string `form:"status" binding:"omitempty,complaint_status"`
	Type     string `form:"type"`
	Priority string `form:"priority" binding:"omitempty,priority"`
}

func (q ListComplaintsQuery) Filter(page store.Page) store.ComplaintFilter {
	return store.ComplaintFilter{
		Status:   models.ComplaintStatus(q.Status),
		Type:     q.Type,
		Priority: models.Priority(q.Priority),
		Page:     page,
	}
}

type CommentRequest struct {
	Text string `json:"text" form:"text" binding:"max=1000"`
}

func NewComplaintHandler(complaints *services.ComplaintService, maxUploadSize int64, log *logrus.Logger) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints, maxUploadSize: maxUploadSize, log: log}
}

func (h *ComplaintHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var req CreateComplaintRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	photo, err := formImage(c, "photo", h.maxUploadSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	complaint, err := h.complaints.Create(c.Request.Context(), user, services.CreateComplaintInput{
		Title:       req.Title,
		Type:        req.Type,
		Priority:    req.Priority,
		Address:     req.Address,
		Landmark:    req.Landmark,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Photo:       photo,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusCreated, complaint)
}

func (h *ComplaintHandler) MyReports(c *gin.Context) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	page, err := h.complaints.ListMine(c.Request.Context(), user, pageFromQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, page.Items, page.Total, page.Page)
}

func (h *ComplaintHandler) All(c *gin.Context) {
	var q ListComplaintsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	page, err := h.complaints.List(c.Request.Context(), q.Filter(pageFromQuery(c)))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, page.Items, page.Total, page.Page)
}

func (h *ComplaintHandler) Stats(c *gin.Context) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	stats, err := h.complaints.Stats(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}

// Nearby expects lat, lng and an optional radius in metres.
func (h *ComplaintHandler) Nearby(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		respondError(c, h.log, apperr.Validation("lat and lng query parameters are required"))
		return
	}

	var radius float64
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, h.log, apperr.Validation("radius must be a number"))
			return
		}
		radius = r
	}

	results, err := h.complaints.Nearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, results)
}

func (h *ComplaintHandler) Get(c *gin.Context) {
	complaint, err := h.complaints.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, complaint)
}

func (h *ComplaintHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var req UpdateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}
	patch, err := req.Patch(user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	complaint, err := h.complaints.Update(c.Request.Context(), user, c.Param("id"), patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, complaint)
}

func (h *ComplaintHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	if err := h.complaints.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Complaint deleted successfully",
	})
}

func (h *ComplaintHandler) Claim(c *gin.Context) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	complaint, err := h.complaints.Claim(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, complaint)
}

func (h *ComplaintHandler) Upvote(c *gin.Context)   { h.vote(c, models.VoteUp) }
func (h *ComplaintHandler) Downvote(c *gin.Context) { h.vote(c, models.VoteDown) }

func (h *ComplaintHandler) vote(c *gin.Context, vote models.Vote) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	complaint, err := h.complaints.Vote(c.Request.Context(), user, c.Param("id"), vote)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, complaint)
}

// AddComment takes JSON {text} or a form with text and an optional image.
func (h *ComplaintHandler) AddComment(c *gin.Context) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var req CommentRequest
	var err error
	if c.ContentType() == binding.MIMEJSON {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	image, err := formImage(c, "image", h.maxUploadSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	comment, err := h.complaints.AddComment(c.Request.Context(), user, c.Param("id"), services.CommentInput{
		Text:  req.Text,
		Image: image,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusCreated, comment)
}

func (h *ComplaintHandler) LikeComment(c *gin.Context)    { h.react(c, models.VoteUp) }
func (h *ComplaintHandler) DislikeComment(c *gin.Context) { h.react(c, models.VoteDown) }

func (h *ComplaintHandler) react(c *gin.Context, vote models.Vote) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	comment, err := h.complaints.ReactToComment(c.Request.Context(), user, c.Param("id"), c.Param("commentId"), vote)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, comment)
}
