package handlers

import (
	"net/http"

	"clean-street/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	auth          *services.AuthService
	maxUploadSize int64
	log           *logrus.Logger
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=100"`
	Role     string `json:"role" binding:"omitempty,user_role"`
	Location string `json:"location" binding:"max=200"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=100"`
}

func NewAuthHandler(auth *services.AuthService, maxUploadSize int64, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, maxUploadSize: maxUploadSize, log: log}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	result, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Location: req.Location,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, user)
}

// UpdateProfile accepts multipart (with an optional "photo") or urlencoded
// forms. Absent fields are left untouched.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var in services.ProfileInput
	if name, ok := c.GetPostForm("name"); ok {
		in.Name = &name
	}
	if location, ok := c.GetPostForm("location"); ok {
		in.Location = &location
	}

	photo, err := formImage(c, "photo", h.maxUploadSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	in.Photo = photo

	updated, err := h.auth.UpdateProfile(c.Request.Context(), user, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, updated)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password updated successfully",
	})
}
