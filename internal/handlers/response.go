package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"clean-street/internal/apperr"
	"clean-street/internal/middleware"
	"clean-street/internal/models"
	"clean-street/internal/store"
	"clean-street/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// respondError is the single place service errors become HTTP responses.
// Internal causes are logged and never sent to the client.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	appErr := apperr.As(err)
	if appErr.Kind == apperr.KindInternal {
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"path":       c.FullPath(),
		}).Error("Request failed")
		_ = c.Error(err)
	}

	c.JSON(appErr.HTTPStatus(), gin.H{
		"success": false,
		"message": appErr.Message,
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondPage(c *gin.Context, data interface{}, total int64, page store.Page) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":        page.Page,
			"limit":       page.Limit,
			"total":       total,
			"total_pages": page.TotalPages(total),
		},
	})
}

var tagMessages = map[string]string{
	"complaint_status": "Invalid status",
	"user_role":        "Invalid role",
	"priority":         "Invalid priority",
}

// bindError turns a binding failure into a validation error with a
// readable message.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("Invalid request data")
	}

	fe := verrs[0]
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return apperr.Validation(msg)
	}

	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperr.Validation(fmt.Sprintf("%s is required", field))
	case "email":
		return apperr.Validation("Invalid email address")
	case "min":
		return apperr.Validation(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	case "max":
		return apperr.Validation(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	default:
		return apperr.Validation(fmt.Sprintf("%s is invalid", field))
	}
}

type pageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// pageFromQuery reads page/limit; junk values fall back to defaults.
func pageFromQuery(c *gin.Context) store.Page {
	var q pageQuery
	_ = c.ShouldBindQuery(&q)
	return store.Page{Page: q.Page, Limit: q.Limit}.Normalize()
}

func currentUser(c *gin.Context, log *logrus.Logger) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, log, apperr.Unauthorized("User not authenticated"))
		return nil, false
	}
	return user, true
}

// formImage reads an optional image field from a multipart request.
func formImage(c *gin.Context, field string, maxSize int64) (*upload.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperr.Validation("Invalid file upload")
	}
	return upload.FromMultipart(fh, maxSize)
}
