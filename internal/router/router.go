// Package router wires handlers and middleware into the gin engine.
package router

import (
	"net/http"
	"time"

	"clean-street/internal/handlers"
	"clean-street/internal/middleware"
	"clean-street/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Complaint *handlers.ComplaintHandler
	Admin     *handlers.AdminHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	AllowedOrigins []string
	MaxUploadSize  int64

	// Limiter is optional; nil disables rate limiting.
	Limiter middleware.Limiter
}

func Setup(h Handlers, authn middleware.Authenticator, log *logrus.Logger, opts Options) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = opts.MaxUploadSize

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if opts.Limiter != nil {
		router.Use(middleware.RateLimit(opts.Limiter, log))
	}

	router.Use(middleware.SecurityHeaders())
	// Multipart overhead on top of the largest accepted file
	router.Use(middleware.RequestSizeLimit(opts.MaxUploadSize + 1<<20))

	router.GET("/health", h.Health.Check)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Route not found",
		})
	})

	api := router.Group("/api")
	requireAuth := middleware.AuthMiddleware(authn)

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.GET("/me", requireAuth, h.Auth.Me)
		authRoutes.PUT("/profile", requireAuth, h.Auth.UpdateProfile)
		authRoutes.PUT("/password", requireAuth, h.Auth.ChangePassword)
	}

	complaints := api.Group("/complaints", requireAuth)
	{
		complaints.POST("/create", middleware.RequireAnyRole(models.RoleUser), h.Complaint.Create)
		complaints.GET("/my-reports", h.Complaint.MyReports)
		complaints.GET("/all", h.Complaint.All)
		complaints.GET("/stats", h.Complaint.Stats)
		complaints.GET("/nearby", middleware.RequirePrivileged(), h.Complaint.Nearby)

		complaints.GET("/:id", h.Complaint.Get)
		complaints.PATCH("/:id", h.Complaint.Update)
		complaints.DELETE("/:id", h.Complaint.Delete)
		complaints.POST("/:id/claim", middleware.RequirePrivileged(), h.Complaint.Claim)
		complaints.POST("/:id/upvote", h.Complaint.Upvote)
		complaints.POST("/:id/downvote", h.Complaint.Downvote)
		complaints.POST("/:id/comments", h.Complaint.AddComment)
		complaints.POST("/:id/comments/:commentId/like", h.Complaint.LikeComment)
		complaints.POST("/:id/comments/:commentId/dislike", h.Complaint.DislikeComment)
	}

	admin := api.Group("/admin", requireAuth, middleware.RequireAdmin())
	{
		admin.GET("/complaints", h.Admin.Complaints)
		admin.GET("/users", h.Admin.Users)
		admin.PATCH("/users/:id/role", h.Admin.UpdateRole)
		admin.PATCH("/complaints/:id/status", h.Admin.UpdateComplaintStatus)
		admin.GET("/stats", h.Admin.Stats)
		admin.GET("/logs", h.Admin.Logs)
	}

	return router
}
