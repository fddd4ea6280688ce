package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/middleware"
)

// Handlers groups every resource handler mounted by RegisterRoutes.
type Handlers struct {
	Health    *HealthHandler
	Workspace *WorkspaceHandler
	Project   *ProjectHandler
	Task      *TaskHandler
	Comment   *CommentHandler
	Webhook   *WebhookHandler
}

// RegisterRoutes mounts the API. requireAuth guards everything under /api
// except the webhook, which authenticates by signature.
func RegisterRoutes(r gin.IRouter, h Handlers, requireAuth gin.HandlerFunc) {
	r.GET("/health", h.Health.Check)

	api := r.Group("/api")
	api.POST("/webhooks/clerk", h.Webhook.Clerk)

	protected := api.Group("")
	protected.Use(requireAuth)
	{
		workspaces := protected.Group("/workspaces")
		workspaces.POST("", h.Workspace.CreateWorkspace)
		workspaces.GET("", h.Workspace.ListWorkspaces)
		workspaces.POST("/add-member", h.Workspace.AddMember)

		projects := protected.Group("/projects")
		projects.POST("", h.Project.CreateProject)
		projects.PUT("/:projectId", h.Project.UpdateProject)
		projects.POST("/:projectId/members", h.Project.AddMember)

		tasks := protected.Group("/tasks")
		tasks.POST("", h.Task.CreateTask)
		tasks.POST("/generate", h.Task.GenerateTasks)
		tasks.PUT("/:id", h.Task.UpdateTask)
		tasks.DELETE("", h.Task.DeleteTasks)

		comments := protected.Group("/comments")
		comments.POST("", h.Comment.AddComment)
		comments.GET("/:taskId", h.Comment.ListComments)
	}
}

// currentUser answers 401 when the request carries no user.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return userID, ok
}

// internalError logs err and answers with a message that does not leak it.
func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	log.Error().Err(err).
		Str("method", c.Request.Method).
		Str("route", c.FullPath()).
		Msg("request failed")
	apierrors.InternalError(c, "")
}
