package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/services"
)

// WorkspaceHandler coordinates workspace HTTP handlers.
type WorkspaceHandler struct {
	workspaceService *services.WorkspaceService
}

func NewWorkspaceHandler(workspaceService *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService}
}

// CreateWorkspace stores a workspace the client learned about from the
// identity provider. Repeating the call for a workspace the caller already
// belongs to returns it with 200.
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidBody(c, err)
		return
	}

	ws, created, err := h.workspaceService.CreateWorkspace(c.Request.Context(), req.ToInput(userID))
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"workspace": ws, "message": "Workspace already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"workspace": ws, "message": "Workspace created successfully"})
}

// ListWorkspaces returns every workspace of the caller, fully loaded.
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	workspaces, err := h.workspaceService.ListWorkspaces(c.Request.Context(), userID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// AddMember adds an existing user to a workspace. Admin only.
func (h *WorkspaceHandler) AddMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.AddWorkspaceMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Email, a valid role and workspaceId are required")
		return
	}

	member, err := h.workspaceService.AddMember(c.Request.Context(), req.ToInput(userID))
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"member": member, "message": "Member added successfully"})
}

func respondWorkspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidWorkspaceName),
		errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrWorkspaceNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotWorkspaceAdmin):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrWorkspaceExists),
		errors.Is(err, services.ErrAlreadyWorkspaceMember):
		apierrors.Conflict(c, err.Error())
	default:
		internalError(c, err)
	}
}
