package http

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httpapi "github.com/taskhive/taskhive-backend/internal/api/http"
	"github.com/taskhive/taskhive-backend/internal/auth"
	"github.com/taskhive/taskhive-backend/internal/store"
)

func (h *Handler) list(c *gin.Context) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		httpapi.Error(c, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
		return
	}

	projects, err := h.store.ListUserProjects(c.Request.Context(), identity.UserID)
	if err != nil {
		h.log.Error("list projects failed", zap.String("user_id", identity.UserID), zap.Error(err))
		httpapi.Internal(c)
		return
	}

	// Newest first. Every listing consumer applies this same order.
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt > projects[j].CreatedAt
	})

	httpapi.Success(c, http.StatusOK, gin.H{
		"projects": projects,
		"count":    len(projects),
	}, "")
}

func (h *Handler) create(c *gin.Context) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		httpapi.Error(c, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
		return
	}

	var req createReq
	_ = c.ShouldBindJSON(&req)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		httpapi.Error(c, http.StatusBadRequest, "Project name is required", "MISSING_NAME")
		return
	}
	if len(name) < 3 {
		httpapi.Error(c, http.StatusBadRequest, "Project name must be at least 3 characters", "NAME_TOO_SHORT")
		return
	}

	ctx := c.Request.Context()
	project, err := h.store.CreateProject(ctx, store.CreateProjectInput{
		ProjectID:   uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      req.Status,
		OwnerID:     identity.UserID,
		OwnerName:   identity.Name,
	})
	if err != nil {
		h.log.Error("create project failed", zap.String("user_id", identity.UserID), zap.Error(err))
		httpapi.Internal(c)
		return
	}

	h.stats.Invalidate(ctx, identity.UserID)
	httpapi.Success(c, http.StatusCreated, gin.H{"project": project}, "Project created successfully")
}

func (h *Handler) get(c *gin.Context) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		httpapi.Error(c, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
		return
	}

	projectID := c.Param("id")
	if projectID == "" {
		httpapi.Error(c, http.StatusBadRequest, "Project ID is required", "MISSING_ID")
		return
	}

	ctx := c.Request.Context()

	// Access before existence: a non-member learns nothing about whether
	// the project exists.
	access, err := h.store.CheckAccess(ctx, identity.UserID, projectID)
	if err != nil {
		h.log.Error("access check failed", zap.Error(err))
		httpapi.Internal(c)
		return
	}
	if access == nil {
		httpapi.Error(c, http.StatusForbidden, "You do not have access to this project", "FORBIDDEN")
		return
	}

	project, err := h.store.GetProject(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		httpapi.Error(c, http.StatusNotFound, "Project not found", "NOT_FOUND")
		return
	}
	if err != nil {
		h.log.Error("get project failed", zap.String("project_id", projectID), zap.Error(err))
		httpapi.Internal(c)
		return
	}

	members, err := h.store.ListMembers(ctx, projectID)
	if err != nil {
		h.log.Error("list members failed", zap.String("project_id", projectID), zap.Error(err))
		httpapi.Internal(c)
		return
	}

	role := access.Role
	if role == "" {
		role = store.RoleMember
	}

	httpapi.Success(c, http.StatusOK, gin.H{
		"project": projectDetail{Project: *project, Members: members, UserRole: role},
	}, "")
}

func (h *Handler) update(c *gin.Context) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		httpapi.Error(c, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
		return
	}

	projectID := c.Param("id")
	if projectID == "" {
		httpapi.Error(c, http.StatusBadRequest, "Project ID is required", "MISSING_ID")
		return
	}

	ctx := c.Request.Context()
	access, err := h.store.CheckAccess(ctx, identity.UserID, projectID)
	if err != nil {
		h.log.Error("access check failed", zap.Error(err))
		httpapi.Internal(c)
		return
	}
	if access == nil || access.Role != store.RoleOwner {
		httpapi.Error(c, http.StatusForbidden, "Only the owner can update the project", "FORBIDDEN")
		return
	}

	var req updateReq
	_ = c.ShouldBindJSON(&req)

	if req.Name == nil && req.Description == nil && req.Status == nil {
		httpapi.Error(c, http.StatusBadRequest, "No fields to update", "NO_UPDATES")
		return
	}
	if req.Name != nil && len(strings.TrimSpace(*req.Name)) < 3 {
		httpapi.Error(c, http.StatusBadRequest, "Project name must be at least 3 characters", "NAME_TOO_SHORT")
		return
	}

	project, err := h.store.UpdateProject(ctx, projectID, store.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if errors.Is(err, store.ErrNotFound) {
		httpapi.Error(c, http.StatusNotFound, "Project not found", "NOT_FOUND")
		return
	}
	if err != nil {
		h.log.Error("update project failed", zap.String("project_id", projectID), zap.Error(err))
		httpapi.Internal(c)
		return
	}

	h.stats.Invalidate(ctx, identity.UserID)
	httpapi.Success(c, http.StatusOK, gin.H{"project": project}, "Project updated successfully")
}

func (h *Handler) delete(c *gin.Context) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		httpapi.Error(c, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
		return
	}

	projectID := c.Param("id")
	if projectID == "" {
		httpapi.Error(c, http.StatusBadRequest, "Project ID is required", "MISSING_ID")
		return
	}

	ctx := c.Request.Context()
	access, err := h.store.CheckAccess(ctx, identity.UserID, projectID)
	if err != nil {
		h.log.Error("access check failed", zap.Error(err))
		httpapi.Internal(c)
		return
	}
	if access == nil || access.Role != store.RoleOwner {
		httpapi.Error(c, http.StatusForbidden, "Only the owner can delete the project", "FORBIDDEN")
		return
	}

	// Metadata only. Member, task, and relation items stay behind as
	// orphans; the listing path skips them.
	err = h.store.DeleteProject(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		httpapi.Error(c, http.StatusNotFound, "Project not found", "NOT_FOUND")
		return
	}
	if err != nil {
		h.log.Error("delete project failed", zap.String("project_id", projectID), zap.Error(err))
		httpapi.Internal(c)
		return
	}

	h.stats.Invalidate(ctx, identity.UserID)
	httpapi.Success(c, http.StatusOK, gin.H{"projectId": projectID}, "Project deleted successfully")
}
