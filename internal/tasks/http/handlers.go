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

// requireMember resolves the caller and verifies project membership. Any
// project member may read and mutate tasks; ownership is not required.
func (h *Handler) requireMember(c *gin.Context) (auth.Identity, string, bool) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		httpapi.Error(c, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
		return auth.Identity{}, "", false
	}

	projectID := c.Param("id")
	if projectID == "" {
		httpapi.Error(c, http.StatusBadRequest, "Project ID is required", "MISSING_ID")
		return auth.Identity{}, "", false
	}

	access, err := h.store.CheckAccess(c.Request.Context(), identity.UserID, projectID)
	if err != nil {
		h.log.Error("access check failed", zap.Error(err))
		httpapi.Internal(c)
		return auth.Identity{}, "", false
	}
	if access == nil {
		httpapi.Error(c, http.StatusForbidden, "You do not have access to this project", "FORBIDDEN")
		return auth.Identity{}, "", false
	}
	return identity, projectID, true
}

func (h *Handler) list(c *gin.Context) {
	_, projectID, ok := h.requireMember(c)
	if !ok {
		return
	}

	tasks, err := h.store.ListProjectTasks(c.Request.Context(), projectID)
	if err != nil {
		h.log.Error("list tasks failed", zap.String("project_id", projectID), zap.Error(err))
		httpapi.Internal(c)
		return
	}

	// Newest first, same convention as project listing.
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt > tasks[j].CreatedAt
	})

	httpapi.Success(c, http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	}, "")
}

func (h *Handler) create(c *gin.Context) {
	identity, projectID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req createReq
	_ = c.ShouldBindJSON(&req)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		httpapi.Error(c, http.StatusBadRequest, "Task title is required", "MISSING_TITLE")
		return
	}
	if len(title) < 3 {
		httpapi.Error(c, http.StatusBadRequest, "Task title must be at least 3 characters", "TITLE_TOO_SHORT")
		return
	}

	assignedTo := req.AssignedTo
	if assignedTo == "" {
		assignedTo = identity.UserID
	}

	ctx := c.Request.Context()
	task, err := h.store.CreateTask(ctx, store.CreateTaskInput{
		TaskID:      uuid.New().String(),
		ProjectID:   projectID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      req.Status,
		AssignedTo:  assignedTo,
		CreatedBy:   identity.UserID,
	})
	if err != nil {
		h.log.Error("create task failed", zap.String("project_id", projectID), zap.Error(err))
		httpapi.Internal(c)
		return
	}

	h.stats.Invalidate(ctx, identity.UserID)
	httpapi.Success(c, http.StatusCreated, gin.H{"task": task}, "Task created successfully")
}

func (h *Handler) update(c *gin.Context) {
	identity, projectID, ok := h.requireMember(c)
	if !ok {
		return
	}

	taskID := c.Param("taskId")
	if taskID == "" {
		httpapi.Error(c, http.StatusBadRequest, "Task ID is required", "MISSING_PARAMETER")
		return
	}

	var req updateReq
	_ = c.ShouldBindJSON(&req)

	if req.Title == nil && req.Description == nil && req.Status == nil && req.AssignedTo == nil {
		httpapi.Error(c, http.StatusBadRequest, "No fields to update", "NO_UPDATES")
		return
	}
	if req.Title != nil && len(strings.TrimSpace(*req.Title)) < 3 {
		httpapi.Error(c, http.StatusBadRequest, "Task title must be at least 3 characters", "TITLE_TOO_SHORT")
		return
	}

	ctx := c.Request.Context()
	task, err := h.store.UpdateTask(ctx, projectID, taskID, store.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	})
	if errors.Is(err, store.ErrNotFound) {
		httpapi.Error(c, http.StatusNotFound, "Task not found", "NOT_FOUND")
		return
	}
	if err != nil {
		h.log.Error("update task failed", zap.String("task_id", taskID), zap.Error(err))
		httpapi.Internal(c)
		return
	}

	h.stats.Invalidate(ctx, identity.UserID)
	httpapi.Success(c, http.StatusOK, gin.H{"task": task}, "Task updated successfully")
}

func (h *Handler) delete(c *gin.Context) {
	identity, projectID, ok := h.requireMember(c)
	if !ok {
		return
	}

	taskID := c.Param("taskId")
	if taskID == "" {
		httpapi.Error(c, http.StatusBadRequest, "Task ID is required", "MISSING_PARAMETER")
		return
	}

	ctx := c.Request.Context()
	err := h.store.DeleteTask(ctx, projectID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		httpapi.Error(c, http.StatusNotFound, "Task not found", "NOT_FOUND")
		return
	}
	if err != nil {
		h.log.Error("delete task failed", zap.String("task_id", taskID), zap.Error(err))
		httpapi.Internal(c)
		return
	}

	h.stats.Invalidate(ctx, identity.UserID)
	httpapi.Success(c, http.StatusOK, gin.H{"taskId": taskID}, "Task deleted successfully")
}
