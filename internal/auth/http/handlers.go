package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httpapi "github.com/taskhive/taskhive-backend/internal/api/http"
	"github.com/taskhive/taskhive-backend/internal/auth"
)

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	_ = c.ShouldBindJSON(&req)

	for _, field := range []struct{ name, value string }{
		{"email", req.Email},
		{"password", req.Password},
		{"name", req.Name},
	} {
		if field.value == "" {
			httpapi.Error(c, http.StatusBadRequest, "Missing required field: "+field.name, "MISSING_FIELD")
			return
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		httpapi.Error(c, http.StatusBadRequest, "Invalid email address", "INVALID_EMAIL")
		return
	}
	if len(req.Password) < 6 {
		httpapi.Error(c, http.StatusBadRequest, "Password must be at least 6 characters", "WEAK_PASSWORD")
		return
	}

	ctx := c.Request.Context()

	// Check-then-write: a concurrent registration with the same email can
	// slip through. The table has no uniqueness constraint.
	existing, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		h.log.Error("email lookup failed", zap.Error(err))
		httpapi.Internal(c)
		return
	}
	if existing != nil {
		httpapi.Error(c, http.StatusBadRequest, "Email is already registered", "EMAIL_EXISTS")
		return
	}

	userID := uuid.New().String()
	name := strings.TrimSpace(req.Name)

	if _, err := h.store.CreateUser(ctx, userID, email, name, auth.HashPassword(req.Password)); err != nil {
		h.log.Error("create user failed", zap.Error(err))
		httpapi.Internal(c)
		return
	}

	identity := auth.Identity{UserID: userID, Email: email, Name: name}
	token, err := h.tokens.IssueToken(identity)
	if err != nil {
		h.log.Error("token issue failed", zap.Error(err))
		httpapi.Internal(c)
		return
	}

	httpapi.Success(c, http.StatusCreated, gin.H{
		"token": token,
		"user":  identity,
	}, "User registered successfully")
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	_ = c.ShouldBindJSON(&req)

	if req.Email == "" || req.Password == "" {
		httpapi.Error(c, http.StatusBadRequest, "Email and password are required", "MISSING_CREDENTIALS")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.store.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		h.log.Error("email lookup failed", zap.Error(err))
		httpapi.Internal(c)
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		httpapi.Error(c, http.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS")
		return
	}

	identity := auth.Identity{UserID: user.UserID, Email: user.Email, Name: user.Name}
	token, err := h.tokens.IssueToken(identity)
	if err != nil {
		h.log.Error("token issue failed", zap.Error(err))
		httpapi.Internal(c)
		return
	}

	httpapi.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  identity,
	}, "Login successful")
}

func (h *Handler) me(c *gin.Context) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		httpapi.Error(c, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
		return
	}

	ctx := c.Request.Context()

	statistics, cached := h.stats.Get(ctx, identity.UserID)
	if !cached {
		var err error
		statistics, err = h.store.GetUserStatistics(ctx, identity.UserID)
		if err != nil {
			h.log.Error("statistics failed", zap.String("user_id", identity.UserID), zap.Error(err))
			httpapi.Internal(c)
			return
		}
		h.stats.Set(ctx, identity.UserID, statistics)
	}

	httpapi.Success(c, http.StatusOK, gin.H{
		"user":       identity,
		"statistics": statistics,
	}, "")
}
