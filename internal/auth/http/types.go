package http

import (
	"go.uber.org/zap"

	"github.com/taskhive/taskhive-backend/internal/auth"
	"github.com/taskhive/taskhive-backend/internal/stats"
	"github.com/taskhive/taskhive-backend/internal/store"
)

// Handler bundles the dependencies for auth HTTP endpoints.
type Handler struct {
	store  *store.Store
	tokens *auth.TokenService
	stats  *stats.Cache
	log    *zap.Logger
}

func New(st *store.Store, tokens *auth.TokenService, statsCache *stats.Cache, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: st, tokens: tokens, stats: statsCache, log: logger}
}
