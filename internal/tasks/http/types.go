package http

import (
	"go.uber.org/zap"

	"github.com/taskhive/taskhive-backend/internal/stats"
	"github.com/taskhive/taskhive-backend/internal/store"
)

// Handler bundles the dependencies for task HTTP endpoints.
type Handler struct {
	store *store.Store
	stats *stats.Cache
	log   *zap.Logger
}

func New(st *store.Store, statsCache *stats.Cache, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: st, stats: statsCache, log: logger}
}

type createReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AssignedTo  string `json:"assignedTo"`
}

// updateReq mirrors the project update shape: nil means untouched, set
// values (including empty) are written as given.
type updateReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	AssignedTo  *string `json:"assignedTo"`
}
