package http

import (
	"go.uber.org/zap"

	"github.com/taskhive/taskhive-backend/internal/stats"
	"github.com/taskhive/taskhive-backend/internal/store"
)

// Handler bundles the dependencies for project HTTP endpoints.
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
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// updateReq uses pointers so an absent field and an explicit empty value are
// distinguishable: absent fields stay untouched, explicit values are written
// as given. Unknown fields are dropped by the JSON decoder, not rejected.
type updateReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// projectDetail is the GET /projects/:id response shape: metadata plus the
// member list and the caller's role.
type projectDetail struct {
	store.Project
	Members  []store.Member `json:"members"`
	UserRole string         `json:"userRole"`
}
