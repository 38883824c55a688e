package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/taskhive/taskhive-backend/internal/api/http"
	"github.com/taskhive/taskhive-backend/internal/auth"
	authhttp "github.com/taskhive/taskhive-backend/internal/auth/http"
	projectshttp "github.com/taskhive/taskhive-backend/internal/projects/http"
	"github.com/taskhive/taskhive-backend/internal/stats"
	"github.com/taskhive/taskhive-backend/internal/store"
	taskshttp "github.com/taskhive/taskhive-backend/internal/tasks/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Store       *store.Store
	Tokens      *auth.TokenService
	StatsCache  *stats.Cache
	Redis       *redis.Client
	Logger      *zap.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	log := dep.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		log.Error("panic recovered", zap.Any("error", err))
		httpapi.Internal(c)
		c.Abort()
	}))

	r.Use(cors.New(cors.Config{
		AllowOriginFunc:           func(string) bool { return true },
		AllowMethods:              []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Content-Type", "Authorization"},
		AllowCredentials:          true,
		OptionsResponseStatusCode: http.StatusOK,
		MaxAge:                    12 * time.Hour,
	}))

	// Plain OPTIONS requests (no preflight headers) still get an empty 200.
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusOK)
			return
		}
		httpapi.Error(c, http.StatusNotFound, "Route not found", "NOT_FOUND")
	})

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Store, dep.Redis)
	healthHandler.RegisterRoutes(r)

	authn := auth.RequireAuth(dep.Tokens)

	authhttp.New(dep.Store, dep.Tokens, dep.StatsCache, log).Register(r.Group("/auth"), authn)

	projectsGroup := r.Group("/projects")
	projectsGroup.Use(authn)
	projectshttp.New(dep.Store, dep.StatsCache, log).Register(projectsGroup)
	taskshttp.New(dep.Store, dep.StatsCache, log).Register(projectsGroup)

	return r
}
