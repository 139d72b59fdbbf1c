package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vision-router/internal/analyze"
	"vision-router/internal/capabilities"
	"vision-router/internal/classifier"
	"vision-router/internal/completion"
	"vision-router/internal/modelmetrics"
	"vision-router/internal/results"
	"vision-router/internal/services/health"
	"vision-router/internal/shared/config"
	"vision-router/internal/shared/metrics"
	"vision-router/internal/shared/server/middleware"
	"vision-router/internal/shared/server/respond"
)

// Rate limit groups.
const (
	groupAnalyze = "ANALYZE"
	groupDefault = "DEFAULT"
)

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config     config.Config
	Health     *health.Service
	Analyze    *analyze.Handler
	Results    *results.Handler
	Metrics    *modelmetrics.Handler
	Classifier *classifier.Handler
	Completion *completion.Handler
	Tasks      *capabilities.Handler
	Limiter    *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/", func(c *gin.Context) {
		respond.OK(c, gin.H{"message": "vision-router"})
	})
	r.GET("/metrics/prometheus", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		ok, checks := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ok": ok, "checks": checks})
	})

	limited := r.Group("", middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: groupDefault,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost {
				return groupAnalyze
			}
			return groupDefault
		},
		Limiter: deps.Limiter,
		Rules: map[string]middleware.RateLimitRule{
			groupAnalyze: {Rate: 1, Burst: 10},
		},
	}))

	if deps.Analyze != nil {
		deps.Analyze.RegisterRoutes(limited)
	}
	if deps.Results != nil {
		deps.Results.RegisterRoutes(&r.RouterGroup)
	}
	if deps.Metrics != nil {
		deps.Metrics.RegisterRoutes(&r.RouterGroup)
	}
	if deps.Classifier != nil {
		deps.Classifier.RegisterRoutes(&r.RouterGroup)
	}
	if deps.Completion != nil {
		deps.Completion.RegisterRoutes(&r.RouterGroup)
	}
	if deps.Tasks != nil {
		deps.Tasks.RegisterRoutes(&r.RouterGroup)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
