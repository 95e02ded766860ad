// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/interfaces/http/handler"
	"shadow-ai-sentinel/internal/interfaces/http/middleware"
)

// Deps 路由依赖
type Deps struct {
	Health      *handler.HealthHandler
	Events      *handler.EventHandler
	Summary     *handler.SummaryHandler
	Analysis    *handler.AnalysisHandler
	RateLimiter middleware.RateLimiter
	Audit       middleware.AuditPublisher
}

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	deps   Deps
}

// New 创建新的路由器
func New(cfg *config.Config, deps Deps) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine: gin.New(),
		cfg:    cfg,
		deps:   deps,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	r.engine.Use(middleware.Auth(middleware.AuthConfig{
		Enabled:   r.cfg.Security.JWT.Enabled,
		Secret:    r.cfg.Security.JWT.Secret,
		Issuer:    r.cfg.Security.JWT.Issuer,
		SkipPaths: middleware.DefaultSkipPaths,
	}))

	r.engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           r.deps.RateLimiter != nil,
		RequestsPerSecond: 100,
	}, r.deps.RateLimiter))

	r.engine.Use(middleware.Audit(r.deps.Audit, middleware.DefaultAuditSkipPaths))
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.deps.Health.Health)
	r.engine.GET("/ready", r.deps.Health.Ready)
	r.engine.GET("/live", r.deps.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/v1")
	{
		v1.GET("/summary", r.deps.Summary.Get)
		v1.GET("/summary/brief", r.deps.Summary.Brief)

		events := v1.Group("/events")
		{
			events.GET("", r.deps.Events.List)
			events.GET("/:id", r.deps.Events.Get)
		}

		analysis := v1.Group("/analysis")
		{
			analysis.POST("/runs", r.deps.Analysis.CreateRun)
			analysis.POST("/enrichment/backfill", r.deps.Analysis.BackfillEnrichment)
		}
	}
}
