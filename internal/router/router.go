// Package router assembles the HTTP surface. The middleware order is
// load-bearing: the tenant binding is installed before authentication
// and resolved immediately after it, so every handler below runs with a
// committed schema.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/optica/backend/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine *gin.Engine
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORS           middleware.CORSConfig
}

func DefaultConfig() Config {
	return Config{
		RateLimitRPS:   50,
		RateLimitBurst: 100,
		CORS:           middleware.DefaultCORSConfig(),
	}
}

type Handlers struct {
	Auth          Handler
	Patient       Handler
	Consultation  Handler
	Sale          Handler
	User          Handler
	Tenant        Handler
	RegisterExtra func(*gin.Engine)
}

func New(
	logger zerolog.Logger,
	authMW *middleware.AuthMiddleware,
	tenantMW *middleware.TenantMiddleware,
	handlers Handlers,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	middleware.RegisterValidators()
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.Metrics(),
		middleware.CORS(config.CORS),
		tenantMW.Bind(),
	)

	rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	engine.Use(rateLimiter.RateLimit())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if handlers.RegisterExtra != nil {
		handlers.RegisterExtra(engine)
	}

	api := engine.Group("/api/v1")

	// Public routes run on the default schema.
	handlers.Auth.RegisterRoutes(api)

	// Protected routes authenticate first, then resolve the binding.
	protected := api.Group("")
	protected.Use(authMW.Authenticate(), tenantMW.Resolve())

	handlers.Patient.RegisterRoutes(protected)
	handlers.Consultation.RegisterRoutes(protected)
	handlers.Sale.RegisterRoutes(protected)
	handlers.User.RegisterRoutes(protected)
	handlers.Tenant.RegisterRoutes(protected)

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
