package router

import (
	"net/http"

	"brokerage-chat/backend/internal/api"
	"brokerage-chat/backend/pkg/config"
	"brokerage-chat/backend/pkg/di"
	"brokerage-chat/backend/pkg/errors"
	"brokerage-chat/backend/pkg/jwt"
	"brokerage-chat/backend/pkg/logger"
	"brokerage-chat/backend/pkg/middleware"
	"brokerage-chat/backend/shared/observability"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine      *gin.Engine
	Container   *di.Container
	Logger      *logger.Logger
	Config      *config.Config
	rateLimiter *middleware.RateLimiter
	openapi     gin.HandlerFunc
}

// New creates a new router with the given container
func New(container *di.Container) (*Router, error) {
	cfg := container.Config

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	api.RegisterValidation()
	observability.InitMetrics()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return nil, err
	}

	r := &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}

	// Request id first so every log line carries it
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(errors.ErrorHandler())
	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))
	engine.Use(bodyLimit(cfg.Security.MaxBodySize))
	engine.Use(observability.GinMiddleware())

	if err := r.addOpenAPIValidation(cfg.OpenAPI.SchemaPath); err != nil {
		return nil, err
	}

	return r, nil
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	c := r.Container

	jwtAuth := middleware.JWTAuthMiddleware(c.JWTService, c.TokenStore)
	operatorOnly := middleware.RequireAnyRole(jwt.RoleOperator, jwt.RoleAdmin)

	r.rateLimiter = middleware.NewRateLimiter(r.Logger, middleware.RateLimiterOptions{
		Limit: rate.Limit(r.Config.Security.RateLimit),
		Burst: r.Config.Security.RateLimitBurst,
	})

	r.setupHealthRoutes()

	// Visitor widget, unauthenticated and rate limited per client IP
	chat := r.Engine.Group("/api/chat")
	chat.Use(r.rateLimiter.Middleware(), r.openapi)
	api.NewChatHandler(c.ChatService).RegisterRoutes(chat)

	authHandler := api.NewAuthHandler(c.OperatorService)
	auth := r.Engine.Group("/api/auth")
	{
		auth.POST("/login", r.rateLimiter.Middleware(), r.openapi, authHandler.Login)
		auth.GET("/me", jwtAuth, authHandler.Me)
		auth.POST("/logout", jwtAuth, authHandler.Logout)
	}

	admin := r.Engine.Group("/api/admin/chat")
	{
		admin.GET("/feed", middleware.QueryTokenFallback(), jwtAuth, operatorOnly, api.NewFeedHandler(c.Hub).Serve)

		protected := admin.Group("")
		protected.Use(jwtAuth, operatorOnly, r.openapi)
		api.NewAdminChatHandler(c.ChatService).RegisterRoutes(protected)
	}
}

// Close releases router-owned resources
func (r *Router) Close() {
	if r.rateLimiter != nil {
		r.rateLimiter.Close()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader, "Retry-After"}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}

// bodyLimit caps request bodies; oversized JSON fails to bind
func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
