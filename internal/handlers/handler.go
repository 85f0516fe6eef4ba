package handlers

import (
	"net/http"

	_ "task_manager/docs" // registers the OpenAPI doc
	"task_manager/internal/logger"
	"task_manager/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services    *service.Service
	log         *logger.Logger
	limiter     *RateLimiter
	metrics     *Metrics
	corsOrigins []string
}

// Option customizes a Handler.
type Option func(*Handler)

// WithRateLimiter throttles the auth endpoints.
func WithRateLimiter(l *RateLimiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithCORSOrigins sets the allowed origins; "*" allows any.
func WithCORSOrigins(origins []string) Option {
	return func(h *Handler) { h.corsOrigins = origins }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log, corsOrigins: []string{"*"}}
	for _, opt := range opts {
		opt(h)
	}
	if h.limiter != nil && h.limiter.metrics == nil {
		h.limiter.metrics = h.metrics
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(h.recovery(), h.requestLogger(), h.cors())

	if h.metrics != nil {
		router.Use(h.metrics.instrument())
		router.GET("/metrics", h.metrics.handler())
	}

	router.GET("/", h.root)
	router.GET("/health", h.health)
	router.GET("/readyz", h.ready)

	api := router.Group("/api/v1")
	{
		api.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		h.registerAuthRoutes(api)
		h.registerTaskRoutes(api)
		h.registerAuditRoutes(api)
	}

	router.NoRoute(func(c *gin.Context) {
		writeMessage(c, http.StatusNotFound, "Not found")
	})

	return router
}

func (h *Handler) registerAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth", h.limiter.Middleware())
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
	}
}

func (h *Handler) registerTaskRoutes(api *gin.RouterGroup) {
	tasks := api.Group("/tasks", h.authMiddleware)
	{
		tasks.POST("", h.createTask)
		tasks.GET("", h.listTasks)
		tasks.PUT("/:id", h.updateTask)
		tasks.DELETE("/:id", h.deleteTask)
	}
}

func (h *Handler) registerAuditRoutes(api *gin.RouterGroup) {
	audit := api.Group("/audit", h.authMiddleware)
	{
		audit.GET("", h.listAudit)
	}
}
