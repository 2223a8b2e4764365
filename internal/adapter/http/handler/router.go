package handler

import (
	"moroccoin-backoffice/internal/adapter/http/middleware"
	redisStore "moroccoin-backoffice/internal/adapter/storage/redis"
	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc         ports.AuthService
	RefundSvc       ports.RefundService
	ReportingSvc    ports.ReportingService
	NotificationSvc ports.NotificationService
	TokenSvc        ports.TokenService
	AuditSvc        ports.AuditService              // nil = audit logging disabled
	RateLimitStore  *redisStore.RateLimitStore      // nil = rate limiting disabled
	HealthCheckers  []ports.HealthChecker
	ExemptPaths     []string // paths that bypass the auth gate
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
// The auth gate is global: everything except the configured exempt paths
// requires a verified token before any handler runs.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit
	r.Use(middleware.Authenticate(deps.TokenSvc, deps.ExemptPaths, deps.Logger))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", authHandler.Profile)
	}

	refundHandler := NewRefundHandler(deps.RefundSvc)
	refunds := v1.Group("/refunds")
	{
		refunds.GET("", refundHandler.List)
		refunds.POST("", rl("refunds"), refundHandler.Create)
		refunds.POST("/:id/process", middleware.RequireRole(domain.StaffRoleAdmin), refundHandler.Process)
	}

	txnHandler := NewTransactionHandler(deps.ReportingSvc)
	transactions := v1.Group("/transactions")
	{
		transactions.GET("", txnHandler.List)
		transactions.GET("/:id", txnHandler.GetByID)
	}

	userHandler := NewUserHandler(deps.ReportingSvc)
	users := v1.Group("/users")
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.GetByID)
		users.GET("/:id/transactions", userHandler.Transactions)
	}

	dashboardHandler := NewDashboardHandler(deps.ReportingSvc)
	dashboard := v1.Group("/dashboard")
	{
		dashboard.GET("/stats", dashboardHandler.GetStats)
		dashboard.GET("/chart", dashboardHandler.GetChart)
	}

	notificationHandler := NewNotificationHandler(deps.NotificationSvc)
	v1.POST("/notifications", rl("notifications"), notificationHandler.Send)

	if deps.AuditSvc != nil {
		auditHandler := NewAuditHandler(deps.AuditSvc)
		v1.GET("/audit-logs", middleware.RequireRole(domain.StaffRoleAdmin), auditHandler.List)
	}

	return r
}
