package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"batchbook/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas de auth.
func NewRouter(
	logger *zap.Logger,
	authH *AuthHandler,
	tokenSvc *service.TokenService,
	rateLimit *RateLimitMiddleware,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", authH.Health)

	auth := r.Group("/api/auth")
	auth.POST("/register", rateLimit.Auth(), authH.Register)
	auth.POST("/login", rateLimit.Auth(), authH.Login)
	auth.POST("/request-otp", rateLimit.OTP(), authH.RequestOTP)
	auth.POST("/verify-otp", rateLimit.Auth(), authH.VerifyOTP)

	protected := auth.Group("", JWTAuthMiddleware(tokenSvc))
	protected.GET("/me", authH.Me)
	protected.POST("/logout", authH.Logout)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
