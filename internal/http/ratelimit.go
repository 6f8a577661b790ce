package http

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware aplica limites por IP de cliente: una ventana corta
// para solicitudes de OTP y una ventana larga para intentos de login,
// registro y verificacion.
type RateLimitMiddleware struct {
	authPer15Min int
	otpPerMin    int
	mu           sync.Mutex
	clients      map[string]*clientLimiter
}

type clientLimiter struct {
	auth     *rate.Limiter
	otp      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimitMiddleware(authPer15Min, otpPerMin int) *RateLimitMiddleware {
	if authPer15Min <= 0 {
		authPer15Min = 5
	}
	if otpPerMin <= 0 {
		otpPerMin = 2
	}
	return &RateLimitMiddleware{
		authPer15Min: authPer15Min,
		otpPerMin:    otpPerMin,
		clients:      map[string]*clientLimiter{},
	}
}

// Auth limita register/login/verify-otp.
func (m *RateLimitMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.getLimiter(extractClientIP(c)).auth.Allow() {
			m.reject(c, "Too many authentication attempts, please try again later")
			return
		}
		c.Next()
	}
}

// OTP limita request-otp.
func (m *RateLimitMiddleware) OTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.getLimiter(extractClientIP(c)).otp.Allow() {
			m.reject(c, "Too many OTP requests, please wait before requesting again")
			return
		}
		c.Next()
	}
}

func (m *RateLimitMiddleware) reject(c *gin.Context, message string) {
	c.Header("Retry-After", "60")
	respondError(c, http.StatusTooManyRequests, message)
	c.Abort()
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = time.Now()
		m.gcLocked()
		return limiter
	}

	window15 := 15 * time.Minute
	created := &clientLimiter{
		auth:     rate.NewLimiter(rate.Every(window15/time.Duration(m.authPer15Min)), m.authPer15Min),
		otp:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.otpPerMin)), m.otpPerMin),
		lastSeen: time.Now(),
	}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-30 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

func extractClientIP(c *gin.Context) string {
	forwarded := strings.TrimSpace(c.GetHeader("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	realIP := strings.TrimSpace(c.GetHeader("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(c.Request.RemoteAddr) == "" {
		return "unknown"
	}

	return c.Request.RemoteAddr
}
