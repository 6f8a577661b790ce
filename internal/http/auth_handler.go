package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"batchbook/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de autenticacion.
type AuthHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		authServ: authServ,
	}
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}
	if errs := validateRegister(req.Name, req.Email, req.Password); len(errs) > 0 {
		respondValidation(c, http.StatusBadRequest, errs)
		return
	}

	user, pair, err := h.authServ.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailConflict) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("register failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondOK(c, http.StatusCreated, "User registered successfully", gin.H{
		"user":         user,
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}
	if errs := validateLogin(req.Email, req.Password); len(errs) > 0 {
		respondValidation(c, http.StatusBadRequest, errs)
		return
	}

	user, pair, err := h.authServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondOK(c, http.StatusOK, "Login successful", gin.H{
		"user":         user,
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

// RequestOTP maneja POST /api/auth/request-otp.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}
	if errs := validateEmail(req.Email); len(errs) > 0 {
		respondValidation(c, http.StatusBadRequest, errs)
		return
	}

	if err := h.authServ.RequestOTP(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrRateLimited):
			respondError(c, http.StatusTooManyRequests, "Too many OTP requests, please wait before requesting again")
		case errors.Is(err, service.ErrEmailSendFailure):
			h.logger.Error("otp delivery failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to send OTP")
		default:
			h.logger.Error("request otp failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to send OTP")
		}
		return
	}

	respondOK(c, http.StatusOK, "OTP sent successfully to your email", nil)
}

// VerifyOTP maneja POST /api/auth/verify-otp.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp verify request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}
	if errs := validateOTPVerify(req.Email, req.OTP); len(errs) > 0 {
		respondValidation(c, http.StatusBadRequest, errs)
		return
	}

	user, pair, err := h.authServ.VerifyOTPLogin(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrOTPNotFound),
			errors.Is(err, service.ErrOTPAlreadyUsed),
			errors.Is(err, service.ErrOTPExpired),
			errors.Is(err, service.ErrOTPTooManyAttempts),
			errors.Is(err, service.ErrOTPInvalid):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("verify otp failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "OTP verification failed")
		}
		return
	}

	respondOK(c, http.StatusOK, "OTP verified successfully", gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

// Me maneja GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, service.ErrTokenInvalid.Error())
		return
	}

	user, err := h.authServ.CurrentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Error("get current user failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to fetch user data")
		return
	}

	respondOK(c, http.StatusOK, "User data retrieved successfully", gin.H{"user": user})
}

// Logout maneja POST /api/auth/logout. El servidor no guarda sesiones, asi
// que siempre confirma; el borrado real de tokens ocurre en el cliente.
func (h *AuthHandler) Logout(c *gin.Context) {
	respondOK(c, http.StatusOK, "Logged out successfully", nil)
}

// Health maneja GET /health.
func (h *AuthHandler) Health(c *gin.Context) {
	respondOK(c, http.StatusOK, "ok", nil)
}
