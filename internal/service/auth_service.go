package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"batchbook/internal/domain"
	"batchbook/internal/repository"
)

var (
	ErrEmailConflict      = errors.New("User already exists with this email")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrUserNotFound       = errors.New("User not found")
	ErrInvalidEmail       = errors.New("invalid email")
)

const bcryptCost = 12

// AuthService orquesta registro, login y el flujo OTP sobre el repositorio
// de usuarios, el motor OTP y el emisor de tokens.
type AuthService struct {
	logger *zap.Logger
	users  repository.UserRepository
	otp    *OTPService
	tokens *TokenService
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, otp *OTPService, tokens *TokenService) *AuthService {
	return &AuthService{
		logger: logger,
		users:  users,
		otp:    otp,
		tokens: tokens,
	}
}

// Register crea el usuario con hash de password y emite su par de tokens.
// Falla con ErrEmailConflict si el email ya esta registrado.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.User, TokenPair, error) {
	if s.users == nil {
		return domain.User{}, TokenPair{}, errors.New("auth service not configured")
	}

	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return domain.User{}, TokenPair{}, ErrInvalidEmail
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, TokenPair{}, ErrEmailConflict
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, TokenPair{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hashBytes),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Login autentica por password. Usuario inexistente y password incorrecta
// devuelven el mismo ErrInvalidCredentials, sin distinguir la causa.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, TokenPair, error) {
	if s.users == nil {
		return domain.User{}, TokenPair{}, errors.New("auth service not configured")
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, TokenPair{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// RequestOTP delega en el motor OTP para un usuario ya registrado.
// El codigo nunca vuelve en la respuesta, solo sale por correo.
func (s *AuthService) RequestOTP(ctx context.Context, email string) error {
	if s.users == nil || s.otp == nil {
		return errors.New("auth service not configured")
	}

	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidEmail
	}

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	return s.otp.RequestChallenge(ctx, email)
}

// VerifyOTPLogin valida el codigo y, de ser correcto, emite el par de tokens.
// Cualquier fallo del motor OTP se propaga con su mensaje original.
func (s *AuthService) VerifyOTPLogin(ctx context.Context, email, code string) (domain.User, TokenPair, error) {
	if s.users == nil || s.otp == nil {
		return domain.User{}, TokenPair{}, errors.New("auth service not configured")
	}

	email = normalizeEmail(email)
	if err := s.otp.VerifyChallenge(ctx, email, code); err != nil {
		return domain.User{}, TokenPair{}, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, TokenPair{}, ErrUserNotFound
		}
		return domain.User{}, TokenPair{}, err
	}

	if !user.IsVerified {
		if err := s.users.SetVerified(ctx, user.ID); err != nil {
			return domain.User{}, TokenPair{}, err
		}
		user.IsVerified = true
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// CurrentUser devuelve el usuario detras de un access token ya validado.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("auth service not configured")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
