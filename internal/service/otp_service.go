package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"batchbook/internal/domain"
	"batchbook/internal/email"
	"batchbook/internal/repository"
)

// Errores del motor OTP. Los mensajes llegan tal cual al usuario final.
var (
	ErrOTPNotFound        = errors.New("OTP not found")
	ErrOTPAlreadyUsed     = errors.New("OTP already used")
	ErrOTPExpired         = errors.New("OTP expired")
	ErrOTPTooManyAttempts = errors.New("Too many failed attempts")
	ErrOTPInvalid         = errors.New("Invalid OTP")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
)

const (
	otpTTL         = 10 * time.Minute
	otpMaxAttempts = 3
	otpTypeEmail   = "email"
)

// OTPService genera, persiste y valida codigos de un solo uso.
type OTPService struct {
	logger  *zap.Logger
	otps    repository.OTPRepository
	sender  email.Sender
	limiter OTPRateLimiter
	now     func() time.Time
}

func NewOTPService(logger *zap.Logger, otps repository.OTPRepository, sender email.Sender, limiter OTPRateLimiter) *OTPService {
	if limiter == nil {
		limiter = NewOTPRateLimiter(time.Minute, 2)
	}
	return &OTPService{
		logger:  logger,
		otps:    otps,
		sender:  sender,
		limiter: limiter,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RequestChallenge genera un codigo de 6 digitos, sobreescribe el challenge
// previo del identificador (attempts en 0, is_used en false) y lo envia por
// correo. Un fallo de envio se reporta como ErrEmailSendFailure.
func (s *OTPService) RequestChallenge(ctx context.Context, identifier string) error {
	if s.otps == nil {
		return errors.New("otp service not configured")
	}

	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return ErrOTPInvalid
	}

	if s.limiter != nil && !s.limiter.Allow(identifier) {
		return ErrRateLimited
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(otpTTL)

	challenge := domain.OTPChallenge{
		Identifier: identifier,
		Code:       code,
		Type:       otpTypeEmail,
		ExpiresAt:  expiresAt,
		Attempts:   0,
		IsUsed:     false,
	}
	if err := s.otps.Upsert(ctx, challenge); err != nil {
		return err
	}

	if s.sender == nil {
		return ErrEmailSendFailure
	}
	if err := s.sender.SendLoginOTP(ctx, identifier, code, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send login otp failed", zap.Error(err), zap.String("email", identifier))
		}
		return ErrEmailSendFailure
	}
	return nil
}

// VerifyChallenge valida el codigo enviado contra el challenge vigente.
// Orden de chequeo: NotFound, AlreadyUsed, Expired, TooManyAttempts y
// recien entonces la comparacion de codigos, que consume un intento al fallar.
func (s *OTPService) VerifyChallenge(ctx context.Context, identifier, submittedCode string) error {
	if s.otps == nil {
		return errors.New("otp service not configured")
	}

	identifier = strings.ToLower(strings.TrimSpace(identifier))
	submittedCode = strings.TrimSpace(submittedCode)
	if identifier == "" {
		return ErrOTPNotFound
	}

	challenge, err := s.otps.Get(ctx, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOTPNotFound
		}
		return err
	}

	if challenge.IsUsed {
		return ErrOTPAlreadyUsed
	}
	if !s.now().Before(challenge.ExpiresAt) {
		return ErrOTPExpired
	}
	if challenge.Attempts >= otpMaxAttempts {
		return ErrOTPTooManyAttempts
	}
	if !isValidOTPCode(submittedCode) || challenge.Code != submittedCode {
		if err := s.otps.IncrementAttempts(ctx, identifier); err != nil {
			return err
		}
		return ErrOTPInvalid
	}

	return s.otps.MarkUsed(ctx, identifier)
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
