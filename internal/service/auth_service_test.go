package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"batchbook/internal/domain"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockUserRepo) SetVerified(_ context.Context, id string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsVerified = true
	m.usersByID[id] = user
	return nil
}

func newTestAuthService(users *mockUserRepo, otps *mockOTPRepo, sender *mockEmailSender) *AuthService {
	otpSvc := NewOTPService(zap.NewNop(), otps, sender, allowAllLimiter{})
	tokenSvc := NewTokenService("secret", time.Hour)
	return NewAuthService(zap.NewNop(), users, otpSvc, tokenSvc)
}

func TestAuthServiceRegister(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(users, newMockOTPRepo(), &mockEmailSender{})
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "Ann", "Ann@X.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ann@x.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret123" {
		t.Fatalf("expected salted hash, got %q", user.PasswordHash)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}

	_, _, err = svc.Register(ctx, "Ann", "ann@x.com", "secret123")
	if !errors.Is(err, ErrEmailConflict) {
		t.Fatalf("expected ErrEmailConflict on duplicate email, got %v", err)
	}
}

func TestAuthServiceLogin_IndistinguishableFailures(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(users, newMockOTPRepo(), &mockEmailSender{})
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Ann", "ann@x.com", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, errWrongPass := svc.Login(ctx, "ann@x.com", "wrong")
	_, _, errNoUser := svc.Login(ctx, "ghost@x.com", "whatever")

	if !errors.Is(errWrongPass, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPass)
	}
	if !errors.Is(errNoUser, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", errNoUser)
	}
	if errWrongPass.Error() != errNoUser.Error() {
		t.Fatalf("expected identical messages, got %q vs %q", errWrongPass.Error(), errNoUser.Error())
	}

	if _, _, err := svc.Login(ctx, "ann@x.com", "secret123"); err != nil {
		t.Fatalf("valid login: %v", err)
	}
}

func TestAuthServiceLogin_PasswordUsedVerbatim(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(users, newMockOTPRepo(), &mockEmailSender{})
	ctx := context.Background()

	// El password se hashea tal cual llega, espacios incluidos.
	if _, _, err := svc.Register(ctx, "Ann", "ann@x.com", " spacedpass1 "); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ann@x.com", " spacedpass1 "); err != nil {
		t.Fatalf("login with the exact registered password failed: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ann@x.com", "spacedpass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("trimmed variant: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthServiceRequestOTP_UnknownUser(t *testing.T) {
	users := newMockUserRepo()
	otps := newMockOTPRepo()
	svc := newTestAuthService(users, otps, &mockEmailSender{})

	err := svc.RequestOTP(context.Background(), "new@x.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if otps.upserts != 0 {
		t.Fatalf("expected no challenge row created, got %d upserts", otps.upserts)
	}
}

func TestAuthServiceVerifyOTPLogin(t *testing.T) {
	users := newMockUserRepo()
	otps := newMockOTPRepo()
	sender := &mockEmailSender{}
	svc := newTestAuthService(users, otps, sender)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Ann", "ann@x.com", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RequestOTP(ctx, "ann@x.com"); err != nil {
		t.Fatalf("request otp: %v", err)
	}

	user, pair, err := svc.VerifyOTPLogin(ctx, "ann@x.com", sender.lastCode)
	if err != nil {
		t.Fatalf("verify otp login: %v", err)
	}
	if !user.IsVerified {
		t.Fatalf("expected user marked verified after otp login")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}

	// El motor propaga sus fallos tal cual.
	_, _, err = svc.VerifyOTPLogin(ctx, "ann@x.com", sender.lastCode)
	if !errors.Is(err, ErrOTPAlreadyUsed) {
		t.Fatalf("expected ErrOTPAlreadyUsed, got %v", err)
	}
}

func TestAuthServiceCurrentUser(t *testing.T) {
	users := newMockUserRepo()
	svc := newTestAuthService(users, newMockOTPRepo(), &mockEmailSender{})
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "Ann", "ann@x.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.CurrentUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected %q, got %q", user.ID, got.ID)
	}

	if _, err := svc.CurrentUser(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
