package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/service"
)

func newAuthService(store *mockUserStore) *service.AuthService {
	return service.NewAuthService(store, "test-secret", time.Hour, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMockUserStore()
	svc := newAuthService(store)

	user, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name:     "Priya",
		Email:    "Priya@Example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "priya@example.com" {
		t.Errorf("expected lowercased email, got %q", user.Email)
	}

	login, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "priya@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != user.ID {
		t.Errorf("expected same user id, got %q vs %q", login.User.ID, user.ID)
	}

	userID, role, err := svc.ValidateAccessToken(login.Token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if userID != user.ID {
		t.Errorf("expected subject %q, got %q", user.ID, userID)
	}
	if role != "" {
		t.Errorf("expected empty role for regular user, got %q", role)
	}
}

func TestSignup_IssuesToken(t *testing.T) {
	store := newMockUserStore()
	svc := newAuthService(store)

	resp, err := svc.Signup(context.Background(), &domain.RegisterRequest{
		Name:     "Priya",
		Email:    "priya@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if !resp.Success || resp.Token == "" {
		t.Fatal("expected success with a token")
	}

	userID, _, err := svc.ValidateAccessToken(resp.Token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if userID != resp.User.ID {
		t.Errorf("expected subject %q, got %q", resp.User.ID, userID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newMockUserStore(&domain.User{ID: "u-1", Email: "taken@example.com"})
	svc := newAuthService(store)

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name:     "Someone",
		Email:    "taken@example.com",
		Password: "secret123",
	})

	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newAuthService(newMockUserStore())

	cases := []struct {
		name string
		req  domain.RegisterRequest
	}{
		{"missing name", domain.RegisterRequest{Email: "a@b.com", Password: "secret123"}},
		{"one-letter name", domain.RegisterRequest{Name: "P", Email: "a@b.com", Password: "secret123"}},
		{"bad email", domain.RegisterRequest{Name: "Ana", Email: "not-an-email", Password: "secret123"}},
		{"short password", domain.RegisterRequest{Name: "Ana", Email: "a@b.com", Password: "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &tc.req)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	store := newMockUserStore()
	svc := newAuthService(store)

	if _, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name:     "Priya",
		Email:    "priya@example.com",
		Password: "secret123",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Wrong password and unknown email must be indistinguishable.
	_, badPass := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "priya@example.com",
		Password: "wrong-password",
	})
	_, unknown := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})

	for _, err := range []error{badPass, unknown} {
		var unauthorized *domain.ErrUnauthorized
		if !errors.As(err, &unauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
		if err.Error() != "invalid credentials" {
			t.Errorf("expected uniform message, got %q", err.Error())
		}
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	store := newMockUserStore()
	signer := newAuthService(store)

	reg, err := signer.Signup(context.Background(), &domain.RegisterRequest{
		Name:     "Priya",
		Email:    "priya@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	verifier := service.NewAuthService(store, "different-secret", time.Hour, zap.NewNop())
	if _, _, err := verifier.ValidateAccessToken(reg.Token); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestValidateAccessToken_Expired(t *testing.T) {
	store := newMockUserStore()
	svc := service.NewAuthService(store, "test-secret", -time.Minute, zap.NewNop())

	reg, err := svc.Signup(context.Background(), &domain.RegisterRequest{
		Name:     "Priya",
		Email:    "priya@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, _, err := svc.ValidateAccessToken(reg.Token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestUpdateProfile(t *testing.T) {
	store := newMockUserStore(&domain.User{ID: "u-1", Name: "Old", Email: "old@example.com"})
	svc := newAuthService(store)

	user, err := svc.UpdateProfile(context.Background(), "u-1", &domain.UpdateProfileRequest{Name: "New"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if user.Name != "New" {
		t.Errorf("expected updated name, got %q", user.Name)
	}

	_, err = svc.UpdateProfile(context.Background(), "u-1", &domain.UpdateProfileRequest{})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Errorf("expected validation error for empty update, got %v", err)
	}
}
