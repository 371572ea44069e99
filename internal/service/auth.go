// Package service contains the business logic for Expensio: auth,
// transactions, budgets, bills, analytics, the chatbot and the
// subscription flow.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/port"
)

var tracer = otel.Tracer("service")

// AuthService handles registration, login and profile updates.
type AuthService struct {
	users     port.UserStore
	jwtSecret []byte
	jwtTTL    time.Duration
	logger    *zap.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(users port.UserStore, jwtSecret string, jwtTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		jwtTTL:    jwtTTL,
		logger:    logger,
	}
}

// Register creates a new account. It does not issue a token; the client
// is expected to log in (or use Signup, which does both).
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Auth.Register")
	defer span.End()

	if len(strings.TrimSpace(req.Name)) < 2 {
		return nil, &domain.ErrValidation{Field: "name", Message: "name must be at least 2 characters"}
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "valid email is required"}
	}
	if len(req.Password) < 6 {
		return nil, &domain.ErrValidation{Field: "password", Message: "password must be at least 6 characters"}
	}

	// Reject duplicate emails up front. The unique index on users.email is
	// the real guard; this check just gives a friendlier error.
	if existing, err := s.users.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, &domain.ErrConflict{Message: "email already registered"}
	} else if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, &domain.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return user, nil
}

// Signup registers the account and immediately issues a token, saving the
// client a separate login round trip.
func (s *AuthService) Signup(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error) {
	ctx, span := tracer.Start(ctx, "Auth.Signup")
	defer span.End()

	user, err := s.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	token, err := s.signToken(user)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResponse{
		Success: true,
		Token:   token,
		User:    domain.UserInfo{ID: user.ID, Name: user.Name, Email: user.Email},
	}, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := tracer.Start(ctx, "Auth.Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email and password are required"}
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			// Same error as a bad password: never reveal which part failed.
			return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	token, err := s.signToken(user)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResponse{
		Success: true,
		Token:   token,
		User:    domain.UserInfo{ID: user.ID, Name: user.Name, Email: user.Email},
	}, nil
}

// GetUser returns the account for the given id.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Auth.GetUser")
	defer span.End()

	return s.users.GetUserByID(ctx, userID)
}

// UpdateProfile changes name, email and/or password for the caller.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Auth.UpdateProfile")
	defer span.End()

	updates := make(map[string]any)
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if !strings.Contains(email, "@") {
			return nil, &domain.ErrValidation{Field: "email", Message: "valid email is required"}
		}
		updates["email"] = email
	}
	if req.Password != "" {
		if len(req.Password) < 6 {
			return nil, &domain.ErrValidation{Field: "password", Message: "password must be at least 6 characters"}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}

	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "nothing to update"}
	}

	return s.users.UpdateUser(ctx, userID, updates)
}

// tokenClaims are the JWT claims carried by access tokens.
type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) signToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses and verifies a token, returning the subject
// user id and role claim.
func (s *AuthService) ValidateAccessToken(tokenString string) (userID, role string, err error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", "", &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}
	if claims.Subject == "" {
		return "", "", &domain.ErrUnauthorized{Message: "token missing subject"}
	}
	return claims.Subject, claims.Role, nil
}
