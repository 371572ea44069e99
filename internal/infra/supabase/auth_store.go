package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/infra/resilience"
)

// supabaseUser maps the users table columns to our domain.
type supabaseUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	IsPremium    bool   `json:"is_premium"`
	Role         string `json:"role"`
	CreatedAt    string `json:"created_at"`
}

func (u supabaseUser) toDomain() *domain.User {
	created, _ := time.Parse(time.RFC3339, u.CreatedAt)
	return &domain.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsPremium:    u.IsPremium,
		Role:         u.Role,
		CreatedAt:    created,
	}
}

// GetUserByID fetches a single user by primary key.
func (c *Client) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByID")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("users?id=eq.%s&limit=1", url.QueryEscape(userID))
	return c.fetchUser(ctx, path, userID)
}

// GetUserByEmail fetches a single user by email.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	path := fmt.Sprintf("users?email=eq.%s&limit=1", url.QueryEscape(email))
	return c.fetchUser(ctx, path, email)
}

func (c *Client) fetchUser(ctx context.Context, path, id string) (*domain.User, error) {
	var user *domain.User

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "user", ID: id}
			}

			var rows []supabaseUser
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode user: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "user", ID: id}
			}

			user = rows[0].toDomain()
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}

	return user, nil
}

// CreateUser inserts a new user row.
func (c *Client) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	var created *domain.User

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doPost(ctx, "users", map[string]any{
				"id":            user.ID,
				"name":          user.Name,
				"email":         user.Email,
				"password_hash": user.PasswordHash,
				"is_premium":    user.IsPremium,
				"role":          user.Role,
				"created_at":    user.CreatedAt.Format(time.RFC3339),
			})
			if err != nil {
				return err
			}

			var rows []supabaseUser
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode created user: %w", err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("insert returned no row")
			}

			created = rows[0].toDomain()
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}

	return created, nil
}

// UpdateUser patches the given columns and returns the updated user.
func (c *Client) UpdateUser(ctx context.Context, userID string, updates map[string]any) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var updated *domain.User

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("users?id=eq.%s", url.QueryEscape(userID))
			body, err := c.doPatchReturning(ctx, path, updates)
			if err != nil {
				return err
			}

			var rows []supabaseUser
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode updated user: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "user", ID: userID}
			}

			updated = rows[0].toDomain()
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}

	return updated, nil
}

// CountUsers returns the total and premium user counts.
func (c *Client) CountUsers(ctx context.Context) (int, int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountUsers")
	defer span.End()

	var total, premium int

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, "users?select=is_premium")
			if err != nil {
				return err
			}
			if body == nil {
				return nil
			}

			var rows []struct {
				IsPremium bool `json:"is_premium"`
			}
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode user counts: %w", err)
			}

			total = len(rows)
			premium = 0
			for _, r := range rows {
				if r.IsPremium {
					premium++
				}
			}
			return nil
		})
	})

	if err != nil {
		return 0, 0, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}

	return total, premium, nil
}

// ListUsers returns the reduced user view for the admin panel.
func (c *Client) ListUsers(ctx context.Context) ([]domain.AdminUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListUsers")
	defer span.End()

	var users []domain.AdminUser

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, "users?select=id,name,email,is_premium&order=created_at.desc")
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				users = []domain.AdminUser{}
				return nil
			}

			var rows []struct {
				ID        string `json:"id"`
				Name      string `json:"name"`
				Email     string `json:"email"`
				IsPremium bool   `json:"is_premium"`
			}
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode user list: %w", err)
			}

			users = make([]domain.AdminUser, 0, len(rows))
			for _, r := range rows {
				users = append(users, domain.AdminUser{
					ID:        r.ID,
					Name:      r.Name,
					Email:     r.Email,
					IsPremium: r.IsPremium,
				})
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}

	return users, nil
}

// SetPremium flips a user's premium flag and returns the admin view.
func (c *Client) SetPremium(ctx context.Context, userID string, premium bool) (*domain.AdminUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SetPremium")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	user, err := c.UpdateUser(ctx, userID, map[string]any{"is_premium": premium})
	if err != nil {
		return nil, err
	}

	return &domain.AdminUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		IsPremium: user.IsPremium,
	}, nil
}
