package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/expensio-app/expensio-go/internal/domain"
	"github.com/expensio-app/expensio-go/internal/port"
)

// ContactService forwards support messages to the team inbox.
type ContactService struct {
	users  port.UserStore
	mailer port.Mailer
	inbox  string
	logger *zap.Logger
}

// NewContactService creates the contact service.
func NewContactService(users port.UserStore, mailer port.Mailer, inbox string, logger *zap.Logger) *ContactService {
	return &ContactService{users: users, mailer: mailer, inbox: inbox, logger: logger}
}

// Send mails the user's message to the support inbox, annotated with who
// sent it.
func (s *ContactService) Send(ctx context.Context, userID string, req *domain.ContactRequest) error {
	ctx, span := tracer.Start(ctx, "Contact.Send")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if strings.TrimSpace(req.Message) == "" {
		return &domain.ErrValidation{Field: "message", Message: "message is required"}
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Support request"
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("From: %s <%s>\n\n%s", user.Name, user.Email, req.Message)
	if err := s.mailer.Send(ctx, s.inbox, subject, body); err != nil {
		return err
	}

	s.logger.Info("contact message forwarded", zap.String("user_id", userID))
	return nil
}
