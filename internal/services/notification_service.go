package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"badgehub/internal/config"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// notificationService implements NotificationService against the Resend
// API. Delivery is strictly best-effort: an unconfigured provider or a
// replayed award reports "skipped", and every delivery failure collapses
// into "failed" with a reason instead of propagating.
type notificationService struct {
	sender mailSender
	cfg    *config.EmailConfig
	logger *zap.Logger
}

// mailSender is the slice of the Resend client the service needs; tests
// substitute a stub.
type mailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// NewNotificationService creates a new notification service. A missing
// API key leaves the sender nil and disables delivery; the system must
// function without email in development and test environments.
func NewNotificationService(cfg *config.EmailConfig, logger *zap.Logger) NotificationService {
	var sender mailSender
	if cfg.APIKey != "" {
		client := resend.NewClient(cfg.APIKey)
		sender = client.Emails
	}
	return &notificationService{
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}
}

// newNotificationServiceWithSender wires an explicit sender, used by tests.
func newNotificationServiceWithSender(sender mailSender, cfg *config.EmailConfig, logger *zap.Logger) NotificationService {
	return &notificationService{
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}
}

// Notify dispatches the issuance email and reports the outcome.
func (s *notificationService) Notify(ctx context.Context, req *NotifyRequest) EmailOutcome {
	if req.Reused {
		return EmailOutcome{Status: EmailSkipped, Reason: "existing award reused"}
	}
	if s.sender == nil {
		s.logger.Info("Email provider not configured, skipping notification",
			zap.String("recipient", req.RecipientEmail),
		)
		return EmailOutcome{Status: EmailSkipped, Reason: "email provider not configured"}
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	outcome := s.send(sendCtx, req)
	if outcome.Status == EmailFailed {
		s.logger.Error("Failed to send issuance notification",
			zap.String("recipient", req.RecipientEmail),
			zap.String("badge", req.BadgeName),
			zap.String("reason", outcome.Reason),
		)
	} else {
		s.logger.Info("Issuance notification sent",
			zap.String("recipient", req.RecipientEmail),
			zap.String("badge", req.BadgeName),
		)
	}

	return outcome
}

func (s *notificationService) send(ctx context.Context, req *NotifyRequest) (outcome EmailOutcome) {
	// The provider SDK reaches the network; an unexpected panic there must
	// not take the webhook request down with it.
	defer func() {
		if r := recover(); r != nil {
			outcome = EmailOutcome{Status: EmailFailed, Reason: fmt.Sprintf("panic during delivery: %v", r)}
		}
	}()

	from := s.cfg.FromAddress
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromAddress)
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{req.RecipientEmail},
		Subject: fmt.Sprintf("You earned the %s badge", req.BadgeName),
		Html:    s.renderBody(req),
	}
	if s.cfg.ReplyTo != "" {
		params.ReplyTo = s.cfg.ReplyTo
	}

	if _, err := s.sender.SendWithContext(ctx, params); err != nil {
		return EmailOutcome{Status: EmailFailed, Reason: err.Error()}
	}

	return EmailOutcome{Status: EmailSent}
}

func (s *notificationService) renderBody(req *NotifyRequest) string {
	name := req.RecipientName
	if name == "" {
		name = "there"
	}

	body := fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Congratulations! You've earned the <strong>%s</strong> badge.</p>
<p>Your badge page is live at <a href="%s">%s</a>. Share it anywhere; the verification code <code>%s</code> lets anyone confirm it's yours.</p>`,
		html.EscapeString(name),
		html.EscapeString(req.BadgeName),
		req.BadgeURL, req.BadgeURL,
		html.EscapeString(req.VerificationCode),
	)

	if req.Description != "" {
		body += fmt.Sprintf("<p>%s</p>", html.EscapeString(req.Description))
	}
	if req.CertificateURL != "" {
		body += fmt.Sprintf(`<p><a href="%s">Download your certificate</a></p>`, req.CertificateURL)
	}

	body += fmt.Sprintf("<p>Issued %s.</p>", time.Now().Format(issueDateFormat))
	return body
}
