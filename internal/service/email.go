package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nuvoor/careadmin/internal/markdown"
	"github.com/nuvoor/careadmin/internal/metrics"
	"github.com/resend/resend-go/v2"
)

const emailTypePasswordReset = "password_reset"

var ErrEmailNotConfigured = errors.New("email service not configured (missing RESEND_API_KEY)")

// Message is one outbound email. Body is plain text; HTML is optional.
type Message struct {
	To      string
	Subject string
	Body    string
	HTML    string
}

// Sender delivers a Message. Implementations must return once ctx is done;
// EmailService stops waiting at its timeout but cannot stop a Send call.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// resendSender delivers through the Resend API.
type resendSender struct {
	client    *resend.Client
	fromEmail string
}

func (s *resendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
		Html:    msg.HTML,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	return err
}

// logSender prints emails instead of sending them (development mode).
type logSender struct{}

func (logSender) Send(_ context.Context, msg Message) error {
	slog.Info("email sent (dev mode)", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

type unconfiguredSender struct{}

func (unconfiguredSender) Send(context.Context, Message) error {
	return ErrEmailNotConfigured
}

// NewSender picks the transport: log output in development, Resend otherwise.
func NewSender(apiKey, fromEmail string, isDev bool) Sender {
	if isDev {
		return logSender{}
	}
	if apiKey == "" {
		return unconfiguredSender{}
	}
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
	}
}

type EmailService struct {
	sender  Sender
	parser  *markdown.Parser
	appURL  string
	appName string
	timeout time.Duration
	metrics *metrics.Auth
}

func NewEmailService(sender Sender, appURL, appName string, timeout time.Duration, m *metrics.Auth) *EmailService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmailService{
		sender:  sender,
		parser:  markdown.NewParser(),
		appURL:  appURL,
		appName: appName,
		timeout: timeout,
		metrics: m,
	}
}

// PasswordResetURL is the frontend page that accepts token.
func (s *EmailService) PasswordResetURL(token string) string {
	return fmt.Sprintf("%s/reset-password/%s", s.appURL, token)
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, email, token string, validFor time.Duration) error {
	rendered, err := passwordResetEmail(s.parser, s.PasswordResetURL(token), s.appName, validFor)
	if err != nil {
		s.metrics.Email(emailTypePasswordReset, metrics.OutcomeError)
		return err
	}

	err = s.send(ctx, Message{
		To:      email,
		Subject: rendered.Subject,
		Body:    rendered.Text,
		HTML:    rendered.HTML,
	})
	if err != nil {
		s.metrics.Email(emailTypePasswordReset, metrics.OutcomeError)
		return err
	}

	s.metrics.Email(emailTypePasswordReset, metrics.OutcomeSuccess)
	slog.Info("email sent", "type", emailTypePasswordReset, "to", email)
	return nil
}

// send bounds delivery by the configured timeout. The caller gets an error
// at the deadline either way, but the Send goroutine lives until the sender
// returns: a transport that ignores ctx keeps it alive for as long as it
// blocks. resendSender passes ctx through to its HTTP request.
func (s *EmailService) send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.sender.Send(ctx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("email delivery timed out: %w", ctx.Err())
	}
}
