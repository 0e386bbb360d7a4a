// Package mailer delivers transactional email for compliance notifications
// and one-time signup codes.
package mailer

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is a single outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends email messages.
type Mailer interface {
	Send(msg Message) error
}

// SendGridMailer delivers mail through the SendGrid v3 API.
type SendGridMailer struct {
	key  string
	from *sgmail.Email
}

// NewSendGridMailer builds a SendGrid-backed mailer.
func NewSendGridMailer(apiKey, fromName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		key:  apiKey,
		from: sgmail.NewEmail(fromName, fromEmail),
	}
}

// Send delivers msg via SendGrid.
func (m *SendGridMailer) Send(msg Message) error {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	mail := sgmail.NewV3Mail()
	mail.SetFrom(m.from)
	mail.AddPersonalizations(p)
	mail.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		mail.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}

	req := sendgrid.GetRequest(m.key, "/v3/mail/send", "https://api.sendgrid.com")
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(mail)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleMailer logs messages instead of sending them. Used when no SendGrid
// key is configured, typically in development.
type ConsoleMailer struct {
	logger *zap.Logger
}

// NewConsoleMailer builds a log-only mailer.
func NewConsoleMailer(logger *zap.Logger) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{logger: logger}
}

// Send logs the message at info level.
func (m *ConsoleMailer) Send(msg Message) error {
	m.logger.Sugar().Infow("email (console delivery)",
		"to", msg.ToEmail, "subject", msg.Subject, "body", msg.Text)
	return nil
}

// New selects a SendGrid mailer when apiKey is set, otherwise a console
// mailer.
func New(apiKey, fromName, fromEmail string, logger *zap.Logger) Mailer {
	if apiKey == "" {
		return NewConsoleMailer(logger)
	}
	return NewSendGridMailer(apiKey, fromName, fromEmail)
}
