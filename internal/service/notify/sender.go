package notify

import (
	"bytes"
	"context"
	"fmt"

	"log/slog"

	mail "github.com/wneessen/go-mail"

	"github.com/ybthummar/MathFlowAI/pkg/config"
)

// Email is a rendered outbound message.
type Email struct {
	To         string
	ToName     string
	Subject    string
	HTML       string
	Attachment *Attachment
}

// Attachment is an optional file carried by an Email.
type Attachment struct {
	Filename string
	Content  []byte
}

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// SMTPSender delivers mail through the configured SMTP relay.
type SMTPSender struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewSMTPSender builds a Sender from SMTP configuration.
func NewSMTPSender(cfg config.APIConfig) (*SMTPSender, error) {
	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUsername),
		mail.WithPassword(cfg.SMTPPassword),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("configure smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.MailFrom, fromName: cfg.MailFromName}, nil
}

// Send composes and delivers a single message.
func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.AddToFormat(email.ToName, email.To); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.HTML)
	if email.Attachment != nil {
		if err := msg.AttachReader(email.Attachment.Filename, bytes.NewReader(email.Attachment.Content)); err != nil {
			return fmt.Errorf("attach %s: %w", email.Attachment.Filename, err)
		}
	}
	return s.client.DialAndSendWithContext(ctx, msg)
}

// LogSender drops mail with a log line. Used when SMTP is not configured so
// registration keeps working in environments without a relay.
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the message instead of delivering it.
func (s LogSender) Send(_ context.Context, email Email) error {
	s.Logger.Info("smtp not configured, dropping email",
		"to", email.To,
		"subject", email.Subject,
		"attachment", email.Attachment != nil,
	)
	return nil
}
